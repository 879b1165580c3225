package sync

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/danielgtaylor/huma/v2"
	"golang.org/x/exp/slog"

	"habitkeeper/internal/app/server/api/http/middleware/auth"
	"habitkeeper/internal/domain/habitsync"
	"habitkeeper/internal/model"
)

type Handler struct {
	service    habitsync.Servicer
	log        *slog.Logger
	middleware huma.Middlewares
}

func NewHandler(service habitsync.Servicer, log *slog.Logger, middleware huma.Middlewares) *Handler {
	return &Handler{
		service:    service,
		log:        log,
		middleware: middleware,
	}
}

func (h *Handler) SetupRoutes(api huma.API) {
	huma.Register(api, h.syncOp("sync-goals", "goals"), h.syncGoals)
	huma.Register(api, h.syncOp("sync-usage-sessions", "usage-sessions"), h.syncUsageSessions)
	huma.Register(api, h.syncOp("sync-usage-events", "usage-events"), h.syncUsageEvents)
	huma.Register(api, h.syncOp("sync-daily-stats", "daily-stats"), h.syncDailyStats)
	huma.Register(api, h.syncOp("sync-intervention-results", "intervention-results"), h.syncInterventionResults)
	huma.Register(api, h.syncOp("sync-streak-recoveries", "streak-recoveries"), h.syncStreakRecoveries)
	huma.Register(api, h.syncOp("sync-user-baselines", "user-baselines"), h.syncUserBaselines)
	huma.Register(api, h.syncOp("sync-settings", "settings"), h.syncSettings)
}

// syncable is what every entity record exposes for reconciliation.
type syncable interface {
	Key() string
	SyncInfo() model.SyncMeta
}

// metaSetter lets generic code stamp the authoritative metadata back onto a
// decoded record through its pointer.
type metaSetter[T any] interface {
	*T
	SetSyncInfo(model.SyncMeta)
}

func toRows[T syncable](records []T) ([]habitsync.Record, error) {
	out := make([]habitsync.Record, 0, len(records))
	for _, rec := range records {
		payload, err := json.Marshal(rec)
		if err != nil {
			return nil, fmt.Errorf("encode record %q: %w", rec.Key(), err)
		}
		meta := rec.SyncInfo()
		out = append(out, habitsync.Record{
			NaturalKey:   rec.Key(),
			CloudID:      meta.CloudID,
			Payload:      payload,
			LastModified: meta.LastModified,
		})
	}
	return out, nil
}

func fromRows[T any, PT metaSetter[T]](rows []habitsync.Record, ownerID string) ([]T, error) {
	out := make([]T, 0, len(rows))
	for _, row := range rows {
		var rec T
		if err := json.Unmarshal(row.Payload, &rec); err != nil {
			return nil, fmt.Errorf("decode record %q: %w", row.NaturalKey, err)
		}
		// Column values are authoritative; the embedded copy inside the
		// payload is whatever the uploading device had.
		PT(&rec).SetSyncInfo(model.SyncMeta{
			OwnerID:      ownerID,
			SyncStatus:   model.SyncSynced,
			CloudID:      row.CloudID,
			LastModified: row.LastModified,
		})
		out = append(out, rec)
	}
	return out, nil
}

func handle[T syncable, PT metaSetter[T]](ctx context.Context, h *Handler, entityType habitsync.EntityType, req recordsRequest[T]) recordsResponse[T] {
	owner, ok := auth.GetUserID(ctx)
	if !ok {
		return recordsResponse[T]{Status: habitsync.StatusError, Error: "unauthorized"}
	}
	if req.OwnerID != "" && req.OwnerID != owner {
		h.log.Warn("body owner does not match token owner",
			slog.String("type", string(entityType)))
		return recordsResponse[T]{Status: habitsync.StatusError, Error: "owner mismatch"}
	}

	rows, err := toRows(req.Records)
	if err != nil {
		return recordsResponse[T]{Status: habitsync.StatusError, Error: err.Error()}
	}

	resp, err := h.service.SyncRecords(ctx, habitsync.SyncRequest{
		OwnerID:    owner,
		EntityType: entityType,
		Since:      req.Since,
		Records:    rows,
	})
	if err != nil {
		h.log.Error("sync batch failed",
			slog.String("type", string(entityType)),
			slog.Any("error", err))
		return recordsResponse[T]{Status: habitsync.StatusError, Error: err.Error()}
	}

	records, err := fromRows[T, PT](resp.Records, owner)
	if err != nil {
		return recordsResponse[T]{Status: habitsync.StatusError, Error: err.Error()}
	}
	return recordsResponse[T]{
		Status:    resp.Status,
		Error:     resp.Error,
		Records:   records,
		Conflicts: resp.Conflicts,
	}
}

func (h *Handler) syncGoals(ctx context.Context, input *goalsInput) (*goalsOutput, error) {
	return &goalsOutput{Body: handle[model.Goal, *model.Goal](ctx, h, habitsync.EntityGoals, input.Body)}, nil
}

func (h *Handler) syncUsageSessions(ctx context.Context, input *usageSessionsInput) (*usageSessionsOutput, error) {
	return &usageSessionsOutput{Body: handle[model.UsageSession, *model.UsageSession](ctx, h, habitsync.EntityUsageSessions, input.Body)}, nil
}

func (h *Handler) syncUsageEvents(ctx context.Context, input *usageEventsInput) (*usageEventsOutput, error) {
	return &usageEventsOutput{Body: handle[model.UsageEvent, *model.UsageEvent](ctx, h, habitsync.EntityUsageEvents, input.Body)}, nil
}

func (h *Handler) syncDailyStats(ctx context.Context, input *dailyStatsInput) (*dailyStatsOutput, error) {
	return &dailyStatsOutput{Body: handle[model.DailyStats, *model.DailyStats](ctx, h, habitsync.EntityDailyStats, input.Body)}, nil
}

func (h *Handler) syncInterventionResults(ctx context.Context, input *interventionResultsInput) (*interventionResultsOutput, error) {
	return &interventionResultsOutput{Body: handle[model.InterventionResult, *model.InterventionResult](ctx, h, habitsync.EntityInterventionResults, input.Body)}, nil
}

func (h *Handler) syncStreakRecoveries(ctx context.Context, input *streakRecoveriesInput) (*streakRecoveriesOutput, error) {
	return &streakRecoveriesOutput{Body: handle[model.StreakRecovery, *model.StreakRecovery](ctx, h, habitsync.EntityStreakRecoveries, input.Body)}, nil
}

func (h *Handler) syncUserBaselines(ctx context.Context, input *userBaselinesInput) (*userBaselinesOutput, error) {
	return &userBaselinesOutput{Body: handle[model.UserBaseline, *model.UserBaseline](ctx, h, habitsync.EntityUserBaselines, input.Body)}, nil
}

func (h *Handler) syncSettings(ctx context.Context, input *settingsInput) (*settingsOutput, error) {
	owner, ok := auth.GetUserID(ctx)
	if !ok {
		return &settingsOutput{Body: settingsResponse{Status: habitsync.StatusError, Error: "unauthorized"}}, nil
	}

	row := habitsync.SettingsRow{LastModified: input.Body.Settings.LastModified}
	if len(input.Body.Settings.Groups) > 0 {
		payload, err := json.Marshal(input.Body.Settings.Groups)
		if err != nil {
			return &settingsOutput{Body: settingsResponse{Status: habitsync.StatusError, Error: err.Error()}}, nil
		}
		row.Payload = payload
	}

	resp, err := h.service.SyncSettings(ctx, habitsync.SettingsSyncRequest{
		OwnerID: owner,
		Since:   input.Body.Since,
		Row:     row,
	})
	if err != nil {
		h.log.Error("settings sync failed", slog.Any("error", err))
		return &settingsOutput{Body: settingsResponse{Status: habitsync.StatusError, Error: err.Error()}}, nil
	}

	out := settingsResponse{
		Status:    resp.Status,
		Error:     resp.Error,
		Conflicts: resp.Conflicts,
		Settings:  model.SettingsSnapshot{LastModified: resp.Row.LastModified},
	}
	if len(resp.Row.Payload) > 0 {
		if err := json.Unmarshal(resp.Row.Payload, &out.Settings.Groups); err != nil {
			return &settingsOutput{Body: settingsResponse{Status: habitsync.StatusError, Error: err.Error()}}, nil
		}
	}
	return &settingsOutput{Body: out}, nil
}
