package sync

import (
	"context"
	"encoding/json"
	"testing"
	"time"

	"github.com/danielgtaylor/huma/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"golang.org/x/exp/slog"

	"habitkeeper/internal/app/server/api/http/middleware/auth"
	"habitkeeper/internal/domain/habitsync"
	"habitkeeper/internal/model"
)

type MockService struct {
	mock.Mock
}

func (m *MockService) SyncRecords(ctx context.Context, req habitsync.SyncRequest) (*habitsync.SyncResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*habitsync.SyncResponse), args.Error(1)
}

func (m *MockService) SyncSettings(ctx context.Context, req habitsync.SettingsSyncRequest) (*habitsync.SettingsSyncResponse, error) {
	args := m.Called(ctx, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*habitsync.SettingsSyncResponse), args.Error(1)
}

func authedCtx(userID string) context.Context {
	return context.WithValue(context.Background(), auth.UserIDKey, userID)
}

func TestSyncGoalsRequiresAuth(t *testing.T) {
	h := NewHandler(new(MockService), slog.Default(), huma.Middlewares{})

	out, err := h.syncGoals(context.Background(), &goalsInput{})

	assert.NoError(t, err)
	assert.Equal(t, habitsync.StatusError, out.Body.Status)
	assert.Equal(t, "unauthorized", out.Body.Error)
}

func TestSyncGoalsRejectsForeignOwner(t *testing.T) {
	h := NewHandler(new(MockService), slog.Default(), huma.Middlewares{})

	out, err := h.syncGoals(authedCtx("u-1"), &goalsInput{
		Body: recordsRequest[model.Goal]{OwnerID: "u-2"},
	})

	assert.NoError(t, err)
	assert.Equal(t, habitsync.StatusError, out.Body.Status)
	assert.Equal(t, "owner mismatch", out.Body.Error)
}

func TestSyncGoalsRoundTripsAuthoritativeState(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, slog.Default(), huma.Middlewares{})

	goal := model.Goal{
		TargetApp:         "com.example.app",
		DailyLimitMinutes: 30,
		Enabled:           true,
		CreatedAt:         time.UnixMilli(1000).UTC(),
	}
	goal.SyncStatus = model.SyncPending
	goal.LastModified = 1000

	stored, _ := json.Marshal(goal)
	svc.On("SyncRecords", mock.Anything, mock.MatchedBy(func(req habitsync.SyncRequest) bool {
		return req.OwnerID == "u-1" &&
			req.EntityType == habitsync.EntityGoals &&
			req.Since == 42 &&
			len(req.Records) == 1 &&
			req.Records[0].NaturalKey == "com.example.app"
	})).Return(&habitsync.SyncResponse{
		Status: habitsync.StatusOK,
		Records: []habitsync.Record{{
			NaturalKey:   "com.example.app",
			CloudID:      "cloud-1",
			Payload:      stored,
			LastModified: 2000,
		}},
	}, nil)

	out, err := h.syncGoals(authedCtx("u-1"), &goalsInput{
		Body: recordsRequest[model.Goal]{Since: 42, Records: []model.Goal{goal}},
	})

	assert.NoError(t, err)
	assert.Equal(t, habitsync.StatusOK, out.Body.Status)
	assert.Len(t, out.Body.Records, 1)

	got := out.Body.Records[0]
	assert.Equal(t, "com.example.app", got.TargetApp)
	// Metadata comes from the server columns, not the uploaded payload.
	assert.Equal(t, "u-1", got.OwnerID)
	assert.Equal(t, model.SyncSynced, got.SyncStatus)
	assert.Equal(t, "cloud-1", got.CloudID)
	assert.Equal(t, int64(2000), got.LastModified)
}

func TestSyncSettingsEmptyGroupsMeansDownload(t *testing.T) {
	svc := new(MockService)
	h := NewHandler(svc, slog.Default(), huma.Middlewares{})

	svc.On("SyncSettings", mock.Anything, mock.MatchedBy(func(req habitsync.SettingsSyncRequest) bool {
		return req.OwnerID == "u-1" && len(req.Row.Payload) == 0
	})).Return(&habitsync.SettingsSyncResponse{
		Status: habitsync.StatusOK,
		Row: habitsync.SettingsRow{
			Payload:      json.RawMessage(`{"theme":{"mode":"dark"}}`),
			LastModified: 900,
		},
	}, nil)

	out, err := h.syncSettings(authedCtx("u-1"), &settingsInput{})

	assert.NoError(t, err)
	assert.Equal(t, habitsync.StatusOK, out.Body.Status)
	assert.Equal(t, int64(900), out.Body.Settings.LastModified)
	assert.Equal(t, "dark", out.Body.Settings.Groups["theme"]["mode"])
}
