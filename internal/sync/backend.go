package sync

import (
	"context"

	"habitkeeper/internal/model"
)

// Backend exchanges one entity type's records with the remote store.
//
// For every operation, records is the caller-filtered local set (pending
// records for an incremental push, the full owner set for an initial sync)
// and since bounds the remote-side query; since == 0 forces the remote to
// return its entire set for the owner. On success the returned set is
// authoritative: every record carries a non-empty cloud id and a
// last-modified stamp, and the caller overwrites local state with it.
//
// Conflict detection lives behind this interface; the coordinator never
// compares timestamps itself.
type Backend interface {
	SyncGoals(ctx context.Context, records []model.Goal, ownerID string, since int64) Result[[]model.Goal]
	SyncUsageSessions(ctx context.Context, records []model.UsageSession, ownerID string, since int64) Result[[]model.UsageSession]
	SyncUsageEvents(ctx context.Context, records []model.UsageEvent, ownerID string, since int64) Result[[]model.UsageEvent]
	SyncDailyStats(ctx context.Context, records []model.DailyStats, ownerID string, since int64) Result[[]model.DailyStats]
	SyncInterventionResults(ctx context.Context, records []model.InterventionResult, ownerID string, since int64) Result[[]model.InterventionResult]
	SyncStreakRecoveries(ctx context.Context, records []model.StreakRecovery, ownerID string, since int64) Result[[]model.StreakRecovery]
	SyncUserBaselines(ctx context.Context, records []model.UserBaseline, ownerID string, since int64) Result[[]model.UserBaseline]

	// SyncSettings exchanges the flattened settings blob, one logical row
	// per owner.
	SyncSettings(ctx context.Context, snapshot model.SettingsSnapshot, ownerID string, since int64) Result[model.SettingsSnapshot]
}

// Store is the owner- and status-filtered CRUD contract the coordinator
// consumes for one entity type. The local store serializes conflicting
// writes to the same record; the coordinator imposes no locking of its own.
type Store[T Syncable] interface {
	GetAll(ctx context.Context) ([]T, error)
	GetByOwner(ctx context.Context, ownerID string) ([]T, error)
	GetBySyncStatus(ctx context.Context, status model.SyncStatus) ([]T, error)
	GetByOwnerAndStatus(ctx context.Context, ownerID string, status model.SyncStatus) ([]T, error)
	Upsert(ctx context.Context, rec T) error
	UpdateSyncStatus(ctx context.Context, key string, status model.SyncStatus, cloudID string, lastModified int64) error
	UpdateOwner(ctx context.Context, key string, ownerID string) error
	UpdateLastModified(ctx context.Context, key string, lastModified int64) error
}

// Stores bundles the per-entity stores the coordinator fans out over.
type Stores struct {
	Goals         Store[model.Goal]
	Sessions      Store[model.UsageSession]
	Events        Store[model.UsageEvent]
	Stats         Store[model.DailyStats]
	Interventions Store[model.InterventionResult]
	Recoveries    Store[model.StreakRecovery]
	Baselines     Store[model.UserBaseline]
}
