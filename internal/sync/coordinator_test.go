package sync

import (
	"context"
	"errors"
	gosync "sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/exp/slog"

	"habitkeeper/internal/model"
)

// fakeStore keeps records in memory. Metadata updates land in an override
// map so the typed record values stay untouched.
type fakeStore[T Syncable] struct {
	mu   gosync.Mutex
	recs map[string]T
	meta map[string]model.SyncMeta
}

func newFakeStore[T Syncable]() *fakeStore[T] {
	return &fakeStore[T]{
		recs: make(map[string]T),
		meta: make(map[string]model.SyncMeta),
	}
}

func (s *fakeStore[T]) seed(recs ...T) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, rec := range recs {
		s.recs[rec.Key()] = rec
		s.meta[rec.Key()] = rec.SyncInfo()
	}
}

func (s *fakeStore[T]) metaOf(key string) model.SyncMeta {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.meta[key]
}

func (s *fakeStore[T]) filter(pred func(model.SyncMeta) bool) []T {
	s.mu.Lock()
	defer s.mu.Unlock()
	var out []T
	for key, rec := range s.recs {
		if pred(s.meta[key]) {
			out = append(out, rec)
		}
	}
	return out
}

func (s *fakeStore[T]) GetAll(_ context.Context) ([]T, error) {
	return s.filter(func(model.SyncMeta) bool { return true }), nil
}

func (s *fakeStore[T]) GetByOwner(_ context.Context, ownerID string) ([]T, error) {
	return s.filter(func(m model.SyncMeta) bool { return m.OwnerID == ownerID }), nil
}

func (s *fakeStore[T]) GetBySyncStatus(_ context.Context, status model.SyncStatus) ([]T, error) {
	return s.filter(func(m model.SyncMeta) bool { return m.SyncStatus == status }), nil
}

func (s *fakeStore[T]) GetByOwnerAndStatus(_ context.Context, ownerID string, status model.SyncStatus) ([]T, error) {
	return s.filter(func(m model.SyncMeta) bool {
		return m.OwnerID == ownerID && m.SyncStatus == status
	}), nil
}

func (s *fakeStore[T]) Upsert(_ context.Context, rec T) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.recs[rec.Key()] = rec
	if _, ok := s.meta[rec.Key()]; !ok {
		s.meta[rec.Key()] = rec.SyncInfo()
	}
	return nil
}

func (s *fakeStore[T]) UpdateSyncStatus(_ context.Context, key string, status model.SyncStatus, cloudID string, lastModified int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meta[key]
	m.SyncStatus = status
	m.CloudID = cloudID
	m.LastModified = lastModified
	s.meta[key] = m
	return nil
}

func (s *fakeStore[T]) UpdateOwner(_ context.Context, key string, ownerID string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meta[key]
	m.OwnerID = ownerID
	s.meta[key] = m
	return nil
}

func (s *fakeStore[T]) UpdateLastModified(_ context.Context, key string, lastModified int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.meta[key]
	m.LastModified = lastModified
	s.meta[key] = m
	return nil
}

// fakeBackend echoes records back unchanged unless a per-type script is
// installed. Call counts are tracked per entity type.
type fakeBackend struct {
	mu    gosync.Mutex
	calls map[string]int

	goals func(records []model.Goal, since int64) Result[[]model.Goal]
	stats func(records []model.DailyStats, since int64) Result[[]model.DailyStats]
}

func newFakeBackend() *fakeBackend {
	return &fakeBackend{calls: make(map[string]int)}
}

func (b *fakeBackend) count(name string) {
	b.mu.Lock()
	b.calls[name]++
	b.mu.Unlock()
}

func (b *fakeBackend) callCount(name string) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.calls[name]
}

func (b *fakeBackend) SyncGoals(_ context.Context, records []model.Goal, _ string, since int64) Result[[]model.Goal] {
	b.count("goals")
	if b.goals != nil {
		return b.goals(records, since)
	}
	return Success(records)
}

func (b *fakeBackend) SyncUsageSessions(_ context.Context, records []model.UsageSession, _ string, _ int64) Result[[]model.UsageSession] {
	b.count("usage_sessions")
	return Success(records)
}

func (b *fakeBackend) SyncUsageEvents(_ context.Context, records []model.UsageEvent, _ string, _ int64) Result[[]model.UsageEvent] {
	b.count("usage_events")
	return Success(records)
}

func (b *fakeBackend) SyncDailyStats(_ context.Context, records []model.DailyStats, _ string, since int64) Result[[]model.DailyStats] {
	b.count("daily_stats")
	if b.stats != nil {
		return b.stats(records, since)
	}
	return Success(records)
}

func (b *fakeBackend) SyncInterventionResults(_ context.Context, records []model.InterventionResult, _ string, _ int64) Result[[]model.InterventionResult] {
	b.count("intervention_results")
	return Success(records)
}

func (b *fakeBackend) SyncStreakRecoveries(_ context.Context, records []model.StreakRecovery, _ string, _ int64) Result[[]model.StreakRecovery] {
	b.count("streak_recoveries")
	return Success(records)
}

func (b *fakeBackend) SyncUserBaselines(_ context.Context, records []model.UserBaseline, _ string, _ int64) Result[[]model.UserBaseline] {
	b.count("user_baselines")
	return Success(records)
}

func (b *fakeBackend) SyncSettings(_ context.Context, snapshot model.SettingsSnapshot, _ string, _ int64) Result[model.SettingsSnapshot] {
	b.count("settings")
	return Success(snapshot)
}

type fixture struct {
	goals   *fakeStore[model.Goal]
	stats   *fakeStore[model.DailyStats]
	backend *fakeBackend
	coord   *Coordinator
}

func newFixture() *fixture {
	f := &fixture{
		goals:   newFakeStore[model.Goal](),
		stats:   newFakeStore[model.DailyStats](),
		backend: newFakeBackend(),
	}
	stores := Stores{
		Goals:         f.goals,
		Sessions:      newFakeStore[model.UsageSession](),
		Events:        newFakeStore[model.UsageEvent](),
		Stats:         f.stats,
		Interventions: newFakeStore[model.InterventionResult](),
		Recoveries:    newFakeStore[model.StreakRecovery](),
		Baselines:     newFakeStore[model.UserBaseline](),
	}
	f.coord = NewCoordinator(stores, f.backend, slog.Default())
	return f
}

func pendingGoal(key, owner string, modified int64) model.Goal {
	g := model.Goal{TargetApp: key, DailyLimitMinutes: 30, Enabled: true}
	g.OwnerID = owner
	g.SyncStatus = model.SyncPending
	g.LastModified = modified
	return g
}

func TestSyncRequiresOwner(t *testing.T) {
	f := newFixture()

	assert.ErrorIs(t, f.coord.PerformFullSync(context.Background(), "", 0), ErrNotAuthenticated)
	assert.ErrorIs(t, f.coord.PerformInitialSync(context.Background(), ""), ErrNotAuthenticated)
}

func TestUploadPendingSkipsIdleTypes(t *testing.T) {
	f := newFixture()
	f.goals.seed(pendingGoal("com.example.one", "u-1", 100))

	require.NoError(t, f.coord.UploadPendingChanges(context.Background(), "u-1", 0))

	assert.Equal(t, 1, f.backend.callCount("goals"))
	// Types with nothing pending never hit the network.
	assert.Equal(t, 0, f.backend.callCount("daily_stats"))
	assert.Equal(t, 0, f.backend.callCount("usage_events"))
}

func TestUploadPendingIsIdempotentOnceSynced(t *testing.T) {
	f := newFixture()
	f.goals.seed(pendingGoal("com.example.one", "u-1", 100))
	f.backend.goals = func(records []model.Goal, _ int64) Result[[]model.Goal] {
		out := make([]model.Goal, len(records))
		for i, g := range records {
			g.CloudID = "cloud-" + g.TargetApp
			out[i] = g
		}
		return Success(out)
	}

	require.NoError(t, f.coord.UploadPendingChanges(context.Background(), "u-1", 0))
	meta := f.goals.metaOf("com.example.one")
	assert.Equal(t, model.SyncSynced, meta.SyncStatus)
	assert.Equal(t, "cloud-com.example.one", meta.CloudID)

	// Nothing is pending anymore, so a second push is a no-op.
	require.NoError(t, f.coord.UploadPendingChanges(context.Background(), "u-1", 0))
	assert.Equal(t, 1, f.backend.callCount("goals"))
}

func TestUploadPendingRetriesEarlierFailures(t *testing.T) {
	f := newFixture()
	failed := pendingGoal("com.example.one", "u-1", 100)
	failed.SyncStatus = model.SyncError
	f.goals.seed(failed)

	var gotSince int64 = -1
	f.backend.goals = func(records []model.Goal, since int64) Result[[]model.Goal] {
		gotSince = since
		return Success(records)
	}

	require.NoError(t, f.coord.UploadPendingChanges(context.Background(), "u-1", 750))

	// The errored record is upload-eligible again and the watermark
	// reaches the backend unchanged.
	assert.Equal(t, 1, f.backend.callCount("goals"))
	assert.Equal(t, int64(750), gotSince)
	assert.Equal(t, model.SyncSynced, f.goals.metaOf("com.example.one").SyncStatus)
}

func TestFailedTypeDoesNotBlockOthers(t *testing.T) {
	f := newFixture()
	f.goals.seed(pendingGoal("com.example.one", "u-1", 100))
	done := pendingGoal("com.example.done", "u-1", 50)
	done.SyncStatus = model.SyncSynced
	f.goals.seed(done)
	stat := model.DailyStats{Date: "2026-08-01", App: "com.example.one", TotalMinutes: 12}
	stat.OwnerID = "u-1"
	stat.SyncStatus = model.SyncPending
	f.stats.seed(stat)

	f.backend.goals = func([]model.Goal, int64) Result[[]model.Goal] {
		return Failure[[]model.Goal](errors.New("boom"), "server exploded")
	}

	err := f.coord.PerformFullSync(context.Background(), "u-1", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrPartialFailure)

	// The failing type records its error status ...
	assert.Equal(t, model.SyncError, f.goals.metaOf("com.example.one").SyncStatus)
	// ... but not onto rows that were already synced before the batch.
	assert.Equal(t, model.SyncSynced, f.goals.metaOf("com.example.done").SyncStatus)
	// ... while the healthy type commits independently.
	assert.Equal(t, model.SyncSynced, f.stats.metaOf("2026-08-01/com.example.one").SyncStatus)
	assert.Equal(t, 1, f.backend.callCount("daily_stats"))
}

func TestInitialSyncBackfillsOwner(t *testing.T) {
	f := newFixture()
	orphan := pendingGoal("com.example.orphan", "", 100)
	f.goals.seed(orphan)

	var sentOwners []string
	f.backend.goals = func(records []model.Goal, since int64) Result[[]model.Goal] {
		assert.Equal(t, int64(0), since)
		for range records {
			sentOwners = append(sentOwners, "u-1")
		}
		return Success(records)
	}

	require.NoError(t, f.coord.PerformInitialSync(context.Background(), "u-1"))

	assert.Equal(t, "u-1", f.goals.metaOf("com.example.orphan").OwnerID)
	assert.Len(t, sentOwners, 1)
}

func TestConflictResolvesRemoteWins(t *testing.T) {
	f := newFixture()
	local := pendingGoal("com.example.app", "u-1", 300)
	local.DailyLimitMinutes = 45
	f.goals.seed(local)

	remote := pendingGoal("com.example.app", "u-1", 500)
	remote.DailyLimitMinutes = 90
	remote.CloudID = "cloud-1"
	f.backend.goals = func([]model.Goal, int64) Result[[]model.Goal] {
		return Conflicted([]Conflict{{
			Key:            "com.example.app",
			LocalModified:  300,
			RemoteModified: 500,
		}}, []model.Goal{remote})
	}

	require.NoError(t, f.coord.PerformFullSync(context.Background(), "u-1", 200))

	f.goals.mu.Lock()
	applied := f.goals.recs["com.example.app"]
	f.goals.mu.Unlock()
	assert.Equal(t, 90, applied.DailyLimitMinutes)

	meta := f.goals.metaOf("com.example.app")
	assert.Equal(t, model.SyncSynced, meta.SyncStatus)
	assert.Equal(t, "cloud-1", meta.CloudID)
	assert.Equal(t, int64(500), meta.LastModified)
}

func TestBackendInProgressSurfacesError(t *testing.T) {
	f := newFixture()
	f.goals.seed(pendingGoal("com.example.one", "u-1", 100))
	f.backend.goals = func([]model.Goal, int64) Result[[]model.Goal] {
		return InProgress[[]model.Goal]()
	}

	err := f.coord.UploadPendingChanges(context.Background(), "u-1", 0)
	require.Error(t, err)
	assert.ErrorIs(t, err, ErrSyncInProgress)
	// The record stays pending so the next cycle retries it.
	assert.Equal(t, model.SyncPending, f.goals.metaOf("com.example.one").SyncStatus)
}
