package sync

import (
	"context"
	"fmt"
	gosync "sync"

	"golang.org/x/exp/slog"
	"golang.org/x/sync/errgroup"

	"habitkeeper/internal/model"
)

// Coordinator orchestrates concurrent per-entity-type sync operations
// against a Backend and applies the authoritative results back into local
// storage. It is dumb-and-fast: the backend is the conflict authority and
// a backend-returned record always wins over the local copy.
//
// All dependencies are injected at construction time; there is no ambient
// state.
type Coordinator struct {
	stores  Stores
	backend Backend
	log     *slog.Logger

	mu       gosync.Mutex
	inFlight bool
}

func NewCoordinator(stores Stores, backend Backend, log *slog.Logger) *Coordinator {
	return &Coordinator{
		stores:  stores,
		backend: backend,
		log:     log.With(slog.String("component", "sync_coordinator")),
	}
}

// PerformFullSync syncs all seven entity types concurrently, sending the
// full owner-scoped local set and requesting remote changes after since.
//
// Each entity type commits its local writes independently as soon as its
// backend call succeeds; sync is per-entity-type atomic, not globally
// atomic. The call waits for every task to finish and reports failure if
// any of them failed.
func (c *Coordinator) PerformFullSync(ctx context.Context, ownerID string, since int64) error {
	return c.run(ctx, ownerID, since, false)
}

// PerformInitialSync is the one-time post-authentication bootstrap: it
// stamps every pre-existing local record with ownerID, then performs a
// full sync with since == 0 so any pre-existing cloud data for the owner
// is pulled in during the same pass that uploads local data.
func (c *Coordinator) PerformInitialSync(ctx context.Context, ownerID string) error {
	if ownerID == "" {
		return ErrNotAuthenticated
	}
	if err := c.backfillOwner(ctx, ownerID); err != nil {
		return fmt.Errorf("owner back-fill: %w", err)
	}
	return c.PerformFullSync(ctx, ownerID, 0)
}

// UploadPendingChanges is the incremental push: only records awaiting
// upload are sent (pending ones plus earlier failures, which stay
// upload-eligible until they make it through), and entity types with
// nothing to push never incur a network call. since scopes the remote
// changes pulled back alongside the push.
func (c *Coordinator) UploadPendingChanges(ctx context.Context, ownerID string, since int64) error {
	return c.run(ctx, ownerID, since, true)
}

// DownloadRemoteChanges is a full sync with an explicit watermark, used
// for periodic background reconciliation.
func (c *Coordinator) DownloadRemoteChanges(ctx context.Context, ownerID string, since int64) error {
	return c.PerformFullSync(ctx, ownerID, since)
}

func (c *Coordinator) run(ctx context.Context, ownerID string, since int64, pendingOnly bool) error {
	if ownerID == "" {
		return ErrNotAuthenticated
	}

	c.mu.Lock()
	if c.inFlight {
		c.mu.Unlock()
		return ErrSyncInProgress
	}
	c.inFlight = true
	c.mu.Unlock()
	defer func() {
		c.mu.Lock()
		c.inFlight = false
		c.mu.Unlock()
	}()

	// A plain errgroup (no derived context) so one failing entity type
	// never cancels its siblings: every task runs to completion and
	// already-committed types stay committed.
	var g errgroup.Group
	g.Go(func() error {
		return syncType(ctx, c.log, "goals", c.stores.Goals, c.backend.SyncGoals, ownerID, since, pendingOnly)
	})
	g.Go(func() error {
		return syncType(ctx, c.log, "usage_sessions", c.stores.Sessions, c.backend.SyncUsageSessions, ownerID, since, pendingOnly)
	})
	g.Go(func() error {
		return syncType(ctx, c.log, "usage_events", c.stores.Events, c.backend.SyncUsageEvents, ownerID, since, pendingOnly)
	})
	g.Go(func() error {
		return syncType(ctx, c.log, "daily_stats", c.stores.Stats, c.backend.SyncDailyStats, ownerID, since, pendingOnly)
	})
	g.Go(func() error {
		return syncType(ctx, c.log, "intervention_results", c.stores.Interventions, c.backend.SyncInterventionResults, ownerID, since, pendingOnly)
	})
	g.Go(func() error {
		return syncType(ctx, c.log, "streak_recoveries", c.stores.Recoveries, c.backend.SyncStreakRecoveries, ownerID, since, pendingOnly)
	})
	g.Go(func() error {
		return syncType(ctx, c.log, "user_baselines", c.stores.Baselines, c.backend.SyncUserBaselines, ownerID, since, pendingOnly)
	})

	if err := g.Wait(); err != nil {
		return fmt.Errorf("%w: %w", ErrPartialFailure, err)
	}
	return nil
}

func (c *Coordinator) backfillOwner(ctx context.Context, ownerID string) error {
	if err := backfill(ctx, c.stores.Goals, ownerID); err != nil {
		return err
	}
	if err := backfill(ctx, c.stores.Sessions, ownerID); err != nil {
		return err
	}
	if err := backfill(ctx, c.stores.Events, ownerID); err != nil {
		return err
	}
	if err := backfill(ctx, c.stores.Stats, ownerID); err != nil {
		return err
	}
	if err := backfill(ctx, c.stores.Interventions, ownerID); err != nil {
		return err
	}
	if err := backfill(ctx, c.stores.Recoveries, ownerID); err != nil {
		return err
	}
	return backfill(ctx, c.stores.Baselines, ownerID)
}

// backfill stamps ownerID onto every record that predates authentication.
func backfill[T Syncable](ctx context.Context, st Store[T], ownerID string) error {
	all, err := st.GetAll(ctx)
	if err != nil {
		return err
	}
	for _, rec := range all {
		if rec.SyncInfo().OwnerID != "" {
			continue
		}
		if err := st.UpdateOwner(ctx, rec.Key(), ownerID); err != nil {
			return err
		}
	}
	return nil
}

// syncType runs the strictly sequential read-local, call-backend,
// write-local path for one entity type. The only suspension point is the
// backend round-trip; local reads and writes are synchronous relative to
// this task.
func syncType[T Syncable](
	ctx context.Context,
	log *slog.Logger,
	name string,
	st Store[T],
	call func(context.Context, []T, string, int64) Result[[]T],
	ownerID string,
	since int64,
	pendingOnly bool,
) error {
	var (
		locals []T
		err    error
	)
	if pendingOnly {
		locals, err = st.GetByOwnerAndStatus(ctx, ownerID, model.SyncPending)
		if err == nil {
			// Earlier failures are still waiting to be uploaded.
			var failed []T
			failed, err = st.GetByOwnerAndStatus(ctx, ownerID, model.SyncError)
			locals = append(locals, failed...)
		}
	} else {
		locals, err = st.GetByOwner(ctx, ownerID)
	}
	if err != nil {
		return fmt.Errorf("%s: read local records: %w", name, err)
	}

	// Idle types never incur a network round-trip on an incremental push.
	if pendingOnly && len(locals) == 0 {
		log.Debug("nothing pending, skipping", slog.String("entity", name))
		return nil
	}

	res := call(ctx, locals, ownerID, since)
	switch res.State {
	case StateError:
		// Persist the error status on the records we tried to push so it
		// is visible as a diagnostic. Retry/backoff is the scheduler's
		// problem, not ours.
		for _, rec := range locals {
			meta := rec.SyncInfo()
			// A full-sync batch carries already-synced rows too; those
			// keep their status, only unsynced ones record the failure.
			if meta.SyncStatus == model.SyncSynced {
				continue
			}
			if uerr := st.UpdateSyncStatus(ctx, rec.Key(), model.SyncError, meta.CloudID, meta.LastModified); uerr != nil {
				log.Warn("failed to persist error status",
					slog.String("entity", name),
					slog.String("key", rec.Key()),
					slog.Any("error", uerr))
			}
		}
		return fmt.Errorf("%s: %s: %w", name, res.Message, res.Err())
	case StateInProgress:
		log.Info("sync already running on backend", slog.String("entity", name))
		return fmt.Errorf("%s: %w", name, ErrSyncInProgress)
	case StateConflict:
		log.Warn("conflicts resolved remote-wins",
			slog.String("entity", name),
			slog.Int("conflicts", len(res.Conflicts)))
	}

	merged := res.Merged()
	for _, rec := range merged {
		if err := st.Upsert(ctx, rec); err != nil {
			return fmt.Errorf("%s: apply merged record %s: %w", name, rec.Key(), err)
		}
		meta := rec.SyncInfo()
		if err := st.UpdateSyncStatus(ctx, rec.Key(), model.SyncSynced, meta.CloudID, meta.LastModified); err != nil {
			return fmt.Errorf("%s: mark synced %s: %w", name, rec.Key(), err)
		}
	}

	log.Debug("entity type synced",
		slog.String("entity", name),
		slog.Int("sent", len(locals)),
		slog.Int("applied", len(merged)))
	return nil
}
