package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"habitkeeper/internal/model"
)

// InterventionRepository persists intervention overlay outcomes.
type InterventionRepository struct {
	db *sql.DB
}

const interventionCols = `id, app, kind, shown_at, accepted, dismissed_after_ms,
	owner_id, sync_status, cloud_id, last_modified`

func (r *InterventionRepository) query(ctx context.Context, where string, args ...any) ([]model.InterventionResult, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+interventionCols+` FROM intervention_results`+where+` ORDER BY shown_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("query intervention results: %w", err)
	}
	defer rows.Close()

	var out []model.InterventionResult
	for rows.Next() {
		var iv model.InterventionResult
		var shownAt int64
		if err := rows.Scan(&iv.ID, &iv.App, &iv.Kind, &shownAt, &iv.Accepted, &iv.DismissedAfterMs,
			&iv.OwnerID, &iv.SyncStatus, &iv.CloudID, &iv.LastModified); err != nil {
			return nil, fmt.Errorf("scan intervention result: %w", err)
		}
		iv.ShownAt = time.UnixMilli(shownAt).UTC()
		out = append(out, iv)
	}
	return out, rows.Err()
}

func (r *InterventionRepository) GetAll(ctx context.Context) ([]model.InterventionResult, error) {
	return r.query(ctx, ``)
}

func (r *InterventionRepository) GetByOwner(ctx context.Context, ownerID string) ([]model.InterventionResult, error) {
	return r.query(ctx, ` WHERE owner_id = ?`, ownerID)
}

func (r *InterventionRepository) GetBySyncStatus(ctx context.Context, status model.SyncStatus) ([]model.InterventionResult, error) {
	return r.query(ctx, ` WHERE sync_status = ?`, status)
}

func (r *InterventionRepository) GetByOwnerAndStatus(ctx context.Context, ownerID string, status model.SyncStatus) ([]model.InterventionResult, error) {
	return r.query(ctx, ` WHERE owner_id = ? AND sync_status = ?`, ownerID, status)
}

func (r *InterventionRepository) Upsert(ctx context.Context, iv model.InterventionResult) error {
	if iv.SyncStatus == "" {
		iv.SyncStatus = model.SyncPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO intervention_results (app, kind, shown_at, accepted, dismissed_after_ms,
			owner_id, sync_status, cloud_id, last_modified, natural_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO UPDATE SET
			accepted           = excluded.accepted,
			dismissed_after_ms = excluded.dismissed_after_ms,
			owner_id           = excluded.owner_id,
			sync_status        = excluded.sync_status,
			cloud_id           = excluded.cloud_id,
			last_modified      = excluded.last_modified
	`, iv.App, iv.Kind, iv.ShownAt.UnixMilli(), iv.Accepted, iv.DismissedAfterMs,
		iv.OwnerID, iv.SyncStatus, iv.CloudID, iv.LastModified, iv.Key())
	if err != nil {
		return fmt.Errorf("upsert intervention result %s: %w", iv.Key(), err)
	}
	return nil
}

func (r *InterventionRepository) UpdateSyncStatus(ctx context.Context, key string, status model.SyncStatus, cloudID string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE intervention_results SET sync_status = ?, cloud_id = ?, last_modified = ? WHERE natural_key = ?`,
		status, cloudID, lastModified, key)
	if err != nil {
		return fmt.Errorf("update intervention result sync status: %w", err)
	}
	return nil
}

func (r *InterventionRepository) UpdateOwner(ctx context.Context, key string, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE intervention_results SET owner_id = ? WHERE natural_key = ?`, ownerID, key)
	if err != nil {
		return fmt.Errorf("update intervention result owner: %w", err)
	}
	return nil
}

func (r *InterventionRepository) UpdateLastModified(ctx context.Context, key string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE intervention_results SET last_modified = ? WHERE natural_key = ?`, lastModified, key)
	if err != nil {
		return fmt.Errorf("update intervention result last modified: %w", err)
	}
	return nil
}

// RecoveryRepository persists streak recovery records.
type RecoveryRepository struct {
	db *sql.DB
}

const recoveryCols = `id, app, date, used_freeze, recovered_at,
	owner_id, sync_status, cloud_id, last_modified`

func (r *RecoveryRepository) query(ctx context.Context, where string, args ...any) ([]model.StreakRecovery, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+recoveryCols+` FROM streak_recoveries`+where+` ORDER BY date, app`, args...)
	if err != nil {
		return nil, fmt.Errorf("query streak recoveries: %w", err)
	}
	defer rows.Close()

	var out []model.StreakRecovery
	for rows.Next() {
		var sr model.StreakRecovery
		var recoveredAt int64
		if err := rows.Scan(&sr.ID, &sr.App, &sr.Date, &sr.UsedFreeze, &recoveredAt,
			&sr.OwnerID, &sr.SyncStatus, &sr.CloudID, &sr.LastModified); err != nil {
			return nil, fmt.Errorf("scan streak recovery: %w", err)
		}
		sr.RecoveredAt = time.UnixMilli(recoveredAt).UTC()
		out = append(out, sr)
	}
	return out, rows.Err()
}

func (r *RecoveryRepository) GetAll(ctx context.Context) ([]model.StreakRecovery, error) {
	return r.query(ctx, ``)
}

func (r *RecoveryRepository) GetByOwner(ctx context.Context, ownerID string) ([]model.StreakRecovery, error) {
	return r.query(ctx, ` WHERE owner_id = ?`, ownerID)
}

func (r *RecoveryRepository) GetBySyncStatus(ctx context.Context, status model.SyncStatus) ([]model.StreakRecovery, error) {
	return r.query(ctx, ` WHERE sync_status = ?`, status)
}

func (r *RecoveryRepository) GetByOwnerAndStatus(ctx context.Context, ownerID string, status model.SyncStatus) ([]model.StreakRecovery, error) {
	return r.query(ctx, ` WHERE owner_id = ? AND sync_status = ?`, ownerID, status)
}

func (r *RecoveryRepository) Upsert(ctx context.Context, sr model.StreakRecovery) error {
	if sr.SyncStatus == "" {
		sr.SyncStatus = model.SyncPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO streak_recoveries (app, date, used_freeze, recovered_at,
			owner_id, sync_status, cloud_id, last_modified, natural_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO UPDATE SET
			used_freeze   = excluded.used_freeze,
			recovered_at  = excluded.recovered_at,
			owner_id      = excluded.owner_id,
			sync_status   = excluded.sync_status,
			cloud_id      = excluded.cloud_id,
			last_modified = excluded.last_modified
	`, sr.App, sr.Date, sr.UsedFreeze, sr.RecoveredAt.UnixMilli(),
		sr.OwnerID, sr.SyncStatus, sr.CloudID, sr.LastModified, sr.Key())
	if err != nil {
		return fmt.Errorf("upsert streak recovery %s: %w", sr.Key(), err)
	}
	return nil
}

func (r *RecoveryRepository) UpdateSyncStatus(ctx context.Context, key string, status model.SyncStatus, cloudID string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE streak_recoveries SET sync_status = ?, cloud_id = ?, last_modified = ? WHERE natural_key = ?`,
		status, cloudID, lastModified, key)
	if err != nil {
		return fmt.Errorf("update streak recovery sync status: %w", err)
	}
	return nil
}

func (r *RecoveryRepository) UpdateOwner(ctx context.Context, key string, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE streak_recoveries SET owner_id = ? WHERE natural_key = ?`, ownerID, key)
	if err != nil {
		return fmt.Errorf("update streak recovery owner: %w", err)
	}
	return nil
}

func (r *RecoveryRepository) UpdateLastModified(ctx context.Context, key string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE streak_recoveries SET last_modified = ? WHERE natural_key = ?`, lastModified, key)
	if err != nil {
		return fmt.Errorf("update streak recovery last modified: %w", err)
	}
	return nil
}
