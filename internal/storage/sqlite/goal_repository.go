package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"habitkeeper/internal/model"
)

// GoalRepository persists per-app usage limits.
type GoalRepository struct {
	db *sql.DB
}

const goalCols = `id, target_app, daily_limit_minutes, enabled, created_at,
	owner_id, sync_status, cloud_id, last_modified`

func (r *GoalRepository) query(ctx context.Context, where string, args ...any) ([]model.Goal, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+goalCols+` FROM goals`+where+` ORDER BY id`, args...)
	if err != nil {
		return nil, fmt.Errorf("query goals: %w", err)
	}
	defer rows.Close()

	var out []model.Goal
	for rows.Next() {
		var g model.Goal
		var createdAt int64
		if err := rows.Scan(&g.ID, &g.TargetApp, &g.DailyLimitMinutes, &g.Enabled, &createdAt,
			&g.OwnerID, &g.SyncStatus, &g.CloudID, &g.LastModified); err != nil {
			return nil, fmt.Errorf("scan goal: %w", err)
		}
		g.CreatedAt = time.UnixMilli(createdAt).UTC()
		out = append(out, g)
	}
	return out, rows.Err()
}

func (r *GoalRepository) GetAll(ctx context.Context) ([]model.Goal, error) {
	return r.query(ctx, ``)
}

func (r *GoalRepository) GetByOwner(ctx context.Context, ownerID string) ([]model.Goal, error) {
	return r.query(ctx, ` WHERE owner_id = ?`, ownerID)
}

func (r *GoalRepository) GetBySyncStatus(ctx context.Context, status model.SyncStatus) ([]model.Goal, error) {
	return r.query(ctx, ` WHERE sync_status = ?`, status)
}

func (r *GoalRepository) GetByOwnerAndStatus(ctx context.Context, ownerID string, status model.SyncStatus) ([]model.Goal, error) {
	return r.query(ctx, ` WHERE owner_id = ? AND sync_status = ?`, ownerID, status)
}

// Upsert inserts or replaces by the goal's natural key (its target app).
func (r *GoalRepository) Upsert(ctx context.Context, g model.Goal) error {
	if g.SyncStatus == "" {
		g.SyncStatus = model.SyncPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO goals (target_app, daily_limit_minutes, enabled, created_at,
			owner_id, sync_status, cloud_id, last_modified, natural_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO UPDATE SET
			daily_limit_minutes = excluded.daily_limit_minutes,
			enabled             = excluded.enabled,
			created_at          = excluded.created_at,
			owner_id            = excluded.owner_id,
			sync_status         = excluded.sync_status,
			cloud_id            = excluded.cloud_id,
			last_modified       = excluded.last_modified
	`, g.TargetApp, g.DailyLimitMinutes, g.Enabled, g.CreatedAt.UnixMilli(),
		g.OwnerID, g.SyncStatus, g.CloudID, g.LastModified, g.Key())
	if err != nil {
		return fmt.Errorf("upsert goal %s: %w", g.Key(), err)
	}
	return nil
}

func (r *GoalRepository) UpdateSyncStatus(ctx context.Context, key string, status model.SyncStatus, cloudID string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE goals SET sync_status = ?, cloud_id = ?, last_modified = ? WHERE natural_key = ?`,
		status, cloudID, lastModified, key)
	if err != nil {
		return fmt.Errorf("update goal sync status: %w", err)
	}
	return nil
}

func (r *GoalRepository) UpdateOwner(ctx context.Context, key string, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE goals SET owner_id = ? WHERE natural_key = ?`, ownerID, key)
	if err != nil {
		return fmt.Errorf("update goal owner: %w", err)
	}
	return nil
}

func (r *GoalRepository) UpdateLastModified(ctx context.Context, key string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE goals SET last_modified = ? WHERE natural_key = ?`, lastModified, key)
	if err != nil {
		return fmt.Errorf("update goal last modified: %w", err)
	}
	return nil
}
