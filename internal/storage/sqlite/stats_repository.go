package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"habitkeeper/internal/model"
)

// StatsRepository persists per-day per-app aggregates. natural_key joins
// the (date, app) pair for the shared upsert convention.
type StatsRepository struct {
	db *sql.DB
}

const statsCols = `date, app, total_minutes, open_count, limit_hit_count, limit_minutes,
	owner_id, sync_status, cloud_id, last_modified`

func (r *StatsRepository) query(ctx context.Context, where string, args ...any) ([]model.DailyStats, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+statsCols+` FROM daily_stats`+where+` ORDER BY date, app`, args...)
	if err != nil {
		return nil, fmt.Errorf("query daily stats: %w", err)
	}
	defer rows.Close()

	var out []model.DailyStats
	for rows.Next() {
		var d model.DailyStats
		if err := rows.Scan(&d.Date, &d.App, &d.TotalMinutes, &d.OpenCount, &d.LimitHitCount, &d.LimitMinutes,
			&d.OwnerID, &d.SyncStatus, &d.CloudID, &d.LastModified); err != nil {
			return nil, fmt.Errorf("scan daily stats: %w", err)
		}
		out = append(out, d)
	}
	return out, rows.Err()
}

func (r *StatsRepository) GetAll(ctx context.Context) ([]model.DailyStats, error) {
	return r.query(ctx, ``)
}

func (r *StatsRepository) GetByOwner(ctx context.Context, ownerID string) ([]model.DailyStats, error) {
	return r.query(ctx, ` WHERE owner_id = ?`, ownerID)
}

func (r *StatsRepository) GetBySyncStatus(ctx context.Context, status model.SyncStatus) ([]model.DailyStats, error) {
	return r.query(ctx, ` WHERE sync_status = ?`, status)
}

func (r *StatsRepository) GetByOwnerAndStatus(ctx context.Context, ownerID string, status model.SyncStatus) ([]model.DailyStats, error) {
	return r.query(ctx, ` WHERE owner_id = ? AND sync_status = ?`, ownerID, status)
}

func (r *StatsRepository) Upsert(ctx context.Context, d model.DailyStats) error {
	if d.SyncStatus == "" {
		d.SyncStatus = model.SyncPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO daily_stats (date, app, total_minutes, open_count, limit_hit_count, limit_minutes,
			owner_id, sync_status, cloud_id, last_modified, natural_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO UPDATE SET
			total_minutes   = excluded.total_minutes,
			open_count      = excluded.open_count,
			limit_hit_count = excluded.limit_hit_count,
			limit_minutes   = excluded.limit_minutes,
			owner_id        = excluded.owner_id,
			sync_status     = excluded.sync_status,
			cloud_id        = excluded.cloud_id,
			last_modified   = excluded.last_modified
	`, d.Date, d.App, d.TotalMinutes, d.OpenCount, d.LimitHitCount, d.LimitMinutes,
		d.OwnerID, d.SyncStatus, d.CloudID, d.LastModified, d.Key())
	if err != nil {
		return fmt.Errorf("upsert daily stats %s: %w", d.Key(), err)
	}
	return nil
}

func (r *StatsRepository) UpdateSyncStatus(ctx context.Context, key string, status model.SyncStatus, cloudID string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE daily_stats SET sync_status = ?, cloud_id = ?, last_modified = ? WHERE natural_key = ?`,
		status, cloudID, lastModified, key)
	if err != nil {
		return fmt.Errorf("update daily stats sync status: %w", err)
	}
	return nil
}

func (r *StatsRepository) UpdateOwner(ctx context.Context, key string, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE daily_stats SET owner_id = ? WHERE natural_key = ?`, ownerID, key)
	if err != nil {
		return fmt.Errorf("update daily stats owner: %w", err)
	}
	return nil
}

func (r *StatsRepository) UpdateLastModified(ctx context.Context, key string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE daily_stats SET last_modified = ? WHERE natural_key = ?`, lastModified, key)
	if err != nil {
		return fmt.Errorf("update daily stats last modified: %w", err)
	}
	return nil
}

// BaselineRepository persists onboarding usage baselines, one row per app.
type BaselineRepository struct {
	db *sql.DB
}

const baselineCols = `app, avg_daily_minutes, sample_days, computed_at,
	owner_id, sync_status, cloud_id, last_modified`

func (r *BaselineRepository) query(ctx context.Context, where string, args ...any) ([]model.UserBaseline, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+baselineCols+` FROM user_baselines`+where+` ORDER BY app`, args...)
	if err != nil {
		return nil, fmt.Errorf("query user baselines: %w", err)
	}
	defer rows.Close()

	var out []model.UserBaseline
	for rows.Next() {
		var b model.UserBaseline
		var computedAt int64
		if err := rows.Scan(&b.App, &b.AvgDailyMinutes, &b.SampleDays, &computedAt,
			&b.OwnerID, &b.SyncStatus, &b.CloudID, &b.LastModified); err != nil {
			return nil, fmt.Errorf("scan user baseline: %w", err)
		}
		b.ComputedAt = time.UnixMilli(computedAt).UTC()
		out = append(out, b)
	}
	return out, rows.Err()
}

func (r *BaselineRepository) GetAll(ctx context.Context) ([]model.UserBaseline, error) {
	return r.query(ctx, ``)
}

func (r *BaselineRepository) GetByOwner(ctx context.Context, ownerID string) ([]model.UserBaseline, error) {
	return r.query(ctx, ` WHERE owner_id = ?`, ownerID)
}

func (r *BaselineRepository) GetBySyncStatus(ctx context.Context, status model.SyncStatus) ([]model.UserBaseline, error) {
	return r.query(ctx, ` WHERE sync_status = ?`, status)
}

func (r *BaselineRepository) GetByOwnerAndStatus(ctx context.Context, ownerID string, status model.SyncStatus) ([]model.UserBaseline, error) {
	return r.query(ctx, ` WHERE owner_id = ? AND sync_status = ?`, ownerID, status)
}

func (r *BaselineRepository) Upsert(ctx context.Context, b model.UserBaseline) error {
	if b.SyncStatus == "" {
		b.SyncStatus = model.SyncPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO user_baselines (app, avg_daily_minutes, sample_days, computed_at,
			owner_id, sync_status, cloud_id, last_modified, natural_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO UPDATE SET
			avg_daily_minutes = excluded.avg_daily_minutes,
			sample_days       = excluded.sample_days,
			computed_at       = excluded.computed_at,
			owner_id          = excluded.owner_id,
			sync_status       = excluded.sync_status,
			cloud_id          = excluded.cloud_id,
			last_modified     = excluded.last_modified
	`, b.App, b.AvgDailyMinutes, b.SampleDays, b.ComputedAt.UnixMilli(),
		b.OwnerID, b.SyncStatus, b.CloudID, b.LastModified, b.Key())
	if err != nil {
		return fmt.Errorf("upsert user baseline %s: %w", b.Key(), err)
	}
	return nil
}

func (r *BaselineRepository) UpdateSyncStatus(ctx context.Context, key string, status model.SyncStatus, cloudID string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_baselines SET sync_status = ?, cloud_id = ?, last_modified = ? WHERE natural_key = ?`,
		status, cloudID, lastModified, key)
	if err != nil {
		return fmt.Errorf("update user baseline sync status: %w", err)
	}
	return nil
}

func (r *BaselineRepository) UpdateOwner(ctx context.Context, key string, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_baselines SET owner_id = ? WHERE natural_key = ?`, ownerID, key)
	if err != nil {
		return fmt.Errorf("update user baseline owner: %w", err)
	}
	return nil
}

func (r *BaselineRepository) UpdateLastModified(ctx context.Context, key string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE user_baselines SET last_modified = ? WHERE natural_key = ?`, lastModified, key)
	if err != nil {
		return fmt.Errorf("update user baseline last modified: %w", err)
	}
	return nil
}
