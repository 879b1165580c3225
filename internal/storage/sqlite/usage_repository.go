package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"habitkeeper/internal/model"
)

// SessionRepository persists foreground usage sessions.
type SessionRepository struct {
	db *sql.DB
}

const sessionCols = `id, app, started_at, ended_at, duration_seconds,
	owner_id, sync_status, cloud_id, last_modified`

func (r *SessionRepository) query(ctx context.Context, where string, args ...any) ([]model.UsageSession, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+sessionCols+` FROM usage_sessions`+where+` ORDER BY started_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage sessions: %w", err)
	}
	defer rows.Close()

	var out []model.UsageSession
	for rows.Next() {
		var s model.UsageSession
		var startedAt, endedAt int64
		if err := rows.Scan(&s.ID, &s.App, &startedAt, &endedAt, &s.DurationSeconds,
			&s.OwnerID, &s.SyncStatus, &s.CloudID, &s.LastModified); err != nil {
			return nil, fmt.Errorf("scan usage session: %w", err)
		}
		s.StartedAt = time.UnixMilli(startedAt).UTC()
		s.EndedAt = time.UnixMilli(endedAt).UTC()
		out = append(out, s)
	}
	return out, rows.Err()
}

func (r *SessionRepository) GetAll(ctx context.Context) ([]model.UsageSession, error) {
	return r.query(ctx, ``)
}

func (r *SessionRepository) GetByOwner(ctx context.Context, ownerID string) ([]model.UsageSession, error) {
	return r.query(ctx, ` WHERE owner_id = ?`, ownerID)
}

func (r *SessionRepository) GetBySyncStatus(ctx context.Context, status model.SyncStatus) ([]model.UsageSession, error) {
	return r.query(ctx, ` WHERE sync_status = ?`, status)
}

func (r *SessionRepository) GetByOwnerAndStatus(ctx context.Context, ownerID string, status model.SyncStatus) ([]model.UsageSession, error) {
	return r.query(ctx, ` WHERE owner_id = ? AND sync_status = ?`, ownerID, status)
}

func (r *SessionRepository) Upsert(ctx context.Context, s model.UsageSession) error {
	if s.SyncStatus == "" {
		s.SyncStatus = model.SyncPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO usage_sessions (app, started_at, ended_at, duration_seconds,
			owner_id, sync_status, cloud_id, last_modified, natural_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO UPDATE SET
			ended_at         = excluded.ended_at,
			duration_seconds = excluded.duration_seconds,
			owner_id         = excluded.owner_id,
			sync_status      = excluded.sync_status,
			cloud_id         = excluded.cloud_id,
			last_modified    = excluded.last_modified
	`, s.App, s.StartedAt.UnixMilli(), s.EndedAt.UnixMilli(), s.DurationSeconds,
		s.OwnerID, s.SyncStatus, s.CloudID, s.LastModified, s.Key())
	if err != nil {
		return fmt.Errorf("upsert usage session %s: %w", s.Key(), err)
	}
	return nil
}

func (r *SessionRepository) UpdateSyncStatus(ctx context.Context, key string, status model.SyncStatus, cloudID string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE usage_sessions SET sync_status = ?, cloud_id = ?, last_modified = ? WHERE natural_key = ?`,
		status, cloudID, lastModified, key)
	if err != nil {
		return fmt.Errorf("update usage session sync status: %w", err)
	}
	return nil
}

func (r *SessionRepository) UpdateOwner(ctx context.Context, key string, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE usage_sessions SET owner_id = ? WHERE natural_key = ?`, ownerID, key)
	if err != nil {
		return fmt.Errorf("update usage session owner: %w", err)
	}
	return nil
}

func (r *SessionRepository) UpdateLastModified(ctx context.Context, key string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE usage_sessions SET last_modified = ? WHERE natural_key = ?`, lastModified, key)
	if err != nil {
		return fmt.Errorf("update usage session last modified: %w", err)
	}
	return nil
}

// EventRepository persists discrete usage events.
type EventRepository struct {
	db *sql.DB
}

const eventCols = `id, app, kind, occurred_at, owner_id, sync_status, cloud_id, last_modified`

func (r *EventRepository) query(ctx context.Context, where string, args ...any) ([]model.UsageEvent, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT `+eventCols+` FROM usage_events`+where+` ORDER BY occurred_at`, args...)
	if err != nil {
		return nil, fmt.Errorf("query usage events: %w", err)
	}
	defer rows.Close()

	var out []model.UsageEvent
	for rows.Next() {
		var e model.UsageEvent
		var occurredAt int64
		if err := rows.Scan(&e.ID, &e.App, &e.Kind, &occurredAt,
			&e.OwnerID, &e.SyncStatus, &e.CloudID, &e.LastModified); err != nil {
			return nil, fmt.Errorf("scan usage event: %w", err)
		}
		e.OccurredAt = time.UnixMilli(occurredAt).UTC()
		out = append(out, e)
	}
	return out, rows.Err()
}

func (r *EventRepository) GetAll(ctx context.Context) ([]model.UsageEvent, error) {
	return r.query(ctx, ``)
}

func (r *EventRepository) GetByOwner(ctx context.Context, ownerID string) ([]model.UsageEvent, error) {
	return r.query(ctx, ` WHERE owner_id = ?`, ownerID)
}

func (r *EventRepository) GetBySyncStatus(ctx context.Context, status model.SyncStatus) ([]model.UsageEvent, error) {
	return r.query(ctx, ` WHERE sync_status = ?`, status)
}

func (r *EventRepository) GetByOwnerAndStatus(ctx context.Context, ownerID string, status model.SyncStatus) ([]model.UsageEvent, error) {
	return r.query(ctx, ` WHERE owner_id = ? AND sync_status = ?`, ownerID, status)
}

func (r *EventRepository) Upsert(ctx context.Context, e model.UsageEvent) error {
	if e.SyncStatus == "" {
		e.SyncStatus = model.SyncPending
	}
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO usage_events (app, kind, occurred_at,
			owner_id, sync_status, cloud_id, last_modified, natural_key)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(natural_key) DO UPDATE SET
			owner_id      = excluded.owner_id,
			sync_status   = excluded.sync_status,
			cloud_id      = excluded.cloud_id,
			last_modified = excluded.last_modified
	`, e.App, e.Kind, e.OccurredAt.UnixMilli(),
		e.OwnerID, e.SyncStatus, e.CloudID, e.LastModified, e.Key())
	if err != nil {
		return fmt.Errorf("upsert usage event %s: %w", e.Key(), err)
	}
	return nil
}

func (r *EventRepository) UpdateSyncStatus(ctx context.Context, key string, status model.SyncStatus, cloudID string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE usage_events SET sync_status = ?, cloud_id = ?, last_modified = ? WHERE natural_key = ?`,
		status, cloudID, lastModified, key)
	if err != nil {
		return fmt.Errorf("update usage event sync status: %w", err)
	}
	return nil
}

func (r *EventRepository) UpdateOwner(ctx context.Context, key string, ownerID string) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE usage_events SET owner_id = ? WHERE natural_key = ?`, ownerID, key)
	if err != nil {
		return fmt.Errorf("update usage event owner: %w", err)
	}
	return nil
}

func (r *EventRepository) UpdateLastModified(ctx context.Context, key string, lastModified int64) error {
	_, err := r.db.ExecContext(ctx,
		`UPDATE usage_events SET last_modified = ? WHERE natural_key = ?`, lastModified, key)
	if err != nil {
		return fmt.Errorf("update usage event last modified: %w", err)
	}
	return nil
}
