package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"habitkeeper/internal/domain/habitsync"
)

// HabitSyncRepository persists sync records and settings blobs in PostgreSQL.
type HabitSyncRepository struct {
	db *Storage
}

func NewHabitSyncRepository(db *Storage) *HabitSyncRepository {
	return &HabitSyncRepository{db: db}
}

const recordCols = `id, owner_id, entity_type, natural_key, cloud_id, payload, last_modified`

func (r *HabitSyncRepository) GetByKeys(ctx context.Context, ownerID string, entityType habitsync.EntityType, keys []string) ([]habitsync.Record, error) {
	if len(keys) == 0 {
		return nil, nil
	}
	rows, err := r.db.Pool().Query(ctx,
		`SELECT `+recordCols+` FROM sync_records
		 WHERE owner_id = $1 AND entity_type = $2 AND natural_key = ANY($3)`,
		ownerID, string(entityType), keys)
	if err != nil {
		return nil, fmt.Errorf("select records by keys: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func (r *HabitSyncRepository) GetChangedSince(ctx context.Context, ownerID string, entityType habitsync.EntityType, since int64) ([]habitsync.Record, error) {
	rows, err := r.db.Pool().Query(ctx,
		`SELECT `+recordCols+` FROM sync_records
		 WHERE owner_id = $1 AND entity_type = $2 AND last_modified > $3
		 ORDER BY last_modified`,
		ownerID, string(entityType), since)
	if err != nil {
		return nil, fmt.Errorf("select changed records: %w", err)
	}
	defer rows.Close()
	return scanRecords(rows)
}

func scanRecords(rows pgx.Rows) ([]habitsync.Record, error) {
	var out []habitsync.Record
	for rows.Next() {
		var rec habitsync.Record
		var entityType string
		if err := rows.Scan(&rec.ID, &rec.OwnerID, &entityType, &rec.NaturalKey,
			&rec.CloudID, &rec.Payload, &rec.LastModified); err != nil {
			return nil, fmt.Errorf("scan record: %w", err)
		}
		rec.EntityType = habitsync.EntityType(entityType)
		out = append(out, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate records: %w", err)
	}
	return out, nil
}

func (r *HabitSyncRepository) Upsert(ctx context.Context, rec habitsync.Record) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO sync_records (owner_id, entity_type, natural_key, cloud_id, payload, last_modified)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 ON CONFLICT (owner_id, entity_type, natural_key) DO UPDATE SET
		   cloud_id = EXCLUDED.cloud_id,
		   payload = EXCLUDED.payload,
		   last_modified = EXCLUDED.last_modified`,
		rec.OwnerID, string(rec.EntityType), rec.NaturalKey, rec.CloudID, rec.Payload, rec.LastModified)
	if err != nil {
		return fmt.Errorf("upsert record: %w", err)
	}
	return nil
}

func (r *HabitSyncRepository) GetSettings(ctx context.Context, ownerID string) (*habitsync.SettingsRow, error) {
	row := r.db.Pool().QueryRow(ctx,
		`SELECT owner_id, payload, last_modified FROM sync_settings WHERE owner_id = $1`, ownerID)

	var s habitsync.SettingsRow
	if err := row.Scan(&s.OwnerID, &s.Payload, &s.LastModified); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("select settings: %w", err)
	}
	return &s, nil
}

func (r *HabitSyncRepository) UpsertSettings(ctx context.Context, s habitsync.SettingsRow) error {
	_, err := r.db.Pool().Exec(ctx,
		`INSERT INTO sync_settings (owner_id, payload, last_modified)
		 VALUES ($1, $2, $3)
		 ON CONFLICT (owner_id) DO UPDATE SET
		   payload = EXCLUDED.payload,
		   last_modified = EXCLUDED.last_modified`,
		s.OwnerID, s.Payload, s.LastModified)
	if err != nil {
		return fmt.Errorf("upsert settings: %w", err)
	}
	return nil
}
