package habitsync

import "context"

// Repository persists sync records and settings blobs.
type Repository interface {
	// GetByKeys returns the owner's records for the given natural keys.
	GetByKeys(ctx context.Context, ownerID string, entityType EntityType, keys []string) ([]Record, error)

	// GetChangedSince returns the owner's records of one type modified
	// strictly after the given timestamp. A zero timestamp returns the
	// full set.
	GetChangedSince(ctx context.Context, ownerID string, entityType EntityType, since int64) ([]Record, error)

	// Upsert inserts or replaces a record keyed by (owner, type, natural key).
	Upsert(ctx context.Context, rec Record) error

	// GetSettings returns the owner's settings row, or nil when none exists.
	GetSettings(ctx context.Context, ownerID string) (*SettingsRow, error)

	// UpsertSettings inserts or replaces the owner's settings row.
	UpsertSettings(ctx context.Context, row SettingsRow) error
}
