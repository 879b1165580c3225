package model

// SyncStatus is the three-state reconciliation status carried by every
// synchronizable record.
type SyncStatus string

const (
	// SyncPending marks a record created or modified locally and not yet
	// acknowledged by the remote store. New records default to pending.
	SyncPending SyncStatus = "pending"
	// SyncSynced marks a record the remote store holds an identical or
	// newer copy of.
	SyncSynced SyncStatus = "synced"
	// SyncError marks a record whose last sync attempt failed. The record
	// is still pending semantically; the status is diagnostic.
	SyncError SyncStatus = "error"
)

// SyncMeta is embedded in every synchronizable entity. OwnerID is empty
// until first login, CloudID is empty until the record has been accepted
// remotely at least once. The local natural key and CloudID are reconciled
// explicitly and are never assumed equal.
type SyncMeta struct {
	OwnerID      string     `json:"owner_id,omitempty" db:"owner_id"`
	SyncStatus   SyncStatus `json:"sync_status" db:"sync_status"`
	CloudID      string     `json:"cloud_id,omitempty" db:"cloud_id"`
	LastModified int64      `json:"last_modified" db:"last_modified"` // unix millis
}

// SyncInfo returns a copy of the metadata. Promoted onto every entity
// that embeds SyncMeta so generic sync code can read reconciliation state.
func (m SyncMeta) SyncInfo() SyncMeta { return m }

// SetSyncInfo overwrites the metadata wholesale. Promoted as a pointer
// method so generic code can stamp authoritative reconciliation state onto
// a decoded record.
func (m *SyncMeta) SetSyncInfo(info SyncMeta) { *m = info }

// MarkPending resets the record for re-upload after a local mutation.
// CloudID is retained so the next upload is an update, not an insert.
func (m *SyncMeta) MarkPending(nowMillis int64) {
	m.SyncStatus = SyncPending
	m.LastModified = nowMillis
}

// MarkSynced applies the backend's acknowledgement.
func (m *SyncMeta) MarkSynced(cloudID string, lastModified int64) {
	m.SyncStatus = SyncSynced
	m.CloudID = cloudID
	m.LastModified = lastModified
}
