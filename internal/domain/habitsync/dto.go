package habitsync

// SyncRequest carries one batch of records for a single entity type.
type SyncRequest struct {
	OwnerID    string
	EntityType EntityType
	Since      int64
	Records    []Record
}

// Conflict describes a record that was modified on both sides since the
// client's watermark. The server keeps its copy; the client is expected to
// adopt it.
type Conflict struct {
	Key            string `json:"key"`
	LocalModified  int64  `json:"local_modified"`
	RemoteModified int64  `json:"remote_modified"`
	Reason         string `json:"reason,omitempty"`
}

// SyncResponse is the merge outcome for one entity type. Records holds the
// authoritative server state for everything the client touched plus anything
// that changed after Since.
type SyncResponse struct {
	Status    string     `json:"status"`
	Records   []Record   `json:"records"`
	Conflicts []Conflict `json:"conflicts,omitempty"`
	Error     string     `json:"error,omitempty"`
}

// SettingsSyncRequest carries the owner's settings blob.
type SettingsSyncRequest struct {
	OwnerID string
	Since   int64
	Row     SettingsRow
}

// SettingsSyncResponse returns the winning settings blob.
type SettingsSyncResponse struct {
	Status    string      `json:"status"`
	Row       SettingsRow `json:"row"`
	Conflicts []Conflict  `json:"conflicts,omitempty"`
	Error     string      `json:"error,omitempty"`
}
