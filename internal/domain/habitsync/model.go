package habitsync

import "encoding/json"

// EntityType identifies which client-side collection a record belongs to.
type EntityType string

const (
	EntityGoals               EntityType = "goals"
	EntityUsageSessions       EntityType = "usage_sessions"
	EntityUsageEvents         EntityType = "usage_events"
	EntityDailyStats          EntityType = "daily_stats"
	EntityInterventionResults EntityType = "intervention_results"
	EntityStreakRecoveries    EntityType = "streak_recoveries"
	EntityUserBaselines       EntityType = "user_baselines"
)

// Record is the server-side representation of one synced entity. The payload
// is stored opaquely; the columns around it carry everything the merge needs.
type Record struct {
	ID           int64           `json:"-"`
	OwnerID      string          `json:"-"`
	EntityType   EntityType      `json:"-"`
	NaturalKey   string          `json:"natural_key"`
	CloudID      string          `json:"cloud_id"`
	Payload      json.RawMessage `json:"payload"`
	LastModified int64           `json:"last_modified"`
}

// SettingsRow holds the single settings blob kept per owner.
type SettingsRow struct {
	OwnerID      string          `json:"-"`
	Payload      json.RawMessage `json:"payload"`
	LastModified int64           `json:"last_modified"`
}
