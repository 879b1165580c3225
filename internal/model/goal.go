package model

import "time"

// Goal is a per-app usage limit. TargetApp is the natural local key; a
// device has at most one goal per target application.
type Goal struct {
	ID                int64     `json:"id" db:"id"`
	TargetApp         string    `json:"target_app" db:"target_app"`
	DailyLimitMinutes int       `json:"daily_limit_minutes" db:"daily_limit_minutes"`
	Enabled           bool      `json:"enabled" db:"enabled"`
	CreatedAt         time.Time `json:"created_at" db:"created_at"`

	SyncMeta
}

// Key returns the natural local key used for insert-or-replace on merge.
func (g Goal) Key() string { return g.TargetApp }
