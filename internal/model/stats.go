package model

import "time"

// DailyStats aggregates a single day of usage for one app. The composite
// (Date, App) pair is the natural local key.
type DailyStats struct {
	Date          string `json:"date" db:"date"` // "2006-01-02"
	App           string `json:"app" db:"app"`
	TotalMinutes  int    `json:"total_minutes" db:"total_minutes"`
	OpenCount     int    `json:"open_count" db:"open_count"`
	LimitHitCount int    `json:"limit_hit_count" db:"limit_hit_count"`
	LimitMinutes  int    `json:"limit_minutes" db:"limit_minutes"`

	SyncMeta
}

func (d DailyStats) Key() string { return d.Date + "/" + d.App }

// UserBaseline is the pre-goal usage average computed during onboarding,
// one row per app.
type UserBaseline struct {
	App             string    `json:"app" db:"app"`
	AvgDailyMinutes float64   `json:"avg_daily_minutes" db:"avg_daily_minutes"`
	SampleDays      int       `json:"sample_days" db:"sample_days"`
	ComputedAt      time.Time `json:"computed_at" db:"computed_at"`

	SyncMeta
}

func (b UserBaseline) Key() string { return b.App }
