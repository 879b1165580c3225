// Package settings flattens the app's scattered configuration groups into
// one versioned blob for sync, and debounces bursts of local preference
// changes into a single round-trip.
package settings

import (
	"context"

	"habitkeeper/internal/model"
)

// Group names used as top-level keys in the settings snapshot.
const (
	GroupGeneral       = "general"
	GroupTheme         = "theme"
	GroupIntervention  = "intervention"
	GroupNotifications = "notifications"
	GroupQuests        = "quests"
	GroupStreakFreezes = "streak_freezes"
)

type General struct {
	DailyReminder bool `json:"daily_reminder"`
	StrictMode    bool `json:"strict_mode"`
	WeekStartDay  int  `json:"week_start_day"` // 0 = Sunday
}

type Theme struct {
	Mode         string `json:"mode"` // system, light, dark
	AccentColor  string `json:"accent_color"`
	DynamicColor bool   `json:"dynamic_color"`
}

type Intervention struct {
	Difficulty       int `json:"difficulty"` // 1..5
	BreathingSeconds int `json:"breathing_seconds"`
	SnoozeLimit      int `json:"snooze_limit"`
}

type Notifications struct {
	Enabled         bool `json:"enabled"`
	QuietHoursStart int  `json:"quiet_hours_start"` // hour of day
	QuietHoursEnd   int  `json:"quiet_hours_end"`
	StreakAlerts    bool `json:"streak_alerts"`
}

// QuestProgress holds the onboarding-quest completion flags. This group is
// one-way guarded during deserialization: a remote false never un-completes
// a locally completed step.
type QuestProgress struct {
	FirstGoalCreated  bool `json:"first_goal_created"`
	BaselineCaptured  bool `json:"baseline_captured"`
	FirstIntervention bool `json:"first_intervention"`
	TourFinished      bool `json:"tour_finished"`
}

type StreakFreezes struct {
	Available    int   `json:"available"`
	LastEarnedAt int64 `json:"last_earned_at"` // unix millis
}

// SyncState is the persisted settings-sync diagnostic row: last watermark,
// last outcome, and the local blob's modification stamp.
type SyncState struct {
	Status       model.SyncStatus `json:"status"`
	Message      string           `json:"message,omitempty"`
	Watermark    int64            `json:"watermark"`
	LastModified int64            `json:"last_modified"`
}

// Store is the local persistence contract for the six configuration groups
// and the settings sync state.
type Store interface {
	General(ctx context.Context) (General, error)
	SetGeneral(ctx context.Context, g General) error
	Theme(ctx context.Context) (Theme, error)
	SetTheme(ctx context.Context, t Theme) error
	Intervention(ctx context.Context) (Intervention, error)
	SetIntervention(ctx context.Context, i Intervention) error
	Notifications(ctx context.Context) (Notifications, error)
	SetNotifications(ctx context.Context, n Notifications) error
	Quests(ctx context.Context) (QuestProgress, error)
	SetQuests(ctx context.Context, q QuestProgress) error
	StreakFreezes(ctx context.Context) (StreakFreezes, error)
	SetStreakFreezes(ctx context.Context, f StreakFreezes) error

	SyncState(ctx context.Context) (SyncState, error)
	SetSyncState(ctx context.Context, s SyncState) error
}
