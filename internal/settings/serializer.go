package settings

import (
	"context"
	"encoding/json"
	"fmt"
	"math"

	"habitkeeper/internal/model"
)

// Serializer flattens the configuration groups into one snapshot keyed by
// group name and restores them. Deserialization is defensive: unknown or
// missing keys are skipped per-field and a partial blob is applied
// partially, never rejected outright.
type Serializer struct {
	store Store
}

func NewSerializer(store Store) *Serializer {
	return &Serializer{store: store}
}

// Snapshot reads every group from the store and flattens it.
func (s *Serializer) Snapshot(ctx context.Context) (model.SettingsSnapshot, error) {
	snap := model.SettingsSnapshot{Groups: make(map[string]map[string]any, 6)}

	general, err := s.store.General(ctx)
	if err != nil {
		return snap, fmt.Errorf("read general settings: %w", err)
	}
	snap.Groups[GroupGeneral] = map[string]any{
		"daily_reminder": general.DailyReminder,
		"strict_mode":    general.StrictMode,
		"week_start_day": general.WeekStartDay,
	}

	theme, err := s.store.Theme(ctx)
	if err != nil {
		return snap, fmt.Errorf("read theme settings: %w", err)
	}
	snap.Groups[GroupTheme] = map[string]any{
		"mode":          theme.Mode,
		"accent_color":  theme.AccentColor,
		"dynamic_color": theme.DynamicColor,
	}

	intervention, err := s.store.Intervention(ctx)
	if err != nil {
		return snap, fmt.Errorf("read intervention settings: %w", err)
	}
	snap.Groups[GroupIntervention] = map[string]any{
		"difficulty":        intervention.Difficulty,
		"breathing_seconds": intervention.BreathingSeconds,
		"snooze_limit":      intervention.SnoozeLimit,
	}

	notifications, err := s.store.Notifications(ctx)
	if err != nil {
		return snap, fmt.Errorf("read notification settings: %w", err)
	}
	snap.Groups[GroupNotifications] = map[string]any{
		"enabled":           notifications.Enabled,
		"quiet_hours_start": notifications.QuietHoursStart,
		"quiet_hours_end":   notifications.QuietHoursEnd,
		"streak_alerts":     notifications.StreakAlerts,
	}

	quests, err := s.store.Quests(ctx)
	if err != nil {
		return snap, fmt.Errorf("read quest progress: %w", err)
	}
	snap.Groups[GroupQuests] = map[string]any{
		"first_goal_created": quests.FirstGoalCreated,
		"baseline_captured":  quests.BaselineCaptured,
		"first_intervention": quests.FirstIntervention,
		"tour_finished":      quests.TourFinished,
	}

	freezes, err := s.store.StreakFreezes(ctx)
	if err != nil {
		return snap, fmt.Errorf("read streak freezes: %w", err)
	}
	snap.Groups[GroupStreakFreezes] = map[string]any{
		"available":      freezes.Available,
		"last_earned_at": freezes.LastEarnedAt,
	}

	state, err := s.store.SyncState(ctx)
	if err != nil {
		return snap, fmt.Errorf("read sync state: %w", err)
	}
	snap.LastModified = state.LastModified

	return snap, nil
}

// Apply writes a remote snapshot back into the store. Each group is read,
// overlaid field by field with whatever the snapshot carries, and written
// back; numbers are tolerated in whatever width the transport produced.
func (s *Serializer) Apply(ctx context.Context, snap model.SettingsSnapshot) error {
	if g, ok := snap.Groups[GroupGeneral]; ok {
		general, err := s.store.General(ctx)
		if err != nil {
			return fmt.Errorf("read general settings: %w", err)
		}
		applyBool(g, "daily_reminder", &general.DailyReminder)
		applyBool(g, "strict_mode", &general.StrictMode)
		applyInt(g, "week_start_day", &general.WeekStartDay)
		if err := s.store.SetGeneral(ctx, general); err != nil {
			return fmt.Errorf("apply general settings: %w", err)
		}
	}

	if g, ok := snap.Groups[GroupTheme]; ok {
		theme, err := s.store.Theme(ctx)
		if err != nil {
			return fmt.Errorf("read theme settings: %w", err)
		}
		applyString(g, "mode", &theme.Mode)
		applyString(g, "accent_color", &theme.AccentColor)
		applyBool(g, "dynamic_color", &theme.DynamicColor)
		if err := s.store.SetTheme(ctx, theme); err != nil {
			return fmt.Errorf("apply theme settings: %w", err)
		}
	}

	if g, ok := snap.Groups[GroupIntervention]; ok {
		intervention, err := s.store.Intervention(ctx)
		if err != nil {
			return fmt.Errorf("read intervention settings: %w", err)
		}
		applyInt(g, "difficulty", &intervention.Difficulty)
		applyInt(g, "breathing_seconds", &intervention.BreathingSeconds)
		applyInt(g, "snooze_limit", &intervention.SnoozeLimit)
		if err := s.store.SetIntervention(ctx, intervention); err != nil {
			return fmt.Errorf("apply intervention settings: %w", err)
		}
	}

	if g, ok := snap.Groups[GroupNotifications]; ok {
		notifications, err := s.store.Notifications(ctx)
		if err != nil {
			return fmt.Errorf("read notification settings: %w", err)
		}
		applyBool(g, "enabled", &notifications.Enabled)
		applyInt(g, "quiet_hours_start", &notifications.QuietHoursStart)
		applyInt(g, "quiet_hours_end", &notifications.QuietHoursEnd)
		applyBool(g, "streak_alerts", &notifications.StreakAlerts)
		if err := s.store.SetNotifications(ctx, notifications); err != nil {
			return fmt.Errorf("apply notification settings: %w", err)
		}
	}

	if g, ok := snap.Groups[GroupQuests]; ok {
		quests, err := s.store.Quests(ctx)
		if err != nil {
			return fmt.Errorf("read quest progress: %w", err)
		}
		// One-way guard: completion only ever moves forward. A stale
		// remote snapshot must not un-complete a finished quest step.
		applyBoolForward(g, "first_goal_created", &quests.FirstGoalCreated)
		applyBoolForward(g, "baseline_captured", &quests.BaselineCaptured)
		applyBoolForward(g, "first_intervention", &quests.FirstIntervention)
		applyBoolForward(g, "tour_finished", &quests.TourFinished)
		if err := s.store.SetQuests(ctx, quests); err != nil {
			return fmt.Errorf("apply quest progress: %w", err)
		}
	}

	if g, ok := snap.Groups[GroupStreakFreezes]; ok {
		freezes, err := s.store.StreakFreezes(ctx)
		if err != nil {
			return fmt.Errorf("read streak freezes: %w", err)
		}
		applyInt(g, "available", &freezes.Available)
		applyInt64(g, "last_earned_at", &freezes.LastEarnedAt)
		if err := s.store.SetStreakFreezes(ctx, freezes); err != nil {
			return fmt.Errorf("apply streak freezes: %w", err)
		}
	}

	return nil
}

// Field coercion helpers. JSON transports deliver every number as float64
// and some backends re-encode integers as floats; conversions truncate
// toward zero deterministically.

func applyBool(group map[string]any, key string, dst *bool) {
	if v, ok := coerceBool(group[key]); ok {
		*dst = v
	}
}

// applyBoolForward only ever flips false to true.
func applyBoolForward(group map[string]any, key string, dst *bool) {
	if v, ok := coerceBool(group[key]); ok && v {
		*dst = true
	}
}

func applyInt(group map[string]any, key string, dst *int) {
	if v, ok := coerceInt64(group[key]); ok {
		*dst = int(v)
	}
}

func applyInt64(group map[string]any, key string, dst *int64) {
	if v, ok := coerceInt64(group[key]); ok {
		*dst = v
	}
}

func applyString(group map[string]any, key string, dst *string) {
	if v, ok := group[key].(string); ok {
		*dst = v
	}
}

func coerceBool(v any) (bool, bool) {
	switch b := v.(type) {
	case bool:
		return b, true
	case float64:
		return b != 0, true
	case int:
		return b != 0, true
	default:
		return false, false
	}
}

func coerceInt64(v any) (int64, bool) {
	switch n := v.(type) {
	case int64:
		return n, true
	case int:
		return int64(n), true
	case float64:
		return int64(math.Trunc(n)), true
	case json.Number:
		if i, err := n.Int64(); err == nil {
			return i, true
		}
		if f, err := n.Float64(); err == nil {
			return int64(math.Trunc(f)), true
		}
		return 0, false
	default:
		return 0, false
	}
}
