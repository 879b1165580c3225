package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"habitkeeper/internal/model"
	"habitkeeper/internal/settings"
)

// SettingsRepository stores each configuration group as one JSON row and
// keeps the settings-sync diagnostic row. Any group write advances the
// blob's last_modified stamp.
type SettingsRepository struct {
	db *sql.DB
}

func (r *SettingsRepository) readGroup(ctx context.Context, name string, dst any) error {
	var payload string
	err := r.db.QueryRowContext(ctx,
		`SELECT payload FROM settings_groups WHERE name = ?`, name).Scan(&payload)
	if errors.Is(err, sql.ErrNoRows) {
		// Missing group keeps the caller-provided defaults.
		return nil
	}
	if err != nil {
		return fmt.Errorf("read settings group %s: %w", name, err)
	}
	if err := json.Unmarshal([]byte(payload), dst); err != nil {
		return fmt.Errorf("decode settings group %s: %w", name, err)
	}
	return nil
}

func (r *SettingsRepository) writeGroup(ctx context.Context, name string, src any) error {
	payload, err := json.Marshal(src)
	if err != nil {
		return fmt.Errorf("encode settings group %s: %w", name, err)
	}
	now := time.Now().UnixMilli()
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings_groups (name, payload, updated_at) VALUES (?, ?, ?)
		ON CONFLICT(name) DO UPDATE SET payload = excluded.payload, updated_at = excluded.updated_at
	`, name, string(payload), now)
	if err != nil {
		return fmt.Errorf("write settings group %s: %w", name, err)
	}
	_, err = r.db.ExecContext(ctx, `
		INSERT INTO settings_sync (id, last_modified) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET last_modified = excluded.last_modified
	`, now)
	if err != nil {
		return fmt.Errorf("advance settings last_modified: %w", err)
	}
	return nil
}

func (r *SettingsRepository) General(ctx context.Context) (settings.General, error) {
	g := settings.General{WeekStartDay: 1}
	err := r.readGroup(ctx, settings.GroupGeneral, &g)
	return g, err
}

func (r *SettingsRepository) SetGeneral(ctx context.Context, g settings.General) error {
	return r.writeGroup(ctx, settings.GroupGeneral, g)
}

func (r *SettingsRepository) Theme(ctx context.Context) (settings.Theme, error) {
	t := settings.Theme{Mode: "system", AccentColor: "teal"}
	err := r.readGroup(ctx, settings.GroupTheme, &t)
	return t, err
}

func (r *SettingsRepository) SetTheme(ctx context.Context, t settings.Theme) error {
	return r.writeGroup(ctx, settings.GroupTheme, t)
}

func (r *SettingsRepository) Intervention(ctx context.Context) (settings.Intervention, error) {
	i := settings.Intervention{Difficulty: 2, BreathingSeconds: 10, SnoozeLimit: 3}
	err := r.readGroup(ctx, settings.GroupIntervention, &i)
	return i, err
}

func (r *SettingsRepository) SetIntervention(ctx context.Context, i settings.Intervention) error {
	return r.writeGroup(ctx, settings.GroupIntervention, i)
}

func (r *SettingsRepository) Notifications(ctx context.Context) (settings.Notifications, error) {
	n := settings.Notifications{Enabled: true, QuietHoursStart: 22, QuietHoursEnd: 7, StreakAlerts: true}
	err := r.readGroup(ctx, settings.GroupNotifications, &n)
	return n, err
}

func (r *SettingsRepository) SetNotifications(ctx context.Context, n settings.Notifications) error {
	return r.writeGroup(ctx, settings.GroupNotifications, n)
}

func (r *SettingsRepository) Quests(ctx context.Context) (settings.QuestProgress, error) {
	var q settings.QuestProgress
	err := r.readGroup(ctx, settings.GroupQuests, &q)
	return q, err
}

func (r *SettingsRepository) SetQuests(ctx context.Context, q settings.QuestProgress) error {
	return r.writeGroup(ctx, settings.GroupQuests, q)
}

func (r *SettingsRepository) StreakFreezes(ctx context.Context) (settings.StreakFreezes, error) {
	var f settings.StreakFreezes
	err := r.readGroup(ctx, settings.GroupStreakFreezes, &f)
	return f, err
}

func (r *SettingsRepository) SetStreakFreezes(ctx context.Context, f settings.StreakFreezes) error {
	return r.writeGroup(ctx, settings.GroupStreakFreezes, f)
}

func (r *SettingsRepository) SyncState(ctx context.Context) (settings.SyncState, error) {
	state := settings.SyncState{Status: model.SyncPending}
	err := r.db.QueryRowContext(ctx,
		`SELECT status, message, watermark, last_modified FROM settings_sync WHERE id = 1`,
	).Scan(&state.Status, &state.Message, &state.Watermark, &state.LastModified)
	if errors.Is(err, sql.ErrNoRows) {
		return state, nil
	}
	if err != nil {
		return state, fmt.Errorf("read settings sync state: %w", err)
	}
	return state, nil
}

func (r *SettingsRepository) SetSyncState(ctx context.Context, state settings.SyncState) error {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO settings_sync (id, status, message, watermark, last_modified)
		VALUES (1, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			status        = excluded.status,
			message       = excluded.message,
			watermark     = excluded.watermark,
			last_modified = excluded.last_modified
	`, state.Status, state.Message, state.Watermark, state.LastModified)
	if err != nil {
		return fmt.Errorf("write settings sync state: %w", err)
	}
	return nil
}
