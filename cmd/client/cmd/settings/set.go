package settings

import (
	"fmt"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"habitkeeper/cmd/client/cmd/types"
	"habitkeeper/internal/app/client"
)

var SetCmd = &cobra.Command{
	Use:   "set <group.key> <value>",
	Short: "Change one setting",
	Long: `Changes a single setting, e.g.:

  habitkeeper settings set theme.mode dark
  habitkeeper settings set general.strict_mode true
  habitkeeper settings set intervention.breathing_seconds 15

The change is stored immediately and uploaded after the debounce
window unless further edits arrive first.`,
	Args: cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)

		group, key, ok := strings.Cut(args[0], ".")
		if !ok {
			return fmt.Errorf("setting must be given as group.key")
		}
		value := args[1]
		ctx := cmd.Context()
		store := app.Storage().Settings()

		switch group {
		case "general":
			g, err := store.General(ctx)
			if err != nil {
				return err
			}
			switch key {
			case "daily_reminder":
				g.DailyReminder, err = strconv.ParseBool(value)
			case "strict_mode":
				g.StrictMode, err = strconv.ParseBool(value)
			case "week_start_day":
				g.WeekStartDay, err = strconv.Atoi(value)
			default:
				return unknownKey(group, key)
			}
			if err != nil {
				return err
			}
			if err := store.SetGeneral(ctx, g); err != nil {
				return err
			}
		case "theme":
			t, err := store.Theme(ctx)
			if err != nil {
				return err
			}
			switch key {
			case "mode":
				t.Mode = value
			case "accent_color":
				t.AccentColor = value
			case "dynamic_color":
				t.DynamicColor, err = strconv.ParseBool(value)
			default:
				return unknownKey(group, key)
			}
			if err != nil {
				return err
			}
			if err := store.SetTheme(ctx, t); err != nil {
				return err
			}
		case "intervention":
			iv, err := store.Intervention(ctx)
			if err != nil {
				return err
			}
			switch key {
			case "difficulty":
				iv.Difficulty, err = strconv.Atoi(value)
			case "breathing_seconds":
				iv.BreathingSeconds, err = strconv.Atoi(value)
			case "snooze_limit":
				iv.SnoozeLimit, err = strconv.Atoi(value)
			default:
				return unknownKey(group, key)
			}
			if err != nil {
				return err
			}
			if err := store.SetIntervention(ctx, iv); err != nil {
				return err
			}
		case "notifications":
			n, err := store.Notifications(ctx)
			if err != nil {
				return err
			}
			switch key {
			case "enabled":
				n.Enabled, err = strconv.ParseBool(value)
			case "quiet_hours_start":
				n.QuietHoursStart, err = strconv.Atoi(value)
			case "quiet_hours_end":
				n.QuietHoursEnd, err = strconv.Atoi(value)
			case "streak_alerts":
				n.StreakAlerts, err = strconv.ParseBool(value)
			default:
				return unknownKey(group, key)
			}
			if err != nil {
				return err
			}
			if err := store.SetNotifications(ctx, n); err != nil {
				return err
			}
		default:
			return fmt.Errorf("unknown settings group %q", group)
		}

		app.Settings().TriggerDebouncedSync()
		fmt.Printf("Set %s.%s = %s\n", group, key, value)
		return nil
	},
}

func unknownKey(group, key string) error {
	return fmt.Errorf("unknown key %q in group %q", key, group)
}
