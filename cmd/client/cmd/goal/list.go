package goal

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"habitkeeper/cmd/client/cmd/types"
	"habitkeeper/internal/app/client"
	"habitkeeper/internal/model"
)

var ListCmd = &cobra.Command{
	Use:   "list",
	Short: "List goals and their sync state",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)

		goals, err := app.Storage().Goals().GetAll(cmd.Context())
		if err != nil {
			return fmt.Errorf("load goals: %w", err)
		}
		if len(goals) == 0 {
			fmt.Println("No goals yet. Add one with: habitkeeper goal add")
			return nil
		}

		for _, g := range goals {
			state := ""
			switch g.SyncStatus {
			case model.SyncSynced:
				state = color.GreenString("synced")
			case model.SyncPending:
				state = color.YellowString("pending")
			case model.SyncError:
				state = color.RedString("error")
			}
			enabled := "on"
			if !g.Enabled {
				enabled = "off"
			}
			fmt.Printf("%-40s %4d min/day  %-3s  %s\n", g.TargetApp, g.DailyLimitMinutes, enabled, state)
		}
		return nil
	},
}
