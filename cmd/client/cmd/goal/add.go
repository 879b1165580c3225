package goal

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"habitkeeper/cmd/client/cmd/types"
	"habitkeeper/internal/app/client"
	"habitkeeper/internal/model"
)

var limitMinutes int

var AddCmd = &cobra.Command{
	Use:   "add <app-package>",
	Short: "Add a daily limit for an app",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)

		if limitMinutes <= 0 {
			return fmt.Errorf("--limit must be positive")
		}

		g := model.Goal{
			TargetApp:         args[0],
			DailyLimitMinutes: limitMinutes,
			Enabled:           true,
			CreatedAt:         time.Now().UTC(),
		}
		g.OwnerID = app.OwnerID()
		g.MarkPending(time.Now().UnixMilli())

		if err := app.Storage().Goals().Upsert(cmd.Context(), g); err != nil {
			return fmt.Errorf("store goal: %w", err)
		}

		fmt.Printf("Goal added: %s, %d min/day. It will upload on the next sync.\n",
			g.TargetApp, g.DailyLimitMinutes)
		return nil
	},
}

func init() {
	AddCmd.Flags().IntVar(&limitMinutes, "limit", 30, "daily limit in minutes")
}
