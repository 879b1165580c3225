package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"habitkeeper/cmd/client/cmd/auth"
	"habitkeeper/cmd/client/cmd/goal"
	"habitkeeper/cmd/client/cmd/settings"
	syncCmd "habitkeeper/cmd/client/cmd/sync"
	"habitkeeper/cmd/client/cmd/types"
	"habitkeeper/internal/app/client"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show account and sync status",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)

		if !app.Authenticated() {
			fmt.Println("Not logged in. Run: habitkeeper auth login")
			return nil
		}

		fmt.Printf("Owner: %s\n", app.OwnerID())
		if err := app.Backend().HealthCheck(cmd.Context()); err != nil {
			fmt.Printf("Server: unreachable (%v)\n", err)
		} else {
			fmt.Println("Server: ok")
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(auth.AuthCmd)
	auth.AuthCmd.AddCommand(auth.RegisterCmd)
	auth.AuthCmd.AddCommand(auth.LoginCmd)
	auth.AuthCmd.AddCommand(auth.LogoutCmd)

	rootCmd.AddCommand(goal.GoalCmd)
	goal.GoalCmd.AddCommand(goal.AddCmd)
	goal.GoalCmd.AddCommand(goal.ListCmd)

	rootCmd.AddCommand(settings.SettingsCmd)
	settings.SettingsCmd.AddCommand(settings.GetCmd)
	settings.SettingsCmd.AddCommand(settings.SetCmd)

	rootCmd.AddCommand(syncCmd.SyncCmd)
	rootCmd.AddCommand(statusCmd)
}
