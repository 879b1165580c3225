package auth

import (
	"fmt"

	"github.com/spf13/cobra"

	"habitkeeper/cmd/client/cmd/types"
	"habitkeeper/internal/app/client"
)

var LogoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Log out and drop the stored token",
	Long: `Removes the stored token. Local data stays on this device and any
pending settings upload is cancelled.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)

		if err := app.Logout(); err != nil {
			return err
		}
		fmt.Println("Logged out.")
		return nil
	},
}
