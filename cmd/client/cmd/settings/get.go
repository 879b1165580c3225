package settings

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"

	"habitkeeper/cmd/client/cmd/types"
	"habitkeeper/internal/app/client"
	appsettings "habitkeeper/internal/settings"
)

var GetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print all settings as JSON",
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)

		snap, err := appsettings.NewSerializer(app.Storage().Settings()).Snapshot(cmd.Context())
		if err != nil {
			return fmt.Errorf("read settings: %w", err)
		}

		out, err := json.MarshalIndent(snap.Groups, "", "  ")
		if err != nil {
			return err
		}
		fmt.Println(string(out))
		return nil
	},
}
