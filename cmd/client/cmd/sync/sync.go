package sync

import (
	"context"
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"habitkeeper/cmd/client/cmd/types"
	"habitkeeper/internal/app/client"
)

var full bool

var SyncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Synchronize local data with the server",
	Long: `Pushes pending local changes and pulls remote changes for every
entity type, then reconciles the settings blob. Entity types that
have nothing pending and nothing new remotely are skipped.

With --full the complete data set is exchanged instead of only the
changes since the last sync.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		app := cmd.Context().Value(types.ClientAppKey).(*client.App)

		if !app.Authenticated() {
			return fmt.Errorf("authentication required, run: habitkeeper auth login")
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 2*time.Minute)
		defer cancel()

		start := time.Now()
		var err error
		if full {
			err = app.InitialSync(ctx)
		} else {
			err = app.Sync(ctx)
		}
		if err != nil {
			return fmt.Errorf("sync failed: %w", err)
		}

		fmt.Printf("Sync finished in %s.\n", time.Since(start).Round(time.Millisecond))
		return nil
	},
}

func init() {
	SyncCmd.Flags().BoolVar(&full, "full", false, "exchange the complete data set")
}
