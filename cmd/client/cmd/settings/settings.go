package settings

import (
	"github.com/spf13/cobra"
)

// SettingsCmd is the parent command for user preferences.
var SettingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Manage user settings",
	Long: `Read and change user settings. Changes are written locally first
and uploaded to the server after a short debounce, so a burst of
edits becomes a single sync call.`,
}
