package goal

import (
	"github.com/spf13/cobra"
)

// GoalCmd is the parent command for app usage goals.
var GoalCmd = &cobra.Command{
	Use:   "goal",
	Short: "Manage app usage goals",
	Long:  `Create and inspect daily screen time limits for individual apps.`,
}
