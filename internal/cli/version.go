package cli

import (
	"fmt"

	"github.com/eleven-am/recipe-api/pkg/recipes"
	"github.com/spf13/cobra"
)

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Show version information",
	Long:  "Display the Recipe API version and build information",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Fprint(cmd.OutOrStdout(), recipes.FullVersionInfo())
	},
}
