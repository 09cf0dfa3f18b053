package cli

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"
)

var (
	initPath  string
	initForce bool
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Create a recipes.yaml configuration file",
	Long: `Writes a recipes.yaml with the default settings so they can be
customised. Values from the environment still take precedence at runtime.`,
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initPath, "output", "recipes.yaml", "Where to write the configuration file")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite existing configuration file")
}

func runInit(cmd *cobra.Command, args []string) error {
	if _, err := os.Stat(initPath); err == nil && !initForce {
		return fmt.Errorf("%s already exists. Use --force to overwrite", initPath)
	}

	cfg := DefaultConfig()
	cfg.Database.Password = "changeme"

	if err := SaveConfig(cfg, initPath); err != nil {
		return fmt.Errorf("failed to save configuration: %w", err)
	}

	out := cmd.OutOrStdout()
	fmt.Fprintf(out, "Created %s\n", initPath)
	fmt.Fprintf(out, "\nNext steps:\n")
	fmt.Fprintf(out, "1. Update the database section in %s\n", initPath)
	fmt.Fprintf(out, "2. Run 'recipes migrate' to create the tables\n")
	fmt.Fprintf(out, "3. Run 'recipes createsuperuser' for admin access\n")
	fmt.Fprintf(out, "4. Run 'recipes serve'\n")

	return nil
}
