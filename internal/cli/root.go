// Package cli implements the recipes command: the HTTP server and the
// database management commands that run alongside it.
package cli

import (
	"fmt"
	"os"

	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/eleven-am/recipe-api/pkg/recipes"
	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// Global configuration variables
var (
	configFile  string
	appConfig   *Config
	databaseURL string
	debug       bool
	verbose     bool
)

func NewRootCommand() *cobra.Command {
	rootCmd := &cobra.Command{
		Use:   "recipes",
		Short: "Recipe API server and management commands",
		Long: `recipes serves the recipe REST API and staff admin, and manages the
database it runs on.

Configuration is read from recipes.yaml (or --config), then .env and the
environment, then command line flags.`,
		Version:       recipes.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("failed to load .env: %w", err)
			}

			cfg, err := LoadConfig(configFile)
			if err != nil {
				return err
			}
			if databaseURL != "" {
				cfg.Database.URL = databaseURL
			}
			appConfig = cfg

			return configureLogging(cfg)
		},
	}

	rootCmd.PersistentFlags().StringVar(&configFile, "config", "", "config file (default: recipes.yaml)")
	rootCmd.PersistentFlags().StringVar(&databaseURL, "url", "", "database connection URL")
	rootCmd.PersistentFlags().BoolVar(&debug, "debug", false, "enable debug output")
	rootCmd.PersistentFlags().BoolVar(&verbose, "verbose", false, "enable verbose output")

	rootCmd.AddCommand(initCmd)
	rootCmd.AddCommand(serveCmd)
	rootCmd.AddCommand(waitForDBCmd)
	rootCmd.AddCommand(migrateCmd)
	rootCmd.AddCommand(createSuperuserCmd)
	rootCmd.AddCommand(verifyCmd)
	rootCmd.AddCommand(versionCmd)

	return rootCmd
}

func configureLogging(cfg *Config) error {
	level, err := logger.ParseLevel(cfg.Log.Level)
	if err != nil {
		return err
	}
	logger.SetOutput(os.Stderr, cfg.Log.Format)
	logger.SetLevel(level)
	logger.Configure(debug, verbose)
	return nil
}
