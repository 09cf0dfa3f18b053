package cli

import (
	"context"
	"errors"
	"fmt"
	"io"
	"time"

	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/eleven-am/recipe-api/internal/migrator"
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/eleven-am/recipe-api/internal/schema"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var (
	// Migration flags
	dryRun              bool
	createDBIfNotExists bool
	allowDestructive    bool
	printSchema         bool
)

var migrateCmd = &cobra.Command{
	Use:   "migrate",
	Short: "Bring the database schema up to date",
	Long: `Compares the schema generated from the models with the live database
using Atlas and applies the difference in a single transaction.
Destructive changes are refused unless --allow-destructive is given.`,
	RunE: runMigrate,
}

func init() {
	migrateCmd.Flags().BoolVar(&dryRun, "dry-run", false, "Print the plan and its rollback without applying it")
	migrateCmd.Flags().BoolVar(&createDBIfNotExists, "create-if-not-exists", false, "Create the database if it does not exist")
	migrateCmd.Flags().BoolVar(&allowDestructive, "allow-destructive", false, "Allow potentially destructive operations")
	migrateCmd.Flags().BoolVar(&printSchema, "print-schema", false, "Print the target schema DDL and exit")
}

// TargetDDL renders the schema the models describe
func TargetDDL() (string, error) {
	target, err := schema.FromModels(models.All()...)
	if err != nil {
		return "", fmt.Errorf("failed to generate schema: %w", err)
	}
	return target.DDL(), nil
}

func runMigrate(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	out := cmd.OutOrStdout()

	if printSchema {
		ddl, err := TargetDDL()
		if err != nil {
			return err
		}
		fmt.Fprint(out, ddl)
		return nil
	}

	dsn := appConfig.DatabaseURL()
	if verbose {
		fmt.Fprintf(out, "Using database URL: %s\n", dsn)
	}

	if createDBIfNotExists {
		if err := migrator.EnsureDatabaseExists(ctx, dsn); err != nil {
			return err
		}
	}

	db, err := connect(ctx, false, out)
	if err != nil {
		return err
	}
	defer db.Close()

	return migrate(ctx, db, out, migrateOptions{DryRun: dryRun, AllowDestructive: allowDestructive})
}

type migrateOptions struct {
	DryRun           bool
	AllowDestructive bool
}

// migrate plans against db and applies the plan unless DryRun is set
func migrate(ctx context.Context, db *sqlx.DB, out io.Writer, opts migrateOptions) error {
	ddl, err := TargetDDL()
	if err != nil {
		return err
	}

	logger.StartProgress("Planning migration")
	plan, err := migrator.NewMigrator(appConfig.DBConfig()).Plan(ctx, db, ddl)
	logger.EndProgress(err == nil)
	if err != nil {
		return err
	}

	return reportAndApply(ctx, db, plan, out, opts)
}

func reportAndApply(ctx context.Context, db *sqlx.DB, plan *migrator.Plan, out io.Writer, opts migrateOptions) error {
	if plan.Empty() {
		fmt.Fprintln(out, "No changes detected.")
		return nil
	}

	fmt.Fprintf(out, "Planned %d statement(s):\n", len(plan.Statements))
	for _, stmt := range plan.Statements {
		fmt.Fprintf(out, "  %s;\n", stmt)
	}

	destructive := plan.Destructive()
	for _, d := range destructive {
		fmt.Fprintf(out, "WARNING: destructive change: %s\n", d)
	}

	if opts.DryRun {
		fmt.Fprintln(out, "\nRollback:")
		for _, stmt := range plan.Rollback() {
			fmt.Fprintf(out, "  %s\n", stmt)
		}
		fmt.Fprintln(out, "\nDry run: nothing applied.")
		return nil
	}

	if err := migrator.Apply(ctx, db, plan, opts.AllowDestructive); err != nil {
		if errors.Is(err, migrator.ErrDestructive) {
			return fmt.Errorf("%w (re-run with --allow-destructive to apply)", err)
		}
		return err
	}

	fmt.Fprintln(out, "Migration applied.")
	return nil
}
