package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/eleven-am/recipe-api/internal/migrator"
	"github.com/spf13/cobra"
)

var verifyCmd = &cobra.Command{
	Use:   "verify",
	Short: "Verify database schema matches models",
	Long: `Verify that the live database schema matches the schema generated from
the models. Nothing is changed.

Returns exit code 0 if schema matches, 1 if differences found.`,
	RunE: runVerify,
}

func runVerify(cmd *cobra.Command, args []string) error {
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Minute)
	defer cancel()

	db, err := connect(ctx, false, cmd.OutOrStdout())
	if err != nil {
		return err
	}
	defer db.Close()

	ddl, err := TargetDDL()
	if err != nil {
		return err
	}

	fmt.Fprintln(cmd.OutOrStdout(), "Verifying database schema...")
	plan, err := migrator.NewMigrator(appConfig.DBConfig()).Plan(ctx, db, ddl)
	if err != nil {
		return err
	}

	return reportDrift(plan, cmd.OutOrStdout())
}

// reportDrift lists the pending changes and fails when there are any
func reportDrift(plan *migrator.Plan, out io.Writer) error {
	if plan.Empty() {
		fmt.Fprintln(out, "Schema is up to date.")
		return nil
	}

	for _, change := range plan.Changes {
		fmt.Fprintf(out, "  %s\n", migrator.DescribeChange(change))
	}
	return fmt.Errorf("schema differs from models: %d pending statement(s), run 'recipes migrate'", len(plan.Statements))
}
