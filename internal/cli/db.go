package cli

import (
	"context"
	"fmt"
	"io"
	"time"

	"github.com/eleven-am/recipe-api/internal/auth"
	"github.com/eleven-am/recipe-api/internal/migrator"
	"github.com/eleven-am/recipe-api/internal/store"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
)

var waitTimeout time.Duration

var waitForDBCmd = &cobra.Command{
	Use:   "wait-for-db",
	Short: "Wait until the database accepts connections",
	Long: `Pings the database once a second until it answers. Useful as a
container start step before migrations run. --timeout bounds the wait.`,
	RunE: runWaitForDB,
}

func init() {
	waitForDBCmd.Flags().DurationVar(&waitTimeout, "timeout", 0, "Give up after this long (0 waits forever)")
}

func runWaitForDB(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	if ctx == nil {
		ctx = context.Background()
	}
	if waitTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, waitTimeout)
		defer cancel()
	}

	db, err := appConfig.DBConfig().Open()
	if err != nil {
		return err
	}
	defer db.Close()

	return migrator.WaitForDB(ctx, db, migrator.WaitOptions{Out: cmd.OutOrStdout()})
}

// connect optionally waits for the server and then opens the pool
func connect(ctx context.Context, wait bool, out io.Writer) (*sqlx.DB, error) {
	cfg := appConfig.DBConfig()

	if wait {
		db, err := cfg.Open()
		if err != nil {
			return nil, err
		}
		err = migrator.WaitForDB(ctx, db, migrator.WaitOptions{Out: out})
		db.Close()
		if err != nil {
			return nil, err
		}
	}

	db, err := cfg.Connect(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}
	return db, nil
}

// services builds the store and the auth services on db
func services(db *sqlx.DB, cfg *Config) (*store.Store, *auth.UserManager, *auth.TokenService, error) {
	st, err := store.New(db)
	if err != nil {
		return nil, nil, nil, err
	}

	hasher := auth.NewHasher()
	if cfg.Auth.BcryptCost > 0 {
		hasher.SetCost(cfg.Auth.BcryptCost)
	}

	users := auth.NewUserManager(st, hasher)
	return st, users, auth.NewTokenService(st, users), nil
}
