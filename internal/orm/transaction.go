package orm

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// TransactionOptions configures transaction behavior
type TransactionOptions struct {
	Isolation sql.IsolationLevel
	ReadOnly  bool
}

// ToTxOptions converts TransactionOptions to sql.TxOptions
func (o *TransactionOptions) ToTxOptions() *sql.TxOptions {
	if o == nil {
		return nil
	}
	return &sql.TxOptions{
		Isolation: o.Isolation,
		ReadOnly:  o.ReadOnly,
	}
}

// WithTransaction runs fn inside a transaction on db. When db already is a
// transaction fn joins it and the outer caller decides commit or rollback.
func WithTransaction(ctx context.Context, db DBExecutor, fn func(tx DBExecutor) error) error {
	return WithTransactionOptions(ctx, db, nil, fn)
}

// WithTransactionOptions is WithTransaction with explicit isolation settings
func WithTransactionOptions(ctx context.Context, db DBExecutor, opts *TransactionOptions, fn func(tx DBExecutor) error) error {
	if _, isTransaction := db.(*sqlx.Tx); isTransaction {
		return fn(db)
	}

	wrapper, ok := db.(DBWrapper)
	if !ok {
		return fmt.Errorf("cannot start transaction: executor is not a database connection")
	}

	tx, err := wrapper.BeginTxx(ctx, opts.ToTxOptions())
	if err != nil {
		return fmt.Errorf("failed to begin transaction: %w", err)
	}

	if err := fn(tx); err != nil {
		if rbErr := tx.Rollback(); rbErr != nil && !errors.Is(rbErr, sql.ErrTxDone) {
			return fmt.Errorf("failed to rollback transaction: %v (original error: %w)", rbErr, err)
		}
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("failed to commit transaction: %w", err)
	}

	return nil
}
