// Package store wires one repository per model onto a shared executor.
package store

import (
	"context"
	"fmt"
	"time"

	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/eleven-am/recipe-api/internal/orm"
	"github.com/jmoiron/sqlx"
)

// Store is the entry point for all data access. A Store created inside
// WithTransaction runs every repository on the transaction.
type Store struct {
	db       *sqlx.DB
	executor orm.DBExecutor

	Users   *orm.Repository[models.User]
	Recipes *orm.Repository[models.Recipe]
	Tokens  *orm.Repository[models.Token]
}

// New builds the repositories and installs query logging
func New(db *sqlx.DB) (*Store, error) {
	users, err := orm.NewRepository[models.User](db, nil)
	if err != nil {
		return nil, fmt.Errorf("users repository: %w", err)
	}
	recipes, err := orm.NewRepository[models.Recipe](db, nil)
	if err != nil {
		return nil, fmt.Errorf("recipes repository: %w", err)
	}
	tokens, err := orm.NewRepository[models.Token](db, nil)
	if err != nil {
		return nil, fmt.Errorf("tokens repository: %w", err)
	}

	users.AddMiddleware(QueryLogger())
	recipes.AddMiddleware(QueryLogger())
	tokens.AddMiddleware(QueryLogger())

	return &Store{
		db:       db,
		executor: db,
		Users:    users,
		Recipes:  recipes,
		Tokens:   tokens,
	}, nil
}

func (s *Store) withExecutor(executor orm.DBExecutor) *Store {
	return &Store{
		db:       s.db,
		executor: executor,
		Users:    s.Users.WithExecutor(executor),
		Recipes:  s.Recipes.WithExecutor(executor),
		Tokens:   s.Tokens.WithExecutor(executor),
	}
}

// WithTransaction executes fn within a database transaction. Nested calls
// join the outer transaction.
func (s *Store) WithTransaction(ctx context.Context, fn func(*Store) error) error {
	return orm.WithTransaction(ctx, s.executor, func(tx orm.DBExecutor) error {
		return fn(s.withExecutor(tx))
	})
}

// Ping checks the connection is usable
func (s *Store) Ping(ctx context.Context) error {
	return s.db.PingContext(ctx)
}

// DB returns the underlying connection pool
func (s *Store) DB() *sqlx.DB {
	return s.db
}

// QueryLogger logs every statement at debug level with its duration
func QueryLogger() orm.QueryMiddleware {
	return func(next orm.QueryMiddlewareFunc) orm.QueryMiddlewareFunc {
		return func(mc *orm.MiddlewareContext) error {
			err := next(mc)

			l := logger.SQL().WithFields(map[string]interface{}{
				"op":       string(mc.Operation),
				"table":    mc.TableName,
				"duration": time.Since(mc.StartTime).Round(time.Microsecond),
			})
			if err != nil && !orm.IsNotFound(err) {
				l.WithField("error", err.Error()).Warn(mc.Query)
			} else {
				l.Debug(mc.Query)
			}
			return err
		}
	}
}
