package migrator

import (
	"context"
	"fmt"
	"net/url"
	"strings"

	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/jmoiron/sqlx"
)

// TempDBManager creates throwaway databases on the configured server
type TempDBManager struct {
	baseConfig *DBConfig
}

func NewTempDBManager(config *DBConfig) *TempDBManager {
	return &TempDBManager{baseConfig: config}
}

// buildTempDBURL swaps the database name of the base URL
func (m *TempDBManager) buildTempDBURL(name string) string {
	u, err := url.Parse(m.baseConfig.URL)
	if err != nil || u.Scheme == "" {
		return strings.TrimRight(m.baseConfig.URL, "/") + "/" + name
	}
	u.Path = "/" + name
	u.RawPath = ""
	return u.String()
}

// CreateTempDB creates the database and returns a connection to it. cleanup
// closes the connection and drops the database.
func (m *TempDBManager) CreateTempDB(ctx context.Context, name string) (*sqlx.DB, func(), error) {
	admin, err := NewDBConfig(m.baseConfig.URL).Connect(ctx)
	if err != nil {
		return nil, nil, fmt.Errorf("failed to connect to server: %w", err)
	}

	if _, err := admin.ExecContext(ctx, "CREATE DATABASE "+quoteIdentifier(name)); err != nil {
		admin.Close()
		return nil, nil, fmt.Errorf("failed to create temp database %s: %w", name, err)
	}

	drop := func() {
		if _, err := admin.ExecContext(context.Background(), "DROP DATABASE IF EXISTS "+quoteIdentifier(name)); err != nil {
			logger.Migration().WithField("error", err.Error()).Warn("failed to drop temp database %s", name)
		}
		admin.Close()
	}

	cfg := NewDBConfig(m.buildTempDBURL(name))
	cfg.MaxOpenConns = 1
	temp, err := cfg.Connect(ctx)
	if err != nil {
		drop()
		return nil, nil, fmt.Errorf("failed to connect to temp database %s: %w", name, err)
	}

	cleanup := func() {
		temp.Close()
		drop()
	}
	return temp, cleanup, nil
}
