// Package migrator manages the database lifecycle: connecting, waiting for
// the server, creating the database and planning schema changes with Atlas.
package migrator

import (
	"context"
	"fmt"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
)

type DBConfig struct {
	URL              string
	ConnMaxLifetime  time.Duration
	MaxOpenConns     int
	MaxIdleConns     int
	StatementTimeout time.Duration
}

func NewDBConfig(url string) *DBConfig {
	return &DBConfig{
		URL:              url,
		ConnMaxLifetime:  10 * time.Minute,
		MaxOpenConns:     10,
		MaxIdleConns:     5,
		StatementTimeout: 300 * time.Second,
	}
}

// Open creates the pool without contacting the server
func (cfg *DBConfig) Open() (*sqlx.DB, error) {
	db, err := sqlx.Open("postgres", cfg.dsn())
	if err != nil {
		return nil, fmt.Errorf("failed to open database connection: %w", err)
	}

	db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	db.SetMaxOpenConns(cfg.MaxOpenConns)
	db.SetMaxIdleConns(cfg.MaxIdleConns)
	return db, nil
}

// Connect opens the pool and checks the server answers
func (cfg *DBConfig) Connect(ctx context.Context) (*sqlx.DB, error) {
	db, err := cfg.Open()
	if err != nil {
		return nil, err
	}

	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return db, nil
}

// dsn adds statement_timeout as a runtime parameter so every pooled
// connection carries it
func (cfg *DBConfig) dsn() string {
	if cfg.StatementTimeout <= 0 {
		return cfg.URL
	}
	ms := strconv.FormatInt(cfg.StatementTimeout.Milliseconds(), 10)

	if strings.HasPrefix(cfg.URL, "postgres://") || strings.HasPrefix(cfg.URL, "postgresql://") {
		u, err := url.Parse(cfg.URL)
		if err != nil {
			return cfg.URL
		}
		q := u.Query()
		if q.Get("statement_timeout") == "" {
			q.Set("statement_timeout", ms)
		}
		u.RawQuery = q.Encode()
		return u.String()
	}

	if strings.Contains(cfg.URL, "statement_timeout=") {
		return cfg.URL
	}
	return strings.TrimSpace(cfg.URL + " statement_timeout=" + ms)
}
