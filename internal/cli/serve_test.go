package cli

import (
	"bytes"
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"ariga.io/atlas/sql/schema"
	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eleven-am/recipe-api/internal/migrator"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewHandler(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	cfg := DefaultConfig()
	cfg.Auth.BcryptCost = 4
	cfg.CORS.Origins = []string{"http://localhost:3000"}

	handler, err := newHandler(sqlx.NewDb(db, "postgres"), cfg)
	require.NoError(t, err)

	t.Run("api", func(t *testing.T) {
		mock.ExpectPing()
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/api/health/", nil))

		assert.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
	})

	t.Run("admin mounted", func(t *testing.T) {
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/admin/", nil))

		assert.Equal(t, http.StatusFound, rec.Code)
		assert.Equal(t, "/admin/login/?next=%2Fadmin%2F", rec.Header().Get("Location"))
	})

	t.Run("cors", func(t *testing.T) {
		req := httptest.NewRequest(http.MethodOptions, "/api/user/create/", nil)
		req.Header.Set("Origin", "http://localhost:3000")
		req.Header.Set("Access-Control-Request-Method", http.MethodPost)
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)

		assert.Equal(t, "http://localhost:3000", rec.Header().Get("Access-Control-Allow-Origin"))
	})

	require.NoError(t, mock.ExpectationsWereMet())
}

func TestNewHTTPServer(t *testing.T) {
	cfg := DefaultConfig()
	cfg.Server.WriteTimeout = 42 * time.Second

	serveAddr = ""
	srv := newHTTPServer(cfg, http.NotFoundHandler())
	assert.Equal(t, ":8000", srv.Addr)
	assert.Equal(t, 10*time.Second, srv.ReadHeaderTimeout)
	assert.Equal(t, 42*time.Second, srv.WriteTimeout)

	serveAddr = "127.0.0.1:9999"
	t.Cleanup(func() { serveAddr = "" })
	assert.Equal(t, "127.0.0.1:9999", newHTTPServer(cfg, http.NotFoundHandler()).Addr)
}

func TestTargetDDL(t *testing.T) {
	ddl, err := TargetDDL()
	require.NoError(t, err)

	assert.Contains(t, ddl, "CREATE TABLE users")
	assert.Contains(t, ddl, "CREATE TABLE recipes")
	assert.Less(t, strings.Index(ddl, "CREATE TABLE users"), strings.Index(ddl, "CREATE TABLE recipes"))
}

func TestReportAndApply(t *testing.T) {
	ctx := context.Background()

	t.Run("nothing to do", func(t *testing.T) {
		var out bytes.Buffer
		require.NoError(t, reportAndApply(ctx, nil, &migrator.Plan{}, &out, migrateOptions{}))
		assert.Equal(t, "No changes detected.\n", out.String())
	})

	t.Run("dry run prints rollback", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		plan := &migrator.Plan{Statements: []string{`CREATE TABLE "tags" ("id" bigint)`}}

		var out bytes.Buffer
		require.NoError(t, reportAndApply(ctx, sqlx.NewDb(db, "postgres"), plan, &out, migrateOptions{DryRun: true}))

		assert.Contains(t, out.String(), `CREATE TABLE "tags" ("id" bigint);`)
		assert.Contains(t, out.String(), `DROP TABLE IF EXISTS "tags" CASCADE`)
		assert.Contains(t, out.String(), "Dry run: nothing applied.")
		require.NoError(t, mock.ExpectationsWereMet())
	})

	t.Run("destructive refused", func(t *testing.T) {
		plan := &migrator.Plan{
			Statements: []string{`DROP TABLE "tags"`},
			Changes:    []schema.Change{&schema.DropTable{T: &schema.Table{Name: "tags"}}},
		}

		var out bytes.Buffer
		err := reportAndApply(ctx, nil, plan, &out, migrateOptions{})
		assert.True(t, errors.Is(err, migrator.ErrDestructive))
		assert.ErrorContains(t, err, "--allow-destructive")
		assert.Contains(t, out.String(), "WARNING: destructive change: Drop table tags")
	})

	t.Run("applies", func(t *testing.T) {
		db, mock, err := sqlmock.New()
		require.NoError(t, err)
		defer db.Close()

		mock.ExpectBegin()
		mock.ExpectExec(`ALTER TABLE "recipes" ADD COLUMN "servings" integer`).WillReturnResult(sqlmock.NewResult(0, 0))
		mock.ExpectCommit()

		plan := &migrator.Plan{Statements: []string{`ALTER TABLE "recipes" ADD COLUMN "servings" integer`}}

		var out bytes.Buffer
		require.NoError(t, reportAndApply(ctx, sqlx.NewDb(db, "postgres"), plan, &out, migrateOptions{}))
		assert.Contains(t, out.String(), "Migration applied.")
		require.NoError(t, mock.ExpectationsWereMet())
	})
}
