package store

import (
	"bytes"
	"context"
	"errors"
	"os"
	"testing"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/eleven-am/recipe-api/internal/logger"
	"github.com/eleven-am/recipe-api/internal/models"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newMockStore(t *testing.T) (*Store, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	s, err := New(sqlx.NewDb(db, "postgres"))
	require.NoError(t, err)
	return s, mock
}

func TestWithTransaction_Commit(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectExec(`DELETE FROM auth_tokens`).WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := s.WithTransaction(context.Background(), func(tx *Store) error {
		_, err := tx.Tokens.Query(context.Background()).Where(models.Tokens.UserID.Eq(1)).Delete()
		return err
	})
	require.NoError(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestWithTransaction_NestedJoinsOuter(t *testing.T) {
	s, mock := newMockStore(t)

	mock.ExpectBegin()
	mock.ExpectRollback()

	boom := errors.New("boom")
	err := s.WithTransaction(context.Background(), func(tx *Store) error {
		return tx.WithTransaction(context.Background(), func(inner *Store) error {
			return boom
		})
	})
	assert.ErrorIs(t, err, boom)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestQueryLogger(t *testing.T) {
	s, mock := newMockStore(t)

	buf := &bytes.Buffer{}
	logger.SetOutput(buf, "text")
	previous := logger.GetLevel()
	logger.SetLevel(logger.LevelDebug)
	t.Cleanup(func() {
		logger.SetOutput(os.Stderr, "text")
		logger.SetLevel(previous)
	})

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM users`).WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	n, err := s.Users.Query(context.Background()).Count()
	require.NoError(t, err)
	assert.Equal(t, int64(2), n)

	output := buf.String()
	assert.Contains(t, output, "component=sql")
	assert.Contains(t, output, "table=users")
	assert.Contains(t, output, "SELECT COUNT(*) FROM users")
}

func TestPing(t *testing.T) {
	db, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	defer db.Close()

	s, err := New(sqlx.NewDb(db, "postgres"))
	require.NoError(t, err)

	mock.ExpectPing()
	require.NoError(t, s.Ping(context.Background()))
	assert.NotNil(t, s.DB())
}
