package sqlx_test

import (
	"context"
	"database/sql"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	storage "progresskit/adapters/sqlx"
	"progresskit/core"
)

func newMockStore(t *testing.T) (*storage.Store, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	xdb := storage.NewWithDB(libsqlx.NewDb(db, "postgres"), storage.DriverPostgres)
	cleanup := func() {
		_ = db.Close()
	}
	return xdb, mock, cleanup
}

func TestSQLMock_AddXP_Insert(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	user := core.UserID("u1")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT xp FROM user_stats`).
		WithArgs(user).
		WillReturnError(sql.ErrNoRows)
	mock.ExpectExec(`INSERT INTO user_stats`).
		WithArgs(user, int64(10), int64(1), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	st, err := store.AddXP(ctx, user, 10)
	require.NoError(t, err)
	require.Equal(t, int64(10), st.XP)
	require.Equal(t, int64(1), st.Level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_AddXP_Update(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	user := core.UserID("u1")

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT xp FROM user_stats`).
		WithArgs(user).
		WillReturnRows(sqlmock.NewRows([]string{"xp"}).AddRow(90))
	mock.ExpectExec(`UPDATE user_stats SET xp`).
		WithArgs(int64(100), int64(2), sqlmock.AnyArg(), user).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	st, err := store.AddXP(ctx, user, 10)
	require.NoError(t, err)
	require.Equal(t, int64(100), st.XP)
	require.Equal(t, int64(2), st.Level, "crossing 100 xp reaches level 2")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetStats(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	user := core.UserID("u1")
	updated := time.Date(2026, 3, 1, 9, 0, 0, 0, time.UTC)

	mock.ExpectQuery(`SELECT user_id, xp, level, last_updated FROM user_stats`).
		WithArgs(user).
		WillReturnRows(sqlmock.NewRows([]string{"user_id", "xp", "level", "last_updated"}).
			AddRow("u1", 250, 2, updated))

	st, found, err := store.GetStats(ctx, user)
	require.NoError(t, err)
	require.True(t, found)
	require.Equal(t, int64(250), st.XP)
	require.Equal(t, int64(2), st.Level)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_GetStats_NoRow(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT user_id, xp, level, last_updated FROM user_stats`).
		WithArgs(core.UserID("ghost")).
		WillReturnError(sql.ErrNoRows)

	_, found, err := store.GetStats(context.Background(), "ghost")
	require.NoError(t, err)
	require.False(t, found)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_RecordUnlock(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	ctx := context.Background()
	user := core.UserID("u1")
	slug := core.Slug("first_comment")

	mock.ExpectExec(`INSERT INTO user_achievements`).
		WithArgs(user, slug, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	inserted, err := store.RecordUnlock(ctx, user, slug, time.Now().UTC())
	require.NoError(t, err)
	require.True(t, inserted)

	// conflicting insert reports zero rows affected
	mock.ExpectExec(`INSERT INTO user_achievements`).
		WithArgs(user, slug, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	inserted, err = store.RecordUnlock(ctx, user, slug, time.Now().UTC())
	require.NoError(t, err)
	require.False(t, inserted, "duplicate must be treated as already unlocked")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLMock_UnlockedSlugs(t *testing.T) {
	store, mock, cleanup := newMockStore(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT slug FROM user_achievements`).
		WithArgs(core.UserID("u1")).
		WillReturnRows(sqlmock.NewRows([]string{"slug"}).
			AddRow("first_comment").
			AddRow("conversation_starter"))

	slugs, err := store.UnlockedSlugs(context.Background(), "u1")
	require.NoError(t, err)
	require.Equal(t, []core.Slug{"first_comment", "conversation_starter"}, slugs)
	require.NoError(t, mock.ExpectationsWereMet())
}
