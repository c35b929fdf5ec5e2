package stats

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	libsqlx "github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func day(s string) time.Time {
	t, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return t
}

func TestConsecutiveDays(t *testing.T) {
	now := day("2026-08-31").Add(15 * time.Hour)

	tests := []struct {
		name string
		days []string
		want int64
	}{
		{"no activity", nil, 0},
		{"only today", []string{"2026-08-31"}, 1},
		{"ends yesterday, still alive", []string{"2026-08-30", "2026-08-29"}, 2},
		{"week-long run", []string{"2026-08-31", "2026-08-30", "2026-08-29", "2026-08-28", "2026-08-27", "2026-08-26", "2026-08-25"}, 7},
		{"gap breaks the run", []string{"2026-08-31", "2026-08-30", "2026-08-28"}, 2},
		{"stale activity", []string{"2026-08-20"}, 0},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			days := make([]time.Time, len(tc.days))
			for i, d := range tc.days {
				days[i] = day(d)
			}
			assert.Equal(t, tc.want, ConsecutiveDays(days, now))
		})
	}
}

func newMockProvider(t *testing.T) (*SQLProvider, sqlmock.Sqlmock, func()) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	p := NewSQLProvider(libsqlx.NewDb(db, "postgres"))
	return p, mock, func() { _ = db.Close() }
}

func TestSQLProviderCounts(t *testing.T) {
	p, mock, cleanup := newMockProvider(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(12))

	n, err := p.CommentCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(12), n)

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM reports`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(3))

	n, err = p.ReportCount(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(3), n)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLProviderStreak(t *testing.T) {
	p, mock, cleanup := newMockProvider(t)
	defer cleanup()
	p.now = func() time.Time { return day("2026-08-31").Add(10 * time.Hour) }

	mock.ExpectQuery(`SELECT DISTINCT CAST\(created_at AS DATE\) AS day FROM comments`).
		WithArgs("u1").
		WillReturnRows(sqlmock.NewRows([]string{"day"}).
			AddRow(day("2026-08-31")).
			AddRow(day("2026-08-30")).
			AddRow(day("2026-08-28")))

	n, err := p.CommentStreakDays(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, int64(2), n, "gap on the 29th ends the run")
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestSQLProviderUnavailable(t *testing.T) {
	p, mock, cleanup := newMockProvider(t)
	defer cleanup()

	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM comments`).
		WithArgs("u1").
		WillReturnError(context.DeadlineExceeded)

	_, err := p.CommentCount(context.Background(), "u1")
	require.Error(t, err)
}
