// Package stats computes user activity counters from the host application's
// comment and report tables. Counts are queried at call time, never cached:
// achievement evaluation must see the event that just triggered it.
package stats

import (
	"context"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	"progresskit/core"
	"progresskit/engine"
)

// SQLProvider reads activity counters from the host's relational store. It
// expects `comments` and `reports` tables with `author_id` and `created_at`
// columns; both Postgres and MySQL accept the queries used here.
type SQLProvider struct {
	db  *sqlx.DB
	now func() time.Time
}

func NewSQLProvider(db *sqlx.DB) *SQLProvider {
	return &SQLProvider{db: db, now: func() time.Time { return time.Now().UTC() }}
}

func (p *SQLProvider) CommentCount(ctx context.Context, user core.UserID) (int64, error) {
	return p.count(ctx, "comments", user)
}

func (p *SQLProvider) ReportCount(ctx context.Context, user core.UserID) (int64, error) {
	return p.count(ctx, "reports", user)
}

func (p *SQLProvider) CommentStreakDays(ctx context.Context, user core.UserID) (int64, error) {
	return p.streak(ctx, "comments", user)
}

func (p *SQLProvider) ReportStreakDays(ctx context.Context, user core.UserID) (int64, error) {
	return p.streak(ctx, "reports", user)
}

func (p *SQLProvider) count(ctx context.Context, table string, user core.UserID) (int64, error) {
	var n int64
	query := p.db.Rebind(fmt.Sprintf(`SELECT COUNT(*) FROM %s WHERE author_id = ?`, table))
	if err := p.db.GetContext(ctx, &n, query, user); err != nil {
		return 0, fmt.Errorf("count %s: %w", table, err)
	}
	return n, nil
}

func (p *SQLProvider) streak(ctx context.Context, table string, user core.UserID) (int64, error) {
	var days []time.Time
	query := p.db.Rebind(fmt.Sprintf(
		`SELECT DISTINCT CAST(created_at AS DATE) AS day FROM %s WHERE author_id = ? ORDER BY day DESC`, table))
	if err := p.db.SelectContext(ctx, &days, query, user); err != nil {
		return 0, fmt.Errorf("streak %s: %w", table, err)
	}
	return ConsecutiveDays(days, p.now()), nil
}

// ConsecutiveDays counts the run of consecutive activity days ending today or
// yesterday. days must be distinct calendar days sorted descending. A run
// that already missed yesterday is a broken streak and counts as zero.
func ConsecutiveDays(days []time.Time, now time.Time) int64 {
	if len(days) == 0 {
		return 0
	}
	today := truncateDay(now)
	latest := truncateDay(days[0])

	// streak may still be alive if the last activity was yesterday
	if latest.Before(today.AddDate(0, 0, -1)) {
		return 0
	}

	streak := int64(1)
	prev := latest
	for _, d := range days[1:] {
		d = truncateDay(d)
		if !d.Equal(prev.AddDate(0, 0, -1)) {
			break
		}
		streak++
		prev = d
	}
	return streak
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.UTC().Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

// Static is a fixed-value provider for demos and tests.
type Static struct {
	Comments      int64
	CommentStreak int64
	Reports       int64
	ReportStreak  int64
	Err           error
}

func (s *Static) CommentCount(context.Context, core.UserID) (int64, error) {
	return s.Comments, s.Err
}
func (s *Static) CommentStreakDays(context.Context, core.UserID) (int64, error) {
	return s.CommentStreak, s.Err
}
func (s *Static) ReportCount(context.Context, core.UserID) (int64, error) {
	return s.Reports, s.Err
}
func (s *Static) ReportStreakDays(context.Context, core.UserID) (int64, error) {
	return s.ReportStreak, s.Err
}

var _ engine.StatsProvider = (*SQLProvider)(nil)
var _ engine.StatsProvider = (*Static)(nil)
