package engine

import (
	"context"
	"time"

	"progresskit/core"
)

// StatsStore persists per-user cumulative XP. The stats row and the
// achievement ledger are deliberately separate interfaces: deployments back
// them with different stores, and an adapter may implement both.
type StatsStore interface {
	// GetStats returns the user's stats row. found is false when the row has
	// not been created yet; the caller treats that as xp 0, level 1.
	GetStats(ctx context.Context, user core.UserID) (stats core.UserStats, found bool, err error)

	// AddXP applies delta as an atomic increment-or-insert and returns the
	// updated row. The stored level is recomputed from the new total inside
	// the same write, so a reader never observes a mismatched xp/level pair.
	AddXP(ctx context.Context, user core.UserID, delta int64) (core.UserStats, error)
}

// AchievementStore is the append-only unlock ledger. Uniqueness of
// (user, slug) is the store's responsibility, not the caller's: RecordUnlock
// must behave as insert-if-absent so concurrent duplicate unlocks collapse.
type AchievementStore interface {
	// UnlockedSlugs lists the slugs already held by the user.
	UnlockedSlugs(ctx context.Context, user core.UserID) ([]core.Slug, error)

	// RecordUnlock inserts the record if absent. inserted is false when the
	// pair already existed, which is not an error.
	RecordUnlock(ctx context.Context, user core.UserID, slug core.Slug, at time.Time) (inserted bool, err error)

	// Achievements returns the user's full unlock history.
	Achievements(ctx context.Context, user core.UserID) ([]core.AchievementRecord, error)
}

// StatsProvider computes user activity counters from the host application's
// report/comment stores. Results are never cached here: rule evaluation must
// see the event that just triggered it.
type StatsProvider interface {
	CommentCount(ctx context.Context, user core.UserID) (int64, error)
	CommentStreakDays(ctx context.Context, user core.UserID) (int64, error)
	ReportCount(ctx context.Context, user core.UserID) (int64, error)
	ReportStreakDays(ctx context.Context, user core.UserID) (int64, error)
}
