package memory

import (
	"context"
	"sync"
	"time"

	"progresskit/core"
	"progresskit/engine"
)

// Store is a concurrent in-memory implementation of both the stats store and
// the achievement ledger. Suitable for tests and demos.
type Store struct {
	users sync.Map // map[core.UserID]*userRecord
}

type userRecord struct {
	mu       sync.Mutex
	hasStats bool
	stats    core.UserStats
	unlocked map[core.Slug]time.Time
	order    []core.Slug // unlock order, for deterministic listings
}

func New() *Store { return &Store{} }

func (s *Store) getOrCreate(user core.UserID) *userRecord {
	if v, ok := s.users.Load(user); ok {
		return v.(*userRecord)
	}
	rec := &userRecord{unlocked: map[core.Slug]time.Time{}}
	actual, _ := s.users.LoadOrStore(user, rec)
	return actual.(*userRecord)
}

func (s *Store) GetStats(_ context.Context, user core.UserID) (core.UserStats, bool, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.hasStats {
		return core.UserStats{}, false, nil
	}
	return rec.stats, true, nil
}

func (s *Store) AddXP(_ context.Context, user core.UserID, delta int64) (core.UserStats, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if !rec.hasStats {
		rec.stats = core.UserStats{UserID: user}
		rec.hasStats = true
	}
	next, err := core.AddSafe(rec.stats.XP, delta)
	if err != nil {
		return core.UserStats{}, err
	}
	rec.stats.XP = next
	rec.stats.Level = core.CalculateLevel(next)
	rec.stats.LastUpdated = time.Now().UTC()
	return rec.stats, nil
}

func (s *Store) UnlockedSlugs(_ context.Context, user core.UserID) ([]core.Slug, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]core.Slug, len(rec.order))
	copy(out, rec.order)
	return out, nil
}

func (s *Store) RecordUnlock(_ context.Context, user core.UserID, slug core.Slug, at time.Time) (bool, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	if _, exists := rec.unlocked[slug]; exists {
		return false, nil
	}
	rec.unlocked[slug] = at
	rec.order = append(rec.order, slug)
	return true, nil
}

func (s *Store) Achievements(_ context.Context, user core.UserID) ([]core.AchievementRecord, error) {
	rec := s.getOrCreate(user)
	rec.mu.Lock()
	defer rec.mu.Unlock()
	out := make([]core.AchievementRecord, 0, len(rec.order))
	for _, slug := range rec.order {
		out = append(out, core.AchievementRecord{UserID: user, Slug: slug, UnlockedAt: rec.unlocked[slug]})
	}
	return out, nil
}

var _ engine.StatsStore = (*Store)(nil)
var _ engine.AchievementStore = (*Store)(nil)
