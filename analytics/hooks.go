package analytics

import (
	"sync"

	"progresskit/core"
)

// Hook receives domain events for KPI aggregation.
type Hook interface {
	OnEvent(e core.Event)
}

// Bridge fans one event stream out to multiple hooks.
type Bridge struct{ hooks []Hook }

func NewBridge(hooks ...Hook) *Bridge { return &Bridge{hooks: hooks} }

func (b *Bridge) OnEvent(e core.Event) {
	for _, h := range b.hooks {
		h.OnEvent(e)
	}
}

// DAU tracks daily active users.
type DAU struct {
	mu   sync.Mutex
	days map[string]map[core.UserID]struct{}
}

func NewDAU() *DAU { return &DAU{days: map[string]map[core.UserID]struct{}{}} }

func (d *DAU) OnEvent(e core.Event) {
	day := e.Time.UTC().Format("2006-01-02")
	d.mu.Lock()
	defer d.mu.Unlock()
	m := d.days[day]
	if m == nil {
		m = map[core.UserID]struct{}{}
		d.days[day] = m
	}
	m[e.UserID] = struct{}{}
}

func (d *DAU) Count(day string) int {
	d.mu.Lock()
	defer d.mu.Unlock()
	return len(d.days[day])
}

// ProgressMetrics aggregates XP, level-up, and unlock activity for reporting
// dashboards. All counters are in-process; persistence is out of scope.
type ProgressMetrics struct {
	mu sync.RWMutex

	xpAwardedByDay    map[string]int64
	xpAwardedByAction map[core.ActionKind]int64

	levelUpsByDay     map[string]int64
	levelDistribution map[int64]int

	unlocksByDay  map[string]int64
	unlocksBySlug map[core.Slug]int64
	holdersBySlug map[core.Slug]map[core.UserID]struct{}
}

func NewProgressMetrics() *ProgressMetrics {
	return &ProgressMetrics{
		xpAwardedByDay:    make(map[string]int64),
		xpAwardedByAction: make(map[core.ActionKind]int64),
		levelUpsByDay:     make(map[string]int64),
		levelDistribution: make(map[int64]int),
		unlocksByDay:      make(map[string]int64),
		unlocksBySlug:     make(map[core.Slug]int64),
		holdersBySlug:     make(map[core.Slug]map[core.UserID]struct{}),
	}
}

func (m *ProgressMetrics) OnEvent(e core.Event) {
	m.mu.Lock()
	defer m.mu.Unlock()

	day := e.Time.UTC().Format("2006-01-02")
	switch e.Type {
	case core.EventXPAdded:
		if e.Delta > 0 {
			m.xpAwardedByDay[day] += e.Delta
			m.xpAwardedByAction[e.Action] += e.Delta
		}
	case core.EventLevelUp:
		m.levelUpsByDay[day]++
		m.levelDistribution[e.Level]++
	case core.EventAchievementUnlocked:
		m.unlocksByDay[day]++
		m.unlocksBySlug[e.Slug]++
		if m.holdersBySlug[e.Slug] == nil {
			m.holdersBySlug[e.Slug] = make(map[core.UserID]struct{})
		}
		m.holdersBySlug[e.Slug][e.UserID] = struct{}{}
	}
}

// XPAwardedByDay returns total XP awarded on a day (2006-01-02 format).
func (m *ProgressMetrics) XPAwardedByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.xpAwardedByDay[day]
}

// XPAwardedByAction returns total XP awarded for an action kind.
func (m *ProgressMetrics) XPAwardedByAction(kind core.ActionKind) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.xpAwardedByAction[kind]
}

// LevelUpsByDay returns the number of level-ups observed on a day.
func (m *ProgressMetrics) LevelUpsByDay(day string) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.levelUpsByDay[day]
}

// UnlocksBySlug returns how many times an achievement was unlocked.
func (m *ProgressMetrics) UnlocksBySlug(slug core.Slug) int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.unlocksBySlug[slug]
}

// UniqueHolders returns how many distinct users hold an achievement.
func (m *ProgressMetrics) UniqueHolders(slug core.Slug) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.holdersBySlug[slug])
}

// Snapshot returns aggregate totals for reporting.
func (m *ProgressMetrics) Snapshot() map[string]int64 {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var totalXP, totalLevelUps, totalUnlocks int64
	for _, v := range m.xpAwardedByDay {
		totalXP += v
	}
	for _, v := range m.levelUpsByDay {
		totalLevelUps += v
	}
	for _, v := range m.unlocksByDay {
		totalUnlocks += v
	}
	return map[string]int64{
		"total_xp_awarded": totalXP,
		"total_level_ups":  totalLevelUps,
		"total_unlocks":    totalUnlocks,
	}
}
