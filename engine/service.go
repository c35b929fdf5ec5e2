package engine

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"progresskit/core"
	"progresskit/rules"
)

// ProgressService wires the stats store, achievement ledger, statistics
// provider, and rule catalog into the API consumed by the host application's
// CRUD actions. It runs strictly after the primary action has committed and
// never fails that action: XP accounting errors propagate to the caller,
// achievement evaluation degrades to an empty result plus a log entry.
type ProgressService struct {
	stats    StatsStore
	ledger   AchievementStore
	provider StatsProvider
	catalog  *rules.Catalog
	bus      *EventBus
	logger   *slog.Logger
	now      func() time.Time
}

func NewProgressService(stats StatsStore, ledger AchievementStore, provider StatsProvider, catalog *rules.Catalog, bus *EventBus, logger *slog.Logger) *ProgressService {
	if stats == nil || ledger == nil || provider == nil || catalog == nil || bus == nil {
		panic("NewProgressService requires non-nil stats, ledger, provider, catalog, and bus")
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &ProgressService{
		stats:    stats,
		ledger:   ledger,
		provider: provider,
		catalog:  catalog,
		bus:      bus,
		logger:   logger,
		now:      func() time.Time { return time.Now().UTC() },
	}
}

// Subscribe convenience method.
func (s *ProgressService) Subscribe(typ core.EventType, handler func(context.Context, core.Event)) func() {
	return s.bus.Subscribe(typ, handler)
}

func (s *ProgressService) Publish(ctx context.Context, ev core.Event) {
	s.bus.Publish(ctx, ev)
}

// AddXP credits the fixed delta for an action, detects level-up, then runs
// achievement evaluation for the action's trigger. The increment happens at
// the storage layer, so two concurrent calls for the same user cannot lose
// an update. Evaluation failures are swallowed into an empty unlock set.
func (s *ProgressService) AddXP(ctx context.Context, user core.UserID, kind core.ActionKind) (core.XPResult, error) {
	delta, err := core.XPForAction(kind)
	if err != nil {
		return core.XPResult{}, err
	}
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.XPResult{}, err
	}

	st, err := s.stats.AddXP(ctx, normalized, delta)
	if err != nil {
		return core.XPResult{}, fmt.Errorf("%w: %v", core.ErrStatsWrite, err)
	}
	prevLevel := core.CalculateLevel(st.XP - delta)
	res := core.XPResult{
		NewXP:         st.XP,
		NewLevel:      st.Level,
		LevelUp:       st.Level > prevLevel,
		XPToNextLevel: core.XPToNextLevel(st.XP),
	}
	s.bus.Publish(ctx, core.NewXPAdded(normalized, kind, delta, st.XP))
	if res.LevelUp {
		s.bus.Publish(ctx, core.NewLevelUp(normalized, st.Level, st.XP))
	}

	trigger, err := core.TriggerForAction(kind)
	if err != nil {
		return core.XPResult{}, err
	}
	tctx, err := s.BuildTriggerContext(ctx, normalized, trigger)
	if err != nil {
		s.logger.Warn("skipping achievement evaluation",
			"user", normalized, "trigger", trigger, "error", err)
		return res, nil
	}
	unlocked, err := s.CheckAchievements(ctx, normalized, trigger, tctx)
	if err != nil {
		s.logger.Warn("achievement evaluation failed",
			"user", normalized, "trigger", trigger, "error", err)
		return res, nil
	}
	res.Unlocked = unlocked
	return res, nil
}

// CheckAchievements evaluates every not-yet-unlocked rule bound to trigger
// and persists the ones whose conditions hold. A rule whose condition panics
// is logged and treated as not met; remaining rules still run. The returned
// slugs are only those this call actually inserted, so a concurrent duplicate
// collapses silently on the store's insert-if-absent primitive.
func (s *ProgressService) CheckAchievements(ctx context.Context, user core.UserID, trigger core.Trigger, tctx core.TriggerContext) ([]core.Slug, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	if !trigger.Valid() {
		return nil, fmt.Errorf("unknown trigger %q", trigger)
	}

	held, err := s.ledger.UnlockedSlugs(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAchievementLookup, err)
	}
	heldSet := make(map[core.Slug]struct{}, len(held))
	for _, sl := range held {
		heldSet[sl] = struct{}{}
	}

	var newly []core.Slug
	for _, r := range s.catalog.ByTrigger(trigger) {
		if _, ok := heldSet[r.Slug]; ok {
			continue
		}
		if !s.conditionMet(r, tctx) {
			continue
		}
		inserted, err := s.ledger.RecordUnlock(ctx, normalized, r.Slug, s.now())
		if err != nil {
			return newly, fmt.Errorf("%w: %v", core.ErrAchievementPersist, err)
		}
		if !inserted {
			// a concurrent call won the race; not an error
			continue
		}
		newly = append(newly, r.Slug)
		s.bus.Publish(ctx, core.NewAchievementUnlocked(normalized, r.Slug))
	}
	return newly, nil
}

func (s *ProgressService) conditionMet(r rules.Rule, tctx core.TriggerContext) (met bool) {
	defer func() {
		if rec := recover(); rec != nil {
			s.logger.Error("rule condition panicked", "slug", r.Slug, "panic", rec)
			met = false
		}
	}()
	return r.Condition(tctx)
}

// BuildTriggerContext computes the statistics relevant to a trigger from the
// provider. Counts are read fresh on every call so the triggering event is
// always visible to conditions. Any provider failure wraps
// core.ErrStatsUnavailable.
func (s *ProgressService) BuildTriggerContext(ctx context.Context, user core.UserID, trigger core.Trigger) (core.TriggerContext, error) {
	type statFn struct {
		name string
		fn   func(context.Context, core.UserID) (int64, error)
	}
	var fns []statFn
	switch trigger {
	case core.TriggerComment:
		fns = []statFn{
			{core.StatTotalComments, s.provider.CommentCount},
			{core.StatCommentStreakDays, s.provider.CommentStreakDays},
		}
	case core.TriggerReport:
		fns = []statFn{
			{core.StatTotalReports, s.provider.ReportCount},
			{core.StatReportStreakDays, s.provider.ReportStreakDays},
		}
	default:
		return nil, fmt.Errorf("unknown trigger %q", trigger)
	}

	tctx := core.TriggerContext{}
	for _, f := range fns {
		n, err := f.fn(ctx, user)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: %v", core.ErrStatsUnavailable, f.name, err)
		}
		tctx[f.name] = n
	}
	return tctx, nil
}

// GetStats returns the user's stats row, or a synthetic zero row for users
// who have not earned XP yet.
func (s *ProgressService) GetStats(ctx context.Context, user core.UserID) (core.UserStats, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return core.UserStats{}, err
	}
	st, found, err := s.stats.GetStats(ctx, normalized)
	if err != nil {
		return core.UserStats{}, fmt.Errorf("%w: %v", core.ErrStatsRead, err)
	}
	if !found {
		return core.UserStats{UserID: normalized, XP: 0, Level: core.CalculateLevel(0)}, nil
	}
	return st, nil
}

// Achievements returns the user's unlock history.
func (s *ProgressService) Achievements(ctx context.Context, user core.UserID) ([]core.AchievementRecord, error) {
	normalized, err := core.NormalizeUserID(user)
	if err != nil {
		return nil, err
	}
	recs, err := s.ledger.Achievements(ctx, normalized)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", core.ErrAchievementLookup, err)
	}
	return recs, nil
}

// AchievementDetails resolves slugs to display metadata; unknown slugs are
// omitted.
func (s *ProgressService) AchievementDetails(slugs []core.Slug) []core.AchievementDetail {
	return s.catalog.Details(slugs)
}

// Catalog exposes the rule catalog for read-only use (e.g., listing all
// achievements in an API).
func (s *ProgressService) Catalog() *rules.Catalog { return s.catalog }

func (s *ProgressService) Close() { s.bus.Close() }
