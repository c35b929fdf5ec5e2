// Package progress is the embedding facade: it assembles a ProgressService
// from options with sensible in-memory defaults so host applications can
// start with a one-liner and swap adapters in production.
package progress

import (
	"context"
	"log/slog"

	"progresskit/adapters/memory"
	"progresskit/analytics"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/rules"
	"progresskit/stats"
)

// Option configures the service builder.
type Option func(*config)

type config struct {
	stats    engine.StatsStore
	ledger   engine.AchievementStore
	provider engine.StatsProvider
	catalog  *rules.Catalog
	mode     engine.DispatchMode
	logger   *slog.Logger
	hooks    []analytics.Hook
}

// WithStatsStore sets the XP persistence adapter.
func WithStatsStore(s engine.StatsStore) Option { return func(c *config) { c.stats = s } }

// WithAchievementStore sets the unlock ledger adapter.
func WithAchievementStore(s engine.AchievementStore) Option { return func(c *config) { c.ledger = s } }

// WithStore sets one adapter for both stores. Most adapters implement both.
func WithStore(s interface {
	engine.StatsStore
	engine.AchievementStore
}) Option {
	return func(c *config) {
		c.stats = s
		c.ledger = s
	}
}

// WithStatsProvider sets the activity counter source.
func WithStatsProvider(p engine.StatsProvider) Option { return func(c *config) { c.provider = p } }

// WithCatalog sets the achievement rule catalog.
func WithCatalog(cat *rules.Catalog) Option { return func(c *config) { c.catalog = cat } }

// WithDispatchMode selects sync or async event dispatch.
func WithDispatchMode(m engine.DispatchMode) Option { return func(c *config) { c.mode = m } }

// WithLogger sets the structured logger.
func WithLogger(l *slog.Logger) Option { return func(c *config) { c.logger = l } }

// WithHooks subscribes analytics hooks to every domain event.
func WithHooks(hooks ...analytics.Hook) Option {
	return func(c *config) { c.hooks = append(c.hooks, hooks...) }
}

// New builds a configured ProgressService. Defaults when not provided:
//   - storage: in-memory (both stores)
//   - provider: zero-valued static counters
//   - catalog: rules.Default()
//   - dispatch: async
func New(opts ...Option) *engine.ProgressService {
	cfg := &config{mode: engine.DispatchAsync}
	for _, o := range opts {
		o(cfg)
	}
	if cfg.stats == nil || cfg.ledger == nil {
		mem := memory.New()
		if cfg.stats == nil {
			cfg.stats = mem
		}
		if cfg.ledger == nil {
			cfg.ledger = mem
		}
	}
	if cfg.provider == nil {
		cfg.provider = &stats.Static{}
	}
	if cfg.catalog == nil {
		cfg.catalog = rules.Default()
	}

	bus := engine.NewEventBus(cfg.mode)
	svc := engine.NewProgressService(cfg.stats, cfg.ledger, cfg.provider, cfg.catalog, bus, cfg.logger)
	if len(cfg.hooks) > 0 {
		bridge := analytics.NewBridge(cfg.hooks...)
		for _, typ := range []core.EventType{core.EventXPAdded, core.EventLevelUp, core.EventAchievementUnlocked} {
			bus.Subscribe(typ, func(_ context.Context, e core.Event) { bridge.OnEvent(e) })
		}
	}
	return svc
}
