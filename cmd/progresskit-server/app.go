package main

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	libsqlx "github.com/jmoiron/sqlx"

	"progresskit/adapters/jsonfile"
	mem "progresskit/adapters/memory"
	redisAdapter "progresskit/adapters/redis"
	sqlxAdapter "progresskit/adapters/sqlx"
	"progresskit/analytics"
	"progresskit/api/httpapi"
	"progresskit/config"
	"progresskit/engine"
	"progresskit/integrations/webhook"
	"progresskit/progress"
	"progresskit/stats"
)

// App aggregates the assembled server components.
type App struct {
	Config  *config.Config
	Logger  *slog.Logger
	Service *engine.ProgressService
	Handler http.Handler
	Server  *http.Server
}

// ProgressStore is the combined persistence surface every adapter implements.
type ProgressStore interface {
	engine.StatsStore
	engine.AchievementStore
}

func provideConfig(ctx context.Context) (*config.Config, error) {
	return config.Load()
}

func provideLogger(cfg *config.Config) *slog.Logger {
	return setupLogging(cfg)
}

func provideStorage(ctx context.Context, cfg *config.Config) (ProgressStore, error) {
	return setupStorage(ctx, cfg)
}

func provideStatsProvider(cfg *config.Config) (engine.StatsProvider, error) {
	switch cfg.Stats.Source {
	case "sql":
		db, err := libsqlx.Connect(cfg.Stats.Driver, cfg.Stats.DSN)
		if err != nil {
			return nil, fmt.Errorf("connect stats source: %w", err)
		}
		return stats.NewSQLProvider(db), nil
	case "static":
		return &stats.Static{}, nil
	default:
		return nil, fmt.Errorf("unknown stats source: %s", cfg.Stats.Source)
	}
}

func provideService(cfg *config.Config, store ProgressStore, provider engine.StatsProvider, logger *slog.Logger) *engine.ProgressService {
	opts := []progress.Option{
		progress.WithStore(store),
		progress.WithStatsProvider(provider),
		progress.WithDispatchMode(engine.DispatchAsync),
		progress.WithLogger(logger),
	}
	var hooks []analytics.Hook
	if cfg.Metrics.Enabled {
		hooks = append(hooks, analytics.NewDAU(), analytics.NewProgressMetrics())
	}
	if len(cfg.Webhook.Endpoints) > 0 {
		hooks = append(hooks, webhook.New(cfg.Webhook.Endpoints, webhook.WithSecret(cfg.Webhook.Secret)))
	}
	if len(hooks) > 0 {
		opts = append(opts, progress.WithHooks(hooks...))
	}
	return progress.New(opts...)
}

func provideHandler(svc *engine.ProgressService, cfg *config.Config) http.Handler {
	return httpapi.NewMux(svc, httpapi.Options{
		PathPrefix:       cfg.Server.PathPrefix,
		AllowCORSOrigin:  cfg.Server.CORSOrigin,
		APIKeys:          cfg.Security.APIKeys,
		RateLimitEnabled: cfg.Security.EnableRateLimit,
		RateLimitRPM:     cfg.Security.RateLimit.RequestsPerMinute,
		RateLimitBurst:   cfg.Security.RateLimit.BurstSize,
	})
}

func provideServer(cfg *config.Config, handler http.Handler) *http.Server {
	return &http.Server{
		Addr:              cfg.Server.Address,
		Handler:           handler,
		ReadHeaderTimeout: cfg.Server.ReadHeaderTimeout,
		ReadTimeout:       cfg.Server.ReadTimeout,
		WriteTimeout:      cfg.Server.WriteTimeout,
		IdleTimeout:       cfg.Server.IdleTimeout,
	}
}

// setupLogging configures the logger based on configuration.
func setupLogging(cfg *config.Config) *slog.Logger {
	var handler slog.Handler

	opts := &slog.HandlerOptions{
		Level: parseLogLevel(cfg.Logging.Level),
	}

	out := os.Stdout
	if cfg.Logging.Output == "stderr" {
		out = os.Stderr
	}

	switch cfg.Logging.Format {
	case "text":
		handler = slog.NewTextHandler(out, opts)
	case "json":
		handler = slog.NewJSONHandler(out, opts)
	default:
		handler = slog.NewJSONHandler(out, opts)
	}

	if len(cfg.Logging.Attributes) > 0 {
		handler = handler.WithAttrs(convertAttributes(cfg.Logging.Attributes))
	}

	logger := slog.New(handler)
	slog.SetDefault(logger)
	return logger
}

// parseLogLevel converts string log level to slog.Level.
func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "info":
		return slog.LevelInfo
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// convertAttributes converts map[string]string to []slog.Attr.
func convertAttributes(attrs map[string]string) []slog.Attr {
	var result []slog.Attr
	for k, v := range attrs {
		result = append(result, slog.String(k, v))
	}
	return result
}

// setupStorage creates the appropriate storage adapter based on configuration.
func setupStorage(ctx context.Context, cfg *config.Config) (ProgressStore, error) {
	switch cfg.Storage.Adapter {
	case "memory":
		return mem.New(), nil
	case "redis":
		return redisAdapter.New(cfg.Storage.Redis)
	case "sql":
		store, err := sqlxAdapter.New(cfg.Storage.SQL)
		if err != nil {
			return nil, err
		}
		if err := store.Migrate(ctx); err != nil {
			return nil, err
		}
		return store, nil
	case "file":
		return jsonfile.New(cfg.Storage.File.Path)
	default:
		return nil, fmt.Errorf("unknown storage adapter: %s", cfg.Storage.Adapter)
	}
}
