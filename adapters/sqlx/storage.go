// Package sqlx backs the stats store and achievement ledger with a relational
// database through jmoiron/sqlx. Postgres and MySQL are supported; the
// (user_id, slug) primary key on user_achievements is what enforces
// at-most-once unlocking, via ON CONFLICT DO NOTHING / INSERT IGNORE.
package sqlx

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"

	// database drivers selected via Config.Driver
	_ "github.com/go-sql-driver/mysql"
	_ "github.com/lib/pq"

	"progresskit/core"
	"progresskit/engine"
)

// Driver selects the SQL dialect.
type Driver string

const (
	DriverPostgres Driver = "postgres"
	DriverMySQL    Driver = "mysql"
)

// Config holds SQL connection configuration.
type Config struct {
	Driver          Driver        `json:"driver"`
	DSN             string        `json:"dsn"`
	MaxOpenConns    int           `json:"max_open_conns"`
	MaxIdleConns    int           `json:"max_idle_conns"`
	ConnMaxLifetime time.Duration `json:"conn_max_lifetime"`
}

// DefaultConfig returns sensible defaults for the given driver.
func DefaultConfig(driver Driver) Config {
	return Config{
		Driver:          driver,
		DSN:             "",
		MaxOpenConns:    10,
		MaxIdleConns:    2,
		ConnMaxLifetime: 30 * time.Minute,
	}
}

// Store implements the stats store and achievement ledger on SQL.
// Schema:
//
//	user_stats        (user_id PK, xp, level, last_updated)
//	user_achievements (user_id, slug, unlocked_at, PRIMARY KEY (user_id, slug))
type Store struct {
	db     *sqlx.DB
	driver Driver
}

// New opens a connection pool and verifies it.
func New(cfg Config) (*Store, error) {
	db, err := sqlx.Connect(string(cfg.Driver), cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to %s: %w", cfg.Driver, err)
	}
	if cfg.MaxOpenConns > 0 {
		db.SetMaxOpenConns(cfg.MaxOpenConns)
	}
	if cfg.MaxIdleConns > 0 {
		db.SetMaxIdleConns(cfg.MaxIdleConns)
	}
	if cfg.ConnMaxLifetime > 0 {
		db.SetConnMaxLifetime(cfg.ConnMaxLifetime)
	}
	return &Store{db: db, driver: cfg.Driver}, nil
}

// NewWithDB wraps an existing database handle (useful for testing).
func NewWithDB(db *sqlx.DB, driver Driver) *Store {
	return &Store{db: db, driver: driver}
}

// Close closes the pool.
func (s *Store) Close() error { return s.db.Close() }

// Migrate creates the subsystem's two tables if they do not exist. The host
// application may run its own migrations instead; this is a convenience.
func (s *Store) Migrate(ctx context.Context) error {
	stmts := []string{
		`CREATE TABLE IF NOT EXISTS user_stats (
			user_id      VARCHAR(128) PRIMARY KEY,
			xp           BIGINT NOT NULL,
			level        BIGINT NOT NULL,
			last_updated TIMESTAMP NOT NULL
		)`,
		`CREATE TABLE IF NOT EXISTS user_achievements (
			user_id     VARCHAR(128) NOT NULL,
			slug        VARCHAR(128) NOT NULL,
			unlocked_at TIMESTAMP NOT NULL,
			PRIMARY KEY (user_id, slug)
		)`,
	}
	for _, stmt := range stmts {
		if _, err := s.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("migrate: %w", err)
		}
	}
	return nil
}

// GetStats returns the stats row; found is false when no row exists yet.
func (s *Store) GetStats(ctx context.Context, user core.UserID) (core.UserStats, bool, error) {
	var st core.UserStats
	query := s.db.Rebind(`SELECT user_id, xp, level, last_updated FROM user_stats WHERE user_id = ?`)
	err := s.db.GetContext(ctx, &st, query, user)
	if errors.Is(err, sql.ErrNoRows) {
		return core.UserStats{}, false, nil
	}
	if err != nil {
		return core.UserStats{}, false, fmt.Errorf("failed to get stats: %w", err)
	}
	return st, true, nil
}

// AddXP applies the delta inside a row-locking transaction and rewrites the
// derived level in the same transaction, so the xp/level pair is committed
// together or not at all.
func (s *Store) AddXP(ctx context.Context, user core.UserID, delta int64) (core.UserStats, error) {
	now := time.Now().UTC()

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return core.UserStats{}, fmt.Errorf("failed to begin tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var current int64
	query := tx.Rebind(`SELECT xp FROM user_stats WHERE user_id = ? FOR UPDATE`)
	err = tx.GetContext(ctx, &current, query, user)

	var newXP int64
	switch {
	case errors.Is(err, sql.ErrNoRows):
		newXP = delta
		insert := tx.Rebind(`INSERT INTO user_stats (user_id, xp, level, last_updated) VALUES (?, ?, ?, ?)`)
		if _, err := tx.ExecContext(ctx, insert, user, newXP, core.CalculateLevel(newXP), now); err != nil {
			return core.UserStats{}, fmt.Errorf("failed to insert stats: %w", err)
		}
	case err != nil:
		return core.UserStats{}, fmt.Errorf("failed to read stats: %w", err)
	default:
		newXP, err = core.AddSafe(current, delta)
		if err != nil {
			return core.UserStats{}, err
		}
		update := tx.Rebind(`UPDATE user_stats SET xp = ?, level = ?, last_updated = ? WHERE user_id = ?`)
		if _, err := tx.ExecContext(ctx, update, newXP, core.CalculateLevel(newXP), now, user); err != nil {
			return core.UserStats{}, fmt.Errorf("failed to update stats: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return core.UserStats{}, fmt.Errorf("failed to commit: %w", err)
	}
	return core.UserStats{UserID: user, XP: newXP, Level: core.CalculateLevel(newXP), LastUpdated: now}, nil
}

// RecordUnlock inserts the record if absent, relying on the composite primary
// key rather than a pre-read, so concurrent duplicates collapse at the
// database.
func (s *Store) RecordUnlock(ctx context.Context, user core.UserID, slug core.Slug, at time.Time) (bool, error) {
	var query string
	switch s.driver {
	case DriverMySQL:
		query = `INSERT IGNORE INTO user_achievements (user_id, slug, unlocked_at) VALUES (?, ?, ?)`
	default:
		query = s.db.Rebind(`INSERT INTO user_achievements (user_id, slug, unlocked_at) VALUES (?, ?, ?) ON CONFLICT (user_id, slug) DO NOTHING`)
	}
	res, err := s.db.ExecContext(ctx, query, user, slug, at)
	if err != nil {
		return false, fmt.Errorf("failed to record unlock: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("failed to read rows affected: %w", err)
	}
	return n == 1, nil
}

// UnlockedSlugs lists the user's achievement slugs in unlock order.
func (s *Store) UnlockedSlugs(ctx context.Context, user core.UserID) ([]core.Slug, error) {
	var slugs []core.Slug
	query := s.db.Rebind(`SELECT slug FROM user_achievements WHERE user_id = ? ORDER BY unlocked_at, slug`)
	if err := s.db.SelectContext(ctx, &slugs, query, user); err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	return slugs, nil
}

// Achievements returns the full unlock history.
func (s *Store) Achievements(ctx context.Context, user core.UserID) ([]core.AchievementRecord, error) {
	var recs []core.AchievementRecord
	query := s.db.Rebind(`SELECT user_id, slug, unlocked_at FROM user_achievements WHERE user_id = ? ORDER BY unlocked_at, slug`)
	if err := s.db.SelectContext(ctx, &recs, query, user); err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	return recs, nil
}

var _ engine.StatsStore = (*Store)(nil)
var _ engine.AchievementStore = (*Store)(nil)
