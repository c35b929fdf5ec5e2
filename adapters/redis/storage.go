package redis

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"progresskit/core"
	"progresskit/engine"

	"github.com/redis/go-redis/v9"
)

// Config holds Redis connection configuration
type Config struct {
	Addr         string
	Password     string
	DB           int
	PoolSize     int
	MinIdleConns int
	DialTimeout  time.Duration
	ReadTimeout  time.Duration
	WriteTimeout time.Duration
}

// DefaultConfig returns sensible defaults for Redis configuration
func DefaultConfig() Config {
	return Config{
		Addr:         "localhost:6379",
		Password:     "",
		DB:           0,
		PoolSize:     10,
		MinIdleConns: 2,
		DialTimeout:  5 * time.Second,
		ReadTimeout:  3 * time.Second,
		WriteTimeout: 3 * time.Second,
	}
}

// Store implements the stats store and achievement ledger on Redis.
// Data structure:
// - user:{user_id}:stats -> hash {xp, level, updated}
// - user:{user_id}:achievements -> sorted set, member=slug score=unlock unix time
//
// The achievements zset gives the (user, slug) uniqueness the evaluator
// relies on: ZADD NX either inserts the member or reports it already present.
type Store struct {
	client *redis.Client
}

// New creates a Redis-backed store with the provided configuration
func New(config Config) (*Store, error) {
	client := redis.NewClient(&redis.Options{
		Addr:         config.Addr,
		Password:     config.Password,
		DB:           config.DB,
		PoolSize:     config.PoolSize,
		MinIdleConns: config.MinIdleConns,
		DialTimeout:  config.DialTimeout,
		ReadTimeout:  config.ReadTimeout,
		WriteTimeout: config.WriteTimeout,
	})

	// Test connection
	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	if err := client.Ping(ctx).Err(); err != nil {
		return nil, fmt.Errorf("failed to connect to Redis: %w", err)
	}

	return &Store{client: client}, nil
}

// NewWithClient creates a Store using an existing Redis client (useful for testing)
func NewWithClient(client *redis.Client) *Store {
	return &Store{client: client}
}

// Close closes the Redis connection
func (s *Store) Close() error {
	return s.client.Close()
}

func userStatsKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:stats", userID)
}

func userAchievementsKey(userID core.UserID) string {
	return fmt.Sprintf("user:%s:achievements", userID)
}

// addXPScript applies the delta and recomputes the stored level in one atomic
// step, so readers never see a mismatched xp/level pair. The level formula
// mirrors core.CalculateLevel.
var addXPScript = redis.NewScript(`
	local key = KEYS[1]
	local delta = tonumber(ARGV[1])
	local now = ARGV[2]
	local current = tonumber(redis.call('HGET', key, 'xp') or '0')
	local next_xp = current + delta

	if next_xp > 9223372036854775807 or next_xp < -9223372036854775808 then
		return redis.error_reply('integer overflow')
	end

	local level = 1
	if next_xp > 0 then
		level = math.floor(math.sqrt(next_xp) / 10) + 1
	end

	redis.call('HSET', key, 'xp', next_xp, 'level', level, 'updated', now)
	return {next_xp, level}
`)

// AddXP atomically increments a user's XP and rewrites the derived level.
func (s *Store) AddXP(ctx context.Context, userID core.UserID, delta int64) (core.UserStats, error) {
	now := time.Now().UTC()
	result, err := addXPScript.Run(ctx, s.client, []string{userStatsKey(userID)}, delta, now.Format(time.RFC3339Nano)).Result()
	if err != nil {
		return core.UserStats{}, fmt.Errorf("failed to add xp: %w", err)
	}

	vals, ok := result.([]interface{})
	if !ok || len(vals) != 2 {
		return core.UserStats{}, errors.New("unexpected result type from Redis script")
	}
	xp, ok1 := vals[0].(int64)
	level, ok2 := vals[1].(int64)
	if !ok1 || !ok2 {
		return core.UserStats{}, errors.New("unexpected result type from Redis script")
	}

	return core.UserStats{UserID: userID, XP: xp, Level: level, LastUpdated: now}, nil
}

// GetStats retrieves a user's stats row; found is false when the hash is absent.
func (s *Store) GetStats(ctx context.Context, userID core.UserID) (core.UserStats, bool, error) {
	fields, err := s.client.HGetAll(ctx, userStatsKey(userID)).Result()
	if err != nil {
		return core.UserStats{}, false, fmt.Errorf("failed to get stats: %w", err)
	}
	if len(fields) == 0 {
		return core.UserStats{}, false, nil
	}

	xp, err := strconv.ParseInt(fields["xp"], 10, 64)
	if err != nil {
		return core.UserStats{}, false, fmt.Errorf("corrupt xp field: %w", err)
	}
	level, err := strconv.ParseInt(fields["level"], 10, 64)
	if err != nil {
		return core.UserStats{}, false, fmt.Errorf("corrupt level field: %w", err)
	}
	updated, _ := time.Parse(time.RFC3339Nano, fields["updated"])

	return core.UserStats{UserID: userID, XP: xp, Level: level, LastUpdated: updated}, true, nil
}

// RecordUnlock inserts the slug into the user's achievement zset if absent.
// ZADD NX reports whether the member was actually added, which is exactly the
// insert-if-absent primitive the evaluator needs under concurrency.
func (s *Store) RecordUnlock(ctx context.Context, userID core.UserID, slug core.Slug, at time.Time) (bool, error) {
	added, err := s.client.ZAddNX(ctx, userAchievementsKey(userID), redis.Z{
		Score:  float64(at.Unix()),
		Member: string(slug),
	}).Result()
	if err != nil {
		return false, fmt.Errorf("failed to record unlock: %w", err)
	}
	return added == 1, nil
}

// UnlockedSlugs lists the user's achievement slugs in unlock-time order.
func (s *Store) UnlockedSlugs(ctx context.Context, userID core.UserID) ([]core.Slug, error) {
	members, err := s.client.ZRange(ctx, userAchievementsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list unlocks: %w", err)
	}
	slugs := make([]core.Slug, len(members))
	for i, m := range members {
		slugs[i] = core.Slug(m)
	}
	return slugs, nil
}

// Achievements returns the full unlock history with timestamps.
func (s *Store) Achievements(ctx context.Context, userID core.UserID) ([]core.AchievementRecord, error) {
	entries, err := s.client.ZRangeWithScores(ctx, userAchievementsKey(userID), 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list achievements: %w", err)
	}
	recs := make([]core.AchievementRecord, 0, len(entries))
	for _, e := range entries {
		member, ok := e.Member.(string)
		if !ok {
			continue
		}
		recs = append(recs, core.AchievementRecord{
			UserID:     userID,
			Slug:       core.Slug(member),
			UnlockedAt: time.Unix(int64(e.Score), 0).UTC(),
		})
	}
	return recs, nil
}

var _ engine.StatsStore = (*Store)(nil)
var _ engine.AchievementStore = (*Store)(nil)
