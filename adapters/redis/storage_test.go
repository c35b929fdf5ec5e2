package redis

import (
	"context"
	"testing"
	"time"

	miniredis "github.com/alicebob/miniredis/v2"
	"github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"progresskit/core"
)

// newTestClient spins up a miniredis server and returns a client plus cleanup.
func newTestClient(t *testing.T) (*redis.Client, func()) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	cleanup := func() {
		_ = client.Close()
		mr.Close()
	}
	return client, cleanup
}

func TestStore_AddXP(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	userID := core.UserID("test-user")

	st, err := store.AddXP(ctx, userID, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(50), st.XP)
	assert.Equal(t, int64(1), st.Level)

	st, err = store.AddXP(ctx, userID, 50)
	require.NoError(t, err)
	assert.Equal(t, int64(100), st.XP)
	assert.Equal(t, int64(2), st.Level, "level must follow xp across the 100 boundary")
}

func TestStore_AddXP_LevelMatchesCurve(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	userID := core.UserID("curve-user")

	var total int64
	for i := 0; i < 30; i++ {
		st, err := store.AddXP(ctx, userID, 77)
		require.NoError(t, err)
		total += 77
		require.Equal(t, total, st.XP)
		require.Equal(t, core.CalculateLevel(total), st.Level,
			"stored level must equal the curve at xp %d", total)
	}
}

func TestStore_GetStats(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	userID := core.UserID("test-user")

	_, found, err := store.GetStats(ctx, userID)
	require.NoError(t, err)
	assert.False(t, found, "no row before first xp event")

	_, err = store.AddXP(ctx, userID, 120)
	require.NoError(t, err)

	st, found, err := store.GetStats(ctx, userID)
	require.NoError(t, err)
	require.True(t, found)
	assert.Equal(t, int64(120), st.XP)
	assert.Equal(t, int64(2), st.Level)
	assert.False(t, st.LastUpdated.IsZero())
}

func TestStore_RecordUnlock_Idempotent(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	userID := core.UserID("test-user")
	at := time.Now().UTC()

	inserted, err := store.RecordUnlock(ctx, userID, "first_comment", at)
	require.NoError(t, err)
	assert.True(t, inserted)

	inserted, err = store.RecordUnlock(ctx, userID, "first_comment", at.Add(time.Hour))
	require.NoError(t, err)
	assert.False(t, inserted, "duplicate unlock must collapse silently")

	slugs, err := store.UnlockedSlugs(ctx, userID)
	require.NoError(t, err)
	assert.Equal(t, []core.Slug{"first_comment"}, slugs)
}

func TestStore_Achievements(t *testing.T) {
	client, cleanup := newTestClient(t)
	defer cleanup()

	store := NewWithClient(client)
	ctx := context.Background()
	userID := core.UserID("test-user")

	first := time.Date(2026, 2, 1, 12, 0, 0, 0, time.UTC)
	second := first.Add(48 * time.Hour)

	_, err := store.RecordUnlock(ctx, userID, "first_comment", first)
	require.NoError(t, err)
	_, err = store.RecordUnlock(ctx, userID, "first_report", second)
	require.NoError(t, err)

	recs, err := store.Achievements(ctx, userID)
	require.NoError(t, err)
	require.Len(t, recs, 2)
	assert.Equal(t, core.Slug("first_comment"), recs[0].Slug)
	assert.Equal(t, first, recs[0].UnlockedAt)
	assert.Equal(t, core.Slug("first_report"), recs[1].Slug)
	assert.Equal(t, second, recs[1].UnlockedAt)
}
