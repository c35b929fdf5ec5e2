package memory

import (
	"context"
	"sync"
	"testing"
	"time"

	"progresskit/core"
)

func TestMemoryStoreStats(t *testing.T) {
	s := New()
	ctx := context.Background()

	_, found, err := s.GetStats(ctx, "u")
	if err != nil || found {
		t.Fatalf("fresh user should have no row: found=%v err=%v", found, err)
	}

	st, err := s.AddXP(ctx, "u", 10)
	if err != nil || st.XP != 10 || st.Level != 1 {
		t.Fatalf("got %+v %v", st, err)
	}
	st, err = s.AddXP(ctx, "u", 90)
	if err != nil || st.XP != 100 || st.Level != 2 {
		t.Fatalf("level should follow xp: got %+v %v", st, err)
	}

	st2, found, err := s.GetStats(ctx, "u")
	if err != nil || !found || st2.XP != 100 {
		t.Fatalf("row should persist: %+v %v %v", st2, found, err)
	}
}

func TestMemoryStoreUnlockOnce(t *testing.T) {
	s := New()
	ctx := context.Background()
	at := time.Now().UTC()

	inserted, err := s.RecordUnlock(ctx, "u", "first_comment", at)
	if err != nil || !inserted {
		t.Fatalf("first insert should win: %v %v", inserted, err)
	}
	inserted, err = s.RecordUnlock(ctx, "u", "first_comment", at)
	if err != nil || inserted {
		t.Fatalf("second insert must be a no-op: %v %v", inserted, err)
	}
	slugs, _ := s.UnlockedSlugs(ctx, "u")
	if len(slugs) != 1 || slugs[0] != "first_comment" {
		t.Fatalf("got %v", slugs)
	}
}

func TestMemoryStoreConcurrentUnlock(t *testing.T) {
	s := New()
	ctx := context.Background()

	const n = 32
	var wg sync.WaitGroup
	inserts := make(chan bool, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, err := s.RecordUnlock(ctx, "u", "race_slug", time.Now().UTC())
			if err != nil {
				t.Error(err)
				return
			}
			inserts <- ok
		}()
	}
	wg.Wait()
	close(inserts)

	wins := 0
	for ok := range inserts {
		if ok {
			wins++
		}
	}
	if wins != 1 {
		t.Fatalf("exactly one concurrent insert should win, got %d", wins)
	}
	recs, _ := s.Achievements(ctx, "u")
	if len(recs) != 1 {
		t.Fatalf("exactly one record expected, got %d", len(recs))
	}
	if recs[0].UserID != core.UserID("u") || recs[0].Slug != "race_slug" {
		t.Fatalf("unexpected record %+v", recs[0])
	}
}
