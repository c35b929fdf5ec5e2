package jsonfile

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"progresskit/core"
)

func TestJSONFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddXP(ctx, "u", 110); err != nil {
		t.Fatal(err)
	}
	if ok, err := s.RecordUnlock(ctx, "u", "first_comment", time.Now().UTC()); err != nil || !ok {
		t.Fatalf("got %v %v", ok, err)
	}
	if ok, _ := s.RecordUnlock(ctx, "u", "first_comment", time.Now().UTC()); ok {
		t.Fatal("duplicate unlock must not insert")
	}

	// reopen from disk
	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	st, found, err := s2.GetStats(ctx, "u")
	if err != nil || !found {
		t.Fatalf("stats should survive reopen: %v %v", found, err)
	}
	if st.XP != 110 || st.Level != core.CalculateLevel(110) {
		t.Fatalf("got %+v", st)
	}
	slugs, _ := s2.UnlockedSlugs(ctx, "u")
	if len(slugs) != 1 || slugs[0] != "first_comment" {
		t.Fatalf("got %v", slugs)
	}
}

func TestWriteFailureLeavesStateRetryable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "progress.json")
	ctx := context.Background()

	s, err := New(path)
	if err != nil {
		t.Fatal(err)
	}

	// a directory squatting on the temp path makes every persist fail
	if err := os.Mkdir(path+".tmp", 0o755); err != nil {
		t.Fatal(err)
	}
	if _, err := s.AddXP(ctx, "u", 10); err == nil {
		t.Fatal("expected AddXP to fail while the disk write is blocked")
	}
	if ok, err := s.RecordUnlock(ctx, "u", "first_comment", time.Now().UTC()); err == nil || ok {
		t.Fatalf("expected RecordUnlock to fail, got %v %v", ok, err)
	}

	if err := os.Remove(path + ".tmp"); err != nil {
		t.Fatal(err)
	}

	// retries must not see the failed attempt's staged state
	st, err := s.AddXP(ctx, "u", 10)
	if err != nil {
		t.Fatal(err)
	}
	if st.XP != 10 {
		t.Fatalf("failed write must not be double counted on retry, xp=%d", st.XP)
	}
	if ok, err := s.RecordUnlock(ctx, "u", "first_comment", time.Now().UTC()); err != nil || !ok {
		t.Fatalf("retry after transient failure should record the unlock: %v %v", ok, err)
	}

	s2, err := New(path)
	if err != nil {
		t.Fatal(err)
	}
	if st, found, _ := s2.GetStats(ctx, "u"); !found || st.XP != 10 {
		t.Fatalf("got %+v found=%v", st, found)
	}
	if slugs, _ := s2.UnlockedSlugs(ctx, "u"); len(slugs) != 1 {
		t.Fatalf("unlock should survive reopen, got %v", slugs)
	}
}
