package progress

import (
	"context"
	"testing"

	mem "progresskit/adapters/memory"
	"progresskit/analytics"
	"progresskit/core"
	"progresskit/engine"
	"progresskit/stats"
)

func TestNewDefaultsAndOptions(t *testing.T) {
	metrics := analytics.NewProgressMetrics()
	svc := New(
		WithStore(mem.New()),
		WithStatsProvider(&stats.Static{Comments: 1}),
		WithDispatchMode(engine.DispatchSync),
		WithHooks(metrics),
	)
	defer svc.Close()

	res, err := svc.AddXP(context.Background(), "alice", core.ActionComment)
	if err != nil {
		t.Fatalf("add xp: %v", err)
	}
	if res.NewXP != 10 || res.NewLevel != 1 {
		t.Fatalf("unexpected result: %+v", res)
	}
	if len(res.Unlocked) != 1 || res.Unlocked[0] != "first_comment" {
		t.Fatalf("expected first_comment unlock, got %v", res.Unlocked)
	}

	// hooks saw the events synchronously
	if got := metrics.XPAwardedByAction(core.ActionComment); got != 10 {
		t.Fatalf("metrics xp=%d", got)
	}
	if got := metrics.UnlocksBySlug("first_comment"); got != 1 {
		t.Fatalf("metrics unlocks=%d", got)
	}
}

func TestNewZeroConfig(t *testing.T) {
	svc := New(WithDispatchMode(engine.DispatchSync))
	defer svc.Close()

	res, err := svc.AddXP(context.Background(), "bob", core.ActionReport)
	if err != nil {
		t.Fatalf("add xp: %v", err)
	}
	if res.NewXP != 25 {
		t.Fatalf("expected 25 xp, got %d", res.NewXP)
	}
	// static provider defaults to zero counters, so nothing unlocks
	if len(res.Unlocked) != 0 {
		t.Fatalf("unexpected unlocks: %v", res.Unlocked)
	}

	st, err := svc.GetStats(context.Background(), "bob")
	if err != nil || st.XP != 25 {
		t.Fatalf("stats %+v err=%v", st, err)
	}
}
