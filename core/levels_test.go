package core

import "testing"

func TestCalculateLevelFloor(t *testing.T) {
	if CalculateLevel(0) != 1 {
		t.Fatal("level at 0 xp should be 1")
	}
	if CalculateLevel(-5) != 1 {
		t.Fatal("negative xp should clamp to level 1")
	}
}

func TestCalculateLevelMonotonic(t *testing.T) {
	prev := int64(1)
	for xp := int64(0); xp <= 50_000; xp += 7 {
		lvl := CalculateLevel(xp)
		if lvl < 1 {
			t.Fatalf("level %d below 1 at xp %d", lvl, xp)
		}
		if lvl < prev {
			t.Fatalf("level decreased from %d to %d at xp %d", prev, lvl, xp)
		}
		prev = lvl
	}
}

func TestXPRequiredForLevelBoundaries(t *testing.T) {
	if XPRequiredForLevel(1) != 0 {
		t.Fatal("level 1 should require 0 xp")
	}
	if XPRequiredForLevel(2) != 100 {
		t.Fatalf("level 2 should require 100 xp, got %d", XPRequiredForLevel(2))
	}
	for lvl := int64(2); lvl <= 100; lvl++ {
		if XPRequiredForLevel(lvl) <= XPRequiredForLevel(lvl-1) {
			t.Fatalf("boundary not strictly increasing at level %d", lvl)
		}
		// exact boundary behavior
		if got := CalculateLevel(XPRequiredForLevel(lvl)); got != lvl {
			t.Fatalf("level at boundary %d = %d, want %d", XPRequiredForLevel(lvl), got, lvl)
		}
		if got := CalculateLevel(XPRequiredForLevel(lvl) - 1); got != lvl-1 {
			t.Fatalf("level just below boundary of %d = %d, want %d", lvl, got, lvl-1)
		}
	}
}

func TestCurveRoundTrip(t *testing.T) {
	for xp := int64(0); xp <= 25_000; xp += 13 {
		lvl := CalculateLevel(xp)
		if CalculateLevel(XPRequiredForLevel(lvl)) != lvl {
			t.Fatalf("round trip broke at xp %d (level %d)", xp, lvl)
		}
	}
}

func TestXPToNextLevel(t *testing.T) {
	if got := XPToNextLevel(0); got != 100 {
		t.Fatalf("want 100 xp to level 2 from zero, got %d", got)
	}
	if got := XPToNextLevel(90); got != 10 {
		t.Fatalf("want 10 xp remaining at 90, got %d", got)
	}
	for xp := int64(0); xp <= 10_000; xp += 11 {
		if XPToNextLevel(xp) <= 0 {
			t.Fatalf("xp-to-next must stay positive below a boundary, got %d at %d", XPToNextLevel(xp), xp)
		}
	}
}
