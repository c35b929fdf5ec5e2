package core

import "math"

// The level curve is a sublinear step function over cumulative XP:
//
//	level = floor(sqrt(xp)/10) + 1
//
// which makes level boundaries fall on 100*(level-1)^2 XP. Level 1 starts at
// 0 XP and level 2 at exactly 100 XP. CalculateLevel and XPRequiredForLevel
// are exact inverses on those boundaries for all non-negative XP.

// CalculateLevel maps cumulative XP to a level (always >= 1). Negative input
// is a caller bug; it is clamped to 0 rather than rejected.
func CalculateLevel(xp int64) int64 {
	if xp <= 0 {
		return 1
	}
	lvl := int64(math.Floor(math.Sqrt(float64(xp))/10.0)) + 1
	if lvl < 1 {
		return 1
	}
	return lvl
}

// XPRequiredForLevel returns the cumulative XP at which a level begins.
// XPRequiredForLevel(1) = 0; strictly increasing for level >= 1.
func XPRequiredForLevel(level int64) int64 {
	if level <= 1 {
		return 0
	}
	n := level - 1
	return 100 * n * n
}

// XPToNextLevel returns how much more XP is needed to reach the next level
// boundary from the given total.
func XPToNextLevel(xp int64) int64 {
	if xp < 0 {
		xp = 0
	}
	return XPRequiredForLevel(CalculateLevel(xp)+1) - xp
}
