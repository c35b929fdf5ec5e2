package core

import "errors"

// Error taxonomy for the progress subsystem. Callers discriminate with
// errors.Is; the engine wraps adapter failures with these sentinels so the
// host application can decide what is fatal and what degrades.
var (
	// ErrInvalidActionKind means AddXP was called with an unknown action.
	// Fatal to the call; no state change.
	ErrInvalidActionKind = errors.New("invalid action kind")

	// ErrStatsRead / ErrStatsWrite mean the stats store was unavailable.
	// Fatal to AddXP; the xp/level pair is never left half-written.
	ErrStatsRead  = errors.New("stats read failed")
	ErrStatsWrite = errors.New("stats write failed")

	// ErrAchievementLookup / ErrAchievementPersist mean the achievement
	// ledger was unavailable. Fatal to CheckAchievements alone; when reached
	// through AddXP they degrade to an empty unlock set.
	ErrAchievementLookup  = errors.New("achievement lookup failed")
	ErrAchievementPersist = errors.New("achievement persist failed")

	// ErrStatsUnavailable means the statistics provider could not compute a
	// trigger context. Non-fatal inside AddXP: no rules are evaluated.
	ErrStatsUnavailable = errors.New("statistics unavailable")
)
