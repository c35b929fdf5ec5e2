package core

import (
	"errors"
	"math"
	"strings"
	"time"
)

// UserID uniquely identifies a user in the progress domain. The identity
// itself is owned by the host application; this subsystem only references it.
type UserID string

// Slug is the stable identifier of an achievement rule.
type Slug string

// ActionKind enumerates the XP-earning actions reported by the host
// application once their primary effect has committed.
type ActionKind string

const (
	ActionComment ActionKind = "comment"
	ActionReport  ActionKind = "report"
)

// Trigger tags the evaluation hook an achievement rule is bound to. Triggers
// are a closed set so that a typo in a rule definition fails at catalog
// registration rather than silently never matching.
type Trigger string

const (
	TriggerComment Trigger = "on_comment"
	TriggerReport  Trigger = "on_report"
)

// KnownTriggers lists every trigger the catalog accepts.
var KnownTriggers = []Trigger{TriggerComment, TriggerReport}

// Valid reports whether t is a member of the trigger set.
func (t Trigger) Valid() bool {
	for _, k := range KnownTriggers {
		if t == k {
			return true
		}
	}
	return false
}

// actionXP is the static delta table for XP-earning actions.
var actionXP = map[ActionKind]int64{
	ActionComment: 10,
	ActionReport:  25,
}

// actionTrigger maps each action to the rule trigger it fires.
var actionTrigger = map[ActionKind]Trigger{
	ActionComment: TriggerComment,
	ActionReport:  TriggerReport,
}

// XPForAction returns the fixed XP delta for an action, or
// ErrInvalidActionKind for an unrecognized one.
func XPForAction(kind ActionKind) (int64, error) {
	delta, ok := actionXP[kind]
	if !ok {
		return 0, ErrInvalidActionKind
	}
	return delta, nil
}

// TriggerForAction returns the rule trigger fired by an action.
func TriggerForAction(kind ActionKind) (Trigger, error) {
	t, ok := actionTrigger[kind]
	if !ok {
		return "", ErrInvalidActionKind
	}
	return t, nil
}

// UserStats is one user's cumulative XP row. XP never decreases and Level is
// stored redundantly but must always equal CalculateLevel(XP).
type UserStats struct {
	UserID      UserID    `json:"user_id" db:"user_id"`
	XP          int64     `json:"xp" db:"xp"`
	Level       int64     `json:"level" db:"level"`
	LastUpdated time.Time `json:"last_updated" db:"last_updated"`
}

// AchievementRecord is one unlocked achievement. The (UserID, Slug) pair is
// unique at the storage layer; records are immutable once written.
type AchievementRecord struct {
	UserID     UserID    `json:"user_id" db:"user_id"`
	Slug       Slug      `json:"slug" db:"slug"`
	UnlockedAt time.Time `json:"unlocked_at" db:"unlocked_at"`
}

// AchievementDetail is the presentation metadata for a slug.
type AchievementDetail struct {
	Slug        Slug   `json:"slug"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// Statistic names available in a TriggerContext.
const (
	StatTotalComments     = "total_comments"
	StatCommentStreakDays = "comment_streak_days"
	StatTotalReports      = "total_reports"
	StatReportStreakDays  = "report_streak_days"
)

// TriggerContext carries the freshly computed statistics a rule condition may
// inspect. It is built per evaluation call and never persisted.
type TriggerContext map[string]int64

// Get returns the named statistic, or zero when absent. Conditions written
// against Get tolerate partial contexts without panicking.
func (c TriggerContext) Get(name string) int64 {
	if c == nil {
		return 0
	}
	return c[name]
}

// Has reports whether the statistic was computed for this call.
func (c TriggerContext) Has(name string) bool {
	_, ok := c[name]
	return ok
}

// XPResult is the combined outcome of an AddXP call.
type XPResult struct {
	NewXP         int64  `json:"new_xp"`
	NewLevel      int64  `json:"new_level"`
	LevelUp       bool   `json:"level_up"`
	XPToNextLevel int64  `json:"xp_to_next_level"`
	Unlocked      []Slug `json:"unlocked_achievements"`
}

// AddSafe adds delta to base ensuring no signed overflow occurs.
func AddSafe(base int64, delta int64) (int64, error) {
	if (delta > 0 && base > math.MaxInt64-delta) || (delta < 0 && base < math.MinInt64-delta) {
		return 0, errors.New("integer overflow in AddSafe")
	}
	return base + delta, nil
}

// NormalizeUserID trims and lowercases user identifiers.
func NormalizeUserID(id UserID) (UserID, error) {
	s := strings.TrimSpace(string(id))
	if s == "" {
		return "", errors.New("empty user id")
	}
	return UserID(strings.ToLower(s)), nil
}

// ValidateSlug ensures a non-empty slug with simple charset check.
func ValidateSlug(s Slug) error {
	v := strings.TrimSpace(string(s))
	if v == "" {
		return errors.New("empty slug")
	}
	// simple check: alnum, dash, underscore
	for _, r := range v {
		if r >= 'a' && r <= 'z' || r >= 'A' && r <= 'Z' || r >= '0' && r <= '9' || r == '-' || r == '_' {
			continue
		}
		return errors.New("invalid slug")
	}
	return nil
}
