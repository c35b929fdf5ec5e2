package core

import "time"

// EventType enumerates domain events.
type EventType string

const (
	EventXPAdded             EventType = "xp_added"
	EventLevelUp             EventType = "level_up"
	EventAchievementUnlocked EventType = "achievement_unlocked"
)

// Event represents an immutable domain event.
type Event struct {
	Type     EventType      `json:"type"`
	Time     time.Time      `json:"time"`
	UserID   UserID         `json:"user_id"`
	Action   ActionKind     `json:"action,omitempty"`
	Delta    int64          `json:"delta,omitempty"`
	Total    int64          `json:"total,omitempty"`
	Level    int64          `json:"level,omitempty"`
	Slug     Slug           `json:"slug,omitempty"`
	Metadata map[string]any `json:"metadata,omitempty"`
}

func NewXPAdded(user UserID, action ActionKind, delta int64, total int64) Event {
	return Event{Type: EventXPAdded, Time: time.Now().UTC(), UserID: user, Action: action, Delta: delta, Total: total}
}

func NewLevelUp(user UserID, level int64, total int64) Event {
	return Event{Type: EventLevelUp, Time: time.Now().UTC(), UserID: user, Level: level, Total: total}
}

func NewAchievementUnlocked(user UserID, slug Slug) Event {
	return Event{Type: EventAchievementUnlocked, Time: time.Now().UTC(), UserID: user, Slug: slug}
}
