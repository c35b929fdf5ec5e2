package sdk

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"time"
)

// XPResult mirrors the public JSON surface of an XP award.
type XPResult struct {
	NewXP         int64    `json:"new_xp"`
	NewLevel      int64    `json:"new_level"`
	LevelUp       bool     `json:"level_up"`
	XPToNextLevel int64    `json:"xp_to_next_level"`
	Unlocked      []string `json:"unlocked_achievements"`
}

// AchievementDetail is the display metadata for an achievement slug.
type AchievementDetail struct {
	Slug        string `json:"slug"`
	Label       string `json:"label"`
	Description string `json:"description"`
	Icon        string `json:"icon"`
}

// UnlockedAchievement is one entry of a user's unlock history.
type UnlockedAchievement struct {
	AchievementDetail
	UnlockedAt time.Time `json:"unlocked_at"`
}

// UserProgress mirrors the GET user response.
type UserProgress struct {
	UserID        string                `json:"user_id"`
	XP            int64                 `json:"xp"`
	Level         int64                 `json:"level"`
	LastUpdated   time.Time             `json:"last_updated"`
	XPToNextLevel int64                 `json:"xp_to_next_level"`
	Achievements  []UnlockedAchievement `json:"achievements"`
}

// HealthStatus describes the /healthz response.
type HealthStatus struct {
	Status string                 `json:"status"`
	Checks map[string]interface{} `json:"checks"`
}

// APIError is a structured error response from the server.
type APIError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Status  int    `json:"-"`
}

func (e *APIError) Error() string {
	return fmt.Sprintf("%s: %s (status %d)", e.Code, e.Message, e.Status)
}

func decodeJSON(resp *http.Response, target any) error {
	if resp.StatusCode >= http.StatusBadRequest {
		var apiErr APIError
		if err := json.NewDecoder(resp.Body).Decode(&apiErr); err == nil && apiErr.Code != "" {
			apiErr.Status = resp.StatusCode
			return &apiErr
		}
		return fmt.Errorf("request failed: status %d", resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(target)
}

// ErrEmptyUserID is returned when user id is empty.
var ErrEmptyUserID = errors.New("user id is required")
