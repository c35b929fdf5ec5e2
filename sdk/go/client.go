// Package sdk provides typed access to the progresskit HTTP API for host
// applications running the server out of process.
package sdk

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// Option configures the Client.
type Option func(*Client)

// Client provides typed access to the progresskit HTTP API.
type Client struct {
	baseURL    string
	httpClient *http.Client
	headers    http.Header
}

// NewClient constructs a new SDK client targeting the given baseURL (e.g., http://localhost:8080/api).
func NewClient(baseURL string, opts ...Option) (*Client, error) {
	if strings.TrimSpace(baseURL) == "" {
		return nil, errors.New("baseURL is required")
	}
	baseURL = strings.TrimSuffix(baseURL, "/")

	c := &Client{
		baseURL:    baseURL,
		httpClient: http.DefaultClient,
		headers:    make(http.Header),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// WithHTTPClient sets a custom HTTP client.
func WithHTTPClient(h *http.Client) Option {
	return func(c *Client) {
		if h != nil {
			c.httpClient = h
		}
	}
}

// WithAuthToken adds an Authorization: Bearer token header to all requests.
func WithAuthToken(token string) Option {
	return func(c *Client) {
		if strings.TrimSpace(token) != "" {
			c.headers.Set("Authorization", "Bearer "+token)
		}
	}
}

// WithAPIKey adds an X-API-Key header.
func WithAPIKey(key string) Option {
	return func(c *Client) {
		if strings.TrimSpace(key) != "" {
			c.headers.Set("X-API-Key", key)
		}
	}
}

// WithHeader sets an arbitrary header applied to all calls.
func WithHeader(k, v string) Option {
	return func(c *Client) {
		if k != "" {
			c.headers.Set(k, v)
		}
	}
}

// AddXP reports an action for a user and returns the award outcome.
func (c *Client) AddXP(ctx context.Context, userID string, action string) (XPResult, error) {
	if strings.TrimSpace(userID) == "" {
		return XPResult{}, ErrEmptyUserID
	}

	u, err := url.Parse(fmt.Sprintf("%s/users/%s/xp", c.baseURL, url.PathEscape(userID)))
	if err != nil {
		return XPResult{}, err
	}
	q := u.Query()
	q.Set("action", action)
	u.RawQuery = q.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u.String(), nil)
	if err != nil {
		return XPResult{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return XPResult{}, err
	}
	defer resp.Body.Close()

	var res XPResult
	if err := decodeJSON(resp, &res); err != nil {
		return XPResult{}, err
	}
	return res, nil
}

// CheckAchievements re-runs achievement evaluation for a trigger. Pass a nil
// context map to let the server compute counters itself.
func (c *Client) CheckAchievements(ctx context.Context, userID string, trigger string, statContext map[string]int64) ([]string, error) {
	if strings.TrimSpace(userID) == "" {
		return nil, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s/achievements/check", c.baseURL, url.PathEscape(userID))

	payload, err := json.Marshal(map[string]any{
		"trigger": trigger,
		"context": statContext,
	})
	if err != nil {
		return nil, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, u, bytes.NewReader(payload))
	if err != nil {
		return nil, err
	}
	req.Header.Set("Content-Type", "application/json")
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Unlocked []string `json:"unlocked"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Unlocked, nil
}

// GetUser fetches the current progress state for a user.
func (c *Client) GetUser(ctx context.Context, userID string) (UserProgress, error) {
	if strings.TrimSpace(userID) == "" {
		return UserProgress{}, ErrEmptyUserID
	}
	u := fmt.Sprintf("%s/users/%s", c.baseURL, url.PathEscape(userID))
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return UserProgress{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return UserProgress{}, err
	}
	defer resp.Body.Close()

	var st UserProgress
	if err := decodeJSON(resp, &st); err != nil {
		return UserProgress{}, err
	}
	return st, nil
}

// AchievementDetails resolves slugs to display metadata. With no slugs the
// whole catalog is returned.
func (c *Client) AchievementDetails(ctx context.Context, slugs ...string) ([]AchievementDetail, error) {
	u, err := url.Parse(c.baseURL + "/achievements")
	if err != nil {
		return nil, err
	}
	if len(slugs) > 0 {
		q := u.Query()
		q.Set("slugs", strings.Join(slugs, ","))
		u.RawQuery = q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return nil, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	var body struct {
		Achievements []AchievementDetail `json:"achievements"`
	}
	if err := decodeJSON(resp, &body); err != nil {
		return nil, err
	}
	return body.Achievements, nil
}

// Health probes /healthz and returns status + storage check.
func (c *Client) Health(ctx context.Context) (HealthStatus, error) {
	u := c.baseURL + "/healthz"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return HealthStatus{}, err
	}
	c.applyHeaders(req)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return HealthStatus{}, err
	}
	defer resp.Body.Close()

	var hs HealthStatus
	if err := decodeJSON(resp, &hs); err != nil {
		return HealthStatus{}, err
	}
	return hs, nil
}

func (c *Client) applyHeaders(r *http.Request) {
	for k, vals := range c.headers {
		for _, v := range vals {
			r.Header.Add(k, v)
		}
	}
}
