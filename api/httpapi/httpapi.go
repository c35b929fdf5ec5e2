package httpapi

import (
	"encoding/json"
	"errors"
	"net"
	"net/http"
	"strings"
	"sync"
	"time"

	"progresskit/core"
	"progresskit/engine"
)

// Options configures the HTTP API surface.
type Options struct {
	// PathPrefix, if set, is prepended to all routes (e.g., "/api").
	PathPrefix string
	// AllowCORSOrigin, if non-empty, enables basic CORS with the given origin (use "*" for any).
	AllowCORSOrigin string
	// APIKeys, if non-empty, enables static API key auth via Authorization: Bearer or X-API-Key.
	APIKeys []string
	// RateLimitEnabled toggles rate limiting.
	RateLimitEnabled bool
	// RateLimitRPM is the allowed requests per minute per client key.
	RateLimitRPM int
	// RateLimitBurst defines burst capacity.
	RateLimitBurst int
}

// userProgress is the GET user response: stats plus unlock history with
// display metadata resolved.
type userProgress struct {
	core.UserStats
	XPToNextLevel int64            `json:"xp_to_next_level"`
	Achievements  []unlockedDetail `json:"achievements"`
}

type unlockedDetail struct {
	core.AchievementDetail
	UnlockedAt time.Time `json:"unlocked_at"`
}

type checkRequest struct {
	Trigger core.Trigger        `json:"trigger"`
	Context core.TriggerContext `json:"context,omitempty"`
}

// NewMux builds an http.Handler exposing the progress REST API.
// Routes:
//   - POST {prefix}/users/{id}/xp?action=comment
//   - POST {prefix}/users/{id}/achievements/check
//   - GET  {prefix}/users/{id}
//   - GET  {prefix}/achievements[?slugs=a,b]
//   - GET  {prefix}/healthz
func NewMux(svc *engine.ProgressService, opts Options) http.Handler {
	mux := http.NewServeMux()

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/healthz"), func(w http.ResponseWriter, r *http.Request) {
		healthCheck(w, r, svc)
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/achievements"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		raw := r.URL.Query().Get("slugs")
		if raw == "" {
			// whole catalog
			all := svc.Catalog().All()
			details := make([]core.AchievementDetail, 0, len(all))
			for _, rule := range all {
				details = append(details, core.AchievementDetail{
					Slug: rule.Slug, Label: rule.Label, Description: rule.Description, Icon: rule.Icon,
				})
			}
			writeJSON(w, map[string]any{"achievements": details})
			return
		}
		var slugs []core.Slug
		for _, s := range strings.Split(raw, ",") {
			if s = strings.TrimSpace(s); s != "" {
				slugs = append(slugs, core.Slug(s))
			}
		}
		writeJSON(w, map[string]any{"achievements": svc.AchievementDetails(slugs)})
	})

	mux.HandleFunc(withPrefix(opts.PathPrefix, "/users/"), func(w http.ResponseWriter, r *http.Request) {
		if r.Method != http.MethodGet && r.Method != http.MethodPost {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		path := strings.TrimPrefix(r.URL.Path, opts.PathPrefix)
		if path == "" || path[0] != '/' {
			path = "/" + path
		}
		parts := split(path, '/')
		if len(parts) < 2 {
			writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
			return
		}
		user, err := core.NormalizeUserID(core.UserID(parts[1]))
		if err != nil {
			writeError(w, http.StatusBadRequest, "invalid_user", err.Error(), nil)
			return
		}
		switch r.Method {
		case http.MethodPost:
			if len(parts) == 3 && parts[2] == "xp" {
				addXP(w, r, svc, user)
				return
			}
			if len(parts) == 4 && parts[2] == "achievements" && parts[3] == "check" {
				checkAchievements(w, r, svc, user)
				return
			}
		case http.MethodGet:
			if len(parts) == 2 {
				getProgress(w, r, svc, user)
				return
			}
		}
		writeError(w, http.StatusNotFound, "not_found", "route not found", nil)
	})

	var handler http.Handler = mux
	if opts.AllowCORSOrigin != "" {
		handler = withCORS(handler, opts.AllowCORSOrigin)
	}
	if len(opts.APIKeys) > 0 {
		handler = withAPIKeyAuth(handler, opts.APIKeys)
	}
	if opts.RateLimitEnabled && opts.RateLimitRPM > 0 && opts.RateLimitBurst > 0 {
		handler = withRateLimit(handler, opts.RateLimitRPM, opts.RateLimitBurst)
	}
	return handler
}

func addXP(w http.ResponseWriter, r *http.Request, svc *engine.ProgressService, user core.UserID) {
	kind := core.ActionKind(r.URL.Query().Get("action"))
	res, err := svc.AddXP(r.Context(), user, kind)
	if err != nil {
		if errors.Is(err, core.ErrInvalidActionKind) {
			writeError(w, http.StatusBadRequest, "invalid_action", "unknown action kind", nil)
			return
		}
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	writeJSON(w, res)
}

func checkAchievements(w http.ResponseWriter, r *http.Request, svc *engine.ProgressService, user core.UserID) {
	var req checkRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "invalid_body", "malformed JSON body", nil)
		return
	}
	if !req.Trigger.Valid() {
		writeError(w, http.StatusBadRequest, "invalid_trigger", "unknown trigger", nil)
		return
	}
	tctx := req.Context
	if tctx == nil {
		// no explicit context given; compute counters fresh
		var err error
		tctx, err = svc.BuildTriggerContext(r.Context(), user, req.Trigger)
		if err != nil {
			writeError(w, http.StatusServiceUnavailable, "stats_unavailable", err.Error(), nil)
			return
		}
	}
	unlocked, err := svc.CheckAchievements(r.Context(), user, req.Trigger, tctx)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	if unlocked == nil {
		unlocked = []core.Slug{}
	}
	writeJSON(w, map[string]any{"unlocked": unlocked})
}

func getProgress(w http.ResponseWriter, r *http.Request, svc *engine.ProgressService, user core.UserID) {
	st, err := svc.GetStats(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	recs, err := svc.Achievements(r.Context(), user)
	if err != nil {
		writeError(w, http.StatusInternalServerError, "internal", err.Error(), nil)
		return
	}
	out := userProgress{
		UserStats:     st,
		XPToNextLevel: core.XPToNextLevel(st.XP),
		Achievements:  make([]unlockedDetail, 0, len(recs)),
	}
	for _, rec := range recs {
		details := svc.AchievementDetails([]core.Slug{rec.Slug})
		if len(details) == 0 {
			// slug no longer in the catalog; keep the record with slug only
			details = []core.AchievementDetail{{Slug: rec.Slug}}
		}
		out.Achievements = append(out.Achievements, unlockedDetail{
			AchievementDetail: details[0],
			UnlockedAt:        rec.UnlockedAt,
		})
	}
	writeJSON(w, out)
}

// Helpers

// healthCheck verifies the service is working properly
func healthCheck(w http.ResponseWriter, r *http.Request, svc *engine.ProgressService) {
	ctx := r.Context()

	// Verify storage works by fetching a dummy user; reads never create rows.
	dummyUser := core.UserID("healthcheck_probe")
	_, err := svc.GetStats(ctx, dummyUser)

	status := map[string]any{
		"status": "healthy",
		"checks": map[string]any{
			"storage": "ok",
		},
	}
	code := http.StatusOK
	if err != nil {
		code = http.StatusServiceUnavailable
		status["status"] = "unhealthy"
		status["checks"].(map[string]any)["storage"] = "failed"
	}

	// headers must be in place before the status line goes out
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(code)
	_ = json.NewEncoder(w).Encode(status)
}

func withPrefix(prefix, path string) string {
	if prefix == "" || prefix == "/" {
		return path
	}
	if prefix[len(prefix)-1] == '/' {
		return prefix[:len(prefix)-1] + path
	}
	return prefix + path
}

func split(p string, sep rune) []string {
	var parts []string
	cur := make([]rune, 0, len(p))
	// trim leading '/'
	for len(p) > 0 && p[0] == '/' {
		p = p[1:]
	}
	for _, r := range p {
		if r == sep {
			if len(cur) > 0 {
				parts = append(parts, string(cur))
				cur = cur[:0]
			}
			continue
		}
		cur = append(cur, r)
	}
	if len(cur) > 0 {
		parts = append(parts, string(cur))
	}
	return parts
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(v)
}

type apiError struct {
	Code    string `json:"code"`
	Message string `json:"message"`
	Details any    `json:"details,omitempty"`
}

func writeError(w http.ResponseWriter, status int, code, msg string, details any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(apiError{Code: code, Message: msg, Details: details})
}

// withCORS wraps a handler with a minimal CORS policy.
func withCORS(next http.Handler, origin string) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", origin)
		w.Header().Set("Vary", "Origin")
		if r.Method == http.MethodOptions {
			w.Header().Set("Access-Control-Allow-Methods", "GET,POST,OPTIONS")
			w.Header().Set("Access-Control-Allow-Headers", "Content-Type,Authorization")
			w.WriteHeader(http.StatusNoContent)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withAPIKeyAuth enforces a shared API key list.
func withAPIKeyAuth(next http.Handler, apiKeys []string) http.Handler {
	allowed := make(map[string]struct{}, len(apiKeys))
	for _, k := range apiKeys {
		k = strings.TrimSpace(k)
		if k != "" {
			allowed[k] = struct{}{}
		}
	}
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := extractAPIKey(r)
		if key == "" {
			writeError(w, http.StatusUnauthorized, "unauthorized", "missing API key", nil)
			return
		}
		if _, ok := allowed[key]; !ok {
			writeError(w, http.StatusUnauthorized, "unauthorized", "invalid API key", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

// withRateLimit applies a simple token-bucket limiter per client key.
func withRateLimit(next http.Handler, rpm int, burst int) http.Handler {
	limiter := newRateLimiter(rpm, burst)
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := clientKey(r)
		if !limiter.allow(key) {
			writeError(w, http.StatusTooManyRequests, "rate_limited", "too many requests", nil)
			return
		}
		next.ServeHTTP(w, r)
	})
}

func extractAPIKey(r *http.Request) string {
	auth := r.Header.Get("Authorization")
	if strings.HasPrefix(strings.ToLower(auth), "bearer ") {
		return strings.TrimSpace(auth[7:])
	}
	if key := r.Header.Get("X-API-Key"); key != "" {
		return key
	}
	return ""
}

// clientKey uses API key if present, otherwise remote IP.
func clientKey(r *http.Request) string {
	if key := extractAPIKey(r); key != "" {
		return key
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

type rateLimiter struct {
	rpm   float64
	burst float64
	mu    sync.Mutex
	b     map[string]*bucket
}

type bucket struct {
	tokens float64
	last   time.Time
}

func newRateLimiter(rpm, burst int) *rateLimiter {
	return &rateLimiter{
		rpm:   float64(rpm),
		burst: float64(burst),
		b:     make(map[string]*bucket),
	}
}

func (l *rateLimiter) allow(key string) bool {
	now := time.Now()
	l.mu.Lock()
	defer l.mu.Unlock()

	b, ok := l.b[key]
	if !ok {
		l.b[key] = &bucket{tokens: l.burst - 1, last: now}
		return true
	}

	elapsed := now.Sub(b.last).Minutes()
	b.tokens += elapsed * l.rpm
	if b.tokens > l.burst {
		b.tokens = l.burst
	}
	if b.tokens < 1 {
		b.last = now
		return false
	}
	b.tokens--
	b.last = now
	return true
}
