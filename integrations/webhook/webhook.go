// Package webhook forwards domain events to external collaborators over HTTP,
// e.g. a notification service congratulating users on unlocks.
package webhook

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"time"

	"progresskit/analytics"
	"progresskit/core"
)

// Sink posts domain events to configured HTTP endpoints. Delivery is
// synchronous and best-effort; run it behind an async event bus when the
// endpoints are slow.
type Sink struct {
	client    *http.Client
	endpoints []string
	secret    string
	types     map[core.EventType]struct{}
}

// Option configures a Sink.
type Option func(*Sink)

// WithClient overrides the HTTP client (defaults to 2s timeout).
func WithClient(c *http.Client) Option {
	return func(s *Sink) {
		if c != nil {
			s.client = c
		}
	}
}

// WithSecret sets a shared secret sent as X-Progress-Secret on every post.
func WithSecret(secret string) Option {
	return func(s *Sink) { s.secret = secret }
}

// WithEventTypes restricts delivery to the given event types. By default
// every event is delivered.
func WithEventTypes(types ...core.EventType) Option {
	return func(s *Sink) {
		s.types = make(map[core.EventType]struct{}, len(types))
		for _, t := range types {
			s.types[t] = struct{}{}
		}
	}
}

// New creates a webhook sink.
func New(endpoints []string, opts ...Option) *Sink {
	s := &Sink{
		client: &http.Client{Timeout: 2 * time.Second},
	}
	for _, opt := range opts {
		opt(s)
	}
	s.endpoints = append([]string{}, endpoints...)
	return s
}

// OnEvent posts the event JSON to all endpoints. Delivery failures are
// dropped; external notification must never affect progress accounting.
func (s *Sink) OnEvent(e core.Event) {
	if len(s.endpoints) == 0 {
		return
	}
	if s.types != nil {
		if _, ok := s.types[e.Type]; !ok {
			return
		}
	}
	body, err := json.Marshal(e)
	if err != nil {
		return
	}
	for _, ep := range s.endpoints {
		req, err := http.NewRequestWithContext(context.Background(), http.MethodPost, ep, bytes.NewReader(body))
		if err != nil {
			continue
		}
		req.Header.Set("Content-Type", "application/json")
		if s.secret != "" {
			req.Header.Set("X-Progress-Secret", s.secret)
		}
		resp, err := s.client.Do(req)
		if err != nil {
			continue
		}
		// drain before closing so the connection can be reused
		_, _ = io.Copy(io.Discard, resp.Body)
		_ = resp.Body.Close()
	}
}

var _ analytics.Hook = (*Sink)(nil)
