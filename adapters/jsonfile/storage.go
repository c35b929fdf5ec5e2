package jsonfile

import (
	"context"
	"encoding/json"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sync"
	"time"

	"progresskit/core"
	"progresskit/engine"
)

// Store persists entire state to a single JSON file.
// Suitable for demos and small deployments.
type Store struct {
	path string
	mu   sync.Mutex
	// in-memory cache for speed
	data map[core.UserID]*userDoc
}

type userDoc struct {
	Stats        *core.UserStats          `json:"stats,omitempty"`
	Achievements []core.AchievementRecord `json:"achievements,omitempty"`
}

func New(path string) (*Store, error) {
	s := &Store{path: path, data: map[core.UserID]*userDoc{}}
	if err := s.load(); err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			return nil, err
		}
	}
	return s, nil
}

func (s *Store) load() error {
	b, err := os.ReadFile(s.path)
	if err != nil {
		return err
	}
	var raw map[string]*userDoc
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	for k, v := range raw {
		s.data[core.UserID(k)] = v
	}
	return nil
}

func (s *Store) persist() error {
	tmp := s.path + ".tmp"
	raw := make(map[string]*userDoc, len(s.data))
	for k, v := range s.data {
		raw[string(k)] = v
	}
	b, err := json.MarshalIndent(raw, "", "  ")
	if err != nil {
		return err
	}
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}
	if err := os.WriteFile(tmp, b, 0o644); err != nil {
		return err
	}
	return os.Rename(tmp, s.path)
}

func (s *Store) get(user core.UserID) *userDoc {
	if doc, ok := s.data[user]; ok {
		return doc
	}
	doc := &userDoc{}
	s.data[user] = doc
	return doc
}

func (s *Store) GetStats(_ context.Context, user core.UserID) (core.UserStats, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.get(user)
	if doc.Stats == nil {
		return core.UserStats{}, false, nil
	}
	return *doc.Stats, true, nil
}

func (s *Store) AddXP(_ context.Context, user core.UserID, delta int64) (core.UserStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.get(user)
	current := int64(0)
	if doc.Stats != nil {
		current = doc.Stats.XP
	}
	next, err := core.AddSafe(current, delta)
	if err != nil {
		return core.UserStats{}, err
	}
	updated := core.UserStats{
		UserID:      user,
		XP:          next,
		Level:       core.CalculateLevel(next),
		LastUpdated: time.Now().UTC(),
	}
	// commit to the cache only once the write is on disk, so a failed
	// persist leaves the previous state intact for a retry
	prev := doc.Stats
	doc.Stats = &updated
	if err := s.persist(); err != nil {
		doc.Stats = prev
		return core.UserStats{}, err
	}
	return updated, nil
}

func (s *Store) UnlockedSlugs(_ context.Context, user core.UserID) ([]core.Slug, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.get(user)
	slugs := make([]core.Slug, len(doc.Achievements))
	for i, rec := range doc.Achievements {
		slugs[i] = rec.Slug
	}
	return slugs, nil
}

func (s *Store) RecordUnlock(_ context.Context, user core.UserID, slug core.Slug, at time.Time) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.get(user)
	for _, rec := range doc.Achievements {
		if rec.Slug == slug {
			return false, nil
		}
	}
	doc.Achievements = append(doc.Achievements, core.AchievementRecord{UserID: user, Slug: slug, UnlockedAt: at})
	if err := s.persist(); err != nil {
		// drop the staged record so a retry can insert it again
		doc.Achievements = doc.Achievements[:len(doc.Achievements)-1]
		return false, err
	}
	return true, nil
}

func (s *Store) Achievements(_ context.Context, user core.UserID) ([]core.AchievementRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	doc := s.get(user)
	out := make([]core.AchievementRecord, len(doc.Achievements))
	copy(out, doc.Achievements)
	return out, nil
}

var _ engine.StatsStore = (*Store)(nil)
var _ engine.AchievementStore = (*Store)(nil)
