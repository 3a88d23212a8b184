// Package ratings gathers Letterboxd and IMDB ratings for resolved films
// through a bounded worker pool. Fetched ratings are cached per slug with
// a time-to-live, so each film is re-fetched only after the cache entry
// goes stale.
package ratings

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"reelmatch/internal/logging"
)

// DefaultTTL is how long a cached rating stays fresh.
const DefaultTTL = 180 * 24 * time.Hour

// Entry is one cached slug-to-ratings mapping. A zero rating means the
// site had none; the entry is cached anyway so the lookup is not retried
// until it goes stale.
type Entry struct {
	Letterboxd float64   `json:"letterboxd_rating,omitempty"`
	IMDB       float64   `json:"imdb_rating,omitempty"`
	IMDBID     string    `json:"imdb_id,omitempty"`
	Title      string    `json:"title,omitempty"`
	Year       int       `json:"year,omitempty"`
	FetchedAt  time.Time `json:"fetched_at"`
}

// Store persists the ratings cache as a JSON object keyed by slug.
type Store struct {
	path   string
	ttl    time.Duration
	logger *slog.Logger
	mu     sync.Mutex
	data   map[string]Entry
}

// NewStore loads the ratings cache at path, degrading to empty on
// failure. ttl falls back to DefaultTTL.
func NewStore(path string, ttl time.Duration, logger *slog.Logger) *Store {
	if ttl <= 0 {
		ttl = DefaultTTL
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "ratingscache")

	s := &Store{path: path, ttl: ttl, logger: logger, data: make(map[string]Entry)}
	if err := s.load(); err != nil {
		logger.Warn("failed to load ratings cache; starting empty",
			logging.String("path", path),
			logging.Error(err))
	}
	return s
}

// Lookup returns the cached entry for a slug if it is still fresh.
// Entries without a fetch timestamp predate the TTL and never expire.
func (s *Store) Lookup(slug string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[slug]
	if !ok {
		return Entry{}, false
	}
	if !entry.FetchedAt.IsZero() && time.Since(entry.FetchedAt) > s.ttl {
		return Entry{}, false
	}
	return entry, true
}

// Put stores an entry in memory.
func (s *Store) Put(slug string, entry Entry) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data[slug] = entry
}

// Count returns the number of cached slugs, fresh or stale.
func (s *Store) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.data)
}

// Save writes the cache to disk atomically.
func (s *Store) Save() error {
	s.mu.Lock()
	data, err := json.MarshalIndent(s.data, "", "  ")
	s.mu.Unlock()
	if err != nil {
		return fmt.Errorf("marshal ratings cache: %w", err)
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("create cache directory: %w", err)
	}
	tmpPath := s.path + ".tmp"
	if err := os.WriteFile(tmpPath, data, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, s.path); err != nil {
		os.Remove(tmpPath)
		return fmt.Errorf("rename temp file: %w", err)
	}
	return nil
}

func (s *Store) load() error {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return fmt.Errorf("read ratings cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse ratings cache: %w", err)
	}
	s.data = entries
	s.logger.Debug("loaded ratings cache", logging.Int("entries", len(entries)))
	return nil
}
