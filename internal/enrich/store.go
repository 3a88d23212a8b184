// Package enrich fills in IMDB/TMDB ids for resolved letterboxd slugs by
// scraping film pages through a bounded worker pool. Results are cached
// per slug so each film page is fetched at most once.
package enrich

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

// Entry is one cached slug-to-ids mapping.
type Entry struct {
	IMDBID    string    `json:"imdb_id,omitempty"`
	TMDBID    string    `json:"tmdb_id,omitempty"`
	Title     string    `json:"title,omitempty"`
	Year      int       `json:"year,omitempty"`
	ScrapedAt time.Time `json:"scraped_at"`
}

// Store persists the slug cache as a JSON object keyed by slug.
type Store struct {
	path   string
	logger *slog.Logger
	mu     sync.Mutex
	data   map[string]Entry
}

// NewStore loads the slug cache at path, degrading to empty on failure.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "slugcache")

	s := &Store{path: path, logger: logger, data: make(map[string]Entry)}
	if err := s.load(); err != nil {
		logger.Warn("failed to load slug cache; starting empty",
			logging.String("path", path),
			logging.Error(err))
	}
	return s
}

// Lookup returns the cached entry for a slug.
func (s *Store) Lookup(slug string) (Entry, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.data[slug]
	return entry, ok
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

// Clear drops every entry.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.data = make(map[string]Entry)
}

// Count returns the number of cached slugs.
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
		return fmt.Errorf("marshal slug cache: %w", err)
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
		return fmt.Errorf("read slug cache: %w", err)
	}
	if len(data) == 0 {
		return nil
	}
	var entries map[string]Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse slug cache: %w", err)
	}
	s.data = entries
	s.logger.Debug("loaded slug cache", logging.Int("entries", len(entries)))
	return nil
}
