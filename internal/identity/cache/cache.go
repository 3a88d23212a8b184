// Package cache persists resolved folder identities as a flat JSON object
// keyed by folder name. The whole file is read at batch start and
// rewritten on save; a missing or unreadable file degrades to an empty
// cache with a warning.
package cache

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"

	"reelmatch/internal/identity"
	"reelmatch/internal/logging"
)

// Store provides thread-safe access to the identity cache. Mutations stay
// in memory until Save.
type Store struct {
	path    string
	logger  *slog.Logger
	mu      sync.RWMutex
	entries map[string]identity.Record
}

// NewStore loads the cache at path. Load failures are not fatal: matching
// proceeds against an empty cache and the file is rewritten on save.
func NewStore(path string, logger *slog.Logger) *Store {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "idcache")

	s := &Store{
		path:    path,
		logger:  logger,
		entries: make(map[string]identity.Record),
	}
	if err := s.load(); err != nil {
		logger.Warn("failed to load identity cache; starting empty",
			logging.String("path", path),
			logging.Error(err))
	}
	return s
}

// Lookup returns the cached record for a folder key.
func (s *Store) Lookup(folder string) (identity.Record, bool) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return identity.Record{}, false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	record, ok := s.entries[folder]
	return record, ok
}

// Put stores a record in memory. Call Save to persist.
func (s *Store) Put(folder string, record identity.Record) {
	folder = strings.TrimSpace(folder)
	if folder == "" {
		return
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[folder] = record
}

// Remove drops one entry, reporting whether it existed.
func (s *Store) Remove(folder string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.entries[folder]; !ok {
		return false
	}
	delete(s.entries, folder)
	return true
}

// Clear drops every entry. Used by force refresh.
func (s *Store) Clear() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries = make(map[string]identity.Record)
}

// Count returns the number of cached records.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Keys returns the folder keys in sorted order.
func (s *Store) Keys() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	keys := make([]string, 0, len(s.entries))
	for key := range s.entries {
		keys = append(keys, key)
	}
	sort.Strings(keys)
	return keys
}

// Save writes the cache to disk atomically. Failure here is fatal for the
// caller: resolved work would otherwise vanish silently.
func (s *Store) Save() error {
	s.mu.RLock()
	data, err := json.MarshalIndent(s.entries, "", "  ")
	s.mu.RUnlock()
	if err != nil {
		return fmt.Errorf("marshal cache: %w", err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
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
		return fmt.Errorf("read cache file: %w", err)
	}
	if len(data) == 0 {
		return nil
	}

	var entries map[string]identity.Record
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("parse cache file: %w", err)
	}

	loaded := make(map[string]identity.Record, len(entries))
	dropped := 0
	for folder, record := range entries {
		if strings.TrimSpace(folder) == "" {
			continue
		}
		if err := record.Validate(); err != nil {
			s.logger.Warn("dropping malformed cache entry",
				logging.String("folder", folder),
				logging.Error(err))
			dropped++
			continue
		}
		loaded[folder] = record
	}
	s.entries = loaded

	s.logger.Debug("loaded identity cache",
		logging.Int("entries", len(loaded)),
		logging.Int("dropped", dropped),
		logging.String("path", s.path))
	return nil
}
