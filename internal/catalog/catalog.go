// Package catalog loads the known-film snapshot used as the fuzzy match
// universe: every letterboxd film the configured users have watched or
// watchlisted, aggregated across per-user snapshot files.
package catalog

import (
	"encoding/json"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"reelmatch/internal/logging"
	"reelmatch/internal/services"
)

// Entry is one known film from a letterboxd snapshot. Entries are
// read-only during resolution.
type Entry struct {
	Slug   string `json:"film_slug"`
	Title  string `json:"title"`
	Year   int    `json:"year,omitempty"`
	IMDBID string `json:"imdb_id,omitempty"`
	TMDBID string `json:"tmdb_id,omitempty"`
}

// Load reads per-user snapshots under dir and merges the entries in
// file-name order so repeated runs see a stable scan order. With no
// usernames configured every *.json file counts; otherwise only the
// named users' snapshots form the match universe. An empty result is an
// error: matching without a catalog cannot succeed.
func Load(dir string, usernames []string, logger *slog.Logger) ([]Entry, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	paths, err := filepath.Glob(filepath.Join(dir, "*.json"))
	if err != nil {
		return nil, services.Wrap(services.ErrInputMissing, "catalog", "glob", dir, err)
	}
	paths = filterByUsername(paths, usernames)
	sort.Strings(paths)

	var entries []Entry
	for _, path := range paths {
		fileEntries, err := loadFile(path)
		if err != nil {
			logger.Warn("skipping unreadable catalog snapshot",
				logging.String("path", path),
				logging.Error(err))
			continue
		}
		entries = append(entries, fileEntries...)
	}

	if len(entries) == 0 {
		return nil, services.Wrap(services.ErrInputMissing, "catalog", "load",
			fmt.Sprintf("no letterboxd snapshot files under %s", dir), nil)
	}

	logger.Debug("loaded catalog snapshot",
		logging.Int("entries", len(entries)),
		logging.Int("files", len(paths)))
	return entries, nil
}

func filterByUsername(paths, usernames []string) []string {
	if len(usernames) == 0 {
		return paths
	}
	wanted := make(map[string]struct{}, len(usernames))
	for _, name := range usernames {
		wanted[strings.ToLower(strings.TrimSpace(name))+".json"] = struct{}{}
	}
	filtered := paths[:0]
	for _, path := range paths {
		if _, ok := wanted[strings.ToLower(filepath.Base(path))]; ok {
			filtered = append(filtered, path)
		}
	}
	return filtered
}

func loadFile(path string) ([]Entry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	var entries []Entry
	if err := json.Unmarshal(data, &entries); err != nil {
		return nil, fmt.Errorf("parse %s: %w", filepath.Base(path), err)
	}
	return entries, nil
}

// FindBySlug returns the first entry with the given slug.
func FindBySlug(entries []Entry, slug string) (Entry, bool) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return Entry{}, false
	}
	for _, entry := range entries {
		if entry.Slug == slug {
			return entry, true
		}
	}
	return Entry{}, false
}

// FindByIMDB returns the first entry carrying the given IMDB id.
func FindByIMDB(entries []Entry, imdbID string) (Entry, bool) {
	imdbID = strings.TrimSpace(imdbID)
	if imdbID == "" {
		return Entry{}, false
	}
	for _, entry := range entries {
		if entry.IMDBID == imdbID {
			return entry, true
		}
	}
	return Entry{}, false
}
