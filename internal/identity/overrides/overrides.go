// Package overrides loads user-authored identity assertions. The file is
// a JSON object mapping folder names to asserted letterboxd slugs; it is
// read-only here and takes precedence over every automatic stage except a
// prior cache hit.
package overrides

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"os"
	"strings"

	"reelmatch/internal/identity"
	"reelmatch/internal/logging"
)

// Catalog holds the loaded overrides.
type Catalog struct {
	entries map[string]identity.Override
}

// Load reads the overrides file at path. A missing or unreadable file
// yields an empty catalog with a warning; resolution proceeds without
// overrides rather than aborting the run.
func Load(path string, logger *slog.Logger) *Catalog {
	if logger == nil {
		logger = logging.NewNop()
	}
	logger = logging.WithComponent(logger, "overrides")

	empty := &Catalog{entries: map[string]identity.Override{}}

	data, err := os.ReadFile(path)
	if err != nil {
		if !errors.Is(err, fs.ErrNotExist) {
			logger.Warn("overrides unreadable; continuing without",
				logging.String("path", path),
				logging.Error(err))
		}
		return empty
	}

	var entries map[string]identity.Override
	if err := json.Unmarshal(data, &entries); err != nil {
		logger.Warn("overrides malformed; continuing without",
			logging.String("path", path),
			logging.Error(fmt.Errorf("parse overrides: %w", err)))
		return empty
	}

	cleaned := make(map[string]identity.Override, len(entries))
	for folder, override := range entries {
		folder = strings.TrimSpace(folder)
		override.LetterboxdSlug = strings.TrimSpace(override.LetterboxdSlug)
		if folder == "" || override.LetterboxdSlug == "" {
			logger.Warn("skipping override without folder or slug",
				logging.String("folder", folder))
			continue
		}
		cleaned[folder] = override
	}

	logger.Debug("loaded manual overrides", logging.Int("count", len(cleaned)))
	return &Catalog{entries: cleaned}
}

// Lookup returns the override for a folder key.
func (c *Catalog) Lookup(folder string) (identity.Override, bool) {
	if c == nil {
		return identity.Override{}, false
	}
	override, ok := c.entries[folder]
	return override, ok
}

// Count returns the number of loaded overrides.
func (c *Catalog) Count() int {
	if c == nil {
		return 0
	}
	return len(c.entries)
}
