package report

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"sort"
	"strings"

	"reelmatch/internal/identity"
	"reelmatch/internal/library"
	"reelmatch/internal/services"
)

// WatchedFilm is one entry from the watched-films list.
type WatchedFilm struct {
	Title string `json:"title"`
	Year  int    `json:"year,omitempty"`
}

// LoadWatched reads the watched-films list.
func LoadWatched(path string) ([]WatchedFilm, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, services.Wrap(services.ErrInputMissing, "report", "load watched",
				path+" not found; sync letterboxd data first", err)
		}
		return nil, err
	}
	var watched []WatchedFilm
	if err := json.Unmarshal(data, &watched); err != nil {
		return nil, fmt.Errorf("parse %s: %w", path, err)
	}
	return watched, nil
}

// IsWatched reports whether a library title fuzzily matches any watched
// film, and returns the matched title when it does.
func IsWatched(matcher *identity.Matcher, title string, year int, watched []WatchedFilm) (bool, string) {
	for _, film := range watched {
		if film.Title == "" {
			continue
		}
		if match, _ := matcher.TitlesMatch(title, film.Title, year, film.Year); match {
			return true, film.Title
		}
	}
	return false, ""
}

// Unwatched returns the library movies absent from the watched list,
// sorted by year then title (unknown years first).
func Unwatched(matcher *identity.Matcher, movies []library.Item, watched []WatchedFilm) []library.Item {
	var unwatched []library.Item
	for _, item := range movies {
		if seen, _ := IsWatched(matcher, item.Title, item.Year, watched); !seen {
			unwatched = append(unwatched, item)
		}
	}
	sort.SliceStable(unwatched, func(i, j int) bool {
		if unwatched[i].Year != unwatched[j].Year {
			return unwatched[i].Year < unwatched[j].Year
		}
		return strings.ToLower(unwatched[i].Title) < strings.ToLower(unwatched[j].Title)
	})
	return unwatched
}

// RenderUnwatched formats the unwatched list as the plain-text report
// written to disk.
func RenderUnwatched(items []library.Item) string {
	var b strings.Builder
	b.WriteString("# Unwatched Films in Media Library\n\n")
	fmt.Fprintf(&b, "Total: %d films\n\n", len(items))
	for _, item := range items {
		fmt.Fprintf(&b, "(%s) %s\n", yearLabel(item.Year), item.Title)
	}
	return b.String()
}

// WriteUnwatched persists the report to path.
func WriteUnwatched(path string, items []library.Item) error {
	return os.WriteFile(path, []byte(RenderUnwatched(items)), 0o644)
}
