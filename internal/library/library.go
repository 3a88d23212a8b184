// Package library reads the scanned media library snapshot produced by
// the external scanner. Items are immutable inputs to resolution.
package library

import (
	"encoding/json"
	"log/slog"
	"os"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"

	"reelmatch/internal/logging"
	"reelmatch/internal/services"
)

// Item is one scanned folder from the media library.
type Item struct {
	Folder string `json:"folder"`
	Type   string `json:"type"`
	Title  string `json:"title,omitempty"`
	Year   int    `json:"year,omitempty"`
	// IMDBID carries an id embedded in file metadata, when the scanner
	// found one.
	IMDBID string `json:"imdb_id,omitempty"`
	Error  string `json:"error,omitempty"`
}

// LoadMovies reads the library snapshot and returns movie items in scan
// order. Items flagged with scan errors are dropped; items without a
// scanner-extracted title get one parsed from the folder name.
func LoadMovies(path string, logger *slog.Logger) ([]Item, error) {
	if logger == nil {
		logger = logging.NewNop()
	}

	data, err := os.ReadFile(path)
	if err != nil {
		return nil, services.Wrap(services.ErrInputMissing, "library", "load",
			path+" not found; run the snapshot scanner first", err)
	}

	var items []Item
	if err := json.Unmarshal(data, &items); err != nil {
		return nil, services.Wrap(services.ErrInputMissing, "library", "parse", path, err)
	}

	movies := make([]Item, 0, len(items))
	skipped := 0
	for _, item := range items {
		if item.Type != "movie" {
			continue
		}
		if item.Error != "" || strings.TrimSpace(item.Folder) == "" {
			skipped++
			continue
		}
		if strings.TrimSpace(item.Title) == "" {
			title, year := ParseTitleYear(item.Folder)
			item.Title = title
			if item.Year == 0 {
				item.Year = year
			}
		}
		if item.Title == "" {
			skipped++
			continue
		}
		movies = append(movies, item)
	}

	logger.Debug("loaded media library",
		logging.Int("movies", len(movies)),
		logging.Int("skipped", skipped))
	return movies, nil
}

var (
	parenYearPattern   = regexp.MustCompile(`^(.+?)\s*\((\d{4})\)`)
	dottedYearPattern  = regexp.MustCompile(`^(.+?)[.\s]((?:19|20)\d{2})(?:[.\s]|$)`)
	qualityTailPattern = regexp.MustCompile(`(?i)[.\s](?:2160p|1080p|720p|480p|4K|UHD|BluRay|WEB|HDR)`)
)

// ParseTitleYear extracts a display title and release year from a release
// folder name. "Title (2024)" wins over "Title.2024.1080p..."; with no
// year present the quality tail is stripped and the rest becomes the
// title. Year is 0 when unknown.
func ParseTitleYear(folder string) (string, int) {
	if m := parenYearPattern.FindStringSubmatch(folder); m != nil {
		year, _ := strconv.Atoi(m[2])
		return cleanTitle(m[1]), year
	}
	if m := dottedYearPattern.FindStringSubmatch(folder); m != nil {
		year, _ := strconv.Atoi(m[2])
		return capitalize(cleanTitle(m[1])), year
	}
	title := folder
	if loc := qualityTailPattern.FindStringIndex(folder); loc != nil {
		title = folder[:loc[0]]
	}
	return TitleFromFolder(title), 0
}

// TitleFromFolder derives a display title from arbitrary separators,
// title-cased for presentation.
func TitleFromFolder(folder string) string {
	cleaned := strings.Builder{}
	prevSpace := false
	for _, r := range folder {
		switch {
		case unicode.IsLetter(r) || unicode.IsNumber(r):
			cleaned.WriteRune(r)
			prevSpace = false
		case unicode.IsSpace(r) || r == '-' || r == '_' || r == '.':
			if !prevSpace {
				cleaned.WriteRune(' ')
				prevSpace = true
			}
		}
	}
	title := strings.TrimSpace(cleaned.String())
	if title == "" {
		return ""
	}
	return cases.Title(language.Und).String(title)
}

func cleanTitle(s string) string {
	s = strings.ReplaceAll(s, ".", " ")
	s = strings.ReplaceAll(s, "_", " ")
	return strings.TrimSpace(s)
}

func capitalize(s string) string {
	if s == "" {
		return s
	}
	runes := []rune(s)
	if unicode.IsLower(runes[0]) {
		runes[0] = unicode.ToUpper(runes[0])
	}
	return string(runes)
}
