package identity

import (
	"fmt"
	"strings"
	"time"
)

// Method identifies which cascade stage produced a record.
type Method string

const (
	MethodCache            Method = "cache"
	MethodManualOverride   Method = "manual_override"
	MethodEmbeddedMetadata Method = "embedded_metadata"
	MethodFuzzy            Method = "fuzzy"
	MethodExternalSearch   Method = "external_search"
)

func (m Method) valid() bool {
	switch m {
	case MethodCache, MethodManualOverride, MethodEmbeddedMetadata, MethodFuzzy, MethodExternalSearch:
		return true
	}
	return false
}

// Record is a resolved identity for a local folder. Once written it is
// authoritative for that folder until a force refresh.
type Record struct {
	LetterboxdSlug string    `json:"letterboxd_slug"`
	IMDBID         string    `json:"imdb_id,omitempty"`
	TMDBID         string    `json:"tmdb_id,omitempty"`
	Method         Method    `json:"match_method"`
	Score          float64   `json:"match_score"`
	MatchedAt      time.Time `json:"matched_at"`
}

// Validate rejects partially-populated records so malformed persisted
// state surfaces at load time instead of during matching.
func (r Record) Validate() error {
	hasID := strings.TrimSpace(r.LetterboxdSlug) != "" ||
		strings.TrimSpace(r.IMDBID) != "" ||
		strings.TrimSpace(r.TMDBID) != ""
	if !hasID {
		return fmt.Errorf("record carries no identifier")
	}
	if !r.Method.valid() {
		return fmt.Errorf("unknown match method %q", r.Method)
	}
	if r.Score < 0 || r.Score > 100 {
		return fmt.Errorf("match score %v outside [0,100]", r.Score)
	}
	return nil
}

// Override is a user-asserted canonical identity for a folder. Overrides
// are authored by hand and never written by automation.
type Override struct {
	LetterboxdSlug string `json:"letterboxd_slug"`
	Note           string `json:"note,omitempty"`
}

// SearchResult is the outcome of a live external search.
type SearchResult struct {
	Slug  string
	Title string
	Year  int
	Score float64
}
