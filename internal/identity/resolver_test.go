package identity_test

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"reelmatch/internal/catalog"
	"reelmatch/internal/identity"
	"reelmatch/internal/identity/cache"
	"reelmatch/internal/library"
)

type fakeOverrides map[string]identity.Override

func (f fakeOverrides) Lookup(folder string) (identity.Override, bool) {
	override, ok := f[folder]
	return override, ok
}

func testCatalog() []catalog.Entry {
	return []catalog.Entry{
		{Slug: "inception", Title: "Inception", Year: 2010, IMDBID: "tt1375666", TMDBID: "27205"},
		{Slug: "heat-1995", Title: "Heat", Year: 1995, IMDBID: "tt0113277", TMDBID: "949"},
		{Slug: "the-matrix-reloaded", Title: "The Matrix Reloaded", Year: 2003, IMDBID: "tt0234215", TMDBID: "604"},
	}
}

func newEmptyCache(t *testing.T) *cache.Store {
	t.Helper()
	return cache.NewStore(filepath.Join(t.TempDir(), "cache.json"), nil)
}

func TestResolveCacheHitIsAuthoritative(t *testing.T) {
	store := newEmptyCache(t)
	cached := identity.Record{
		LetterboxdSlug: "inception",
		IMDBID:         "tt1375666",
		Method:         identity.MethodFuzzy,
		Score:          96.5,
		MatchedAt:      time.Now().UTC(),
	}
	store.Put("Inception (2010)", cached)

	// An override exists for the same folder; the cache must still win.
	overrides := fakeOverrides{"Inception (2010)": {LetterboxdSlug: "something-else"}}

	resolver := identity.NewResolver(store, overrides, testCatalog(), nil, nil, nil)
	record := resolver.Resolve(context.Background(), library.Item{Folder: "Inception (2010)", Title: "Inception", Year: 2010})
	if record == nil {
		t.Fatal("expected cached record")
	}
	if record.LetterboxdSlug != "inception" || record.Method != identity.MethodFuzzy || record.Score != 96.5 {
		t.Fatalf("cached record altered: %+v", record)
	}
}

func TestResolveOverrideRecoverIDs(t *testing.T) {
	overrides := fakeOverrides{"Heat.1995.1080p": {LetterboxdSlug: "heat-1995"}}
	resolver := identity.NewResolver(newEmptyCache(t), overrides, testCatalog(), nil, nil, nil)

	record := resolver.Resolve(context.Background(), library.Item{Folder: "Heat.1995.1080p", Title: "Heat", Year: 1995})
	if record == nil {
		t.Fatal("expected override record")
	}
	if record.Method != identity.MethodManualOverride || record.Score != 100 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if record.IMDBID != "tt0113277" || record.TMDBID != "949" {
		t.Fatalf("catalog ids not recovered: %+v", record)
	}
}

func TestResolveOverrideUnknownSlugWins(t *testing.T) {
	overrides := fakeOverrides{"Obscure Film": {LetterboxdSlug: "obscure-film-1967"}}
	resolver := identity.NewResolver(newEmptyCache(t), overrides, testCatalog(), nil, nil, nil)

	record := resolver.Resolve(context.Background(), library.Item{Folder: "Obscure Film", Title: "Obscure Film"})
	if record == nil {
		t.Fatal("expected override record")
	}
	if record.LetterboxdSlug != "obscure-film-1967" || record.IMDBID != "" || record.TMDBID != "" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestResolveEmbeddedMetadataBeatsFuzzy(t *testing.T) {
	resolver := identity.NewResolver(newEmptyCache(t), nil, testCatalog(), nil, nil, nil)

	// The title alone would fuzzy-match inception, but the embedded id
	// points at heat and must take precedence.
	item := library.Item{Folder: "weird-rip", Title: "Inception", Year: 2010, IMDBID: "tt0113277"}
	record := resolver.Resolve(context.Background(), item)
	if record == nil {
		t.Fatal("expected record")
	}
	if record.Method != identity.MethodEmbeddedMetadata {
		t.Fatalf("method = %s, want %s", record.Method, identity.MethodEmbeddedMetadata)
	}
	if record.LetterboxdSlug != "heat-1995" || record.TMDBID != "949" || record.Score != 100 {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestResolveEmbeddedMetadataUnknownFallsThrough(t *testing.T) {
	resolver := identity.NewResolver(newEmptyCache(t), nil, testCatalog(), nil, nil, nil)

	item := library.Item{Folder: "Inception (2010)", Title: "Inception", Year: 2010, IMDBID: "tt9999999"}
	record := resolver.Resolve(context.Background(), item)
	if record == nil {
		t.Fatal("expected fuzzy fallback")
	}
	if record.Method != identity.MethodFuzzy || record.LetterboxdSlug != "inception" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestResolveFuzzyMatch(t *testing.T) {
	resolver := identity.NewResolver(newEmptyCache(t), nil, testCatalog(), nil, nil, nil)

	record := resolver.Resolve(context.Background(), library.Item{Folder: "Inception (2010)", Title: "Inception", Year: 2010})
	if record == nil {
		t.Fatal("expected fuzzy match")
	}
	if record.Method != identity.MethodFuzzy || record.Score != 100 || record.LetterboxdSlug != "inception" {
		t.Fatalf("unexpected record: %+v", record)
	}
}

func TestResolveFuzzyYearGate(t *testing.T) {
	resolver := identity.NewResolver(newEmptyCache(t), nil, testCatalog(), nil, nil, nil)

	// Identical title, year too far off: the catalog entry must not match.
	record := resolver.Resolve(context.Background(), library.Item{Folder: "x", Title: "Inception", Year: 2015})
	if record != nil {
		t.Fatalf("year gate failed: %+v", record)
	}
}

func TestResolveFuzzyTieKeepsFirstSeen(t *testing.T) {
	// Two catalog entries with identical titles and years both score 100;
	// the first in scan order must win on every run.
	entries := []catalog.Entry{
		{Slug: "gloria-2013", Title: "Gloria", Year: 2013},
		{Slug: "gloria-2013-remaster", Title: "Gloria", Year: 2013},
	}
	resolver := identity.NewResolver(newEmptyCache(t), nil, entries, nil, nil, nil)

	for i := 0; i < 3; i++ {
		record := resolver.Resolve(context.Background(), library.Item{Folder: "Gloria (2013)", Title: "Gloria", Year: 2013})
		if record == nil {
			t.Fatal("expected fuzzy match")
		}
		if record.LetterboxdSlug != "gloria-2013" {
			t.Fatalf("tie broke to %q, want first-seen gloria-2013", record.LetterboxdSlug)
		}
	}
}

func TestResolveFuzzySkipsTitlelessEntries(t *testing.T) {
	entries := []catalog.Entry{
		{Slug: "mystery-entry"},
		{Slug: "heat-1995", Title: "Heat", Year: 1995},
	}
	resolver := identity.NewResolver(newEmptyCache(t), nil, entries, nil, nil, nil)

	record := resolver.Resolve(context.Background(), library.Item{Folder: "Heat (1995)", Title: "Heat", Year: 1995})
	if record == nil || record.LetterboxdSlug != "heat-1995" {
		t.Fatalf("unexpected record: %+v", record)
	}

	// A catalog holding only malformed entries must not match anything,
	// even though an empty title scores 100 against an empty query.
	resolver = identity.NewResolver(newEmptyCache(t), nil, entries[:1], nil, nil, nil)
	if record := resolver.Resolve(context.Background(), library.Item{Folder: "x", Title: "Heat", Year: 1995}); record != nil {
		t.Fatalf("titleless entry matched: %+v", record)
	}
}

func TestResolveSearchStage(t *testing.T) {
	searched := 0
	search := func(ctx context.Context, title string, year int) (*identity.SearchResult, error) {
		searched++
		return &identity.SearchResult{Slug: "parasite-2019", Title: "Parasite", Year: 2019, Score: 92}, nil
	}
	resolver := identity.NewResolver(newEmptyCache(t), nil, testCatalog(), nil, search, nil)

	record := resolver.Resolve(context.Background(), library.Item{Folder: "Parasite (2019)", Title: "Parasite", Year: 2019})
	if record == nil {
		t.Fatal("expected search record")
	}
	if record.Method != identity.MethodExternalSearch || record.LetterboxdSlug != "parasite-2019" || record.Score != 92 {
		t.Fatalf("unexpected record: %+v", record)
	}
	if searched != 1 {
		t.Fatalf("search called %d times, want 1", searched)
	}
}

func TestResolveSearchErrorMeansUnmatched(t *testing.T) {
	search := func(ctx context.Context, title string, year int) (*identity.SearchResult, error) {
		return nil, errors.New("connection refused")
	}
	resolver := identity.NewResolver(newEmptyCache(t), nil, testCatalog(), nil, search, nil)

	record := resolver.Resolve(context.Background(), library.Item{Folder: "Parasite (2019)", Title: "Parasite", Year: 2019})
	if record != nil {
		t.Fatalf("collaborator failure must leave the item unmatched, got %+v", record)
	}
}

func TestResolveNoStageMatches(t *testing.T) {
	resolver := identity.NewResolver(newEmptyCache(t), nil, testCatalog(), nil, nil, nil)

	record := resolver.Resolve(context.Background(), library.Item{Folder: "Home Video 2003", Title: "Home Video", Year: 2003})
	if record != nil {
		t.Fatalf("expected nil record, got %+v", record)
	}
}
