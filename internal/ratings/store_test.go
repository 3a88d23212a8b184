package ratings

import (
	"os"
	"path/filepath"
	"testing"
	"time"
)

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings_cache.json")

	store := NewStore(path, 0, nil)
	store.Put("heat-1995", Entry{
		Letterboxd: 4.3,
		IMDB:       8.3,
		IMDBID:     "tt0113277",
		Title:      "Heat",
		Year:       1995,
		FetchedAt:  time.Now(),
	})
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := NewStore(path, 0, nil)
	entry, ok := reloaded.Lookup("heat-1995")
	if !ok {
		t.Fatal("entry lost across reload")
	}
	if entry.Letterboxd != 4.3 || entry.IMDB != 8.3 || entry.IMDBID != "tt0113277" {
		t.Fatalf("unexpected entry: %+v", entry)
	}
}

func TestStoreLookupExpiresStaleEntries(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "ratings_cache.json"), time.Hour, nil)
	store.Put("fresh", Entry{Letterboxd: 4.0, FetchedAt: time.Now()})
	store.Put("stale", Entry{Letterboxd: 3.5, FetchedAt: time.Now().Add(-2 * time.Hour)})

	if _, ok := store.Lookup("fresh"); !ok {
		t.Fatal("fresh entry rejected")
	}
	if _, ok := store.Lookup("stale"); ok {
		t.Fatal("stale entry returned")
	}
	// Stale entries stay on disk until overwritten.
	if store.Count() != 2 {
		t.Fatalf("expected 2 stored entries, got %d", store.Count())
	}
}

func TestStoreLookupKeepsUndatedEntries(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "ratings_cache.json"), time.Hour, nil)
	store.Put("legacy", Entry{Letterboxd: 4.1})

	if _, ok := store.Lookup("legacy"); !ok {
		t.Fatal("entry without a fetch timestamp should never expire")
	}
}

func TestStoreLoadDegradesToEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "ratings_cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatalf("write corrupt cache: %v", err)
	}

	store := NewStore(path, 0, nil)
	if store.Count() != 0 {
		t.Fatalf("corrupt cache should load empty, got %d entries", store.Count())
	}
}
