package cache

import (
	"encoding/json"
	"os"
	"path/filepath"
	"testing"
	"time"

	"reelmatch/internal/identity"
)

func testRecord(slug string) identity.Record {
	return identity.Record{
		LetterboxdSlug: slug,
		IMDBID:         "tt0113277",
		TMDBID:         "949",
		Method:         identity.MethodFuzzy,
		Score:          95,
		MatchedAt:      time.Date(2026, 8, 1, 12, 0, 0, 0, time.UTC),
	}
}

func TestStoreRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")

	store := NewStore(path, nil)
	store.Put("Heat.1995.1080p", testRecord("heat-1995"))
	store.Put("Inception (2010)", testRecord("inception"))
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}

	reloaded := NewStore(path, nil)
	if reloaded.Count() != 2 {
		t.Fatalf("Count = %d, want 2", reloaded.Count())
	}
	record, ok := reloaded.Lookup("Heat.1995.1080p")
	if !ok {
		t.Fatal("lookup miss after reload")
	}
	if record.LetterboxdSlug != "heat-1995" || record.Method != identity.MethodFuzzy || record.Score != 95 {
		t.Fatalf("record altered: %+v", record)
	}
	if !record.MatchedAt.Equal(testRecord("").MatchedAt) {
		t.Fatalf("timestamp altered: %v", record.MatchedAt)
	}
}

func TestStoreMissingFileStartsEmpty(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "absent.json"), nil)
	if store.Count() != 0 {
		t.Fatalf("Count = %d, want 0", store.Count())
	}
}

func TestStoreCorruptFileStartsEmpty(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	if err := os.WriteFile(path, []byte("{not json"), 0o644); err != nil {
		t.Fatal(err)
	}
	store := NewStore(path, nil)
	if store.Count() != 0 {
		t.Fatalf("Count = %d, want 0", store.Count())
	}

	// The corrupt file is replaced on the next save.
	store.Put("Heat.1995.1080p", testRecord("heat-1995"))
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if NewStore(path, nil).Count() != 1 {
		t.Fatal("save did not replace corrupt file")
	}
}

func TestStoreDropsMalformedEntries(t *testing.T) {
	path := filepath.Join(t.TempDir(), "cache.json")
	raw := map[string]any{
		"good": map[string]any{
			"letterboxd_slug": "heat-1995",
			"match_method":    "fuzzy",
			"match_score":     95,
			"matched_at":      "2026-08-01T12:00:00Z",
		},
		"no-slug": map[string]any{
			"match_method": "fuzzy",
			"match_score":  95,
		},
		"bad-method": map[string]any{
			"letterboxd_slug": "heat-1995",
			"match_method":    "psychic",
			"match_score":     95,
		},
	}
	data, err := json.Marshal(raw)
	if err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatal(err)
	}

	store := NewStore(path, nil)
	if store.Count() != 1 {
		t.Fatalf("Count = %d, want 1", store.Count())
	}
	if _, ok := store.Lookup("good"); !ok {
		t.Fatal("valid entry dropped")
	}
}

func TestStoreRemoveAndClear(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "cache.json"), nil)
	store.Put("a", testRecord("a-slug"))
	store.Put("b", testRecord("b-slug"))

	if !store.Remove("a") {
		t.Fatal("Remove(a) = false")
	}
	if store.Remove("a") {
		t.Fatal("second Remove(a) = true")
	}
	store.Clear()
	if store.Count() != 0 {
		t.Fatalf("Count after Clear = %d", store.Count())
	}
}

func TestStoreKeysSorted(t *testing.T) {
	store := NewStore(filepath.Join(t.TempDir(), "cache.json"), nil)
	store.Put("zulu", testRecord("z"))
	store.Put("alpha", testRecord("a"))
	store.Put("mike", testRecord("m"))

	keys := store.Keys()
	want := []string{"alpha", "mike", "zulu"}
	if len(keys) != len(want) {
		t.Fatalf("Keys = %v", keys)
	}
	for i := range want {
		if keys[i] != want[i] {
			t.Fatalf("Keys = %v, want %v", keys, want)
		}
	}
}

func TestStoreSaveLeavesNoTempFile(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "cache.json")
	store := NewStore(path, nil)
	store.Put("a", testRecord("a-slug"))
	if err := store.Save(); err != nil {
		t.Fatalf("Save: %v", err)
	}
	if _, err := os.Stat(path + ".tmp"); !os.IsNotExist(err) {
		t.Fatal("temp file left behind")
	}
}
