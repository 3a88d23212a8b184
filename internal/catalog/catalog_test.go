package catalog

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"reelmatch/internal/services"
)

func writeSnapshot(t *testing.T, dir, name, content string) {
	t.Helper()
	if err := os.WriteFile(filepath.Join(dir, name), []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestLoadMergesSnapshots(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "alice.json", `[
		{"film_slug": "heat-1995", "title": "Heat", "year": 1995, "imdb_id": "tt0113277", "tmdb_id": "949"},
		{"film_slug": "inception", "title": "Inception", "year": 2010}
	]`)
	writeSnapshot(t, dir, "bob.json", `[
		{"film_slug": "brazil", "title": "Brazil", "year": 1985}
	]`)

	entries, err := Load(dir, nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	// File-name order keeps the scan order stable across runs.
	if entries[0].Slug != "heat-1995" || entries[2].Slug != "brazil" {
		t.Fatalf("unexpected order: %v, %v", entries[0].Slug, entries[2].Slug)
	}
}

func TestLoadSkipsUnreadableSnapshot(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "alice.json", `[{"film_slug": "brazil", "title": "Brazil"}]`)
	writeSnapshot(t, dir, "broken.json", `{not json`)

	entries, err := Load(dir, nil, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
}

func TestLoadFiltersByUsername(t *testing.T) {
	dir := t.TempDir()
	writeSnapshot(t, dir, "alice.json", `[{"film_slug": "heat-1995", "title": "Heat"}]`)
	writeSnapshot(t, dir, "bob.json", `[{"film_slug": "brazil", "title": "Brazil"}]`)

	entries, err := Load(dir, []string{"Alice"}, nil)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if len(entries) != 1 || entries[0].Slug != "heat-1995" {
		t.Fatalf("unexpected entries: %+v", entries)
	}
}

func TestLoadEmptyDirFails(t *testing.T) {
	_, err := Load(t.TempDir(), nil, nil)
	if err == nil {
		t.Fatal("expected error for empty catalog dir")
	}
	if !errors.Is(err, services.ErrInputMissing) {
		t.Fatalf("error not marked as missing input: %v", err)
	}
	if !services.IsFatal(err) {
		t.Fatal("missing catalog must be fatal")
	}
}

func TestFindBySlug(t *testing.T) {
	entries := []Entry{
		{Slug: "heat-1995", Title: "Heat"},
		{Slug: "inception", Title: "Inception"},
	}
	entry, ok := FindBySlug(entries, "inception")
	if !ok || entry.Title != "Inception" {
		t.Fatalf("FindBySlug: ok=%v entry=%+v", ok, entry)
	}
	if _, ok := FindBySlug(entries, "absent"); ok {
		t.Fatal("unexpected hit")
	}
	if _, ok := FindBySlug(entries, "  "); ok {
		t.Fatal("blank slug must miss")
	}
}

func TestFindByIMDB(t *testing.T) {
	entries := []Entry{
		{Slug: "heat-1995", IMDBID: "tt0113277"},
		{Slug: "no-ids"},
	}
	entry, ok := FindByIMDB(entries, "tt0113277")
	if !ok || entry.Slug != "heat-1995" {
		t.Fatalf("FindByIMDB: ok=%v entry=%+v", ok, entry)
	}
	// Entries without ids must never match an empty query.
	if _, ok := FindByIMDB(entries, ""); ok {
		t.Fatal("empty id must miss")
	}
}
