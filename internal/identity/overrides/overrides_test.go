package overrides

import (
	"os"
	"path/filepath"
	"testing"
)

func writeOverrides(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "manual_overrides.json")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestLoad(t *testing.T) {
	path := writeOverrides(t, `{
		"Brazil.1985.Criterion": {"letterboxd_slug": "brazil", "note": "ambiguous title"},
		"Solaris 1972": {"letterboxd_slug": "solaris"}
	}`)

	catalog := Load(path, nil)
	if catalog.Count() != 2 {
		t.Fatalf("Count = %d, want 2", catalog.Count())
	}
	override, ok := catalog.Lookup("Brazil.1985.Criterion")
	if !ok {
		t.Fatal("lookup miss")
	}
	if override.LetterboxdSlug != "brazil" || override.Note != "ambiguous title" {
		t.Fatalf("unexpected override: %+v", override)
	}
	if _, ok := catalog.Lookup("Unknown Folder"); ok {
		t.Fatal("unexpected hit")
	}
}

func TestLoadMissingFileIsEmpty(t *testing.T) {
	catalog := Load(filepath.Join(t.TempDir(), "absent.json"), nil)
	if catalog.Count() != 0 {
		t.Fatalf("Count = %d, want 0", catalog.Count())
	}
}

func TestLoadMalformedFileIsEmpty(t *testing.T) {
	path := writeOverrides(t, `{"Brazil": `)
	catalog := Load(path, nil)
	if catalog.Count() != 0 {
		t.Fatalf("Count = %d, want 0", catalog.Count())
	}
}

func TestLoadSkipsEmptySlugs(t *testing.T) {
	path := writeOverrides(t, `{
		"Good": {"letterboxd_slug": "good-film"},
		"No Slug": {"letterboxd_slug": "  "},
		"  ": {"letterboxd_slug": "orphan"}
	}`)

	catalog := Load(path, nil)
	if catalog.Count() != 1 {
		t.Fatalf("Count = %d, want 1", catalog.Count())
	}
	if _, ok := catalog.Lookup("Good"); !ok {
		t.Fatal("valid override dropped")
	}
}

func TestNilCatalogLookup(t *testing.T) {
	var catalog *Catalog
	if _, ok := catalog.Lookup("anything"); ok {
		t.Fatal("nil catalog returned a hit")
	}
	if catalog.Count() != 0 {
		t.Fatal("nil catalog count not zero")
	}
}
