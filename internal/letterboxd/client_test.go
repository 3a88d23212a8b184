package letterboxd

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"reelmatch/internal/ratelimit"
)

type autocompleteFilm struct {
	Name        string `json:"name"`
	ReleaseYear int    `json:"releaseYear"`
	Slug        string `json:"slug"`
}

func autocompleteServer(t *testing.T, films map[string][]autocompleteFilm) *httptest.Server {
	t.Helper()
	return httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/s/autocompletefilm" {
			http.NotFound(w, r)
			return
		}
		query := r.URL.Query().Get("q")
		payload := map[string]any{
			"result": true,
			"data":   films[query],
		}
		if films[query] == nil {
			payload["data"] = []autocompleteFilm{}
		}
		if err := json.NewEncoder(w).Encode(payload); err != nil {
			t.Errorf("encode: %v", err)
		}
	}))
}

func testClient(t *testing.T, baseURL string, opts ...Option) *Client {
	t.Helper()
	limiter := ratelimit.New(time.Millisecond)
	client, err := New(baseURL, limiter, nil, nil, opts...)
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	return client
}

func TestSearchFindsFilm(t *testing.T) {
	server := autocompleteServer(t, map[string][]autocompleteFilm{
		"Parasite 2019": {
			{Name: "Parasite", ReleaseYear: 2019, Slug: "parasite-2019"},
		},
	})
	defer server.Close()

	client := testClient(t, server.URL)
	result, err := client.Search(context.Background(), "Parasite", 2019)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result == nil {
		t.Fatal("expected result")
	}
	if result.Slug != "parasite-2019" || result.Year != 2019 {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Score < 60 {
		t.Fatalf("score = %.1f, want >= 60", result.Score)
	}
}

func TestSearchFallsBackToBareTitle(t *testing.T) {
	// Only the title-without-year query returns data.
	server := autocompleteServer(t, map[string][]autocompleteFilm{
		"Parasite": {
			{Name: "Parasite", ReleaseYear: 2019, Slug: "parasite-2019"},
		},
	})
	defer server.Close()

	client := testClient(t, server.URL)
	result, err := client.Search(context.Background(), "Parasite", 2019)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result == nil || result.Slug != "parasite-2019" {
		t.Fatalf("unexpected result: %+v", result)
	}
}

func TestSearchYearConstraint(t *testing.T) {
	server := autocompleteServer(t, map[string][]autocompleteFilm{
		"Suspiria": {
			{Name: "Suspiria", ReleaseYear: 2018, Slug: "suspiria-2018"},
			{Name: "Suspiria", ReleaseYear: 1977, Slug: "suspiria"},
		},
	})
	defer server.Close()

	client := testClient(t, server.URL)
	result, err := client.Search(context.Background(), "Suspiria", 1977)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result == nil || result.Slug != "suspiria" {
		t.Fatalf("year constraint picked wrong film: %+v", result)
	}
}

func TestSearchRejectsDissimilarResults(t *testing.T) {
	server := autocompleteServer(t, map[string][]autocompleteFilm{
		"Heat": {
			{Name: "Completely Unrelated Documentary", ReleaseYear: 1995, Slug: "unrelated"},
		},
	})
	defer server.Close()

	client := testClient(t, server.URL)
	result, err := client.Search(context.Background(), "Heat", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result != nil {
		t.Fatalf("dissimilar result accepted: %+v", result)
	}
}

func TestSearchEmptyTitle(t *testing.T) {
	client := testClient(t, "https://letterboxd.com")
	result, err := client.Search(context.Background(), "  ", 2019)
	if err != nil || result != nil {
		t.Fatalf("empty title: result=%+v err=%v", result, err)
	}
}

func TestSearchServerError(t *testing.T) {
	server := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	}))
	defer server.Close()

	client := testClient(t, server.URL)
	if _, err := client.Search(context.Background(), "Heat", 1995); err == nil {
		t.Fatal("expected error for failing collaborator")
	}
}

func TestSearchThresholdOption(t *testing.T) {
	server := autocompleteServer(t, map[string][]autocompleteFilm{
		"Heat": {
			{Name: "Heat 2", ReleaseYear: 0, Slug: "heat-2"},
		},
	})
	defer server.Close()

	strict := testClient(t, server.URL, WithSearchThreshold(99))
	result, err := strict.Search(context.Background(), "Heat", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result != nil {
		t.Fatalf("strict threshold accepted %+v", result)
	}
}

func TestWithHTTPClient(t *testing.T) {
	custom := &http.Client{Timeout: 3 * time.Second}
	client, err := New("https://letterboxd.com", nil, nil, nil, WithHTTPClient(custom))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.httpClient != custom {
		t.Fatal("custom http client not installed")
	}
	// A nil client keeps the default rather than breaking requests.
	client, err = New("https://letterboxd.com", nil, nil, nil, WithHTTPClient(nil))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	if client.httpClient == nil {
		t.Fatal("default http client lost")
	}
}

func TestNewRequiresBaseURL(t *testing.T) {
	if _, err := New("   ", nil, nil, nil); err == nil {
		t.Fatal("expected error for empty base url")
	}
}

func TestSearchVerifiesWithNormalizedTitles(t *testing.T) {
	server := autocompleteServer(t, map[string][]autocompleteFilm{
		"The Godfather Part II": {
			{Name: "The Godfather: Part II", ReleaseYear: 1974, Slug: "the-godfather-part-ii"},
		},
	})
	defer server.Close()

	client := testClient(t, server.URL)
	result, err := client.Search(context.Background(), "The Godfather Part II", 0)
	if err != nil {
		t.Fatalf("Search: %v", err)
	}
	if result == nil || result.Slug != "the-godfather-part-ii" {
		t.Fatalf("unexpected result: %+v", result)
	}
	if result.Score != 100 {
		t.Fatalf("score = %.1f, want 100", result.Score)
	}
}
