// Package letterboxd talks to letterboxd.com: the autocomplete search API
// used as the live-search stage of the identity cascade, and film-page
// scraping for IMDB/TMDB ids.
package letterboxd

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"reelmatch/internal/identity"
	"reelmatch/internal/logging"
	"reelmatch/internal/ratelimit"
	"reelmatch/internal/services"
)

const (
	searchLimit = 10
	// Cascade fuzzy matching demands 85, but letterboxd pre-ranks its
	// autocomplete results, so a lower post-verification bar suffices.
	defaultSearchThreshold = 60.0

	userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"
)

// Client provides access to letterboxd.com.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
	matcher    *identity.Matcher
	threshold  float64
	logger     *slog.Logger
}

// Option configures a Client.
type Option func(*Client)

// WithHTTPClient overrides the default HTTP client.
func WithHTTPClient(client *http.Client) Option {
	return func(c *Client) {
		if client != nil {
			c.httpClient = client
		}
	}
}

// WithSearchThreshold overrides the minimum verification score for search
// results.
func WithSearchThreshold(threshold float64) Option {
	return func(c *Client) {
		if threshold > 0 {
			c.threshold = threshold
		}
	}
}

// New creates a letterboxd client. limiter may be shared with other
// callers; matcher verifies that returned titles resemble the query.
func New(baseURL string, limiter *ratelimit.Limiter, matcher *identity.Matcher, logger *slog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("letterboxd base url required")
	}
	if limiter == nil {
		limiter = ratelimit.New(0)
	}
	if matcher == nil {
		matcher = identity.NewMatcher(nil, 0)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	client := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    limiter,
		matcher:    matcher,
		threshold:  defaultSearchThreshold,
		logger:     logging.WithComponent(logger, "letterboxd"),
	}
	for _, opt := range opts {
		opt(client)
	}
	return client, nil
}

type autocompleteResponse struct {
	Result bool `json:"result"`
	Data   []struct {
		Name        string `json:"name"`
		ReleaseYear int    `json:"releaseYear"`
		Slug        string `json:"slug"`
	} `json:"data"`
}

// Search queries the autocomplete API for a film. Query variations are
// tried in order (title plus year first when a year is known) and the
// first result passing the year constraint and similarity verification
// wins. A nil result with nil error means no acceptable match.
func (c *Client) Search(ctx context.Context, title string, year int) (*identity.SearchResult, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return nil, nil
	}

	queries := []string{title}
	if year != 0 {
		queries = []string{fmt.Sprintf("%s %d", title, year), title}
	}

	var lastErr error
	for _, query := range queries {
		result, err := c.searchOnce(ctx, query, title, year)
		if err != nil {
			if ctx.Err() != nil {
				return nil, err
			}
			lastErr = err
			continue
		}
		if result != nil {
			return result, nil
		}
	}
	if lastErr != nil {
		return nil, services.Wrap(services.ErrCollaborator, "letterboxd", "search", title, lastErr)
	}
	return nil, nil
}

func (c *Client) searchOnce(ctx context.Context, query, title string, year int) (*identity.SearchResult, error) {
	if err := c.limiter.Wait(ctx, c.domain()); err != nil {
		return nil, err
	}

	endpoint := c.baseURL + "/s/autocompletefilm?" + url.Values{
		"q":     {query},
		"limit": {strconv.Itoa(searchLimit)},
	}.Encode()

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)
	req.Header.Set("Accept", "application/json, text/javascript, */*; q=0.01")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("autocomplete status %d", resp.StatusCode)
	}

	var payload autocompleteResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("decode autocomplete response: %w", err)
	}
	if !payload.Result {
		return nil, nil
	}

	normQuery := identity.Normalize(title)
	for _, film := range payload.Data {
		if film.Slug == "" {
			continue
		}
		// Year constraint mirrors the fuzzy stage's gate.
		if year != 0 && film.ReleaseYear != 0 && absInt(year-film.ReleaseYear) > 1 {
			continue
		}
		score := c.matcher.Score(normQuery, identity.Normalize(film.Name))
		if score >= c.threshold {
			return &identity.SearchResult{
				Slug:  film.Slug,
				Title: film.Name,
				Year:  film.ReleaseYear,
				Score: score,
			}, nil
		}
		c.logger.Debug("search result below threshold",
			logging.String("query", query),
			logging.String("candidate", film.Name),
			logging.Float64("score", score))
	}
	return nil, nil
}

func (c *Client) domain() string {
	if parsed, err := url.Parse(c.baseURL); err == nil && parsed.Host != "" {
		return parsed.Host
	}
	return c.baseURL
}

func absInt(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
