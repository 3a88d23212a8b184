// Package imdb scrapes IMDB ratings. A title is located through the find
// endpoint when its tt id is unknown, then the rating is read from the
// JSON-LD block on the title page.
package imdb

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"reelmatch/internal/logging"
	"reelmatch/internal/ratelimit"
	"reelmatch/internal/services"
)

// DefaultBaseURL is the production site.
const DefaultBaseURL = "https://www.imdb.com"

const userAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36"

var titleIDPattern = regexp.MustCompile(`/title/(tt\d+)/`)

// Client provides access to imdb.com.
type Client struct {
	baseURL    string
	httpClient *http.Client
	limiter    *ratelimit.Limiter
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

// New creates an IMDB client. limiter may be shared with other callers.
func New(baseURL string, limiter *ratelimit.Limiter, logger *slog.Logger, opts ...Option) (*Client, error) {
	baseURL = strings.TrimRight(strings.TrimSpace(baseURL), "/")
	if baseURL == "" {
		return nil, errors.New("imdb base url required")
	}
	if limiter == nil {
		limiter = ratelimit.New(0)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	c := &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 15 * time.Second},
		limiter:    limiter,
		logger:     logging.WithComponent(logger, "imdb"),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c, nil
}

// FindTitleID locates the tt id for a film via the feature-title search.
// The first result wins; IMDB ranks them by relevance.
func (c *Client) FindTitleID(ctx context.Context, title string, year int) (string, error) {
	title = strings.TrimSpace(title)
	if title == "" {
		return "", services.Wrap(services.ErrMalformedEntry, "imdb", "find", "empty title", nil)
	}

	query := title
	if year > 0 {
		query = fmt.Sprintf("%s %d", title, year)
	}
	findURL := fmt.Sprintf("%s/find/?q=%s&s=tt&ttype=ft", c.baseURL, url.QueryEscape(query))

	doc, err := c.fetch(ctx, findURL, "find")
	if err != nil {
		return "", err
	}

	href, ok := doc.Find("a.ipc-metadata-list-summary-item__t").First().Attr("href")
	if !ok {
		return "", nil
	}
	if m := titleIDPattern.FindStringSubmatch(href); m != nil {
		return m[1], nil
	}
	return "", nil
}

// ScrapeRating reads the aggregate rating (out of 10) from the title page
// for id. Titles without enough votes carry no aggregateRating; those
// return 0 with no error.
func (c *Client) ScrapeRating(ctx context.Context, id string) (float64, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return 0, services.Wrap(services.ErrMalformedEntry, "imdb", "rating", "empty title id", nil)
	}

	doc, err := c.fetch(ctx, fmt.Sprintf("%s/title/%s/", c.baseURL, id), "rating")
	if err != nil {
		return 0, err
	}
	return extractRating(doc), nil
}

func (c *Client) fetch(ctx context.Context, pageURL, op string) (*goquery.Document, error) {
	if err := c.limiter.Wait(ctx, c.domain()); err != nil {
		return nil, err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "imdb", op, pageURL, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return nil, services.Wrap(services.ErrCollaborator, "imdb", op,
			fmt.Sprintf("%s: status %d", pageURL, resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return nil, services.Wrap(services.ErrCollaborator, "imdb", op, "parse page", err)
	}
	return doc, nil
}

func (c *Client) domain() string {
	if u, err := url.Parse(c.baseURL); err == nil && u.Host != "" {
		return u.Host
	}
	return c.baseURL
}

func extractRating(doc *goquery.Document) float64 {
	var payload struct {
		AggregateRating struct {
			// IMDB has served this as both a number and a string.
			RatingValue any `json:"ratingValue"`
		} `json:"aggregateRating"`
	}
	raw := doc.Find(`script[type="application/ld+json"]`).First().Text()
	if raw == "" {
		return 0
	}
	if err := json.Unmarshal([]byte(raw), &payload); err != nil {
		return 0
	}
	switch value := payload.AggregateRating.RatingValue.(type) {
	case float64:
		return value
	case string:
		if rating, err := strconv.ParseFloat(value, 64); err == nil {
			return rating
		}
	}
	return 0
}
