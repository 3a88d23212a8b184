package letterboxd

import (
	"context"
	"fmt"
	"net/http"
	"regexp"
	"strconv"
	"strings"

	"github.com/PuerkitoBio/goquery"

	"reelmatch/internal/services"
)

var (
	imdbIDPattern = regexp.MustCompile(`(tt\d+)`)
	tmdbIDPattern = regexp.MustCompile(`/movie/(\d+)`)
	ratingPattern = regexp.MustCompile(`([\d.]+)\s*out of\s*5`)
)

// FilmIDs holds the external ids scraped from a letterboxd film page.
type FilmIDs struct {
	IMDBID string
	TMDBID string
}

// ScrapeFilmIDs extracts IMDB and TMDB ids from the film page for slug.
// Film pages link out as imdb.com/title/tt… and themoviedb.org/movie/…;
// either id may be absent.
func (c *Client) ScrapeFilmIDs(ctx context.Context, slug string) (FilmIDs, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return FilmIDs{}, services.Wrap(services.ErrMalformedEntry, "letterboxd", "scrape", "empty slug", nil)
	}

	if err := c.limiter.Wait(ctx, c.domain()); err != nil {
		return FilmIDs{}, err
	}

	pageURL := fmt.Sprintf("%s/film/%s/", c.baseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return FilmIDs{}, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return FilmIDs{}, services.Wrap(services.ErrCollaborator, "letterboxd", "scrape", slug, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return FilmIDs{}, services.Wrap(services.ErrCollaborator, "letterboxd", "scrape",
			fmt.Sprintf("%s: status %d", slug, resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return FilmIDs{}, services.Wrap(services.ErrCollaborator, "letterboxd", "scrape",
			slug+": parse page", err)
	}

	return extractFilmIDs(doc), nil
}

// ScrapeFilmRating extracts the average member rating (out of 5) from the
// film page for slug. Films without enough ratings have no rating markup;
// those return 0 with no error.
func (c *Client) ScrapeFilmRating(ctx context.Context, slug string) (float64, error) {
	slug = strings.TrimSpace(slug)
	if slug == "" {
		return 0, services.Wrap(services.ErrMalformedEntry, "letterboxd", "rating", "empty slug", nil)
	}

	if err := c.limiter.Wait(ctx, c.domain()); err != nil {
		return 0, err
	}

	pageURL := fmt.Sprintf("%s/film/%s/", c.baseURL, slug)
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, pageURL, nil)
	if err != nil {
		return 0, err
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return 0, services.Wrap(services.ErrCollaborator, "letterboxd", "rating", slug, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return 0, services.Wrap(services.ErrCollaborator, "letterboxd", "rating",
			fmt.Sprintf("%s: status %d", slug, resp.StatusCode), nil)
	}

	doc, err := goquery.NewDocumentFromReader(resp.Body)
	if err != nil {
		return 0, services.Wrap(services.ErrCollaborator, "letterboxd", "rating",
			slug+": parse page", err)
	}

	return extractFilmRating(doc), nil
}

func extractFilmRating(doc *goquery.Document) float64 {
	// The twitter card summary carries "X.XX out of 5".
	if content, ok := doc.Find(`meta[name="twitter:data2"]`).Attr("content"); ok {
		if m := ratingPattern.FindStringSubmatch(content); m != nil {
			if rating, err := strconv.ParseFloat(m[1], 64); err == nil {
				return rating
			}
		}
	}
	// Fallback for pages without the meta tag.
	text := strings.TrimSpace(doc.Find("a.tooltip.display-rating").First().Text())
	if rating, err := strconv.ParseFloat(text, 64); err == nil {
		return rating
	}
	return 0
}

func extractFilmIDs(doc *goquery.Document) FilmIDs {
	var ids FilmIDs
	doc.Find("a[href]").EachWithBreak(func(_ int, sel *goquery.Selection) bool {
		href, _ := sel.Attr("href")
		switch {
		case ids.IMDBID == "" && strings.Contains(href, "imdb.com/title/"):
			if m := imdbIDPattern.FindStringSubmatch(href); m != nil {
				ids.IMDBID = m[1]
			}
		case ids.TMDBID == "" && strings.Contains(href, "themoviedb.org/movie/"):
			if m := tmdbIDPattern.FindStringSubmatch(href); m != nil {
				ids.TMDBID = m[1]
			}
		}
		return ids.IMDBID == "" || ids.TMDBID == ""
	})
	return ids
}
