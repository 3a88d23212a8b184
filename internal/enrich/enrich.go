package enrich

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reelmatch/internal/letterboxd"
	"reelmatch/internal/logging"
)

// Scraper fetches external ids for one film page.
type Scraper interface {
	ScrapeFilmIDs(ctx context.Context, slug string) (letterboxd.FilmIDs, error)
}

// Target names a slug needing ids, with display metadata for the cache.
type Target struct {
	Slug  string
	Title string
	Year  int
}

// Result summarizes an enrichment run.
type Result struct {
	Cached  int
	Scraped int
	Failed  int
}

// Enricher runs the worker pool over targets.
type Enricher struct {
	store         *Store
	scraper       Scraper
	workers       int
	flushInterval int
	logger        *slog.Logger
}

// New wires an enricher. workers and flushInterval fall back to 5 and 10.
func New(store *Store, scraper Scraper, workers, flushInterval int, logger *slog.Logger) *Enricher {
	if workers <= 0 {
		workers = 5
	}
	if flushInterval <= 0 {
		flushInterval = 10
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Enricher{
		store:         store,
		scraper:       scraper,
		workers:       workers,
		flushInterval: flushInterval,
		logger:        logging.WithComponent(logger, "enrich"),
	}
}

// Run scrapes ids for every target not already cached. Failures are
// per-slug: a dead page never stops the pool. The cache is flushed
// periodically so an interrupted run keeps most of its progress, and once
// more at the end.
func (e *Enricher) Run(ctx context.Context, targets []Target, force bool) (Result, error) {
	var result Result

	pending := make([]Target, 0, len(targets))
	seen := make(map[string]struct{}, len(targets))
	for _, target := range targets {
		if target.Slug == "" {
			continue
		}
		if _, dup := seen[target.Slug]; dup {
			continue
		}
		seen[target.Slug] = struct{}{}
		if !force {
			if _, ok := e.store.Lookup(target.Slug); ok {
				result.Cached++
				continue
			}
		}
		pending = append(pending, target)
	}

	if len(pending) == 0 {
		return result, nil
	}
	e.logger.Info("scraping film ids",
		logging.Int("pending", len(pending)),
		logging.Int("cached", result.Cached),
		logging.Int("workers", e.workers),
		logging.Bool("force", force))
	start := time.Now()

	jobs := make(chan Target)
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	worker := func() {
		defer wg.Done()
		for target := range jobs {
			ids, err := e.scraper.ScrapeFilmIDs(ctx, target.Slug)

			mu.Lock()
			if err != nil {
				result.Failed++
				e.logger.Warn("scrape failed",
					logging.String("slug", target.Slug),
					logging.Error(err))
			} else {
				result.Scraped++
				e.store.Put(target.Slug, Entry{
					IMDBID:    ids.IMDBID,
					TMDBID:    ids.TMDBID,
					Title:     target.Title,
					Year:      target.Year,
					ScrapedAt: time.Now(),
				})
			}
			completed++
			flush := completed%e.flushInterval == 0
			mu.Unlock()

			if flush {
				if err := e.store.Save(); err != nil {
					e.logger.Warn("periodic cache flush failed", logging.Error(err))
				}
			}
		}
	}

	wg.Add(e.workers)
	for i := 0; i < e.workers; i++ {
		go worker()
	}

feed:
	for _, target := range pending {
		select {
		case <-ctx.Done():
			break feed
		case jobs <- target:
		}
	}
	close(jobs)
	wg.Wait()

	if err := e.store.Save(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	e.logger.Info("enrichment complete",
		logging.Int("scraped", result.Scraped),
		logging.Int("failed", result.Failed),
		logging.Duration("elapsed", time.Since(start)))
	return result, nil
}

// Apply copies cached ids onto catalog-style records via the provided
// setter. Missing slugs are left untouched.
func (e *Enricher) Apply(slugs []string, set func(slug string, entry Entry)) {
	for _, slug := range slugs {
		if entry, ok := e.store.Lookup(slug); ok {
			set(slug, entry)
		}
	}
}
