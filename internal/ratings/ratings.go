package ratings

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"reelmatch/internal/logging"
)

// LetterboxdSource fetches the member rating for one film page.
type LetterboxdSource interface {
	ScrapeFilmRating(ctx context.Context, slug string) (float64, error)
}

// IMDBSource locates titles and fetches their aggregate ratings.
type IMDBSource interface {
	FindTitleID(ctx context.Context, title string, year int) (string, error)
	ScrapeRating(ctx context.Context, id string) (float64, error)
}

// Target names a film needing ratings. IMDBID is used when already
// known; otherwise the title search fills it in.
type Target struct {
	Slug   string
	Title  string
	Year   int
	IMDBID string
}

// Result summarizes a ratings run.
type Result struct {
	Cached  int
	Fetched int
	Failed  int
}

// Gatherer runs the worker pool over targets.
type Gatherer struct {
	store         *Store
	letterboxd    LetterboxdSource
	imdb          IMDBSource
	workers       int
	flushInterval int
	logger        *slog.Logger
}

// New wires a gatherer. workers and flushInterval fall back to 5 and 10.
func New(store *Store, letterboxd LetterboxdSource, imdb IMDBSource, workers, flushInterval int, logger *slog.Logger) *Gatherer {
	if workers <= 0 {
		workers = 5
	}
	if flushInterval <= 0 {
		flushInterval = 10
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Gatherer{
		store:         store,
		letterboxd:    letterboxd,
		imdb:          imdb,
		workers:       workers,
		flushInterval: flushInterval,
		logger:        logging.WithComponent(logger, "ratings"),
	}
}

// Run fetches ratings for every target without a fresh cache entry. A
// film whose rating cannot be fetched from one site still caches what
// the other site returned; the entry's timestamp keeps it from being
// retried every run. The cache is flushed periodically so an
// interrupted run keeps most of its progress, and once more at the end.
func (g *Gatherer) Run(ctx context.Context, targets []Target, force bool) (Result, error) {
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
			if _, ok := g.store.Lookup(target.Slug); ok {
				result.Cached++
				continue
			}
		}
		pending = append(pending, target)
	}

	if len(pending) == 0 {
		return result, nil
	}
	g.logger.Info("fetching ratings",
		logging.Int("pending", len(pending)),
		logging.Int("cached", result.Cached),
		logging.Int("workers", g.workers),
		logging.Bool("force", force))
	start := time.Now()

	jobs := make(chan Target)
	var wg sync.WaitGroup
	var mu sync.Mutex
	completed := 0

	worker := func() {
		defer wg.Done()
		for target := range jobs {
			entry, failed := g.fetch(ctx, target)

			mu.Lock()
			if failed {
				result.Failed++
			} else {
				result.Fetched++
			}
			g.store.Put(target.Slug, entry)
			completed++
			flush := completed%g.flushInterval == 0
			mu.Unlock()

			if flush {
				if err := g.store.Save(); err != nil {
					g.logger.Warn("periodic cache flush failed", logging.Error(err))
				}
			}
		}
	}

	wg.Add(g.workers)
	for i := 0; i < g.workers; i++ {
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

	if err := g.store.Save(); err != nil {
		return result, err
	}
	if err := ctx.Err(); err != nil {
		return result, err
	}
	g.logger.Info("ratings complete",
		logging.Int("fetched", result.Fetched),
		logging.Int("failed", result.Failed),
		logging.Duration("elapsed", time.Since(start)))
	return result, nil
}

// fetch gathers both ratings for one target. failed reports whether
// every site errored out; a partial fetch still counts as success.
func (g *Gatherer) fetch(ctx context.Context, target Target) (entry Entry, failed bool) {
	entry = Entry{
		IMDBID:    target.IMDBID,
		Title:     target.Title,
		Year:      target.Year,
		FetchedAt: time.Now(),
	}
	errs := 0

	rating, err := g.letterboxd.ScrapeFilmRating(ctx, target.Slug)
	if err != nil {
		errs++
		g.logger.Warn("letterboxd rating failed",
			logging.String("slug", target.Slug),
			logging.Error(err))
	} else {
		entry.Letterboxd = rating
	}

	if entry.IMDBID == "" && target.Title != "" {
		id, err := g.imdb.FindTitleID(ctx, target.Title, target.Year)
		if err != nil {
			g.logger.Warn("imdb title search failed",
				logging.String("slug", target.Slug),
				logging.Error(err))
		} else {
			entry.IMDBID = id
		}
	}
	if entry.IMDBID == "" {
		errs++
	} else {
		rating, err := g.imdb.ScrapeRating(ctx, entry.IMDBID)
		if err != nil {
			errs++
			g.logger.Warn("imdb rating failed",
				logging.String("slug", target.Slug),
				logging.String("imdb_id", entry.IMDBID),
				logging.Error(err))
		} else {
			entry.IMDB = rating
		}
	}

	return entry, errs == 2
}
