package identity

import (
	"context"
	"log/slog"
	"time"

	"reelmatch/internal/library"
	"reelmatch/internal/logging"
	"reelmatch/internal/services"
)

// BatchOptions controls a full resolution run.
type BatchOptions struct {
	// ForceRefresh discards the entire existing cache before processing.
	ForceRefresh bool
	// DryRun suppresses cache persistence; matching and in-memory updates
	// proceed normally.
	DryRun bool
	// Verbose emits one log line per resolution decision.
	Verbose bool
	// FlushInterval persists the cache after this many resolutions so an
	// interrupted run loses at most one partial batch. Zero disables
	// periodic flushing.
	FlushInterval int
}

// EnrichedItem pairs a library item with its resolved identity.
type EnrichedItem struct {
	library.Item
	Identity Record
}

// BatchResult summarizes a resolution run.
type BatchResult struct {
	Enriched  []EnrichedItem
	Unmatched []library.Item
}

// Batch drives the cascade over an ordered collection of items, keeping
// the shared cache up to date as it goes.
type Batch struct {
	resolver *Resolver
	cache    CacheStore
	logger   *slog.Logger
}

// NewBatch wires a batch driver around a resolver and its cache store.
func NewBatch(resolver *Resolver, cache CacheStore, logger *slog.Logger) *Batch {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Batch{
		resolver: resolver,
		cache:    cache,
		logger:   logging.WithComponent(logger, "batch"),
	}
}

// ResolveAll processes items in input order. Items are isolated: an
// unmatched or malformed item never aborts the run. Only persistence
// failures are fatal, since silently losing progress is worse than
// stopping.
func (b *Batch) ResolveAll(ctx context.Context, items []library.Item, opts BatchOptions) (BatchResult, error) {
	start := time.Now()

	if opts.ForceRefresh && b.cache != nil {
		b.cache.Clear()
		b.logger.Info("cache cleared for force refresh")
	}

	var result BatchResult
	sinceFlush := 0

	for _, item := range items {
		record := b.resolver.Resolve(ctx, item)
		if record == nil {
			result.Unmatched = append(result.Unmatched, item)
			if opts.Verbose {
				b.logger.Info("unmatched",
					logging.String("folder", item.Folder),
					logging.String("title", item.Title),
					logging.Int("year", item.Year))
			}
			continue
		}

		result.Enriched = append(result.Enriched, EnrichedItem{Item: item, Identity: *record})
		if b.cache != nil {
			b.cache.Put(item.Folder, *record)
		}
		sinceFlush++

		if opts.Verbose {
			b.logger.Info("matched",
				logging.String("folder", item.Folder),
				logging.String("slug", record.LetterboxdSlug),
				logging.String("method", string(record.Method)),
				logging.Float64("score", record.Score))
		}

		if !opts.DryRun && opts.FlushInterval > 0 && sinceFlush >= opts.FlushInterval {
			if err := b.save(); err != nil {
				return result, err
			}
			sinceFlush = 0
		}
	}

	if !opts.DryRun {
		if err := b.save(); err != nil {
			return result, err
		}
	}

	b.logger.Info("matching complete",
		logging.Int("matched", len(result.Enriched)),
		logging.Int("unmatched", len(result.Unmatched)),
		logging.Int("total", len(items)),
		logging.Duration("elapsed", time.Since(start)))
	return result, nil
}

func (b *Batch) save() error {
	if b.cache == nil {
		return nil
	}
	if err := b.cache.Save(); err != nil {
		return services.Wrap(services.ErrPersistence, "batch", "save cache", "", err)
	}
	return nil
}
