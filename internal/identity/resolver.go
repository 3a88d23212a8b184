package identity

import (
	"context"
	"log/slog"
	"time"

	"reelmatch/internal/catalog"
	"reelmatch/internal/library"
	"reelmatch/internal/logging"
)

// CacheStore is the durable folder-to-record mapping consulted before any
// matching work.
type CacheStore interface {
	Lookup(folder string) (Record, bool)
	Put(folder string, record Record)
	Clear()
	Save() error
	Count() int
}

// OverrideSource supplies user-asserted identities. Read-only.
type OverrideSource interface {
	Lookup(folder string) (Override, bool)
}

// SearchFunc queries an external provider for films absent from the known
// catalog. A nil result with a nil error means no match; an error means
// the collaborator was unavailable.
type SearchFunc func(ctx context.Context, title string, year int) (*SearchResult, error)

// Resolver runs the identity cascade for single items.
type Resolver struct {
	cache     CacheStore
	overrides OverrideSource
	entries   []catalog.Entry
	matcher   *Matcher
	search    SearchFunc
	logger    *slog.Logger
	now       func() time.Time
}

// NewResolver wires a resolver. search may be nil to disable the live
// search stage; logger may be nil.
func NewResolver(cache CacheStore, overrides OverrideSource, entries []catalog.Entry, matcher *Matcher, search SearchFunc, logger *slog.Logger) *Resolver {
	if matcher == nil {
		matcher = NewMatcher(nil, 0)
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Resolver{
		cache:     cache,
		overrides: overrides,
		entries:   entries,
		matcher:   matcher,
		search:    search,
		logger:    logging.WithComponent(logger, "resolver"),
		now:       time.Now,
	}
}

// Resolve runs the cascade for one item. The first stage to produce a
// record wins; nil means unmatched and the caller must not cache it.
func (r *Resolver) Resolve(ctx context.Context, item library.Item) *Record {
	// Stage 1: cached record, returned unchanged. A hit stays
	// authoritative even if the catalog has since gained fresher ids.
	if r.cache != nil {
		if record, ok := r.cache.Lookup(item.Folder); ok {
			return &record
		}
	}

	// Stage 2: manual override. The asserted slug is looked up in the
	// catalog to recover ids; an unknown slug still wins with null ids.
	if r.overrides != nil {
		if override, ok := r.overrides.Lookup(item.Folder); ok {
			record := Record{
				LetterboxdSlug: override.LetterboxdSlug,
				Method:         MethodManualOverride,
				Score:          100,
				MatchedAt:      r.now(),
			}
			if entry, found := catalog.FindBySlug(r.entries, override.LetterboxdSlug); found {
				record.IMDBID = entry.IMDBID
				record.TMDBID = entry.TMDBID
			}
			return &record
		}
	}

	// Stage 3: embedded metadata id.
	if item.IMDBID != "" {
		if entry, found := catalog.FindByIMDB(r.entries, item.IMDBID); found {
			return &Record{
				LetterboxdSlug: entry.Slug,
				IMDBID:         item.IMDBID,
				TMDBID:         entry.TMDBID,
				Method:         MethodEmbeddedMetadata,
				Score:          100,
				MatchedAt:      r.now(),
			}
		}
	}

	// Stage 4: fuzzy match against the known catalog. Strictly-highest
	// score wins; ties keep the first-seen entry in scan order.
	if record := r.fuzzyMatch(item); record != nil {
		return record
	}

	// Stage 5: live search for films outside the known catalog. Ids other
	// than the slug are left for later enrichment.
	if r.search != nil && item.Title != "" {
		result, err := r.search(ctx, item.Title, item.Year)
		if err != nil {
			r.logger.Warn("external search unavailable",
				logging.String("folder", item.Folder),
				logging.String("title", item.Title),
				logging.Error(err))
		} else if result != nil {
			return &Record{
				LetterboxdSlug: result.Slug,
				Method:         MethodExternalSearch,
				Score:          result.Score,
				MatchedAt:      r.now(),
			}
		}
	}

	return nil
}

func (r *Resolver) fuzzyMatch(item library.Item) *Record {
	var best *catalog.Entry
	bestScore := 0.0

	for idx := range r.entries {
		entry := &r.entries[idx]
		if entry.Title == "" {
			// Malformed snapshot entry; skip rather than fail the item.
			continue
		}
		match, score := r.matcher.TitlesMatch(item.Title, entry.Title, item.Year, entry.Year)
		if match && score > bestScore {
			bestScore = score
			best = entry
		}
	}

	if best == nil {
		return nil
	}
	return &Record{
		LetterboxdSlug: best.Slug,
		IMDBID:         best.IMDBID,
		TMDBID:         best.TMDBID,
		Method:         MethodFuzzy,
		Score:          bestScore,
		MatchedAt:      r.now(),
	}
}
