package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelmatch/internal/catalog"
	"reelmatch/internal/identity"
	"reelmatch/internal/identity/cache"
	"reelmatch/internal/identity/overrides"
	"reelmatch/internal/letterboxd"
	"reelmatch/internal/library"
	"reelmatch/internal/logging"
	"reelmatch/internal/ratelimit"
	"reelmatch/internal/report"
)

func newMatchCommand(ctx *commandContext) *cobra.Command {
	var force bool
	var dryRun bool
	var noSearch bool

	cmd := &cobra.Command{
		Use:   "match",
		Short: "Resolve local movie folders to letterboxd identities",
		Long: `Resolve each scanned movie folder to a letterboxd slug and external ids.

Per folder the cascade tries: cached identity, manual override, embedded
IMDB id, fuzzy title match against the known catalog, then a live
letterboxd search. Results are cached so repeated runs do no matching
work for already-resolved folders.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return fmt.Errorf("load configuration: %w", err)
			}
			logger, err := ctx.logger(cfg)
			if err != nil {
				return err
			}
			matcher, err := ctx.matcher(cfg)
			if err != nil {
				return err
			}

			release, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer release()

			movies, err := library.LoadMovies(cfg.LibraryPath(), logger)
			if err != nil {
				return err
			}
			entries, err := catalog.Load(cfg.CatalogDir(), cfg.Letterboxd.Usernames, logger)
			if err != nil {
				return err
			}
			logger.Info("inputs loaded",
				logging.Int("local_movies", len(movies)),
				logging.Int("catalog_films", len(entries)))

			store := cache.NewStore(cfg.IdentityCachePath(), logger)
			overrideCatalog := overrides.Load(cfg.OverridesPath(), logger)

			var search identity.SearchFunc
			if !noSearch {
				limiter := ratelimit.New(rateLimitDelay(cfg))
				client, err := letterboxd.New(cfg.Letterboxd.BaseURL, limiter, matcher, logger,
					letterboxd.WithHTTPClient(httpClient(cfg)),
					letterboxd.WithSearchThreshold(cfg.Matching.SearchThreshold))
				if err != nil {
					return err
				}
				search = client.Search
			}

			resolver := identity.NewResolver(store, overrideCatalog, entries, matcher, search, logger)
			batch := identity.NewBatch(resolver, store, logger)

			result, err := batch.ResolveAll(cmd.Context(), movies, identity.BatchOptions{
				ForceRefresh:  force,
				DryRun:        dryRun,
				Verbose:       ctx.verbose(),
				FlushInterval: cfg.Limits.FlushInterval,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Matched %d/%d films\n\n", len(result.Enriched), len(movies))
			fmt.Fprint(out, report.RenderUnmatched(result.Unmatched))
			if dryRun {
				fmt.Fprintln(out, "\n(dry-run mode - cache not saved)")
			}
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Discard the cache and rematch everything")
	cmd.Flags().BoolVarP(&dryRun, "dry-run", "n", false, "Skip cache persistence (preview only)")
	cmd.Flags().BoolVar(&noSearch, "no-search", false, "Skip the live letterboxd search stage")

	return cmd
}
