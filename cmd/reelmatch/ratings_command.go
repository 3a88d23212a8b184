package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelmatch/internal/catalog"
	"reelmatch/internal/identity/cache"
	"reelmatch/internal/imdb"
	"reelmatch/internal/letterboxd"
	"reelmatch/internal/ratelimit"
	"reelmatch/internal/ratings"
)

func newRatingsCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "ratings",
		Short: "Fetch Letterboxd and IMDB ratings for catalog films",
		Long: `Fetch member ratings from letterboxd.com and aggregate ratings from
imdb.com for every film in the catalog, plus cached identities resolved
by live search. Ratings are cached per slug with a 180-day shelf life, so
repeat runs only touch films whose entries have gone stale.`,
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

			release, err := acquireRunLock(cfg)
			if err != nil {
				return err
			}
			defer release()

			entries, err := catalog.Load(cfg.CatalogDir(), cfg.Letterboxd.Usernames, logger)
			if err != nil {
				return err
			}

			targets := make([]ratings.Target, 0, len(entries))
			for _, entry := range entries {
				targets = append(targets, ratings.Target{
					Slug:   entry.Slug,
					Title:  entry.Title,
					Year:   entry.Year,
					IMDBID: entry.IMDBID,
				})
			}
			idCache := cache.NewStore(cfg.IdentityCachePath(), logger)
			for _, folder := range idCache.Keys() {
				record, _ := idCache.Lookup(folder)
				if record.LetterboxdSlug != "" {
					targets = append(targets, ratings.Target{
						Slug:   record.LetterboxdSlug,
						IMDBID: record.IMDBID,
					})
				}
			}

			// One limiter for both sites; it spaces requests per domain.
			limiter := ratelimit.New(rateLimitDelay(cfg))
			lbClient, err := letterboxd.New(cfg.Letterboxd.BaseURL, limiter, nil, logger,
				letterboxd.WithHTTPClient(httpClient(cfg)))
			if err != nil {
				return err
			}
			imdbClient, err := imdb.New(imdb.DefaultBaseURL, limiter, logger,
				imdb.WithHTTPClient(httpClient(cfg)))
			if err != nil {
				return err
			}

			store := ratings.NewStore(cfg.RatingsCachePath(), 0, logger)
			gatherer := ratings.New(store, lbClient, imdbClient,
				cfg.Limits.Workers, cfg.Limits.FlushInterval, logger)

			result, err := gatherer.Run(cmd.Context(), targets, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Fetched ratings for %d films (%d already cached, %d failed)\n",
				result.Fetched, result.Cached, result.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Refetch ratings already in the cache")

	return cmd
}
