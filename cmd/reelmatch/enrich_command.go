package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelmatch/internal/catalog"
	"reelmatch/internal/enrich"
	"reelmatch/internal/identity/cache"
	"reelmatch/internal/letterboxd"
	"reelmatch/internal/ratelimit"
)

func newEnrichCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "enrich",
		Short: "Scrape IMDB/TMDB ids for resolved letterboxd slugs",
		Long: `Scrape IMDB and TMDB ids from letterboxd film pages.

Targets are catalog films missing external ids plus cached identities
resolved by live search (which carry only a slug). Scraped ids land in
the slug cache; each film page is fetched at most once across runs.`,
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

			entries, err := catalog.Load(cfg.CatalogDir(), cfg.Letterboxd.Usernames, logger)
			if err != nil {
				return err
			}

			targets := make([]enrich.Target, 0, len(entries))
			for _, entry := range entries {
				if entry.IMDBID == "" && entry.TMDBID == "" {
					targets = append(targets, enrich.Target{
						Slug:  entry.Slug,
						Title: entry.Title,
						Year:  entry.Year,
					})
				}
			}
			idCache := cache.NewStore(cfg.IdentityCachePath(), logger)
			for _, folder := range idCache.Keys() {
				record, _ := idCache.Lookup(folder)
				if record.LetterboxdSlug != "" && record.IMDBID == "" && record.TMDBID == "" {
					targets = append(targets, enrich.Target{Slug: record.LetterboxdSlug})
				}
			}

			limiter := ratelimit.New(rateLimitDelay(cfg))
			client, err := letterboxd.New(cfg.Letterboxd.BaseURL, limiter, matcher, logger,
				letterboxd.WithHTTPClient(httpClient(cfg)))
			if err != nil {
				return err
			}

			store := enrich.NewStore(cfg.SlugCachePath(), logger)
			enricher := enrich.New(store, client, cfg.Limits.Workers, cfg.Limits.FlushInterval, logger)

			result, err := enricher.Run(cmd.Context(), targets, force)
			if err != nil {
				return err
			}

			fmt.Fprintf(cmd.OutOrStdout(), "Scraped %d film pages (%d already cached, %d failed)\n",
				result.Scraped, result.Cached, result.Failed)
			return nil
		},
	}

	cmd.Flags().BoolVarP(&force, "force", "f", false, "Rescrape slugs already in the cache")

	return cmd
}
