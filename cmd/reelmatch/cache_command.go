package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelmatch/internal/identity/cache"
	"reelmatch/internal/report"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect and manage the identity cache",
		Long: `Inspect and manage the folder-to-identity cache.

Cached identities are authoritative: a cached folder is never rematched
unless its entry is removed or 'match --force' discards the whole cache.`,
	}

	cacheCmd.AddCommand(newCacheListCommand(ctx))
	cacheCmd.AddCommand(newCacheRemoveCommand(ctx))
	cacheCmd.AddCommand(newCacheClearCommand(ctx))

	return cacheCmd
}

func (c *commandContext) openCache() (*cache.Store, error) {
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, fmt.Errorf("load configuration: %w", err)
	}
	logger, err := c.logger(cfg)
	if err != nil {
		return nil, err
	}
	return cache.NewStore(cfg.IdentityCachePath(), logger), nil
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached folder identities",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			keys := store.Keys()
			if len(keys) == 0 {
				fmt.Fprintln(out, "Identity cache: empty")
				return nil
			}

			fmt.Fprintf(out, "Identity cache: %d entries\n\n", len(keys))
			rows := make([][]string, 0, len(keys))
			for _, folder := range keys {
				record, _ := store.Lookup(folder)
				rows = append(rows, []string{
					folder,
					record.LetterboxdSlug,
					string(record.Method),
					fmt.Sprintf("%.1f", record.Score),
				})
			}
			fmt.Fprint(out, report.RenderTable([]string{"Folder", "Slug", "Method", "Score"}, rows))
			return nil
		},
	}
}

func newCacheRemoveCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <folder>",
		Short: "Remove one cached entry so the folder is rematched next run",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			folder := args[0]
			if !store.Remove(folder) {
				return fmt.Errorf("folder %q not found in cache", folder)
			}
			if err := store.Save(); err != nil {
				return fmt.Errorf("save cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed %q from the identity cache\n", folder)
			return nil
		},
	}
}

func newCacheClearCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "clear",
		Short: "Remove all cached entries",
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := ctx.openCache()
			if err != nil {
				return err
			}
			count := store.Count()
			store.Clear()
			if err := store.Save(); err != nil {
				return fmt.Errorf("save cache: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Cleared %d entries from the identity cache\n", count)
			return nil
		},
	}
}
