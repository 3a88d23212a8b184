package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"reelmatch/internal/library"
	"reelmatch/internal/report"
)

func newUnwatchedCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "unwatched",
		Short: "List library films absent from the watched list",
		Args:  cobra.NoArgs,
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

			movies, err := library.LoadMovies(cfg.LibraryPath(), logger)
			if err != nil {
				return err
			}
			watched, err := report.LoadWatched(cfg.WatchedPath())
			if err != nil {
				return err
			}

			unwatched := report.Unwatched(matcher, movies, watched)

			out := cmd.OutOrStdout()
			fmt.Fprint(out, report.RenderUnwatched(unwatched))
			if err := report.WriteUnwatched(cfg.UnwatchedReportPath(), unwatched); err != nil {
				return fmt.Errorf("write report: %w", err)
			}
			fmt.Fprintf(out, "Written to %s\n", cfg.UnwatchedReportPath())
			return nil
		},
	}
}
