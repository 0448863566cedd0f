package main

import (
	"github.com/spf13/cobra"

	"github.com/echobeat/catalog-seeder/internal/app"
	"github.com/echobeat/catalog-seeder/internal/jobs/pipeline"
)

func addPageFlags(cmd *cobra.Command, opts *pipeline.RunOptions) {
	cmd.Flags().IntVar(&opts.Offset, "offset", -1, "Feed offset to start at (negative resumes from the saved cursor)")
	cmd.Flags().IntVar(&opts.Limit, "limit", 0, "Records per page (0 uses the configured page size)")
	cmd.Flags().IntVar(&opts.Pages, "pages", 1, "Maximum number of pages to ingest")
}

func newIngestCommand(ctx *commandContext) *cobra.Command {
	var opts pipeline.RunOptions
	cmd := &cobra.Command{
		Use:   "ingest",
		Short: "Ingest feed pages into the catalog",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{NeedFeed: true, NeedStorage: true, Exclusive: true}, func(a *app.App) error {
				pages, err := a.Pipeline.IngestPages(cmd.Context(), opts)
				if emitErr := ctx.emit(cmd, pages, func(colorize bool) []string {
					var lines []string
					for _, page := range pages {
						lines = append(lines, renderPageReport(page, colorize)...)
					}
					return lines
				}); emitErr != nil {
					return emitErr
				}
				return err
			})
		},
	}
	addPageFlags(cmd, &opts)
	return cmd
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var opts pipeline.RunOptions
	cmd := &cobra.Command{
		Use:   "run",
		Short: "Ingest feed pages, then infer album authors and refresh aggregates",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{NeedFeed: true, NeedStorage: true, Exclusive: true}, func(a *app.App) error {
				rep, err := a.Pipeline.Run(cmd.Context(), opts)
				if emitErr := ctx.emit(cmd, rep, func(colorize bool) []string {
					return renderRunReport(rep, colorize)
				}); emitErr != nil {
					return emitErr
				}
				return err
			})
		},
	}
	addPageFlags(cmd, &opts)
	return cmd
}

func newInferAuthorsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "infer-authors",
		Short: "Assign album authors where one artist is credited on every track",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{Exclusive: true}, func(a *app.App) error {
				rep, err := a.Pipeline.InferAuthors(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, rep, func(colorize bool) []string {
					return renderInferenceReport(rep, colorize)
				})
			})
		},
	}
}

func newRefreshCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Recompute track count and duration of every collection",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{Exclusive: true}, func(a *app.App) error {
				rep, err := a.Pipeline.RefreshAggregates(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, rep, func(colorize bool) []string {
					return renderRefreshReport(rep, colorize)
				})
			})
		},
	}
}
