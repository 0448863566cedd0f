package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/echobeat/catalog-seeder/internal/app"
	"github.com/echobeat/catalog-seeder/internal/jobs/pipeline"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or update the catalog schema",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{Exclusive: true}, func(a *app.App) error {
				fmt.Fprintln(cmd.OutOrStdout(), statusLine(markDone, "Schema", 0, "up to date", shouldColorize(cmd.OutOrStdout())))
				return nil
			})
		},
	}
}

func newSeedGenresCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "seed-genres [name...]",
		Short: "Create genres that do not exist yet (defaults to the built-in list)",
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{Exclusive: true}, func(a *app.App) error {
				rep, err := a.Pipeline.SeedGenres(cmd.Context(), args)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, rep, func(colorize bool) []string {
					return renderSeedReport(rep, colorize)
				})
			})
		},
	}
}

func newBackfillCoversCommand(ctx *commandContext) *cobra.Command {
	var kindFlag string
	var dirFlag string
	cmd := &cobra.Command{
		Use:   "backfill-covers",
		Short: "Upload local cover images for genres or tracks matched by name",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := pipeline.ParseCoverKind(kindFlag)
			if err != nil {
				return err
			}
			return ctx.withApp(cmd, app.Options{NeedStorage: true, Exclusive: true}, func(a *app.App) error {
				rep, err := a.Pipeline.BackfillCovers(cmd.Context(), kind, dirFlag)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, rep, func(colorize bool) []string {
					return renderBackfillReport(rep, colorize)
				})
			})
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", string(pipeline.CoverKindGenre), "Which covers to backfill: genre or track")
	cmd.Flags().StringVar(&dirFlag, "dir", "", "Directory holding the cover images")
	_ = cmd.MarkFlagRequired("dir")
	return cmd
}

func newGenrePlaylistsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "genre-playlists",
		Short: "Create or extend one playlist per genre that has an image",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{Exclusive: true}, func(a *app.App) error {
				rep, err := a.Pipeline.BuildGenrePlaylists(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, rep, func(colorize bool) []string {
					return renderPlaylistReport(rep, colorize)
				})
			})
		},
	}
}

func newStatsCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show catalog row counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(a *app.App) error {
				st, err := a.Pipeline.Stats(cmd.Context())
				if err != nil {
					return err
				}
				return ctx.emit(cmd, st, func(colorize bool) []string {
					return renderStats(st, colorize)
				})
			})
		},
	}
}

func newFailuresCommand(ctx *commandContext) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "failures",
		Short: "List recently skipped feed records",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return ctx.withApp(cmd, app.Options{}, func(a *app.App) error {
				rows, err := a.Pipeline.RecentFailures(cmd.Context(), limit)
				if err != nil {
					return err
				}
				return ctx.emit(cmd, rows, func(colorize bool) []string {
					return renderFailures(rows, colorize)
				})
			})
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 20, "Maximum number of failures to list")
	return cmd
}
