package main

import (
	"github.com/spf13/cobra"

	"github.com/echobeat/catalog-seeder/internal/app"
)

func newRootCommand() *cobra.Command {
	var configFlag string
	var jsonFlag bool

	ctx := newCommandContext(&configFlag, &jsonFlag)

	rootCmd := &cobra.Command{
		Use:           "catalogctl",
		Short:         "Music catalog ingestion and maintenance",
		Version:       app.Version,
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&configFlag, "config", "c", "", "Configuration file path (defaults to $CATALOG_CONFIG)")
	rootCmd.PersistentFlags().BoolVar(&jsonFlag, "json", false, "Print reports as JSON")

	rootCmd.AddCommand(newMigrateCommand(ctx))
	rootCmd.AddCommand(newIngestCommand(ctx))
	rootCmd.AddCommand(newInferAuthorsCommand(ctx))
	rootCmd.AddCommand(newRefreshCommand(ctx))
	rootCmd.AddCommand(newRunCommand(ctx))
	rootCmd.AddCommand(newSeedGenresCommand(ctx))
	rootCmd.AddCommand(newBackfillCoversCommand(ctx))
	rootCmd.AddCommand(newGenrePlaylistsCommand(ctx))
	rootCmd.AddCommand(newStatsCommand(ctx))
	rootCmd.AddCommand(newFailuresCommand(ctx))

	return rootCmd
}
