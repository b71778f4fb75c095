package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-chat/internal/helper"
	"document-chat/internal/rag"
)

var (
	ingestReset  bool
	ingestDryRun bool
)

var ingestCmd = &cobra.Command{
	Use:   "ingest",
	Short: "Load, split and store the configured document",
	Long: `Ingests the configured document into the store. A store that already
holds segments is left alone unless --reset is given.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if ingestDryRun {
			segments, err := rag.Prepare(cfg.Document.Path, newSplitter(cfg))
			if err != nil {
				return err
			}
			log.Info().Int("segments", len(segments)).Msg("Parsed content")
			helper.PrettyPrint(cmd.OutOrStdout(), segments)
			return nil
		}

		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		if ingestReset {
			log.Info().Msg("Clearing store")
			if err := a.handle.Reset(cmd.Context()); err != nil {
				return err
			}
		}
		if a.handle.Populated() {
			log.Info().Msg("Store already populated, use --reset to ingest again")
			return nil
		}
		return a.handle.EnsurePopulated(cmd.Context())
	},
}

func init() {
	ingestCmd.Flags().BoolVar(&ingestReset, "reset", false, "clear the store before ingesting")
	ingestCmd.Flags().BoolVar(&ingestDryRun, "dry-run", false, "print the segments without storing them")
	rootCmd.AddCommand(ingestCmd)
}
