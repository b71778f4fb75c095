package main

import (
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var exportCmd = &cobra.Command{
	Use:   "export [file]",
	Short: "Export the collection to an encrypted file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openChromem(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		file := store.ExportPath()
		if len(args) == 1 {
			file = args[0]
		}
		if err := store.Export(cmd.Context(), file); err != nil {
			return err
		}
		log.Info().Str("file", file).Msg("Exported collection")
		return nil
	},
}

var importCmd = &cobra.Command{
	Use:   "import [file]",
	Short: "Replace the collection with an exported file",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, closeStore, err := openChromem(cmd)
		if err != nil {
			return err
		}
		defer closeStore()

		file := store.ExportPath()
		if len(args) == 1 {
			file = args[0]
		}
		if err := store.Import(cmd.Context(), file); err != nil {
			return err
		}
		count, _ := store.Count(cmd.Context())
		log.Info().Str("file", file).Int("segments", count).Msg("Imported collection")
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd, importCmd)
}
