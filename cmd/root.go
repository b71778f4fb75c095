package main

import (
	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"document-chat/internal/config"
)

var (
	configPath string
	cfg        *config.Config
)

var rootCmd = &cobra.Command{
	Use:   "document-chat",
	Short: "Chat with a document using a local model",
	Long: `Answers questions about a single document. The document is split into
segments, stored in a local vector index and the most similar segments are
passed to a local language model together with the question.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		cfg, err = config.LoadConfig(configPath)
		if err != nil {
			return err
		}
		zerolog.SetGlobalLevel(logLevel(cfg.Log.Level))
		log.Debug().Interface("config", cfg.Redacted()).Msg("Loaded config")
		return nil
	},
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", config.DefaultConfigPath, "path to the YAML config file")
}
