package main

import (
	"github.com/spf13/cobra"

	"document-chat/internal/api"
	"document-chat/internal/session"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the browser chat",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		srv := api.NewServer(cfg, a.rag, session.NewManager())
		return srv.Start()
	},
}

func init() {
	rootCmd.AddCommand(serveCmd)
}
