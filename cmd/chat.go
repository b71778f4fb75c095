package main

import (
	tea "github.com/charmbracelet/bubbletea"
	"github.com/spf13/cobra"

	"document-chat/internal/helper"
	"document-chat/internal/session"
	"document-chat/internal/tui"
)

var chatCmd = &cobra.Command{
	Use:   "chat",
	Short: "Chat in the terminal",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		id, err := helper.GenerateUUID()
		if err != nil {
			return err
		}
		m := tui.New(cmd.Context(), a.rag, session.New(id), cfg.Server.Title)
		_, err = tea.NewProgram(m, tea.WithAltScreen()).Run()
		return err
	},
}

func init() {
	rootCmd.AddCommand(chatCmd)
}
