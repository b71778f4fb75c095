package main

import (
	"strings"

	"github.com/spf13/cobra"

	"document-chat/internal/helper"
)

var askJSON bool

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Answer a single question and exit",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		a, err := newApp(cmd.Context(), cfg)
		if err != nil {
			return err
		}
		defer a.Close()

		resp, err := a.rag.Query(cmd.Context(), strings.Join(args, " "))
		if err != nil {
			return err
		}
		if askJSON {
			helper.PrettyPrint(cmd.OutOrStdout(), resp)
			return nil
		}
		cmd.Printf("%s\n\n%s\n", resp.Content, resp.Source)
		return nil
	},
}

func init() {
	askCmd.Flags().BoolVar(&askJSON, "json", false, "print the answer as JSON")
	rootCmd.AddCommand(askCmd)
}
