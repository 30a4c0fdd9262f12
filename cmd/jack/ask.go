package main

import (
	"encoding/json"
	"strings"

	"github.com/spf13/cobra"

	"github.com/comigor/jack-go/internal/chat"
	"github.com/comigor/jack-go/internal/history"
	"github.com/comigor/jack-go/internal/source"
)

var flagJSON bool

func init() {
	rootCmd.AddCommand(askCmd)

	askCmd.Flags().StringVarP(&flagEndpoint, "endpoint", "e", "", "question endpoint: ask, ask-nuclia or a /path (default from api.endpoint)")
	askCmd.Flags().BoolVar(&flagJSON, "json", false, "print the answer and its sources as JSON")
}

var askCmd = &cobra.Command{
	Use:   "ask [question]",
	Short: "Ask a single question and print the answer",
	Example: `  jack ask "What does the warranty cover?"
  jack ask -e ask-nuclia --json What is X?`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ep, err := endpoint()
		if err != nil {
			return err
		}
		session := chat.NewSession(client, history.New(), ep)
		reply, askErr := session.Ask(cmd.Context(), strings.Join(args, " "))
		if askErr != nil && reply.Text == "" {
			return askErr
		}

		if flagJSON {
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			if err := enc.Encode(struct {
				Answer  string       `json:"answer"`
				Sources []source.Doc `json:"sources"`
				Error   string       `json:"error,omitempty"`
			}{reply.Text, reply.Sources, errString(askErr)}); err != nil {
				return err
			}
		} else {
			printReply(cmd.OutOrStdout(), reply)
		}
		return askErr
	},
}

func errString(err error) string {
	if err == nil {
		return ""
	}
	return err.Error()
}
