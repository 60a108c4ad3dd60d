// commands_chat.go defines the realtime chat command and the status command.
package main

import (
	"github.com/spf13/cobra"
)

func buildChatCmd() *cobra.Command {
	var replay int

	cmd := &cobra.Command{
		Use:   "chat",
		Short: "Open the realtime chat channel",
		Long: `Open the realtime chat channel and an interactive prompt.

Commands inside the prompt:

  /users         list contacts and their online state
  /select <id>   choose the conversation target
  /history       show the shared message log
  /quit          close the channel and exit

Anything else is sent to the selected target.`,
		Args: cobra.NoArgs,
		Example: `  # Open chat, replaying the last 20 archived messages
  workboard chat --replay 20`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runChat(cmd.Context(), replay)
		},
	}

	cmd.Flags().IntVar(&replay, "replay", 0, "Archived messages to replay before connecting")
	return cmd
}

func buildStatusCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show client configuration and session state",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runStatus()
		},
	}
}
