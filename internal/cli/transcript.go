package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/storyteller/internal/model"
	"github.com/rcliao/storyteller/internal/store"
)

func init() {
	cmd := &cobra.Command{
		Use:   "transcript <session>",
		Short: "Show a stored session",
		Args:  cobra.ExactArgs(1),
		Run:   runTranscript,
	}

	cmd.Flags().IntP("last", "l", 0, "Only the last N messages")

	rewindCmd := &cobra.Command{
		Use:   "rewind <session> <seq>",
		Short: "Delete every message after seq",
		Args:  cobra.ExactArgs(2),
		Run:   runRewind,
	}

	RootCmd.AddCommand(cmd, rewindCmd)
}

func runTranscript(cmd *cobra.Command, args []string) {
	last, _ := cmd.Flags().GetInt("last")

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	messages, err := s.List(cmd.Context(), store.ListParams{Session: args[0], Limit: last})
	if err != nil {
		exitErr("transcript", err)
	}
	if len(messages) == 0 {
		exitErr("transcript", fmt.Errorf("%w: session %q", model.ErrNotFound, args[0]))
	}

	if !textOutput() {
		printJSON(cmd, messages)
		return
	}
	for _, m := range messages {
		if m.Role == model.RoleUser {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d] > %s\n\n", m.Seq, m.Content)
		} else {
			fmt.Fprintf(cmd.OutOrStdout(), "[%d] %s\n\n", m.Seq, m.Content)
		}
	}
}

func runRewind(cmd *cobra.Command, args []string) {
	var seq int
	if _, err := fmt.Sscanf(args[1], "%d", &seq); err != nil || seq < 0 {
		exitErr("rewind", fmt.Errorf("%w: seq %q", model.ErrInvalidInput, args[1]))
	}

	s, err := openStore()
	if err != nil {
		exitErr("open store", err)
	}
	defer s.Close()

	removed, err := s.TruncateAfter(cmd.Context(), args[0], seq)
	if err != nil {
		exitErr("rewind", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"ok":true,"session":%q,"removed":%d}`+"\n", args[0], removed)
}
