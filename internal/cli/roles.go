package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/storyteller/internal/roles"
)

func init() {
	cmd := &cobra.Command{
		Use:   "roles",
		Short: "List probable character names in a story",
		Run:   runRoles,
	}

	cmd.Flags().StringP("story", "s", "-", "Story file (- for stdin)")

	RootCmd.AddCommand(cmd)
}

func runRoles(cmd *cobra.Command, args []string) {
	storyPath, _ := cmd.Flags().GetString("story")

	story, err := readText(cmd, storyPath, nil)
	if err != nil {
		exitErr("read story", err)
	}

	names := roles.Extract(story)
	if textOutput() {
		fmt.Fprintln(cmd.OutOrStdout(), strings.Join(names, "\n"))
		return
	}
	printJSON(cmd, names)
}
