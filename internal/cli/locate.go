package cli

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/storyteller/internal/locate"
)

func init() {
	cmd := &cobra.Command{
		Use:   "locate [search]",
		Short: "Find a passage in a story",
		Long: "Locate search text in a story (read from --story or stdin) and print the\n" +
			"surrounding window. Falls back from exact to line-wise, case-insensitive\n" +
			"and split-half matching.",
		Args: cobra.MinimumNArgs(1),
		Run:  runLocate,
	}

	cmd.Flags().StringP("story", "s", "-", "Story file (- for stdin)")
	cmd.Flags().Int("before", locate.DefaultLeadMargin, "Characters of context before the match line")
	cmd.Flags().Int("after", locate.DefaultTrailMargin, "Characters of context after the match line")

	RootCmd.AddCommand(cmd)
}

func runLocate(cmd *cobra.Command, args []string) {
	storyPath, _ := cmd.Flags().GetString("story")
	before, _ := cmd.Flags().GetInt("before")
	after, _ := cmd.Flags().GetInt("after")

	story, err := readText(cmd, storyPath, nil)
	if err != nil {
		exitErr("read story", err)
	}

	w, err := locate.LocateWithOptions(story, strings.Join(args, " "), locate.Options{
		LeadMargin:  before,
		TrailMargin: after,
	})
	if err != nil {
		exitErr("locate", err)
	}

	if textOutput() {
		fmt.Fprintln(cmd.OutOrStdout(), w.Text)
		return
	}
	printJSON(cmd, w)
}
