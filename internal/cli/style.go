package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/storyteller/internal/model"
	"github.com/rcliao/storyteller/internal/style"
)

func init() {
	styleCmd := &cobra.Command{
		Use:   "style",
		Short: "Fingerprint and compare narrative style",
	}

	analyzeCmd := &cobra.Command{
		Use:   "analyze",
		Short: "Print the style fingerprint of a story",
		Run:   runStyleAnalyze,
	}

	promptCmd := &cobra.Command{
		Use:   "prompt",
		Short: "Print the style instruction block for a story",
		Run:   runStylePrompt,
	}

	scoreCmd := &cobra.Command{
		Use:   "score",
		Short: "Score how closely a candidate text matches a story's style (0-100)",
		Run:   runStyleScore,
	}
	scoreCmd.Flags().StringP("candidate", "c", "", "Candidate text file (required)")
	scoreCmd.MarkFlagRequired("candidate")

	for _, c := range []*cobra.Command{analyzeCmd, promptCmd, scoreCmd} {
		c.Flags().StringP("story", "s", "-", "Story file (- for stdin)")
		styleCmd.AddCommand(c)
	}
	RootCmd.AddCommand(styleCmd)
}

func fingerprint(cmd *cobra.Command) (*style.Fingerprint, string) {
	storyPath, _ := cmd.Flags().GetString("story")
	story, err := readText(cmd, storyPath, nil)
	if err != nil {
		exitErr("read story", err)
	}
	fp := style.Analyze(story)
	if fp == nil {
		exitErr("style", fmt.Errorf("%w: story shorter than %d characters", model.ErrInvalidInput, style.MinStoryLength))
	}
	return fp, story
}

func runStyleAnalyze(cmd *cobra.Command, args []string) {
	fp, _ := fingerprint(cmd)
	printJSON(cmd, fp)
}

func runStylePrompt(cmd *cobra.Command, args []string) {
	fp, story := fingerprint(cmd)
	fmt.Fprintln(cmd.OutOrStdout(), style.RenderPrompt(fp, story))
}

func runStyleScore(cmd *cobra.Command, args []string) {
	candidatePath, _ := cmd.Flags().GetString("candidate")
	fp, _ := fingerprint(cmd)

	candidate, err := readText(cmd, candidatePath, nil)
	if err != nil {
		exitErr("read candidate", err)
	}
	fmt.Fprintf(cmd.OutOrStdout(), `{"score":%d}`+"\n", style.Score(fp, candidate))
}
