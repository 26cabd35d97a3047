package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/storyteller/internal/command"
)

func init() {
	cmd := &cobra.Command{
		Use:   "parse [input]",
		Short: "Parse a player command",
		Long: "Split a player command of the form \"action/directive(60%),directive\" into\n" +
			"its action and weighted directives.",
		Run: runParse,
	}

	cmd.Flags().Bool("prompt", false, "Print the rendered directive block instead")

	RootCmd.AddCommand(cmd)
}

func runParse(cmd *cobra.Command, args []string) {
	asPrompt, _ := cmd.Flags().GetBool("prompt")

	input, err := readText(cmd, "", args)
	if err != nil {
		exitErr("read input", err)
	}

	parsed := command.Parse(input)
	if asPrompt {
		fmt.Fprintln(cmd.OutOrStdout(), command.RenderDirectivePrompt(parsed.Directives))
		return
	}
	printJSON(cmd, parsed)
}
