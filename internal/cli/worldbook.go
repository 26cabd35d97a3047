package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/rcliao/storyteller/internal/llm"
	"github.com/rcliao/storyteller/internal/prompt"
)

func init() {
	cmd := &cobra.Command{
		Use:   "worldbook",
		Short: "Generate a world book with the model",
		Long:  "Ask the model for a fresh setting document (world book) to play in.",
		Run:   runWorldBook,
	}

	RootCmd.AddCommand(cmd)
}

func newClient() *llm.Client {
	client, err := llm.New(llm.Config{
		APIKey:      cfg.APIKey,
		BaseURL:     cfg.BaseURL,
		Model:       cfg.Model,
		ImageModel:  cfg.ImageModel,
		ImageSize:   cfg.ImageSize,
		Temperature: cfg.Temperature,
		Timeout:     cfg.Timeout,
	}, log)
	if err != nil {
		exitErr("model client (set STORYTELLER_API_KEY)", err)
	}
	return client
}

func runWorldBook(cmd *cobra.Command, args []string) {
	client := newClient()

	resp, err := client.Complete(cmd.Context(), llm.Request{
		System:    prompt.WorldBookSystem,
		Input:     prompt.WorldBookRequest,
		MaxTokens: prompt.WorldBookMaxTokens,
	})
	if err != nil {
		exitErr("generate world book", err)
	}
	fmt.Fprintln(cmd.OutOrStdout(), resp.Text)
}
