package cli

import (
	"strings"

	"github.com/spf13/cobra"

	"github.com/rcliao/storyteller/internal/config"
	"github.com/rcliao/storyteller/internal/memory"
)

func init() {
	cmd := &cobra.Command{
		Use:   "memory",
		Short: "Build working memory from a story",
		Long: "Scan a story paragraph by paragraph the way a session does after each reply:\n" +
			"record mentioned characters and summarize each paragraph, then print the\n" +
			"rendered memory.",
		Run: runMemory,
	}

	cmd.Flags().StringP("story", "s", "-", "Story file (- for stdin)")
	cmd.Flags().Int("capacity", memory.DefaultCapacity, "Context summaries to keep")
	cmd.Flags().String("max-age", "", "Evict entries older than this, e.g. 7d (default: $STORYTELLER_MEMORY_MAX_AGE)")

	RootCmd.AddCommand(cmd)
}

type memoryReport struct {
	Characters []memory.Character    `json:"characters"`
	Contexts   []memory.ContextEntry `json:"contexts"`
	Summary    memory.Summary        `json:"summary"`
}

func runMemory(cmd *cobra.Command, args []string) {
	storyPath, _ := cmd.Flags().GetString("story")
	capacity, _ := cmd.Flags().GetInt("capacity")
	maxAgeStr, _ := cmd.Flags().GetString("max-age")

	maxAge := cfg.MemoryMaxAge.Duration()
	if maxAgeStr != "" {
		d, err := config.ParseAge(maxAgeStr)
		if err != nil {
			exitErr("max-age", err)
		}
		maxAge = d
	}

	story, err := readText(cmd, storyPath, nil)
	if err != nil {
		exitErr("read story", err)
	}

	m := memory.New(memory.WithCapacity(capacity))
	for i, para := range paragraphs(story) {
		m.Observe(para, i)
	}
	m.Cleanup(maxAge)

	printJSON(cmd, memoryReport{
		Characters: m.Characters(),
		Contexts:   m.RecentContexts(0, 0),
		Summary:    m.Summary(),
	})
}

func paragraphs(text string) []string {
	var out []string
	for _, p := range strings.Split(text, "\n\n") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
