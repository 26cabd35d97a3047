// Package cli implements the storyteller CLI commands.
package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strings"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/rcliao/storyteller/internal/config"
	"github.com/rcliao/storyteller/internal/logger"
	"github.com/rcliao/storyteller/internal/store"
)

var (
	dbPath     string
	formatFlag string
	logLevel   string

	cfg *config.Config
	log = zap.NewNop()
)

// RootCmd is the top-level command.
var RootCmd = &cobra.Command{
	Use:   "storyteller",
	Short: "Interactive fiction narrator",
	Long: "Play a model-narrated story in the terminal, and inspect stories offline:\n" +
		"locate passages, parse player commands, extract roles, fingerprint style.",
	SilenceUsage:      true,
	PersistentPreRunE: setup,
}

func init() {
	RootCmd.PersistentFlags().StringVarP(&dbPath, "db", "d", "", "Transcript database path (default: $STORYTELLER_DB or in-memory)")
	RootCmd.PersistentFlags().StringVarP(&formatFlag, "format", "f", "json", "Output format: json or text")
	RootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level: debug, info, warn, error (default: $STORYTELLER_LOG_LEVEL)")
}

// setup loads config and builds the logger before any command runs.
func setup(cmd *cobra.Command, args []string) error {
	c, err := config.Load()
	if err != nil {
		return err
	}
	if dbPath != "" {
		c.DB = dbPath
	}
	if logLevel != "" {
		c.LogLevel = logLevel
	}
	cfg = c

	l, err := logger.New(logger.Config{Level: c.LogLevel, Encoding: c.LogEncoding})
	if err != nil {
		return err
	}
	log = l
	return nil
}

func openStore() (*store.SQLiteStore, error) {
	return store.NewSQLiteStore(cfg.DB)
}

func exitErr(msg string, err error) {
	log.Sync()
	fmt.Fprintf(os.Stderr, "error: %s: %v\n", msg, err)
	os.Exit(1)
}

func textOutput() bool {
	return strings.EqualFold(formatFlag, "text")
}

func printJSON(cmd *cobra.Command, v interface{}) {
	printJSONTo(cmd.OutOrStdout(), v)
}

func printJSONTo(w io.Writer, v interface{}) {
	b, _ := json.MarshalIndent(v, "", "  ")
	fmt.Fprintln(w, string(b))
}

// readText returns the contents of path, or of stdin when path is "-".
// With no path, positional args win over piped stdin.
func readText(cmd *cobra.Command, path string, args []string) (string, error) {
	switch {
	case path != "" && path != "-":
		b, err := os.ReadFile(path)
		if err != nil {
			return "", err
		}
		return string(b), nil
	case path == "" && len(args) > 0:
		return strings.Join(args, " "), nil
	}

	in := cmd.InOrStdin()
	if f, ok := in.(*os.File); ok && path == "" {
		stat, err := f.Stat()
		if err != nil || stat.Mode()&os.ModeCharDevice != 0 {
			return "", nil
		}
	}
	b, err := io.ReadAll(in)
	if err != nil {
		return "", err
	}
	return string(b), nil
}
