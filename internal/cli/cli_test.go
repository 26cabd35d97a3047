package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcliao/storyteller/internal/command"
	"github.com/rcliao/storyteller/internal/locate"
	"github.com/rcliao/storyteller/internal/model"
)

// run executes the root command with args and stdin, returning stdout.
func run(t *testing.T, stdin string, args ...string) string {
	t.Helper()
	chdir(t, t.TempDir())

	var out bytes.Buffer
	RootCmd.SetArgs(args)
	RootCmd.SetIn(strings.NewReader(stdin))
	RootCmd.SetOut(&out)
	t.Cleanup(func() {
		RootCmd.SetArgs(nil)
		RootCmd.SetIn(nil)
		RootCmd.SetOut(nil)
	})

	require.NoError(t, RootCmd.Execute())
	return out.String()
}

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	return path
}

func TestParseCommand(t *testing.T) {
	out := run(t, "", "parse", "--format", "json", "--prompt=false", "进入森林/战斗(60%),对话")

	var got command.Parsed
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, "进入森林", got.Action)
	require.Len(t, got.Directives, 2)
	assert.Equal(t, 60, *got.Directives[0].Percentage)
	assert.Nil(t, got.Directives[1].Percentage)
}

func TestParsePrompt(t *testing.T) {
	out := run(t, "", "parse", "--prompt", "go/fight(70%)")
	assert.Contains(t, out, "1. fight（占70%的文字）")
}

func TestLocateCommand(t *testing.T) {
	story := "line one\nthe door opened slowly\nline three"
	out := run(t, story, "locate", "--format", "json", "--story", "-", "--before", "0", "--after", "0", "door opened")

	var w locate.Window
	require.NoError(t, json.Unmarshal([]byte(out), &w))
	assert.Equal(t, "the door opened slowly", w.Text)
	assert.Equal(t, locate.StrategyExact, w.Strategy)
}

func TestRolesCommand(t *testing.T) {
	path := writeFile(t, "story.txt", "Alice opened the door. Alice smiled.\nBob waited.")
	out := run(t, "", "roles", "--format", "text", "--story", path)

	lines := strings.Split(strings.TrimSpace(out), "\n")
	require.NotEmpty(t, lines)
	assert.Equal(t, "Alice", lines[0])
	assert.Contains(t, lines, "Bob")
}

func TestStyleCommands(t *testing.T) {
	story := strings.Repeat("他推开门，风雪灌了进来。屋里很暗。\n\n", 10)
	storyPath := writeFile(t, "story.txt", story)
	candidatePath := writeFile(t, "candidate.txt", story)

	out := run(t, "", "style", "analyze", "--story", storyPath)
	var fp map[string]any
	require.NoError(t, json.Unmarshal([]byte(out), &fp))
	assert.Contains(t, fp, "avg_sentence_length")

	out = run(t, "", "style", "prompt", "--story", storyPath)
	assert.Contains(t, out, "# 文字风格要求")

	out = run(t, "", "style", "score", "--story", storyPath, "--candidate", candidatePath)
	var score struct{ Score int }
	require.NoError(t, json.Unmarshal([]byte(out), &score))
	assert.Greater(t, score.Score, 70)
}

func TestMemoryCommand(t *testing.T) {
	story := "风很冷。老板说道，今晚有雪。\n\n林舟推门而入。"
	path := writeFile(t, "story.txt", story)
	out := run(t, "", "memory", "--story", path, "--capacity", "20", "--max-age", "7d")

	var report struct {
		Contexts []struct {
			Summary string `json:"summary"`
			Index   int    `json:"index"`
		} `json:"contexts"`
		Summary struct {
			Characters string `json:"characters"`
		} `json:"summary"`
	}
	require.NoError(t, json.Unmarshal([]byte(out), &report))
	require.Len(t, report.Contexts, 2)
	assert.Equal(t, "风很冷。", report.Contexts[0].Summary)
	assert.Equal(t, 1, report.Contexts[1].Index)
	assert.Contains(t, report.Summary.Characters, "老板说")
}

func TestTranscriptRoundTrip(t *testing.T) {
	dir := t.TempDir()
	db := filepath.Join(dir, "story.db")
	dump := `[
	  {"id":"01A","session":"s1","seq":0,"role":"assistant","content":"开场。","created_at":"2025-01-01T00:00:00Z"},
	  {"id":"01B","session":"s1","seq":1,"role":"user","content":"走","created_at":"2025-01-01T00:00:01Z"},
	  {"id":"01C","session":"s1","seq":2,"role":"assistant","content":"下一幕。","created_at":"2025-01-01T00:00:02Z"}
	]`

	out := run(t, dump, "import", "--db", db)
	assert.Contains(t, out, `"imported":3`)

	out = run(t, "", "transcript", "--db", db, "--format", "text", "--last", "0", "s1")
	assert.Contains(t, out, "[1] > 走")
	assert.Contains(t, out, "[2] 下一幕。")

	out = run(t, "", "rewind", "--db", db, "s1", "0")
	assert.Contains(t, out, `"removed":2`)

	out = run(t, "", "export", "--db", db, "--session", "s1")
	var messages []model.Message
	require.NoError(t, json.Unmarshal([]byte(out), &messages))
	require.Len(t, messages, 1)
	assert.Equal(t, "开场。", messages[0].Content)

	out = run(t, "", "stats", "--db", db)
	assert.Contains(t, out, `"total_messages": 1`)
}
