package command

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func pct(n int) *int { return &n }

func TestParse_ActionAndDirectives(t *testing.T) {
	got := Parse("go north/explore the house(70%),check the door")

	assert.Equal(t, "go north", got.Action)
	assert.True(t, got.HasDirectives)
	require.Len(t, got.Directives, 2)
	assert.Equal(t, Directive{Description: "explore the house", Percentage: pct(70)}, got.Directives[0])
	assert.Equal(t, Directive{Description: "check the door"}, got.Directives[1])
}

func TestParse_NoSlash(t *testing.T) {
	got := Parse("  just walk ")
	assert.Equal(t, "just walk", got.Action)
	assert.Empty(t, got.Directives)
	assert.False(t, got.HasDirectives)
}

func TestParse_Empty(t *testing.T) {
	got := Parse("")
	assert.Equal(t, "", got.Action)
	assert.NotNil(t, got.Directives)
	assert.False(t, got.HasDirectives)
}

func TestParse_ChineseCommasAndBrackets(t *testing.T) {
	got := Parse("推开门/描写房间（40%），描写人物(60%)")
	assert.Equal(t, "推开门", got.Action)
	require.Len(t, got.Directives, 2)
	assert.Equal(t, "描写房间", got.Directives[0].Description)
	assert.Equal(t, 40, *got.Directives[0].Percentage)
	assert.Equal(t, "描写人物", got.Directives[1].Description)
	assert.Equal(t, 60, *got.Directives[1].Percentage)
}

func TestParse_SlashOnly(t *testing.T) {
	got := Parse("look around/")
	assert.Equal(t, "look around", got.Action)
	assert.False(t, got.HasDirectives)
}

func TestParse_FallbackKeepsText(t *testing.T) {
	got := Parse("/,,,")
	assert.Equal(t, "", got.Action)
	require.Len(t, got.Directives, 1)
	assert.Equal(t, ",,,", got.Directives[0].Description)
	assert.Nil(t, got.Directives[0].Percentage)
}

func TestParse_ClampsPercentage(t *testing.T) {
	got := Parse("wait/think hard(250%)")
	require.Len(t, got.Directives, 1)
	assert.Equal(t, 100, *got.Directives[0].Percentage)
}

func TestParse_ClampsOverflowingPercentage(t *testing.T) {
	got := Parse("a/x(999999999999999999999%)")
	require.Len(t, got.Directives, 1)
	assert.Equal(t, "x", got.Directives[0].Description)
	require.NotNil(t, got.Directives[0].Percentage)
	assert.Equal(t, 100, *got.Directives[0].Percentage)
}

func TestParse_JSONNullPercentage(t *testing.T) {
	b, err := json.Marshal(Parse("a/b").Directives)
	require.NoError(t, err)
	assert.JSONEq(t, `[{"description":"b","percentage":null}]`, string(b))
}

func TestRenderDirectivePrompt(t *testing.T) {
	assert.Equal(t, "", RenderDirectivePrompt(nil))

	out := RenderDirectivePrompt(Parse("x/fight(70%),flee").Directives)
	assert.Contains(t, out, "1. fight（占70%的文字）")
	assert.Contains(t, out, "2. flee\n")
	assert.Contains(t, out, "内容连贯自然")
}
