package roles

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestExtract_Empty(t *testing.T) {
	got := Extract("")
	assert.NotNil(t, got)
	assert.Empty(t, got)
}

func TestExtract_EnglishRankedByFrequency(t *testing.T) {
	story := "Alice said hello to Bob. Bob asked Alice about the road. Alice smiled. Later Alice's horse was tired."
	got := Extract(story)

	require.NotEmpty(t, got)
	assert.Equal(t, "Alice", got[0])
	assert.Contains(t, got, "Bob")
}

func TestExtract_ChineseSpeech(t *testing.T) {
	story := "林默说：“走吧。”苏晴问：“去哪？”林默道：“北方。”"
	got := Extract(story)

	require.NotEmpty(t, got)
	assert.Equal(t, "林默", got[0])
	assert.Contains(t, got, "苏晴")
}

func TestExtract_JapaneseBrackets(t *testing.T) {
	story := "さくらは笑った。「ハルト」と呼んだ。ハルトが振り向いた。"
	got := Extract(story)
	assert.Contains(t, got, "ハルト")
}

func TestExtract_StopwordSubstringRejected(t *testing.T) {
	// "Morgan" contains the stopword "a" and is dropped on purpose.
	got := Extract("Morgan rode north. Morgan rested.")
	assert.NotContains(t, got, "Morgan")
}

func TestExtract_Invariants(t *testing.T) {
	var parts []string
	for i := 0; i < 80; i++ {
		parts = append(parts, string([]rune{rune(0x5000 + 2*i), rune(0x5001 + 2*i)}))
	}
	story := strings.Join(parts, "，") + "。" + parts[7] + "，" + parts[7]

	got := Extract(story)
	assert.Len(t, got, MaxRoles)
	assert.Equal(t, parts[7], got[0])

	seen := map[string]bool{}
	for _, name := range got {
		assert.False(t, seen[name], "duplicate %q", name)
		seen[name] = true
		assert.Contains(t, story, name)
	}
}

func TestIsStopword(t *testing.T) {
	assert.True(t, isStopword("The"))
	assert.True(t, isStopword("然后呢"))
	assert.False(t, isStopword("Bob"))
}
