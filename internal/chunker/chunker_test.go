package chunker

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestChunk_EmptyInput(t *testing.T) {
	assert.Nil(t, Chunk("", DefaultOptions()))
	assert.Nil(t, Chunk("  \n\n ", DefaultOptions()))
}

func TestChunk_ShortContent(t *testing.T) {
	text := "世界的尽头是一片海。"
	result := Chunk(text, DefaultOptions())
	require.Len(t, result, 1)
	assert.Equal(t, text, result[0].Text)
	assert.Equal(t, 1, result[0].StartLine)
}

func TestChunk_SizesInRunes(t *testing.T) {
	// 300 runes but 900 bytes: still a single chunk under a 400-rune max.
	text := strings.Repeat("海", 300)
	result := Chunk(text, Options{TargetSize: 300, MaxSize: 400})
	require.Len(t, result, 1)
}

func TestChunk_SplitsOnHeadings(t *testing.T) {
	section := strings.Repeat("城邦的历史漫长而曲折。", 30) // 330 runes
	text := "# 第一章\n" + section + "\n# 第二章\n" + section + "\n# 第三章\n" + section

	result := Chunk(text, Options{TargetSize: 400, MaxSize: 600})
	require.GreaterOrEqual(t, len(result), 2)
	assert.Contains(t, result[0].Text, "第一章")
	assert.NotContains(t, result[0].Text, "第二章")
}

func TestChunk_ParagraphSplit(t *testing.T) {
	para := strings.Repeat("风从北方吹来。", 40) // 280 runes
	text := para + "\n\n" + para + "\n\n" + para

	result := Chunk(text, Options{TargetSize: 400, MaxSize: 500})
	require.Len(t, result, 3)
	assert.Equal(t, 1, result[0].StartLine)
	assert.Equal(t, 3, result[1].StartLine)
	assert.Equal(t, 5, result[2].StartLine)
}

func TestChunk_HardSplitsLongBlock(t *testing.T) {
	var lines []string
	for i := 0; i < 20; i++ {
		lines = append(lines, strings.Repeat("路", 50))
	}
	result := Chunk(strings.Join(lines, "\n"), Options{TargetSize: 200, MaxSize: 300})
	require.GreaterOrEqual(t, len(result), 2)
	for _, r := range result {
		assert.LessOrEqual(t, utf8.RuneCountInString(r.Text), 300)
	}
}

func TestClip_WholeParagraphs(t *testing.T) {
	p1 := strings.Repeat("甲", 100)
	p2 := strings.Repeat("乙", 100)
	p3 := strings.Repeat("丙", 100)
	text := p1 + "\n\n" + p2 + "\n\n" + p3

	assert.Equal(t, text, Clip(text, 1000))
	assert.Equal(t, p1+"\n\n"+p2, Clip(text, 250))
	assert.Equal(t, p1, Clip(text, 150))
}

func TestClip_CutsOverlongParagraph(t *testing.T) {
	text := strings.Repeat("长", 500) + "\n\n尾"
	got := Clip(text, 120)
	assert.Equal(t, strings.Repeat("长", 120), got)
}

func TestClip_NonPositiveLimit(t *testing.T) {
	assert.Equal(t, "", Clip("anything", 0))
}

func TestChunk_MergesSmallParagraphs(t *testing.T) {
	short := strings.Repeat("雨", 80)
	long := strings.Repeat("雪", 350)
	text := short + "\n\n" + short + "\n\n\n" + long

	result := Chunk(text, Options{TargetSize: 200, MaxSize: 400})
	require.Len(t, result, 2)
	assert.Equal(t, short+"\n\n"+short, result[0].Text)
	assert.Equal(t, 1, result[0].StartLine)
	assert.Equal(t, 3, result[0].EndLine)
	assert.Equal(t, 6, result[1].StartLine)
	assert.Equal(t, 6, result[1].EndLine)
}
