// Package chunker splits prose into paragraph-aligned blocks sized in runes,
// and clips long setting documents to a budget without cutting mid-paragraph.
package chunker

import (
	"strings"
	"unicode/utf8"
)

const (
	DefaultTargetSize = 1200
	DefaultMaxSize    = 2000
)

// Options configures chunking. Sizes are in runes.
type Options struct {
	TargetSize int // paragraphs are packed together up to this size
	MaxSize    int // a packed block above this is split on line boundaries
}

// DefaultOptions returns default chunking options.
func DefaultOptions() Options {
	return Options{
		TargetSize: DefaultTargetSize,
		MaxSize:    DefaultMaxSize,
	}
}

// ChunkResult is one chunk and the 1-based line span it came from.
type ChunkResult struct {
	Text      string
	StartLine int
	EndLine   int
}

// Chunk splits text into chunks. Text of at most MaxSize runes is returned
// as a single chunk.
func Chunk(text string, opts Options) []ChunkResult {
	if opts.TargetSize <= 0 {
		opts = DefaultOptions()
	}
	if opts.MaxSize < opts.TargetSize {
		opts.MaxSize = opts.TargetSize
	}

	text = strings.TrimSpace(text)
	if text == "" {
		return nil
	}
	if runeLen(text) <= opts.MaxSize {
		return []ChunkResult{{Text: text, StartLine: 1, EndLine: strings.Count(text, "\n") + 1}}
	}

	var out []ChunkResult
	var acc *ChunkResult
	emit := func() {
		if acc == nil {
			return
		}
		if runeLen(acc.Text) > opts.MaxSize {
			out = append(out, splitLines(*acc, opts.TargetSize)...)
		} else {
			out = append(out, *acc)
		}
		acc = nil
	}

	for _, p := range paragraphs(text) {
		p := p // per-iteration copy: acc keeps &p (go1.21 loop-variable semantics)
		switch {
		case acc == nil:
			acc = &p
		case runeLen(acc.Text)+2+runeLen(p.Text) <= opts.TargetSize:
			acc.Text += "\n\n" + p.Text
			acc.EndLine = p.EndLine
		default:
			emit()
			acc = &p
		}
	}
	emit()
	return out
}

// Clip returns the longest run of leading paragraphs that fits in limit
// runes. When the first paragraph alone is too long it is cut on a line
// boundary, and a single overlong line is cut on a rune boundary.
func Clip(text string, limit int) string {
	if limit <= 0 {
		return ""
	}
	chunks := Chunk(text, Options{TargetSize: limit, MaxSize: limit})
	if len(chunks) == 0 {
		return ""
	}
	first := chunks[0].Text
	if runeLen(first) > limit {
		first = string([]rune(first)[:limit])
	}
	return first
}

// paragraphs breaks text at blank lines and before markdown headings.
func paragraphs(text string) []ChunkResult {
	var out []ChunkResult
	var cur []string
	start := 0

	closeAt := func(end int) {
		if t := strings.TrimSpace(strings.Join(cur, "\n")); t != "" {
			out = append(out, ChunkResult{Text: t, StartLine: start, EndLine: end})
		}
		cur = nil
	}

	for i, line := range strings.Split(text, "\n") {
		n := i + 1
		trimmed := strings.TrimSpace(line)
		if trimmed == "" || (strings.HasPrefix(trimmed, "#") && len(cur) > 0) {
			closeAt(n - 1)
		}
		if trimmed == "" {
			continue
		}
		if len(cur) == 0 {
			start = n
		}
		cur = append(cur, line)
	}
	closeAt(start + len(cur) - 1)
	return out
}

// splitLines packs the lines of c into pieces of at most target runes. A
// line longer than target becomes a piece of its own.
func splitLines(c ChunkResult, target int) []ChunkResult {
	var out []ChunkResult
	var cur []string
	start, size := c.StartLine, 0

	for i, line := range strings.Split(c.Text, "\n") {
		n := c.StartLine + i
		l := runeLen(line)
		if len(cur) > 0 && size+l > target {
			if t := strings.TrimSpace(strings.Join(cur, "\n")); t != "" {
				out = append(out, ChunkResult{Text: t, StartLine: start, EndLine: n - 1})
			}
			cur, start, size = nil, n, 0
		}
		cur = append(cur, line)
		size += l + 1
	}
	if t := strings.TrimSpace(strings.Join(cur, "\n")); t != "" {
		out = append(out, ChunkResult{Text: t, StartLine: start, EndLine: start + len(cur) - 1})
	}
	return out
}

func runeLen(s string) int { return utf8.RuneCountInString(s) }
