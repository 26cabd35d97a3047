// Package locate finds a player-supplied snippet inside a long story and cuts
// a bounded window of surrounding narrative around it.
//
// All offsets are rune offsets into the story.
package locate

import (
	"fmt"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/rcliao/storyteller/internal/model"
)

const (
	DefaultLeadMargin  = 500
	DefaultTrailMargin = 1500

	// splitHalfMin is the rune length a search must exceed before the
	// split-half strategy is attempted.
	splitHalfMin = 10
)

// Strategy names the matching rule that produced a window.
type Strategy string

const (
	StrategyExact     Strategy = "exact"
	StrategyLines     Strategy = "lines"
	StrategyLine      Strategy = "line"
	StrategyFold      Strategy = "case_insensitive"
	StrategySplitHalf Strategy = "split_half"
)

// Options configures window extraction.
type Options struct {
	LeadMargin  int
	TrailMargin int
}

// DefaultOptions returns the default margins.
func DefaultOptions() Options {
	return Options{
		LeadMargin:  DefaultLeadMargin,
		TrailMargin: DefaultTrailMargin,
	}
}

// Window is a contiguous slice of the story, [Start, End) in runes.
type Window struct {
	Start    int      `json:"start"`
	End      int      `json:"end"`
	Text     string   `json:"text"`
	Strategy Strategy `json:"strategy"`
}

// Locate finds search inside story using the default margins.
func Locate(story, search string) (*Window, error) {
	return LocateWithOptions(story, search, DefaultOptions())
}

// LocateWithOptions tries each strategy in turn and returns the window around
// the first match. It returns model.ErrNotFound when every strategy fails.
func LocateWithOptions(story, search string, opts Options) (*Window, error) {
	if opts.LeadMargin < 0 || opts.TrailMargin < 0 {
		return nil, fmt.Errorf("%w: negative margin", model.ErrInvalidInput)
	}

	needle := strings.TrimSpace(search)
	if needle == "" {
		return nil, fmt.Errorf("%w: search text is empty", model.ErrInvalidInput)
	}
	if story == "" {
		return nil, model.ErrNotFound
	}

	runes := []rune(story)
	needleLen := utf8.RuneCountInString(needle)

	// 1. Exact substring.
	if i := strings.Index(story, needle); i >= 0 {
		return cut(runes, runeOffset(story, i), needleLen, StrategyExact, opts), nil
	}

	storyLines := strings.Split(story, "\n")

	// 2. Every non-blank search line is contained in consecutive story lines.
	var searchLines []string
	for _, l := range strings.Split(needle, "\n") {
		if t := strings.TrimSpace(l); t != "" {
			searchLines = append(searchLines, t)
		}
	}
	if len(searchLines) > 1 {
		for i := 0; i+len(searchLines) <= len(storyLines); i++ {
			if !linesMatch(storyLines[i:i+len(searchLines)], searchLines) {
				continue
			}
			matched := strings.Join(storyLines[i:i+len(searchLines)], "\n")
			start := lineStart(storyLines, i)
			return cut(runes, start, utf8.RuneCountInString(matched), StrategyLines, opts), nil
		}
	}

	// 3. A single story line contains the whole search.
	for i, line := range storyLines {
		if j := strings.Index(line, needle); j >= 0 {
			start := lineStart(storyLines, i) + runeOffset(line, j)
			return cut(runes, start, needleLen, StrategyLine, opts), nil
		}
	}

	// 4. Case-insensitive substring.
	if i := indexRunes(fold(runes), fold([]rune(needle))); i >= 0 {
		return cut(runes, i, needleLen, StrategyFold, opts), nil
	}

	// 5. Both halves present close together; tolerates a corrupted middle.
	if needleLen > splitHalfMin {
		nr := []rune(needle)
		first, second := string(nr[:needleLen/2]), string(nr[needleLen/2:])
		fi, si := strings.Index(story, first), strings.Index(story, second)
		if fi >= 0 && si >= 0 {
			fr, sr := runeOffset(story, fi), runeOffset(story, si)
			if abs(sr-fr) < needleLen*2 {
				return cut(runes, fr, needleLen, StrategySplitHalf, opts), nil
			}
		}
	}

	return nil, model.ErrNotFound
}

func linesMatch(storyLines, searchLines []string) bool {
	for j, s := range searchLines {
		if !strings.Contains(storyLines[j], s) {
			return false
		}
	}
	return true
}

// cut widens a match to whole lines, then by the configured margins.
func cut(runes []rune, index, length int, strategy Strategy, opts Options) *Window {
	start := index
	for start > 0 && runes[start-1] != '\n' {
		start--
	}
	end := min(index+length, len(runes))
	for end < len(runes) && runes[end] != '\n' {
		end++
	}

	start = max(0, start-opts.LeadMargin)
	end = min(len(runes), end+opts.TrailMargin)

	return &Window{
		Start:    start,
		End:      end,
		Text:     string(runes[start:end]),
		Strategy: strategy,
	}
}

// lineStart returns the rune offset of line i.
func lineStart(lines []string, i int) int {
	n := 0
	for _, l := range lines[:i] {
		n += utf8.RuneCountInString(l) + 1
	}
	return n
}

func runeOffset(s string, byteIndex int) int {
	return utf8.RuneCountInString(s[:byteIndex])
}

func fold(r []rune) []rune {
	out := make([]rune, len(r))
	for i, c := range r {
		out[i] = unicode.ToLower(c)
	}
	return out
}

func indexRunes(haystack, needle []rune) int {
	if len(needle) == 0 {
		return 0
	}
outer:
	for i := 0; i+len(needle) <= len(haystack); i++ {
		for j, c := range needle {
			if haystack[i+j] != c {
				continue outer
			}
		}
		return i
	}
	return -1
}

func abs(n int) int {
	if n < 0 {
		return -n
	}
	return n
}
