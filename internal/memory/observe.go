package memory

import (
	"strings"
	"unicode/utf8"
)

const (
	summaryRunes   = 120
	situationRunes = 60
)

// Observe folds one narrator reply at transcript index into memory: each
// newly seen character is recorded with the first sentence that mentions it,
// and the reply's first sentence becomes a context summary. It returns the
// names added.
func (m *Manager) Observe(text string, index int) []string {
	var added []string
	for _, name := range m.ExtractCharacters(text) {
		if _, ok := m.characters[name]; ok {
			continue
		}
		m.UpdateCharacter(name, CharacterUpdate{Situation: sentenceWith(text, name)})
		added = append(added, name)
	}
	if summary := firstSentence(text); summary != "" {
		m.AddContextSummary(summary, index)
	}
	return added
}

// firstSentence returns the first sentence of text, at most summaryRunes long.
func firstSentence(text string) string {
	ss := sentences(text)
	if len(ss) == 0 {
		return ""
	}
	return clip(ss[0], summaryRunes)
}

// sentenceWith returns the first sentence that mentions name.
func sentenceWith(text, name string) string {
	for _, s := range sentences(text) {
		if strings.Contains(s, name) {
			return clip(s, situationRunes)
		}
	}
	return ""
}

// sentences splits text after each terminal mark, keeping the mark.
func sentences(text string) []string {
	var out []string
	var cur strings.Builder
	for _, r := range text {
		cur.WriteRune(r)
		switch r {
		case '。', '！', '？', '.', '!', '?', '\n':
			if s := strings.TrimSpace(cur.String()); s != "" {
				out = append(out, s)
			}
			cur.Reset()
		}
	}
	if s := strings.TrimSpace(cur.String()); s != "" {
		out = append(out, s)
	}
	return out
}

func clip(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	return string([]rune(s)[:n])
}
