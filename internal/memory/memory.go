// Package memory keeps a compact working memory for a game session: what is
// known about each character and a capped rolling log of context summaries.
//
// A Manager is owned by one session and is not safe for concurrent use.
// Concurrent UpdateCharacter calls for the same name are last-writer-wins
// per field at best.
package memory

import (
	"regexp"
	"strings"
	"time"
	"unicode/utf8"
)

const (
	DefaultCapacity = 20
	DefaultMaxAge   = 7 * 24 * time.Hour
)

// Character is what the session remembers about one character.
type Character struct {
	Name          string    `json:"name"`
	Situation     string    `json:"situation,omitempty"`
	Personality   string    `json:"personality,omitempty"`
	Relationships string    `json:"relationships,omitempty"`
	LastUpdated   time.Time `json:"last_updated"`
}

// CharacterUpdate carries the fields to merge. Empty fields keep their
// previous value.
type CharacterUpdate struct {
	Situation     string `json:"situation,omitempty"`
	Personality   string `json:"personality,omitempty"`
	Relationships string `json:"relationships,omitempty"`
}

// ContextEntry is one summarized beat of the story.
type ContextEntry struct {
	Summary   string    `json:"summary"`
	Index     int       `json:"index"`
	Timestamp time.Time `json:"timestamp"`
}

// Summary is the rendered working memory.
type Summary struct {
	Characters  string `json:"characters"`
	Contexts    string `json:"contexts"`
	TotalLength int    `json:"total_length"`
}

// Manager holds per-character facts and the context log.
type Manager struct {
	characters map[string]*Character
	order      []string
	contexts   []ContextEntry
	capacity   int
	now        func() time.Time
}

// Option configures a Manager.
type Option func(*Manager)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(m *Manager) { m.now = now }
}

// WithCapacity sets the context log capacity.
func WithCapacity(n int) Option {
	return func(m *Manager) {
		if n > 0 {
			m.capacity = n
		}
	}
}

// New returns an empty Manager.
func New(opts ...Option) *Manager {
	m := &Manager{
		characters: map[string]*Character{},
		capacity:   DefaultCapacity,
		now:        time.Now,
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// UpdateCharacter merges u into the record for name, creating it if needed,
// and stamps it with the current time. Empty names are ignored.
func (m *Manager) UpdateCharacter(name string, u CharacterUpdate) {
	name = strings.TrimSpace(name)
	if name == "" {
		return
	}

	c, ok := m.characters[name]
	if !ok {
		c = &Character{Name: name}
		m.characters[name] = c
		m.order = append(m.order, name)
	}
	if u.Situation != "" {
		c.Situation = u.Situation
	}
	if u.Personality != "" {
		c.Personality = u.Personality
	}
	if u.Relationships != "" {
		c.Relationships = u.Relationships
	}
	c.LastUpdated = m.now()
}

// Character returns a copy of the record for name.
func (m *Manager) Character(name string) (Character, bool) {
	c, ok := m.characters[name]
	if !ok {
		return Character{}, false
	}
	return *c, true
}

// Characters returns copies of every record in first-insertion order.
func (m *Manager) Characters() []Character {
	out := make([]Character, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, *m.characters[name])
	}
	return out
}

var characterPatterns = []*regexp.Regexp{
	regexp.MustCompile(`([\x{4E00}-\x{9FAF}]{2,6})(?:的|是|在|说|道|想|感到)`),
	regexp.MustCompile(`([A-Z][a-z]+(?:\s+[A-Z][a-z]+)*)(?:'s|\s+(?:is|was|said|thought)\b)`),
}

// ExtractCharacters is a light per-turn scan for names followed by a relator
// or reporting verb. Results are deduplicated in first-seen order.
func (m *Manager) ExtractCharacters(text string) []string {
	seen := map[string]bool{}
	found := []string{}
	for _, re := range characterPatterns {
		for _, match := range re.FindAllStringSubmatch(text, -1) {
			name := strings.TrimSpace(match[1])
			n := utf8.RuneCountInString(name)
			if n < 2 || n > 15 || seen[name] {
				continue
			}
			seen[name] = true
			found = append(found, name)
		}
	}
	return found
}

// AddContextSummary appends a summary for the message at index, evicting the
// oldest entry once the log exceeds its capacity.
func (m *Manager) AddContextSummary(summary string, index int) {
	m.contexts = append(m.contexts, ContextEntry{
		Summary:   summary,
		Index:     index,
		Timestamp: m.now(),
	})
	if over := len(m.contexts) - m.capacity; over > 0 {
		m.contexts = append([]ContextEntry(nil), m.contexts[over:]...)
	}
}

// RecentContexts returns the last count entries whose index is at least
// startIndex, oldest first. A non-positive count means the full capacity.
func (m *Manager) RecentContexts(startIndex, count int) []ContextEntry {
	if count <= 0 {
		count = m.capacity
	}
	recent := m.contexts[max(0, len(m.contexts)-count):]

	out := []ContextEntry{}
	for _, e := range recent {
		if e.Index >= startIndex {
			out = append(out, e)
		}
	}
	return out
}

// RemoveContextsAfter drops every entry whose index is greater than index.
// Used when the player rewinds the transcript.
func (m *Manager) RemoveContextsAfter(index int) {
	kept := m.contexts[:0]
	for _, e := range m.contexts {
		if e.Index <= index {
			kept = append(kept, e)
		}
	}
	m.contexts = kept
}

// Summary renders every character with at least one known field and the
// recent context log.
func (m *Manager) Summary() Summary {
	var lines []string
	for _, name := range m.order {
		c := m.characters[name]
		var parts []string
		if c.Situation != "" {
			parts = append(parts, "处境："+c.Situation)
		}
		if c.Personality != "" {
			parts = append(parts, "性格："+c.Personality)
		}
		if c.Relationships != "" {
			parts = append(parts, "关系："+c.Relationships)
		}
		if len(parts) > 0 {
			lines = append(lines, name+"："+strings.Join(parts, "；"))
		}
	}

	var summaries []string
	for _, e := range m.RecentContexts(0, m.capacity) {
		summaries = append(summaries, e.Summary)
	}

	chars := strings.Join(lines, "\n")
	contexts := strings.Join(summaries, "\n")
	return Summary{
		Characters:  chars,
		Contexts:    contexts,
		TotalLength: utf8.RuneCountInString(chars) + utf8.RuneCountInString(contexts),
	}
}

// Cleanup evicts characters and context entries older than maxAge and
// returns how many of each were removed. A non-positive maxAge means
// DefaultMaxAge.
func (m *Manager) Cleanup(maxAge time.Duration) (characters, contexts int) {
	if maxAge <= 0 {
		maxAge = DefaultMaxAge
	}
	now := m.now()

	order := m.order[:0]
	for _, name := range m.order {
		if now.Sub(m.characters[name].LastUpdated) > maxAge {
			delete(m.characters, name)
			characters++
			continue
		}
		order = append(order, name)
	}
	m.order = order

	kept := m.contexts[:0]
	for _, e := range m.contexts {
		if now.Sub(e.Timestamp) > maxAge {
			contexts++
			continue
		}
		kept = append(kept, e)
	}
	m.contexts = kept

	return characters, contexts
}
