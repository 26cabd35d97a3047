package memory

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClock struct{ t time.Time }

func newClock() *fakeClock {
	return &fakeClock{t: time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) now() time.Time          { return c.t }
func (c *fakeClock) advance(d time.Duration) { c.t = c.t.Add(d) }

func indices(entries []ContextEntry) []int {
	var out []int
	for _, e := range entries {
		out = append(out, e.Index)
	}
	return out
}

func TestUpdateCharacter_Merges(t *testing.T) {
	m := New()
	m.UpdateCharacter("Alice", CharacterUpdate{Situation: "injured"})
	m.UpdateCharacter("Alice", CharacterUpdate{Personality: "brave"})

	require.Len(t, m.Characters(), 1)
	c, ok := m.Character("Alice")
	require.True(t, ok)
	assert.Equal(t, "injured", c.Situation)
	assert.Equal(t, "brave", c.Personality)
	assert.Empty(t, c.Relationships)
}

func TestUpdateCharacter_EmptyNameIgnored(t *testing.T) {
	m := New()
	m.UpdateCharacter("  ", CharacterUpdate{Situation: "x"})
	assert.Empty(t, m.Characters())
}

func TestUpdateCharacter_StampsTime(t *testing.T) {
	clock := newClock()
	m := New(WithClock(clock.now))
	m.UpdateCharacter("Bob", CharacterUpdate{Situation: "lost"})
	clock.advance(time.Hour)
	m.UpdateCharacter("Bob", CharacterUpdate{})

	c, _ := m.Character("Bob")
	assert.Equal(t, clock.t, c.LastUpdated)
	assert.Equal(t, "lost", c.Situation)
}

func TestAddContextSummary_FIFO(t *testing.T) {
	m := New()
	for i := 1; i <= 25; i++ {
		m.AddContextSummary(fmt.Sprintf("beat %d", i), i)
	}

	got := m.RecentContexts(0, 100)
	require.Len(t, got, DefaultCapacity)
	assert.Equal(t, 6, got[0].Index)
	assert.Equal(t, 25, got[len(got)-1].Index)
	for i := 1; i < len(got); i++ {
		assert.Less(t, got[i-1].Index, got[i].Index)
	}
}

func TestRecentContexts_Filters(t *testing.T) {
	m := New()
	for _, i := range []int{1, 3, 5, 7, 9} {
		m.AddContextSummary("s", i)
	}
	assert.Equal(t, []int{5, 7, 9}, indices(m.RecentContexts(5, 0)))
	assert.Equal(t, []int{7, 9}, indices(m.RecentContexts(0, 2)))
	assert.Empty(t, m.RecentContexts(10, 5))
}

func TestRemoveContextsAfter(t *testing.T) {
	m := New()
	for _, i := range []int{1, 3, 5, 7, 9} {
		m.AddContextSummary("s", i)
	}
	m.RemoveContextsAfter(5)
	assert.Equal(t, []int{1, 3, 5}, indices(m.RecentContexts(0, 100)))
}

func TestExtractCharacters(t *testing.T) {
	m := New()
	got := m.ExtractCharacters("林默说：“走吧。”Alice said nothing. Alice's horse neighed. Bob was tired.")
	assert.Equal(t, []string{"林默", "Alice", "Bob"}, got)

	assert.Empty(t, m.ExtractCharacters("nothing to see here"))
}

func TestSummary(t *testing.T) {
	m := New()
	m.UpdateCharacter("林默", CharacterUpdate{Situation: "受伤", Relationships: "苏晴的旧友"})
	m.UpdateCharacter("空白", CharacterUpdate{})
	m.AddContextSummary("林默来到旅店。", 1)
	m.AddContextSummary("北边的路断了。", 3)

	s := m.Summary()
	assert.Equal(t, "林默：处境：受伤；关系：苏晴的旧友", s.Characters)
	assert.Equal(t, "林默来到旅店。\n北边的路断了。", s.Contexts)
	assert.Equal(t, len([]rune(s.Characters))+len([]rune(s.Contexts)), s.TotalLength)
}

func TestCleanup(t *testing.T) {
	clock := newClock()
	m := New(WithClock(clock.now))

	m.UpdateCharacter("Old", CharacterUpdate{Situation: "gone"})
	m.AddContextSummary("old beat", 1)
	clock.advance(8 * 24 * time.Hour)
	m.UpdateCharacter("New", CharacterUpdate{Situation: "here"})
	m.AddContextSummary("new beat", 2)

	chars, ctxs := m.Cleanup(0)
	assert.Equal(t, 1, chars)
	assert.Equal(t, 1, ctxs)

	_, ok := m.Character("Old")
	assert.False(t, ok)
	assert.Len(t, m.Characters(), 1)
	assert.Equal(t, []int{2}, indices(m.RecentContexts(0, 0)))
}

func TestWithCapacity(t *testing.T) {
	m := New(WithCapacity(3))
	for i := 0; i < 5; i++ {
		m.AddContextSummary("s", i)
	}
	assert.Equal(t, []int{2, 3, 4}, indices(m.RecentContexts(0, 0)))
}

func TestObserve(t *testing.T) {
	m := New()

	added := m.Observe("风很冷。老板说道，今晚有雪。", 3)
	assert.Equal(t, []string{"老板说"}, added)

	c, ok := m.Character("老板说")
	require.True(t, ok)
	assert.Equal(t, "老板说道，今晚有雪。", c.Situation)

	ctx := m.RecentContexts(0, 0)
	require.Len(t, ctx, 1)
	assert.Equal(t, "风很冷。", ctx[0].Summary)
	assert.Equal(t, 3, ctx[0].Index)

	// Known characters keep their first situation.
	assert.Empty(t, m.Observe("老板说道，明天放晴。", 4))
	c, _ = m.Character("老板说")
	assert.Equal(t, "老板说道，今晚有雪。", c.Situation)
}

func TestFirstSentence(t *testing.T) {
	assert.Equal(t, "雪停了。", firstSentence("雪停了。天亮了。"))
	assert.Equal(t, "No mark here", firstSentence("  No mark here "))
	assert.Equal(t, "", firstSentence(""))
	assert.Len(t, []rune(firstSentence(strings.Repeat("长", 200))), summaryRunes)
	assert.Equal(t, "老板说道。", sentenceWith("风很冷。老板说道。", "老板"))
}
