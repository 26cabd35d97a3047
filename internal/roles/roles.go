// Package roles extracts probable character names from story text across
// Han, Latin and Kana scripts using regex heuristics and frequency ranking.
//
// Extraction is best-effort: false negatives are preferred over false
// positives, so any candidate containing a stopword is dropped.
package roles

import (
	"regexp"
	"sort"
	"strings"
	"unicode/utf8"
)

// MaxRoles caps the number of names Extract returns.
const MaxRoles = 50

const (
	cjk    = `\x{3040}-\x{309F}\x{30A0}-\x{30FF}\x{4E00}-\x{9FAF}`
	han    = `\x{4E00}-\x{9FAF}`
	latin  = `[A-Z][a-z]+(?:\s+[A-Z][a-z]+)*`
	maxLen = 15
)

var (
	quotePatterns = []*regexp.Regexp{
		regexp.MustCompile(`[“”]([^“”]{2,10})[“”]`),
		regexp.MustCompile(`[‘’]([^‘’]{2,10})[‘’]`),
		regexp.MustCompile(`"([^"]{2,10})"`),
		regexp.MustCompile(`「([^」]{2,10})」`),
		regexp.MustCompile(`『([^』]{2,10})』`),
		regexp.MustCompile(`（([^）]{2,10})）`),
		regexp.MustCompile(`\(([^)]{2,10})\)`),
	}

	titleCasePattern = regexp.MustCompile(`\b` + latin + `\b`)
	scriptRunPattern = regexp.MustCompile(`[` + cjk + `]{2,10}`)

	speechPatterns = []*regexp.Regexp{
		regexp.MustCompile(`([` + han + `]{2,10})[说道讲问答回]`),
		regexp.MustCompile(`(?i)(` + latin + `)\s+(?:said|says|asked|replied|answered)`),
		regexp.MustCompile(`([` + cjk + `]{2,10})[はが]`),
	}

	possessivePatterns = []*regexp.Regexp{
		regexp.MustCompile(`([` + han + `]{2,10})[的之]`),
		regexp.MustCompile(`(?i)(` + latin + `)'s`),
	}

	digitsPattern      = regexp.MustCompile(`^\d+$`)
	punctuationPattern = regexp.MustCompile(`^[，。！？、；：“”‘’（）【】《》〈〉「」『』〔〕…—～·]+$`)
)

var stopwords = []string{
	"这个", "那个", "什么", "怎么", "为什么", "哪里", "哪个",
	"the", "a", "an", "is", "are", "was", "were", "be", "been",
	"that", "this", "these", "those", "it", "its", "he", "she",
	"they", "them", "their", "there", "here", "where", "when",
	"what", "which", "who", "how", "why", "can", "could", "should",
	"would", "will", "shall", "may", "might", "must", "have", "has",
	"had", "do", "does", "did", "get", "got", "go", "went", "come",
	"came", "see", "saw", "know", "knew", "think", "thought",
	"said", "says", "tell", "told", "ask", "asked", "look", "looked",
	"take", "took", "make", "made", "give", "gave", "find", "found",
	"replied", "answered",
	"然后", "接着", "之后", "之前", "现在", "刚才", "马上",
	"但是", "可是", "然而", "不过", "虽然", "尽管", "如果",
	"因为", "所以", "因此", "于是", "最后",
}

// candidates is an insertion-ordered set.
type candidates struct {
	seen  map[string]bool
	order []string
}

func (c *candidates) add(name string, maxRunes int) {
	name = strings.TrimSpace(name)
	n := utf8.RuneCountInString(name)
	if n < 2 || n > maxRunes || isStopword(name) || c.seen[name] {
		return
	}
	c.seen[name] = true
	c.order = append(c.order, name)
}

func (c *candidates) addGroups(re *regexp.Regexp, text string) {
	for _, m := range re.FindAllStringSubmatch(text, -1) {
		c.add(m[1], maxLen)
	}
}

// Extract returns up to MaxRoles probable character names, most frequent
// first. Ties keep first-seen order. It never returns nil.
func Extract(story string) []string {
	if story == "" {
		return []string{}
	}

	c := &candidates{seen: map[string]bool{}}

	for _, re := range quotePatterns {
		c.addGroups(re, story)
	}
	for _, m := range titleCasePattern.FindAllString(story, -1) {
		c.add(m, 30)
	}
	for _, m := range scriptRunPattern.FindAllString(story, -1) {
		c.add(m, 10)
	}
	for _, re := range speechPatterns {
		c.addGroups(re, story)
	}
	for _, re := range possessivePatterns {
		c.addGroups(re, story)
	}

	names := make([]string, 0, len(c.order))
	for _, name := range c.order {
		if digitsPattern.MatchString(name) || punctuationPattern.MatchString(name) {
			continue
		}
		names = append(names, name)
	}

	freq := make(map[string]int, len(names))
	for _, name := range names {
		freq[name] = strings.Count(story, name)
	}
	sort.SliceStable(names, func(i, j int) bool {
		return freq[names[i]] > freq[names[j]]
	})

	if len(names) > MaxRoles {
		names = names[:MaxRoles]
	}
	return names
}

// isStopword reports whether word equals a stopword (ignoring case) or
// contains one verbatim.
func isStopword(word string) bool {
	for _, sw := range stopwords {
		if strings.EqualFold(word, sw) || strings.Contains(word, sw) {
			return true
		}
	}
	return false
}
