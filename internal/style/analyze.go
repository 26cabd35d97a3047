// Package style fingerprints the prose of a story sample and turns that
// fingerprint into instructions that keep later generations in the same voice.
package style

import (
	"math"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dlclark/regexp2"
)

const (
	// MinStoryLength is the rune count below which Analyze returns nil.
	MinStoryLength = 100

	sampleSize     = 3000
	multiSampleMin = 6000
	topWords       = 20

	shortSentence = 30
	longSentence  = 60

	// Bounds each backreference match on a sentence.
	patternTimeout = 100 * time.Millisecond
)

// Paragraph styles.
const (
	Segmented  = "segmented"
	Continuous = "continuous"
)

// Distribution holds sentence-length buckets as percentages.
type Distribution struct {
	Short  int `json:"short"`
	Medium int `json:"medium"`
	Long   int `json:"long"`
}

// Patterns summarizes sentence construction.
type Patterns struct {
	QuestionRatio    int  `json:"question_ratio"`
	ExclamationRatio int  `json:"exclamation_ratio"`
	HasParallel      bool `json:"has_parallel"`
	HasRepetition    bool `json:"has_repetition"`
}

// Rhetoric flags coarse rhetorical devices.
type Rhetoric struct {
	Metaphor        bool `json:"metaphor"`
	Personification bool `json:"personification"`
	Exaggeration    bool `json:"exaggeration"`
	Contrast        bool `json:"contrast"`
}

// Samples are excerpts of the sampled regions, used for prompt rendering.
type Samples struct {
	Beginning string `json:"beginning"`
	Middle    string `json:"middle,omitempty"`
	End       string `json:"end,omitempty"`
}

// Fingerprint is the structural and stylistic summary of a story sample.
type Fingerprint struct {
	AvgSentenceLength  int          `json:"avg_sentence_length"`
	Distribution       Distribution `json:"sentence_distribution"`
	ParagraphStyle     string       `json:"paragraph_style"`
	AvgParagraphLength int          `json:"avg_paragraph_length"`
	HasDialogue        bool         `json:"has_dialogue"`
	HasDescription     bool         `json:"has_description"`
	HasAction          bool         `json:"has_action"`
	HasEmotion         bool         `json:"has_emotion"`
	CommonWords        []string     `json:"common_words"`
	Patterns           Patterns     `json:"sentence_patterns"`
	Rhetoric           Rhetoric     `json:"rhetorical_devices"`
	Sample             string       `json:"sample"`
	Samples            Samples      `json:"samples"`
}

var (
	sentenceSplit  = regexp.MustCompile(`[。！？]`)
	paragraphSplit = regexp.MustCompile(`\n\n+`)

	dialogueMarks    = regexp.MustCompile(`[“”「」『』"]`)
	descriptionMarks = regexp.MustCompile(`[的地得]`)
	actionMarks      = regexp.MustCompile(`[了着过]`)
	emotionMarks     = regexp.MustCompile(`[心情感受想]`)

	questionMarks    = regexp.MustCompile(`[？?]`)
	exclamationMarks = regexp.MustCompile(`[！!]`)

	metaphorMarks        = regexp.MustCompile(`[像如似仿佛]`)
	personificationMarks = regexp.MustCompile(`[说笑哭]`)
	exaggerationMarks    = regexp.MustCompile(`[非常极其特别]`)
	contrastMarks        = regexp.MustCompile(`[但是然而不过]`)

	wordBreaks = regexp.MustCompile(`[。！？，、；：\s]`)

	// RE2 has no backreferences.
	parallelPattern   = mustBackref(`([，,]|、).*\1`)
	repetitionPattern = mustBackref(`(.{2,})\1`)
)

func mustBackref(expr string) *regexp2.Regexp {
	re := regexp2.MustCompile(expr, regexp2.None)
	re.MatchTimeout = patternTimeout
	return re
}

// Analyze fingerprints story. It returns nil when the story is shorter than
// MinStoryLength runes.
func Analyze(story string) *Fingerprint {
	runes := []rune(story)
	n := len(runes)
	if n < MinStoryLength {
		return nil
	}

	begin := string(runes[:min(sampleSize, n)])
	var middle, end string
	if n > multiSampleMin {
		mid := n / 2
		middle = string(runes[mid-sampleSize/2 : mid+sampleSize/2])
		end = string(runes[max(0, n-sampleSize):])
	}

	sample := begin
	if middle != "" {
		sample += "\n" + middle
	}
	if end != "" {
		sample += "\n" + end
	}

	sentences := nonBlank(sentenceSplit.Split(sample, -1))
	paragraphs := nonBlank(paragraphSplit.Split(sample, -1))

	fp := &Fingerprint{
		AvgSentenceLength: 50,
		ParagraphStyle:    Continuous,
		HasDialogue:       dialogueMarks.MatchString(sample),
		HasDescription:    descriptionMarks.MatchString(sample),
		HasAction:         actionMarks.MatchString(sample),
		HasEmotion:        emotionMarks.MatchString(sample),
		CommonWords:       commonWords(sample, topWords),
		Patterns:          sentencePatterns(sentences),
		Rhetoric: Rhetoric{
			Metaphor:        metaphorMarks.MatchString(sample),
			Personification: personificationMarks.MatchString(sample),
			Exaggeration:    exaggerationMarks.MatchString(sample),
			Contrast:        contrastMarks.MatchString(sample),
		},
		Sample: prefix(sample, 2000),
		Samples: Samples{
			Beginning: prefix(begin, 1000),
			Middle:    prefix(middle, 1000),
			End:       prefix(end, 1000),
		},
	}

	if len(paragraphs) > 1 {
		fp.ParagraphStyle = Segmented
	}
	if len(paragraphs) > 0 {
		total := 0
		for _, p := range paragraphs {
			total += utf8.RuneCountInString(p)
		}
		fp.AvgParagraphLength = roundDiv(total, len(paragraphs))
	}

	if len(sentences) > 0 {
		var total, short, medium, long int
		for _, s := range sentences {
			l := utf8.RuneCountInString(s)
			total += l
			switch {
			case l < shortSentence:
				short++
			case l < longSentence:
				medium++
			default:
				long++
			}
		}
		fp.AvgSentenceLength = roundDiv(total, len(sentences))
		fp.Distribution = Distribution{
			Short:  percent(short, len(sentences)),
			Medium: percent(medium, len(sentences)),
			Long:   percent(long, len(sentences)),
		}
	}

	return fp
}

// commonWords counts every 2–4 rune substring free of punctuation and
// whitespace and returns the limit most frequent. Ties keep first-seen order.
func commonWords(text string, limit int) []string {
	runes := []rune(text)
	freq := map[string]int{}
	var order []string
	for size := 2; size <= 4; size++ {
		for i := 0; i+size <= len(runes); i++ {
			w := string(runes[i : i+size])
			if wordBreaks.MatchString(w) {
				continue
			}
			if freq[w] == 0 {
				order = append(order, w)
			}
			freq[w]++
		}
	}

	sort.SliceStable(order, func(i, j int) bool {
		return freq[order[i]] > freq[order[j]]
	})
	if len(order) > limit {
		order = order[:limit]
	}
	return order
}

func sentencePatterns(sentences []string) Patterns {
	var p Patterns
	if len(sentences) == 0 {
		return p
	}

	var questions, exclamations int
	for _, s := range sentences {
		if questionMarks.MatchString(s) {
			questions++
		}
		if exclamationMarks.MatchString(s) {
			exclamations++
		}
		if !p.HasParallel && backrefMatch(parallelPattern, s) {
			p.HasParallel = true
		}
		if !p.HasRepetition && backrefMatch(repetitionPattern, s) {
			p.HasRepetition = true
		}
	}
	p.QuestionRatio = percent(questions, len(sentences))
	p.ExclamationRatio = percent(exclamations, len(sentences))
	return p
}

// backrefMatch treats a timed-out match as no match.
func backrefMatch(re *regexp2.Regexp, s string) bool {
	ok, err := re.MatchString(s)
	return err == nil && ok
}

func nonBlank(parts []string) []string {
	out := parts[:0]
	for _, p := range parts {
		if strings.TrimSpace(p) != "" {
			out = append(out, p)
		}
	}
	return out
}

func prefix(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}

func percent(part, whole int) int {
	if whole == 0 {
		return 0
	}
	return int(math.Round(float64(part) / float64(whole) * 100))
}

func roundDiv(a, b int) int {
	return int(math.Round(float64(a) / float64(b)))
}
