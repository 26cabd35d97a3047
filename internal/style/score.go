package style

import (
	"math"
	"strings"
	"unicode/utf8"
)

// Sub-score weights.
const (
	weightSentenceLength = 30
	weightDialogue       = 20
	weightVocabulary     = 30
	weightParagraphs     = 20
)

// Score rates how closely candidate matches fp, 0–100.
//
// Each factor scores 0–100 and is weighted; the result is normalized by the
// weight of the factors that could be evaluated, so a candidate with no
// sentences or a fingerprint without common words is not penalized for them.
func Score(fp *Fingerprint, candidate string) int {
	if fp == nil || candidate == "" {
		return 0
	}

	var score, weight float64

	sentences := nonBlank(sentenceSplit.Split(candidate, -1))
	if len(sentences) > 0 {
		total := 0
		for _, s := range sentences {
			total += utf8.RuneCountInString(s)
		}
		avg := float64(total) / float64(len(sentences))
		lengthScore := 0.0
		if fp.AvgSentenceLength > 0 {
			diff := math.Abs(avg - float64(fp.AvgSentenceLength))
			lengthScore = math.Max(0, 100-diff/float64(fp.AvgSentenceLength)*100)
		}
		score += lengthScore * weightSentenceLength
		weight += weightSentenceLength
	}

	if dialogueMarks.MatchString(candidate) == fp.HasDialogue {
		score += 100 * weightDialogue
	}
	weight += weightDialogue

	if len(fp.CommonWords) > 0 {
		used := 0
		for _, w := range fp.CommonWords {
			if strings.Contains(candidate, w) {
				used++
			}
		}
		score += float64(used) / float64(len(fp.CommonWords)) * 100 * weightVocabulary
		weight += weightVocabulary
	}

	style := Continuous
	if len(nonBlank(paragraphSplit.Split(candidate, -1))) > 1 {
		style = Segmented
	}
	if style == fp.ParagraphStyle {
		score += 100 * weightParagraphs
	}
	weight += weightParagraphs

	return int(math.Round(score / weight))
}
