package prompt

import (
	"github.com/pkoukk/tiktoken-go"
)

// Counter counts model tokens in a text.
type Counter interface {
	Count(text string) int
}

// DefaultEncoding is the tiktoken encoding used for budget accounting.
const DefaultEncoding = "cl100k_base"

type tiktokenCounter struct {
	enc *tiktoken.Tiktoken
}

func (c tiktokenCounter) Count(text string) int {
	return len(c.enc.Encode(text, nil, nil))
}

// EstimateCounter approximates tokens without a vocabulary: one per non-ASCII
// rune, one per four ASCII bytes.
type EstimateCounter struct{}

func (EstimateCounter) Count(text string) int {
	ascii, other := 0, 0
	for _, r := range text {
		if r < 0x80 {
			ascii++
		} else {
			other++
		}
	}
	return other + (ascii+3)/4
}

// NewTokenCounter returns a tiktoken counter, or EstimateCounter when the
// encoding cannot be loaded (for example offline without a BPE cache).
func NewTokenCounter() (Counter, error) {
	enc, err := tiktoken.GetEncoding(DefaultEncoding)
	if err != nil {
		return EstimateCounter{}, err
	}
	return tiktokenCounter{enc: enc}, nil
}

// TrimToBudget drops lines from the front until the rest fits within budget
// tokens. The newest lines are kept.
func TrimToBudget(c Counter, lines []string, budget int) []string {
	total := 0
	counts := make([]int, len(lines))
	for i, l := range lines {
		counts[i] = c.Count(l)
		total += counts[i]
	}
	start := 0
	for total > budget && start < len(lines) {
		total -= counts[start]
		start++
	}
	return lines[start:]
}
