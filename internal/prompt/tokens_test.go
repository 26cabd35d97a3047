package prompt

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestEstimateCounter(t *testing.T) {
	c := EstimateCounter{}
	assert.Equal(t, 0, c.Count(""))
	assert.Equal(t, 2, c.Count("hello!!"))
	assert.Equal(t, 3, c.Count("冰原。"))
	assert.Equal(t, 3, c.Count("ab冰原"))
}

func TestTrimToBudget(t *testing.T) {
	c := EstimateCounter{}
	lines := []string{"一二三", "四五", "六"}

	assert.Equal(t, lines, TrimToBudget(c, lines, 10))
	assert.Equal(t, []string{"四五", "六"}, TrimToBudget(c, lines, 3))
	assert.Equal(t, []string{"六"}, TrimToBudget(c, lines, 1))
	assert.Empty(t, TrimToBudget(c, lines, 0))
}
