package textutil

import (
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
)

func TestTruncate_ShortTextUnchanged(t *testing.T) {
	text := "A short resume."
	assert.Equal(t, text, Truncate(text, 100))
	assert.Equal(t, text, Truncate(text, len(text)))
}

func TestTruncate_SentenceBoundary(t *testing.T) {
	text := "First sentence about experience. Second sentence about skills. Third sentence that will not fit at all."

	result := Truncate(text, 70)
	assert.Equal(t, "First sentence about experience. Second sentence about skills.", result)
	assert.LessOrEqual(t, len(result), 70)
}

func TestTruncate_SentenceTooEarlyFallsBackToWord(t *testing.T) {
	// Only sentence ending is in the first 70% of the budget, so the word
	// boundary fallback applies.
	text := "Hi. " + strings.Repeat("word ", 40)

	result := Truncate(text, 100)
	assert.LessOrEqual(t, len(result), 100)
	assert.True(t, strings.HasSuffix(result, "..."))
}

func TestTruncate_NoSpacesHardCut(t *testing.T) {
	text := strings.Repeat("x", 200)

	result := Truncate(text, 50)
	assert.Len(t, result, 50)
	assert.True(t, strings.HasSuffix(result, "..."))
}

func TestTruncate_Idempotent(t *testing.T) {
	texts := []string{
		"First sentence. Second sentence. Third sentence goes well past the budget for sure.",
		strings.Repeat("word ", 50),
		strings.Repeat("y", 120),
	}
	for _, text := range texts {
		once := Truncate(text, 60)
		twice := Truncate(once, 60)
		assert.Equal(t, once, twice)
		assert.LessOrEqual(t, len(once), 60)
	}
}

func TestTruncate_MultibyteSafe(t *testing.T) {
	text := strings.Repeat("héllo wörld ", 30)

	for max := 20; max < 40; max++ {
		result := Truncate(text, max)
		assert.True(t, utf8.ValidString(result), "max=%d produced invalid UTF-8", max)
		assert.LessOrEqual(t, len(result), max)
	}
}

func TestTruncate_ZeroAndNegativeBudget(t *testing.T) {
	assert.Equal(t, "", Truncate("anything", 0))
	assert.Equal(t, "", Truncate("anything", -5))
}

func TestTruncate_TinyBudgetMultibyte(t *testing.T) {
	// A cut point landing mid-rune backs up below the requested length;
	// the result must still come back without panicking.
	for max := 1; max <= 4; max++ {
		result := Truncate("héllo wörld", max)
		assert.LessOrEqual(t, len(result), max, "max=%d", max)
		assert.True(t, utf8.ValidString(result), "max=%d", max)
	}
	assert.Equal(t, "h", Truncate("héllo", 2))
}

func TestCleanText(t *testing.T) {
	assert.Equal(t, "a b c", CleanText("  a\n\tb   c "))
	assert.Equal(t, "", CleanText(" \n\t "))
}
