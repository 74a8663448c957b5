// Package textutil provides text shaping helpers for building LLM prompts
// within character budgets.
package textutil

import (
	"regexp"
	"strings"
	"unicode/utf8"
)

// sentence endings checked in preference order when truncating.
var sentenceEnds = []string{". ", ".\n", "! ", "!\n", "? ", "?\n"}

var whitespaceRe = regexp.MustCompile(`\s+`)

// Truncate shortens text to at most max bytes, preferring a sentence
// boundary when one falls within the last 30% of the budget, then a word
// boundary. The result never exceeds max, so applying Truncate twice with
// the same budget is a no-op.
func Truncate(text string, max int) string {
	if max <= 0 {
		return ""
	}
	if len(text) <= max {
		return text
	}

	cut := truncToRune(text, max)

	for _, end := range sentenceEnds {
		if idx := strings.LastIndex(cut, end); float64(idx) > float64(max)*0.7 {
			return cut[:idx+1]
		}
	}

	// Word boundary, leaving room for the ellipsis so the result stays
	// within budget. cut may be shorter than max when the cut point landed
	// mid-rune.
	if max <= 3 {
		return cut
	}
	cut = truncToRune(text, max-3)
	if space := strings.LastIndex(cut, " "); space > 0 {
		return cut[:space] + "..."
	}
	return cut + "..."
}

// CleanText collapses runs of whitespace into single spaces and trims the
// result.
func CleanText(s string) string {
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(s, " "))
}

// truncToRune cuts text at n bytes, backing up if n lands mid-rune.
func truncToRune(text string, n int) string {
	for n > 0 && n < len(text) && !utf8.RuneStart(text[n]) {
		n--
	}
	return text[:n]
}
