// Package label derives short branch titles from a selected span of text.
package label

import (
	"fmt"
	"regexp"
	"strings"
)

const (
	Placeholder = "New Branch"

	maxWords  = 3
	minLength = 3
	maxLength = 20
	ellipsis  = "..."
)

var nonWord = regexp.MustCompile(`[^\w\s]`)

// Derive turns a span into a title: punctuation becomes whitespace, words
// shorter than three characters are dropped and the first three remaining
// words are joined. Titles over twenty characters are cut and get an ellipsis.
func Derive(span string) string {
	cleaned := nonWord.ReplaceAllString(span, " ")
	var words []string
	for _, w := range strings.Fields(cleaned) {
		if len(w) < minLength {
			continue
		}
		words = append(words, w)
		if len(words) == maxWords {
			break
		}
	}
	title := strings.Join(words, " ")
	if title == "" {
		return Placeholder
	}
	if len(title) > maxLength {
		return title[:maxLength] + ellipsis
	}
	return title
}

// Selectable reports whether a span is long enough to branch from.
func Selectable(span string) bool {
	return len(strings.TrimSpace(span)) > minLength
}

// Sibling returns the default title for the n-th child of a node, 1-based.
func Sibling(n int) string {
	return fmt.Sprintf("Branch %d", n)
}
