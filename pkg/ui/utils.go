package ui

import (
	"strings"

	"github.com/muesli/reflow/truncate"
	"github.com/muesli/reflow/wordwrap"
)

func wrapWords(s string, width int) string {
	if width <= 0 {
		return ""
	}
	return wordwrap.String(s, width)
}

// fitLines wraps s to width and keeps at most rows lines. A cut-off last
// line ends in an ellipsis.
func fitLines(s string, width, rows int) []string {
	if width <= 0 || rows <= 0 {
		return nil
	}
	lines := strings.Split(wrapWords(s, width), "\n")
	for i, l := range lines {
		lines[i] = truncate.String(l, uint(width))
	}
	if len(lines) <= rows {
		return lines
	}
	lines = lines[:rows]
	last := []rune(lines[rows-1])
	if len(last) >= width {
		last = last[:width-1]
	}
	lines[rows-1] = string(last) + "…"
	return lines
}
