package textutil

import (
	"strings"

	"github.com/mattn/go-runewidth"
)

// DefaultTabWidth is the tab stop used by previews.
const DefaultTabWidth = 4

// ExpandTabs replaces tabs with spaces up to the next tab stop.
func ExpandTabs(text string, tabWidth int) string {
	out, _ := ExpandTabsAt(text, tabWidth, 0)
	return out
}

// ExpandTabsAt expands tabs in a fragment that starts at column and returns
// the column after it. Highlighted lines are built from several fragments,
// so the column has to carry over.
func ExpandTabsAt(text string, tabWidth, column int) (string, int) {
	if tabWidth <= 0 || !strings.ContainsRune(text, '\t') {
		return text, column + DisplayWidth(text)
	}
	var b strings.Builder
	b.Grow(len(text) + tabWidth)
	for _, r := range text {
		if r == '\t' {
			n := tabWidth - column%tabWidth
			b.WriteString(strings.Repeat(" ", n))
			column += n
			continue
		}
		b.WriteRune(r)
		column += runeCells(r)
	}
	return b.String(), column
}

func runeCells(r rune) int {
	if w := runewidth.RuneWidth(r); w > 0 {
		return w
	}
	return 1
}

// DisplayWidth reports how many terminal cells text occupies.
func DisplayWidth(text string) int {
	return runewidth.StringWidth(text)
}

// Truncate shortens text to width cells, marking the cut with an ellipsis.
func Truncate(text string, width int) string {
	if width <= 0 {
		return ""
	}
	if DisplayWidth(text) <= width {
		return text
	}
	return runewidth.Truncate(text, width, "…")
}

// Fit truncates or pads text so it fills exactly width cells.
func Fit(text string, width int) string {
	return runewidth.FillRight(Truncate(text, width), width)
}
