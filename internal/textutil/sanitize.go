package textutil

import "strings"

// invisible maps bidi and zero-width formatting runes to visible labels so a
// file name cannot reorder or hide text on screen.
var invisible = map[rune]string{
	0x00AD: "⟪SHY⟫",
	0x061C: "⟪ALM⟫",
	0x180E: "⟪MVS⟫",
	0x200B: "⟪ZWSP⟫",
	0x200C: "⟪ZWNJ⟫",
	0x200D: "⟪ZWJ⟫",
	0x200E: "⟪LRM⟫",
	0x200F: "⟪RLM⟫",
	0x2028: "⟪LSEP⟫",
	0x2029: "⟪PSEP⟫",
	0x202A: "⟪LRE⟫",
	0x202B: "⟪RLE⟫",
	0x202C: "⟪PDF⟫",
	0x202D: "⟪LRO⟫",
	0x202E: "⟪RLO⟫",
	0x2060: "⟪WJ⟫",
	0x2066: "⟪LRI⟫",
	0x2067: "⟪RLI⟫",
	0x2068: "⟪FSI⟫",
	0x2069: "⟪PDI⟫",
	0xFEFF: "⟪BOM⟫",
}

// SanitizeTerminalText makes text safe to draw in a single cell row: line
// breaks become spaces, other control bytes become '?', and formatting
// runes are labelled. Tabs are left for ExpandTabs.
func SanitizeTerminalText(text string) string {
	if !needsSanitizing(text) {
		return text
	}
	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		if label, ok := invisible[r]; ok {
			b.WriteString(label)
			continue
		}
		switch {
		case r == '\t':
			b.WriteRune(r)
		case r == '\n' || r == '\r':
			b.WriteByte(' ')
		case r < 0x20 || r == 0x7f:
			b.WriteByte('?')
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func needsSanitizing(text string) bool {
	for _, r := range text {
		if r == '\t' {
			continue
		}
		if r < 0x20 || r == 0x7f {
			return true
		}
		if _, ok := invisible[r]; ok {
			return true
		}
	}
	return false
}

// HasFormattingRunes reports whether text contains a labelled formatting rune.
func HasFormattingRunes(text string) bool {
	for _, r := range text {
		if _, ok := invisible[r]; ok {
			return true
		}
	}
	return false
}
