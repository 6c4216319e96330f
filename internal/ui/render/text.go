package render

import (
	"github.com/gdamore/tcell/v2"
	"github.com/mattn/go-runewidth"
)

const ellipsis = '…'

// runeWidth is the number of cells ru occupies. Control and zero-width
// runes count as 0.
func (r *Renderer) runeWidth(ru rune) int {
	if w, ok := r.widths[ru]; ok {
		return w
	}
	w := runewidth.RuneWidth(ru)
	if w < 0 {
		w = 0
	}
	r.widths[ru] = w
	return w
}

func (r *Renderer) measureTextWidth(text string) int {
	width := 0
	for _, ru := range text {
		width += r.runeWidth(ru)
	}
	return width
}

// truncateTextToWidth cuts text to maxWidth cells, ending in an ellipsis
// when anything was dropped.
func (r *Renderer) truncateTextToWidth(text string, maxWidth int) string {
	return r.truncate(text, maxWidth, false)
}

// truncateLeft keeps the end of text, which is the useful part of a path.
func (r *Renderer) truncateLeft(text string, width int) string {
	return r.truncate(text, width, true)
}

func (r *Renderer) truncate(text string, width int, keepEnd bool) string {
	if width <= 0 || text == "" {
		return ""
	}
	if r.measureTextWidth(text) <= width {
		return text
	}
	ew := max(r.runeWidth(ellipsis), 1)
	if width <= ew {
		return string(ellipsis)
	}

	runes := []rune(text)
	room := width - ew
	if keepEnd {
		start := len(runes)
		for start > 0 {
			w := r.runeWidth(runes[start-1])
			if w > room {
				break
			}
			room -= w
			start--
		}
		return string(ellipsis) + string(runes[start:])
	}
	end := 0
	for end < len(runes) {
		w := r.runeWidth(runes[end])
		if w > room {
			break
		}
		room -= w
		end++
	}
	return string(runes[:end]) + string(ellipsis)
}

// drawTextLine draws text from startX, attaching combining marks to the
// preceding cell, and returns the column after the last cell drawn.
func (r *Renderer) drawTextLine(startX, y, maxWidth int, text string, style tcell.Style) int {
	x := startX
	limit := startX + maxWidth
	runes := []rune(text)
	for i := 0; i < len(runes); {
		base := runes[i]
		i++
		w := r.runeWidth(base)
		if x+w > limit || x >= limit {
			break
		}
		j := i
		for j < len(runes) && runes[j] >= 0x300 && r.runeWidth(runes[j]) == 0 {
			j++
		}
		var marks []rune
		if j > i {
			marks = runes[i:j]
		}
		i = j
		r.screen.SetContent(x, y, base, marks, style)
		x += w
	}
	return x
}

// fillLine draws text and pads the rest of the row with style.
func (r *Renderer) fillLine(startX, y, width int, text string, style tcell.Style) {
	endX := r.drawTextLine(startX, y, width, text, style)
	r.fillSpaces(endX, startX+width, y, style)
}

func (r *Renderer) fillSpaces(fromX, toX, y int, style tcell.Style) {
	for x := fromX; x < toX; x++ {
		r.screen.SetContent(x, y, ' ', nil, style)
	}
}

func (r *Renderer) clearArea(x0, y0, x1, y1 int, style tcell.Style) {
	for y := y0; y < y1; y++ {
		r.fillSpaces(x0, x1, y, style)
	}
}

// drawStyledRune draws one rune, blanking the trailing cells of a wide
// rune, and returns the next column.
func (r *Renderer) drawStyledRune(x, y, maxX int, ru rune, style tcell.Style) int {
	if x >= maxX {
		return x
	}
	width := max(r.runeWidth(ru), 1)
	r.screen.SetContent(x, y, ru, nil, style)
	for w := 1; w < width && x+w < maxX; w++ {
		r.screen.SetContent(x+w, y, ' ', nil, style)
	}
	return x + width
}
