package render

import (
	"fmt"

	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/preview"
	"github.com/i-doll/tfl/internal/textutil"
)

func (r *Renderer) drawPreviewPanel(f *Frame, layout layoutMetrics) {
	startX := layout.previewStart + previewInnerPadding
	panelWidth := layout.previewWidth - previewInnerPadding
	if panelWidth <= 0 {
		return
	}

	baseStyle := tcell.StyleDefault.Background(r.theme.PreviewBg).Foreground(r.theme.PreviewFg)
	r.clearArea(layout.previewStart, layout.bodyTop, layout.previewStart+layout.previewWidth, layout.bodyBottom, baseStyle)

	pane := f.Preview
	y := layout.bodyTop
	titleStyle := baseStyle.Foreground(r.theme.BorderFg)
	r.fillLine(startX, y, panelWidth, r.previewTitle(pane), titleStyle)
	y++

	switch {
	case pane.State == preview.StateFailed:
		msgStyle := baseStyle.Foreground(r.theme.ErrorBg).Bold(true)
		r.fillLine(startX, y, panelWidth, textutil.SanitizeTerminalText(pane.Message), msgStyle)
		return
	case pane.Payload == nil:
		label := previewLoadingLabel(pane.State)
		if label != "" {
			r.fillLine(startX, y, panelWidth, label, baseStyle.Dim(true))
		}
		return
	}

	lines := pane.Payload.Lines
	start := clampScroll(pane.Scroll, len(lines), layout.bodyBottom-y)
	for i := start; i < len(lines) && y < layout.bodyBottom; i++ {
		r.drawSpans(startX, y, panelWidth, lines[i], baseStyle)
		y++
	}
	if pane.Payload.Truncated && y < layout.bodyBottom {
		r.fillLine(startX, y, panelWidth, "…", baseStyle.Dim(true))
	}
}

func (r *Renderer) previewTitle(pane PreviewPane) string {
	title := ""
	if pane.Payload != nil {
		title = pane.Payload.Title
	}
	if pane.Mode != preview.ModeRendered {
		title = fmt.Sprintf("[%s] %s", pane.Mode, title)
	}
	return textutil.SanitizeTerminalText(title)
}

func previewLoadingLabel(state preview.State) string {
	switch state {
	case preview.StateDebouncing, preview.StateLoading:
		return "loading…"
	}
	return ""
}

// clampScroll keeps at least one screenful of lines below the offset.
func clampScroll(scroll, total, rows int) int {
	if maxScroll := total - rows; scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}
	return scroll
}

// drawSpans draws one styled line clipped to width. Span styles from the
// producers only carry colors and attributes; the panel background stays.
func (r *Renderer) drawSpans(startX, y, width int, line preview.Line, base tcell.Style) {
	maxX := startX + width
	x := startX
	for _, span := range line {
		style := mergeStyle(base, span.Style)
		for _, ru := range textutil.SanitizeTerminalText(span.Text) {
			if x >= maxX || x+r.runeWidth(ru) > maxX {
				return
			}
			x = r.drawStyledRune(x, y, maxX, ru, style)
		}
	}
	r.fillSpaces(x, maxX, y, base)
}

func mergeStyle(base, span tcell.Style) tcell.Style {
	fg, bg, attrs := span.Decompose()
	style := base.Attributes(attrs)
	if fg != tcell.ColorDefault {
		style = style.Foreground(fg)
	}
	if bg != tcell.ColorDefault {
		style = style.Background(bg)
	}
	return style
}
