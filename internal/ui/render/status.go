package render

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/dispatch"
	"github.com/i-doll/tfl/internal/textutil"
)

// drawStatusLine renders the bottom row: the mode-specific input or message
// on the left and a summary of the view on the right.
func (r *Renderer) drawStatusLine(f *Frame, w, h int) {
	y := h - 1
	if y < 0 {
		return
	}
	normalStyle := tcell.StyleDefault.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg)
	r.fillSpaces(0, w, y, normalStyle)

	right := " " + formatViewSummary(f) + " "
	rightWidth := r.measureTextWidth(right)
	leftWidth := w - rightWidth
	if leftWidth < w/2 {
		right, rightWidth, leftWidth = "", 0, w
	}

	switch f.Mode {
	case dispatch.ModeSearch:
		style := normalStyle
		if f.View.Err != nil {
			style = normalStyle.Foreground(r.theme.ErrorBg)
		}
		r.drawInputLine(0, y, leftWidth, "/", f.Query, len([]rune(f.Query)), style)
	case dispatch.ModePrompt:
		label := promptLabel(f.Prompt.Kind)
		r.drawInputLine(0, y, leftWidth, label, f.Prompt.Text, f.Prompt.Cursor, normalStyle)
	case dispatch.ModeDeleteConfirm:
		style := normalStyle.Foreground(r.theme.PromptFg).Bold(true)
		r.drawTextLine(0, y, leftWidth, r.truncateTextToWidth(deleteQuestion(f.DeleteTargets), leftWidth), style)
	default:
		text := f.Status
		style := normalStyle
		switch {
		case text != "" && f.Error:
			style = normalStyle.Background(r.theme.ErrorBg).Foreground(r.theme.ErrorFg)
		case text != "":
			style = normalStyle.Foreground(r.theme.InfoFg)
		default:
			text = buildFooterHelpText(f)
		}
		text = " " + strings.TrimSpace(textutil.SanitizeTerminalText(text))
		endX := r.drawTextLine(0, y, leftWidth, r.truncateTextToWidth(text, leftWidth), style)
		if f.Status != "" {
			r.fillSpaces(endX, leftWidth, y, style)
		}
	}

	if right != "" {
		r.drawTextLine(leftWidth, y, rightWidth, right, normalStyle.Dim(true))
	}
}

// drawInputLine draws label+text with a block cursor at rune offset cursor.
func (r *Renderer) drawInputLine(x, y, width int, label, text string, cursor int, style tcell.Style) {
	maxX := x + width
	labelStyle := style.Foreground(r.theme.PromptFg).Bold(true)
	x = r.drawTextLine(x, y, width, label, labelStyle)
	cursorStyle := style.Reverse(true)

	runes := []rune(textutil.SanitizeTerminalText(text))
	// keep the cursor on screen for long input
	room := maxX - x - 1
	start := 0
	if room > 0 && cursor > room {
		start = cursor - room
	}
	for i := start; i < len(runes); i++ {
		if x >= maxX {
			return
		}
		s := style
		if i == cursor {
			s = cursorStyle
		}
		x = r.drawStyledRune(x, y, maxX, runes[i], s)
	}
	if cursor >= len(runes) && x < maxX {
		r.drawStyledRune(x, y, maxX, ' ', cursorStyle)
	}
}

func promptLabel(kind dispatch.PromptKind) string {
	switch kind {
	case dispatch.PromptNewFile:
		return "New file: "
	case dispatch.PromptNewDir:
		return "New directory: "
	default:
		return "Rename: "
	}
}

func deleteQuestion(targets []string) string {
	switch len(targets) {
	case 0:
		return " Delete? (y/n)"
	case 1:
		return fmt.Sprintf(" Delete %s? (y/n)", textutil.SanitizeTerminalText(baseName(targets[0])))
	default:
		return fmt.Sprintf(" Delete %d items? (y/n)", len(targets))
	}
}

// formatViewSummary describes the filter, clipboard, sort and position.
func formatViewSummary(f *Frame) string {
	var parts []string
	if f.Branch != "" {
		parts = append(parts, "⎇ "+textutil.SanitizeTerminalText(f.Branch))
	}
	if f.View.Active() && f.Mode != dispatch.ModeSearch {
		parts = append(parts, "/"+textutil.SanitizeTerminalText(f.View.Pattern))
	}
	if f.Clipboard > 0 {
		verb := "copy"
		if f.ClipCut {
			verb = "cut"
		}
		parts = append(parts, fmt.Sprintf("%s:%d", verb, f.Clipboard))
	}
	if f.ShowHidden {
		parts = append(parts, "hidden")
	}
	parts = append(parts, fmt.Sprintf("%s %s", f.SortField, f.SortOrder))
	parts = append(parts, formatPosition(f))
	return strings.Join(parts, " · ")
}

func formatPosition(f *Frame) string {
	total := f.View.Len()
	if total == 0 {
		return "0/0"
	}
	pos := f.View.Position(f.Cursor)
	if pos < 0 {
		pos = 0
	}
	return fmt.Sprintf("%d/%d", pos+1, total)
}
