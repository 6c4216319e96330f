package render

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/dispatch"
	"github.com/i-doll/tfl/internal/textutil"
)

type helpOverlayEntry struct {
	action string
	desc   string
}

type helpOverlaySection struct {
	title   string
	entries []helpOverlayEntry
}

var helpOverlaySections = []helpOverlaySection{
	{
		title: "Navigation",
		entries: []helpOverlayEntry{
			{"move_down", "Move down"},
			{"move_up", "Move up"},
			{"move_left", "Collapse / go to parent entry"},
			{"move_right", "Expand"},
			{"open", "Enter directory / edit file"},
			{"toggle_expand", "Toggle expand"},
			{"go_parent", "Parent directory"},
			{"go_home", "Home directory"},
			{"go_to_bottom", "Last entry"},
			{"g_press", "Go prefix (g top, h home, e end, 1-9 breadcrumb)"},
			{"history_back", "History back"},
			{"history_forward", "History forward"},
		},
	},
	{
		title: "View",
		entries: []helpOverlayEntry{
			{"search_start", "Filter the tree"},
			{"toggle_hidden", "Toggle hidden files"},
			{"sort_cycle", "Cycle sort field"},
			{"sort_reverse", "Reverse sort order"},
			{"preview_mode", "Cycle preview mode"},
			{"scroll_preview_down", "Scroll preview down"},
			{"scroll_preview_up", "Scroll preview up"},
			{"shrink_tree", "Shrink tree panel"},
			{"grow_tree", "Grow tree panel"},
			{"reload", "Reload"},
		},
	},
	{
		title: "Files",
		entries: []helpOverlayEntry{
			{"toggle_selection", "Mark entry"},
			{"clear_selection", "Clear marks"},
			{"copy", "Copy"},
			{"cut", "Cut"},
			{"paste", "Paste"},
			{"delete", "Delete"},
			{"rename", "Rename"},
			{"new_file", "New file"},
			{"new_dir", "New directory"},
			{"chmod", "Permissions"},
			{"properties", "Properties"},
			{"yank_path", "Yank path to clipboard"},
		},
	},
	{
		title: "Other",
		entries: []helpOverlayEntry{
			{"favorites", "Favorites"},
			{"favorite_add", "Add to favorites"},
			{"open_with", "Open with"},
			{"open_editor", "Open in $EDITOR"},
			{"open_shell", "Shell here"},
			{"suspend", "Suspend"},
			{"toggle_help", "Close this help"},
			{"quit", "Quit"},
		},
	},
}

// buildHelpOverlayLines lists every bound action with its current keys.
// Unbound actions are left out.
func buildHelpOverlayLines(b *dispatch.Bindings) []string {
	lines := make([]string, 0, 64)
	for _, section := range helpOverlaySections {
		var body []string
		for _, entry := range section.entries {
			keys := keysFor(b, dispatch.ModeNormal, entry.action)
			if keys == "" {
				continue
			}
			body = append(body, formatHelpOverlayEntry(keys, entry.desc))
		}
		if len(body) == 0 {
			continue
		}
		if len(lines) > 0 {
			lines = append(lines, "")
		}
		lines = append(lines, section.title)
		lines = append(lines, body...)
	}
	return lines
}

func formatHelpOverlayEntry(keys, desc string) string {
	key := textutil.SanitizeTerminalText(keys)
	desc = textutil.SanitizeTerminalText(desc)
	return fmt.Sprintf("  %-14s %s", key, desc)
}

func (r *Renderer) drawHelpOverlay(f *Frame, w, h int) {
	baseStyle := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	r.clearArea(0, 0, w, h, baseStyle)

	title := " Help "
	headerStyle := baseStyle.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg).Bold(true)
	r.fillSpaces(0, w, 0, headerStyle)
	titleStart := 0
	if titleWidth := r.measureTextWidth(title); w > titleWidth {
		titleStart = (w - titleWidth) / 2
	}
	r.drawTextLine(titleStart, 0, w-titleStart, title, headerStyle)

	lines := buildHelpOverlayLines(f.Bindings)
	// two columns when the screen is wide enough and the list is long
	colWidth := w - 4
	columns := 1
	rows := h - 3
	if rows > 0 && len(lines) > rows && w >= 100 {
		columns = 2
		colWidth = (w - 6) / 2
	}

	row, col := 2, 0
	for _, line := range lines {
		if row >= h-1 {
			col++
			row = 2
			if col >= columns {
				break
			}
		}
		x := 2 + col*(colWidth+2)
		text := r.truncateTextToWidth(strings.TrimRight(line, " "), colWidth)
		style := baseStyle
		if line != "" && !strings.HasPrefix(line, " ") {
			style = baseStyle.Bold(true)
		}
		r.drawTextLine(x, row, colWidth, text, style)
		row++
	}

	footer := r.truncateTextToWidth(" ?/Esc/q close", w)
	r.fillLine(0, h-1, w, footer, headerStyle)
}
