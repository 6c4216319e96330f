package render

import (
	"path/filepath"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/dispatch"
	"github.com/i-doll/tfl/internal/fs"
	"github.com/i-doll/tfl/internal/textutil"
)

const (
	headerTitle         = "tfl"
	breadcrumbSeparator = " › "
	indentWidth         = 2
)

// Renderer handles all UI rendering
type Renderer struct {
	screen tcell.Screen
	theme  ColorTheme
	widths map[rune]int // only touched from the main loop

	// treeScroll is the first visible view position. It persists between
	// frames so the list only scrolls when the cursor leaves the window.
	treeScroll int
}

// NewRenderer creates a new renderer
func NewRenderer(screen tcell.Screen) *Renderer {
	return &Renderer{
		screen: screen,
		theme:  GetColorTheme(),
		widths: make(map[rune]int),
	}
}

// Render draws the entire UI for f.
func (r *Renderer) Render(f *Frame) {
	r.screen.Clear()
	w, h := r.screen.Size()
	if w <= 0 || h <= 0 || f == nil {
		r.screen.Show()
		return
	}

	layout := r.computeLayout(w, h, f.TreeRatio)

	r.drawHeader(f, w)
	r.drawTree(f, layout)
	if layout.showPreview {
		sepStyle := tcell.StyleDefault.Foreground(r.theme.BorderFg)
		for y := layout.bodyTop; y < layout.bodyBottom; y++ {
			r.screen.SetContent(layout.treeWidth, y, tcell.RuneVLine, nil, sepStyle)
		}
		r.drawPreviewPanel(f, layout)
	}
	r.drawStatusLine(f, w, h)

	switch f.Mode {
	case dispatch.ModeHelp:
		r.drawHelpOverlay(f, w, h)
	case dispatch.ModeProperties:
		r.drawPropertiesOverlay(f, w, h)
	case dispatch.ModeChmod:
		r.drawChmodOverlay(f, w, h)
	case dispatch.ModeFavorites:
		r.drawFavoritesOverlay(f, w, h)
	case dispatch.ModeOpenWith:
		r.drawOpenWithOverlay(f, w, h)
	}

	r.screen.Show()
}

// drawHeader renders the top bar with title and breadcrumb
func (r *Renderer) drawHeader(f *Frame, w int) {
	headerStyle := tcell.StyleDefault.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg)

	endX := r.drawTextLine(0, 0, w, headerTitle, headerStyle.Bold(true))
	if endX < w {
		r.screen.SetContent(endX, 0, ' ', nil, headerStyle)
		endX++
	}

	segments := FormatBreadcrumbSegments(f.Root)
	if endX < w && len(segments) > 0 {
		lastIdx := len(segments) - 1
		if lastIdx > 0 {
			prefix := joinBreadcrumb(segments[:lastIdx]) + breadcrumbSeparator
			room := w - endX - r.measureTextWidth(segments[lastIdx])
			prefix = textutil.SanitizeTerminalText(r.truncateLeft(prefix, room))
			endX = r.drawTextLine(endX, 0, w-endX, prefix, headerStyle)
		}
		if endX < w {
			last := textutil.SanitizeTerminalText(segments[lastIdx])
			last = r.truncateTextToWidth(last, w-endX)
			endX = r.drawTextLine(endX, 0, w-endX, last, headerStyle.Bold(true))
		}
	}

	r.fillSpaces(endX, w, 0, headerStyle)
}

func joinBreadcrumb(segments []string) string {
	var b strings.Builder
	for i, s := range segments {
		if i > 0 {
			b.WriteString(breadcrumbSeparator)
		}
		b.WriteString(s)
	}
	return b.String()
}

// FormatBreadcrumbSegments splits path into the segments shown in the
// header. A leading "/" is its own segment.
func FormatBreadcrumbSegments(path string) []string {
	if path == "" {
		return []string{"/"}
	}

	cleanPath := filepath.Clean(path)
	if cleanPath == "." {
		cleanPath = "/"
	}

	slashed := filepath.ToSlash(cleanPath)
	if slashed == "/" {
		return []string{"/"}
	}

	var segments []string

	if strings.HasPrefix(slashed, "/") {
		segments = append(segments, "/")
		slashed = strings.TrimPrefix(slashed, "/")
	}

	for _, part := range strings.Split(slashed, "/") {
		if part == "" {
			continue
		}
		segments = append(segments, part)
	}

	if len(segments) == 0 {
		return []string{cleanPath}
	}

	return segments
}

// scrollFor keeps pos inside a window of rows starting at the previous
// scroll offset.
func scrollFor(prev, pos, rows, total int) int {
	if rows <= 0 {
		return 0
	}
	scroll := prev
	if pos < scroll {
		scroll = pos
	}
	if pos >= scroll+rows {
		scroll = pos - rows + 1
	}
	if maxScroll := total - rows; scroll > maxScroll {
		scroll = maxScroll
	}
	if scroll < 0 {
		scroll = 0
	}
	return scroll
}

// drawTree renders the visible entries of the tree view.
func (r *Renderer) drawTree(f *Frame, layout layoutMetrics) {
	baseStyle := tcell.StyleDefault.Background(r.theme.Background).Foreground(r.theme.Foreground)
	width := layout.treeWidth
	rows := layout.bodyRows()

	if f.View.Len() == 0 {
		r.clearArea(0, layout.bodyTop, width, layout.bodyBottom, baseStyle)
		if rows > 0 {
			msg := " (empty)"
			if f.View.Active() {
				msg = " no matches"
			}
			r.fillLine(0, layout.bodyTop, width, msg, baseStyle.Dim(true))
		}
		return
	}

	cursorPos := f.View.Position(f.Cursor)
	if cursorPos < 0 {
		cursorPos = 0
	}
	r.treeScroll = scrollFor(r.treeScroll, cursorPos, rows, f.View.Len())

	y := layout.bodyTop
	for pos := r.treeScroll; pos < f.View.Len() && y < layout.bodyBottom; pos++ {
		idx := f.View.At(pos)
		if idx < 0 || idx >= len(f.Entries) {
			continue
		}
		r.drawTreeRow(f.Entries[idx], idx == f.Cursor, y, width, baseStyle)
		y++
	}
	r.clearArea(0, y, width, layout.bodyBottom, baseStyle)
}

func (r *Renderer) drawTreeRow(e fs.Entry, isCursor bool, y, width int, baseStyle tcell.Style) {
	rowStyle := r.entryStyle(e, baseStyle)
	if isCursor {
		rowStyle = baseStyle.Background(r.theme.SelectionBg).Foreground(r.theme.SelectionFg)
	}

	mark := ' '
	if e.Selected {
		mark = '*'
	}
	icon := "  "
	switch {
	case e.IsDir && e.Expanded:
		icon = "▾ "
	case e.IsDir:
		icon = "▸ "
	}

	var b strings.Builder
	b.WriteRune(mark)
	b.WriteString(strings.Repeat(" ", e.Depth*indentWidth))
	b.WriteString(icon)
	b.WriteString(textutil.SanitizeTerminalText(e.Name))
	if e.IsDir {
		b.WriteByte('/')
	}
	if e.IsSymlink && e.SymlinkTarget != "" {
		b.WriteString(" → ")
		b.WriteString(textutil.SanitizeTerminalText(e.SymlinkTarget))
	}

	tag := ""
	if e.Status != "" {
		tag = " " + textutil.SanitizeTerminalText(e.Status)
	}
	tagWidth := r.measureTextWidth(tag)
	nameWidth := width - tagWidth
	if nameWidth < 1 {
		nameWidth, tag, tagWidth = width, "", 0
	}

	text := r.truncateTextToWidth(b.String(), nameWidth)
	endX := r.drawTextLine(0, y, nameWidth, text, rowStyle)
	r.fillSpaces(endX, width-tagWidth, y, rowStyle)
	if tag != "" {
		tagStyle := rowStyle
		if !isCursor {
			tagStyle = rowStyle.Foreground(r.theme.StatusTagFg)
		}
		r.drawTextLine(width-tagWidth, y, tagWidth, tag, tagStyle)
	}
}

func (r *Renderer) entryStyle(e fs.Entry, base tcell.Style) tcell.Style {
	style := base.Foreground(r.theme.FileFg)
	switch {
	case e.Selected:
		style = base.Foreground(r.theme.MarkedFg).Bold(true)
	case e.IsSymlink:
		style = base.Foreground(r.theme.SymlinkFg)
	case e.IsDir:
		style = base.Foreground(r.theme.DirectoryFg).Bold(true)
	}
	if e.IsHidden() && !e.Selected {
		style = style.Foreground(r.theme.HiddenFg)
	}
	return style
}
