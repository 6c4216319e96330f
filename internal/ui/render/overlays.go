package render

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/fs"
	"github.com/i-doll/tfl/internal/textutil"
)

const (
	overlayMaxWidth = 72
	timeLayout      = "2006-01-02 15:04:05"
)

// overlayBox is a bordered, centered dialog. Highlight is a body row drawn
// with the selection style, or -1.
type overlayBox struct {
	title     string
	body      []string
	footer    string
	highlight int
}

func (r *Renderer) drawOverlayBox(box overlayBox, w, h int) {
	width := overlayMaxWidth
	for _, line := range box.body {
		if lw := r.measureTextWidth(line) + 4; lw > width {
			width = lw
		}
	}
	if width > w-2 {
		width = w - 2
	}
	height := len(box.body) + 4
	if box.footer != "" {
		height++
	}
	if height > h-2 {
		height = h - 2
	}
	if width < 8 || height < 4 {
		return
	}
	x0 := (w - width) / 2
	y0 := (h - height) / 2
	x1 := x0 + width - 1
	y1 := y0 + height - 1

	base := tcell.StyleDefault.Background(r.theme.FooterBg).Foreground(r.theme.FooterFg)
	border := base.Foreground(r.theme.BorderFg)
	r.clearArea(x0, y0, x1+1, y1+1, base)
	for x := x0 + 1; x < x1; x++ {
		r.screen.SetContent(x, y0, tcell.RuneHLine, nil, border)
		r.screen.SetContent(x, y1, tcell.RuneHLine, nil, border)
	}
	for y := y0 + 1; y < y1; y++ {
		r.screen.SetContent(x0, y, tcell.RuneVLine, nil, border)
		r.screen.SetContent(x1, y, tcell.RuneVLine, nil, border)
	}
	r.screen.SetContent(x0, y0, tcell.RuneULCorner, nil, border)
	r.screen.SetContent(x1, y0, tcell.RuneURCorner, nil, border)
	r.screen.SetContent(x0, y1, tcell.RuneLLCorner, nil, border)
	r.screen.SetContent(x1, y1, tcell.RuneLRCorner, nil, border)

	if box.title != "" {
		title := " " + r.truncateTextToWidth(box.title, width-6) + " "
		r.drawTextLine(x0+2, y0, width-4, title, base.Bold(true))
	}

	inner := width - 4
	rows := y1 - y0 - 2
	if box.footer != "" {
		rows--
	}
	// scroll so the highlighted row stays visible
	start := 0
	if box.highlight >= rows {
		start = box.highlight - rows + 1
	}
	y := y0 + 2
	for i := start; i < len(box.body) && y < y0+2+rows; i++ {
		style := base
		if i == box.highlight {
			style = base.Background(r.theme.SelectionBg).Foreground(r.theme.SelectionFg)
			r.fillSpaces(x0+1, x1, y, style)
		}
		r.drawTextLine(x0+2, y, inner, r.truncateTextToWidth(box.body[i], inner), style)
		y++
	}
	if box.footer != "" {
		r.drawTextLine(x0+2, y1-1, inner, r.truncateTextToWidth(box.footer, inner), base.Dim(true))
	}
}

func (r *Renderer) drawPropertiesOverlay(f *Frame, w, h int) {
	if f.Properties == nil {
		return
	}
	r.drawOverlayBox(overlayBox{
		title:     "Properties",
		body:      propertiesLines(*f.Properties),
		footer:    "Esc/q/↵ close",
		highlight: -1,
	}, w, h)
}

func propertiesLines(p fs.Properties) []string {
	row := func(label, value string) string {
		return fmt.Sprintf("%-10s %s", label, textutil.SanitizeTerminalText(value))
	}
	size := fmt.Sprintf("%s (%d bytes)", p.SizeHuman, p.Size)
	if p.Partial {
		size += " (partial)"
	}
	lines := []string{
		row("Name", filepath.Base(p.Path)),
		row("Path", p.Path),
		row("Type", p.Kind),
		row("Size", size),
		row("Mode", fmt.Sprintf("%s (%s)", p.Mode.Perm(), p.Octal)),
	}
	if p.Owner != "" || p.Group != "" {
		lines = append(lines, row("Owner", p.Owner+":"+p.Group))
	}
	lines = append(lines, row("Modified", formatTime(p.Modified)))
	if !p.Accessed.IsZero() {
		lines = append(lines, row("Accessed", formatTime(p.Accessed)))
	}
	if !p.Changed.IsZero() {
		lines = append(lines, row("Changed", formatTime(p.Changed)))
	}
	if p.ContentType != "" {
		lines = append(lines, row("Content", p.ContentType))
	}
	if p.SymlinkTarget != "" {
		lines = append(lines, row("Target", p.SymlinkTarget))
	}
	return lines
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		return "-"
	}
	return t.Local().Format(timeLayout)
}

func (r *Renderer) drawChmodOverlay(f *Frame, w, h int) {
	if f.Chmod == nil {
		return
	}
	r.drawOverlayBox(overlayBox{
		title:     "Permissions: " + textutil.SanitizeTerminalText(baseName(f.Chmod.Path)),
		body:      chmodLines(*f.Chmod),
		footer:    chmodFooter(*f.Chmod),
		highlight: -1,
	}, w, h)
}

func chmodLines(c ChmodView) []string {
	lines := []string{
		fmt.Sprintf("Current  %s  %04o", c.Original.Perm(), fs.OctalPerm(c.Original)),
		fmt.Sprintf("New      %s  %04o", c.Mode.Perm(), fs.OctalPerm(c.Mode)),
		"",
		"         owner    group    others",
		"         " + permTriplets(c.Mode),
		"         1 2 3    4 5 6    7 8 9",
	}
	if c.Octal {
		lines = append(lines, "", "Octal    "+c.Input+"_")
	}
	if c.IsDir {
		state := "off"
		if c.Recursive {
			state = "on"
		}
		lines = append(lines, "", "Recursive "+state)
	}
	return lines
}

// permTriplets renders the nine permission bits as "r w x    r - x ...".
func permTriplets(mode os.FileMode) string {
	const letters = "rwx"
	var groups []string
	for g := 0; g < 3; g++ {
		cells := make([]string, 3)
		for b := 0; b < 3; b++ {
			bit := os.FileMode(1) << uint(8-(g*3+b))
			cells[b] = "-"
			if mode&bit != 0 {
				cells[b] = string(letters[b])
			}
		}
		groups = append(groups, strings.Join(cells, " "))
	}
	return strings.Join(groups, "    ")
}

func chmodFooter(c ChmodView) string {
	parts := []string{"1-9 toggle", "o octal"}
	if c.Octal {
		parts[0] = "0-7 digits"
	}
	if c.IsDir {
		parts = append(parts, "r recursive")
	}
	return strings.Join(append(parts, "↵ apply", "Esc cancel"), " · ")
}

func (r *Renderer) drawFavoritesOverlay(f *Frame, w, h int) {
	body := make([]string, len(f.Favorites.Items))
	for i, p := range f.Favorites.Items {
		body[i] = textutil.SanitizeTerminalText(p)
	}
	highlight := f.Favorites.Cursor
	if len(body) == 0 {
		body = []string{"No favorites yet"}
		highlight = -1
	}
	r.drawOverlayBox(overlayBox{
		title:     "Favorites",
		body:      body,
		footer:    "↵ go · a add · d remove · Esc close",
		highlight: highlight,
	}, w, h)
}

func (r *Renderer) drawOpenWithOverlay(f *Frame, w, h int) {
	body := make([]string, len(f.OpenWith.Items))
	for i, name := range f.OpenWith.Items {
		body[i] = textutil.SanitizeTerminalText(name)
	}
	r.drawOverlayBox(overlayBox{
		title:     "Open with",
		body:      body,
		footer:    "↵ open · Esc close",
		highlight: f.OpenWith.Cursor,
	}, w, h)
}

func baseName(path string) string {
	return filepath.Base(path)
}
