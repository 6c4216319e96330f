package preview

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
	"github.com/yuin/goldmark"
	"github.com/yuin/goldmark/ast"
	"github.com/yuin/goldmark/extension"
	extast "github.com/yuin/goldmark/extension/ast"
	"github.com/yuin/goldmark/text"

	"github.com/i-doll/tfl/internal/textutil"
)

var markdownExt = map[string]bool{"md": true, "markdown": true, "mdown": true, "mkd": true}

type markdownTheme struct {
	heading [6]tcell.Style
	code    tcell.Style
	link    tcell.Style
	quote   tcell.Style
	rule    tcell.Style
	dim     tcell.Style
	marker  tcell.Style
}

func defaultMarkdownTheme() markdownTheme {
	base := tcell.StyleDefault
	th := markdownTheme{
		code:   base.Foreground(tcell.ColorOrange),
		link:   base.Foreground(tcell.ColorSteelBlue).Underline(true),
		quote:  base.Foreground(tcell.ColorGray),
		rule:   base.Foreground(tcell.ColorDarkGray),
		dim:    base.Dim(true),
		marker: base.Foreground(tcell.ColorYellow),
	}
	th.heading[0] = base.Foreground(tcell.ColorFuchsia).Bold(true).Underline(true)
	th.heading[1] = base.Foreground(tcell.ColorFuchsia).Bold(true)
	th.heading[2] = base.Foreground(tcell.ColorAqua).Bold(true)
	for i := 3; i < 6; i++ {
		th.heading[i] = base.Foreground(tcell.ColorAqua)
	}
	return th
}

type markdownProducer struct {
	hl *highlighter
}

func (markdownProducer) CanHandle(src *source) bool {
	return src.mode == ModeRendered && markdownExt[src.ext]
}

func (p markdownProducer) Produce(ctx context.Context, src *source) (*Payload, error) {
	body, err := src.text()
	if err != nil {
		return nil, err
	}
	lines, truncated, err := renderMarkdown(ctx, []byte(body), p.hl, src.limits.MaxTextLines)
	if err != nil {
		return nil, err
	}
	return &Payload{
		Kind:       KindMarkdown,
		Title:      fmt.Sprintf("markdown · %d lines", countLines(body)),
		Lines:      lines,
		TotalBytes: src.size(),
		Truncated:  truncated,
	}, nil
}

// renderMarkdown parses source with goldmark and walks the AST into lines.
func renderMarkdown(ctx context.Context, source []byte, hl *highlighter, maxLines int) ([]Line, bool, error) {
	md := goldmark.New(goldmark.WithExtensions(extension.GFM))
	doc := md.Parser().Parse(text.NewReader(source))

	w := &mdWriter{
		ctx:   ctx,
		src:   source,
		hl:    hl,
		theme: defaultMarkdownTheme(),
		max:   maxLines,
	}
	w.blocks(doc)
	if w.err != nil {
		return nil, false, w.err
	}
	w.flushIfPending()
	return w.lines, w.truncated, nil
}

type mdWriter struct {
	ctx   context.Context
	src   []byte
	hl    *highlighter
	theme markdownTheme
	max   int

	lines     []Line
	cur       Line
	indent    []Span
	marker    *Span
	truncated bool
	err       error
}

func (w *mdWriter) stopped() bool {
	return w.truncated || w.err != nil
}

func (w *mdWriter) write(s string, style tcell.Style) {
	if s == "" {
		return
	}
	s = textutil.SanitizeTerminalText(textutil.ExpandTabs(s, w.hl.tabWidth))
	w.cur = append(w.cur, Span{Text: s, Style: style})
}

// flush emits the current line behind the active indent. A pending list
// marker replaces the innermost indent once.
func (w *mdWriter) flush() {
	if w.stopped() {
		return
	}
	if w.max > 0 && len(w.lines) >= w.max {
		w.truncated = true
		return
	}
	line := make(Line, 0, len(w.indent)+len(w.cur))
	for i, sp := range w.indent {
		if i == len(w.indent)-1 && w.marker != nil {
			sp = *w.marker
			w.marker = nil
		}
		line = append(line, sp)
	}
	line = append(line, w.cur...)
	w.lines = append(w.lines, line)
	w.cur = nil
	if len(w.lines)%256 == 0 {
		w.err = w.ctx.Err()
	}
}

func (w *mdWriter) flushIfPending() {
	if len(w.cur) > 0 {
		w.flush()
	}
}

// gap separates top-level blocks with one blank line.
func (w *mdWriter) gap() {
	if len(w.indent) > 0 || len(w.lines) == 0 || len(w.lines[len(w.lines)-1]) == 0 {
		return
	}
	if w.max > 0 && len(w.lines) >= w.max {
		return
	}
	w.lines = append(w.lines, Line{})
}

func (w *mdWriter) push(sp Span) {
	w.indent = append(w.indent, sp)
}

func (w *mdWriter) pop() {
	w.indent = w.indent[:len(w.indent)-1]
}

func (w *mdWriter) blocks(parent ast.Node) {
	for n := parent.FirstChild(); n != nil && !w.stopped(); n = n.NextSibling() {
		w.block(n)
	}
}

func (w *mdWriter) block(n ast.Node) {
	switch n := n.(type) {
	case *ast.Heading:
		w.gap()
		style := w.theme.heading[min(n.Level, 6)-1]
		w.write(strings.Repeat("#", n.Level)+" ", style)
		w.inlines(n, style)
		w.flushIfPending()
	case *ast.Paragraph:
		w.gap()
		w.inlines(n, tcell.StyleDefault)
		w.flushIfPending()
	case *ast.TextBlock:
		w.inlines(n, tcell.StyleDefault)
		w.flushIfPending()
	case *ast.List:
		w.gap()
		w.list(n)
	case *ast.Blockquote:
		w.gap()
		w.push(Span{Text: "│ ", Style: w.theme.quote})
		w.blocks(n)
		w.pop()
	case *ast.FencedCodeBlock:
		w.gap()
		w.code(string(n.Language(w.src)), n.Lines())
	case *ast.CodeBlock:
		w.gap()
		w.code("", n.Lines())
	case *ast.ThematicBreak:
		w.gap()
		w.write(strings.Repeat("─", 40), w.theme.rule)
		w.flush()
	case *ast.HTMLBlock:
		w.gap()
		lines := n.Lines()
		for i := 0; i < lines.Len(); i++ {
			seg := lines.At(i)
			w.write(strings.TrimRight(string(seg.Value(w.src)), "\r\n"), w.theme.dim)
			w.flush()
		}
	case *extast.Table:
		w.gap()
		w.table(n)
	default:
		w.blocks(n)
	}
}

func (w *mdWriter) list(n *ast.List) {
	num := n.Start
	for item := n.FirstChild(); item != nil && !w.stopped(); item = item.NextSibling() {
		marker := "• "
		if n.IsOrdered() {
			marker = fmt.Sprintf("%d. ", num)
			num++
		}
		w.push(Span{Text: strings.Repeat(" ", textutil.DisplayWidth(marker))})
		w.marker = &Span{Text: marker, Style: w.theme.marker}
		w.blocks(item)
		w.marker = nil
		w.pop()
	}
}

func (w *mdWriter) code(lang string, segs *text.Segments) {
	var b strings.Builder
	for i := 0; i < segs.Len(); i++ {
		seg := segs.At(i)
		b.Write(seg.Value(w.src))
	}
	body := strings.TrimRight(b.String(), "\n")
	lines, _, err := w.hl.highlight(w.ctx, lexerForLanguage(lang, body), body, 0)
	if err != nil {
		w.err = err
		return
	}
	w.push(Span{Text: "  "})
	for _, l := range lines {
		w.cur = append(w.cur, l...)
		w.flush()
	}
	w.pop()
}

func (w *mdWriter) inlines(parent ast.Node, style tcell.Style) {
	for c := parent.FirstChild(); c != nil; c = c.NextSibling() {
		switch c := c.(type) {
		case *ast.Text:
			w.write(string(c.Segment.Value(w.src)), style)
			if c.SoftLineBreak() || c.HardLineBreak() {
				w.flush()
			}
		case *ast.String:
			w.write(string(c.Value), style)
		case *ast.CodeSpan:
			w.inlines(c, w.theme.code)
		case *ast.Emphasis:
			if c.Level >= 2 {
				w.inlines(c, style.Bold(true))
			} else {
				w.inlines(c, style.Italic(true))
			}
		case *ast.Link:
			w.inlines(c, w.theme.link)
		case *ast.AutoLink:
			w.write(string(c.URL(w.src)), w.theme.link)
		case *ast.Image:
			w.write("[image: ", w.theme.dim)
			w.inlines(c, w.theme.dim)
			w.write("]", w.theme.dim)
		case *ast.RawHTML:
		case *extast.Strikethrough:
			w.inlines(c, style.StrikeThrough(true))
		case *extast.TaskCheckBox:
			if c.IsChecked {
				w.write("[x] ", w.theme.marker)
			} else {
				w.write("[ ] ", w.theme.marker)
			}
		default:
			w.inlines(c, style)
		}
	}
}

// plainText collects the text under n, used for table cells.
func (w *mdWriter) plainText(n ast.Node) string {
	var b strings.Builder
	_ = ast.Walk(n, func(c ast.Node, entering bool) (ast.WalkStatus, error) {
		if !entering {
			return ast.WalkContinue, nil
		}
		switch c := c.(type) {
		case *ast.Text:
			b.Write(c.Segment.Value(w.src))
		case *ast.String:
			b.Write(c.Value)
		case *ast.AutoLink:
			b.Write(c.URL(w.src))
		}
		return ast.WalkContinue, nil
	})
	return b.String()
}

func (w *mdWriter) table(n *extast.Table) {
	var rows [][]string
	var widths []int
	for row := n.FirstChild(); row != nil; row = row.NextSibling() {
		var cells []string
		for cell := row.FirstChild(); cell != nil; cell = cell.NextSibling() {
			txt := textutil.SanitizeTerminalText(w.plainText(cell))
			col := len(cells)
			if col == len(widths) {
				widths = append(widths, 0)
			}
			widths[col] = max(widths[col], textutil.DisplayWidth(txt))
			cells = append(cells, txt)
		}
		rows = append(rows, cells)
	}

	for r, cells := range rows {
		style := tcell.StyleDefault
		if r == 0 {
			style = style.Bold(true)
		}
		for i, txt := range cells {
			if i > 0 {
				w.write(" │ ", w.theme.rule)
			}
			w.write(textutil.Fit(txt, widths[i]), style)
		}
		w.flush()
		if r == 0 {
			parts := make([]string, len(widths))
			for i, wd := range widths {
				parts[i] = strings.Repeat("─", wd)
			}
			w.write(strings.Join(parts, "─┼─"), w.theme.rule)
			w.flush()
		}
	}
}
