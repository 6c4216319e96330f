package preview

import (
	"context"
	"fmt"
	"strings"

	"github.com/alecthomas/chroma/v2"
	"github.com/alecthomas/chroma/v2/lexers"
	"github.com/alecthomas/chroma/v2/styles"
	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/fs"
	"github.com/i-doll/tfl/internal/textutil"
)

// highlighter turns source text into styled lines with chroma.
type highlighter struct {
	style    *chroma.Style
	tabWidth int
}

func newHighlighter(theme string, tabWidth int) *highlighter {
	style := styles.Get(theme)
	if style == nil {
		style = styles.Fallback
	}
	return &highlighter{style: style, tabWidth: tabWidth}
}

// lexerFor picks a lexer by file name, then by content analysis.
func lexerFor(name, text string) chroma.Lexer {
	lexer := lexers.Match(name)
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

// lexerForLanguage resolves a fenced code block's info string.
func lexerForLanguage(lang, text string) chroma.Lexer {
	var lexer chroma.Lexer
	if lang != "" {
		lexer = lexers.Get(lang)
	}
	if lexer == nil {
		lexer = lexers.Analyse(text)
	}
	if lexer == nil {
		lexer = lexers.Fallback
	}
	return chroma.Coalesce(lexer)
}

func (h *highlighter) tokenStyle(t chroma.TokenType) tcell.Style {
	entry := h.style.Get(t)
	style := tcell.StyleDefault
	if entry.Colour.IsSet() {
		style = style.Foreground(tcell.NewRGBColor(
			int32(entry.Colour.Red()),
			int32(entry.Colour.Green()),
			int32(entry.Colour.Blue()),
		))
	}
	if entry.Bold == chroma.Yes {
		style = style.Bold(true)
	}
	if entry.Italic == chroma.Yes {
		style = style.Italic(true)
	}
	if entry.Underline == chroma.Yes {
		style = style.Underline(true)
	}
	return style
}

// highlight tokenises text and splits tokens on newlines. It stops once
// maxLines lines are full and reports whether content was cut.
func (h *highlighter) highlight(ctx context.Context, lexer chroma.Lexer, text string, maxLines int) ([]Line, bool, error) {
	it, err := lexer.Tokenise(nil, text)
	if err != nil {
		return h.plain(ctx, text, maxLines)
	}

	b := newLineBuilder(h.tabWidth, maxLines)
	for tok := it(); tok != chroma.EOF; tok = it() {
		style := h.tokenStyle(tok.Type)
		for i, part := range strings.Split(tok.Value, "\n") {
			if i > 0 {
				b.newline()
				if err := checkEvery(ctx, len(b.lines), 256); err != nil {
					return nil, false, err
				}
			}
			if !b.add(part, style) {
				return b.finish(), true, nil
			}
		}
	}
	return b.finish(), false, nil
}

// plain splits text into unstyled lines.
func (h *highlighter) plain(ctx context.Context, text string, maxLines int) ([]Line, bool, error) {
	b := newLineBuilder(h.tabWidth, maxLines)
	for i, raw := range strings.Split(text, "\n") {
		if i > 0 {
			b.newline()
			if err := checkEvery(ctx, i, 256); err != nil {
				return nil, false, err
			}
		}
		if !b.add(raw, tcell.StyleDefault) {
			return b.finish(), true, nil
		}
	}
	return b.finish(), false, nil
}

// lineBuilder accumulates spans into lines, expanding tabs across spans.
type lineBuilder struct {
	lines    []Line
	cur      Line
	column   int
	tabWidth int
	max      int
}

func newLineBuilder(tabWidth, max int) *lineBuilder {
	return &lineBuilder{tabWidth: tabWidth, max: max}
}

func (b *lineBuilder) full() bool {
	return b.max > 0 && len(b.lines) >= b.max
}

// add appends a fragment to the current line. It returns false when the
// line limit is already reached and the fragment would start a new line.
func (b *lineBuilder) add(text string, style tcell.Style) bool {
	text = strings.TrimSuffix(text, "\r")
	if text == "" {
		return true
	}
	if b.full() {
		return false
	}
	var expanded string
	expanded, b.column = textutil.ExpandTabsAt(text, b.tabWidth, b.column)
	b.cur = append(b.cur, Span{Text: textutil.SanitizeTerminalText(expanded), Style: style})
	return true
}

func (b *lineBuilder) newline() {
	if !b.full() {
		b.lines = append(b.lines, b.cur)
	}
	b.cur = nil
	b.column = 0
}

func (b *lineBuilder) finish() []Line {
	if len(b.cur) > 0 && !b.full() {
		b.lines = append(b.lines, b.cur)
	}
	b.cur = nil
	return b.lines
}

type textProducer struct {
	hl *highlighter
}

func (textProducer) CanHandle(src *source) bool {
	head, err := src.bytes()
	if err != nil {
		// let Produce surface the read error
		return true
	}
	return fs.IsTextFile(src.path, head)
}

func (p textProducer) Produce(ctx context.Context, src *source) (*Payload, error) {
	text, err := src.text()
	if err != nil {
		return nil, err
	}
	return p.render(ctx, src, text, lexerFor(src.name, text))
}

func (p textProducer) render(ctx context.Context, src *source, text string, lexer chroma.Lexer) (*Payload, error) {
	var (
		lines     []Line
		truncated bool
		err       error
		title     string
	)
	if src.mode == ModeRaw {
		lines, truncated, err = p.hl.plain(ctx, text, src.limits.MaxTextLines)
		title = "plain text"
	} else {
		lines, truncated, err = p.hl.highlight(ctx, lexer, text, src.limits.MaxTextLines)
		title = lexer.Config().Name
	}
	if err != nil {
		return nil, err
	}
	return &Payload{
		Kind:       KindText,
		Title:      fmt.Sprintf("%s · %d lines", title, countLines(text)),
		Lines:      lines,
		TotalBytes: src.size(),
		Truncated:  truncated,
	}, nil
}

func countLines(text string) int {
	if text == "" {
		return 0
	}
	n := strings.Count(text, "\n")
	if !strings.HasSuffix(text, "\n") {
		n++
	}
	return n
}
