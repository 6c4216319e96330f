package preview

import (
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"
)

// Mode selects how a file is presented.
type Mode int

const (
	ModeRendered Mode = iota
	ModeRaw
	ModeHex
)

func (m Mode) String() string {
	switch m {
	case ModeRaw:
		return "raw"
	case ModeHex:
		return "hex"
	default:
		return "rendered"
	}
}

// Next cycles rendered -> raw -> hex -> rendered.
func (m Mode) Next() Mode {
	return (m + 1) % 3
}

// Key identifies a cached preview.
type Key struct {
	Path string
	Mode Mode
}

func (k Key) String() string {
	return k.Mode.String() + ":" + k.Path
}

// Kind tells the renderer what a payload holds.
type Kind int

const (
	KindText Kind = iota
	KindMarkdown
	KindStructured
	KindHex
	KindDirectory
	KindArchive
	KindImage
	KindEmpty
)

var kindLabels = [...]string{
	KindText:       "text",
	KindMarkdown:   "markdown",
	KindStructured: "structured",
	KindHex:        "hex",
	KindDirectory:  "directory",
	KindArchive:    "archive",
	KindImage:      "image",
	KindEmpty:      "empty",
}

func (k Kind) String() string {
	if int(k) < len(kindLabels) {
		return kindLabels[k]
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Span is a run of text drawn with one style.
type Span struct {
	Text  string
	Style tcell.Style
}

// Line is one row of styled spans.
type Line []Span

// Plain builds an unstyled line.
func Plain(text string) Line {
	return Line{{Text: text, Style: tcell.StyleDefault}}
}

// Styled builds a single-span line.
func Styled(text string, style tcell.Style) Line {
	return Line{{Text: text, Style: style}}
}

func (l Line) String() string {
	var b strings.Builder
	for _, s := range l {
		b.WriteString(s.Text)
	}
	return b.String()
}

// ImageInfo describes a decoded image header.
type ImageInfo struct {
	Format string
	Width  int
	Height int
}

// Payload is a finished preview. It is immutable once produced and may be
// shared between the cache and the screen.
type Payload struct {
	Kind       Kind
	Title      string
	Lines      []Line
	Image      *ImageInfo
	TotalBytes int64
	Truncated  bool
}

// Text joins the plain text of every line.
func (p *Payload) Text() string {
	if p == nil {
		return ""
	}
	parts := make([]string, len(p.Lines))
	for i, l := range p.Lines {
		parts[i] = l.String()
	}
	return strings.Join(parts, "\n")
}
