package preview

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/fs"
)

// Producer builds the payload for one file. Implementations run on job
// goroutines and must not touch UI state.
type Producer interface {
	Produce(ctx context.Context, path string, mode Mode) (*Payload, error)
}

// ProducerFunc adapts a function to Producer.
type ProducerFunc func(ctx context.Context, path string, mode Mode) (*Payload, error)

func (f ProducerFunc) Produce(ctx context.Context, path string, mode Mode) (*Payload, error) {
	return f(ctx, path, mode)
}

// Limits bound how much work a single preview may do.
type Limits struct {
	MaxTextBytes int64
	MaxTextLines int
	MaxHexBytes  int
	MaxEntries   int
	TabWidth     int
	SyntaxTheme  string
	ShowHidden   bool
}

// DefaultLimits mirrors the configuration defaults.
func DefaultLimits() Limits {
	return Limits{
		MaxTextBytes: 1 << 20,
		MaxTextLines: 1000,
		MaxHexBytes:  4096,
		MaxEntries:   1000,
		TabWidth:     4,
		SyntaxTheme:  "monokai",
	}
}

func (l Limits) withDefaults() Limits {
	def := DefaultLimits()
	if l.MaxTextBytes <= 0 {
		l.MaxTextBytes = def.MaxTextBytes
	}
	if l.MaxTextLines <= 0 {
		l.MaxTextLines = def.MaxTextLines
	}
	if l.MaxHexBytes <= 0 {
		l.MaxHexBytes = def.MaxHexBytes
	}
	if l.MaxEntries <= 0 {
		l.MaxEntries = def.MaxEntries
	}
	if l.TabWidth <= 0 {
		l.TabWidth = def.TabWidth
	}
	if l.SyntaxTheme == "" {
		l.SyntaxTheme = def.SyntaxTheme
	}
	return l
}

// source is what detectors inspect. Content is read lazily, once.
type source struct {
	path   string
	name   string
	ext    string
	mode   Mode
	info   os.FileInfo
	limits Limits

	content []byte
	readErr error
	read    bool
}

func (s *source) size() int64 { return s.info.Size() }

// bytes returns up to MaxTextBytes of the file.
func (s *source) bytes() ([]byte, error) {
	if !s.read {
		s.read = true
		s.content, s.readErr = fs.ReadHead(s.path, s.limits.MaxTextBytes)
	}
	return s.content, s.readErr
}

// text decodes the content, honouring BOMs and repairing invalid UTF-8.
func (s *source) text() (string, error) {
	b, err := s.bytes()
	if err != nil {
		return "", err
	}
	text := fs.NormalizeTextContent(b)
	if !utf8.ValidString(text) {
		text = strings.ToValidUTF8(text, "�")
	}
	return text, nil
}

// detector is one step of the detection chain.
type detector interface {
	CanHandle(src *source) bool
	Produce(ctx context.Context, src *source) (*Payload, error)
}

// Registry picks a producer by file type: directory, empty, archive, image,
// size limit, markdown, structured data, text and finally a hex dump.
type Registry struct {
	limits    Limits
	detectors []detector
}

// NewRegistry builds the default detection chain.
func NewRegistry(limits Limits) *Registry {
	limits = limits.withDefaults()
	hl := newHighlighter(limits.SyntaxTheme, limits.TabWidth)
	return &Registry{
		limits: limits,
		detectors: []detector{
			directoryProducer{lister: fs.DirLister{}},
			emptyProducer{},
			hexProducer{forcedOnly: true},
			archiveProducer{},
			imageProducer{},
			sizeGuard{},
			markdownProducer{hl: hl},
			structuredProducer{hl: hl},
			textProducer{hl: hl},
			hexProducer{},
		},
	}
}

// Limits returns the effective limits.
func (r *Registry) Limits() Limits {
	return r.limits
}

// Produce stats path and hands it to the first detector that accepts it.
func (r *Registry) Produce(ctx context.Context, path string, mode Mode) (*Payload, error) {
	info, err := os.Stat(path)
	if err != nil {
		return nil, fs.WrapIO("preview", path, err)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	src := &source{
		path:   path,
		name:   filepath.Base(path),
		ext:    strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."),
		mode:   mode,
		info:   info,
		limits: r.limits,
	}
	for _, d := range r.detectors {
		if d.CanHandle(src) {
			return d.Produce(ctx, src)
		}
	}
	return nil, fs.NewError(fs.KindUnsupportedType, "preview", path, nil)
}

type emptyProducer struct{}

func (emptyProducer) CanHandle(src *source) bool {
	return !src.info.IsDir() && src.size() == 0
}

func (emptyProducer) Produce(context.Context, *source) (*Payload, error) {
	return &Payload{
		Kind:  KindEmpty,
		Title: "empty file",
		Lines: []Line{Styled("Empty file", tcell.StyleDefault.Dim(true))},
	}, nil
}

// sizeGuard rejects anything that would need more than MaxTextBytes read.
type sizeGuard struct{}

func (sizeGuard) CanHandle(src *source) bool {
	return src.size() > src.limits.MaxTextBytes
}

func (sizeGuard) Produce(_ context.Context, src *source) (*Payload, error) {
	return nil, fs.NewError(fs.KindTooLarge, "preview", src.path, nil)
}

// checkEvery reports ctx cancellation every n iterations of a loop.
func checkEvery(ctx context.Context, i, n int) error {
	if i%n == 0 {
		return ctx.Err()
	}
	return nil
}
