package preview

import (
	"context"
	"fmt"
	"sort"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/fs"
	"github.com/i-doll/tfl/internal/textutil"
)

var (
	dirNameStyle  = tcell.StyleDefault.Foreground(tcell.ColorBlue).Bold(true)
	linkNameStyle = tcell.StyleDefault.Foreground(tcell.ColorTeal)
	sizeStyle     = tcell.StyleDefault.Foreground(tcell.ColorGray)
)

// directoryProducer summarises a directory: counts, total size and the
// first MaxEntries children, directories first.
type directoryProducer struct {
	lister fs.Lister
}

func (directoryProducer) CanHandle(src *source) bool {
	return src.info.IsDir()
}

func (p directoryProducer) Produce(ctx context.Context, src *source) (*Payload, error) {
	entries, err := p.lister.List(src.path, fs.ListOptions{ShowHidden: src.limits.ShowHidden})
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	sort.Slice(entries, func(i, j int) bool {
		if entries[i].IsDir != entries[j].IsDir {
			return entries[i].IsDir
		}
		return strings.ToLower(entries[i].Name) < strings.ToLower(entries[j].Name)
	})

	var files, dirs int
	var total int64
	for _, e := range entries {
		if e.IsDir {
			dirs++
		} else {
			files++
			total += e.Size
		}
	}

	summary := fmt.Sprintf("%d files, %d directories, %s", files, dirs, fs.HumanSize(total))
	lines := []Line{Styled(summary, sizeStyle), {}}
	truncated := false
	for i, e := range entries {
		if i >= src.limits.MaxEntries {
			truncated = true
			lines = append(lines, Styled(fmt.Sprintf("… %d more", len(entries)-i), sizeStyle))
			break
		}
		lines = append(lines, directoryLine(e))
	}

	return &Payload{
		Kind:      KindDirectory,
		Title:     summary,
		Lines:     lines,
		Truncated: truncated,
	}, nil
}

func directoryLine(e fs.Entry) Line {
	name := textutil.SanitizeTerminalText(e.Name)
	switch {
	case e.IsDir:
		return Line{{Text: name + "/", Style: dirNameStyle}}
	case e.IsSymlink:
		return Line{
			{Text: name, Style: linkNameStyle},
			{Text: " -> " + textutil.SanitizeTerminalText(e.SymlinkTarget), Style: sizeStyle},
		}
	default:
		return Line{
			{Text: name, Style: tcell.StyleDefault},
			{Text: "  " + fs.HumanSize(e.Size), Style: sizeStyle},
		}
	}
}
