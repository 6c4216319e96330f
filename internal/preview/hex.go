package preview

import (
	"context"
	"fmt"
	"strings"

	"github.com/gdamore/tcell/v2"

	"github.com/i-doll/tfl/internal/fs"
)

const hexLineWidth = 16

var (
	hexOffsetStyle = tcell.StyleDefault.Foreground(tcell.ColorDarkCyan)
	hexByteStyle   = tcell.StyleDefault
	hexZeroStyle   = tcell.StyleDefault.Dim(true)
	hexASCIIStyle  = tcell.StyleDefault.Foreground(tcell.ColorGreen)
)

// hexProducer dumps the first MaxHexBytes bytes. With forcedOnly set it
// only claims files when hex mode was requested explicitly.
type hexProducer struct {
	forcedOnly bool
}

func (p hexProducer) CanHandle(src *source) bool {
	if src.info.IsDir() {
		return false
	}
	return !p.forcedOnly || src.mode == ModeHex
}

func (hexProducer) Produce(ctx context.Context, src *source) (*Payload, error) {
	data, err := fs.ReadHead(src.path, int64(src.limits.MaxHexBytes))
	if err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	lines := HexDump(data)
	truncated := int64(len(data)) < src.size()
	if truncated {
		lines = append(lines, Styled(
			fmt.Sprintf("… %s more not shown", fs.HumanSize(src.size()-int64(len(data)))),
			hexZeroStyle))
	}
	return &Payload{
		Kind:       KindHex,
		Title:      fmt.Sprintf("binary · %s", fs.HumanSize(src.size())),
		Lines:      lines,
		TotalBytes: src.size(),
		Truncated:  truncated,
	}, nil
}

// HexDump renders data as offset, two groups of eight bytes and an ASCII column.
func HexDump(data []byte) []Line {
	lines := make([]Line, 0, (len(data)+hexLineWidth-1)/hexLineWidth)
	for off := 0; off < len(data); off += hexLineWidth {
		lines = append(lines, hexLine(off, data[off:min(off+hexLineWidth, len(data))]))
	}
	return lines
}

func hexLine(offset int, chunk []byte) Line {
	line := Line{{Text: fmt.Sprintf("%08x  ", offset), Style: hexOffsetStyle}}

	var hexPart strings.Builder
	for i := 0; i < hexLineWidth; i++ {
		if i == 8 {
			hexPart.WriteByte(' ')
		}
		if i < len(chunk) {
			fmt.Fprintf(&hexPart, "%02x ", chunk[i])
		} else {
			hexPart.WriteString("   ")
		}
	}
	style := hexByteStyle
	if allZero(chunk) {
		style = hexZeroStyle
	}
	line = append(line, Span{Text: hexPart.String(), Style: style})

	ascii := make([]byte, len(chunk))
	for i, b := range chunk {
		if b >= 0x20 && b < 0x7f {
			ascii[i] = b
		} else {
			ascii[i] = '.'
		}
	}
	return append(line, Span{Text: " |" + string(ascii) + "|", Style: hexASCIIStyle})
}

func allZero(b []byte) bool {
	for _, c := range b {
		if c != 0 {
			return false
		}
	}
	return true
}
