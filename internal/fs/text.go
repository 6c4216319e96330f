package fs

import (
	"bytes"
	"io"
	"os"
	"path/filepath"
	"strings"
	"unicode/utf8"

	"golang.org/x/text/encoding/unicode"
)

// SniffSize is how many leading bytes are inspected for text detection.
const SniffSize = 8192

const nonPrintablePercent = 30

var binaryExt = extSet(
	"7z", "apk", "avi", "bin", "bmp", "class", "dat", "dll", "doc", "docx",
	"dylib", "exe", "flac", "ico", "iso", "jar", "mkv", "mov", "mp3", "mp4",
	"o", "ogg", "otf", "pdf", "ppt", "pptx", "psd", "so", "ttf", "wav",
	"wasm", "woff", "woff2", "xls", "xlsx", "xz",
)

func extSet(exts ...string) map[string]struct{} {
	m := make(map[string]struct{}, len(exts))
	for _, e := range exts {
		m[e] = struct{}{}
	}
	return m
}

func lowerExt(path string) string {
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), ".")
}

// IsTextFile decides whether content looks like text. A known binary
// extension short-circuits sniffing.
func IsTextFile(path string, content []byte) bool {
	if _, ok := binaryExt[lowerExt(path)]; ok {
		return false
	}
	if len(content) == 0 {
		return true
	}
	sample := content
	if len(sample) > SniffSize {
		sample = sample[:SniffSize]
	}
	if bomOf(sample) != bomNone {
		return true
	}
	if bytes.IndexByte(sample, 0) >= 0 {
		return false
	}
	if utf8.Valid(sample) {
		return true
	}

	bad := 0
	for _, b := range sample {
		if !textByte(b) {
			bad++
		}
	}
	return bad*100/len(sample) < nonPrintablePercent
}

func textByte(b byte) bool {
	return b == '\t' || b == '\n' || b == '\r' || b == 0x1b || b >= 0x20 && b != 0x7f
}

// ReadHead returns up to limit bytes from the beginning of path.
func ReadHead(path string, limit int64) ([]byte, error) {
	if limit <= 0 {
		return nil, nil
	}
	f, err := os.Open(path)
	if err != nil {
		return nil, WrapIO("read", path, err)
	}
	defer func() {
		_ = f.Close()
	}()
	data, err := io.ReadAll(io.LimitReader(f, limit))
	if err != nil {
		return nil, WrapIO("read", path, err)
	}
	return data, nil
}

type bom int

const (
	bomNone bom = iota
	bomUTF8
	bomUTF16LE
	bomUTF16BE
)

func bomOf(b []byte) bom {
	switch {
	case len(b) >= 3 && b[0] == 0xEF && b[1] == 0xBB && b[2] == 0xBF:
		return bomUTF8
	case len(b) >= 2 && b[0] == 0xFF && b[1] == 0xFE:
		return bomUTF16LE
	case len(b) >= 2 && b[0] == 0xFE && b[1] == 0xFF:
		return bomUTF16BE
	}
	return bomNone
}

// NormalizeTextContent decodes BOM-marked UTF-8 and UTF-16 content to a Go string.
func NormalizeTextContent(content []byte) string {
	switch bomOf(content) {
	case bomUTF8:
		return string(content[3:])
	case bomUTF16LE:
		return decodeUTF16(content, unicode.LittleEndian)
	case bomUTF16BE:
		return decodeUTF16(content, unicode.BigEndian)
	}
	return string(content)
}

func decodeUTF16(content []byte, endian unicode.Endianness) string {
	out, err := unicode.UTF16(endian, unicode.ExpectBOM).NewDecoder().Bytes(content)
	if err != nil {
		return string(content)
	}
	return string(out)
}
