package preview

import (
	"archive/tar"
	"archive/zip"
	"bytes"
	"compress/gzip"
	"context"
	"image"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/i-doll/tfl/internal/fs"
)

func writeTemp(t *testing.T, dir, name string, data []byte) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, data, 0o644))
	return path
}

func produce(t *testing.T, r *Registry, path string, mode Mode) *Payload {
	t.Helper()
	p, err := r.Produce(context.Background(), path, mode)
	require.NoError(t, err)
	require.NotNil(t, p)
	return p
}

func TestRegistryText(t *testing.T) {
	dir := t.TempDir()
	path := writeTemp(t, dir, "main.go", []byte("package main\n\nfunc main() {\n\tprintln(1)\n}\n"))
	r := NewRegistry(Limits{})

	p := produce(t, r, path, ModeRendered)
	assert.Equal(t, KindText, p.Kind)
	assert.Equal(t, "Go · 5 lines", p.Title)
	require.Len(t, p.Lines, 5)
	assert.Equal(t, "    println(1)", p.Lines[3].String(), "tabs are expanded")
	assert.False(t, p.Truncated)
	assert.Greater(t, len(p.Lines[0]), 1, "highlighted lines carry several spans")

	raw := produce(t, r, path, ModeRaw)
	assert.Equal(t, "plain text · 5 lines", raw.Title)
	assert.Equal(t, p.Text(), raw.Text())
}

func TestRegistryTextTruncatesLines(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(Limits{MaxTextLines: 5})

	exact := writeTemp(t, dir, "exact.txt", []byte("1\n2\n3\n4\n5\n"))
	p := produce(t, r, exact, ModeRaw)
	assert.Len(t, p.Lines, 5)
	assert.False(t, p.Truncated)

	long := writeTemp(t, dir, "long.txt", []byte(strings.Repeat("line\n", 10)))
	p = produce(t, r, long, ModeRaw)
	assert.Len(t, p.Lines, 5)
	assert.True(t, p.Truncated)
	assert.Equal(t, "plain text · 10 lines", p.Title)
}

func TestRegistryMarkdown(t *testing.T) {
	dir := t.TempDir()
	src := "# Title\n\nSome *text* here.\n\n- one\n- two\n\n```go\nx := 1\n```\n"
	path := writeTemp(t, dir, "README.md", []byte(src))
	r := NewRegistry(Limits{})

	p := produce(t, r, path, ModeRendered)
	assert.Equal(t, KindMarkdown, p.Kind)
	text := p.Text()
	assert.Contains(t, text, "# Title")
	assert.Contains(t, text, "Some text here.")
	assert.Contains(t, text, "• one")
	assert.Contains(t, text, "• two")
	assert.Contains(t, text, "  x := 1")
	assert.NotContains(t, text, "```")

	raw := produce(t, r, path, ModeRaw)
	assert.Equal(t, KindText, raw.Kind)
	assert.Contains(t, raw.Text(), "```go")
}

func TestRegistryStructured(t *testing.T) {
	dir := t.TempDir()
	r := NewRegistry(Limits{})

	js := writeTemp(t, dir, "data.json", []byte(`{"a":1,"b":[true,null]}`))
	p := produce(t, r, js, ModeRendered)
	assert.Equal(t, KindStructured, p.Kind)
	assert.Contains(t, p.Title, "formatted")
	assert.Contains(t, p.Text(), "\"a\": 1")

	bad := writeTemp(t, dir, "bad.json", []byte(`{"a":`))
	p = produce(t, r, bad, ModeRendered)
	assert.Equal(t, KindText, p.Kind)
	assert.Contains(t, p.Title, "not valid json")
	assert.Equal(t, `{"a":`, p.Text())

	yml := writeTemp(t, dir, "conf.yaml", []byte("a:\n        b: 1\n"))
	p = produce(t, r, yml, ModeRendered)
	assert.Equal(t, KindStructured, p.Kind)
	assert.Equal(t, "a:\n  b: 1", p.Text())
}

func TestRegistryEmptyFile(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "empty.txt", nil)
	p := produce(t, NewRegistry(Limits{}), path, ModeRendered)
	assert.Equal(t, KindEmpty, p.Kind)
}

func TestRegistryBinaryFallsBackToHex(t *testing.T) {
	data := []byte{0x7f, 'E', 'L', 'F', 0, 0, 1, 2}
	path := writeTemp(t, t.TempDir(), "prog", data)

	p := produce(t, NewRegistry(Limits{}), path, ModeRendered)
	assert.Equal(t, KindHex, p.Kind)
	require.Len(t, p.Lines, 1)
	assert.True(t, strings.HasPrefix(p.Lines[0].String(), "00000000  7f 45 4c 46 00 00 01 02 "))
	assert.True(t, strings.HasSuffix(p.Lines[0].String(), " |.ELF....|"))
	assert.False(t, p.Truncated)
}

func TestRegistryHexModeAndTruncation(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "notes.txt", bytes.Repeat([]byte("a"), 100))
	r := NewRegistry(Limits{MaxHexBytes: 32})

	p := produce(t, r, path, ModeHex)
	assert.Equal(t, KindHex, p.Kind)
	assert.True(t, p.Truncated)
	assert.Equal(t, int64(100), p.TotalBytes)
	require.Len(t, p.Lines, 3)
	assert.Equal(t, "00000010  ", p.Lines[1][0].Text)
	assert.Contains(t, p.Lines[2].String(), "68 B more not shown")
}

func TestHexDumpLayout(t *testing.T) {
	lines := HexDump([]byte("0123456789abcdefXY"))
	require.Len(t, lines, 2)
	assert.Equal(t,
		"00000000  30 31 32 33 34 35 36 37  38 39 61 62 63 64 65 66  |0123456789abcdef|",
		lines[0].String())
	assert.True(t, strings.HasPrefix(lines[1].String(), "00000010  58 59 "))
	assert.Equal(t, len(lines[0].String()), len(lines[1].String())+14)
	assert.Empty(t, HexDump(nil))
}

func TestRegistryTooLarge(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "big.txt", bytes.Repeat([]byte("x"), 200))
	_, err := NewRegistry(Limits{MaxTextBytes: 100}).Produce(context.Background(), path, ModeRendered)
	assert.ErrorIs(t, err, fs.ErrTooLarge)
}

func TestRegistryDirectory(t *testing.T) {
	dir := t.TempDir()
	writeTemp(t, dir, "b.txt", []byte("12345"))
	writeTemp(t, dir, "A.txt", []byte("123"))
	writeTemp(t, dir, ".hidden", []byte("secret"))
	require.NoError(t, os.Mkdir(filepath.Join(dir, "sub"), 0o755))

	p := produce(t, NewRegistry(Limits{}), dir, ModeRendered)
	assert.Equal(t, KindDirectory, p.Kind)
	assert.Equal(t, "2 files, 1 directories, 8 B", p.Title)
	require.Len(t, p.Lines, 5)
	assert.Equal(t, "sub/", p.Lines[2].String())
	assert.Equal(t, "A.txt  3 B", p.Lines[3].String())
	assert.Equal(t, "b.txt  5 B", p.Lines[4].String())

	p = produce(t, NewRegistry(Limits{ShowHidden: true, MaxEntries: 2}), dir, ModeRendered)
	assert.Equal(t, "3 files, 1 directories, 14 B", p.Title)
	assert.True(t, p.Truncated)
	assert.Equal(t, "… 2 more", p.Lines[len(p.Lines)-1].String())
}

func TestRegistryZipArchive(t *testing.T) {
	var buf bytes.Buffer
	zw := zip.NewWriter(&buf)
	for _, name := range []string{"docs/", "docs/a.txt", "main.go"} {
		w, err := zw.Create(name)
		require.NoError(t, err)
		if !strings.HasSuffix(name, "/") {
			_, err = w.Write([]byte("hello"))
			require.NoError(t, err)
		}
	}
	require.NoError(t, zw.Close())
	path := writeTemp(t, t.TempDir(), "bundle.zip", buf.Bytes())

	p := produce(t, NewRegistry(Limits{}), path, ModeRendered)
	assert.Equal(t, KindArchive, p.Kind)
	assert.Equal(t, "zip archive · 3 entries", p.Title)
	text := p.Text()
	assert.Contains(t, text, "docs/a.txt")
	assert.Contains(t, text, "main.go")
	assert.Contains(t, text, "10 B unpacked")
}

func TestRegistryTarGzArchive(t *testing.T) {
	var buf bytes.Buffer
	gz := gzip.NewWriter(&buf)
	tw := tar.NewWriter(gz)
	for _, name := range []string{"one.txt", "two.txt", "three.txt"} {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: 3, Typeflag: tar.TypeReg}))
		_, err := tw.Write([]byte("abc"))
		require.NoError(t, err)
	}
	require.NoError(t, tw.Close())
	require.NoError(t, gz.Close())
	path := writeTemp(t, t.TempDir(), "src.tar.gz", buf.Bytes())

	p := produce(t, NewRegistry(Limits{MaxEntries: 2}), path, ModeRendered)
	assert.Equal(t, KindArchive, p.Kind)
	assert.Equal(t, "tar.gz archive · 2+ entries", p.Title)
	assert.True(t, p.Truncated)
	assert.NotContains(t, p.Text(), "three.txt")
}

func TestRegistryCorruptArchive(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "broken.zip", []byte("definitely not a zip file"))
	_, err := NewRegistry(Limits{}).Produce(context.Background(), path, ModeRendered)
	assert.ErrorIs(t, err, fs.ErrParse)
	assert.Contains(t, ErrorMessage(err), "Could not parse file")
}

func TestRegistryImage(t *testing.T) {
	var buf bytes.Buffer
	require.NoError(t, png.Encode(&buf, image.NewRGBA(image.Rect(0, 0, 3, 2))))
	path := writeTemp(t, t.TempDir(), "dot.png", buf.Bytes())

	p := produce(t, NewRegistry(Limits{}), path, ModeRendered)
	assert.Equal(t, KindImage, p.Kind)
	require.NotNil(t, p.Image)
	assert.Equal(t, ImageInfo{Format: "png", Width: 3, Height: 2}, *p.Image)
	assert.Contains(t, p.Text(), "image/png")

	hex := produce(t, NewRegistry(Limits{}), path, ModeHex)
	assert.Equal(t, KindHex, hex.Kind)
}

func TestRegistryCorruptImage(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "photo.jpg", []byte("not really a jpeg"))
	_, err := NewRegistry(Limits{}).Produce(context.Background(), path, ModeRendered)
	assert.ErrorIs(t, err, fs.ErrParse)
}

func TestRegistryMissingPath(t *testing.T) {
	_, err := NewRegistry(Limits{}).Produce(context.Background(), filepath.Join(t.TempDir(), "gone"), ModeRendered)
	assert.ErrorIs(t, err, fs.ErrNotFound)
	assert.ErrorIs(t, err, fs.ErrIO)
}

func TestRegistryHonoursCancelledContext(t *testing.T) {
	path := writeTemp(t, t.TempDir(), "a.txt", []byte("hi"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewRegistry(Limits{}).Produce(ctx, path, ModeRendered)
	assert.ErrorIs(t, err, context.Canceled)
}
