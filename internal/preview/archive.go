package preview

import (
	"archive/tar"
	"archive/zip"
	"compress/bzip2"
	"compress/gzip"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/i-doll/tfl/internal/fs"
)

type archiveFormat int

const (
	archiveNone archiveFormat = iota
	archiveZip
	archiveTar
	archiveTarGz
	archiveTarBz2
)

func (f archiveFormat) String() string {
	switch f {
	case archiveZip:
		return "zip"
	case archiveTar:
		return "tar"
	case archiveTarGz:
		return "tar.gz"
	case archiveTarBz2:
		return "tar.bz2"
	}
	return ""
}

func archiveFormatOf(name string) archiveFormat {
	name = strings.ToLower(name)
	switch {
	case strings.HasSuffix(name, ".zip"):
		return archiveZip
	case strings.HasSuffix(name, ".tar.gz"), strings.HasSuffix(name, ".tgz"):
		return archiveTarGz
	case strings.HasSuffix(name, ".tar.bz2"), strings.HasSuffix(name, ".tbz2"):
		return archiveTarBz2
	case strings.HasSuffix(name, ".tar"):
		return archiveTar
	}
	return archiveNone
}

type archiveEntry struct {
	name     string
	size     int64
	modified time.Time
	isDir    bool
}

// archiveProducer lists the members of zip and tar archives.
type archiveProducer struct{}

func (archiveProducer) CanHandle(src *source) bool {
	return src.mode == ModeRendered && archiveFormatOf(src.name) != archiveNone
}

func (archiveProducer) Produce(ctx context.Context, src *source) (*Payload, error) {
	format := archiveFormatOf(src.name)
	var (
		entries []archiveEntry
		more    bool
		err     error
	)
	if format == archiveZip {
		entries, more, err = listZip(ctx, src.path, src.limits.MaxEntries)
	} else {
		entries, more, err = listTar(ctx, src.path, format, src.limits.MaxEntries)
	}
	if err != nil {
		return nil, err
	}

	var total int64
	for _, e := range entries {
		total += e.size
	}
	title := fmt.Sprintf("%s archive · %d entries", format, len(entries))
	if more {
		title = fmt.Sprintf("%s archive · %d+ entries", format, len(entries))
	}

	lines := []Line{
		Styled(fmt.Sprintf("%s compressed, %s unpacked", fs.HumanSize(src.size()), fs.HumanSize(total)), sizeStyle),
		{},
	}
	for _, e := range entries {
		lines = append(lines, archiveLine(e))
	}
	if more {
		lines = append(lines, Styled("… more entries not shown", sizeStyle))
	}
	return &Payload{
		Kind:       KindArchive,
		Title:      title,
		Lines:      lines,
		TotalBytes: src.size(),
		Truncated:  more,
	}, nil
}

func archiveLine(e archiveEntry) Line {
	modified := "                "
	if !e.modified.IsZero() {
		modified = e.modified.Format("2006-01-02 15:04")
	}
	if e.isDir {
		return Line{
			{Text: fmt.Sprintf("%9s  %s  ", "-", modified), Style: sizeStyle},
			{Text: e.name, Style: dirNameStyle},
		}
	}
	return Line{
		{Text: fmt.Sprintf("%9s  %s  ", fs.HumanSize(e.size), modified), Style: sizeStyle},
		{Text: e.name},
	}
}

func listZip(ctx context.Context, path string, limit int) ([]archiveEntry, bool, error) {
	r, err := zip.OpenReader(path)
	if err != nil {
		return nil, false, archiveError(path, err)
	}
	defer r.Close()

	var entries []archiveEntry
	for i, f := range r.File {
		if err := checkEvery(ctx, i, 256); err != nil {
			return nil, false, err
		}
		if len(entries) >= limit {
			return entries, true, nil
		}
		entries = append(entries, archiveEntry{
			name:     sanitizeMember(f.Name),
			size:     int64(f.UncompressedSize64),
			modified: f.Modified,
			isDir:    f.FileInfo().IsDir(),
		})
	}
	return entries, false, nil
}

func listTar(ctx context.Context, path string, format archiveFormat, limit int) ([]archiveEntry, bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, false, fs.WrapIO("preview", path, err)
	}
	defer f.Close()

	var r io.Reader = f
	switch format {
	case archiveTarGz:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return nil, false, archiveError(path, err)
		}
		defer gz.Close()
		r = gz
	case archiveTarBz2:
		r = bzip2.NewReader(f)
	}

	tr := tar.NewReader(r)
	var entries []archiveEntry
	for i := 0; ; i++ {
		if err := checkEvery(ctx, i, 256); err != nil {
			return nil, false, err
		}
		hdr, err := tr.Next()
		if errors.Is(err, io.EOF) {
			return entries, false, nil
		}
		if err != nil {
			return nil, false, archiveError(path, err)
		}
		if len(entries) >= limit {
			return entries, true, nil
		}
		entries = append(entries, archiveEntry{
			name:     sanitizeMember(hdr.Name),
			size:     hdr.Size,
			modified: hdr.ModTime,
			isDir:    hdr.Typeflag == tar.TypeDir,
		})
	}
}

func sanitizeMember(name string) string {
	return strings.Map(func(r rune) rune {
		if r < 0x20 || r == 0x7f {
			return '?'
		}
		return r
	}, name)
}

// archiveError reports format damage as a parse error and everything else
// as IO.
func archiveError(path string, err error) error {
	var pathErr *os.PathError
	if errors.As(err, &pathErr) {
		return fs.WrapIO("preview", path, err)
	}
	return fs.NewError(fs.KindParse, "preview", path, err)
}
