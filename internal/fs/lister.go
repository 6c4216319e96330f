package fs

import (
	"os"
	"path/filepath"

	"golang.org/x/text/unicode/norm"
)

// ListOptions controls which children a listing returns.
type ListOptions struct {
	ShowHidden bool
	Ignore     *IgnoreSet
}

// Lister lists the direct children of a directory. Order is unspecified.
type Lister interface {
	List(dir string, opts ListOptions) ([]Entry, error)
}

// DirLister reads directories from the local filesystem.
type DirLister struct{}

// List returns the visible children of dir at depth 0. Entries whose metadata
// vanished between readdir and stat are skipped.
func (DirLister) List(dir string, opts ListOptions) ([]Entry, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, WrapIO("list", dir, err)
	}
	if !info.IsDir() {
		return nil, NewError(KindNotADirectory, "list", dir, nil)
	}

	dirEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, WrapIO("list", dir, err)
	}

	entries := make([]Entry, 0, len(dirEntries))
	for _, de := range dirEntries {
		rawName := de.Name()
		fullPath := filepath.Join(dir, rawName)

		if skipAlways(fullPath, rawName) {
			continue
		}
		if !opts.ShowHidden && IsHidden(fullPath, rawName) {
			continue
		}
		if opts.Ignore.Match(fullPath, rawName) {
			continue
		}

		fi, err := de.Info()
		if err != nil {
			continue
		}
		e := entryFromInfo(fullPath, fi, 0)
		e.Name = norm.NFC.String(rawName)
		entries = append(entries, e)
	}
	return entries, nil
}

// ListerFunc adapts a function to the Lister interface.
type ListerFunc func(dir string, opts ListOptions) ([]Entry, error)

func (f ListerFunc) List(dir string, opts ListOptions) ([]Entry, error) {
	return f(dir, opts)
}
