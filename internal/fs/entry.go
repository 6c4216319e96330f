package fs

import (
	"os"
	"path/filepath"
	"strings"
	"time"
)

// Entry represents a single file or directory on disk plus the tree state
// attached to it.
type Entry struct {
	Name          string
	Path          string
	Depth         int
	IsDir         bool
	IsSymlink     bool
	SymlinkTarget string
	Expanded      bool
	Size          int64
	Modified      time.Time
	Mode          os.FileMode
	Selected      bool
	Status        string
}

// IsHidden reports whether the entry should be treated as hidden.
func (e Entry) IsHidden() bool {
	return IsHidden(e.Path, e.Name)
}

// Ext returns the lower-cased extension without the leading dot.
func (e Entry) Ext() string {
	if e.IsDir {
		return ""
	}
	return strings.TrimPrefix(strings.ToLower(filepath.Ext(e.Name)), ".")
}

// Stat builds a depth-0 entry for path without listing its parent.
func Stat(path string) (Entry, error) {
	info, err := os.Lstat(path)
	if err != nil {
		return Entry{}, WrapIO("stat", path, err)
	}
	return entryFromInfo(path, info, 0), nil
}

func entryFromInfo(path string, info os.FileInfo, depth int) Entry {
	e := Entry{
		Name:     filepath.Base(path),
		Path:     path,
		Depth:    depth,
		IsDir:    info.IsDir(),
		Size:     info.Size(),
		Modified: info.ModTime(),
		Mode:     info.Mode(),
	}
	if info.Mode()&os.ModeSymlink != 0 {
		e.IsSymlink = true
		if target, err := os.Readlink(path); err == nil {
			e.SymlinkTarget = target
		}
		// Symlinks take the kind and size of their target.
		if targetInfo, err := os.Stat(path); err == nil {
			e.IsDir = targetInfo.IsDir()
			e.Size = targetInfo.Size()
		}
	}
	return e
}
