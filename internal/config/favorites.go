package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
)

// Favorites is the bookmarked directory list, stored one path per line.
type Favorites struct {
	path    string
	entries []string
}

// FavoritesPath is the favorites file inside dir.
func FavoritesPath(dir string) string {
	return filepath.Join(dir, FavoritesFileName)
}

// LoadFavorites reads path. A missing file is an empty list.
func LoadFavorites(path string) (*Favorites, error) {
	f := &Favorites{path: path}
	return f, f.Reload()
}

// Reload re-reads the file, replacing the in-memory list.
func (f *Favorites) Reload() error {
	data, err := os.ReadFile(f.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			f.entries = nil
			return nil
		}
		return fmt.Errorf("cannot read favorites: %w", err)
	}
	f.entries = f.entries[:0]
	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimRight(line, "\r")
		if line == "" || f.Contains(line) {
			continue
		}
		f.entries = append(f.entries, line)
	}
	return nil
}

// Save writes the list, creating the parent directory.
func (f *Favorites) Save() error {
	if err := os.MkdirAll(filepath.Dir(f.path), 0o755); err != nil {
		return fmt.Errorf("failed to create favorites directory: %w", err)
	}
	if err := os.WriteFile(f.path, []byte(strings.Join(f.entries, "\n")), 0o644); err != nil {
		return fmt.Errorf("failed to write favorites: %w", err)
	}
	return nil
}

// Add appends path unless it is already present and reports whether the
// list changed.
func (f *Favorites) Add(path string) bool {
	if path == "" || f.Contains(path) {
		return false
	}
	f.entries = append(f.entries, path)
	return true
}

// Remove deletes the entry at i. Out-of-range indices are ignored.
func (f *Favorites) Remove(i int) bool {
	if i < 0 || i >= len(f.entries) {
		return false
	}
	f.entries = append(f.entries[:i], f.entries[i+1:]...)
	return true
}

// Get returns the entry at i.
func (f *Favorites) Get(i int) (string, bool) {
	if i < 0 || i >= len(f.entries) {
		return "", false
	}
	return f.entries[i], true
}

func (f *Favorites) Contains(path string) bool {
	for _, p := range f.entries {
		if p == path {
			return true
		}
	}
	return false
}

func (f *Favorites) List() []string { return f.entries }
func (f *Favorites) Len() int       { return len(f.entries) }
func (f *Favorites) Path() string   { return f.path }
