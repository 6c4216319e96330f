package fs

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/gobwas/glob"
)

// IgnoreSet matches entry names against compiled glob patterns.
type IgnoreSet struct {
	patterns []string
	globs    []glob.Glob
}

// CompileIgnore compiles patterns, skipping blanks. Bad patterns are
// returned as errors alongside the usable set.
func CompileIgnore(patterns []string) (*IgnoreSet, []error) {
	set := &IgnoreSet{}
	var errs []error
	for _, raw := range patterns {
		p := strings.TrimSpace(raw)
		if p == "" {
			continue
		}
		g, err := glob.Compile(p, filepath.Separator)
		if err != nil {
			errs = append(errs, fmt.Errorf("invalid ignore pattern %q: %w", p, err))
			continue
		}
		set.patterns = append(set.patterns, p)
		set.globs = append(set.globs, g)
	}
	return set, errs
}

// Match reports whether name, or the full path, hits any pattern.
func (s *IgnoreSet) Match(path, name string) bool {
	if s == nil {
		return false
	}
	for _, g := range s.globs {
		if g.Match(name) || g.Match(path) {
			return true
		}
	}
	return false
}

// Patterns returns the accepted pattern strings.
func (s *IgnoreSet) Patterns() []string {
	if s == nil {
		return nil
	}
	out := make([]string, len(s.patterns))
	copy(out, s.patterns)
	return out
}

// Len returns the number of active patterns.
func (s *IgnoreSet) Len() int {
	if s == nil {
		return 0
	}
	return len(s.globs)
}
