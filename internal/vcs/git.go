// Package vcs reads git working-tree status for the tree's status column.
package vcs

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"strings"

	"go.uber.org/zap"
)

// ErrNotRepository is returned for directories outside any git work tree.
var ErrNotRepository = errors.New("not a git repository")

// Tags shown in the tree. A directory takes the tag of its changed
// descendants, or Modified when they disagree.
const (
	TagModified   = "M"
	TagAdded      = "A"
	TagDeleted    = "D"
	TagRenamed    = "R"
	TagUntracked  = "?"
	TagConflicted = "!"
)

// Snapshot is the status of the part of a work tree under Dir.
type Snapshot struct {
	Dir    string
	Branch string
	// Tags maps absolute paths under Dir, files and their parent
	// directories, to a tag.
	Tags map[string]string
}

// Runner runs git with args inside dir and returns its stdout.
type Runner func(ctx context.Context, dir string, args ...string) ([]byte, error)

// ExecRunner runs the git binary from PATH.
func ExecRunner(ctx context.Context, dir string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, "git", append([]string{"-C", dir}, args...)...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return nil, fmt.Errorf("git %s: %w: %s", args[0], err, msg)
		}
		return nil, fmt.Errorf("git %s: %w", args[0], err)
	}
	return out, nil
}

// Provider computes snapshots. It holds no state between calls and may be
// used from any goroutine.
type Provider struct {
	run    Runner
	logger *zap.Logger
}

// NewProvider builds a provider. A nil run uses ExecRunner.
func NewProvider(run Runner, logger *zap.Logger) *Provider {
	if run == nil {
		run = ExecRunner
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Provider{run: run, logger: logger}
}

// Status reports the work-tree status below dir.
func (p *Provider) Status(ctx context.Context, dir string) (*Snapshot, error) {
	out, err := p.run(ctx, dir, "rev-parse", "--is-inside-work-tree", "--show-prefix")
	if err != nil {
		if ctx.Err() != nil {
			return nil, ctx.Err()
		}
		p.logger.Debug("no git work tree", zap.String("dir", dir), zap.Error(err))
		return nil, ErrNotRepository
	}
	lines := strings.Split(strings.TrimRight(string(out), "\n"), "\n")
	if len(lines) == 0 || lines[0] != "true" {
		return nil, ErrNotRepository
	}
	prefix := ""
	if len(lines) > 1 {
		prefix = lines[1]
	}

	out, err = p.run(ctx, dir, "status", "--porcelain=v1", "-z", "--branch", "--untracked-files=all")
	if err != nil {
		return nil, err
	}
	snap := parsePorcelain(out, dir, prefix)
	p.logger.Debug("git status",
		zap.String("dir", dir),
		zap.String("branch", snap.Branch),
		zap.Int("tags", len(snap.Tags)))
	return snap, nil
}

// parsePorcelain reads `git status --porcelain=v1 -z --branch` output.
// Paths in it are relative to the repository root; prefix is dir's own
// position there, as printed by `git rev-parse --show-prefix`.
func parsePorcelain(out []byte, dir, prefix string) *Snapshot {
	snap := &Snapshot{Dir: dir, Tags: make(map[string]string)}
	records := strings.Split(string(out), "\x00")
	for i := 0; i < len(records); i++ {
		rec := records[i]
		if strings.HasPrefix(rec, "## ") {
			snap.Branch = parseBranch(rec[3:])
			continue
		}
		if len(rec) < 4 {
			continue
		}
		x, y, rel := rec[0], rec[1], rec[3:]
		if x == 'R' || x == 'C' {
			// the next record is the source path
			i++
		}
		tag := tagFor(x, y)
		if tag == "" || !strings.HasPrefix(rel, prefix) {
			continue
		}
		path := filepath.Join(dir, filepath.FromSlash(strings.TrimPrefix(rel, prefix)))
		snap.Tags[path] = tag
		markParents(snap.Tags, dir, path, tag)
	}
	return snap
}

func parseBranch(header string) string {
	header = strings.TrimPrefix(header, "No commits yet on ")
	header = strings.TrimPrefix(header, "Initial commit on ")
	if name, _, ok := strings.Cut(header, "..."); ok {
		return name
	}
	name, _, _ := strings.Cut(header, " ")
	return name
}

// tagFor maps the XY status pair to a tag. The work-tree column wins over
// the index column. Ignored entries get no tag.
func tagFor(x, y byte) string {
	switch {
	case x == '?' && y == '?':
		return TagUntracked
	case x == '!' && y == '!':
		return ""
	case x == 'U' || y == 'U' || (x == 'A' && y == 'A') || (x == 'D' && y == 'D'):
		return TagConflicted
	}
	if t := letterTag(y); t != "" {
		return t
	}
	return letterTag(x)
}

func letterTag(c byte) string {
	switch c {
	case 'M', 'T':
		return TagModified
	case 'A', 'C':
		return TagAdded
	case 'D':
		return TagDeleted
	case 'R':
		return TagRenamed
	}
	return ""
}

// markParents tags every directory between path and dir.
func markParents(tags map[string]string, dir, path, tag string) {
	for p := filepath.Dir(path); p != dir && strings.HasPrefix(p, dir); p = filepath.Dir(p) {
		switch existing := tags[p]; existing {
		case "":
			tags[p] = tag
		case tag, TagModified:
		default:
			tags[p] = TagModified
		}
		if parent := filepath.Dir(p); parent == p {
			return
		}
	}
}
