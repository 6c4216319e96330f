package vcs

import (
	"context"
	"errors"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// scriptedRunner answers git subcommands from a table.
func scriptedRunner(outputs map[string]string) Runner {
	return func(_ context.Context, _ string, args ...string) ([]byte, error) {
		out, ok := outputs[args[0]]
		if !ok {
			return nil, errors.New("exit status 128")
		}
		return []byte(out), nil
	}
}

func porcelain(records ...string) string {
	return strings.Join(records, "\x00") + "\x00"
}

func TestStatusTagsFilesAndParents(t *testing.T) {
	dir := filepath.FromSlash("/repo/sub")
	p := NewProvider(scriptedRunner(map[string]string{
		"rev-parse": "true\nsub/\n",
		"status": porcelain(
			"## main...origin/main [ahead 1]",
			" M sub/a.go",
			"?? sub/new/x.txt",
			"A  sub/new/y.txt",
			"R  sub/b.go",
			"sub/old.go",
			"UU sub/c.go",
			" M top.go",
			"!! sub/ignored.log",
		),
	}), nil)

	snap, err := p.Status(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, "main", snap.Branch)

	want := map[string]string{
		filepath.Join(dir, "a.go"):          TagModified,
		filepath.Join(dir, "new", "x.txt"): TagUntracked,
		filepath.Join(dir, "new", "y.txt"): TagAdded,
		filepath.Join(dir, "new"):          TagModified,
		filepath.Join(dir, "b.go"):          TagRenamed,
		filepath.Join(dir, "c.go"):          TagConflicted,
	}
	assert.Equal(t, want, snap.Tags)
}

func TestStatusOutsideRepository(t *testing.T) {
	p := NewProvider(scriptedRunner(map[string]string{}), nil)
	_, err := p.Status(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}

func TestStatusHonoursCancellation(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	p := NewProvider(func(ctx context.Context, _ string, _ ...string) ([]byte, error) {
		return nil, ctx.Err()
	}, nil)
	_, err := p.Status(ctx, "/repo")
	assert.ErrorIs(t, err, context.Canceled)
}

func TestParseBranch(t *testing.T) {
	cases := map[string]string{
		"main":                          "main",
		"main...origin/main [behind 2]": "main",
		"No commits yet on trunk":       "trunk",
		"HEAD (no branch)":              "HEAD",
	}
	for in, want := range cases {
		assert.Equal(t, want, parseBranch(in), in)
	}
}

func TestTagFor(t *testing.T) {
	cases := []struct {
		xy   string
		want string
	}{
		{"??", TagUntracked},
		{"!!", ""},
		{"AA", TagConflicted},
		{"DU", TagConflicted},
		{"MM", TagModified},
		{"A ", TagAdded},
		{"AM", TagModified},
		{" D", TagDeleted},
		{"R ", TagRenamed},
		{" T", TagModified},
	}
	for _, tc := range cases {
		assert.Equal(t, tc.want, tagFor(tc.xy[0], tc.xy[1]), tc.xy)
	}
}

func TestStatusWithGitBinary(t *testing.T) {
	if _, err := exec.LookPath("git"); err != nil {
		t.Skip("git not installed")
	}
	dir := t.TempDir()
	out, err := exec.Command("git", "init", "-q", dir).CombinedOutput()
	require.NoError(t, err, string(out))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "hello.txt"), []byte("hi"), 0o644))

	snap, err := NewProvider(nil, nil).Status(context.Background(), dir)
	require.NoError(t, err)
	assert.Equal(t, TagUntracked, snap.Tags[filepath.Join(dir, "hello.txt")])

	_, err = NewProvider(nil, nil).Status(context.Background(), t.TempDir())
	assert.ErrorIs(t, err, ErrNotRepository)
}
