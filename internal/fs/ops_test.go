package fs

import (
	"errors"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
}

func TestUniqueDestPath(t *testing.T) {
	dir := t.TempDir()
	dest := filepath.Join(dir, "foo.txt")

	assert.Equal(t, dest, UniqueDestPath(dest))

	writeFile(t, dest, "")
	assert.Equal(t, filepath.Join(dir, "foo_copy.txt"), UniqueDestPath(dest))

	writeFile(t, filepath.Join(dir, "foo_copy.txt"), "")
	assert.Equal(t, filepath.Join(dir, "foo_copy2.txt"), UniqueDestPath(dest))

	writeFile(t, filepath.Join(dir, "foo_copy2.txt"), "")
	assert.Equal(t, filepath.Join(dir, "foo_copy3.txt"), UniqueDestPath(dest))
}

func TestUniqueDestPathWithoutExtension(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "Makefile"), "")
	writeFile(t, filepath.Join(dir, ".env"), "")

	assert.Equal(t, filepath.Join(dir, "Makefile_copy"), UniqueDestPath(filepath.Join(dir, "Makefile")))
	assert.Equal(t, filepath.Join(dir, ".env_copy"), UniqueDestPath(filepath.Join(dir, ".env")))
}

func TestCopyPathRecursesDirectories(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "src")
	writeFile(t, filepath.Join(src, "a.txt"), "aaa")
	writeFile(t, filepath.Join(src, "sub", "b.txt"), "bbb")

	dst := filepath.Join(dir, "dst")
	require.NoError(t, CopyPath(src, dst))

	got, err := os.ReadFile(filepath.Join(dst, "sub", "b.txt"))
	require.NoError(t, err)
	assert.Equal(t, "bbb", string(got))
	assert.FileExists(t, filepath.Join(src, "a.txt"))
}

func TestCopyPathRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")

	err := CopyPath(filepath.Join(dir, "a.txt"), filepath.Join(dir, "b.txt"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrIO))
}

func TestMovePath(t *testing.T) {
	dir := t.TempDir()
	src := filepath.Join(dir, "a.txt")
	writeFile(t, src, "hello")
	require.NoError(t, os.Mkdir(filepath.Join(dir, "target"), 0o755))

	dest := filepath.Join(dir, "target", "a.txt")
	require.NoError(t, MovePath(src, dest))

	assert.NoFileExists(t, src)
	assert.FileExists(t, dest)
}

func TestRemoveMissingIsNotFound(t *testing.T) {
	err := Remove(filepath.Join(t.TempDir(), "missing"))
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrNotFound))
	assert.True(t, errors.Is(err, ErrIO))
}

func TestRenameRejectsExistingTarget(t *testing.T) {
	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "a.txt"), "a")
	writeFile(t, filepath.Join(dir, "b.txt"), "b")

	_, err := Rename(filepath.Join(dir, "a.txt"), "b.txt")
	require.Error(t, err)
	assert.FileExists(t, filepath.Join(dir, "a.txt"))

	newPath, err := Rename(filepath.Join(dir, "a.txt"), "c.txt")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(dir, "c.txt"), newPath)
}

func TestCreateRejectsEmptyAndNestedNames(t *testing.T) {
	dir := t.TempDir()
	for _, name := range []string{"", "   ", "..", "a" + string(filepath.Separator) + "b"} {
		_, err := CreateFile(dir, name)
		assert.Error(t, err, "name %q", name)
	}

	path, err := CreateDir(dir, "fresh")
	require.NoError(t, err)
	assert.DirExists(t, path)

	_, err = CreateDir(dir, "fresh")
	assert.Error(t, err)
}

func TestChmodRecursive(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("unix permissions")
	}
	dir := t.TempDir()
	root := filepath.Join(dir, "tree")
	writeFile(t, filepath.Join(root, "sub", "f.txt"), "x")

	require.NoError(t, Chmod(root, 0o700, true))

	info, err := os.Stat(filepath.Join(root, "sub", "f.txt"))
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o700), info.Mode().Perm())
}

func TestOctalRoundTrip(t *testing.T) {
	for _, octal := range []uint32{0o644, 0o755, 0o4755, 0o1777, 0o2750} {
		assert.Equal(t, octal, OctalPerm(ModeFromOctal(octal)))
	}
}

func TestHumanSize(t *testing.T) {
	assert.Equal(t, "512 B", HumanSize(512))
	assert.Equal(t, "1.5 KB", HumanSize(1536))
	assert.Equal(t, "5.0 MB", HumanSize(5*1024*1024))
}
