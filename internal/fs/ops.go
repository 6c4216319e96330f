package fs

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
	"syscall"
)

// UniqueDestPath returns dest if it is free, otherwise the first free
// "name_copy.ext", "name_copy2.ext", ... sibling.
func UniqueDestPath(dest string) string {
	if !exists(dest) {
		return dest
	}
	dir := filepath.Dir(dest)
	base := filepath.Base(dest)
	ext := filepath.Ext(base)
	stem := strings.TrimSuffix(base, ext)
	if stem == "" {
		// dot-files like ".bashrc" have no stem
		stem, ext = base, ""
	}

	candidate := filepath.Join(dir, stem+"_copy"+ext)
	for n := 2; exists(candidate); n++ {
		candidate = filepath.Join(dir, fmt.Sprintf("%s_copy%d%s", stem, n, ext))
	}
	return candidate
}

func exists(path string) bool {
	_, err := os.Lstat(path)
	return err == nil
}

// CopyPath copies a file, symlink or directory tree to dest.
func CopyPath(src, dest string) error {
	info, err := os.Lstat(src)
	if err != nil {
		return WrapIO("copy", src, err)
	}
	switch {
	case info.Mode()&os.ModeSymlink != 0:
		target, err := os.Readlink(src)
		if err != nil {
			return WrapIO("copy", src, err)
		}
		return WrapIO("copy", dest, os.Symlink(target, dest))
	case info.IsDir():
		return copyDir(src, dest, info.Mode().Perm())
	default:
		return copyFile(src, dest, info.Mode().Perm())
	}
}

func copyDir(src, dest string, perm os.FileMode) error {
	if err := os.MkdirAll(dest, perm|0o700); err != nil {
		return WrapIO("copy", dest, err)
	}
	children, err := os.ReadDir(src)
	if err != nil {
		return WrapIO("copy", src, err)
	}
	for _, child := range children {
		if err := CopyPath(filepath.Join(src, child.Name()), filepath.Join(dest, child.Name())); err != nil {
			return err
		}
	}
	return nil
}

func copyFile(src, dest string, perm os.FileMode) error {
	in, err := os.Open(src)
	if err != nil {
		return WrapIO("copy", src, err)
	}
	defer func() {
		_ = in.Close()
	}()

	out, err := os.OpenFile(dest, os.O_WRONLY|os.O_CREATE|os.O_EXCL, perm)
	if err != nil {
		return WrapIO("copy", dest, err)
	}
	if _, err := io.Copy(out, in); err != nil {
		_ = out.Close()
		return WrapIO("copy", dest, err)
	}
	return WrapIO("copy", dest, out.Close())
}

// MovePath renames src to dest, falling back to copy and remove across devices.
func MovePath(src, dest string) error {
	if err := os.Rename(src, dest); err == nil {
		return nil
	} else if !isCrossDevice(err) {
		return WrapIO("move", src, err)
	}
	if err := CopyPath(src, dest); err != nil {
		return err
	}
	return WrapIO("move", src, os.RemoveAll(src))
}

// Remove deletes a file or a whole directory tree.
func Remove(path string) error {
	if _, err := os.Lstat(path); err != nil {
		return WrapIO("delete", path, err)
	}
	return WrapIO("delete", path, os.RemoveAll(path))
}

// Rename renames path to newName within the same directory and returns the
// new path. An existing target is rejected.
func Rename(path, newName string) (string, error) {
	if err := validName(newName); err != nil {
		return "", err
	}
	dest := filepath.Join(filepath.Dir(path), newName)
	if dest == path {
		return path, nil
	}
	if exists(dest) {
		return "", NewError(KindIO, "rename", dest, os.ErrExist)
	}
	if err := os.Rename(path, dest); err != nil {
		return "", WrapIO("rename", path, err)
	}
	return dest, nil
}

// CreateFile creates an empty file named name inside dir.
func CreateFile(dir, name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", WrapIO("create", path, err)
	}
	return path, WrapIO("create", path, f.Close())
}

// CreateDir creates a directory named name inside dir.
func CreateDir(dir, name string) (string, error) {
	if err := validName(name); err != nil {
		return "", err
	}
	path := filepath.Join(dir, name)
	if err := os.Mkdir(path, 0o755); err != nil {
		return "", WrapIO("mkdir", path, err)
	}
	return path, nil
}

func validName(name string) error {
	trimmed := strings.TrimSpace(name)
	if trimmed == "" || trimmed == "." || trimmed == ".." || strings.ContainsRune(name, filepath.Separator) {
		return NewError(KindIO, "name", name, os.ErrInvalid)
	}
	return nil
}

// Chmod applies mode to path. When recursive is set, children are changed
// before their parent so a mode without x does not block the walk.
// File-type bits in mode are ignored.
func Chmod(path string, mode os.FileMode, recursive bool) error {
	perm := mode & (os.ModePerm | os.ModeSetuid | os.ModeSetgid | os.ModeSticky)
	if recursive {
		info, err := os.Lstat(path)
		if err != nil {
			return WrapIO("chmod", path, err)
		}
		if info.IsDir() {
			children, err := os.ReadDir(path)
			if err != nil {
				return WrapIO("chmod", path, err)
			}
			for _, child := range children {
				if child.Type()&os.ModeSymlink != 0 {
					continue
				}
				if err := Chmod(filepath.Join(path, child.Name()), perm, true); err != nil {
					return err
				}
			}
		}
	}
	return WrapIO("chmod", path, os.Chmod(path, perm))
}

func isCrossDevice(err error) bool {
	return errors.Is(err, syscall.EXDEV)
}
