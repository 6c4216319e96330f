//go:build windows

package fs

import (
	"os"
	"syscall"
)

const (
	attrHidden       = 0x02
	attrSystem       = 0x04
	attrReparsePoint = 0x0400
)

// IsHidden consults the Windows hidden attribute and falls back to the dot-file rule.
func IsHidden(path string, name string) bool {
	attrs, err := fileAttributes(path, name)
	if err != nil {
		return len(name) > 0 && name[0] == '.'
	}
	return attrs&attrHidden != 0
}

// skipAlways hides compatibility junctions even when hidden files are shown.
func skipAlways(path, name string) bool {
	attrs, err := fileAttributes(path, name)
	if err != nil {
		return false
	}
	const mask = attrSystem | attrReparsePoint
	return attrs&mask == mask
}

func fileAttributes(path, name string) (uint32, error) {
	for _, candidate := range []string{path, name} {
		if candidate == "" {
			continue
		}
		ptr, err := syscall.UTF16PtrFromString(candidate)
		if err != nil {
			continue
		}
		attrs, err := syscall.GetFileAttributes(ptr)
		if err == nil {
			return attrs, nil
		}
	}
	return 0, os.ErrNotExist
}
