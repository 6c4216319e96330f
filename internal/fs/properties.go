package fs

import (
	"fmt"
	"net/http"
	"os"
	"time"
)

// Properties is the detail shown by the properties overlay.
type Properties struct {
	Path          string
	Kind          string
	Size          int64
	SizeHuman     string
	Mode          os.FileMode
	Octal         string
	Owner         string
	Group         string
	Modified      time.Time
	Accessed      time.Time
	Changed       time.Time
	ContentType   string
	SymlinkTarget string
	IsDir         bool
	// Partial is set when the directory walk hit DirSizeLimit entries.
	Partial bool
}

// DirSizeLimit caps the number of entries counted for a directory size.
const DirSizeLimit = 10000

// ReadProperties gathers metadata for path. Symlinks report their target's
// metadata plus the link text.
func ReadProperties(path string) (Properties, error) {
	linfo, err := os.Lstat(path)
	if err != nil {
		return Properties{}, WrapIO("properties", path, err)
	}
	info := linfo
	p := Properties{Path: path}
	if linfo.Mode()&os.ModeSymlink != 0 {
		p.SymlinkTarget, _ = os.Readlink(path)
		if target, err := os.Stat(path); err == nil {
			info = target
		}
	}

	p.IsDir = info.IsDir()
	p.Mode = info.Mode()
	p.Octal = fmt.Sprintf("%04o", OctalPerm(info.Mode()))
	p.Modified = info.ModTime()
	p.Kind = kindLabel(linfo.Mode())
	p.Owner, p.Group, p.Accessed, p.Changed = ownerAndTimes(info)

	if p.IsDir {
		p.Size, p.Partial = dirSize(path, DirSizeLimit)
	} else {
		p.Size = info.Size()
		if head, err := ReadHead(path, 512); err == nil && len(head) > 0 {
			p.ContentType = http.DetectContentType(head)
		}
	}
	p.SizeHuman = HumanSize(p.Size)
	return p, nil
}

func kindLabel(mode os.FileMode) string {
	switch {
	case mode&os.ModeSymlink != 0:
		return "symlink"
	case mode.IsDir():
		return "directory"
	case mode&os.ModeNamedPipe != 0:
		return "fifo"
	case mode&os.ModeSocket != 0:
		return "socket"
	case mode&os.ModeDevice != 0:
		return "device"
	default:
		return "file"
	}
}

func dirSize(root string, limit int) (int64, bool) {
	var total int64
	seen := 0
	stack := []string{root}
	for len(stack) > 0 {
		dir := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		children, err := os.ReadDir(dir)
		if err != nil {
			continue
		}
		for _, c := range children {
			seen++
			if seen > limit {
				return total, true
			}
			if c.IsDir() {
				stack = append(stack, dir+string(os.PathSeparator)+c.Name())
				continue
			}
			if info, err := c.Info(); err == nil {
				total += info.Size()
			}
		}
	}
	return total, false
}

// OctalPerm converts a FileMode to its classic 12-bit octal form.
func OctalPerm(mode os.FileMode) uint32 {
	out := uint32(mode.Perm())
	if mode&os.ModeSetuid != 0 {
		out |= 0o4000
	}
	if mode&os.ModeSetgid != 0 {
		out |= 0o2000
	}
	if mode&os.ModeSticky != 0 {
		out |= 0o1000
	}
	return out
}

// ModeFromOctal is the inverse of OctalPerm.
func ModeFromOctal(octal uint32) os.FileMode {
	mode := os.FileMode(octal & 0o777)
	if octal&0o4000 != 0 {
		mode |= os.ModeSetuid
	}
	if octal&0o2000 != 0 {
		mode |= os.ModeSetgid
	}
	if octal&0o1000 != 0 {
		mode |= os.ModeSticky
	}
	return mode
}

// HumanSize formats a byte count with binary units.
func HumanSize(n int64) string {
	const unit = 1024
	if n < unit {
		return fmt.Sprintf("%d B", n)
	}
	div, exp := int64(unit), 0
	for m := n / unit; m >= unit && exp < 3; m /= unit {
		div *= unit
		exp++
	}
	return fmt.Sprintf("%.1f %cB", float64(n)/float64(div), "KMGT"[exp])
}
