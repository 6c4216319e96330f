//go:build linux || darwin || freebsd || netbsd || openbsd

package fs

import (
	"os"
	"os/user"
	"strconv"
	"syscall"
	"time"
)

func ownerAndTimes(info os.FileInfo) (owner, group string, atime, ctime time.Time) {
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return "", "", time.Time{}, time.Time{}
	}
	uid := strconv.FormatUint(uint64(st.Uid), 10)
	gid := strconv.FormatUint(uint64(st.Gid), 10)
	owner, group = uid, gid
	if u, err := user.LookupId(uid); err == nil {
		owner = u.Username
	}
	if g, err := user.LookupGroupId(gid); err == nil {
		group = g.Name
	}
	atime, ctime = statTimes(st)
	return owner, group, atime, ctime
}
