//go:build linux

package archive

import (
	"time"

	"golang.org/x/sys/unix"
)

// birthTime reads the entry's creation time via statx. Not every
// filesystem records a birth time; absence is reported, not an error.
func birthTime(path string) (time.Time, bool) {
	var stx unix.Statx_t
	err := unix.Statx(
		unix.AT_FDCWD,
		path,
		unix.AT_STATX_SYNC_AS_STAT|unix.AT_SYMLINK_NOFOLLOW,
		unix.STATX_BTIME,
		&stx,
	)
	if err != nil || stx.Mask&unix.STATX_BTIME == 0 {
		return time.Time{}, false
	}
	return time.Unix(stx.Btime.Sec, int64(stx.Btime.Nsec)), true
}
