//go:build !linux

package archive

import "time"

// birthTime reports creation time as unavailable on platforms without a
// statx equivalent wired up.
func birthTime(string) (time.Time, bool) {
	return time.Time{}, false
}
