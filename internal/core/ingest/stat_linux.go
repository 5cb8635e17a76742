//go:build linux

package ingest

import (
	"os"
	"syscall"
	"time"
)

// createdAt reports the inode change time, the closest thing to a creation
// timestamp stat exposes on Linux. Falls back to the modification time.
func createdAt(info os.FileInfo) time.Time {
	if st, ok := info.Sys().(*syscall.Stat_t); ok {
		return time.Unix(st.Ctim.Sec, st.Ctim.Nsec)
	}
	return info.ModTime()
}
