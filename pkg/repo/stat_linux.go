//go:build linux

package repo

import (
	"os"
	"syscall"

	"github.com/odvcencio/pal/pkg/index"
)

// fillStat copies the platform stat fields of info into e.
func fillStat(e *index.Entry, info os.FileInfo) {
	e.MTime = toTimestamp(info.ModTime().Unix(), int64(info.ModTime().Nanosecond()))
	e.CTime = e.MTime
	e.Size = uint32(info.Size())
	st, ok := info.Sys().(*syscall.Stat_t)
	if !ok {
		return
	}
	e.CTime = toTimestamp(int64(st.Ctim.Sec), int64(st.Ctim.Nsec))
	e.Dev = uint32(st.Dev)
	e.Ino = uint32(st.Ino)
	e.UID = st.Uid
	e.GID = st.Gid
}
