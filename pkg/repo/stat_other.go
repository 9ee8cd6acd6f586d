//go:build !linux

package repo

import (
	"os"

	"github.com/odvcencio/pal/pkg/index"
)

func fillStat(e *index.Entry, info os.FileInfo) {
	e.MTime = toTimestamp(info.ModTime().Unix(), int64(info.ModTime().Nanosecond()))
	e.CTime = e.MTime
	e.Size = uint32(info.Size())
}
