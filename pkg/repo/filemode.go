package repo

import (
	"os"

	"github.com/odvcencio/pal/pkg/index"
	"github.com/odvcencio/pal/pkg/object"
)

// indexModeFromFileInfo maps a worktree file to the index mode type and
// permission bits. Only the executable bit survives for regular files.
func indexModeFromFileInfo(info os.FileInfo) (modeType, perms uint32) {
	if info.Mode()&os.ModeSymlink != 0 {
		return index.ModeTypeSymlink, 0
	}
	if info.Mode()&0o111 != 0 {
		return index.ModeTypeRegular, 0o755
	}
	return index.ModeTypeRegular, 0o644
}

func normalizeFileMode(mode string) string {
	switch mode {
	case object.TreeModeExecutable, object.TreeModeSymlink:
		return mode
	}
	return object.TreeModeFile
}

func filePermFromMode(mode string) os.FileMode {
	if normalizeFileMode(mode) == object.TreeModeExecutable {
		return 0o755
	}
	return 0o644
}

// indexModeFromTreeMode is the inverse of index.Entry.TreeMode for the
// modes a worktree can hold.
func indexModeFromTreeMode(mode string) (modeType, perms uint32) {
	switch normalizeFileMode(mode) {
	case object.TreeModeSymlink:
		return index.ModeTypeSymlink, 0
	case object.TreeModeExecutable:
		return index.ModeTypeRegular, 0o755
	}
	return index.ModeTypeRegular, 0o644
}
