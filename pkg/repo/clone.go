package repo

import (
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/pal/pkg/logging"
)

// Clone copies the repository found at src into a new worktree at dst,
// checks out HEAD there and records src as remote.origin.url. Index,
// logs and lock files are not copied; the index is rebuilt from HEAD.
func Clone(src, dst string) (*Repo, error) {
	source, err := Open(src)
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	abs, err := filepath.Abs(dst)
	if err != nil {
		return nil, fmt.Errorf("clone: abs path: %w", err)
	}
	if entries, err := os.ReadDir(abs); err == nil && len(entries) > 0 {
		return nil, fmt.Errorf("clone: %s: %w", abs, ErrDirectoryNotEmpty)
	} else if err != nil && !errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("clone: %w", err)
	}

	palDir := filepath.Join(abs, MetaDirName)
	if err := copyMetaDir(source.PalDir, palDir); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	if err := os.MkdirAll(filepath.Join(palDir, "logs", "refs", "heads"), 0o755); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}

	r := newRepo(abs, palDir)
	r.SetLogger(source.log)
	if err := r.SetConfigValue("remote.origin.url", source.RootDir); err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}

	headTree, err := r.headTree()
	if err != nil {
		return nil, fmt.Errorf("clone: %w", err)
	}
	if headTree != "" {
		if err := r.syncWorktree("", headTree); err != nil {
			return nil, fmt.Errorf("clone: %w", err)
		}
	}
	r.log.WithFields(logging.Fields{"src": source.RootDir, "dst": abs}).Info("cloned repository")
	return r, nil
}

// copyMetaDir copies a metadata directory, skipping the index, reflogs and
// lock files.
func copyMetaDir(src, dst string) error {
	return filepath.WalkDir(src, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(src, p)
		if err != nil {
			return err
		}
		if rel == "index" || strings.HasSuffix(rel, ".lock") {
			return nil
		}
		if d.IsDir() && rel == "logs" {
			return filepath.SkipDir
		}
		target := filepath.Join(dst, rel)
		if d.IsDir() {
			return os.MkdirAll(target, 0o755)
		}
		return copyFile(p, target)
	})
}

func copyFile(src, dst string) error {
	in, err := os.Open(src)
	if err != nil {
		return err
	}
	defer in.Close()

	out, err := os.OpenFile(dst, os.O_CREATE|os.O_EXCL|os.O_WRONLY, 0o644)
	if err != nil {
		return err
	}
	if _, err := io.Copy(out, in); err != nil {
		out.Close()
		return err
	}
	return out.Close()
}
