package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"
	"syscall"

	"github.com/odvcencio/pal/pkg/object"
)

func lstatRel(root, rel string) (os.FileInfo, error) {
	return os.Lstat(filepath.Join(root, filepath.FromSlash(rel)))
}

// writeWorktreeFile materializes one tree entry under root.
func (r *Repo) writeWorktreeFile(root string, f TreeFileEntry) error {
	absPath := filepath.Join(root, filepath.FromSlash(f.Path))
	if err := os.MkdirAll(filepath.Dir(absPath), 0o755); err != nil {
		return fmt.Errorf("mkdir for %q: %w", f.Path, err)
	}
	blob, err := r.Store.ReadBlob(f.Hash)
	if err != nil {
		return fmt.Errorf("read blob for %q: %w", f.Path, err)
	}

	if err := os.Remove(absPath); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("replace %q: %w", f.Path, err)
	}
	if normalizeFileMode(f.Mode) == object.TreeModeSymlink {
		if err := os.Symlink(string(blob.Data), absPath); err != nil {
			return fmt.Errorf("symlink %q: %w", f.Path, err)
		}
		return nil
	}
	perm := filePermFromMode(f.Mode)
	if err := os.WriteFile(absPath, blob.Data, perm); err != nil {
		return fmt.Errorf("write %q: %w", f.Path, err)
	}
	// WriteFile's perm is filtered by the umask
	if err := os.Chmod(absPath, perm); err != nil {
		return fmt.Errorf("chmod %q: %w", f.Path, err)
	}
	return nil
}

// worktreeSync is a checked move of the working tree and index from one
// snapshot to another. Nothing on disk changes until apply.
type worktreeSync struct {
	from map[string]TreeFileEntry
	to   []TreeFileEntry
}

// planWorktreeSync prepares the move from fromTree to toTree. A path that
// only the target tracks must not already exist on disk, and none of its
// parents may exist as anything but a directory unless the move removes
// them; otherwise ErrDirtyWorktree is returned and nothing is touched.
func (r *Repo) planWorktreeSync(fromTree, toTree object.Hash) (*worktreeSync, error) {
	from, err := r.FlattenTreeMap(fromTree)
	if err != nil {
		return nil, err
	}
	to, err := r.FlattenTree(toTree)
	if err != nil {
		return nil, err
	}
	plan := &worktreeSync{from: from, to: to}
	if err := plan.checkCollisions(r.RootDir); err != nil {
		return nil, err
	}
	return plan, nil
}

func (s *worktreeSync) checkCollisions(root string) error {
	for _, e := range s.to {
		if _, tracked := s.from[e.Path]; tracked {
			continue
		}
		info, err := lstatRel(root, e.Path)
		switch {
		case err == nil && (!info.IsDir() || !s.coversDir(root, e.Path)):
			return fmt.Errorf("untracked %q would be overwritten: %w", e.Path, ErrDirtyWorktree)
		case err != nil && !errors.Is(err, os.ErrNotExist) && !isNotDirErr(err):
			return fmt.Errorf("stat %q: %w", e.Path, err)
		}
		for dir := path.Dir(e.Path); dir != "."; dir = path.Dir(dir) {
			if _, tracked := s.from[dir]; tracked {
				break
			}
			info, err := lstatRel(root, dir)
			if err != nil {
				continue
			}
			if !info.IsDir() {
				return fmt.Errorf("untracked %q would be overwritten: %w", dir, ErrDirtyWorktree)
			}
		}
	}
	return nil
}

// coversDir reports whether every file under dir is tracked by the source
// snapshot, so the move empties it before writing there.
func (s *worktreeSync) coversDir(root, dir string) bool {
	covered := true
	_ = filepath.WalkDir(filepath.Join(root, filepath.FromSlash(dir)), func(p string, d fs.DirEntry, err error) error {
		if err != nil {
			covered = false
			return err
		}
		if d.IsDir() {
			return nil
		}
		rel, err := filepath.Rel(root, p)
		if err != nil {
			covered = false
			return err
		}
		if _, ok := s.from[filepath.ToSlash(rel)]; !ok {
			covered = false
			return fs.SkipAll
		}
		return nil
	})
	return covered
}

// apply removes the paths the target drops, writes the ones that differ
// and replaces the index.
func (s *worktreeSync) apply(r *Repo) error {
	to := make(map[string]TreeFileEntry, len(s.to))
	for _, e := range s.to {
		to[e.Path] = e
	}

	for p := range s.from {
		if _, keep := to[p]; keep {
			continue
		}
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(p))
		if err := os.Remove(absPath); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %q: %w", p, err)
		}
		r.removeEmptyParents(filepath.Dir(absPath))
	}
	for _, e := range s.to {
		if old, ok := s.from[e.Path]; ok && old == e {
			if _, err := lstatRel(r.RootDir, e.Path); err == nil {
				continue
			}
		}
		if err := r.writeWorktreeFile(r.RootDir, e); err != nil {
			return err
		}
	}
	return r.WriteIndex(r.indexFromTree(s.to))
}

// syncWorktree moves the working tree and index from the snapshot in
// fromTree to the one in toTree. Only paths that differ are touched.
func (r *Repo) syncWorktree(fromTree, toTree object.Hash) error {
	plan, err := r.planWorktreeSync(fromTree, toTree)
	if err != nil {
		return fmt.Errorf("sync worktree: %w", err)
	}
	if err := plan.apply(r); err != nil {
		return fmt.Errorf("sync worktree: %w", err)
	}
	return nil
}

// restoreWorktree forces the working tree and index back to tree after a
// failed sync from partial. Paths partial added are removed.
func (r *Repo) restoreWorktree(partial, tree object.Hash) error {
	from, err := r.FlattenTreeMap(partial)
	if err != nil {
		return err
	}
	to, err := r.FlattenTree(tree)
	if err != nil {
		return err
	}
	for i := range to {
		delete(from, to[i].Path)
	}
	// everything in the target is rewritten; stale paths from partial go
	plan := &worktreeSync{from: from, to: to}
	return plan.apply(r)
}

func isNotDirErr(err error) bool {
	return errors.Is(err, syscall.ENOTDIR)
}

// removeEmptyParents removes empty directories up to (but not including)
// the repository root.
func (r *Repo) removeEmptyParents(dir string) {
	for {
		if dir == r.RootDir || !strings.HasPrefix(dir, r.RootDir+string(filepath.Separator)) {
			return
		}
		entries, err := os.ReadDir(dir)
		if err != nil || len(entries) > 0 {
			return
		}
		os.Remove(dir)
		dir = filepath.Dir(dir)
	}
}
