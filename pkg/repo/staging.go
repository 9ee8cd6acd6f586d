package repo

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/odvcencio/pal/pkg/index"
	"github.com/odvcencio/pal/pkg/logging"
)

// ErrOutsideRepository is returned for a path that resolves outside the
// worktree.
var ErrOutsideRepository = errors.New("path is outside the repository")

// ErrNotStaged is returned by Remove for a path the index does not track.
var ErrNotStaged = errors.New("path is not in the index")

// IndexPath returns the filesystem path of the index file.
func (r *Repo) IndexPath() string {
	return filepath.Join(r.PalDir, "index")
}

// ReadIndex loads .pal/index. A missing file yields an empty index. A
// partially readable index is returned with Truncated set and a warning.
func (r *Repo) ReadIndex() (*index.Index, error) {
	idx, err := index.ReadFile(r.IndexPath())
	if err != nil {
		return nil, fmt.Errorf("read index: %w", err)
	}
	if idx.Truncated {
		r.log.WithField("entries", len(idx.Entries)).Warn("index truncated; keeping readable entries")
	}
	return idx, nil
}

// WriteIndex atomically replaces .pal/index.
func (r *Repo) WriteIndex(idx *index.Index) error {
	if err := idx.WriteFile(r.IndexPath()); err != nil {
		return fmt.Errorf("write index: %w", err)
	}
	return nil
}

// Add stages the given paths. Directories are expanded recursively and
// ignored paths are skipped. For each file the content is written as a
// blob and an index entry carrying its stat metadata replaces any existing
// entry for the same path.
func (r *Repo) Add(paths []string) error {
	idx, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}
	rules, err := r.ReadIgnoreRules()
	if err != nil {
		return fmt.Errorf("add: %w", err)
	}

	for _, p := range paths {
		relPath, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("add: resolve path %q: %w", p, err)
		}
		absPath := filepath.Join(r.RootDir, filepath.FromSlash(relPath))
		info, err := os.Lstat(absPath)
		if err != nil {
			return fmt.Errorf("add: stat %q: %w", relPath, err)
		}

		if !info.IsDir() {
			if relPath != "." && rules.IsIgnored(relPath) {
				r.log.WithField(logging.PathFieldKey, relPath).Warn("skipping ignored file")
				continue
			}
			if err := r.stageFile(idx, relPath, absPath, info); err != nil {
				return fmt.Errorf("add: %w", err)
			}
			continue
		}

		err = filepath.WalkDir(absPath, func(fp string, d fs.DirEntry, walkErr error) error {
			if walkErr != nil {
				return walkErr
			}
			rel, err := filepath.Rel(r.RootDir, fp)
			if err != nil {
				return err
			}
			rel = filepath.ToSlash(rel)
			if rel == "." {
				return nil
			}
			if d.IsDir() && d.Name() == MetaDirName {
				return filepath.SkipDir
			}
			if rules.IsIgnored(rel) {
				if d.IsDir() {
					return filepath.SkipDir
				}
				return nil
			}
			if d.IsDir() {
				return nil
			}
			fi, err := d.Info()
			if err != nil {
				return err
			}
			return r.stageFile(idx, rel, fp, fi)
		})
		if err != nil {
			return fmt.Errorf("add: walk %q: %w", relPath, err)
		}
	}

	if err := r.WriteIndex(idx); err != nil {
		return fmt.Errorf("add: %w", err)
	}
	return nil
}

// stageFile writes the blob for one worktree file and records it in idx.
// Symlinks are stored as a blob holding the link target.
func (r *Repo) stageFile(idx *index.Index, relPath, absPath string, info os.FileInfo) error {
	var content []byte
	var err error
	if info.Mode()&os.ModeSymlink != 0 {
		var target string
		target, err = os.Readlink(absPath)
		content = []byte(target)
	} else {
		content, err = os.ReadFile(absPath)
	}
	if err != nil {
		return fmt.Errorf("read %q: %w", relPath, err)
	}

	blobHash, err := r.Store.WriteBlob(content)
	if err != nil {
		return fmt.Errorf("write blob %q: %w", relPath, err)
	}

	e := index.Entry{Hash: blobHash, Name: relPath}
	e.ModeType, e.ModePerms = indexModeFromFileInfo(info)
	fillStat(&e, info)
	idx.Put(e)

	r.log.WithFields(logging.Fields{
		logging.PathFieldKey: relPath,
		logging.HashFieldKey: blobHash,
	}).Debug("staged file")
	return nil
}

// Remove unstages paths. With deleteFiles the worktree files are removed
// too. Every path must be tracked; nothing is changed otherwise.
func (r *Repo) Remove(paths []string, deleteFiles bool) error {
	idx, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("remove: %w", err)
	}

	rels := make([]string, 0, len(paths))
	for _, p := range paths {
		rel, err := r.repoRelPath(p)
		if err != nil {
			return fmt.Errorf("remove: resolve path %q: %w", p, err)
		}
		if _, ok := idx.Find(rel); !ok {
			return fmt.Errorf("remove %q: %w", rel, ErrNotStaged)
		}
		rels = append(rels, rel)
	}

	for _, rel := range rels {
		idx.Remove(rel)
		if !deleteFiles {
			continue
		}
		abs := filepath.Join(r.RootDir, filepath.FromSlash(rel))
		if err := os.Remove(abs); err != nil && !errors.Is(err, os.ErrNotExist) {
			return fmt.Errorf("remove %q: %w", rel, err)
		}
		r.removeEmptyParents(filepath.Dir(abs))
	}

	if err := r.WriteIndex(idx); err != nil {
		return fmt.Errorf("remove: %w", err)
	}
	return nil
}

// ListFiles returns the index entries in path order.
func (r *Repo) ListFiles() ([]index.Entry, error) {
	idx, err := r.ReadIndex()
	if err != nil {
		return nil, err
	}
	return idx.Entries, nil
}

func toTimestamp(sec, nsec int64) index.Timestamp {
	return index.Timestamp{Seconds: uint32(sec), Nanoseconds: uint32(nsec)}
}

// repoRelPath converts a path (absolute, or relative to the CWD) into a
// slash path relative to the repository root. A relative path that does
// not resolve inside the root from the CWD is taken as repo-relative.
func (r *Repo) repoRelPath(p string) (string, error) {
	if filepath.IsAbs(p) {
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return "", fmt.Errorf("cannot make %q relative to %q: %w", p, r.RootDir, err)
		}
		if escapesRoot(rel) {
			return "", fmt.Errorf("%q: %w", p, ErrOutsideRepository)
		}
		return filepath.ToSlash(rel), nil
	}

	cleaned := filepath.Clean(p)
	if escapesRoot(cleaned) {
		return "", fmt.Errorf("%q: %w", p, ErrOutsideRepository)
	}

	cwd, err := os.Getwd()
	if err != nil {
		return filepath.ToSlash(cleaned), nil
	}
	rel, err := filepath.Rel(r.RootDir, filepath.Join(cwd, p))
	if err != nil || escapesRoot(rel) {
		return filepath.ToSlash(cleaned), nil
	}
	return filepath.ToSlash(rel), nil
}

func escapesRoot(rel string) bool {
	return rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator))
}
