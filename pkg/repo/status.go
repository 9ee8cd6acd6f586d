package repo

import (
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/odvcencio/pal/pkg/index"
	"github.com/odvcencio/pal/pkg/object"
)

// FileStatus represents the state of a file in one comparison.
type FileStatus int

const (
	StatusClean     FileStatus = iota // file matches between compared areas
	StatusNew                         // present on the newer side only
	StatusModified                    // present on both sides with different content
	StatusDeleted                     // present on the older side only
	StatusUntracked                   // in the working tree but not in the index
)

func (s FileStatus) String() string {
	switch s {
	case StatusClean:
		return "clean"
	case StatusNew:
		return "new file"
	case StatusModified:
		return "modified"
	case StatusDeleted:
		return "deleted"
	case StatusUntracked:
		return "untracked"
	}
	return fmt.Sprintf("FileStatus(%d)", int(s))
}

// StatusEntry records the status of a single file.
type StatusEntry struct {
	Path        string     // repo-relative path
	IndexStatus FileStatus // index vs HEAD tree
	WorkStatus  FileStatus // working tree vs index
}

// StatusReport is the result of Status. Entries are sorted by path and
// only carry paths that are not clean on both sides.
type StatusReport struct {
	Branch  string      // empty when HEAD is detached
	Head    object.Hash // empty before the first commit
	Entries []StatusEntry
}

// Clean reports whether nothing is staged, modified or untracked.
func (s *StatusReport) Clean() bool {
	return len(s.Entries) == 0
}

// Staged returns entries whose index state differs from HEAD.
func (s *StatusReport) Staged() []StatusEntry {
	return s.filter(func(e StatusEntry) bool {
		return e.IndexStatus != StatusClean && e.IndexStatus != StatusUntracked
	})
}

// Unstaged returns tracked entries whose working copy differs from the
// index.
func (s *StatusReport) Unstaged() []StatusEntry {
	return s.filter(func(e StatusEntry) bool {
		return e.WorkStatus == StatusModified || e.WorkStatus == StatusDeleted
	})
}

// Untracked returns entries present only in the working tree.
func (s *StatusReport) Untracked() []StatusEntry {
	return s.filter(func(e StatusEntry) bool { return e.WorkStatus == StatusUntracked })
}

func (s *StatusReport) filter(keep func(StatusEntry) bool) []StatusEntry {
	var out []StatusEntry
	for _, e := range s.Entries {
		if keep(e) {
			out = append(out, e)
		}
	}
	return out
}

// Status compares HEAD, the index and the working tree.
//
//  1. Index vs HEAD tree: new, modified and deleted paths are staged.
//  2. Index vs working tree: stat data short-circuits the content hash.
//  3. Files on disk that the index does not track and no ignore rule
//     covers are untracked.
func (r *Repo) Status() (*StatusReport, error) {
	report := &StatusReport{}
	branch, err := r.CurrentBranch()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	report.Branch = branch

	report.Head, err = r.ResolveRef("HEAD")
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	headTree, err := r.headTree()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}

	result := make(map[string]*StatusEntry)
	entry := func(p string) *StatusEntry {
		e, ok := result[p]
		if !ok {
			e = &StatusEntry{Path: p}
			result[p] = e
		}
		return e
	}

	staged, err := r.diffIndexAgainstTree(idx, headTree)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	for _, s := range staged {
		entry(s.Path).IndexStatus = s.IndexStatus
	}

	checkMode := r.fileModeTracked()
	for i := range idx.Entries {
		ie := &idx.Entries[i]
		ws, err := r.worktreeStatus(ie, checkMode)
		if err != nil {
			return nil, fmt.Errorf("status: %w", err)
		}
		if ws != StatusClean {
			entry(ie.Name).WorkStatus = ws
		}
	}

	untracked, err := r.untrackedFiles(idx)
	if err != nil {
		return nil, fmt.Errorf("status: %w", err)
	}
	for _, p := range untracked {
		e := entry(p)
		e.IndexStatus = StatusUntracked
		e.WorkStatus = StatusUntracked
	}

	paths := make([]string, 0, len(result))
	for p := range result {
		paths = append(paths, p)
	}
	sort.Strings(paths)
	for _, p := range paths {
		report.Entries = append(report.Entries, *result[p])
	}
	return report, nil
}

// headTree returns the tree of the HEAD commit, or "" before the first
// commit.
func (r *Repo) headTree() (object.Hash, error) {
	head, err := r.ResolveRef("HEAD")
	if err != nil || head == "" {
		return "", err
	}
	c, err := r.readCommit(head)
	if err != nil {
		return "", err
	}
	return c.TreeHash(), nil
}

func (r *Repo) diffIndexAgainstTree(idx *index.Index, tree object.Hash) ([]StatusEntry, error) {
	files, err := r.FlattenTreeMap(tree)
	if err != nil {
		return nil, err
	}

	var out []StatusEntry
	seen := make(map[string]struct{}, len(idx.Entries))
	for i := range idx.Entries {
		ie := &idx.Entries[i]
		seen[ie.Name] = struct{}{}
		te, ok := files[ie.Name]
		switch {
		case !ok:
			out = append(out, StatusEntry{Path: ie.Name, IndexStatus: StatusNew})
		case te.Hash != ie.Hash || te.Mode != ie.TreeMode():
			out = append(out, StatusEntry{Path: ie.Name, IndexStatus: StatusModified})
		}
	}
	for p := range files {
		if _, ok := seen[p]; !ok {
			out = append(out, StatusEntry{Path: p, IndexStatus: StatusDeleted})
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Path < out[j].Path })
	return out, nil
}

// fileModeTracked reports whether executable-bit changes count as
// modifications (core.filemode).
func (r *Repo) fileModeTracked() bool {
	cfg, err := r.ReadConfig()
	if err != nil {
		return false
	}
	v, _ := cfg.Get("core.filemode")
	return strings.EqualFold(strings.TrimSpace(v), "true")
}

// worktreeStatus compares one index entry with the file on disk. Matching
// size and mtime count as clean without reading the file.
func (r *Repo) worktreeStatus(ie *index.Entry, checkMode bool) (FileStatus, error) {
	info, err := lstatRel(r.RootDir, ie.Name)
	if err != nil {
		if os.IsNotExist(err) {
			return StatusDeleted, nil
		}
		return StatusClean, fmt.Errorf("stat %q: %w", ie.Name, err)
	}
	if info.IsDir() {
		return StatusDeleted, nil
	}

	modeType, perms := indexModeFromFileInfo(info)
	if modeType != ie.ModeType || (checkMode && perms != ie.ModePerms) {
		return StatusModified, nil
	}
	if uint32(info.Size()) == ie.Size &&
		uint32(info.ModTime().Unix()) == ie.MTime.Seconds &&
		uint32(info.ModTime().Nanosecond()) == ie.MTime.Nanoseconds {
		return StatusClean, nil
	}

	var content []byte
	absPath := filepath.Join(r.RootDir, filepath.FromSlash(ie.Name))
	if info.Mode()&os.ModeSymlink != 0 {
		target, err := os.Readlink(absPath)
		if err != nil {
			return StatusClean, fmt.Errorf("readlink %q: %w", ie.Name, err)
		}
		content = []byte(target)
	} else {
		content, err = os.ReadFile(absPath)
		if err != nil {
			return StatusClean, fmt.Errorf("read %q: %w", ie.Name, err)
		}
	}
	if object.HashObject(object.TypeBlob, content) != ie.Hash {
		return StatusModified, nil
	}
	return StatusClean, nil
}

// untrackedFiles walks the working tree for files the index does not
// track, skipping the metadata directory and ignored paths.
func (r *Repo) untrackedFiles(idx *index.Index) ([]string, error) {
	rules, err := r.ReadIgnoreRules()
	if err != nil {
		return nil, err
	}
	tracked := make(map[string]struct{}, len(idx.Entries))
	for _, e := range idx.Entries {
		tracked[e.Name] = struct{}{}
	}

	var out []string
	err = filepath.WalkDir(r.RootDir, func(p string, d fs.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		rel, err := filepath.Rel(r.RootDir, p)
		if err != nil {
			return err
		}
		rel = filepath.ToSlash(rel)
		if rel == "." {
			return nil
		}
		if d.IsDir() && d.Name() == MetaDirName {
			return fs.SkipDir
		}
		if _, ok := tracked[rel]; ok {
			return nil
		}
		if rules.IsIgnored(rel) {
			if d.IsDir() {
				return fs.SkipDir
			}
			return nil
		}
		if !d.IsDir() {
			out = append(out, rel)
		}
		return nil
	})
	if err != nil {
		return nil, fmt.Errorf("walk worktree: %w", err)
	}
	return out, nil
}

// ensureClean refuses to continue when anything tracked differs from HEAD.
// Untracked files are allowed.
func (r *Repo) ensureClean() error {
	st, err := r.Status()
	if err != nil {
		return err
	}
	for _, e := range st.Entries {
		if e.WorkStatus == StatusUntracked {
			continue
		}
		return fmt.Errorf("file %q has uncommitted changes: %w", e.Path, ErrDirtyWorktree)
	}
	return nil
}
