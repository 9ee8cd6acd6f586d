package repo

import (
	"fmt"
	"path"
	"sort"
	"strings"

	"github.com/odvcencio/pal/pkg/index"
	"github.com/odvcencio/pal/pkg/logging"
	"github.com/odvcencio/pal/pkg/object"
)

// maxTreeDepth bounds how deeply FlattenTree descends.
const maxTreeDepth = 256

// TreeFileEntry represents a single file in a flattened tree.
type TreeFileEntry struct {
	Path string
	Mode string
	Hash object.Hash
}

// BuildTreeFromIndex writes the tree objects described by the index and
// returns the root tree hash.
func (r *Repo) BuildTreeFromIndex(idx *index.Index) (object.Hash, error) {
	files := make([]TreeFileEntry, 0, len(idx.Entries))
	for i := range idx.Entries {
		e := &idx.Entries[i]
		files = append(files, TreeFileEntry{Path: e.Name, Mode: e.TreeMode(), Hash: e.Hash})
	}
	return r.BuildTree(files)
}

// BuildTree converts flat slash paths into a tree hierarchy. Directories
// are written deepest first so every parent sees its children's hashes.
// The root tree is always written, even when empty; other directories only
// exist when they hold a file. A later entry for the same path replaces an
// earlier one.
func (r *Repo) BuildTree(files []TreeFileEntry) (object.Hash, error) {
	contents := map[string][]object.TreeEntry{".": nil}
	filePaths := make(map[string]int, len(files))

	for _, f := range files {
		p := path.Clean(f.Path)
		if p == "." || strings.HasPrefix(p, "../") || strings.HasPrefix(p, "/") {
			return "", fmt.Errorf("build tree: invalid path %q", f.Path)
		}
		dir, name := path.Split(p)
		dir = strings.TrimSuffix(dir, "/")
		if dir == "" {
			dir = "."
		}
		for d := dir; ; d = path.Dir(d) {
			if _, ok := contents[d]; !ok {
				contents[d] = nil
			}
			if d == "." {
				break
			}
		}

		te := object.TreeEntry{Mode: f.Mode, Name: name, Hash: f.Hash}
		if i, ok := filePaths[p]; ok {
			contents[dir][i] = te
			continue
		}
		filePaths[p] = len(contents[dir])
		contents[dir] = append(contents[dir], te)
	}

	dirs := make([]string, 0, len(contents))
	for d := range contents {
		if _, clash := filePaths[d]; clash {
			return "", fmt.Errorf("build tree %q: %w", d, ErrPathConflict)
		}
		dirs = append(dirs, d)
	}
	sort.Slice(dirs, func(i, j int) bool {
		if len(dirs[i]) != len(dirs[j]) {
			return len(dirs[i]) > len(dirs[j])
		}
		return dirs[i] < dirs[j]
	})

	var root object.Hash
	for _, d := range dirs {
		h, err := r.Store.WriteObject(&object.Tree{Entries: contents[d]})
		if err != nil {
			return "", fmt.Errorf("write tree %q: %w", d, err)
		}
		if d == "." {
			root = h
			continue
		}
		parent := path.Dir(d)
		contents[parent] = append(contents[parent], object.TreeEntry{
			Mode: object.TreeModeDir,
			Name: path.Base(d),
			Hash: h,
		})
	}

	r.log.WithFields(logging.Fields{
		logging.HashFieldKey: root,
		"trees":              len(dirs),
	}).Debug("built tree")
	return root, nil
}

// FlattenTree walks a tree iteratively and returns every non-directory
// entry with its full slash path, sorted by path.
func (r *Repo) FlattenTree(h object.Hash) ([]TreeFileEntry, error) {
	type frame struct {
		hash   object.Hash
		prefix string
		depth  int
	}

	var result []TreeFileEntry
	stack := []frame{{hash: h}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if f.depth > maxTreeDepth {
			return nil, fmt.Errorf("flatten tree %s: depth %d: %w", h, f.depth, ErrTraversalLimit)
		}

		t, err := r.Store.ReadTree(f.hash)
		if err != nil {
			return nil, fmt.Errorf("flatten tree: read %s: %w", f.hash, err)
		}
		for _, e := range t.Entries {
			full := e.Name
			if f.prefix != "" {
				full = f.prefix + "/" + e.Name
			}
			if e.IsDir() {
				stack = append(stack, frame{hash: e.Hash, prefix: full, depth: f.depth + 1})
				continue
			}
			result = append(result, TreeFileEntry{Path: full, Mode: e.Mode, Hash: e.Hash})
		}
	}

	sort.Slice(result, func(i, j int) bool { return result[i].Path < result[j].Path })
	return result, nil
}

// FlattenTreeMap flattens a tree into a path-keyed map. An empty hash is
// the empty tree.
func (r *Repo) FlattenTreeMap(h object.Hash) (map[string]TreeFileEntry, error) {
	out := make(map[string]TreeFileEntry)
	if h == "" {
		return out, nil
	}
	entries, err := r.FlattenTree(h)
	if err != nil {
		return nil, err
	}
	for _, e := range entries {
		out[e.Path] = e
	}
	return out, nil
}

// indexFromTree builds a fresh index whose entries mirror a flattened tree.
// Stat fields are filled from the worktree when the file is present.
func (r *Repo) indexFromTree(entries []TreeFileEntry) *index.Index {
	idx := index.New()
	for _, te := range entries {
		e := index.Entry{Hash: te.Hash, Name: te.Path}
		e.ModeType, e.ModePerms = indexModeFromTreeMode(te.Mode)
		if info, err := lstatRel(r.RootDir, te.Path); err == nil {
			fillStat(&e, info)
		}
		idx.Put(e)
	}
	return idx
}
