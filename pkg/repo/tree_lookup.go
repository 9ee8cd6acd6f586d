package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/pal/pkg/object"
)

// treeEntryAtPath walks one tree level per path component and returns the
// entry at relPath. Only the trees on the path are read.
func (r *Repo) treeEntryAtPath(treeHash object.Hash, relPath string) (object.TreeEntry, bool, error) {
	parts := strings.Split(strings.Trim(relPath, "/"), "/")
	current := treeHash

	for i, part := range parts {
		if i >= maxTreeDepth {
			return object.TreeEntry{}, false, fmt.Errorf("lookup %q: %w", relPath, ErrTraversalLimit)
		}
		t, err := r.Store.ReadTree(current)
		if err != nil {
			return object.TreeEntry{}, false, fmt.Errorf("read tree %s: %w", current, err)
		}
		entry, found := t.Lookup(part)
		if !found {
			return object.TreeEntry{}, false, nil
		}
		if i == len(parts)-1 {
			return entry, true, nil
		}
		if !entry.IsDir() {
			return object.TreeEntry{}, false, nil
		}
		current = entry.Hash
	}
	return object.TreeEntry{}, false, nil
}

// BlobAtPath returns the blob stored at relPath in the tree treeish names.
// ok is false when the path is missing or is a directory.
func (r *Repo) BlobAtPath(treeish, relPath string) (blob *object.Blob, ok bool, err error) {
	tree, err := r.ResolveTree(treeish)
	if err != nil {
		return nil, false, err
	}
	entry, found, err := r.treeEntryAtPath(tree, relPath)
	if err != nil || !found || entry.IsDir() {
		return nil, false, err
	}
	blob, err = r.Store.ReadBlob(entry.Hash)
	if err != nil {
		return nil, false, err
	}
	return blob, true, nil
}
