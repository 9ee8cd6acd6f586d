package repo

import (
	"fmt"

	"github.com/odvcencio/pal/pkg/diff"
	"github.com/odvcencio/pal/pkg/object"
)

// DiffRefs compares the trees two names resolve to (commits, tags or
// trees) and reports added, deleted and modified paths.
func (r *Repo) DiffRefs(left, right string) (*diff.TreeDiff, error) {
	var sides [2]map[string]object.Hash
	for i, name := range []string{left, right} {
		tree, err := r.ResolveTree(name)
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		files, err := r.FlattenTreeMap(tree)
		if err != nil {
			return nil, fmt.Errorf("diff: %w", err)
		}
		sides[i] = make(map[string]object.Hash, len(files))
		for p, f := range files {
			sides[i][p] = f.Hash
		}
	}
	return diff.Trees(sides[0], sides[1]), nil
}

// DiffBlobs runs a line diff over the contents of two blobs. An empty hash
// is an empty blob.
func (r *Repo) DiffBlobs(a, b object.Hash) (*diff.LineDiff, error) {
	var texts [2]string
	for i, h := range []object.Hash{a, b} {
		if h == "" {
			continue
		}
		blob, err := r.Store.ReadBlob(h)
		if err != nil {
			return nil, fmt.Errorf("diff blobs: %w", err)
		}
		texts[i] = string(blob.Data)
	}
	ld, err := diff.Lines(texts[0], texts[1])
	if err != nil {
		return nil, fmt.Errorf("diff blobs: %w", err)
	}
	return ld, nil
}

// UnifiedDiff renders the content change of one path between two trees
// resolved from left and right.
func (r *Repo) UnifiedDiff(left, right, path string, context int) (string, error) {
	var texts [2]string
	for i, name := range []string{left, right} {
		blob, ok, err := r.BlobAtPath(name, path)
		if err != nil {
			return "", fmt.Errorf("diff: %w", err)
		}
		if ok {
			texts[i] = string(blob.Data)
		}
	}
	return diff.Unified("a/"+path, "b/"+path, texts[0], texts[1], context)
}
