package diff

import (
	"sort"

	"github.com/odvcencio/pal/pkg/object"
)

// Conflict is a path whose content differs between the two sides, with
// both hashes attached.
type Conflict struct {
	Path  string
	Left  object.Hash
	Right object.Hash
}

// TreeDiff is the path-level difference between two flattened trees. Every
// modification with two non-empty hashes is also listed in Conflicts; that
// list is a display aid, not a merge verdict.
type TreeDiff struct {
	Added     []string
	Deleted   []string
	Modified  []string
	Conflicts []Conflict
}

// Empty reports whether the two trees were identical.
func (d *TreeDiff) Empty() bool {
	return len(d.Added) == 0 && len(d.Deleted) == 0 && len(d.Modified) == 0
}

// Trees compares two path->hash maps. All lists are sorted by path.
func Trees(left, right map[string]object.Hash) *TreeDiff {
	d := &TreeDiff{}
	for path, rh := range right {
		lh, ok := left[path]
		switch {
		case !ok:
			d.Added = append(d.Added, path)
		case lh != rh:
			d.Modified = append(d.Modified, path)
			if lh != "" && rh != "" {
				d.Conflicts = append(d.Conflicts, Conflict{Path: path, Left: lh, Right: rh})
			}
		}
	}
	for path := range left {
		if _, ok := right[path]; !ok {
			d.Deleted = append(d.Deleted, path)
		}
	}
	sort.Strings(d.Added)
	sort.Strings(d.Deleted)
	sort.Strings(d.Modified)
	sort.Slice(d.Conflicts, func(i, j int) bool { return d.Conflicts[i].Path < d.Conflicts[j].Path })
	return d
}
