// Package merge implements the three-way, path-level merge used to combine
// two divergent snapshots against their common ancestor.
package merge

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/pal/pkg/object"
)

// Entry is the content recorded at one path of a flattened tree.
type Entry struct {
	Mode string
	Hash object.Hash
}

// Disposition describes how one path was resolved.
type Disposition int

const (
	Unchanged      Disposition = iota
	OursOnly                   // ours modified, theirs unchanged
	TheirsOnly                 // theirs modified, ours unchanged
	BothSame                   // both sides made the same change
	AddedOurs                  // new path in ours, not in base
	AddedTheirs                // new path in theirs, not in base
	DeletedOurs                // deleted by ours
	DeletedTheirs              // deleted by theirs
	BothModified               // both modified differently
	BothAdded                  // added on both sides with different content
	DeleteVsModify             // one side deleted, the other modified
	PathCollision              // a file on one side is a directory on the other
)

func (d Disposition) String() string {
	switch d {
	case Unchanged:
		return "Unchanged"
	case OursOnly:
		return "OursOnly"
	case TheirsOnly:
		return "TheirsOnly"
	case BothSame:
		return "BothSame"
	case AddedOurs:
		return "AddedOurs"
	case AddedTheirs:
		return "AddedTheirs"
	case DeletedOurs:
		return "DeletedOurs"
	case DeletedTheirs:
		return "DeletedTheirs"
	case BothModified:
		return "BothModified"
	case BothAdded:
		return "BothAdded"
	case DeleteVsModify:
		return "DeleteVsModify"
	case PathCollision:
		return "PathCollision"
	}
	return fmt.Sprintf("Disposition(%d)", int(d))
}

// IsConflict reports whether the disposition blocks the merge.
func (d Disposition) IsConflict() bool {
	return d >= BothModified
}

// Conflict is a path the merge could not resolve. Absent sides are nil.
type Conflict struct {
	Path   string
	Reason Disposition
	Base   *Entry
	Ours   *Entry
	Theirs *Entry
}

// Stats counts dispositions across every path seen.
type Stats struct {
	Paths          int
	Unchanged      int
	OursChanged    int
	TheirsChanged  int
	BothSame       int
	ConflictsFound int
}

// Result is the outcome of a tree merge. When Conflicts is non-empty,
// Entries is nil: a conflicting merge produces nothing to write.
type Result struct {
	Entries   map[string]Entry
	Conflicts []Conflict
	Stats     Stats
}

// HasConflicts reports whether the merge failed.
func (r *Result) HasConflicts() bool {
	return len(r.Conflicts) > 0
}

// ConflictPaths returns the conflicting paths in order.
func (r *Result) ConflictPaths() []string {
	out := make([]string, 0, len(r.Conflicts))
	for _, c := range r.Conflicts {
		out = append(out, c.Path)
	}
	return out
}

// Trees merges three flattened trees. For every path in their union: if
// ours and theirs agree the shared value is kept; else if base matches ours
// theirs is taken; else if base matches theirs ours is taken; otherwise the
// path conflicts. Nil maps are treated as empty trees.
func Trees(base, ours, theirs map[string]Entry) *Result {
	res := &Result{}
	merged := make(map[string]Entry)

	for _, path := range unionPaths(base, ours, theirs) {
		b, inBase := base[path]
		o, inOurs := ours[path]
		t, inTheirs := theirs[path]
		res.Stats.Paths++

		d := classify(lookup(b, inBase), lookup(o, inOurs), lookup(t, inTheirs))
		switch {
		case d.IsConflict():
			res.Conflicts = append(res.Conflicts, Conflict{
				Path:   path,
				Reason: d,
				Base:   lookup(b, inBase),
				Ours:   lookup(o, inOurs),
				Theirs: lookup(t, inTheirs),
			})
			continue
		case d == Unchanged:
			res.Stats.Unchanged++
		case d == BothSame:
			res.Stats.BothSame++
		case d == OursOnly || d == AddedOurs || d == DeletedOurs:
			res.Stats.OursChanged++
		default:
			res.Stats.TheirsChanged++
		}

		// Resolved value: ours wins unless only theirs changed.
		var keep *Entry
		switch d {
		case TheirsOnly, AddedTheirs, DeletedTheirs:
			keep = lookup(t, inTheirs)
		default:
			keep = lookup(o, inOurs)
		}
		if keep != nil {
			merged[path] = *keep
		}
	}

	res.Conflicts = append(res.Conflicts, pathCollisions(merged, ours, theirs)...)
	sort.Slice(res.Conflicts, func(i, j int) bool { return res.Conflicts[i].Path < res.Conflicts[j].Path })
	res.Stats.ConflictsFound = len(res.Conflicts)
	if len(res.Conflicts) == 0 {
		res.Entries = merged
	}
	return res
}

func lookup(e Entry, ok bool) *Entry {
	if !ok {
		return nil
	}
	return &e
}

func same(a, b *Entry) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	return *a == *b
}

// classify determines the Disposition for a path across three revisions.
func classify(base, ours, theirs *Entry) Disposition {
	switch {
	case same(ours, theirs):
		if same(base, ours) {
			return Unchanged
		}
		return BothSame
	case same(base, ours):
		switch {
		case base == nil:
			return AddedTheirs
		case theirs == nil:
			return DeletedTheirs
		}
		return TheirsOnly
	case same(base, theirs):
		switch {
		case base == nil:
			return AddedOurs
		case ours == nil:
			return DeletedOurs
		}
		return OursOnly
	}

	switch {
	case base == nil:
		return BothAdded
	case ours == nil || theirs == nil:
		return DeleteVsModify
	}
	return BothModified
}

// pathCollisions reports merged file paths that are also a directory
// prefix of another merged path.
func pathCollisions(merged map[string]Entry, ours, theirs map[string]Entry) []Conflict {
	dirs := make(map[string]string)
	for path := range merged {
		for dir := parentDir(path); dir != ""; dir = parentDir(dir) {
			if _, ok := dirs[dir]; !ok {
				dirs[dir] = path
			}
		}
	}
	var out []Conflict
	for path := range merged {
		if _, isDir := dirs[path]; !isDir {
			continue
		}
		o, inOurs := ours[path]
		t, inTheirs := theirs[path]
		out = append(out, Conflict{
			Path:   path,
			Reason: PathCollision,
			Ours:   lookup(o, inOurs),
			Theirs: lookup(t, inTheirs),
		})
	}
	return out
}

func parentDir(path string) string {
	i := strings.LastIndexByte(path, '/')
	if i < 0 {
		return ""
	}
	return path[:i]
}

func unionPaths(maps ...map[string]Entry) []string {
	seen := make(map[string]struct{})
	for _, m := range maps {
		for p := range m {
			seen[p] = struct{}{}
		}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
