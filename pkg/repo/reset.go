package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/pal/pkg/index"
)

// Reset unstages paths by restoring their index entries to HEAD.
//
// A path present in HEAD gets HEAD's hash and mode back; a path absent
// from HEAD is dropped from the index. A directory selects everything
// below it and no paths selects the whole index. The working tree is not
// touched.
func (r *Repo) Reset(paths []string) error {
	idx, err := r.ReadIndex()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	headTree, err := r.headTree()
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	head, err := r.FlattenTreeMap(headTree)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	targets, err := r.resolveResetTargets(paths, idx, head)
	if err != nil {
		return fmt.Errorf("reset: %w", err)
	}

	for _, p := range targets {
		te, ok := head[p]
		if !ok {
			idx.Remove(p)
			continue
		}
		// zeroed stat data forces status to hash the worktree copy
		e := index.Entry{Name: p, Hash: te.Hash}
		e.ModeType, e.ModePerms = indexModeFromTreeMode(te.Mode)
		idx.Put(e)
	}

	if err := r.WriteIndex(idx); err != nil {
		return fmt.Errorf("reset: %w", err)
	}
	return nil
}

func (r *Repo) resolveResetTargets(paths []string, idx *index.Index, head map[string]TreeFileEntry) ([]string, error) {
	all := make(map[string]struct{}, len(idx.Entries)+len(head))
	for _, e := range idx.Entries {
		all[e.Name] = struct{}{}
	}
	for p := range head {
		all[p] = struct{}{}
	}
	if len(paths) == 0 {
		return sortedPathSet(all), nil
	}

	targets := make(map[string]struct{})
	for _, raw := range paths {
		rel, err := r.repoRelPath(strings.TrimSpace(raw))
		if err != nil {
			return nil, err
		}
		if rel == "." {
			return sortedPathSet(all), nil
		}

		matched := false
		if _, ok := all[rel]; ok {
			targets[rel] = struct{}{}
			matched = true
		}
		prefix := rel + "/"
		for p := range all {
			if strings.HasPrefix(p, prefix) {
				targets[p] = struct{}{}
				matched = true
			}
		}
		if !matched {
			return nil, fmt.Errorf("path %q did not match staged or HEAD entries", raw)
		}
	}
	return sortedPathSet(targets), nil
}

func sortedPathSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for p := range set {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}
