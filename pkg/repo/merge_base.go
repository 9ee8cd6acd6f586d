package repo

import (
	"fmt"

	"github.com/odvcencio/pal/pkg/object"
)

const maxAncestorSteps = 1_000_000

// ancestorStepsLimit lets tests tighten the walk cap without affecting the
// production default.
var ancestorStepsLimit = maxAncestorSteps

// FindCommonAncestor returns the first commit on b's first-parent chain
// that is also on a's first-parent chain, or "" when the chains never meet.
// Identical inputs return the input. Merge parents other than the first
// are not followed.
func (r *Repo) FindCommonAncestor(a, b object.Hash) (object.Hash, error) {
	if a == "" || b == "" {
		return "", nil
	}
	if a == b {
		return a, nil
	}

	seen := make(map[object.Hash]struct{})
	err := r.walkFirstParents(a, func(h object.Hash) bool {
		seen[h] = struct{}{}
		return true
	})
	if err != nil {
		return "", fmt.Errorf("common ancestor: %w", err)
	}

	var found object.Hash
	err = r.walkFirstParents(b, func(h object.Hash) bool {
		if _, ok := seen[h]; ok {
			found = h
			return false
		}
		return true
	})
	if err != nil {
		return "", fmt.Errorf("common ancestor: %w", err)
	}
	return found, nil
}

// IsAncestor reports whether ancestor lies on descendant's first-parent
// chain (a commit is its own ancestor).
func (r *Repo) IsAncestor(ancestor, descendant object.Hash) (bool, error) {
	found := false
	err := r.walkFirstParents(descendant, func(h object.Hash) bool {
		found = h == ancestor
		return !found
	})
	return found, err
}

// walkFirstParents calls visit for start and each first parent until visit
// returns false or a root commit is passed.
func (r *Repo) walkFirstParents(start object.Hash, visit func(object.Hash) bool) error {
	limit := ancestorStepsLimit
	if limit <= 0 || limit > maxAncestorSteps {
		limit = maxAncestorSteps
	}

	cur := start
	for steps := 0; cur != ""; steps++ {
		if steps >= limit {
			return fmt.Errorf("walk from %s: more than %d commits: %w", start.Short(), limit, ErrTraversalLimit)
		}
		if !visit(cur) {
			return nil
		}
		c, err := r.readCommit(cur)
		if err != nil {
			return err
		}
		parents := c.Parents()
		if len(parents) == 0 {
			return nil
		}
		cur = parents[0]
	}
	return nil
}
