package repo

import (
	"fmt"
	"sort"

	"github.com/odvcencio/pal/pkg/logging"
	"github.com/odvcencio/pal/pkg/object"
)

// PruneSummary reports what Prune found.
type PruneSummary struct {
	Objects     int
	Reachable   int
	Unreachable []object.Hash
	Removed     bool
}

// Prune finds loose objects that no ref, HEAD or staged index entry can
// reach. Unless dryRun is set they are deleted.
func (r *Repo) Prune(dryRun bool) (*PruneSummary, error) {
	refs, err := r.ListRefs("")
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	rootSet := make(map[object.Hash]struct{}, len(refs)+1)
	for _, ref := range refs {
		rootSet[ref.Hash] = struct{}{}
	}
	head, err := r.ResolveRef("HEAD")
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	if head != "" {
		rootSet[head] = struct{}{}
	}
	idx, err := r.ReadIndex()
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	for _, e := range idx.Entries {
		rootSet[e.Hash] = struct{}{}
	}

	roots := make([]object.Hash, 0, len(rootSet))
	for h := range rootSet {
		roots = append(roots, h)
	}
	sort.Slice(roots, func(i, j int) bool { return roots[i] < roots[j] })

	reachable, _, err := r.Store.ReachableSet(roots)
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}
	all, err := r.Store.List()
	if err != nil {
		return nil, fmt.Errorf("prune: %w", err)
	}

	summary := &PruneSummary{Objects: len(all), Reachable: len(reachable)}
	for _, h := range all {
		if _, ok := reachable[h]; !ok {
			summary.Unreachable = append(summary.Unreachable, h)
		}
	}
	if dryRun {
		return summary, nil
	}
	for _, h := range summary.Unreachable {
		if err := r.Store.Remove(h); err != nil {
			return nil, fmt.Errorf("prune: %w", err)
		}
		r.log.WithField(logging.HashFieldKey, h).Debug("pruned object")
	}
	summary.Removed = true
	return summary, nil
}
