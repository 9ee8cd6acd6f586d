package repo

import (
	"fmt"

	"github.com/hashicorp/go-multierror"

	"github.com/odvcencio/pal/pkg/object"
)

// VerifyReport combines the store check with a reachability check from
// every ref and HEAD.
type VerifyReport struct {
	*object.VerifySummary
	Refs      int
	Reachable int
	Missing   []object.Hash
}

// Verify re-hashes every stored object and checks that everything the refs
// reach is present. Every failure is collected into a multierror.
func (r *Repo) Verify() (*VerifyReport, error) {
	var result *multierror.Error

	summary, err := r.Store.Verify()
	if summary == nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	if err != nil {
		result = multierror.Append(result, err)
	}
	report := &VerifyReport{VerifySummary: summary}

	refs, err := r.ListRefs("")
	if err != nil {
		return nil, fmt.Errorf("verify: %w", err)
	}
	roots := make([]object.Hash, 0, len(refs)+1)
	seen := make(map[object.Hash]struct{}, len(refs)+1)
	addRoot := func(h object.Hash) {
		if _, dup := seen[h]; !dup {
			seen[h] = struct{}{}
			roots = append(roots, h)
		}
	}
	for _, ref := range refs {
		addRoot(ref.Hash)
	}
	if head, err := r.ResolveRef("HEAD"); err != nil {
		result = multierror.Append(result, err)
	} else if head != "" {
		addRoot(head)
	}
	report.Refs = len(refs)

	for _, root := range roots {
		if !r.Store.Has(root) {
			report.Missing = append(report.Missing, root)
			result = multierror.Append(result, fmt.Errorf("verify: ref target %s: %w", root, object.ErrNotFound))
		}
	}

	reachable, missing, err := r.Store.ReachableSet(roots)
	if err != nil {
		result = multierror.Append(result, fmt.Errorf("verify: reachability: %w", err))
	}
	report.Reachable = len(reachable)
	for _, h := range missing {
		report.Missing = append(report.Missing, h)
		result = multierror.Append(result, fmt.Errorf("verify: referenced object %s: %w", h, object.ErrNotFound))
	}
	return report, result.ErrorOrNil()
}
