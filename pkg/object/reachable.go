package object

import (
	"fmt"
	"sort"
	"strings"
)

// ReachableSet returns all object hashes reachable from roots by following
// object references. Missing roots are ignored; a missing object referenced
// by a present one is reported through missing.
func (s *Store) ReachableSet(roots []Hash) (reachable map[Hash]struct{}, missing []Hash, err error) {
	roots = uniqueNormalizedHashes(roots)
	reachable = make(map[Hash]struct{}, len(roots))
	missingSet := make(map[Hash]struct{})

	stack := make([]Hash, 0, len(roots))
	for _, r := range roots {
		if s.Has(r) {
			stack = append(stack, r)
		}
	}
	for len(stack) > 0 {
		h := stack[len(stack)-1]
		stack = stack[:len(stack)-1]
		if _, ok := reachable[h]; ok {
			continue
		}
		if !s.Has(h) {
			missingSet[h] = struct{}{}
			continue
		}
		reachable[h] = struct{}{}

		objType, data, err := s.Read(h)
		if err != nil {
			return nil, nil, fmt.Errorf("reachable set read %s: %w", h, err)
		}
		refs, err := referencedHashes(objType, data)
		if err != nil {
			return nil, nil, fmt.Errorf("reachable set parse %s (%s): %w", h, objType, err)
		}
		stack = append(stack, refs...)
	}

	for h := range missingSet {
		missing = append(missing, h)
	}
	sort.Slice(missing, func(i, j int) bool { return missing[i] < missing[j] })
	return reachable, missing, nil
}

func referencedHashes(objType ObjectType, data []byte) ([]Hash, error) {
	switch objType {
	case TypeBlob:
		return nil, nil
	case TypeTag:
		tag, err := ParseTag(data)
		if err != nil {
			return nil, err
		}
		return []Hash{tag.Target()}, nil
	case TypeCommit:
		commit, err := ParseCommit(data)
		if err != nil {
			return nil, err
		}
		parents := commit.Parents()
		refs := make([]Hash, 0, 1+len(parents))
		refs = append(refs, commit.TreeHash())
		refs = append(refs, parents...)
		return refs, nil
	case TypeTree:
		tree, err := ParseTree(data)
		if err != nil {
			return nil, err
		}
		refs := make([]Hash, 0, len(tree.Entries))
		for _, e := range tree.Entries {
			refs = append(refs, e.Hash)
		}
		return refs, nil
	default:
		return nil, fmt.Errorf("object kind %q: %w", objType, ErrUnknownFormat)
	}
}

func uniqueNormalizedHashes(in []Hash) []Hash {
	if len(in) == 0 {
		return nil
	}
	seen := make(map[Hash]struct{}, len(in))
	out := make([]Hash, 0, len(in))
	for _, h := range in {
		h = Hash(strings.ToLower(strings.TrimSpace(string(h))))
		if h == "" {
			continue
		}
		if _, ok := seen[h]; ok {
			continue
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
