package repo

import (
	"fmt"
	"sort"
	"strings"

	"github.com/odvcencio/pal/pkg/object"
)

const (
	minAbbrevLen = 4
	maxFindSteps = 16
)

// ResolveName returns every object a user-supplied name can refer to: HEAD,
// a full or abbreviated (>= 4 hex chars) hash, a tag or a branch. Duplicate
// candidates are collapsed. More than one result means the name is
// ambiguous; callers decide whether that is an error.
func (r *Repo) ResolveName(name string) ([]object.Hash, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("resolve %q: empty name: %w", name, ErrUnresolvedReference)
	}

	seen := make(map[object.Hash]struct{})
	var out []object.Hash
	add := func(h object.Hash) {
		if h == "" {
			return
		}
		if _, ok := seen[h]; ok {
			return
		}
		seen[h] = struct{}{}
		out = append(out, h)
	}

	if name == "HEAD" {
		h, err := r.ResolveRef("HEAD")
		if err != nil {
			return nil, err
		}
		add(h)
		return out, nil
	}

	if len(name) >= minAbbrevLen && len(name) <= object.HexSize && object.IsHex(name) {
		prefix := strings.ToLower(name)
		if len(prefix) == object.HexSize {
			if r.Store.Has(object.Hash(prefix)) {
				add(object.Hash(prefix))
			}
		} else {
			matches, err := r.Store.ListPrefix(prefix)
			if err != nil {
				return nil, fmt.Errorf("resolve %q: %w", name, err)
			}
			for _, h := range matches {
				add(h)
			}
		}
	}

	refNames := []string{"refs/tags/" + name, "refs/heads/" + name}
	if strings.HasPrefix(name, "refs/") {
		refNames = []string{name}
	}
	for _, ref := range refNames {
		h, err := r.ResolveRef(ref)
		if err != nil {
			return nil, err
		}
		add(h)
	}

	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// FindObject resolves name and then, while the object's kind differs from
// want, follows one indirection per step: a tag to its object, a commit to
// its tree when a tree is wanted. With follow false no indirection is
// taken. An empty want accepts any kind.
func (r *Repo) FindObject(name string, want object.ObjectType, follow bool) (object.Hash, error) {
	cands, err := r.ResolveName(name)
	if err != nil {
		return "", err
	}
	switch len(cands) {
	case 0:
		return "", fmt.Errorf("find %q: no such object: %w", name, ErrUnresolvedReference)
	case 1:
	default:
		short := make([]string, 0, len(cands))
		for _, c := range cands {
			short = append(short, c.Short())
		}
		return "", fmt.Errorf("find %q: candidates %s: %w", name, strings.Join(short, ", "), ErrAmbiguousName)
	}

	h := cands[0]
	if want == "" {
		return h, nil
	}
	for step := 0; step < maxFindSteps; step++ {
		obj, err := r.Store.ReadObject(h)
		if err != nil {
			return "", fmt.Errorf("find %q: %w", name, err)
		}
		if obj.Type() == want {
			return h, nil
		}
		if !follow {
			return "", fmt.Errorf("find %q: %s is a %s, not a %s: %w", name, h.Short(), obj.Type(), want, ErrUnresolvedReference)
		}
		switch o := obj.(type) {
		case *object.Tag:
			h = o.Target()
		case *object.Commit:
			if want != object.TypeTree {
				return "", fmt.Errorf("find %q: commit %s cannot become a %s: %w", name, h.Short(), want, ErrUnresolvedReference)
			}
			h = o.TreeHash()
		default:
			return "", fmt.Errorf("find %q: %s %s cannot become a %s: %w", name, obj.Type(), h.Short(), want, ErrUnresolvedReference)
		}
	}
	return "", fmt.Errorf("find %q: more than %d indirections: %w", name, maxFindSteps, ErrTraversalLimit)
}

// ResolveCommit finds the commit a name refers to, peeling tags.
func (r *Repo) ResolveCommit(name string) (object.Hash, error) {
	return r.FindObject(name, object.TypeCommit, true)
}

// ResolveTree finds the tree a name refers to, peeling tags and commits.
func (r *Repo) ResolveTree(name string) (object.Hash, error) {
	return r.FindObject(name, object.TypeTree, true)
}
