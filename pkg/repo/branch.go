package repo

import (
	"errors"
	"fmt"
	"strings"

	"github.com/odvcencio/pal/pkg/object"
)

// CreateBranch creates refs/heads/<name> at the commit startPoint resolves
// to; an empty startPoint means HEAD. Returns an error if the branch
// already exists.
func (r *Repo) CreateBranch(name, startPoint string) (object.Hash, error) {
	if err := validateRefName(name); err != nil {
		return "", fmt.Errorf("create branch: %w", err)
	}
	if startPoint == "" {
		startPoint = "HEAD"
	}
	target, err := r.ResolveCommit(startPoint)
	if err != nil {
		return "", fmt.Errorf("create branch %q: %w", name, err)
	}

	if err := r.updateRef("refs/heads/"+name, target, "branch: created from "+startPoint, ""); err != nil {
		if errors.Is(err, ErrRefCASMismatch) {
			return "", fmt.Errorf("create branch: branch %q already exists", name)
		}
		return "", fmt.Errorf("create branch %q: %w", name, err)
	}
	return target, nil
}

// DeleteBranch removes refs/heads/<name>. The current branch cannot be
// deleted.
func (r *Repo) DeleteBranch(name string) error {
	current, err := r.CurrentBranch()
	if err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	if current == name {
		return fmt.Errorf("delete branch: cannot delete current branch %q", name)
	}
	if err := r.DeleteRef("refs/heads/" + name); err != nil {
		return fmt.Errorf("delete branch: %w", err)
	}
	return nil
}

// ListBranches returns the branch names sorted alphabetically.
func (r *Repo) ListBranches() ([]string, error) {
	refs, err := r.ListRefs("heads")
	if err != nil {
		return nil, fmt.Errorf("list branches: %w", err)
	}
	names := make([]string, 0, len(refs))
	for _, ref := range refs {
		names = append(names, strings.TrimPrefix(ref.Name, "refs/heads/"))
	}
	return names, nil
}

// CurrentBranch returns the branch HEAD points at, or "" when HEAD is
// detached.
func (r *Repo) CurrentBranch() (string, error) {
	head, err := r.Head()
	if err != nil {
		return "", fmt.Errorf("current branch: %w", err)
	}
	const prefix = "refs/heads/"
	if strings.HasPrefix(head, prefix) {
		return strings.TrimPrefix(head, prefix), nil
	}
	return "", nil
}

// validateRefName rejects names that cannot live under refs/.
func validateRefName(name string) error {
	switch {
	case name == "", name == "HEAD":
		return fmt.Errorf("invalid ref name %q", name)
	case strings.HasPrefix(name, "/"), strings.HasSuffix(name, "/"),
		strings.HasSuffix(name, ".lock"), strings.Contains(name, ".."),
		strings.ContainsAny(name, " ~^:?*[\\\x00"):
		return fmt.Errorf("invalid ref name %q", name)
	}
	return nil
}
