package repo

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/odvcencio/pal/pkg/logging"
	"github.com/odvcencio/pal/pkg/object"
)

// ErrDirectoryNotEmpty is returned by CheckoutTree for a non-empty target.
var ErrDirectoryNotEmpty = errors.New("directory is not empty")

// Checkout switches the working tree to target, a branch name or anything
// ResolveCommit accepts. A branch makes HEAD symbolic; any other target
// detaches it. Uncommitted changes to tracked files make it refuse.
func (r *Repo) Checkout(target string) error {
	if err := r.ensureClean(); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	branchRef := "refs/heads/" + target
	isBranch := r.RefExists(branchRef)
	var targetHash object.Hash
	var err error
	if isBranch {
		targetHash, err = r.ResolveRef(branchRef)
	} else {
		targetHash, err = r.ResolveCommit(target)
	}
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	fromTree, err := r.headTree()
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	toTree, err := r.FindObject(string(targetHash), object.TypeTree, true)
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}
	if err := r.syncWorktree(fromTree, toTree); err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	if isBranch {
		err = r.SetSymbolicRef("HEAD", branchRef)
	} else {
		err = r.updateRef("HEAD", targetHash, "checkout: moving to "+target)
	}
	if err != nil {
		return fmt.Errorf("checkout: %w", err)
	}

	r.log.WithFields(logging.Fields{
		"target":             target,
		logging.HashFieldKey: targetHash,
	}).Debug("checked out")
	return nil
}

// CheckoutTree writes the tree named by treeish into dir, which must be
// empty or not exist yet. The repository's own worktree and index are not
// touched.
func (r *Repo) CheckoutTree(treeish, dir string) error {
	treeHash, err := r.ResolveTree(treeish)
	if err != nil {
		return fmt.Errorf("checkout tree: %w", err)
	}

	entries, err := os.ReadDir(dir)
	switch {
	case err == nil && len(entries) > 0:
		return fmt.Errorf("checkout tree: %s: %w", dir, ErrDirectoryNotEmpty)
	case err != nil && !errors.Is(err, os.ErrNotExist):
		return fmt.Errorf("checkout tree: %w", err)
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("checkout tree: %w", err)
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return fmt.Errorf("checkout tree: %w", err)
	}

	files, err := r.FlattenTree(treeHash)
	if err != nil {
		return fmt.Errorf("checkout tree: %w", err)
	}
	for _, f := range files {
		if err := r.writeWorktreeFile(abs, f); err != nil {
			return fmt.Errorf("checkout tree: %w", err)
		}
	}
	return nil
}
