package repo

import (
	"fmt"
	"strings"

	"github.com/odvcencio/pal/pkg/logging"
	"github.com/odvcencio/pal/pkg/merge"
	"github.com/odvcencio/pal/pkg/object"
)

// MergeReport is the outcome of merging a branch into the current one.
// A conflicting merge is reported through Conflicts, not as an error, and
// leaves the repository untouched.
type MergeReport struct {
	Branch    string
	Base      object.Hash
	Ours      object.Hash
	Theirs    object.Hash
	Tree      object.Hash // merged tree, empty on conflict
	Commit    object.Hash // merge commit, empty on conflict
	Conflicts []merge.Conflict
	Stats     merge.Stats
}

// HasConflicts reports whether the merge stopped on conflicts.
func (m *MergeReport) HasConflicts() bool {
	return len(m.Conflicts) > 0
}

// MergeTrees merges three trees path by path. An empty hash stands for the
// empty tree. On conflicts nothing is written and the conflicts are
// returned with an empty hash; otherwise the merged tree is written and
// its hash returned.
func (r *Repo) MergeTrees(base, ours, theirs object.Hash) (object.Hash, []merge.Conflict, error) {
	h, res, err := r.mergeTrees(base, ours, theirs)
	if err != nil {
		return "", nil, err
	}
	return h, res.Conflicts, nil
}

func (r *Repo) mergeTrees(base, ours, theirs object.Hash) (object.Hash, *merge.Result, error) {
	sides := make([]map[string]merge.Entry, 3)
	for i, h := range []object.Hash{base, ours, theirs} {
		files, err := r.FlattenTreeMap(h)
		if err != nil {
			return "", nil, fmt.Errorf("merge trees: %w", err)
		}
		sides[i] = toMergeEntries(files)
	}

	res := merge.Trees(sides[0], sides[1], sides[2])
	if res.HasConflicts() {
		return "", res, nil
	}

	files := make([]TreeFileEntry, 0, len(res.Entries))
	for p, e := range res.Entries {
		files = append(files, TreeFileEntry{Path: p, Mode: e.Mode, Hash: e.Hash})
	}
	h, err := r.BuildTree(files)
	if err != nil {
		return "", nil, fmt.Errorf("merge trees: %w", err)
	}
	return h, res, nil
}

func toMergeEntries(files map[string]TreeFileEntry) map[string]merge.Entry {
	out := make(map[string]merge.Entry, len(files))
	for p, f := range files {
		out[p] = merge.Entry{Mode: f.Mode, Hash: f.Hash}
	}
	return out
}

// Merge merges branch into the current branch. It refuses a detached HEAD,
// a branch merged into itself, a branch already contained in HEAD, any
// uncommitted change to a tracked file and an untracked path the merge
// would overwrite. A clean merge writes a commit with parents
// [ours, theirs], moves the current branch and brings the index and
// working tree to the merged tree.
func (r *Repo) Merge(branch, author string) (*MergeReport, error) {
	head, err := r.Head()
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if !strings.HasPrefix(head, "refs/heads/") {
		return nil, fmt.Errorf("merge: %w", ErrDetachedHead)
	}
	current := strings.TrimPrefix(head, "refs/heads/")
	branch = strings.TrimPrefix(branch, "refs/heads/")
	if branch == current {
		return nil, fmt.Errorf("merge: cannot merge branch %q into itself", branch)
	}

	oursHash, err := r.ResolveRef(head)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if oursHash == "" {
		return nil, fmt.Errorf("merge: branch %q has no commits: %w", current, ErrUnresolvedReference)
	}
	theirsHash, err := r.ResolveRef("refs/heads/" + branch)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if theirsHash == "" {
		return nil, fmt.Errorf("merge: branch %q: %w", branch, ErrUnresolvedReference)
	}
	if oursHash == theirsHash {
		return nil, fmt.Errorf("merge: %w", ErrAlreadyUpToDate)
	}

	oursTree, err := r.FindObject(string(oursHash), object.TypeTree, true)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	theirsTree, err := r.FindObject(string(theirsHash), object.TypeTree, true)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	if err := r.ensureClean(); err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	baseHash, err := r.FindCommonAncestor(oursHash, theirsHash)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	if baseHash == theirsHash {
		return nil, fmt.Errorf("merge: %w", ErrAlreadyUpToDate)
	}
	var baseTree object.Hash
	if baseHash != "" {
		baseTree, err = r.FindObject(string(baseHash), object.TypeTree, true)
		if err != nil {
			return nil, fmt.Errorf("merge: %w", err)
		}
	}

	report := &MergeReport{Branch: branch, Base: baseHash, Ours: oursHash, Theirs: theirsHash}
	log := r.log.WithFields(logging.Fields{
		logging.BranchFieldKey: branch,
		"ours":                 oursHash,
		"theirs":               theirsHash,
		"base":                 baseHash,
	})

	mergedTree, res, err := r.mergeTrees(baseTree, oursTree, theirsTree)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}
	report.Stats = res.Stats
	if res.HasConflicts() {
		report.Conflicts = res.Conflicts
		log.WithField("conflicts", len(res.Conflicts)).Info("merge stopped on conflicts")
		return report, nil
	}
	report.Tree = mergedTree

	plan, err := r.planWorktreeSync(oursTree, mergedTree)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	message := fmt.Sprintf("Merge branch '%s' into '%s'", branch, current)
	commitHash, err := r.writeCommit(mergedTree, []object.Hash{oursHash, theirsHash}, message, author, nil, "merge "+branch)
	if err != nil {
		return nil, fmt.Errorf("merge: %w", err)
	}

	if err := plan.apply(r); err != nil {
		log.WithError(err).Warn("merge: worktree update failed; rolling back")
		if rbErr := r.updateRef(head, oursHash, "merge: rollback", commitHash); rbErr != nil {
			return nil, fmt.Errorf("merge: sync worktree: %w (rollback of %s failed: %v)", err, head, rbErr)
		}
		if rsErr := r.restoreWorktree(mergedTree, oursTree); rsErr != nil {
			log.WithError(rsErr).Warn("merge: restoring worktree failed")
		}
		return nil, fmt.Errorf("merge: sync worktree: %w", err)
	}
	report.Commit = commitHash
	log.WithField(logging.HashFieldKey, commitHash).Info("merged")
	return report, nil
}
