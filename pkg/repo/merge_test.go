package repo

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/odvcencio/pal/pkg/merge"
	"github.com/odvcencio/pal/pkg/object"
)

// treeOf builds a tree from path->content pairs as regular files.
func treeOf(t *testing.T, r *Repo, files map[string]string) object.Hash {
	t.Helper()
	var entries []TreeFileEntry
	for p, content := range files {
		entries = append(entries, TreeFileEntry{Path: p, Mode: object.TreeModeFile, Hash: blobHash(t, r, content)})
	}
	h, err := r.BuildTree(entries)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	return h
}

func TestMergeTrees_DisjointAdditions(t *testing.T) {
	r := initRepo(t)
	base := treeOf(t, r, map[string]string{"f": "base\n"})
	ours := treeOf(t, r, map[string]string{"f": "base\n", "g": "ours\n"})
	theirs := treeOf(t, r, map[string]string{"f": "base\n", "h": "theirs\n"})
	want := treeOf(t, r, map[string]string{"f": "base\n", "g": "ours\n", "h": "theirs\n"})

	got, conflicts, err := r.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if len(conflicts) != 0 {
		t.Fatalf("unexpected conflicts: %+v", conflicts)
	}
	if got != want {
		t.Fatalf("merged tree = %s, want %s", got, want)
	}
}

func TestMergeTrees_Identities(t *testing.T) {
	r := initRepo(t)
	b := treeOf(t, r, map[string]string{"f": "1\n"})
	x := treeOf(t, r, map[string]string{"f": "2\n"})
	y := treeOf(t, r, map[string]string{"f": "1\n", "y": "y\n"})

	tests := []struct {
		name               string
		base, ours, theirs object.Hash
		want               object.Hash
	}{
		{"all same", b, b, b, b},
		{"ours changed", b, x, b, x},
		{"theirs changed", b, b, y, y},
		{"no base both same", "", x, x, x},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, conflicts, err := r.MergeTrees(tt.base, tt.ours, tt.theirs)
			if err != nil {
				t.Fatalf("MergeTrees: %v", err)
			}
			if len(conflicts) != 0 {
				t.Fatalf("unexpected conflicts: %+v", conflicts)
			}
			if got != tt.want {
				t.Fatalf("got %s, want %s", got, tt.want)
			}
		})
	}
}

func TestMergeTrees_Conflict(t *testing.T) {
	r := initRepo(t)
	base := treeOf(t, r, map[string]string{"f": "base\n", "k": "keep\n"})
	ours := treeOf(t, r, map[string]string{"f": "ours\n", "k": "keep\n"})
	theirs := treeOf(t, r, map[string]string{"f": "theirs\n", "k": "keep\n"})

	got, conflicts, err := r.MergeTrees(base, ours, theirs)
	if err != nil {
		t.Fatalf("MergeTrees: %v", err)
	}
	if got != "" {
		t.Fatalf("conflicting merge wrote tree %s", got)
	}
	if len(conflicts) != 1 || conflicts[0].Path != "f" || conflicts[0].Reason != merge.BothModified {
		t.Fatalf("conflicts = %+v", conflicts)
	}
}

func TestMergeTrees_DeleteUnchanged(t *testing.T) {
	r := initRepo(t)
	base := treeOf(t, r, map[string]string{"f": "1\n", "gone": "x\n"})
	ours := treeOf(t, r, map[string]string{"f": "1\n"})
	theirs := treeOf(t, r, map[string]string{"f": "2\n", "gone": "x\n"})
	want := treeOf(t, r, map[string]string{"f": "2\n"})

	got, conflicts, err := r.MergeTrees(base, ours, theirs)
	if err != nil || len(conflicts) != 0 {
		t.Fatalf("MergeTrees = %v, %+v", err, conflicts)
	}
	if got != want {
		t.Fatalf("got %s, want %s", got, want)
	}
}

// divergedRepo leaves master and feature each one commit past a shared
// root, with master checked out.
func divergedRepo(t *testing.T, masterFiles, featureFiles map[string]string) *Repo {
	t.Helper()
	r := initRepo(t)
	commitFiles(t, r, "root", map[string]string{"f": "base\n"})
	if _, err := r.CreateBranch("feature", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}
	commitFiles(t, r, "master work", masterFiles)
	if err := r.Checkout("feature"); err != nil {
		t.Fatalf("Checkout feature: %v", err)
	}
	commitFiles(t, r, "feature work", featureFiles)
	if err := r.Checkout("master"); err != nil {
		t.Fatalf("Checkout master: %v", err)
	}
	return r
}

func TestMerge_CleanCreatesMergeCommit(t *testing.T) {
	r := divergedRepo(t, map[string]string{"g": "master\n"}, map[string]string{"h": "feature\n"})
	ours, _ := r.ResolveRef("master")
	theirs, _ := r.ResolveRef("feature")

	report, err := r.Merge("feature", "Merger <m@example.com>")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if report.HasConflicts() {
		t.Fatalf("unexpected conflicts: %+v", report.Conflicts)
	}
	if report.Ours != ours || report.Theirs != theirs || report.Base == "" {
		t.Fatalf("report = %+v", report)
	}

	c, err := r.Store.ReadCommit(report.Commit)
	if err != nil {
		t.Fatalf("ReadCommit: %v", err)
	}
	parents := c.Parents()
	if len(parents) != 2 || parents[0] != ours || parents[1] != theirs {
		t.Fatalf("parents = %v, want [%s %s]", parents, ours, theirs)
	}
	if c.TreeHash() != report.Tree {
		t.Fatalf("commit tree %s != report tree %s", c.TreeHash(), report.Tree)
	}
	if !strings.Contains(c.Message, "feature") || !strings.Contains(c.Message, "master") {
		t.Fatalf("message = %q", c.Message)
	}

	head, _ := r.ResolveRef("master")
	if head != report.Commit {
		t.Fatalf("master = %s, want %s", head, report.Commit)
	}
	for name, want := range map[string]string{"f": "base\n", "g": "master\n", "h": "feature\n"} {
		if got := readFile(t, r, name); got != want {
			t.Errorf("%s = %q, want %q", name, got, want)
		}
	}
	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Clean() {
		t.Fatalf("status after merge not clean: %+v", st.Entries)
	}
}

func TestMerge_ConflictLeavesBranch(t *testing.T) {
	r := divergedRepo(t, map[string]string{"f": "master\n"}, map[string]string{"f": "feature\n"})
	before, _ := r.ResolveRef("master")

	report, err := r.Merge("feature", "")
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if !report.HasConflicts() || report.Conflicts[0].Path != "f" {
		t.Fatalf("conflicts = %+v", report.Conflicts)
	}
	if report.Commit != "" || report.Tree != "" {
		t.Fatalf("conflicting merge produced %+v", report)
	}
	after, _ := r.ResolveRef("master")
	if after != before {
		t.Fatalf("master moved from %s to %s", before, after)
	}
	if got := readFile(t, r, "f"); got != "master\n" {
		t.Fatalf("worktree f = %q", got)
	}
}

func TestMerge_Refusals(t *testing.T) {
	r := initRepo(t)
	root := commitFiles(t, r, "root", map[string]string{"f": "1\n"})
	if _, err := r.CreateBranch("same", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	if _, err := r.Merge("master", ""); err == nil {
		t.Fatal("self merge succeeded")
	}
	if _, err := r.Merge("same", ""); !errors.Is(err, ErrAlreadyUpToDate) {
		t.Fatalf("same commit: %v, want ErrAlreadyUpToDate", err)
	}
	if _, err := r.Merge("missing", ""); !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("missing branch: %v, want ErrUnresolvedReference", err)
	}

	commitFiles(t, r, "ahead", map[string]string{"f": "2\n"})
	if _, err := r.Merge("same", ""); !errors.Is(err, ErrAlreadyUpToDate) {
		t.Fatalf("ancestor branch: %v, want ErrAlreadyUpToDate", err)
	}

	if err := r.Checkout(string(root)); err != nil {
		t.Fatalf("Checkout: %v", err)
	}
	if _, err := r.Merge("same", ""); !errors.Is(err, ErrDetachedHead) {
		t.Fatalf("detached: %v, want ErrDetachedHead", err)
	}
}

func TestMerge_StagedChangesRefused(t *testing.T) {
	r := divergedRepo(t, map[string]string{"g": "master\n"}, map[string]string{"h": "feature\n"})
	writeFile(t, r, "staged.txt", "pending\n")
	if err := r.Add([]string{"staged.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	if _, err := r.Merge("feature", ""); !errors.Is(err, ErrDirtyWorktree) {
		t.Fatalf("Merge with staged changes: %v, want ErrDirtyWorktree", err)
	}
}

func TestMerge_UnstagedEditRefused(t *testing.T) {
	r := divergedRepo(t, map[string]string{"g.txt": "master\n"}, map[string]string{"f": "theirs\n"})
	before, _ := r.ResolveRef("refs/heads/master")
	writeFile(t, r, "f", "precious local work\n")

	if _, err := r.Merge("feature", ""); !errors.Is(err, ErrDirtyWorktree) {
		t.Fatalf("Merge = %v, want ErrDirtyWorktree", err)
	}
	if got := readFile(t, r, "f"); got != "precious local work\n" {
		t.Fatalf("unstaged edit lost: %q", got)
	}
	if after, _ := r.ResolveRef("refs/heads/master"); after != before {
		t.Fatalf("master moved to %s", after)
	}
}

func TestMerge_UntrackedCollisionLeavesHead(t *testing.T) {
	r := divergedRepo(t, map[string]string{"g.txt": "master\n"}, map[string]string{"h.txt": "feature\n"})
	before, _ := r.ResolveRef("refs/heads/master")
	writeFile(t, r, "h.txt/untracked", "keep\n")

	if _, err := r.Merge("feature", ""); !errors.Is(err, ErrDirtyWorktree) {
		t.Fatalf("Merge = %v, want ErrDirtyWorktree", err)
	}
	if after, _ := r.ResolveRef("refs/heads/master"); after != before {
		t.Fatalf("master moved to %s", after)
	}
	if got := readFile(t, r, "h.txt/untracked"); got != "keep\n" {
		t.Fatalf("untracked file = %q", got)
	}
}

func TestMerge_RollsBackWhenWorktreeUpdateFails(t *testing.T) {
	r := divergedRepo(t, map[string]string{"g.txt": "master\n"}, map[string]string{"h.txt": "feature\n"})
	before, _ := r.ResolveRef("refs/heads/master")

	// the merged tree still names the blob, but it cannot be materialized
	h := blobHash(t, r, "feature\n")
	if err := os.Remove(filepath.Join(r.PalDir, "objects", string(h[:2]), string(h[2:]))); err != nil {
		t.Fatalf("remove blob: %v", err)
	}

	if _, err := r.Merge("feature", ""); !errors.Is(err, object.ErrNotFound) {
		t.Fatalf("Merge = %v, want ErrNotFound", err)
	}
	if after, _ := r.ResolveRef("refs/heads/master"); after != before {
		t.Fatalf("master = %s after failed merge, want %s", after, before)
	}
	if fileExists(r, "h.txt") {
		t.Fatal("h.txt left behind by failed merge")
	}
	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Clean() {
		t.Fatalf("status after rollback = %+v", st.Entries)
	}
}
