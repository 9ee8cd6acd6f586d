package repo

import (
	"os"
	"path/filepath"
	"testing"
)

func statusOf(t *testing.T, r *Repo) map[string]StatusEntry {
	t.Helper()
	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	out := make(map[string]StatusEntry, len(st.Entries))
	for _, e := range st.Entries {
		out[e.Path] = e
	}
	return out
}

func TestStatus_CleanAfterCommit(t *testing.T) {
	r := initRepo(t)
	commitFiles(t, r, "first", map[string]string{"a.txt": "a\n", "dir/b.txt": "b\n"})

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	if !st.Clean() {
		t.Fatalf("entries = %+v, want clean", st.Entries)
	}
	if st.Branch != "master" || st.Head == "" {
		t.Fatalf("Branch = %q Head = %q", st.Branch, st.Head)
	}
}

func TestStatus_StagedNewBeforeFirstCommit(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", "a\n")

	got := statusOf(t, r)
	e, ok := got["a.txt"]
	if !ok || e.IndexStatus != StatusNew || e.WorkStatus != StatusClean {
		t.Fatalf("a.txt = %+v", e)
	}
}

func TestStatus_ModifiedDeletedUntracked(t *testing.T) {
	r := initRepo(t)
	commitFiles(t, r, "first", map[string]string{"mod.txt": "one\n", "del.txt": "gone\n", "staged.txt": "x\n"})

	writeFile(t, r, "mod.txt", "a longer second version\n")
	if err := os.Remove(filepath.Join(r.RootDir, "del.txt")); err != nil {
		t.Fatalf("Remove: %v", err)
	}
	writeFile(t, r, "staged.txt", "changed and staged\n")
	if err := r.Add([]string{"staged.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	writeFile(t, r, "new.txt", "untracked\n")

	got := statusOf(t, r)
	tests := []struct {
		path  string
		index FileStatus
		work  FileStatus
	}{
		{"mod.txt", StatusClean, StatusModified},
		{"del.txt", StatusClean, StatusDeleted},
		{"staged.txt", StatusModified, StatusClean},
		{"new.txt", StatusUntracked, StatusUntracked},
	}
	for _, tt := range tests {
		e, ok := got[tt.path]
		if !ok {
			t.Errorf("%s missing from status", tt.path)
			continue
		}
		if e.IndexStatus != tt.index || e.WorkStatus != tt.work {
			t.Errorf("%s = (%v, %v), want (%v, %v)", tt.path, e.IndexStatus, e.WorkStatus, tt.index, tt.work)
		}
	}
	if len(got) != len(tests) {
		t.Errorf("status has %d entries, want %d", len(got), len(tests))
	}
}

func TestStatus_StagedRemoval(t *testing.T) {
	r := initRepo(t)
	commitFiles(t, r, "first", map[string]string{"a.txt": "a\n", "b.txt": "b\n"})
	if err := r.Remove([]string{"a.txt"}, true); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	got := statusOf(t, r)
	if e := got["a.txt"]; e.IndexStatus != StatusDeleted {
		t.Fatalf("a.txt = %+v, want staged deletion", e)
	}
	if _, ok := got["b.txt"]; ok {
		t.Fatal("b.txt should be clean")
	}
}

func TestStatus_IgnoredFilesHidden(t *testing.T) {
	r := initRepo(t)
	commitFiles(t, r, "first", map[string]string{".palignore": "*.log\nbuild/\n"})
	writeFile(t, r, "debug.log", "noise\n")
	writeFile(t, r, "build/out.bin", "bin\n")
	writeFile(t, r, "keep.txt", "keep\n")

	st, err := r.Status()
	if err != nil {
		t.Fatalf("Status: %v", err)
	}
	untracked := st.Untracked()
	if len(untracked) != 1 || untracked[0].Path != "keep.txt" {
		t.Fatalf("untracked = %+v, want only keep.txt", untracked)
	}
}

func TestStatus_ModeChangeHonorsCoreFileMode(t *testing.T) {
	r := initRepo(t)
	commitFiles(t, r, "first", map[string]string{"run.sh": "#!/bin/sh\n"})
	if err := os.Chmod(filepath.Join(r.RootDir, "run.sh"), 0o755); err != nil {
		t.Fatalf("Chmod: %v", err)
	}

	if e, ok := statusOf(t, r)["run.sh"]; ok {
		t.Fatalf("mode change reported without core.filemode: %+v", e)
	}

	if err := r.SetConfigValue("core.filemode", "true"); err != nil {
		t.Fatalf("SetConfigValue: %v", err)
	}
	if e := statusOf(t, r)["run.sh"]; e.WorkStatus != StatusModified {
		t.Fatalf("run.sh = %+v, want modified", e)
	}
}

func TestFileStatus_String(t *testing.T) {
	if StatusNew.String() != "new file" || StatusUntracked.String() != "untracked" {
		t.Fatalf("unexpected names %q %q", StatusNew, StatusUntracked)
	}
	if got := FileStatus(42).String(); got != "FileStatus(42)" {
		t.Fatalf("String() = %q", got)
	}
}
