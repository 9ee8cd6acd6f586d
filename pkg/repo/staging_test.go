package repo

import (
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/odvcencio/pal/pkg/index"
	"github.com/odvcencio/pal/pkg/object"
)

func TestAdd_StagesBlobAndStat(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", "hello\n")

	entries, err := r.ListFiles()
	if err != nil {
		t.Fatalf("ListFiles: %v", err)
	}
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	e := entries[0]
	if e.Name != "a.txt" {
		t.Errorf("Name = %q", e.Name)
	}
	if e.Hash != "ce013625030ba8dba906f756967f9e9ca394464a" {
		t.Errorf("Hash = %q", e.Hash)
	}
	if e.ModeType != index.ModeTypeRegular || e.ModePerms != 0o644 {
		t.Errorf("mode = %o/%o", e.ModeType, e.ModePerms)
	}
	if e.Size != 6 {
		t.Errorf("Size = %d, want 6", e.Size)
	}
	if e.MTime.Seconds == 0 {
		t.Error("MTime not captured")
	}
	if !r.Store.Has(e.Hash) {
		t.Error("blob not written")
	}
}

func TestAdd_ReplacesExistingEntry(t *testing.T) {
	r := initRepoWithFile(t, "a.txt", "one\n")
	writeFile(t, r, "a.txt", "two\n")
	if err := r.Add([]string{"a.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	entries, _ := r.ListFiles()
	if len(entries) != 1 {
		t.Fatalf("entries = %d, want 1", len(entries))
	}
	if want := object.HashObject(object.TypeBlob, []byte("two\n")); entries[0].Hash != want {
		t.Fatalf("Hash = %q, want %q", entries[0].Hash, want)
	}
}

func TestAdd_ExpandsDirectoriesAndSkipsIgnored(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, IgnoreFileName, "*.log\nbuild/\n")
	if err := r.Add([]string{IgnoreFileName}); err != nil {
		t.Fatalf("Add(ignore file): %v", err)
	}
	writeFile(t, r, "src/main.go", "package main\n")
	writeFile(t, r, "src/util/u.go", "package util\n")
	writeFile(t, r, "src/debug.log", "noise\n")
	writeFile(t, r, "build/out.bin", "bin\n")

	if err := r.Add([]string{"."}); err != nil {
		t.Fatalf("Add(.): %v", err)
	}

	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	got := idx.Names()
	want := []string{IgnoreFileName, "src/main.go", "src/util/u.go"}
	if len(got) != len(want) {
		t.Fatalf("Names = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("Names = %v, want %v", got, want)
		}
	}
}

func TestAdd_ExecutableBit(t *testing.T) {
	r := initRepo(t)
	writeFile(t, r, "run.sh", "#!/bin/sh\n")
	if err := os.Chmod(filepath.Join(r.RootDir, "run.sh"), 0o755); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	if err := r.Add([]string{"run.sh"}); err != nil {
		t.Fatalf("Add: %v", err)
	}
	entries, _ := r.ListFiles()
	if entries[0].TreeMode() != object.TreeModeExecutable {
		t.Fatalf("TreeMode = %q", entries[0].TreeMode())
	}
}

func TestAdd_MissingAndOutside(t *testing.T) {
	r := initRepo(t)
	if err := r.Add([]string{"nope.txt"}); err == nil {
		t.Fatal("expected error for missing file")
	}
	outside := filepath.Join(filepath.Dir(r.RootDir), "elsewhere.txt")
	if err := r.Add([]string{outside}); !errors.Is(err, ErrOutsideRepository) {
		t.Fatalf("outside error = %v, want ErrOutsideRepository", err)
	}
}

func TestRemove(t *testing.T) {
	r := initRepoWithFile(t, "dir/a.txt", "a\n")
	writeFile(t, r, "b.txt", "b\n")
	if err := r.Add([]string{"b.txt"}); err != nil {
		t.Fatalf("Add: %v", err)
	}

	if err := r.Remove([]string{"b.txt"}, false); err != nil {
		t.Fatalf("Remove(keep): %v", err)
	}
	if !fileExists(r, "b.txt") {
		t.Error("Remove without deleteFiles removed the file")
	}

	if err := r.Remove([]string{"dir/a.txt"}, true); err != nil {
		t.Fatalf("Remove(delete): %v", err)
	}
	if fileExists(r, "dir/a.txt") || fileExists(r, "dir") {
		t.Error("file or its empty parent survived")
	}

	entries, _ := r.ListFiles()
	if len(entries) != 0 {
		t.Fatalf("entries = %v, want none", entries)
	}

	if err := r.Remove([]string{"b.txt"}, false); !errors.Is(err, ErrNotStaged) {
		t.Fatalf("Remove(untracked) = %v, want ErrNotStaged", err)
	}
}

func TestReadIndex_MissingIsEmpty(t *testing.T) {
	r := initRepo(t)
	idx, err := r.ReadIndex()
	if err != nil {
		t.Fatalf("ReadIndex: %v", err)
	}
	if len(idx.Entries) != 0 || idx.Truncated {
		t.Fatalf("index = %+v", idx)
	}
}
