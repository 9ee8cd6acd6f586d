package repo

import (
	"errors"
	"reflect"
	"testing"
)

func TestCreateBranch(t *testing.T) {
	r := initRepo(t)
	first := commitFiles(t, r, "first", map[string]string{"a.txt": "1\n"})
	second := commitFiles(t, r, "second", map[string]string{"a.txt": "2\n"})

	h, err := r.CreateBranch("at-head", "")
	if err != nil || h != second {
		t.Fatalf("CreateBranch(at-head) = %s, %v; want %s", h, err, second)
	}
	h, err = r.CreateBranch("at-first", string(first))
	if err != nil || h != first {
		t.Fatalf("CreateBranch(at-first) = %s, %v; want %s", h, err, first)
	}
	if _, err := r.CreateBranch("at-head", ""); err == nil {
		t.Fatal("duplicate branch created")
	}

	names, err := r.ListBranches()
	if err != nil {
		t.Fatalf("ListBranches: %v", err)
	}
	if want := []string{"at-first", "at-head", "master"}; !reflect.DeepEqual(names, want) {
		t.Fatalf("ListBranches = %v, want %v", names, want)
	}
}

func TestCreateBranch_NoCommits(t *testing.T) {
	r := initRepo(t)
	if _, err := r.CreateBranch("early", ""); !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("CreateBranch = %v, want ErrUnresolvedReference", err)
	}
}

func TestCreateBranch_InvalidNames(t *testing.T) {
	r := initRepo(t)
	commitFiles(t, r, "first", map[string]string{"a.txt": "1\n"})
	for _, name := range []string{"", "HEAD", "a..b", "trailing/", "/lead", "x.lock", "sp ace", "we~ird", "q?"} {
		if _, err := r.CreateBranch(name, ""); err == nil {
			t.Errorf("CreateBranch(%q) succeeded", name)
		}
	}
	if _, err := r.CreateBranch("feature/nested", ""); err != nil {
		t.Fatalf("nested name rejected: %v", err)
	}
}

func TestDeleteBranch(t *testing.T) {
	r := initRepo(t)
	commitFiles(t, r, "first", map[string]string{"a.txt": "1\n"})
	if _, err := r.CreateBranch("old", ""); err != nil {
		t.Fatalf("CreateBranch: %v", err)
	}

	if err := r.DeleteBranch("master"); err == nil {
		t.Fatal("deleted the current branch")
	}
	if err := r.DeleteBranch("old"); err != nil {
		t.Fatalf("DeleteBranch: %v", err)
	}
	if r.RefExists("refs/heads/old") {
		t.Fatal("branch still exists")
	}
	if err := r.DeleteBranch("old"); !errors.Is(err, ErrUnresolvedReference) {
		t.Fatalf("second delete = %v, want ErrUnresolvedReference", err)
	}
}

func TestCurrentBranch(t *testing.T) {
	r := initRepo(t)
	branch, err := r.CurrentBranch()
	if err != nil || branch != "master" {
		t.Fatalf("CurrentBranch = %q, %v", branch, err)
	}
}
