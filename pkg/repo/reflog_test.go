package repo

import (
	"os"
	"strings"
	"testing"
)

func TestReflog_RecordsMovesNewestFirst(t *testing.T) {
	r := initRepo(t)
	if err := r.SetConfigValue("user.name", "Ref Keeper"); err != nil {
		t.Fatalf("SetConfigValue: %v", err)
	}
	if err := r.SetConfigValue("user.email", "keeper@example.com"); err != nil {
		t.Fatalf("SetConfigValue: %v", err)
	}
	a, b := testHash(1), testHash(2)
	if err := r.UpdateRef("refs/heads/master", a); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	if err := r.UpdateRef("refs/heads/master", b, a); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}

	entries, err := r.ReadReflog("HEAD", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 2 {
		t.Fatalf("entries = %d, want 2", len(entries))
	}
	if entries[0].Old != a || entries[0].New != b {
		t.Errorf("newest = %+v", entries[0])
	}
	if entries[1].Old != "" || entries[1].New != a {
		t.Errorf("oldest = %+v, want creation from nothing", entries[1])
	}
	for _, e := range entries {
		if e.Ref != "refs/heads/master" {
			t.Errorf("Ref = %q", e.Ref)
		}
		if e.Committer.Name != "Ref Keeper" || e.Committer.Email != "keeper@example.com" {
			t.Errorf("Committer = %+v", e.Committer)
		}
		if e.Committer.When.IsZero() {
			t.Error("Committer.When not recorded")
		}
		if e.Message != "update" {
			t.Errorf("Message = %q", e.Message)
		}
	}

	limited, err := r.ReadReflog("master", 1)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(limited) != 1 || limited[0].New != b {
		t.Fatalf("limited = %+v", limited)
	}
}

func TestReflog_LineFormat(t *testing.T) {
	r := initRepo(t)
	if err := r.SetConfigValue("user.name", "A"); err != nil {
		t.Fatalf("SetConfigValue: %v", err)
	}
	if err := r.SetConfigValue("user.email", "a@x"); err != nil {
		t.Fatalf("SetConfigValue: %v", err)
	}
	h := testHash(3)
	if err := r.updateRef("refs/heads/topic", h, "branch: created\nfrom master"); err != nil {
		t.Fatalf("updateRef: %v", err)
	}

	data, err := os.ReadFile(r.reflogPath("refs/heads/topic"))
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	line := string(data)
	wantPrefix := string(nullHash) + " " + string(h) + " A <a@x> "
	if !strings.HasPrefix(line, wantPrefix) {
		t.Fatalf("line = %q, want prefix %q", line, wantPrefix)
	}
	if !strings.HasSuffix(line, "\tbranch: created from master\n") {
		t.Fatalf("line = %q, want single-line message after a tab", line)
	}
}

func TestReflog_SkipsMalformedLines(t *testing.T) {
	r := initRepo(t)
	h := testHash(4)
	if err := r.UpdateRef("refs/heads/master", h); err != nil {
		t.Fatalf("UpdateRef: %v", err)
	}
	f, err := os.OpenFile(r.reflogPath("refs/heads/master"), os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		t.Fatalf("open reflog: %v", err)
	}
	f.WriteString("not a reflog line\n")
	f.WriteString("zz " + string(h) + " A <a@x> 1 +0000\tbad old hash\n")
	f.Close()

	entries, err := r.ReadReflog("master", 0)
	if err != nil {
		t.Fatalf("ReadReflog: %v", err)
	}
	if len(entries) != 1 || entries[0].New != h {
		t.Fatalf("entries = %+v, want the one valid line", entries)
	}
}

func TestReflog_MissingIsEmpty(t *testing.T) {
	r := initRepo(t)
	entries, err := r.ReadReflog("refs/heads/none", 0)
	if err != nil || len(entries) != 0 {
		t.Fatalf("ReadReflog = %v, %v", entries, err)
	}
}
