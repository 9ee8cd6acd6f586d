package repo

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/odvcencio/pal/pkg/logging"
	"github.com/odvcencio/pal/pkg/object"
)

func initRepo(t *testing.T) *Repo {
	t.Helper()
	r, err := Init(t.TempDir())
	if err != nil {
		t.Fatalf("Init: %v", err)
	}
	r.SetLogger(logging.Discard())
	return r
}

func writeFile(t *testing.T, r *Repo, name, content string) {
	t.Helper()
	p := filepath.Join(r.RootDir, filepath.FromSlash(name))
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(p, []byte(content), 0o644); err != nil {
		t.Fatalf("write %s: %v", name, err)
	}
}

func readFile(t *testing.T, r *Repo, name string) string {
	t.Helper()
	data, err := os.ReadFile(filepath.Join(r.RootDir, filepath.FromSlash(name)))
	if err != nil {
		t.Fatalf("read %s: %v", name, err)
	}
	return string(data)
}

func fileExists(r *Repo, name string) bool {
	_, err := os.Lstat(filepath.Join(r.RootDir, filepath.FromSlash(name)))
	return err == nil
}

// initRepoWithFile creates a repo with one file written and staged.
func initRepoWithFile(t *testing.T, name, content string) *Repo {
	t.Helper()
	r := initRepo(t)
	writeFile(t, r, name, content)
	if err := r.Add([]string{name}); err != nil {
		t.Fatalf("Add(%s): %v", name, err)
	}
	return r
}

// commitFiles writes, stages and commits the given files.
func commitFiles(t *testing.T, r *Repo, msg string, files map[string]string) object.Hash {
	t.Helper()
	var paths []string
	for name, content := range files {
		writeFile(t, r, name, content)
		paths = append(paths, name)
	}
	if err := r.Add(paths); err != nil {
		t.Fatalf("Add: %v", err)
	}
	h, err := r.Commit(msg, "Test <test@example.com>")
	if err != nil {
		t.Fatalf("Commit(%q): %v", msg, err)
	}
	return h
}

// writeCommitObject stores a commit over the empty tree without touching
// any ref.
func writeCommitObject(t *testing.T, r *Repo, msg string, parents ...object.Hash) object.Hash {
	t.Helper()
	tree, err := r.BuildTree(nil)
	if err != nil {
		t.Fatalf("BuildTree: %v", err)
	}
	id := object.NewIdentity("Test <test@example.com>", time.Unix(1700000000, 0).UTC())
	h, err := r.Store.WriteObject(object.NewCommit(tree, parents, id, id, msg))
	if err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	return h
}

func blobHash(t *testing.T, r *Repo, content string) object.Hash {
	t.Helper()
	h, err := r.Store.WriteBlob([]byte(content))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	return h
}
