package object

import (
	"bytes"
	"compress/zlib"
	"errors"
	"os"
	"path/filepath"
	"testing"
)

func tempStore(t *testing.T) *Store {
	t.Helper()
	dir := t.TempDir()
	return NewStore(dir)
}

func TestHashObjectKnownBlob(t *testing.T) {
	h := HashObject(TypeBlob, []byte("hello\n"))
	if h != "ce013625030ba8dba906f756967f9e9ca394464a" {
		t.Fatalf("HashObject: got %s", h)
	}
}

func TestHashObjectTypeMatters(t *testing.T) {
	data := []byte("hello")
	if HashObject(TypeBlob, data) == HashObject(TypeTree, data) {
		t.Error("different kinds should produce different hashes")
	}
}

func TestStoreWriteReadHello(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("hello\n"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	if h != "ce013625030ba8dba906f756967f9e9ca394464a" {
		t.Fatalf("hash: got %s", h)
	}
	objPath := filepath.Join(s.Root(), "objects", "ce", "013625030ba8dba906f756967f9e9ca394464a")
	if _, err := os.Stat(objPath); err != nil {
		t.Fatalf("expected fan-out file at %s: %v", objPath, err)
	}

	gotType, gotData, err := s.Read(h)
	if err != nil {
		t.Fatalf("Read: %v", err)
	}
	if gotType != TypeBlob {
		t.Errorf("Type: got %q, want %q", gotType, TypeBlob)
	}
	if !bytes.Equal(gotData, []byte("hello\n")) {
		t.Errorf("Data: got %q", gotData)
	}
}

func TestStoreFileIsZlibEnvelope(t *testing.T) {
	s := tempStore(t)
	h, err := s.Write(TypeBlob, []byte("abc"))
	if err != nil {
		t.Fatalf("Write: %v", err)
	}
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	defer f.Close()
	zr, err := zlib.NewReader(f)
	if err != nil {
		t.Fatalf("stdlib zlib reader: %v", err)
	}
	var buf bytes.Buffer
	if _, err := buf.ReadFrom(zr); err != nil {
		t.Fatalf("inflate: %v", err)
	}
	if buf.String() != "blob 3\x00abc" {
		t.Fatalf("envelope: got %q", buf.String())
	}
}

func TestStoreDuplicateWriteIsNoop(t *testing.T) {
	s := tempStore(t)
	h1, err := s.Write(TypeBlob, []byte("duplicate"))
	if err != nil {
		t.Fatalf("Write 1: %v", err)
	}
	info1, err := os.Stat(s.objectPath(h1))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	h2, err := s.Write(TypeBlob, []byte("duplicate"))
	if err != nil {
		t.Fatalf("Write 2: %v", err)
	}
	if h1 != h2 {
		t.Errorf("same content produced different hashes: %q vs %q", h1, h2)
	}
	info2, err := os.Stat(s.objectPath(h2))
	if err != nil {
		t.Fatalf("stat: %v", err)
	}
	if !info1.ModTime().Equal(info2.ModTime()) {
		t.Error("second write rewrote the object file")
	}
}

func TestStoreReadMissing(t *testing.T) {
	s := tempStore(t)
	_, _, err := s.Read(Hash("0000000000000000000000000000000000000000"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("Read missing: got %v, want ErrNotFound", err)
	}
}

func writeRawObject(t *testing.T, s *Store, h Hash, raw []byte) {
	t.Helper()
	dir := filepath.Join(s.Root(), "objects", string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		t.Fatal(err)
	}
	var buf bytes.Buffer
	zw := zlib.NewWriter(&buf)
	zw.Write(raw)
	zw.Close()
	if err := os.WriteFile(s.objectPath(h), buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
}

func TestStoreReadLengthMismatch(t *testing.T) {
	s := tempStore(t)
	h := Hash("1111111111111111111111111111111111111111")
	writeRawObject(t, s, h, []byte("blob 10\x00short"))
	_, _, err := s.Read(h)
	if !errors.Is(err, ErrCorruptObject) {
		t.Fatalf("got %v, want ErrCorruptObject", err)
	}
}

func TestStoreReadUnknownKind(t *testing.T) {
	s := tempStore(t)
	h := Hash("2222222222222222222222222222222222222222")
	writeRawObject(t, s, h, []byte("widget 3\x00abc"))
	_, _, err := s.Read(h)
	if !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("got %v, want ErrUnknownFormat", err)
	}
}

func TestStoreReadNotCompressed(t *testing.T) {
	s := tempStore(t)
	h := Hash("3333333333333333333333333333333333333333")
	if err := os.MkdirAll(filepath.Dir(s.objectPath(h)), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(s.objectPath(h), []byte("blob 3\x00abc"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, _, err := s.Read(h)
	if !errors.Is(err, ErrCorruptObject) {
		t.Fatalf("got %v, want ErrCorruptObject", err)
	}
}

func TestStoreTypedReadMismatch(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob([]byte("not a tree"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.ReadTree(h); !errors.Is(err, ErrTypeMismatch) {
		t.Fatalf("ReadTree on blob: got %v, want ErrTypeMismatch", err)
	}
}

func TestStoreWriteObjectRoundTrip(t *testing.T) {
	s := tempStore(t)
	blobHash, err := s.WriteBlob([]byte("content"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	tree := &Tree{Entries: []TreeEntry{{Mode: TreeModeFile, Name: "a.txt", Hash: blobHash}}}
	treeHash, err := s.WriteObject(tree)
	if err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	obj, err := s.ReadObject(treeHash)
	if err != nil {
		t.Fatalf("ReadObject: %v", err)
	}
	got, ok := obj.(*Tree)
	if !ok {
		t.Fatalf("ReadObject: got %T, want *Tree", obj)
	}
	if len(got.Entries) != 1 || got.Entries[0] != tree.Entries[0] {
		t.Fatalf("tree round-trip: got %+v", got.Entries)
	}
}

func TestStoreListPrefix(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob([]byte("hello\n"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	got, err := s.ListPrefix("ce01")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(got) != 1 || got[0] != h {
		t.Fatalf("ListPrefix: got %v", got)
	}
	got, err = s.ListPrefix("ce02")
	if err != nil {
		t.Fatalf("ListPrefix: %v", err)
	}
	if len(got) != 0 {
		t.Fatalf("ListPrefix non-matching: got %v", got)
	}
	if _, err := s.ListPrefix("c"); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("ListPrefix short: got %v", err)
	}
}

func TestStoreWriteLeavesNoTempFiles(t *testing.T) {
	s := tempStore(t)
	h, err := s.WriteBlob([]byte("x"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	entries, err := os.ReadDir(filepath.Dir(s.objectPath(h)))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("shard dir: got %d entries, want 1", len(entries))
	}
}
