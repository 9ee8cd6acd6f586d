package object

import (
	"errors"
	"testing"
)

func TestVerifyCleanStore(t *testing.T) {
	s := tempStore(t)
	blob, err := s.WriteBlob([]byte("data"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	if _, err := s.WriteObject(&Tree{Entries: []TreeEntry{{Mode: TreeModeFile, Name: "f", Hash: blob}}}); err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	sum, err := s.Verify()
	if err != nil {
		t.Fatalf("Verify: %v", err)
	}
	if sum.Objects != 2 || sum.ByType[TypeBlob] != 1 || sum.ByType[TypeTree] != 1 {
		t.Fatalf("summary: %+v", sum)
	}
}

func TestVerifyCollectsEveryFailure(t *testing.T) {
	s := tempStore(t)
	if _, err := s.WriteBlob([]byte("good")); err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	// Content does not hash to the file name.
	writeRawObject(t, s, Hash("1111111111111111111111111111111111111111"), []byte("blob 1\x00x"))
	writeRawObject(t, s, Hash("2222222222222222222222222222222222222222"), []byte("blob 9\x00x"))

	sum, err := s.Verify()
	if err == nil {
		t.Fatal("Verify should fail")
	}
	if !errors.Is(err, ErrCorruptObject) {
		t.Fatalf("got %v, want ErrCorruptObject", err)
	}
	if len(sum.Bad) != 2 || sum.Objects != 3 {
		t.Fatalf("summary: %+v", sum)
	}
}

func TestReachableSetReportsMissing(t *testing.T) {
	s := tempStore(t)
	blob, err := s.WriteBlob([]byte("data"))
	if err != nil {
		t.Fatalf("WriteBlob: %v", err)
	}
	tree, err := s.WriteObject(&Tree{Entries: []TreeEntry{
		{Mode: TreeModeFile, Name: "present", Hash: blob},
		{Mode: TreeModeFile, Name: "absent", Hash: hashA},
	}})
	if err != nil {
		t.Fatalf("WriteObject: %v", err)
	}
	reach, missing, err := s.ReachableSet([]Hash{tree})
	if err != nil {
		t.Fatalf("ReachableSet: %v", err)
	}
	if _, ok := reach[blob]; !ok || len(reach) != 2 {
		t.Fatalf("reachable: %v", reach)
	}
	if len(missing) != 1 || missing[0] != hashA {
		t.Fatalf("missing: %v", missing)
	}
}
