package object

import (
	"bytes"
	"errors"
	"testing"
	"time"
)

func TestCommitRoundTrip(t *testing.T) {
	when := time.Unix(1700000000, 0).In(time.FixedZone("", 2*3600))
	author := NewIdentity("Jane Doe <jane@example.com>", when)
	c := NewCommit(hashB, []Hash{hashA}, author, author, "first line\n\nbody\n")

	raw, err := c.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	parsed, err := ParseCommit(raw)
	if err != nil {
		t.Fatalf("ParseCommit: %v", err)
	}
	if parsed.TreeHash() != hashB {
		t.Errorf("tree: got %s", parsed.TreeHash())
	}
	if ps := parsed.Parents(); len(ps) != 1 || ps[0] != hashA {
		t.Errorf("parents: got %v", ps)
	}
	if parsed.Summary() != "first line" {
		t.Errorf("summary: got %q", parsed.Summary())
	}
	again, err := parsed.Marshal()
	if err != nil {
		t.Fatalf("Marshal again: %v", err)
	}
	if !bytes.Equal(raw, again) {
		t.Fatal("commit did not re-serialize byte for byte")
	}

	got, err := parsed.Author()
	if err != nil {
		t.Fatalf("Author: %v", err)
	}
	if got.Name != "Jane Doe" || got.Email != "jane@example.com" || got.When.Unix() != 1700000000 {
		t.Fatalf("author: got %+v", got)
	}
	if FormatTimezone(got.When) != "+0200" {
		t.Fatalf("timezone: got %s", FormatTimezone(got.When))
	}
}

func TestIdentityString(t *testing.T) {
	when := time.Unix(1527025023, 0).In(time.FixedZone("", -(5*3600 + 30*60)))
	id := Identity{Name: "A", Email: "a@b", When: when}
	if got := id.String(); got != "A <a@b> 1527025023 -0530" {
		t.Fatalf("String: got %q", got)
	}
}

func TestParseCommitRequiresTree(t *testing.T) {
	if _, err := ParseCommit([]byte("author x <y> 1 +0000\n\nmsg")); !errors.Is(err, ErrInvalidFormat) {
		t.Fatalf("got %v, want ErrInvalidFormat", err)
	}
}

func TestTagAccessors(t *testing.T) {
	tag := NewTag(hashA, TypeCommit, "v1.0", NewIdentity("T <t@x>", time.Unix(1, 0).UTC()), "release\n")
	raw, err := tag.Marshal()
	if err != nil {
		t.Fatalf("Marshal: %v", err)
	}
	parsed, err := ParseTag(raw)
	if err != nil {
		t.Fatalf("ParseTag: %v", err)
	}
	if parsed.Target() != hashA || parsed.TargetType() != TypeCommit || parsed.Name() != "v1.0" {
		t.Fatalf("tag: got %+v", parsed.Fields)
	}
}

func TestParseObjectUnknownKind(t *testing.T) {
	if _, err := ParseObject("widget", nil); !errors.Is(err, ErrUnknownFormat) {
		t.Fatalf("got %v, want ErrUnknownFormat", err)
	}
}
