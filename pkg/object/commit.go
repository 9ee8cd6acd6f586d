package object

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Identity is a parsed "Name <email> {unix} {+hhmm}" author line.
type Identity struct {
	Name  string
	Email string
	When  time.Time
}

// NewIdentity splits a "Name <email>" string. A bare name gets an empty
// email.
func NewIdentity(who string, when time.Time) Identity {
	who = strings.TrimSpace(who)
	id := Identity{Name: who, When: when}
	if lt := strings.IndexByte(who, '<'); lt >= 0 {
		if gt := strings.IndexByte(who[lt:], '>'); gt > 0 {
			id.Name = strings.TrimSpace(who[:lt])
			id.Email = who[lt+1 : lt+gt]
		}
	}
	return id
}

// String renders the identity line stored in commit and tag headers.
func (id Identity) String() string {
	return fmt.Sprintf("%s <%s> %d %s", id.Name, id.Email, id.When.Unix(), FormatTimezone(id.When))
}

// ParseIdentity parses an identity header. The timestamp and zone are
// optional so hand-written headers still load.
func ParseIdentity(s string) (Identity, error) {
	lt := strings.IndexByte(s, '<')
	gt := strings.LastIndexByte(s, '>')
	if lt < 0 || gt < lt {
		return Identity{}, fmt.Errorf("identity %q: %w", s, ErrInvalidFormat)
	}
	id := Identity{
		Name:  strings.TrimSpace(s[:lt]),
		Email: s[lt+1 : gt],
	}
	rest := strings.Fields(s[gt+1:])
	if len(rest) == 0 {
		return id, nil
	}
	secs, err := strconv.ParseInt(rest[0], 10, 64)
	if err != nil {
		return Identity{}, fmt.Errorf("identity %q: bad timestamp: %w", s, ErrInvalidFormat)
	}
	loc := time.UTC
	if len(rest) > 1 {
		loc, err = parseTimezone(rest[1])
		if err != nil {
			return Identity{}, fmt.Errorf("identity %q: %w", s, err)
		}
	}
	id.When = time.Unix(secs, 0).In(loc)
	return id, nil
}

// FormatTimezone renders the zone offset of t as +hhmm / -hhmm.
func FormatTimezone(t time.Time) string {
	_, offset := t.Zone()
	sign := '+'
	if offset < 0 {
		sign = '-'
		offset = -offset
	}
	return fmt.Sprintf("%c%02d%02d", sign, offset/3600, (offset%3600)/60)
}

func parseTimezone(s string) (*time.Location, error) {
	if len(s) != 5 || (s[0] != '+' && s[0] != '-') {
		return nil, fmt.Errorf("timezone %q: %w", s, ErrInvalidFormat)
	}
	hh, err1 := strconv.Atoi(s[1:3])
	mm, err2 := strconv.Atoi(s[3:5])
	if err1 != nil || err2 != nil {
		return nil, fmt.Errorf("timezone %q: %w", s, ErrInvalidFormat)
	}
	offset := hh*3600 + mm*60
	if s[0] == '-' {
		offset = -offset
	}
	return time.FixedZone(s, offset), nil
}

// NewCommit assembles a commit with headers in the canonical order.
func NewCommit(tree Hash, parents []Hash, author, committer Identity, message string) *Commit {
	c := &Commit{}
	c.Add("tree", string(tree))
	for _, p := range parents {
		c.Add("parent", string(p))
	}
	c.Add("author", author.String())
	c.Add("committer", committer.String())
	c.Message = message
	return c
}

// ParseCommit decodes a commit payload. A tree header is required.
func ParseCommit(data []byte) (*Commit, error) {
	kv, err := ParseKVLM(data)
	if err != nil {
		return nil, fmt.Errorf("commit: %w", err)
	}
	c := &Commit{KVLM: *kv}
	if _, ok := c.Get("tree"); !ok {
		return nil, fmt.Errorf("commit: missing tree header: %w", ErrInvalidFormat)
	}
	return c, nil
}

// TreeHash returns the root tree of the snapshot.
func (c *Commit) TreeHash() Hash {
	v, _ := c.Get("tree")
	return Hash(v)
}

// Parents returns parent commit hashes in header order. The first is the
// first parent.
func (c *Commit) Parents() []Hash {
	vals := c.GetAll("parent")
	out := make([]Hash, 0, len(vals))
	for _, v := range vals {
		out = append(out, Hash(v))
	}
	return out
}

// Author returns the parsed author header.
func (c *Commit) Author() (Identity, error) {
	v, ok := c.Get("author")
	if !ok {
		return Identity{}, fmt.Errorf("commit: missing author: %w", ErrInvalidFormat)
	}
	return ParseIdentity(v)
}

// Committer returns the parsed committer header.
func (c *Commit) Committer() (Identity, error) {
	v, ok := c.Get("committer")
	if !ok {
		return Identity{}, fmt.Errorf("commit: missing committer: %w", ErrInvalidFormat)
	}
	return ParseIdentity(v)
}

// Signature returns the armored SSH signature, if any.
func (c *Commit) Signature() string {
	v, _ := c.Get(SignatureKey)
	return v
}

// Summary is the first line of the message.
func (c *Commit) Summary() string {
	line, _, _ := strings.Cut(c.Message, "\n")
	return line
}

// NewTag assembles an annotated tag.
func NewTag(target Hash, targetType ObjectType, name string, tagger Identity, message string) *Tag {
	t := &Tag{}
	t.Add("object", string(target))
	t.Add("type", string(targetType))
	t.Add("tag", name)
	t.Add("tagger", tagger.String())
	t.Message = message
	return t
}

// ParseTag decodes a tag payload. An object header is required.
func ParseTag(data []byte) (*Tag, error) {
	kv, err := ParseKVLM(data)
	if err != nil {
		return nil, fmt.Errorf("tag: %w", err)
	}
	t := &Tag{KVLM: *kv}
	if _, ok := t.Get("object"); !ok {
		return nil, fmt.Errorf("tag: missing object header: %w", ErrInvalidFormat)
	}
	return t, nil
}

// Target returns the tagged object hash.
func (t *Tag) Target() Hash {
	v, _ := t.Get("object")
	return Hash(v)
}

// TargetType returns the declared kind of the tagged object.
func (t *Tag) TargetType() ObjectType {
	v, _ := t.Get("type")
	return ObjectType(v)
}

// Name returns the tag name header.
func (t *Tag) Name() string {
	v, _ := t.Get("tag")
	return v
}

// ParseObject decodes a payload of the given kind.
func ParseObject(objType ObjectType, data []byte) (Object, error) {
	switch objType {
	case TypeBlob:
		out := make([]byte, len(data))
		copy(out, data)
		return &Blob{Data: out}, nil
	case TypeTree:
		return ParseTree(data)
	case TypeCommit:
		return ParseCommit(data)
	case TypeTag:
		return ParseTag(data)
	default:
		return nil, fmt.Errorf("object kind %q: %w", objType, ErrUnknownFormat)
	}
}
