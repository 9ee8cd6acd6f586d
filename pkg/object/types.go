package object

// Hash is a 40-character lowercase hex-encoded SHA-1 digest.
type Hash string

// ObjectType identifies the kind of object stored.
type ObjectType string

const (
	TypeBlob   ObjectType = "blob"
	TypeTree   ObjectType = "tree"
	TypeCommit ObjectType = "commit"
	TypeTag    ObjectType = "tag"
)

// Valid reports whether t is one of the four known object kinds.
func (t ObjectType) Valid() bool {
	switch t {
	case TypeBlob, TypeTree, TypeCommit, TypeTag:
		return true
	}
	return false
}

const (
	// Tree mode strings. Directories always carry the 6-digit form.
	TreeModeFile       = "100644"
	TreeModeExecutable = "100755"
	TreeModeSymlink    = "120000"
	TreeModeDir        = "040000"
)

// Object is implemented by *Blob, *Tree, *Commit and *Tag. The set is
// closed; callers dispatch with a type switch.
type Object interface {
	Type() ObjectType
	Marshal() ([]byte, error)
	object()
}

// Blob holds raw file data.
type Blob struct {
	Data []byte
}

func (*Blob) Type() ObjectType { return TypeBlob }
func (*Blob) object()          {}

// Marshal returns a copy of the blob bytes.
func (b *Blob) Marshal() ([]byte, error) {
	out := make([]byte, len(b.Data))
	copy(out, b.Data)
	return out, nil
}

// TreeEntry is one entry in a tree object.
type TreeEntry struct {
	Mode string
	Name string
	Hash Hash
}

// IsDir reports whether the entry references a subtree.
func (e TreeEntry) IsDir() bool {
	return e.Mode == TreeModeDir
}

// Tree is a single directory level. Entries are kept in the order they were
// parsed or appended; Marshal emits them in canonical order.
type Tree struct {
	Entries []TreeEntry
}

func (*Tree) Type() ObjectType { return TypeTree }
func (*Tree) object()          {}

// Commit is a snapshot pointer with history. Header order is preserved
// exactly as read, so a parsed commit re-serializes to identical bytes.
type Commit struct {
	KVLM
}

func (*Commit) Type() ObjectType { return TypeCommit }
func (*Commit) object()          {}

// Tag is an annotated tag pointing at another object.
type Tag struct {
	KVLM
}

func (*Tag) Type() ObjectType { return TypeTag }
func (*Tag) object()          {}
