package object

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/klauspost/compress/zlib"
)

// Store is a content-addressed object store with a 2-character fan-out
// directory layout: objects/ab/cdef0123...
// Objects are zlib-compressed "type len\0content" envelopes.
type Store struct {
	root string
}

// NewStore creates a Store rooted at the given metadata directory. The
// objects/ subdirectory is created lazily on first write.
func NewStore(root string) *Store {
	return &Store{root: root}
}

// Root returns the metadata directory the store lives under.
func (s *Store) Root() string {
	return s.root
}

func (s *Store) objectsDir() string {
	return filepath.Join(s.root, "objects")
}

// objectPath returns the filesystem path for a given hash.
func (s *Store) objectPath(h Hash) string {
	return filepath.Join(s.objectsDir(), string(h[:2]), string(h[2:]))
}

// Has reports whether the store contains an object with the given hash.
func (s *Store) Has(h Hash) bool {
	if len(h) != HexSize {
		return false
	}
	_, err := os.Stat(s.objectPath(h))
	return err == nil
}

// Write stores an object and returns its content hash. Writing an object
// that already exists is a no-op. Data is compressed into a temp file in the
// shard directory and renamed into place, so a reader never observes a
// partial object.
func (s *Store) Write(objType ObjectType, data []byte) (Hash, error) {
	if !objType.Valid() {
		return "", fmt.Errorf("object write: kind %q: %w", objType, ErrUnknownFormat)
	}
	h := HashObject(objType, data)

	// Fast path: already exists.
	if s.Has(h) {
		return h, nil
	}

	dir := filepath.Join(s.objectsDir(), string(h[:2]))
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("object write mkdir: %w", err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return "", fmt.Errorf("object write tmpfile: %w", err)
	}
	tmpName := tmp.Name()

	zw := zlib.NewWriter(tmp)
	_, err = zw.Write(envelopeHeader(objType, len(data)))
	if err == nil {
		_, err = zw.Write(data)
	}
	if err == nil {
		err = zw.Close()
	}
	if err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return "", fmt.Errorf("object write: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write close: %w", err)
	}

	if err := os.Rename(tmpName, s.objectPath(h)); err != nil {
		os.Remove(tmpName)
		return "", fmt.Errorf("object write rename: %w", err)
	}
	return h, nil
}

// Read retrieves an object by hash, returning its type and raw content.
func (s *Store) Read(h Hash) (ObjectType, []byte, error) {
	if len(h) != HexSize || !IsHex(string(h)) {
		return "", nil, fmt.Errorf("object read %q: %w", h, ErrNotFound)
	}
	f, err := os.Open(s.objectPath(h))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return "", nil, fmt.Errorf("object read %s: %w", h, ErrNotFound)
		}
		return "", nil, fmt.Errorf("object read %s: %w", h, err)
	}
	defer f.Close()

	zr, err := zlib.NewReader(f)
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %v: %w", h, err, ErrCorruptObject)
	}
	raw, err := io.ReadAll(zr)
	if cerr := zr.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return "", nil, fmt.Errorf("object read %s: %v: %w", h, err, ErrCorruptObject)
	}
	return parseEnvelope(h, raw)
}

// parseEnvelope splits "type len\0content" and checks the declared length.
func parseEnvelope(h Hash, raw []byte) (ObjectType, []byte, error) {
	nulIdx := bytes.IndexByte(raw, 0)
	if nulIdx < 0 {
		return "", nil, fmt.Errorf("object read %s: no header terminator: %w", h, ErrCorruptObject)
	}
	header := string(raw[:nulIdx])
	content := raw[nulIdx+1:]

	kind, lenStr, ok := strings.Cut(header, " ")
	if !ok {
		return "", nil, fmt.Errorf("object read %s: invalid header %q: %w", h, header, ErrCorruptObject)
	}
	objType := ObjectType(kind)
	if !objType.Valid() {
		return "", nil, fmt.Errorf("object read %s: kind %q: %w", h, kind, ErrUnknownFormat)
	}
	length, err := strconv.Atoi(lenStr)
	if err != nil || length < 0 {
		return "", nil, fmt.Errorf("object read %s: invalid length %q: %w", h, lenStr, ErrCorruptObject)
	}
	if len(content) != length {
		return "", nil, fmt.Errorf("object read %s: length mismatch (header=%d, actual=%d): %w", h, length, len(content), ErrCorruptObject)
	}
	return objType, content, nil
}

// ReadObject reads and decodes an object of any kind.
func (s *Store) ReadObject(h Hash) (Object, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	obj, err := ParseObject(objType, data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return obj, nil
}

// WriteObject serializes and stores any object.
func (s *Store) WriteObject(obj Object) (Hash, error) {
	data, err := obj.Marshal()
	if err != nil {
		return "", fmt.Errorf("object marshal %s: %w", obj.Type(), err)
	}
	return s.Write(obj.Type(), data)
}

func (s *Store) readTyped(h Hash, want ObjectType) ([]byte, error) {
	objType, data, err := s.Read(h)
	if err != nil {
		return nil, err
	}
	if objType != want {
		return nil, fmt.Errorf("object %s: got %q, want %q: %w", h, objType, want, ErrTypeMismatch)
	}
	return data, nil
}

// ReadBlob reads a blob.
func (s *Store) ReadBlob(h Hash) (*Blob, error) {
	data, err := s.readTyped(h, TypeBlob)
	if err != nil {
		return nil, err
	}
	return &Blob{Data: data}, nil
}

// ReadTree reads and decodes a tree.
func (s *Store) ReadTree(h Hash) (*Tree, error) {
	data, err := s.readTyped(h, TypeTree)
	if err != nil {
		return nil, err
	}
	tr, err := ParseTree(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return tr, nil
}

// ReadCommit reads and decodes a commit.
func (s *Store) ReadCommit(h Hash) (*Commit, error) {
	data, err := s.readTyped(h, TypeCommit)
	if err != nil {
		return nil, err
	}
	c, err := ParseCommit(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return c, nil
}

// ReadTag reads and decodes an annotated tag.
func (s *Store) ReadTag(h Hash) (*Tag, error) {
	data, err := s.readTyped(h, TypeTag)
	if err != nil {
		return nil, err
	}
	t, err := ParseTag(data)
	if err != nil {
		return nil, fmt.Errorf("object %s: %w", h, err)
	}
	return t, nil
}

// WriteBlob stores raw bytes as a blob.
func (s *Store) WriteBlob(data []byte) (Hash, error) {
	return s.Write(TypeBlob, data)
}

// ListPrefix returns every stored hash starting with prefix, sorted. The
// prefix must be at least two hex characters so only one shard is scanned.
func (s *Store) ListPrefix(prefix string) ([]Hash, error) {
	prefix = strings.ToLower(prefix)
	if len(prefix) < 2 || len(prefix) > HexSize || !IsHex(prefix) {
		return nil, fmt.Errorf("object prefix %q: %w", prefix, ErrInvalidFormat)
	}
	shard := prefix[:2]
	entries, err := os.ReadDir(filepath.Join(s.objectsDir(), shard))
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("object prefix scan %s: %w", shard, err)
	}
	var out []Hash
	for _, e := range entries {
		if e.IsDir() || !isHexHashComponent(e.Name(), HexSize-2) {
			continue
		}
		h := Hash(shard + e.Name())
		if strings.HasPrefix(string(h), prefix) {
			out = append(out, h)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out, nil
}

// List returns every stored hash, sorted.
func (s *Store) List() ([]Hash, error) {
	shards, err := os.ReadDir(s.objectsDir())
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, nil
		}
		return nil, fmt.Errorf("object list: %w", err)
	}
	var out []Hash
	for _, shard := range shards {
		if !shard.IsDir() || !isHexHashComponent(shard.Name(), 2) {
			continue
		}
		hs, err := s.ListPrefix(shard.Name())
		if err != nil {
			return nil, err
		}
		out = append(out, hs...)
	}
	return out, nil
}

func isHexHashComponent(s string, expectedLen int) bool {
	return len(s) == expectedLen && IsHex(s) && strings.ToLower(s) == s
}

// Remove deletes a loose object. Removing a missing object is ErrNotFound.
func (s *Store) Remove(h Hash) error {
	if len(h) != HexSize {
		return fmt.Errorf("object remove %q: %w", h, ErrInvalidFormat)
	}
	if err := os.Remove(s.objectPath(h)); err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("object remove %s: %w", h, ErrNotFound)
		}
		return fmt.Errorf("object remove %s: %w", h, err)
	}
	// drop the shard directory once it is empty
	_ = os.Remove(filepath.Dir(s.objectPath(h)))
	return nil
}
