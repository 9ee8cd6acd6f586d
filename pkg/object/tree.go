package object

import (
	"bytes"
	"fmt"
	"sort"
)

// ParseTree decodes "{mode} {name}\0{20 raw bytes}" records. Five-digit
// modes are normalized to six digits.
func ParseTree(data []byte) (*Tree, error) {
	tr := &Tree{}
	pos := 0
	for pos < len(data) {
		sp := bytes.IndexByte(data[pos:], ' ')
		if sp < 0 {
			return nil, fmt.Errorf("tree entry at %d: missing mode separator: %w", pos, ErrInvalidFormat)
		}
		mode, err := normalizeMode(string(data[pos : pos+sp]))
		if err != nil {
			return nil, fmt.Errorf("tree entry at %d: %w", pos, err)
		}
		pos += sp + 1

		nul := bytes.IndexByte(data[pos:], 0)
		if nul < 0 {
			return nil, fmt.Errorf("tree entry at %d: missing name terminator: %w", pos, ErrInvalidFormat)
		}
		name := string(data[pos : pos+nul])
		pos += nul + 1

		if pos+HashSize > len(data) {
			return nil, fmt.Errorf("tree entry %q: truncated hash: %w", name, ErrInvalidFormat)
		}
		h, err := HashFromBytes(data[pos : pos+HashSize])
		if err != nil {
			return nil, err
		}
		pos += HashSize

		tr.Entries = append(tr.Entries, TreeEntry{Mode: mode, Name: name, Hash: h})
	}
	return tr, nil
}

func normalizeMode(mode string) (string, error) {
	if len(mode) != 5 && len(mode) != 6 {
		return "", fmt.Errorf("mode %q: %w", mode, ErrInvalidFormat)
	}
	for i := 0; i < len(mode); i++ {
		if mode[i] < '0' || mode[i] > '7' {
			return "", fmt.Errorf("mode %q: %w", mode, ErrInvalidFormat)
		}
	}
	if len(mode) == 5 {
		mode = "0" + mode
	}
	return mode, nil
}

// treeSortKey orders directories as if their name carried a trailing slash.
func treeSortKey(e TreeEntry) string {
	if e.IsDir() {
		return e.Name + "/"
	}
	return e.Name
}

// SortTreeEntries sorts entries into canonical serialization order in place.
func SortTreeEntries(entries []TreeEntry) {
	sort.SliceStable(entries, func(i, j int) bool {
		return treeSortKey(entries[i]) < treeSortKey(entries[j])
	})
}

// Marshal serializes the tree in canonical order. The receiver is not
// reordered.
func (t *Tree) Marshal() ([]byte, error) {
	sorted := make([]TreeEntry, len(t.Entries))
	copy(sorted, t.Entries)
	SortTreeEntries(sorted)

	var buf bytes.Buffer
	seen := make(map[string]struct{}, len(sorted))
	for _, e := range sorted {
		if e.Name == "" || bytes.ContainsAny([]byte(e.Name), "/\x00") {
			return nil, fmt.Errorf("tree entry name %q: %w", e.Name, ErrInvalidFormat)
		}
		if _, dup := seen[e.Name]; dup {
			return nil, fmt.Errorf("tree entry %q: duplicate name: %w", e.Name, ErrInvalidFormat)
		}
		seen[e.Name] = struct{}{}

		mode, err := normalizeMode(e.Mode)
		if err != nil {
			return nil, fmt.Errorf("tree entry %q: %w", e.Name, err)
		}
		raw, err := e.Hash.Bytes()
		if err != nil {
			return nil, fmt.Errorf("tree entry %q: %w", e.Name, err)
		}
		buf.WriteString(mode)
		buf.WriteByte(' ')
		buf.WriteString(e.Name)
		buf.WriteByte(0)
		buf.Write(raw)
	}
	return buf.Bytes(), nil
}

// Lookup returns the entry with the given name.
func (t *Tree) Lookup(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}
