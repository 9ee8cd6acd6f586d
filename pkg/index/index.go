// Package index implements the binary staging-area format: a "DIRC"
// version 2 file of fixed-width big-endian records, one per tracked path.
package index

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"sort"

	"github.com/odvcencio/pal/pkg/object"
)

const (
	signature = "DIRC"
	// Version is the only supported index version.
	Version = 2

	headerSize = 12
	// fixedEntrySize covers ten uint32 fields, the raw hash and the flags.
	fixedEntrySize = 40 + object.HashSize + 2

	flagAssumeValid = 1 << 15
	flagStage       = 1 << 12
	nameLenMask     = 0xFFF
)

// Mode type nibbles stored in the upper bits of the mode word.
const (
	ModeTypeRegular = 0b1000
	ModeTypeSymlink = 0b1010
	ModeTypeGitlink = 0b1110
)

// ErrInvalidFormat is returned for a bad signature, an unsupported version
// or a header that is too short. It matches object.ErrInvalidFormat.
var ErrInvalidFormat = fmt.Errorf("index: %w", object.ErrInvalidFormat)

// Timestamp is a seconds/nanoseconds pair as stored on disk.
type Timestamp struct {
	Seconds     uint32
	Nanoseconds uint32
}

// Entry is one staged path with the stat metadata captured when it was
// added.
type Entry struct {
	CTime       Timestamp
	MTime       Timestamp
	Dev         uint32
	Ino         uint32
	ModeType    uint32
	ModePerms   uint32
	UID         uint32
	GID         uint32
	Size        uint32
	Hash        object.Hash
	AssumeValid bool
	Stage       bool
	Name        string
}

// TreeMode renders the entry mode as a tree mode string, e.g. "100644".
func (e *Entry) TreeMode() string {
	return fmt.Sprintf("%02o%04o", e.ModeType, e.ModePerms)
}

// Index is an ordered list of entries. Truncated is set when the file held
// a record that could not be parsed; the entries before it are kept.
type Index struct {
	Version   uint32
	Entries   []Entry
	Truncated bool
}

// New returns an empty version 2 index.
func New() *Index {
	return &Index{Version: Version}
}

// Decode parses an index file.
func Decode(data []byte) (*Index, error) {
	if len(data) < headerSize {
		return nil, fmt.Errorf("%w: header too short (%d bytes)", ErrInvalidFormat, len(data))
	}
	if string(data[:4]) != signature {
		return nil, fmt.Errorf("%w: bad signature %q", ErrInvalidFormat, data[:4])
	}
	version := binary.BigEndian.Uint32(data[4:8])
	if version != Version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrInvalidFormat, version)
	}
	count := binary.BigEndian.Uint32(data[8:12])

	idx := &Index{Version: version}
	offset := headerSize
	for i := uint32(0); i < count; i++ {
		e, next, ok := decodeEntry(data, offset)
		if !ok {
			idx.Truncated = true
			break
		}
		idx.Entries = append(idx.Entries, e)
		offset = next
	}
	return idx, nil
}

// decodeEntry parses the record at offset and returns the offset of the
// next one.
func decodeEntry(data []byte, offset int) (Entry, int, bool) {
	if offset+fixedEntrySize > len(data) {
		return Entry{}, 0, false
	}
	u32 := func(field int) uint32 {
		return binary.BigEndian.Uint32(data[offset+4*field:])
	}
	mode := u32(6)
	e := Entry{
		CTime:     Timestamp{Seconds: u32(0), Nanoseconds: u32(1)},
		MTime:     Timestamp{Seconds: u32(2), Nanoseconds: u32(3)},
		Dev:       u32(4),
		Ino:       u32(5),
		ModeType:  mode >> 12,
		ModePerms: mode & 0xFFF,
		UID:       u32(7),
		GID:       u32(8),
		Size:      u32(9),
	}
	h, err := object.HashFromBytes(data[offset+40 : offset+40+object.HashSize])
	if err != nil {
		return Entry{}, 0, false
	}
	e.Hash = h
	flags := binary.BigEndian.Uint16(data[offset+60:])
	e.AssumeValid = flags&flagAssumeValid != 0
	e.Stage = flags&flagStage != 0

	nameStart := offset + fixedEntrySize
	nameLen := int(flags & nameLenMask)
	if nameLen == nameLenMask {
		// The stored length is clamped; the NUL terminator is authoritative.
		nul := bytes.IndexByte(data[nameStart:], 0)
		if nul < 0 {
			return Entry{}, 0, false
		}
		nameLen = nul
	}
	if nameStart+nameLen+1 > len(data) || data[nameStart+nameLen] != 0 {
		return Entry{}, 0, false
	}
	e.Name = string(data[nameStart : nameStart+nameLen])

	return e, offset + paddedEntrySize(nameLen), true
}

// paddedEntrySize rounds the record plus its NUL up to a multiple of 8.
func paddedEntrySize(nameLen int) int {
	n := fixedEntrySize + nameLen + 1
	return (n + 7) &^ 7
}

// Encode serializes the index. Decode(Encode(x)) reproduces x exactly.
func (idx *Index) Encode() ([]byte, error) {
	buf := make([]byte, 0, headerSize+len(idx.Entries)*(fixedEntrySize+32))
	buf = append(buf, signature...)
	buf = binary.BigEndian.AppendUint32(buf, Version)
	buf = binary.BigEndian.AppendUint32(buf, uint32(len(idx.Entries)))

	for i := range idx.Entries {
		e := &idx.Entries[i]
		raw, err := e.Hash.Bytes()
		if err != nil {
			return nil, fmt.Errorf("index entry %q: %w", e.Name, err)
		}
		if bytes.IndexByte([]byte(e.Name), 0) >= 0 {
			return nil, fmt.Errorf("%w: entry name %q contains NUL", ErrInvalidFormat, e.Name)
		}
		start := len(buf)
		for _, v := range []uint32{
			e.CTime.Seconds, e.CTime.Nanoseconds,
			e.MTime.Seconds, e.MTime.Nanoseconds,
			e.Dev, e.Ino,
			e.ModeType<<12 | e.ModePerms&0xFFF,
			e.UID, e.GID, e.Size,
		} {
			buf = binary.BigEndian.AppendUint32(buf, v)
		}
		buf = append(buf, raw...)

		nameLen := len(e.Name)
		if nameLen > nameLenMask {
			nameLen = nameLenMask
		}
		flags := uint16(nameLen)
		if e.AssumeValid {
			flags |= flagAssumeValid
		}
		if e.Stage {
			flags |= flagStage
		}
		buf = binary.BigEndian.AppendUint16(buf, flags)
		buf = append(buf, e.Name...)
		buf = append(buf, 0)

		for len(buf)-start < paddedEntrySize(len(e.Name)) {
			buf = append(buf, 0)
		}
	}
	return buf, nil
}

// Find returns the position of the entry named name.
func (idx *Index) Find(name string) (int, bool) {
	for i := range idx.Entries {
		if idx.Entries[i].Name == name {
			return i, true
		}
	}
	return -1, false
}

// Get returns the entry named name.
func (idx *Index) Get(name string) (Entry, bool) {
	if i, ok := idx.Find(name); ok {
		return idx.Entries[i], true
	}
	return Entry{}, false
}

// Put replaces the entry with the same name or appends a new one, then
// keeps entries sorted by name.
func (idx *Index) Put(e Entry) {
	if i, ok := idx.Find(e.Name); ok {
		idx.Entries[i] = e
		return
	}
	idx.Entries = append(idx.Entries, e)
	idx.Sort()
}

// Remove drops the entry named name and reports whether it existed.
func (idx *Index) Remove(name string) bool {
	i, ok := idx.Find(name)
	if !ok {
		return false
	}
	idx.Entries = append(idx.Entries[:i], idx.Entries[i+1:]...)
	return true
}

// Sort orders entries by name.
func (idx *Index) Sort() {
	sort.SliceStable(idx.Entries, func(i, j int) bool {
		return idx.Entries[i].Name < idx.Entries[j].Name
	})
}

// Names returns the staged paths in index order.
func (idx *Index) Names() []string {
	out := make([]string, 0, len(idx.Entries))
	for i := range idx.Entries {
		out = append(out, idx.Entries[i].Name)
	}
	return out
}
