package index

import (
	"encoding/binary"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/odvcencio/pal/pkg/object"
)

const helloHash = object.Hash("ce013625030ba8dba906f756967f9e9ca394464a")

func sampleEntry(name string) Entry {
	return Entry{
		CTime:     Timestamp{Seconds: 1700000000, Nanoseconds: 123},
		MTime:     Timestamp{Seconds: 1700000001, Nanoseconds: 456},
		Dev:       2049,
		Ino:       777,
		ModeType:  ModeTypeRegular,
		ModePerms: 0o644,
		UID:       1000,
		GID:       1000,
		Size:      6,
		Hash:      helloHash,
		Name:      name,
	}
}

func TestEncodeDecodeRoundTrip(t *testing.T) {
	idx := New()
	idx.Entries = []Entry{
		sampleEntry("a.txt"),
		sampleEntry("dir/b.txt"),
		sampleEntry("dir/sub/seven77"),
	}
	idx.Entries[1].AssumeValid = true
	idx.Entries[2].Stage = true
	idx.Entries[2].ModePerms = 0o755

	data, err := idx.Encode()
	require.NoError(t, err)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.False(t, got.Truncated)
	assert.Equal(t, idx.Entries, got.Entries)

	again, err := got.Encode()
	require.NoError(t, err)
	assert.Equal(t, data, again)
}

func TestEncodeLayout(t *testing.T) {
	idx := New()
	idx.Entries = []Entry{sampleEntry("a.txt")}
	data, err := idx.Encode()
	require.NoError(t, err)

	assert.Equal(t, "DIRC", string(data[:4]))
	assert.Equal(t, uint32(2), binary.BigEndian.Uint32(data[4:8]))
	assert.Equal(t, uint32(1), binary.BigEndian.Uint32(data[8:12]))

	// 62 fixed bytes + 5 name bytes + NUL = 68, padded to 72.
	assert.Len(t, data, headerSize+72)
	mode := binary.BigEndian.Uint32(data[headerSize+24:])
	assert.Equal(t, uint32(0o100644), mode)
	flags := binary.BigEndian.Uint16(data[headerSize+60:])
	assert.Equal(t, uint16(5), flags)
}

func TestPaddingIsMultipleOfEight(t *testing.T) {
	for n := 1; n <= 16; n++ {
		idx := New()
		idx.Entries = []Entry{sampleEntry(strings.Repeat("x", n))}
		data, err := idx.Encode()
		require.NoError(t, err)
		assert.Zero(t, (len(data)-headerSize)%8, "name length %d", n)
	}
}

func TestFlagsBits(t *testing.T) {
	idx := New()
	e := sampleEntry("f")
	e.AssumeValid = true
	e.Stage = true
	idx.Entries = []Entry{e}
	data, err := idx.Encode()
	require.NoError(t, err)
	flags := binary.BigEndian.Uint16(data[headerSize+60:])
	assert.Equal(t, uint16(1<<15|1<<12|1), flags)
}

func TestLongNameClampsLength(t *testing.T) {
	long := strings.Repeat("n", 5000)
	idx := New()
	idx.Entries = []Entry{sampleEntry(long), sampleEntry("short")}
	data, err := idx.Encode()
	require.NoError(t, err)

	flags := binary.BigEndian.Uint16(data[headerSize+60:])
	assert.Equal(t, uint16(0xFFF), flags&0xFFF)

	got, err := Decode(data)
	require.NoError(t, err)
	require.Len(t, got.Entries, 2)
	assert.Equal(t, long, got.Entries[0].Name)
	assert.Equal(t, "short", got.Entries[1].Name)
}

func TestDecodeInvalidHeader(t *testing.T) {
	_, err := Decode([]byte("DIRC"))
	assert.ErrorIs(t, err, ErrInvalidFormat)

	bad := append([]byte("XXXX"), make([]byte, 8)...)
	_, err = Decode(bad)
	assert.ErrorIs(t, err, ErrInvalidFormat)
	assert.ErrorIs(t, err, object.ErrInvalidFormat)

	v3 := []byte("DIRC\x00\x00\x00\x03\x00\x00\x00\x00")
	_, err = Decode(v3)
	assert.ErrorIs(t, err, ErrInvalidFormat)
}

func TestDecodeTruncatedKeepsParsedEntries(t *testing.T) {
	idx := New()
	idx.Entries = []Entry{sampleEntry("a"), sampleEntry("b"), sampleEntry("c")}
	data, err := idx.Encode()
	require.NoError(t, err)

	// Cut into the middle of the third record.
	cut := data[:len(data)-10]
	got, err := Decode(cut)
	require.NoError(t, err)
	assert.True(t, got.Truncated)
	assert.Equal(t, []string{"a", "b"}, got.Names())
}

func TestDecodeCountLargerThanRecords(t *testing.T) {
	idx := New()
	idx.Entries = []Entry{sampleEntry("only")}
	data, err := idx.Encode()
	require.NoError(t, err)
	binary.BigEndian.PutUint32(data[8:12], 5)

	got, err := Decode(data)
	require.NoError(t, err)
	assert.True(t, got.Truncated)
	assert.Len(t, got.Entries, 1)
}

func TestTreeMode(t *testing.T) {
	e := sampleEntry("x")
	assert.Equal(t, "100644", e.TreeMode())
	e.ModePerms = 0o755
	assert.Equal(t, "100755", e.TreeMode())
	e.ModeType, e.ModePerms = ModeTypeSymlink, 0
	assert.Equal(t, "120000", e.TreeMode())
}

func TestPutReplacesAndSorts(t *testing.T) {
	idx := New()
	idx.Put(sampleEntry("b"))
	idx.Put(sampleEntry("a"))
	repl := sampleEntry("b")
	repl.Size = 99
	idx.Put(repl)

	assert.Equal(t, []string{"a", "b"}, idx.Names())
	got, ok := idx.Get("b")
	require.True(t, ok)
	assert.Equal(t, uint32(99), got.Size)

	assert.True(t, idx.Remove("a"))
	assert.False(t, idx.Remove("a"))
	assert.Equal(t, []string{"b"}, idx.Names())
}

func TestReadFileMissingIsEmpty(t *testing.T) {
	idx, err := ReadFile(filepath.Join(t.TempDir(), "index"))
	require.NoError(t, err)
	assert.Empty(t, idx.Entries)
	assert.False(t, idx.Truncated)
}

func TestWriteFileReadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "index")
	idx := New()
	idx.Put(sampleEntry("a.txt"))
	require.NoError(t, idx.WriteFile(path))

	got, err := ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, idx.Entries, got.Entries)

	entries, err := os.ReadDir(filepath.Dir(path))
	require.NoError(t, err)
	assert.Len(t, entries, 1, "temp file left behind")
}
