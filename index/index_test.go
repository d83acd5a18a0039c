package index

import (
	"testing"
	"time"

	"github.com/Niko256/vox/plumbing/hash"
	"github.com/go-git/go-billy/v5/memfs"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func sampleEntries() []Entry {
	return []Entry{
		{
			MTime: time.Unix(1700000000, 0).UTC(),
			Mode:  0o100644, Size: 1,
			Hash: hash.MustFromHex("ce013625030ba8dba906f756967f9e9ca394464a"),
			Path: "b.txt",
		},
		{
			MTime: time.Unix(1700000001, 0).UTC(),
			Mode:  0o100644, Size: 1,
			Hash: hash.MustFromHex("4b825dc642cb6eb9a060e54bf8d69288fbee4904"),
			Path: "a.txt",
		},
	}
}

// Testable property: index round-trip.
func TestEncodeDecodeRoundTrip(t *testing.T) {
	idx := New()
	for _, e := range sampleEntries() {
		idx.Insert(e)
	}

	payload, err := Encode(idx)
	require.NoError(t, err)
	assert.Equal(t, []byte("DIRC"), payload[:4])

	decoded, err := Decode(payload)
	require.NoError(t, err)
	require.Equal(t, 2, decoded.Len())

	got := decoded.Entries()
	assert.Equal(t, "a.txt", got[0].Path)
	assert.Equal(t, "b.txt", got[1].Path)
}

func TestEntriesAlwaysSorted(t *testing.T) {
	idx := New()
	idx.Insert(Entry{Path: "z.txt"})
	idx.Insert(Entry{Path: "a.txt"})
	idx.Insert(Entry{Path: "m.txt"})

	got := idx.Entries()
	require.Len(t, got, 3)
	assert.Equal(t, []string{"a.txt", "m.txt", "z.txt"}, []string{got[0].Path, got[1].Path, got[2].Path})
}

func TestInsertUpsertsByPath(t *testing.T) {
	idx := New()
	idx.Insert(Entry{Path: "a.txt", Size: 1})
	idx.Insert(Entry{Path: "a.txt", Size: 2})

	assert.Equal(t, 1, idx.Len())
	e, ok := idx.Get("a.txt")
	require.True(t, ok)
	assert.EqualValues(t, 2, e.Size)
}

func TestRemove(t *testing.T) {
	idx := New()
	idx.Insert(Entry{Path: "a.txt"})

	e, ok := idx.Remove("a.txt")
	require.True(t, ok)
	assert.Equal(t, "a.txt", e.Path)
	assert.Equal(t, 0, idx.Len())

	_, ok = idx.Remove("a.txt")
	assert.False(t, ok)
}

func TestNormalizePath(t *testing.T) {
	idx := New()
	idx.Insert(Entry{Path: "./sub/file.txt"})
	_, ok := idx.Get("sub/file.txt")
	assert.True(t, ok)
}

func TestRejectsBadSignature(t *testing.T) {
	_, err := Decode([]byte("XXXX\x00\x00\x00\x02\x00\x00\x00\x00"))
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestRejectsUnsupportedVersion(t *testing.T) {
	bad := append([]byte("DIRC"), 0, 0, 0, 9) // version 9
	bad = append(bad, 0, 0, 0, 0)             // 0 entries
	_, err := Decode(bad)
	require.ErrorIs(t, err, ErrCorrupt)
}

func TestSaveOpenRoundTrip(t *testing.T) {
	fs := memfs.New()
	idx := New()
	idx.Insert(Entry{Path: "a.txt", Size: 3, Hash: hash.MustFromHex("ce013625030ba8dba906f756967f9e9ca394464a")})

	require.NoError(t, Save(fs, "index", idx))

	loaded, err := Open(fs, "index")
	require.NoError(t, err)
	assert.Equal(t, 1, loaded.Len())
}

func TestOpenMissingFileReturnsEmpty(t *testing.T) {
	fs := memfs.New()
	idx, err := Open(fs, "index")
	require.NoError(t, err)
	assert.Equal(t, 0, idx.Len())
}
