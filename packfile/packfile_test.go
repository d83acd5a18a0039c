package packfile

import (
	"bytes"
	"io"
	"strings"
	"testing"

	"github.com/go-git/go-billy/v5/memfs"
	"github.com/klauspost/compress/zlib"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/Niko256/vox/plumbing/object"
	"github.com/Niko256/vox/storage"
)

func newStore(t *testing.T) *storage.ObjectStore {
	t.Helper()
	s, err := storage.NewObjectStore(memfs.New(), logrus.New())
	require.NoError(t, err)
	return s
}

// TestRoundTripWholeObjectsOnly covers testable property #6: packfile
// round-trip for a pack with no deltas at all.
func TestRoundTripWholeObjectsOnly(t *testing.T) {
	store := newStore(t)

	h1, err := object.Save(store, object.NewBlob([]byte("first\n")))
	require.NoError(t, err)
	h2, err := object.Save(store, object.NewBlob([]byte("second\n")))
	require.NoError(t, err)

	b := NewBuilder(store)
	require.NoError(t, b.AddObject(h1))
	require.NoError(t, b.AddObject(h2))

	var buf bytes.Buffer
	require.NoError(t, b.Serialize(&buf))

	pack, err := Deserialize(&buf)
	require.NoError(t, err)

	types, payloads, err := Reconstruct(pack)
	require.NoError(t, err)
	assert.Equal(t, object.BlobObject, types[h1])
	assert.Equal(t, []byte("first\n"), payloads[h1])
	assert.Equal(t, []byte("second\n"), payloads[h2])

	freshStore := newStore(t)
	require.NoError(t, StoreInto(freshStore, types, payloads))
	gotTyp, gotPayload, err := freshStore.ReadObject(h1)
	require.NoError(t, err)
	assert.Equal(t, object.BlobObject, gotTyp)
	assert.Equal(t, []byte("first\n"), gotPayload)
}

// TestRoundTripWithDelta covers reconstruction-with-delta: a base blob
// stored whole and a second blob stored as a delta against it.
func TestRoundTripWithDelta(t *testing.T) {
	store := newStore(t)

	base := strings.Repeat("line of text\n", 100)
	baseHash, err := object.Save(store, object.NewBlob([]byte(base)))
	require.NoError(t, err)

	modified := base + "one more line\n"
	modHash, err := object.Save(store, object.NewBlob([]byte(modified)))
	require.NoError(t, err)

	b := NewBuilder(store)
	require.NoError(t, b.AddObject(baseHash))
	require.NoError(t, b.AddDelta(modHash, baseHash))

	var buf bytes.Buffer
	require.NoError(t, b.Serialize(&buf))

	pack, err := Deserialize(&buf)
	require.NoError(t, err)

	types, payloads, err := Reconstruct(pack)
	require.NoError(t, err)
	assert.Equal(t, []byte(modified), payloads[modHash])
	assert.Equal(t, object.BlobObject, types[modHash])
}

func TestAddDeltaRejectsUnknownBase(t *testing.T) {
	store := newStore(t)
	h, err := object.Save(store, object.NewBlob([]byte("x")))
	require.NoError(t, err)

	b := NewBuilder(store)
	var unrelated [20]byte
	err = b.AddDelta(h, unrelated)
	assert.ErrorIs(t, err, ErrBaseNotInBuilder)
}

func TestReconstructRejectsUnresolvedDelta(t *testing.T) {
	store := newStore(t)
	base := []byte("base content\n")
	baseHash, err := object.Save(store, object.NewBlob(base))
	require.NoError(t, err)
	modHash, err := object.Save(store, object.NewBlob([]byte("base content\nplus\n")))
	require.NoError(t, err)

	b := NewBuilder(store)
	require.NoError(t, b.AddObject(baseHash))
	require.NoError(t, b.AddDelta(modHash, baseHash))

	var buf bytes.Buffer
	require.NoError(t, b.Serialize(&buf))
	pack, err := Deserialize(&buf)
	require.NoError(t, err)

	// Drop the base frame to simulate a corrupt/adversarial stream that
	// violates the base-before-delta ordering guarantee.
	pack.entries = pack.entries[1:]

	_, _, err = Reconstruct(pack)
	assert.ErrorIs(t, err, ErrUnresolvedDelta)
}

func TestDeserializeRejectsBadMagic(t *testing.T) {
	_, err := Deserialize(bytes.NewReader([]byte("NOTAPACK" + strings.Repeat("\x00", 10))))
	assert.ErrorIs(t, err, ErrBadMagic)
}

// TestScenarioS7PackfileReconstructionWithDelta is scenario S7: a pack
// containing a base blob and a delta targeting it must reconstruct
// both objects under their correct hashes, with the delta's target
// payload reconstructed exactly.
func TestScenarioS7PackfileReconstructionWithDelta(t *testing.T) {
	store := newStore(t)

	baseContent := []byte("the quick brown fox")
	baseHash, err := object.Save(store, object.NewBlob(baseContent))
	require.NoError(t, err)

	targetContent := []byte("the quick red fox")
	targetHash, err := object.Save(store, object.NewBlob(targetContent))
	require.NoError(t, err)

	b := NewBuilder(store)
	require.NoError(t, b.AddObject(baseHash))
	require.NoError(t, b.AddDelta(targetHash, baseHash))

	var buf bytes.Buffer
	require.NoError(t, b.Serialize(&buf))

	pack, err := Deserialize(&buf)
	require.NoError(t, err)

	types, payloads, err := Reconstruct(pack)
	require.NoError(t, err)

	require.Contains(t, payloads, baseHash)
	assert.Equal(t, baseContent, payloads[baseHash])
	assert.Equal(t, object.BlobObject, types[baseHash])

	require.Contains(t, payloads, targetHash)
	assert.Equal(t, targetContent, payloads[targetHash])
	assert.Equal(t, object.BlobObject, types[targetHash])
}

// TestWireFrameLayoutMatchesSpec exercises the literal byte layout
// from 4.I: 7-byte magic, 4-byte big-endian count, then per object a
// tag byte with the top bit set and the type code in bits 6-4,
// followed by a 3-byte big-endian compressed size and a zlib stream
// that decompresses to exactly the object's payload.
func TestWireFrameLayoutMatchesSpec(t *testing.T) {
	store := newStore(t)
	content := []byte("hello\n")
	h, err := object.Save(store, object.NewBlob(content))
	require.NoError(t, err)

	b := NewBuilder(store)
	require.NoError(t, b.AddObject(h))

	var buf bytes.Buffer
	require.NoError(t, b.Serialize(&buf))
	raw := buf.Bytes()

	require.Equal(t, "VOXPACK", string(raw[:7]))
	count := uint32(raw[7])<<24 | uint32(raw[8])<<16 | uint32(raw[9])<<8 | uint32(raw[10])
	require.Equal(t, uint32(1), count)

	tag := raw[11]
	require.NotZero(t, tag&0x80, "top bit must be set")
	code := (tag >> 4) & 0x7
	require.Equal(t, byte(3), code, "blob must carry wire type code 3")

	size := uint32(raw[12])<<16 | uint32(raw[13])<<8 | uint32(raw[14])
	compressed := raw[15 : 15+size]
	require.Equal(t, int(size), len(compressed))

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	decompressed, err := io.ReadAll(zr)
	require.NoError(t, err)
	assert.Equal(t, content, decompressed)
	assert.Equal(t, len(raw), 15+int(size), "no trailing bytes beyond the single frame")
}

// TestDeltaFrameWirePayloadIsBaseHashPlusProgram exercises 4.I's rule
// that a delta frame's decompressed payload is exactly the 20-byte
// base hash followed by the delta program — no separate on-wire hash
// fields for either frame kind.
func TestDeltaFrameWirePayloadIsBaseHashPlusProgram(t *testing.T) {
	store := newStore(t)
	base := []byte("aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa")
	baseHash, err := object.Save(store, object.NewBlob(base))
	require.NoError(t, err)
	target := append(append([]byte{}, base...), []byte("bbbb")...)
	targetHash, err := object.Save(store, object.NewBlob(target))
	require.NoError(t, err)

	b := NewBuilder(store)
	require.NoError(t, b.AddObject(baseHash))
	require.NoError(t, b.AddDelta(targetHash, baseHash))

	var buf bytes.Buffer
	require.NoError(t, b.Serialize(&buf))
	raw := buf.Bytes()

	// Skip the header and the first (base) frame to reach the delta
	// frame's tag byte.
	firstSize := uint32(raw[12])<<16 | uint32(raw[13])<<8 | uint32(raw[14])
	offset := 11 + 4 + int(firstSize)

	deltaTag := raw[offset]
	require.NotZero(t, deltaTag&0x80)
	require.Equal(t, byte(7), (deltaTag>>4)&0x7, "delta-ref must carry wire type code 7")

	offset++
	deltaSize := uint32(raw[offset])<<16 | uint32(raw[offset+1])<<8 | uint32(raw[offset+2])
	offset += 3
	compressed := raw[offset : offset+int(deltaSize)]

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	require.NoError(t, err)
	wirePayload, err := io.ReadAll(zr)
	require.NoError(t, err)

	require.GreaterOrEqual(t, len(wirePayload), 20)
	var gotBase [20]byte
	copy(gotBase[:], wirePayload[:20])
	assert.Equal(t, baseHash[:], gotBase[:])
}
