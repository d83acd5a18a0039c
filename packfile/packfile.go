// Package packfile implements the VOXPACK transfer format: a sequence
// of object frames, some stored whole and some as deltas against an
// earlier frame in the same pack, used to ship history over a
// transport or bundle it to disk.
package packfile

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"

	"github.com/klauspost/compress/zlib"

	"github.com/Niko256/vox/delta"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
)

// Magic is the fixed 7-byte header identifying a VOXPACK stream.
var Magic = [7]byte{'V', 'O', 'X', 'P', 'A', 'C', 'K'}

// Wire type codes carried in the middle 3 bits of a frame's tag byte.
// This is the format's own numbering, distinct from object.Type's
// internal enum ordering.
const (
	codeCommit byte = 1
	codeTree   byte = 2
	codeBlob   byte = 3
	codeTag    byte = 4
	codeDelta  byte = 7
)

const (
	tagTopBit    = 0x80
	tagCodeShift = 4
	tagCodeMask  = 0x7
)

// Errors surfaced by pack construction and reconstruction.
var (
	ErrBadMagic         = errors.New("packfile: bad magic")
	ErrUnresolvedDelta  = errors.New("packfile: unresolved delta (base not seen before delta, or missing)")
	ErrBaseNotInBuilder = errors.New("packfile: delta base must be added to the builder before its delta")
	ErrTruncated        = errors.New("packfile: truncated stream")
	ErrUnknownTypeCode  = errors.New("packfile: unknown wire type code")
	ErrFrameTooLarge    = errors.New("packfile: compressed frame exceeds 3-byte size field")
)

func typeToCode(t object.Type) (byte, error) {
	switch t {
	case object.CommitObject:
		return codeCommit, nil
	case object.TreeObject:
		return codeTree, nil
	case object.BlobObject:
		return codeBlob, nil
	case object.TagObject:
		return codeTag, nil
	default:
		return 0, fmt.Errorf("%w: %s", ErrUnknownTypeCode, t)
	}
}

func codeToType(code byte) (object.Type, error) {
	switch code {
	case codeCommit:
		return object.CommitObject, nil
	case codeTree:
		return object.TreeObject, nil
	case codeBlob:
		return object.BlobObject, nil
	case codeTag:
		return object.TagObject, nil
	default:
		return object.InvalidObject, fmt.Errorf("%w: %d", ErrUnknownTypeCode, code)
	}
}

// sniffType recovers an object's type from its raw (header-less)
// payload alone, the way delta reconstruction must: a delta-resolved
// result carries no type tag of its own, only the bytes themselves.
// The heuristic checks the payload's leading token against the three
// text-framed kinds and falls back to blob. Note a commit's own
// payload happens to start with "tree", not "commit" — this sniff is
// a known, spec-mandated approximation, not a parser.
func sniffType(payload []byte) object.Type {
	switch {
	case bytes.HasPrefix(payload, []byte("commit")):
		return object.CommitObject
	case bytes.HasPrefix(payload, []byte("tree")):
		return object.TreeObject
	case bytes.HasPrefix(payload, []byte("tag")):
		return object.TagObject
	default:
		return object.BlobObject
	}
}

type frame struct {
	hash     hash.Hash
	typ      object.Type // zero value (InvalidObject) for delta frames
	payload  []byte      // set for whole-object frames
	isDelta  bool
	baseHash hash.Hash
	delta    []byte
}

// Builder accumulates frames in caller-controlled order. Callers that
// want delta compression must add the base object (whole or as an
// already-added delta) before calling AddDelta for anything built on
// top of it: Builder enforces this rather than discovering it at
// reconstruction time.
type Builder struct {
	store   object.Store
	entries []frame
	present map[hash.Hash]bool
}

// NewBuilder returns an empty Builder reading whole objects from store.
func NewBuilder(store object.Store) *Builder {
	return &Builder{store: store, present: map[hash.Hash]bool{}}
}

// AddObject loads h from the store and appends it as a whole-object
// frame. A no-op if h was already added.
func (b *Builder) AddObject(h hash.Hash) error {
	if b.present[h] {
		return nil
	}
	typ, payload, err := b.store.ReadObject(h)
	if err != nil {
		return fmt.Errorf("packfile: reading %s: %w", h, err)
	}
	b.entries = append(b.entries, frame{hash: h, typ: typ, payload: payload})
	b.present[h] = true
	return nil
}

// AddDelta appends h as a delta against baseHash, which must already
// have been added to this Builder (AddObject or a prior AddDelta).
func (b *Builder) AddDelta(h, baseHash hash.Hash) error {
	if !b.present[baseHash] {
		return fmt.Errorf("%w: base %s for %s", ErrBaseNotInBuilder, baseHash, h)
	}
	if b.present[h] {
		return nil
	}

	basePayload, err := b.resolvedPayload(baseHash)
	if err != nil {
		return err
	}
	_, targetPayload, err := b.store.ReadObject(h)
	if err != nil {
		return fmt.Errorf("packfile: reading %s: %w", h, err)
	}

	d := delta.Encode(basePayload, targetPayload)
	b.entries = append(b.entries, frame{hash: h, isDelta: true, baseHash: baseHash, delta: d})
	b.present[h] = true
	return nil
}

// resolvedPayload returns the full payload bytes previously added for
// h, resolving through any delta chain already present in this
// Builder's own entries (so a delta can itself be a base for another
// delta without re-reading the store).
func (b *Builder) resolvedPayload(h hash.Hash) ([]byte, error) {
	for i := len(b.entries) - 1; i >= 0; i-- {
		e := b.entries[i]
		if e.hash != h {
			continue
		}
		if !e.isDelta {
			return e.payload, nil
		}
		basePayload, err := b.resolvedPayload(e.baseHash)
		if err != nil {
			return nil, err
		}
		return delta.Apply(basePayload, e.delta)
	}
	return nil, fmt.Errorf("%w: %s", ErrUnresolvedDelta, h)
}

// Len returns the number of frames currently queued.
func (b *Builder) Len() int { return len(b.entries) }

// Serialize writes the accumulated frames as a VOXPACK stream.
func (b *Builder) Serialize(w io.Writer) error {
	if _, err := w.Write(Magic[:]); err != nil {
		return err
	}
	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(b.entries)))
	if _, err := w.Write(count[:]); err != nil {
		return err
	}

	for _, e := range b.entries {
		if err := writeFrame(w, e); err != nil {
			return err
		}
	}
	return nil
}

// writeFrame compresses the frame's wire payload — the object's own
// payload for a base frame, or base-hash||delta-program for a delta
// frame — and writes it as tag byte + 3-byte compressed size + zlib
// stream, per 4.I. Neither frame kind carries an explicit hash field:
// addresses are always re-derived from content on read.
func writeFrame(w io.Writer, e frame) error {
	var code byte
	var wirePayload []byte

	if e.isDelta {
		code = codeDelta
		wirePayload = make([]byte, 0, len(e.baseHash)+len(e.delta))
		wirePayload = append(wirePayload, e.baseHash[:]...)
		wirePayload = append(wirePayload, e.delta...)
	} else {
		c, err := typeToCode(e.typ)
		if err != nil {
			return err
		}
		code = c
		wirePayload = e.payload
	}

	var compressed bytes.Buffer
	zw := zlib.NewWriter(&compressed)
	if _, err := zw.Write(wirePayload); err != nil {
		return err
	}
	if err := zw.Close(); err != nil {
		return err
	}

	if compressed.Len() > 0xFFFFFF {
		return fmt.Errorf("%w: %d bytes", ErrFrameTooLarge, compressed.Len())
	}

	tag := tagTopBit | (code&tagCodeMask)<<tagCodeShift
	if _, err := w.Write([]byte{tag}); err != nil {
		return err
	}

	var size [3]byte
	n := uint32(compressed.Len())
	size[0] = byte(n >> 16)
	size[1] = byte(n >> 8)
	size[2] = byte(n)
	if _, err := w.Write(size[:]); err != nil {
		return err
	}

	_, err := w.Write(compressed.Bytes())
	return err
}

// Pack is a parsed VOXPACK stream: an ordered list of frames. Base
// frames already carry their recovered hash, computed from their
// decompressed payload during Deserialize; delta frames carry only
// their base hash and delta program until Reconstruct resolves them.
type Pack struct {
	entries []frame
}

// Deserialize parses a VOXPACK stream produced by Serialize.
func Deserialize(r io.Reader) (*Pack, error) {
	br := bufio.NewReader(r)

	var magic [7]byte
	if _, err := io.ReadFull(br, magic[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	if magic != Magic {
		return nil, ErrBadMagic
	}

	var countBuf [4]byte
	if _, err := io.ReadFull(br, countBuf[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	count := binary.BigEndian.Uint32(countBuf[:])

	p := &Pack{entries: make([]frame, 0, count)}
	for i := uint32(0); i < count; i++ {
		f, err := readFrame(br)
		if err != nil {
			return nil, err
		}
		p.entries = append(p.entries, f)
	}
	return p, nil
}

// readFrame reads one tagged, zlib-compressed frame and, for whole
// objects, recovers its address by hashing the decompressed payload
// against its type (4.A): the wire carries no hash field for either
// frame kind.
func readFrame(r io.Reader) (frame, error) {
	var tagBuf [1]byte
	if _, err := io.ReadFull(r, tagBuf[:]); err != nil {
		return frame{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	tag := tagBuf[0]
	if tag&tagTopBit == 0 {
		return frame{}, fmt.Errorf("%w: tag byte %#x missing top bit", ErrUnknownTypeCode, tag)
	}
	code := (tag >> tagCodeShift) & tagCodeMask

	var sizeBuf [3]byte
	if _, err := io.ReadFull(r, sizeBuf[:]); err != nil {
		return frame{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}
	size := uint32(sizeBuf[0])<<16 | uint32(sizeBuf[1])<<8 | uint32(sizeBuf[2])

	compressed := make([]byte, size)
	if _, err := io.ReadFull(r, compressed); err != nil {
		return frame{}, fmt.Errorf("%w: %v", ErrTruncated, err)
	}

	zr, err := zlib.NewReader(bytes.NewReader(compressed))
	if err != nil {
		return frame{}, fmt.Errorf("packfile: zlib: %w", err)
	}
	wirePayload, err := io.ReadAll(zr)
	if err != nil {
		return frame{}, fmt.Errorf("packfile: zlib: %w", err)
	}
	if err := zr.Close(); err != nil {
		return frame{}, fmt.Errorf("packfile: zlib: %w", err)
	}

	if code == codeDelta {
		if len(wirePayload) < hash.Size {
			return frame{}, fmt.Errorf("%w: delta payload shorter than a hash", ErrTruncated)
		}
		var base hash.Hash
		copy(base[:], wirePayload[:hash.Size])
		d := wirePayload[hash.Size:]
		return frame{isDelta: true, baseHash: base, delta: d}, nil
	}

	typ, err := codeToType(code)
	if err != nil {
		return frame{}, err
	}
	return frame{hash: object.HashOf(typ, wirePayload), typ: typ, payload: wirePayload}, nil
}

// Reconstruct resolves every frame to its (type, payload) pair: base
// frames are inserted directly (their hash was recovered from content
// during Deserialize); each delta is applied against its base in
// stream order, its result's type recovered by content sniff, and its
// hash computed from the sniffed type before insertion, per 4.I step
// 2. A delta whose base has not appeared earlier in the stream (the
// ordering guarantee every Serialize output upholds, but an
// adversarial or corrupt stream might not) fails with
// ErrUnresolvedDelta rather than silently skipping it.
func Reconstruct(p *Pack) (map[hash.Hash]object.Type, map[hash.Hash][]byte, error) {
	types := make(map[hash.Hash]object.Type, len(p.entries))
	payloads := make(map[hash.Hash][]byte, len(p.entries))

	for _, e := range p.entries {
		if !e.isDelta {
			types[e.hash] = e.typ
			payloads[e.hash] = e.payload
			continue
		}

		basePayload, ok := payloads[e.baseHash]
		if !ok {
			return nil, nil, fmt.Errorf("%w: base %s", ErrUnresolvedDelta, e.baseHash)
		}
		resolved, err := delta.Apply(basePayload, e.delta)
		if err != nil {
			return nil, nil, fmt.Errorf("packfile: applying delta against %s: %w", e.baseHash, err)
		}
		typ := sniffType(resolved)
		h := object.HashOf(typ, resolved)
		types[h] = typ
		payloads[h] = resolved
	}

	return types, payloads, nil
}

// StoreInto writes every resolved frame into store, skipping any hash
// already present there.
func StoreInto(store object.Store, types map[hash.Hash]object.Type, payloads map[hash.Hash][]byte) error {
	for h, typ := range types {
		got, err := store.WriteObject(typ, payloads[h])
		if err != nil {
			return fmt.Errorf("packfile: writing %s: %w", h, err)
		}
		if got != h {
			return fmt.Errorf("packfile: reconstructed hash %s does not match expected %s", got, h)
		}
	}
	return nil
}
