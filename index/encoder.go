package index

import (
	"bytes"
	"encoding/binary"
	"io"
)

var signature = [4]byte{'D', 'I', 'R', 'C'}

const version uint32 = 2

// Encode renders idx in the canonical on-disk form: signature, version,
// entry count, then path-sorted entries.
func Encode(idx *Index) ([]byte, error) {
	var buf bytes.Buffer
	if err := EncodeTo(&buf, idx); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeTo writes idx's canonical form to w.
func EncodeTo(w io.Writer, idx *Index) error {
	if _, err := w.Write(signature[:]); err != nil {
		return err
	}
	if err := writeU32(w, version); err != nil {
		return err
	}

	entries := idx.Entries() // already path-sorted
	if err := writeU32(w, uint32(len(entries))); err != nil {
		return err
	}

	for _, e := range entries {
		if err := encodeEntry(w, e); err != nil {
			return err
		}
	}
	return nil
}

func encodeEntry(w io.Writer, e Entry) error {
	if err := writeU64(w, uint64(e.MTime.Unix())); err != nil {
		return err
	}
	for _, v := range []uint32{e.Dev, e.Inode, e.UID, e.GID, e.Mode, e.Size} {
		if err := writeU32(w, v); err != nil {
			return err
		}
	}
	if _, err := w.Write(e.Hash[:]); err != nil {
		return err
	}
	if err := writeU16(w, e.Flags); err != nil {
		return err
	}
	if _, err := io.WriteString(w, e.Path); err != nil {
		return err
	}
	if _, err := w.Write([]byte{0}); err != nil {
		return err
	}
	return nil
}

func writeU64(w io.Writer, v uint64) error {
	var b [8]byte
	binary.BigEndian.PutUint64(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU32(w io.Writer, v uint32) error {
	var b [4]byte
	binary.BigEndian.PutUint32(b[:], v)
	_, err := w.Write(b[:])
	return err
}

func writeU16(w io.Writer, v uint16) error {
	var b [2]byte
	binary.BigEndian.PutUint16(b[:], v)
	_, err := w.Write(b[:])
	return err
}
