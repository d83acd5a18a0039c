package index

import (
	"bufio"
	"bytes"
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"time"
)

// ErrCorrupt is returned when the signature is wrong or the version is
// unsupported.
var ErrCorrupt = errors.New("index corrupt")

// Decode parses the canonical on-disk form into an Index.
func Decode(data []byte) (*Index, error) {
	return DecodeFrom(bytes.NewReader(data))
}

// DecodeFrom parses from r.
func DecodeFrom(r io.Reader) (*Index, error) {
	br := bufio.NewReader(r)

	var sig [4]byte
	if _, err := io.ReadFull(br, sig[:]); err != nil {
		return nil, fmt.Errorf("%w: reading signature: %v", ErrCorrupt, err)
	}
	if sig != signature {
		return nil, fmt.Errorf("%w: bad signature %q", ErrCorrupt, sig)
	}

	ver, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("%w: reading version: %v", ErrCorrupt, err)
	}
	if ver != version {
		return nil, fmt.Errorf("%w: unsupported version %d", ErrCorrupt, ver)
	}

	count, err := readU32(br)
	if err != nil {
		return nil, fmt.Errorf("%w: reading entry count: %v", ErrCorrupt, err)
	}

	idx := New()
	for i := uint32(0); i < count; i++ {
		e, err := decodeEntry(br)
		if err != nil {
			return nil, err
		}
		idx.Insert(e)
	}
	return idx, nil
}

func decodeEntry(r *bufio.Reader) (Entry, error) {
	var e Entry

	mtime, err := readU64(r)
	if err != nil {
		return e, fmt.Errorf("%w: reading mtime: %v", ErrCorrupt, err)
	}
	e.MTime = time.Unix(int64(mtime), 0).UTC()

	fields := make([]*uint32, 6)
	fields[0], fields[1], fields[2] = &e.Dev, &e.Inode, &e.UID
	fields[3], fields[4], fields[5] = &e.GID, &e.Mode, &e.Size
	for _, f := range fields {
		v, err := readU32(r)
		if err != nil {
			return e, fmt.Errorf("%w: reading metadata field: %v", ErrCorrupt, err)
		}
		*f = v
	}

	if _, err := io.ReadFull(r, e.Hash[:]); err != nil {
		return e, fmt.Errorf("%w: reading hash: %v", ErrCorrupt, err)
	}

	flags, err := readU16(r)
	if err != nil {
		return e, fmt.Errorf("%w: reading flags: %v", ErrCorrupt, err)
	}
	e.Flags = flags

	p, err := r.ReadString(0)
	if err != nil {
		return e, fmt.Errorf("%w: reading path: %v", ErrCorrupt, err)
	}
	e.Path = p[:len(p)-1] // drop NUL terminator

	return e, nil
}

func readU64(r io.Reader) (uint64, error) {
	var b [8]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint64(b[:]), nil
}

func readU32(r io.Reader) (uint32, error) {
	var b [4]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint32(b[:]), nil
}

func readU16(r io.Reader) (uint16, error) {
	var b [2]byte
	if _, err := io.ReadFull(r, b[:]); err != nil {
		return 0, err
	}
	return binary.BigEndian.Uint16(b[:]), nil
}
