package object

import (
	"bytes"
	"encoding/binary"
	"fmt"
	"io"

	"github.com/Niko256/vox/plumbing/hash"
)

// ChangeKind identifies what happened to a path between two trees.
type ChangeKind byte

const (
	Added ChangeKind = iota + 1
	Deleted
	Modified
	Renamed
)

// Summary is the optional line-level diff attached to a Modified change
// to a blob; it is never present on tree-vs-tree or renamed changes.
type Summary struct {
	Insertions int
	Removals   int
	Diff       string
}

// Change is one entry of a ChangeSet.
type Change struct {
	Kind    ChangeKind
	Path    string // Added/Deleted/Modified; also used as NewPath for Renamed
	OldPath string // only set for Renamed
	OldHash hash.Hash
	NewHash hash.Hash
	Summary *Summary
}

// ChangeSet is the structured diff between two tree snapshots. It is not
// part of the wire format; it exists so a computed diff can be cached as
// a normal content-addressed object.
type ChangeSet struct {
	FromCommit hash.Hash // zero if not commit-scoped
	ToCommit   hash.Hash
	Changes    []Change
}

func (cs *ChangeSet) Type() Type { return ChangeSetObject }

func (cs *ChangeSet) Hash() (hash.Hash, error) {
	payload, err := cs.Serialize()
	if err != nil {
		return hash.ZeroHash, err
	}
	return HashOf(ChangeSetObject, payload), nil
}

func (cs *ChangeSet) Serialize() ([]byte, error) {
	var buf bytes.Buffer
	buf.Write(cs.FromCommit[:])
	buf.Write(cs.ToCommit[:])

	var count [4]byte
	binary.BigEndian.PutUint32(count[:], uint32(len(cs.Changes)))
	buf.Write(count[:])

	for _, c := range cs.Changes {
		buf.WriteByte(byte(c.Kind))
		switch c.Kind {
		case Added:
			writeString(&buf, c.Path)
			buf.Write(c.NewHash[:])
		case Deleted:
			writeString(&buf, c.Path)
			buf.Write(c.OldHash[:])
		case Modified:
			writeString(&buf, c.Path)
			buf.Write(c.OldHash[:])
			buf.Write(c.NewHash[:])
			if c.Summary == nil {
				buf.WriteByte(0)
			} else {
				buf.WriteByte(1)
				var ins, rem [4]byte
				binary.BigEndian.PutUint32(ins[:], uint32(c.Summary.Insertions))
				binary.BigEndian.PutUint32(rem[:], uint32(c.Summary.Removals))
				buf.Write(ins[:])
				buf.Write(rem[:])
				writeString(&buf, c.Summary.Diff)
			}
		case Renamed:
			writeString(&buf, c.OldPath)
			writeString(&buf, c.Path)
			buf.Write(c.NewHash[:])
		default:
			return nil, fmt.Errorf("%w: unknown change kind %d", ErrCorruptChange, c.Kind)
		}
	}
	return buf.Bytes(), nil
}

func writeString(buf *bytes.Buffer, s string) {
	var length [4]byte
	binary.BigEndian.PutUint32(length[:], uint32(len(s)))
	buf.Write(length[:])
	buf.WriteString(s)
}

func readString(r *bytes.Reader) (string, error) {
	var length [4]byte
	if _, err := io.ReadFull(r, length[:]); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptChange, err)
	}
	n := binary.BigEndian.Uint32(length[:])
	b := make([]byte, n)
	if _, err := io.ReadFull(r, b); err != nil {
		return "", fmt.Errorf("%w: %v", ErrCorruptChange, err)
	}
	return string(b), nil
}

func readHash(r *bytes.Reader) (hash.Hash, error) {
	var h hash.Hash
	if _, err := io.ReadFull(r, h[:]); err != nil {
		return h, fmt.Errorf("%w: %v", ErrCorruptChange, err)
	}
	return h, nil
}

// DecodeChangeSet parses the binary ChangeSet encoding produced by Serialize.
func DecodeChangeSet(payload []byte) (*ChangeSet, error) {
	r := bytes.NewReader(payload)
	cs := &ChangeSet{}

	var err error
	if cs.FromCommit, err = readHash(r); err != nil {
		return nil, err
	}
	if cs.ToCommit, err = readHash(r); err != nil {
		return nil, err
	}

	var count [4]byte
	if _, err := io.ReadFull(r, count[:]); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrCorruptChange, err)
	}
	n := binary.BigEndian.Uint32(count[:])

	cs.Changes = make([]Change, 0, n)
	for i := uint32(0); i < n; i++ {
		kindByte, err := r.ReadByte()
		if err != nil {
			return nil, fmt.Errorf("%w: %v", ErrCorruptChange, err)
		}
		c := Change{Kind: ChangeKind(kindByte)}

		switch c.Kind {
		case Added:
			if c.Path, err = readString(r); err != nil {
				return nil, err
			}
			if c.NewHash, err = readHash(r); err != nil {
				return nil, err
			}
		case Deleted:
			if c.Path, err = readString(r); err != nil {
				return nil, err
			}
			if c.OldHash, err = readHash(r); err != nil {
				return nil, err
			}
		case Modified:
			if c.Path, err = readString(r); err != nil {
				return nil, err
			}
			if c.OldHash, err = readHash(r); err != nil {
				return nil, err
			}
			if c.NewHash, err = readHash(r); err != nil {
				return nil, err
			}
			hasSummary, err := r.ReadByte()
			if err != nil {
				return nil, fmt.Errorf("%w: %v", ErrCorruptChange, err)
			}
			if hasSummary == 1 {
				var ins, rem [4]byte
				if _, err := io.ReadFull(r, ins[:]); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrCorruptChange, err)
				}
				if _, err := io.ReadFull(r, rem[:]); err != nil {
					return nil, fmt.Errorf("%w: %v", ErrCorruptChange, err)
				}
				diff, err := readString(r)
				if err != nil {
					return nil, err
				}
				c.Summary = &Summary{
					Insertions: int(binary.BigEndian.Uint32(ins[:])),
					Removals:   int(binary.BigEndian.Uint32(rem[:])),
					Diff:       diff,
				}
			}
		case Renamed:
			if c.OldPath, err = readString(r); err != nil {
				return nil, err
			}
			if c.Path, err = readString(r); err != nil {
				return nil, err
			}
			if c.NewHash, err = readHash(r); err != nil {
				return nil, err
			}
			c.OldHash = c.NewHash
		default:
			return nil, fmt.Errorf("%w: unknown change kind %d", ErrCorruptChange, c.Kind)
		}

		cs.Changes = append(cs.Changes, c)
	}

	return cs, nil
}
