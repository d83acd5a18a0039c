package object

import (
	"bytes"
	"fmt"
	"sort"

	"github.com/Niko256/vox/plumbing/filemode"
	"github.com/Niko256/vox/plumbing/hash"
)

// TreeEntry is one (mode, name, hash) triple inside a Tree.
type TreeEntry struct {
	Mode filemode.FileMode
	Name string
	Hash hash.Hash
}

// Tree is an ordered sequence of entries, sorted by Name in byte order.
type Tree struct {
	Entries []TreeEntry
}

// NewTree sorts entries and returns a Tree. Sorting happens here so every
// other code path (Serialize, diffing) can assume canonical order.
func NewTree(entries []TreeEntry) *Tree {
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return &Tree{Entries: entries}
}

func (t *Tree) Type() Type { return TreeObject }

// Serialize renders: for each entry, "<mode> <name>\0" followed by the 20
// raw hash bytes, entries in sorted order. No padding of any kind.
func (t *Tree) Serialize() ([]byte, error) {
	sorted := make([]TreeEntry, len(t.Entries))
	copy(sorted, t.Entries)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].Name < sorted[j].Name })

	var buf bytes.Buffer
	for _, e := range sorted {
		fmt.Fprintf(&buf, "%s %s\x00", e.Mode, e.Name)
		buf.Write(e.Hash[:])
	}
	return buf.Bytes(), nil
}

func (t *Tree) Hash() (hash.Hash, error) {
	payload, err := t.Serialize()
	if err != nil {
		return hash.ZeroHash, err
	}
	return HashOf(TreeObject, payload), nil
}

// Find returns the entry with the given name, or false if absent.
func (t *Tree) Find(name string) (TreeEntry, bool) {
	for _, e := range t.Entries {
		if e.Name == name {
			return e, true
		}
	}
	return TreeEntry{}, false
}

// DecodeTree parses a tree payload. Implementations must not assume any
// padding: mode is read as ASCII digits up to the first space, name up to
// the first NUL, followed by exactly 20 raw hash bytes.
func DecodeTree(payload []byte) (*Tree, error) {
	var entries []TreeEntry
	i := 0
	for i < len(payload) {
		sp := bytes.IndexByte(payload[i:], ' ')
		if sp < 0 {
			return nil, ErrCorruptTree
		}
		modeStr := string(payload[i : i+sp])
		mode, err := filemode.New(modeStr)
		if err != nil {
			return nil, fmt.Errorf("%w: bad mode %q", ErrCorruptTree, modeStr)
		}
		i += sp + 1

		nul := bytes.IndexByte(payload[i:], 0)
		if nul < 0 {
			return nil, ErrCorruptTree
		}
		name := string(payload[i : i+nul])
		i += nul + 1

		if i+hash.Size > len(payload) {
			return nil, ErrCorruptTree
		}
		var h hash.Hash
		copy(h[:], payload[i:i+hash.Size])
		i += hash.Size

		entries = append(entries, TreeEntry{Mode: mode, Name: name, Hash: h})
	}
	return &Tree{Entries: entries}, nil
}
