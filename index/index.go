// Package index implements the staging area: an ordered mapping from
// repository-relative paths to IndexEntry records, serialized in the
// DIRC format described by the data model.
package index

import (
	"path"
	"strings"
	"time"

	"github.com/emirpasic/gods/maps/treemap"
	"golang.org/x/text/unicode/norm"

	"github.com/Niko256/vox/plumbing/hash"
)

// Entry is one staged path: filesystem metadata plus the blob hash it
// was staged with.
type Entry struct {
	MTime time.Time // stored on disk as u64 Unix seconds
	Dev   uint32
	Inode uint32
	UID   uint32
	GID   uint32
	Mode  uint32
	Size  uint32
	Hash  hash.Hash
	Flags uint16
	Path  string // forward-slash normalized, relative to repo root
}

// Index is the ordered path -> Entry staging map. Entries are kept in a
// treemap so iteration is always path-sorted without an explicit sort
// step, matching the "serialized ordering is deterministic" invariant.
type Index struct {
	entries *treemap.Map // string -> *Entry
}

// New returns an empty Index.
func New() *Index {
	return &Index{entries: treemap.NewWithStringComparator()}
}

// NormalizePath strips a leading "./", converts path separators to
// forward slashes, and folds the path to Unicode NFC so a file staged
// under an NFD-decomposed name (as macOS's filesystem hands back) and
// one staged under its NFC-composed equivalent land on the same index
// entry.
func NormalizePath(p string) string {
	p = filepath_ToSlash(p)
	p = strings.TrimPrefix(p, "./")
	p = path.Clean(p)
	return norm.NFC.String(p)
}

// filepath_ToSlash avoids importing path/filepath solely for ToSlash,
// keeping this package free of OS-specific path assumptions beyond the
// simple backslash swap Windows callers need.
func filepath_ToSlash(p string) string {
	return strings.ReplaceAll(p, "\\", "/")
}

// Insert upserts e by e.Path.
func (idx *Index) Insert(e Entry) {
	e.Path = NormalizePath(e.Path)
	idx.entries.Put(e.Path, &e)
}

// Remove deletes the entry at path, returning it if present.
func (idx *Index) Remove(p string) (Entry, bool) {
	p = NormalizePath(p)
	v, ok := idx.entries.Get(p)
	if !ok {
		return Entry{}, false
	}
	idx.entries.Remove(p)
	return *(v.(*Entry)), true
}

// Get returns the entry at path, if any.
func (idx *Index) Get(p string) (Entry, bool) {
	p = NormalizePath(p)
	v, ok := idx.entries.Get(p)
	if !ok {
		return Entry{}, false
	}
	return *(v.(*Entry)), true
}

// Entries returns all entries in sorted-path order.
func (idx *Index) Entries() []Entry {
	out := make([]Entry, 0, idx.entries.Size())
	it := idx.entries.Iterator()
	for it.Next() {
		out = append(out, *(it.Value().(*Entry)))
	}
	return out
}

// Len returns the number of staged paths.
func (idx *Index) Len() int {
	return idx.entries.Size()
}
