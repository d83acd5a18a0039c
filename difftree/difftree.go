// Package difftree computes the set of Changes between two trees (or,
// via commit hashes, between the trees two commits point at), including
// exact-hash rename detection.
package difftree

import (
	"errors"
	"fmt"
	"sort"

	"github.com/emirpasic/gods/maps/treemap"

	"github.com/Niko256/vox/plumbing/diff"
	"github.com/Niko256/vox/plumbing/filemode"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
)

// ErrNotATree is returned when a hash that should address a Tree object
// addresses something else instead.
var ErrNotATree = errors.New("difftree: object is not a tree")

type flatEntry struct {
	mode filemode.FileMode
	hash hash.Hash
}

// flatten walks a tree recursively, returning a path -> flatEntry map
// covering every blob in the tree (directories are not represented
// directly; their presence is implied by their contents' paths).
func flatten(store object.Store, treeHash hash.Hash) (map[string]flatEntry, error) {
	out := make(map[string]flatEntry)
	if treeHash.IsZero() {
		return out, nil
	}
	if err := flattenInto(store, treeHash, "", out); err != nil {
		return nil, err
	}
	return out, nil
}

func flattenInto(store object.Store, treeHash hash.Hash, prefix string, out map[string]flatEntry) error {
	obj, err := object.Load(store, treeHash)
	if err != nil {
		return fmt.Errorf("difftree: loading tree %s: %w", treeHash, err)
	}
	tree, ok := obj.(*object.Tree)
	if !ok {
		return fmt.Errorf("%w: %s", ErrNotATree, treeHash)
	}

	for _, e := range tree.Entries {
		p := e.Name
		if prefix != "" {
			p = prefix + "/" + e.Name
		}
		if e.Mode.IsDir() {
			if err := flattenInto(store, e.Hash, p, out); err != nil {
				return err
			}
			continue
		}
		out[p] = flatEntry{mode: e.Mode, hash: e.Hash}
	}
	return nil
}

// FlattenHashes walks treeHash recursively and returns a path -> blob
// hash map, discarding file modes. Exported for callers (repository's
// Checkout) that only need to compare content addresses
// against another source, without pulling in the full difftree pairing
// machinery.
func FlattenHashes(store object.Store, treeHash hash.Hash) (map[string]hash.Hash, error) {
	flat, err := flatten(store, treeHash)
	if err != nil {
		return nil, err
	}
	out := make(map[string]hash.Hash, len(flat))
	for p, e := range flat {
		out[p] = e.hash
	}
	return out, nil
}

// CompareTrees diffs the trees addressed by oldHash and newHash. Either
// hash may be the zero hash, meaning "no tree" (an empty commit or the
// root of history).
func CompareTrees(store object.Store, oldHash, newHash hash.Hash) ([]object.Change, error) {
	oldFlat, err := flatten(store, oldHash)
	if err != nil {
		return nil, err
	}
	newFlat, err := flatten(store, newHash)
	if err != nil {
		return nil, err
	}
	return diffFlat(store, oldFlat, newFlat)
}

// CompareCommits diffs the trees of two commits. Either hash may be the
// zero hash (see CompareTrees).
func CompareCommits(store object.Store, oldCommit, newCommit hash.Hash) ([]object.Change, error) {
	oldTree, err := commitTree(store, oldCommit)
	if err != nil {
		return nil, err
	}
	newTree, err := commitTree(store, newCommit)
	if err != nil {
		return nil, err
	}
	return CompareTrees(store, oldTree, newTree)
}

func commitTree(store object.Store, commitHash hash.Hash) (hash.Hash, error) {
	if commitHash.IsZero() {
		return hash.ZeroHash, nil
	}
	obj, err := object.Load(store, commitHash)
	if err != nil {
		return hash.ZeroHash, fmt.Errorf("difftree: loading commit %s: %w", commitHash, err)
	}
	c, ok := obj.(*object.Commit)
	if !ok {
		return hash.ZeroHash, fmt.Errorf("difftree: %s is not a commit", commitHash)
	}
	return c.TreeHash, nil
}

// diffFlat computes path-level changes between two flattened trees,
// pairing exact-hash add/delete pairs into renames. Rename candidates
// are collected into two hash-keyed maps before any change list is
// mutated, so pairing decisions never depend on iteration order.
func diffFlat(store object.Store, oldFlat, newFlat map[string]flatEntry) ([]object.Change, error) {
	addedByHash := treemap.NewWith(hashComparator)
	deletedByHash := treemap.NewWith(hashComparator)

	var changes []object.Change

	for p, oe := range oldFlat {
		if _, stillPresent := newFlat[p]; !stillPresent {
			addPathsToBucket(deletedByHash, oe.hash, p)
		}
	}
	for p, ne := range newFlat {
		oe, existed := oldFlat[p]
		switch {
		case !existed:
			addPathsToBucket(addedByHash, ne.hash, p)
		case oe.hash != ne.hash:
			summary, err := modifiedSummary(store, oe.hash, ne.hash)
			if err != nil {
				return nil, err
			}
			changes = append(changes, object.Change{
				Kind: object.Modified, Path: p,
				OldHash: oe.hash, NewHash: ne.hash, Summary: summary,
			})
		}
	}

	renamedOld := make(map[string]bool)
	renamedNew := make(map[string]bool)

	it := deletedByHash.Iterator()
	for it.Next() {
		h := it.Key().(hash.Hash)
		if addedPaths, ok := addedByHash.Get(h); ok {
			deletedPaths := it.Value().([]string)
			addedList := addedPaths.([]string)
			sort.Strings(deletedPaths)
			sort.Strings(addedList)
			n := len(deletedPaths)
			if len(addedList) < n {
				n = len(addedList)
			}
			for i := 0; i < n; i++ {
				old, new_ := deletedPaths[i], addedList[i]
				changes = append(changes, object.Change{
					Kind: object.Renamed, Path: new_, OldPath: old,
					OldHash: h, NewHash: h,
				})
				renamedOld[old] = true
				renamedNew[new_] = true
			}
		}
	}

	it = deletedByHash.Iterator()
	for it.Next() {
		for _, p := range it.Value().([]string) {
			if renamedOld[p] {
				continue
			}
			changes = append(changes, object.Change{Kind: object.Deleted, Path: p, OldHash: it.Key().(hash.Hash)})
		}
	}

	it = addedByHash.Iterator()
	for it.Next() {
		for _, p := range it.Value().([]string) {
			if renamedNew[p] {
				continue
			}
			changes = append(changes, object.Change{Kind: object.Added, Path: p, NewHash: it.Key().(hash.Hash)})
		}
	}

	sort.Slice(changes, func(i, j int) bool { return changes[i].Path < changes[j].Path })
	return changes, nil
}

func addPathsToBucket(m *treemap.Map, h hash.Hash, p string) {
	existing, ok := m.Get(h)
	if !ok {
		m.Put(h, []string{p})
		return
	}
	m.Put(h, append(existing.([]string), p))
}

func hashComparator(a, b interface{}) int {
	ha, hb := a.(hash.Hash), b.(hash.Hash)
	return ha.Compare(hb)
}

func modifiedSummary(store object.Store, oldHash, newHash hash.Hash) (*object.Summary, error) {
	oldBlob, err := loadBlob(store, oldHash)
	if err != nil {
		return nil, err
	}
	newBlob, err := loadBlob(store, newHash)
	if err != nil {
		return nil, err
	}
	d := diff.Lines(oldBlob.Content, newBlob.Content)
	return &object.Summary{Insertions: d.Insertions, Removals: d.Removals, Diff: d.Text}, nil
}

func loadBlob(store object.Store, h hash.Hash) (*object.Blob, error) {
	obj, err := object.Load(store, h)
	if err != nil {
		return nil, fmt.Errorf("difftree: loading blob %s: %w", h, err)
	}
	b, ok := obj.(*object.Blob)
	if !ok {
		return nil, fmt.Errorf("difftree: %s is not a blob", h)
	}
	return b, nil
}
