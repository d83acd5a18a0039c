package repository

import (
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/config"
	"github.com/Niko256/vox/difftree"
	"github.com/Niko256/vox/index"
	"github.com/Niko256/vox/plumbing/filemode"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
)

// ErrNothingStaged is returned by Commit when there is nothing to
// record: the index is empty, or the tree
// built from the index is identical to the HEAD commit's tree. It is
// the same refusal `git commit` with nothing added gives.
var ErrNothingStaged = errors.New("repository: nothing staged for commit")

// headCommitTree loads commitHash and returns its tree hash.
func headCommitTree(store object.Store, commitHash hash.Hash) (hash.Hash, error) {
	obj, err := object.Load(store, commitHash)
	if err != nil {
		return hash.ZeroHash, fmt.Errorf("repository: loading HEAD commit %s: %w", commitHash, err)
	}
	c, ok := obj.(*object.Commit)
	if !ok {
		return hash.ZeroHash, fmt.Errorf("repository: %s is not a commit", commitHash)
	}
	return c.TreeHash, nil
}

// buildTree writes the nested Tree objects implied by a flat,
// sorted-by-path list of index entries, returning the root tree hash.
// Empty entries (an empty repository) produce the canonical empty tree.
func buildTree(store object.Store, entries []index.Entry) (hash.Hash, error) {
	root := newDirNode()
	for _, e := range entries {
		root.insert(strings.Split(e.Path, "/"), e.Hash)
	}
	return root.write(store)
}

type dirNode struct {
	files map[string]hash.Hash
	dirs  map[string]*dirNode
}

func newDirNode() *dirNode {
	return &dirNode{files: map[string]hash.Hash{}, dirs: map[string]*dirNode{}}
}

func (n *dirNode) insert(segments []string, h hash.Hash) {
	if len(segments) == 1 {
		n.files[segments[0]] = h
		return
	}
	sub, ok := n.dirs[segments[0]]
	if !ok {
		sub = newDirNode()
		n.dirs[segments[0]] = sub
	}
	sub.insert(segments[1:], h)
}

func (n *dirNode) write(store object.Store) (hash.Hash, error) {
	var entries []object.TreeEntry
	for name, h := range n.files {
		entries = append(entries, object.TreeEntry{Mode: filemode.Regular, Name: name, Hash: h})
	}
	for name, sub := range n.dirs {
		h, err := sub.write(store)
		if err != nil {
			return hash.ZeroHash, err
		}
		entries = append(entries, object.TreeEntry{Mode: filemode.Dir, Name: name, Hash: h})
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].Name < entries[j].Name })
	return object.Save(store, object.NewTree(entries))
}

// WriteTree builds the nested Tree objects implied by the current
// index, the operation "vox write-tree" and Commit's first step both
// reduce to.
func (r *Repository) WriteTree() (hash.Hash, error) {
	return buildTree(r.Objects, r.Index.Entries())
}

// Commit writes the current index as a tree, creates a Commit object
// parented on the current HEAD (if any), advances HEAD/the current
// branch to it, and returns its hash. The index is left untouched;
// Commit does not clear staged state, matching the data model's
// "commit snapshots the index" semantics.
func (r *Repository) Commit(message, authorName string) (hash.Hash, error) {
	st, err := r.Status()
	if err != nil {
		return hash.ZeroHash, fmt.Errorf("repository: checking status: %w", err)
	}
	if len(st.Staged) == 0 && len(st.Modified) == 0 && len(st.Deleted) == 0 {
		return hash.ZeroHash, ErrNothingStaged
	}

	if authorName == "" {
		authorName = r.Config.User.Name
	}
	opts, err := config.ApplyCommitDefaults(config.CommitOptions{AuthorName: authorName})
	if err != nil {
		return hash.ZeroHash, fmt.Errorf("repository: applying commit defaults: %w", err)
	}

	treeHash, err := buildTree(r.Objects, r.Index.Entries())
	if err != nil {
		return hash.ZeroHash, fmt.Errorf("repository: building tree: %w", err)
	}

	var parent *hash.Hash
	if h, err := r.Refs.Resolve("HEAD"); err == nil {
		parent = &h
		if parentTree, err := headCommitTree(r.Objects, h); err == nil && parentTree == treeHash {
			return hash.ZeroHash, ErrNothingStaged
		}
	}

	c := &object.Commit{
		TreeHash:   treeHash,
		ParentHash: parent,
		Author:     object.Signature{Name: opts.AuthorName, When: time.Now()},
		Message:    message,
	}
	commitHash, err := object.Save(r.Objects, c)
	if err != nil {
		return hash.ZeroHash, fmt.Errorf("repository: saving commit: %w", err)
	}

	if err := r.Refs.UpdateCurrent(commitHash); err != nil {
		return hash.ZeroHash, fmt.Errorf("repository: advancing HEAD: %w", err)
	}
	r.log.WithFields(logrus.Fields{"op": "commit", "hash": commitHash}).Info("recorded commit")
	return commitHash, nil
}

// Log walks the linear parent chain starting at HEAD, returning at most
// limit commits (limit <= 0 means unlimited).
func (r *Repository) Log(limit int) ([]*object.Commit, error) {
	h, err := r.Refs.Resolve("HEAD")
	if err != nil {
		return nil, err
	}

	var out []*object.Commit
	for !h.IsZero() {
		obj, err := object.Load(r.Objects, h)
		if err != nil {
			return nil, fmt.Errorf("repository: loading commit %s: %w", h, err)
		}
		c, ok := obj.(*object.Commit)
		if !ok {
			return nil, fmt.Errorf("repository: %s is not a commit", h)
		}
		out = append(out, c)
		if limit > 0 && len(out) >= limit {
			break
		}
		if c.ParentHash == nil {
			break
		}
		h = *c.ParentHash
	}
	return out, nil
}

// Show returns a commit and the set of changes it introduced relative
// to its (possibly absent) parent.
func (r *Repository) Show(commitHash hash.Hash) (*object.Commit, []object.Change, error) {
	obj, err := object.Load(r.Objects, commitHash)
	if err != nil {
		return nil, nil, fmt.Errorf("repository: loading commit %s: %w", commitHash, err)
	}
	c, ok := obj.(*object.Commit)
	if !ok {
		return nil, nil, fmt.Errorf("repository: %s is not a commit", commitHash)
	}

	parentHash := hash.ZeroHash
	if c.ParentHash != nil {
		parentHash = *c.ParentHash
	}
	changes, err := difftree.CompareCommits(r.Objects, parentHash, commitHash)
	if err != nil {
		return nil, nil, err
	}
	return c, changes, nil
}
