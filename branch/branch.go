// Package branch implements branch create/list/delete over refs/heads,
// component H of the data model.
package branch

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/go-git/go-billy/v5"

	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/refs"
)

// ErrAlreadyExists is returned by Create when the branch name is taken.
var ErrAlreadyExists = errors.New("branch already exists")

// ErrNotFound is returned by Delete when the branch does not exist.
var ErrNotFound = errors.New("branch not found")

// ErrIsCurrent is returned by Delete when asked to delete the branch
// HEAD currently has checked out.
var ErrIsCurrent = errors.New("cannot delete the current branch")

// Store manages branches (refs under refs/heads/) on top of a ref
// Store and the dot-directory filesystem used to list them.
type Store struct {
	fs   billy.Filesystem
	refs *refs.Store
}

// New builds a branch Store rooted at the same dot-directory fs as refs.
func New(fs billy.Filesystem, refStore *refs.Store) *Store {
	return &Store{fs: fs, refs: refStore}
}

// List returns every branch name under refs/heads/, sorted.
func (s *Store) List() ([]string, error) {
	var names []string
	if err := walkNames(s.fs, refs.HeadsDir, "", &names); err != nil {
		return nil, fmt.Errorf("branch: listing: %w", err)
	}
	sort.Strings(names)
	return names, nil
}

func walkNames(fs billy.Filesystem, dir, prefix string, out *[]string) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, fi := range entries {
		name := fi.Name()
		rel := name
		if prefix != "" {
			rel = prefix + "/" + name
		}
		if fi.IsDir() {
			if err := walkNames(fs, dir+"/"+name, rel, out); err != nil {
				return err
			}
			continue
		}
		*out = append(*out, rel)
	}
	return nil
}

// Create points a new branch at h. Fails with ErrAlreadyExists if the
// name is already taken.
func (s *Store) Create(name string, h hash.Hash) error {
	name = normalizeName(name)
	if _, err := s.refs.Resolve(refs.HeadsDir + "/" + name); err == nil {
		return fmt.Errorf("%w: %s", ErrAlreadyExists, name)
	}
	return s.refs.WriteRef(refs.HeadsDir+"/"+name, h)
}

// Delete removes a branch. Refuses if it is HEAD's current branch.
func (s *Store) Delete(name string) error {
	name = normalizeName(name)
	current, _, ok, err := s.refs.CurrentBranch()
	if err != nil {
		return err
	}
	if ok && current == name {
		return fmt.Errorf("%w: %s", ErrIsCurrent, name)
	}

	path := refs.HeadsDir + "/" + name
	if _, err := s.refs.Resolve(path); err != nil {
		return fmt.Errorf("%w: %s", ErrNotFound, name)
	}
	if err := s.fs.Remove(path); err != nil {
		return fmt.Errorf("branch: removing %s: %w", path, err)
	}
	return nil
}

// normalizeName strips a leading "refs/heads/" a caller may have passed
// redundantly.
func normalizeName(name string) string {
	return strings.TrimPrefix(name, refs.HeadsDir+"/")
}
