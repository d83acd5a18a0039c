package repository

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/difftree"
	"github.com/Niko256/vox/index"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
	"github.com/Niko256/vox/refs"
	"github.com/Niko256/vox/worktree"
)

// ErrUnknownTarget is returned when Checkout's target names neither an
// existing branch nor a resolvable commit hash.
var ErrUnknownTarget = errors.New("checkout target not found")

// Status reports the current workdir classification, the same shape
// `vox status` would use, so callers can decide whether to force a
// Checkout.
func (r *Repository) Status() (*worktree.Status, error) {
	treeHash, err := r.HeadTree()
	if err != nil {
		return nil, err
	}
	return worktree.Scan(r.Paths.Work, r.Objects, r.Index, treeHash, DotDir)
}

func isDirty(st *worktree.Status) bool {
	return len(st.Modified) > 0 || len(st.Deleted) > 0 || len(st.Untracked) > 0
}

// ResolveCommit resolves a branch name or literal hex commit hash to a
// commit hash, for callers (such as `vox diff`) that only need the
// hash and not Checkout's branch-vs-detached distinction.
func (r *Repository) ResolveCommit(target string) (hash.Hash, error) {
	h, _, err := r.resolveTarget(target)
	return h, err
}

// resolveTarget resolves a branch name or literal hex commit hash to a
// commit hash, reporting whether it was a branch name.
func (r *Repository) resolveTarget(target string) (h hash.Hash, isBranch bool, err error) {
	branchRef := refs.HeadsDir + "/" + target
	if h, err := r.Refs.Resolve(branchRef); err == nil {
		return h, true, nil
	}

	if hash.IsValidHex(target) {
		parsed, err := hash.FromHex(target)
		if err != nil {
			return hash.ZeroHash, false, err
		}
		if ok, _ := r.Objects.Has(parsed); ok {
			return parsed, false, nil
		}
	}

	return hash.ZeroHash, false, fmt.Errorf("%w: %s", ErrUnknownTarget, target)
}

// Checkout switches the working tree and HEAD to target (a branch name
// or a commit hash). If the working tree has uncommitted changes and
// force is false, Checkout refuses with ErrWorkdirDirty.
func (r *Repository) Checkout(target string, force bool) error {
	if !force {
		st, err := r.Status()
		if err != nil {
			return err
		}
		if isDirty(st) {
			return ErrWorkdirDirty
		}
	}

	commitHash, isBranch, err := r.resolveTarget(target)
	if err != nil {
		return err
	}

	targetTree, err := headCommitTree(r.Objects, commitHash)
	if err != nil {
		return err
	}

	targetFlat, err := difftree.FlattenHashes(r.Objects, targetTree)
	if err != nil {
		return err
	}

	for _, e := range r.Index.Entries() {
		if _, stillTracked := targetFlat[e.Path]; !stillTracked {
			if err := r.Paths.Work.Remove(e.Path); err != nil && !os.IsNotExist(err) {
				return fmt.Errorf("repository: removing %s: %w", e.Path, err)
			}
		}
	}

	newIndex := index.New()
	for path, h := range targetFlat {
		content, err := loadBlobContent(r.Objects, h)
		if err != nil {
			return err
		}
		if err := writeWorkdirFile(r.Paths.Work, path, content); err != nil {
			return err
		}
		fi, statErr := r.Paths.Work.Stat(path)
		if statErr != nil {
			return fmt.Errorf("repository: stat %s after write: %w", path, statErr)
		}
		fullPath := r.Paths.Work.Join(r.Paths.Work.Root(), path)
		newIndex.Insert(index.FromFileInfo(path, fullPath, fi, h))
	}
	r.Index = newIndex
	if err := r.SaveIndex(); err != nil {
		return err
	}

	if isBranch {
		if err := r.Refs.SetHeadToBranch(target); err != nil {
			return err
		}
	} else {
		if err := r.Refs.SetHeadDetached(commitHash); err != nil {
			return err
		}
	}

	r.log.WithFields(logrus.Fields{"op": "checkout", "target": target}).Info("checked out")
	return nil
}

func loadBlobContent(store object.Store, h hash.Hash) ([]byte, error) {
	obj, err := object.Load(store, h)
	if err != nil {
		return nil, fmt.Errorf("repository: loading blob %s: %w", h, err)
	}
	b, ok := obj.(*object.Blob)
	if !ok {
		return nil, fmt.Errorf("repository: %s is not a blob", h)
	}
	return b.Content, nil
}

// writeWorkdirFile creates path's parent directories (if any) and
// writes content, overwriting any existing file.
func writeWorkdirFile(work billy.Filesystem, path string, content []byte) error {
	dir := dirname(path)
	if dir != "" {
		if err := work.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("repository: mkdir %s: %w", dir, err)
		}
	}
	f, err := work.Create(path)
	if err != nil {
		return fmt.Errorf("repository: creating %s: %w", path, err)
	}
	defer f.Close()
	if _, err := f.Write(content); err != nil {
		return fmt.Errorf("repository: writing %s: %w", path, err)
	}
	return nil
}

func dirname(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}
