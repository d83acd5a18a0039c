// Package worktree scans the working directory against the staging
// index to classify every path as staged, modified, deleted or
// untracked.
package worktree

import (
	"fmt"
	"os"
	"sort"

	"github.com/go-git/go-billy/v5"
	"golang.org/x/text/unicode/norm"

	"github.com/Niko256/vox/index"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
)

// denyDirs are directory names never descended into while scanning the
// working tree: the repository's own dot-directory, common host-VCS
// metadata directories (in case a vox repo is nested inside or alongside
// one), and the usual build-output directories that would otherwise
// flood Untracked with generated noise.
var denyDirs = map[string]bool{
	".git":         true,
	".hg":          true,
	".svn":         true,
	"node_modules": true,
	"vendor":       true,
	"target":       true,
	"dist":         true,
	"build":        true,
}

// Status is the classification of every path relevant to `vox status`.
// For an indexed path, Staged, Modified and Deleted are mutually
// exclusive and their union is exhaustive: every entry in the index
// lands in exactly one of the three.
type Status struct {
	// Staged holds indexed paths whose stat (or, failing that, content
	// hash) still matches what was recorded at add/commit time: staged
	// and unchanged since.
	Staged []string
	// Modified holds indexed paths whose working-tree content no longer
	// matches the index entry's recorded hash.
	Modified []string
	// Deleted holds paths present in the index but missing from the
	// working tree.
	Deleted []string
	// Untracked holds paths present in the working tree but absent from
	// the index.
	Untracked []string
}

// Scan compares fs (rooted at the worktree root) against idx (the
// current staging index) and returns a full Status. headTree and store
// are accepted for callers that already have a resolved HEAD tree
// handy, but classification itself never needs HEAD: "staged" means
// "unchanged since it was added to the index", not "differs from HEAD"
// (see commands/status in the reference implementation this is ported
// from).
func Scan(fs billy.Filesystem, store object.Store, idx *index.Index, headTree hash.Hash, dotDir string) (*Status, error) {
	present := make(map[string]os.FileInfo)
	if err := walk(fs, "", dotDir, present); err != nil {
		return nil, fmt.Errorf("worktree: walking working tree: %w", err)
	}

	st := &Status{}
	indexPaths := make(map[string]bool)

	for _, e := range idx.Entries() {
		indexPaths[e.Path] = true

		fi, ok := present[e.Path]
		if !ok {
			st.Deleted = append(st.Deleted, e.Path)
			continue
		}

		fullPath := fs.Join(fs.Root(), e.Path)
		if e.MatchesStat(fullPath, fi) {
			st.Staged = append(st.Staged, e.Path)
			continue
		}

		// Stat mismatched: the cheap oracle is inconclusive, so fall
		// back to content hashing. This fallback always runs on a stat
		// mismatch; there is no setting that turns it off.
		content, err := readFile(fs, e.Path)
		if err != nil {
			return nil, fmt.Errorf("worktree: reading %s: %w", e.Path, err)
		}
		blobHash, err := object.NewBlob(content).Hash()
		if err != nil {
			return nil, err
		}
		if blobHash == e.Hash {
			st.Staged = append(st.Staged, e.Path)
		} else {
			st.Modified = append(st.Modified, e.Path)
		}
	}

	for p := range present {
		if !indexPaths[p] {
			st.Untracked = append(st.Untracked, p)
		}
	}

	sort.Strings(st.Staged)
	sort.Strings(st.Modified)
	sort.Strings(st.Deleted)
	sort.Strings(st.Untracked)
	return st, nil
}

func readFile(fs billy.Filesystem, path string) ([]byte, error) {
	f, err := fs.Open(path)
	if err != nil {
		return nil, err
	}
	defer f.Close()

	var out []byte
	buf := make([]byte, 4096)
	for {
		n, err := f.Read(buf)
		if n > 0 {
			out = append(out, buf[:n]...)
		}
		if err != nil {
			break
		}
	}
	return out, nil
}

func walk(fs billy.Filesystem, dir, dotDir string, out map[string]os.FileInfo) error {
	entries, err := fs.ReadDir(dir)
	if err != nil {
		return err
	}
	for _, fi := range entries {
		name := norm.NFC.String(fi.Name())
		rel := name
		if dir != "" {
			rel = dir + "/" + name
		}
		if fi.IsDir() {
			if denyDirs[name] || rel == dotDir {
				continue
			}
			if err := walk(fs, rel, dotDir, out); err != nil {
				return err
			}
			continue
		}
		out[rel] = fi
	}
	return nil
}
