// Package refs implements named pointers to commits (refs/heads,
// refs/remotes) and the HEAD pointer, including attached/detached
// resolution.
package refs

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/Niko256/vox/plumbing/hash"
	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"
)

const (
	// HeadPath is the well-known location of HEAD within the repository
	// dot-directory.
	HeadPath = "HEAD"

	headPrefix = "ref: "
	HeadsDir   = "refs/heads"
	RemotesDir = "refs/remotes"
)

// ErrNotFound is returned when a ref file does not exist.
var ErrNotFound = errors.New("ref not found")

// ErrMalformed is returned when HEAD or a ref file does not match either
// of its two valid on-disk shapes.
var ErrMalformed = errors.New("malformed ref")

// Store reads and writes refs and HEAD under a billy.Filesystem rooted
// at the repository dot-directory.
type Store struct {
	fs  billy.Filesystem
	log logrus.FieldLogger
}

// New builds a Store rooted at fs.
func New(fs billy.Filesystem, log logrus.FieldLogger) *Store {
	if log == nil {
		log = logrus.New()
	}
	return &Store{fs: fs, log: log}
}

// readRaw reads the raw trimmed content of the file at path.
func (s *Store) readRaw(path string) (string, error) {
	f, err := s.fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", ErrNotFound, path)
		}
		return "", fmt.Errorf("refs: opening %s: %w", path, err)
	}
	defer f.Close()

	var buf strings.Builder
	tmp := make([]byte, 256)
	for {
		n, err := f.Read(tmp)
		if n > 0 {
			buf.Write(tmp[:n])
		}
		if err != nil {
			break
		}
	}
	return strings.TrimRight(buf.String(), "\n"), nil
}

// Resolve follows a single level of "ref: refs/..." indirection (only
// ever relevant for HEAD) and returns the commit hash the name
// ultimately points to.
func (s *Store) Resolve(name string) (hash.Hash, error) {
	content, err := s.readRaw(name)
	if err != nil {
		return hash.ZeroHash, err
	}

	if strings.HasPrefix(content, headPrefix) {
		target := strings.TrimPrefix(content, headPrefix)
		target = strings.TrimSpace(target)
		targetContent, err := s.readRaw(target)
		if err != nil {
			return hash.ZeroHash, err
		}
		h, err := hash.FromHex(targetContent)
		if err != nil {
			return hash.ZeroHash, fmt.Errorf("%w: %s contains non-hash %q", ErrMalformed, target, targetContent)
		}
		return h, nil
	}

	h, err := hash.FromHex(content)
	if err != nil {
		return hash.ZeroHash, fmt.Errorf("%w: %s contains %q", ErrMalformed, name, content)
	}
	return h, nil
}

// CurrentBranch reads HEAD; if attached (ref: refs/heads/<name>) it
// returns the branch name and its resolved hash. If detached, ok is
// false.
func (s *Store) CurrentBranch() (name string, h hash.Hash, ok bool, err error) {
	content, err := s.readRaw(HeadPath)
	if err != nil {
		return "", hash.ZeroHash, false, err
	}

	if !strings.HasPrefix(content, headPrefix) {
		return "", hash.ZeroHash, false, nil
	}

	target := strings.TrimSpace(strings.TrimPrefix(content, headPrefix))
	if !strings.HasPrefix(target, HeadsDir+"/") {
		return "", hash.ZeroHash, false, fmt.Errorf("%w: HEAD points outside %s", ErrMalformed, HeadsDir)
	}
	name = strings.TrimPrefix(target, HeadsDir+"/")

	h, err = s.Resolve(HeadPath)
	if err != nil {
		return "", hash.ZeroHash, false, err
	}
	return name, h, true, nil
}

// IsDetached reports whether HEAD currently holds a raw hash rather than
// a branch indirection.
func (s *Store) IsDetached() (bool, error) {
	content, err := s.readRaw(HeadPath)
	if err != nil {
		return false, err
	}
	return !strings.HasPrefix(content, headPrefix), nil
}

// UpdateCurrent advances whatever HEAD currently points at: the current
// branch's file if attached, or HEAD itself (rewritten with the raw
// hash) if detached.
func (s *Store) UpdateCurrent(h hash.Hash) error {
	content, err := s.readRaw(HeadPath)
	if err != nil {
		return err
	}

	if strings.HasPrefix(content, headPrefix) {
		target := strings.TrimSpace(strings.TrimPrefix(content, headPrefix))
		if err := s.writeAtomic(target, h.String()+"\n"); err != nil {
			return err
		}
		s.log.WithFields(logrus.Fields{"op": "advance-branch", "ref": target, "hash": h.String()}).Info("advanced branch")
		return nil
	}

	if err := s.writeAtomic(HeadPath, h.String()+"\n"); err != nil {
		return err
	}
	s.log.WithFields(logrus.Fields{"op": "advance-detached-head", "hash": h.String()}).Info("advanced detached HEAD")
	return nil
}

// SetHeadToBranch attaches HEAD to the named branch.
func (s *Store) SetHeadToBranch(name string) error {
	return s.writeAtomic(HeadPath, headPrefix+HeadsDir+"/"+name+"\n")
}

// SetHeadDetached points HEAD directly at h.
func (s *Store) SetHeadDetached(h hash.Hash) error {
	return s.writeAtomic(HeadPath, h.String()+"\n")
}

// WriteRef creates path's parent directories and writes "<hash>\n"
// atomically (temp + rename within the same directory).
func (s *Store) WriteRef(path string, h hash.Hash) error {
	return s.writeAtomic(path, h.String()+"\n")
}

func (s *Store) writeAtomic(path, content string) error {
	dir := dirname(path)
	if dir != "" {
		if err := s.fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("refs: mkdir %s: %w", dir, err)
		}
	}

	tmp, err := s.fs.TempFile(dir, "tmp_ref_")
	if err != nil {
		return fmt.Errorf("refs: creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write([]byte(content)); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return fmt.Errorf("refs: writing temp file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("refs: closing temp file: %w", err)
	}

	if err := s.fs.Rename(tmpName, path); err != nil {
		s.fs.Remove(tmpName)
		return fmt.Errorf("refs: renaming into place: %w", err)
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
