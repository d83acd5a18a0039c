// Package repository ties the object store, index and refs together
// into commit/log/show/checkout/fetch/clone operations over a single
// immutable Paths value.
package repository

import (
	"errors"
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"

	"github.com/Niko256/vox/config"
	"github.com/Niko256/vox/index"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/refs"
	"github.com/Niko256/vox/storage"
)

// DotDir is the name of the repository metadata directory inside the
// working tree, analogous to ".git".
const DotDir = ".vox"

const indexFile = "index"

// Paths is the immutable pair of filesystem roots every operation is
// threaded through: Work is the working tree, Dot is chrooted at
// DotDir. Passing Paths by value instead of relying on global cwd state
// is what lets the same Repository address a bare clone destination, an
// in-memory test fixture, or the real working directory identically.
type Paths struct {
	Work billy.Filesystem
	Dot  billy.Filesystem
}

// ErrAlreadyInitialized is returned by Init when a repository already
// exists at the given paths.
var ErrAlreadyInitialized = errors.New("repository already initialized")

// ErrNotARepository is returned by Open when no repository exists.
var ErrNotARepository = errors.New("not a vox repository")

// ErrWorkdirDirty is returned by Checkout when the working tree has
// uncommitted changes and force was not requested.
var ErrWorkdirDirty = errors.New("workdir has uncommitted changes")

// Repository bundles the paths with the object store and ref store
// built on top of them.
type Repository struct {
	Paths   Paths
	Objects *storage.ObjectStore
	Refs    *refs.Store
	Index   *index.Index
	Config  *config.Config
	log     logrus.FieldLogger
}

// SaveConfig persists the repository's in-memory config back to disk.
func (r *Repository) SaveConfig() error {
	return config.Save(r.Paths.Dot, r.Config)
}

func chroot(work billy.Filesystem) (billy.Filesystem, error) {
	return work.Chroot(DotDir)
}

// Init creates a new repository rooted at work: the dot-directory,
// objects/ and refs/heads/ directories, and a HEAD attached to
// refs/heads/master (no commit yet, so master does not exist as a file
// until the first commit).
func Init(work billy.Filesystem, log logrus.FieldLogger) (*Repository, error) {
	if log == nil {
		log = logrus.New()
	}
	if _, err := work.Stat(DotDir); err == nil {
		return nil, ErrAlreadyInitialized
	}

	dot, err := chroot(work)
	if err != nil {
		return nil, fmt.Errorf("repository: chroot %s: %w", DotDir, err)
	}
	if err := dot.MkdirAll("objects", 0o755); err != nil {
		return nil, fmt.Errorf("repository: creating objects dir: %w", err)
	}
	if err := dot.MkdirAll(refs.HeadsDir, 0o755); err != nil {
		return nil, fmt.Errorf("repository: creating %s: %w", refs.HeadsDir, err)
	}

	objStore, err := storage.NewObjectStore(dot, log)
	if err != nil {
		return nil, err
	}
	refStore := refs.New(dot, log)
	if err := refStore.SetHeadToBranch("master"); err != nil {
		return nil, err
	}

	cfg := config.New()
	if err := config.Save(dot, cfg); err != nil {
		return nil, fmt.Errorf("repository: writing initial config: %w", err)
	}

	log.WithFields(logrus.Fields{"op": "init", "path": work.Root()}).Info("initialized repository")

	return &Repository{
		Paths:   Paths{Work: work, Dot: dot},
		Objects: objStore,
		Refs:    refStore,
		Index:   index.New(),
		Config:  cfg,
		log:     log,
	}, nil
}

// Open loads an existing repository rooted at work, including its
// persisted staging index.
func Open(work billy.Filesystem, log logrus.FieldLogger) (*Repository, error) {
	if log == nil {
		log = logrus.New()
	}
	if _, err := work.Stat(DotDir); err != nil {
		if os.IsNotExist(err) {
			return nil, ErrNotARepository
		}
		return nil, fmt.Errorf("repository: stat %s: %w", DotDir, err)
	}

	dot, err := chroot(work)
	if err != nil {
		return nil, fmt.Errorf("repository: chroot %s: %w", DotDir, err)
	}
	objStore, err := storage.NewObjectStore(dot, log)
	if err != nil {
		return nil, err
	}
	refStore := refs.New(dot, log)

	idx, err := index.Open(dot, indexFile)
	if err != nil {
		return nil, fmt.Errorf("repository: opening index: %w", err)
	}

	cfg, err := config.Load(dot)
	if err != nil {
		return nil, fmt.Errorf("repository: loading config: %w", err)
	}

	return &Repository{
		Paths:   Paths{Work: work, Dot: dot},
		Objects: objStore,
		Refs:    refStore,
		Index:   idx,
		Config:  cfg,
		log:     log,
	}, nil
}

// SaveIndex persists the repository's in-memory index back to disk.
func (r *Repository) SaveIndex() error {
	return index.Save(r.Paths.Dot, indexFile, r.Index)
}

// HeadTree resolves HEAD to a commit and returns its tree hash, or the
// zero hash if there is no commit yet (a fresh repository).
func (r *Repository) HeadTree() (hash.Hash, error) {
	h, err := r.Refs.Resolve(refs.HeadPath)
	if err != nil {
		if errors.Is(err, refs.ErrNotFound) {
			return hash.ZeroHash, nil
		}
		return hash.ZeroHash, err
	}
	return headCommitTree(r.Objects, h)
}
