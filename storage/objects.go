// Package storage implements the on-disk repository layout: the sharded
// object store, and the read-through decoded-object cache layered over
// it. Refs, HEAD and the index live in their own packages but share the
// same billy.Filesystem rooting convention established here.
package storage

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/Niko256/vox/internal/objfile"
	"github.com/Niko256/vox/plumbing/hash"
	"github.com/Niko256/vox/plumbing/object"
	"github.com/dgraph-io/ristretto/v2"
	"github.com/go-git/go-billy/v5"
	"github.com/sirupsen/logrus"
)

// Errors surfaced by the object store, matching the taxonomy's names.
var (
	ErrObjectNotFound = errors.New("object not found")
	ErrIO             = errors.New("i/o error")
)

const objectsDir = "objects"

// ObjectStore is the sharded, content-addressed, zlib-compressed object
// store rooted at a billy.Filesystem (normally the repository
// dot-directory; objects live under its "objects" directory).
type ObjectStore struct {
	fs    billy.Filesystem
	cache *ristretto.Cache[hash.Hash, cachedObject]
	log   logrus.FieldLogger
}

type cachedObject struct {
	typ     object.Type
	payload []byte
}

// NewObjectStore builds a store rooted at fs (the repository dot-directory;
// objects are read/written under fs.Join("objects", ...)). log may be nil,
// in which case a discarding logger is used.
func NewObjectStore(fs billy.Filesystem, log logrus.FieldLogger) (*ObjectStore, error) {
	cache, err := ristretto.NewCache(&ristretto.Config[hash.Hash, cachedObject]{
		NumCounters: 10_000,
		MaxCost:     32 << 20, // 32MiB of decoded object payloads
		BufferItems: 64,
	})
	if err != nil {
		return nil, fmt.Errorf("%w: building object cache: %v", ErrIO, err)
	}
	if log == nil {
		discard := logrus.New()
		discard.SetOutput(io.Discard)
		log = discard
	}
	return &ObjectStore{fs: fs, cache: cache, log: log}, nil
}

func shardedPath(h hash.Hash) (dir, full string) {
	hex := h.String()
	dir = hex[:2]
	return dir, dir + "/" + hex[2:]
}

// Has reports whether an object with the given hash is present.
func (s *ObjectStore) Has(h hash.Hash) (bool, error) {
	_, path := shardedPath(h)
	_, err := s.fs.Stat(s.fs.Join(objectsDir, path))
	if err == nil {
		return true, nil
	}
	if os.IsNotExist(err) {
		return false, nil
	}
	return false, fmt.Errorf("%w: stat %s: %v", ErrIO, path, err)
}

// WriteObject computes hash(type, payload), and if no object already
// exists under that hash, zlib-compresses and writes it atomically
// (temp file + rename). Writing the same object twice is a no-op:
// idempotent by construction.
func (s *ObjectStore) WriteObject(t object.Type, payload []byte) (hash.Hash, error) {
	var buf bytes.Buffer
	h, err := objfile.WriteAll(&buf, t, payload)
	if err != nil {
		return hash.ZeroHash, fmt.Errorf("%w: encoding object: %v", ErrIO, err)
	}

	exists, err := s.Has(h)
	if err != nil {
		return hash.ZeroHash, err
	}
	if exists {
		s.log.WithFields(logrus.Fields{"op": "write-object", "hash": h.String(), "type": t.String()}).Debug("object already present")
		return h, nil
	}

	shardDir, path := shardedPath(h)
	if err := s.fs.MkdirAll(s.fs.Join(objectsDir, shardDir), 0o755); err != nil {
		return hash.ZeroHash, fmt.Errorf("%w: mkdir %s: %v", ErrIO, shardDir, err)
	}

	tmp, err := s.fs.TempFile(s.fs.Join(objectsDir, shardDir), "tmp_obj_")
	if err != nil {
		return hash.ZeroHash, fmt.Errorf("%w: creating temp object: %v", ErrIO, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(buf.Bytes()); err != nil {
		tmp.Close()
		s.fs.Remove(tmpName)
		return hash.ZeroHash, fmt.Errorf("%w: writing temp object: %v", ErrIO, err)
	}
	if err := tmp.Close(); err != nil {
		s.fs.Remove(tmpName)
		return hash.ZeroHash, fmt.Errorf("%w: closing temp object: %v", ErrIO, err)
	}

	finalPath := s.fs.Join(objectsDir, path)
	if err := s.fs.Rename(tmpName, finalPath); err != nil {
		s.fs.Remove(tmpName)
		return hash.ZeroHash, fmt.Errorf("%w: renaming object into place: %v", ErrIO, err)
	}

	s.cache.Set(h, cachedObject{typ: t, payload: payload}, int64(len(payload)))
	s.log.WithFields(logrus.Fields{"op": "write-object", "hash": h.String(), "type": t.String()}).Info("wrote object")
	return h, nil
}

// ReadObject opens the sharded path, zlib-decompresses it, and splits
// the header from the payload.
func (s *ObjectStore) ReadObject(h hash.Hash) (object.Type, []byte, error) {
	if v, ok := s.cache.Get(h); ok {
		return v.typ, v.payload, nil
	}

	_, path := shardedPath(h)
	f, err := s.fs.Open(s.fs.Join(objectsDir, path))
	if err != nil {
		if os.IsNotExist(err) {
			return object.InvalidObject, nil, fmt.Errorf("%w: %s", ErrObjectNotFound, h)
		}
		return object.InvalidObject, nil, fmt.Errorf("%w: opening %s: %v", ErrIO, path, err)
	}
	defer f.Close()

	typ, payload, _, err := objfile.ReadAll(f)
	if err != nil {
		if objfile.IsCorrupt(err) {
			return object.InvalidObject, nil, err
		}
		return object.InvalidObject, nil, fmt.Errorf("%w: reading %s: %v", ErrIO, path, err)
	}

	s.cache.Set(h, cachedObject{typ: typ, payload: payload}, int64(len(payload)))
	return typ, payload, nil
}
