package index

import (
	"fmt"
	"os"

	"github.com/go-git/go-billy/v5"
)

// Open reads the index file at path within fs, returning an empty Index
// if the file does not exist yet.
func Open(fs billy.Filesystem, path string) (*Index, error) {
	f, err := fs.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return New(), nil
		}
		return nil, fmt.Errorf("index: opening %s: %w", path, err)
	}
	defer f.Close()

	idx, err := DecodeFrom(f)
	if err != nil {
		return nil, err
	}
	return idx, nil
}

// Save rewrites the index file at path atomically (temp file + rename)
// in canonical path-sorted form.
func Save(fs billy.Filesystem, path string, idx *Index) error {
	dir := dirOf(path)
	if dir != "" {
		if err := fs.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("index: mkdir %s: %w", dir, err)
		}
	}

	tmp, err := fs.TempFile(dir, "tmp_index_")
	if err != nil {
		return fmt.Errorf("index: creating temp file: %w", err)
	}
	tmpName := tmp.Name()

	if err := EncodeTo(tmp, idx); err != nil {
		tmp.Close()
		fs.Remove(tmpName)
		return fmt.Errorf("index: encoding: %w", err)
	}
	if err := tmp.Close(); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("index: closing temp file: %w", err)
	}

	if err := fs.Rename(tmpName, path); err != nil {
		fs.Remove(tmpName)
		return fmt.Errorf("index: renaming into place: %w", err)
	}
	return nil
}

// dirOf returns the directory portion of path, or "" if path has no
// directory component.
func dirOf(path string) string {
	for i := len(path) - 1; i >= 0; i-- {
		if path[i] == '/' {
			return path[:i]
		}
	}
	return ""
}
