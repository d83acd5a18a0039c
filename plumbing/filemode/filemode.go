// Package filemode defines the small, closed set of tree-entry modes the
// object model supports. Only the file/directory distinction is modeled;
// symlinks, submodules (gitlinks) and the executable bit are out of
// scope non-goals.
package filemode

import "strconv"

// FileMode is a tree entry's mode, stored as the octal ASCII string
// written into tree payloads (e.g. "100644", "40000").
type FileMode uint32

const (
	// Empty is the zero value, never valid on disk.
	Empty FileMode = 0
	// Regular is a non-executable file, mode 100644.
	Regular FileMode = 0o100644
	// Dir is a subtree, mode 40000.
	Dir FileMode = 0o40000
)

// IsDir reports whether m denotes a subtree.
func (m FileMode) IsDir() bool {
	return m == Dir
}

// IsRegular reports whether m denotes a regular file.
func (m FileMode) IsRegular() bool {
	return m == Regular
}

// String renders the mode the way it appears in a tree payload.
func (m FileMode) String() string {
	return strconv.FormatUint(uint64(m), 8)
}

// New parses the ASCII mode token from a tree payload.
func New(s string) (FileMode, error) {
	v, err := strconv.ParseUint(s, 8, 32)
	if err != nil {
		return Empty, err
	}
	return FileMode(v), nil
}

// FromOS maps a filesystem directory flag to the mode used in trees. The
// underlying file's executable bit is intentionally ignored.
func FromOS(isDir bool) FileMode {
	if isDir {
		return Dir
	}
	return Regular
}
