package index

import (
	"os"
	"time"

	"github.com/Niko256/vox/plumbing/hash"
)

// FromFileInfo builds an Entry for path from a stat result and an
// already-computed blob hash. fullPath is the real filesystem path used
// to look up dev/inode/uid/gid (zero on platforms without that concept).
func FromFileInfo(path, fullPath string, fi os.FileInfo, blobHash hash.Hash) Entry {
	dev, ino, uid, gid, _ := statMetadata(fullPath)
	return Entry{
		MTime: fi.ModTime(),
		Dev:   dev,
		Inode: ino,
		UID:   uid,
		GID:   gid,
		Mode:  uint32(fi.Mode().Perm()) | modeKind(fi),
		Size:  uint32(fi.Size()),
		Hash:  blobHash,
		Path:  path,
	}
}

func modeKind(fi os.FileInfo) uint32 {
	if fi.IsDir() {
		return 0o40000
	}
	return 0o100000
}

// MatchesStat reports whether e is still consistent with a fresh stat of
// its path on disk. mtime compares at whole-second precision, matching
// the granularity the index encoder/decoder round-trip through (Unix
// seconds): comparing at full nanosecond precision would make this
// check fail for every untouched file the moment the index has been
// saved and reloaded once, defeating its purpose as the cheap default
// path. dev/inode, when available, must agree exactly per the Open
// Question resolution: disagreement there is never tolerated, since it
// indicates either a truncation collision or that the path now refers
// to a different file.
func (e Entry) MatchesStat(fullPath string, fi os.FileInfo) bool {
	if e.Size != uint32(fi.Size()) {
		return false
	}
	if !e.MTime.Truncate(time.Second).Equal(fi.ModTime().Truncate(time.Second)) {
		return false
	}
	dev, ino, _, _, ok := statMetadata(fullPath)
	if !ok {
		return true
	}
	if e.Dev != 0 && dev != e.Dev {
		return false
	}
	if e.Inode != 0 && ino != e.Inode {
		return false
	}
	return true
}
