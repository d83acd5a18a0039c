//go:build windows

package index

// statMetadata has no dev/inode/uid/gid concept on Windows; zero values
// are stored and MatchesStat falls back to the mtime/size oracle only.
func statMetadata(fullPath string) (dev, ino, uid, gid uint32, ok bool) {
	return 0, 0, 0, 0, false
}
