//go:build !windows

package index

import "golang.org/x/sys/unix"

// statMetadata extracts dev/inode/uid/gid for fullPath via a direct
// unix.Stat call rather than os.FileInfo.Sys(), so the result is
// consistent across the unix variants x/sys/unix normalizes. Fields
// intentionally truncate 64-bit kernel values into the fixed 32-bit
// on-disk slots the format mandates (see DESIGN.md's Open Question
// resolution): truncation is accepted, but MatchesStat detects when a
// truncated value has drifted from a fresh stat and callers should
// treat that as "changed", not "trusted".
func statMetadata(fullPath string) (dev, ino, uid, gid uint32, ok bool) {
	var st unix.Stat_t
	if err := unix.Stat(fullPath, &st); err != nil {
		return 0, 0, 0, 0, false
	}
	return uint32(st.Dev), uint32(st.Ino), st.Uid, st.Gid, true
}
