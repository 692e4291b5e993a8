package carve

import (
	"fmt"

	"golang.org/x/sys/unix"
)

// FreeSpaceFunc reports the bytes available to unprivileged writes on the
// filesystem holding dir. Injected so space gating is testable without
// filling a disk.
type FreeSpaceFunc func(dir string) (int64, error)

// DiskFree reads the available byte count via statfs.
func DiskFree(dir string) (int64, error) {
	var st unix.Statfs_t
	if err := unix.Statfs(dir, &st); err != nil {
		return 0, fmt.Errorf("carve: statfs %s: %w", dir, err)
	}
	return int64(st.Bavail) * int64(st.Bsize), nil
}

// hasHeadroom gates chunk creation: available free space must cover one
// chunk plus the safety buffer. Free space is re-read before every chunk
// because other processes write to the same filesystem; the buffer is a
// heuristic margin, not a reservation.
func hasHeadroom(free FreeSpaceFunc, dir string, chunkSize, safetyBuffer int64) (bool, int64, error) {
	available, err := free(dir)
	if err != nil {
		return false, 0, err
	}
	return available >= chunkSize+safetyBuffer, available, nil
}
