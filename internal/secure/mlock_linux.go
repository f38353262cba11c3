//go:build linux

package secure

import "golang.org/x/sys/unix"

// lock keeps the pages out of swap. Failure (RLIMIT_MEMLOCK) is tolerated.
func lock(b []byte) bool {
	if len(b) == 0 {
		return false
	}
	return unix.Mlock(b) == nil
}

func unlock(b []byte) {
	_ = unix.Munlock(b)
}
