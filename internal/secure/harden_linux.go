//go:build linux

package secure

import (
	"fmt"

	"golang.org/x/sys/unix"
)

func hardenProcess() error {
	// A non-dumpable process cannot be ptrace-attached by other users
	// and does not produce core files.
	if err := unix.Prctl(unix.PR_SET_DUMPABLE, 0, 0, 0, 0); err != nil {
		return fmt.Errorf("prctl: %w", err)
	}
	if err := unix.Setrlimit(unix.RLIMIT_CORE, &unix.Rlimit{Cur: 0, Max: 0}); err != nil {
		return fmt.Errorf("setrlimit core: %w", err)
	}
	return nil
}
