//go:build linux

package main

import (
	"fmt"
	"os"

	"golang.org/x/sys/unix"
)

const dropCachesPath = "/proc/sys/vm/drop_caches"

// dropCaches flushes dirty pages and evicts clean dentries and inodes, so
// decrypted names and contents leave memory once the key is gone.
func dropCaches() error {
	unix.Sync()
	if err := os.WriteFile(dropCachesPath, []byte("2"), 0); err != nil {
		return fmt.Errorf("write %s: %w", dropCachesPath, err)
	}
	return nil
}
