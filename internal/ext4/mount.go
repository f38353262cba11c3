package ext4

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/shirou/gopsutil/disk"
)

// MountInfo describes where a directory is mounted.
type MountInfo struct {
	Device     string `json:"device"`
	Mountpoint string `json:"mountpoint"`
	Fstype     string `json:"fstype"`
}

// LookupMount finds the mount holding path. The longest matching mount
// point wins, so nested mounts resolve correctly.
func LookupMount(path string) (*MountInfo, error) {
	partitions, err := disk.Partitions(true)
	if err != nil {
		return nil, fmt.Errorf("list partitions: %w", err)
	}

	absPath, err := filepath.Abs(path)
	if err != nil {
		return nil, err
	}
	if resolved, err := filepath.EvalSymlinks(absPath); err == nil {
		absPath = resolved
	}

	var best *MountInfo
	for _, p := range partitions {
		if !contains(absPath, p.Mountpoint) {
			continue
		}
		if best == nil || len(p.Mountpoint) > len(best.Mountpoint) {
			best = &MountInfo{Device: p.Device, Mountpoint: p.Mountpoint, Fstype: p.Fstype}
		}
	}

	if best == nil {
		return nil, fmt.Errorf("mount point not found for path: %s", path)
	}
	return best, nil
}

// contains checks if a path is within the mount point.
func contains(path, mountpoint string) bool {
	if mountpoint == "" {
		return false
	}

	p := filepath.Clean(path)
	m := filepath.Clean(mountpoint)

	if m == string(os.PathSeparator) {
		return true
	}

	if p == m {
		return true
	}

	return strings.HasPrefix(p, m+string(os.PathSeparator))
}
