// Package ext4 talks to the filesystem: it confirms a path is on ext4,
// reads and writes directory encryption policies and creates the marker
// inode that materializes a new policy.
package ext4

import "github.com/TheMichaelB/dircrypt/internal/models"

// SuperMagic is the ext4 superblock magic reported by statfs.
const SuperMagic = 0xEF53

// MarkerNameSize is the length of the throwaway marker file name.
const MarkerNameSize = 16

// Filesystem opens directories for policy operations.
type Filesystem interface {
	// Open opens path, which must be a directory on ext4.
	Open(path string) (Dir, error)
}

// Dir is an open directory handle. It is owned by the caller that opened it.
type Dir interface {
	// Path returns the path the directory was opened with.
	Path() string

	// GetPolicy returns the directory policy, or nil if it has none.
	GetPolicy() (*models.EncryptionPolicy, error)

	// SetPolicy applies policy to the directory.
	SetPolicy(policy *models.EncryptionPolicy) error

	// CreateMarker creates a file called name inside the directory and
	// unlinks it right away.
	CreateMarker(name string) error

	// Close releases the handle.
	Close() error
}
