//go:build !linux

package ext4

import "github.com/TheMichaelB/dircrypt/internal/models"

// OSFilesystem is the real filesystem. Only Linux supports ext4 encryption.
type OSFilesystem struct{}

// NewOSFilesystem returns the real filesystem.
func NewOSFilesystem() *OSFilesystem {
	return &OSFilesystem{}
}

// Open implements Filesystem.
func (OSFilesystem) Open(path string) (Dir, error) {
	return nil, models.NewOpError("open", path, models.ErrFilesystemMismatch, nil)
}
