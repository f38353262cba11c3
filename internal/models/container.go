package models

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"
)

// Container is the registry record of a directory set up for encryption.
// It never holds key material.
type Container struct {
	Path           string    `json:"path"`
	Descriptor     string    `json:"descriptor"` // lowercase hex
	ContentsCipher string    `json:"contents_cipher"`
	FilenameCipher string    `json:"filename_cipher"`
	Padding        int       `json:"padding"`
	CreatedAt      time.Time `json:"created_at"`
	LastAttachedAt time.Time `json:"last_attached_at,omitempty"`
	LastDetachedAt time.Time `json:"last_detached_at,omitempty"`
}

// NewContainer creates a record from a freshly applied policy.
func NewContainer(path string, policy *EncryptionPolicy, now time.Time) *Container {
	return &Container{
		Path:           path,
		Descriptor:     policy.KeyDescriptor.Hex(),
		ContentsCipher: policy.ContentsMode.String(),
		FilenameCipher: policy.FilenamesMode.String(),
		Padding:        policy.Padding(),
		CreatedAt:      now,
		LastAttachedAt: now,
	}
}

// KeyDescriptor parses the stored descriptor.
func (c *Container) KeyDescriptor() (KeyDescriptor, error) {
	return ParseKeyDescriptor(c.Descriptor)
}

// MarkAttached records a successful attach.
func (c *Container) MarkAttached(now time.Time) {
	c.LastAttachedAt = now
}

// MarkDetached records a successful detach.
func (c *Container) MarkDetached(now time.Time) {
	c.LastDetachedAt = now
}

// Validate checks the record is usable.
func (c *Container) Validate() error {
	if strings.TrimSpace(c.Path) == "" {
		return fmt.Errorf("container path is required")
	}
	if !filepath.IsAbs(c.Path) {
		return fmt.Errorf("container path must be absolute: %s", c.Path)
	}
	if _, err := c.KeyDescriptor(); err != nil {
		return fmt.Errorf("container descriptor: %w", err)
	}
	if c.CreatedAt.IsZero() {
		return fmt.Errorf("container created_at is required")
	}
	return nil
}
