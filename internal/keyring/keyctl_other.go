//go:build !linux

package keyring

import "errors"

// KeyctlRegistry is unavailable outside Linux.
type KeyctlRegistry struct{}

var errNoKeyctl = errors.New("kernel keyring is only available on linux")

// NewKeyctlRegistry always fails outside Linux.
func NewKeyctlRegistry(target string) (*KeyctlRegistry, error) {
	return nil, errNoKeyctl
}

// Search implements Registry.
func (r *KeyctlRegistry) Search(keyType, description string) (int, error) {
	return 0, errNoKeyctl
}

// Add implements Registry.
func (r *KeyctlRegistry) Add(keyType, description string, payload []byte) (int, error) {
	return 0, errNoKeyctl
}

// Unlink implements Registry.
func (r *KeyctlRegistry) Unlink(serial int) error {
	return errNoKeyctl
}
