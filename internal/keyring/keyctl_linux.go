//go:build linux

package keyring

import (
	"errors"
	"fmt"

	"golang.org/x/sys/unix"
)

// KeyctlRegistry is the kernel key retention service.
type KeyctlRegistry struct {
	ring int
}

// NewKeyctlRegistry opens the keyring named by target: session,
// user-session or user.
func NewKeyctlRegistry(target string) (*KeyctlRegistry, error) {
	var ring int
	switch target {
	case "", "session":
		ring = unix.KEY_SPEC_SESSION_KEYRING
	case "user-session":
		ring = unix.KEY_SPEC_USER_SESSION_KEYRING
	case "user":
		ring = unix.KEY_SPEC_USER_KEYRING
	default:
		return nil, fmt.Errorf("unknown keyring %q", target)
	}
	return &KeyctlRegistry{ring: ring}, nil
}

// Search implements Registry.
func (r *KeyctlRegistry) Search(keyType, description string) (int, error) {
	serial, err := unix.KeyctlSearch(r.ring, keyType, description, 0)
	if err != nil {
		return 0, translate(err)
	}
	return serial, nil
}

// Add implements Registry.
func (r *KeyctlRegistry) Add(keyType, description string, payload []byte) (int, error) {
	serial, err := unix.AddKey(keyType, description, payload, r.ring)
	if err != nil {
		return 0, translate(err)
	}
	return serial, nil
}

// Unlink implements Registry.
func (r *KeyctlRegistry) Unlink(serial int) error {
	if _, err := unix.KeyctlInt(unix.KEYCTL_UNLINK, serial, r.ring, 0, 0); err != nil {
		return translate(err)
	}
	return nil
}

func translate(err error) error {
	switch {
	case errors.Is(err, unix.ENOKEY), errors.Is(err, unix.EKEYEXPIRED), errors.Is(err, unix.EKEYREVOKED):
		return fmt.Errorf("%w: %v", ErrKeyNotFound, err)
	case errors.Is(err, unix.EDQUOT):
		return fmt.Errorf("%w: %v", ErrQuotaExceeded, err)
	case errors.Is(err, unix.EACCES), errors.Is(err, unix.EPERM):
		return fmt.Errorf("%w: %v", ErrAccessDenied, err)
	}
	return err
}
