// Package keyring registers directory master keys with the kernel keyring.
package keyring

import (
	"errors"

	"github.com/TheMichaelB/dircrypt/internal/crypto"
	"github.com/TheMichaelB/dircrypt/internal/events"
	"github.com/TheMichaelB/dircrypt/internal/models"
)

const (
	// KeyType is the kernel key type ext4 looks keys up by.
	KeyType = "logon"

	// DescriptorPrefix prefixes every ext4 key description.
	DescriptorPrefix = "ext4:"
)

// ErrKeyNotFound is returned by a Registry search that found nothing.
var ErrKeyNotFound = errors.New("key not found")

// Registry is the raw key registry.
type Registry interface {
	// Search returns the serial of the key with the given type and
	// description, or ErrKeyNotFound.
	Search(keyType, description string) (int, error)

	// Add creates or updates a key and returns its serial.
	Add(keyType, description string, payload []byte) (int, error)

	// Unlink removes the key from the registry.
	Unlink(serial int) error
}

// LookupKey returns the keyring description for a policy descriptor.
func LookupKey(desc models.KeyDescriptor) string {
	return DescriptorPrefix + desc.Hex()
}

// Bridge maps policy descriptors to keys in a Registry.
type Bridge struct {
	registry Registry
	logger   *events.Logger
}

// NewBridge creates a bridge over registry.
func NewBridge(registry Registry, logger *events.Logger) *Bridge {
	return &Bridge{
		registry: registry,
		logger:   logger.WithField("component", "keyring"),
	}
}

// Find returns the serial of the key for desc. A missing key is reported
// through found, not as an error.
func (b *Bridge) Find(desc models.KeyDescriptor) (serial int, found bool, err error) {
	serial, err = b.registry.Search(KeyType, LookupKey(desc))
	if err != nil {
		if errors.Is(err, ErrKeyNotFound) {
			return 0, false, nil
		}
		return 0, false, classify("search key", desc, err)
	}
	return serial, true, nil
}

// Add registers key under the description for desc.
func (b *Bridge) Add(desc models.KeyDescriptor, key *crypto.KeyMaterial) (int, error) {
	serial, err := b.registry.Add(KeyType, LookupKey(desc), key.Payload())
	if err != nil {
		return 0, classify("add key", desc, err)
	}

	b.logger.WithFields(map[string]interface{}{
		"descriptor": desc.Hex(),
		"serial":     serial,
	}).Debug("Key added to keyring")

	return serial, nil
}

// Remove unlinks the key for desc.
func (b *Bridge) Remove(desc models.KeyDescriptor) error {
	serial, found, err := b.Find(desc)
	if err != nil {
		return err
	}
	if !found {
		return models.NewOpError("remove key", LookupKey(desc), models.ErrNoKeyFound, nil)
	}

	if err := b.registry.Unlink(serial); err != nil {
		return classify("remove key", desc, err)
	}

	b.logger.WithFields(map[string]interface{}{
		"descriptor": desc.Hex(),
		"serial":     serial,
	}).Debug("Key removed from keyring")

	return nil
}

// classify maps registry errors onto the error taxonomy.
func classify(op string, desc models.KeyDescriptor, err error) error {
	kind := models.ErrIO
	switch {
	case errors.Is(err, ErrQuotaExceeded):
		kind = models.ErrKeyringFull
	case errors.Is(err, ErrAccessDenied):
		kind = models.ErrPermissionDenied
	}
	return models.NewOpError(op, LookupKey(desc), kind, err)
}
