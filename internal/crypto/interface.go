package crypto

import (
	"github.com/TheMichaelB/dircrypt/internal/models"
	"github.com/TheMichaelB/dircrypt/internal/secure"
)

// Deriver turns a passphrase into key material for a cipher mode.
type Deriver interface {
	// DeriveKey derives the master key for mode. The caller owns the
	// returned key and must Zero it.
	DeriveKey(passphrase *secure.Buffer, mode models.CipherMode) (*KeyMaterial, error)
}
