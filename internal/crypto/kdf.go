package crypto

import (
	"fmt"

	"golang.org/x/crypto/scrypt"
	"golang.org/x/text/unicode/norm"

	"github.com/TheMichaelB/dircrypt/internal/models"
	"github.com/TheMichaelB/dircrypt/internal/secure"
)

const (
	// Scrypt parameters
	ScryptN = 1 << 14 // CPU/memory cost parameter
	ScryptR = 8       // block size parameter
	ScryptP = 16      // parallelization parameter
)

// Salt is the fixed salt used for every key. Keys stay compatible with
// directories set up by earlier tools using the same derivation.
var Salt = []byte("ext4")

// Params are the scrypt cost parameters.
type Params struct {
	N int
	R int
	P int
}

// DefaultParams returns the production cost parameters.
func DefaultParams() Params {
	return Params{N: ScryptN, R: ScryptR, P: ScryptP}
}

// ScryptDeriver derives keys with scrypt.
type ScryptDeriver struct {
	params    Params
	normalize bool
}

// NewDeriver creates a deriver with the production parameters. When
// normalize is set passphrases are NFKC-normalized before hashing.
func NewDeriver(normalize bool) *ScryptDeriver {
	return &ScryptDeriver{params: DefaultParams(), normalize: normalize}
}

// NewDeriverWithParams creates a deriver with custom cost parameters.
func NewDeriverWithParams(params Params, normalize bool) *ScryptDeriver {
	return &ScryptDeriver{params: params, normalize: normalize}
}

// DeriveKey implements Deriver.
func (d *ScryptDeriver) DeriveKey(passphrase *secure.Buffer, mode models.CipherMode) (*KeyMaterial, error) {
	pass := passphrase.Bytes()
	if d.normalize {
		normalized := norm.NFKC.Append(nil, pass...)
		defer secure.Zero(normalized)
		pass = normalized
	}

	km, err := NewKeyMaterial(0, mode.KeySize())
	if err != nil {
		return nil, fmt.Errorf("%w: %v", models.ErrDerivationFailed, err)
	}

	raw, err := scrypt.Key(pass, Salt, d.params.N, d.params.R, d.params.P, km.Size())
	if err != nil {
		km.Zero()
		return nil, fmt.Errorf("%w: scrypt: %v", models.ErrDerivationFailed, err)
	}
	copy(km.Raw(), raw)
	secure.Zero(raw)

	return km, nil
}
