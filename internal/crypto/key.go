package crypto

import (
	"encoding/binary"
	"fmt"

	"github.com/TheMichaelB/dircrypt/internal/secure"
)

const (
	// MaxKeySize is the size of the raw key field in the kernel payload.
	MaxKeySize = 64

	// PayloadSize is mode(4) + raw(64) + size(4).
	PayloadSize = 4 + MaxKeySize + 4

	rawOffset  = 4
	sizeOffset = rawOffset + MaxKeySize
)

// KeyMaterial is a master key laid out exactly as the kernel expects it in
// a logon key payload: mode u32, raw [64]byte, size u32, native byte order.
type KeyMaterial struct {
	buf *secure.Buffer
}

// NewKeyMaterial allocates an empty key for a raw key of size bytes.
func NewKeyMaterial(mode uint32, size int) (*KeyMaterial, error) {
	if size <= 0 || size > MaxKeySize {
		return nil, fmt.Errorf("invalid key size: %d", size)
	}

	km := &KeyMaterial{buf: secure.NewBuffer(PayloadSize)}
	b := km.buf.Bytes()
	binary.NativeEndian.PutUint32(b[:rawOffset], mode)
	binary.NativeEndian.PutUint32(b[sizeOffset:], uint32(size))
	return km, nil
}

// Mode returns the mode tag stored in the payload.
func (k *KeyMaterial) Mode() uint32 {
	b := k.buf.Bytes()
	if b == nil {
		return 0
	}
	return binary.NativeEndian.Uint32(b[:rawOffset])
}

// Size returns the number of meaningful raw key bytes.
func (k *KeyMaterial) Size() int {
	b := k.buf.Bytes()
	if b == nil {
		return 0
	}
	return int(binary.NativeEndian.Uint32(b[sizeOffset:]))
}

// Raw returns the meaningful part of the raw key.
func (k *KeyMaterial) Raw() []byte {
	b := k.buf.Bytes()
	if b == nil {
		return nil
	}
	return b[rawOffset : rawOffset+k.Size()]
}

// Payload returns the full kernel payload.
func (k *KeyMaterial) Payload() []byte {
	return k.buf.Bytes()
}

// Zero wipes the key.
func (k *KeyMaterial) Zero() {
	if k == nil {
		return
	}
	k.buf.Zero()
}
