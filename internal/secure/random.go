package secure

import (
	crand "crypto/rand"
	"fmt"
	"math/rand/v2"
	"sync"

	"github.com/TheMichaelB/dircrypt/internal/models"
)

// pathSeparator is the only byte besides NUL that cannot appear in a filename.
const pathSeparator = '/'

// Generator is a process-local pseudo-random generator seeded from the
// system CSPRNG.
type Generator struct {
	mu  sync.Mutex
	rng *rand.ChaCha8
}

// NewGenerator seeds a generator from crypto/rand.
func NewGenerator() (*Generator, error) {
	var seed [32]byte
	if _, err := crand.Read(seed[:]); err != nil {
		return nil, fmt.Errorf("%w: read random seed: %v", models.ErrInitFailed, err)
	}
	defer Zero(seed[:])

	return &Generator{rng: rand.NewChaCha8(seed)}, nil
}

// Identifier returns length uniformly random bytes. When filenameSafe is set
// NUL and '/' are rejected and resampled, so the result is a valid filename.
func (g *Generator) Identifier(length int, filenameSafe bool) []byte {
	g.mu.Lock()
	defer g.mu.Unlock()

	out := make([]byte, length)
	var one [1]byte
	for i := range out {
		for {
			_, _ = g.rng.Read(one[:])
			if filenameSafe && (one[0] == 0 || one[0] == pathSeparator) {
				continue
			}
			break
		}
		out[i] = one[0]
	}
	return out
}

// KeyDescriptor returns a random policy key descriptor.
func (g *Generator) KeyDescriptor() models.KeyDescriptor {
	var d models.KeyDescriptor
	copy(d[:], g.Identifier(models.KeyDescriptorSize, false))
	return d
}
