package secure

import (
	"fmt"

	"github.com/TheMichaelB/dircrypt/internal/models"
)

// Init prepares the process for handling key material and returns the
// generator used for descriptors and marker names. When harden is set, core
// dumps and ptrace attachment are disabled for the rest of the process
// lifetime. Callers must not continue if Init fails.
func Init(harden bool) (*Generator, error) {
	gen, err := NewGenerator()
	if err != nil {
		return nil, err
	}

	if harden {
		if err := hardenProcess(); err != nil {
			return nil, fmt.Errorf("%w: %v", models.ErrInitFailed, err)
		}
	}

	return gen, nil
}
