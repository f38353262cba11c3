package testutil

import (
	"bytes"
	"testing"

	"github.com/TheMichaelB/dircrypt/internal/crypto"
	"github.com/TheMichaelB/dircrypt/internal/events"
)

// TestParams are scrypt parameters cheap enough for unit tests.
var TestParams = crypto.Params{N: 1 << 4, R: 8, P: 1}

// NewTestDeriver returns a fast deriver.
func NewTestDeriver() *crypto.ScryptDeriver {
	return crypto.NewDeriverWithParams(TestParams, false)
}

// NewTestLogger returns a debug logger writing into the returned buffer.
func NewTestLogger(t *testing.T) (*events.Logger, *bytes.Buffer) {
	t.Helper()
	var buf bytes.Buffer
	return events.NewTestLogger(events.DebugLevel, "text", &buf), &buf
}
