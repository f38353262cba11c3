package keyring

import "errors"

// Registry failures that callers can act on.
var (
	ErrQuotaExceeded = errors.New("key quota exceeded")
	ErrAccessDenied  = errors.New("access denied")
)
