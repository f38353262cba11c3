package models

import (
	"errors"
	"fmt"
)

// Error codes for structured error handling.
const (
	ErrCodeFilesystemMismatch = "FILESYSTEM_MISMATCH"
	ErrCodeNotADirectory      = "NOT_A_DIRECTORY"
	ErrCodeIO                 = "IO_ERROR"
	ErrCodeUnsupported        = "UNSUPPORTED"
	ErrCodeInvalidParameters  = "INVALID_PARAMETERS"
	ErrCodeNotEmpty           = "NOT_EMPTY"
	ErrCodeAlreadyEncrypted   = "ALREADY_ENCRYPTED"
	ErrCodeNotEncrypted       = "NOT_ENCRYPTED"
	ErrCodeSetupFailed        = "SETUP_FAILED"
	ErrCodeNoKeyFound         = "NO_KEY_FOUND"
	ErrCodePassphraseEmpty    = "PASSPHRASE_EMPTY"
	ErrCodePassphraseMismatch = "PASSPHRASE_MISMATCH"
	ErrCodeRetriesExhausted   = "RETRIES_EXHAUSTED"
	ErrCodeDerivationFailed   = "DERIVATION_FAILED"
	ErrCodeKeyringFull        = "KEYRING_FULL"
	ErrCodePermissionDenied   = "PERMISSION_DENIED"
	ErrCodeInitFailed         = "INIT_FAILED"
	ErrCodeUnknown            = "UNKNOWN"
)

// Sentinel errors
var (
	ErrFilesystemMismatch = errors.New("not on an ext4 filesystem")
	ErrNotADirectory      = errors.New("not a directory")
	ErrIO                 = errors.New("i/o error")
	ErrUnsupported        = errors.New("filesystem does not support encryption")
	ErrInvalidParameters  = errors.New("invalid encryption parameters")
	ErrNotEmpty           = errors.New("directory not empty")
	ErrAlreadyEncrypted   = errors.New("already encrypted")
	ErrNotEncrypted       = errors.New("not an encrypted directory")
	ErrSetupFailed        = errors.New("encryption policy was not applied")
	ErrNoKeyFound         = errors.New("no encryption key found")
	ErrPassphraseEmpty    = errors.New("passphrase cannot be empty")
	ErrPassphraseMismatch = errors.New("passphrase mismatch")
	ErrRetriesExhausted   = errors.New("cannot read passphrase")
	ErrDerivationFailed   = errors.New("failed to derive key from passphrase")
	ErrKeyringFull        = errors.New("keyring quota exceeded")
	ErrPermissionDenied   = errors.New("permission denied")
	ErrInitFailed         = errors.New("cannot initialize cryptography system")
)

var errorCodes = []struct {
	err  error
	code string
}{
	{ErrFilesystemMismatch, ErrCodeFilesystemMismatch},
	{ErrNotADirectory, ErrCodeNotADirectory},
	{ErrUnsupported, ErrCodeUnsupported},
	{ErrInvalidParameters, ErrCodeInvalidParameters},
	{ErrNotEmpty, ErrCodeNotEmpty},
	{ErrAlreadyEncrypted, ErrCodeAlreadyEncrypted},
	{ErrNotEncrypted, ErrCodeNotEncrypted},
	{ErrSetupFailed, ErrCodeSetupFailed},
	{ErrNoKeyFound, ErrCodeNoKeyFound},
	{ErrRetriesExhausted, ErrCodeRetriesExhausted},
	{ErrPassphraseEmpty, ErrCodePassphraseEmpty},
	{ErrPassphraseMismatch, ErrCodePassphraseMismatch},
	{ErrDerivationFailed, ErrCodeDerivationFailed},
	{ErrKeyringFull, ErrCodeKeyringFull},
	{ErrPermissionDenied, ErrCodePermissionDenied},
	{ErrInitFailed, ErrCodeInitFailed},
	{ErrIO, ErrCodeIO},
}

// Code returns the error code of the first taxonomy error found in err's chain.
func Code(err error) string {
	if err == nil {
		return ""
	}
	for _, ec := range errorCodes {
		if errors.Is(err, ec.err) {
			return ec.code
		}
	}
	return ErrCodeUnknown
}

// OpError records a failed directory operation.
type OpError struct {
	Op   string // "open", "get policy", "set policy", "add key", ...
	Path string
	Kind error // one of the sentinel errors above
	Err  error // underlying cause, may be nil
}

func (e *OpError) Error() string {
	msg := e.Op
	if e.Path != "" {
		msg = fmt.Sprintf("%s %s", e.Op, e.Path)
	}
	if e.Err != nil {
		return fmt.Sprintf("%s: %v: %v", msg, e.Kind, e.Err)
	}
	return fmt.Sprintf("%s: %v", msg, e.Kind)
}

func (e *OpError) Unwrap() []error {
	if e.Err == nil {
		return []error{e.Kind}
	}
	return []error{e.Kind, e.Err}
}

// NewOpError creates an OpError.
func NewOpError(op, path string, kind, err error) error {
	return &OpError{Op: op, Path: path, Kind: kind, Err: err}
}
