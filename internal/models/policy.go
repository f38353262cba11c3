package models

import (
	"encoding/hex"
	"fmt"
	"strings"
)

// PolicyVersion is the only policy version this tool writes (v1 policies).
const PolicyVersion = 0

// KeyDescriptorSize is the size of a master key descriptor in bytes.
const KeyDescriptorSize = 8

// DefaultPadding is the filename padding used when none is given.
const DefaultPadding = 4

// CipherMode is the kernel's tag for an encryption mode.
type CipherMode uint8

const (
	CipherInvalid   CipherMode = 0
	CipherAES256XTS CipherMode = 1
	CipherAES256GCM CipherMode = 2
	CipherAES256CBC CipherMode = 3
	CipherAES256CTS CipherMode = 4
)

var cipherNames = map[CipherMode]string{
	CipherAES256XTS: "aes-256-xts",
	CipherAES256GCM: "aes-256-gcm",
	CipherAES256CBC: "aes-256-cbc",
	CipherAES256CTS: "aes-256-cts",
}

// ParseCipher maps an algorithm name to its mode.
func ParseCipher(name string) (CipherMode, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	for mode, n := range cipherNames {
		if n == name {
			return mode, nil
		}
	}
	return CipherInvalid, fmt.Errorf("%w: unknown cipher %q", ErrInvalidParameters, name)
}

func (m CipherMode) String() string {
	if n, ok := cipherNames[m]; ok {
		return n
	}
	return fmt.Sprintf("invalid(%d)", uint8(m))
}

// KeySize returns the raw key length the mode requires.
func (m CipherMode) KeySize() int {
	if m == CipherAES256XTS {
		return 64
	}
	return 32
}

// PaddingToFlags encodes a filename padding length into policy flags.
func PaddingToFlags(padding int) (uint8, error) {
	switch padding {
	case 4:
		return 0x00, nil
	case 8:
		return 0x01, nil
	case 16:
		return 0x02, nil
	case 32:
		return 0x03, nil
	}
	return 0, fmt.Errorf("%w: invalid filename padding length %d: must be 4, 8, 16 or 32",
		ErrInvalidParameters, padding)
}

// FlagsToPadding decodes the padding length from policy flags.
func FlagsToPadding(flags uint8) int {
	return 4 << (flags & 0x03)
}

// KeyDescriptor correlates a directory policy with a key in the keyring.
type KeyDescriptor [KeyDescriptorSize]byte

// ParseKeyDescriptor parses 16 hex digits, with or without a 0x prefix.
func ParseKeyDescriptor(s string) (KeyDescriptor, error) {
	var d KeyDescriptor
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	raw, err := hex.DecodeString(s)
	if err != nil {
		return d, fmt.Errorf("%w: key descriptor: %v", ErrInvalidParameters, err)
	}
	if len(raw) != KeyDescriptorSize {
		return d, fmt.Errorf("%w: key descriptor must be %d bytes, got %d",
			ErrInvalidParameters, KeyDescriptorSize, len(raw))
	}
	copy(d[:], raw)
	return d, nil
}

// Hex returns the lowercase hex encoding.
func (d KeyDescriptor) Hex() string {
	return hex.EncodeToString(d[:])
}

func (d KeyDescriptor) String() string {
	return "0x" + strings.ToUpper(d.Hex())
}

// EncryptionPolicy is the on-disk policy attached to a directory.
type EncryptionPolicy struct {
	Version       int
	ContentsMode  CipherMode
	FilenamesMode CipherMode
	Flags         uint8
	KeyDescriptor KeyDescriptor
}

// Padding returns the filename padding length.
func (p *EncryptionPolicy) Padding() int {
	return FlagsToPadding(p.Flags)
}

// CryptOptions configures a single directory operation.
type CryptOptions struct {
	ContentsCipher string
	FilenameCipher string
	Padding        int

	// KeyDescriptor overrides the generated descriptor when set.
	KeyDescriptor *KeyDescriptor

	Verbose bool
}

// DefaultCryptOptions returns the ciphers the kernel supports for v1 policies.
func DefaultCryptOptions() CryptOptions {
	return CryptOptions{
		ContentsCipher: CipherAES256XTS.String(),
		FilenameCipher: CipherAES256CTS.String(),
		Padding:        DefaultPadding,
	}
}

// Validate checks the options can be turned into a policy.
func (o CryptOptions) Validate() error {
	_, err := o.Policy(KeyDescriptor{})
	return err
}

// Policy builds an encryption policy for the given descriptor.
func (o CryptOptions) Policy(desc KeyDescriptor) (*EncryptionPolicy, error) {
	contents, err := ParseCipher(o.ContentsCipher)
	if err != nil {
		return nil, fmt.Errorf("contents cipher: %w", err)
	}
	filenames, err := ParseCipher(o.FilenameCipher)
	if err != nil {
		return nil, fmt.Errorf("filename cipher: %w", err)
	}

	padding := o.Padding
	if padding == 0 {
		padding = DefaultPadding
	}
	flags, err := PaddingToFlags(padding)
	if err != nil {
		return nil, err
	}

	return &EncryptionPolicy{
		Version:       PolicyVersion,
		ContentsMode:  contents,
		FilenamesMode: filenames,
		Flags:         flags,
		KeyDescriptor: desc,
	}, nil
}
