package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/TheMichaelB/dircrypt/internal/models"
)

// Config holds all application configuration.
type Config struct {
	// Defaults for new encrypted directories
	Crypt CryptConfig `mapstructure:"crypt" yaml:"crypt"`

	// Kernel keyring selection
	Keyring KeyringConfig `mapstructure:"keyring" yaml:"keyring"`

	// Passphrase handling
	Passphrase PassphraseConfig `mapstructure:"passphrase" yaml:"passphrase"`

	// Registry of managed directories
	State StateConfig `mapstructure:"state" yaml:"state"`

	// Logging
	Log LogConfig `mapstructure:"log" yaml:"log"`

	// Process hardening
	Security SecurityConfig `mapstructure:"security" yaml:"security"`
}

// CryptConfig holds the policy defaults used by create.
type CryptConfig struct {
	ContentsCipher string `mapstructure:"contents_cipher" yaml:"contents_cipher"`
	FilenameCipher string `mapstructure:"filename_cipher" yaml:"filename_cipher"`
	Padding        int    `mapstructure:"padding" yaml:"padding"`
}

// KeyringConfig selects the keyring keys are added to.
type KeyringConfig struct {
	Target string `mapstructure:"target" yaml:"target"` // session, user-session, user
}

// PassphraseConfig for passphrase handling.
type PassphraseConfig struct {
	// NFKC-normalize passphrases before derivation. Changes the derived
	// key for non-ASCII passphrases, so it must stay fixed per directory.
	Normalize bool `mapstructure:"normalize" yaml:"normalize"`
}

// StateConfig for the container registry.
type StateConfig struct {
	Backend string `mapstructure:"backend" yaml:"backend"` // json, sqlite, none
	Dir     string `mapstructure:"dir" yaml:"dir"`
}

// LogConfig for logging behavior.
type LogConfig struct {
	Level  string `mapstructure:"level" yaml:"level"`   // debug, info, warn, error
	Format string `mapstructure:"format" yaml:"format"` // text, json
	File   string `mapstructure:"file" yaml:"file"`     // Log file path (empty = stderr)
	Color  bool   `mapstructure:"color" yaml:"color"`   // Enable colored output
}

// SecurityConfig for process hardening.
type SecurityConfig struct {
	// Disable core dumps and ptrace attachment before touching secrets.
	HardenProcess bool `mapstructure:"harden_process" yaml:"harden_process"`
}

// DefaultConfig returns config with sensible defaults.
func DefaultConfig() *Config {
	dataDir := ".dircrypt"
	if homeDir, err := os.UserHomeDir(); err == nil {
		dataDir = filepath.Join(homeDir, ".dircrypt")
	}

	opts := models.DefaultCryptOptions()

	return &Config{
		Crypt: CryptConfig{
			ContentsCipher: opts.ContentsCipher,
			FilenameCipher: opts.FilenameCipher,
			Padding:        opts.Padding,
		},
		Keyring: KeyringConfig{
			Target: "session",
		},
		State: StateConfig{
			Backend: "json",
			Dir:     filepath.Join(dataDir, "state"),
		},
		Log: LogConfig{
			Level:  "warn",
			Format: "text",
			Color:  true,
		},
		Security: SecurityConfig{
			HardenProcess: true,
		},
	}
}

// CryptOptions converts the crypt defaults into operation options.
func (c *Config) CryptOptions() models.CryptOptions {
	return models.CryptOptions{
		ContentsCipher: c.Crypt.ContentsCipher,
		FilenameCipher: c.Crypt.FilenameCipher,
		Padding:        c.Crypt.Padding,
	}
}

// Validate checks configuration validity.
func (c *Config) Validate() error {
	if err := c.CryptOptions().Validate(); err != nil {
		return fmt.Errorf("crypt: %w", err)
	}

	validTargets := map[string]bool{"session": true, "user-session": true, "user": true}
	if !validTargets[c.Keyring.Target] {
		return fmt.Errorf("invalid keyring target: %s", c.Keyring.Target)
	}

	validBackends := map[string]bool{"json": true, "sqlite": true, "none": true}
	if !validBackends[c.State.Backend] {
		return fmt.Errorf("invalid state backend: %s", c.State.Backend)
	}
	if c.State.Backend != "none" && c.State.Dir == "" {
		return errors.New("state.dir is required")
	}

	validLevels := map[string]bool{
		"debug": true, "info": true, "warn": true, "error": true,
	}
	if !validLevels[c.Log.Level] {
		return fmt.Errorf("invalid log level: %s", c.Log.Level)
	}

	validFormats := map[string]bool{"text": true, "json": true}
	if !validFormats[c.Log.Format] {
		return fmt.Errorf("invalid log format: %s", c.Log.Format)
	}

	return nil
}

// EnsureDirectories creates required directories.
func (c *Config) EnsureDirectories() error {
	var dirs []string
	if c.State.Backend != "none" {
		dirs = append(dirs, c.State.Dir)
	}
	if c.Log.File != "" {
		dirs = append(dirs, filepath.Dir(c.Log.File))
	}

	for _, dir := range dirs {
		if err := os.MkdirAll(dir, 0700); err != nil {
			return fmt.Errorf("create directory %s: %w", dir, err)
		}
	}

	return nil
}
