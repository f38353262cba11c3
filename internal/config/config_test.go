package config_test

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/TheMichaelB/dircrypt/internal/config"
	"github.com/TheMichaelB/dircrypt/internal/models"
)

func TestDefaultConfig(t *testing.T) {
	cfg := config.DefaultConfig()

	assert.Equal(t, "aes-256-xts", cfg.Crypt.ContentsCipher)
	assert.Equal(t, "aes-256-cts", cfg.Crypt.FilenameCipher)
	assert.Equal(t, 4, cfg.Crypt.Padding)
	assert.Equal(t, "session", cfg.Keyring.Target)
	assert.False(t, cfg.Passphrase.Normalize)
	assert.Equal(t, "json", cfg.State.Backend)
	assert.NotEmpty(t, cfg.State.Dir)
	assert.Equal(t, "warn", cfg.Log.Level)
	assert.True(t, cfg.Security.HardenProcess)
	require.NoError(t, cfg.Validate())
}

func TestConfigValidate(t *testing.T) {
	tests := []struct {
		name    string
		modify  func(*config.Config)
		wantErr string
	}{
		{
			name:    "valid config",
			modify:  func(c *config.Config) {},
			wantErr: "",
		},
		{
			name: "invalid padding",
			modify: func(c *config.Config) {
				c.Crypt.Padding = 5
			},
			wantErr: "invalid filename padding length 5",
		},
		{
			name: "unknown cipher",
			modify: func(c *config.Config) {
				c.Crypt.ContentsCipher = "twofish"
			},
			wantErr: "unknown cipher",
		},
		{
			name: "invalid keyring target",
			modify: func(c *config.Config) {
				c.Keyring.Target = "thread"
			},
			wantErr: "invalid keyring target",
		},
		{
			name: "invalid state backend",
			modify: func(c *config.Config) {
				c.State.Backend = "badger"
			},
			wantErr: "invalid state backend",
		},
		{
			name: "missing state dir",
			modify: func(c *config.Config) {
				c.State.Dir = ""
			},
			wantErr: "state.dir is required",
		},
		{
			name: "state dir not needed without backend",
			modify: func(c *config.Config) {
				c.State.Backend = "none"
				c.State.Dir = ""
			},
			wantErr: "",
		},
		{
			name: "invalid log level",
			modify: func(c *config.Config) {
				c.Log.Level = "invalid"
			},
			wantErr: "invalid log level",
		},
		{
			name: "invalid log format",
			modify: func(c *config.Config) {
				c.Log.Format = "xml"
			},
			wantErr: "invalid log format",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := config.DefaultConfig()
			tt.modify(cfg)

			err := cfg.Validate()
			if tt.wantErr != "" {
				assert.Error(t, err)
				assert.Contains(t, err.Error(), tt.wantErr)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestConfigCryptOptions(t *testing.T) {
	cfg := config.DefaultConfig()
	cfg.Crypt.Padding = 16

	opts := cfg.CryptOptions()
	assert.Equal(t, 16, opts.Padding)
	assert.Nil(t, opts.KeyDescriptor)

	policy, err := opts.Policy(models.KeyDescriptor{})
	require.NoError(t, err)
	assert.Equal(t, models.CipherAES256XTS, policy.ContentsMode)
}

func TestLoaderEnv(t *testing.T) {
	t.Setenv("DIRCRYPT_LOG_LEVEL", "DEBUG")
	t.Setenv("DIRCRYPT_CRYPT_PADDING", "32")
	t.Setenv("DIRCRYPT_KEYRING_TARGET", "user-session")
	t.Setenv("DIRCRYPT_STATE_BACKEND", "sqlite")

	loader := config.NewLoader(filepath.Join(t.TempDir(), "missing.yaml"))
	_, err := loader.Load()
	require.Error(t, err, "an explicit config path must exist")

	path := filepath.Join(t.TempDir(), "empty.yaml")
	require.NoError(t, os.WriteFile(path, []byte("{}\n"), 0600))

	cfg, err := config.NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, "debug", cfg.Log.Level)
	assert.Equal(t, 32, cfg.Crypt.Padding)
	assert.Equal(t, "user-session", cfg.Keyring.Target)
	assert.Equal(t, "sqlite", cfg.State.Backend)
}

func TestLoaderFile(t *testing.T) {
	tmpDir := t.TempDir()
	configPath := filepath.Join(tmpDir, "test.yaml")

	configYAML := `
crypt:
  padding: 8
  filename_cipher: aes-256-cts
state:
  backend: none
log:
  level: error
  format: json
`
	require.NoError(t, os.WriteFile(configPath, []byte(configYAML), 0644))

	loader := config.NewLoader(configPath)
	cfg, err := loader.Load()

	require.NoError(t, err)
	assert.Equal(t, configPath, loader.ConfigFileUsed())
	assert.Equal(t, 8, cfg.Crypt.Padding)
	assert.Equal(t, "aes-256-xts", cfg.Crypt.ContentsCipher, "unset keys keep their defaults")
	assert.Equal(t, "none", cfg.State.Backend)
	assert.Equal(t, "error", cfg.Log.Level)
	assert.Equal(t, "json", cfg.Log.Format)
}

func TestLoaderInvalidFile(t *testing.T) {
	configPath := filepath.Join(t.TempDir(), "bad.yaml")
	require.NoError(t, os.WriteFile(configPath, []byte("crypt:\n  padding: 3\n"), 0644))

	_, err := config.NewLoader(configPath).Load()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "invalid config")
}

func TestSaveExampleRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dircrypt.yaml")
	require.NoError(t, config.SaveExample(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Contains(t, string(data), "# dircrypt configuration file")
	assert.Contains(t, string(data), "contents_cipher: aes-256-xts")

	cfg, err := config.NewLoader(path).Load()
	require.NoError(t, err)
	assert.Equal(t, config.DefaultConfig().Crypt, cfg.Crypt)
}

func TestConfigEnsureDirectories(t *testing.T) {
	tmpDir := t.TempDir()
	cfg := config.DefaultConfig()
	cfg.State.Dir = filepath.Join(tmpDir, "data", "state")
	cfg.Log.File = filepath.Join(tmpDir, "logs", "dircrypt.log")

	require.NoError(t, cfg.EnsureDirectories())

	assert.DirExists(t, cfg.State.Dir)
	assert.DirExists(t, filepath.Dir(cfg.Log.File))
}
