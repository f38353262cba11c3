package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. DIRCRYPT_LOG_LEVEL.
const EnvPrefix = "DIRCRYPT"

// Loader handles configuration loading from multiple sources.
type Loader struct {
	configPath string
	v          *viper.Viper
}

// NewLoader creates a config loader. An empty path searches the default
// locations.
func NewLoader(configPath string) *Loader {
	return &Loader{
		configPath: configPath,
		v:          viper.New(),
	}
}

// Load reads configuration from defaults, file and environment, in that
// order of increasing precedence.
func (l *Loader) Load() (*Config, error) {
	cfg := DefaultConfig()
	l.setDefaults(cfg)

	l.v.SetEnvPrefix(EnvPrefix)
	l.v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	l.v.AutomaticEnv()

	if l.configPath != "" {
		l.v.SetConfigFile(l.configPath)
		if err := l.v.ReadInConfig(); err != nil {
			return nil, fmt.Errorf("load config file: %w", err)
		}
	} else {
		l.v.SetConfigName("dircrypt")
		l.v.SetConfigType("yaml")
		for _, dir := range l.defaultPaths() {
			l.v.AddConfigPath(dir)
		}
		if err := l.v.ReadInConfig(); err != nil {
			var notFound viper.ConfigFileNotFoundError
			if !errors.As(err, &notFound) {
				return nil, fmt.Errorf("load config file %s: %w", l.v.ConfigFileUsed(), err)
			}
		}
	}

	if err := l.v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	cfg.State.Dir = expandHome(cfg.State.Dir)
	cfg.Log.File = expandHome(cfg.Log.File)
	cfg.Log.Level = strings.ToLower(cfg.Log.Level)
	cfg.Log.Format = strings.ToLower(cfg.Log.Format)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid config: %w", err)
	}

	return cfg, nil
}

// ConfigFileUsed returns the file the configuration was read from, if any.
func (l *Loader) ConfigFileUsed() string {
	return l.v.ConfigFileUsed()
}

// setDefaults registers every key so environment overrides apply even when
// no config file sets them.
func (l *Loader) setDefaults(cfg *Config) {
	l.v.SetDefault("crypt.contents_cipher", cfg.Crypt.ContentsCipher)
	l.v.SetDefault("crypt.filename_cipher", cfg.Crypt.FilenameCipher)
	l.v.SetDefault("crypt.padding", cfg.Crypt.Padding)
	l.v.SetDefault("keyring.target", cfg.Keyring.Target)
	l.v.SetDefault("passphrase.normalize", cfg.Passphrase.Normalize)
	l.v.SetDefault("state.backend", cfg.State.Backend)
	l.v.SetDefault("state.dir", cfg.State.Dir)
	l.v.SetDefault("log.level", cfg.Log.Level)
	l.v.SetDefault("log.format", cfg.Log.Format)
	l.v.SetDefault("log.file", cfg.Log.File)
	l.v.SetDefault("log.color", cfg.Log.Color)
	l.v.SetDefault("security.harden_process", cfg.Security.HardenProcess)
}

// defaultPaths returns directories searched for dircrypt.yaml.
func (l *Loader) defaultPaths() []string {
	paths := []string{"."}

	if homeDir, err := os.UserHomeDir(); err == nil {
		paths = append(paths,
			filepath.Join(homeDir, ".config", "dircrypt"),
			filepath.Join(homeDir, ".dircrypt"),
		)
	}
	paths = append(paths, "/etc/dircrypt")

	return paths
}

func expandHome(path string) string {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path
	}
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return path
	}
	return filepath.Join(homeDir, strings.TrimPrefix(path, "~"))
}
