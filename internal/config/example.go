package config

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v2"
)

const exampleHeader = `# dircrypt configuration file
# Environment variables override these settings using the DIRCRYPT_ prefix,
# for example: DIRCRYPT_LOG_LEVEL=debug or DIRCRYPT_KEYRING_TARGET=user-session
#
# crypt.*          defaults for "dircrypt create"
# keyring.target   session | user-session | user
# state.backend    json | sqlite | none

`

// SaveExample writes an example config file.
func SaveExample(path string) error {
	data, err := yaml.Marshal(DefaultConfig())
	if err != nil {
		return fmt.Errorf("marshal config: %w", err)
	}

	if err := os.WriteFile(path, append([]byte(exampleHeader), data...), 0600); err != nil {
		return fmt.Errorf("write file: %w", err)
	}

	return nil
}
