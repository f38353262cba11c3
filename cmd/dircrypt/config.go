package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/dircrypt/internal/config"
)

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configInitCmd = &cobra.Command{
	Use:         "init <path>",
	Short:       "Write an example configuration file",
	Example:     `  dircrypt config init ~/.config/dircrypt/dircrypt.yaml`,
	Args:        cobra.ExactArgs(1),
	Annotations: map[string]string{skipSetup: "true"},
	RunE:        runConfigInit,
}

var configForce bool

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configInitCmd)

	configInitCmd.Flags().BoolVarP(&configForce, "force", "f", false,
		"Overwrite an existing file")
}

func runConfigInit(cmd *cobra.Command, args []string) error {
	path := args[0]

	if _, err := os.Stat(path); err == nil && !configForce {
		return fail(fmt.Errorf("%s already exists (use --force to overwrite)", path))
	}

	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return fail(fmt.Errorf("create config directory: %w", err))
	}

	if err := config.SaveExample(path); err != nil {
		return fail(fmt.Errorf("write example config: %w", err))
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"path":    path,
		})
		return nil
	}

	printSuccess("Example configuration written to %s", path)
	return nil
}
