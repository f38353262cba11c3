package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/dircrypt/internal/config"
	"github.com/TheMichaelB/dircrypt/internal/container"
	"github.com/TheMichaelB/dircrypt/internal/crypto"
	"github.com/TheMichaelB/dircrypt/internal/events"
	"github.com/TheMichaelB/dircrypt/internal/ext4"
	"github.com/TheMichaelB/dircrypt/internal/keyring"
	"github.com/TheMichaelB/dircrypt/internal/passphrase"
	"github.com/TheMichaelB/dircrypt/internal/secure"
	"github.com/TheMichaelB/dircrypt/internal/state"
)

// skipSetup marks commands that run without config, logger or crypto init.
const skipSetup = "skip-setup"

var rootCmd = &cobra.Command{
	Use:   "dircrypt",
	Short: "Manage encrypted directories on ext4 filesystems",
	Long: `dircrypt sets up ext4 native directory encryption and manages the
keys that unlock encrypted directories in the kernel keyring.

Keys are derived from a passphrase. A directory is attached while its key
is registered and detached once the key is removed.`,
	SilenceUsage:      true,
	SilenceErrors:     true,
	PersistentPreRunE: setup,
}

var (
	configPath string
	logLevel   string
	verbose    bool
	jsonOutput bool

	cfg    *config.Config
	logger *events.Logger
	rng    *secure.Generator
)

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "",
		"Config file (default searches ./dircrypt.yaml, ~/.config/dircrypt, ~/.dircrypt)")
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "",
		"Log level: debug, info, warn, error")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false,
		"Verbose output")
	rootCmd.PersistentFlags().BoolVar(&jsonOutput, "json", false,
		"Output in JSON format")
}

func setup(cmd *cobra.Command, args []string) error {
	if cmd.Annotations[skipSetup] == "true" {
		return nil
	}

	var err error
	cfg, err = config.NewLoader(configPath).Load()
	if err != nil {
		return fail(err)
	}

	if verbose && cfg.Log.Level != "debug" {
		cfg.Log.Level = "info"
	}
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	if jsonOutput {
		cfg.Log.Color = false
	}

	if err := cfg.EnsureDirectories(); err != nil {
		return fail(err)
	}

	logger, err = events.NewLogger(&cfg.Log)
	if err != nil {
		return fail(fmt.Errorf("create logger: %w", err))
	}
	events.SetDefault(logger)

	rng, err = secure.Init(cfg.Security.HardenProcess)
	if err != nil {
		return fail(err)
	}

	return nil
}

// newManager wires the manager to the real filesystem and keyring. The
// returned cleanup closes the state store.
func newManager() (*container.Manager, func(), error) {
	registry, err := keyring.NewKeyctlRegistry(cfg.Keyring.Target)
	if err != nil {
		return nil, nil, err
	}

	store, err := state.New(&cfg.State, logger)
	if err != nil {
		return nil, nil, fmt.Errorf("open state: %w", err)
	}

	reader := passphrase.NewTerminalReader(os.Stdin, os.Stderr)

	mgr := container.NewManager(
		ext4.NewOSFilesystem(),
		keyring.NewBridge(registry, logger),
		passphrase.NewPrompter(reader, logger),
		crypto.NewDeriver(cfg.Passphrase.Normalize),
		rng,
		store,
		logger,
	)

	cleanup := func() {
		if store != nil {
			if err := store.Close(); err != nil {
				logger.WithError(err).Warn("Failed to close state store")
			}
		}
	}
	return mgr, cleanup, nil
}
