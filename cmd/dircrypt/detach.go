package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var detachCmd = &cobra.Command{
	Use:   "detach <dir>",
	Short: "Lock an encrypted directory",
	Long: `Detach removes the directory key from the kernel keyring.

Contents already in the page cache stay visible until the caches are
dropped. Use --drop-caches to flush them right away (requires root).`,
	Example: `  dircrypt detach ~/private
  sudo dircrypt detach /mnt/data/secret --drop-caches`,
	Args: cobra.ExactArgs(1),
	RunE: runDetach,
}

var detachDropCaches bool

func init() {
	rootCmd.AddCommand(detachCmd)

	detachCmd.Flags().BoolVar(&detachDropCaches, "drop-caches", false,
		"Sync and drop page, dentry and inode caches after removing the key")
}

func runDetach(cmd *cobra.Command, args []string) error {
	dir := args[0]

	mgr, cleanup, err := newManager()
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	if err := mgr.Detach(context.Background(), dir); err != nil {
		return fail(fmt.Errorf("detach %s: %w", dir, err))
	}

	dropped := false
	if detachDropCaches {
		if err := dropCaches(); err != nil {
			if !jsonOutput {
				printWarning("Key removed but caches were not dropped: %v", err)
			}
			logger.WithError(err).Warn("Failed to drop caches")
		} else {
			dropped = true
		}
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success":        true,
			"path":           dir,
			"caches_dropped": dropped,
		})
		return nil
	}

	printSuccess("Directory %s detached", dir)
	if !dropped {
		printInfo("Cached contents remain visible until caches are dropped")
	}
	return nil
}
