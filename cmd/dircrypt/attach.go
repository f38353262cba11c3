package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var attachCmd = &cobra.Command{
	Use:   "attach <dir>",
	Short: "Unlock an encrypted directory",
	Long: `Attach asks for the directory passphrase and registers the derived
key in the kernel keyring, making the directory contents readable.`,
	Example: `  dircrypt attach ~/private
  echo "$PASSPHRASE" | dircrypt attach /mnt/data/secret`,
	Args: cobra.ExactArgs(1),
	RunE: runAttach,
}

func init() {
	rootCmd.AddCommand(attachCmd)
}

func runAttach(cmd *cobra.Command, args []string) error {
	dir := args[0]

	mgr, cleanup, err := newManager()
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	opts := cfg.CryptOptions()
	opts.Verbose = verbose

	report, err := mgr.Attach(context.Background(), dir, opts)
	if err != nil {
		return fail(fmt.Errorf("attach %s: %w", dir, err))
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"status":  report,
		})
		return nil
	}

	if verbose {
		fmt.Print(report.String())
	}
	printSuccess("Directory %s attached (key serial %d)", dir, report.KeySerial)
	return nil
}
