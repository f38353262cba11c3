package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"
)

var statusCmd = &cobra.Command{
	Use:   "status <dir>",
	Short: "Show the encryption status of a directory",
	Example: `  dircrypt status ~/private
  dircrypt status /mnt/data/secret --json`,
	Args: cobra.ExactArgs(1),
	RunE: runStatus,
}

func init() {
	rootCmd.AddCommand(statusCmd)
}

func runStatus(cmd *cobra.Command, args []string) error {
	dir := args[0]

	mgr, cleanup, err := newManager()
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	report, err := mgr.Status(context.Background(), dir)
	if err != nil {
		return fail(fmt.Errorf("status %s: %w", dir, err))
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"status":  report,
		})
		return nil
	}

	fmt.Print(report.String())
	return nil
}
