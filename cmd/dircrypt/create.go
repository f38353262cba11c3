package main

import (
	"context"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/TheMichaelB/dircrypt/internal/models"
)

var createCmd = &cobra.Command{
	Use:   "create <dir>",
	Short: "Set up an empty directory for encryption",
	Long: `Create applies an encryption policy to an empty directory on ext4,
asks for a passphrase twice and registers the derived key.

Files created in the directory afterwards are encrypted. The directory
stays readable until it is detached.`,
	Example: `  dircrypt create ~/private
  dircrypt create /mnt/data/secret --padding 16
  dircrypt create ./vault --contents-cipher aes-256-xts --filename-cipher aes-256-cts`,
	Args: cobra.ExactArgs(1),
	RunE: runCreate,
}

var (
	createContents   string
	createFilenames  string
	createPadding    int
	createDescriptor string
)

func init() {
	rootCmd.AddCommand(createCmd)

	createCmd.Flags().StringVar(&createContents, "contents-cipher", "",
		"Cipher for file contents (default from config, aes-256-xts)")
	createCmd.Flags().StringVar(&createFilenames, "filename-cipher", "",
		"Cipher for file names (default from config, aes-256-cts)")
	createCmd.Flags().IntVarP(&createPadding, "padding", "p", 0,
		"Filename padding: 4, 8, 16 or 32 (default from config, 4)")
	createCmd.Flags().StringVar(&createDescriptor, "key-descriptor", "",
		"Use this 8-byte hex key descriptor instead of a random one")
}

func runCreate(cmd *cobra.Command, args []string) error {
	dir := args[0]

	opts, err := createOptions()
	if err != nil {
		return fail(err)
	}

	mgr, cleanup, err := newManager()
	if err != nil {
		return fail(err)
	}
	defer cleanup()

	report, err := mgr.Create(context.Background(), dir, opts)
	if err != nil {
		return fail(fmt.Errorf("setup encrypted directory %s: %w", dir, err))
	}

	if jsonOutput {
		printJSON(map[string]interface{}{
			"success": true,
			"status":  report,
		})
		return nil
	}

	fmt.Print(report.String())
	printSuccess("Encrypted directory %s now set up", dir)
	return nil
}

func createOptions() (models.CryptOptions, error) {
	opts := cfg.CryptOptions()
	opts.Verbose = verbose

	if createContents != "" {
		opts.ContentsCipher = createContents
	}
	if createFilenames != "" {
		opts.FilenameCipher = createFilenames
	}
	if createPadding != 0 {
		opts.Padding = createPadding
	}
	if createDescriptor != "" {
		desc, err := models.ParseKeyDescriptor(createDescriptor)
		if err != nil {
			return opts, err
		}
		opts.KeyDescriptor = &desc
	}

	return opts, opts.Validate()
}
