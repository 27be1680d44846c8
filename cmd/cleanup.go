package cmd

import (
	"fmt"

	"github.com/spf13/cobra"
)

// defaultCleanupMaxAgeDays is how old a never-duplicated fingerprint must
// be before cleanup removes it.
const defaultCleanupMaxAgeDays = 90

// newCleanupCommand creates the cleanup command.
func newCleanupCommand() *cobra.Command {
	var maxAgeDays int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Remove stale content fingerprints",
		Long: `Remove fingerprint records older than the age limit that were never
observed as duplicates. Fingerprints with duplicate observations are kept.`,
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, depsErr := buildDeps()
			if depsErr != nil {
				return depsErr
			}
			defer deps.Close()

			deleted, cleanupErr := deps.index.Cleanup(cmd.Context(), maxAgeDays)
			if cleanupErr != nil {
				return cleanupErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "removed %d stale fingerprints\n", deleted)

			return nil
		},
	}

	cmd.Flags().IntVar(&maxAgeDays, "max-age-days", defaultCleanupMaxAgeDays, "age in days past which unused fingerprints are removed")

	return cmd
}
