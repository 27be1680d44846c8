package cmd

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cobra"
)

// newUpdateCheckCommand creates the update-check command.
func newUpdateCheckCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "update-check <source-id>",
		Short: "Probe a source's recent articles for content changes",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, depsErr := buildDeps()
			if depsErr != nil {
				return depsErr
			}
			defer deps.Close()

			stats, runErr := deps.orchestrator.UpdateCheck(cmd.Context(), args[0])
			if runErr != nil {
				return runErr
			}

			encoded, encodeErr := json.MarshalIndent(stats, "", "  ")
			if encodeErr != nil {
				return fmt.Errorf("encode statistics: %w", encodeErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

			return nil
		},
	}
}
