package cmd

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentineliq/harvester/internal/database"
)

// newMigrateCommand creates the migrate command.
func newMigrateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, depsErr := buildDeps()
			if depsErr != nil {
				return depsErr
			}
			defer deps.Close()

			if migrateErr := database.RunMigrations(deps.db); migrateErr != nil {
				return migrateErr
			}

			fmt.Fprintln(cmd.OutOrStdout(), "migrations applied")

			return nil
		},
	}
}
