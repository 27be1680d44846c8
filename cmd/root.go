// Package cmd implements the command-line interface for the harvester.
package cmd

import (
	"context"
	"fmt"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
)

// version is set at build time via -ldflags.
var version = "dev"

var cfgFile string

var rootCmd = &cobra.Command{
	Use:   "harvester",
	Short: "A polite content harvester with adaptive rate limiting",
	Long: `Harvester crawls registered sources politely: URLs are discovered
from sitemaps, feeds, and on-page links, fetched under an adaptive per-host
rate limiter, and stored with exact and near-duplicate detection.`,
	RunE: func(cmd *cobra.Command, _ []string) error {
		return cmd.Help()
	},
}

// Execute runs the root command.
func Execute() error {
	_ = godotenv.Load()

	return rootCmd.ExecuteContext(context.Background())
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")

	rootCmd.AddCommand(&cobra.Command{
		Use:   "version",
		Short: "Print the version number",
		Run: func(_ *cobra.Command, _ []string) {
			fmt.Printf("harvester version %s\n", version)
		},
	})

	rootCmd.AddCommand(newCrawlCommand())
	rootCmd.AddCommand(newUpdateCheckCommand())
	rootCmd.AddCommand(newCleanupCommand())
	rootCmd.AddCommand(newSourcesCommand())
	rootCmd.AddCommand(newMigrateCommand())
}
