package cmd

import (
	"encoding/json"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/sentineliq/harvester/internal/crawler"
)

// newCrawlCommand creates the crawl command.
func newCrawlCommand() *cobra.Command {
	var maxPages int

	cmd := &cobra.Command{
		Use:   "crawl <source-id>",
		Short: "Crawl a registered source",
		Long: `Crawl a registered source: discover its URLs, fetch them under the
adaptive rate limiter, and store new or updated articles. Prints the run
statistics as JSON.`,
		Args: cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			deps, depsErr := buildDeps()
			if depsErr != nil {
				return depsErr
			}
			defer deps.Close()

			stats, runErr := deps.orchestrator.CrawlSource(cmd.Context(), args[0], maxPages)
			if runErr != nil && !errors.Is(runErr, crawler.ErrRobotsDisallowed) {
				return runErr
			}

			encoded, encodeErr := json.MarshalIndent(stats, "", "  ")
			if encodeErr != nil {
				return fmt.Errorf("encode statistics: %w", encodeErr)
			}
			fmt.Fprintln(cmd.OutOrStdout(), string(encoded))

			return runErr
		},
	}

	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "page budget for this run (default: the source's configured budget)")

	return cmd
}
