package cmd

import (
	"fmt"
	"net/url"
	"text/tabwriter"

	"github.com/spf13/cobra"

	"github.com/sentineliq/harvester/internal/domain"
)

// newSourcesCommand creates the sources command group.
func newSourcesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "sources",
		Short: "Manage registered crawl sources",
	}

	cmd.AddCommand(newSourcesListCommand())
	cmd.AddCommand(newSourcesAddCommand())

	return cmd
}

func newSourcesListCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List registered sources",
		RunE: func(cmd *cobra.Command, _ []string) error {
			deps, depsErr := buildDeps()
			if depsErr != nil {
				return depsErr
			}
			defer deps.Close()

			sources, listErr := deps.sources.List(cmd.Context())
			if listErr != nil {
				return listErr
			}

			writer := tabwriter.NewWriter(cmd.OutOrStdout(), 0, 0, 2, ' ', 0)
			fmt.Fprintln(writer, "ID\tNAME\tURL\tACTIVE\tCRAWLS\tERRORS\tLAST CRAWLED")
			for i := range sources {
				source := &sources[i]
				lastCrawled := "never"
				if source.LastCrawledAt != nil {
					lastCrawled = source.LastCrawledAt.Format("2006-01-02 15:04")
				}
				fmt.Fprintf(writer, "%s\t%s\t%s\t%t\t%d\t%d\t%s\n",
					source.ID, source.Name, source.URL, source.Active,
					source.CrawlCount, source.ErrorCount, lastCrawled)
			}

			return writer.Flush()
		},
	}
}

func newSourcesAddCommand() *cobra.Command {
	var (
		name         string
		sourceURL    string
		sitemapURL   string
		feedURL      string
		maxPages     int
		ignoreRobots bool
	)

	cmd := &cobra.Command{
		Use:   "add",
		Short: "Register a new crawl source",
		RunE: func(cmd *cobra.Command, _ []string) error {
			parsed, parseErr := url.Parse(sourceURL)
			if parseErr != nil {
				return fmt.Errorf("parse source url: %w", parseErr)
			}
			if parsed.Scheme != "http" && parsed.Scheme != "https" {
				return fmt.Errorf("source url must be http or https, got %q", sourceURL)
			}

			deps, depsErr := buildDeps()
			if depsErr != nil {
				return depsErr
			}
			defer deps.Close()

			source := &domain.Source{
				Name:          name,
				URL:           sourceURL,
				Host:          parsed.Hostname(),
				RespectRobots: !ignoreRobots,
				MaxPages:      maxPages,
				Active:        true,
			}
			if sitemapURL != "" {
				source.SitemapURL = &sitemapURL
			}
			if feedURL != "" {
				source.FeedURL = &feedURL
			}

			if createErr := deps.sources.Create(cmd.Context(), source); createErr != nil {
				return createErr
			}

			fmt.Fprintf(cmd.OutOrStdout(), "registered source %s (%s)\n", source.ID, source.Host)

			return nil
		},
	}

	cmd.Flags().StringVar(&name, "name", "", "human-readable source name")
	cmd.Flags().StringVar(&sourceURL, "url", "", "root URL of the source")
	cmd.Flags().StringVar(&sitemapURL, "sitemap", "", "explicit sitemap URL")
	cmd.Flags().StringVar(&feedURL, "feed", "", "explicit RSS or Atom feed URL")
	cmd.Flags().IntVar(&maxPages, "max-pages", 0, "default page budget per crawl (0 uses the configured default)")
	cmd.Flags().BoolVar(&ignoreRobots, "ignore-robots", false, "crawl even when robots.txt disallows it")

	_ = cmd.MarkFlagRequired("name")
	_ = cmd.MarkFlagRequired("url")

	return cmd
}
