package crawler

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/sentineliq/harvester/internal/dedup"
	"github.com/sentineliq/harvester/internal/domain"
)

// UpdateCheck probes a source's recently crawled articles for changes.
// Unchanged pages cost one conditional HEAD request each; changed pages are
// refetched in full and updated in place. Per-article failures are absorbed
// into the statistics.
func (o *Orchestrator) UpdateCheck(ctx context.Context, sourceID string) (*domain.UpdateCheckStats, error) {
	source, sourceErr := o.sources.GetByID(ctx, sourceID)
	if sourceErr != nil {
		return nil, fmt.Errorf("update check: %w", sourceErr)
	}

	since := time.Now().Add(-o.cfg.UpdateCheckWindow)

	articles, listErr := o.articles.ListRecentBySource(ctx, source.ID, since, o.cfg.UpdateCheckLimit)
	if listErr != nil {
		return nil, fmt.Errorf("update check: %w", listErr)
	}

	stats := &domain.UpdateCheckStats{}

	for i := range articles {
		if ctx.Err() != nil {
			break
		}

		o.checkArticle(ctx, &articles[i], stats)
	}

	o.log.Info("update check finished",
		"source", source.Name,
		"checked", stats.PagesChecked,
		"updates", stats.UpdatesFound,
	)

	return stats, nil
}

// checkArticle probes one article and refetches it when the probe says the
// page changed.
func (o *Orchestrator) checkArticle(ctx context.Context, article *domain.Article, stats *domain.UpdateCheckStats) {
	host := hostOf(article.URL)

	if _, admitErr := o.limiter.Admit(ctx, host); admitErr != nil {
		stats.Errors = append(stats.Errors, article.URL+": "+admitErr.Error())
		return
	}

	if article.ETag != nil || article.LastModified != nil {
		probe, probeErr := o.fetcher.Head(ctx, article.URL, article.ETag, article.LastModified)
		if probeErr != nil {
			stats.Errors = append(stats.Errors, article.URL+": "+probeErr.Error())
			return
		}

		o.limiter.Report(host, probe.StatusCode, probe.Elapsed)
		stats.PagesChecked++

		if probe.StatusCode == http.StatusNotModified {
			return
		}
	} else {
		stats.PagesChecked++
	}

	o.refetchArticle(ctx, host, article, stats)
}

// refetchArticle fetches an article's page in full and updates the stored
// record when the content actually changed.
func (o *Orchestrator) refetchArticle(ctx context.Context, host string, article *domain.Article, stats *domain.UpdateCheckStats) {
	resp, fetchErr := o.fetcher.Get(ctx, article.URL, nil, nil)
	if fetchErr != nil {
		stats.Errors = append(stats.Errors, article.URL+": "+fetchErr.Error())
		return
	}

	o.limiter.Report(host, resp.StatusCode, resp.Elapsed)

	if resp.StatusCode != http.StatusOK {
		stats.Errors = append(stats.Errors, fmt.Sprintf("%s: unexpected status %d", article.URL, resp.StatusCode))
		return
	}

	result, extractErr := o.extractor.Extract(article.URL, resp.Body)
	if extractErr != nil {
		stats.Errors = append(stats.Errors, article.URL+": "+extractErr.Error())
		return
	}
	if result.Content == "" {
		return
	}

	outcome := &domain.FetchOutcome{
		URL:          article.URL,
		StatusCode:   resp.StatusCode,
		Title:        result.Title,
		Author:       result.Author,
		PublishedAt:  result.PublishedAt,
		Content:      result.Content,
		Language:     result.Language,
		ETag:         resp.ETag,
		LastModified: resp.LastModified,
	}
	outcome.Fingerprint = dedup.Fingerprint(result.Content)

	if outcome.Fingerprint == article.Fingerprint {
		return
	}

	runStats := &domain.RunStats{}
	o.applyToStored(ctx, article, outcome, runStats)

	if len(runStats.Errors) > 0 {
		stats.Errors = append(stats.Errors, runStats.Errors...)
		return
	}

	stats.UpdatesFound++
}
