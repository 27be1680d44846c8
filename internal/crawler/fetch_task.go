package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/http"

	"github.com/sentineliq/harvester/internal/dedup"
	"github.com/sentineliq/harvester/internal/domain"
)

// fetchOne fetches a single URL and returns its outcome. One rate-limiter
// admission covers both the freshness probe and the full fetch; every
// received response is reported back to the limiter. Never returns nil.
func (o *Orchestrator) fetchOne(ctx context.Context, pageURL string) *domain.FetchOutcome {
	outcome := &domain.FetchOutcome{URL: pageURL}
	host := hostOf(pageURL)

	if _, admitErr := o.limiter.Admit(ctx, host); admitErr != nil {
		outcome.ErrMessage = admitErr.Error()
		return outcome
	}

	stored := o.storedArticle(ctx, pageURL)

	var etag, lastModified *string
	if stored != nil {
		etag, lastModified = stored.ETag, stored.LastModified
	}

	if stored != nil && (etag != nil || lastModified != nil) {
		if o.probeUnchanged(ctx, host, pageURL, etag, lastModified) {
			outcome.Success = true
			outcome.SkippedUnchanged = true
			outcome.StatusCode = http.StatusNotModified
			return outcome
		}
	}

	resp, fetchErr := o.fetcher.Get(ctx, pageURL, etag, lastModified)
	if fetchErr != nil {
		outcome.ErrMessage = fetchErr.Error()
		return outcome
	}

	o.limiter.Report(host, resp.StatusCode, resp.Elapsed)

	outcome.StatusCode = resp.StatusCode
	outcome.Elapsed = resp.Elapsed
	outcome.ETag = resp.ETag
	outcome.LastModified = resp.LastModified

	switch {
	case resp.StatusCode == http.StatusNotModified:
		outcome.Success = true
		outcome.SkippedUnchanged = true
		return outcome
	case resp.StatusCode != http.StatusOK:
		outcome.ErrMessage = fmt.Sprintf("unexpected status %d", resp.StatusCode)
		return outcome
	}

	result, extractErr := o.extractor.Extract(pageURL, resp.Body)
	if extractErr != nil {
		outcome.ErrMessage = extractErr.Error()
		return outcome
	}
	if result.Content == "" {
		outcome.ErrMessage = "no extractable content"
		return outcome
	}

	outcome.Title = result.Title
	outcome.Author = result.Author
	outcome.PublishedAt = result.PublishedAt
	outcome.Content = result.Content
	outcome.Language = result.Language
	outcome.Fingerprint = dedup.Fingerprint(result.Content)

	dup, dupErr := o.dedup.IsDuplicate(ctx, outcome.Fingerprint, pageURL, result.Content)
	if dupErr != nil {
		// Degrade to non-duplicate; registration stays idempotent either way.
		o.log.Warn("duplicate check failed", "url", pageURL, "error", dupErr)
	}
	outcome.Duplicate = dup

	outcome.Success = true

	return outcome
}

// storedArticle returns the article stored for a URL, or nil.
func (o *Orchestrator) storedArticle(ctx context.Context, pageURL string) *domain.Article {
	stored, getErr := o.articles.GetByURL(ctx, pageURL)
	if getErr != nil {
		if !errors.Is(getErr, domain.ErrArticleNotFound) {
			o.log.Debug("stored article lookup failed", "url", pageURL, "error", getErr)
		}
		return nil
	}

	return stored
}

// probeUnchanged runs a conditional HEAD request and reports whether the
// page is unchanged. Probe failures fall through to a full fetch.
func (o *Orchestrator) probeUnchanged(ctx context.Context, host, pageURL string, etag, lastModified *string) bool {
	probe, probeErr := o.fetcher.Head(ctx, pageURL, etag, lastModified)
	if probeErr != nil {
		o.log.Debug("freshness probe failed", "url", pageURL, "error", probeErr)
		return false
	}

	o.limiter.Report(host, probe.StatusCode, probe.Elapsed)

	return probe.StatusCode == http.StatusNotModified
}
