// Package crawler orchestrates crawl runs: it discovers candidate URLs for
// a source, fetches them politely under the adaptive rate limiter, routes
// content through extraction and duplicate detection, and aggregates the
// run's statistics.
package crawler

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"golang.org/x/sync/semaphore"

	"github.com/sentineliq/harvester/internal/dedup"
	"github.com/sentineliq/harvester/internal/domain"
	"github.com/sentineliq/harvester/internal/extract"
	"github.com/sentineliq/harvester/internal/fetch"
)

// ErrRobotsDisallowed is returned by CrawlSource when robots.txt forbids
// crawling the source root and the source respects robots.
var ErrRobotsDisallowed = errors.New("robots.txt disallows crawling this source")

// Defaults for orchestrator configuration.
const (
	// DefaultBatchSize is how many URLs are fetched per batch.
	DefaultBatchSize = 20
	// DefaultBatchPause separates consecutive batches.
	DefaultBatchPause = 2 * time.Second
	// DefaultMaxConcurrent caps simultaneous fetches across all hosts.
	DefaultMaxConcurrent = 10
	// DefaultMaxPages bounds a run when neither the caller nor the source
	// specifies a page budget.
	DefaultMaxPages = 50
	// DefaultUpdateCheckWindow is how far back a freshness sweep looks.
	DefaultUpdateCheckWindow = 7 * 24 * time.Hour
	// DefaultUpdateCheckLimit caps how many articles one sweep probes.
	DefaultUpdateCheckLimit = 50
)

// SourceStore provides the source records a run operates on.
type SourceStore interface {
	GetByID(ctx context.Context, id string) (*domain.Source, error)
	UpdateCrawlStats(ctx context.Context, id string, errorCount int) error
}

// ArticleStore persists harvested articles.
type ArticleStore interface {
	GetByURL(ctx context.Context, url string) (*domain.Article, error)
	Create(ctx context.Context, article *domain.Article) error
	Update(ctx context.Context, article *domain.Article) error
	ListRecentBySource(ctx context.Context, sourceID string, since time.Time, limit int) ([]domain.Article, error)
}

// Deduplicator answers duplicate queries and records new fingerprints.
type Deduplicator interface {
	Warm(ctx context.Context) error
	IsDuplicate(ctx context.Context, fingerprint, url, content string) (bool, error)
	Register(ctx context.Context, fingerprint, url, articleID, content string) (bool, error)
}

// Discoverer produces the candidate URL list for a source.
type Discoverer interface {
	Discover(ctx context.Context, source *domain.Source, maxPages int) ([]string, error)
}

// Limiter provides per-host admission control and response feedback.
type Limiter interface {
	Admit(ctx context.Context, host string) (time.Duration, error)
	Report(host string, statusCode int, responseTime time.Duration)
}

// RobotsPolicy checks robots.txt compliance.
type RobotsPolicy interface {
	Allowed(ctx context.Context, rawURL string) (bool, error)
}

// PageFetcher loads pages over HTTP. Satisfied by *fetch.Client.
type PageFetcher interface {
	Get(ctx context.Context, url string, etag, lastModified *string) (*fetch.Response, error)
	Head(ctx context.Context, url string, etag, lastModified *string) (*fetch.Response, error)
}

// ContentExtractor turns page HTML into article fields.
type ContentExtractor interface {
	Extract(pageURL, html string) (*extract.Result, error)
}

// Logger provides structured logging for the orchestrator.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
	Warn(msg string, fields ...any)
	Error(msg string, fields ...any)
}

// Config holds orchestrator tuning knobs.
type Config struct {
	BatchSize         int
	BatchPause        time.Duration
	MaxConcurrent     int
	UpdateCheckWindow time.Duration
	UpdateCheckLimit  int
}

// DefaultConfig returns the orchestrator defaults.
func DefaultConfig() Config {
	return Config{
		BatchSize:         DefaultBatchSize,
		BatchPause:        DefaultBatchPause,
		MaxConcurrent:     DefaultMaxConcurrent,
		UpdateCheckWindow: DefaultUpdateCheckWindow,
		UpdateCheckLimit:  DefaultUpdateCheckLimit,
	}
}

// Orchestrator runs crawls end to end for registered sources.
type Orchestrator struct {
	sources    SourceStore
	articles   ArticleStore
	dedup      Deduplicator
	discoverer Discoverer
	limiter    Limiter
	robots     RobotsPolicy
	fetcher    PageFetcher
	extractor  ContentExtractor
	log        Logger
	cfg        Config
	sem        *semaphore.Weighted
}

// NewOrchestrator creates an orchestrator with the given collaborators.
func NewOrchestrator(
	sources SourceStore,
	articles ArticleStore,
	deduplicator Deduplicator,
	discoverer Discoverer,
	limiter Limiter,
	robots RobotsPolicy,
	fetcher PageFetcher,
	extractor ContentExtractor,
	log Logger,
	cfg Config,
) *Orchestrator {
	if cfg.BatchSize <= 0 {
		cfg.BatchSize = DefaultBatchSize
	}
	if cfg.MaxConcurrent <= 0 {
		cfg.MaxConcurrent = DefaultMaxConcurrent
	}
	if cfg.UpdateCheckWindow <= 0 {
		cfg.UpdateCheckWindow = DefaultUpdateCheckWindow
	}
	if cfg.UpdateCheckLimit <= 0 {
		cfg.UpdateCheckLimit = DefaultUpdateCheckLimit
	}

	return &Orchestrator{
		sources:    sources,
		articles:   articles,
		dedup:      deduplicator,
		discoverer: discoverer,
		limiter:    limiter,
		robots:     robots,
		fetcher:    fetcher,
		extractor:  extractor,
		log:        log,
		cfg:        cfg,
		sem:        semaphore.NewWeighted(int64(cfg.MaxConcurrent)),
	}
}

// CrawlSource runs one bounded crawl of a source and returns its statistics.
// Per-URL failures are absorbed into the statistics; only an unknown source,
// a robots.txt refusal, or failed discovery abort the run. On context
// cancellation the statistics collected so far are returned.
func (o *Orchestrator) CrawlSource(ctx context.Context, sourceID string, maxPages int) (*domain.RunStats, error) {
	start := time.Now()

	source, sourceErr := o.sources.GetByID(ctx, sourceID)
	if sourceErr != nil {
		return nil, fmt.Errorf("crawl source: %w", sourceErr)
	}

	if maxPages <= 0 {
		maxPages = source.MaxPages
	}
	if maxPages <= 0 {
		maxPages = DefaultMaxPages
	}

	stats := &domain.RunStats{}

	if source.RespectRobots {
		allowed, robotsErr := o.robots.Allowed(ctx, source.URL)
		if robotsErr != nil {
			return nil, fmt.Errorf("crawl source: robots check: %w", robotsErr)
		}
		if !allowed {
			stats.Errors = append(stats.Errors, "robots.txt disallows crawling the source root")
			stats.DurationSeconds = time.Since(start).Seconds()
			return stats, ErrRobotsDisallowed
		}
	}

	if warmErr := o.dedup.Warm(ctx); warmErr != nil {
		o.log.Warn("fingerprint cache warm failed", "error", warmErr)
	}

	urls, discoverErr := o.discoverer.Discover(ctx, source, maxPages)
	if discoverErr != nil {
		return nil, fmt.Errorf("crawl source: discovery: %w", discoverErr)
	}

	o.log.Info("crawl started",
		"source", source.Name,
		"urls", len(urls),
		"max_pages", maxPages,
	)

	o.crawlBatches(ctx, source, urls, stats)

	if updateErr := o.sources.UpdateCrawlStats(ctx, source.ID, stats.PagesFailed); updateErr != nil {
		o.log.Warn("source bookkeeping failed", "source", source.Name, "error", updateErr)
	}

	stats.DurationSeconds = time.Since(start).Seconds()

	o.log.Info("crawl finished",
		"source", source.Name,
		"crawled", stats.PagesCrawled,
		"new", stats.NewArticles,
		"updated", stats.UpdatedArticles,
		"duplicates", stats.DuplicatesFound,
		"skipped", stats.PagesSkipped,
		"failed", stats.PagesFailed,
		"duration_seconds", stats.DurationSeconds,
	)

	return stats, nil
}

// crawlBatches fetches URLs in batches, pausing between them, and folds
// every outcome into stats. Outcome application is serialized here; only
// the fetches themselves run concurrently.
func (o *Orchestrator) crawlBatches(ctx context.Context, source *domain.Source, urls []string, stats *domain.RunStats) {
	for offset := 0; offset < len(urls); offset += o.cfg.BatchSize {
		if ctx.Err() != nil {
			return
		}

		batch := urls[offset:min(offset+o.cfg.BatchSize, len(urls))]

		for _, outcome := range o.fetchBatch(ctx, source, batch) {
			o.applyOutcome(ctx, source, outcome, stats)
		}

		if offset+o.cfg.BatchSize < len(urls) && o.cfg.BatchPause > 0 {
			select {
			case <-ctx.Done():
				return
			case <-time.After(o.cfg.BatchPause):
			}
		}
	}
}

// fetchBatch fetches one batch concurrently under the global semaphore and
// returns the outcomes in batch order.
func (o *Orchestrator) fetchBatch(ctx context.Context, source *domain.Source, batch []string) []*domain.FetchOutcome {
	outcomes := make([]*domain.FetchOutcome, len(batch))

	var wg sync.WaitGroup
	for i, pageURL := range batch {
		wg.Add(1)
		go func(i int, pageURL string) {
			defer wg.Done()

			if acquireErr := o.sem.Acquire(ctx, 1); acquireErr != nil {
				outcomes[i] = &domain.FetchOutcome{URL: pageURL, ErrMessage: acquireErr.Error()}
				return
			}
			defer o.sem.Release(1)

			outcomes[i] = o.fetchOne(ctx, pageURL)
		}(i, pageURL)
	}
	wg.Wait()

	return outcomes
}

// hostOf extracts the lowercased host of a URL for rate limiting.
func hostOf(rawURL string) string {
	parsed, err := url.Parse(rawURL)
	if err != nil || parsed.Host == "" {
		return rawURL
	}

	return strings.ToLower(parsed.Host)
}

// applyOutcome folds one fetch outcome into the run statistics and persists
// its article effects. Runs on the orchestrator goroutine only.
func (o *Orchestrator) applyOutcome(ctx context.Context, source *domain.Source, outcome *domain.FetchOutcome, stats *domain.RunStats) {
	stats.PagesCrawled++

	if outcome.ErrMessage != "" {
		stats.PagesFailed++
		stats.Errors = append(stats.Errors, outcome.URL+": "+outcome.ErrMessage)
		return
	}

	if outcome.SkippedUnchanged {
		stats.PagesSkipped++
		return
	}

	stored, getErr := o.articles.GetByURL(ctx, outcome.URL)
	switch {
	case getErr == nil:
		o.applyToStored(ctx, stored, outcome, stats)
	case errors.Is(getErr, domain.ErrArticleNotFound):
		o.applyNew(ctx, source, outcome, stats)
	default:
		stats.PagesFailed++
		stats.Errors = append(stats.Errors, outcome.URL+": "+getErr.Error())
	}
}

// applyToStored handles a URL that already has an article: unchanged
// content is a skip, changed content an in-place update.
func (o *Orchestrator) applyToStored(ctx context.Context, stored *domain.Article, outcome *domain.FetchOutcome, stats *domain.RunStats) {
	if stored.Fingerprint == outcome.Fingerprint {
		stats.PagesSkipped++
		return
	}

	classification := dedup.ClassifyUpdate(stored.Content, outcome.Content)

	o.log.Info("article updated",
		"url", outcome.URL,
		"update_type", string(classification.Type),
		"similarity", classification.Similarity,
	)

	applyOutcomeFields(stored, outcome)

	if updateErr := o.articles.Update(ctx, stored); updateErr != nil {
		stats.PagesFailed++
		stats.Errors = append(stats.Errors, outcome.URL+": "+updateErr.Error())
		return
	}

	if _, regErr := o.dedup.Register(ctx, outcome.Fingerprint, outcome.URL, stored.ID, outcome.Content); regErr != nil {
		o.log.Warn("fingerprint registration failed", "url", outcome.URL, "error", regErr)
	}

	stats.PagesProcessed++
	stats.UpdatedArticles++
}

// applyNew handles a URL with no stored article: duplicate content is
// counted and dropped, everything else becomes a new article.
func (o *Orchestrator) applyNew(ctx context.Context, source *domain.Source, outcome *domain.FetchOutcome, stats *domain.RunStats) {
	if outcome.Duplicate {
		stats.DuplicatesFound++
		o.log.Debug("duplicate content dropped", "url", outcome.URL)
		return
	}

	article := &domain.Article{
		SourceID:     source.ID,
		URL:          outcome.URL,
		Title:        outcome.Title,
		Author:       outcome.Author,
		PublishedAt:  outcome.PublishedAt,
		Content:      outcome.Content,
		Language:     outcome.Language,
		Fingerprint:  outcome.Fingerprint,
		ETag:         outcome.ETag,
		LastModified: outcome.LastModified,
		WordCount:    domain.CountWords(outcome.Content),
		QualityScore: QualityScore(outcome),
		HTTPStatus:   outcome.StatusCode,
	}

	if createErr := o.articles.Create(ctx, article); createErr != nil {
		stats.PagesFailed++
		stats.Errors = append(stats.Errors, outcome.URL+": "+createErr.Error())
		return
	}

	inserted, regErr := o.dedup.Register(ctx, outcome.Fingerprint, outcome.URL, article.ID, outcome.Content)
	if regErr != nil {
		o.log.Warn("fingerprint registration failed", "url", outcome.URL, "error", regErr)
	} else if !inserted {
		// Lost a registration race inside the run; the article stays but
		// the collision is counted.
		stats.DuplicatesFound++
	}

	stats.PagesProcessed++
	stats.NewArticles++
}

// applyOutcomeFields copies the refetched fields onto a stored article.
func applyOutcomeFields(stored *domain.Article, outcome *domain.FetchOutcome) {
	stored.Title = outcome.Title
	stored.Author = outcome.Author
	if outcome.PublishedAt != nil {
		stored.PublishedAt = outcome.PublishedAt
	}
	stored.Content = outcome.Content
	stored.Language = outcome.Language
	stored.Fingerprint = outcome.Fingerprint
	stored.ETag = outcome.ETag
	stored.LastModified = outcome.LastModified
	stored.WordCount = domain.CountWords(outcome.Content)
	stored.QualityScore = QualityScore(outcome)
	stored.HTTPStatus = outcome.StatusCode
}
