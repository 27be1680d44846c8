package domain

import "time"

// FetchOutcome is the per-URL result of a single crawl attempt. It is
// produced by a fetch task and consumed immediately by the orchestrator;
// it is never persisted directly.
type FetchOutcome struct {
	URL              string
	Success          bool
	StatusCode       int
	Title            string
	Author           string
	PublishedAt      *time.Time
	Content          string
	Language         string
	Fingerprint      string
	ETag             *string
	LastModified     *string
	SkippedUnchanged bool
	Duplicate        bool
	ErrMessage       string
	Elapsed          time.Duration
}

// RunStats aggregates the counters for one crawl run. It is mutated only
// by the orchestrator's own aggregation step and returned as the run result.
type RunStats struct {
	PagesCrawled    int      `json:"pages_crawled"`
	PagesProcessed  int      `json:"pages_processed"`
	PagesFailed     int      `json:"pages_failed"`
	PagesSkipped    int      `json:"pages_skipped"`
	NewArticles     int      `json:"new_articles"`
	UpdatedArticles int      `json:"updated_articles"`
	DuplicatesFound int      `json:"duplicates_found"`
	Errors          []string `json:"errors,omitempty"`
	DurationSeconds float64  `json:"duration_seconds"`
}

// UpdateCheckStats aggregates the counters for one freshness sweep.
type UpdateCheckStats struct {
	PagesChecked int      `json:"pages_checked"`
	UpdatesFound int      `json:"updates_found"`
	Errors       []string `json:"errors,omitempty"`
}
