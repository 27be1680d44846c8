// Package domain provides domain models used across the application.
package domain

import "time"

// Source represents a registered crawl target.
type Source struct {
	ID            string     `db:"id"              json:"id"`
	Name          string     `db:"name"            json:"name"`
	URL           string     `db:"url"             json:"url"`
	Host          string     `db:"host"            json:"host"`
	RespectRobots bool       `db:"respect_robots"  json:"respect_robots"`
	MaxPages      int        `db:"max_pages"       json:"max_pages"`
	SitemapURL    *string    `db:"sitemap_url"     json:"sitemap_url,omitempty"`
	FeedURL       *string    `db:"feed_url"        json:"feed_url,omitempty"`
	Active        bool       `db:"active"          json:"active"`
	CrawlCount    int        `db:"crawl_count"     json:"crawl_count"`
	ErrorCount    int        `db:"error_count"     json:"error_count"`
	LastCrawledAt *time.Time `db:"last_crawled_at" json:"last_crawled_at,omitempty"`
	CreatedAt     time.Time  `db:"created_at"      json:"created_at"`
	UpdatedAt     time.Time  `db:"updated_at"      json:"updated_at"`
}
