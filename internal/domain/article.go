package domain

import (
	"strings"
	"time"
)

// Article represents a stored piece of harvested content.
type Article struct {
	ID           string     `db:"id"            json:"id"`
	SourceID     string     `db:"source_id"     json:"source_id"`
	URL          string     `db:"url"           json:"url"`
	Title        string     `db:"title"         json:"title"`
	Author       string     `db:"author"        json:"author,omitempty"`
	PublishedAt  *time.Time `db:"published_at"  json:"published_at,omitempty"`
	Content      string     `db:"content"       json:"content"`
	Language     string     `db:"language"      json:"language"`
	Fingerprint  string     `db:"fingerprint"   json:"fingerprint"`
	ETag         *string    `db:"etag"          json:"etag,omitempty"`
	LastModified *string    `db:"last_modified" json:"last_modified,omitempty"`
	WordCount    int        `db:"word_count"    json:"word_count"`
	QualityScore float64    `db:"quality_score" json:"quality_score"`
	HTTPStatus   int        `db:"http_status"   json:"http_status"`
	CrawledAt    time.Time  `db:"crawled_at"    json:"crawled_at"`
	UpdatedAt    time.Time  `db:"updated_at"    json:"updated_at"`
}

// CountWords returns the number of whitespace-separated words in content.
func CountWords(content string) int {
	return len(strings.Fields(content))
}
