// Package extract turns fetched HTML into structured article fields.
package extract

import (
	"fmt"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/pemistahl/lingua-go"
)

// minBodyLength is the shortest selector-based body accepted before the
// readability fallback is tried.
const minBodyLength = 80

// Result holds the article fields pulled from a page. Content may be empty
// when the page carries nothing extractable; callers decide how to treat that.
type Result struct {
	Title       string
	Author      string
	Content     string
	Language    string
	PublishedAt *time.Time
}

// Extractor parses article fields out of HTML using CSS selectors, with a
// readability pass as fallback for pages the selectors cannot handle.
type Extractor struct {
	langDetector lingua.LanguageDetector
}

// NewExtractor creates a content extractor.
func NewExtractor() *Extractor {
	return &Extractor{langDetector: newLanguageDetector()}
}

// publishedTimeFormats are the date layouts tried against published-time
// metadata, most specific first.
var publishedTimeFormats = []string{
	time.RFC3339,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02",
}

// nonContentSelectors lists elements stripped before body text extraction.
const nonContentSelectors = "script, style, nav, header, footer, aside, form"

// Extract parses HTML and returns the article fields found in it.
func (e *Extractor) Extract(pageURL, html string) (*Result, error) {
	doc, parseErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	if parseErr != nil {
		return nil, fmt.Errorf("extract: parse html: %w", parseErr)
	}

	result := &Result{
		Title:       extractTitle(doc),
		Author:      extractAuthor(doc),
		Content:     extractBodyText(doc),
		PublishedAt: extractPublishedAt(doc),
	}

	if len(result.Content) < minBodyLength {
		applyReadabilityFallback(result, html, pageURL)
	}

	result.Language = e.detectLanguage(result.Content)

	return result, nil
}

// extractTitle prefers og:title, then <title>, then the first <h1>.
func extractTitle(doc *goquery.Document) string {
	if ogTitle, exists := doc.Find("meta[property='og:title']").Attr("content"); exists {
		if title := strings.TrimSpace(ogTitle); title != "" {
			return title
		}
	}

	if title := strings.TrimSpace(doc.Find("title").First().Text()); title != "" {
		return title
	}

	return strings.TrimSpace(doc.Find("h1").First().Text())
}

// extractAuthor reads author metadata from meta tags, then byline markup.
func extractAuthor(doc *goquery.Document) string {
	if author, exists := doc.Find("meta[name='author']").Attr("content"); exists {
		if trimmed := strings.TrimSpace(author); trimmed != "" {
			return trimmed
		}
	}

	if author, exists := doc.Find("meta[property='article:author']").Attr("content"); exists {
		if trimmed := strings.TrimSpace(author); trimmed != "" {
			return trimmed
		}
	}

	return strings.TrimSpace(doc.Find("[rel='author'], .author, .byline").First().Text())
}

// extractPublishedAt reads the publication time from article:published_time
// metadata or a <time datetime> attribute.
func extractPublishedAt(doc *goquery.Document) *time.Time {
	candidates := make([]string, 0, 2)

	if v, exists := doc.Find("meta[property='article:published_time']").Attr("content"); exists {
		candidates = append(candidates, v)
	}
	if v, exists := doc.Find("time[datetime]").First().Attr("datetime"); exists {
		candidates = append(candidates, v)
	}

	for _, candidate := range candidates {
		candidate = strings.TrimSpace(candidate)
		for _, layout := range publishedTimeFormats {
			if parsed, err := time.Parse(layout, candidate); err == nil {
				return &parsed
			}
		}
	}

	return nil
}

// extractBodyText pulls paragraph text from the page's main content region.
// Prefers <article>, then <main>, then the stripped <body>.
func extractBodyText(doc *goquery.Document) string {
	for _, selector := range []string{"article", "main"} {
		region := doc.Find(selector).First()
		if region.Length() == 0 {
			continue
		}

		region.Find(nonContentSelectors).Remove()

		if text := paragraphText(region); text != "" {
			return text
		}
	}

	body := doc.Find("body").First()
	if body.Length() == 0 {
		return ""
	}

	body.Find(nonContentSelectors).Remove()

	if text := paragraphText(body); text != "" {
		return text
	}

	return strings.TrimSpace(body.Text())
}

// paragraphText joins the region's paragraph contents with blank lines.
func paragraphText(region *goquery.Selection) string {
	var parts []string

	region.Find("p").Each(func(_ int, p *goquery.Selection) {
		if text := strings.TrimSpace(p.Text()); text != "" {
			parts = append(parts, text)
		}
	})

	return strings.Join(parts, "\n\n")
}
