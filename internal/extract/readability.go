package extract

import (
	"net/url"
	"strings"

	readability "github.com/go-shiori/go-readability"
)

// applyReadabilityFallback runs a readability-style extraction over the full
// document and fills in whatever the selector pass missed. Failures leave
// the result untouched.
func applyReadabilityFallback(result *Result, html, pageURL string) {
	html = strings.TrimSpace(html)
	if html == "" {
		return
	}

	parsedURL, parseErr := url.Parse(pageURL)
	if parseErr != nil {
		return
	}

	article, readErr := readability.FromReader(strings.NewReader(html), parsedURL)
	if readErr != nil {
		return
	}

	if text := strings.TrimSpace(article.TextContent); len(text) > len(result.Content) {
		result.Content = text
	}

	if result.Title == "" {
		result.Title = strings.TrimSpace(article.Title)
	}
	if result.Author == "" {
		result.Author = strings.TrimSpace(article.Byline)
	}
}
