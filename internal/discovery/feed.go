package discovery

import (
	"fmt"
	"strings"

	"github.com/mmcdole/gofeed"
)

// httpPrefix marks a GUID usable as a link fallback.
const httpPrefix = "http"

// ParseFeed parses an RSS or Atom feed body and returns the entry URLs.
// Entries without a usable link are skipped.
func ParseFeed(body string) ([]string, error) {
	parsed, parseErr := gofeed.NewParser().ParseString(body)
	if parseErr != nil {
		return nil, fmt.Errorf("parse feed: %w", parseErr)
	}

	urls := make([]string, 0, len(parsed.Items))
	for _, entry := range parsed.Items {
		if link := entryLink(entry); link != "" {
			urls = append(urls, link)
		}
	}

	return urls, nil
}

// entryLink returns the best available URL from a feed entry, preferring
// the explicit Link over a URL-shaped GUID.
func entryLink(entry *gofeed.Item) string {
	if entry.Link != "" {
		return entry.Link
	}

	if strings.HasPrefix(entry.GUID, httpPrefix) {
		return entry.GUID
	}

	return ""
}
