package discovery

import (
	"context"
	"net/http"

	"github.com/sentineliq/harvester/internal/domain"
	"github.com/sentineliq/harvester/internal/fetch"
)

// Budget shares per strategy. Sitemaps are the most reliable signal so
// they get the largest share; on-page links fill whatever is left.
const (
	sitemapShareDivisor = 2
	feedShareDivisor    = 4
)

// wellKnownSitemaps are the paths probed when a source declares no sitemap.
var wellKnownSitemaps = []string{"/sitemap.xml", "/sitemap_index.xml", "/sitemap-index.xml"}

// wellKnownFeeds are the paths probed when a source declares no feed.
var wellKnownFeeds = []string{"/feed", "/rss", "/feed.xml", "/rss.xml", "/atom.xml", "/index.xml"}

// Fetcher fetches pages for discovery. Satisfied by *fetch.Client.
type Fetcher interface {
	Get(ctx context.Context, url string, etag, lastModified *string) (*fetch.Response, error)
}

// Logger is the logging contract discovery needs.
type Logger interface {
	Debug(msg string, fields ...any)
	Warn(msg string, fields ...any)
}

// Discoverer merges a source's sitemap, feed, and on-page links into one
// bounded, deduplicated list of crawl candidates.
type Discoverer struct {
	fetcher Fetcher
	log     Logger
}

// NewDiscoverer creates a discoverer using fetcher for all page loads.
func NewDiscoverer(fetcher Fetcher, log Logger) *Discoverer {
	return &Discoverer{fetcher: fetcher, log: log}
}

// Discover returns up to maxPages candidate URLs for the source. The
// source's root URL always comes first; sitemap URLs fill up to half the
// budget, feed entries up to a quarter, and links followed from the root
// page fill the remainder. Strategy failures are logged and skipped, never
// fatal; only an unusable root URL fails discovery.
func (d *Discoverer) Discover(ctx context.Context, source *domain.Source, maxPages int) ([]string, error) {
	set := newURLSet(maxPages)

	rootURL, rootErr := NormalizeURL(source.URL)
	if rootErr != nil {
		return nil, rootErr
	}
	set.add(rootURL)

	sitemapBudget := set.len() + max(maxPages/sitemapShareDivisor, 1)
	for _, candidate := range d.sitemapURLs(ctx, source) {
		if set.len() >= sitemapBudget {
			break
		}
		set.add(candidate)
	}

	feedBudget := set.len() + max(maxPages/feedShareDivisor, 1)
	for _, candidate := range d.feedURLs(ctx, source) {
		if set.len() >= feedBudget {
			break
		}
		set.add(candidate)
	}

	if set.len() < maxPages {
		for _, candidate := range d.pageLinks(ctx, source.URL) {
			if set.len() >= maxPages {
				break
			}
			set.add(candidate)
		}
	}

	urls := set.urls()
	if len(urls) > maxPages {
		urls = urls[:maxPages]
	}

	d.log.Debug("discovery complete",
		"source", source.Name,
		"urls", len(urls),
	)

	return urls, nil
}

// sitemapURLs collects page URLs from the source's sitemap, following a
// sitemap index one level down.
func (d *Discoverer) sitemapURLs(ctx context.Context, source *domain.Source) []string {
	candidates := d.sitemapLocations(source)

	for _, sitemapURL := range candidates {
		body, ok := d.fetchBody(ctx, sitemapURL)
		if !ok {
			continue
		}

		if !IsSitemapIndex(body) {
			urls, parseErr := ParseSitemap(body)
			if parseErr != nil {
				d.log.Debug("sitemap parse failed", "url", sitemapURL, "error", parseErr)
				continue
			}
			if len(urls) > 0 {
				return urls
			}
			continue
		}

		children, parseErr := ParseSitemapIndex(body)
		if parseErr != nil {
			d.log.Debug("sitemap index parse failed", "url", sitemapURL, "error", parseErr)
			continue
		}

		var urls []string
		for _, child := range children {
			childBody, childOK := d.fetchBody(ctx, child)
			if !childOK {
				continue
			}
			childURLs, childErr := ParseSitemap(childBody)
			if childErr != nil {
				continue
			}
			urls = append(urls, childURLs...)
		}
		if len(urls) > 0 {
			return urls
		}
	}

	return nil
}

func (d *Discoverer) sitemapLocations(source *domain.Source) []string {
	if source.SitemapURL != nil && *source.SitemapURL != "" {
		return []string{*source.SitemapURL}
	}

	locations := make([]string, 0, len(wellKnownSitemaps))
	for _, path := range wellKnownSitemaps {
		locations = append(locations, source.URL+path)
	}

	return locations
}

// feedURLs collects entry URLs from the source's feed, probing well-known
// paths when none is declared.
func (d *Discoverer) feedURLs(ctx context.Context, source *domain.Source) []string {
	candidates := d.feedLocations(source)

	for _, feedURL := range candidates {
		body, ok := d.fetchBody(ctx, feedURL)
		if !ok {
			continue
		}

		urls, parseErr := ParseFeed(body)
		if parseErr != nil {
			d.log.Debug("feed parse failed", "url", feedURL, "error", parseErr)
			continue
		}
		if len(urls) > 0 {
			return urls
		}
	}

	return nil
}

func (d *Discoverer) feedLocations(source *domain.Source) []string {
	if source.FeedURL != nil && *source.FeedURL != "" {
		return []string{*source.FeedURL}
	}

	locations := make([]string, 0, len(wellKnownFeeds))
	for _, path := range wellKnownFeeds {
		locations = append(locations, source.URL+path)
	}

	return locations
}

// pageLinks extracts same-host links from the source's root page.
func (d *Discoverer) pageLinks(ctx context.Context, rootURL string) []string {
	body, ok := d.fetchBody(ctx, rootURL)
	if !ok {
		return nil
	}

	links, extractErr := ExtractLinks(rootURL, body)
	if extractErr != nil {
		d.log.Warn("link extraction failed", "url", rootURL, "error", extractErr)
		return nil
	}

	return links
}

// fetchBody loads a URL and returns its body when the response is a 200.
func (d *Discoverer) fetchBody(ctx context.Context, url string) (string, bool) {
	resp, fetchErr := d.fetcher.Get(ctx, url, nil, nil)
	if fetchErr != nil {
		d.log.Debug("discovery fetch failed", "url", url, "error", fetchErr)
		return "", false
	}
	if resp.StatusCode != http.StatusOK {
		return "", false
	}

	return resp.Body, true
}

// urlSet is an insertion-ordered set of normalized URLs.
type urlSet struct {
	seen  map[string]struct{}
	order []string
}

func newURLSet(capacity int) *urlSet {
	return &urlSet{
		seen:  make(map[string]struct{}, capacity),
		order: make([]string, 0, capacity),
	}
}

// add normalizes and inserts a URL, ignoring malformed ones.
func (s *urlSet) add(rawURL string) {
	normalized, err := NormalizeURL(rawURL)
	if err != nil {
		return
	}

	if _, ok := s.seen[normalized]; ok {
		return
	}

	s.seen[normalized] = struct{}{}
	s.order = append(s.order, normalized)
}

func (s *urlSet) len() int { return len(s.order) }

func (s *urlSet) urls() []string { return s.order }
