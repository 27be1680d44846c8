package discovery_test

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"testing"

	"github.com/sentineliq/harvester/internal/discovery"
	"github.com/sentineliq/harvester/internal/domain"
	"github.com/sentineliq/harvester/internal/fetch"
	"github.com/sentineliq/harvester/internal/logger"
)

// fakeFetcher serves canned bodies keyed by URL; unknown URLs get a 404.
type fakeFetcher struct {
	pages map[string]string
}

func (f *fakeFetcher) Get(_ context.Context, url string, _, _ *string) (*fetch.Response, error) {
	body, ok := f.pages[url]
	if !ok {
		return &fetch.Response{StatusCode: http.StatusNotFound}, nil
	}

	return &fetch.Response{StatusCode: http.StatusOK, Body: body}, nil
}

func sitemapBody(urls ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><urlset>`)
	for _, u := range urls {
		fmt.Fprintf(&b, "<url><loc>%s</loc></url>", u)
	}
	b.WriteString(`</urlset>`)
	return b.String()
}

func feedBody(urls ...string) string {
	var b strings.Builder
	b.WriteString(`<?xml version="1.0"?><rss version="2.0"><channel><title>t</title>`)
	for _, u := range urls {
		fmt.Fprintf(&b, "<item><title>i</title><link>%s</link></item>", u)
	}
	b.WriteString(`</channel></rss>`)
	return b.String()
}

func testSource() *domain.Source {
	sitemap := "https://example.com/sitemap.xml"
	feed := "https://example.com/feed.xml"

	return &domain.Source{
		Name:       "example",
		URL:        "https://example.com",
		Host:       "example.com",
		SitemapURL: &sitemap,
		FeedURL:    &feed,
	}
}

func TestDiscoverMergesStrategies(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/sitemap.xml": sitemapBody(
			"https://example.com/sm/one",
			"https://example.com/sm/two",
		),
		"https://example.com/feed.xml": feedBody(
			"https://example.com/feed/one",
		),
		"https://example.com": `<html><body>
			<a href="/linked/one">One</a>
			<a href="/linked/two">Two</a>
		</body></html>`,
	}}

	d := discovery.NewDiscoverer(fetcher, logger.NewNoop())

	urls, err := d.Discover(context.Background(), testSource(), 20)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if urls[0] != "https://example.com" {
		t.Errorf("urls[0] = %q, want the root URL first", urls[0])
	}

	for _, want := range []string{
		"https://example.com/sm/one",
		"https://example.com/sm/two",
		"https://example.com/feed/one",
		"https://example.com/linked/one",
		"https://example.com/linked/two",
	} {
		if !containsURL(urls, want) {
			t.Errorf("discovered set missing %q: %v", want, urls)
		}
	}
}

func TestDiscoverDeduplicates(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/sitemap.xml": sitemapBody(
			"https://example.com/same",
			"https://example.com/same#fragment",
		),
		"https://example.com/feed.xml": feedBody("https://example.com/same"),
		"https://example.com":          `<a href="/same">again</a>`,
	}}

	d := discovery.NewDiscoverer(fetcher, logger.NewNoop())

	urls, err := d.Discover(context.Background(), testSource(), 20)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	count := 0
	for _, u := range urls {
		if u == "https://example.com/same" {
			count++
		}
	}
	if count != 1 {
		t.Errorf("duplicate URL appears %d times: %v", count, urls)
	}
}

func TestDiscoverRespectsBudgetShares(t *testing.T) {
	t.Parallel()

	sitemapURLs := make([]string, 40)
	for i := range sitemapURLs {
		sitemapURLs[i] = fmt.Sprintf("https://example.com/sm/%d", i)
	}
	feedURLs := make([]string, 40)
	for i := range feedURLs {
		feedURLs[i] = fmt.Sprintf("https://example.com/feed/%d", i)
	}

	var anchors strings.Builder
	for i := 0; i < 40; i++ {
		fmt.Fprintf(&anchors, `<a href="/linked/%d">x</a>`, i)
	}

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/sitemap.xml": sitemapBody(sitemapURLs...),
		"https://example.com/feed.xml":    feedBody(feedURLs...),
		"https://example.com":             anchors.String(),
	}}

	d := discovery.NewDiscoverer(fetcher, logger.NewNoop())

	const maxPages = 20

	urls, err := d.Discover(context.Background(), testSource(), maxPages)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(urls) != maxPages {
		t.Fatalf("got %d urls, want %d", len(urls), maxPages)
	}

	counts := map[string]int{}
	for _, u := range urls {
		switch {
		case strings.HasPrefix(u, "https://example.com/sm/"):
			counts["sitemap"]++
		case strings.HasPrefix(u, "https://example.com/feed/"):
			counts["feed"]++
		case strings.HasPrefix(u, "https://example.com/linked/"):
			counts["links"]++
		}
	}

	if counts["sitemap"] > maxPages/2 {
		t.Errorf("sitemap share = %d, want at most %d", counts["sitemap"], maxPages/2)
	}
	if counts["feed"] > maxPages/4 {
		t.Errorf("feed share = %d, want at most %d", counts["feed"], maxPages/4)
	}
	if counts["links"] == 0 {
		t.Error("link following contributed nothing despite spare budget")
	}
}

func TestDiscoverSitemapIndexRecursion(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/sitemap.xml": `<?xml version="1.0"?><sitemapindex>
			<sitemap><loc>https://example.com/sitemap-posts.xml</loc></sitemap>
		</sitemapindex>`,
		"https://example.com/sitemap-posts.xml": sitemapBody("https://example.com/posts/child"),
	}}

	d := discovery.NewDiscoverer(fetcher, logger.NewNoop())

	urls, err := d.Discover(context.Background(), testSource(), 20)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if !containsURL(urls, "https://example.com/posts/child") {
		t.Errorf("child sitemap URL not discovered: %v", urls)
	}
}

func TestDiscoverWellKnownPaths(t *testing.T) {
	t.Parallel()

	fetcher := &fakeFetcher{pages: map[string]string{
		"https://example.com/sitemap_index.xml": sitemapBody("https://example.com/via-well-known"),
		"https://example.com/rss":               feedBody("https://example.com/via-rss"),
	}}

	d := discovery.NewDiscoverer(fetcher, logger.NewNoop())

	source := testSource()
	source.SitemapURL = nil
	source.FeedURL = nil

	urls, err := d.Discover(context.Background(), source, 20)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if !containsURL(urls, "https://example.com/via-well-known") {
		t.Errorf("well-known sitemap path not probed: %v", urls)
	}
	if !containsURL(urls, "https://example.com/via-rss") {
		t.Errorf("well-known feed path not probed: %v", urls)
	}
}

func TestDiscoverAllStrategiesFailing(t *testing.T) {
	t.Parallel()

	d := discovery.NewDiscoverer(&fakeFetcher{pages: map[string]string{}}, logger.NewNoop())

	urls, err := d.Discover(context.Background(), testSource(), 20)
	if err != nil {
		t.Fatalf("Discover: %v", err)
	}

	if len(urls) != 1 || urls[0] != "https://example.com" {
		t.Errorf("urls = %v, want just the root", urls)
	}
}

func containsURL(urls []string, want string) bool {
	for _, u := range urls {
		if u == want {
			return true
		}
	}
	return false
}
