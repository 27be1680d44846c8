package discovery_test

import (
	"testing"

	"github.com/sentineliq/harvester/internal/discovery"
)

const testSitemapXML = `<?xml version="1.0" encoding="UTF-8"?>
<urlset xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<url>
		<loc>https://example.com/articles/one</loc>
		<lastmod>2024-01-15</lastmod>
	</url>
	<url>
		<loc>https://example.com/articles/two</loc>
	</url>
	<url>
		<loc>  </loc>
	</url>
</urlset>`

const testSitemapIndexXML = `<?xml version="1.0" encoding="UTF-8"?>
<sitemapindex xmlns="http://www.sitemaps.org/schemas/sitemap/0.9">
	<sitemap><loc>https://example.com/sitemap-posts.xml</loc></sitemap>
	<sitemap><loc>https://example.com/sitemap-pages.xml</loc></sitemap>
</sitemapindex>`

func TestParseSitemap(t *testing.T) {
	t.Parallel()

	urls, err := discovery.ParseSitemap(testSitemapXML)
	if err != nil {
		t.Fatalf("ParseSitemap: %v", err)
	}

	want := []string{
		"https://example.com/articles/one",
		"https://example.com/articles/two",
	}

	if len(urls) != len(want) {
		t.Fatalf("got %d urls, want %d: %v", len(urls), len(want), urls)
	}
	for i, u := range want {
		if urls[i] != u {
			t.Errorf("urls[%d] = %q, want %q", i, urls[i], u)
		}
	}
}

func TestParseSitemapInvalidXML(t *testing.T) {
	t.Parallel()

	if _, err := discovery.ParseSitemap("<urlset><url>"); err == nil {
		t.Fatal("expected error for truncated XML")
	}
}

func TestParseSitemapIndex(t *testing.T) {
	t.Parallel()

	urls, err := discovery.ParseSitemapIndex(testSitemapIndexXML)
	if err != nil {
		t.Fatalf("ParseSitemapIndex: %v", err)
	}

	if len(urls) != 2 {
		t.Fatalf("got %d sitemaps, want 2", len(urls))
	}
	if urls[0] != "https://example.com/sitemap-posts.xml" {
		t.Errorf("urls[0] = %q", urls[0])
	}
}

func TestIsSitemapIndex(t *testing.T) {
	t.Parallel()

	if !discovery.IsSitemapIndex(testSitemapIndexXML) {
		t.Error("sitemap index not recognized")
	}
	if discovery.IsSitemapIndex(testSitemapXML) {
		t.Error("plain urlset misrecognized as index")
	}
}
