package discovery

import (
	"encoding/xml"
	"fmt"
	"strings"
)

// xmlURLSet is the root element of a standard sitemap file.
type xmlURLSet struct {
	XMLName xml.Name `xml:"urlset"`
	URLs    []xmlURL `xml:"url"`
}

// xmlURL is a single <url> entry inside a <urlset>.
type xmlURL struct {
	Loc string `xml:"loc"`
}

// xmlSitemapIndex is the root element of a sitemap index file.
type xmlSitemapIndex struct {
	XMLName  xml.Name     `xml:"sitemapindex"`
	Sitemaps []xmlSitemap `xml:"sitemap"`
}

// xmlSitemap is a single <sitemap> entry inside a <sitemapindex>.
type xmlSitemap struct {
	Loc string `xml:"loc"`
}

// ParseSitemap parses sitemap XML and returns the page URLs it lists.
func ParseSitemap(body string) ([]string, error) {
	var urlset xmlURLSet
	if err := xml.Unmarshal([]byte(body), &urlset); err != nil {
		return nil, fmt.Errorf("parse sitemap: %w", err)
	}

	urls := make([]string, 0, len(urlset.URLs))
	for _, entry := range urlset.URLs {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}

	return urls, nil
}

// ParseSitemapIndex parses a sitemap index and returns the child sitemap URLs.
func ParseSitemapIndex(body string) ([]string, error) {
	var index xmlSitemapIndex
	if err := xml.Unmarshal([]byte(body), &index); err != nil {
		return nil, fmt.Errorf("parse sitemap index: %w", err)
	}

	urls := make([]string, 0, len(index.Sitemaps))
	for _, entry := range index.Sitemaps {
		if loc := strings.TrimSpace(entry.Loc); loc != "" {
			urls = append(urls, loc)
		}
	}

	return urls, nil
}

// IsSitemapIndex reports whether the body looks like a sitemap index
// rather than a plain urlset.
func IsSitemapIndex(body string) bool {
	return strings.Contains(body, "<sitemapindex")
}
