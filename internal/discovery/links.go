package discovery

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/PuerkitoBio/goquery"
)

// skippedExtensions are href targets that are never article pages.
var skippedExtensions = []string{
	".css", ".js", ".png", ".jpg", ".jpeg", ".gif", ".svg", ".ico",
	".pdf", ".zip", ".xml", ".mp3", ".mp4", ".webp", ".woff", ".woff2",
}

// ExtractLinks parses HTML and returns the absolute same-host links it
// references. Relative hrefs are resolved against baseURL; links to other
// hosts, fragments, and non-page resources are dropped.
func ExtractLinks(baseURL, html string) ([]string, error) {
	base, parseErr := url.Parse(baseURL)
	if parseErr != nil {
		return nil, fmt.Errorf("extract links: parse base url: %w", parseErr)
	}

	doc, docErr := goquery.NewDocumentFromReader(strings.NewReader(html))
	if docErr != nil {
		return nil, fmt.Errorf("extract links: parse html: %w", docErr)
	}

	var links []string

	doc.Find("a[href]").Each(func(_ int, anchor *goquery.Selection) {
		href, _ := anchor.Attr("href")
		if link := resolveLink(base, href); link != "" {
			links = append(links, link)
		}
	})

	return links, nil
}

// resolveLink turns an href into an absolute same-host page URL, or an
// empty string when the href is not worth following.
func resolveLink(base *url.URL, href string) string {
	href = strings.TrimSpace(href)
	if href == "" || strings.HasPrefix(href, "#") ||
		strings.HasPrefix(href, "mailto:") || strings.HasPrefix(href, "javascript:") {
		return ""
	}

	resolved, err := base.Parse(href)
	if err != nil {
		return ""
	}

	if resolved.Scheme != "http" && resolved.Scheme != "https" {
		return ""
	}
	if !strings.EqualFold(resolved.Host, base.Host) {
		return ""
	}

	lowered := strings.ToLower(resolved.Path)
	for _, ext := range skippedExtensions {
		if strings.HasSuffix(lowered, ext) {
			return ""
		}
	}

	resolved.Fragment = ""

	return resolved.String()
}
