// Package discovery finds crawlable URLs for a source by merging its
// sitemap, its feeds, and links followed from already known pages.
package discovery

import "github.com/PuerkitoBio/purell"

// normalizeFlags is the canonicalization applied before URL deduplication.
const normalizeFlags = purell.FlagLowercaseScheme |
	purell.FlagLowercaseHost |
	purell.FlagRemoveDefaultPort |
	purell.FlagRemoveFragment |
	purell.FlagDecodeUnnecessaryEscapes |
	purell.FlagSortQuery |
	purell.FlagRemoveDuplicateSlashes |
	purell.FlagRemoveDotSegments

// NormalizeURL canonicalizes a URL so trivially different spellings of the
// same page dedupe to one entry.
func NormalizeURL(rawURL string) (string, error) {
	return purell.NormalizeURLString(rawURL, normalizeFlags)
}
