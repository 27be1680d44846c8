// Package dedup provides content fingerprinting and exact plus
// near-duplicate detection for harvested content.
package dedup

import (
	"crypto/sha256"
	"encoding/hex"
	"regexp"
	"sort"
	"strings"
)

var (
	whitespaceRE  = regexp.MustCompile(`\s+`)
	punctuationRE = regexp.MustCompile(`[.,;:!?()\[\]{}"']`)
)

// Sampling bounds for structure signatures.
const (
	// minSignificantWordLen excludes short words from structure sampling.
	minSignificantWordLen = 3
	// sampleThreshold is the word count above which sampling kicks in.
	sampleThreshold = 50
	// edgeSampleSize is how many words are taken from the head and tail.
	edgeSampleSize = 20
	// middleSampleHalf is half the window taken around the middle.
	middleSampleHalf = 10
)

// NormalizeContent collapses whitespace, strips punctuation, and lowercases
// content so trivial formatting differences never change its fingerprint.
func NormalizeContent(content string) string {
	normalized := whitespaceRE.ReplaceAllString(content, " ")
	normalized = punctuationRE.ReplaceAllString(normalized, "")
	return strings.ToLower(strings.TrimSpace(normalized))
}

// Fingerprint returns the hex-encoded SHA-256 of the normalized content.
// It is the exact-duplicate identity of a piece of content.
func Fingerprint(content string) string {
	sum := sha256.Sum256([]byte(NormalizeContent(content)))
	return hex.EncodeToString(sum[:])
}

// StructureSignature returns a coarse, order-independent hash of a sampled
// subset of the content's significant words. Long documents are sampled at
// the head, middle, and tail, which bounds comparison cost while staying
// sensitive to wholesale content reuse.
func StructureSignature(content string) string {
	normalized := NormalizeContent(content)

	var words []string
	for _, w := range strings.Fields(normalized) {
		if len(w) > minSignificantWordLen {
			words = append(words, w)
		}
	}

	sample := words
	if len(words) > sampleThreshold {
		mid := len(words) / 2
		sample = make([]string, 0, 2*edgeSampleSize+2*middleSampleHalf)
		sample = append(sample, words[:edgeSampleSize]...)
		sample = append(sample, words[mid-middleSampleHalf:mid+middleSampleHalf]...)
		sample = append(sample, words[len(words)-edgeSampleSize:]...)
	}

	seen := make(map[string]struct{}, len(sample))
	uniq := make([]string, 0, len(sample))
	for _, w := range sample {
		if _, ok := seen[w]; !ok {
			seen[w] = struct{}{}
			uniq = append(uniq, w)
		}
	}
	sort.Strings(uniq)

	sum := sha256.Sum256([]byte(strings.Join(uniq, " ")))
	return hex.EncodeToString(sum[:])
}
