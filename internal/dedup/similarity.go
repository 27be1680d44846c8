package dedup

import "strings"

// maxSimilarityTokens caps the number of word tokens compared, bounding
// the quadratic cost of the subsequence computation on long documents.
const maxSimilarityTokens = 400

// Update type classification boundaries.
const (
	minorEditThreshold     = 0.95
	contentUpdateThreshold = 0.8
	majorRevisionThreshold = 0.5
)

// UpdateType classifies how much a URL's content changed between crawls.
type UpdateType string

// Update types, from least to most changed.
const (
	UpdateMinorEdit       UpdateType = "minor_edit"
	UpdateContentUpdate   UpdateType = "content_update"
	UpdateMajorRevision   UpdateType = "major_revision"
	UpdateCompleteRewrite UpdateType = "complete_rewrite"
)

// UpdateClassification describes the difference between two versions of
// the same URL's content.
type UpdateClassification struct {
	Similarity float64    `json:"similarity"`
	Type       UpdateType `json:"type"`
}

// SimilarityRatio returns a similarity in [0, 1] between two contents,
// computed as 2*M/(len(a)+len(b)) where M is the length of the longest
// common word subsequence of the normalized texts.
func SimilarityRatio(a, b string) float64 {
	ta := similarityTokens(a)
	tb := similarityTokens(b)

	if len(ta) == 0 || len(tb) == 0 {
		return 0
	}

	m := longestCommonSubsequence(ta, tb)

	return 2 * float64(m) / float64(len(ta)+len(tb))
}

// similarityTokens normalizes content and returns its word tokens,
// truncated to the comparison cap.
func similarityTokens(content string) []string {
	tokens := strings.Fields(NormalizeContent(content))
	if len(tokens) > maxSimilarityTokens {
		tokens = tokens[:maxSimilarityTokens]
	}
	return tokens
}

// longestCommonSubsequence returns the LCS length of two token slices
// using a two-row dynamic program.
func longestCommonSubsequence(a, b []string) int {
	prev := make([]int, len(b)+1)
	curr := make([]int, len(b)+1)

	for i := 1; i <= len(a); i++ {
		for j := 1; j <= len(b); j++ {
			if a[i-1] == b[j-1] {
				curr[j] = prev[j-1] + 1
			} else {
				curr[j] = max(prev[j], curr[j-1])
			}
		}
		prev, curr = curr, prev
	}

	return prev[len(b)]
}

// ClassifyUpdate compares the old and new content of a URL and classifies
// the change.
func ClassifyUpdate(oldContent, newContent string) UpdateClassification {
	similarity := SimilarityRatio(oldContent, newContent)

	var t UpdateType
	switch {
	case similarity > minorEditThreshold:
		t = UpdateMinorEdit
	case similarity > contentUpdateThreshold:
		t = UpdateContentUpdate
	case similarity > majorRevisionThreshold:
		t = UpdateMajorRevision
	default:
		t = UpdateCompleteRewrite
	}

	return UpdateClassification{Similarity: similarity, Type: t}
}
