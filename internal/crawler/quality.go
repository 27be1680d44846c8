package crawler

import (
	"strings"

	"github.com/sentineliq/harvester/internal/domain"
)

// Quality score weights. Every article starts at the base score and earns
// bonuses for completeness signals, capped at 1.0.
const (
	qualityBase          = 0.5
	qualityLengthBonus   = 0.15
	qualityTitleBonus    = 0.1
	qualityAuthorBonus   = 0.1
	qualityDateBonus     = 0.05
	qualityKeywordBonus  = 0.02
	qualityKeywordCap    = 0.1
	qualityMax           = 1.0
	substantialBodyChars = 1000
	substantialTitleLen  = 10
)

// technicalKeywords mark content relevant to the feeds this crawler targets.
var technicalKeywords = []string{
	"security", "vulnerability", "exploit", "malware", "breach",
	"encryption", "authentication", "patch", "zero-day", "ransomware",
}

// QualityScore computes a heuristic quality score for a fetch outcome.
func QualityScore(outcome *domain.FetchOutcome) float64 {
	score := qualityBase

	if len(outcome.Content) > substantialBodyChars {
		score += qualityLengthBonus
	}
	if len(outcome.Title) > substantialTitleLen {
		score += qualityTitleBonus
	}
	if outcome.Author != "" {
		score += qualityAuthorBonus
	}
	if outcome.PublishedAt != nil {
		score += qualityDateBonus
	}

	score += keywordBonus(outcome.Content)

	return min(score, qualityMax)
}

// keywordBonus awards a small bonus per distinct technical keyword found.
func keywordBonus(content string) float64 {
	lowered := strings.ToLower(content)

	bonus := 0.0
	for _, keyword := range technicalKeywords {
		if strings.Contains(lowered, keyword) {
			bonus += qualityKeywordBonus
		}
		if bonus >= qualityKeywordCap {
			break
		}
	}

	return bonus
}
