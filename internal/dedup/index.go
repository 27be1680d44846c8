package dedup

import (
	"context"
	"fmt"
	"time"
)

// Defaults for the index configuration.
const (
	// DefaultSimilarityThreshold is the ratio at or above which content
	// is considered a near duplicate.
	DefaultSimilarityThreshold = 0.85
	// DefaultMinContentLength is the shortest content worth a structural
	// comparison; shorter content is too noisy.
	DefaultMinContentLength = 200
	// DefaultWarmWindowDays is how far back the hot cache is warmed from.
	DefaultWarmWindowDays = 30
	// DefaultCacheCapacity bounds the hot cache.
	DefaultCacheCapacity = 100_000
	// DefaultCandidateLimit bounds the near-duplicate candidate set.
	DefaultCandidateLimit = 100

	hoursPerDay = 24

	// Candidate length band around the new content's length.
	candidateLengthLow  = 0.7
	candidateLengthHigh = 1.3
)

// UpsertParams describes a fingerprint registration.
type UpsertParams struct {
	Fingerprint   string
	StructureHash string
	ContentLength int
	ArticleID     string
}

// Store is the persistence collaborator behind the index.
type Store interface {
	// RecentFingerprints returns fingerprints first seen after since,
	// used to warm the hot cache.
	RecentFingerprints(ctx context.Context, since time.Time) ([]string, error)
	// FingerprintExists reports whether an exact-match record exists.
	FingerprintExists(ctx context.Context, fingerprint string) (bool, error)
	// UpsertFingerprint inserts a record or, when the fingerprint already
	// exists, increments its duplicate counter. Returns true when a new
	// record was inserted.
	UpsertFingerprint(ctx context.Context, params UpsertParams) (bool, error)
	// CandidateContents returns recent stored contents that either share
	// the structure hash or fall inside the length band.
	CandidateContents(ctx context.Context, structureHash string, minLen, maxLen, limit int) ([]string, error)
	// DeleteStaleFingerprints removes records first seen before cutoff
	// that were never observed as duplicates.
	DeleteStaleFingerprints(ctx context.Context, cutoff time.Time) (int, error)
}

// Logger is the logging contract the index needs.
type Logger interface {
	Debug(msg string, fields ...any)
	Info(msg string, fields ...any)
}

// Config holds index tuning knobs.
type Config struct {
	SimilarityThreshold float64
	MinContentLength    int
	WarmWindowDays      int
	CacheCapacity       int
	CandidateLimit      int
}

// DefaultConfig returns the index defaults.
func DefaultConfig() Config {
	return Config{
		SimilarityThreshold: DefaultSimilarityThreshold,
		MinContentLength:    DefaultMinContentLength,
		WarmWindowDays:      DefaultWarmWindowDays,
		CacheCapacity:       DefaultCacheCapacity,
		CandidateLimit:      DefaultCandidateLimit,
	}
}

// Index answers whether fetched content duplicates something already
// stored, and records new content so future lookups see it.
type Index struct {
	store Store
	log   Logger
	cfg   Config
	cache *fingerprintCache
}

// NewIndex creates a duplication index backed by store.
func NewIndex(store Store, log Logger, cfg Config) *Index {
	if cfg.CacheCapacity <= 0 {
		cfg.CacheCapacity = DefaultCacheCapacity
	}
	if cfg.SimilarityThreshold <= 0 {
		cfg.SimilarityThreshold = DefaultSimilarityThreshold
	}
	if cfg.MinContentLength <= 0 {
		cfg.MinContentLength = DefaultMinContentLength
	}
	if cfg.WarmWindowDays <= 0 {
		cfg.WarmWindowDays = DefaultWarmWindowDays
	}
	if cfg.CandidateLimit <= 0 {
		cfg.CandidateLimit = DefaultCandidateLimit
	}

	return &Index{
		store: store,
		log:   log,
		cfg:   cfg,
		cache: newFingerprintCache(cfg.CacheCapacity),
	}
}

// Warm loads recently seen fingerprints into the hot cache.
func (i *Index) Warm(ctx context.Context) error {
	since := time.Now().AddDate(0, 0, -i.cfg.WarmWindowDays)

	fingerprints, err := i.store.RecentFingerprints(ctx, since)
	if err != nil {
		return fmt.Errorf("warm fingerprint cache: %w", err)
	}

	for _, fp := range fingerprints {
		i.cache.Add(fp)
	}

	i.log.Info("fingerprint cache warmed", "count", len(fingerprints))

	return nil
}

// IsDuplicate reports whether content with the given fingerprint duplicates
// something already stored. The exact check consults the hot cache first,
// then the store. When content is supplied and long enough, a structural
// near-duplicate check runs as well.
func (i *Index) IsDuplicate(ctx context.Context, fingerprint, url, content string) (bool, error) {
	if i.cache.Contains(fingerprint) {
		return true, nil
	}

	exists, err := i.store.FingerprintExists(ctx, fingerprint)
	if err != nil {
		return false, fmt.Errorf("exact duplicate lookup: %w", err)
	}
	if exists {
		i.cache.Add(fingerprint)
		return true, nil
	}

	if len(content) > i.cfg.MinContentLength {
		similar, simErr := i.hasSimilarContent(ctx, content)
		if simErr != nil {
			return false, simErr
		}
		if similar {
			i.log.Debug("near-duplicate content detected", "url", url)
			return true, nil
		}
	}

	return false, nil
}

// hasSimilarContent fetches a candidate set of comparable stored contents
// and compares each against the new content.
func (i *Index) hasSimilarContent(ctx context.Context, content string) (bool, error) {
	normalized := NormalizeContent(content)
	structureHash := StructureSignature(content)

	minLen := int(float64(len(content)) * candidateLengthLow)
	maxLen := int(float64(len(content)) * candidateLengthHigh)

	candidates, err := i.store.CandidateContents(ctx, structureHash, minLen, maxLen, i.cfg.CandidateLimit)
	if err != nil {
		return false, fmt.Errorf("near-duplicate candidate lookup: %w", err)
	}

	for _, candidate := range candidates {
		if SimilarityRatio(normalized, candidate) >= i.cfg.SimilarityThreshold {
			return true, nil
		}
	}

	return false, nil
}

// Register records content under its fingerprint. When the fingerprint is
// already known the store increments its duplicate counter instead; the
// loser of a concurrent registration race is treated the same way, never
// as an error. Returns true when the fingerprint was newly registered.
func (i *Index) Register(ctx context.Context, fingerprint, url, articleID, content string) (bool, error) {
	inserted, err := i.store.UpsertFingerprint(ctx, UpsertParams{
		Fingerprint:   fingerprint,
		StructureHash: StructureSignature(content),
		ContentLength: len(content),
		ArticleID:     articleID,
	})
	if err != nil {
		return false, fmt.Errorf("register fingerprint: %w", err)
	}

	i.cache.Add(fingerprint)

	if !inserted {
		i.log.Debug("fingerprint already registered", "url", url)
	}

	return inserted, nil
}

// Cleanup removes fingerprint records older than maxAgeDays that were
// never observed as duplicates, then re-warms the hot cache. Records with
// duplicate observations are never removed; dropping them would let the
// same content be re-ingested as new.
func (i *Index) Cleanup(ctx context.Context, maxAgeDays int) (int, error) {
	cutoff := time.Now().Add(-time.Duration(maxAgeDays) * hoursPerDay * time.Hour)

	deleted, err := i.store.DeleteStaleFingerprints(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("cleanup fingerprints: %w", err)
	}

	i.cache.Reset()
	if warmErr := i.Warm(ctx); warmErr != nil {
		return deleted, warmErr
	}

	i.log.Info("fingerprint cleanup complete", "deleted", deleted)

	return deleted, nil
}

// CacheSize returns the number of fingerprints in the hot cache.
func (i *Index) CacheSize() int {
	return i.cache.Len()
}
