package database

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sentineliq/harvester/internal/dedup"
)

// FingerprintRepository handles database operations for content fingerprints.
// It implements dedup.Store.
type FingerprintRepository struct {
	db *sqlx.DB
}

// NewFingerprintRepository creates a new fingerprint repository.
func NewFingerprintRepository(db *sqlx.DB) *FingerprintRepository {
	return &FingerprintRepository{db: db}
}

// RecentFingerprints returns fingerprints seen at or after since.
func (r *FingerprintRepository) RecentFingerprints(ctx context.Context, since time.Time) ([]string, error) {
	query := `SELECT fingerprint FROM content_fingerprints WHERE last_seen_at >= $1`

	var fingerprints []string
	if selectErr := r.db.SelectContext(ctx, &fingerprints, query, since); selectErr != nil {
		return nil, fmt.Errorf("select recent fingerprints: %w", selectErr)
	}

	return fingerprints, nil
}

// FingerprintExists reports whether an exact fingerprint record exists.
func (r *FingerprintRepository) FingerprintExists(ctx context.Context, fingerprint string) (bool, error) {
	query := `SELECT EXISTS(SELECT 1 FROM content_fingerprints WHERE fingerprint = $1)`

	var exists bool
	if selectErr := r.db.GetContext(ctx, &exists, query, fingerprint); selectErr != nil {
		return false, fmt.Errorf("check fingerprint: %w", selectErr)
	}

	return exists, nil
}

// UpsertFingerprint inserts a fingerprint record, or bumps the duplicate
// counter of the existing record when the fingerprint is already known.
// xmax = 0 distinguishes a fresh insert from a conflict update, so the
// loser of a concurrent registration race sees inserted = false.
func (r *FingerprintRepository) UpsertFingerprint(ctx context.Context, params dedup.UpsertParams) (bool, error) {
	query := `
		INSERT INTO content_fingerprints
			(id, fingerprint, structure_hash, content_length, article_id)
		VALUES ($1, $2, $3, $4, $5)
		ON CONFLICT (fingerprint) DO UPDATE
		SET duplicate_count = content_fingerprints.duplicate_count + 1,
			last_seen_at = NOW()
		RETURNING (xmax = 0)
	`

	var inserted bool
	selectErr := r.db.GetContext(ctx, &inserted, query,
		uuid.NewString(), params.Fingerprint, params.StructureHash,
		params.ContentLength, params.ArticleID,
	)
	if selectErr != nil {
		return false, fmt.Errorf("upsert fingerprint: %w", selectErr)
	}

	return inserted, nil
}

// CandidateContents returns stored article contents whose fingerprints share
// the structure hash or fall inside the length band, most recent first.
func (r *FingerprintRepository) CandidateContents(
	ctx context.Context,
	structureHash string,
	minLen, maxLen, limit int,
) ([]string, error) {
	query := `
		SELECT a.content
		FROM content_fingerprints f
		JOIN articles a ON a.id = f.article_id
		WHERE f.structure_hash = $1
			OR f.content_length BETWEEN $2 AND $3
		ORDER BY f.last_seen_at DESC
		LIMIT $4
	`

	var contents []string
	selectErr := r.db.SelectContext(ctx, &contents, query, structureHash, minLen, maxLen, limit)
	if selectErr != nil {
		return nil, fmt.Errorf("select candidate contents: %w", selectErr)
	}

	return contents, nil
}

// DeleteStaleFingerprints removes records first seen before cutoff that were
// never observed as duplicates, returning how many were removed.
func (r *FingerprintRepository) DeleteStaleFingerprints(ctx context.Context, cutoff time.Time) (int, error) {
	query := `DELETE FROM content_fingerprints
		WHERE first_seen_at < $1 AND duplicate_count = 0`

	result, execErr := r.db.ExecContext(ctx, query, cutoff)
	if execErr != nil {
		return 0, fmt.Errorf("delete stale fingerprints: %w", execErr)
	}

	deleted, affectedErr := result.RowsAffected()
	if affectedErr != nil {
		return 0, fmt.Errorf("delete stale fingerprints: %w", affectedErr)
	}

	return int(deleted), nil
}
