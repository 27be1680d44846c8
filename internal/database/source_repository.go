package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sentineliq/harvester/internal/domain"
)

// sourceSelectColumns lists columns for SELECT queries on sources.
const sourceSelectColumns = `id, name, url, host, respect_robots, max_pages,
	sitemap_url, feed_url, active, crawl_count, error_count, last_crawled_at,
	created_at, updated_at`

// SourceRepository handles database operations for crawl sources.
type SourceRepository struct {
	db *sqlx.DB
}

// NewSourceRepository creates a new source repository.
func NewSourceRepository(db *sqlx.DB) *SourceRepository {
	return &SourceRepository{db: db}
}

// Create inserts a new source, assigning it an ID when none is set.
func (r *SourceRepository) Create(ctx context.Context, source *domain.Source) error {
	if source.ID == "" {
		source.ID = uuid.NewString()
	}

	query := `
		INSERT INTO sources (id, name, url, host, respect_robots, max_pages,
			sitemap_url, feed_url, active)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, execErr := r.db.ExecContext(ctx, query,
		source.ID, source.Name, source.URL, source.Host, source.RespectRobots,
		source.MaxPages, source.SitemapURL, source.FeedURL, source.Active,
	)
	if execErr != nil {
		return fmt.Errorf("insert source: %w", execErr)
	}

	return nil
}

// GetByID returns the source with the given ID, or ErrSourceNotFound.
func (r *SourceRepository) GetByID(ctx context.Context, id string) (*domain.Source, error) {
	query := `SELECT ` + sourceSelectColumns + ` FROM sources WHERE id = $1`

	var source domain.Source
	if selectErr := r.db.GetContext(ctx, &source, query, id); selectErr != nil {
		if errors.Is(selectErr, sql.ErrNoRows) {
			return nil, ErrSourceNotFound
		}
		return nil, fmt.Errorf("select source: %w", selectErr)
	}

	return &source, nil
}

// List returns all sources, active first, newest within each group.
func (r *SourceRepository) List(ctx context.Context) ([]domain.Source, error) {
	query := `SELECT ` + sourceSelectColumns + ` FROM sources
		ORDER BY active DESC, created_at DESC`

	var sources []domain.Source
	if selectErr := r.db.SelectContext(ctx, &sources, query); selectErr != nil {
		return nil, fmt.Errorf("list sources: %w", selectErr)
	}

	return sources, nil
}

// UpdateCrawlStats records the outcome of one crawl run on the source:
// increments the run counter, adds the run's error count, and stamps
// last_crawled_at.
func (r *SourceRepository) UpdateCrawlStats(ctx context.Context, id string, errorCount int) error {
	query := `
		UPDATE sources
		SET crawl_count = crawl_count + 1,
			error_count = error_count + $2,
			last_crawled_at = NOW(),
			updated_at = NOW()
		WHERE id = $1
	`

	result, execErr := r.db.ExecContext(ctx, query, id, errorCount)

	return execRequireRows(result, execErr, ErrSourceNotFound)
}
