package database

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/sentineliq/harvester/internal/domain"
)

// articleSelectColumns lists columns for SELECT queries on articles.
const articleSelectColumns = `id, source_id, url, title, author, published_at,
	content, language, fingerprint, etag, last_modified, word_count,
	quality_score, http_status, crawled_at, updated_at`

// ArticleRepository handles database operations for harvested articles.
type ArticleRepository struct {
	db *sqlx.DB
}

// NewArticleRepository creates a new article repository.
func NewArticleRepository(db *sqlx.DB) *ArticleRepository {
	return &ArticleRepository{db: db}
}

// Create inserts a new article, assigning it an ID when none is set.
func (r *ArticleRepository) Create(ctx context.Context, article *domain.Article) error {
	if article.ID == "" {
		article.ID = uuid.NewString()
	}

	query := `
		INSERT INTO articles (id, source_id, url, title, author, published_at,
			content, language, fingerprint, etag, last_modified, word_count,
			quality_score, http_status)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14)
	`

	_, execErr := r.db.ExecContext(ctx, query,
		article.ID, article.SourceID, article.URL, article.Title, article.Author,
		article.PublishedAt, article.Content, article.Language,
		article.Fingerprint, article.ETag, article.LastModified,
		article.WordCount, article.QualityScore, article.HTTPStatus,
	)
	if execErr != nil {
		return fmt.Errorf("insert article: %w", execErr)
	}

	return nil
}

// GetByURL returns the article stored for a URL, or ErrArticleNotFound.
func (r *ArticleRepository) GetByURL(ctx context.Context, url string) (*domain.Article, error) {
	query := `SELECT ` + articleSelectColumns + ` FROM articles WHERE url = $1`

	var article domain.Article
	if selectErr := r.db.GetContext(ctx, &article, query, url); selectErr != nil {
		if errors.Is(selectErr, sql.ErrNoRows) {
			return nil, ErrArticleNotFound
		}
		return nil, fmt.Errorf("select article: %w", selectErr)
	}

	return &article, nil
}

// Update replaces the stored content and metadata of an existing article.
func (r *ArticleRepository) Update(ctx context.Context, article *domain.Article) error {
	query := `
		UPDATE articles
		SET title = $2, author = $3, published_at = $4, content = $5,
			language = $6, fingerprint = $7, etag = $8, last_modified = $9,
			word_count = $10, quality_score = $11, http_status = $12,
			updated_at = NOW()
		WHERE id = $1
	`

	result, execErr := r.db.ExecContext(ctx, query,
		article.ID, article.Title, article.Author, article.PublishedAt,
		article.Content, article.Language, article.Fingerprint, article.ETag,
		article.LastModified, article.WordCount, article.QualityScore,
		article.HTTPStatus,
	)

	return execRequireRows(result, execErr, ErrArticleNotFound)
}

// ListRecentBySource returns up to limit articles of a source crawled at or
// after since, newest first. Used by the freshness sweep.
func (r *ArticleRepository) ListRecentBySource(
	ctx context.Context,
	sourceID string,
	since time.Time,
	limit int,
) ([]domain.Article, error) {
	query := `SELECT ` + articleSelectColumns + ` FROM articles
		WHERE source_id = $1 AND crawled_at >= $2
		ORDER BY crawled_at DESC
		LIMIT $3`

	var articles []domain.Article
	if selectErr := r.db.SelectContext(ctx, &articles, query, sourceID, since, limit); selectErr != nil {
		return nil, fmt.Errorf("list recent articles: %w", selectErr)
	}

	return articles, nil
}
