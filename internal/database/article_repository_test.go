package database_test

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"

	"github.com/sentineliq/harvester/internal/database"
	"github.com/sentineliq/harvester/internal/domain"
)

// articleColumns lists the columns returned by articles SELECT queries.
var articleColumns = []string{
	"id", "source_id", "url", "title", "author", "published_at",
	"content", "language", "fingerprint", "etag", "last_modified",
	"word_count", "quality_score", "http_status", "crawled_at", "updated_at",
}

const (
	testArticleID  = "9c41d7aa-0000-4000-8000-000000000001"
	testArticleURL = "https://example.com/articles/one"
)

func newArticleRepo(t *testing.T) (*database.ArticleRepository, sqlmock.Sqlmock, func()) {
	t.Helper()

	mockDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("failed to create sqlmock: %v", err)
	}

	db := sqlx.NewDb(mockDB, "postgres")
	repo := database.NewArticleRepository(db)

	return repo, mock, func() { mockDB.Close() }
}

func TestArticle_Create(t *testing.T) {
	repo, mock, cleanup := newArticleRepo(t)
	defer cleanup()

	article := &domain.Article{
		SourceID:     testSourceID,
		URL:          testArticleURL,
		Title:        "A Fresh Article",
		Content:      "body text",
		Language:     "en",
		Fingerprint:  "abc123",
		WordCount:    2,
		QualityScore: 0.6,
		HTTPStatus:   200,
	}

	mock.ExpectExec("INSERT INTO articles").
		WithArgs(sqlmock.AnyArg(), article.SourceID, article.URL, article.Title,
			article.Author, nil, article.Content, article.Language,
			article.Fingerprint, nil, nil, article.WordCount,
			article.QualityScore, article.HTTPStatus).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Create(context.Background(), article); err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if article.ID == "" {
		t.Error("Create() did not assign an ID")
	}

	expectationsMet(t, mock)
}

func TestArticle_GetByURL(t *testing.T) {
	repo, mock, cleanup := newArticleRepo(t)
	defer cleanup()

	now := time.Now()
	etag := `"v1"`

	mock.ExpectQuery("SELECT .+ FROM articles WHERE url").
		WithArgs(testArticleURL).
		WillReturnRows(
			sqlmock.NewRows(articleColumns).AddRow(
				testArticleID, testSourceID, testArticleURL, "A Fresh Article",
				"Pat Writer", nil, "body text", "en", "abc123", etag, nil,
				2, 0.6, 200, now, now,
			),
		)

	article, err := repo.GetByURL(context.Background(), testArticleURL)
	if err != nil {
		t.Fatalf("GetByURL() error = %v", err)
	}
	if article.Title != "A Fresh Article" {
		t.Errorf("expected title, got %q", article.Title)
	}
	if article.ETag == nil || *article.ETag != etag {
		t.Errorf("expected etag %q, got %v", etag, article.ETag)
	}

	expectationsMet(t, mock)
}

func TestArticle_GetByURL_NotFound(t *testing.T) {
	repo, mock, cleanup := newArticleRepo(t)
	defer cleanup()

	mock.ExpectQuery("SELECT .+ FROM articles WHERE url").
		WithArgs(testArticleURL).
		WillReturnRows(sqlmock.NewRows(articleColumns))

	_, err := repo.GetByURL(context.Background(), testArticleURL)
	if !errors.Is(err, database.ErrArticleNotFound) {
		t.Fatalf("GetByURL() error = %v, want ErrArticleNotFound", err)
	}

	expectationsMet(t, mock)
}

func TestArticle_Update(t *testing.T) {
	repo, mock, cleanup := newArticleRepo(t)
	defer cleanup()

	article := &domain.Article{
		ID:           testArticleID,
		Title:        "Revised Title",
		Content:      "revised body",
		Language:     "en",
		Fingerprint:  "def456",
		WordCount:    2,
		QualityScore: 0.7,
		HTTPStatus:   200,
	}

	mock.ExpectExec("UPDATE articles").
		WithArgs(article.ID, article.Title, article.Author, nil,
			article.Content, article.Language, article.Fingerprint, nil, nil,
			article.WordCount, article.QualityScore, article.HTTPStatus).
		WillReturnResult(sqlmock.NewResult(0, 1))

	if err := repo.Update(context.Background(), article); err != nil {
		t.Fatalf("Update() error = %v", err)
	}

	expectationsMet(t, mock)
}

func TestArticle_Update_NotFound(t *testing.T) {
	repo, mock, cleanup := newArticleRepo(t)
	defer cleanup()

	article := &domain.Article{ID: testArticleID}

	mock.ExpectExec("UPDATE articles").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Update(context.Background(), article)
	if !errors.Is(err, database.ErrArticleNotFound) {
		t.Fatalf("Update() error = %v, want ErrArticleNotFound", err)
	}

	expectationsMet(t, mock)
}

func TestArticle_ListRecentBySource(t *testing.T) {
	repo, mock, cleanup := newArticleRepo(t)
	defer cleanup()

	now := time.Now()
	since := now.Add(-7 * 24 * time.Hour)

	mock.ExpectQuery("SELECT .+ FROM articles").
		WithArgs(testSourceID, since, 50).
		WillReturnRows(
			sqlmock.NewRows(articleColumns).AddRow(
				testArticleID, testSourceID, testArticleURL, "A Fresh Article",
				"", nil, "body text", "en", "abc123", nil, nil,
				2, 0.6, 200, now, now,
			),
		)

	articles, err := repo.ListRecentBySource(context.Background(), testSourceID, since, 50)
	if err != nil {
		t.Fatalf("ListRecentBySource() error = %v", err)
	}
	if len(articles) != 1 {
		t.Fatalf("expected 1 article, got %d", len(articles))
	}

	expectationsMet(t, mock)
}
