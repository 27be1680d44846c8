package database

import "github.com/sentineliq/harvester/internal/domain"

// Sentinel errors returned by repositories. Aliased from domain so callers
// can match them without importing this package.
var (
	ErrSourceNotFound  = domain.ErrSourceNotFound
	ErrArticleNotFound = domain.ErrArticleNotFound
)
