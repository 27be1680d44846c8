package domain

import "errors"

// Sentinel errors shared across the persistence and orchestration layers.
var (
	// ErrSourceNotFound indicates the requested source does not exist.
	ErrSourceNotFound = errors.New("source not found")
	// ErrArticleNotFound indicates the requested article does not exist.
	ErrArticleNotFound = errors.New("article not found")
)
