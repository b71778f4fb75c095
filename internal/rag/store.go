package rag

import (
	"context"

	"document-chat/internal/models"
)

// Store is a persistent similarity index over segments.
type Store interface {
	// Add writes segments. Colliding ids fail with models.ErrStoreWrite.
	Add(ctx context.Context, segments []models.Segment) error
	// Query returns up to k segments, most similar first. An empty store
	// yields an empty result and no error.
	Query(ctx context.Context, text string, k int) (models.RetrievalResult, error)
	Count(ctx context.Context) (int, error)
	Reset(ctx context.Context) error
}
