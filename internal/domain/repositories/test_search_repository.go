package repositories

import (
	"context"
	"time"
)

// TestSearchDocument is the indexed projection of a canonical test
type TestSearchDocument struct {
	ID              string
	CanonicalName   string
	Code            string
	Category        string
	Aliases         []string
	LaboratoryCount int
	MinPrice        *float64
	IndexedAt       time.Time
}

// TestSearchRepository defines the interface for the external search index
type TestSearchRepository interface {
	// InitSchema ensures the index exists
	InitSchema(ctx context.Context) error

	// Index upserts a canonical test document
	Index(ctx context.Context, doc *TestSearchDocument) error

	// Delete removes a canonical test from the index
	Delete(ctx context.Context, id string) error

	// Search performs a full-text search over indexed tests
	Search(ctx context.Context, query string, limit int) ([]*TestSearchDocument, error)
}
