package search

import (
	"context"
	"fmt"
	"time"

	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	tsclient "github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const collectionName = tsclient.LabTestsCollection

// TypesenseAdapter implements canonical test search using Typesense

type TypesenseAdapter struct {
	client *tsclient.Client
}

// Ensure TypesenseAdapter implements TestSearchRepository

var _ repositories.TestSearchRepository = (*TypesenseAdapter)(nil)

// NewTypesenseAdapter creates a new Typesense adapter

func NewTypesenseAdapter(client *tsclient.Client) *TypesenseAdapter {
	return &TypesenseAdapter{client: client}
}

// InitSchema ensures the collection exists
func (a *TypesenseAdapter) InitSchema(ctx context.Context) error {
	_, err := a.client.Client().Collection(collectionName).Retrieve(ctx)
	if err == nil {
		return nil
	}

	return a.client.InitSchema(ctx)
}

// Index upserts a canonical test document
func (a *TypesenseAdapter) Index(ctx context.Context, doc *repositories.TestSearchDocument) error {
	document := map[string]interface{}{
		"id":               doc.ID,
		"canonical_name":   doc.CanonicalName,
		"code":             doc.Code,
		"category":         doc.Category,
		"aliases":          doc.Aliases,
		"laboratory_count": doc.LaboratoryCount,
		"indexed_at":       doc.IndexedAt.Unix(),
	}
	if doc.MinPrice != nil {
		document["min_price"] = *doc.MinPrice
	}

	if err := a.client.IndexTest(ctx, document); err != nil {
		return fmt.Errorf("failed to index test: %w", err)
	}

	return nil
}

// Delete removes a canonical test from the index
func (a *TypesenseAdapter) Delete(ctx context.Context, id string) error {
	_, err := a.client.Client().Collection(collectionName).Document(id).Delete(ctx)
	if err != nil {
		return fmt.Errorf("failed to delete test from index: %w", err)
	}
	return nil
}

// Search performs a full-text search over indexed tests
func (a *TypesenseAdapter) Search(ctx context.Context, query string, limit int) ([]*repositories.TestSearchDocument, error) {
	searchParams := &api.SearchCollectionParams{
		Q:       pointer.String(query),
		QueryBy: pointer.String("canonical_name,code,aliases"),
		PerPage: pointer.Int(limit),
	}

	result, err := a.client.Client().Collection(collectionName).Documents().Search(ctx, searchParams)
	if err != nil {
		return nil, fmt.Errorf("failed to search tests: %w", err)
	}

	docs := []*repositories.TestSearchDocument{}
	if result.Hits == nil {
		return docs, nil
	}

	for _, hit := range *result.Hits {
		raw := *hit.Document

		doc := &repositories.TestSearchDocument{
			ID:            raw["id"].(string),
			CanonicalName: raw["canonical_name"].(string),
			Code:          raw["code"].(string),
			Category:      raw["category"].(string),
		}

		if aliases, ok := raw["aliases"].([]interface{}); ok {
			for _, alias := range aliases {
				if s, ok := alias.(string); ok {
					doc.Aliases = append(doc.Aliases, s)
				}
			}
		}
		if val, ok := raw["laboratory_count"].(float64); ok {
			doc.LaboratoryCount = int(val)
		}
		if val, ok := raw["min_price"].(float64); ok {
			price := val
			doc.MinPrice = &price
		}
		if val, ok := raw["indexed_at"].(float64); ok {
			doc.IndexedAt = time.Unix(int64(val), 0)
		}

		docs = append(docs, doc)
	}

	return docs, nil
}
