package typesense

import (
	"context"
	"fmt"
	"time"

	"github.com/naqi10/lab-price-sub001/pkg/config"
	"github.com/naqi10/lab-price-sub001/pkg/retry"
	"github.com/rs/zerolog/log"
	"github.com/typesense/typesense-go/v2/typesense"
	"github.com/typesense/typesense-go/v2/typesense/api"
	"github.com/typesense/typesense-go/v2/typesense/api/pointer"
)

const (
	LabTestsCollection = "lab_tests"
)

// Client represents a Typesense client
type Client struct {
	client *typesense.Client
}

// NewClient creates a new Typesense client with exponential backoff retry
func NewClient(cfg *config.TypesenseConfig) (*Client, error) {
	client := typesense.NewClient(
		typesense.WithServer(cfg.URL),
		typesense.WithAPIKey(cfg.APIKey),
		typesense.WithConnectionTimeout(5*time.Second),
	)

	logger := log.With().Str("component", "typesense").Logger()
	err := retry.DoWithLog(context.Background(), retry.DefaultConfig(), "Typesense", &logger, func() error {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		_, err := client.Health(ctx, 2*time.Second)
		return err
	})
	if err != nil {
		return nil, fmt.Errorf("failed to connect to Typesense after retries: %w", err)
	}

	logger.Info().Msg("connected to Typesense")
	return &Client{client: client}, nil
}

// Client returns the underlying Typesense client
func (c *Client) Client() *typesense.Client {
	return c.client
}

// InitSchema ensures the lab_tests collection exists
func (c *Client) InitSchema(ctx context.Context) error {
	collections, err := c.client.Collections().Retrieve(ctx)
	if err != nil {
		return fmt.Errorf("failed to retrieve collections: %w", err)
	}

	for _, col := range collections {
		if col.Name == LabTestsCollection {
			log.Info().Str("collection", LabTestsCollection).Msg("Typesense collection already exists")
			return nil
		}
	}

	schema := &api.CollectionSchema{
		Name: LabTestsCollection,
		Fields: []api.Field{
			{
				Name: "id",
				Type: "string",
			},
			{
				Name: "canonical_name",
				Type: "string",
			},
			{
				Name: "code",
				Type: "string",
			},
			{
				Name:  "category",
				Type:  "string",
				Facet: pointer.True(),
			},
			{
				Name:     "aliases",
				Type:     "string[]",
				Optional: pointer.True(),
			},
			{
				Name: "laboratory_count",
				Type: "int32",
			},
			{
				Name:     "min_price",
				Type:     "float",
				Facet:    pointer.True(),
				Optional: pointer.True(),
			},
			{
				Name: "indexed_at",
				Type: "int64",
			},
		},
		DefaultSortingField: pointer.String("indexed_at"),
	}

	_, err = c.client.Collections().Create(ctx, schema)
	if err != nil {
		return fmt.Errorf("failed to create collection: %w", err)
	}

	log.Info().Str("collection", LabTestsCollection).Msg("created Typesense collection")
	return nil
}

// IndexTest indexes a canonical test document
func (c *Client) IndexTest(ctx context.Context, document map[string]interface{}) error {
	_, err := c.client.Collection(LabTestsCollection).Documents().Upsert(ctx, document)
	return err
}
