package main

import (
	"context"
	"flag"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/naqi10/lab-price-sub001/internal/adapters/database"
	"github.com/naqi10/lab-price-sub001/internal/adapters/search"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/typesense"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/observability"
	"github.com/naqi10/lab-price-sub001/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	var reset bool
	var intervalFlag string
	flag.BoolVar(&reset, "reset", false, "delete existing Typesense collection before reindexing")
	flag.StringVar(&intervalFlag, "interval", "", "repeat interval for reindexing (e.g. 6h, 30m)")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger("lab-price-indexer", cfg.Environment)

	var metrics *observability.Metrics
	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(context.Background(), cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize OpenTelemetry")
		}
		defer shutdown(context.Background())

		metrics, err = observability.InitMetrics()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize metrics")
		}
	}

	intervalValue := strings.TrimSpace(intervalFlag)
	if intervalValue == "" {
		intervalValue = strings.TrimSpace(os.Getenv("REINDEX_INTERVAL"))
	}

	var interval time.Duration
	if intervalValue != "" {
		interval, err = time.ParseDuration(intervalValue)
		if err != nil {
			log.Fatal().Str("interval", intervalValue).Err(err).Msg("invalid interval")
		}
		if interval <= 0 {
			log.Fatal().Msg("interval must be greater than zero")
		}
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	for {
		if err := indexOnce(ctx, cfg, metrics, reset); err != nil {
			log.Error().Err(err).Msg("reindex failed")
		}

		if interval <= 0 {
			break
		}

		reset = false
		log.Info().Dur("next_run_in", interval).Msg("reindex complete")

		select {
		case <-ctx.Done():
			log.Info().Msg("reindexer shutting down")
			return
		case <-time.After(interval):
		}
	}
}

func indexOnce(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, reset bool) error {
	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		return err
	}
	defer pgClient.Close()

	canonicalRepo := database.NewCanonicalTestAdapter(pgClient)
	entryRepo := database.NewTestMappingAdapter(pgClient)

	tsClient, err := typesense.NewClient(&cfg.Typesense)
	if err != nil {
		return err
	}
	searchAdapter := search.NewTypesenseAdapter(tsClient)

	if reset || os.Getenv("RESET_TYPESENSE") == "true" {
		log.Info().Str("collection", typesense.LabTestsCollection).Msg("deleting collection before reindex")
		if _, err := tsClient.Client().Collection(typesense.LabTestsCollection).Delete(ctx); err != nil {
			log.Warn().Err(err).Msg("failed to delete collection")
		}
	}

	if err := searchAdapter.InitSchema(ctx); err != nil {
		return err
	}

	listStarted := time.Now()
	defs, err := canonicalRepo.ListAll(ctx)
	if err != nil {
		return err
	}
	if metrics != nil {
		observability.RecordDBMetric(ctx, metrics, "canonical_tests.list_all", time.Since(listStarted))
	}

	ids := make([]string, 0, len(defs))
	for _, def := range defs {
		ids = append(ids, def.ID)
	}

	entriesStarted := time.Now()
	entries, err := entryRepo.ListPriceEntries(ctx, ids)
	if err != nil {
		return err
	}
	if metrics != nil {
		observability.RecordDBMetric(ctx, metrics, "test_mapping_entries.list_prices", time.Since(entriesStarted))
	}

	type priceStats struct {
		labs     map[string]struct{}
		minPrice *float64
	}
	statsByTest := map[string]*priceStats{}
	for _, entry := range entries {
		stats, ok := statsByTest[entry.CanonicalTestID]
		if !ok {
			stats = &priceStats{labs: map[string]struct{}{}}
			statsByTest[entry.CanonicalTestID] = stats
		}
		stats.labs[entry.LaboratoryID] = struct{}{}
		if entry.Price != nil && (stats.minPrice == nil || *entry.Price < *stats.minPrice) {
			price := *entry.Price
			stats.minPrice = &price
		}
	}

	log.Info().Int("tests", len(defs)).Msg("indexing canonical tests")

	now := time.Now()
	indexed := 0
	for _, def := range defs {
		doc := &repositories.TestSearchDocument{
			ID:            def.ID,
			CanonicalName: def.CanonicalName,
			Code:          def.Code,
			Category:      string(def.Category),
			Aliases:       def.Aliases,
			IndexedAt:     now,
		}
		if stats, ok := statsByTest[def.ID]; ok {
			doc.LaboratoryCount = len(stats.labs)
			doc.MinPrice = stats.minPrice
		}

		if err := searchAdapter.Index(ctx, doc); err != nil {
			log.Error().Str("test_id", def.ID).Err(err).Msg("failed to index test")
			continue
		}
		indexed++
	}

	log.Info().Int("indexed", indexed).Msg("indexing complete")
	return nil
}
