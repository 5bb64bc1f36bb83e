package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/naqi10/lab-price-sub001/internal/adapters/database"
	"github.com/naqi10/lab-price-sub001/internal/application/services"
	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/observability"
	"github.com/naqi10/lab-price-sub001/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	var catalogDir string
	var dryRun bool
	var ingest bool
	flag.StringVar(&catalogDir, "catalogs", "./catalogs", "directory of parsed laboratory catalog JSON files")
	flag.BoolVar(&dryRun, "dry-run", false, "build the registry and report coverage without persisting")
	flag.BoolVar(&ingest, "ingest", false, "also rebuild mapping entries for every catalog after persisting")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger("lab-price-registry", cfg.Environment)

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

	catalogs, err := loadCatalogs(catalogDir)
	if err != nil {
		log.Fatal().Str("dir", catalogDir).Err(err).Msg("failed to load catalogs")
	}
	if len(catalogs) == 0 {
		log.Fatal().Str("dir", catalogDir).Msg("no catalog files found")
	}

	ctx := context.Background()

	builder := services.NewRegistryBuilderService()
	registry, report := builder.Build(ctx, catalogs)

	log.Info().
		Int("rows_seen", report.RowsSeen).
		Int("definitions", report.Definitions).
		Int("merged_aliases", report.MergedAliases).
		Int("renamed", report.Renamed).
		Int("unresolved", len(report.Unresolved)).
		Str("coverage", fmt.Sprintf("%.1f%%", report.Coverage()*100)).
		Msg("registry built")

	for _, row := range report.Unresolved {
		log.Warn().
			Str("laboratory_id", row.LaboratoryID).
			Str("code", row.Row.Code).
			Str("raw_name", row.Row.RawName).
			Str("reason", row.Reason).
			Msg("unresolved catalog row")
	}

	if dryRun {
		log.Info().Msg("dry run, skipping persistence")
		return
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	canonicalRepo := database.NewCanonicalTestAdapter(pgClient)
	if err := canonicalRepo.ReplaceAll(ctx, registry.Definitions()); err != nil {
		log.Fatal().Err(err).Msg("failed to persist registry snapshot")
	}
	log.Info().Int("definitions", registry.Size()).Msg("registry snapshot persisted")

	if !ingest {
		return
	}

	labRepo := database.NewLaboratoryAdapter(pgClient)
	entryRepo := database.NewTestMappingAdapter(pgClient)
	ingestion := services.NewCatalogIngestionService(registry, labRepo, entryRepo, cfg.Engine.FuzzyMappingFloor)

	for _, catalog := range catalogs {
		summary, err := ingestion.Ingest(ctx, catalog.LaboratoryID, catalog.Rows)
		if err != nil {
			log.Error().Str("laboratory_id", catalog.LaboratoryID).Err(err).Msg("catalog ingestion failed")
			continue
		}
		if metrics != nil {
			metrics.ResolveCount.Add(ctx, int64(summary.ExactMatches+summary.FuzzyMatches))
		}
		log.Info().
			Str("laboratory_id", summary.LaboratoryID).
			Int("rows", summary.RowsProcessed).
			Int("exact", summary.ExactMatches).
			Int("fuzzy", summary.FuzzyMatches).
			Int("unresolved", len(summary.Unresolved)).
			Msg("catalog ingested")
	}
}

func loadCatalogs(dir string) ([]entities.RawCatalog, error) {
	fileEntries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}

	names := []string{}
	for _, entry := range fileEntries {
		if entry.IsDir() || !strings.HasSuffix(entry.Name(), ".json") {
			continue
		}
		names = append(names, entry.Name())
	}
	sort.Strings(names)

	catalogs := make([]entities.RawCatalog, 0, len(names))
	for _, name := range names {
		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, err
		}
		var catalog entities.RawCatalog
		if err := json.Unmarshal(data, &catalog); err != nil {
			return nil, fmt.Errorf("parse %s: %w", name, err)
		}
		if catalog.LaboratoryID == "" {
			return nil, fmt.Errorf("catalog %s has no laboratory_id", name)
		}
		catalogs = append(catalogs, catalog)
	}
	return catalogs, nil
}
