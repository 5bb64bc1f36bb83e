package main

import (
	"context"
	"os"
	"time"

	"github.com/naqi10/lab-price-sub001/internal/adapters/database"
	"github.com/naqi10/lab-price-sub001/internal/application/services"
	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	"github.com/naqi10/lab-price-sub001/pkg/config"
	"github.com/rs/zerolog/log"
)

func floatPtr(v float64) *float64 { return &v }
func intPtr(v int) *int           { return &v }

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to connect to database")
	}
	defer pgClient.Close()

	ctx := context.Background()

	if os.Getenv("RESET_DB") == "true" {
		log.Info().Msg("RESET_DB=true detected, truncating tables before seeding")
		_, err := pgClient.DB().ExecContext(ctx, `
			TRUNCATE TABLE
				search_events,
				test_mapping_entries,
				canonical_tests,
				laboratories
			RESTART IDENTITY CASCADE
		`)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to reset tables")
		}
	}

	labRepo := database.NewLaboratoryAdapter(pgClient)
	canonicalRepo := database.NewCanonicalTestAdapter(pgClient)
	entryRepo := database.NewTestMappingAdapter(pgClient)

	// 1. Seed laboratories
	laboratories := []entities.Laboratory{
		{ID: "lab-biolam", Name: "Biolam Centre", Code: "BIOLAM", Contact: "contact@biolam.example", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: "lab-cerba", Name: "Cerballiance Nord", Code: "CERBA", Contact: "nord@cerballiance.example", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
		{ID: "lab-synlab", Name: "Synlab Provence", Code: "SYNLAB", Contact: "provence@synlab.example", IsActive: true, CreatedAt: time.Now(), UpdatedAt: time.Now()},
	}

	for i := range laboratories {
		if err := labRepo.Create(ctx, &laboratories[i]); err != nil {
			log.Warn().Str("laboratory", laboratories[i].Name).Err(err).Msg("failed to create laboratory")
		}
	}

	// 2. Build the canonical registry from the sample catalogs
	catalogs := []entities.RawCatalog{
		{
			LaboratoryID: "lab-biolam",
			Rows: []entities.RawCatalogRow{
				{Code: "GLY", RawName: "Glycémie à jeun", Price: floatPtr(12.5), TurnaroundHours: intPtr(24)},
				{Code: "TSH", RawName: "TSH ultra-sensible", Price: floatPtr(18), TurnaroundHours: intPtr(48)},
				{Code: "FER", RawName: "Ferritine", Price: floatPtr(21), TurnaroundHours: intPtr(48)},
				{Code: "BIL-L", RawName: "BILAN LIPIDIQUE COMPLET", Price: floatPtr(35), Category: "profil", TurnaroundHours: intPtr(72)},
			},
		},
		{
			LaboratoryID: "lab-cerba",
			Rows: []entities.RawCatalogRow{
				{Code: "GLU", RawName: "GLYCEMIE A JEUN", Price: floatPtr(11), TurnaroundHours: intPtr(12)},
				{Code: "TSH", RawName: "Thyréostimuline (TSH)", Price: floatPtr(16.5), TurnaroundHours: intPtr(24)},
				{Code: "B12", RawName: "Vitamine B12", Price: floatPtr(24), TurnaroundHours: intPtr(72)},
			},
		},
		{
			LaboratoryID: "lab-synlab",
			Rows: []entities.RawCatalogRow{
				{Code: "GLY", RawName: "Glycemie a jeun", Price: floatPtr(13), TurnaroundHours: intPtr(24)},
				{Code: "FER", RawName: "Ferritine sérique", Price: floatPtr(19.5), TurnaroundHours: intPtr(24)},
				{Code: "NFS", RawName: "Numération formule sanguine", Price: floatPtr(15), TurnaroundHours: intPtr(24)},
			},
		},
	}

	builder := services.NewRegistryBuilderService()
	registry, report := builder.Build(ctx, catalogs)

	log.Info().
		Int("rows_seen", report.RowsSeen).
		Int("definitions", registry.Size()).
		Int("unresolved", len(report.Unresolved)).
		Msg("registry built from sample catalogs")

	if err := canonicalRepo.ReplaceAll(ctx, registry.Definitions()); err != nil {
		log.Fatal().Err(err).Msg("failed to persist canonical registry")
	}

	// 3. Ingest each catalog into mapping entries
	ingestion := services.NewCatalogIngestionService(registry, labRepo, entryRepo, cfg.Engine.FuzzyMappingFloor)
	for _, catalog := range catalogs {
		summary, err := ingestion.Ingest(ctx, catalog.LaboratoryID, catalog.Rows)
		if err != nil {
			log.Fatal().Str("laboratory", catalog.LaboratoryID).Err(err).Msg("failed to ingest catalog")
		}
		log.Info().
			Str("laboratory", catalog.LaboratoryID).
			Int("exact", summary.ExactMatches).
			Int("fuzzy", summary.FuzzyMatches).
			Int("unresolved", len(summary.Unresolved)).
			Msg("catalog ingested")
	}

	log.Info().Msg("seeding completed")
}
