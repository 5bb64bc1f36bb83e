package main

import (
	"context"
	"encoding/json"
	"flag"
	"fmt"

	"github.com/naqi10/lab-price-sub001/internal/adapters/database"
	"github.com/naqi10/lab-price-sub001/internal/application/services"
	"github.com/naqi10/lab-price-sub001/internal/evaluation"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/observability"
	"github.com/naqi10/lab-price-sub001/pkg/config"
	"github.com/rs/zerolog/log"
)

func main() {
	var goldenPath string
	var minScore float64
	flag.StringVar(&goldenPath, "golden", "./config/golden_queries.json", "path to the golden query set")
	flag.Float64Var(&minScore, "min-score", 0, "score floor below which a hit does not count")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger("lab-price-evaluate", cfg.Environment)

	queries, err := evaluation.LoadGoldenQueries(goldenPath)
	if err != nil {
		log.Fatal().Str("path", goldenPath).Err(err).Msg("failed to load golden queries")
	}
	if err := evaluation.ValidateGoldenQueries(queries); err != nil {
		log.Fatal().Err(err).Msg("golden query set is invalid")
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	entryRepo := database.NewTestMappingAdapter(pgClient)

	synonyms := services.NewSynonymExpansionService(services.DefaultSynonymRules())
	if cfg.Engine.SynonymConfigPath != "" {
		loaded, err := services.NewSynonymExpansionServiceFromFile(cfg.Engine.SynonymConfigPath)
		if err != nil {
			log.Fatal().Str("path", cfg.Engine.SynonymConfigPath).Err(err).Msg("failed to load synonym rules")
		}
		synonyms = loaded
	}

	ranker := services.NewSearchRankingService(entryRepo, synonyms, cfg.Engine.FuzzyScoreThreshold)

	guardrails := evaluation.NewGuardrails(evaluation.GuardrailConfig{MinScore: minScore})
	runner := evaluation.NewRunner(ranker, guardrails)

	summary, err := runner.Run(context.Background(), queries)
	if err != nil {
		log.Fatal().Err(err).Msg("evaluation failed")
	}

	out, _ := json.MarshalIndent(summary, "", "  ")
	fmt.Println(string(out))
}
