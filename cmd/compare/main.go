package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/naqi10/lab-price-sub001/internal/adapters/cache"
	"github.com/naqi10/lab-price-sub001/internal/adapters/database"
	"github.com/naqi10/lab-price-sub001/internal/application/services"
	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/redis"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/observability"
	"github.com/naqi10/lab-price-sub001/pkg/config"
	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel/attribute"
)

func main() {
	var query string
	var labID string
	var category string
	var limit int
	var tests string
	var objective string
	var choose string
	var custom string
	var bundle float64
	flag.StringVar(&query, "query", "", "search the catalog for a test name or code")
	flag.StringVar(&labID, "lab", "", "restrict search to one laboratory id")
	flag.StringVar(&category, "category", "", "restrict search to a category (profile or individual)")
	flag.IntVar(&limit, "limit", 10, "maximum number of search results")
	flag.StringVar(&tests, "tests", "", "comma-separated canonical test ids to compare")
	flag.StringVar(&objective, "objective", "price", "multi-lab objective: price or turnaround")
	flag.StringVar(&choose, "choose", "", "manual lab choices, e.g. glycemie=lab-a,tsh=lab-b")
	flag.StringVar(&custom, "custom", "", "price overrides, e.g. glycemie-lab_a=12.50")
	flag.Float64Var(&bundle, "bundle", 0, "distribute a negotiated bundle rate over the compared tests")
	flag.Parse()

	cfg, err := config.Load()
	if err != nil {
		log.Fatal().Err(err).Msg("failed to load configuration")
	}

	observability.InitLogger("lab-price-compare", cfg.Environment)

	if query == "" && tests == "" {
		flag.Usage()
		os.Exit(2)
	}

	ctx := context.Background()

	var metrics *observability.Metrics
	if cfg.OTEL.Enabled {
		shutdown, err := observability.Setup(ctx, cfg.OTEL.ServiceName, cfg.OTEL.ServiceVersion, cfg.OTEL.Endpoint)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize OpenTelemetry")
		}
		defer shutdown(context.Background())

		metrics, err = observability.InitMetrics()
		if err != nil {
			log.Fatal().Err(err).Msg("failed to initialize metrics")
		}
	}

	pgClient, err := postgres.NewClient(&cfg.Database)
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize PostgreSQL client")
	}
	defer pgClient.Close()

	entryRepo := database.NewTestMappingAdapter(pgClient)

	if query != "" {
		runSearch(ctx, cfg, metrics, pgClient, entryRepo, query, labID, category, limit)
		return
	}

	runCompare(ctx, metrics, entryRepo, tests, objective, choose, custom, bundle)
}

func runSearch(ctx context.Context, cfg *config.Config, metrics *observability.Metrics, pgClient *postgres.Client, entryRepo repositories.TestMappingRepository, query, labID, category string, limit int) {
	synonyms := services.NewSynonymExpansionService(services.DefaultSynonymRules())
	if cfg.Engine.SynonymConfigPath != "" {
		loaded, err := services.NewSynonymExpansionServiceFromFile(cfg.Engine.SynonymConfigPath)
		if err != nil {
			log.Fatal().Str("path", cfg.Engine.SynonymConfigPath).Err(err).Msg("failed to load synonym rules")
		}
		synonyms = loaded
	}

	ranker := services.NewSearchRankingService(entryRepo, synonyms, cfg.Engine.FuzzyScoreThreshold)

	analytics := services.NewSearchAnalyticsService(database.NewSearchAnalyticsAdapter(pgClient))
	ranker.SetAnalytics(analytics)
	defer analytics.Flush()

	if redisClient, err := redis.NewClient(&cfg.Redis); err != nil {
		log.Warn().Err(err).Msg("Redis unavailable, searching without cache")
	} else {
		defer redisClient.Close()
		cacheAdapter := cache.NewRedisAdapter(redisClient)
		cacheAdapter.SetMetrics(metrics)
		ranker.SetCache(cacheAdapter, cfg.Engine.SearchCacheTTLSeconds)
	}

	filters := entities.SearchFilters{LaboratoryID: labID}
	if category != "" {
		filters.Category = entities.ParseTestCategory(category)
	}

	ctx, span := observability.StartSpan(ctx, "catalog.search")
	defer span.End()

	started := time.Now()
	rows, err := ranker.Search(ctx, query, filters, limit)
	if err != nil {
		observability.RecordError(span, err)
		log.Fatal().Err(err).Msg("search failed")
	}
	if metrics != nil {
		observability.RecordSearchMetric(ctx, metrics, query, len(rows), time.Since(started))
	}

	if len(rows) == 0 {
		fmt.Println("no results")
		return
	}

	for _, row := range rows {
		price := "-"
		if row.Row.Entry.HasPrice() {
			price = services.FormatPrice(*row.Row.Entry.Price)
		}
		fmt.Printf("%.2f  %-40s  %-20s  %s\n", row.Score, row.Row.DisplayName(), row.Row.LaboratoryName, price)
	}
}

func runCompare(ctx context.Context, metrics *observability.Metrics, entryRepo repositories.TestMappingRepository, tests, objective, choose, custom string, bundle float64) {
	req := entities.ComparisonRequest{
		CanonicalTestIDs: splitList(tests),
		Objective:        entities.ComparisonObjective(objective),
		PerTestLabChoice: parsePairs(choose),
	}

	if custom != "" {
		req.CustomPricesWire = map[string]float64{}
		for key, value := range parsePairs(custom) {
			price, err := strconv.ParseFloat(value, 64)
			if err != nil {
				log.Fatal().Str("override", key).Msg("invalid price override")
			}
			req.CustomPricesWire[key] = price
		}
	}

	comparator := services.NewComparisonService(entryRepo)

	if bundle > 0 {
		entries, err := entryRepo.ListPriceEntries(ctx, req.CanonicalTestIDs)
		if err != nil {
			log.Fatal().Err(err).Msg("failed to load price entries")
		}
		originals := map[entities.PriceKey]float64{}
		for _, entry := range entries {
			if entry.Price != nil {
				originals[entities.PriceKey{TestID: entry.CanonicalTestID, LaboratoryID: entry.LaboratoryID}] = *entry.Price
			}
		}
		pricing := services.NewBundlePricingService()
		req.CustomPrices = pricing.Distribute(bundle, req.CanonicalTestIDs, originals)
	}

	ctx, span := observability.StartSpan(ctx, "catalog.compare")
	defer span.End()
	observability.SetSpanAttributes(span, attribute.Int("comparison.test_count", len(req.CanonicalTestIDs)))

	result, err := comparator.Compare(ctx, req)
	if err != nil {
		observability.RecordError(span, err)
		log.Fatal().Err(err).Msg("comparison failed")
	}
	if metrics != nil {
		metrics.ComparisonCount.Add(ctx, 1)
	}

	for _, lab := range result.Laboratories {
		marks := []string{}
		if lab.IsCheapest {
			marks = append(marks, "cheapest")
		}
		if lab.IsFastest {
			marks = append(marks, "fastest")
		}
		if !lab.IsComplete {
			marks = append(marks, fmt.Sprintf("missing %d", len(lab.MissingTestIDs)))
		}
		suffix := ""
		if len(marks) > 0 {
			suffix = " [" + strings.Join(marks, ", ") + "]"
		}
		fmt.Printf("%-30s %10s%s\n", lab.LaboratoryName, services.FormatPrice(lab.TotalPrice), suffix)
	}

	if result.MultiLab != nil {
		fmt.Printf("\noptimized split (%s): %s\n", objective, services.FormatPrice(result.MultiLab.TotalPrice))
		for _, assignment := range result.MultiLab.Assignments {
			fmt.Printf("  %-30s -> %-20s %10s\n", assignment.TestID, assignment.LaboratoryName, services.FormatPrice(assignment.Price))
		}
	}
}

func splitList(raw string) []string {
	parts := strings.Split(raw, ",")
	out := []string{}
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}

func parsePairs(raw string) map[string]string {
	if strings.TrimSpace(raw) == "" {
		return nil
	}
	out := map[string]string{}
	for _, pair := range strings.Split(raw, ",") {
		key, value, ok := strings.Cut(strings.TrimSpace(pair), "=")
		if !ok || key == "" || value == "" {
			continue
		}
		out[key] = value
	}
	return out
}
