package services

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/providers"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	"github.com/naqi10/lab-price-sub001/pkg/utils"
)

// DefaultFuzzyScoreThreshold is the similarity floor applied to purely fuzzy
// hits. Deterministic matches (exact, prefix, substring, code) bypass it so a
// short code query is never filtered out.
const DefaultFuzzyScoreThreshold = 0.15

// Fixed scores for the deterministic match conditions, combined with the
// trigram similarity via max() so a strong exact hit is never diluted by a
// weak fuzzy one.
const (
	scoreExactName          = 1.00
	scorePrefix             = 0.95
	scoreExactCode          = 0.90
	scoreCanonicalSubstring = 0.88
	scoreSubstring          = 0.85
)

// SearchRankingService scores and orders laboratory-test rows for a
// free-text query. It is read-only over a candidate snapshot and safe to
// invoke concurrently.
type SearchRankingService struct {
	repo      repositories.TestMappingRepository
	synonyms  *SynonymExpansionService
	threshold float64
	cache     providers.CacheProvider
	cacheTTL  int
	analytics *SearchAnalyticsService
}

// NewSearchRankingService creates a ranker. threshold <= 0 selects
// DefaultFuzzyScoreThreshold.
func NewSearchRankingService(repo repositories.TestMappingRepository, synonyms *SynonymExpansionService, threshold float64) *SearchRankingService {
	if threshold <= 0 {
		threshold = DefaultFuzzyScoreThreshold
	}
	return &SearchRankingService{
		repo:      repo,
		synonyms:  synonyms,
		threshold: threshold,
	}
}

// SetCache enables result caching for hot queries.
func (s *SearchRankingService) SetCache(cache providers.CacheProvider, ttlSeconds int) {
	s.cache = cache
	s.cacheTTL = ttlSeconds
}

// SetAnalytics enables background search-event logging.
func (s *SearchRankingService) SetAnalytics(analytics *SearchAnalyticsService) {
	s.analytics = analytics
}

// Search returns annotated rows ordered by score descending, name ascending.
// Queries shorter than two characters return an empty result rather than an
// error, so UI flows degrade gracefully instead of triggering a full fuzzy
// scan.
func (s *SearchRankingService) Search(ctx context.Context, query string, filters entities.SearchFilters, limit int) ([]entities.AnnotatedRow, error) {
	query = strings.TrimSpace(query)
	if len([]rune(query)) < 2 {
		return []entities.AnnotatedRow{}, nil
	}

	started := time.Now()

	cacheKey := s.cacheKey(query, filters, limit)
	if s.cache != nil {
		if data, err := s.cache.Get(ctx, cacheKey); err == nil {
			var cached []entities.AnnotatedRow
			if json.Unmarshal(data, &cached) == nil {
				s.track(query, filters, cached, true, started)
				return cached, nil
			}
		}
	}

	rows, err := s.repo.ListCandidates(ctx, repositories.CandidateFilter{
		LaboratoryID: filters.LaboratoryID,
		Category:     filters.Category,
	})
	if err != nil {
		return nil, err
	}

	terms := []string{query}
	if s.synonyms != nil {
		terms = s.synonyms.Expand(query)
	}

	results := make([]entities.AnnotatedRow, 0, len(rows))
	for _, row := range rows {
		annotated := s.score(row, terms)
		if annotated.Deterministic || annotated.Score >= s.threshold {
			results = append(results, annotated)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		if results[i].Score != results[j].Score {
			return results[i].Score > results[j].Score
		}
		return results[i].Row.DisplayName() < results[j].Row.DisplayName()
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}

	if s.cache != nil {
		if data, err := json.Marshal(results); err == nil {
			_ = s.cache.Set(ctx, cacheKey, data, s.cacheTTL)
		}
	}

	s.track(query, filters, results, false, started)

	return results, nil
}

func (s *SearchRankingService) track(query string, filters entities.SearchFilters, results []entities.AnnotatedRow, cacheHit bool, started time.Time) {
	if s.analytics == nil {
		return
	}

	event := &entities.SearchEvent{
		Query:           query,
		NormalizedQuery: utils.NormalizeAlias(query),
		LaboratoryID:    filters.LaboratoryID,
		Category:        string(filters.Category),
		ResultCount:     len(results),
		CacheHit:        cacheHit,
		LatencyMs:       int(time.Since(started).Milliseconds()),
	}
	if len(results) > 0 {
		event.MatchedTerm = results[0].MatchedTerm
		event.TopScore = results[0].Score
	}
	s.analytics.TrackSearch(event)
}

// score evaluates one row against every search term, keeping the best
// condition hit per term and the best term overall.
func (s *SearchRankingService) score(row *entities.LabTestRow, terms []string) entities.AnnotatedRow {
	annotated := entities.AnnotatedRow{Row: *row, ScoreBreakdown: map[string]float64{}}

	name := utils.NormalizeAlias(row.Entry.LocalTestName)
	canonical := utils.NormalizeAlias(row.CanonicalName)
	localCode := normalizeCode(row.Entry.LocalCode)
	canonicalCode := normalizeCode(row.CanonicalCode)

	record := func(condition string, value float64, term string, deterministic bool) {
		if value <= 0 {
			return
		}
		if value > annotated.ScoreBreakdown[condition] {
			annotated.ScoreBreakdown[condition] = value
		}
		if value > annotated.Score {
			annotated.Score = value
			annotated.MatchedTerm = term
		}
		if deterministic {
			annotated.Deterministic = true
		}
	}

	for _, rawTerm := range terms {
		term := utils.NormalizeAlias(rawTerm)
		if term == "" {
			continue
		}

		switch {
		case name == term:
			record("exact_name", scoreExactName, rawTerm, true)
		case strings.HasPrefix(name, term):
			record("prefix", scorePrefix, rawTerm, true)
		case strings.Contains(name, term):
			record("substring", scoreSubstring, rawTerm, true)
		}

		codeTerm := normalizeCode(rawTerm)
		if codeTerm != "" && (codeTerm == localCode || codeTerm == canonicalCode) {
			record("exact_code", scoreExactCode, rawTerm, true)
		}

		if canonical != "" && strings.Contains(canonical, term) {
			record("canonical_substring", scoreCanonicalSubstring, rawTerm, true)
		}

		record("trigram", utils.TrigramSimilarity(row.Entry.LocalTestName, rawTerm), rawTerm, false)
	}

	return annotated
}

func (s *SearchRankingService) cacheKey(query string, filters entities.SearchFilters, limit int) string {
	return fmt.Sprintf("search:%s:%s:%s:%d",
		utils.NormalizeAlias(query), filters.LaboratoryID, filters.Category, limit)
}
