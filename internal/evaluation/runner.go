package evaluation

import (
	"context"
	"time"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
)

// SearchResultProvider is satisfied by the search ranking service.
type SearchResultProvider interface {
	Search(ctx context.Context, query string, filters entities.SearchFilters, limit int) ([]entities.AnnotatedRow, error)
}

// Runner runs evaluation across a set of golden queries.
type Runner struct {
	search     SearchResultProvider
	guardrails *Guardrails
}

func NewRunner(search SearchResultProvider, guardrails *Guardrails) *Runner {
	if guardrails == nil {
		guardrails = NewGuardrails(GuardrailConfig{})
	}
	return &Runner{search: search, guardrails: guardrails}
}

func (r *Runner) Run(ctx context.Context, queries []GoldenQuery) (*EvalSummary, error) {
	summary := &EvalSummary{
		TotalQueries: len(queries),
		ByDifficulty: make(map[string]*DifficultySummary),
	}

	for _, gq := range queries {
		start := time.Now()
		results, err := r.search.Search(ctx, gq.Query, entities.SearchFilters{}, 10)
		duration := time.Since(start)

		if err != nil {
			continue
		}

		retrieved := retrievedTestIDs(results, r.guardrails)

		result := EvalResult{
			QueryID:      gq.ID,
			Query:        gq.Query,
			Difficulty:   gq.Difficulty,
			RecallAt10:   RecallAtK(gq.ExpectedTestIDs, retrieved, 10),
			MRRAt10:      MRRAtK(gq.ExpectedTestIDs, retrieved, 10),
			ResultCount:  len(results),
			RetrievedIDs: retrieved,
			Latency:      duration,
		}

		r.updateSummary(summary, result)
	}

	r.finalizeSummary(summary)
	return summary, nil
}

// retrievedTestIDs collapses ranked rows to distinct canonical test ids in
// rank order. Rows from several laboratories for the same test count once.
func retrievedTestIDs(results []entities.AnnotatedRow, guardrails *Guardrails) []string {
	seen := make(map[string]struct{}, len(results))
	ids := make([]string, 0, len(results))
	for _, row := range results {
		if !guardrails.ShouldCount(row.Score) {
			continue
		}
		id := row.Row.Entry.CanonicalTestID
		if id == "" {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		ids = append(ids, id)
	}
	return ids
}

func (r *Runner) updateSummary(s *EvalSummary, res EvalResult) {
	s.AvgRecallAt10 += res.RecallAt10
	s.AvgMRRAt10 += res.MRRAt10
	s.AvgLatency += res.Latency
	if res.ResultCount > 0 {
		s.QueriesWithHits++
	}

	if _, ok := s.ByDifficulty[res.Difficulty]; !ok {
		s.ByDifficulty[res.Difficulty] = &DifficultySummary{}
	}
	ds := s.ByDifficulty[res.Difficulty]
	ds.Count++
	ds.AvgRecallAt10 += res.RecallAt10
	ds.AvgMRRAt10 += res.MRRAt10
}

func (r *Runner) finalizeSummary(s *EvalSummary) {
	if s.TotalQueries > 0 {
		n := float64(s.TotalQueries)
		s.AvgRecallAt10 /= n
		s.AvgMRRAt10 /= n
		s.AvgLatency /= time.Duration(s.TotalQueries)
	}

	for _, ds := range s.ByDifficulty {
		if ds.Count > 0 {
			n := float64(ds.Count)
			ds.AvgRecallAt10 /= n
			ds.AvgMRRAt10 /= n
		}
	}
}
