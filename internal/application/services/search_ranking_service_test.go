package services

import (
	"context"
	"errors"
	"testing"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func candidateRow(labName, localName, localCode, canonicalName, canonicalCode string) *entities.LabTestRow {
	return &entities.LabTestRow{
		Entry: entities.TestMappingEntry{
			ID:            localCode + "-" + labName,
			LaboratoryID:  labName,
			LocalTestName: localName,
			LocalCode:     localCode,
			MatchType:     entities.MatchTypeExact,
			Similarity:    1,
		},
		LaboratoryName: labName,
		CanonicalName:  canonicalName,
		CanonicalCode:  canonicalCode,
		Category:       entities.CategoryIndividual,
	}
}

func searchFixtureRepo() *stubMappingRepo {
	return &stubMappingRepo{candidates: []*entities.LabTestRow{
		candidateRow("lab-a", "Glycémie à jeun", "GLY", "Glycémie à jeun", "GLY"),
		candidateRow("lab-b", "GLYCEMIE A JEUN", "GLU", "Glycémie à jeun", "GLY"),
		candidateRow("lab-a", "TSH ultra-sensible", "TSH", "TSH", "TSH"),
		candidateRow("lab-a", "Ferritine", "FER", "Ferritine", "FER"),
	}}
}

func TestSearchRanking_ShortQueryReturnsEmpty(t *testing.T) {
	repo := searchFixtureRepo()
	svc := NewSearchRankingService(repo, nil, 0)

	results, err := svc.Search(context.Background(), "g", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)

	results, err = svc.Search(context.Background(), "  t  ", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRanking_ExactNameScoresOne(t *testing.T) {
	svc := NewSearchRankingService(searchFixtureRepo(), nil, 0)

	results, err := svc.Search(context.Background(), "glycémie à jeun", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	assert.Equal(t, 1.0, results[0].Score)
	assert.True(t, results[0].Deterministic)
	assert.Equal(t, 1.0, results[0].ScoreBreakdown["exact_name"])
}

func TestSearchRanking_AccentInsensitive(t *testing.T) {
	svc := NewSearchRankingService(searchFixtureRepo(), nil, 0)

	accented, err := svc.Search(context.Background(), "glycémie", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	plain, err := svc.Search(context.Background(), "glycemie", entities.SearchFilters{}, 10)
	require.NoError(t, err)

	require.Equal(t, len(accented), len(plain))
	for i := range accented {
		assert.Equal(t, accented[i].Row.Entry.ID, plain[i].Row.Entry.ID)
		assert.Equal(t, accented[i].Score, plain[i].Score)
	}
}

func TestSearchRanking_CodeMatchBypassesThreshold(t *testing.T) {
	// A two-letter-ish code has almost no trigram overlap with anything, but a
	// code equality hit is deterministic and must survive the fuzzy floor.
	svc := NewSearchRankingService(searchFixtureRepo(), nil, 0.9)

	results, err := svc.Search(context.Background(), "FER", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	require.NotEmpty(t, results)
	found := false
	for _, r := range results {
		if r.Row.Entry.LocalCode == "FER" {
			found = true
			assert.True(t, r.Deterministic)
			assert.GreaterOrEqual(t, r.Score, 0.90)
		}
	}
	assert.True(t, found)
}

func TestSearchRanking_PrefixOutranksSubstring(t *testing.T) {
	repo := &stubMappingRepo{candidates: []*entities.LabTestRow{
		candidateRow("lab-a", "TSH ultra-sensible", "T1", "", ""),
		candidateRow("lab-a", "Bilan TSH complet", "T2", "", ""),
	}}
	svc := NewSearchRankingService(repo, nil, 0)

	results, err := svc.Search(context.Background(), "tsh", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "T1", results[0].Row.Entry.LocalCode)
	assert.Equal(t, "T2", results[1].Row.Entry.LocalCode)
	assert.Greater(t, results[0].Score, results[1].Score)
}

func TestSearchRanking_SynonymFindsCanonicalSpelling(t *testing.T) {
	repo := &stubMappingRepo{candidates: []*entities.LabTestRow{
		candidateRow("lab-a", "Vitamine B12 (cobalamine)", "B12", "Vitamine B12", "B12"),
	}}
	svc := NewSearchRankingService(repo, NewSynonymExpansionService(DefaultSynonymRules()), 0)

	results, err := svc.Search(context.Background(), "cobalamine", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Deterministic)
}

func TestSearchRanking_BelowThresholdFiltered(t *testing.T) {
	svc := NewSearchRankingService(searchFixtureRepo(), nil, 0)

	results, err := svc.Search(context.Background(), "zz", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Empty(t, results)
}

func TestSearchRanking_TieBreakByDisplayName(t *testing.T) {
	repo := &stubMappingRepo{candidates: []*entities.LabTestRow{
		candidateRow("lab-a", "Calcium", "CA1", "Calcium B", ""),
		candidateRow("lab-a", "Calcium", "CA2", "Calcium A", ""),
	}}
	svc := NewSearchRankingService(repo, nil, 0)

	results, err := svc.Search(context.Background(), "calcium", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, "Calcium A", results[0].Row.DisplayName())
	assert.Equal(t, "Calcium B", results[1].Row.DisplayName())
}

func TestSearchRanking_LimitApplied(t *testing.T) {
	svc := NewSearchRankingService(searchFixtureRepo(), nil, 0)

	results, err := svc.Search(context.Background(), "glycémie", entities.SearchFilters{}, 1)
	require.NoError(t, err)
	assert.Len(t, results, 1)
}

func TestSearchRanking_FiltersForwardedToRepository(t *testing.T) {
	repo := searchFixtureRepo()
	svc := NewSearchRankingService(repo, nil, 0)

	filters := entities.SearchFilters{LaboratoryID: "lab-a", Category: entities.CategoryIndividual}
	_, err := svc.Search(context.Background(), "tsh", filters, 10)
	require.NoError(t, err)
	assert.Equal(t, "lab-a", repo.lastCandidateFilter.LaboratoryID)
	assert.Equal(t, entities.CategoryIndividual, repo.lastCandidateFilter.Category)
}

func TestSearchRanking_RepositoryErrorPropagates(t *testing.T) {
	repo := &stubMappingRepo{listErr: errors.New("connection refused")}
	svc := NewSearchRankingService(repo, nil, 0)

	_, err := svc.Search(context.Background(), "tsh", entities.SearchFilters{}, 10)
	assert.Error(t, err)
}

type memoryCache struct {
	data map[string][]byte
	gets int
	sets int
}

func newMemoryCache() *memoryCache {
	return &memoryCache{data: map[string][]byte{}}
}

func (c *memoryCache) Get(_ context.Context, key string) ([]byte, error) {
	c.gets++
	if data, ok := c.data[key]; ok {
		return data, nil
	}
	return nil, errors.New("miss")
}

func (c *memoryCache) Set(_ context.Context, key string, value []byte, _ int) error {
	c.sets++
	c.data[key] = value
	return nil
}

func (c *memoryCache) Delete(_ context.Context, key string) error {
	delete(c.data, key)
	return nil
}

func (c *memoryCache) Exists(_ context.Context, key string) (bool, error) {
	_, ok := c.data[key]
	return ok, nil
}

func TestSearchRanking_CachesResults(t *testing.T) {
	repo := searchFixtureRepo()
	svc := NewSearchRankingService(repo, nil, 0)
	cache := newMemoryCache()
	svc.SetCache(cache, 300)

	first, err := svc.Search(context.Background(), "tsh", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	assert.Equal(t, 1, cache.sets)

	// Second identical query is served from the cache; the repository would
	// now return nothing.
	repo.candidates = nil
	second, err := svc.Search(context.Background(), "tsh", entities.SearchFilters{}, 10)
	require.NoError(t, err)
	require.Equal(t, len(first), len(second))
	for i := range first {
		assert.Equal(t, first[i].Row.Entry.ID, second[i].Row.Entry.ID)
	}
}
