package services

import (
	"context"
	"testing"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	apperrors "github.com/naqi10/lab-price-sub001/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ingestionFixture(active bool) (*CatalogIngestionService, *stubMappingRepo) {
	registry := NewRegistry([]*entities.CanonicalTestDefinition{
		{
			ID:            "glycemie_a_jeun",
			CanonicalName: "Glycémie à jeun",
			Code:          "GLY",
			Aliases:       []string{"Glycémie à jeun", "Glucose"},
		},
		{
			ID:            "tsh",
			CanonicalName: "TSH",
			Code:          "TSH",
			Aliases:       []string{"TSH", "Thyréostimuline"},
		},
	})
	labs := &stubLabRepo{labs: map[string]*entities.Laboratory{
		"lab-a": {ID: "lab-a", Name: "Lab A", IsActive: active},
	}}
	entries := &stubMappingRepo{}
	return NewCatalogIngestionService(registry, labs, entries, 0), entries
}

func TestCatalogIngestion_ExactMatchByCode(t *testing.T) {
	svc, entries := ingestionFixture(true)

	summary, err := svc.Ingest(context.Background(), "lab-a", []entities.RawCatalogRow{
		{Code: "GLY", RawName: "Dosage du glucose sanguin", Price: floatPtr(12.5), TurnaroundHours: intPtr(4)},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ExactMatches)
	assert.Equal(t, 1, summary.EntriesWritten)
	require.Len(t, entries.upserted, 1)

	entry := entries.upserted[0]
	assert.Equal(t, "glycemie_a_jeun", entry.CanonicalTestID)
	assert.Equal(t, entities.MatchTypeExact, entry.MatchType)
	assert.Equal(t, 1.0, entry.Similarity)
	assert.Equal(t, 12.5, *entry.Price)
	assert.NotEmpty(t, entry.ID)
}

func TestCatalogIngestion_ExactMatchByAliasName(t *testing.T) {
	svc, entries := ingestionFixture(true)

	summary, err := svc.Ingest(context.Background(), "lab-a", []entities.RawCatalogRow{
		{Code: "LOCAL-42", RawName: "Thyréostimuline"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.ExactMatches)
	assert.Equal(t, "tsh", entries.upserted[0].CanonicalTestID)
}

func TestCatalogIngestion_FuzzyMatchAboveFloor(t *testing.T) {
	svc, entries := ingestionFixture(true)

	// Close to "Glycémie à jeun" but not an exact alias.
	summary, err := svc.Ingest(context.Background(), "lab-a", []entities.RawCatalogRow{
		{Code: "XX-1", RawName: "Glycemie a jeun (plasma)"},
	})
	require.NoError(t, err)

	assert.Equal(t, 1, summary.FuzzyMatches)
	entry := entries.upserted[0]
	assert.Equal(t, "glycemie_a_jeun", entry.CanonicalTestID)
	assert.Equal(t, entities.MatchTypeFuzzy, entry.MatchType)
	assert.Greater(t, entry.Similarity, 0.5)
	assert.Less(t, entry.Similarity, 1.0)
}

func TestCatalogIngestion_UnresolvedRowStillWritten(t *testing.T) {
	svc, entries := ingestionFixture(true)

	summary, err := svc.Ingest(context.Background(), "lab-a", []entities.RawCatalogRow{
		{Code: "ZZZ", RawName: "Examen totalement inconnu"},
	})
	require.NoError(t, err)

	require.Len(t, summary.Unresolved, 1)
	assert.Equal(t, 1, summary.EntriesWritten)

	entry := entries.upserted[0]
	assert.Equal(t, entities.MatchTypeNone, entry.MatchType)
	assert.Empty(t, entry.CanonicalTestID)
}

func TestCatalogIngestion_InactiveLaboratoryRejected(t *testing.T) {
	svc, entries := ingestionFixture(false)

	_, err := svc.Ingest(context.Background(), "lab-a", []entities.RawCatalogRow{
		{Code: "GLY", RawName: "Glucose"},
	})
	require.Error(t, err)
	assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeValidation))
	assert.Empty(t, entries.upserted)
}

func TestCatalogIngestion_UnknownLaboratory(t *testing.T) {
	svc, _ := ingestionFixture(true)

	_, err := svc.Ingest(context.Background(), "lab-missing", nil)
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestCatalogIngestion_MixedCatalogSummary(t *testing.T) {
	svc, _ := ingestionFixture(true)

	summary, err := svc.Ingest(context.Background(), "lab-a", []entities.RawCatalogRow{
		{Code: "GLY", RawName: "Glucose"},
		{Code: "TSH", RawName: "TSH"},
		{Code: "XX-1", RawName: "Glycemie a jeun (plasma)"},
		{Code: "ZZZ", RawName: "Examen totalement inconnu"},
	})
	require.NoError(t, err)

	assert.Equal(t, 4, summary.RowsProcessed)
	assert.Equal(t, 2, summary.ExactMatches)
	assert.Equal(t, 1, summary.FuzzyMatches)
	assert.Len(t, summary.Unresolved, 1)
	assert.Equal(t, 4, summary.EntriesWritten)
}
