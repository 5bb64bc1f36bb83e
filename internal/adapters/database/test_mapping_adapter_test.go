package database

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/naqi10/lab-price-sub001/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupMockAdapter(t *testing.T) (*TestMappingAdapter, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	t.Cleanup(func() { db.Close() })

	adapter := NewTestMappingAdapter(postgres.NewClientFromDB(db)).(*TestMappingAdapter)
	return adapter, mock
}

func TestTestMappingAdapter_Upsert(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectExec(`INSERT INTO "test_mapping_entries"`).
		WillReturnResult(sqlmock.NewResult(0, 1))

	price := 12.5
	err := adapter.Upsert(context.Background(), &entities.TestMappingEntry{
		ID:              "entry-1",
		LaboratoryID:    "lab-a",
		CanonicalTestID: "glycemie_a_jeun",
		LocalTestName:   "Glycémie à jeun",
		LocalCode:       "GLY",
		MatchType:       entities.MatchTypeExact,
		Similarity:      1,
		Price:           &price,
		CreatedAt:       time.Now(),
		UpdatedAt:       time.Now(),
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTestMappingAdapter_GetByLabAndTest_NotFound(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectQuery(`SELECT .+ FROM "test_mapping_entries"`).
		WillReturnError(sql.ErrNoRows)

	_, err := adapter.GetByLabAndTest(context.Background(), "lab-a", "glycemie_a_jeun")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTestMappingAdapter_Delete_NotFound(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	mock.ExpectExec(`DELETE FROM "test_mapping_entries"`).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := adapter.Delete(context.Background(), "entry-missing")
	require.Error(t, err)
	assert.True(t, apperrors.IsNotFound(err))
}

func TestTestMappingAdapter_ListPriceEntries(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	rows := sqlmock.NewRows([]string{
		"canonical_test_id", "canonical_name", "laboratory_id", "laboratory_name", "price", "turnaround_hours",
	}).
		AddRow("glycemie_a_jeun", "Glycémie à jeun", "lab-a", "Alpha", 12.5, 24).
		AddRow("glycemie_a_jeun", "Glycémie à jeun", "lab-b", "Beta", nil, nil)

	mock.ExpectQuery(`SELECT .+ FROM "test_mapping_entries" AS "e" INNER JOIN "laboratories"`).
		WillReturnRows(rows)

	entries, err := adapter.ListPriceEntries(context.Background(), []string{"glycemie_a_jeun"})
	require.NoError(t, err)
	require.Len(t, entries, 2)

	assert.Equal(t, "Alpha", entries[0].LaboratoryName)
	require.NotNil(t, entries[0].Price)
	assert.Equal(t, 12.5, *entries[0].Price)
	require.NotNil(t, entries[0].TurnaroundHours)
	assert.Equal(t, 24, *entries[0].TurnaroundHours)

	assert.Nil(t, entries[1].Price)
	assert.Nil(t, entries[1].TurnaroundHours)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTestMappingAdapter_ListPriceEntries_EmptyInput(t *testing.T) {
	adapter, _ := setupMockAdapter(t)

	entries, err := adapter.ListPriceEntries(context.Background(), nil)
	require.NoError(t, err)
	assert.Empty(t, entries)
}

func TestTestMappingAdapter_ListCandidates_UnmappedRow(t *testing.T) {
	adapter, mock := setupMockAdapter(t)

	now := time.Now()
	rows := sqlmock.NewRows([]string{
		"id", "laboratory_id", "canonical_test_id", "local_test_name", "local_code",
		"match_type", "similarity", "price", "turnaround_hours", "created_at", "updated_at",
		"laboratory_name", "canonical_name", "canonical_code", "category",
	}).
		AddRow("entry-1", "lab-a", "", "Examen maison", "XX-9",
			"NONE", 0.0, nil, nil, now, now,
			"Alpha", nil, nil, nil)

	mock.ExpectQuery(`SELECT .+ FROM "test_mapping_entries" AS "e"`).
		WillReturnRows(rows)

	candidates, err := adapter.ListCandidates(context.Background(), repositories.CandidateFilter{LaboratoryID: "lab-a"})
	require.NoError(t, err)
	require.Len(t, candidates, 1)

	row := candidates[0]
	assert.Equal(t, entities.MatchTypeNone, row.Entry.MatchType)
	assert.Empty(t, row.CanonicalName)
	assert.Equal(t, "Examen maison", row.DisplayName())
	assert.NoError(t, mock.ExpectationsWereMet())
}
