package database

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/doug-martin/goqu/v9"
	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	"github.com/naqi10/lab-price-sub001/internal/infrastructure/clients/postgres"
	apperrors "github.com/naqi10/lab-price-sub001/pkg/errors"
)

// TestMappingAdapter implements TestMappingRepository
type TestMappingAdapter struct {
	client *postgres.Client
	db     *goqu.Database
}

// NewTestMappingAdapter creates a new test mapping adapter
func NewTestMappingAdapter(client *postgres.Client) repositories.TestMappingRepository {
	return &TestMappingAdapter{
		client: client,
		db:     goqu.New("postgres", client.DB()),
	}
}

// Upsert inserts a mapping entry, replacing any existing entry for the same
// (laboratory, canonical test) pair so the one-entry-per-pair invariant
// holds. Entries without a canonical test (MatchTypeNone) key on the local
// code instead.
func (a *TestMappingAdapter) Upsert(ctx context.Context, entry *entities.TestMappingEntry) error {
	record := goqu.Record{
		"id":                entry.ID,
		"laboratory_id":     entry.LaboratoryID,
		"canonical_test_id": sql.NullString{String: entry.CanonicalTestID, Valid: entry.CanonicalTestID != ""},
		"local_test_name":   entry.LocalTestName,
		"local_code":        entry.LocalCode,
		"match_type":        string(entry.MatchType),
		"similarity":        entry.Similarity,
		"price":             nullFloat(entry.Price),
		"turnaround_hours":  nullInt(entry.TurnaroundHours),
		"created_at":        entry.CreatedAt,
		"updated_at":        entry.UpdatedAt,
	}

	query, args, err := a.db.Insert("test_mapping_entries").
		Rows(record).
		OnConflict(goqu.DoUpdate("laboratory_id, canonical_test_id, local_code", goqu.Record{
			"local_test_name":  entry.LocalTestName,
			"match_type":       string(entry.MatchType),
			"similarity":       entry.Similarity,
			"price":            nullFloat(entry.Price),
			"turnaround_hours": nullInt(entry.TurnaroundHours),
			"updated_at":       entry.UpdatedAt,
		})).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build upsert query", err)
	}

	_, err = a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to upsert mapping entry", err)
	}

	return nil
}

// GetByLabAndTest retrieves the entry for a (laboratory, canonical test) pair
func (a *TestMappingAdapter) GetByLabAndTest(ctx context.Context, laboratoryID, canonicalTestID string) (*entities.TestMappingEntry, error) {
	query, args, err := a.entryDataset().
		Where(goqu.Ex{
			"laboratory_id":     laboratoryID,
			"canonical_test_id": canonicalTestID,
		}).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build query", err)
	}

	entry, err := a.scanEntryRow(a.client.DB().QueryRowContext(ctx, query, args...))
	if err == sql.ErrNoRows {
		return nil, apperrors.NewNotFoundError("mapping entry not found")
	}
	if err != nil {
		return nil, apperrors.NewInternalError("failed to get mapping entry", err)
	}

	return entry, nil
}

// ListByLaboratory retrieves all entries for one laboratory
func (a *TestMappingAdapter) ListByLaboratory(ctx context.Context, laboratoryID string) ([]*entities.TestMappingEntry, error) {
	query, args, err := a.entryDataset().
		Where(goqu.Ex{"laboratory_id": laboratoryID}).
		Order(goqu.I("local_test_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build list query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list mapping entries", err)
	}
	defer rows.Close()

	var entries []*entities.TestMappingEntry
	for rows.Next() {
		entry, err := a.scanEntryRow(rows)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan mapping entry", err)
		}
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating mapping entries", err)
	}

	return entries, nil
}

// Delete removes a mapping entry
func (a *TestMappingAdapter) Delete(ctx context.Context, id string) error {
	query, args, err := a.db.Delete("test_mapping_entries").
		Where(goqu.Ex{"id": id}).
		ToSQL()
	if err != nil {
		return apperrors.NewInternalError("failed to build delete query", err)
	}

	result, err := a.client.DB().ExecContext(ctx, query, args...)
	if err != nil {
		return apperrors.NewInternalError("failed to delete mapping entry", err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return apperrors.NewInternalError("failed to get rows affected", err)
	}

	if rowsAffected == 0 {
		return apperrors.NewNotFoundError(fmt.Sprintf("mapping entry with id %s not found", id))
	}

	return nil
}

// ListCandidates returns entries of active laboratories joined with their
// canonical tests, the rows the search ranker scores. Unmapped entries are
// included so curators can find them too.
func (a *TestMappingAdapter) ListCandidates(ctx context.Context, filter repositories.CandidateFilter) ([]*entities.LabTestRow, error) {
	ds := a.db.Select(
		goqu.I("e.id"), goqu.I("e.laboratory_id"),
		goqu.COALESCE(goqu.I("e.canonical_test_id"), goqu.V("")).As("canonical_test_id"),
		goqu.I("e.local_test_name"), goqu.I("e.local_code"),
		goqu.I("e.match_type"), goqu.I("e.similarity"),
		goqu.I("e.price"), goqu.I("e.turnaround_hours"),
		goqu.I("e.created_at"), goqu.I("e.updated_at"),
		goqu.I("l.name").As("laboratory_name"),
		goqu.I("c.canonical_name"), goqu.I("c.code").As("canonical_code"),
		goqu.I("c.category"),
	).
		From(goqu.T("test_mapping_entries").As("e")).
		Join(goqu.T("laboratories").As("l"), goqu.On(goqu.I("e.laboratory_id").Eq(goqu.I("l.id")))).
		LeftJoin(goqu.T("canonical_tests").As("c"), goqu.On(goqu.I("e.canonical_test_id").Eq(goqu.I("c.id")))).
		Where(goqu.I("l.is_active").Eq(true))

	if filter.LaboratoryID != "" {
		ds = ds.Where(goqu.I("e.laboratory_id").Eq(filter.LaboratoryID))
	}
	if filter.Category != "" {
		ds = ds.Where(goqu.I("c.category").Eq(string(filter.Category)))
	}

	ds = ds.Order(goqu.I("e.local_test_name").Asc())
	if filter.Limit > 0 {
		ds = ds.Limit(uint(filter.Limit))
	}

	query, args, err := ds.ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build candidates query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list candidates", err)
	}
	defer rows.Close()

	var candidates []*entities.LabTestRow
	for rows.Next() {
		row := &entities.LabTestRow{}
		var canonicalTestID sql.NullString
		var canonicalName, canonicalCode, category sql.NullString
		var price sql.NullFloat64
		var turnaround sql.NullInt64

		err := rows.Scan(
			&row.Entry.ID,
			&row.Entry.LaboratoryID,
			&canonicalTestID,
			&row.Entry.LocalTestName,
			&row.Entry.LocalCode,
			&row.Entry.MatchType,
			&row.Entry.Similarity,
			&price,
			&turnaround,
			&row.Entry.CreatedAt,
			&row.Entry.UpdatedAt,
			&row.LaboratoryName,
			&canonicalName,
			&canonicalCode,
			&category,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan candidate row", err)
		}

		row.Entry.CanonicalTestID = canonicalTestID.String
		row.Entry.Price = floatPtr(price)
		row.Entry.TurnaroundHours = intPtr(turnaround)
		row.CanonicalName = canonicalName.String
		row.CanonicalCode = canonicalCode.String
		row.Category = entities.TestCategory(category.String)

		candidates = append(candidates, row)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating candidate rows", err)
	}

	return candidates, nil
}

// ListPriceEntries returns the price read model for the requested canonical
// tests across active laboratories.
func (a *TestMappingAdapter) ListPriceEntries(ctx context.Context, canonicalTestIDs []string) ([]*entities.PriceEntry, error) {
	if len(canonicalTestIDs) == 0 {
		return []*entities.PriceEntry{}, nil
	}

	query, args, err := a.db.Select(
		goqu.I("e.canonical_test_id"),
		goqu.I("c.canonical_name"),
		goqu.I("e.laboratory_id"),
		goqu.I("l.name").As("laboratory_name"),
		goqu.I("e.price"),
		goqu.I("e.turnaround_hours"),
	).
		From(goqu.T("test_mapping_entries").As("e")).
		Join(goqu.T("laboratories").As("l"), goqu.On(goqu.I("e.laboratory_id").Eq(goqu.I("l.id")))).
		Join(goqu.T("canonical_tests").As("c"), goqu.On(goqu.I("e.canonical_test_id").Eq(goqu.I("c.id")))).
		Where(goqu.I("l.is_active").Eq(true)).
		Where(goqu.Ex{"e.canonical_test_id": canonicalTestIDs}).
		Order(goqu.I("l.name").Asc(), goqu.I("c.canonical_name").Asc()).
		ToSQL()
	if err != nil {
		return nil, apperrors.NewInternalError("failed to build price entries query", err)
	}

	rows, err := a.client.DB().QueryContext(ctx, query, args...)
	if err != nil {
		return nil, apperrors.NewInternalError("failed to list price entries", err)
	}
	defer rows.Close()

	var entries []*entities.PriceEntry
	for rows.Next() {
		entry := &entities.PriceEntry{}
		var price sql.NullFloat64
		var turnaround sql.NullInt64

		err := rows.Scan(
			&entry.CanonicalTestID,
			&entry.TestName,
			&entry.LaboratoryID,
			&entry.LaboratoryName,
			&price,
			&turnaround,
		)
		if err != nil {
			return nil, apperrors.NewInternalError("failed to scan price entry", err)
		}

		entry.Price = floatPtr(price)
		entry.TurnaroundHours = intPtr(turnaround)
		entries = append(entries, entry)
	}

	if err = rows.Err(); err != nil {
		return nil, apperrors.NewInternalError("error iterating price entries", err)
	}

	return entries, nil
}

type rowScanner interface {
	Scan(dest ...interface{}) error
}

func (a *TestMappingAdapter) entryDataset() *goqu.SelectDataset {
	return a.db.Select(
		"id", "laboratory_id", "canonical_test_id", "local_test_name", "local_code",
		"match_type", "similarity", "price", "turnaround_hours", "created_at", "updated_at",
	).From("test_mapping_entries")
}

func (a *TestMappingAdapter) scanEntryRow(scanner rowScanner) (*entities.TestMappingEntry, error) {
	entry := &entities.TestMappingEntry{}
	var canonicalTestID sql.NullString
	var price sql.NullFloat64
	var turnaround sql.NullInt64

	err := scanner.Scan(
		&entry.ID,
		&entry.LaboratoryID,
		&canonicalTestID,
		&entry.LocalTestName,
		&entry.LocalCode,
		&entry.MatchType,
		&entry.Similarity,
		&price,
		&turnaround,
		&entry.CreatedAt,
		&entry.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	entry.CanonicalTestID = canonicalTestID.String
	entry.Price = floatPtr(price)
	entry.TurnaroundHours = intPtr(turnaround)
	return entry, nil
}

func nullFloat(v *float64) sql.NullFloat64 {
	if v == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *v, Valid: true}
}

func nullInt(v *int) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*v), Valid: true}
}

func floatPtr(v sql.NullFloat64) *float64 {
	if !v.Valid {
		return nil
	}
	f := v.Float64
	return &f
}

func intPtr(v sql.NullInt64) *int {
	if !v.Valid {
		return nil
	}
	i := int(v.Int64)
	return &i
}
