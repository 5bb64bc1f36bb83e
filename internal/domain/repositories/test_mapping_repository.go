package repositories

import (
	"context"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
)

// CandidateFilter narrows the candidate rows handed to the search ranker.
type CandidateFilter struct {
	LaboratoryID string
	Category     entities.TestCategory
	Limit        int
}

// TestMappingRepository is the persistence boundary for mapping entries and
// the read models built from them.
type TestMappingRepository interface {
	Upsert(ctx context.Context, entry *entities.TestMappingEntry) error
	GetByLabAndTest(ctx context.Context, laboratoryID, canonicalTestID string) (*entities.TestMappingEntry, error)
	ListByLaboratory(ctx context.Context, laboratoryID string) ([]*entities.TestMappingEntry, error)
	Delete(ctx context.Context, id string) error

	// ListCandidates returns lab-test rows (entries joined with active
	// laboratories and their canonical tests) for interactive search.
	ListCandidates(ctx context.Context, filter CandidateFilter) ([]*entities.LabTestRow, error)

	// ListPriceEntries returns every priced entry for the requested canonical
	// tests across active laboratories, the read model the comparison
	// aggregator consumes.
	ListPriceEntries(ctx context.Context, canonicalTestIDs []string) ([]*entities.PriceEntry, error)
}

// CanonicalTestRepository stores the registry snapshot produced at
// provisioning time. Serving processes read it back once and treat the
// resulting registry as frozen.
type CanonicalTestRepository interface {
	ReplaceAll(ctx context.Context, defs []*entities.CanonicalTestDefinition) error
	ListAll(ctx context.Context) ([]*entities.CanonicalTestDefinition, error)
	GetByCode(ctx context.Context, code string) (*entities.CanonicalTestDefinition, error)
}
