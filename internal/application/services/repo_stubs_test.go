package services

import (
	"context"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	apperrors "github.com/naqi10/lab-price-sub001/pkg/errors"
)

// stubMappingRepo serves canned rows and records upserts, enough to drive the
// ranker, aggregator and ingestion without a database.
type stubMappingRepo struct {
	candidates []*entities.LabTestRow
	prices     []*entities.PriceEntry
	upserted   []*entities.TestMappingEntry

	lastCandidateFilter repositories.CandidateFilter
	lastPriceIDs        []string
	listErr             error
}

func (s *stubMappingRepo) Upsert(_ context.Context, entry *entities.TestMappingEntry) error {
	s.upserted = append(s.upserted, entry)
	return nil
}

func (s *stubMappingRepo) GetByLabAndTest(_ context.Context, laboratoryID, canonicalTestID string) (*entities.TestMappingEntry, error) {
	for _, entry := range s.upserted {
		if entry.LaboratoryID == laboratoryID && entry.CanonicalTestID == canonicalTestID {
			return entry, nil
		}
	}
	return nil, apperrors.NewNotFoundError("test mapping entry not found")
}

func (s *stubMappingRepo) ListByLaboratory(_ context.Context, laboratoryID string) ([]*entities.TestMappingEntry, error) {
	out := []*entities.TestMappingEntry{}
	for _, entry := range s.upserted {
		if entry.LaboratoryID == laboratoryID {
			out = append(out, entry)
		}
	}
	return out, nil
}

func (s *stubMappingRepo) Delete(_ context.Context, _ string) error {
	return nil
}

func (s *stubMappingRepo) ListCandidates(_ context.Context, filter repositories.CandidateFilter) ([]*entities.LabTestRow, error) {
	s.lastCandidateFilter = filter
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.candidates, nil
}

func (s *stubMappingRepo) ListPriceEntries(_ context.Context, canonicalTestIDs []string) ([]*entities.PriceEntry, error) {
	s.lastPriceIDs = canonicalTestIDs
	if s.listErr != nil {
		return nil, s.listErr
	}
	return s.prices, nil
}

// stubLabRepo holds laboratories by id.
type stubLabRepo struct {
	labs map[string]*entities.Laboratory
}

func (s *stubLabRepo) Create(_ context.Context, lab *entities.Laboratory) error {
	if s.labs == nil {
		s.labs = map[string]*entities.Laboratory{}
	}
	s.labs[lab.ID] = lab
	return nil
}

func (s *stubLabRepo) GetByID(_ context.Context, id string) (*entities.Laboratory, error) {
	if lab, ok := s.labs[id]; ok {
		return lab, nil
	}
	return nil, apperrors.NewNotFoundError("laboratory not found")
}

func (s *stubLabRepo) List(_ context.Context, _ repositories.LaboratoryFilter) ([]*entities.Laboratory, error) {
	out := []*entities.Laboratory{}
	for _, lab := range s.labs {
		out = append(out, lab)
	}
	return out, nil
}

func (s *stubLabRepo) Update(_ context.Context, lab *entities.Laboratory) error {
	s.labs[lab.ID] = lab
	return nil
}

func (s *stubLabRepo) Deactivate(_ context.Context, id string) error {
	if lab, ok := s.labs[id]; ok {
		lab.IsActive = false
	}
	return nil
}

func floatPtr(v float64) *float64 { return &v }

func intPtr(v int) *int { return &v }
