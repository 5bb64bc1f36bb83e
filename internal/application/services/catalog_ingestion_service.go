package services

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
	apperrors "github.com/naqi10/lab-price-sub001/pkg/errors"
	"github.com/naqi10/lab-price-sub001/pkg/utils"
	"github.com/rs/zerolog/log"
)

// DefaultFuzzyMappingFloor is the minimum trigram similarity for ingestion
// to accept a fuzzy mapping instead of recording the row as unresolved.
const DefaultFuzzyMappingFloor = 0.5

// IngestionSummary reports what one catalog ingestion run did. Unresolved
// rows are listed for curators, never dropped.
type IngestionSummary struct {
	LaboratoryID   string          `json:"laboratory_id"`
	RowsProcessed  int             `json:"rows_processed"`
	ExactMatches   int             `json:"exact_matches"`
	FuzzyMatches   int             `json:"fuzzy_matches"`
	Unresolved     []UnresolvedRow `json:"unresolved,omitempty"`
	EntriesWritten int             `json:"entries_written"`
}

// CatalogIngestionService turns parsed catalog rows into test mapping
// entries using the canonical registry, falling back to trigram matching for
// rows the registry cannot resolve directly.
type CatalogIngestionService struct {
	registry   *Registry
	labRepo    repositories.LaboratoryRepository
	entryRepo  repositories.TestMappingRepository
	fuzzyFloor float64
}

// NewCatalogIngestionService creates an ingestion service. fuzzyFloor <= 0
// selects DefaultFuzzyMappingFloor.
func NewCatalogIngestionService(registry *Registry, labRepo repositories.LaboratoryRepository, entryRepo repositories.TestMappingRepository, fuzzyFloor float64) *CatalogIngestionService {
	if fuzzyFloor <= 0 {
		fuzzyFloor = DefaultFuzzyMappingFloor
	}
	return &CatalogIngestionService{
		registry:   registry,
		labRepo:    labRepo,
		entryRepo:  entryRepo,
		fuzzyFloor: fuzzyFloor,
	}
}

// Ingest upserts one mapping entry per catalog row for the laboratory. A row
// that resolves by code or alias maps EXACT; a best-trigram match above the
// floor maps FUZZY with its similarity; everything else is written as a NONE
// entry so the row stays visible to curators and to search.
func (s *CatalogIngestionService) Ingest(ctx context.Context, laboratoryID string, rows []entities.RawCatalogRow) (*IngestionSummary, error) {
	lab, err := s.labRepo.GetByID(ctx, laboratoryID)
	if err != nil {
		return nil, err
	}
	if !lab.IsActive {
		return nil, apperrors.NewValidationError("laboratory is not active")
	}

	summary := &IngestionSummary{LaboratoryID: laboratoryID}
	now := time.Now()

	for _, row := range rows {
		summary.RowsProcessed++

		entry := &entities.TestMappingEntry{
			ID:              uuid.NewString(),
			LaboratoryID:    laboratoryID,
			LocalTestName:   row.RawName,
			LocalCode:       row.Code,
			Price:           row.Price,
			TurnaroundHours: row.TurnaroundHours,
			CreatedAt:       now,
			UpdatedAt:       now,
		}

		if def := s.registry.Resolve(row.Code, row.RawName); def != nil {
			entry.CanonicalTestID = def.ID
			entry.MatchType = entities.MatchTypeExact
			entry.Similarity = 1.0
			summary.ExactMatches++
		} else if def, similarity := s.bestFuzzyMatch(row.RawName); def != nil {
			entry.CanonicalTestID = def.ID
			entry.MatchType = entities.MatchTypeFuzzy
			entry.Similarity = similarity
			summary.FuzzyMatches++
		} else {
			entry.MatchType = entities.MatchTypeNone
			summary.Unresolved = append(summary.Unresolved, UnresolvedRow{
				LaboratoryID: laboratoryID,
				Row:          row,
				Reason:       "no matching code or alias",
			})
			recordUnresolvedRow(ctx, laboratoryID)
		}

		if err := s.entryRepo.Upsert(ctx, entry); err != nil {
			return summary, err
		}
		summary.EntriesWritten++
	}

	log.Info().
		Str("laboratory_id", laboratoryID).
		Int("rows", summary.RowsProcessed).
		Int("exact", summary.ExactMatches).
		Int("fuzzy", summary.FuzzyMatches).
		Int("unresolved", len(summary.Unresolved)).
		Msg("catalog ingestion complete")

	return summary, nil
}

// bestFuzzyMatch scans the registry for the definition whose canonical name
// or alias is most similar to the raw name, subject to the floor.
func (s *CatalogIngestionService) bestFuzzyMatch(rawName string) (*entities.CanonicalTestDefinition, float64) {
	if utils.NormalizeAlias(rawName) == "" {
		return nil, 0
	}

	var best *entities.CanonicalTestDefinition
	bestScore := 0.0
	for _, def := range s.registry.Definitions() {
		score := utils.TrigramSimilarity(rawName, def.CanonicalName)
		for _, alias := range def.Aliases {
			if aliasScore := utils.TrigramSimilarity(rawName, alias); aliasScore > score {
				score = aliasScore
			}
		}
		if score > bestScore {
			best = def
			bestScore = score
		}
	}

	if bestScore < s.fuzzyFloor {
		return nil, 0
	}
	return best, bestScore
}
