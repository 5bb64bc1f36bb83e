package entities

import (
	"time"
)

// MatchType classifies how a laboratory's local test name was linked to a
// canonical test.
type MatchType string

const (
	MatchTypeExact  MatchType = "EXACT"
	MatchTypeFuzzy  MatchType = "FUZZY"
	MatchTypeManual MatchType = "MANUAL"
	MatchTypeNone   MatchType = "NONE"
)

// TestMappingEntry links one laboratory to one canonical test, carrying the
// lab's local name and price. One entry exists per (laboratory, canonicalTest)
// pair. MatchTypeNone entries legitimately carry a nil price.
type TestMappingEntry struct {
	ID              string    `json:"id" db:"id"`
	LaboratoryID    string    `json:"laboratory_id" db:"laboratory_id"`
	CanonicalTestID string    `json:"canonical_test_id" db:"canonical_test_id"`
	LocalTestName   string    `json:"local_test_name" db:"local_test_name"`
	LocalCode       string    `json:"local_code" db:"local_code"`
	MatchType       MatchType `json:"match_type" db:"match_type"`
	Similarity      float64   `json:"similarity" db:"similarity"`
	Price           *float64  `json:"price" db:"price"`
	TurnaroundHours *int      `json:"turnaround_hours" db:"turnaround_hours"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
	UpdatedAt       time.Time `json:"updated_at" db:"updated_at"`
}

// HasPrice reports whether the laboratory actually prices this test.
func (e *TestMappingEntry) HasPrice() bool {
	return e.Price != nil
}

// LabTestRow is a mapping entry joined with its laboratory and, when the
// mapping resolved, its canonical test. This is the unit the search ranker
// scores and annotates.
type LabTestRow struct {
	Entry          TestMappingEntry `json:"entry"`
	LaboratoryName string           `json:"laboratory_name"`
	CanonicalName  string           `json:"canonical_name,omitempty"`
	CanonicalCode  string           `json:"canonical_code,omitempty"`
	Category       TestCategory     `json:"category,omitempty"`
}

// DisplayName prefers the canonical name when the row is mapped and falls
// back to the laboratory's local spelling.
func (r *LabTestRow) DisplayName() string {
	if r.CanonicalName != "" {
		return r.CanonicalName
	}
	return r.Entry.LocalTestName
}
