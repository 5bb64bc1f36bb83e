package entities

// AnnotatedRow is one search hit: a laboratory-test row plus the score the
// ranker assigned and how it was obtained.
type AnnotatedRow struct {
	Row            LabTestRow         `json:"row"`
	Score          float64            `json:"score"`
	MatchedTerm    string             `json:"matched_term,omitempty"`
	Deterministic  bool               `json:"deterministic"`
	ScoreBreakdown map[string]float64 `json:"score_breakdown,omitempty"`
}

// SearchFilters narrows an interactive search to one laboratory and/or one
// test category. Zero values mean unfiltered.
type SearchFilters struct {
	LaboratoryID string       `json:"laboratory_id,omitempty"`
	Category     TestCategory `json:"category,omitempty"`
}
