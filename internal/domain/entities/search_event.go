package entities

import (
	"time"
)

// SearchEvent records a single free-text search against the test catalog.
type SearchEvent struct {
	ID              string    `json:"id" db:"id"`
	Query           string    `json:"query" db:"query"`
	NormalizedQuery string    `json:"normalized_query" db:"normalized_query"`
	MatchedTerm     string    `json:"matched_term" db:"matched_term"`
	LaboratoryID    string    `json:"laboratory_id,omitempty" db:"laboratory_id"`
	Category        string    `json:"category,omitempty" db:"category"`
	ResultCount     int       `json:"result_count" db:"result_count"`
	TopScore        float64   `json:"top_score" db:"top_score"`
	CacheHit        bool      `json:"cache_hit" db:"cache_hit"`
	LatencyMs       int       `json:"latency_ms" db:"latency_ms"`
	CreatedAt       time.Time `json:"created_at" db:"created_at"`
}
