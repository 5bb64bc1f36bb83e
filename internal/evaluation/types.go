package evaluation

import "time"

// GoldenQuery is a labeled query with the canonical tests it should surface.
type GoldenQuery struct {
	ID              string   `json:"id"`
	Query           string   `json:"query"`
	ExpectedTestIDs []string `json:"expected_test_ids"`
	Difficulty      string   `json:"difficulty"` // easy, medium, hard
}

// EvalResult holds the evaluation outcome for a single query.
type EvalResult struct {
	QueryID      string
	Query        string
	Difficulty   string
	RecallAt10   float64
	MRRAt10      float64
	ResultCount  int
	RetrievedIDs []string
	Latency      time.Duration
}

// EvalSummary holds aggregate metrics across all golden queries.
type EvalSummary struct {
	TotalQueries    int
	AvgRecallAt10   float64
	AvgMRRAt10      float64
	AvgLatency      time.Duration
	QueriesWithHits int // queries that returned at least 1 result
	ByDifficulty    map[string]*DifficultySummary
}

// DifficultySummary holds metrics grouped by query difficulty.
type DifficultySummary struct {
	Count         int
	AvgRecallAt10 float64
	AvgMRRAt10    float64
}
