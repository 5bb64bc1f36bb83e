package entities

import (
	"fmt"
	"strings"
)

// PriceKey identifies one (canonical test, laboratory) price cell. The wire
// format used by clients is the flat "testId-labId" string; inside the engine
// the composite struct is used so keys cannot be mis-assembled.
type PriceKey struct {
	TestID       string
	LaboratoryID string
}

// String renders the external "testId-labId" shape.
func (k PriceKey) String() string {
	return k.TestID + "-" + k.LaboratoryID
}

// ParsePriceKey parses the external "testId-labId" shape. Canonical test ids
// are dash-free identifiers, so the split is on the first dash; laboratory
// ids may themselves contain dashes (UUIDs) and are taken verbatim.
func ParsePriceKey(s string) (PriceKey, error) {
	idx := strings.Index(s, "-")
	if idx <= 0 || idx == len(s)-1 {
		return PriceKey{}, fmt.Errorf("malformed price key %q", s)
	}
	return PriceKey{TestID: s[:idx], LaboratoryID: s[idx+1:]}, nil
}

// PriceKeyMapFromStrings converts an external string-keyed override map into
// the composite form, dropping malformed keys rather than failing the whole
// request.
func PriceKeyMapFromStrings(in map[string]float64) map[PriceKey]float64 {
	if len(in) == 0 {
		return nil
	}
	out := make(map[PriceKey]float64, len(in))
	for raw, price := range in {
		key, err := ParsePriceKey(raw)
		if err != nil {
			continue
		}
		out[key] = price
	}
	return out
}

// ComparisonObjective selects what the optimized strategies minimize.
type ComparisonObjective string

const (
	ObjectivePrice      ComparisonObjective = "price"
	ObjectiveTurnaround ComparisonObjective = "turnaround"
)

// ComparisonRequest asks for a multi-laboratory comparison over a set of
// canonical test ids.
type ComparisonRequest struct {
	CanonicalTestIDs []string             `json:"canonical_test_ids"`
	Objective        ComparisonObjective  `json:"objective,omitempty"`
	PerTestLabChoice map[string]string    `json:"per_test_lab_choice,omitempty"` // testID -> labID, user curated
	CustomPrices     map[PriceKey]float64 `json:"-"`
	CustomPricesWire map[string]float64   `json:"custom_prices,omitempty"` // serialization boundary only
}

// EffectiveCustomPrices merges the wire-shape map into the composite map.
func (r *ComparisonRequest) EffectiveCustomPrices() map[PriceKey]float64 {
	if r.CustomPrices != nil {
		return r.CustomPrices
	}
	return PriceKeyMapFromStrings(r.CustomPricesWire)
}

// ComparedTest is one requested test as priced by one laboratory.
type ComparedTest struct {
	TestID          string  `json:"test_id"`
	TestName        string  `json:"test_name"`
	Price           float64 `json:"price"`
	FormattedPrice  string  `json:"formatted_price"`
	IsCustomPrice   bool    `json:"is_custom_price,omitempty"`
	TurnaroundHours *int    `json:"turnaround_hours,omitempty"`
}

// LaboratoryComparison is one laboratory's aggregate over the requested set.
// Totals cover only the tests the lab actually offers.
type LaboratoryComparison struct {
	LaboratoryID    string         `json:"laboratory_id"`
	LaboratoryName  string         `json:"laboratory_name"`
	Tests           []ComparedTest `json:"tests"`
	MissingTestIDs  []string       `json:"missing_test_ids,omitempty"`
	TotalPrice      float64        `json:"total_price"`
	TurnaroundHours *int           `json:"turnaround_hours,omitempty"` // sum, nil when any offered test lacks data
	IsComplete      bool           `json:"is_complete"`
	IsCheapest      bool           `json:"is_cheapest"`
	IsFastest       bool           `json:"is_fastest,omitempty"`
}

// TestAssignment is one per-test laboratory pick in the multi-lab strategy.
type TestAssignment struct {
	TestID          string  `json:"test_id"`
	LaboratoryID    string  `json:"laboratory_id"`
	LaboratoryName  string  `json:"laboratory_name"`
	Price           float64 `json:"price"`
	TurnaroundHours *int    `json:"turnaround_hours,omitempty"`
	IsManualChoice  bool    `json:"is_manual_choice,omitempty"`
}

// MultiLabSelection is the per-test optimized assignment plus its recomputed
// total. By construction its total never exceeds the best single complete
// laboratory total.
type MultiLabSelection struct {
	Assignments []TestAssignment `json:"assignments"`
	TotalPrice  float64          `json:"total_price"`
	IsComplete  bool             `json:"is_complete"`
}

// ComparisonResult is the full synchronous comparison output.
type ComparisonResult struct {
	RequestedTestIDs     []string               `json:"requested_test_ids"`
	Laboratories         []LaboratoryComparison `json:"laboratories"`
	CheapestLaboratoryID string                 `json:"cheapest_laboratory_id,omitempty"`
	CheapestIsComplete   bool                   `json:"cheapest_is_complete"`
	FastestLaboratoryID  string                 `json:"fastest_laboratory_id,omitempty"`
	MultiLab             *MultiLabSelection     `json:"multi_lab,omitempty"`
}

// LaboratoryByID returns the comparison row for a laboratory, or nil.
func (r *ComparisonResult) LaboratoryByID(id string) *LaboratoryComparison {
	for i := range r.Laboratories {
		if r.Laboratories[i].LaboratoryID == id {
			return &r.Laboratories[i]
		}
	}
	return nil
}

// PriceEntry is the read-model row the aggregator consumes: one laboratory's
// price for one canonical test, joined with the lab and test names.
type PriceEntry struct {
	CanonicalTestID string   `json:"canonical_test_id"`
	TestName        string   `json:"test_name"`
	LaboratoryID    string   `json:"laboratory_id"`
	LaboratoryName  string   `json:"laboratory_name"`
	Price           *float64 `json:"price"`
	TurnaroundHours *int     `json:"turnaround_hours,omitempty"`
}
