package entities

import (
	"time"
)

// TestCategory classifies a canonical test as a multi-analyte profile or a
// single analyte.
type TestCategory string

const (
	CategoryProfile    TestCategory = "profile"
	CategoryIndividual TestCategory = "individual"
)

// ParseTestCategory maps free-text catalog categories onto the two canonical
// buckets. Anything that is not recognizably a profile is an individual test.
func ParseTestCategory(raw string) TestCategory {
	switch normalizeCategory(raw) {
	case "profile", "profil", "panel", "bilan", "package":
		return CategoryProfile
	default:
		return CategoryIndividual
	}
}

func normalizeCategory(raw string) string {
	out := make([]rune, 0, len(raw))
	for _, r := range raw {
		if r >= 'A' && r <= 'Z' {
			r += 'a' - 'A'
		}
		if r == ' ' || r == '\t' {
			continue
		}
		out = append(out, r)
	}
	return string(out)
}

// CanonicalTestDefinition is the laboratory-agnostic identity of a test.
// Definitions are built once from catalog snapshots and are immutable at
// runtime; aliases carry every raw name and code any laboratory uses for it.
type CanonicalTestDefinition struct {
	ID            string       `json:"id" db:"id"`
	CanonicalName string       `json:"canonical_name" db:"canonical_name"`
	Code          string       `json:"code" db:"code"`
	Category      TestCategory `json:"category" db:"category"`
	Aliases       []string     `json:"aliases" db:"aliases"`
	CreatedAt     time.Time    `json:"created_at" db:"created_at"`
}

// HasAlias reports whether the definition already carries the exact alias
// string. Matching is literal; normalization happens in the registry indexes.
func (d *CanonicalTestDefinition) HasAlias(alias string) bool {
	for _, a := range d.Aliases {
		if a == alias {
			return true
		}
	}
	return false
}

// RawCatalogRow is one flat record produced by the external file-parsing
// collaborator (Excel/PDF extraction) for a single laboratory.
type RawCatalogRow struct {
	Code            string   `json:"code"`
	RawName         string   `json:"raw_name"`
	Price           *float64 `json:"price,omitempty"`
	Category        string   `json:"category,omitempty"`
	TurnaroundHours *int     `json:"turnaround_hours,omitempty"`
	TubeType        string   `json:"tube_type,omitempty"`
}

// RawCatalog is one laboratory's full parsed catalog.
type RawCatalog struct {
	LaboratoryID string          `json:"laboratory_id"`
	Rows         []RawCatalogRow `json:"rows"`
}
