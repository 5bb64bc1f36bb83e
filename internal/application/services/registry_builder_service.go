package services

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"
	"unicode"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/pkg/utils"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// UnresolvedRow is a catalog row the finished registry cannot resolve. These
// are reported for curators to extend aliases, never silently dropped.
type UnresolvedRow struct {
	LaboratoryID string                 `json:"laboratory_id"`
	Row          entities.RawCatalogRow `json:"row"`
	Reason       string                 `json:"reason"`
}

// RegistryBuildReport summarizes a registry build over the seed catalogs.
type RegistryBuildReport struct {
	RowsSeen      int             `json:"rows_seen"`
	Definitions   int             `json:"definitions"`
	MergedAliases int             `json:"merged_aliases"`
	Renamed       int             `json:"renamed"` // display names disambiguated with a code suffix
	Unresolved    []UnresolvedRow `json:"unresolved,omitempty"`
}

// Coverage is the fraction of seed rows the finished registry resolves.
// The build target is at least 0.99 on the catalogs used to seed it.
func (r *RegistryBuildReport) Coverage() float64 {
	if r.RowsSeen == 0 {
		return 1
	}
	return float64(r.RowsSeen-len(r.Unresolved)) / float64(r.RowsSeen)
}

var (
	unresolvedRowCounterOnce sync.Once
	unresolvedRowCounter     metric.Int64Counter
)

// RegistryBuilderService turns raw per-laboratory catalogs into an immutable
// canonical registry. Build is pure over its inputs; it runs at provisioning
// time, not per request.
type RegistryBuilderService struct{}

// NewRegistryBuilderService creates a new registry builder.
func NewRegistryBuilderService() *RegistryBuilderService {
	return &RegistryBuilderService{}
}

// Build folds the catalogs, in the order given, into canonical definitions.
// Rows sharing a code join that code's definition; rows whose normalized name
// matches an existing alias join that definition and contribute their code as
// a further alias, so either laboratory's code resolves to the shared test.
// Definitions keep first-seen order, which keeps duplicate-name
// disambiguation stable across rebuilds.
func (s *RegistryBuilderService) Build(ctx context.Context, catalogs []entities.RawCatalog) (*Registry, *RegistryBuildReport) {
	report := &RegistryBuildReport{}

	var defs []*entities.CanonicalTestDefinition
	byCode := make(map[string]*entities.CanonicalTestDefinition)
	byAlias := make(map[string]*entities.CanonicalTestDefinition)
	usedIDs := make(map[string]struct{})

	addAlias := func(def *entities.CanonicalTestDefinition, alias string) {
		key := utils.NormalizeAlias(alias)
		if key == "" {
			return
		}
		if !def.HasAlias(alias) {
			def.Aliases = append(def.Aliases, alias)
		}
		if _, taken := byAlias[key]; !taken {
			byAlias[key] = def
		}
	}

	now := time.Now()
	for _, catalog := range catalogs {
		for _, row := range catalog.Rows {
			report.RowsSeen++

			code := normalizeCode(row.Code)
			nameKey := utils.NormalizeAlias(row.RawName)
			if code == "" && nameKey == "" {
				continue // verification pass reports it
			}

			if def, ok := byCode[code]; ok && code != "" {
				addAlias(def, row.RawName)
				report.MergedAliases++
				continue
			}

			if def, ok := byAlias[nameKey]; ok && nameKey != "" {
				// Same semantic test under a different code: register the
				// second code as an alias of the shared definition.
				addAlias(def, row.RawName)
				if code != "" {
					addAlias(def, code)
				}
				report.MergedAliases++
				continue
			}

			if code == "" {
				// A definition needs an authoritative code; leave the row
				// for the curator instead of inventing one.
				continue
			}

			def := &entities.CanonicalTestDefinition{
				ID:            s.definitionID(code, row.RawName, usedIDs),
				CanonicalName: canonicalDisplayName(row.RawName),
				Code:          code,
				Category:      entities.ParseTestCategory(row.Category),
				CreatedAt:     now,
			}
			byCode[code] = def
			addAlias(def, row.RawName)
			addAlias(def, code)
			defs = append(defs, def)
		}
	}

	report.Renamed = disambiguateNames(defs)
	report.Definitions = len(defs)

	registry := NewRegistry(defs)
	s.verify(ctx, registry, catalogs, report)
	return registry, report
}

// definitionID derives a stable dash-free id from the code, falling back to
// the name and then a numbered suffix on collision.
func (s *RegistryBuilderService) definitionID(code, rawName string, used map[string]struct{}) string {
	id := utils.NormalizeIdentifier(code)
	if id == "" {
		id = utils.NormalizeIdentifier(rawName)
	}
	base := id
	for n := 2; ; n++ {
		if _, taken := used[id]; !taken {
			break
		}
		id = fmt.Sprintf("%s_%d", base, n)
	}
	used[id] = struct{}{}
	return id
}

// disambiguateNames suffixes colliding display names with their code, in
// first-seen order, so reruns over the same catalogs produce identical names.
func disambiguateNames(defs []*entities.CanonicalTestDefinition) int {
	counts := make(map[string]int, len(defs))
	for _, def := range defs {
		counts[utils.NormalizeAlias(def.CanonicalName)]++
	}

	renamed := 0
	for _, def := range defs {
		if counts[utils.NormalizeAlias(def.CanonicalName)] > 1 {
			def.CanonicalName = fmt.Sprintf("%s (%s)", def.CanonicalName, def.Code)
			renamed++
		}
	}
	return renamed
}

// verify re-resolves every seed row against the finished registry and
// reports the ones that fail, with a metric per unresolved row.
func (s *RegistryBuilderService) verify(ctx context.Context, registry *Registry, catalogs []entities.RawCatalog, report *RegistryBuildReport) {
	for _, catalog := range catalogs {
		for _, row := range catalog.Rows {
			if registry.Resolve(row.Code, row.RawName) != nil {
				continue
			}
			reason := "no code or name"
			if row.Code != "" || row.RawName != "" {
				reason = "no matching code or alias"
			}
			report.Unresolved = append(report.Unresolved, UnresolvedRow{
				LaboratoryID: catalog.LaboratoryID,
				Row:          row,
				Reason:       reason,
			})
			recordUnresolvedRow(ctx, catalog.LaboratoryID)
		}
	}
}

// canonicalDisplayName tidies a raw catalog name for display: collapsed
// whitespace, title case when the source shouts in capitals, original casing
// (and accents) preserved otherwise.
func canonicalDisplayName(raw string) string {
	name := strings.Join(strings.Fields(strings.TrimSpace(raw)), " ")
	if name == "" || name != strings.ToUpper(name) {
		return name
	}

	words := strings.Fields(strings.ToLower(name))
	for i, word := range words {
		if i > 0 && isConnectingWord(word) {
			continue
		}
		r := []rune(word)
		r[0] = unicode.ToUpper(r[0])
		words[i] = string(r)
	}
	return strings.Join(words, " ")
}

func isConnectingWord(word string) bool {
	switch word {
	case "a", "à", "au", "aux", "de", "des", "du", "et", "en", "la", "le", "les", "of", "and", "the":
		return true
	}
	return false
}

func initUnresolvedRowCounter() {
	meter := otel.Meter("github.com/naqi10/lab-price-sub001/registry")
	counter, err := meter.Int64Counter(
		"registry.unresolved_rows.count",
		metric.WithDescription("Catalog rows the canonical registry could not resolve"),
	)
	if err == nil {
		unresolvedRowCounter = counter
	}
}

func recordUnresolvedRow(ctx context.Context, laboratoryID string) {
	unresolvedRowCounterOnce.Do(initUnresolvedRowCounter)
	if unresolvedRowCounter == nil {
		return
	}
	unresolvedRowCounter.Add(ctx, 1,
		metric.WithAttributes(attribute.String("laboratory.id", laboratoryID)))
}
