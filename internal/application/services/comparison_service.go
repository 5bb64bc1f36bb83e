package services

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/naqi10/lab-price-sub001/internal/domain/repositories"
)

// ComparisonService aggregates per-laboratory prices for a selected set of
// canonical tests into the three selection strategies: cheapest single lab,
// fastest turnaround, and per-test optimized multi-lab assignment. It is a
// pure function over the price-entry snapshot and holds no mutable state.
type ComparisonService struct {
	repo repositories.TestMappingRepository
}

// NewComparisonService creates a new comparison aggregator.
func NewComparisonService(repo repositories.TestMappingRepository) *ComparisonService {
	return &ComparisonService{repo: repo}
}

// Compare produces the full comparison for the requested canonical test ids.
// An empty id set yields an empty result, not an error, so callers can render
// the "nothing selected" state. Laboratories with no matching entries are
// excluded rather than shown with a misleading zero total.
func (s *ComparisonService) Compare(ctx context.Context, req entities.ComparisonRequest) (*entities.ComparisonResult, error) {
	testIDs := dedupeOrdered(req.CanonicalTestIDs)
	result := &entities.ComparisonResult{RequestedTestIDs: testIDs}
	if len(testIDs) == 0 {
		return result, nil
	}

	entries, err := s.repo.ListPriceEntries(ctx, testIDs)
	if err != nil {
		return nil, err
	}
	if len(entries) == 0 {
		return result, nil
	}

	customPrices := req.EffectiveCustomPrices()

	byLab := make(map[string][]*entities.PriceEntry)
	var labOrder []string
	for _, entry := range entries {
		if _, seen := byLab[entry.LaboratoryID]; !seen {
			labOrder = append(labOrder, entry.LaboratoryID)
		}
		byLab[entry.LaboratoryID] = append(byLab[entry.LaboratoryID], entry)
	}

	// Per-laboratory totals have no cross-lab dependency, so they are fanned
	// out and merged; ordering is restored by the deterministic sort below.
	labs := make([]entities.LaboratoryComparison, len(labOrder))
	var wg sync.WaitGroup
	for i, labID := range labOrder {
		wg.Add(1)
		go func(i int, labEntries []*entities.PriceEntry) {
			defer wg.Done()
			labs[i] = buildLabComparison(testIDs, labEntries, customPrices)
		}(i, byLab[labID])
	}
	wg.Wait()

	// Labs whose every entry turned out unpriced carry nothing to compare.
	kept := labs[:0]
	for _, lab := range labs {
		if len(lab.Tests) > 0 {
			kept = append(kept, lab)
		}
	}
	labs = kept

	sort.SliceStable(labs, func(i, j int) bool {
		if labs[i].TotalPrice != labs[j].TotalPrice {
			return labs[i].TotalPrice < labs[j].TotalPrice
		}
		return labs[i].LaboratoryName < labs[j].LaboratoryName
	})
	result.Laboratories = labs

	s.markCheapest(result)
	s.markFastest(result)
	result.MultiLab = s.buildMultiLab(testIDs, entries, customPrices, req)

	return result, nil
}

// buildLabComparison computes one laboratory's row: effective prices, total
// over the tests it offers, and completeness against the requested set.
func buildLabComparison(testIDs []string, labEntries []*entities.PriceEntry, customPrices map[entities.PriceKey]float64) entities.LaboratoryComparison {
	byTest := make(map[string]*entities.PriceEntry, len(labEntries))
	for _, e := range labEntries {
		byTest[e.CanonicalTestID] = e
	}

	lab := entities.LaboratoryComparison{
		LaboratoryID:   labEntries[0].LaboratoryID,
		LaboratoryName: labEntries[0].LaboratoryName,
	}

	turnaround := 0
	turnaroundKnown := true
	for _, testID := range testIDs {
		entry, ok := byTest[testID]
		if !ok {
			lab.MissingTestIDs = append(lab.MissingTestIDs, testID)
			continue
		}

		price, isCustom, ok := effectivePrice(entry, customPrices)
		if !ok {
			lab.MissingTestIDs = append(lab.MissingTestIDs, testID)
			continue
		}

		lab.Tests = append(lab.Tests, entities.ComparedTest{
			TestID:          testID,
			TestName:        entry.TestName,
			Price:           price,
			FormattedPrice:  FormatPrice(price),
			IsCustomPrice:   isCustom,
			TurnaroundHours: entry.TurnaroundHours,
		})
		lab.TotalPrice += price

		if entry.TurnaroundHours != nil {
			turnaround += *entry.TurnaroundHours
		} else {
			turnaroundKnown = false
		}
	}

	lab.IsComplete = len(lab.Tests) == len(testIDs)
	if turnaroundKnown && len(lab.Tests) > 0 {
		lab.TurnaroundHours = &turnaround
	}
	return lab
}

// effectivePrice applies the custom-price override, then the catalog price.
// ok is false when the laboratory cannot price the test at all.
func effectivePrice(entry *entities.PriceEntry, customPrices map[entities.PriceKey]float64) (price float64, isCustom, ok bool) {
	key := entities.PriceKey{TestID: entry.CanonicalTestID, LaboratoryID: entry.LaboratoryID}
	if custom, exists := customPrices[key]; exists {
		return custom, true, true
	}
	if entry.Price != nil {
		return *entry.Price, false, true
	}
	return 0, false, false
}

// markCheapest selects the complete laboratory with the minimum total. When
// no laboratory is complete the overall minimum is reported with the labs
// flagged incomplete rather than hidden.
func (s *ComparisonService) markCheapest(result *entities.ComparisonResult) {
	var best *entities.LaboratoryComparison
	for i := range result.Laboratories {
		lab := &result.Laboratories[i]
		if !lab.IsComplete {
			continue
		}
		if best == nil || lab.TotalPrice < best.TotalPrice {
			best = lab
		}
	}

	complete := best != nil
	if best == nil {
		for i := range result.Laboratories {
			lab := &result.Laboratories[i]
			if best == nil || lab.TotalPrice < best.TotalPrice {
				best = lab
			}
		}
	}
	if best == nil {
		return
	}

	best.IsCheapest = true
	result.CheapestLaboratoryID = best.LaboratoryID
	result.CheapestIsComplete = complete
}

// markFastest selects the laboratory with the lowest known total turnaround,
// preferring complete labs, with price as the tie-break.
func (s *ComparisonService) markFastest(result *entities.ComparisonResult) {
	pick := func(requireComplete bool) *entities.LaboratoryComparison {
		var best *entities.LaboratoryComparison
		for i := range result.Laboratories {
			lab := &result.Laboratories[i]
			if lab.TurnaroundHours == nil || (requireComplete && !lab.IsComplete) {
				continue
			}
			if best == nil ||
				*lab.TurnaroundHours < *best.TurnaroundHours ||
				(*lab.TurnaroundHours == *best.TurnaroundHours && lab.TotalPrice < best.TotalPrice) {
				best = lab
			}
		}
		return best
	}

	best := pick(true)
	if best == nil {
		best = pick(false)
	}
	if best == nil {
		return
	}

	best.IsFastest = true
	result.FastestLaboratoryID = best.LaboratoryID
}

// buildMultiLab picks, for each requested test independently, the laboratory
// offering it at the minimum price (or shortest turnaround under that
// objective). Manual per-test selections take precedence and the total is
// recomputed here, never trusted from the client.
func (s *ComparisonService) buildMultiLab(testIDs []string, entries []*entities.PriceEntry, customPrices map[entities.PriceKey]float64, req entities.ComparisonRequest) *entities.MultiLabSelection {
	type offer struct {
		entry *entities.PriceEntry
		price float64
	}
	offersByTest := make(map[string][]offer)
	for _, entry := range entries {
		price, _, ok := effectivePrice(entry, customPrices)
		if !ok {
			continue
		}
		offersByTest[entry.CanonicalTestID] = append(offersByTest[entry.CanonicalTestID], offer{entry: entry, price: price})
	}

	byTurnaround := req.Objective == entities.ObjectiveTurnaround

	selection := &entities.MultiLabSelection{IsComplete: true}
	for _, testID := range testIDs {
		offers := offersByTest[testID]
		if len(offers) == 0 {
			selection.IsComplete = false
			continue
		}

		chosen := offers[0]
		manualLab, hasManual := req.PerTestLabChoice[testID]
		if hasManual {
			found := false
			for _, o := range offers {
				if o.entry.LaboratoryID == manualLab {
					chosen = o
					found = true
					break
				}
			}
			hasManual = found
		}
		if !hasManual {
			for _, o := range offers[1:] {
				if betterOffer(o.entry, o.price, chosen.entry, chosen.price, byTurnaround) {
					chosen = o
				}
			}
		}

		selection.Assignments = append(selection.Assignments, entities.TestAssignment{
			TestID:          testID,
			LaboratoryID:    chosen.entry.LaboratoryID,
			LaboratoryName:  chosen.entry.LaboratoryName,
			Price:           chosen.price,
			TurnaroundHours: chosen.entry.TurnaroundHours,
			IsManualChoice:  hasManual,
		})
		selection.TotalPrice += chosen.price
	}

	if len(selection.Assignments) == 0 {
		return nil
	}
	return selection
}

// betterOffer compares two offers under the active objective with
// deterministic tie-breaks (price, then laboratory name).
func betterOffer(a *entities.PriceEntry, aPrice float64, b *entities.PriceEntry, bPrice float64, byTurnaround bool) bool {
	if byTurnaround {
		aT, bT := a.TurnaroundHours, b.TurnaroundHours
		switch {
		case aT != nil && bT == nil:
			return true
		case aT == nil && bT != nil:
			return false
		case aT != nil && bT != nil && *aT != *bT:
			return *aT < *bT
		}
	}
	if aPrice != bPrice {
		return aPrice < bPrice
	}
	return a.LaboratoryName < b.LaboratoryName
}

// FormatPrice renders a price for display.
func FormatPrice(price float64) string {
	return fmt.Sprintf("%.2f €", price)
}

func dedupeOrdered(ids []string) []string {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}
