package services

import (
	"math"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
)

// BundlePricingService redistributes a flat bundle price across the
// constituent test/lab price cells proportionally, so an itemized display
// still sums to the negotiated rate.
type BundlePricingService struct{}

// NewBundlePricingService creates a new bundle price distributor.
func NewBundlePricingService() *BundlePricingService {
	return &BundlePricingService{}
}

// Distribute computes adjusted per-test prices for every laboratory able to
// price the whole bundle: ratio = customRate / sum(lab's original prices),
// adjusted = round(original * ratio, 2). Laboratories missing any bundle
// test are skipped entirely, partial proportional pricing would be
// misleading. The per-lab adjusted prices sum back to customRate within
// rounding (±0.01 per test).
func (s *BundlePricingService) Distribute(customRate float64, testIDs []string, originalPrices map[entities.PriceKey]float64) map[entities.PriceKey]float64 {
	adjusted := make(map[entities.PriceKey]float64)
	if customRate <= 0 || len(testIDs) == 0 {
		return adjusted
	}

	labIDs := make(map[string]struct{})
	for key := range originalPrices {
		labIDs[key.LaboratoryID] = struct{}{}
	}

	for labID := range labIDs {
		total := 0.0
		complete := true
		for _, testID := range testIDs {
			price, ok := originalPrices[entities.PriceKey{TestID: testID, LaboratoryID: labID}]
			if !ok {
				complete = false
				break
			}
			total += price
		}
		if !complete || total <= 0 {
			continue
		}

		ratio := customRate / total
		for _, testID := range testIDs {
			key := entities.PriceKey{TestID: testID, LaboratoryID: labID}
			adjusted[key] = roundCents(originalPrices[key] * ratio)
		}
	}

	return adjusted
}

func roundCents(v float64) float64 {
	return math.Round(v*100) / 100
}
