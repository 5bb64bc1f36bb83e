package entities

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPriceKey_RoundTrip(t *testing.T) {
	key := PriceKey{TestID: "glycemie_a_jeun", LaboratoryID: "lab-alpha"}

	parsed, err := ParsePriceKey(key.String())
	require.NoError(t, err)
	assert.Equal(t, key, parsed)
}

func TestParsePriceKey_LabIDMayContainDashes(t *testing.T) {
	parsed, err := ParsePriceKey("tsh-lab-north-01")
	require.NoError(t, err)
	assert.Equal(t, "tsh", parsed.TestID)
	assert.Equal(t, "lab-north-01", parsed.LaboratoryID)
}

func TestParsePriceKey_Malformed(t *testing.T) {
	for _, input := range []string{"", "nodash", "-labonly", "testonly-"} {
		t.Run(input, func(t *testing.T) {
			_, err := ParsePriceKey(input)
			assert.Error(t, err)
		})
	}
}

func TestPriceKeyMapFromStrings_DropsMalformedKeys(t *testing.T) {
	out := PriceKeyMapFromStrings(map[string]float64{
		"glycemie-lab-a": 12.5,
		"garbage":        99,
	})

	require.Len(t, out, 1)
	assert.Equal(t, 12.5, out[PriceKey{TestID: "glycemie", LaboratoryID: "lab-a"}])
}

func TestComparisonRequest_EffectiveCustomPrices(t *testing.T) {
	composite := map[PriceKey]float64{{TestID: "a", LaboratoryID: "l"}: 1}

	req := ComparisonRequest{CustomPrices: composite}
	assert.Equal(t, composite, req.EffectiveCustomPrices())

	req = ComparisonRequest{CustomPricesWire: map[string]float64{"a-l": 2}}
	assert.Equal(t, 2.0, req.EffectiveCustomPrices()[PriceKey{TestID: "a", LaboratoryID: "l"}])
}

func TestParseTestCategory(t *testing.T) {
	testCases := []struct {
		input    string
		expected TestCategory
	}{
		{"profile", CategoryProfile},
		{"Profil", CategoryProfile},
		{"BILAN", CategoryProfile},
		{"panel", CategoryProfile},
		{"individual", CategoryIndividual},
		{"", CategoryIndividual},
		{"analyse", CategoryIndividual},
	}
	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, ParseTestCategory(tc.input))
		})
	}
}

func TestLabTestRow_DisplayName(t *testing.T) {
	row := LabTestRow{
		Entry:         TestMappingEntry{LocalTestName: "GLYCEMIE A JEUN"},
		CanonicalName: "Glycémie à jeun",
	}
	assert.Equal(t, "Glycémie à jeun", row.DisplayName())

	row.CanonicalName = ""
	assert.Equal(t, "GLYCEMIE A JEUN", row.DisplayName())
}
