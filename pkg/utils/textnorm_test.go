package utils

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizeAlias_AccentAndCaseVariantsConverge(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"Glycémie à jeun", "glycemie a jeun"},
		{"GLYCEMIE A JEUN", "glycemie a jeun"},
		{"  glycémie   à   jeun  ", "glycemie a jeun"},
		{"Créatinine", "creatinine"},
		{"HÉMOGRAMME", "hemogramme"},
		{"TSH", "tsh"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeAlias(tc.input))
		})
	}
}

func TestNormalizeAlias_Empty(t *testing.T) {
	assert.Equal(t, "", NormalizeAlias(""))
	assert.Equal(t, "", NormalizeAlias("   "))
}

func TestNormalizeIdentifier(t *testing.T) {
	testCases := []struct {
		input    string
		expected string
	}{
		{"GLY-01", "gly_01"},
		{"Glycémie à jeun", "glycemie_a_jeun"},
		{"NFS / Hémogramme", "nfs_hemogramme"},
		{"--", ""},
		{"B12", "b12"},
	}

	for _, tc := range testCases {
		t.Run(tc.input, func(t *testing.T) {
			assert.Equal(t, tc.expected, NormalizeIdentifier(tc.input))
		})
	}
}

func TestNormalizeIdentifier_NeverContainsDash(t *testing.T) {
	assert.NotContains(t, NormalizeIdentifier("GLY-01-B"), "-")
}

func TestTrigramSimilarity_Identical(t *testing.T) {
	assert.Equal(t, 1.0, TrigramSimilarity("glycémie", "GLYCEMIE"))
}

func TestTrigramSimilarity_Disjoint(t *testing.T) {
	assert.Equal(t, 0.0, TrigramSimilarity("tsh", "fer"))
}

func TestTrigramSimilarity_BothEmpty(t *testing.T) {
	assert.Equal(t, 1.0, TrigramSimilarity("", ""))
}

func TestTrigramSimilarity_OneEmpty(t *testing.T) {
	assert.Equal(t, 0.0, TrigramSimilarity("glucose", ""))
	assert.Equal(t, 0.0, TrigramSimilarity("", "glucose"))
}

func TestTrigramSimilarity_CloserStringScoresHigher(t *testing.T) {
	near := TrigramSimilarity("glycemie a jeun", "glycemie")
	far := TrigramSimilarity("glycemie a jeun", "ferritine")
	assert.Greater(t, near, far)
}

func TestTrigramSimilarity_SymmetricAndBounded(t *testing.T) {
	a, b := "hémogramme complet", "hemogramme"
	ab := TrigramSimilarity(a, b)
	ba := TrigramSimilarity(b, a)
	assert.Equal(t, ab, ba)
	assert.GreaterOrEqual(t, ab, 0.0)
	assert.LessOrEqual(t, ab, 1.0)
}
