package services

import (
	"testing"

	"github.com/naqi10/lab-price-sub001/internal/domain/entities"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newGlycemiaRegistry() *Registry {
	return NewRegistry([]*entities.CanonicalTestDefinition{
		{
			ID:            "glycemie_a_jeun",
			CanonicalName: "Glycémie à jeun",
			Code:          "GLY",
			Category:      entities.CategoryIndividual,
			Aliases:       []string{"Glycémie à jeun", "GLYCEMIE A JEUN", "GLU", "Glucose"},
		},
		{
			ID:            "tsh",
			CanonicalName: "TSH",
			Code:          "TSH",
			Category:      entities.CategoryIndividual,
			Aliases:       []string{"TSH", "Thyréostimuline"},
		},
	})
}

func TestRegistry_ResolveByCode(t *testing.T) {
	registry := newGlycemiaRegistry()

	def := registry.Resolve("GLY", "whatever the lab calls it")
	require.NotNil(t, def)
	assert.Equal(t, "glycemie_a_jeun", def.ID)
}

func TestRegistry_ResolveCodeIsCaseInsensitive(t *testing.T) {
	registry := newGlycemiaRegistry()

	def := registry.Resolve(" gly ", "")
	require.NotNil(t, def)
	assert.Equal(t, "glycemie_a_jeun", def.ID)
}

func TestRegistry_ResolveByNameWithAccentVariant(t *testing.T) {
	registry := newGlycemiaRegistry()

	testCases := []string{
		"Glycémie à jeun",
		"GLYCEMIE A JEUN",
		"glycemie  a  jeun",
	}
	for _, name := range testCases {
		t.Run(name, func(t *testing.T) {
			def := registry.Resolve("UNKNOWN-CODE", name)
			require.NotNil(t, def)
			assert.Equal(t, "glycemie_a_jeun", def.ID)
		})
	}
}

func TestRegistry_ResolveByAliasCode(t *testing.T) {
	registry := newGlycemiaRegistry()

	// GLU is not an authoritative code but is carried as an alias.
	def := registry.Resolve("GLU", "some name nobody indexed")
	require.NotNil(t, def)
	assert.Equal(t, "glycemie_a_jeun", def.ID)
}

func TestRegistry_ResolveUnknownReturnsNil(t *testing.T) {
	registry := newGlycemiaRegistry()

	assert.Nil(t, registry.Resolve("XYZ", "examen inconnu"))
}

func TestRegistry_GetByIDAndCode(t *testing.T) {
	registry := newGlycemiaRegistry()

	require.NotNil(t, registry.GetByID("tsh"))
	require.NotNil(t, registry.GetByCode("tsh"))
	assert.Nil(t, registry.GetByID("missing"))
	assert.Nil(t, registry.GetByCode(""))
	assert.Equal(t, 2, registry.Size())
}

func TestRegistry_FirstDefinitionWinsAliasConflicts(t *testing.T) {
	registry := NewRegistry([]*entities.CanonicalTestDefinition{
		{ID: "first", CanonicalName: "Ferritine", Code: "FER1", Aliases: []string{"Fer sérique"}},
		{ID: "second", CanonicalName: "Fer sérique", Code: "FER2"},
	})

	def := registry.Resolve("", "fer sérique")
	require.NotNil(t, def)
	assert.Equal(t, "first", def.ID)

	// The second definition still resolves through its own code.
	def = registry.Resolve("FER2", "")
	require.NotNil(t, def)
	assert.Equal(t, "second", def.ID)
}
