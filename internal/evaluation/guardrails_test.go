package evaluation

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestGuardrails_RejectLowScores(t *testing.T) {
	config := GuardrailConfig{
		MinScore: 0.6,
	}
	g := NewGuardrails(config)

	assert.False(t, g.ShouldCount(0.5))
	assert.True(t, g.ShouldCount(0.6))
	assert.True(t, g.ShouldCount(0.9))
}

func TestGuardrails_LimitExpansion(t *testing.T) {
	config := GuardrailConfig{
		MaxExpansionTerms: 3,
	}
	g := NewGuardrails(config)

	terms := []string{"a", "b", "c", "d", "e"}
	limited := g.LimitExpansion(terms)

	assert.Equal(t, 3, len(limited))
	assert.Equal(t, []string{"a", "b", "c"}, limited)
}

func TestGuardrails_Defaults(t *testing.T) {
	g := NewGuardrails(GuardrailConfig{})

	terms := make([]string, 25)
	assert.Len(t, g.LimitExpansion(terms), 20)
	assert.True(t, g.ShouldCount(0))
}
