package evaluation

type GuardrailConfig struct {
	MinScore          float64
	MaxExpansionTerms int
	MaxResultsPerLab  int
}

type Guardrails struct {
	config GuardrailConfig
}

func NewGuardrails(config GuardrailConfig) *Guardrails {
	if config.MaxExpansionTerms <= 0 {
		config.MaxExpansionTerms = 20
	}
	if config.MaxResultsPerLab <= 0 {
		config.MaxResultsPerLab = 10
	}
	return &Guardrails{config: config}
}

func (g *Guardrails) ShouldCount(score float64) bool {
	return score >= g.config.MinScore
}

func (g *Guardrails) LimitExpansion(terms []string) []string {
	if len(terms) > g.config.MaxExpansionTerms {
		return terms[:g.config.MaxExpansionTerms]
	}
	return terms
}
