package services

import (
	"encoding/json"
	"os"
	"regexp"
	"strings"
)

// SynonymRule maps queries matching a pattern to alternate search terms, so
// colloquial or abbreviated queries find canonically named rows.
type SynonymRule struct {
	Pattern *regexp.Regexp
	Terms   []string
}

// SynonymExpansionService expands a free-text query into alternate terms
// using an immutable rule table fixed at construction. Expansion is
// read-only and safe for concurrent use.
type SynonymExpansionService struct {
	rules []SynonymRule
}

// NewSynonymExpansionService creates a service over the given rules. Pass
// DefaultSynonymRules() for the built-in medical table.
func NewSynonymExpansionService(rules []SynonymRule) *SynonymExpansionService {
	return &SynonymExpansionService{rules: rules}
}

// NewSynonymExpansionServiceFromFile loads a rule table from a JSON file of
// the shape {"pattern": ["term", ...], ...}. Patterns compile
// case-insensitively; a bad pattern fails the load rather than being skipped.
func NewSynonymExpansionServiceFromFile(path string) (*SynonymExpansionService, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}

	var raw map[string][]string
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, err
	}

	rules := make([]SynonymRule, 0, len(raw))
	for pattern, terms := range raw {
		re, err := regexp.Compile("(?i)" + pattern)
		if err != nil {
			return nil, err
		}
		rules = append(rules, SynonymRule{Pattern: re, Terms: terms})
	}
	return NewSynonymExpansionService(rules), nil
}

// Expand returns the query followed by every alternate term whose rule
// matches it, deduplicated, order stable. The original query is always the
// first element.
func (s *SynonymExpansionService) Expand(query string) []string {
	query = strings.TrimSpace(query)
	if query == "" {
		return nil
	}

	terms := []string{query}
	seen := map[string]struct{}{strings.ToLower(query): {}}

	for _, rule := range s.rules {
		if !rule.Pattern.MatchString(query) {
			continue
		}
		for _, term := range rule.Terms {
			key := strings.ToLower(term)
			if _, ok := seen[key]; ok {
				continue
			}
			seen[key] = struct{}{}
			terms = append(terms, term)
		}
	}
	return terms
}

// DefaultSynonymRules is the built-in rule table covering the common lab-test
// shorthand seen in customer queries. Deployments can replace it wholesale
// via NewSynonymExpansionServiceFromFile.
func DefaultSynonymRules() []SynonymRule {
	mustRule := func(pattern string, terms ...string) SynonymRule {
		return SynonymRule{Pattern: regexp.MustCompile("(?i)" + pattern), Terms: terms}
	}
	return []SynonymRule{
		mustRule(`\bb[\s-]*12\b`, "vitamine b12", "cobalamine"),
		mustRule(`\bcobalamine?\b`, "vitamine b12", "b12"),
		mustRule(`\bvit(?:amine)?[\s-]*d3?\b`, "vitamine d", "25-oh vitamine d", "calcidiol"),
		mustRule(`\bglyc[ée]mie\b`, "glucose", "glycémie à jeun"),
		mustRule(`\bglucose\b`, "glycémie", "glycémie à jeun"),
		mustRule(`\bsucre\b`, "glucose", "glycémie"),
		mustRule(`\bnfs\b`, "numération formule sanguine", "hémogramme"),
		mustRule(`\bh[ée]mogramme\b`, "numération formule sanguine", "nfs"),
		mustRule(`\btsh\b`, "thyréostimuline", "hormone thyréotrope"),
		mustRule(`\bthyro[iï]de\b`, "tsh", "t3", "t4"),
		mustRule(`\bcrp\b`, "protéine c réactive"),
		mustRule(`\bchol[ée]st[ée]rol\b`, "bilan lipidique", "hdl", "ldl"),
		mustRule(`\bfer\b`, "ferritine", "transferrine"),
		mustRule(`\bhba1c\b`, "hémoglobine glyquée"),
		mustRule(`\bcr[ée]at(?:inine)?\b`, "créatinine", "clairance de la créatinine"),
		mustRule(`\bpsa\b`, "antigène prostatique spécifique"),
	}
}
