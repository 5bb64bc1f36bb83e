package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var diacriticStripper = transform.Chain(
	norm.NFD,
	runes.Remove(runes.In(unicode.Mn)),
	norm.NFC,
)

// NormalizeAlias canonicalizes a raw test name or code for index lookups:
// lowercase, NFD decomposition with combining marks removed, trimmed, inner
// whitespace collapsed. The same function runs at registry build time and at
// resolve time so accent/case variants always converge ("Glycémie à jeun",
// "GLYCEMIE A JEUN" → "glycemie a jeun").
func NormalizeAlias(value string) string {
	lowered := strings.ToLower(strings.TrimSpace(value))
	if lowered == "" {
		return ""
	}
	stripped, _, err := transform.String(diacriticStripper, lowered)
	if err != nil {
		stripped = lowered
	}
	return strings.Join(strings.Fields(stripped), " ")
}

// NormalizeIdentifier converts a string to a dash-free snake identifier
// usable as a stable id component.
func NormalizeIdentifier(value string) string {
	normalized := NormalizeAlias(value)
	if normalized == "" {
		return ""
	}

	var b strings.Builder
	lastUnderscore := false
	for _, ch := range normalized {
		isAlphaNum := (ch >= 'a' && ch <= 'z') || (ch >= '0' && ch <= '9')
		if isAlphaNum {
			b.WriteRune(ch)
			lastUnderscore = false
		} else if !lastUnderscore {
			b.WriteByte('_')
			lastUnderscore = true
		}
	}
	return strings.Trim(b.String(), "_")
}

// TrigramSimilarity computes set similarity between the trigram profiles of
// two strings, the same measure postgres pg_trgm uses: shared trigrams over
// the union. Inputs are normalized with NormalizeAlias and padded so short
// words still produce a profile. Returns a value in [0,1].
func TrigramSimilarity(a, b string) float64 {
	ta := trigramSet(NormalizeAlias(a))
	tb := trigramSet(NormalizeAlias(b))
	if len(ta) == 0 || len(tb) == 0 {
		if len(ta) == 0 && len(tb) == 0 {
			return 1
		}
		return 0
	}

	shared := 0
	for t := range ta {
		if _, ok := tb[t]; ok {
			shared++
		}
	}
	union := len(ta) + len(tb) - shared
	return float64(shared) / float64(union)
}

func trigramSet(s string) map[string]struct{} {
	set := make(map[string]struct{})
	for _, word := range strings.Fields(s) {
		padded := "  " + word + " "
		r := []rune(padded)
		for i := 0; i+3 <= len(r); i++ {
			set[string(r[i:i+3])] = struct{}{}
		}
	}
	return set
}
