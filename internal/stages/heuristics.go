package stages

import (
	"strings"
	"unicode/utf8"
)

// RelevancePredicate decides from the classifier's rationale whether an
// article is about a contested topic.
type RelevancePredicate func(rationale string) bool

// KeywordRelevance treats a rationale that names any of the routine
// categories as not relevant.
func KeywordRelevance(nonRelevant []string) RelevancePredicate {
	keywords := lowerAll(nonRelevant)
	return func(rationale string) bool {
		return !containsAny(strings.ToLower(rationale), keywords)
	}
}

// QualityRules configure the research quality gate.
type QualityRules struct {
	CitationIndicators []string
	MinLength          int
	NoInfoMarker       string
}

// QualityGate reports whether research findings are acceptable.
type QualityGate func(findings string) bool

// CitationQualityGate passes findings that cite a source, are long enough
// and do not admit that nothing was found.
func CitationQualityGate(rules QualityRules) QualityGate {
	indicators := lowerAll(rules.CitationIndicators)
	marker := strings.ToLower(strings.TrimSpace(rules.NoInfoMarker))

	return func(findings string) bool {
		lower := strings.ToLower(findings)

		hasSources := containsAny(lower, indicators)
		tooShort := utf8.RuneCountInString(findings) < rules.MinLength
		admitsNothing := marker != "" && strings.Contains(lower, marker)

		return hasSources && !tooShort && !admitsNothing
	}
}

func lowerAll(values []string) []string {
	out := make([]string, 0, len(values))
	for _, v := range values {
		if v = strings.ToLower(strings.TrimSpace(v)); v != "" {
			out = append(out, v)
		}
	}
	return out
}

func containsAny(text string, needles []string) bool {
	for _, needle := range needles {
		if strings.Contains(text, needle) {
			return true
		}
	}
	return false
}
