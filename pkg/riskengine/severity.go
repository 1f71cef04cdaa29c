// Package riskengine scores unstructured legal text against a catalog of
// keyword-driven risk factors.
//
// A run validates the input, evaluates every factor predicate, sums severity
// weights per category, converts the total into a 0-100 percentage and risk
// band, and derives advisory recommendations. Nothing is retained between runs
// and the engine performs no I/O or logging; callers own persistence and
// presentation.
package riskengine

import "fmt"

// Severity is the ordinal tier of a risk factor.
type Severity string

const (
	SeverityLow    Severity = "low"
	SeverityMedium Severity = "medium"
	SeverityHigh   Severity = "high"
)

// Weight returns the score contribution of a detected factor with this severity.
// Unknown severities weigh nothing; NewCatalog rejects them before any run.
func (s Severity) Weight() int {
	switch s {
	case SeverityLow:
		return 2
	case SeverityMedium:
		return 5
	case SeverityHigh:
		return 10
	default:
		return 0
	}
}

// Valid reports whether s is one of the known tiers.
func (s Severity) Valid() bool {
	return s.Weight() > 0
}

// ParseSeverity converts a catalog string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	sev := Severity(s)
	if !sev.Valid() {
		return "", fmt.Errorf("unknown severity %q", s)
	}
	return sev, nil
}

// Category labels shown next to a category score. They come from fixed cut
// points, not from the category's own maximum, so a category whose factors
// sum to 15 or less can never be labelled High.
const (
	LabelMinimal  = "Minimal"
	LabelLow      = "Low"
	LabelModerate = "Moderate"
	LabelHigh     = "High"
)

// CategoryLabel maps a category score to its display label.
func CategoryLabel(score int) string {
	switch {
	case score <= 5:
		return LabelMinimal
	case score <= 10:
		return LabelLow
	case score <= 15:
		return LabelModerate
	default:
		return LabelHigh
	}
}
