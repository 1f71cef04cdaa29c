package riskengine

import (
	"fmt"
	"math"
)

// MaxPossibleScore is the assumed worst-case total for the contract catalog.
// It is deliberately fixed rather than derived from the live catalog: when
// factors are added it has to be revisited by hand, otherwise overall scores
// drift toward zero.
const MaxPossibleScore = 200

// RiskBand is the coarse classification of an overall score.
type RiskBand string

const (
	BandLow      RiskBand = "Low"
	BandMedium   RiskBand = "Medium"
	BandHigh     RiskBand = "High"
	BandCritical RiskBand = "Critical"
)

// Bands lists every band from least to most severe.
var Bands = []RiskBand{BandLow, BandMedium, BandHigh, BandCritical}

// BandFor maps an overall score to its band. Lower bounds are inclusive.
func BandFor(overall int) RiskBand {
	switch {
	case overall < 25:
		return BandLow
	case overall < 50:
		return BandMedium
	case overall < 75:
		return BandHigh
	default:
		return BandCritical
	}
}

// ParseRiskBand converts a stored band name back into a RiskBand.
func ParseRiskBand(s string) (RiskBand, error) {
	for _, b := range Bands {
		if string(b) == s {
			return b, nil
		}
	}
	return "", fmt.Errorf("unknown risk band %q", s)
}

// Score combines category scores into an overall 0-100 percentage of
// maxPossible and its band. A non-positive maxPossible yields 0.
func Score(scores []CategoryScore, maxPossible int) (int, RiskBand) {
	total := 0
	for _, cs := range scores {
		total += cs.Score
	}
	if maxPossible <= 0 {
		return 0, BandLow
	}

	overall := int(math.Round(100 * float64(total) / float64(maxPossible)))
	overall = max(0, min(overall, 100))
	return overall, BandFor(overall)
}
