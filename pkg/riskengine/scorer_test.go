package riskengine

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSeverity_Weight(t *testing.T) {
	assert.Equal(t, 2, SeverityLow.Weight())
	assert.Equal(t, 5, SeverityMedium.Weight())
	assert.Equal(t, 10, SeverityHigh.Weight())
	assert.Equal(t, 0, Severity("extreme").Weight())
	assert.False(t, Severity("").Valid())
}

func TestParseSeverity(t *testing.T) {
	sev, err := ParseSeverity("medium")
	require.NoError(t, err)
	assert.Equal(t, SeverityMedium, sev)

	_, err = ParseSeverity("MEDIUM")
	assert.Error(t, err)
}

func TestCategoryLabel(t *testing.T) {
	tests := []struct {
		score    int
		expected string
	}{
		{0, LabelMinimal},
		{2, LabelMinimal},
		{5, LabelMinimal},
		{6, LabelLow},
		{10, LabelLow},
		{11, LabelModerate},
		{15, LabelModerate},
		{16, LabelHigh},
		{40, LabelHigh},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, CategoryLabel(tt.score), "score %d", tt.score)
	}
}

func TestBandFor_Boundaries(t *testing.T) {
	tests := []struct {
		overall  int
		expected RiskBand
	}{
		{0, BandLow},
		{24, BandLow},
		{25, BandMedium},
		{49, BandMedium},
		{50, BandHigh},
		{74, BandHigh},
		{75, BandCritical},
		{100, BandCritical},
	}

	for _, tt := range tests {
		assert.Equal(t, tt.expected, BandFor(tt.overall), "overall %d", tt.overall)
	}
}

func TestParseRiskBand(t *testing.T) {
	for _, b := range Bands {
		got, err := ParseRiskBand(string(b))
		require.NoError(t, err)
		assert.Equal(t, b, got)
	}
	_, err := ParseRiskBand("Severe")
	assert.Error(t, err)
}

func TestScore(t *testing.T) {
	scores := []CategoryScore{{Score: 20}, {Score: 15}, {Score: 0}}

	overall, band := Score(scores, 200)
	assert.Equal(t, 18, overall) // 35/200 = 17.5, rounded half away from zero
	assert.Equal(t, BandLow, band)

	overall, band = Score(scores, 70)
	assert.Equal(t, 50, overall)
	assert.Equal(t, BandHigh, band)
}

func TestScore_Clamped(t *testing.T) {
	overall, band := Score([]CategoryScore{{Score: 150}, {Score: 150}}, 200)
	assert.Equal(t, 100, overall)
	assert.Equal(t, BandCritical, band)

	overall, band = Score(nil, 200)
	assert.Equal(t, 0, overall)
	assert.Equal(t, BandLow, band)

	overall, _ = Score([]CategoryScore{{Score: 10}}, 0)
	assert.Equal(t, 0, overall)
}

func TestScore_BandBoundariesFromTotals(t *testing.T) {
	for _, tc := range []struct {
		total    int
		expected RiskBand
	}{
		{24, BandLow}, {25, BandMedium}, {49, BandMedium},
		{50, BandHigh}, {74, BandHigh}, {75, BandCritical},
	} {
		overall, band := Score([]CategoryScore{{Score: tc.total}}, 100)
		assert.Equal(t, tc.total, overall)
		assert.Equal(t, tc.expected, band, "total %d", tc.total)
	}
}

func TestRecommend_OrderAndIndependence(t *testing.T) {
	rules := []Rule{
		{ID: "a", Applies: OverallAbove(50), Advice: "a"},
		{ID: "b", Applies: CategoryAbove("x", 10), Advice: "b"},
		{ID: "c", Applies: CategoryAbove("missing", -1), Advice: "c"},
		{ID: "d", Applies: OverallBetween(0, 30), Advice: "d"},
		{ID: "e", Applies: Always(), Advice: "e"},
	}
	scores := []CategoryScore{{CategoryID: "x", Score: 11}}

	assert.Equal(t, []string{"a", "b", "e"}, Recommend(rules, 60, scores))
	assert.Equal(t, []string{"b", "d", "e"}, Recommend(rules, 29, scores))
	assert.Equal(t, []string{"e"}, Recommend(rules, 0, nil))
}
