package riskengine

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func liabilityOnlyEngine(t *testing.T) *Engine {
	t.Helper()
	c, err := NewCatalog([]RiskCategory{{
		ID:   CategoryLiability,
		Name: "Liability",
		Factors: []RiskFactor{
			{ID: "liab1", Description: "unlimited liability", Severity: SeverityHigh, Detect: ContainsAny("unlimited liability")},
			{ID: "liab2", Description: "hold harmless", Severity: SeverityHigh, Detect: ContainsAny("indemnify and hold harmless")},
		},
	}})
	require.NoError(t, err)

	e, err := NewEngine("test", c, ContractRules(), MaxPossibleScore, WithMetadataCheck(CheckContractMetadata))
	require.NoError(t, err)
	return e
}

func TestEngine_LiabilityScenario(t *testing.T) {
	e := liabilityOnlyEngine(t)

	a, err := e.Run(Input{
		Text:     "Supplier accepts unlimited liability and shall indemnify and hold harmless the Buyer.",
		Metadata: Metadata{ContractType: ContractSales},
	})
	require.NoError(t, err)

	require.Len(t, a.CategoryScores, 1)
	assert.Equal(t, 20, a.CategoryScores[0].Score)
	assert.Equal(t, LabelHigh, a.CategoryScores[0].Label)
	assert.Equal(t, 10, a.OverallScore)
	assert.Equal(t, BandLow, a.RiskBand)
	assert.Contains(t, a.Recommendations, AdviceLiabilityCaps)
	assert.NotContains(t, a.Recommendations, AdviceCounselReview)
	assert.Equal(t, AdviceDocumentation, a.Recommendations[len(a.Recommendations)-1])
}

func TestEngine_NoTriggerScenario(t *testing.T) {
	e := liabilityOnlyEngine(t)

	a, err := e.Run(Input{
		Text:     "The parties agree to meet quarterly.",
		Metadata: Metadata{ContractType: ContractOther},
	})
	require.NoError(t, err)

	for _, cs := range a.CategoryScores {
		for _, d := range cs.DetectedFactors {
			assert.False(t, d.Detected, d.FactorID)
			assert.Empty(t, d.Remark)
		}
	}
	assert.Equal(t, 0, a.OverallScore)
	assert.Equal(t, BandLow, a.RiskBand)
	assert.Equal(t, []string{AdviceDocumentation}, a.Recommendations)
}

func TestEngine_RejectsInvalidInput(t *testing.T) {
	e := liabilityOnlyEngine(t)

	tests := []struct {
		name  string
		input Input
		field string
	}{
		{"empty text", Input{Text: "", Metadata: Metadata{ContractType: ContractNDA}}, "text"},
		{"blank text", Input{Text: " \n\t ", Metadata: Metadata{ContractType: ContractNDA}}, "text"},
		{"missing contract type", Input{Text: "some text"}, "contractType"},
		{"unknown contract type", Input{Text: "some text", Metadata: Metadata{ContractType: "merger"}}, "contractType"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := e.Run(tt.input)
			assert.Nil(t, a)
			require.Error(t, err)

			var ve *ValidationError
			require.True(t, errors.As(err, &ve))
			assert.Equal(t, tt.field, ve.Field)
			assert.True(t, IsValidationError(fmt.Errorf("wrapped: %w", err)))
		})
	}
}

func TestNewEngine_Invalid(t *testing.T) {
	_, err := NewEngine("x", nil, nil, MaxPossibleScore)
	assert.Error(t, err)

	_, err = NewEngine("x", DefaultContractCatalog(), nil, 0)
	assert.Error(t, err)
}

func TestEngine_Deterministic(t *testing.T) {
	e, err := NewContractEngine(nil)
	require.NoError(t, err)
	in := Input{Text: riskyServiceAgreement, Metadata: Metadata{ContractType: ContractService, OtherPartyName: "Beta LLC"}}

	first, err := e.Run(in)
	require.NoError(t, err)
	second, err := e.Run(in)
	require.NoError(t, err)

	b1, err := json.Marshal(first)
	require.NoError(t, err)
	b2, err := json.Marshal(second)
	require.NoError(t, err)
	assert.Equal(t, string(b1), string(b2))
}

func TestEngine_Monotonic(t *testing.T) {
	tokens := []string{"tok-a", "tok-b", "tok-c", "tok-d", "tok-e"}
	severities := []Severity{SeverityHigh, SeverityLow, SeverityMedium, SeverityHigh, SeverityLow}
	var factors []RiskFactor
	for i, tok := range tokens {
		factors = append(factors, RiskFactor{ID: tok, Severity: severities[i], Detect: ContainsAny(tok)})
	}
	e, err := NewEngine("mono", MustCatalog([]RiskCategory{
		{ID: "first", Factors: factors[:2]},
		{ID: "second", Factors: factors[2:]},
	}), nil, 40)
	require.NoError(t, err)

	overall := make(map[int]int)
	for mask := 0; mask < 1<<len(tokens); mask++ {
		var words []string
		for i, tok := range tokens {
			if mask&(1<<i) != 0 {
				words = append(words, tok)
			}
		}
		a, err := e.Run(Input{Text: "contract " + strings.Join(words, " ")})
		require.NoError(t, err)
		overall[mask] = a.OverallScore
	}

	for sub := range overall {
		for super := range overall {
			if sub&super == sub {
				assert.LessOrEqual(t, overall[sub], overall[super], "mask %b vs %b", sub, super)
			}
		}
	}
}

func TestEngine_JSONRoundTrip(t *testing.T) {
	e, err := NewContractEngine(nil)
	require.NoError(t, err)
	a, err := e.Run(Input{Text: riskyServiceAgreement, Metadata: Metadata{ContractType: ContractService}})
	require.NoError(t, err)

	data, err := json.Marshal(a)
	require.NoError(t, err)
	assert.Contains(t, string(data), `"categoryScores"`)
	assert.Contains(t, string(data), `"overallScore"`)
	assert.Contains(t, string(data), `"riskBand"`)
	assert.Contains(t, string(data), `"detectedFactors"`)

	var decoded OverallAssessment
	require.NoError(t, json.Unmarshal(data, &decoded))
	assert.Equal(t, *a, decoded)
}

func TestEngine_ConcurrentRuns(t *testing.T) {
	e, err := NewContractEngine(nil)
	require.NoError(t, err)
	in := Input{Text: riskyServiceAgreement, Metadata: Metadata{ContractType: ContractService}}
	want, err := e.Run(in)
	require.NoError(t, err)

	var wg sync.WaitGroup
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			got, err := e.Run(in)
			if assert.NoError(t, err) {
				assert.Equal(t, want, got)
			}
		}()
	}
	wg.Wait()
}

func TestEngine_FreshAssessmentPerRun(t *testing.T) {
	e := liabilityOnlyEngine(t)
	in := Input{Text: "unlimited liability", Metadata: Metadata{ContractType: ContractNDA}}

	first, err := e.Run(in)
	require.NoError(t, err)
	first.CategoryScores[0].DetectedFactors[0].Detected = false
	first.Recommendations[0] = "tampered"

	second, err := e.Run(in)
	require.NoError(t, err)
	assert.True(t, second.CategoryScores[0].DetectedFactors[0].Detected)
	assert.NotEqual(t, "tampered", second.Recommendations[0])
}

func TestOverallAssessment_Score(t *testing.T) {
	a := &OverallAssessment{CategoryScores: []CategoryScore{{CategoryID: "x", Score: 7}}}

	s, ok := a.Score("x")
	assert.True(t, ok)
	assert.Equal(t, 7, s)
	_, ok = a.Score("y")
	assert.False(t, ok)
}
