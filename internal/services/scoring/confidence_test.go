package scoring

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
)

func planetLike() Inputs {
	return Inputs{
		Depth:          0.01,
		SNR:            10,
		OddDepth:       0.01,
		EvenDepth:      0.0105,
		SecondaryDepth: 0.001,
		TransitPoints:  60,
		Period:         5.0,
	}
}

func TestConfidence_ReferenceScenario(t *testing.T) {
	in := planetLike()

	b := Explain(in)
	require.False(t, b.Gated)

	base := 50 * (1 - math.Exp(-7.0/5))
	assert.InDelta(t, base-25+15+15+10+10, b.Raw, 1e-9)
	assert.Equal(t, 62.7, b.Score)
	assert.Equal(t, models.VerdictCandidate, Classify(b.Score))

	names := make([]string, 0, len(b.Adjustments))
	for _, a := range b.Adjustments {
		names = append(names, a.Rule)
	}
	assert.Equal(t, []string{
		"snr_base",
		"depth_binary_penalty",
		"depth_realism",
		"odd_even_consistency",
		"secondary_eclipse",
		"transit_support",
	}, names)
}

func TestConfidence_SNRGate(t *testing.T) {
	cases := []Inputs{
		{SNR: 0},
		{SNR: 2.999, Depth: 0.001, Period: 12, TransitPoints: 500},
		{SNR: -4, Depth: 0.9, Period: 0.1, OddDepth: 1, SecondaryDepth: 1},
	}
	for _, in := range cases {
		b := Explain(in)
		assert.True(t, b.Gated)
		assert.Empty(t, b.Adjustments)
		assert.Equal(t, 5.0, Confidence(in))
	}
}

func TestConfidence_GateBoundaryIsNotGated(t *testing.T) {
	in := planetLike()
	in.SNR = 3
	b := Explain(in)
	assert.False(t, b.Gated)
	assert.Equal(t, 0.0, b.Adjustments[0].Delta)
}

func TestConfidence_ClampsOnceAtTheEnd(t *testing.T) {
	high := Inputs{SNR: 1000, Depth: 0.001, OddDepth: 0.001, EvenDepth: 0.001, TransitPoints: 80, Period: 12}
	assert.Equal(t, 95.0, Confidence(high))
	assert.InDelta(t, 100.0, Explain(high).Raw, 1e-9)

	low := Inputs{SNR: 3, Depth: 0.1, OddDepth: 0.1, EvenDepth: 0.05, SecondaryDepth: 0.1, TransitPoints: 3, Period: 1}
	assert.Equal(t, 0.0, Confidence(low))
	assert.InDelta(t, -90.0, Explain(low).Raw, 1e-9)
}

func TestConfidence_BoundedAndRounded(t *testing.T) {
	for snr := 0.0; snr < 60; snr += 0.37 {
		for _, depth := range []float64{0, 0.0015, 0.002, 0.0021, 0.019, 0.02, 0.049, 0.05, 0.3} {
			for _, period := range []float64{0.6, 1.5, 2.9, 3.0, 14} {
				for _, points := range []int{0, 19, 20, 49, 50} {
					c := Confidence(Inputs{
						Depth: depth, SNR: snr, OddDepth: depth, EvenDepth: depth * 1.2,
						SecondaryDepth: depth * 0.2, TransitPoints: points, Period: period,
					})
					require.GreaterOrEqual(t, c, 0.0)
					require.LessOrEqual(t, c, 95.0)
					require.InDelta(t, math.Round(c*10), c*10, 1e-6)
				}
			}
		}
	}
}

func TestRules_Isolated(t *testing.T) {
	tests := []struct {
		name  string
		rule  func(Inputs) (float64, bool)
		in    Inputs
		delta float64
		fired bool
	}{
		{"snr base saturates", snrBase, Inputs{SNR: 500}, 50, true},
		{"snr base at gate", snrBase, Inputs{SNR: 3}, 0, true},
		{"depth penalty above threshold", depthBinaryPenalty, Inputs{Depth: 0.0021}, -25, true},
		{"depth penalty at threshold", depthBinaryPenalty, Inputs{Depth: 0.002}, 0, false},
		{"very short period", shortPeriodPenalty, Inputs{Period: 1.49}, -30, true},
		{"short period lower bound", shortPeriodPenalty, Inputs{Period: 1.5}, -15, true},
		{"period at 3 days", shortPeriodPenalty, Inputs{Period: 3}, 0, false},
		{"shallow depth bonus", depthRealism, Inputs{Depth: 0.019}, 15, true},
		{"moderate depth bonus", depthRealism, Inputs{Depth: 0.02}, 8, true},
		{"deep transit no bonus", depthRealism, Inputs{Depth: 0.05}, 0, false},
		{"odd even consistent", oddEvenConsistency, Inputs{OddDepth: 0.010, EvenDepth: 0.0119}, 15, true},
		{"odd even inconsistent", oddEvenConsistency, Inputs{OddDepth: 0.010, EvenDepth: 0.0121}, -10, true},
		{"no secondary", secondaryEclipse, Inputs{Depth: 0.01, SecondaryDepth: 0.0029}, 10, true},
		{"significant secondary", secondaryEclipse, Inputs{Depth: 0.01, SecondaryDepth: 0.004}, -15, true},
		{"many transit points", transitSupport, Inputs{TransitPoints: 50}, 10, true},
		{"some transit points", transitSupport, Inputs{TransitPoints: 20}, 5, true},
		{"few transit points", transitSupport, Inputs{TransitPoints: 19}, -10, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			delta, fired := tt.rule(tt.in)
			assert.Equal(t, tt.fired, fired)
			assert.InDelta(t, tt.delta, delta, 1e-9)
		})
	}
}

func TestConfidence_DepthPenaltyAndBonusStack(t *testing.T) {
	in := planetLike()
	in.Depth = 0.005
	in.SecondaryDepth = 0

	fired := map[string]float64{}
	for _, a := range Explain(in).Adjustments {
		fired[a.Rule] = a.Delta
	}
	assert.Equal(t, -25.0, fired["depth_binary_penalty"])
	assert.Equal(t, 15.0, fired["depth_realism"])
}

func TestConfidence_SymmetricOddEvenGetsBonus(t *testing.T) {
	in := planetLike()
	in.OddDepth, in.EvenDepth = 0.0123, 0.0123

	delta, fired := oddEvenConsistency(in)
	require.True(t, fired)
	assert.Equal(t, 15.0, delta)
}
