package scoring

import (
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
)

func TestInterpret_NoTransitSnapshot(t *testing.T) {
	got := Interpret(InterpretInputs{Period: 3.14159, Depth: 0.02, SNR: 1.234, Verdict: models.VerdictNoTransit})

	want := "No statistically significant transit signal is detected above the noise level. " +
		"A periodic signal near 3.14 days is present, but the signal-to-noise ratio (1.23) is below the detection threshold. " +
		"This signal is likely dominated by noise or stellar variability rather than a true planetary transit."
	assert.Equal(t, want, got)
}

func TestInterpret_Detection(t *testing.T) {
	got := Interpret(InterpretInputs{
		Period: 5.0, Depth: 0.01, OddDepth: 0.0100, EvenDepth: 0.0105, SNR: 10,
		Verdict: models.VerdictCandidate,
	})

	want := "A periodic transit signal with a period of 5.00 days is detected. " +
		"The transit depth of 0.0100 corresponds to a planet-to-star radius ratio of approximately 0.100. " +
		"Odd and even transits show consistent depths, reducing the likelihood of an eclipsing binary. " +
		"The short orbital period suggests a close-in planet orbiting its host star. " +
		"Overall, the signal exhibits characteristics consistent with a transiting exoplanet candidate."
	assert.Equal(t, want, got)
}

func TestInterpret_UsesTighterOddEvenTolerance(t *testing.T) {
	// 0.0015 passes the scorer's tolerance but not the explanation's.
	in := InterpretInputs{Period: 12, Depth: 0.004, OddDepth: 0.004, EvenDepth: 0.0055, Verdict: models.VerdictMarginal}

	got := Interpret(in)
	assert.Contains(t, got, "depth inconsistencies")
	assert.NotContains(t, got, "close-in planet")

	delta, _ := oddEvenConsistency(Inputs{OddDepth: in.OddDepth, EvenDepth: in.EvenDepth})
	assert.Equal(t, 15.0, delta)
}

func TestInterpret_SentenceOrder(t *testing.T) {
	got := Interpret(InterpretInputs{Period: 2, Depth: 0.0004, OddDepth: 0.001, EvenDepth: 0.003, Verdict: models.VerdictStrong})

	order := []string{"periodic transit signal", "radius ratio", "Odd and even", "close-in planet", "Overall"}
	last := -1
	for _, s := range order {
		i := strings.Index(got, s)
		assert.Greater(t, i, last, "sentence %q out of order", s)
		last = i
	}
}
