package scoring

import (
	"fmt"
	"math"
	"strings"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
)

// Tighter than the scorer's 0.002 on purpose; the two are independent.
const interpretOddEvenTolerance = 0.001

// InterpretInputs are the values the explanation cites.
type InterpretInputs struct {
	Period    float64
	Depth     float64
	OddDepth  float64
	EvenDepth float64
	SNR       float64
	Verdict   models.Verdict
}

// Interpret renders a plain-language explanation of a verdict.
func Interpret(in InterpretInputs) string {
	if in.Verdict == models.VerdictNoTransit {
		return strings.Join([]string{
			"No statistically significant transit signal is detected above the noise level.",
			fmt.Sprintf("A periodic signal near %.2f days is present, but the signal-to-noise ratio (%.2f) is below the detection threshold.", in.Period, in.SNR),
			"This signal is likely dominated by noise or stellar variability rather than a true planetary transit.",
		}, " ")
	}

	lines := []string{
		fmt.Sprintf("A periodic transit signal with a period of %.2f days is detected.", in.Period),
		fmt.Sprintf("The transit depth of %.4f corresponds to a planet-to-star radius ratio of approximately %.3f.", in.Depth, math.Sqrt(in.Depth)),
	}
	if math.Abs(in.OddDepth-in.EvenDepth) < interpretOddEvenTolerance {
		lines = append(lines, "Odd and even transits show consistent depths, reducing the likelihood of an eclipsing binary.")
	} else {
		lines = append(lines, "Odd and even transits show depth inconsistencies, which may indicate a false positive.")
	}
	if in.Period < 10 {
		lines = append(lines, "The short orbital period suggests a close-in planet orbiting its host star.")
	}
	lines = append(lines, "Overall, the signal exhibits characteristics consistent with a transiting exoplanet candidate.")
	return strings.Join(lines, " ")
}
