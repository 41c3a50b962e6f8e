package scoring

import "github.com/AbishekAnand15/exodetect-backend/internal/domain/models"

// verdictBins are inclusive floors, highest first. Anything under 10 has no transit.
var verdictBins = []struct {
	floor   float64
	verdict models.Verdict
}{
	{85, models.VerdictHighConfidence},
	{70, models.VerdictStrong},
	{50, models.VerdictCandidate},
	{30, models.VerdictMarginal},
	{10, models.VerdictFalsePositive},
}

// Classify maps a confidence to its verdict.
func Classify(confidence float64) models.Verdict {
	for _, b := range verdictBins {
		if confidence >= b.floor {
			return b.verdict
		}
	}
	return models.VerdictNoTransit
}
