package models

// Verdict is the categorical outcome of a run, ordered from weakest to strongest.
type Verdict string

const (
	VerdictNoTransit      Verdict = "No Significant Transit Detected"
	VerdictFalsePositive  Verdict = "Likely False Positive"
	VerdictMarginal       Verdict = "Marginal Planet Candidate"
	VerdictCandidate      Verdict = "Planet Candidate"
	VerdictStrong         Verdict = "Strong Planet Candidate"
	VerdictHighConfidence Verdict = "High-Confidence Planet Candidate"
)

// Verdicts lists every verdict in ascending order.
var Verdicts = []Verdict{
	VerdictNoTransit,
	VerdictFalsePositive,
	VerdictMarginal,
	VerdictCandidate,
	VerdictStrong,
	VerdictHighConfidence,
}

// Rank returns the position of v in Verdicts, or -1.
func (v Verdict) Rank() int {
	for i, x := range Verdicts {
		if x == v {
			return i
		}
	}
	return -1
}
