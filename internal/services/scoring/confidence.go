// Package scoring turns vetting statistics into a bounded confidence value,
// a verdict, and a plain-language explanation.
package scoring

import "math"

const (
	// GateSNR is the SNR below which every candidate scores GatedScore.
	GateSNR = 3.0
	// GatedScore is returned for any candidate under the SNR gate.
	GatedScore = 5.0
	// MaxScore is the upper clamp of the confidence.
	MaxScore = 95.0
)

// Inputs are the values the confidence heuristic depends on.
type Inputs struct {
	Depth          float64
	SNR            float64
	OddDepth       float64
	EvenDepth      float64
	SecondaryDepth float64
	TransitPoints  int
	Period         float64
}

// Rule is one named additive adjustment. Apply reports whether it fired and by how much.
type Rule struct {
	Name  string
	Apply func(in Inputs) (delta float64, fired bool)
}

// Adjustment is a rule that fired during scoring.
type Adjustment struct {
	Rule  string  `json:"rule"`
	Delta float64 `json:"delta"`
}

// Breakdown explains how a score was reached.
type Breakdown struct {
	Gated       bool         `json:"gated"`
	Adjustments []Adjustment `json:"adjustments,omitempty"`
	Raw         float64      `json:"raw"`
	Score       float64      `json:"score"`
}

// Rules is the scoring order. Deltas accumulate from zero and are clamped once at the end.
var Rules = []Rule{
	{Name: "snr_base", Apply: snrBase},
	{Name: "depth_binary_penalty", Apply: depthBinaryPenalty},
	{Name: "short_period_penalty", Apply: shortPeriodPenalty},
	{Name: "depth_realism", Apply: depthRealism},
	{Name: "odd_even_consistency", Apply: oddEvenConsistency},
	{Name: "secondary_eclipse", Apply: secondaryEclipse},
	{Name: "transit_support", Apply: transitSupport},
}

// Confidence scores a candidate in [0, 95], rounded to one decimal.
func Confidence(in Inputs) float64 {
	return Explain(in).Score
}

// Explain folds Rules over in and returns every fired adjustment.
func Explain(in Inputs) Breakdown {
	if in.SNR < GateSNR {
		return Breakdown{Gated: true, Raw: GatedScore, Score: GatedScore}
	}
	b := Breakdown{Adjustments: make([]Adjustment, 0, len(Rules))}
	for _, r := range Rules {
		delta, fired := r.Apply(in)
		if !fired {
			continue
		}
		b.Raw += delta
		b.Adjustments = append(b.Adjustments, Adjustment{Rule: r.Name, Delta: delta})
	}
	b.Score = round1(clamp(b.Raw, 0, MaxScore))
	return b
}

func snrBase(in Inputs) (float64, bool) {
	return math.Min(50, 50*(1-math.Exp(-(in.SNR-GateSNR)/5))), true
}

// Large depths look more like eclipsing binaries.
func depthBinaryPenalty(in Inputs) (float64, bool) {
	if in.Depth > 0.002 {
		return -25, true
	}
	return 0, false
}

// Short-period systems are disproportionately binaries.
func shortPeriodPenalty(in Inputs) (float64, bool) {
	switch {
	case in.Period < 1.5:
		return -30, true
	case in.Period < 3.0:
		return -15, true
	}
	return 0, false
}

// Fires together with depthBinaryPenalty for depths in (0.002, 0.02).
func depthRealism(in Inputs) (float64, bool) {
	switch {
	case in.Depth < 0.02:
		return 15, true
	case in.Depth < 0.05:
		return 8, true
	}
	return 0, false
}

func oddEvenConsistency(in Inputs) (float64, bool) {
	if math.Abs(in.OddDepth-in.EvenDepth) < 0.002 {
		return 15, true
	}
	return -10, true
}

func secondaryEclipse(in Inputs) (float64, bool) {
	if in.SecondaryDepth < 0.3*in.Depth {
		return 10, true
	}
	return -15, true
}

func transitSupport(in Inputs) (float64, bool) {
	switch {
	case in.TransitPoints >= 50:
		return 10, true
	case in.TransitPoints >= 20:
		return 5, true
	}
	return -10, true
}

func clamp(x, lo, hi float64) float64 {
	return math.Max(lo, math.Min(hi, x))
}

func round1(x float64) float64 {
	return math.Round(x*10) / 10
}
