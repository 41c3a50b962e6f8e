package models

import "time"

// TransitResult is the best-fit box transit reported by the period search.
type TransitResult struct {
	Period   float64 // days
	Duration float64 // days
	Depth    float64 // fractional, [0, 1)
	// Epoch is the mid-transit time when the search reports one.
	Epoch *float64
	Power float64
}

// VettingReport holds the statistical checks computed from a folded light curve.
type VettingReport struct {
	OddDepth       float64
	EvenDepth      float64
	SNR            float64
	SecondaryDepth float64
	TransitPoints  int
}

// PipelineResult is the complete outcome of one successful run.
type PipelineResult struct {
	Target         string
	Transit        TransitResult
	Vetting        VettingReport
	Confidence     float64
	Verdict        Verdict
	Interpretation string
	Raw            *LightCurve
	Folded         *FoldedLightCurve
	CompletedAt    time.Time
	Elapsed        time.Duration
}

// AnalysisRecord is the persisted summary of a completed run.
type AnalysisRecord struct {
	Target         string    `json:"tic_id"`
	Period         float64   `json:"period"`
	Duration       float64   `json:"duration"`
	Depth          float64   `json:"depth"`
	SNR            float64   `json:"snr"`
	OddDepth       float64   `json:"odd_depth"`
	EvenDepth      float64   `json:"even_depth"`
	SecondaryDepth float64   `json:"secondary_depth"`
	TransitPoints  int       `json:"transit_points"`
	Confidence     float64   `json:"confidence"`
	Verdict        string    `json:"verdict"`
	Samples        int       `json:"samples"`
	CompletedAt    time.Time `json:"completed_at"`
}

// Record summarizes the result for storage and events.
func (r *PipelineResult) Record() AnalysisRecord {
	return AnalysisRecord{
		Target:         r.Target,
		Period:         r.Transit.Period,
		Duration:       r.Transit.Duration,
		Depth:          r.Transit.Depth,
		SNR:            r.Vetting.SNR,
		OddDepth:       r.Vetting.OddDepth,
		EvenDepth:      r.Vetting.EvenDepth,
		SecondaryDepth: r.Vetting.SecondaryDepth,
		TransitPoints:  r.Vetting.TransitPoints,
		Confidence:     r.Confidence,
		Verdict:        string(r.Verdict),
		Samples:        r.Raw.Len(),
		CompletedAt:    r.CompletedAt,
	}
}
