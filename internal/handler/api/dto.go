package api

import models "github.com/AbishekAnand15/exodetect-backend/internal/domain/models"

// ErrorResponse is the body of a failed /analyze call.
type ErrorResponse struct {
	Error string `json:"error"`
}

// AnalyzeResponse is the flat payload of a successful /analyze call.
type AnalyzeResponse struct {
	Period         float64   `json:"period"`
	Depth          float64   `json:"depth"`
	SNR            float64   `json:"snr"`
	OddDepth       float64   `json:"odd_depth"`
	EvenDepth      float64   `json:"even_depth"`
	SecondaryDepth float64   `json:"secondary_depth"`
	TransitPoints  int       `json:"transit_points"`
	Verdict        string    `json:"verdict"`
	Confidence     float64   `json:"confidence"`
	Interpretation string    `json:"interpretation"`
	Time           []float64 `json:"time"`
	Flux           []float64 `json:"flux"`
	Phase          []float64 `json:"phase"`
	FoldedFlux     []float64 `json:"folded_flux"`
}

func NewAnalyzeResponse(r *models.PipelineResult) AnalyzeResponse {
	return AnalyzeResponse{
		Period:         r.Transit.Period,
		Depth:          r.Transit.Depth,
		SNR:            r.Vetting.SNR,
		OddDepth:       r.Vetting.OddDepth,
		EvenDepth:      r.Vetting.EvenDepth,
		SecondaryDepth: r.Vetting.SecondaryDepth,
		TransitPoints:  r.Vetting.TransitPoints,
		Verdict:        string(r.Verdict),
		Confidence:     r.Confidence,
		Interpretation: r.Interpretation,
		Time:           r.Raw.Time,
		Flux:           r.Raw.Flux,
		Phase:          r.Folded.Phase,
		FoldedFlux:     r.Folded.Flux,
	}
}
