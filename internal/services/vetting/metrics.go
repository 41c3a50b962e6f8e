// Package vetting computes the statistical checks that separate planetary
// transits from eclipsing binaries and noise on a phase-folded light curve.
package vetting

import (
	"math"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	"github.com/AbishekAnand15/exodetect-backend/internal/services/stats"
)

// Options tunes the in-transit windows. Zero values fall back to defaults.
type Options struct {
	SNRPhaseWidth      float64 // |phase| below this is in transit for SNR
	TransitWindow      float64 // |phase| below this counts toward transit points
	MinInTransit       int     // fewer in-transit samples means SNR 0
	SecondaryHalfWidth float64 // half width of the window centered on phase 0.5
}

// DefaultOptions returns the standard vetting windows.
func DefaultOptions() Options {
	return Options{
		SNRPhaseWidth:      0.04,
		TransitWindow:      0.05,
		MinInTransit:       10,
		SecondaryHalfWidth: 0.05,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.SNRPhaseWidth <= 0 {
		o.SNRPhaseWidth = d.SNRPhaseWidth
	}
	if o.TransitWindow <= 0 {
		o.TransitWindow = d.TransitWindow
	}
	if o.MinInTransit <= 0 {
		o.MinInTransit = d.MinInTransit
	}
	if o.SecondaryHalfWidth <= 0 {
		o.SecondaryHalfWidth = d.SecondaryHalfWidth
	}
	return o
}

// Calculator computes a VettingReport from a folded light curve.
type Calculator struct {
	opts Options
}

// NewCalculator builds a Calculator.
func NewCalculator(opts Options) *Calculator {
	return &Calculator{opts: opts.withDefaults()}
}

// Options returns the effective options.
func (c *Calculator) Options() Options { return c.opts }

// Compute runs every check. Only the odd/even split can fail.
func (c *Calculator) Compute(folded *models.FoldedLightCurve, depth float64) (models.VettingReport, error) {
	odd, even, err := OddEvenDepths(folded)
	if err != nil {
		return models.VettingReport{}, err
	}
	return models.VettingReport{
		OddDepth:       odd,
		EvenDepth:      even,
		SNR:            c.SNR(folded, depth),
		SecondaryDepth: c.SecondaryDepth(folded),
		TransitPoints:  c.TransitPoints(folded),
	}, nil
}

// OddEvenDepths estimates the depth on each side of phase zero as
// 1 - median(flux). Phase in (-0.5, 0) is odd, (0, 0.5) is even.
// An empty side yields an InsufficientDataError.
func OddEvenDepths(folded *models.FoldedLightCurve) (odd, even float64, err error) {
	var oddFlux, evenFlux []float64
	for i, p := range folded.Phase {
		switch {
		case p > -0.5 && p < 0:
			oddFlux = append(oddFlux, folded.Flux[i])
		case p > 0 && p < 0.5:
			evenFlux = append(evenFlux, folded.Flux[i])
		}
	}
	mo, ok := stats.Median(oddFlux)
	if !ok {
		return 0, 0, &models.InsufficientDataError{Metric: "odd_even_depth", Bucket: "odd"}
	}
	me, ok := stats.Median(evenFlux)
	if !ok {
		return 0, 0, &models.InsufficientDataError{Metric: "odd_even_depth", Bucket: "even"}
	}
	return 1 - mo, 1 - me, nil
}

// SNR measures depth in units of the standard error of the mean in-transit flux.
// Out-of-transit noise is the MAD-scaled sigma. Too few in-transit samples or a
// non-positive noise estimate give 0.
func (c *Calculator) SNR(folded *models.FoldedLightCurve, depth float64) float64 {
	var oot []float64
	inTransit := 0
	for i, p := range folded.Phase {
		if math.Abs(p) < c.opts.SNRPhaseWidth {
			inTransit++
			continue
		}
		oot = append(oot, folded.Flux[i])
	}
	if inTransit < c.opts.MinInTransit {
		return 0
	}
	sigma, ok := robustSigma(oot)
	if !ok || sigma <= 0 {
		return 0
	}
	return depth / (sigma / math.Sqrt(float64(inTransit)))
}

// SecondaryDepth is 1 - median(flux) for phase in (0.5-w, 0.5+w), or 0 when the window is empty.
// Folded phases stay below 0.5, so only (0.5-w, 0.5) is populated. The negative edge is excluded.
func (c *Calculator) SecondaryDepth(folded *models.FoldedLightCurve) float64 {
	lo := 0.5 - c.opts.SecondaryHalfWidth
	hi := 0.5 + c.opts.SecondaryHalfWidth
	var window []float64
	for i, p := range folded.Phase {
		if p > lo && p < hi {
			window = append(window, folded.Flux[i])
		}
	}
	m, ok := stats.Median(window)
	if !ok {
		return 0
	}
	return 1 - m
}

// TransitPoints counts samples with |phase| inside the transit window.
func (c *Calculator) TransitPoints(folded *models.FoldedLightCurve) int {
	n := 0
	for _, p := range folded.Phase {
		if math.Abs(p) < c.opts.TransitWindow {
			n++
		}
	}
	return n
}
