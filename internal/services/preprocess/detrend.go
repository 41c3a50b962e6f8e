// Package preprocess cleans, flattens and phase-folds light curves ahead of vetting.
package preprocess

import (
	"math"
	"sort"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	"github.com/AbishekAnand15/exodetect-backend/internal/services/stats"
)

const minDetrendSamples = 3

// DetrendOptions configures SigmaClipDetrender.
type DetrendOptions struct {
	// OutlierSigma is the clip threshold in standard deviations around the median.
	OutlierSigma float64
	// Window is the running-median length in samples. Even values are rounded up.
	Window int
}

// SigmaClipDetrender drops non-finite samples and outliers, then divides by a running median.
type SigmaClipDetrender struct {
	sigma  float64
	window int
}

func NewSigmaClipDetrender(opts DetrendOptions) *SigmaClipDetrender {
	if opts.OutlierSigma <= 0 {
		opts.OutlierSigma = 5
	}
	if opts.Window < 3 {
		opts.Window = 401
	}
	if opts.Window%2 == 0 {
		opts.Window++
	}
	return &SigmaClipDetrender{sigma: opts.OutlierSigma, window: opts.Window}
}

// Detrend returns the cleaned series and its flattened counterpart. Both share the same timestamps.
func (d *SigmaClipDetrender) Detrend(lc *models.LightCurve) (*models.LightCurve, *models.LightCurve, error) {
	finite := dropNonFinite(lc)
	if finite.Len() < minDetrendSamples {
		return nil, nil, &models.InsufficientDataError{
			Metric: "detrend", Bucket: "finite samples", Have: finite.Len(), Need: minDetrendSamples,
		}
	}

	cleaned := clipOutliers(finite, d.sigma)
	if cleaned.Len() < minDetrendSamples {
		return nil, nil, &models.InsufficientDataError{
			Metric: "detrend", Bucket: "clipped samples", Have: cleaned.Len(), Need: minDetrendSamples,
		}
	}

	trend := runningMedian(cleaned.Flux, d.window)
	flat := &models.LightCurve{
		Target: cleaned.Target,
		Time:   append([]float64(nil), cleaned.Time...),
		Flux:   make([]float64, cleaned.Len()),
	}
	for i, f := range cleaned.Flux {
		if trend[i] == 0 {
			flat.Flux[i] = f
			continue
		}
		flat.Flux[i] = f / trend[i]
	}
	return cleaned, flat, nil
}

func dropNonFinite(lc *models.LightCurve) *models.LightCurve {
	out := &models.LightCurve{}
	if lc == nil {
		return out
	}
	out.Target = lc.Target
	n := len(lc.Time)
	if len(lc.Flux) < n {
		n = len(lc.Flux)
	}
	out.Time = make([]float64, 0, n)
	out.Flux = make([]float64, 0, n)
	for i := 0; i < n; i++ {
		t, f := lc.Time[i], lc.Flux[i]
		if math.IsNaN(t) || math.IsInf(t, 0) || math.IsNaN(f) || math.IsInf(f, 0) {
			continue
		}
		out.Time = append(out.Time, t)
		out.Flux = append(out.Flux, f)
	}
	return out
}

// clipOutliers keeps samples within sigma standard deviations of the median flux.
func clipOutliers(lc *models.LightCurve, sigma float64) *models.LightCurve {
	center, _ := stats.Median(lc.Flux)
	std := stats.StdDev(lc.Flux)
	if std == 0 {
		return lc
	}
	limit := sigma * std

	out := &models.LightCurve{
		Target: lc.Target,
		Time:   make([]float64, 0, lc.Len()),
		Flux:   make([]float64, 0, lc.Len()),
	}
	for i, f := range lc.Flux {
		if math.Abs(f-center) >= limit {
			continue
		}
		out.Time = append(out.Time, lc.Time[i])
		out.Flux = append(out.Flux, f)
	}
	return out
}

// runningMedian returns the median of the centered window around each sample.
// The window shrinks near the ends instead of padding.
func runningMedian(xs []float64, window int) []float64 {
	n := len(xs)
	half := window / 2
	out := make([]float64, n)

	win := make([]float64, 0, window)
	for j := 0; j <= half && j < n; j++ {
		win = insertSorted(win, xs[j])
	}
	for i := 0; i < n; i++ {
		out[i] = stats.SortedMedian(win)
		if add := i + half + 1; add < n {
			win = insertSorted(win, xs[add])
		}
		if drop := i - half; drop >= 0 {
			win = removeSorted(win, xs[drop])
		}
	}
	return out
}

func insertSorted(s []float64, v float64) []float64 {
	i := sort.SearchFloat64s(s, v)
	s = append(s, 0)
	copy(s[i+1:], s[i:])
	s[i] = v
	return s
}

func removeSorted(s []float64, v float64) []float64 {
	i := sort.SearchFloat64s(s, v)
	if i >= len(s) || s[i] != v {
		return s
	}
	return append(s[:i], s[i+1:]...)
}
