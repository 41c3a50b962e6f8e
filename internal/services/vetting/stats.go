package vetting

import "github.com/AbishekAnand15/exodetect-backend/internal/services/stats"

// madToSigma scales a median absolute deviation to a normal standard deviation.
const madToSigma = 1.4826

// robustSigma estimates a standard deviation from the MAD.
func robustSigma(xs []float64) (float64, bool) {
	d, ok := stats.MAD(xs)
	if !ok {
		return 0, false
	}
	return madToSigma * d, true
}
