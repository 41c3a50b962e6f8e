// Package stats holds the robust statistics shared by preprocessing, sector stitching and vetting.
package stats

import (
	"math"
	"sort"
)

// Median returns the median of xs and false when xs is empty. xs is not modified.
func Median(xs []float64) (float64, bool) {
	if len(xs) == 0 {
		return 0, false
	}
	s := append([]float64(nil), xs...)
	sort.Float64s(s)
	return SortedMedian(s), true
}

// SortedMedian returns the median of an already sorted, non-empty slice.
func SortedMedian(s []float64) float64 {
	n := len(s)
	if n%2 == 1 {
		return s[n/2]
	}
	return (s[n/2-1] + s[n/2]) / 2
}

// FiniteMedian is Median over the finite values of xs.
func FiniteMedian(xs []float64) (float64, bool) {
	vals := make([]float64, 0, len(xs))
	for _, x := range xs {
		if !math.IsNaN(x) && !math.IsInf(x, 0) {
			vals = append(vals, x)
		}
	}
	return Median(vals)
}

// MAD returns the median absolute deviation of xs around its median.
func MAD(xs []float64) (float64, bool) {
	m, ok := Median(xs)
	if !ok {
		return 0, false
	}
	dev := make([]float64, len(xs))
	for i, x := range xs {
		dev[i] = math.Abs(x - m)
	}
	return Median(dev)
}

// StdDev is the population standard deviation of xs, 0 when xs is empty.
func StdDev(xs []float64) float64 {
	if len(xs) == 0 {
		return 0
	}
	var mean float64
	for _, x := range xs {
		mean += x
	}
	mean /= float64(len(xs))
	var ss float64
	for _, x := range xs {
		ss += (x - mean) * (x - mean)
	}
	return math.Sqrt(ss / float64(len(xs)))
}
