package models

// LightCurve is a time-ordered brightness series. Time is in days (BTJD for TESS),
// flux is normalized near 1.0. Times must be strictly increasing.
type LightCurve struct {
	Target string
	Time   []float64
	Flux   []float64
}

// Len returns the number of samples.
func (lc *LightCurve) Len() int {
	if lc == nil {
		return 0
	}
	return len(lc.Time)
}

// FoldedLightCurve is a light curve remapped onto orbital phase in [-0.5, 0.5).
// Samples are ordered by phase.
type FoldedLightCurve struct {
	Period float64
	Epoch  float64
	Phase  []float64
	Flux   []float64
}

// Len returns the number of samples.
func (f *FoldedLightCurve) Len() int {
	if f == nil {
		return 0
	}
	return len(f.Phase)
}

// Sector is one observation sector returned by the archive.
type Sector struct {
	Sector int
	Time   []float64
	Flux   []float64
}
