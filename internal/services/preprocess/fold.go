package preprocess

import (
	"fmt"
	"math"
	"sort"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	domsvc "github.com/AbishekAnand15/exodetect-backend/internal/domain/service"
)

// PhaseFolder maps each sample to its orbital phase in [-0.5, 0.5), transit centered on zero.
type PhaseFolder struct{}

func NewPhaseFolder() *PhaseFolder { return &PhaseFolder{} }

// Fold returns the phase-ordered folded series.
func (PhaseFolder) Fold(lc *models.LightCurve, period, epoch float64) (*models.FoldedLightCurve, error) {
	if period <= 0 || math.IsNaN(period) || math.IsInf(period, 0) {
		return nil, fmt.Errorf("fold: invalid period %v", period)
	}
	if lc.Len() == 0 {
		return nil, &models.InsufficientDataError{Metric: "fold", Bucket: "samples"}
	}

	n := lc.Len()
	idx := make([]int, n)
	phase := make([]float64, n)
	for i, t := range lc.Time {
		idx[i] = i
		phase[i] = Phase(t, period, epoch)
	}
	sort.SliceStable(idx, func(a, b int) bool { return phase[idx[a]] < phase[idx[b]] })

	out := &models.FoldedLightCurve{
		Period: period,
		Epoch:  epoch,
		Phase:  make([]float64, n),
		Flux:   make([]float64, n),
	}
	for k, i := range idx {
		out.Phase[k] = phase[i]
		out.Flux[k] = lc.Flux[i]
	}
	return out, nil
}

// Phase returns frac((t-epoch)/period + 0.5) - 0.5.
func Phase(t, period, epoch float64) float64 {
	x := (t-epoch)/period + 0.5
	p := x - math.Floor(x) - 0.5
	if p >= 0.5 {
		p -= 1
	}
	return p
}

var _ domsvc.Folder = PhaseFolder{}
