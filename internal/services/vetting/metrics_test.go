package vetting

import (
	"errors"
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
)

// folded builds a folded curve from phase/flux pairs.
func folded(pairs ...[2]float64) *models.FoldedLightCurve {
	f := &models.FoldedLightCurve{Period: 3}
	for _, p := range pairs {
		f.Phase = append(f.Phase, p[0])
		f.Flux = append(f.Flux, p[1])
	}
	return f
}

// syntheticTransit returns n evenly spaced phases with a box dip of depth in |phase| < halfWidth
// and a repeating -noise, 0, +noise pattern elsewhere.
func syntheticTransit(n int, depth, halfWidth, noise float64) *models.FoldedLightCurve {
	f := &models.FoldedLightCurve{Period: 4}
	for i := 0; i < n; i++ {
		p := -0.5 + float64(i)/float64(n)
		flux := 1.0
		if math.Abs(p) < halfWidth {
			flux -= depth
		} else {
			flux += noise * float64(i%3-1)
		}
		f.Phase = append(f.Phase, p)
		f.Flux = append(f.Flux, flux)
	}
	return f
}

func TestOddEvenDepths_Symmetric(t *testing.T) {
	f := folded(
		[2]float64{-0.3, 0.99}, [2]float64{-0.2, 1.0}, [2]float64{-0.1, 0.98},
		[2]float64{0.1, 0.98}, [2]float64{0.2, 1.0}, [2]float64{0.3, 0.99},
	)
	odd, even, err := OddEvenDepths(f)
	require.NoError(t, err)
	assert.InDelta(t, 0.01, odd, 1e-12)
	assert.Equal(t, odd, even)
}

func TestOddEvenDepths_ExcludesPhaseZeroAndEdge(t *testing.T) {
	f := folded([2]float64{-0.5, 0.5}, [2]float64{-0.25, 0.997}, [2]float64{0, 0.5}, [2]float64{0.25, 0.995})
	odd, even, err := OddEvenDepths(f)
	require.NoError(t, err)
	assert.InDelta(t, 0.003, odd, 1e-12)
	assert.InDelta(t, 0.005, even, 1e-12)
}

func TestOddEvenDepths_EmptyBucket(t *testing.T) {
	tests := []struct {
		name   string
		f      *models.FoldedLightCurve
		bucket string
	}{
		{"no odd samples", folded([2]float64{0, 1}, [2]float64{0.2, 0.99}), "odd"},
		{"no even samples", folded([2]float64{-0.2, 0.99}, [2]float64{0, 1}), "even"},
		{"empty curve", folded(), "odd"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := OddEvenDepths(tt.f)
			require.Error(t, err)
			assert.True(t, errors.Is(err, models.ErrInsufficientData))

			var ide *models.InsufficientDataError
			require.True(t, errors.As(err, &ide))
			assert.Equal(t, tt.bucket, ide.Bucket)
		})
	}
}

func TestSNR_TooFewInTransitSamples(t *testing.T) {
	c := NewCalculator(Options{})
	// 9 samples inside |phase| < 0.04 regardless of depth or noise.
	f := &models.FoldedLightCurve{}
	for i := 0; i < 9; i++ {
		f.Phase = append(f.Phase, -0.03+float64(i)*0.0075)
		f.Flux = append(f.Flux, 0.5)
	}
	for i := 0; i < 100; i++ {
		f.Phase = append(f.Phase, 0.1+float64(i)*0.003)
		f.Flux = append(f.Flux, 1+0.01*float64(i%5))
	}
	assert.Equal(t, 0.0, c.SNR(f, 0.5))
	assert.Equal(t, 0.0, c.SNR(f, 1e-6))
}

func TestSNR_ZeroNoise(t *testing.T) {
	c := NewCalculator(Options{})
	f := syntheticTransit(1000, 0.01, 0.04, 0)
	assert.Equal(t, 0.0, c.SNR(f, 0.01))
}

func TestSNR_MADScaledStandardError(t *testing.T) {
	c := NewCalculator(Options{})
	f := syntheticTransit(1000, 0.01, 0.04, 0.001)

	in := 0
	for _, p := range f.Phase {
		if math.Abs(p) < 0.04 {
			in++
		}
	}
	require.GreaterOrEqual(t, in, 10)

	want := 0.01 / (1.4826 * 0.001 / math.Sqrt(float64(in)))
	assert.InEpsilon(t, want, c.SNR(f, 0.01), 1e-6)
}

func TestSNR_ConfigurableWidth(t *testing.T) {
	f := syntheticTransit(1000, 0.01, 0.04, 0.001)
	narrow := NewCalculator(Options{SNRPhaseWidth: 0.004})
	assert.Equal(t, 0.0, narrow.SNR(f, 0.01), "a 0.004 window holds fewer than 10 samples")

	wide := NewCalculator(Options{SNRPhaseWidth: 0.04})
	assert.Greater(t, wide.SNR(f, 0.01), 0.0)
}

func TestSecondaryDepth(t *testing.T) {
	c := NewCalculator(Options{})

	empty := folded([2]float64{-0.2, 0.9}, [2]float64{0, 0.9}, [2]float64{0.3, 0.9})
	assert.Equal(t, 0.0, c.SecondaryDepth(empty))

	both := folded(
		[2]float64{-0.49, 0.95}, [2]float64{-0.46, 0.95},
		[2]float64{0, 0.9},
		[2]float64{0.46, 0.998}, [2]float64{0.48, 0.997},
	)
	assert.InDelta(t, 0.0025, c.SecondaryDepth(both), 1e-12, "negative-edge samples are excluded")

	negativeOnly := folded(
		[2]float64{-0.49, 0.95}, [2]float64{-0.47, 0.95},
		[2]float64{-0.2, 1}, [2]float64{0, 0.99}, [2]float64{0.2, 1},
	)
	assert.Equal(t, 0.0, c.SecondaryDepth(negativeOnly))
}

func TestTransitPoints(t *testing.T) {
	c := NewCalculator(Options{})
	f := folded(
		[2]float64{-0.05, 1}, [2]float64{-0.049, 1}, [2]float64{0, 1},
		[2]float64{0.0499, 1}, [2]float64{0.05, 1}, [2]float64{0.3, 1},
	)
	assert.Equal(t, 3, c.TransitPoints(f))
}

func TestCompute(t *testing.T) {
	c := NewCalculator(DefaultOptions())
	f := syntheticTransit(2000, 0.01, 0.04, 0.001)

	r, err := c.Compute(f, 0.01)
	require.NoError(t, err)
	assert.Greater(t, r.SNR, 3.0)
	assert.Equal(t, c.TransitPoints(f), r.TransitPoints)
	assert.InDelta(t, r.OddDepth, r.EvenDepth, 1e-9)
	assert.InDelta(t, 0, r.SecondaryDepth, 0.002)

	_, err = c.Compute(folded([2]float64{0.1, 1}), 0.01)
	assert.ErrorIs(t, err, models.ErrInsufficientData)
}
