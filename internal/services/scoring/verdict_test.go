package scoring

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
)

func TestClassify_Boundaries(t *testing.T) {
	tests := []struct {
		conf float64
		want models.Verdict
	}{
		{0, models.VerdictNoTransit},
		{5.0, models.VerdictNoTransit},
		{9.999, models.VerdictNoTransit},
		{10.0, models.VerdictFalsePositive},
		{29.9, models.VerdictFalsePositive},
		{30.0, models.VerdictMarginal},
		{49.99, models.VerdictMarginal},
		{50.0, models.VerdictCandidate},
		{69.9, models.VerdictCandidate},
		{70.0, models.VerdictStrong},
		{84.999, models.VerdictStrong},
		{85.0, models.VerdictHighConfidence},
		{95.0, models.VerdictHighConfidence},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Classify(tt.conf), "confidence %v", tt.conf)
	}
}

func TestClassify_MonotonicOverRange(t *testing.T) {
	prev := -1
	for c := 0.0; c <= 95.0; c += 0.1 {
		rank := Classify(c).Rank()
		assert.GreaterOrEqual(t, rank, 0)
		assert.GreaterOrEqual(t, rank, prev, "verdict rank dropped at %v", c)
		prev = rank
	}
	assert.Equal(t, len(models.Verdicts)-1, prev)
}
