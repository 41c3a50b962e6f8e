package analytics

import (
	"context"
	"fmt"
	"math"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	domsvc "github.com/AbishekAnand15/exodetect-backend/internal/domain/service"
	"github.com/AbishekAnand15/exodetect-backend/pkg/config"
)

const searchService = "bls"

// HTTPPeriodSearch runs box least squares on the search service.
type HTTPPeriodSearch struct {
	base      *HTTPServiceBase
	periods   config.Grid
	durations config.Grid
}

func NewHTTPPeriodSearch(cfg *config.Config) *HTTPPeriodSearch {
	return &HTTPPeriodSearch{
		base:      NewHTTPServiceBase(cfg.Search.BaseURL, cfg.Search.Timeout),
		periods:   cfg.Search.Periods,
		durations: cfg.Search.Durations,
	}
}

type gridRequest struct {
	Min   float64 `json:"min"`
	Max   float64 `json:"max"`
	Count int     `json:"count"`
}

type searchRequest struct {
	Time      []float64   `json:"time"`
	Flux      []float64   `json:"flux"`
	Periods   gridRequest `json:"periods"`
	Durations gridRequest `json:"durations"`
}

type searchResponse struct {
	Period      float64  `json:"period"`
	Duration    float64  `json:"duration"`
	Depth       float64  `json:"depth"`
	TransitTime *float64 `json:"transit_time"`
	Power       float64  `json:"power"`
}

// Search returns the maximum-power box transit over the configured grids.
func (s *HTTPPeriodSearch) Search(ctx context.Context, flat *models.LightCurve) (models.TransitResult, error) {
	var result models.TransitResult
	if flat.Len() == 0 {
		return result, &models.InsufficientDataError{Metric: "period_search", Bucket: "samples"}
	}

	req := searchRequest{
		Time:      flat.Time,
		Flux:      flat.Flux,
		Periods:   gridRequest(s.periods),
		Durations: gridRequest(s.durations),
	}
	var sr searchResponse
	if err := s.base.PostJSON(ctx, "/bls/search", req, &sr); err != nil {
		return result, models.Upstream(searchService, err)
	}
	if err := sr.validate(); err != nil {
		return result, models.Upstream(searchService, err)
	}

	result.Period = sr.Period
	result.Duration = sr.Duration
	result.Depth = sr.Depth
	result.Power = sr.Power
	if sr.TransitTime != nil && !math.IsNaN(*sr.TransitTime) && !math.IsInf(*sr.TransitTime, 0) {
		epoch := *sr.TransitTime
		result.Epoch = &epoch
	}
	return result, nil
}

func (r searchResponse) validate() error {
	switch {
	case !(r.Period > 0) || math.IsInf(r.Period, 0):
		return fmt.Errorf("invalid period %v", r.Period)
	case !(r.Duration > 0) || math.IsInf(r.Duration, 0):
		return fmt.Errorf("invalid duration %v", r.Duration)
	case !(r.Depth >= 0 && r.Depth < 1):
		return fmt.Errorf("depth %v outside [0, 1)", r.Depth)
	}
	return nil
}

var _ domsvc.PeriodSearch = (*HTTPPeriodSearch)(nil)
