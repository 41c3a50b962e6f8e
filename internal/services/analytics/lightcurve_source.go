package analytics

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
	"net/url"
	"sort"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	domsvc "github.com/AbishekAnand15/exodetect-backend/internal/domain/service"
	"github.com/AbishekAnand15/exodetect-backend/internal/services/stats"
	"github.com/AbishekAnand15/exodetect-backend/pkg/config"
)

const archiveService = "archive"

// HTTPLightCurveSource loads light curves from the archive service.
type HTTPLightCurveSource struct {
	base    *HTTPServiceBase
	mission string
	policy  string
}

func NewHTTPLightCurveSource(cfg *config.Config) *HTTPLightCurveSource {
	return &HTTPLightCurveSource{
		base:    NewHTTPServiceBase(cfg.Archive.BaseURL, cfg.Archive.Timeout),
		mission: cfg.Archive.Mission,
		policy:  cfg.Pipeline.SectorPolicy,
	}
}

type lightCurveResponse struct {
	Target  string           `json:"target"`
	Sectors []sectorResponse `json:"sectors"`
}

type sectorResponse struct {
	Sector int            `json:"sector"`
	Time   nullableFloats `json:"time"`
	Flux   nullableFloats `json:"flux"`
}

// nullableFloats decodes JSON null elements as NaN so that gaps survive until detrending.
type nullableFloats []float64

func (n *nullableFloats) UnmarshalJSON(b []byte) error {
	var raw []*float64
	if err := json.Unmarshal(b, &raw); err != nil {
		return err
	}
	out := make([]float64, len(raw))
	for i, v := range raw {
		if v == nil {
			out[i] = math.NaN()
			continue
		}
		out[i] = *v
	}
	*n = out
	return nil
}

// Load fetches every sector for target and merges them per the configured policy.
func (s *HTTPLightCurveSource) Load(ctx context.Context, target string) (*models.LightCurve, error) {
	var resp lightCurveResponse
	path := "/lightcurves/" + url.PathEscape(target)
	err := s.base.GetJSON(ctx, path, map[string][]string{"mission": {s.mission}}, &resp)
	if err != nil {
		if isNotFound(err) {
			return nil, fmt.Errorf("target %s: %w", target, models.ErrNotFound)
		}
		return nil, models.Upstream(archiveService, err)
	}

	sectors := make([]models.Sector, 0, len(resp.Sectors))
	for _, sec := range resp.Sectors {
		if len(sec.Time) == 0 {
			continue
		}
		if len(sec.Time) != len(sec.Flux) {
			return nil, models.Upstream(archiveService,
				fmt.Errorf("sector %d: %d timestamps but %d flux values", sec.Sector, len(sec.Time), len(sec.Flux)))
		}
		sectors = append(sectors, models.Sector{Sector: sec.Sector, Time: []float64(sec.Time), Flux: []float64(sec.Flux)})
	}
	if len(sectors) == 0 {
		return nil, fmt.Errorf("target %s: %w", target, models.ErrNotFound)
	}

	if s.policy == config.SectorPolicyStitch {
		return Stitch(target, sectors), nil
	}
	first := sectors[0]
	return &models.LightCurve{Target: target, Time: first.Time, Flux: first.Flux}, nil
}

// Stitch normalizes each sector by its median flux and merges all samples in time order.
// Later samples with an already seen timestamp are dropped.
func Stitch(target string, sectors []models.Sector) *models.LightCurve {
	type sample struct{ t, f float64 }
	var all []sample
	for _, sec := range sectors {
		norm, ok := stats.FiniteMedian(sec.Flux)
		if !ok || norm == 0 {
			norm = 1
		}
		for i, t := range sec.Time {
			if math.IsNaN(t) {
				continue
			}
			all = append(all, sample{t: t, f: sec.Flux[i] / norm})
		}
	}
	sort.SliceStable(all, func(i, j int) bool { return all[i].t < all[j].t })

	lc := &models.LightCurve{
		Target: target,
		Time:   make([]float64, 0, len(all)),
		Flux:   make([]float64, 0, len(all)),
	}
	for i, s := range all {
		if i > 0 && s.t == all[i-1].t {
			continue
		}
		lc.Time = append(lc.Time, s.t)
		lc.Flux = append(lc.Flux, s.f)
	}
	return lc
}

var _ domsvc.LightCurveSource = (*HTTPLightCurveSource)(nil)
