package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	models "github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	"github.com/AbishekAnand15/exodetect-backend/internal/service/ratelimit"
	xlogger "github.com/AbishekAnand15/exodetect-backend/pkg/logger"
)

type fakeService struct {
	res     *models.PipelineResult
	err     error
	latest  map[string]models.AnalysisRecord
	runs    []models.AnalysisRecord
	runsErr error
	history bool
	lastTic string
	limit   int
}

func (f *fakeService) Analyze(_ context.Context, target string) (*models.PipelineResult, error) {
	f.lastTic = target
	return f.res, f.err
}

func (f *fakeService) Latest(_ context.Context, target string) (models.AnalysisRecord, bool, error) {
	rec, ok := f.latest[target]
	return rec, ok, nil
}

func (f *fakeService) Runs(_ context.Context, target string, limit int) ([]models.AnalysisRecord, error) {
	f.lastTic, f.limit = target, limit
	return f.runs, f.runsErr
}

func (f *fakeService) HistoryEnabled() bool { return f.history }

func sampleResult() *models.PipelineResult {
	return &models.PipelineResult{
		Target:         "307210830",
		Transit:        models.TransitResult{Period: 3.5, Duration: 0.1, Depth: 0.005},
		Vetting:        models.VettingReport{OddDepth: 0.005, EvenDepth: 0.0051, SNR: 12, SecondaryDepth: 0.0001, TransitPoints: 80},
		Confidence:     62.7,
		Verdict:        models.VerdictCandidate,
		Interpretation: "A periodic transit signal with a period of 3.50 days is detected.",
		Raw:            &models.LightCurve{Time: []float64{1, 2, 3}, Flux: []float64{1, 0.995, 1}},
		Folded:         &models.FoldedLightCurve{Phase: []float64{-0.1, 0, 0.1}, Flux: []float64{1, 0.995, 1}},
	}
}

func serve(t *testing.T, h *AnalyzeEchoHandler, target string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	h.RegisterRoutes(e)
	req := httptest.NewRequest(http.MethodGet, target, nil)
	rec := httptest.NewRecorder()
	e.ServeHTTP(rec, req)
	return rec
}

func decode(t *testing.T, rec *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var body map[string]interface{}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestRoot(t *testing.T) {
	rec := serve(t, NewAnalyzeEchoHandler(xlogger.Nop(), &fakeService{}, nil), "/")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "Backend alive", decode(t, rec)["status"])
}

func TestAnalyze_Success(t *testing.T) {
	svc := &fakeService{res: sampleResult()}
	rec := serve(t, NewAnalyzeEchoHandler(xlogger.Nop(), svc, nil), "/analyze/307210830")

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "307210830", svc.lastTic)

	body := decode(t, rec)
	for _, k := range []string{
		"period", "depth", "snr", "odd_depth", "even_depth", "secondary_depth", "transit_points",
		"verdict", "confidence", "interpretation", "time", "flux", "phase", "folded_flux",
	} {
		assert.Contains(t, body, k)
	}
	assert.NotContains(t, body, "error")
	assert.Equal(t, "Planet Candidate", body["verdict"])
	assert.Equal(t, 62.7, body["confidence"])
	assert.Equal(t, float64(80), body["transit_points"])
	assert.Len(t, body["folded_flux"], 3)
}

func TestAnalyze_Errors(t *testing.T) {
	tests := []struct {
		name   string
		path   string
		err    error
		status int
		msg    string
	}{
		{"non numeric", "/analyze/abc", nil, http.StatusBadRequest, "tic_id must be a positive integer"},
		{"zero", "/analyze/0", nil, http.StatusBadRequest, "tic_id must be a positive integer"},
		{"negative", "/analyze/-5", nil, http.StatusBadRequest, "tic_id must be a positive integer"},
		{
			"not found", "/analyze/1",
			&models.StageError{Stage: models.StageLoad, Err: models.ErrNotFound},
			http.StatusNotFound, "No TESS light curve found for this TIC ID",
		},
		{
			"insufficient data", "/analyze/1",
			&models.StageError{Stage: models.StageMetrics, Err: &models.InsufficientDataError{Metric: "odd_even_depth", Bucket: "odd"}},
			http.StatusUnprocessableEntity, "insufficient data for odd_even_depth: odd bucket is empty",
		},
		{
			"upstream", "/analyze/1",
			&models.StageError{Stage: models.StageSearch, Err: models.Upstream("bls", errors.New("503"))},
			http.StatusBadGateway, "upstream service failure: bls",
		},
		{
			"timeout", "/analyze/1",
			&models.StageError{Stage: models.StageSearch, Err: context.DeadlineExceeded},
			http.StatusGatewayTimeout, "analysis timed out",
		},
		{"internal", "/analyze/1", errors.New("boom"), http.StatusInternalServerError, "internal error"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			svc := &fakeService{err: tt.err}
			rec := serve(t, NewAnalyzeEchoHandler(xlogger.Nop(), svc, nil), tt.path)
			assert.Equal(t, tt.status, rec.Code)
			assert.Equal(t, map[string]interface{}{"error": tt.msg}, decode(t, rec))
		})
	}
}

func TestAnalyze_RateLimited(t *testing.T) {
	e := echo.New()
	svc := &fakeService{res: sampleResult()}
	NewAnalyzeEchoHandler(xlogger.Nop(), svc, ratelimit.New(0.001, 1, time.Minute)).RegisterRoutes(e)

	codes := make([]int, 0, 2)
	for i := 0; i < 2; i++ {
		req := httptest.NewRequest(http.MethodGet, "/analyze/42", nil)
		rec := httptest.NewRecorder()
		e.ServeHTTP(rec, req)
		codes = append(codes, rec.Code)
	}
	assert.Equal(t, []int{http.StatusOK, http.StatusTooManyRequests}, codes)
}

func TestLatest(t *testing.T) {
	svc := &fakeService{latest: map[string]models.AnalysisRecord{
		"42": {Target: "42", Confidence: 71.2, Verdict: string(models.VerdictStrong)},
	}}
	h := NewAnalyzeEchoHandler(xlogger.Nop(), svc, nil)

	rec := serve(t, h, "/api/v1/targets/42/latest")
	require.Equal(t, http.StatusOK, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, float64(200), body["status"])
	data := body["data"].(map[string]interface{})
	assert.Equal(t, "Strong Planet Candidate", data["verdict"])

	rec = serve(t, h, "/api/v1/targets/43/latest")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = serve(t, h, "/api/v1/targets/x/latest")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestRuns(t *testing.T) {
	svc := &fakeService{history: true, runs: []models.AnalysisRecord{{Target: "42"}, {Target: "7"}}}
	h := NewAnalyzeEchoHandler(xlogger.Nop(), svc, nil)

	rec := serve(t, h, "/api/v1/runs")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 50, svc.limit)
	assert.Equal(t, "", svc.lastTic)
	data := decode(t, rec)["data"].(map[string]interface{})
	assert.Equal(t, float64(2), data["total"])

	rec = serve(t, h, "/api/v1/runs?tic_id=42&limit=5")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "42", svc.lastTic)
	assert.Equal(t, 5, svc.limit)

	rec = serve(t, h, "/api/v1/runs?limit=1000")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	svc.runsErr = errors.New("clickhouse down")
	rec = serve(t, h, "/api/v1/runs")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
}

func TestRuns_DisabledWithoutHistory(t *testing.T) {
	rec := serve(t, NewAnalyzeEchoHandler(xlogger.Nop(), &fakeService{}, nil), "/api/v1/runs")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestReadyz(t *testing.T) {
	ok := ReadinessCheck{Name: "redis", Check: func(context.Context) error { return nil }}
	down := ReadinessCheck{Name: "clickhouse", Check: func(context.Context) error { return errors.New("dial tcp: refused") }}

	rec := serve(t, NewAnalyzeEchoHandler(xlogger.Nop(), &fakeService{}, nil, ok), "/readyz")
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = serve(t, NewAnalyzeEchoHandler(xlogger.Nop(), &fakeService{}, nil, ok, down), "/readyz")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	body := decode(t, rec)
	assert.Equal(t, false, body["ready"])
	checks := body["checks"].(map[string]interface{})
	assert.Equal(t, "ok", checks["redis"])
	assert.Equal(t, "dial tcp: refused", checks["clickhouse"])
}
