package api

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/labstack/echo/v4"

	models "github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	apimetrics "github.com/AbishekAnand15/exodetect-backend/internal/service/metrics"
	"github.com/AbishekAnand15/exodetect-backend/internal/service/ratelimit"
	xhttp "github.com/AbishekAnand15/exodetect-backend/pkg/http"
	xlogger "github.com/AbishekAnand15/exodetect-backend/pkg/logger"
)

const notFoundMessage = "No TESS light curve found for this TIC ID"

// AnalysisService is the use case surface the handlers need.
type AnalysisService interface {
	Analyze(ctx context.Context, target string) (*models.PipelineResult, error)
	Latest(ctx context.Context, target string) (models.AnalysisRecord, bool, error)
	Runs(ctx context.Context, target string, limit int) ([]models.AnalysisRecord, error)
	HistoryEnabled() bool
}

// ReadinessCheck is one dependency checked by /readyz.
type ReadinessCheck struct {
	Name  string
	Check func(ctx context.Context) error
}

// AnalyzeEchoHandler serves the analysis endpoints.
type AnalyzeEchoHandler struct {
	logger  *xlogger.Logger
	svc     AnalysisService
	limiter *ratelimit.Limiter
	checks  []ReadinessCheck
}

func NewAnalyzeEchoHandler(logger *xlogger.Logger, svc AnalysisService, limiter *ratelimit.Limiter, checks ...ReadinessCheck) *AnalyzeEchoHandler {
	return &AnalyzeEchoHandler{logger: logger, svc: svc, limiter: limiter, checks: checks}
}

func (h *AnalyzeEchoHandler) RegisterRoutes(e *echo.Echo) {
	e.GET("/", h.Root)
	e.GET("/healthz", h.Healthz)
	e.GET("/readyz", h.Readyz)

	var mw []echo.MiddlewareFunc
	if h.limiter != nil {
		mw = append(mw, ratelimit.Middleware(h.limiter))
	}
	e.GET("/analyze/:tic_id", h.Analyze, mw...)

	g := e.Group("/api/v1")
	g.GET("/targets/:tic_id/latest", h.Latest)
	if h.svc.HistoryEnabled() {
		g.GET("/runs", h.Runs)
	}
}

func (h *AnalyzeEchoHandler) Root(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "Backend alive"})
}

func (h *AnalyzeEchoHandler) Healthz(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]string{"status": "ok"})
}

func (h *AnalyzeEchoHandler) Readyz(c echo.Context) error {
	ctx, cancel := context.WithTimeout(c.Request().Context(), 2*time.Second)
	defer cancel()

	status := http.StatusOK
	out := make(map[string]string, len(h.checks))
	for _, chk := range h.checks {
		if err := chk.Check(ctx); err != nil {
			status = http.StatusServiceUnavailable
			out[chk.Name] = err.Error()
			h.logger.Warn("readiness check failed", xlogger.String("dependency", chk.Name), xlogger.Error(err))
			continue
		}
		out[chk.Name] = "ok"
	}
	return c.JSON(status, map[string]interface{}{"ready": status == http.StatusOK, "checks": out})
}

// Analyze runs the full pipeline. Errors are returned as {"error": "..."}.
func (h *AnalyzeEchoHandler) Analyze(c echo.Context) error {
	start := time.Now()
	defer func() {
		apimetrics.EndpointLatency.WithLabelValues("analyze").Observe(time.Since(start).Seconds())
	}()

	req := &models.AnalyzeRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		apimetrics.EndpointErrors.WithLabelValues("analyze", "validation").Inc()
		return c.JSON(http.StatusBadRequest, ErrorResponse{Error: "tic_id must be a positive integer"})
	}

	res, err := h.svc.Analyze(c.Request().Context(), req.TicID)
	if err != nil {
		status, msg, kind := analyzeError(err)
		apimetrics.EndpointErrors.WithLabelValues("analyze", kind).Inc()
		return c.JSON(status, ErrorResponse{Error: msg})
	}
	return c.JSON(http.StatusOK, NewAnalyzeResponse(res))
}

func analyzeError(err error) (status int, msg, kind string) {
	var ide *models.InsufficientDataError
	var ue *models.UpstreamError
	switch {
	case errors.Is(err, models.ErrNotFound):
		return http.StatusNotFound, notFoundMessage, "not_found"
	case errors.As(err, &ide):
		return http.StatusUnprocessableEntity, ide.Error(), "insufficient_data"
	case errors.As(err, &ue):
		return http.StatusBadGateway, "upstream service failure: " + ue.Service, "upstream"
	case errors.Is(err, context.DeadlineExceeded):
		return http.StatusGatewayTimeout, "analysis timed out", "timeout"
	default:
		return http.StatusInternalServerError, "internal error", "internal"
	}
}

func (h *AnalyzeEchoHandler) Latest(c echo.Context) error {
	req := &models.LatestRequest{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rec, ok, err := h.svc.Latest(c.Request().Context(), req.TicID)
	if err != nil {
		h.logger.Error("latest verdict lookup error", xlogger.String("tic_id", req.TicID), xlogger.Error(err))
		return xhttp.AppErrorResponse(c, err)
	}
	if !ok {
		return xhttp.AppErrorResponse(c, xhttp.NotFoundErrorf("no completed run for TIC %s", req.TicID))
	}
	return xhttp.SuccessResponse(c, rec)
}

func (h *AnalyzeEchoHandler) Runs(c echo.Context) error {
	req := &models.RunsQuery{}
	if verr := xhttp.ReadAndValidateRequest(c, req); verr != nil {
		return xhttp.BadRequestResponse(c, verr)
	}

	rows, err := h.svc.Runs(c.Request().Context(), req.TicID, req.Limit)
	if err != nil {
		h.logger.Error("run history query error", xlogger.String("tic_id", req.TicID), xlogger.Error(err))
		apimetrics.EndpointErrors.WithLabelValues("runs", "internal").Inc()
		return xhttp.AppErrorResponse(c, xhttp.InternalError("run history unavailable").WithError(err))
	}
	return xhttp.ListResponse(c, rows, int64(len(rows)))
}
