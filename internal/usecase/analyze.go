package usecase

import (
	"context"
	"errors"
	"time"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	domrepo "github.com/AbishekAnand15/exodetect-backend/internal/domain/repository"
	applogger "github.com/AbishekAnand15/exodetect-backend/pkg/logger"
)

// ErrHistoryDisabled is returned by Runs when no run store is configured.
var ErrHistoryDisabled = errors.New("run history is disabled")

const sideEffectTimeout = 5 * time.Second

// Analyzer runs the pipeline and records a successful outcome in the configured stores.
type Analyzer struct {
	pipeline  *Pipeline
	latest    domrepo.LatestStore
	store     domrepo.RunStore
	publisher domrepo.RunPublisher
	metrics   domrepo.Metrics
	l         *applogger.Logger
}

// NewAnalyzer wires the use case. store and publisher may be nil when disabled.
func NewAnalyzer(
	pipeline *Pipeline,
	latest domrepo.LatestStore,
	store domrepo.RunStore,
	publisher domrepo.RunPublisher,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *Analyzer {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Analyzer{
		pipeline:  pipeline,
		latest:    latest,
		store:     store,
		publisher: publisher,
		metrics:   metrics,
		l:         l,
	}
}

// Analyze runs the full pipeline for target. Every call reruns the pipeline.
func (a *Analyzer) Analyze(ctx context.Context, target string) (*models.PipelineResult, error) {
	start := time.Now()
	res, err := a.pipeline.Run(ctx, target)
	a.metrics.RecordLatency("analyze", time.Since(start).Seconds())
	if err != nil {
		kind := models.ErrorKind(err)
		a.metrics.RecordRun(kind)
		a.metrics.RecordError(kind)
		a.logFailure(target, kind, err, time.Since(start))
		return nil, err
	}

	a.metrics.RecordRun("success")
	a.metrics.RecordVerdict(string(res.Verdict), res.Confidence)
	a.l.Info("vetting run completed",
		applogger.String("tic_id", target),
		applogger.Float("period", res.Transit.Period),
		applogger.Float("snr", res.Vetting.SNR),
		applogger.Float("confidence", res.Confidence),
		applogger.String("verdict", string(res.Verdict)),
		applogger.Duration("duration_ms", res.Elapsed),
	)

	a.record(ctx, res)
	return res, nil
}

// logFailure keeps error-level fields stable so the log collector can fold repeats together.
// The run duration is only logged at warn and debug.
func (a *Analyzer) logFailure(target, kind string, err error, elapsed time.Duration) {
	fields := []applogger.Field{
		applogger.String("tic_id", target),
		applogger.String("kind", kind),
		applogger.Error(err),
	}
	var se *models.StageError
	if errors.As(err, &se) {
		fields = append(fields, applogger.String("stage", string(se.Stage)))
	}
	switch kind {
	case "not_found", "insufficient_data":
		a.l.Warn("vetting run failed", append(fields, applogger.Duration("duration_ms", elapsed))...)
	default:
		a.l.Error("vetting run failed", fields...)
		a.l.Debug("vetting run failure timing", applogger.String("tic_id", target), applogger.Duration("duration_ms", elapsed))
	}
}

// record performs the post-run side effects. Failures are logged and counted only.
func (a *Analyzer) record(ctx context.Context, res *models.PipelineResult) {
	rec := res.Record()
	ctx = context.WithoutCancel(ctx)

	a.sideEffect(ctx, "latest", rec.Target, func(ctx context.Context) error {
		if a.latest == nil {
			return nil
		}
		return a.latest.Put(ctx, rec)
	})
	a.sideEffect(ctx, "history", rec.Target, func(ctx context.Context) error {
		if a.store == nil {
			return nil
		}
		return a.store.Save(ctx, rec)
	})
	a.sideEffect(ctx, "publish", rec.Target, func(ctx context.Context) error {
		if a.publisher == nil {
			return nil
		}
		return a.publisher.PublishCompleted(ctx, models.VettingCompleted{
			TicID:       rec.Target,
			Period:      rec.Period,
			Depth:       rec.Depth,
			SNR:         rec.SNR,
			Confidence:  rec.Confidence,
			Verdict:     rec.Verdict,
			CompletedAt: rec.CompletedAt.Unix(),
		})
	})
}

func (a *Analyzer) sideEffect(ctx context.Context, name, target string, fn func(context.Context) error) {
	ctx, cancel := context.WithTimeout(ctx, sideEffectTimeout)
	defer cancel()
	if err := fn(ctx); err != nil {
		a.metrics.RecordError("side_effect_" + name)
		a.l.Warn("post-run side effect failed",
			applogger.String("tic_id", target),
			applogger.String("effect", name),
			applogger.Error(err),
		)
	}
}

// Latest returns the most recent completed record for target.
func (a *Analyzer) Latest(ctx context.Context, target string) (models.AnalysisRecord, bool, error) {
	if a.latest == nil {
		return models.AnalysisRecord{}, false, nil
	}
	return a.latest.Get(ctx, target)
}

// Runs lists recent runs, newest first. An empty target lists every target.
func (a *Analyzer) Runs(ctx context.Context, target string, limit int) ([]models.AnalysisRecord, error) {
	if a.store == nil {
		return nil, ErrHistoryDisabled
	}
	start := time.Now()
	defer func() { a.metrics.RecordLatency("runs", time.Since(start).Seconds()) }()
	return a.store.Recent(ctx, target, limit)
}

// HistoryEnabled reports whether a run store is configured.
func (a *Analyzer) HistoryEnabled() bool { return a.store != nil }

// Health pings the run store when one is configured.
func (a *Analyzer) Health(ctx context.Context) error {
	if a.store == nil {
		return nil
	}
	return a.store.Health(ctx)
}
