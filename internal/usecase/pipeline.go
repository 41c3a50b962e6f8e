package usecase

import (
	"context"
	"time"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	domrepo "github.com/AbishekAnand15/exodetect-backend/internal/domain/repository"
	domsvc "github.com/AbishekAnand15/exodetect-backend/internal/domain/service"
	"github.com/AbishekAnand15/exodetect-backend/internal/services/scoring"
	"github.com/AbishekAnand15/exodetect-backend/internal/services/vetting"
	applogger "github.com/AbishekAnand15/exodetect-backend/pkg/logger"
)

// Pipeline runs the vetting stages for one target. It holds no per-run state and is
// safe for concurrent use.
type Pipeline struct {
	source    domsvc.LightCurveSource
	detrender domsvc.Detrender
	search    domsvc.PeriodSearch
	folder    domsvc.Folder
	calc      *vetting.Calculator
	metrics   domrepo.Metrics
	l         *applogger.Logger
	now       func() time.Time
}

func NewPipeline(
	source domsvc.LightCurveSource,
	detrender domsvc.Detrender,
	search domsvc.PeriodSearch,
	folder domsvc.Folder,
	calc *vetting.Calculator,
	metrics domrepo.Metrics,
	l *applogger.Logger,
) *Pipeline {
	if metrics == nil {
		metrics = nopMetrics{}
	}
	if l == nil {
		l = applogger.Nop()
	}
	return &Pipeline{
		source:    source,
		detrender: detrender,
		search:    search,
		folder:    folder,
		calc:      calc,
		metrics:   metrics,
		l:         l,
		now:       time.Now,
	}
}

// run carries every intermediate value of one run from stage to stage.
type run struct {
	target     string
	raw        *models.LightCurve
	cleaned    *models.LightCurve
	flat       *models.LightCurve
	transit    models.TransitResult
	folded     *models.FoldedLightCurve
	report     models.VettingReport
	confidence float64
	verdict    models.Verdict
	text       string
	result     *models.PipelineResult
}

type stage struct {
	name models.Stage
	fn   func(ctx context.Context, r *run) error
}

func (p *Pipeline) stages() []stage {
	return []stage{
		{models.StageLoad, p.load},
		{models.StageDetrend, p.detrend},
		{models.StageSearch, p.detectPeriod},
		{models.StageFold, p.fold},
		{models.StageMetrics, p.computeMetrics},
		{models.StageConfidence, p.computeConfidence},
		{models.StageClassify, p.classify},
		{models.StageInterpret, p.interpret},
		{models.StageAssemble, p.assemble},
	}
}

// Run executes every stage in order. The first failing stage aborts the run and is
// reported as a *models.StageError; no partial result is returned.
func (p *Pipeline) Run(ctx context.Context, target string) (*models.PipelineResult, error) {
	start := p.now()
	r := &run{target: target}

	for _, s := range p.stages() {
		if err := ctx.Err(); err != nil {
			return nil, &models.StageError{Stage: s.name, Err: err}
		}
		t0 := time.Now()
		err := s.fn(ctx, r)
		elapsed := time.Since(t0)
		p.metrics.RecordStage(string(s.name), elapsed.Seconds())
		if err != nil {
			return nil, &models.StageError{Stage: s.name, Err: err}
		}
		p.l.Debug("pipeline stage done",
			applogger.String("tic_id", target),
			applogger.String("stage", string(s.name)),
			applogger.Duration("duration_ms", elapsed),
		)
	}

	r.result.Elapsed = p.now().Sub(start)
	return r.result, nil
}

func (p *Pipeline) load(ctx context.Context, r *run) error {
	lc, err := p.source.Load(ctx, r.target)
	if err != nil {
		return err
	}
	if lc.Len() == 0 {
		return models.ErrNotFound
	}
	r.raw = lc
	return nil
}

func (p *Pipeline) detrend(_ context.Context, r *run) error {
	cleaned, flat, err := p.detrender.Detrend(r.raw)
	if err != nil {
		return err
	}
	r.cleaned, r.flat = cleaned, flat
	return nil
}

func (p *Pipeline) detectPeriod(ctx context.Context, r *run) error {
	tr, err := p.search.Search(ctx, r.flat)
	if err != nil {
		return err
	}
	r.transit = tr
	return nil
}

func (p *Pipeline) fold(_ context.Context, r *run) error {
	if r.flat.Len() == 0 {
		return &models.InsufficientDataError{Metric: "fold", Bucket: "samples"}
	}
	epoch := r.flat.Time[0]
	if r.transit.Epoch != nil {
		epoch = *r.transit.Epoch
	}
	folded, err := p.folder.Fold(r.flat, r.transit.Period, epoch)
	if err != nil {
		return err
	}
	r.folded = folded
	return nil
}

func (p *Pipeline) computeMetrics(_ context.Context, r *run) error {
	report, err := p.calc.Compute(r.folded, r.transit.Depth)
	if err != nil {
		return err
	}
	r.report = report
	return nil
}

func (p *Pipeline) computeConfidence(_ context.Context, r *run) error {
	r.confidence = scoring.Confidence(scoring.Inputs{
		Depth:          r.transit.Depth,
		SNR:            r.report.SNR,
		OddDepth:       r.report.OddDepth,
		EvenDepth:      r.report.EvenDepth,
		SecondaryDepth: r.report.SecondaryDepth,
		TransitPoints:  r.report.TransitPoints,
		Period:         r.transit.Period,
	})
	return nil
}

func (p *Pipeline) classify(_ context.Context, r *run) error {
	r.verdict = scoring.Classify(r.confidence)
	return nil
}

func (p *Pipeline) interpret(_ context.Context, r *run) error {
	r.text = scoring.Interpret(scoring.InterpretInputs{
		Period:    r.transit.Period,
		Depth:     r.transit.Depth,
		OddDepth:  r.report.OddDepth,
		EvenDepth: r.report.EvenDepth,
		SNR:       r.report.SNR,
		Verdict:   r.verdict,
	})
	return nil
}

func (p *Pipeline) assemble(_ context.Context, r *run) error {
	r.result = &models.PipelineResult{
		Target:         r.target,
		Transit:        r.transit,
		Vetting:        r.report,
		Confidence:     r.confidence,
		Verdict:        r.verdict,
		Interpretation: r.text,
		Raw:            r.cleaned,
		Folded:         r.folded,
		CompletedAt:    p.now().UTC(),
	}
	return nil
}

type nopMetrics struct{}

func (nopMetrics) RecordRun(string) {}
func (nopMetrics) RecordVerdict(string, float64) {}
func (nopMetrics) RecordError(string) {}
func (nopMetrics) RecordStage(string, float64) {}
func (nopMetrics) RecordLatency(string, float64) {}
