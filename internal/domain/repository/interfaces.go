package repository

import (
	"context"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
)

// RunStore persists completed run summaries.
type RunStore interface {
	Save(ctx context.Context, rec models.AnalysisRecord) error
	Recent(ctx context.Context, target string, limit int) ([]models.AnalysisRecord, error)
	Health(ctx context.Context) error
}

// RunPublisher emits completion events.
type RunPublisher interface {
	PublishCompleted(ctx context.Context, ev models.VettingCompleted) error
	Close() error
}

// LatestStore keeps the most recent completed record per target.
type LatestStore interface {
	Put(ctx context.Context, rec models.AnalysisRecord) error
	Get(ctx context.Context, target string) (models.AnalysisRecord, bool, error)
}

type Metrics interface {
	RecordRun(result string)
	RecordVerdict(verdict string, confidence float64)
	RecordError(kind string)
	RecordStage(stage string, seconds float64)
	RecordLatency(op string, seconds float64)
}
