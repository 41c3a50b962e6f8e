package usecase

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/go-playground/validator/v10"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	applogger "github.com/AbishekAnand15/exodetect-backend/pkg/logger"
)

type analyzer interface {
	Analyze(ctx context.Context, target string) (*models.PipelineResult, error)
}

// AnalyzeRequestsHandler runs one analysis per message on the analysis request topic.
type AnalyzeRequestsHandler struct {
	topic    string
	analyzer analyzer
	validate *validator.Validate
	l        *applogger.Logger
}

func NewAnalyzeRequestsHandler(topic string, a analyzer, l *applogger.Logger) *AnalyzeRequestsHandler {
	if l == nil {
		l = applogger.Nop()
	}
	return &AnalyzeRequestsHandler{topic: topic, analyzer: a, validate: validator.New(), l: l}
}

func (h *AnalyzeRequestsHandler) Topic() string { return h.topic }

// Handle decodes the request and runs it. Returned errors are logged by the consumer;
// the message is not redelivered.
func (h *AnalyzeRequestsHandler) Handle(ctx context.Context, data []byte) error {
	var msg models.AnalyzeMessage
	if err := json.Unmarshal(data, &msg); err != nil {
		return fmt.Errorf("decode analyze request: %w", err)
	}
	if err := h.validate.Struct(msg); err != nil {
		return fmt.Errorf("invalid analyze request: %w", err)
	}

	res, err := h.analyzer.Analyze(ctx, msg.TicID)
	if err != nil {
		return fmt.Errorf("analyze %s: %w", msg.TicID, err)
	}
	h.l.Debug("analyze request handled",
		applogger.String("tic_id", msg.TicID),
		applogger.String("verdict", string(res.Verdict)),
	)
	return nil
}
