package models

// Requests for HTTP endpoints. Defined in domain for consistency and reuse.

type AnalyzeRequest struct {
	TicID string `param:"tic_id" json:"tic_id" validate:"required,number,startsnotwith=0,max=12"`
}

type LatestRequest struct {
	TicID string `param:"tic_id" json:"tic_id" validate:"required,number,startsnotwith=0,max=12"`
}

type RunsQuery struct {
	TicID string `query:"tic_id" json:"tic_id" validate:"omitempty,number,startsnotwith=0,max=12"`
	Limit int    `query:"limit" json:"limit" default:"50" validate:"gte=1,lte=500"`
}

// AnalyzeMessage is the Kafka payload requesting a run for one target.
type AnalyzeMessage struct {
	TicID string `json:"tic_id" validate:"required,number,startsnotwith=0,max=12"`
}

// VettingCompleted is published after every successful run.
type VettingCompleted struct {
	TicID       string  `json:"tic_id"`
	Period      float64 `json:"period"`
	Depth       float64 `json:"depth"`
	SNR         float64 `json:"snr"`
	Confidence  float64 `json:"confidence"`
	Verdict     string  `json:"verdict"`
	CompletedAt int64   `json:"completed_at"`
}
