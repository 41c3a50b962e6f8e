package models

import (
	"errors"
	"fmt"
)

var (
	// ErrNotFound means the archive has no light curve for the target.
	ErrNotFound = errors.New("no TESS light curve found for this TIC ID")
	// ErrInsufficientData means a computation lacks samples in a required bucket.
	ErrInsufficientData = errors.New("insufficient data")
	// ErrUpstream means an external collaborator failed.
	ErrUpstream = errors.New("upstream failure")
)

// InsufficientDataError names the metric and bucket that lacked samples.
type InsufficientDataError struct {
	Metric string
	Bucket string
	Have   int
	Need   int
}

func (e *InsufficientDataError) Error() string {
	if e.Need > 0 {
		return fmt.Sprintf("insufficient data for %s: %s has %d samples, need %d", e.Metric, e.Bucket, e.Have, e.Need)
	}
	return fmt.Sprintf("insufficient data for %s: %s bucket is empty", e.Metric, e.Bucket)
}

func (e *InsufficientDataError) Is(target error) bool { return target == ErrInsufficientData }

// UpstreamError wraps a failure reported by an external service.
type UpstreamError struct {
	Service string
	Err     error
}

func (e *UpstreamError) Error() string {
	return fmt.Sprintf("%s: %v", e.Service, e.Err)
}

func (e *UpstreamError) Unwrap() error { return e.Err }

func (e *UpstreamError) Is(target error) bool { return target == ErrUpstream }

// Upstream wraps err as an UpstreamError for service.
func Upstream(service string, err error) error {
	return &UpstreamError{Service: service, Err: err}
}

// Stage identifies a step of the vetting pipeline.
type Stage string

const (
	StageLoad       Stage = "load"
	StageDetrend    Stage = "detrend"
	StageSearch     Stage = "detect_period"
	StageFold       Stage = "fold"
	StageMetrics    Stage = "compute_metrics"
	StageConfidence Stage = "compute_confidence"
	StageClassify   Stage = "classify"
	StageInterpret  Stage = "interpret"
	StageAssemble   Stage = "assemble"
)

// StageError records which stage aborted a run.
type StageError struct {
	Stage Stage
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("stage %s: %v", e.Stage, e.Err)
}

func (e *StageError) Unwrap() error { return e.Err }

// ErrorKind classifies err for metrics and logs.
func ErrorKind(err error) string {
	switch {
	case err == nil:
		return ""
	case errors.Is(err, ErrNotFound):
		return "not_found"
	case errors.Is(err, ErrInsufficientData):
		return "insufficient_data"
	case errors.Is(err, ErrUpstream):
		return "upstream"
	default:
		return "internal"
	}
}
