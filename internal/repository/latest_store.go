package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/AbishekAnand15/exodetect-backend/internal/domain/models"
	"github.com/AbishekAnand15/exodetect-backend/pkg/cache"
)

// LatestVerdictStore keeps the latest record per target in a cache.Service.
type LatestVerdictStore struct {
	c   cache.Service
	ttl time.Duration
}

func NewLatestVerdictStore(c cache.Service, ttl time.Duration) *LatestVerdictStore {
	return &LatestVerdictStore{c: c, ttl: ttl}
}

func latestKey(target string) string {
	return cache.GenerateKey("latest", target)
}

func (s *LatestVerdictStore) Put(ctx context.Context, rec models.AnalysisRecord) error {
	if err := s.c.Set(ctx, latestKey(rec.Target), rec, s.ttl); err != nil {
		return fmt.Errorf("put latest %s: %w", rec.Target, err)
	}
	return nil
}

func (s *LatestVerdictStore) Get(ctx context.Context, target string) (models.AnalysisRecord, bool, error) {
	rec, err := cache.GetTyped[models.AnalysisRecord](ctx, s.c, latestKey(target))
	if errors.Is(err, cache.ErrCacheMiss) {
		return models.AnalysisRecord{}, false, nil
	}
	if err != nil {
		return models.AnalysisRecord{}, false, fmt.Errorf("get latest %s: %w", target, err)
	}
	return rec, true, nil
}
