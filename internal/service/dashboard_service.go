package service

import (
	"context"
	"errors"
	"time"

	"go.uber.org/zap"

	appErrors "github.com/lamngoc/student-portal/pkg/errors"
)

type dashboardStudentRepository interface {
	Count(ctx context.Context) (int, error)
}

type dashboardCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	Delete(ctx context.Context, key string) error
}

const dashboardSummaryKey = "dashboard:summary"

// DashboardSummary is the aggregate shown on the landing page.
type DashboardSummary struct {
	TotalStudents int `json:"totalStudents"`
}

// DashboardService computes the dashboard summary, with a short-lived cache
// in front of the count query. Cache faults fall through to the store.
type DashboardService struct {
	students dashboardStudentRepository
	cache    dashboardCache
	logger   *zap.Logger
	cacheTTL time.Duration
}

// NewDashboardService constructs the dashboard service.
func NewDashboardService(students dashboardStudentRepository, cache dashboardCache, logger *zap.Logger, cacheTTL time.Duration) *DashboardService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &DashboardService{students: students, cache: cache, logger: logger, cacheTTL: cacheTTL}
}

// Summary returns the dashboard aggregate, preferring the cache.
func (s *DashboardService) Summary(ctx context.Context) (*DashboardSummary, error) {
	if s.cache != nil {
		var cached DashboardSummary
		err := s.cache.Get(ctx, dashboardSummaryKey, &cached)
		if err == nil {
			return &cached, nil
		}
		if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("dashboard cache read failed", zap.Error(err))
		}
	}

	total, err := s.students.Count(ctx)
	if err != nil {
		s.logger.Error("failed to count students", zap.Error(err))
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load dashboard")
	}

	summary := &DashboardSummary{TotalStudents: total}
	if s.cache != nil {
		if err := s.cache.Set(ctx, dashboardSummaryKey, summary, s.cacheTTL); err != nil {
			s.logger.Warn("dashboard cache write failed", zap.Error(err))
		}
	}
	return summary, nil
}

// Invalidate drops the cached summary after a student mutation.
func (s *DashboardService) Invalidate(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.Delete(ctx, dashboardSummaryKey); err != nil {
		s.logger.Warn("dashboard cache invalidation failed", zap.Error(err))
	}
}
