package httpapi

import (
	"context"
	"time"

	"github.com/campuspulse/feedback-server/internal/aggregate"
	"github.com/campuspulse/feedback-server/internal/service"
	"github.com/campuspulse/feedback-server/internal/submission"
)

// Cacher defines the interface for cache operations.
type Cacher interface {
	Close() error
	Get(ctx context.Context, key string, dest any) error
	Set(ctx context.Context, key string, value any, expiration time.Duration) error
}

type AnalyticsService interface {
	GetTeacherPerformance(ctx context.Context, start, end time.Time) ([]aggregate.AggregateRow, error)
	GetOverallAverage(ctx context.Context, start, end time.Time) (float64, error)
	GetBundleSummaries(ctx context.Context, start, end time.Time) ([]aggregate.BundleSummary, error)
	GetSectionBreakdown(ctx context.Context, start, end time.Time) ([]aggregate.SectionStat, error)
	GetPerformanceTrend(ctx context.Context, start, end time.Time) (service.PerformanceTrend, error)
	SubmitBundle(ctx context.Context, draft submission.BundleDraft) (aggregate.SubmissionBundle, error)
}
