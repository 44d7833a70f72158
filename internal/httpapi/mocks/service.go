package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/campuspulse/feedback-server/internal/aggregate"
	"github.com/campuspulse/feedback-server/internal/service"
	"github.com/campuspulse/feedback-server/internal/submission"
)

// MockAnalyticsService is a mock implementation of the AnalyticsService
// interface for testing the handler layer.
type MockAnalyticsService struct {
	GetTeacherPerformanceFunc func(ctx context.Context, start, end time.Time) ([]aggregate.AggregateRow, error)
	GetOverallAverageFunc     func(ctx context.Context, start, end time.Time) (float64, error)
	GetBundleSummariesFunc    func(ctx context.Context, start, end time.Time) ([]aggregate.BundleSummary, error)
	GetSectionBreakdownFunc   func(ctx context.Context, start, end time.Time) ([]aggregate.SectionStat, error)
	GetPerformanceTrendFunc   func(ctx context.Context, start, end time.Time) (service.PerformanceTrend, error)
	SubmitBundleFunc          func(ctx context.Context, draft submission.BundleDraft) (aggregate.SubmissionBundle, error)
}

// GetTeacherPerformance implements the AnalyticsService interface
func (m *MockAnalyticsService) GetTeacherPerformance(ctx context.Context, start, end time.Time) ([]aggregate.AggregateRow, error) {
	if m.GetTeacherPerformanceFunc != nil {
		return m.GetTeacherPerformanceFunc(ctx, start, end)
	}
	return nil, errors.New("GetTeacherPerformanceFunc not implemented")
}

// GetOverallAverage implements the AnalyticsService interface
func (m *MockAnalyticsService) GetOverallAverage(ctx context.Context, start, end time.Time) (float64, error) {
	if m.GetOverallAverageFunc != nil {
		return m.GetOverallAverageFunc(ctx, start, end)
	}
	return 0, errors.New("GetOverallAverageFunc not implemented")
}

// GetBundleSummaries implements the AnalyticsService interface
func (m *MockAnalyticsService) GetBundleSummaries(ctx context.Context, start, end time.Time) ([]aggregate.BundleSummary, error) {
	if m.GetBundleSummariesFunc != nil {
		return m.GetBundleSummariesFunc(ctx, start, end)
	}
	return nil, errors.New("GetBundleSummariesFunc not implemented")
}

// GetSectionBreakdown implements the AnalyticsService interface
func (m *MockAnalyticsService) GetSectionBreakdown(ctx context.Context, start, end time.Time) ([]aggregate.SectionStat, error) {
	if m.GetSectionBreakdownFunc != nil {
		return m.GetSectionBreakdownFunc(ctx, start, end)
	}
	return nil, errors.New("GetSectionBreakdownFunc not implemented")
}

// GetPerformanceTrend implements the AnalyticsService interface
func (m *MockAnalyticsService) GetPerformanceTrend(ctx context.Context, start, end time.Time) (service.PerformanceTrend, error) {
	if m.GetPerformanceTrendFunc != nil {
		return m.GetPerformanceTrendFunc(ctx, start, end)
	}
	return service.PerformanceTrend{}, errors.New("GetPerformanceTrendFunc not implemented")
}

// SubmitBundle implements the AnalyticsService interface
func (m *MockAnalyticsService) SubmitBundle(ctx context.Context, draft submission.BundleDraft) (aggregate.SubmissionBundle, error) {
	if m.SubmitBundleFunc != nil {
		return m.SubmitBundleFunc(ctx, draft)
	}
	return aggregate.SubmissionBundle{}, errors.New("SubmitBundleFunc not implemented")
}
