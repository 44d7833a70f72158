package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/campuspulse/feedback-server/internal/aggregate"
	"github.com/campuspulse/feedback-server/internal/submission"
)

const (
	dbTimeout = 1 * time.Second
)

// AnalyticsService answers dashboard queries over stored feedback bundles
// and accepts new submissions.
type AnalyticsService struct {
	storage FeedbackRepository
	drafts  *submission.Validator
	logger  *zap.Logger
}

// NewAnalyticsService creates a new AnalyticsService instance.
func NewAnalyticsService(storage FeedbackRepository, logger *zap.Logger) *AnalyticsService {
	if storage == nil {
		panic("storage must not be nil")
	}
	if logger == nil {
		l, _ := zap.NewProduction()
		logger = l
	}
	return &AnalyticsService{
		storage: storage,
		drafts:  submission.NewValidator(),
		logger:  logger,
	}
}

var (
	ErrNoFeedback     = errors.New("no feedback found")
	ErrStorageFailure = errors.New("storage failure")
)

func (s *AnalyticsService) loadBundles(ctx context.Context, start, end time.Time) ([]aggregate.SubmissionBundle, error) {
	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	bundles, err := s.storage.ListBundles(dbCtx, start, end)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}
	if len(bundles) == 0 {
		return nil, ErrNoFeedback
	}
	return bundles, nil
}

// GetTeacherPerformance returns the ranked per-(teacher, subject) table
// for the requested window.
func (s *AnalyticsService) GetTeacherPerformance(ctx context.Context, start, end time.Time) ([]aggregate.AggregateRow, error) {
	bundles, err := s.loadBundles(ctx, start, end)
	if err != nil {
		return nil, err
	}

	rows := aggregate.AggregateByTeacher(bundles)
	aggregate.SortRows(rows)

	s.logger.Info("computed teacher performance",
		zap.Int("bundles", len(bundles)),
		zap.Int("rows", len(rows)),
		zap.Time("start", start),
		zap.Time("end", end))

	return rows, nil
}

// GetOverallAverage returns the mean overall rating across every feedback
// entry in the window.
func (s *AnalyticsService) GetOverallAverage(ctx context.Context, start, end time.Time) (float64, error) {
	bundles, err := s.loadBundles(ctx, start, end)
	if err != nil {
		return 0, err
	}

	avg := aggregate.ComputeOverallAverage(bundles)

	s.logger.Info("computed overall average",
		zap.Float64("average", avg),
		zap.Int("bundles", len(bundles)),
		zap.Time("start", start),
		zap.Time("end", end))

	return avg, nil
}

// GetBundleSummaries returns one summary row per bundle in the window.
func (s *AnalyticsService) GetBundleSummaries(ctx context.Context, start, end time.Time) ([]aggregate.BundleSummary, error) {
	bundles, err := s.loadBundles(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return aggregate.SummarizeBundles(bundles), nil
}

// GetSectionBreakdown returns per-section participation and averages.
func (s *AnalyticsService) GetSectionBreakdown(ctx context.Context, start, end time.Time) ([]aggregate.SectionStat, error) {
	bundles, err := s.loadBundles(ctx, start, end)
	if err != nil {
		return nil, err
	}
	return aggregate.AggregateBySection(bundles), nil
}

// GetPerformanceTrend calculates the overall-average change vs the
// previous window of equal length.
func (s *AnalyticsService) GetPerformanceTrend(ctx context.Context, start, end time.Time) (PerformanceTrend, error) {
	currentAvg, err := s.GetOverallAverage(ctx, start, end)
	if err != nil {
		return PerformanceTrend{}, fmt.Errorf("current average: %w", err)
	}

	duration := end.Sub(start)
	prevEnd := start.Add(-time.Nanosecond)
	prevStart := prevEnd.Add(-duration + time.Nanosecond)

	previousAvg, err := s.GetOverallAverage(ctx, prevStart, prevEnd)
	if err != nil {
		if errors.Is(err, ErrNoFeedback) {
			return PerformanceTrend{
				CurrentAverage:   currentAvg,
				PreviousAverage:  0,
				ChangePercentage: 100.0,
			}, nil
		}
		return PerformanceTrend{}, fmt.Errorf("previous average: %w", err)
	}

	var change float64
	if previousAvg > 0 {
		change = ((currentAvg - previousAvg) / previousAvg) * 100.0
	} else if currentAvg > 0 {
		change = 100.0
	}

	return PerformanceTrend{
		CurrentAverage:   currentAvg,
		PreviousAverage:  previousAvg,
		ChangePercentage: change,
	}, nil
}

// SubmitBundle validates a posted draft and persists the resulting
// bundle. Validation failures surface as submission.ErrValidation.
func (s *AnalyticsService) SubmitBundle(ctx context.Context, draft submission.BundleDraft) (aggregate.SubmissionBundle, error) {
	bundle, err := s.drafts.ValidateBundle(draft)
	if err != nil {
		s.logger.Info("rejected submission draft", zap.Error(err))
		return aggregate.SubmissionBundle{}, err
	}

	dbCtx, cancel := context.WithTimeout(ctx, dbTimeout)
	defer cancel()

	if err := s.storage.InsertBundle(dbCtx, bundle); err != nil {
		s.logger.Error("failed to store bundle", zap.String("bundle_id", bundle.ID), zap.Error(err))
		return aggregate.SubmissionBundle{}, fmt.Errorf("%w: %v", ErrStorageFailure, err)
	}

	s.logger.Info("stored submission bundle",
		zap.String("bundle_id", bundle.ID),
		zap.String("section", bundle.StudentSection),
		zap.Int("feedbacks", len(bundle.TeacherFeedbacks)))

	return bundle, nil
}
