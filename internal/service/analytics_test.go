package service

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/campuspulse/feedback-server/internal/aggregate"
	"github.com/campuspulse/feedback-server/internal/service/mocks"
	"github.com/campuspulse/feedback-server/internal/submission"
)

func ptr(v float64) *float64 { return &v }

func testBundle(id string, feedbacks ...aggregate.TeacherFeedback) aggregate.SubmissionBundle {
	return aggregate.SubmissionBundle{
		ID:               id,
		StudentName:      "Anonymous Student 1",
		StudentSection:   "A",
		TeacherFeedbacks: feedbacks,
		SubmittedAt:      time.Date(2025, 6, 1, 10, 0, 0, 0, time.UTC),
	}
}

// TestNewAnalyticsService tests the constructor
func TestNewAnalyticsService(t *testing.T) {
	t.Run("valid parameters", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{}
		logger := zap.NewNop()

		svc := NewAnalyticsService(mockRepo, logger)

		assert.NotNil(t, svc)
		assert.Equal(t, mockRepo, svc.storage)
		assert.Equal(t, logger, svc.logger)
	})

	t.Run("nil storage panics", func(t *testing.T) {
		assert.Panics(t, func() {
			NewAnalyticsService(nil, zap.NewNop())
		})
	})

	t.Run("nil logger gets default", func(t *testing.T) {
		svc := NewAnalyticsService(&mocks.MockFeedbackRepository{}, nil)

		assert.NotNil(t, svc)
		assert.NotNil(t, svc.logger)
	})
}

func TestGetTeacherPerformance(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("ranked rows", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
				assert.Equal(t, start, s)
				assert.Equal(t, end, e)
				return []aggregate.SubmissionBundle{
					testBundle("b1",
						aggregate.TeacherFeedback{TeacherID: "T1", TeacherName: "Dr. Rao", Subject: "DS", OverallRating: 8, WeightedScore: ptr(78)},
						aggregate.TeacherFeedback{TeacherID: "T2", TeacherName: "Dr. Iyer", Subject: "OS", OverallRating: 9, WeightedScore: ptr(92)},
					),
					testBundle("b2",
						aggregate.TeacherFeedback{TeacherID: "T1", TeacherName: "Dr. Rao", Subject: "DS", OverallRating: 6, WeightedScore: ptr(62)},
					),
				}, nil
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		rows, err := svc.GetTeacherPerformance(ctx, start, end)

		require.NoError(t, err)
		require.Len(t, rows, 2)

		// Ranked by weighted score descending.
		assert.Equal(t, "T2", rows[0].TeacherID)
		assert.Equal(t, aggregate.GradeExcellent, rows[0].Grade)

		assert.Equal(t, "T1", rows[1].TeacherID)
		assert.Equal(t, 2, rows[1].Count)
		assert.Equal(t, 7.00, rows[1].AverageRating)
		assert.Equal(t, 70.0, rows[1].WeightedScore)
		assert.Equal(t, aggregate.GradeGood, rows[1].Grade)
	})

	t.Run("no feedback found", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
				return nil, nil
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		rows, err := svc.GetTeacherPerformance(ctx, start, end)

		assert.ErrorIs(t, err, ErrNoFeedback)
		assert.Nil(t, rows)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
				return nil, errors.New("database connection failed")
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		rows, err := svc.GetTeacherPerformance(ctx, start, end)

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "database connection failed")
		assert.Nil(t, rows)
	})
}

func TestGetOverallAverage(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	t.Run("flattens all feedbacks", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
				return []aggregate.SubmissionBundle{
					testBundle("b1",
						aggregate.TeacherFeedback{TeacherID: "T1", Subject: "DS", OverallRating: 8},
						aggregate.TeacherFeedback{TeacherID: "T2", Subject: "OS", OverallRating: 7},
					),
					testBundle("b2",
						aggregate.TeacherFeedback{TeacherID: "T3", Subject: "DBMS", OverallRating: 9},
					),
				}, nil
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		avg, err := svc.GetOverallAverage(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, 8.0, avg)
	})

	t.Run("no feedback found", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
				return []aggregate.SubmissionBundle{}, nil
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		avg, err := svc.GetOverallAverage(ctx, start, end)

		assert.ErrorIs(t, err, ErrNoFeedback)
		assert.Equal(t, 0.0, avg)
	})
}

func TestGetBundleSummaries(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	mockRepo := &mocks.MockFeedbackRepository{
		ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
			return []aggregate.SubmissionBundle{
				testBundle("b1", aggregate.TeacherFeedback{TeacherID: "T1", Subject: "DS", OverallRating: 9}),
				testBundle("b2"),
			}, nil
		},
	}

	svc := NewAnalyticsService(mockRepo, logger)
	summaries, err := svc.GetBundleSummaries(ctx, start, end)

	require.NoError(t, err)
	require.Len(t, summaries, 2)
	assert.Equal(t, 9.0, summaries[0].AverageRating)
	// Empty bundle yields zero, never NaN.
	assert.Equal(t, 0.0, summaries[1].AverageRating)
}

func TestGetSectionBreakdown(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	mockRepo := &mocks.MockFeedbackRepository{
		ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
			b2 := testBundle("b2", aggregate.TeacherFeedback{TeacherID: "T1", Subject: "DS", OverallRating: 6})
			b2.StudentSection = "B"
			return []aggregate.SubmissionBundle{
				testBundle("b1", aggregate.TeacherFeedback{TeacherID: "T1", Subject: "DS", OverallRating: 8}),
				b2,
			}, nil
		},
	}

	svc := NewAnalyticsService(mockRepo, logger)
	stats, err := svc.GetSectionBreakdown(ctx, start, end)

	require.NoError(t, err)
	require.Len(t, stats, 2)
	assert.Equal(t, "A", stats[0].Section)
	assert.Equal(t, "B", stats[1].Section)
}

func TestGetPerformanceTrend(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()
	start := time.Date(2025, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2025, 6, 30, 0, 0, 0, 0, time.UTC)

	duration := end.Sub(start)
	expectedPrevEnd := start.Add(-time.Nanosecond)
	expectedPrevStart := expectedPrevEnd.Add(-duration + time.Nanosecond)

	bundlesAveraging := func(rating float64) []aggregate.SubmissionBundle {
		return []aggregate.SubmissionBundle{
			testBundle("b", aggregate.TeacherFeedback{TeacherID: "T1", Subject: "DS", OverallRating: rating}),
		}
	}

	t.Run("positive change", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
				if s.Equal(start) && e.Equal(end) {
					return bundlesAveraging(9), nil
				}
				if s.Equal(expectedPrevStart) && e.Equal(expectedPrevEnd) {
					return bundlesAveraging(8), nil
				}
				return nil, errors.New("unexpected time range")
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		trend, err := svc.GetPerformanceTrend(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, 9.0, trend.CurrentAverage)
		assert.Equal(t, 8.0, trend.PreviousAverage)
		assert.InDelta(t, 12.5, trend.ChangePercentage, 0.01)
	})

	t.Run("no previous feedback", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
				if s.Equal(start) && e.Equal(end) {
					return bundlesAveraging(9), nil
				}
				return nil, nil
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		trend, err := svc.GetPerformanceTrend(ctx, start, end)

		require.NoError(t, err)
		assert.Equal(t, 9.0, trend.CurrentAverage)
		assert.Equal(t, 0.0, trend.PreviousAverage)
		assert.Equal(t, 100.0, trend.ChangePercentage)
	})

	t.Run("current window failure", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
				return nil, errors.New("db connection failed")
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		trend, err := svc.GetPerformanceTrend(ctx, start, end)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "current average")
		assert.Equal(t, PerformanceTrend{}, trend)
	})

	t.Run("previous window storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			ListBundlesFunc: func(ctx context.Context, s, e time.Time) ([]aggregate.SubmissionBundle, error) {
				if s.Equal(start) && e.Equal(end) {
					return bundlesAveraging(9), nil
				}
				return nil, errors.New("db timeout")
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		trend, err := svc.GetPerformanceTrend(ctx, start, end)

		assert.Error(t, err)
		assert.Contains(t, err.Error(), "previous average")
		assert.Equal(t, PerformanceTrend{}, trend)
	})
}

func TestSubmitBundle(t *testing.T) {
	logger := zap.NewNop()
	ctx := context.Background()

	validDraft := func() submission.BundleDraft {
		return submission.BundleDraft{
			StudentName:    "Anonymous Student 3",
			StudentSection: "C",
			TeacherFeedbacks: []submission.FeedbackDraft{
				{TeacherID: "T1", TeacherName: "Dr. Rao", Subject: "DS", OverallRating: ptr(8)},
			},
		}
	}

	t.Run("valid draft is stored", func(t *testing.T) {
		var stored aggregate.SubmissionBundle
		mockRepo := &mocks.MockFeedbackRepository{
			InsertBundleFunc: func(ctx context.Context, bundle aggregate.SubmissionBundle) error {
				stored = bundle
				return nil
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		bundle, err := svc.SubmitBundle(ctx, validDraft())

		require.NoError(t, err)
		assert.NotEmpty(t, bundle.ID)
		assert.Equal(t, stored.ID, bundle.ID)
		assert.Equal(t, "C", stored.StudentSection)
	})

	t.Run("invalid draft is rejected before storage", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			InsertBundleFunc: func(ctx context.Context, bundle aggregate.SubmissionBundle) error {
				t.Fatal("InsertBundle must not be called for an invalid draft")
				return nil
			},
		}

		draft := validDraft()
		draft.StudentSection = "Z"

		svc := NewAnalyticsService(mockRepo, logger)
		_, err := svc.SubmitBundle(ctx, draft)

		assert.ErrorIs(t, err, submission.ErrValidation)
	})

	t.Run("storage failure", func(t *testing.T) {
		mockRepo := &mocks.MockFeedbackRepository{
			InsertBundleFunc: func(ctx context.Context, bundle aggregate.SubmissionBundle) error {
				return errors.New("disk full")
			},
		}

		svc := NewAnalyticsService(mockRepo, logger)
		_, err := svc.SubmitBundle(ctx, validDraft())

		assert.ErrorIs(t, err, ErrStorageFailure)
		assert.Contains(t, err.Error(), "disk full")
	})
}
