package mocks

import (
	"context"
	"errors"
	"time"

	"github.com/campuspulse/feedback-server/internal/aggregate"
)

// MockFeedbackRepository is a mock implementation of the FeedbackRepository
// interface for testing the service layer.
type MockFeedbackRepository struct {
	InsertBundleFunc func(ctx context.Context, bundle aggregate.SubmissionBundle) error
	ListBundlesFunc  func(ctx context.Context, start, end time.Time) ([]aggregate.SubmissionBundle, error)
	CountBundlesFunc func(ctx context.Context, start, end time.Time) (int64, error)
}

// InsertBundle implements the FeedbackRepository interface
func (m *MockFeedbackRepository) InsertBundle(ctx context.Context, bundle aggregate.SubmissionBundle) error {
	if m.InsertBundleFunc != nil {
		return m.InsertBundleFunc(ctx, bundle)
	}
	return errors.New("InsertBundleFunc not implemented")
}

// ListBundles implements the FeedbackRepository interface
func (m *MockFeedbackRepository) ListBundles(ctx context.Context, start, end time.Time) ([]aggregate.SubmissionBundle, error) {
	if m.ListBundlesFunc != nil {
		return m.ListBundlesFunc(ctx, start, end)
	}
	return nil, errors.New("ListBundlesFunc not implemented")
}

// CountBundles implements the FeedbackRepository interface
func (m *MockFeedbackRepository) CountBundles(ctx context.Context, start, end time.Time) (int64, error) {
	if m.CountBundlesFunc != nil {
		return m.CountBundlesFunc(ctx, start, end)
	}
	return 0, errors.New("CountBundlesFunc not implemented")
}
