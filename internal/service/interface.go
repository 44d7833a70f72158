package service

import (
	"context"
	"time"

	"github.com/campuspulse/feedback-server/internal/aggregate"
)

// FeedbackRepository defines the interface for database operations for service.
type FeedbackRepository interface {
	InsertBundle(ctx context.Context, bundle aggregate.SubmissionBundle) error
	ListBundles(ctx context.Context, start, end time.Time) ([]aggregate.SubmissionBundle, error)
	CountBundles(ctx context.Context, start, end time.Time) (int64, error)
}
