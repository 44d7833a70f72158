package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	_ "github.com/mattn/go-sqlite3"
	"go.uber.org/zap"

	"github.com/campuspulse/feedback-server/internal/aggregate"
	"github.com/campuspulse/feedback-server/internal/repository"
	dbbuilder "github.com/campuspulse/feedback-server/pkg/database"
)

func setupRealDB(tb testing.TB) *repository.FeedbackRepository {
	tb.Helper()

	db, err := dbbuilder.New(
		dbbuilder.WithDriver("sqlite3"),
		dbbuilder.WithDataSource(":memory:"),
		dbbuilder.WithMaxOpenConns(1),
	)
	if err != nil {
		tb.Fatalf("failed to create db pool via builder: %v", err)
	}
	tb.Cleanup(func() { db.Close() })

	repo := repository.NewFeedbackRepository(db)
	if err := repo.EnsureSchema(context.Background()); err != nil {
		tb.Fatalf("failed to create schema: %v", err)
	}

	ws := 82.0
	submittedAt := time.Now().Add(-24 * time.Hour)
	for i := 0; i < 50; i++ {
		bundle := aggregate.SubmissionBundle{
			ID:             fmt.Sprintf("bench-%d", i),
			StudentName:    fmt.Sprintf("Anonymous Student %d", i),
			StudentSection: "A",
			TeacherFeedbacks: []aggregate.TeacherFeedback{
				{TeacherID: "T1", TeacherName: "Dr. Rao", Subject: "DS", OverallRating: 8, WeightedScore: &ws},
				{TeacherID: "T2", TeacherName: "Dr. Iyer", Subject: "OS", OverallRating: 7},
			},
			SubmittedAt: submittedAt,
		}
		if err := repo.InsertBundle(context.Background(), bundle); err != nil {
			tb.Fatalf("failed to seed bundle: %v", err)
		}
	}

	return repo
}

func BenchmarkGetTeacherPerformance(b *testing.B) {
	start := time.Now().Add(-72 * time.Hour)
	end := time.Now()
	repo := setupRealDB(b)

	svc := NewAnalyticsService(repo, zap.NewNop())

	b.ReportAllocs()

	for i := 0; i < b.N; i++ {
		_, _ = svc.GetTeacherPerformance(context.Background(), start, end)
	}
}
