package aggregate

import "time"

// QuestionRating is one answered question inside a teacher evaluation.
// Weight is the percentage contribution of the question to the weighted
// score; weights of one evaluation are expected to sum to 100.
type QuestionRating struct {
	QuestionID string  `json:"questionId"`
	Question   string  `json:"question"`
	Rating     float64 `json:"rating"`
	Weight     float64 `json:"weight"`
}

// TeacherFeedback is one student's evaluation of one teacher within a bundle.
type TeacherFeedback struct {
	TeacherID        string           `json:"teacherId"`
	TeacherName      string           `json:"teacherName"`
	Subject          string           `json:"subject"`
	QuestionRatings  []QuestionRating `json:"questionRatings"`
	OverallRating    float64          `json:"overallRating"`
	DetailedFeedback string           `json:"detailedFeedback,omitempty"`
	Suggestions      string           `json:"suggestions,omitempty"`

	// WeightedScore is a precomputed 0-100 percentage. When nil it is
	// derived from QuestionRatings; when neither is available the entry
	// is excluded from weighted-score averages.
	WeightedScore *float64 `json:"weightedScore,omitempty"`
}

// SubmissionBundle is one student's complete feedback session. Bundles are
// immutable after creation; this package only ever reads them.
type SubmissionBundle struct {
	ID               string            `json:"id"`
	StudentName      string            `json:"studentName"`
	StudentSection   string            `json:"studentSection"`
	TeacherFeedbacks []TeacherFeedback `json:"teacherFeedbacks"`
	SubmittedAt      time.Time         `json:"submittedAt"`
}

// Grade is a qualitative bucket assigned by a fixed threshold ladder on
// weighted score.
type Grade string

const (
	GradeExcellent        Grade = "Excellent"
	GradeVeryGood         Grade = "Very Good"
	GradeGood             Grade = "Good"
	GradeAverage          Grade = "Average"
	GradeNeedsImprovement Grade = "Needs Improvement"
)

// AggregateRow is the per-(teacher, subject) performance row. The same
// teacher rated under two subject labels produces two rows.
type AggregateRow struct {
	TeacherID     string  `json:"teacherId"`
	TeacherName   string  `json:"teacherName"`
	Subject       string  `json:"subject"`
	Count         int     `json:"count"`
	AverageRating float64 `json:"averageRating"`
	WeightedScore float64 `json:"weightedScore"`
	Grade         Grade   `json:"grade"`
}

// BundleSummary is the per-bundle row shown on submission listings.
type BundleSummary struct {
	BundleID      string    `json:"bundleId"`
	StudentName   string    `json:"studentName"`
	Section       string    `json:"section"`
	FeedbackCount int       `json:"feedbackCount"`
	AverageRating float64   `json:"averageRating"`
	SubmittedAt   time.Time `json:"submittedAt"`
}

// SectionStat is the per-section breakdown row.
type SectionStat struct {
	Section       string  `json:"section"`
	BundleCount   int     `json:"bundleCount"`
	FeedbackCount int     `json:"feedbackCount"`
	AverageRating float64 `json:"averageRating"`
}
