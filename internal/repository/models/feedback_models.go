package models

import "database/sql"

// BundleRow is one scanned submission_bundles row.
type BundleRow struct {
	ID             string
	StudentName    string
	StudentSection string
	SubmittedAt    string
}

// FeedbackRow is one scanned teacher_feedbacks row. WeightedScore is NULL
// for entries that never reported one.
type FeedbackRow struct {
	ID               int64
	BundleID         string
	TeacherID        string
	TeacherName      string
	Subject          string
	OverallRating    float64
	DetailedFeedback string
	Suggestions      string
	WeightedScore    sql.NullFloat64
}

// QuestionRatingRow is one scanned question_ratings row.
type QuestionRatingRow struct {
	FeedbackID int64
	QuestionID string
	Question   string
	Rating     float64
	Weight     float64
}
