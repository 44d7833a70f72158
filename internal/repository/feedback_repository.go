package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/campuspulse/feedback-server/internal/aggregate"
	"github.com/campuspulse/feedback-server/internal/repository/models"
)

// FeedbackRepository persists submission bundles and reassembles them
// with their nested teacher feedbacks and question ratings.
type FeedbackRepository struct {
	db *sql.DB
}

func NewFeedbackRepository(db *sql.DB) *FeedbackRepository {
	return &FeedbackRepository{db: db}
}

const schema = `
CREATE TABLE IF NOT EXISTS submission_bundles (
	id TEXT PRIMARY KEY,
	student_name TEXT NOT NULL,
	student_section TEXT NOT NULL,
	submitted_at TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_bundles_submitted_at ON submission_bundles(submitted_at);

CREATE TABLE IF NOT EXISTS teacher_feedbacks (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	bundle_id TEXT NOT NULL REFERENCES submission_bundles(id),
	position INTEGER NOT NULL,
	teacher_id TEXT NOT NULL,
	teacher_name TEXT NOT NULL,
	subject TEXT NOT NULL,
	overall_rating REAL NOT NULL,
	detailed_feedback TEXT NOT NULL DEFAULT '',
	suggestions TEXT NOT NULL DEFAULT '',
	weighted_score REAL
);
CREATE INDEX IF NOT EXISTS idx_feedbacks_bundle ON teacher_feedbacks(bundle_id, position);

CREATE TABLE IF NOT EXISTS question_ratings (
	id INTEGER PRIMARY KEY AUTOINCREMENT,
	feedback_id INTEGER NOT NULL REFERENCES teacher_feedbacks(id),
	position INTEGER NOT NULL,
	question_id TEXT NOT NULL,
	question TEXT NOT NULL,
	rating REAL NOT NULL,
	weight REAL NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_question_ratings_feedback ON question_ratings(feedback_id, position);
`

// EnsureSchema creates the tables if they do not exist. Safe to call on
// every startup.
func (r *FeedbackRepository) EnsureSchema(ctx context.Context) error {
	if _, err := r.db.ExecContext(ctx, schema); err != nil {
		return fmt.Errorf("ensure schema: %w", err)
	}
	return nil
}

// Timestamps are stored as fixed-width RFC 3339 UTC text so the range
// predicates below stay lexicographically correct on the TEXT column.
// RFC3339Nano is unsuitable here: it trims trailing zeros, which breaks
// string ordering for values that differ only in the fraction.
const storedTimeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(storedTimeLayout)
}

func parseTime(s string) (time.Time, error) {
	return time.Parse(time.RFC3339Nano, s)
}

// InsertBundle stores one bundle with all nested rows in a single
// transaction.
func (r *FeedbackRepository) InsertBundle(ctx context.Context, bundle aggregate.SubmissionBundle) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin InsertBundle tx: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx, `
		INSERT INTO submission_bundles (id, student_name, student_section, submitted_at)
		VALUES (?, ?, ?, ?)
	`, bundle.ID, bundle.StudentName, bundle.StudentSection, formatTime(bundle.SubmittedAt))
	if err != nil {
		return fmt.Errorf("insert bundle %s: %w", bundle.ID, err)
	}

	for i, fb := range bundle.TeacherFeedbacks {
		var weighted any
		if fb.WeightedScore != nil {
			weighted = *fb.WeightedScore
		}

		res, err := tx.ExecContext(ctx, `
			INSERT INTO teacher_feedbacks
				(bundle_id, position, teacher_id, teacher_name, subject,
				 overall_rating, detailed_feedback, suggestions, weighted_score)
			VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)
		`, bundle.ID, i, fb.TeacherID, fb.TeacherName, fb.Subject,
			fb.OverallRating, fb.DetailedFeedback, fb.Suggestions, weighted)
		if err != nil {
			return fmt.Errorf("insert feedback for bundle %s: %w", bundle.ID, err)
		}

		feedbackID, err := res.LastInsertId()
		if err != nil {
			return fmt.Errorf("feedback id for bundle %s: %w", bundle.ID, err)
		}

		for j, qr := range fb.QuestionRatings {
			_, err := tx.ExecContext(ctx, `
				INSERT INTO question_ratings
					(feedback_id, position, question_id, question, rating, weight)
				VALUES (?, ?, ?, ?, ?, ?)
			`, feedbackID, j, qr.QuestionID, qr.Question, qr.Rating, qr.Weight)
			if err != nil {
				return fmt.Errorf("insert question rating for bundle %s: %w", bundle.ID, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit InsertBundle tx: %w", err)
	}
	return nil
}

// ListBundles returns all bundles submitted within [start, end], ordered
// by submission time, with feedback and question order preserved.
func (r *FeedbackRepository) ListBundles(ctx context.Context, start, end time.Time) ([]aggregate.SubmissionBundle, error) {
	bundleRows, err := r.queryBundleRows(ctx, start, end)
	if err != nil {
		return nil, err
	}
	if len(bundleRows) == 0 {
		return nil, nil
	}

	feedbackRows, err := r.queryFeedbackRows(ctx, start, end)
	if err != nil {
		return nil, err
	}

	ratingRows, err := r.queryQuestionRatingRows(ctx, start, end)
	if err != nil {
		return nil, err
	}

	ratingsByFeedback := make(map[int64][]aggregate.QuestionRating)
	for _, qr := range ratingRows {
		ratingsByFeedback[qr.FeedbackID] = append(ratingsByFeedback[qr.FeedbackID], aggregate.QuestionRating{
			QuestionID: qr.QuestionID,
			Question:   qr.Question,
			Rating:     qr.Rating,
			Weight:     qr.Weight,
		})
	}

	feedbacksByBundle := make(map[string][]aggregate.TeacherFeedback)
	for _, fr := range feedbackRows {
		fb := aggregate.TeacherFeedback{
			TeacherID:        fr.TeacherID,
			TeacherName:      fr.TeacherName,
			Subject:          fr.Subject,
			QuestionRatings:  ratingsByFeedback[fr.ID],
			OverallRating:    fr.OverallRating,
			DetailedFeedback: fr.DetailedFeedback,
			Suggestions:      fr.Suggestions,
		}
		if fr.WeightedScore.Valid {
			ws := fr.WeightedScore.Float64
			fb.WeightedScore = &ws
		}
		feedbacksByBundle[fr.BundleID] = append(feedbacksByBundle[fr.BundleID], fb)
	}

	bundles := make([]aggregate.SubmissionBundle, 0, len(bundleRows))
	for _, br := range bundleRows {
		submittedAt, err := parseTime(br.SubmittedAt)
		if err != nil {
			return nil, fmt.Errorf("parse submitted_at for bundle %s: %w", br.ID, err)
		}
		bundles = append(bundles, aggregate.SubmissionBundle{
			ID:               br.ID,
			StudentName:      br.StudentName,
			StudentSection:   br.StudentSection,
			TeacherFeedbacks: feedbacksByBundle[br.ID],
			SubmittedAt:      submittedAt,
		})
	}
	return bundles, nil
}

// CountBundles reports how many bundles were submitted within [start, end].
func (r *FeedbackRepository) CountBundles(ctx context.Context, start, end time.Time) (int64, error) {
	const query = `
		SELECT COUNT(*) FROM submission_bundles
		WHERE submitted_at >= ? AND submitted_at <= ?
	`

	var count int64
	err := r.db.QueryRowContext(ctx, query, formatTime(start), formatTime(end)).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("query CountBundles: %w", err)
	}
	return count, nil
}

func (r *FeedbackRepository) queryBundleRows(ctx context.Context, start, end time.Time) ([]models.BundleRow, error) {
	const query = `
		SELECT id, student_name, student_section, submitted_at
		FROM submission_bundles
		WHERE submitted_at >= ? AND submitted_at <= ?
		ORDER BY submitted_at, id
	`

	rows, err := r.db.QueryContext(ctx, query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("query bundles: %w", err)
	}
	defer rows.Close()

	var out []models.BundleRow
	for rows.Next() {
		var br models.BundleRow
		if err := rows.Scan(&br.ID, &br.StudentName, &br.StudentSection, &br.SubmittedAt); err != nil {
			return nil, fmt.Errorf("scan bundle row: %w", err)
		}
		out = append(out, br)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate bundle rows: %w", err)
	}
	return out, nil
}

func (r *FeedbackRepository) queryFeedbackRows(ctx context.Context, start, end time.Time) ([]models.FeedbackRow, error) {
	const query = `
		SELECT f.id, f.bundle_id, f.teacher_id, f.teacher_name, f.subject,
		       f.overall_rating, f.detailed_feedback, f.suggestions, f.weighted_score
		FROM teacher_feedbacks AS f
		JOIN submission_bundles AS b ON b.id = f.bundle_id
		WHERE b.submitted_at >= ? AND b.submitted_at <= ?
		ORDER BY f.bundle_id, f.position
	`

	rows, err := r.db.QueryContext(ctx, query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("query teacher feedbacks: %w", err)
	}
	defer rows.Close()

	var out []models.FeedbackRow
	for rows.Next() {
		var fr models.FeedbackRow
		if err := rows.Scan(&fr.ID, &fr.BundleID, &fr.TeacherID, &fr.TeacherName, &fr.Subject,
			&fr.OverallRating, &fr.DetailedFeedback, &fr.Suggestions, &fr.WeightedScore); err != nil {
			return nil, fmt.Errorf("scan feedback row: %w", err)
		}
		out = append(out, fr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate feedback rows: %w", err)
	}
	return out, nil
}

func (r *FeedbackRepository) queryQuestionRatingRows(ctx context.Context, start, end time.Time) ([]models.QuestionRatingRow, error) {
	const query = `
		SELECT q.feedback_id, q.question_id, q.question, q.rating, q.weight
		FROM question_ratings AS q
		JOIN teacher_feedbacks AS f ON f.id = q.feedback_id
		JOIN submission_bundles AS b ON b.id = f.bundle_id
		WHERE b.submitted_at >= ? AND b.submitted_at <= ?
		ORDER BY q.feedback_id, q.position
	`

	rows, err := r.db.QueryContext(ctx, query, formatTime(start), formatTime(end))
	if err != nil {
		return nil, fmt.Errorf("query question ratings: %w", err)
	}
	defer rows.Close()

	var out []models.QuestionRatingRow
	for rows.Next() {
		var qr models.QuestionRatingRow
		if err := rows.Scan(&qr.FeedbackID, &qr.QuestionID, &qr.Question, &qr.Rating, &qr.Weight); err != nil {
			return nil, fmt.Errorf("scan question rating row: %w", err)
		}
		out = append(out, qr)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate question rating rows: %w", err)
	}
	return out, nil
}
