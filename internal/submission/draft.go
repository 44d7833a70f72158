// Package submission separates the partially-built record a client posts
// from the valid, persistable bundle. A draft passes through one explicit
// validation step that either yields an aggregate.SubmissionBundle or
// fails with enumerated field errors.
package submission

import (
	"errors"
	"fmt"
	"math"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/campuspulse/feedback-server/internal/aggregate"
)

// ErrValidation wraps every validation failure so callers can dispatch
// with errors.Is.
var ErrValidation = errors.New("invalid submission")

// weightSumTolerance allows for float drift when checking that the
// weights of one feedback entry sum to 100.
const weightSumTolerance = 0.5

// ErrorKind enumerates the ways a draft field can be rejected.
type ErrorKind string

const (
	KindRequired   ErrorKind = "required"
	KindOutOfRange ErrorKind = "out_of_range"
	KindBadSection ErrorKind = "bad_section"
	KindWeightSum  ErrorKind = "weight_sum"
)

// FieldError pinpoints one rejected field.
type FieldError struct {
	Field string    `json:"field"`
	Kind  ErrorKind `json:"kind"`
}

func (e FieldError) Error() string {
	return fmt.Sprintf("%s: %s", e.Field, e.Kind)
}

// ValidationError carries all field errors of one rejected draft.
type ValidationError struct {
	Fields []FieldError
}

func (e *ValidationError) Error() string {
	parts := make([]string, len(e.Fields))
	for i, f := range e.Fields {
		parts[i] = f.Error()
	}
	return fmt.Sprintf("%v: %s", ErrValidation, strings.Join(parts, "; "))
}

func (e *ValidationError) Unwrap() error { return ErrValidation }

// QuestionRatingDraft mirrors aggregate.QuestionRating before validation.
type QuestionRatingDraft struct {
	QuestionID string  `json:"questionId" validate:"required"`
	Question   string  `json:"question"`
	Rating     float64 `json:"rating" validate:"gte=1,lte=10"`
	Weight     float64 `json:"weight" validate:"gte=0,lte=100"`
}

// FeedbackDraft is one teacher evaluation as posted. OverallRating is
// optional; when absent it is derived as the mean of the question
// ratings during validation.
type FeedbackDraft struct {
	TeacherID        string                `json:"teacherId" validate:"required"`
	TeacherName      string                `json:"teacherName" validate:"required"`
	Subject          string                `json:"subject" validate:"required"`
	QuestionRatings  []QuestionRatingDraft `json:"questionRatings" validate:"dive"`
	OverallRating    *float64              `json:"overallRating" validate:"omitempty,gte=0,lte=10"`
	DetailedFeedback string                `json:"detailedFeedback"`
	Suggestions      string                `json:"suggestions"`
	WeightedScore    *float64              `json:"weightedScore" validate:"omitempty,gte=0,lte=100"`
}

// BundleDraft is the wire shape of a posted feedback session.
type BundleDraft struct {
	StudentName      string          `json:"studentName" validate:"required"`
	StudentSection   string          `json:"studentSection" validate:"required,oneof=A B C D"`
	TeacherFeedbacks []FeedbackDraft `json:"teacherFeedbacks" validate:"required,min=1,dive"`
}

// Validator converts drafts into valid bundles.
type Validator struct {
	validate *validator.Validate
}

func NewValidator() *Validator {
	return &Validator{validate: validator.New(validator.WithRequiredStructEnabled())}
}

// ValidateBundle checks the draft and, on success, returns an immutable
// SubmissionBundle with a fresh id and the submission timestamp stamped
// once. On failure it returns a *ValidationError wrapping ErrValidation.
func (v *Validator) ValidateBundle(draft BundleDraft) (aggregate.SubmissionBundle, error) {
	var fields []FieldError

	if err := v.validate.Struct(draft); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return aggregate.SubmissionBundle{}, fmt.Errorf("validate draft: %w", err)
		}
		for _, fe := range verrs {
			fields = append(fields, FieldError{Field: fe.Namespace(), Kind: kindOf(fe)})
		}
	}

	for i, fb := range draft.TeacherFeedbacks {
		if len(fb.QuestionRatings) == 0 {
			continue
		}
		var weightSum float64
		for _, qr := range fb.QuestionRatings {
			weightSum += qr.Weight
		}
		if math.Abs(weightSum-100) > weightSumTolerance {
			fields = append(fields, FieldError{
				Field: fmt.Sprintf("teacherFeedbacks[%d].questionRatings", i),
				Kind:  KindWeightSum,
			})
		}
	}

	if len(fields) > 0 {
		return aggregate.SubmissionBundle{}, &ValidationError{Fields: fields}
	}

	feedbacks := make([]aggregate.TeacherFeedback, len(draft.TeacherFeedbacks))
	for i, fb := range draft.TeacherFeedbacks {
		ratings := make([]aggregate.QuestionRating, len(fb.QuestionRatings))
		for j, qr := range fb.QuestionRatings {
			ratings[j] = aggregate.QuestionRating{
				QuestionID: qr.QuestionID,
				Question:   qr.Question,
				Rating:     qr.Rating,
				Weight:     qr.Weight,
			}
		}

		feedbacks[i] = aggregate.TeacherFeedback{
			TeacherID:        fb.TeacherID,
			TeacherName:      fb.TeacherName,
			Subject:          fb.Subject,
			QuestionRatings:  ratings,
			OverallRating:    overallRating(fb),
			DetailedFeedback: fb.DetailedFeedback,
			Suggestions:      fb.Suggestions,
			WeightedScore:    fb.WeightedScore,
		}
	}

	return aggregate.SubmissionBundle{
		ID:               uuid.NewString(),
		StudentName:      draft.StudentName,
		StudentSection:   draft.StudentSection,
		TeacherFeedbacks: feedbacks,
		SubmittedAt:      time.Now().UTC(),
	}, nil
}

func overallRating(fb FeedbackDraft) float64 {
	if fb.OverallRating != nil {
		return *fb.OverallRating
	}
	if len(fb.QuestionRatings) == 0 {
		return 0
	}
	var sum float64
	for _, qr := range fb.QuestionRatings {
		sum += qr.Rating
	}
	return sum / float64(len(fb.QuestionRatings))
}

func kindOf(fe validator.FieldError) ErrorKind {
	switch fe.Tag() {
	case "required", "min":
		return KindRequired
	case "oneof":
		return KindBadSection
	default:
		return KindOutOfRange
	}
}
