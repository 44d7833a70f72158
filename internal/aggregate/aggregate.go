// Package aggregate folds student feedback bundles into per-teacher
// performance rows and summary figures. Every function is a pure,
// stateless computation over its input: degenerate input (empty lists,
// missing optional fields, NaN ratings) resolves to zero values, never
// to NaN, a panic, or an error.
package aggregate

import (
	"math"
	"sort"
)

// ratingScaleMax is the rating ceiling of the current feedback form,
// used only to normalize a derived weighted score to 0-100.
const ratingScaleMax = 10

type groupAccumulator struct {
	teacherID     string
	teacherName   string
	subject       string
	count         int
	ratingSum     float64
	weightedSum   float64
	weightedCount int
}

// AggregateByTeacher folds bundles into one row per (teacherID, subject)
// pair. Row order follows map iteration and is unspecified; callers that
// display rankings should apply SortRows.
func AggregateByTeacher(bundles []SubmissionBundle) []AggregateRow {
	groups := make(map[[2]string]*groupAccumulator)

	for _, b := range bundles {
		for _, fb := range b.TeacherFeedbacks {
			key := [2]string{fb.TeacherID, fb.Subject}
			acc, ok := groups[key]
			if !ok {
				acc = &groupAccumulator{
					teacherID:   fb.TeacherID,
					teacherName: fb.TeacherName,
					subject:     fb.Subject,
				}
				groups[key] = acc
			}

			acc.count++
			acc.ratingSum += safeRating(fb.OverallRating)

			if ws, ok := effectiveWeightedScore(fb); ok {
				acc.weightedSum += ws
				acc.weightedCount++
			}
		}
	}

	rows := make([]AggregateRow, 0, len(groups))
	for _, acc := range groups {
		var avg, weighted float64
		if acc.count > 0 {
			avg = round2(acc.ratingSum / float64(acc.count))
		}
		if acc.weightedCount > 0 {
			weighted = round1(acc.weightedSum / float64(acc.weightedCount))
		}

		rows = append(rows, AggregateRow{
			TeacherID:     acc.teacherID,
			TeacherName:   acc.teacherName,
			Subject:       acc.subject,
			Count:         acc.count,
			AverageRating: avg,
			WeightedScore: weighted,
			Grade:         GradeFor(weighted),
		})
	}
	return rows
}

// SortRows orders rows by weighted score descending, breaking ties by
// teacher name ascending and then subject ascending. The sort is stable
// so repeated calls on equal input produce identical output.
func SortRows(rows []AggregateRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		if rows[i].WeightedScore != rows[j].WeightedScore {
			return rows[i].WeightedScore > rows[j].WeightedScore
		}
		if rows[i].TeacherName != rows[j].TeacherName {
			return rows[i].TeacherName < rows[j].TeacherName
		}
		return rows[i].Subject < rows[j].Subject
	})
}

// SummarizeBundle returns the mean overall rating across the bundle's
// teacher feedbacks, or 0 for a bundle with none.
func SummarizeBundle(bundle SubmissionBundle) float64 {
	if len(bundle.TeacherFeedbacks) == 0 {
		return 0
	}
	var sum float64
	for _, fb := range bundle.TeacherFeedbacks {
		sum += safeRating(fb.OverallRating)
	}
	return round2(sum / float64(len(bundle.TeacherFeedbacks)))
}

// ComputeOverallAverage flattens all teacher feedbacks across all bundles
// and returns the mean overall rating with 1-decimal rounding, or 0 when
// there are no feedback entries at all.
func ComputeOverallAverage(bundles []SubmissionBundle) float64 {
	var sum float64
	var total int
	for _, b := range bundles {
		for _, fb := range b.TeacherFeedbacks {
			sum += safeRating(fb.OverallRating)
			total++
		}
	}
	if total == 0 {
		return 0
	}
	return round1(sum / float64(total))
}

// GradeFor maps a 0-100 weighted score onto the grade ladder. Lower
// bounds are inclusive: exactly 90.0 is Excellent, 89.9 is Very Good.
func GradeFor(weightedScore float64) Grade {
	switch {
	case weightedScore >= 90:
		return GradeExcellent
	case weightedScore >= 80:
		return GradeVeryGood
	case weightedScore >= 70:
		return GradeGood
	case weightedScore >= 60:
		return GradeAverage
	default:
		return GradeNeedsImprovement
	}
}

// SummarizeBundles builds one summary row per bundle, preserving input
// order.
func SummarizeBundles(bundles []SubmissionBundle) []BundleSummary {
	summaries := make([]BundleSummary, 0, len(bundles))
	for _, b := range bundles {
		summaries = append(summaries, BundleSummary{
			BundleID:      b.ID,
			StudentName:   b.StudentName,
			Section:       b.StudentSection,
			FeedbackCount: len(b.TeacherFeedbacks),
			AverageRating: SummarizeBundle(b),
			SubmittedAt:   b.SubmittedAt,
		})
	}
	return summaries
}

// AggregateBySection folds bundles into one row per student section,
// ordered by section code ascending.
func AggregateBySection(bundles []SubmissionBundle) []SectionStat {
	type sectionAcc struct {
		bundles   int
		feedbacks int
		ratingSum float64
	}
	groups := make(map[string]*sectionAcc)

	for _, b := range bundles {
		acc, ok := groups[b.StudentSection]
		if !ok {
			acc = &sectionAcc{}
			groups[b.StudentSection] = acc
		}
		acc.bundles++
		for _, fb := range b.TeacherFeedbacks {
			acc.feedbacks++
			acc.ratingSum += safeRating(fb.OverallRating)
		}
	}

	stats := make([]SectionStat, 0, len(groups))
	for section, acc := range groups {
		var avg float64
		if acc.feedbacks > 0 {
			avg = round2(acc.ratingSum / float64(acc.feedbacks))
		}
		stats = append(stats, SectionStat{
			Section:       section,
			BundleCount:   acc.bundles,
			FeedbackCount: acc.feedbacks,
			AverageRating: avg,
		})
	}
	sort.Slice(stats, func(i, j int) bool { return stats[i].Section < stats[j].Section })
	return stats
}

// effectiveWeightedScore resolves the 0-100 weighted score for one
// feedback entry: the precomputed value when present, otherwise a value
// derived from question ratings and weights. Entries with neither report
// ok=false and are excluded from weighted-score averages.
func effectiveWeightedScore(fb TeacherFeedback) (score float64, ok bool) {
	if fb.WeightedScore != nil {
		return safeRating(*fb.WeightedScore), true
	}
	if len(fb.QuestionRatings) == 0 {
		return 0, false
	}

	var weightedSum, weightSum, plainSum float64
	for _, qr := range fb.QuestionRatings {
		r := safeRating(qr.Rating)
		weightedSum += r * qr.Weight
		weightSum += qr.Weight
		plainSum += r
	}

	// Zero total weight falls back to the plain mean of the ratings.
	var mean float64
	if weightSum > 0 {
		mean = weightedSum / weightSum
	} else {
		mean = plainSum / float64(len(fb.QuestionRatings))
	}
	return mean * 100 / ratingScaleMax, true
}

// safeRating clamps NaN to 0 so a malformed rating contributes nothing
// to a sum while still occupying its slot in the denominator.
func safeRating(r float64) float64 {
	if math.IsNaN(r) {
		return 0
	}
	return r
}

// round2 rounds half away from zero to 2 decimal places.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// round1 rounds half away from zero to 1 decimal place.
func round1(v float64) float64 {
	return math.Round(v*10) / 10
}
