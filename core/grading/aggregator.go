package grading

import "github.com/trezcool/shule/core"

// CourseSummary is one student's aggregate standing in one course.
type CourseSummary struct {
	StudentID     string  `json:"student_id"`
	CourseID      string  `json:"course_id"`
	TotalEarned   float64 `json:"total_earned"`
	TotalPossible float64 `json:"total_possible"`
	Percentage    float64 `json:"percentage"`
	Letter        string  `json:"letter"`
}

// weightedTotals accumulates score*weight and maxScore*weight over the
// assessment set for one student. An assessment with no recorded grade
// contributes zero earned points but its full weighted maximum to the
// denominator: ungraded work counts against the student rather than being
// excluded. Assessments with a non-positive weight or max score are excluded
// from both sums. Grades of other students are ignored.
func weightedTotals(assessments []Assessment, grades []Grade, studentID string) (earned, possible float64) {
	scores := make(map[string]float64, len(grades))
	for _, g := range grades {
		if g.StudentID == studentID {
			scores[g.AssessmentID] = g.Score
		}
	}
	for _, a := range assessments {
		if a.Weight <= 0 || a.MaxScore <= 0 {
			continue
		}
		earned += scores[a.ID] * a.Weight
		possible += a.MaxScore * a.Weight
	}
	return earned, possible
}

// ComputeCoursePercentage computes a student's weighted percentage across a
// course's assessments; see weightedTotals for the accumulation policy.
//
// The result is finite and non-negative; it may exceed 100 when a score
// exceeds its assessment's max score (scores are not clamped). An empty or
// fully degenerate assessment set yields exactly 0. Pure and total, never errors.
func ComputeCoursePercentage(assessments []Assessment, grades []Grade, studentID string) float64 {
	earned, possible := weightedTotals(assessments, grades, studentID)
	if possible <= 0 {
		return 0
	}
	return earned / possible * 100
}

// Summarize aggregates a student's grades over a course's assessments and
// maps the percentage, rounded to one decimal like all percentage stats,
// to a letter on the given scale.
func Summarize(courseID string, assessments []Assessment, grades []Grade, studentID string, scale Scale) CourseSummary {
	earned, possible := weightedTotals(assessments, grades, studentID)
	sum := CourseSummary{
		StudentID:     studentID,
		CourseID:      courseID,
		TotalEarned:   earned,
		TotalPossible: possible,
	}
	if possible > 0 {
		sum.Percentage = core.Round1(earned / possible * 100)
	}
	sum.Letter = scale.LetterFor(sum.Percentage)
	return sum
}
