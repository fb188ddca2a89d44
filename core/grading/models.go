package grading

import (
	"strings"
	"time"

	"github.com/trezcool/shule/core"
)

type AssessmentType string

const (
	AssessmentQuiz       AssessmentType = "QUIZ"
	AssessmentAssignment AssessmentType = "ASSIGNMENT"
	AssessmentMidterm    AssessmentType = "MIDTERM"
	AssessmentFinal      AssessmentType = "FINAL"
	AssessmentProject    AssessmentType = "PROJECT"
)

var AllAssessmentTypes = []AssessmentType{
	AssessmentQuiz,
	AssessmentAssignment,
	AssessmentMidterm,
	AssessmentFinal,
	AssessmentProject,
}

const DefaultWeight = 1.00

// Assessment is a gradable course item with a weight and maximum score.
type Assessment struct {
	ID        string         `json:"id"`
	CourseID  string         `json:"course_id"`
	Name      string         `json:"name"`
	Type      AssessmentType `json:"type"`
	MaxScore  float64        `json:"max_score"`
	Weight    float64        `json:"weight"`
	DueDate   *time.Time     `json:"due_date,omitempty"`
	CreatedBy string         `json:"created_by"`
	CreatedAt time.Time      `json:"created_at"` // UTC
	UpdatedAt time.Time      `json:"updated_at"` // UTC
}

// Grade records a student's score on one assessment.
// At most one Grade exists per (student, assessment).
type Grade struct {
	ID           string    `json:"id"`
	StudentID    string    `json:"student_id"`
	AssessmentID string    `json:"assessment_id"`
	Score        float64   `json:"score"`
	LetterGrade  string    `json:"letter_grade,omitempty"` // manual override; blank means derived
	Feedback     string    `json:"feedback,omitempty"`
	GradedBy     string    `json:"graded_by"`
	CreatedAt    time.Time `json:"created_at"` // UTC
	UpdatedAt    time.Time `json:"updated_at"` // UTC
}

// NewAssessment contains information needed to create a new Assessment.
type NewAssessment struct {
	Name     string         `json:"name" validate:"required"`
	Type     AssessmentType `json:"type" validate:"required,oneof=QUIZ ASSIGNMENT MIDTERM FINAL PROJECT"`
	MaxScore float64        `json:"max_score" validate:"required,gt=0"`
	Weight   float64        `json:"weight" validate:"omitempty,gt=0"`
	DueDate  *time.Time     `json:"due_date"`
}

func (na *NewAssessment) Validate() error {
	na.Name = core.CleanString(na.Name)
	if na.Weight == 0 {
		na.Weight = DefaultWeight
	}
	return core.Validate.Struct(na)
}

// UpdateAssessment defines what information may be provided to modify an existing Assessment.
type UpdateAssessment struct {
	Name     string         `json:"name"`
	Type     AssessmentType `json:"type" validate:"omitempty,oneof=QUIZ ASSIGNMENT MIDTERM FINAL PROJECT"`
	MaxScore float64        `json:"max_score" validate:"omitempty,gt=0"`
	Weight   float64        `json:"weight" validate:"omitempty,gt=0"`
	DueDate  *time.Time     `json:"due_date"`
}

func (ua *UpdateAssessment) Validate(orig Assessment) error {
	name := core.CleanString(ua.Name)
	if name != "" {
		ua.Name = name
	} else {
		ua.Name = orig.Name
	}
	if ua.Type == "" {
		ua.Type = orig.Type
	}
	if ua.MaxScore == 0 {
		ua.MaxScore = orig.MaxScore
	}
	if ua.Weight == 0 {
		ua.Weight = orig.Weight
	}
	if ua.DueDate == nil {
		ua.DueDate = orig.DueDate
	}
	return core.Validate.Struct(ua)
}

// NewGrade contains information needed to record (or re-record) a student's
// score on an assessment.
type NewGrade struct {
	StudentID    string  `json:"student_id" validate:"required"`
	AssessmentID string  `json:"assessment_id" validate:"required"`
	Score        float64 `json:"score" validate:"gte=0"`
	LetterGrade  string  `json:"letter_grade" validate:"omitempty,alpha,max=2"`
	Feedback     string  `json:"feedback"`
}

func (ng *NewGrade) Validate() error {
	ng.LetterGrade = strings.ToUpper(core.CleanString(ng.LetterGrade))
	ng.Feedback = core.CleanString(ng.Feedback)
	return core.Validate.Struct(ng)
}

type AssessmentFilter struct {
	CourseID string           `query:"course_id"`
	Types    []AssessmentType `query:"type"`
}

type GradeFilter struct {
	StudentID     string   `query:"student_id"`
	AssessmentID  string   `query:"assessment_id"`
	AssessmentIDs []string `query:"-"`
}
