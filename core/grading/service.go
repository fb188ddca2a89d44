package grading

import (
	"context"
	"errors"
	"fmt"
	"net/mail"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrAssessmentNotFound = errors.New("assessment not found")
	ErrGradeNotFound      = errors.New("grade not found")
)

type (
	// Repository persists assessments and grades. Implementations must map
	// their engine's "no rows" error to ErrAssessmentNotFound/ErrGradeNotFound.
	Repository interface {
		CreateAssessment(ctx context.Context, a Assessment) (Assessment, error)
		GetAssessment(ctx context.Context, id string) (Assessment, error)
		// QueryAssessments applies AND operation on available filter fields;
		// an empty Types slice matches all types.
		QueryAssessments(ctx context.Context, filter AssessmentFilter) ([]Assessment, error)
		UpdateAssessment(ctx context.Context, a Assessment) (Assessment, error)
		// DeleteAssessmentsByID also deletes the assessments' grades.
		DeleteAssessmentsByID(ctx context.Context, ids ...string) (int, error)

		// UpsertGrade atomically inserts or replaces the grade row keyed on
		// (StudentID, AssessmentID). The storage engine must guarantee that
		// two concurrent calls for the same key never produce two rows and
		// that the last writer's values win: a single-statement upsert
		// (INSERT ... ON CONFLICT ... DO UPDATE) or a transaction wrapping
		// the check-then-act sequence.
		UpsertGrade(ctx context.Context, g Grade) (Grade, error)
		QueryGrades(ctx context.Context, filter GradeFilter) ([]Grade, error)
	}

	Service struct {
		repo    Repository
		usrSvc  *user.Service
		mailSvc core.EmailService
		scale   Scale
	}
)

func NewService(repo Repository, usrSvc *user.Service, mailSvc core.EmailService, scale Scale) *Service {
	return &Service{repo: repo, usrSvc: usrSvc, mailSvc: mailSvc, scale: scale}
}

func (svc *Service) Scale() Scale { return svc.scale }

func (svc *Service) CreateAssessment(ctx context.Context, courseID string, na NewAssessment, actor user.User) (Assessment, error) {
	now := time.Now().UTC()
	a := Assessment{
		CourseID:  courseID,
		Name:      na.Name,
		Type:      na.Type,
		MaxScore:  na.MaxScore,
		Weight:    na.Weight,
		DueDate:   na.DueDate,
		CreatedBy: actor.ID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	return svc.repo.CreateAssessment(ctx, a)
}

func (svc *Service) GetAssessment(ctx context.Context, id string) (Assessment, error) {
	return svc.repo.GetAssessment(ctx, id)
}

func (svc *Service) QueryAssessments(ctx context.Context, filter AssessmentFilter) ([]Assessment, error) {
	return svc.repo.QueryAssessments(ctx, filter)
}

func (svc *Service) UpdateAssessment(ctx context.Context, id string, ua UpdateAssessment) (Assessment, error) {
	orig, err := svc.repo.GetAssessment(ctx, id)
	if err != nil {
		return Assessment{}, err
	}
	a := Assessment{
		ID:        id,
		CourseID:  orig.CourseID,
		Name:      ua.Name,
		Type:      ua.Type,
		MaxScore:  ua.MaxScore,
		Weight:    ua.Weight,
		DueDate:   ua.DueDate,
		CreatedBy: orig.CreatedBy,
		CreatedAt: orig.CreatedAt,
		UpdatedAt: time.Now().UTC(),
	}
	return svc.repo.UpdateAssessment(ctx, a)
}

// DeleteAssessments removes assessments and cascades their grades.
func (svc *Service) DeleteAssessments(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteAssessmentsByID(ctx, ids...)
	return err
}

// CreateOrReplaceGrade records a student's score on an assessment. The
// (student, assessment) pair is unique: recording twice replaces score,
// letter override, feedback and grading actor, and refreshes UpdatedAt.
// Replaying identical input is a no-op beyond the timestamp.
func (svc *Service) CreateOrReplaceGrade(ctx context.Context, ng NewGrade, actor user.User) (Grade, error) {
	student, err := svc.usrSvc.GetByID(ctx, ng.StudentID)
	if err != nil {
		if err == user.ErrNotFound {
			return Grade{}, core.NewReferenceError("student", ng.StudentID)
		}
		return Grade{}, err
	}
	assessment, err := svc.repo.GetAssessment(ctx, ng.AssessmentID)
	if err != nil {
		if err == ErrAssessmentNotFound {
			return Grade{}, core.NewReferenceError("assessment", ng.AssessmentID)
		}
		return Grade{}, err
	}

	now := time.Now().UTC()
	g := Grade{
		StudentID:    ng.StudentID,
		AssessmentID: ng.AssessmentID,
		Score:        ng.Score,
		LetterGrade:  ng.LetterGrade,
		Feedback:     ng.Feedback,
		GradedBy:     actor.ID,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	g, err = svc.repo.UpsertGrade(ctx, g)
	if err != nil {
		return Grade{}, err
	}
	svc.sendGradeMail(student, assessment, g)
	return g, nil
}

func (svc *Service) QueryGrades(ctx context.Context, filter GradeFilter) ([]Grade, error) {
	return svc.repo.QueryGrades(ctx, filter)
}

// StudentCourseSummary aggregates one student's standing in a course,
// optionally restricted to certain assessment types. Fetching assessments by
// course here guarantees the aggregation never mixes grades across courses.
func (svc *Service) StudentCourseSummary(ctx context.Context, courseID, studentID string, types ...AssessmentType) (CourseSummary, error) {
	assessments, err := svc.repo.QueryAssessments(ctx, AssessmentFilter{CourseID: courseID, Types: types})
	if err != nil {
		return CourseSummary{}, err
	}
	ids := make([]string, 0, len(assessments))
	for _, a := range assessments {
		ids = append(ids, a.ID)
	}
	var grades []Grade
	if len(ids) > 0 {
		if grades, err = svc.repo.QueryGrades(ctx, GradeFilter{StudentID: studentID, AssessmentIDs: ids}); err != nil {
			return CourseSummary{}, err
		}
	}
	return Summarize(courseID, assessments, grades, studentID, svc.scale), nil
}

// CourseGradebook returns a course's assessments and every grade recorded on
// them, for the staff gradebook view.
func (svc *Service) CourseGradebook(ctx context.Context, courseID string) ([]Assessment, []Grade, error) {
	assessments, err := svc.repo.QueryAssessments(ctx, AssessmentFilter{CourseID: courseID})
	if err != nil {
		return nil, nil, err
	}
	if len(assessments) == 0 {
		return assessments, nil, nil
	}
	ids := make([]string, 0, len(assessments))
	for _, a := range assessments {
		ids = append(ids, a.ID)
	}
	grades, err := svc.repo.QueryGrades(ctx, GradeFilter{AssessmentIDs: ids})
	if err != nil {
		return nil, nil, err
	}
	return assessments, grades, nil
}

func (svc *Service) sendGradeMail(student user.User, a Assessment, g Grade) {
	if svc.mailSvc == nil || student.Email == "" {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:      []mail.Address{{Name: student.Name, Address: student.Email}},
		Subject: fmt.Sprintf("Grade posted: %s", a.Name),
		BodyStr: fmt.Sprintf(
			"Hi %s,\n\nA grade was posted for %q: %v/%v.\n",
			student.Name, a.Name, g.Score, a.MaxScore,
		),
	})
}
