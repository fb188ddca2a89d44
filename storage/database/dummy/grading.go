package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/grading"
)

type gradingRepository struct {
	assessment *assessmentTable
	grade      *gradeTable
}

var _ grading.Repository = (*gradingRepository)(nil) // interface compliance check

func NewGradingRepository(db *DB) grading.Repository {
	return &gradingRepository{assessment: db.assessment, grade: db.grade}
}

func (repo *gradingRepository) CreateAssessment(_ context.Context, a grading.Assessment) (grading.Assessment, error) {
	repo.assessment.Lock()
	defer repo.assessment.Unlock()

	a.ID = uuid.New().String()
	repo.assessment.table[a.ID] = &a
	return a, nil
}

func (repo *gradingRepository) GetAssessment(_ context.Context, id string) (grading.Assessment, error) {
	repo.assessment.RLock()
	defer repo.assessment.RUnlock()

	if a, ok := repo.assessment.table[id]; ok {
		return *a, nil
	}
	return grading.Assessment{}, grading.ErrAssessmentNotFound
}

func (repo *gradingRepository) QueryAssessments(_ context.Context, filter grading.AssessmentFilter) ([]grading.Assessment, error) {
	repo.assessment.RLock()
	defer repo.assessment.RUnlock()

	assessments := make([]grading.Assessment, 0, len(repo.assessment.table))
loop:
	for _, a := range repo.assessment.table {
		if filter.CourseID != "" && a.CourseID != filter.CourseID {
			continue
		}
		if len(filter.Types) > 0 {
			for _, typ := range filter.Types {
				if a.Type == typ {
					assessments = append(assessments, *a)
					continue loop
				}
			}
			continue
		}
		assessments = append(assessments, *a)
	}
	return assessments, nil
}

func (repo *gradingRepository) UpdateAssessment(_ context.Context, a grading.Assessment) (grading.Assessment, error) {
	repo.assessment.Lock()
	defer repo.assessment.Unlock()

	orig, ok := repo.assessment.table[a.ID]
	if !ok {
		return grading.Assessment{}, grading.ErrAssessmentNotFound
	}
	a.CourseID = orig.CourseID
	a.CreatedBy = orig.CreatedBy
	a.CreatedAt = orig.CreatedAt
	repo.assessment.table[a.ID] = &a
	return a, nil
}

func (repo *gradingRepository) DeleteAssessmentsByID(_ context.Context, ids ...string) (int, error) {
	repo.assessment.Lock()
	defer repo.assessment.Unlock()
	repo.grade.Lock()
	defer repo.grade.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.assessment.table[id]; ok {
			delete(repo.assessment.table, id)
			n++
		}
		// grades cascade with their assessment
		for gid, g := range repo.grade.table {
			if g.AssessmentID == id {
				delete(repo.grade.table, gid)
			}
		}
	}
	return n, nil
}

// UpsertGrade replaces any existing row keyed on (StudentID, AssessmentID)
// with the incoming values, keeping the original row's ID and CreatedAt.
// The table lock makes the whole check-then-act sequence atomic, so
// concurrent submissions converge to a single row with the last writer's
// values.
func (repo *gradingRepository) UpsertGrade(_ context.Context, g grading.Grade) (grading.Grade, error) {
	repo.grade.Lock()
	defer repo.grade.Unlock()

	for _, existing := range repo.grade.table {
		if existing.StudentID == g.StudentID && existing.AssessmentID == g.AssessmentID {
			g.ID = existing.ID
			g.CreatedAt = existing.CreatedAt
			repo.grade.table[g.ID] = &g
			return g, nil
		}
	}

	g.ID = uuid.New().String()
	repo.grade.table[g.ID] = &g
	return g, nil
}

func (repo *gradingRepository) QueryGrades(_ context.Context, filter grading.GradeFilter) ([]grading.Grade, error) {
	repo.grade.RLock()
	defer repo.grade.RUnlock()

	grades := make([]grading.Grade, 0, len(repo.grade.table))
loop:
	for _, g := range repo.grade.table {
		if filter.StudentID != "" && g.StudentID != filter.StudentID {
			continue
		}
		if filter.AssessmentID != "" && g.AssessmentID != filter.AssessmentID {
			continue
		}
		if len(filter.AssessmentIDs) > 0 {
			for _, id := range filter.AssessmentIDs {
				if g.AssessmentID == id {
					grades = append(grades, *g)
					continue loop
				}
			}
			continue
		}
		grades = append(grades, *g)
	}
	return grades, nil
}
