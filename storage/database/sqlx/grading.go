package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/grading"
)

type gradingRepository struct {
	db *sqlx.DB
}

var _ grading.Repository = (*gradingRepository)(nil) // interface compliance check

func NewGradingRepository(db *sqlx.DB) *gradingRepository {
	return &gradingRepository{db: db}
}

type assessmentRow struct {
	ID        string      `db:"id"`
	CourseID  string      `db:"course_id"`
	Name      string      `db:"name"`
	Type      string      `db:"type"`
	MaxScore  float64     `db:"max_score"`
	Weight    float64     `db:"weight"`
	DueDate   null.Time   `db:"due_date"`
	CreatedBy null.String `db:"created_by"`
	CreatedAt null.Time   `db:"created_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (repo gradingRepository) unrowAssessment(r assessmentRow) grading.Assessment {
	a := grading.Assessment{
		ID:        r.ID,
		CourseID:  r.CourseID,
		Name:      r.Name,
		Type:      grading.AssessmentType(r.Type),
		MaxScore:  r.MaxScore,
		Weight:    r.Weight,
		CreatedBy: r.CreatedBy.String,
		CreatedAt: r.CreatedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
	if r.DueDate.Valid {
		due := r.DueDate.Time
		a.DueDate = &due
	}
	return a
}

type gradeRow struct {
	ID           string      `db:"id"`
	StudentID    string      `db:"student_id"`
	AssessmentID string      `db:"assessment_id"`
	Score        float64     `db:"score"`
	LetterGrade  null.String `db:"letter_grade"`
	Feedback     null.String `db:"feedback"`
	GradedBy     null.String `db:"graded_by"`
	CreatedAt    null.Time   `db:"created_at"`
	UpdatedAt    null.Time   `db:"updated_at"`
}

func (repo gradingRepository) unrowGrade(r gradeRow) grading.Grade {
	return grading.Grade{
		ID:           r.ID,
		StudentID:    r.StudentID,
		AssessmentID: r.AssessmentID,
		Score:        r.Score,
		LetterGrade:  r.LetterGrade.String,
		Feedback:     r.Feedback.String,
		GradedBy:     r.GradedBy.String,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

func (repo gradingRepository) CreateAssessment(ctx context.Context, a grading.Assessment) (grading.Assessment, error) {
	a.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO assessment (id, course_id, name, type, max_score, weight, due_date, created_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)`,
		a.ID, a.CourseID, a.Name, string(a.Type), a.MaxScore, a.Weight,
		null.TimeFromPtr(a.DueDate), null.NewString(a.CreatedBy, a.CreatedBy != ""),
		a.CreatedAt.UTC(), a.UpdatedAt.UTC(),
	)
	if err != nil {
		return grading.Assessment{}, errors.Wrap(err, "inserting assessment")
	}
	return a, nil
}

func (repo gradingRepository) GetAssessment(ctx context.Context, id string) (grading.Assessment, error) {
	if _, err := uuid.Parse(id); err != nil {
		return grading.Assessment{}, grading.ErrAssessmentNotFound
	}
	var r assessmentRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM assessment WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return grading.Assessment{}, grading.ErrAssessmentNotFound
		}
		return grading.Assessment{}, errors.Wrap(err, "finding assessment")
	}
	return repo.unrowAssessment(r), nil
}

func (repo gradingRepository) QueryAssessments(ctx context.Context, filter grading.AssessmentFilter) ([]grading.Assessment, error) {
	q := `SELECT * FROM assessment WHERE true`
	var args []interface{}

	if filter.CourseID != "" {
		q += ` AND course_id = ?`
		args = append(args, filter.CourseID)
	}
	if len(filter.Types) > 0 {
		types := make([]string, 0, len(filter.Types))
		for _, t := range filter.Types {
			types = append(types, string(t))
		}
		q += ` AND type IN (?)`
		args = append(args, types)
	}
	q += ` ORDER BY created_at`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	var rows []assessmentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying assessments")
	}
	assessments := make([]grading.Assessment, 0, len(rows))
	for _, r := range rows {
		assessments = append(assessments, repo.unrowAssessment(r))
	}
	return assessments, nil
}

func (repo gradingRepository) UpdateAssessment(ctx context.Context, a grading.Assessment) (grading.Assessment, error) {
	var r assessmentRow
	err := repo.db.GetContext(ctx, &r, `
		UPDATE assessment
		SET name       = $2,
		    type       = $3,
		    max_score  = $4,
		    weight     = $5,
		    due_date   = $6,
		    updated_at = $7
		WHERE id = $1
		RETURNING *`,
		a.ID, a.Name, string(a.Type), a.MaxScore, a.Weight,
		null.TimeFromPtr(a.DueDate), a.UpdatedAt.UTC(),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return grading.Assessment{}, grading.ErrAssessmentNotFound
		}
		return grading.Assessment{}, errors.Wrap(err, "updating assessment")
	}
	return repo.unrowAssessment(r), nil
}

// DeleteAssessmentsByID relies on the grade FK's ON DELETE CASCADE to drop
// the assessments' grades in the same statement.
func (repo gradingRepository) DeleteAssessmentsByID(ctx context.Context, ids ...string) (int, error) {
	q, args, err := sqlx.In(`DELETE FROM assessment WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting assessments")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting assessments")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

// UpsertGrade is the single-statement atomic replace the grading service
// requires: the unique (student_id, assessment_id) constraint plus
// ON CONFLICT DO UPDATE make concurrent submissions converge to one row
// holding the last writer's values. created_at is preserved on replace.
func (repo gradingRepository) UpsertGrade(ctx context.Context, g grading.Grade) (grading.Grade, error) {
	g.ID = uuid.New().String()
	var r gradeRow
	err := repo.db.GetContext(ctx, &r, `
		INSERT INTO grade (id, student_id, assessment_id, score, letter_grade, feedback, graded_by, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, assessment_id) DO UPDATE
		SET score        = EXCLUDED.score,
		    letter_grade = EXCLUDED.letter_grade,
		    feedback     = EXCLUDED.feedback,
		    graded_by    = EXCLUDED.graded_by,
		    updated_at   = EXCLUDED.updated_at
		RETURNING *`,
		g.ID, g.StudentID, g.AssessmentID, g.Score,
		null.NewString(g.LetterGrade, g.LetterGrade != ""),
		null.NewString(g.Feedback, g.Feedback != ""),
		null.NewString(g.GradedBy, g.GradedBy != ""),
		g.CreatedAt.UTC(), g.UpdatedAt.UTC(),
	)
	if err != nil {
		return grading.Grade{}, errors.Wrap(err, "upserting grade")
	}
	return repo.unrowGrade(r), nil
}

func (repo gradingRepository) QueryGrades(ctx context.Context, filter grading.GradeFilter) ([]grading.Grade, error) {
	q := `SELECT * FROM grade WHERE true`
	var args []interface{}

	if filter.StudentID != "" {
		q += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	if filter.AssessmentID != "" {
		q += ` AND assessment_id = ?`
		args = append(args, filter.AssessmentID)
	}
	if len(filter.AssessmentIDs) > 0 {
		q += ` AND assessment_id IN (?)`
		args = append(args, filter.AssessmentIDs)
	}
	q += ` ORDER BY created_at`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	var rows []gradeRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying grades")
	}
	grades := make([]grading.Grade, 0, len(rows))
	for _, r := range rows {
		grades = append(grades, repo.unrowGrade(r))
	}
	return grades, nil
}
