package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/school"
)

type schoolRepository struct {
	db *sqlx.DB
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *sqlx.DB) *schoolRepository {
	return &schoolRepository{db: db}
}

type courseRow struct {
	ID          string      `db:"id"`
	Code        string      `db:"code"`
	Name        string      `db:"name"`
	Description null.String `db:"description"`
	TeacherID   string      `db:"teacher_id"`
	CreatedAt   null.Time   `db:"created_at"`
	UpdatedAt   null.Time   `db:"updated_at"`
}

func (repo schoolRepository) unrowCourse(r courseRow) school.Course {
	return school.Course{
		ID:          r.ID,
		Code:        r.Code,
		Name:        r.Name,
		Description: r.Description.String,
		TeacherID:   r.TeacherID,
		CreatedAt:   r.CreatedAt.Time,
		UpdatedAt:   r.UpdatedAt.Time,
	}
}

type enrollmentRow struct {
	ID         string    `db:"id"`
	StudentID  string    `db:"student_id"`
	CourseID   string    `db:"course_id"`
	EnrolledAt null.Time `db:"enrolled_at"`
}

func (repo schoolRepository) unrowEnrollment(r enrollmentRow) school.Enrollment {
	return school.Enrollment{
		ID:         r.ID,
		StudentID:  r.StudentID,
		CourseID:   r.CourseID,
		EnrolledAt: r.EnrolledAt.Time,
	}
}

func (repo schoolRepository) CheckCodeUniqueness(ctx context.Context, code string, excludedCourses ...school.Course) error {
	q := `SELECT EXISTS (SELECT 1 FROM course WHERE code = ?`
	args := []interface{}{code}
	if len(excludedCourses) > 0 {
		ids := make([]string, 0, len(excludedCourses))
		for _, c := range excludedCourses {
			ids = append(ids, c.ID)
		}
		q += ` AND id NOT IN (?)`
		args = append(args, ids)
	}
	q += `)`

	q, args, err := sqlx.In(q, args...)
	if err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	var exists bool
	if err := repo.db.GetContext(ctx, &exists, repo.db.Rebind(q), args...); err != nil {
		return errors.Wrap(err, "checking course code uniqueness")
	}
	if exists {
		return school.ErrCodeExists
	}
	return nil
}

func (repo schoolRepository) CreateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	crs.ID = uuid.New().String()
	_, err := repo.db.ExecContext(ctx, `
		INSERT INTO course (id, code, name, description, teacher_id, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7)`,
		crs.ID, crs.Code, crs.Name, null.NewString(crs.Description, crs.Description != ""),
		crs.TeacherID, crs.CreatedAt.UTC(), crs.UpdatedAt.UTC(),
	)
	if err != nil {
		return school.Course{}, errors.Wrap(err, "inserting course")
	}
	return crs, nil
}

func (repo schoolRepository) GetCourse(ctx context.Context, id string) (school.Course, error) {
	if _, err := uuid.Parse(id); err != nil {
		return school.Course{}, school.ErrNotFound
	}
	var r courseRow
	if err := repo.db.GetContext(ctx, &r, `SELECT * FROM course WHERE id = $1`, id); err != nil {
		if err == sql.ErrNoRows {
			return school.Course{}, school.ErrNotFound
		}
		return school.Course{}, errors.Wrap(err, "finding course")
	}
	return repo.unrowCourse(r), nil
}

func (repo schoolRepository) QueryCourses(ctx context.Context, filter *school.QueryFilter) ([]school.Course, error) {
	q := `SELECT * FROM course WHERE true`
	var args []interface{}

	if filter != nil {
		if filter.Search != "" {
			q += ` AND (code ILIKE ? OR name ILIKE ?)`
			val := "%" + filter.Search + "%"
			args = append(args, val, val)
		}
		if filter.TeacherID != "" {
			q += ` AND teacher_id = ?`
			args = append(args, filter.TeacherID)
		}
	}
	q += ` ORDER BY code`

	var rows []courseRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]school.Course, 0, len(rows))
	for _, r := range rows {
		courses = append(courses, repo.unrowCourse(r))
	}
	return courses, nil
}

func (repo schoolRepository) UpdateCourse(ctx context.Context, crs school.Course) (school.Course, error) {
	var r courseRow
	err := repo.db.GetContext(ctx, &r, `
		UPDATE course
		SET code        = COALESCE(NULLIF($2, ''), code),
		    name        = COALESCE(NULLIF($3, ''), name),
		    description = $4,
		    teacher_id  = COALESCE(NULLIF($5, '')::uuid, teacher_id),
		    updated_at  = $6
		WHERE id = $1
		RETURNING *`,
		crs.ID, crs.Code, crs.Name, null.NewString(crs.Description, crs.Description != ""),
		crs.TeacherID, crs.UpdatedAt.UTC(),
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return school.Course{}, school.ErrNotFound
		}
		return school.Course{}, errors.Wrap(err, "updating course")
	}
	return repo.unrowCourse(r), nil
}

func (repo schoolRepository) DeleteCoursesByID(ctx context.Context, ids ...string) (int, error) {
	q, args, err := sqlx.In(`DELETE FROM course WHERE id IN (?)`, ids)
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	res, err := repo.db.ExecContext(ctx, repo.db.Rebind(q), args...)
	if err != nil {
		return 0, errors.Wrap(err, "deleting courses")
	}
	cnt, _ := res.RowsAffected()
	return int(cnt), nil
}

func (repo schoolRepository) EnrollStudent(ctx context.Context, enr school.Enrollment) (school.Enrollment, error) {
	enr.ID = uuid.New().String()
	// idempotent on (student, course): an existing enrollment stays untouched
	res, err := repo.db.ExecContext(ctx, `
		INSERT INTO enrollment (id, student_id, course_id, enrolled_at)
		VALUES ($1, $2, $3, $4)
		ON CONFLICT (student_id, course_id) DO NOTHING`,
		enr.ID, enr.StudentID, enr.CourseID, enr.EnrolledAt.UTC(),
	)
	if err != nil {
		return school.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	if cnt, _ := res.RowsAffected(); cnt > 0 {
		return enr, nil
	}

	var r enrollmentRow
	err = repo.db.GetContext(ctx, &r,
		`SELECT * FROM enrollment WHERE student_id = $1 AND course_id = $2`,
		enr.StudentID, enr.CourseID,
	)
	if err != nil {
		return school.Enrollment{}, errors.Wrap(err, "finding enrollment")
	}
	return repo.unrowEnrollment(r), nil
}

func (repo schoolRepository) UnenrollStudent(ctx context.Context, studentID, courseID string) error {
	_, err := repo.db.ExecContext(ctx,
		`DELETE FROM enrollment WHERE student_id = $1 AND course_id = $2`,
		studentID, courseID,
	)
	return errors.Wrap(err, "deleting enrollment")
}

func (repo schoolRepository) QueryEnrollments(ctx context.Context, filter school.EnrollmentFilter) ([]school.Enrollment, error) {
	q := `SELECT * FROM enrollment WHERE true`
	var args []interface{}
	if filter.CourseID != "" {
		q += ` AND course_id = ?`
		args = append(args, filter.CourseID)
	}
	if filter.StudentID != "" {
		q += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	q += ` ORDER BY enrolled_at`

	var rows []enrollmentRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	enrs := make([]school.Enrollment, 0, len(rows))
	for _, r := range rows {
		enrs = append(enrs, repo.unrowEnrollment(r))
	}
	return enrs, nil
}
