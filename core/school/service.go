package school

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound   = errors.New("course not found")
	ErrCodeExists = errors.New("a course with this code already exists")
)

type (
	// Repository persists courses and enrollments. EnrollStudent must be
	// idempotent on the (student, course) unique pair: enrolling an already
	// enrolled student returns the existing row untouched.
	Repository interface {
		CheckCodeUniqueness(ctx context.Context, code string, excludedCourses ...Course) error
		CreateCourse(ctx context.Context, crs Course) (Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		// QueryCourses applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on one of Course.Code or Course.Name.
		QueryCourses(ctx context.Context, filter *QueryFilter) ([]Course, error)
		UpdateCourse(ctx context.Context, crs Course) (Course, error)
		DeleteCoursesByID(ctx context.Context, ids ...string) (int, error)

		EnrollStudent(ctx context.Context, enr Enrollment) (Enrollment, error)
		UnenrollStudent(ctx context.Context, studentID, courseID string) error
		QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error)
	}

	Service struct {
		repo   Repository
		usrSvc *user.Service
	}
)

func NewService(repo Repository, usrSvc *user.Service) *Service {
	return &Service{repo: repo, usrSvc: usrSvc}
}

func (svc *Service) CheckCodeUniqueness(code string, exclCourses ...Course) error {
	if err := svc.repo.CheckCodeUniqueness(context.Background(), code, exclCourses...); err != nil {
		if err == ErrCodeExists {
			return core.NewValidationError(err, core.FieldError{Field: "code", Error: err.Error()})
		}
		return err
	}
	return nil
}

func (svc *Service) Create(ctx context.Context, nc NewCourse) (Course, error) {
	teacher, err := svc.usrSvc.GetByID(ctx, nc.TeacherID)
	if err != nil {
		if err == user.ErrNotFound {
			return Course{}, core.NewReferenceError("teacher", nc.TeacherID)
		}
		return Course{}, err
	}
	if !teacher.IsTeacher() && !teacher.IsAdmin() {
		return Course{}, core.NewValidationError(nil, core.FieldError{Field: "teacher_id", Error: "user is not a teacher"})
	}

	now := time.Now().UTC()
	crs := Course{
		Code:        nc.Code,
		Name:        nc.Name,
		Description: nc.Description,
		TeacherID:   nc.TeacherID,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	return svc.repo.CreateCourse(ctx, crs)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter) ([]Course, error) {
	if filter != nil {
		filter.Clean()
	}
	return svc.repo.QueryCourses(ctx, filter)
}

func (svc *Service) Update(ctx context.Context, id string, uc UpdateCourse) (Course, error) {
	crs := Course{
		ID:          id,
		Code:        uc.Code,
		Name:        uc.Name,
		Description: uc.Description,
		TeacherID:   uc.TeacherID,
		UpdatedAt:   time.Now().UTC(),
	}
	return svc.repo.UpdateCourse(ctx, crs)
}

func (svc *Service) Delete(ctx context.Context, ids ...string) error {
	_, err := svc.repo.DeleteCoursesByID(ctx, ids...)
	return err
}

// Enroll authorizes a student to receive attendance and grade records for a course.
func (svc *Service) Enroll(ctx context.Context, studentID, courseID string) (Enrollment, error) {
	student, err := svc.usrSvc.GetByID(ctx, studentID)
	if err != nil {
		if err == user.ErrNotFound {
			return Enrollment{}, core.NewReferenceError("student", studentID)
		}
		return Enrollment{}, err
	}
	if !student.IsStudent() {
		return Enrollment{}, core.NewValidationError(nil, core.FieldError{Field: "student_id", Error: "user is not a student"})
	}
	if _, err := svc.repo.GetCourse(ctx, courseID); err != nil {
		if err == ErrNotFound {
			return Enrollment{}, core.NewReferenceError("course", courseID)
		}
		return Enrollment{}, err
	}

	enr := Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	}
	return svc.repo.EnrollStudent(ctx, enr)
}

func (svc *Service) Unenroll(ctx context.Context, studentID, courseID string) error {
	return svc.repo.UnenrollStudent(ctx, studentID, courseID)
}

func (svc *Service) QueryEnrollments(ctx context.Context, filter EnrollmentFilter) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, filter)
}

// IsEnrolled reports whether the student may receive attendance/grade
// records for the course. Callers gate record mutations on it; the
// grading and attendance services themselves do not re-check.
func (svc *Service) IsEnrolled(ctx context.Context, studentID, courseID string) (bool, error) {
	enrs, err := svc.repo.QueryEnrollments(ctx, EnrollmentFilter{CourseID: courseID, StudentID: studentID})
	if err != nil {
		return false, err
	}
	return len(enrs) > 0, nil
}
