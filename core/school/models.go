package school

import (
	"time"

	"github.com/trezcool/shule/core"
)

type Course struct {
	ID          string    `json:"id"`
	Code        string    `json:"code"`
	Name        string    `json:"name"`
	Description string    `json:"description,omitempty"`
	TeacherID   string    `json:"teacher_id"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

// Enrollment authorizes a student to receive attendance and grade
// records for a course. One row per (student, course).
type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
}

// NewCourse contains information needed to create a new Course.
type NewCourse struct {
	Code        string `json:"code" validate:"required,alphanum_"`
	Name        string `json:"name" validate:"required"`
	Description string `json:"description"`
	TeacherID   string `json:"teacher_id" validate:"required"`
}

func (nc *NewCourse) Validate(svc *Service) error {
	nc.Code = core.CleanString(nc.Code, true /* lower */)
	nc.Name = core.CleanString(nc.Name)
	nc.Description = core.CleanString(nc.Description)

	if err := core.Validate.Struct(nc); err != nil {
		return err
	}
	return svc.CheckCodeUniqueness(nc.Code)
}

// UpdateCourse defines what information may be provided to modify an existing Course.
type UpdateCourse struct {
	Code        string `json:"code" validate:"omitempty,alphanum_"`
	Name        string `json:"name"`
	Description string `json:"description"`
	TeacherID   string `json:"teacher_id"`
}

func (uc *UpdateCourse) Validate(orig Course, svc *Service) error {
	code := core.CleanString(uc.Code, true /* lower */)
	if code != "" {
		uc.Code = code
	} else {
		uc.Code = orig.Code
	}

	name := core.CleanString(uc.Name)
	if name != "" {
		uc.Name = name
	} else {
		uc.Name = orig.Name
	}

	uc.Description = core.CleanString(uc.Description)
	if uc.TeacherID == "" {
		uc.TeacherID = orig.TeacherID
	}

	if err := core.Validate.Struct(uc); err != nil {
		return err
	}
	if uc.Code != orig.Code {
		return svc.CheckCodeUniqueness(uc.Code)
	}
	return nil
}

type QueryFilter struct {
	Search    string `query:"search"`
	TeacherID string `query:"teacher_id"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.TeacherID == ""
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

type EnrollmentFilter struct {
	CourseID  string `query:"course_id"`
	StudentID string `query:"student_id"`
}
