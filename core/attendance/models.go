package attendance

import (
	"time"

	"github.com/trezcool/shule/core"
)

type Status string

const (
	StatusPresent Status = "PRESENT"
	StatusAbsent  Status = "ABSENT"
	StatusLate    Status = "LATE"
	StatusExcused Status = "EXCUSED"
)

var AllStatuses = []Status{StatusPresent, StatusAbsent, StatusLate, StatusExcused}

// DateLayout is the wire format of attendance dates; records are keyed by
// calendar day, not timestamp.
const DateLayout = "2006-01-02"

// Attendance records one student's status in one course on one day.
// At most one row exists per (student, course, date).
type Attendance struct {
	ID        string    `json:"id"`
	StudentID string    `json:"student_id"`
	CourseID  string    `json:"course_id"`
	Date      time.Time `json:"date"` // truncated to midnight UTC
	Status    Status    `json:"status"`
	Notes     string    `json:"notes,omitempty"`
	MarkedBy  string    `json:"marked_by"`
	MarkedAt  time.Time `json:"marked_at"`  // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

// MarkAttendance contains information needed to mark (or re-mark) a
// student's attendance for a course on a given day.
type MarkAttendance struct {
	StudentID string `json:"student_id" validate:"required"`
	CourseID  string `json:"course_id" validate:"required"`
	Date      string `json:"date" validate:"required,datetime=2006-01-02"`
	Status    Status `json:"status" validate:"required,oneof=PRESENT ABSENT LATE EXCUSED"`
	Notes     string `json:"notes"`
}

func (ma *MarkAttendance) Validate() error {
	ma.Notes = core.CleanString(ma.Notes)
	return core.Validate.Struct(ma)
}

// date returns the parsed Date; Validate must have passed.
func (ma *MarkAttendance) date() time.Time {
	d, _ := time.ParseInLocation(DateLayout, ma.Date, time.UTC)
	return d
}

type QueryFilter struct {
	CourseID  string    `query:"course_id"`
	StudentID string    `query:"student_id"`
	Date      time.Time `query:"date"`
	DateFrom  time.Time `query:"date_from"`
	DateTo    time.Time `query:"date_to"`
}
