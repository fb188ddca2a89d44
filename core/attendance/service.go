package attendance

import (
	"context"
	"errors"
	"time"

	"github.com/trezcool/shule/core"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

var (
	// errors
	ErrNotFound = errors.New("attendance record not found")
)

type (
	// Repository persists attendance records.
	Repository interface {
		// UpsertAttendance atomically inserts or replaces the row keyed on
		// (StudentID, CourseID, Date). The storage engine must guarantee
		// that two concurrent calls for the same key never produce two rows
		// and that the last writer's values win: a single-statement upsert
		// (INSERT ... ON CONFLICT ... DO UPDATE) or a transaction wrapping
		// the check-then-act sequence.
		UpsertAttendance(ctx context.Context, att Attendance) (Attendance, error)
		// QueryAttendance applies AND operation on available filter fields.
		QueryAttendance(ctx context.Context, filter QueryFilter) ([]Attendance, error)
	}

	Service struct {
		repo      Repository
		usrSvc    *user.Service
		schoolSvc *school.Service
	}
)

func NewService(repo Repository, usrSvc *user.Service, schoolSvc *school.Service) *Service {
	return &Service{repo: repo, usrSvc: usrSvc, schoolSvc: schoolSvc}
}

// Mark records a student's status for a course on a day. The
// (student, course, date) triple is unique: marking twice replaces status,
// notes and marking actor (last write wins), and refreshes MarkedAt.
// Enrollment eligibility is the caller's concern.
func (svc *Service) Mark(ctx context.Context, ma MarkAttendance, actor user.User) (Attendance, error) {
	if _, err := svc.usrSvc.GetByID(ctx, ma.StudentID); err != nil {
		if err == user.ErrNotFound {
			return Attendance{}, core.NewReferenceError("student", ma.StudentID)
		}
		return Attendance{}, err
	}
	if _, err := svc.schoolSvc.GetByID(ctx, ma.CourseID); err != nil {
		if err == school.ErrNotFound {
			return Attendance{}, core.NewReferenceError("course", ma.CourseID)
		}
		return Attendance{}, err
	}

	now := time.Now().UTC()
	att := Attendance{
		StudentID: ma.StudentID,
		CourseID:  ma.CourseID,
		Date:      ma.date(),
		Status:    ma.Status,
		Notes:     ma.Notes,
		MarkedBy:  actor.ID,
		MarkedAt:  now,
		UpdatedAt: now,
	}
	return svc.repo.UpsertAttendance(ctx, att)
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter) ([]Attendance, error) {
	return svc.repo.QueryAttendance(ctx, filter)
}

// SummarizeSession counts records per status for one course+date session.
// All four statuses are always present in the result; counts sum to
// len(records). Pure, used for the quick-stats display.
func SummarizeSession(records []Attendance) map[Status]int {
	counts := make(map[Status]int, len(AllStatuses))
	for _, s := range AllStatuses {
		counts[s] = 0
	}
	for _, r := range records {
		counts[r.Status]++
	}
	return counts
}

// Rate returns present/total*100 rounded to one decimal place
// (the shared percentage-stats convention), or 0 for no records.
func Rate(records []Attendance) float64 {
	if len(records) == 0 {
		return 0
	}
	var present int
	for _, r := range records {
		if r.Status == StatusPresent {
			present++
		}
	}
	return core.Round1(float64(present) / float64(len(records)) * 100)
}

// CourseSessionSummary fetches one course+date session and summarizes it.
func (svc *Service) CourseSessionSummary(ctx context.Context, courseID string, date time.Time) (map[Status]int, error) {
	records, err := svc.repo.QueryAttendance(ctx, QueryFilter{CourseID: courseID, Date: date})
	if err != nil {
		return nil, err
	}
	return SummarizeSession(records), nil
}

// StudentCourseRate computes a student's attendance rate for a course over
// the trailing windowDays days (dates >= today minus windowDays).
func (svc *Service) StudentCourseRate(ctx context.Context, courseID, studentID string, windowDays int) (float64, error) {
	filter := QueryFilter{CourseID: courseID, StudentID: studentID}
	if windowDays > 0 {
		today := time.Now().UTC().Truncate(24 * time.Hour)
		filter.DateFrom = today.AddDate(0, 0, -windowDays)
	}
	records, err := svc.repo.QueryAttendance(ctx, filter)
	if err != nil {
		return 0, err
	}
	return Rate(records), nil
}
