package dummydb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/attendance"
)

type attendanceRepository struct {
	db *attendanceTable
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) attendance.Repository {
	return &attendanceRepository{db: db.attendance}
}

// UpsertAttendance replaces any existing row keyed on (StudentID, CourseID,
// Date) with the incoming values, keeping the original row's ID. The table
// lock makes the whole check-then-act sequence atomic, so concurrent
// submissions converge to a single row with the last writer's status.
func (repo *attendanceRepository) UpsertAttendance(_ context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, existing := range repo.db.table {
		if existing.StudentID == att.StudentID && existing.CourseID == att.CourseID && existing.Date.Equal(att.Date) {
			att.ID = existing.ID
			repo.db.table[att.ID] = &att
			return att, nil
		}
	}

	att.ID = uuid.New().String()
	repo.db.table[att.ID] = &att
	return att, nil
}

func (repo *attendanceRepository) QueryAttendance(_ context.Context, filter attendance.QueryFilter) ([]attendance.Attendance, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	records := make([]attendance.Attendance, 0, len(repo.db.table))
	for _, att := range repo.db.table {
		if filter.CourseID != "" && att.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != "" && att.StudentID != filter.StudentID {
			continue
		}
		if !filter.Date.IsZero() && !att.Date.Equal(filter.Date) {
			continue
		}
		if !filter.DateFrom.IsZero() && att.Date.Before(filter.DateFrom) {
			continue
		}
		if !filter.DateTo.IsZero() && att.Date.After(filter.DateTo) {
			continue
		}
		records = append(records, *att)
	}
	return records, nil
}
