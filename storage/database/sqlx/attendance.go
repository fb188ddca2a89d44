package sqlxrepos

import (
	"context"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/shule/core/attendance"
)

type attendanceRepository struct {
	db *sqlx.DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

type attendanceRow struct {
	ID        string      `db:"id"`
	StudentID string      `db:"student_id"`
	CourseID  string      `db:"course_id"`
	Date      null.Time   `db:"date"`
	Status    string      `db:"status"`
	Notes     null.String `db:"notes"`
	MarkedBy  null.String `db:"marked_by"`
	MarkedAt  null.Time   `db:"marked_at"`
	UpdatedAt null.Time   `db:"updated_at"`
}

func (repo attendanceRepository) unrow(r attendanceRow) attendance.Attendance {
	return attendance.Attendance{
		ID:        r.ID,
		StudentID: r.StudentID,
		CourseID:  r.CourseID,
		Date:      r.Date.Time,
		Status:    attendance.Status(r.Status),
		Notes:     r.Notes.String,
		MarkedBy:  r.MarkedBy.String,
		MarkedAt:  r.MarkedAt.Time,
		UpdatedAt: r.UpdatedAt.Time,
	}
}

// UpsertAttendance is the single-statement atomic replace the attendance
// service requires: the unique (student_id, course_id, date) constraint plus
// ON CONFLICT DO UPDATE make concurrent submissions converge to one row
// holding the last writer's status (no merge of conflicting statuses).
func (repo attendanceRepository) UpsertAttendance(ctx context.Context, att attendance.Attendance) (attendance.Attendance, error) {
	att.ID = uuid.New().String()
	var r attendanceRow
	err := repo.db.GetContext(ctx, &r, `
		INSERT INTO attendance (id, student_id, course_id, date, status, notes, marked_by, marked_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
		ON CONFLICT (student_id, course_id, date) DO UPDATE
		SET status     = EXCLUDED.status,
		    notes      = EXCLUDED.notes,
		    marked_by  = EXCLUDED.marked_by,
		    marked_at  = EXCLUDED.marked_at,
		    updated_at = EXCLUDED.updated_at
		RETURNING *`,
		att.ID, att.StudentID, att.CourseID, att.Date, string(att.Status),
		null.NewString(att.Notes, att.Notes != ""),
		null.NewString(att.MarkedBy, att.MarkedBy != ""),
		att.MarkedAt.UTC(), att.UpdatedAt.UTC(),
	)
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "upserting attendance")
	}
	return repo.unrow(r), nil
}

func (repo attendanceRepository) QueryAttendance(ctx context.Context, filter attendance.QueryFilter) ([]attendance.Attendance, error) {
	q := `SELECT * FROM attendance WHERE true`
	var args []interface{}

	if filter.CourseID != "" {
		q += ` AND course_id = ?`
		args = append(args, filter.CourseID)
	}
	if filter.StudentID != "" {
		q += ` AND student_id = ?`
		args = append(args, filter.StudentID)
	}
	if !filter.Date.IsZero() {
		q += ` AND date = ?`
		args = append(args, filter.Date)
	}
	if !filter.DateFrom.IsZero() {
		q += ` AND date >= ?`
		args = append(args, filter.DateFrom)
	}
	if !filter.DateTo.IsZero() {
		q += ` AND date <= ?`
		args = append(args, filter.DateTo)
	}
	q += ` ORDER BY date, marked_at`

	var rows []attendanceRow
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), args...); err != nil {
		return nil, errors.Wrap(err, "querying attendance")
	}
	records := make([]attendance.Attendance, 0, len(rows))
	for _, r := range rows {
		records = append(records, repo.unrow(r))
	}
	return records, nil
}
