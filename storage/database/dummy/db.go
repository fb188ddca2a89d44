package dummydb

import (
	"sync"

	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/grading"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

type (
	DB struct {
		user       *userTable
		course     *courseTable
		enrollment *enrollmentTable
		assessment *assessmentTable
		grade      *gradeTable
		attendance *attendanceTable
	}

	userTable struct {
		sync.RWMutex
		table map[string]*user.User
	}

	courseTable struct {
		sync.RWMutex
		table map[string]*school.Course
	}

	enrollmentTable struct {
		sync.RWMutex
		table map[string]*school.Enrollment
	}

	assessmentTable struct {
		sync.RWMutex
		table map[string]*grading.Assessment
	}

	gradeTable struct {
		sync.RWMutex
		table map[string]*grading.Grade
	}

	attendanceTable struct {
		sync.RWMutex
		table map[string]*attendance.Attendance
	}
)

func Open() (*DB, error) {
	db := &DB{
		user:       &userTable{table: make(map[string]*user.User)},
		course:     &courseTable{table: make(map[string]*school.Course)},
		enrollment: &enrollmentTable{table: make(map[string]*school.Enrollment)},
		assessment: &assessmentTable{table: make(map[string]*grading.Assessment)},
		grade:      &gradeTable{table: make(map[string]*grading.Grade)},
		attendance: &attendanceTable{table: make(map[string]*attendance.Attendance)},
	}
	return db, nil
}
