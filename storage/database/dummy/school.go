package dummydb

import (
	"context"
	"strings"

	"github.com/google/uuid"

	"github.com/trezcool/shule/core/school"
)

type schoolRepository struct {
	course     *courseTable
	enrollment *enrollmentTable
}

var _ school.Repository = (*schoolRepository)(nil) // interface compliance check

func NewSchoolRepository(db *DB) school.Repository {
	return &schoolRepository{course: db.course, enrollment: db.enrollment}
}

func (repo *schoolRepository) CheckCodeUniqueness(_ context.Context, code string, excludedCourses ...school.Course) error {
	repo.course.RLock()
	defer repo.course.RUnlock()

loop:
	for _, crs := range repo.course.table {
		if strings.EqualFold(crs.Code, code) {
			for _, excl := range excludedCourses {
				if excl.ID == crs.ID {
					continue loop
				}
			}
			return school.ErrCodeExists
		}
	}
	return nil
}

func (repo *schoolRepository) CreateCourse(_ context.Context, crs school.Course) (school.Course, error) {
	repo.course.Lock()
	defer repo.course.Unlock()

	crs.ID = uuid.New().String()
	repo.course.table[crs.ID] = &crs
	return crs, nil
}

func (repo *schoolRepository) GetCourse(_ context.Context, id string) (school.Course, error) {
	repo.course.RLock()
	defer repo.course.RUnlock()

	if crs, ok := repo.course.table[id]; ok {
		return *crs, nil
	}
	return school.Course{}, school.ErrNotFound
}

func (repo *schoolRepository) QueryCourses(_ context.Context, filter *school.QueryFilter) ([]school.Course, error) {
	repo.course.RLock()
	defer repo.course.RUnlock()

	courses := make([]school.Course, 0, len(repo.course.table))
	for _, crs := range repo.course.table {
		courses = append(courses, *crs)
	}
	if filter == nil || filter.IsEmpty() {
		return courses, nil
	}

	if filter.Search != "" {
		var filtered []school.Course
		for _, crs := range courses {
			if strings.Contains(strings.ToLower(crs.Code), strings.ToLower(filter.Search)) ||
				strings.Contains(strings.ToLower(crs.Name), strings.ToLower(filter.Search)) {
				filtered = append(filtered, crs)
			}
		}
		courses = filtered
	}
	if courses != nil && filter.TeacherID != "" {
		var filtered []school.Course
		for _, crs := range courses {
			if crs.TeacherID == filter.TeacherID {
				filtered = append(filtered, crs)
			}
		}
		courses = filtered
	}

	return courses, nil
}

func (repo *schoolRepository) UpdateCourse(_ context.Context, crs school.Course) (school.Course, error) {
	repo.course.Lock()
	defer repo.course.Unlock()

	// only save set fields
	origCrs, ok := repo.course.table[crs.ID]
	if !ok {
		return school.Course{}, school.ErrNotFound
	}
	if crs.Code != "" {
		origCrs.Code = crs.Code
	}
	if crs.Name != "" {
		origCrs.Name = crs.Name
	}
	if crs.Description != "" {
		origCrs.Description = crs.Description
	}
	if crs.TeacherID != "" {
		origCrs.TeacherID = crs.TeacherID
	}
	origCrs.UpdatedAt = crs.UpdatedAt

	repo.course.table[crs.ID] = origCrs
	return *origCrs, nil
}

func (repo *schoolRepository) DeleteCoursesByID(_ context.Context, ids ...string) (int, error) {
	repo.course.Lock()
	defer repo.course.Unlock()
	repo.enrollment.Lock()
	defer repo.enrollment.Unlock()

	var n int
	for _, id := range ids {
		if _, ok := repo.course.table[id]; ok {
			delete(repo.course.table, id)
			n++
		}
		for eid, enr := range repo.enrollment.table {
			if enr.CourseID == id {
				delete(repo.enrollment.table, eid)
			}
		}
	}
	return n, nil
}

func (repo *schoolRepository) EnrollStudent(_ context.Context, enr school.Enrollment) (school.Enrollment, error) {
	repo.enrollment.Lock()
	defer repo.enrollment.Unlock()

	// enrolling twice is a no-op; the existing row wins
	for _, existing := range repo.enrollment.table {
		if existing.StudentID == enr.StudentID && existing.CourseID == enr.CourseID {
			return *existing, nil
		}
	}

	enr.ID = uuid.New().String()
	repo.enrollment.table[enr.ID] = &enr
	return enr, nil
}

func (repo *schoolRepository) UnenrollStudent(_ context.Context, studentID, courseID string) error {
	repo.enrollment.Lock()
	defer repo.enrollment.Unlock()

	for id, enr := range repo.enrollment.table {
		if enr.StudentID == studentID && enr.CourseID == courseID {
			delete(repo.enrollment.table, id)
			break
		}
	}
	return nil
}

func (repo *schoolRepository) QueryEnrollments(_ context.Context, filter school.EnrollmentFilter) ([]school.Enrollment, error) {
	repo.enrollment.RLock()
	defer repo.enrollment.RUnlock()

	enrollments := make([]school.Enrollment, 0, len(repo.enrollment.table))
	for _, enr := range repo.enrollment.table {
		if filter.CourseID != "" && enr.CourseID != filter.CourseID {
			continue
		}
		if filter.StudentID != "" && enr.StudentID != filter.StudentID {
			continue
		}
		enrollments = append(enrollments, *enr)
	}
	return enrollments, nil
}
