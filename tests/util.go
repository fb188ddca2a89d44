package testutil

import (
	"context"
	"testing"
	"time"

	"github.com/trezcool/shule/core/grading"
	"github.com/trezcool/shule/core/school"
	"github.com/trezcool/shule/core/user"
)

func CreateUser(
	t *testing.T,
	repo user.Repository,
	name, uname, email, pwd string,
	roles []string,
	isActive bool,
	createdAt ...time.Time,
) user.User {
	tstamp := time.Now().UTC()
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC()
	}
	usr := user.User{
		Name:      name,
		Username:  uname,
		Email:     email,
		Roles:     roles,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateCourse(
	t *testing.T,
	repo school.Repository,
	code, name, teacherID string,
) school.Course {
	now := time.Now().UTC()
	crs, err := repo.CreateCourse(context.Background(), school.Course{
		Code:      code,
		Name:      name,
		TeacherID: teacherID,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateCourse() failed: %v", err)
	}
	return crs
}

func EnrollStudent(
	t *testing.T,
	repo school.Repository,
	studentID, courseID string,
) school.Enrollment {
	enr, err := repo.EnrollStudent(context.Background(), school.Enrollment{
		StudentID:  studentID,
		CourseID:   courseID,
		EnrolledAt: time.Now().UTC(),
	})
	if err != nil {
		t.Fatalf("EnrollStudent() failed: %v", err)
	}
	return enr
}

func CreateAssessment(
	t *testing.T,
	repo grading.Repository,
	courseID, name string,
	typ grading.AssessmentType,
	maxScore, weight float64,
	createdBy string,
) grading.Assessment {
	now := time.Now().UTC()
	a, err := repo.CreateAssessment(context.Background(), grading.Assessment{
		CourseID:  courseID,
		Name:      name,
		Type:      typ,
		MaxScore:  maxScore,
		Weight:    weight,
		CreatedBy: createdBy,
		CreatedAt: now,
		UpdatedAt: now,
	})
	if err != nil {
		t.Fatalf("CreateAssessment() failed: %v", err)
	}
	return a
}
