package tests

import (
	"encoding/json"
	"net/http"
	"testing"
	"time"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/attendance"
	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func Test_attendanceApi_mark(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	outsider := testutil.CreateUser(t, usrRepo, "Outsider", "outsider", "outsider@test.cd", "", []string{user.RoleStudent}, true)
	course := testutil.CreateCourse(t, schoolRepo, "MATH101", "Mathematics I", teacher.ID)
	testutil.EnrollStudent(t, schoolRepo, student.ID, course.ID)

	teacherToken := getToken(t, teacher)
	path := "/v1/courses/" + course.ID + "/attendance"
	date := "2026-04-01"

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: path,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Staff required", method: http.MethodPost, path: path, token: getToken(t, student),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Student not enrolled", method: http.MethodPost, path: path, token: teacherToken,
			body: marchallObj(t, attendance.MarkAttendance{
				StudentID: outsider.ID, Date: date, Status: attendance.StatusPresent,
			}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"student_id": "student is not enrolled in this course"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Bad date", func(t *testing.T) {
		body := marchallObj(t, attendance.MarkAttendance{
			StudentID: student.ID, Date: "04/01/2026", Status: attendance.StatusPresent,
		})
		req, rec := newAuthRequest(http.MethodPost, path, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusBadRequest {
			t.Errorf("mark() code = %v, want 400", rec.Code)
		}
	})

	var orig attendance.Attendance

	t.Run("Teacher marks", func(t *testing.T) {
		body := marchallObj(t, attendance.MarkAttendance{
			StudentID: student.ID, Date: date, Status: attendance.StatusPresent,
		})
		req, rec := newAuthRequest(http.MethodPost, path, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &orig); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if orig.ID == "" || orig.Status != attendance.StatusPresent || orig.MarkedBy != teacher.ID {
			t.Errorf("mark() = %+v", orig)
		}
	})

	t.Run("Re-mark replaces", func(t *testing.T) {
		body := marchallObj(t, attendance.MarkAttendance{
			StudentID: student.ID, Date: date, Status: attendance.StatusAbsent, Notes: "left early",
		})
		req, rec := newAuthRequest(http.MethodPost, path, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var att attendance.Attendance
		if err := json.Unmarshal(rec.Body.Bytes(), &att); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if att.ID != orig.ID {
			t.Errorf("mark() ID = %v, want %v", att.ID, orig.ID)
		}
		if att.Status != attendance.StatusAbsent || att.Notes != "left early" {
			t.Errorf("mark() = %+v, want last write to win", att)
		}

		req, rec = newAuthRequest(http.MethodGet, path, teacherToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("query() failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var records []attendance.Attendance
		if err := json.Unmarshal(rec.Body.Bytes(), &records); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(records) != 1 {
			t.Errorf("query() returned %d records, want 1", len(records))
		}
	})
}

func Test_attendanceApi_sessionSummary(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	course := testutil.CreateCourse(t, schoolRepo, "MATH101", "Mathematics I", teacher.ID)

	teacherToken := getToken(t, teacher)
	path := "/v1/courses/" + course.ID + "/attendance"
	date := "2026-04-01"

	statuses := []attendance.Status{
		attendance.StatusPresent, attendance.StatusPresent, attendance.StatusAbsent, attendance.StatusLate,
	}
	for i, status := range statuses {
		student := testutil.CreateUser(t, usrRepo,
			"Student", "student"+string(rune('1'+i)), "student"+string(rune('1'+i))+"@test.cd", "",
			[]string{user.RoleStudent}, true)
		testutil.EnrollStudent(t, schoolRepo, student.ID, course.ID)

		body := marchallObj(t, attendance.MarkAttendance{StudentID: student.ID, Date: date, Status: status})
		req, rec := newAuthRequest(http.MethodPost, path, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("mark() failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
	}

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: path + "/sessions/" + date,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Bad date", method: http.MethodGet, path: path + "/sessions/lol", token: teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"date": "date must be in 2006-01-02 format"}),
		},
		{
			name: "Session counts", method: http.MethodGet, path: path + "/sessions/" + date, token: teacherToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SessionSummaryResponse{
				CourseID: course.ID,
				Date:     date,
				Counts: map[attendance.Status]int{
					attendance.StatusPresent: 2,
					attendance.StatusAbsent:  1,
					attendance.StatusLate:    1,
					attendance.StatusExcused: 0,
				},
				Total: 4,
			}),
		},
		{
			name: "Empty session", method: http.MethodGet, path: path + "/sessions/2026-04-02", token: teacherToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, SessionSummaryResponse{
				CourseID: course.ID,
				Date:     "2026-04-02",
				Counts: map[attendance.Status]int{
					attendance.StatusPresent: 0,
					attendance.StatusAbsent:  0,
					attendance.StatusLate:    0,
					attendance.StatusExcused: 0,
				},
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}

func Test_attendanceApi_studentRate(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	nosy := testutil.CreateUser(t, usrRepo, "Nosy", "nosy", "nosy@test.cd", "", []string{user.RoleStudent}, true)
	course := testutil.CreateCourse(t, schoolRepo, "MATH101", "Mathematics I", teacher.ID)
	testutil.EnrollStudent(t, schoolRepo, student.ID, course.ID)

	teacherToken := getToken(t, teacher)
	markPath := "/v1/courses/" + course.ID + "/attendance"
	today := time.Now().UTC()

	// 3 present + 1 absent in the last week
	for daysAgo, status := range map[int]attendance.Status{
		1: attendance.StatusPresent,
		2: attendance.StatusPresent,
		3: attendance.StatusPresent,
		4: attendance.StatusAbsent,
	} {
		body := marchallObj(t, attendance.MarkAttendance{
			StudentID: student.ID,
			Date:      today.AddDate(0, 0, -daysAgo).Format(attendance.DateLayout),
			Status:    status,
		})
		req, rec := newAuthRequest(http.MethodPost, markPath, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("mark() failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
	}

	path := markPath + "/students/" + student.ID + "/rate"

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: path,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Students cannot see others'", method: http.MethodGet, path: path, token: getToken(t, nosy),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Bad window", method: http.MethodGet, path: path + "?window_days=lol", token: teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"window_days": "window_days must be a positive integer"}),
		},
		{
			name: "Negative window", method: http.MethodGet, path: path + "?window_days=-7", token: teacherToken,
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"window_days": "window_days must be a positive integer"}),
		},
		{
			name: "Student sees own", method: http.MethodGet, path: path, token: getToken(t, student),
			wantCode: http.StatusOK,
			wantData: marchallObj(t, AttendanceRateResponse{
				CourseID: course.ID, StudentID: student.ID, WindowDays: 30, Rate: 75,
			}),
		},
		{
			name: "Staff sees anyone's", method: http.MethodGet, path: path + "?window_days=7", token: teacherToken,
			wantCode: http.StatusOK,
			wantData: marchallObj(t, AttendanceRateResponse{
				CourseID: course.ID, StudentID: student.ID, WindowDays: 7, Rate: 75,
			}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}
}
