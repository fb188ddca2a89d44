package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/grading"
	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func Test_gradingApi_assessments(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	course := testutil.CreateCourse(t, schoolRepo, "MATH101", "Mathematics I", teacher.ID)

	teacherToken := getToken(t, teacher)
	studentToken := getToken(t, student)
	path := "/v1/courses/" + course.ID + "/assessments"

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodPost, path: path,
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Staff required", method: http.MethodPost, path: path, token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Unknown course reads as not found", method: http.MethodPost,
			path:  "/v1/courses/nope/assessments",
			body:  marchallObj(t, grading.NewAssessment{Name: "Midterm", Type: grading.AssessmentMidterm, MaxScore: 100}),
			token: teacherToken, wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	var midterm grading.Assessment

	t.Run("Teacher creates", func(t *testing.T) {
		body := marchallObj(t, grading.NewAssessment{Name: "Midterm", Type: grading.AssessmentMidterm, MaxScore: 100})
		req, rec := newAuthRequest(http.MethodPost, path, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusCreated {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &midterm); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if midterm.ID == "" || midterm.CourseID != course.ID || midterm.CreatedBy != teacher.ID {
			t.Errorf("createAssessment() = %+v", midterm)
		}
		if midterm.Weight != grading.DefaultWeight {
			t.Errorf("createAssessment() Weight = %v, want default %v", midterm.Weight, grading.DefaultWeight)
		}
	})

	t.Run("Students can list", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, studentToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusOK, wantData: marchallList(t, midterm)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Cross-course reads as not found", func(t *testing.T) {
		other := testutil.CreateCourse(t, schoolRepo, "PHY101", "Physics I", teacher.ID)
		req, rec := newAuthRequest(http.MethodGet, "/v1/courses/"+other.ID+"/assessments/"+midterm.ID, teacherToken)
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"})}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Teacher updates", func(t *testing.T) {
		body := marchallObj(t, grading.UpdateAssessment{Weight: 2})
		req, rec := newAuthRequest(http.MethodPut, path+"/"+midterm.ID, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var a grading.Assessment
		if err := json.Unmarshal(rec.Body.Bytes(), &a); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		// untouched fields survive partial updates
		if a.Weight != 2 || a.Name != midterm.Name || a.MaxScore != midterm.MaxScore {
			t.Errorf("updateAssessment() = %+v", a)
		}
	})

	t.Run("Teacher deletes", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodDelete, path+"/"+midterm.ID, teacherToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNoContent {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		req, rec = newAuthRequest(http.MethodGet, path+"/"+midterm.ID, teacherToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusNotFound {
			t.Errorf("retrieveAssessment() after delete: code = %v", rec.Code)
		}
	})
}

func Test_gradingApi_recordGrade(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	outsider := testutil.CreateUser(t, usrRepo, "Outsider", "outsider", "outsider@test.cd", "", []string{user.RoleStudent}, true)
	course := testutil.CreateCourse(t, schoolRepo, "MATH101", "Mathematics I", teacher.ID)
	other := testutil.CreateCourse(t, schoolRepo, "PHY101", "Physics I", teacher.ID)
	testutil.EnrollStudent(t, schoolRepo, student.ID, course.ID)
	midterm := testutil.CreateAssessment(t, gradingRepo, course.ID, "Midterm", grading.AssessmentMidterm, 100, 1, teacher.ID)
	strayFinal := testutil.CreateAssessment(t, gradingRepo, other.ID, "Final", grading.AssessmentFinal, 100, 2, teacher.ID)

	teacherToken := getToken(t, teacher)
	path := "/v1/courses/" + course.ID + "/grades"

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
			name: "Unknown assessment", method: http.MethodPost, path: path, token: teacherToken,
			body:     marchallObj(t, grading.NewGrade{StudentID: student.ID, AssessmentID: "nope", Score: 80}),
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "assessment not found: nope"}),
		},
		{
			name: "Assessment of another course", method: http.MethodPost, path: path, token: teacherToken,
			body:     marchallObj(t, grading.NewGrade{StudentID: student.ID, AssessmentID: strayFinal.ID, Score: 80}),
			wantCode: http.StatusBadRequest,
			wantData: marchallObj(t, map[string]string{"assessment_id": "assessment does not belong to this course"}),
		},
		{
			name: "Student not enrolled", method: http.MethodPost, path: path, token: teacherToken,
			body:     marchallObj(t, grading.NewGrade{StudentID: outsider.ID, AssessmentID: midterm.ID, Score: 80}),
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

	var orig grading.Grade

	t.Run("Teacher records", func(t *testing.T) {
		body := marchallObj(t, grading.NewGrade{StudentID: student.ID, AssessmentID: midterm.ID, Score: 80, Feedback: "solid work"})
		req, rec := newAuthRequest(http.MethodPost, path, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		if err := json.Unmarshal(rec.Body.Bytes(), &orig); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if orig.ID == "" || orig.Score != 80 || orig.GradedBy != teacher.ID {
			t.Errorf("recordGrade() = %+v", orig)
		}
	})

	t.Run("Re-record replaces", func(t *testing.T) {
		body := marchallObj(t, grading.NewGrade{StudentID: student.ID, AssessmentID: midterm.ID, Score: 95})
		req, rec := newAuthRequest(http.MethodPost, path, teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var g grading.Grade
		if err := json.Unmarshal(rec.Body.Bytes(), &g); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if g.ID != orig.ID {
			t.Errorf("recordGrade() ID = %v, want %v", g.ID, orig.ID)
		}
		if g.Score != 95 || g.Feedback != "" {
			t.Errorf("recordGrade() = %+v, want last write to win", g)
		}
	})
}

func Test_gradingApi_studentSummary(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	nosy := testutil.CreateUser(t, usrRepo, "Nosy", "nosy", "nosy@test.cd", "", []string{user.RoleStudent}, true)
	course := testutil.CreateCourse(t, schoolRepo, "MATH101", "Mathematics I", teacher.ID)
	testutil.EnrollStudent(t, schoolRepo, student.ID, course.ID)
	midterm := testutil.CreateAssessment(t, gradingRepo, course.ID, "Midterm", grading.AssessmentMidterm, 100, 1, teacher.ID)
	testutil.CreateAssessment(t, gradingRepo, course.ID, "Quiz 1", grading.AssessmentQuiz, 50, 0.5, teacher.ID)

	teacherToken := getToken(t, teacher)
	body := marchallObj(t, grading.NewGrade{StudentID: student.ID, AssessmentID: midterm.ID, Score: 80})
	req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+course.ID+"/grades", teacherToken, body)
	app.ServeHTTP(rec, req)
	if rec.Code != http.StatusOK {
		t.Fatalf("recordGrade() failed! code = %v; body = %v", rec.Code, rec.Body.String())
	}

	// midterm 80/100 w1.0 + ungraded quiz max 50 w0.5 = 80/125 = 64% -> D
	summary := grading.CourseSummary{
		StudentID:     student.ID,
		CourseID:      course.ID,
		TotalEarned:   80,
		TotalPossible: 125,
		Percentage:    64,
		Letter:        "D",
	}
	path := "/v1/courses/" + course.ID + "/students/" + student.ID + "/summary"

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
			name: "Student sees own", method: http.MethodGet, path: path, token: getToken(t, student),
			wantCode: http.StatusOK, wantData: marchallObj(t, summary),
		},
		{
			name: "Staff sees anyone's", method: http.MethodGet, path: path, token: teacherToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, summary),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newAuthRequest(tt.method, tt.path, tt.token)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Type filter", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path+"?type=MIDTERM", teacherToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var sum grading.CourseSummary
		if err := json.Unmarshal(rec.Body.Bytes(), &sum); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if sum.Percentage != 80 || sum.Letter != "B" {
			t.Errorf("studentSummary(MIDTERM) = %+v, want 80%% B", sum)
		}
	})
}

func Test_gradingApi_gradebook(t *testing.T) {
	app := setup(t)

	teacher := testutil.CreateUser(t, usrRepo, "Teacher", "teacher", "teacher@test.cd", "", []string{user.RoleTeacher}, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	course := testutil.CreateCourse(t, schoolRepo, "MATH101", "Mathematics I", teacher.ID)
	testutil.EnrollStudent(t, schoolRepo, student.ID, course.ID)
	midterm := testutil.CreateAssessment(t, gradingRepo, course.ID, "Midterm", grading.AssessmentMidterm, 100, 1, teacher.ID)

	teacherToken := getToken(t, teacher)
	path := "/v1/courses/" + course.ID + "/gradebook"

	t.Run("Staff required", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, getToken(t, student))
		app.ServeHTTP(rec, req)
		tt := httpTest{wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden)}
		checkCodeAndData(t, tt, rec)
	})

	t.Run("Empty gradebook", func(t *testing.T) {
		req, rec := newAuthRequest(http.MethodGet, path, teacherToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var gb GradebookResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &gb); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(gb.Assessments) != 1 || len(gb.Grades) != 0 {
			t.Errorf("gradebook() = %+v", gb)
		}
	})

	t.Run("With grades", func(t *testing.T) {
		body := marchallObj(t, grading.NewGrade{StudentID: student.ID, AssessmentID: midterm.ID, Score: 80})
		req, rec := newAuthRequest(http.MethodPost, "/v1/courses/"+course.ID+"/grades", teacherToken, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("recordGrade() failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}

		req, rec = newAuthRequest(http.MethodGet, path, teacherToken)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var gb GradebookResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &gb); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if len(gb.Grades) != 1 || gb.Grades[0].StudentID != student.ID {
			t.Errorf("gradebook() grades = %+v", gb.Grades)
		}
	})
}
