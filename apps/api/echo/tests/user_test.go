package tests

import (
	"encoding/json"
	"net/http"
	"testing"

	. "github.com/trezcool/shule/apps/api/echo"
	"github.com/trezcool/shule/core/user"
	testutil "github.com/trezcool/shule/tests"
)

func Test_userApi_login(t *testing.T) {
	app := setup(t)

	usr := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "pwd", []string{user.RoleStudent}, true)
	testutil.CreateUser(t, usrRepo, "Gone", "gone", "gone@test.cd", "pwd", nil, false)

	path := "/v1/users/login"

	tests := []httpTest{
		{
			name: "Unknown user", method: http.MethodPost, path: path,
			body:     marchallObj(t, LoginRequest{Username: "ghost", Password: "pwd"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Wrong password", method: http.MethodPost, path: path,
			body:     marchallObj(t, LoginRequest{Username: "student", Password: "nope"}),
			wantCode: http.StatusBadRequest, wantData: marchallObj(t, httpErr{Error: "authentication failed"}),
		},
		{
			name: "Deactivated account", method: http.MethodPost, path: path,
			body:     marchallObj(t, LoginRequest{Username: "gone", Password: "pwd"}),
			wantCode: http.StatusForbidden, wantData: marchallObj(t, httpErr{Error: "account deactivated"}),
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req, rec := newRequest(tt.method, tt.path, tt.body)
			app.ServeHTTP(rec, req)
			checkCodeAndData(t, tt, rec)
		})
	}

	t.Run("Login by username", func(t *testing.T) {
		body := marchallObj(t, LoginRequest{Username: "student", Password: "pwd"})
		req, rec := newRequest(http.MethodPost, path, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Fatalf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
		var resp LoginResponse
		if err := json.Unmarshal(rec.Body.Bytes(), &resp); err != nil {
			t.Fatalf("json.Unmarshal() failed: %v", err)
		}
		if resp.Token == "" {
			t.Fatal("login() returned an empty token")
		}

		// the token works
		req, rec = newAuthRequest(http.MethodGet, "/v1/users/"+usr.ID, resp.Token)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("retrieve() with fresh token: code = %v; body = %v", rec.Code, rec.Body.String())
		}
	})

	t.Run("Login by email", func(t *testing.T) {
		body := marchallObj(t, LoginRequest{Username: "student@test.cd", Password: "pwd"})
		req, rec := newRequest(http.MethodPost, path, body)
		app.ServeHTTP(rec, req)
		if rec.Code != http.StatusOK {
			t.Errorf("failed! code = %v; body = %v", rec.Code, rec.Body.String())
		}
	})
}

func Test_userApi_permissions(t *testing.T) {
	app := setup(t)

	admin := testutil.CreateUser(t, usrRepo, "Admin", "admin", "admin@test.cd", "", []string{user.RoleAdmin}, true)
	student := testutil.CreateUser(t, usrRepo, "Student", "student", "student@test.cd", "", []string{user.RoleStudent}, true)
	other := testutil.CreateUser(t, usrRepo, "Other", "other", "other@test.cd", "", []string{user.RoleStudent}, true)

	adminToken := getToken(t, admin)
	studentToken := getToken(t, student)

	tests := []httpTest{
		{
			name: "Auth required", method: http.MethodGet, path: "/v1/users",
			wantCode: http.StatusUnauthorized, wantData: marchallObj(t, errMissingToken),
		},
		{
			name: "Listing is admin-only", method: http.MethodGet, path: "/v1/users", token: studentToken,
			wantCode: http.StatusForbidden, wantData: marchallObj(t, errForbidden),
		},
		{
			name: "Admin lists", method: http.MethodGet, path: "/v1/users", token: adminToken,
			wantCode: http.StatusOK, wantData: marchallList(t, admin, student, other),
		},
		{
			name: "Student sees self", method: http.MethodGet, path: "/v1/users/" + student.ID, token: studentToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, student),
		},
		{
			name: "Others read as not found", method: http.MethodGet, path: "/v1/users/" + other.ID, token: studentToken,
			wantCode: http.StatusNotFound, wantData: marchallObj(t, httpErr{Error: "not found"}),
		},
		{
			name: "Admin sees anyone", method: http.MethodGet, path: "/v1/users/" + other.ID, token: adminToken,
			wantCode: http.StatusOK, wantData: marchallObj(t, other),
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
