package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	echoapi "github.com/AmelJaballah/SmartLearn-mern-project/apps/api/echo"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

func TestUserApi_register(t *testing.T) {
	app := newTestApp(t)
	app.createUser(t, "Taken", "taken", "taken@test.tn", []string{user.RoleStudent}, true)

	const pwd = "Gr8-P@ssw0rd!"
	tests := []struct {
		name      string
		body      map[string]interface{}
		wantCode  int
		wantField string
	}{
		{
			name:      "missing password",
			body:      map[string]interface{}{"name": "Amel", "username": "amel"},
			wantCode:  http.StatusBadRequest,
			wantField: "password",
		},
		{
			name:      "username taken",
			body:      map[string]interface{}{"name": "Amel", "username": "Taken", "password": pwd, "password_confirm": pwd},
			wantCode:  http.StatusBadRequest,
			wantField: "username",
		},
		{
			name:      "admin role is not public",
			body:      map[string]interface{}{"name": "Amel", "username": "amel", "password": pwd, "password_confirm": pwd, "roles": []string{user.RoleAdmin}},
			wantCode:  http.StatusBadRequest,
			wantField: "roles",
		},
		{
			name:     "student",
			body:     map[string]interface{}{"name": "Amel", "username": "amel", "email": "amel@test.tn", "password": pwd, "password_confirm": pwd},
			wantCode: http.StatusCreated,
		},
		{
			name:     "professor",
			body:     map[string]interface{}{"name": "Prof", "username": "prof", "password": pwd, "password_confirm": pwd, "roles": []string{user.RoleProfessor}},
			wantCode: http.StatusCreated,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/v1/users/register", "", tt.body)
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())

			if tt.wantField != "" {
				assert.Contains(t, bodyMap(t, rec), tt.wantField)
				return
			}
			var resp echoapi.LoginResponse
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			require.NotNil(t, resp.User)
			assert.NotEmpty(t, resp.User.ID)
			if roles, ok := tt.body["roles"]; ok {
				assert.Equal(t, roles, resp.User.Roles)
			} else {
				assert.Equal(t, []string{user.RoleStudent}, resp.User.Roles)
			}
		})
	}
}

func TestUserApi_login(t *testing.T) {
	app := newTestApp(t)
	usr := app.createUser(t, "Student", "student", "student@test.tn", []string{user.RoleStudent}, true)
	app.createUser(t, "Gone", "gone", "gone@test.tn", []string{user.RoleStudent}, false)

	tests := []struct {
		name     string
		body     echoapi.LoginRequest
		wantCode int
		wantErr  string
	}{
		{name: "unknown user", body: echoapi.LoginRequest{Username: "nobody", Password: testPassword}, wantCode: http.StatusBadRequest, wantErr: "authentication failed"},
		{name: "wrong password", body: echoapi.LoginRequest{Username: "student", Password: "nope"}, wantCode: http.StatusBadRequest, wantErr: "authentication failed"},
		{name: "inactive user", body: echoapi.LoginRequest{Username: "gone", Password: testPassword}, wantCode: http.StatusForbidden, wantErr: "account deactivated"},
		{name: "by username", body: echoapi.LoginRequest{Username: "STUDENT", Password: testPassword}, wantCode: http.StatusOK},
		{name: "by email", body: echoapi.LoginRequest{Username: "student@test.tn", Password: testPassword}, wantCode: http.StatusOK},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := app.do(http.MethodPost, "/v1/users/login", "", tt.body)
			if tt.wantErr != "" {
				assertJSONEq(t, rec, tt.wantCode, httpErr{Error: tt.wantErr})
				return
			}
			require.Equal(t, tt.wantCode, rec.Code, rec.Body.String())
			var resp echoapi.LoginResponse
			decode(t, rec, &resp)
			assert.NotEmpty(t, resp.Token)
			require.NotNil(t, resp.User)
			assert.Equal(t, usr.ID, resp.User.ID)
			assert.False(t, resp.User.LastLogin.IsZero())
		})
	}
}

func TestUserApi_me(t *testing.T) {
	app := newTestApp(t)
	usr := app.createUser(t, "Student", "student", "student@test.tn", []string{user.RoleStudent}, true)

	rec := app.do(http.MethodGet, "/v1/users/me", "", nil)
	assertJSONEq(t, rec, http.StatusUnauthorized, errMissingToken)

	rec = app.do(http.MethodGet, "/v1/users/me", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = app.do(http.MethodGet, "/v1/users/me", app.token(t, usr), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	var got user.User
	decode(t, rec, &got)
	assert.Equal(t, usr.ID, got.ID)
	assert.Equal(t, usr.Username, got.Username)
}

func TestUserApi_refreshToken(t *testing.T) {
	app := newTestApp(t)
	usr := app.createUser(t, "Student", "student", "student@test.tn", []string{user.RoleStudent}, true)

	rec := app.do(http.MethodPost, "/v1/users/token-refresh", app.token(t, usr), nil)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	assert.NotEmpty(t, bodyMap(t, rec)["token"])
}

func TestUserApi_adminRoutes(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student", "student@test.tn", []string{user.RoleStudent}, true)
	prof := app.createUser(t, "Prof", "prof", "prof@test.tn", []string{user.RoleProfessor}, true)
	admin := app.createUser(t, "Admin", "admin", "admin@test.tn", []string{user.RoleAdmin}, true)

	t.Run("list users needs an admin", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/users", app.token(t, prof), nil)
		assertJSONEq(t, rec, http.StatusForbidden, httpErr{Error: "permission denied"})

		rec = app.do(http.MethodGet, "/v1/users", app.token(t, admin), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var users []user.User
		decode(t, rec, &users)
		assert.Len(t, users, 3)
	})

	t.Run("roles", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/users/roles", app.token(t, admin), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var roles []user.Role
		decode(t, rec, &roles)
		assert.Len(t, roles, len(user.Roles))
	})

	t.Run("student sees themselves only", func(t *testing.T) {
		token := app.token(t, student)
		rec := app.do(http.MethodGet, "/v1/users/"+student.ID, token, nil)
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = app.do(http.MethodGet, "/v1/users/"+prof.ID, token, nil)
		assertJSONEq(t, rec, http.StatusNotFound, httpErr{Error: "not found"})
	})

	t.Run("admin deletes a user", func(t *testing.T) {
		rec := app.do(http.MethodDelete, "/v1/users/"+prof.ID, app.token(t, admin), nil)
		assert.Equal(t, http.StatusNoContent, rec.Code, rec.Body.String())

		rec = app.do(http.MethodGet, "/v1/users/"+prof.ID, app.token(t, admin), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		// a token outliving its user is rejected
		rec = app.do(http.MethodGet, "/v1/users/me", app.token(t, prof), nil)
		assert.Equal(t, http.StatusUnauthorized, rec.Code)
	})
}
