package echoapi_test

import (
	"context"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/enrollment"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/profile"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

func TestEnrollmentApi(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student", "student@test.tn", []string{user.RoleStudent}, true)
	prof := app.createUser(t, "Prof", "prof", "prof@test.tn", []string{user.RoleProfessor}, true)
	other := app.createUser(t, "Other", "other", "other@test.tn", []string{user.RoleProfessor}, true)
	c := app.createCourse(t, prof, "Statistics")
	token := app.token(t, student)

	var enrolled enrollment.Enrollment

	t.Run("course is required", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/enrollments", token, map[string]string{})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, bodyMap(t, rec), "course_id")
	})

	t.Run("unknown course", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/enrollments", token, map[string]string{"course_id": "missing"})
		assertJSONEq(t, rec, http.StatusNotFound, httpErr{Error: "course not found"})
	})

	t.Run("enroll", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/enrollments", token, map[string]string{"course_id": c.ID})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &enrolled)
		assert.Equal(t, student.ID, enrolled.StudentID)
		assert.Equal(t, enrollment.StatusActive, enrolled.Status)

		updated, err := app.courses.GetByID(context.Background(), c.ID)
		require.NoError(t, err)
		assert.True(t, updated.HasStudent(student.ID))

		sent := app.mail.SentMessages()
		require.Len(t, sent, 1)
		assert.Contains(t, sent[0].Subject, "Statistics")
	})

	t.Run("enroll twice", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/enrollments", token, map[string]string{"course_id": c.ID})
		assertJSONEq(t, rec, http.StatusBadRequest, map[string]string{"course_id": "already enrolled in this course"})
	})

	t.Run("status and list", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/enrollments/status/"+c.ID, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var st enrollment.EnrollmentStatus
		decode(t, rec, &st)
		assert.True(t, st.Enrolled)

		rec = app.do(http.MethodGet, "/v1/enrollments/status/"+c.ID, app.token(t, other), nil)
		assertJSONEq(t, rec, http.StatusOK, map[string]bool{"enrolled": false})

		rec = app.do(http.MethodGet, "/v1/enrollments/my", token, nil)
		var list []enrollment.Enrollment
		decode(t, rec, &list)
		require.Len(t, list, 1)
		assert.Equal(t, enrolled.ID, list[0].ID)
	})

	t.Run("progress", func(t *testing.T) {
		rec := app.do(http.MethodPatch, "/v1/enrollments/"+enrolled.ID+"/progress", token, map[string]interface{}{
			"completed_exercises": 3,
			"total_exercises":     4,
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var e enrollment.Enrollment
		decode(t, rec, &e)
		assert.Equal(t, 3, e.Progress.CompletedExercises)
		assert.Equal(t, 4, e.Progress.TotalExercises)

		rec = app.do(http.MethodPatch, "/v1/enrollments/"+enrolled.ID+"/progress", app.token(t, other), map[string]interface{}{"completed_exercises": 1})
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("course enrollments are for its professor", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/enrollments/course/"+c.ID, token, nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(http.MethodGet, "/v1/enrollments/course/"+c.ID, app.token(t, other), nil)
		assert.Equal(t, http.StatusForbidden, rec.Code)

		rec = app.do(http.MethodGet, "/v1/enrollments/course/"+c.ID, app.token(t, prof), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var list []enrollment.Enrollment
		decode(t, rec, &list)
		assert.Len(t, list, 1)
	})

	t.Run("unenroll", func(t *testing.T) {
		rec := app.do(http.MethodDelete, "/v1/enrollments/course/"+c.ID, token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		updated, err := app.courses.GetByID(context.Background(), c.ID)
		require.NoError(t, err)
		assert.False(t, updated.HasStudent(student.ID))

		rec = app.do(http.MethodDelete, "/v1/enrollments/course/"+c.ID, token, nil)
		assertJSONEq(t, rec, http.StatusNotFound, httpErr{Error: "enrollment not found"})
	})
}

func TestProfileApi(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student", "student@test.tn", []string{user.RoleStudent}, true)
	prof := app.createUser(t, "Prof", "prof", "prof@test.tn", []string{user.RoleProfessor}, true)
	token := app.token(t, student)

	t.Run("no profile yet", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/profiles/user/"+student.ID, app.token(t, prof), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})

	t.Run("me creates the default profile", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/profiles/me", token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p profile.Profile
		decode(t, rec, &p)
		assert.Equal(t, student.ID, p.UserID)

		rec = app.do(http.MethodGet, "/v1/profiles/user/"+student.ID, app.token(t, prof), nil)
		assert.Equal(t, http.StatusOK, rec.Code)
	})

	t.Run("update", func(t *testing.T) {
		rec := app.do(http.MethodPut, "/v1/profiles/me", token, map[string]interface{}{
			"bio":         "Loves maths",
			"preferences": map[string]interface{}{"difficulty": "hard"},
		})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var p profile.Profile
		decode(t, rec, &p)
		assert.Equal(t, "Loves maths", p.Bio)
		assert.Equal(t, "hard", p.Preferences.Difficulty)
	})

	t.Run("invalid preference", func(t *testing.T) {
		rec := app.do(http.MethodPatch, "/v1/profiles/me", token, map[string]interface{}{
			"preferences": map[string]interface{}{"language": "klingon"},
		})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(http.MethodDelete, "/v1/profiles/me", token, nil)
		assert.Equal(t, http.StatusNoContent, rec.Code)

		rec = app.do(http.MethodGet, "/v1/profiles/user/"+student.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
