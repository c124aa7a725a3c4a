package echoapi_test

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/activitylog"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

func TestActivityLogApi(t *testing.T) {
	app := newTestApp(t)
	student := app.createUser(t, "Student", "student", "student@test.tn", []string{user.RoleStudent}, true)
	stranger := app.createUser(t, "Stranger", "stranger", "stranger@test.tn", []string{user.RoleStudent}, true)
	admin := app.createUser(t, "Admin", "admin", "admin@test.tn", user.AllRoles, true)
	token := app.token(t, student)

	t.Run("requires a token", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/activity-logs", "", nil)
		assertJSONEq(t, rec, http.StatusUnauthorized, errMissingToken)
	})

	t.Run("unknown action", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/activity-logs", token, map[string]string{"action": "danced"})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, bodyMap(t, rec), "action")
	})

	var viewed activitylog.Log
	t.Run("create", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/activity-logs", token, map[string]interface{}{
			"action":   activitylog.ActionViewedCourse,
			"metadata": map[string]string{"course_id": "c-1"},
		})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		decode(t, rec, &viewed)
		assert.Equal(t, student.ID, viewed.UserID)
		assert.JSONEq(t, `{"course_id":"c-1"}`, string(viewed.Metadata))

		rec = app.do(http.MethodPost, "/v1/activity-logs", token, map[string]string{"action": activitylog.ActionLogin})
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	})

	t.Run("student cannot record for another user", func(t *testing.T) {
		rec := app.do(http.MethodPost, "/v1/activity-logs", token, map[string]string{"user_id": stranger.ID, "action": activitylog.ActionLogin})
		assert.Equal(t, http.StatusForbidden, rec.Code)
	})

	t.Run("list filtered by action", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/activity-logs?action="+activitylog.ActionViewedCourse, token, nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var logs []activitylog.Log
		decode(t, rec, &logs)
		require.Len(t, logs, 1)
		assert.Equal(t, viewed.ID, logs[0].ID)

		rec = app.do(http.MethodGet, "/v1/activity-logs", app.token(t, stranger), nil)
		assertJSONEq(t, rec, http.StatusOK, []activitylog.Log{})
	})

	t.Run("admin sees every user", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/activity-logs?user="+student.ID, app.token(t, admin), nil)
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var logs []activitylog.Log
		decode(t, rec, &logs)
		assert.Len(t, logs, 2)
	})

	t.Run("hidden from strangers", func(t *testing.T) {
		rec := app.do(http.MethodGet, "/v1/activity-logs/"+viewed.ID, app.token(t, stranger), nil)
		assertJSONEq(t, rec, http.StatusNotFound, httpErr{Error: "activity log not found"})
	})

	t.Run("update", func(t *testing.T) {
		rec := app.do(http.MethodPatch, "/v1/activity-logs/"+viewed.ID, token, map[string]string{"action": activitylog.ActionViewedLesson})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		var got activitylog.Log
		decode(t, rec, &got)
		assert.Equal(t, activitylog.ActionViewedLesson, got.Action)
		assert.JSONEq(t, `{"course_id":"c-1"}`, string(got.Metadata))
	})

	t.Run("delete", func(t *testing.T) {
		rec := app.do(http.MethodDelete, "/v1/activity-logs/"+viewed.ID, app.token(t, stranger), nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = app.do(http.MethodDelete, "/v1/activity-logs/"+viewed.ID, token, nil)
		assertJSONEq(t, rec, http.StatusOK, map[string]string{"message": "activity log deleted"})

		rec = app.do(http.MethodGet, "/v1/activity-logs/"+viewed.ID, token, nil)
		assert.Equal(t, http.StatusNotFound, rec.Code)
	})
}
