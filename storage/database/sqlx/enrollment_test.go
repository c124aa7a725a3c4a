package sqlxrepos

import (
	"context"
	"regexp"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/chat"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/enrollment"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/profile"
)

var profileCols = []string{
	"user_id", "first_name", "last_name", "bio", "avatar", "phone", "address", "preferences", "department",
	"specialization", "created_at", "updated_at",
}

func TestEnrollmentRepository_CreateEnrollment_Duplicate(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`INSERT INTO enrollment`)).
		WillReturnError(&pq.Error{Code: uniqueViolation, Constraint: "enrollment_student_course_key"})

	_, err := NewEnrollmentRepository(db).CreateEnrollment(context.Background(), enrollment.Enrollment{
		StudentID: newID(), CourseID: newID(), Status: enrollment.StatusActive,
	})
	var vErr *core.ValidationError
	require.True(t, errors.As(err, &vErr))
	assert.Equal(t, "course_id", vErr.Fields[0].Field)
}

func TestEnrollmentRepository_QueryEnrollments(t *testing.T) {
	db, mock := newMock(t)
	student := newID()
	at := time.Date(2024, 9, 1, 0, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM enrollment WHERE student_id = $1 AND status = $2 ORDER BY enrolled_at DESC`)).
		WithArgs(student, enrollment.StatusCompleted).
		WillReturnRows(sqlmock.NewRows([]string{
			"id", "student_id", "course_id", "enrolled_at", "completed_exercises", "total_exercises", "percentage",
			"last_accessed_at", "status", "final_grade", "updated_at",
		}).AddRow(newID(), student, newID(), at, int64(4), int64(4), 100.0, at, enrollment.StatusCompleted, 18.5, at))

	repo := NewEnrollmentRepository(db)
	list, err := repo.QueryEnrollments(context.Background(), enrollment.QueryFilter{StudentID: student, Status: enrollment.StatusCompleted})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, 4, list[0].Progress.CompletedExercises)
	assert.Equal(t, 100.0, list[0].Progress.Percentage)
	require.NotNil(t, list[0].FinalGrade)
	assert.Equal(t, 18.5, *list[0].FinalGrade)

	list, err = repo.QueryEnrollments(context.Background(), enrollment.QueryFilter{CourseID: "course-1"})
	require.NoError(t, err)
	assert.Empty(t, list)
}

func TestChatSessionRepository_QuerySessions(t *testing.T) {
	db, mock := newMock(t)
	userID := newID()
	at := time.Date(2024, 9, 1, 12, 0, 0, 0, time.UTC)

	mock.ExpectQuery(regexp.QuoteMeta(`FROM chat_session WHERE user_id = $1 ORDER BY updated_at DESC`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows([]string{"id", "user_id", "title", "messages", "created_at", "updated_at"}).
			AddRow(newID(), userID, "Derivatives", `[{"role":"user","content":"what is f'?","created_at":"2024-09-01T12:00:00Z"}]`, at, at).
			AddRow(newID(), userID, chat.DefaultTitle, `[]`, at, at))

	list, err := NewChatSessionRepository(db).QuerySessions(context.Background(), userID)
	require.NoError(t, err)
	require.Len(t, list, 2)
	require.Len(t, list[0].Messages, 1)
	assert.Equal(t, chat.RoleUser, list[0].Messages[0].Role)
	assert.Equal(t, at, list[0].Messages[0].CreatedAt)
	assert.NotNil(t, list[1].Messages)
	assert.Empty(t, list[1].Messages)
}

func TestChatSessionRepository_UpdateSession_NotFound(t *testing.T) {
	db, mock := newMock(t)
	mock.ExpectExec(regexp.QuoteMeta(`UPDATE chat_session SET`)).WillReturnResult(sqlmock.NewResult(0, 0))

	_, err := NewChatSessionRepository(db).UpdateSession(context.Background(), chat.Session{ID: newID(), Title: "x"})
	assert.Equal(t, chat.ErrNotFound, err)
}

func TestProfileRepository_SaveProfile(t *testing.T) {
	db, mock := newMock(t)
	userID := newID()
	now := core.Now()
	p := profile.NewDefault(userID, now)
	p.FirstName = "Amel"

	mock.ExpectQuery(regexp.QuoteMeta(`ON CONFLICT (user_id) DO UPDATE SET`)).
		WithArgs(userID, "Amel", "", "", "", "", "",
			[]byte(`{"language":"fr","difficulty":"medium","notifications":{"email":true,"push":true}}`),
			"", "", now, now).
		WillReturnRows(sqlmock.NewRows(profileCols).AddRow(userID, "Amel", "", "", "", "", "",
			`{"language":"fr","difficulty":"medium","notifications":{"email":true,"push":true}}`, "", "", now, now))

	saved, err := NewProfileRepository(db).SaveProfile(context.Background(), p)
	require.NoError(t, err)
	assert.Equal(t, p, saved)
}

func TestProfileRepository_GetProfile_NotFound(t *testing.T) {
	db, mock := newMock(t)
	userID := newID()
	mock.ExpectQuery(regexp.QuoteMeta(`FROM profile WHERE user_id = $1`)).
		WithArgs(userID).
		WillReturnRows(sqlmock.NewRows(profileCols))

	_, err := NewProfileRepository(db).GetProfile(context.Background(), userID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}
