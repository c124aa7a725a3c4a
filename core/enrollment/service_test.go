package enrollment_test

import (
	"context"
	"net/mail"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/course"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/enrollment"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
	emailsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/email"
	logsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/logger"
	inmemdb "github.com/AmelJaballah/SmartLearn-mern-project/storage/database/inmem"
)

var (
	prof    = user.User{ID: "prof-1", Roles: []string{user.RoleProfessor}}
	student = user.User{ID: "student-1", Name: "Sami", Email: "sami@test.tn", Roles: []string{user.RoleStudent}}
)

type fixture struct {
	svc     *enrollment.Service
	courses *course.Service
	mail    *emailsvc.ConsoleService
	course  course.Course
}

func setup(t *testing.T) fixture {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)

	logger := logsvc.NewNopLogger()
	conf := core.NewTestConfig()
	conf.Email.DefaultFrom = mail.Address{Address: "noreply@smartlearn.test"}

	courses := course.NewService(inmemdb.NewCourseRepository(db), nil, logger)
	mailSvc := emailsvc.NewConsoleServiceMock(conf, logger)
	svc := enrollment.NewService(inmemdb.NewEnrollmentRepository(db), courses, mailSvc, logger, "http://front.test")

	c, err := courses.Create(context.Background(), prof, course.NewCourse{Title: "Statistics"})
	require.NoError(t, err)
	return fixture{svc: svc, courses: courses, mail: mailSvc, course: c}
}

func TestService_Enroll(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Enroll(ctx, student, "missing")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	e, err := f.svc.Enroll(ctx, student, f.course.ID)
	require.NoError(t, err)
	assert.Equal(t, enrollment.StatusActive, e.Status)
	assert.Equal(t, student.ID, e.StudentID)

	c, err := f.courses.GetByID(ctx, f.course.ID)
	require.NoError(t, err)
	assert.True(t, c.HasStudent(student.ID))

	sent := f.mail.SentMessages()
	require.Len(t, sent, 1)
	assert.Equal(t, "sami@test.tn", sent[0].To[0].Address)
	assert.Equal(t, "Enrollment confirmed: Statistics", sent[0].Subject)
	assert.Contains(t, sent[0].TextContent, "http://front.test/courses/"+f.course.ID)
	assert.Contains(t, sent[0].HTMLContent, "<strong>Statistics</strong>")

	_, err = f.svc.Enroll(ctx, student, f.course.ID)
	var vErr *core.ValidationError
	assert.True(t, errors.As(err, &vErr))
	assert.Len(t, f.mail.SentMessages(), 1)
}

func TestService_StatusAndUnenroll(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	st, err := f.svc.Status(ctx, student, f.course.ID)
	require.NoError(t, err)
	assert.False(t, st.Enrolled)
	assert.True(t, errors.Is(f.svc.Unenroll(ctx, student, f.course.ID), core.ErrNotFound))

	_, err = f.svc.Enroll(ctx, student, f.course.ID)
	require.NoError(t, err)

	st, err = f.svc.Status(ctx, student, f.course.ID)
	require.NoError(t, err)
	assert.True(t, st.Enrolled)
	require.NotNil(t, st.Enrollment)

	mine, err := f.svc.ForStudent(ctx, student)
	require.NoError(t, err)
	assert.Len(t, mine, 1)

	require.NoError(t, f.svc.Unenroll(ctx, student, f.course.ID))
	c, err := f.courses.GetByID(ctx, f.course.ID)
	require.NoError(t, err)
	assert.False(t, c.HasStudent(student.ID))

	mine, err = f.svc.ForStudent(ctx, student)
	require.NoError(t, err)
	assert.Empty(t, mine)
}

func TestService_UpdateProgress(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	e, err := f.svc.Enroll(ctx, student, f.course.ID)
	require.NoError(t, err)

	intPtr := func(i int) *int { return &i }
	floatPtr := func(f float64) *float64 { return &f }

	_, err = f.svc.UpdateProgress(ctx, prof, e.ID, enrollment.UpdateProgress{CompletedExercises: intPtr(1)})
	assert.True(t, errors.Is(err, core.ErrNotFound))

	e, err = f.svc.UpdateProgress(ctx, student, e.ID, enrollment.UpdateProgress{CompletedExercises: intPtr(1), TotalExercises: intPtr(4)})
	require.NoError(t, err)
	assert.Equal(t, float64(25), e.Progress.Percentage)
	assert.Equal(t, enrollment.StatusActive, e.Status)

	e, err = f.svc.UpdateProgress(ctx, student, e.ID, enrollment.UpdateProgress{Percentage: floatPtr(120)})
	require.NoError(t, err)
	assert.Equal(t, float64(100), e.Progress.Percentage)
	assert.Equal(t, enrollment.StatusCompleted, e.Status)
	assert.False(t, e.Progress.LastAccessedAt.IsZero())
}

func TestService_ForCourse(t *testing.T) {
	ctx := context.Background()
	f := setup(t)

	_, err := f.svc.Enroll(ctx, student, f.course.ID)
	require.NoError(t, err)

	_, err = f.svc.ForCourse(ctx, student, f.course.ID)
	assert.True(t, errors.Is(err, core.ErrPermissionDenied))

	list, err := f.svc.ForCourse(ctx, prof, f.course.ID)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, student.ID, list[0].StudentID)
}

type failingCourses struct {
	*course.Service
}

func (failingCourses) AddStudent(context.Context, string, string) error {
	return errors.New("course store offline")
}

func TestService_Enroll_RollsBackWhenCourseUpdateFails(t *testing.T) {
	ctx := context.Background()
	f := setup(t)
	db, err := inmemdb.Open()
	require.NoError(t, err)
	repo := inmemdb.NewEnrollmentRepository(db)
	svc := enrollment.NewService(repo, failingCourses{f.courses}, f.mail, logsvc.NewNopLogger(), "http://front.test")

	_, err = svc.Enroll(ctx, student, f.course.ID)
	assert.EqualError(t, err, "adding student to course: course store offline")

	left, err := repo.QueryEnrollments(ctx, enrollment.QueryFilter{StudentID: student.ID})
	require.NoError(t, err)
	assert.Empty(t, left)
	assert.Empty(t, f.mail.SentMessages())

	// the student can enroll once the course store recovers
	svc = enrollment.NewService(repo, f.courses, f.mail, logsvc.NewNopLogger(), "http://front.test")
	_, err = svc.Enroll(ctx, student, f.course.ID)
	require.NoError(t, err)
}
