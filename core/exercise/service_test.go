package exercise_test

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/course"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/exercise"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
	logsvc "github.com/AmelJaballah/SmartLearn-mern-project/services/logger"
	inmemdb "github.com/AmelJaballah/SmartLearn-mern-project/storage/database/inmem"
)

var (
	prof    = user.User{ID: "prof-1", Roles: []string{user.RoleProfessor}}
	other   = user.User{ID: "prof-2", Roles: []string{user.RoleProfessor}}
	admin   = user.User{ID: "admin-1", Roles: []string{user.RoleAdmin}}
	student = user.User{ID: "student-1", Roles: []string{user.RoleStudent}}
)

func setup(t *testing.T) (*exercise.Service, course.Course) {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	courses := course.NewService(inmemdb.NewCourseRepository(db), nil, logsvc.NewNopLogger())
	c, err := courses.Create(context.Background(), prof, course.NewCourse{Title: "Geometry"})
	require.NoError(t, err)
	return exercise.NewService(inmemdb.NewExerciseRepository(db), courses), c
}

func TestService_Create(t *testing.T) {
	ctx := context.Background()
	svc, c := setup(t)

	tests := []struct {
		name    string
		actor   user.User
		ne      exercise.NewExercise
		wantErr error
	}{
		{name: "student", actor: student, ne: exercise.NewExercise{Title: "Area"}, wantErr: core.ErrPermissionDenied},
		{name: "foreign course", actor: other, ne: exercise.NewExercise{CourseID: c.ID, Title: "Area"}, wantErr: core.ErrPermissionDenied},
		{name: "missing course", actor: prof, ne: exercise.NewExercise{CourseID: "nope", Title: "Area"}, wantErr: core.ErrNotFound},
		{name: "owner", actor: prof, ne: exercise.NewExercise{CourseID: c.ID, Title: "Area"}},
		{name: "admin", actor: admin, ne: exercise.NewExercise{CourseID: c.ID, Title: "Area"}},
		{name: "standalone", actor: other, ne: exercise.NewExercise{Title: "Area"}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ex, err := svc.Create(ctx, tt.actor, tt.ne)
			if tt.wantErr != nil {
				assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
				return
			}
			require.NoError(t, err)
			assert.NotEmpty(t, ex.ID)
			assert.Equal(t, tt.actor.ID, ex.CreatedBy)
			assert.Equal(t, exercise.TypeShortAnswer, ex.Type)
			assert.Equal(t, exercise.DifficultyMedium, ex.Difficulty)
			assert.Equal(t, exercise.DefaultPoints, ex.Points)
			assert.NotNil(t, ex.Options)
			assert.NotNil(t, ex.SourceDocs)
		})
	}
}

func TestService_UpdateDelete(t *testing.T) {
	ctx := context.Background()
	svc, c := setup(t)

	points := 20
	ex, err := svc.Create(ctx, prof, exercise.NewExercise{
		CourseID: c.ID, Title: "Area", Type: exercise.TypeMath, Points: &points, Content: json.RawMessage(`{"q":"r=2"}`),
	})
	require.NoError(t, err)
	assert.Equal(t, 20, ex.Points)

	title := "Circle area"
	_, err = svc.Update(ctx, other, ex.ID, exercise.UpdateExercise{Title: &title})
	assert.True(t, errors.Is(err, core.ErrPermissionDenied))

	ex, err = svc.Update(ctx, prof, ex.ID, exercise.UpdateExercise{Title: &title, Options: []string{"4π", "2π"}})
	require.NoError(t, err)
	assert.Equal(t, "Circle area", ex.Title)
	assert.Equal(t, exercise.TypeMath, ex.Type)
	assert.Equal(t, []string{"4π", "2π"}, ex.Options)
	assert.JSONEq(t, `{"q":"r=2"}`, string(ex.Content))

	assert.True(t, errors.Is(svc.Delete(ctx, student, ex.ID), core.ErrPermissionDenied))
	require.NoError(t, svc.Delete(ctx, admin, ex.ID))
	_, err = svc.GetByID(ctx, ex.ID)
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc, c := setup(t)

	_, err := svc.Create(ctx, prof, exercise.NewExercise{CourseID: c.ID, Title: "A", Difficulty: exercise.DifficultyHard})
	require.NoError(t, err)
	_, err = svc.Create(ctx, prof, exercise.NewExercise{CourseID: c.ID, Title: "B"})
	require.NoError(t, err)
	_, err = svc.Create(ctx, other, exercise.NewExercise{Title: "C", Difficulty: exercise.DifficultyHard})
	require.NoError(t, err)

	list, err := svc.Query(ctx, &exercise.QueryFilter{CourseID: c.ID}, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.Query(ctx, &exercise.QueryFilter{Difficulty: exercise.DifficultyHard}, nil)
	require.NoError(t, err)
	assert.Len(t, list, 2)

	list, err = svc.Query(ctx, &exercise.QueryFilter{CourseIDs: []string{c.ID}, Difficulty: exercise.DifficultyHard}, nil)
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "A", list[0].Title)
}

func TestNewExercise_Validate(t *testing.T) {
	validate, _ := core.NewValidator()

	ne := exercise.NewExercise{Title: "  Sum ", Type: "MATH", Content: json.RawMessage(`{"q":1}`)}
	require.NoError(t, ne.Validate(validate))
	assert.Equal(t, "Sum", ne.Title)
	assert.Equal(t, exercise.TypeMath, ne.Type)

	ne = exercise.NewExercise{Title: "Sum", Type: "quiz", Content: json.RawMessage(`{}`)}
	assert.Error(t, ne.Validate(validate))

	ne = exercise.NewExercise{Title: "Sum", Content: json.RawMessage(`{bad`)}
	assert.Error(t, ne.Validate(validate))
}
