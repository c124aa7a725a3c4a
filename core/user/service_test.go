package user_test

import (
	"context"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
	inmemdb "github.com/AmelJaballah/SmartLearn-mern-project/storage/database/inmem"
)

const testPassword = "Kx9#mPq2vL"

func newService(t *testing.T) *user.Service {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	return user.NewService(inmemdb.NewUserRepository(db))
}

func TestService_CreateAndAuthenticate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	usr, err := svc.Create(ctx, user.NewUser{Name: "Amel", Username: "amel", Email: "amel@test.tn", Password: testPassword})
	require.NoError(t, err)
	assert.NotEmpty(t, usr.ID)
	assert.Equal(t, []string{user.RoleStudent}, usr.Roles)
	assert.True(t, usr.Active())
	assert.NoError(t, usr.CheckPassword(testPassword))
	assert.Error(t, usr.CheckPassword("wrong"))

	for _, login := range []string{"amel", " AMEL ", "amel@test.tn"} {
		got, err := svc.GetByUsernameOrEmail(ctx, login)
		require.NoError(t, err, login)
		assert.Equal(t, usr.ID, got.ID)
	}

	_, err = svc.GetByUsernameOrEmail(ctx, "nobody")
	assert.True(t, errors.Is(err, core.ErrNotFound))
	_, err = svc.GetByID(ctx, "")
	assert.True(t, errors.Is(err, core.ErrNotFound))
}

func TestService_CheckUniqueness(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	usr, err := svc.Create(ctx, user.NewUser{Name: "Amel", Username: "amel", Email: "amel@test.tn", Password: testPassword})
	require.NoError(t, err)

	tests := []struct {
		name      string
		uname     string
		email     string
		excl      []user.User
		wantField string
	}{
		{name: "free", uname: "other", email: "other@test.tn"},
		{name: "username taken", uname: "amel", email: "other@test.tn", wantField: "username"},
		{name: "email taken", uname: "other", email: "amel@test.tn", wantField: "email"},
		{name: "self excluded", uname: "amel", email: "amel@test.tn", excl: []user.User{usr}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := svc.CheckUniqueness(ctx, tt.uname, tt.email, tt.excl...)
			if tt.wantField == "" {
				assert.NoError(t, err)
				return
			}
			var vErr *core.ValidationError
			require.True(t, errors.As(err, &vErr))
			assert.Equal(t, tt.wantField, vErr.Fields[0].Field)
		})
	}
}

func TestService_UpdateAndDelete(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	usr, err := svc.Create(ctx, user.NewUser{Name: "Amel", Username: "amel", Password: testPassword})
	require.NoError(t, err)

	inactive := false
	updated, err := svc.Update(ctx, usr, user.UpdateUser{
		Name: "Amel J", Username: "amel", Roles: []string{user.RoleProfessor}, IsActive: &inactive, Password: "N3w!pAss",
	})
	require.NoError(t, err)
	assert.Equal(t, "Amel J", updated.Name)
	assert.Equal(t, []string{user.RoleProfessor}, updated.Roles)
	assert.False(t, updated.Active())
	assert.NoError(t, updated.CheckPassword("N3w!pAss"))

	got, err := svc.GetByID(ctx, usr.ID)
	require.NoError(t, err)
	assert.Equal(t, "Amel J", got.Name)

	withLogin, err := svc.SetLastLogin(ctx, got)
	require.NoError(t, err)
	assert.False(t, withLogin.LastLogin.IsZero())

	require.NoError(t, svc.Delete(ctx, usr.ID))
	_, err = svc.GetByID(ctx, usr.ID)
	assert.True(t, errors.Is(err, user.ErrNotFound))
	assert.NoError(t, svc.Delete(ctx))
}

func TestService_Query(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	prof, err := svc.Create(ctx, user.NewUser{Name: "Prof", Username: "prof", Password: testPassword, Roles: []string{user.RoleProfessor}})
	require.NoError(t, err)
	_, err = svc.Create(ctx, user.NewUser{Name: "Student", Username: "student", Password: testPassword})
	require.NoError(t, err)

	all, err := svc.Query(ctx, nil, []core.DBOrdering{{Field: "username", Ascending: true}})
	require.NoError(t, err)
	require.Len(t, all, 2)
	assert.Equal(t, "prof", all[0].Username)

	profs, err := svc.Query(ctx, &user.QueryFilter{Roles: []string{user.RoleProfessor}}, nil)
	require.NoError(t, err)
	require.Len(t, profs, 1)
	assert.Equal(t, prof.ID, profs[0].ID)
}

func TestNewUser_Validate(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)
	validate, translator := core.NewValidator()
	user.RegisterValidators(validate, translator)

	_, err := svc.Create(ctx, user.NewUser{Name: "Taken", Username: "taken", Password: testPassword})
	require.NoError(t, err)

	tests := []struct {
		name       string
		nu         user.NewUser
		wantFields []string
	}{
		{
			name:       "empty",
			nu:         user.NewUser{},
			wantFields: []string{"name", "password", "password_confirm", "username", "email", "password"},
		},
		{
			name:       "bad roles and mismatch",
			nu:         user.NewUser{Name: "Amel", Username: "amel", Password: testPassword, PasswordConfirm: "x", Roles: []string{"root:"}},
			wantFields: []string{"password_confirm", "roles"},
		},
		{
			name:       "weak password",
			nu:         user.NewUser{Name: "Amel", Email: "amel@test.tn", Password: "password", PasswordConfirm: "password"},
			wantFields: []string{"password"},
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.nu.Validate(ctx, validate, svc)
			var vErrs validator.ValidationErrors
			require.True(t, errors.As(err, &vErrs), "got %v", err)
			fields := make([]string, 0, len(vErrs))
			for _, fe := range vErrs {
				fields = append(fields, fe.Field())
			}
			assert.ElementsMatch(t, tt.wantFields, fields)
		})
	}

	t.Run("username taken", func(t *testing.T) {
		nu := user.NewUser{Name: "Other", Username: " TAKEN ", Password: testPassword, PasswordConfirm: testPassword}
		err := nu.Validate(ctx, validate, svc)
		var vErr *core.ValidationError
		require.True(t, errors.As(err, &vErr), "got %v", err)
		assert.Equal(t, "username", vErr.Fields[0].Field)
		assert.Equal(t, "taken", nu.Username)
	})

	t.Run("valid", func(t *testing.T) {
		nu := user.NewUser{Name: "Amel", Email: "Amel@Test.tn", Password: testPassword, PasswordConfirm: testPassword}
		assert.NoError(t, nu.Validate(ctx, validate, svc))
		assert.Equal(t, "amel@test.tn", nu.Email)
	})
}
