package profile_test

import (
	"context"
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/profile"
	inmemdb "github.com/AmelJaballah/SmartLearn-mern-project/storage/database/inmem"
)

func newService(t *testing.T) *profile.Service {
	t.Helper()
	db, err := inmemdb.Open()
	require.NoError(t, err)
	return profile.NewService(inmemdb.NewProfileRepository(db))
}

func TestService_GetCreatesDefault(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	_, err := svc.GetExisting(ctx, "u-1")
	assert.True(t, errors.Is(err, core.ErrNotFound))

	p, err := svc.Get(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, "u-1", p.UserID)
	assert.Equal(t, profile.DefaultLanguage, p.Preferences.Language)
	assert.Equal(t, profile.DefaultDifficulty, p.Preferences.Difficulty)
	assert.True(t, p.Preferences.Notifications.Email)

	existing, err := svc.GetExisting(ctx, "u-1")
	require.NoError(t, err)
	assert.Equal(t, p, existing)
}

func TestService_UpdatePartial(t *testing.T) {
	ctx := context.Background()
	svc := newService(t)

	str := func(s string) *string { return &s }
	off := false

	p, err := svc.Update(ctx, "u-1", profile.UpdateProfile{FirstName: str("Amel"), Bio: str("Math teacher")})
	require.NoError(t, err)
	assert.Equal(t, "Amel", p.FirstName)
	assert.Equal(t, profile.DefaultLanguage, p.Preferences.Language)

	p, err = svc.Update(ctx, "u-1", profile.UpdateProfile{
		Preferences: &profile.UpdatePreferences{Language: str("en"), Notifications: &profile.UpdateNotifications{Push: &off}},
	})
	require.NoError(t, err)
	assert.Equal(t, "Amel", p.FirstName)
	assert.Equal(t, "Math teacher", p.Bio)
	assert.Equal(t, "en", p.Preferences.Language)
	assert.True(t, p.Preferences.Notifications.Email)
	assert.False(t, p.Preferences.Notifications.Push)

	require.NoError(t, svc.Delete(ctx, "u-1"))
	assert.True(t, errors.Is(svc.Delete(ctx, "u-1"), core.ErrNotFound))
}

func TestUpdateProfile_Validate(t *testing.T) {
	validate, _ := core.NewValidator()
	str := func(s string) *string { return &s }

	up := profile.UpdateProfile{Preferences: &profile.UpdatePreferences{Language: str("de")}}
	assert.Error(t, up.Validate(validate))

	up = profile.UpdateProfile{FirstName: str("  Amel "), Preferences: &profile.UpdatePreferences{Language: str("ar")}}
	assert.NoError(t, up.Validate(validate))
	assert.Equal(t, "Amel", *up.FirstName)
}
