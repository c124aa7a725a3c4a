package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/profile"
)

const profileColumns = `user_id, first_name, last_name, bio, avatar, phone, address, preferences, department,
	specialization, created_at, updated_at`

type dbProfile struct {
	UserID         string         `db:"user_id"`
	FirstName      string         `db:"first_name"`
	LastName       string         `db:"last_name"`
	Bio            string         `db:"bio"`
	Avatar         string         `db:"avatar"`
	Phone          string         `db:"phone"`
	Address        string         `db:"address"`
	Preferences    types.JSONText `db:"preferences"`
	Department     string         `db:"department"`
	Specialization string         `db:"specialization"`
	CreatedAt      time.Time      `db:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at"`
}

func (p dbProfile) toProfile() (profile.Profile, error) {
	out := profile.Profile{
		UserID:         p.UserID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Bio:            p.Bio,
		Avatar:         p.Avatar,
		Phone:          p.Phone,
		Address:        p.Address,
		Department:     p.Department,
		Specialization: p.Specialization,
		CreatedAt:      p.CreatedAt.UTC(),
		UpdatedAt:      p.UpdatedAt.UTC(),
	}
	if err := p.Preferences.Unmarshal(&out.Preferences); err != nil {
		return profile.Profile{}, errors.Wrap(err, "decoding profile preferences")
	}
	return out, nil
}

type profileRepository struct {
	db *sqlx.DB
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *sqlx.DB) *profileRepository {
	return &profileRepository{db: db}
}

func (repo *profileRepository) GetProfile(ctx context.Context, userID string) (profile.Profile, error) {
	if !validID(userID) {
		return profile.Profile{}, profile.ErrNotFound
	}
	var row dbProfile
	if err := repo.db.GetContext(ctx, &row, `SELECT `+profileColumns+` FROM profile WHERE user_id = $1`, userID); err != nil {
		return profile.Profile{}, trapNoRowsErr(err, profile.ErrNotFound, "finding profile")
	}
	return row.toProfile()
}

// SaveProfile upserts p; the creation time of an existing row is kept.
func (repo *profileRepository) SaveProfile(ctx context.Context, p profile.Profile) (profile.Profile, error) {
	if !validID(p.UserID) {
		return profile.Profile{}, profile.ErrNotFound
	}
	prefs, err := nullJSON(p.Preferences)
	if err != nil {
		return profile.Profile{}, err
	}
	row := dbProfile{
		UserID:         p.UserID,
		FirstName:      p.FirstName,
		LastName:       p.LastName,
		Bio:            p.Bio,
		Avatar:         p.Avatar,
		Phone:          p.Phone,
		Address:        p.Address,
		Preferences:    prefs.JSONText,
		Department:     p.Department,
		Specialization: p.Specialization,
		CreatedAt:      p.CreatedAt.UTC(),
		UpdatedAt:      p.UpdatedAt.UTC(),
	}

	var saved dbProfile
	q, args, err := repo.db.BindNamed(`
		INSERT INTO profile (`+profileColumns+`)
		VALUES (:user_id, :first_name, :last_name, :bio, :avatar, :phone, :address, :preferences, :department,
			:specialization, :created_at, :updated_at)
		ON CONFLICT (user_id) DO UPDATE SET
			first_name = EXCLUDED.first_name, last_name = EXCLUDED.last_name, bio = EXCLUDED.bio,
			avatar = EXCLUDED.avatar, phone = EXCLUDED.phone, address = EXCLUDED.address,
			preferences = EXCLUDED.preferences, department = EXCLUDED.department,
			specialization = EXCLUDED.specialization, updated_at = EXCLUDED.updated_at
		RETURNING `+profileColumns, row)
	if err != nil {
		return profile.Profile{}, errors.Wrap(err, "binding profile")
	}
	if err = repo.db.GetContext(ctx, &saved, q, args...); err != nil {
		if isForeignKeyViolation(err) {
			return profile.Profile{}, profile.ErrNotFound
		}
		return profile.Profile{}, errors.Wrap(err, "saving profile")
	}
	return saved.toProfile()
}

func (repo *profileRepository) DeleteProfile(ctx context.Context, userID string) error {
	if !validID(userID) {
		return profile.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM profile WHERE user_id = $1`, userID)
	if err != nil {
		return errors.Wrap(err, "deleting profile")
	}
	return checkAffected(res, profile.ErrNotFound, "deleting profile")
}
