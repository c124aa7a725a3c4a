package profile

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

// Defaults
const (
	DefaultLanguage   = "fr"
	DefaultDifficulty = "medium"
)

type Profile struct {
	UserID         string      `json:"user_id"`
	FirstName      string      `json:"first_name"`
	LastName       string      `json:"last_name"`
	Bio            string      `json:"bio"`
	Avatar         string      `json:"avatar"`
	Phone          string      `json:"phone"`
	Address        string      `json:"address"`
	Preferences    Preferences `json:"preferences"`
	Department     string      `json:"department"`
	Specialization string      `json:"specialization"`
	CreatedAt      time.Time   `json:"created_at"` // UTC
	UpdatedAt      time.Time   `json:"updated_at"` // UTC
}

type Preferences struct {
	Language      string        `json:"language"`
	Difficulty    string        `json:"difficulty"`
	Notifications Notifications `json:"notifications"`
}

type Notifications struct {
	Email bool `json:"email"`
	Push  bool `json:"push"`
}

// NewDefault returns the profile a user gets on first access.
func NewDefault(userID string, now time.Time) Profile {
	return Profile{
		UserID: userID,
		Preferences: Preferences{
			Language:      DefaultLanguage,
			Difficulty:    DefaultDifficulty,
			Notifications: Notifications{Email: true, Push: true},
		},
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// UpdateProfile holds the fields to change; nil fields are left untouched.
type UpdateProfile struct {
	FirstName      *string            `json:"first_name" validate:"omitempty,max=100"`
	LastName       *string            `json:"last_name" validate:"omitempty,max=100"`
	Bio            *string            `json:"bio" validate:"omitempty,max=1000"`
	Avatar         *string            `json:"avatar" validate:"omitempty,max=500"`
	Phone          *string            `json:"phone" validate:"omitempty,max=30"`
	Address        *string            `json:"address" validate:"omitempty,max=300"`
	Department     *string            `json:"department" validate:"omitempty,max=200"`
	Specialization *string            `json:"specialization" validate:"omitempty,max=200"`
	Preferences    *UpdatePreferences `json:"preferences"`
}

type UpdatePreferences struct {
	Language      *string              `json:"language" validate:"omitempty,oneof=fr en ar"`
	Difficulty    *string              `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Notifications *UpdateNotifications `json:"notifications"`
}

type UpdateNotifications struct {
	Email *bool `json:"email"`
	Push  *bool `json:"push"`
}

func (up *UpdateProfile) Validate(validate *validator.Validate) error {
	for _, s := range []*string{
		up.FirstName, up.LastName, up.Bio, up.Avatar, up.Phone, up.Address, up.Department, up.Specialization,
	} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(up)
}

func (up UpdateProfile) apply(p *Profile) {
	set := func(dst *string, src *string) {
		if src != nil {
			*dst = *src
		}
	}
	set(&p.FirstName, up.FirstName)
	set(&p.LastName, up.LastName)
	set(&p.Bio, up.Bio)
	set(&p.Avatar, up.Avatar)
	set(&p.Phone, up.Phone)
	set(&p.Address, up.Address)
	set(&p.Department, up.Department)
	set(&p.Specialization, up.Specialization)

	if prefs := up.Preferences; prefs != nil {
		set(&p.Preferences.Language, prefs.Language)
		set(&p.Preferences.Difficulty, prefs.Difficulty)
		if n := prefs.Notifications; n != nil {
			if n.Email != nil {
				p.Preferences.Notifications.Email = *n.Email
			}
			if n.Push != nil {
				p.Preferences.Notifications.Push = *n.Push
			}
		}
	}
}
