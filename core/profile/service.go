package profile

import (
	"context"

	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

var ErrNotFound = core.NewNotFoundError("profile")

type (
	Repository interface {
		GetProfile(ctx context.Context, userID string) (Profile, error)
		// SaveProfile inserts or replaces the profile of p.UserID.
		SaveProfile(ctx context.Context, p Profile) (Profile, error)
		DeleteProfile(ctx context.Context, userID string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Get returns the profile of userID, creating the default one on first access.
func (svc *Service) Get(ctx context.Context, userID string) (Profile, error) {
	p, err := svc.repo.GetProfile(ctx, userID)
	if err == nil {
		return p, nil
	}
	if !errors.Is(err, core.ErrNotFound) {
		return Profile{}, err
	}
	return svc.repo.SaveProfile(ctx, NewDefault(userID, core.Now()))
}

// GetExisting returns the profile of userID without creating it.
func (svc *Service) GetExisting(ctx context.Context, userID string) (Profile, error) {
	if userID == "" {
		return Profile{}, ErrNotFound
	}
	return svc.repo.GetProfile(ctx, userID)
}

// Update applies up to the profile of userID, creating it first if needed.
func (svc *Service) Update(ctx context.Context, userID string, up UpdateProfile) (Profile, error) {
	p, err := svc.Get(ctx, userID)
	if err != nil {
		return Profile{}, errors.Wrap(err, "getting profile")
	}
	up.apply(&p)
	p.UpdatedAt = core.Now()
	return svc.repo.SaveProfile(ctx, p)
}

func (svc *Service) Delete(ctx context.Context, userID string) error {
	return svc.repo.DeleteProfile(ctx, userID)
}
