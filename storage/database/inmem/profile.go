package inmemdb

import (
	"context"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/profile"
)

type profileRepository struct {
	db *table[profile.Profile]
}

var _ profile.Repository = (*profileRepository)(nil) // interface compliance check

func NewProfileRepository(db *DB) *profileRepository {
	return &profileRepository{db: db.profile}
}

func (repo *profileRepository) GetProfile(_ context.Context, userID string) (profile.Profile, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if p, ok := repo.db.rows[userID]; ok {
		return p, nil
	}
	return profile.Profile{}, profile.ErrNotFound
}

func (repo *profileRepository) SaveProfile(_ context.Context, p profile.Profile) (profile.Profile, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if orig, ok := repo.db.rows[p.UserID]; ok {
		p.CreatedAt = orig.CreatedAt
	}
	repo.db.rows[p.UserID] = p
	return p, nil
}

func (repo *profileRepository) DeleteProfile(_ context.Context, userID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[userID]; !ok {
		return profile.ErrNotFound
	}
	delete(repo.db.rows, userID)
	return nil
}
