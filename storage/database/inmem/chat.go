package inmemdb

import (
	"context"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/chat"
)

type chatSessionRepository struct {
	db *table[chat.Session]
}

var _ chat.Repository = (*chatSessionRepository)(nil) // interface compliance check

func NewChatSessionRepository(db *DB) *chatSessionRepository {
	return &chatSessionRepository{db: db.chatSession}
}

func copySession(s chat.Session) chat.Session {
	s.Messages = append(make([]chat.Message, 0, len(s.Messages)), s.Messages...)
	return s
}

func (repo *chatSessionRepository) CreateSession(_ context.Context, s chat.Session) (chat.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = newID()
	s = copySession(s)
	repo.db.rows[s.ID] = s
	return copySession(s), nil
}

func (repo *chatSessionRepository) QuerySessions(_ context.Context, userID string) ([]chat.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	list := repo.db.all(
		func(s chat.Session) bool { return s.UserID == userID },
		func(a, b chat.Session) bool { return a.UpdatedAt.After(b.UpdatedAt) },
	)
	for i := range list {
		list[i] = copySession(list[i])
	}
	return list, nil
}

func (repo *chatSessionRepository) GetSession(_ context.Context, id string) (chat.Session, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.rows[id]; ok {
		return copySession(s), nil
	}
	return chat.Session{}, chat.ErrNotFound
}

func (repo *chatSessionRepository) UpdateSession(_ context.Context, s chat.Session) (chat.Session, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[s.ID]; !ok {
		return chat.Session{}, chat.ErrNotFound
	}
	s = copySession(s)
	repo.db.rows[s.ID] = s
	return copySession(s), nil
}

func (repo *chatSessionRepository) DeleteSession(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return chat.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
