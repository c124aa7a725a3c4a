package chat

import (
	"context"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

var ErrNotFound = core.NewNotFoundError("chat session")

type (
	Repository interface {
		CreateSession(ctx context.Context, s Session) (Session, error)
		// QuerySessions returns userID's sessions, most recently updated first.
		QuerySessions(ctx context.Context, userID string) ([]Session, error)
		GetSession(ctx context.Context, id string) (Session, error)
		UpdateSession(ctx context.Context, s Session) (Session, error)
		DeleteSession(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

func (svc *Service) Create(ctx context.Context, actor user.User, ns NewSession) (Session, error) {
	now := core.Now()
	s := Session{
		UserID:    actor.ID,
		Title:     ns.Title,
		Messages:  toMessages(ns.Messages, now),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if s.Title == "" {
		s.Title = DefaultTitle
	}
	return svc.repo.CreateSession(ctx, s)
}

func (svc *Service) ForUser(ctx context.Context, actor user.User) ([]Session, error) {
	return svc.repo.QuerySessions(ctx, actor.ID)
}

// GetByID returns the session if actor owns it or is an admin.
func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (Session, error) {
	if id == "" {
		return Session{}, ErrNotFound
	}
	s, err := svc.repo.GetSession(ctx, id)
	if err != nil {
		return Session{}, err
	}
	if s.UserID != actor.ID && !actor.IsAdmin() {
		return Session{}, ErrNotFound
	}
	return s, nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, us UpdateSession) (Session, error) {
	s, err := svc.GetByID(ctx, actor, id)
	if err != nil {
		return Session{}, err
	}
	now := core.Now()
	if us.Title != nil {
		s.Title = *us.Title
		if s.Title == "" {
			s.Title = DefaultTitle
		}
	}
	if us.Messages != nil {
		s.Messages = toMessages(us.Messages, now)
	}
	s.UpdatedAt = now
	return svc.repo.UpdateSession(ctx, s)
}

// AppendMessages adds messages at the end of the conversation, keeping their order.
func (svc *Service) AppendMessages(ctx context.Context, actor user.User, id string, am AppendMessages) (Session, error) {
	s, err := svc.GetByID(ctx, actor, id)
	if err != nil {
		return Session{}, err
	}
	now := core.Now()
	s.Messages = append(s.Messages, toMessages(am.Messages, now)...)
	s.UpdatedAt = now
	return svc.repo.UpdateSession(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if _, err := svc.GetByID(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeleteSession(ctx, id)
}
