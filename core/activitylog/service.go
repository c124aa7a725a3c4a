package activitylog

import (
	"context"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

var ErrNotFound = core.NewNotFoundError("activity log")

type (
	Repository interface {
		CreateLog(ctx context.Context, l Log) (Log, error)
		// QueryLogs returns the matching logs, newest timestamp first.
		QueryLogs(ctx context.Context, filter QueryFilter) ([]Log, error)
		GetLog(ctx context.Context, id string) (Log, error)
		UpdateLog(ctx context.Context, l Log) (Log, error)
		DeleteLog(ctx context.Context, id string) error
	}

	Service struct {
		repo Repository
	}
)

func NewService(repo Repository) *Service {
	return &Service{repo: repo}
}

// Create stores a log for the actor. Admins may record logs for other users.
func (svc *Service) Create(ctx context.Context, actor user.User, nl NewLog) (Log, error) {
	userID := actor.ID
	if nl.UserID != "" && nl.UserID != actor.ID {
		if !actor.IsAdmin() {
			return Log{}, core.NewPermissionError("cannot record activity for another user")
		}
		userID = nl.UserID
	}

	now := core.Now()
	l := Log{
		UserID:    userID,
		Action:    nl.Action,
		Timestamp: now,
		Metadata:  metadataOrEmpty(nl.Metadata),
		CreatedAt: now,
		UpdatedAt: now,
	}
	if nl.Timestamp != nil {
		l.Timestamp = nl.Timestamp.UTC()
	}
	return svc.repo.CreateLog(ctx, l)
}

// Query lists logs. Non-admins only ever see their own.
func (svc *Service) Query(ctx context.Context, actor user.User, filter QueryFilter) ([]Log, error) {
	if !actor.IsAdmin() {
		filter.UserID = actor.ID
	}
	return svc.repo.QueryLogs(ctx, filter)
}

// GetByID returns the log if actor owns it or is an admin.
func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (Log, error) {
	if id == "" {
		return Log{}, ErrNotFound
	}
	l, err := svc.repo.GetLog(ctx, id)
	if err != nil {
		return Log{}, err
	}
	if l.UserID != actor.ID && !actor.IsAdmin() {
		return Log{}, ErrNotFound
	}
	return l, nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, ul UpdateLog) (Log, error) {
	l, err := svc.GetByID(ctx, actor, id)
	if err != nil {
		return Log{}, err
	}
	if ul.Action != nil {
		l.Action = *ul.Action
	}
	if ul.Timestamp != nil {
		l.Timestamp = ul.Timestamp.UTC()
	}
	if ul.Metadata != nil {
		l.Metadata = metadataOrEmpty(ul.Metadata)
	}
	l.UpdatedAt = core.Now()
	return svc.repo.UpdateLog(ctx, l)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	if _, err := svc.GetByID(ctx, actor, id); err != nil {
		return err
	}
	return svc.repo.DeleteLog(ctx, id)
}
