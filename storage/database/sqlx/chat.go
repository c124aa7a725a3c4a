package sqlxrepos

import (
	"context"
	"encoding/json"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/chat"
)

const chatSessionColumns = `id, user_id, title, messages, created_at, updated_at`

type dbChatSession struct {
	ID        string         `db:"id"`
	UserID    string         `db:"user_id"`
	Title     string         `db:"title"`
	Messages  types.JSONText `db:"messages"`
	CreatedAt time.Time      `db:"created_at"`
	UpdatedAt time.Time      `db:"updated_at"`
}

func toDBChatSession(s chat.Session) (dbChatSession, error) {
	msgs := s.Messages
	if msgs == nil {
		msgs = []chat.Message{}
	}
	b, err := json.Marshal(msgs)
	if err != nil {
		return dbChatSession{}, errors.Wrap(err, "encoding chat messages")
	}
	return dbChatSession{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		Messages:  b,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}, nil
}

func (s dbChatSession) toSession() (chat.Session, error) {
	msgs := make([]chat.Message, 0)
	if err := s.Messages.Unmarshal(&msgs); err != nil {
		return chat.Session{}, errors.Wrap(err, "decoding chat messages")
	}
	return chat.Session{
		ID:        s.ID,
		UserID:    s.UserID,
		Title:     s.Title,
		Messages:  msgs,
		CreatedAt: s.CreatedAt.UTC(),
		UpdatedAt: s.UpdatedAt.UTC(),
	}, nil
}

type chatSessionRepository struct {
	db *sqlx.DB
}

var _ chat.Repository = (*chatSessionRepository)(nil) // interface compliance check

func NewChatSessionRepository(db *sqlx.DB) *chatSessionRepository {
	return &chatSessionRepository{db: db}
}

func (repo *chatSessionRepository) CreateSession(ctx context.Context, s chat.Session) (chat.Session, error) {
	s.ID = newID()
	row, err := toDBChatSession(s)
	if err != nil {
		return chat.Session{}, err
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO chat_session (`+chatSessionColumns+`)
		VALUES (:id, :user_id, :title, :messages, :created_at, :updated_at)`,
		row)
	if err != nil {
		return chat.Session{}, errors.Wrap(err, "inserting chat session")
	}
	return row.toSession()
}

func (repo *chatSessionRepository) QuerySessions(ctx context.Context, userID string) ([]chat.Session, error) {
	if !validID(userID) {
		return []chat.Session{}, nil
	}
	var rows []dbChatSession
	err := repo.db.SelectContext(ctx, &rows,
		`SELECT `+chatSessionColumns+` FROM chat_session WHERE user_id = $1 ORDER BY updated_at DESC`, userID)
	if err != nil {
		return nil, errors.Wrap(err, "querying chat sessions")
	}
	list := make([]chat.Session, 0, len(rows))
	for _, row := range rows {
		s, err := row.toSession()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

func (repo *chatSessionRepository) GetSession(ctx context.Context, id string) (chat.Session, error) {
	if !validID(id) {
		return chat.Session{}, chat.ErrNotFound
	}
	var row dbChatSession
	if err := repo.db.GetContext(ctx, &row, `SELECT `+chatSessionColumns+` FROM chat_session WHERE id = $1`, id); err != nil {
		return chat.Session{}, trapNoRowsErr(err, chat.ErrNotFound, "finding chat session")
	}
	return row.toSession()
}

func (repo *chatSessionRepository) UpdateSession(ctx context.Context, s chat.Session) (chat.Session, error) {
	if !validID(s.ID) {
		return chat.Session{}, chat.ErrNotFound
	}
	row, err := toDBChatSession(s)
	if err != nil {
		return chat.Session{}, err
	}
	res, err := repo.db.NamedExecContext(ctx,
		`UPDATE chat_session SET title = :title, messages = :messages, updated_at = :updated_at WHERE id = :id`, row)
	if err != nil {
		return chat.Session{}, errors.Wrap(err, "updating chat session")
	}
	if err = checkAffected(res, chat.ErrNotFound, "updating chat session"); err != nil {
		return chat.Session{}, err
	}
	return row.toSession()
}

func (repo *chatSessionRepository) DeleteSession(ctx context.Context, id string) error {
	if !validID(id) {
		return chat.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM chat_session WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting chat session")
	}
	return checkAffected(res, chat.ErrNotFound, "deleting chat session")
}
