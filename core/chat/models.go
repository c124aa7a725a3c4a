package chat

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

// Message roles
const (
	RoleUser      = "user"
	RoleAssistant = "assistant"
	RoleSystem    = "system"
)

const DefaultTitle = "Chat Session"

type Session struct {
	ID        string    `json:"id"`
	UserID    string    `json:"user_id"`
	Title     string    `json:"title"`
	Messages  []Message `json:"messages"`
	CreatedAt time.Time `json:"created_at"` // UTC
	UpdatedAt time.Time `json:"updated_at"` // UTC
}

type Message struct {
	Role      string    `json:"role"`
	Content   string    `json:"content"`
	CreatedAt time.Time `json:"created_at"` // UTC
}

type NewMessage struct {
	Role    string `json:"role" validate:"required,oneof=user assistant system"`
	Content string `json:"content" validate:"required"`
}

type NewSession struct {
	Title    string       `json:"title" validate:"max=200"`
	Messages []NewMessage `json:"messages" validate:"dive"`
}

func (ns *NewSession) Validate(validate *validator.Validate) error {
	ns.Title = core.CleanString(ns.Title)
	return validate.Struct(ns)
}

// UpdateSession replaces the title and/or the whole message list.
type UpdateSession struct {
	Title    *string      `json:"title" validate:"omitempty,max=200"`
	Messages []NewMessage `json:"messages" validate:"omitempty,dive"`
}

func (us *UpdateSession) Validate(validate *validator.Validate) error {
	if us.Title != nil {
		*us.Title = core.CleanString(*us.Title)
	}
	return validate.Struct(us)
}

type AppendMessages struct {
	Messages []NewMessage `json:"messages" validate:"required,min=1,dive"`
}

func (am *AppendMessages) Validate(validate *validator.Validate) error {
	return validate.Struct(am)
}

func toMessages(nms []NewMessage, now time.Time) []Message {
	msgs := make([]Message, 0, len(nms))
	for _, nm := range nms {
		msgs = append(msgs, Message{Role: nm.Role, Content: nm.Content, CreatedAt: now})
	}
	return msgs
}
