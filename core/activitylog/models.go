package activitylog

import (
	"bytes"
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

// Actions
const (
	ActionViewedCourse      = "viewed_course"
	ActionViewedLesson      = "viewed_lesson"
	ActionGeneratedExercise = "generated_exercise"
	ActionStartedExercise   = "started_exercise"
	ActionSubmittedExercise = "submitted_exercise"
	ActionReceivedFeedback  = "received_feedback"
	ActionLogin             = "login"
	ActionLogout            = "logout"
)

var Actions = []string{
	ActionViewedCourse, ActionViewedLesson, ActionGeneratedExercise, ActionStartedExercise,
	ActionSubmittedExercise, ActionReceivedFeedback, ActionLogin, ActionLogout,
}

// Log records one learner action. Metadata is free-form (course id, subject, score...).
type Log struct {
	ID        string          `json:"id"`
	UserID    string          `json:"user_id"`
	Action    string          `json:"action"`
	Timestamp time.Time       `json:"timestamp"` // UTC
	Metadata  json.RawMessage `json:"metadata"`
	CreatedAt time.Time       `json:"created_at"` // UTC
	UpdatedAt time.Time       `json:"updated_at"` // UTC
}

type NewLog struct {
	UserID    string          `json:"user_id"` // admins only; defaults to the caller
	Action    string          `json:"action" validate:"required,oneof=viewed_course viewed_lesson generated_exercise started_exercise submitted_exercise received_feedback login logout"`
	Timestamp *time.Time      `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (nl *NewLog) Validate(validate *validator.Validate) error {
	nl.UserID = core.CleanString(nl.UserID)
	if err := validate.Struct(nl); err != nil {
		return err
	}
	return validateMetadata(nl.Metadata)
}

type UpdateLog struct {
	Action    *string         `json:"action" validate:"omitempty,oneof=viewed_course viewed_lesson generated_exercise started_exercise submitted_exercise received_feedback login logout"`
	Timestamp *time.Time      `json:"timestamp"`
	Metadata  json.RawMessage `json:"metadata"`
}

func (ul *UpdateLog) Validate(validate *validator.Validate) error {
	if err := validate.Struct(ul); err != nil {
		return err
	}
	return validateMetadata(ul.Metadata)
}

type QueryFilter struct {
	UserID string `query:"user"`
	Action string `query:"action"`
}

func (qf QueryFilter) Match(l Log) bool {
	return (qf.UserID == "" || l.UserID == qf.UserID) && (qf.Action == "" || l.Action == qf.Action)
}

// validateMetadata accepts an absent value, null or a JSON object.
func validateMetadata(raw json.RawMessage) error {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil
	}
	if raw[0] != '{' || !json.Valid(raw) {
		return core.NewValidationError(nil, core.FieldError{Field: "metadata", Error: "metadata must be a JSON object"})
	}
	return nil
}

func metadataOrEmpty(raw json.RawMessage) json.RawMessage {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return json.RawMessage("{}")
	}
	return raw
}
