package exercise

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

// Types
const (
	TypeMultipleChoice = "multiple-choice"
	TypeShortAnswer    = "short-answer"
	TypeEssay          = "essay"
	TypeCoding         = "coding"
	TypeMath           = "math"
)

// Difficulties
const (
	DifficultyEasy   = "easy"
	DifficultyMedium = "medium"
	DifficultyHard   = "hard"
)

const DefaultPoints = 100

type Exercise struct {
	ID             string          `json:"id"`
	CourseID       string          `json:"course_id"`
	Title          string          `json:"title"`
	Description    string          `json:"description"`
	Type           string          `json:"type"`
	Difficulty     string          `json:"difficulty"`
	Content        json.RawMessage `json:"content"`
	Solution       string          `json:"solution"`
	Options        []string        `json:"options"`
	CorrectAnswer  json.RawMessage `json:"correct_answer"`
	Points         int             `json:"points"`
	CreatedBy      string          `json:"created_by"`
	GeneratedByRAG bool            `json:"generated_by_rag"`
	SourceDocs     []string        `json:"source_docs"`
	CreatedAt      time.Time       `json:"created_at"` // UTC
	UpdatedAt      time.Time       `json:"updated_at"` // UTC
}

type NewExercise struct {
	CourseID       string          `json:"course_id"`
	Title          string          `json:"title" validate:"required,max=200"`
	Description    string          `json:"description" validate:"max=5000"`
	Type           string          `json:"type" validate:"omitempty,oneof=multiple-choice short-answer essay coding math"`
	Difficulty     string          `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Content        json.RawMessage `json:"content" validate:"jsonvalue"`
	Solution       string          `json:"solution"`
	Options        []string        `json:"options"`
	CorrectAnswer  json.RawMessage `json:"correct_answer"`
	Points         *int            `json:"points" validate:"omitempty,min=0"`
	GeneratedByRAG bool            `json:"generated_by_rag"`
	SourceDocs     []string        `json:"source_docs"`
}

func (ne *NewExercise) Validate(validate *validator.Validate) error {
	ne.CourseID = core.CleanString(ne.CourseID)
	ne.Title = core.CleanString(ne.Title)
	ne.Type = core.CleanString(ne.Type, true /* lower */)
	ne.Difficulty = core.CleanString(ne.Difficulty, true /* lower */)
	return validate.Struct(ne)
}

// UpdateExercise holds the fields to change; nil fields are left untouched.
type UpdateExercise struct {
	Title         *string         `json:"title" validate:"omitempty,min=1,max=200"`
	Description   *string         `json:"description" validate:"omitempty,max=5000"`
	Type          *string         `json:"type" validate:"omitempty,oneof=multiple-choice short-answer essay coding math"`
	Difficulty    *string         `json:"difficulty" validate:"omitempty,oneof=easy medium hard"`
	Content       json.RawMessage `json:"content" validate:"omitempty,jsonvalue"`
	Solution      *string         `json:"solution"`
	Options       []string        `json:"options"`
	CorrectAnswer json.RawMessage `json:"correct_answer"`
	Points        *int            `json:"points" validate:"omitempty,min=0"`
}

func (ue *UpdateExercise) Validate(validate *validator.Validate) error {
	if ue.Title != nil {
		*ue.Title = core.CleanString(*ue.Title)
	}
	return validate.Struct(ue)
}

func (ue UpdateExercise) apply(ex *Exercise) {
	if ue.Title != nil {
		ex.Title = *ue.Title
	}
	if ue.Description != nil {
		ex.Description = *ue.Description
	}
	if ue.Type != nil {
		ex.Type = *ue.Type
	}
	if ue.Difficulty != nil {
		ex.Difficulty = *ue.Difficulty
	}
	if ue.Content != nil {
		ex.Content = ue.Content
	}
	if ue.Solution != nil {
		ex.Solution = *ue.Solution
	}
	if ue.Options != nil {
		ex.Options = ue.Options
	}
	if ue.CorrectAnswer != nil {
		ex.CorrectAnswer = ue.CorrectAnswer
	}
	if ue.Points != nil {
		ex.Points = *ue.Points
	}
}

type QueryFilter struct {
	CourseID   string   `query:"course_id"`
	CourseIDs  []string `query:"-"`
	Difficulty string   `query:"difficulty"`
	Type       string   `query:"type"`
	CreatedBy  string   `query:"created_by"`
}

func (qf *QueryFilter) Clean() {
	qf.CourseID = core.CleanString(qf.CourseID)
	qf.Difficulty = core.CleanString(qf.Difficulty, true /* lower */)
	qf.Type = core.CleanString(qf.Type, true /* lower */)
	qf.CreatedBy = core.CleanString(qf.CreatedBy)
}
