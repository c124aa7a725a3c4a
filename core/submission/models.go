package submission

import (
	"encoding/json"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

// Statuses
const (
	StatusPending  = "pending"
	StatusGraded   = "graded"
	StatusReviewed = "reviewed"
)

type Submission struct {
	ID              string          `json:"id"`
	ExerciseID      string          `json:"exercise_id"`
	StudentID       string          `json:"student_id"`
	SubmittedAnswer json.RawMessage `json:"submitted_answer"`
	IsCorrect       *bool           `json:"is_correct"`
	Score           *float64        `json:"score"`
	Feedback        string          `json:"feedback"`
	Sentiment       *core.Sentiment `json:"sentiment"`
	Status          string          `json:"status"`
	SubmittedAt     time.Time       `json:"submitted_at"` // UTC
	UpdatedAt       time.Time       `json:"updated_at"`   // UTC
}

// ProfessorSubmission is a Submission annotated with where it belongs.
type ProfessorSubmission struct {
	Submission
	ExerciseTitle string `json:"exercise_title"`
	CourseID      string `json:"course_id"`
	CourseTitle   string `json:"course_title"`
}

type NewSubmission struct {
	ExerciseID      string          `json:"exercise_id" validate:"required"`
	SubmittedAnswer json.RawMessage `json:"submitted_answer" validate:"jsonvalue"`
	IsCorrect       *bool           `json:"is_correct"`
	Score           *float64        `json:"score" validate:"omitempty,min=0,max=100"`
	Feedback        string          `json:"feedback" validate:"max=5000"`
}

func (ns *NewSubmission) Validate(validate *validator.Validate) error {
	ns.ExerciseID = core.CleanString(ns.ExerciseID)
	ns.Feedback = core.CleanString(ns.Feedback)
	return validate.Struct(ns)
}

// UpdateSubmission holds the fields to change; nil fields are left untouched.
type UpdateSubmission struct {
	SubmittedAnswer json.RawMessage `json:"submitted_answer" validate:"omitempty,jsonvalue"`
	IsCorrect       *bool           `json:"is_correct"`
	Score           *float64        `json:"score" validate:"omitempty,min=0,max=100"`
	Feedback        *string         `json:"feedback" validate:"omitempty,max=5000"`
	Status          *string         `json:"status" validate:"omitempty,oneof=pending graded reviewed"`
}

func (us *UpdateSubmission) Validate(validate *validator.Validate) error {
	if us.Feedback != nil {
		*us.Feedback = core.CleanString(*us.Feedback)
	}
	return validate.Struct(us)
}

// grades reports whether the update touches the grading fields.
func (us UpdateSubmission) grades() bool {
	return us.IsCorrect != nil || us.Score != nil || us.Feedback != nil || us.Status != nil
}

type QueryFilter struct {
	ExerciseID  string   `query:"exercise_id"`
	ExerciseIDs []string `query:"-"`
	StudentID   string   `query:"student_id"`
	Status      string   `query:"status"`
}

func (qf *QueryFilter) Clean() {
	qf.ExerciseID = core.CleanString(qf.ExerciseID)
	qf.StudentID = core.CleanString(qf.StudentID)
	qf.Status = core.CleanString(qf.Status, true /* lower */)
}
