package enrollment

import (
	"time"

	"github.com/go-playground/validator/v10"
)

// Statuses
const (
	StatusActive    = "active"
	StatusCompleted = "completed"
	StatusDropped   = "dropped"
	StatusPending   = "pending"
)

type Enrollment struct {
	ID         string    `json:"id"`
	StudentID  string    `json:"student_id"`
	CourseID   string    `json:"course_id"`
	EnrolledAt time.Time `json:"enrolled_at"` // UTC
	Progress   Progress  `json:"progress"`
	Status     string    `json:"status"`
	FinalGrade *float64  `json:"final_grade"`
	UpdatedAt  time.Time `json:"updated_at"` // UTC
}

type Progress struct {
	CompletedExercises int       `json:"completed_exercises"`
	TotalExercises     int       `json:"total_exercises"`
	Percentage         float64   `json:"percentage"`
	LastAccessedAt     time.Time `json:"last_accessed_at"` // UTC
}

// EnrollmentStatus answers "is the student enrolled in this course?".
type EnrollmentStatus struct {
	Enrolled   bool        `json:"enrolled"`
	Enrollment *Enrollment `json:"enrollment,omitempty"`
}

// UpdateProgress holds the progress fields to change; nil fields are left untouched.
type UpdateProgress struct {
	CompletedExercises *int     `json:"completed_exercises" validate:"omitempty,min=0"`
	TotalExercises     *int     `json:"total_exercises" validate:"omitempty,min=0"`
	Percentage         *float64 `json:"percentage" validate:"omitempty,min=0"`
	FinalGrade         *float64 `json:"final_grade" validate:"omitempty,min=0,max=100"`
}

func (up *UpdateProgress) Validate(validate *validator.Validate) error {
	return validate.Struct(up)
}

// apply updates e with up. Without an explicit percentage it is derived from the exercise counts.
// A percentage of 100 or more completes the enrollment.
func (up UpdateProgress) apply(e *Enrollment, now time.Time) {
	if up.CompletedExercises != nil {
		e.Progress.CompletedExercises = *up.CompletedExercises
	}
	if up.TotalExercises != nil {
		e.Progress.TotalExercises = *up.TotalExercises
	}
	switch {
	case up.Percentage != nil:
		e.Progress.Percentage = *up.Percentage
	case e.Progress.TotalExercises > 0 && (up.CompletedExercises != nil || up.TotalExercises != nil):
		e.Progress.Percentage = 100 * float64(e.Progress.CompletedExercises) / float64(e.Progress.TotalExercises)
	}
	if e.Progress.Percentage > 100 {
		e.Progress.Percentage = 100
	}
	if up.FinalGrade != nil {
		e.FinalGrade = up.FinalGrade
	}
	if e.Progress.Percentage >= 100 {
		e.Status = StatusCompleted
	}
	e.Progress.LastAccessedAt = now
}

type QueryFilter struct {
	StudentID string
	CourseID  string
	Status    string
}
