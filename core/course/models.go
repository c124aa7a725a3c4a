package course

import (
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
)

type Course struct {
	ID          string    `json:"id"`
	Title       string    `json:"title"`
	Description string    `json:"description"`
	ProfessorID string    `json:"professor_id"`
	Category    string    `json:"category"`
	IsPublished bool      `json:"is_published"`
	Students    []string  `json:"students"`
	Reviews     []Review  `json:"reviews"`
	CreatedAt   time.Time `json:"created_at"` // UTC
	UpdatedAt   time.Time `json:"updated_at"` // UTC
}

func (c Course) HasStudent(id string) bool {
	return core.StringInSlice(id, c.Students)
}

func (c Course) ReviewBy(studentID string) (Review, bool) {
	for _, r := range c.Reviews {
		if r.StudentID == studentID {
			return r, true
		}
	}
	return Review{}, false
}

// AverageRating is 0 for a course without reviews.
func (c Course) AverageRating() float64 {
	if len(c.Reviews) == 0 {
		return 0
	}
	var sum int
	for _, r := range c.Reviews {
		sum += r.Rating
	}
	return float64(sum) / float64(len(c.Reviews))
}

type Review struct {
	ID        string          `json:"id"`
	StudentID string          `json:"student_id"`
	Rating    int             `json:"rating"`
	Comment   string          `json:"comment"`
	Sentiment *core.Sentiment `json:"sentiment"`
	CreatedAt time.Time       `json:"created_at"` // UTC
}

type NewCourse struct {
	Title       string `json:"title" validate:"required,min=2,max=200"`
	Description string `json:"description" validate:"max=5000"`
	Category    string `json:"category" validate:"max=100"`
	IsPublished bool   `json:"is_published"`
	ProfessorID string `json:"professor_id"` // defaults to the creator
}

func (nc *NewCourse) Validate(validate *validator.Validate) error {
	nc.Title = core.CleanString(nc.Title)
	nc.Description = core.CleanString(nc.Description)
	nc.Category = core.CleanString(nc.Category)
	nc.ProfessorID = core.CleanString(nc.ProfessorID)
	return validate.Struct(nc)
}

// UpdateCourse holds the fields to change; nil fields are left untouched.
type UpdateCourse struct {
	Title       *string `json:"title" validate:"omitempty,min=2,max=200"`
	Description *string `json:"description" validate:"omitempty,max=5000"`
	Category    *string `json:"category" validate:"omitempty,max=100"`
	IsPublished *bool   `json:"is_published"`
}

func (uc *UpdateCourse) Validate(validate *validator.Validate) error {
	for _, s := range []*string{uc.Title, uc.Description, uc.Category} {
		if s != nil {
			*s = core.CleanString(*s)
		}
	}
	return validate.Struct(uc)
}

func (uc UpdateCourse) apply(c *Course) {
	if uc.Title != nil {
		c.Title = *uc.Title
	}
	if uc.Description != nil {
		c.Description = *uc.Description
	}
	if uc.Category != nil {
		c.Category = *uc.Category
	}
	if uc.IsPublished != nil {
		c.IsPublished = *uc.IsPublished
	}
}

type NewReview struct {
	Rating  int    `json:"rating" validate:"required,min=1,max=5"`
	Comment string `json:"comment" validate:"max=2000"`
}

func (nr *NewReview) Validate(validate *validator.Validate) error {
	nr.Comment = core.CleanString(nr.Comment)
	return validate.Struct(nr)
}

type QueryFilter struct {
	Search      string `query:"search"`
	ProfessorID string `query:"professor_id"`
	IsPublished *bool  `query:"is_published"`
	StudentID   string `query:"student_id"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.ProfessorID = core.CleanString(qf.ProfessorID)
	qf.StudentID = core.CleanString(qf.StudentID)
}
