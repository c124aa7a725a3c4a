package course

import (
	"context"

	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

var (
	ErrNotFound        = core.NewNotFoundError("course")
	ErrAlreadyReviewed = core.NewValidationError(nil, core.FieldError{Field: "rating", Error: "you have already reviewed this course"})
)

type (
	Repository interface {
		CreateCourse(ctx context.Context, c Course) (Course, error)
		// QueryCourses returns the matching courses, newest first unless ordering says otherwise.
		QueryCourses(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error)
		GetCourse(ctx context.Context, id string) (Course, error)
		UpdateCourse(ctx context.Context, c Course) (Course, error)
		DeleteCourse(ctx context.Context, id string) error
		AddReview(ctx context.Context, courseID string, r Review) (Review, error)
		AddStudent(ctx context.Context, courseID, studentID string) error
		RemoveStudent(ctx context.Context, courseID, studentID string) error
	}

	Service struct {
		repo      Repository
		sentiment core.SentimentAnalyzer
		logger    core.Logger
	}
)

// NewService creates the course service. sentiment may be nil, in which case reviews are stored without sentiment.
func NewService(repo Repository, sentiment core.SentimentAnalyzer, logger core.Logger) *Service {
	return &Service{repo: repo, sentiment: sentiment, logger: logger}
}

// CanManage reports whether usr may modify c.
func CanManage(usr user.User, c Course) bool {
	return usr.IsAdmin() || (c.ProfessorID != "" && c.ProfessorID == usr.ID)
}

func (svc *Service) Create(ctx context.Context, actor user.User, nc NewCourse) (Course, error) {
	if !(actor.IsProfessor() || actor.IsAdmin()) {
		return Course{}, core.NewPermissionError("only professors can create courses")
	}
	profID := actor.ID
	if nc.ProfessorID != "" && nc.ProfessorID != actor.ID {
		if !actor.IsAdmin() {
			return Course{}, core.NewPermissionError("cannot create a course for another professor")
		}
		profID = nc.ProfessorID
	}

	now := core.Now()
	return svc.repo.CreateCourse(ctx, Course{
		Title:       nc.Title,
		Description: nc.Description,
		ProfessorID: profID,
		Category:    nc.Category,
		IsPublished: nc.IsPublished,
		Students:    []string{},
		Reviews:     []Review{},
		CreatedAt:   now,
		UpdatedAt:   now,
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Course, error) {
	return svc.repo.QueryCourses(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Course, error) {
	if id == "" {
		return Course{}, ErrNotFound
	}
	return svc.repo.GetCourse(ctx, id)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, uc UpdateCourse) (Course, error) {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return Course{}, err
	}
	if !CanManage(actor, c) {
		return Course{}, core.NewPermissionError("not the owner of this course")
	}
	uc.apply(&c)
	c.UpdatedAt = core.Now()
	return svc.repo.UpdateCourse(ctx, c)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	c, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanManage(actor, c) {
		return core.NewPermissionError("not the owner of this course")
	}
	return svc.repo.DeleteCourse(ctx, id)
}

// AddReview stores the actor's review of the course. A non-empty comment is classified on a
// best-effort basis: analyzer failures are logged and the review is kept without sentiment.
func (svc *Service) AddReview(ctx context.Context, actor user.User, courseID string, nr NewReview) (Review, error) {
	if !actor.IsStudent() {
		return Review{}, core.NewPermissionError("only students can review courses")
	}
	c, err := svc.GetByID(ctx, courseID)
	if err != nil {
		return Review{}, err
	}
	if _, ok := c.ReviewBy(actor.ID); ok {
		return Review{}, ErrAlreadyReviewed
	}

	r := Review{
		StudentID: actor.ID,
		Rating:    nr.Rating,
		Comment:   nr.Comment,
		CreatedAt: core.Now(),
	}
	if r.Comment != "" && svc.sentiment != nil {
		if s, err := svc.sentiment.Sentiment(ctx, r.Comment); err == nil {
			r.Sentiment = &s
		} else {
			svc.logger.Warn("review sentiment analysis failed", err, map[string]interface{}{"course_id": courseID})
		}
	}
	return svc.repo.AddReview(ctx, courseID, r)
}

func (svc *Service) AddStudent(ctx context.Context, courseID, studentID string) error {
	return errors.Wrap(svc.repo.AddStudent(ctx, courseID, studentID), "adding student")
}

func (svc *Service) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	return errors.Wrap(svc.repo.RemoveStudent(ctx, courseID, studentID), "removing student")
}
