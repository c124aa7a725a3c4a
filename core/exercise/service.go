package exercise

import (
	"context"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/course"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

var ErrNotFound = core.NewNotFoundError("exercise")

type (
	Repository interface {
		CreateExercise(ctx context.Context, ex Exercise) (Exercise, error)
		QueryExercises(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Exercise, error)
		GetExercise(ctx context.Context, id string) (Exercise, error)
		UpdateExercise(ctx context.Context, ex Exercise) (Exercise, error)
		DeleteExercise(ctx context.Context, id string) error
	}

	CourseGetter interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
	}

	Service struct {
		repo    Repository
		courses CourseGetter
	}
)

func NewService(repo Repository, courses CourseGetter) *Service {
	return &Service{repo: repo, courses: courses}
}

// CanManage reports whether usr may modify ex.
func CanManage(usr user.User, ex Exercise) bool {
	return usr.IsAdmin() || (ex.CreatedBy != "" && ex.CreatedBy == usr.ID)
}

func (svc *Service) Create(ctx context.Context, actor user.User, ne NewExercise) (Exercise, error) {
	if !(actor.IsProfessor() || actor.IsAdmin()) {
		return Exercise{}, core.NewPermissionError("only professors can create exercises")
	}
	if ne.CourseID != "" {
		c, err := svc.courses.GetByID(ctx, ne.CourseID)
		if err != nil {
			return Exercise{}, err
		}
		if !course.CanManage(actor, c) {
			return Exercise{}, core.NewPermissionError("not the owner of this course")
		}
	}

	ex := Exercise{
		CourseID:       ne.CourseID,
		Title:          ne.Title,
		Description:    ne.Description,
		Type:           ne.Type,
		Difficulty:     ne.Difficulty,
		Content:        ne.Content,
		Solution:       ne.Solution,
		Options:        ne.Options,
		CorrectAnswer:  ne.CorrectAnswer,
		Points:         DefaultPoints,
		CreatedBy:      actor.ID,
		GeneratedByRAG: ne.GeneratedByRAG,
		SourceDocs:     ne.SourceDocs,
	}
	if ex.Type == "" {
		ex.Type = TypeShortAnswer
	}
	if ex.Difficulty == "" {
		ex.Difficulty = DifficultyMedium
	}
	if ne.Points != nil {
		ex.Points = *ne.Points
	}
	if ex.Options == nil {
		ex.Options = []string{}
	}
	if ex.SourceDocs == nil {
		ex.SourceDocs = []string{}
	}
	ex.CreatedAt = core.Now()
	ex.UpdatedAt = ex.CreatedAt
	return svc.repo.CreateExercise(ctx, ex)
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Exercise, error) {
	return svc.repo.QueryExercises(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string) (Exercise, error) {
	if id == "" {
		return Exercise{}, ErrNotFound
	}
	return svc.repo.GetExercise(ctx, id)
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, ue UpdateExercise) (Exercise, error) {
	ex, err := svc.GetByID(ctx, id)
	if err != nil {
		return Exercise{}, err
	}
	if !CanManage(actor, ex) {
		return Exercise{}, core.NewPermissionError("not the author of this exercise")
	}
	ue.apply(&ex)
	ex.UpdatedAt = core.Now()
	return svc.repo.UpdateExercise(ctx, ex)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	ex, err := svc.GetByID(ctx, id)
	if err != nil {
		return err
	}
	if !CanManage(actor, ex) {
		return core.NewPermissionError("not the author of this exercise")
	}
	return svc.repo.DeleteExercise(ctx, id)
}
