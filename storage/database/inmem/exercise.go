package inmemdb

import (
	"context"
	"encoding/json"
	"strings"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/exercise"
)

var exerciseOrderingFields = map[string]comparator[exercise.Exercise]{
	"title":      func(a, b exercise.Exercise) int { return strings.Compare(a.Title, b.Title) },
	"points":     func(a, b exercise.Exercise) int { return a.Points - b.Points },
	"created_at": func(a, b exercise.Exercise) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
}

type exerciseRepository struct {
	db *table[exercise.Exercise]
}

var _ exercise.Repository = (*exerciseRepository)(nil) // interface compliance check

func NewExerciseRepository(db *DB) *exerciseRepository {
	return &exerciseRepository{db: db.exercise}
}

func copyRaw(raw json.RawMessage) json.RawMessage {
	if raw == nil {
		return nil
	}
	return append(json.RawMessage{}, raw...)
}

func copyExercise(ex exercise.Exercise) exercise.Exercise {
	ex.Content = copyRaw(ex.Content)
	ex.CorrectAnswer = copyRaw(ex.CorrectAnswer)
	ex.Options = copyStrings(ex.Options)
	ex.SourceDocs = copyStrings(ex.SourceDocs)
	return ex
}

func matchExercise(filter *exercise.QueryFilter) func(exercise.Exercise) bool {
	return func(ex exercise.Exercise) bool {
		if filter == nil {
			return true
		}
		if filter.CourseID != "" && ex.CourseID != filter.CourseID {
			return false
		}
		if filter.CourseIDs != nil && !core.StringInSlice(ex.CourseID, filter.CourseIDs) {
			return false
		}
		if filter.Difficulty != "" && ex.Difficulty != filter.Difficulty {
			return false
		}
		if filter.Type != "" && ex.Type != filter.Type {
			return false
		}
		return filter.CreatedBy == "" || ex.CreatedBy == filter.CreatedBy
	}
}

func (repo *exerciseRepository) CreateExercise(_ context.Context, ex exercise.Exercise) (exercise.Exercise, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	ex.ID = newID()
	repo.db.rows[ex.ID] = copyExercise(ex)
	return ex, nil
}

func (repo *exerciseRepository) QueryExercises(_ context.Context, filter *exercise.QueryFilter, ordering []core.DBOrdering) ([]exercise.Exercise, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	newestFirst := func(a, b exercise.Exercise) bool { return a.CreatedAt.After(b.CreatedAt) }
	list := repo.db.all(matchExercise(filter), orderedLess(ordering, exerciseOrderingFields, newestFirst))
	for i := range list {
		list[i] = copyExercise(list[i])
	}
	return list, nil
}

func (repo *exerciseRepository) GetExercise(_ context.Context, id string) (exercise.Exercise, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if ex, ok := repo.db.rows[id]; ok {
		return copyExercise(ex), nil
	}
	return exercise.Exercise{}, exercise.ErrNotFound
}

func (repo *exerciseRepository) UpdateExercise(_ context.Context, ex exercise.Exercise) (exercise.Exercise, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[ex.ID]; !ok {
		return exercise.Exercise{}, exercise.ErrNotFound
	}
	repo.db.rows[ex.ID] = copyExercise(ex)
	return ex, nil
}

func (repo *exerciseRepository) DeleteExercise(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return exercise.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
