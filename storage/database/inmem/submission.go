package inmemdb

import (
	"context"
	"strings"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/submission"
)

type submissionRepository struct {
	db *table[submission.Submission]
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *DB) *submissionRepository {
	return &submissionRepository{db: db.submission}
}

func copySubmission(s submission.Submission) submission.Submission {
	s.SubmittedAnswer = copyRaw(s.SubmittedAnswer)
	if s.IsCorrect != nil {
		v := *s.IsCorrect
		s.IsCorrect = &v
	}
	if s.Score != nil {
		v := *s.Score
		s.Score = &v
	}
	if s.Sentiment != nil {
		v := *s.Sentiment
		s.Sentiment = &v
	}
	return s
}

func matchSubmission(filter *submission.QueryFilter) func(submission.Submission) bool {
	return func(s submission.Submission) bool {
		if filter == nil {
			return true
		}
		if filter.ExerciseID != "" && s.ExerciseID != filter.ExerciseID {
			return false
		}
		if filter.ExerciseIDs != nil && !core.StringInSlice(s.ExerciseID, filter.ExerciseIDs) {
			return false
		}
		if filter.StudentID != "" && s.StudentID != filter.StudentID {
			return false
		}
		return filter.Status == "" || s.Status == filter.Status
	}
}

func (repo *submissionRepository) CreateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	s.ID = newID()
	repo.db.rows[s.ID] = copySubmission(s)
	return s, nil
}

func (repo *submissionRepository) QuerySubmissions(_ context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering) ([]submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	fields := map[string]comparator[submission.Submission]{
		"submitted_at": func(a, b submission.Submission) int { return compareTimes(a.SubmittedAt, b.SubmittedAt) },
		"status":       func(a, b submission.Submission) int { return strings.Compare(a.Status, b.Status) },
	}
	latestFirst := func(a, b submission.Submission) bool { return a.SubmittedAt.After(b.SubmittedAt) }
	list := repo.db.all(matchSubmission(filter), orderedLess(ordering, fields, latestFirst))
	for i := range list {
		list[i] = copySubmission(list[i])
	}
	return list, nil
}

func (repo *submissionRepository) GetSubmission(_ context.Context, id string) (submission.Submission, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if s, ok := repo.db.rows[id]; ok {
		return copySubmission(s), nil
	}
	return submission.Submission{}, submission.ErrNotFound
}

func (repo *submissionRepository) UpdateSubmission(_ context.Context, s submission.Submission) (submission.Submission, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[s.ID]; !ok {
		return submission.Submission{}, submission.ErrNotFound
	}
	repo.db.rows[s.ID] = copySubmission(s)
	return s, nil
}

func (repo *submissionRepository) DeleteSubmission(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return submission.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
