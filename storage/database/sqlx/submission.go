package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/submission"
)

const submissionColumns = `id, exercise_id, student_id, submitted_answer, is_correct, score, feedback, sentiment, status,
	submitted_at, updated_at`

var submissionOrderingFields = []string{"score", "status", "submitted_at", "updated_at"}

type dbSubmission struct {
	ID              string             `db:"id"`
	ExerciseID      string             `db:"exercise_id"`
	StudentID       string             `db:"student_id"`
	SubmittedAnswer types.JSONText     `db:"submitted_answer"`
	IsCorrect       sql.NullBool       `db:"is_correct"`
	Score           sql.NullFloat64    `db:"score"`
	Feedback        string             `db:"feedback"`
	Sentiment       types.NullJSONText `db:"sentiment"`
	Status          string             `db:"status"`
	SubmittedAt     time.Time          `db:"submitted_at"`
	UpdatedAt       time.Time          `db:"updated_at"`
}

func toDBSubmission(s submission.Submission) (dbSubmission, error) {
	sentiment, err := nullJSON(s.Sentiment)
	if err != nil {
		return dbSubmission{}, err
	}
	answer := types.JSONText(s.SubmittedAnswer)
	if len(answer) == 0 {
		answer = types.JSONText("null")
	}
	row := dbSubmission{
		ID:              s.ID,
		ExerciseID:      s.ExerciseID,
		StudentID:       s.StudentID,
		SubmittedAnswer: answer,
		Feedback:        s.Feedback,
		Sentiment:       sentiment,
		Status:          s.Status,
		SubmittedAt:     s.SubmittedAt.UTC(),
		UpdatedAt:       s.UpdatedAt.UTC(),
	}
	if s.IsCorrect != nil {
		row.IsCorrect = sql.NullBool{Bool: *s.IsCorrect, Valid: true}
	}
	if s.Score != nil {
		row.Score = sql.NullFloat64{Float64: *s.Score, Valid: true}
	}
	return row, nil
}

func (s dbSubmission) toSubmission() (submission.Submission, error) {
	out := submission.Submission{
		ID:              s.ID,
		ExerciseID:      s.ExerciseID,
		StudentID:       s.StudentID,
		SubmittedAnswer: []byte(s.SubmittedAnswer),
		Feedback:        s.Feedback,
		Status:          s.Status,
		SubmittedAt:     s.SubmittedAt.UTC(),
		UpdatedAt:       s.UpdatedAt.UTC(),
	}
	if s.IsCorrect.Valid {
		v := s.IsCorrect.Bool
		out.IsCorrect = &v
	}
	if s.Score.Valid {
		v := s.Score.Float64
		out.Score = &v
	}
	if s.Sentiment.Valid {
		sentiment := new(core.Sentiment)
		if err := s.Sentiment.Unmarshal(sentiment); err != nil {
			return submission.Submission{}, errors.Wrap(err, "decoding submission sentiment")
		}
		out.Sentiment = sentiment
	}
	return out, nil
}

type submissionRepository struct {
	db *sqlx.DB
}

var _ submission.Repository = (*submissionRepository)(nil) // interface compliance check

func NewSubmissionRepository(db *sqlx.DB) *submissionRepository {
	return &submissionRepository{db: db}
}

func (repo *submissionRepository) CreateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	s.ID = newID()
	row, err := toDBSubmission(s)
	if err != nil {
		return submission.Submission{}, err
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO submission (`+submissionColumns+`)
		VALUES (:id, :exercise_id, :student_id, :submitted_answer, :is_correct, :score, :feedback, :sentiment, :status,
			:submitted_at, :updated_at)`,
		row)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "inserting submission")
	}
	return s, nil
}

func (repo *submissionRepository) QuerySubmissions(ctx context.Context, filter *submission.QueryFilter, ordering []core.DBOrdering) ([]submission.Submission, error) {
	var where whereClause

	if filter != nil {
		if filter.ExerciseID != "" {
			if !validID(filter.ExerciseID) {
				return []submission.Submission{}, nil
			}
			where.add("exercise_id = ?", filter.ExerciseID)
		}
		if filter.ExerciseIDs != nil {
			where.add("exercise_id = ANY(?)", pq.Array(validIDs(filter.ExerciseIDs)))
		}
		if filter.StudentID != "" {
			if !validID(filter.StudentID) {
				return []submission.Submission{}, nil
			}
			where.add("student_id = ?", filter.StudentID)
		}
		if filter.Status != "" {
			where.add("status = ?", filter.Status)
		}
	}

	q := `SELECT ` + submissionColumns + ` FROM submission` + where.String() +
		` ORDER BY ` + core.OrderingClause(ordering, submissionOrderingFields, "submitted_at DESC")

	var rows []dbSubmission
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	list := make([]submission.Submission, 0, len(rows))
	for _, row := range rows {
		s, err := row.toSubmission()
		if err != nil {
			return nil, err
		}
		list = append(list, s)
	}
	return list, nil
}

func (repo *submissionRepository) GetSubmission(ctx context.Context, id string) (submission.Submission, error) {
	if !validID(id) {
		return submission.Submission{}, submission.ErrNotFound
	}
	var row dbSubmission
	if err := repo.db.GetContext(ctx, &row, `SELECT `+submissionColumns+` FROM submission WHERE id = $1`, id); err != nil {
		return submission.Submission{}, trapNoRowsErr(err, submission.ErrNotFound, "finding submission")
	}
	return row.toSubmission()
}

func (repo *submissionRepository) UpdateSubmission(ctx context.Context, s submission.Submission) (submission.Submission, error) {
	if !validID(s.ID) {
		return submission.Submission{}, submission.ErrNotFound
	}
	row, err := toDBSubmission(s)
	if err != nil {
		return submission.Submission{}, err
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE submission SET
			submitted_answer = :submitted_answer, is_correct = :is_correct, score = :score, feedback = :feedback,
			sentiment = :sentiment, status = :status, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return submission.Submission{}, errors.Wrap(err, "updating submission")
	}
	if err = checkAffected(res, submission.ErrNotFound, "updating submission"); err != nil {
		return submission.Submission{}, err
	}
	return s, nil
}

func (repo *submissionRepository) DeleteSubmission(ctx context.Context, id string) error {
	if !validID(id) {
		return submission.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM submission WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting submission")
	}
	return checkAffected(res, submission.ErrNotFound, "deleting submission")
}
