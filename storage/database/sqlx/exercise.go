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
	"github.com/AmelJaballah/SmartLearn-mern-project/core/exercise"
)

const exerciseColumns = `id, course_id, title, description, type, difficulty, content, solution, options, correct_answer,
	points, created_by, generated_by_rag, source_docs, created_at, updated_at`

var exerciseOrderingFields = []string{"title", "difficulty", "points", "created_at"}

type dbExercise struct {
	ID             string             `db:"id"`
	CourseID       sql.NullString     `db:"course_id"`
	Title          string             `db:"title"`
	Description    string             `db:"description"`
	Type           string             `db:"type"`
	Difficulty     string             `db:"difficulty"`
	Content        types.JSONText     `db:"content"`
	Solution       string             `db:"solution"`
	Options        pq.StringArray     `db:"options"`
	CorrectAnswer  types.NullJSONText `db:"correct_answer"`
	Points         int                `db:"points"`
	CreatedBy      string             `db:"created_by"`
	GeneratedByRAG bool               `db:"generated_by_rag"`
	SourceDocs     pq.StringArray     `db:"source_docs"`
	CreatedAt      time.Time          `db:"created_at"`
	UpdatedAt      time.Time          `db:"updated_at"`
}

func toDBExercise(ex exercise.Exercise) dbExercise {
	content := types.JSONText(ex.Content)
	if len(content) == 0 {
		content = types.JSONText("{}")
	}
	return dbExercise{
		ID:             ex.ID,
		CourseID:       nullString(ex.CourseID),
		Title:          ex.Title,
		Description:    ex.Description,
		Type:           ex.Type,
		Difficulty:     ex.Difficulty,
		Content:        content,
		Solution:       ex.Solution,
		Options:        pq.StringArray(stringsOrEmpty(ex.Options)),
		CorrectAnswer:  rawJSON(ex.CorrectAnswer),
		Points:         ex.Points,
		CreatedBy:      ex.CreatedBy,
		GeneratedByRAG: ex.GeneratedByRAG,
		SourceDocs:     pq.StringArray(stringsOrEmpty(ex.SourceDocs)),
		CreatedAt:      ex.CreatedAt.UTC(),
		UpdatedAt:      ex.UpdatedAt.UTC(),
	}
}

func (e dbExercise) toExercise() exercise.Exercise {
	return exercise.Exercise{
		ID:             e.ID,
		CourseID:       e.CourseID.String,
		Title:          e.Title,
		Description:    e.Description,
		Type:           e.Type,
		Difficulty:     e.Difficulty,
		Content:        []byte(e.Content),
		Solution:       e.Solution,
		Options:        stringsOrEmpty(e.Options),
		CorrectAnswer:  rawMessage(e.CorrectAnswer),
		Points:         e.Points,
		CreatedBy:      e.CreatedBy,
		GeneratedByRAG: e.GeneratedByRAG,
		SourceDocs:     stringsOrEmpty(e.SourceDocs),
		CreatedAt:      e.CreatedAt.UTC(),
		UpdatedAt:      e.UpdatedAt.UTC(),
	}
}

type exerciseRepository struct {
	db *sqlx.DB
}

var _ exercise.Repository = (*exerciseRepository)(nil) // interface compliance check

func NewExerciseRepository(db *sqlx.DB) *exerciseRepository {
	return &exerciseRepository{db: db}
}

func (repo *exerciseRepository) CreateExercise(ctx context.Context, ex exercise.Exercise) (exercise.Exercise, error) {
	row := toDBExercise(ex)
	row.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO exercise (`+exerciseColumns+`)
		VALUES (:id, :course_id, :title, :description, :type, :difficulty, :content, :solution, :options, :correct_answer,
			:points, :created_by, :generated_by_rag, :source_docs, :created_at, :updated_at)`,
		row)
	if err != nil {
		return exercise.Exercise{}, errors.Wrap(err, "inserting exercise")
	}
	return row.toExercise(), nil
}

func (repo *exerciseRepository) QueryExercises(ctx context.Context, filter *exercise.QueryFilter, ordering []core.DBOrdering) ([]exercise.Exercise, error) {
	var where whereClause

	if filter != nil {
		if filter.CourseID != "" {
			if !validID(filter.CourseID) {
				return []exercise.Exercise{}, nil
			}
			where.add("course_id = ?", filter.CourseID)
		}
		if filter.CourseIDs != nil {
			where.add("course_id = ANY(?)", pq.Array(validIDs(filter.CourseIDs)))
		}
		if filter.Difficulty != "" {
			where.add("difficulty = ?", filter.Difficulty)
		}
		if filter.Type != "" {
			where.add("type = ?", filter.Type)
		}
		if filter.CreatedBy != "" {
			if !validID(filter.CreatedBy) {
				return []exercise.Exercise{}, nil
			}
			where.add("created_by = ?", filter.CreatedBy)
		}
	}

	q := `SELECT ` + exerciseColumns + ` FROM exercise` + where.String() +
		` ORDER BY ` + core.OrderingClause(ordering, exerciseOrderingFields, "created_at DESC")

	var rows []dbExercise
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "querying exercises")
	}
	list := make([]exercise.Exercise, 0, len(rows))
	for _, e := range rows {
		list = append(list, e.toExercise())
	}
	return list, nil
}

func (repo *exerciseRepository) GetExercise(ctx context.Context, id string) (exercise.Exercise, error) {
	if !validID(id) {
		return exercise.Exercise{}, exercise.ErrNotFound
	}
	var row dbExercise
	if err := repo.db.GetContext(ctx, &row, `SELECT `+exerciseColumns+` FROM exercise WHERE id = $1`, id); err != nil {
		return exercise.Exercise{}, trapNoRowsErr(err, exercise.ErrNotFound, "finding exercise")
	}
	return row.toExercise(), nil
}

func (repo *exerciseRepository) UpdateExercise(ctx context.Context, ex exercise.Exercise) (exercise.Exercise, error) {
	if !validID(ex.ID) {
		return exercise.Exercise{}, exercise.ErrNotFound
	}
	row := toDBExercise(ex)
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE exercise SET
			title = :title, description = :description, type = :type, difficulty = :difficulty, content = :content,
			solution = :solution, options = :options, correct_answer = :correct_answer, points = :points,
			source_docs = :source_docs, updated_at = :updated_at
		WHERE id = :id`,
		row)
	if err != nil {
		return exercise.Exercise{}, errors.Wrap(err, "updating exercise")
	}
	if err = checkAffected(res, exercise.ErrNotFound, "updating exercise"); err != nil {
		return exercise.Exercise{}, err
	}
	return row.toExercise(), nil
}

func (repo *exerciseRepository) DeleteExercise(ctx context.Context, id string) error {
	if !validID(id) {
		return exercise.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM exercise WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting exercise")
	}
	return checkAffected(res, exercise.ErrNotFound, "deleting exercise")
}
