package sqlxrepos

import (
	"context"
	"database/sql"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/enrollment"
)

const enrollmentColumns = `id, student_id, course_id, enrolled_at, completed_exercises, total_exercises, percentage,
	last_accessed_at, status, final_grade, updated_at`

type dbEnrollment struct {
	ID                 string          `db:"id"`
	StudentID          string          `db:"student_id"`
	CourseID           string          `db:"course_id"`
	EnrolledAt         time.Time       `db:"enrolled_at"`
	CompletedExercises int             `db:"completed_exercises"`
	TotalExercises     int             `db:"total_exercises"`
	Percentage         float64         `db:"percentage"`
	LastAccessedAt     time.Time       `db:"last_accessed_at"`
	Status             string          `db:"status"`
	FinalGrade         sql.NullFloat64 `db:"final_grade"`
	UpdatedAt          time.Time       `db:"updated_at"`
}

func toDBEnrollment(e enrollment.Enrollment) dbEnrollment {
	row := dbEnrollment{
		ID:                 e.ID,
		StudentID:          e.StudentID,
		CourseID:           e.CourseID,
		EnrolledAt:         e.EnrolledAt.UTC(),
		CompletedExercises: e.Progress.CompletedExercises,
		TotalExercises:     e.Progress.TotalExercises,
		Percentage:         e.Progress.Percentage,
		LastAccessedAt:     e.Progress.LastAccessedAt.UTC(),
		Status:             e.Status,
		UpdatedAt:          e.UpdatedAt.UTC(),
	}
	if e.FinalGrade != nil {
		row.FinalGrade = sql.NullFloat64{Float64: *e.FinalGrade, Valid: true}
	}
	return row
}

func (e dbEnrollment) toEnrollment() enrollment.Enrollment {
	out := enrollment.Enrollment{
		ID:         e.ID,
		StudentID:  e.StudentID,
		CourseID:   e.CourseID,
		EnrolledAt: e.EnrolledAt.UTC(),
		Progress: enrollment.Progress{
			CompletedExercises: e.CompletedExercises,
			TotalExercises:     e.TotalExercises,
			Percentage:         e.Percentage,
			LastAccessedAt:     e.LastAccessedAt.UTC(),
		},
		Status:    e.Status,
		UpdatedAt: e.UpdatedAt.UTC(),
	}
	if e.FinalGrade.Valid {
		v := e.FinalGrade.Float64
		out.FinalGrade = &v
	}
	return out
}

type enrollmentRepository struct {
	db *sqlx.DB
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *sqlx.DB) *enrollmentRepository {
	return &enrollmentRepository{db: db}
}

func (repo *enrollmentRepository) CreateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	e.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO enrollment (`+enrollmentColumns+`)
		VALUES (:id, :student_id, :course_id, :enrolled_at, :completed_exercises, :total_exercises, :percentage,
			:last_accessed_at, :status, :final_grade, :updated_at)`,
		toDBEnrollment(e))
	if err != nil {
		if isUniqueViolation(err, "enrollment_student_course_key") {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
		return enrollment.Enrollment{}, errors.Wrap(err, "inserting enrollment")
	}
	return e, nil
}

func (repo *enrollmentRepository) QueryEnrollments(ctx context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	var where whereClause
	if filter.StudentID != "" {
		if !validID(filter.StudentID) {
			return []enrollment.Enrollment{}, nil
		}
		where.add("student_id = ?", filter.StudentID)
	}
	if filter.CourseID != "" {
		if !validID(filter.CourseID) {
			return []enrollment.Enrollment{}, nil
		}
		where.add("course_id = ?", filter.CourseID)
	}
	if filter.Status != "" {
		where.add("status = ?", filter.Status)
	}

	var rows []dbEnrollment
	q := repo.db.Rebind(`SELECT ` + enrollmentColumns + ` FROM enrollment` + where.String() + ` ORDER BY enrolled_at DESC`)
	if err := repo.db.SelectContext(ctx, &rows, q, where.args...); err != nil {
		return nil, errors.Wrap(err, "querying enrollments")
	}
	list := make([]enrollment.Enrollment, 0, len(rows))
	for _, e := range rows {
		list = append(list, e.toEnrollment())
	}
	return list, nil
}

func (repo *enrollmentRepository) GetEnrollment(ctx context.Context, id string) (enrollment.Enrollment, error) {
	if !validID(id) {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	var row dbEnrollment
	if err := repo.db.GetContext(ctx, &row, `SELECT `+enrollmentColumns+` FROM enrollment WHERE id = $1`, id); err != nil {
		return enrollment.Enrollment{}, trapNoRowsErr(err, enrollment.ErrNotFound, "finding enrollment")
	}
	return row.toEnrollment(), nil
}

func (repo *enrollmentRepository) UpdateEnrollment(ctx context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	if !validID(e.ID) {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE enrollment SET
			completed_exercises = :completed_exercises, total_exercises = :total_exercises, percentage = :percentage,
			last_accessed_at = :last_accessed_at, status = :status, final_grade = :final_grade, updated_at = :updated_at
		WHERE id = :id`,
		toDBEnrollment(e))
	if err != nil {
		return enrollment.Enrollment{}, errors.Wrap(err, "updating enrollment")
	}
	if err = checkAffected(res, enrollment.ErrNotFound, "updating enrollment"); err != nil {
		return enrollment.Enrollment{}, err
	}
	return e, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(ctx context.Context, id string) error {
	if !validID(id) {
		return enrollment.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM enrollment WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	return checkAffected(res, enrollment.ErrNotFound, "deleting enrollment")
}
