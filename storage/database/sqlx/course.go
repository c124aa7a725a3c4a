package sqlxrepos

import (
	"context"
	"time"

	"github.com/jmoiron/sqlx"
	"github.com/jmoiron/sqlx/types"
	"github.com/lib/pq"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/course"
)

const (
	courseColumns = `id, title, description, professor_id, category, is_published, created_at, updated_at`
	reviewColumns = `id, course_id, student_id, rating, comment, sentiment, created_at`
)

var courseOrderingFields = []string{"title", "category", "created_at", "updated_at"}

type (
	dbCourse struct {
		ID          string    `db:"id"`
		Title       string    `db:"title"`
		Description string    `db:"description"`
		ProfessorID string    `db:"professor_id"`
		Category    string    `db:"category"`
		IsPublished bool      `db:"is_published"`
		CreatedAt   time.Time `db:"created_at"`
		UpdatedAt   time.Time `db:"updated_at"`
	}

	dbReview struct {
		ID        string             `db:"id"`
		CourseID  string             `db:"course_id"`
		StudentID string             `db:"student_id"`
		Rating    int                `db:"rating"`
		Comment   string             `db:"comment"`
		Sentiment types.NullJSONText `db:"sentiment"`
		CreatedAt time.Time          `db:"created_at"`
	}

	dbCourseStudent struct {
		CourseID  string `db:"course_id"`
		StudentID string `db:"student_id"`
	}
)

func toDBCourse(c course.Course) dbCourse {
	return dbCourse{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		ProfessorID: c.ProfessorID,
		Category:    c.Category,
		IsPublished: c.IsPublished,
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (c dbCourse) toCourse() course.Course {
	return course.Course{
		ID:          c.ID,
		Title:       c.Title,
		Description: c.Description,
		ProfessorID: c.ProfessorID,
		Category:    c.Category,
		IsPublished: c.IsPublished,
		Students:    []string{},
		Reviews:     []course.Review{},
		CreatedAt:   c.CreatedAt.UTC(),
		UpdatedAt:   c.UpdatedAt.UTC(),
	}
}

func (r dbReview) toReview() (course.Review, error) {
	review := course.Review{
		ID:        r.ID,
		StudentID: r.StudentID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		CreatedAt: r.CreatedAt.UTC(),
	}
	if r.Sentiment.Valid {
		s := new(core.Sentiment)
		if err := r.Sentiment.Unmarshal(s); err != nil {
			return course.Review{}, errors.Wrap(err, "decoding review sentiment")
		}
		review.Sentiment = s
	}
	return review, nil
}

type courseRepository struct {
	db *sqlx.DB
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *sqlx.DB) *courseRepository {
	return &courseRepository{db: db}
}

// loadRelations fills the students and reviews of courses.
func (repo *courseRepository) loadRelations(ctx context.Context, courses []course.Course) error {
	if len(courses) == 0 {
		return nil
	}
	ids := make([]string, 0, len(courses))
	byID := make(map[string]*course.Course, len(courses))
	for i := range courses {
		ids = append(ids, courses[i].ID)
		byID[courses[i].ID] = &courses[i]
	}

	var students []dbCourseStudent
	err := repo.db.SelectContext(ctx, &students,
		`SELECT course_id, student_id FROM course_student WHERE course_id = ANY($1) ORDER BY added_at`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "querying course students")
	}
	for _, s := range students {
		if c, ok := byID[s.CourseID]; ok {
			c.Students = append(c.Students, s.StudentID)
		}
	}

	var reviews []dbReview
	err = repo.db.SelectContext(ctx, &reviews,
		`SELECT `+reviewColumns+` FROM course_review WHERE course_id = ANY($1) ORDER BY created_at`, pq.Array(ids))
	if err != nil {
		return errors.Wrap(err, "querying course reviews")
	}
	for _, r := range reviews {
		c, ok := byID[r.CourseID]
		if !ok {
			continue
		}
		review, err := r.toReview()
		if err != nil {
			return err
		}
		c.Reviews = append(c.Reviews, review)
	}
	return nil
}

func (repo *courseRepository) CreateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	row := toDBCourse(c)
	row.ID = newID()
	_, err := repo.db.NamedExecContext(ctx, `
		INSERT INTO course (`+courseColumns+`)
		VALUES (:id, :title, :description, :professor_id, :category, :is_published, :created_at, :updated_at)`,
		row)
	if err != nil {
		return course.Course{}, errors.Wrap(err, "inserting course")
	}
	return row.toCourse(), nil
}

func (repo *courseRepository) QueryCourses(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	var where whereClause

	if filter != nil {
		if filter.ProfessorID != "" {
			if !validID(filter.ProfessorID) {
				return []course.Course{}, nil
			}
			where.add("professor_id = ?", filter.ProfessorID)
		}
		if filter.IsPublished != nil {
			where.add("is_published = ?", *filter.IsPublished)
		}
		if filter.StudentID != "" {
			if !validID(filter.StudentID) {
				return []course.Course{}, nil
			}
			where.add("id IN (SELECT course_id FROM course_student WHERE student_id = ?)", filter.StudentID)
		}
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			where.add("(title ILIKE ? OR description ILIKE ? OR category ILIKE ?)", val, val, val)
		}
	}

	q := `SELECT ` + courseColumns + ` FROM course` + where.String() +
		` ORDER BY ` + core.OrderingClause(ordering, courseOrderingFields, "created_at DESC")

	var rows []dbCourse
	if err := repo.db.SelectContext(ctx, &rows, repo.db.Rebind(q), where.args...); err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	courses := make([]course.Course, 0, len(rows))
	for _, c := range rows {
		courses = append(courses, c.toCourse())
	}
	if err := repo.loadRelations(ctx, courses); err != nil {
		return nil, err
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(ctx context.Context, id string) (course.Course, error) {
	if !validID(id) {
		return course.Course{}, course.ErrNotFound
	}
	var row dbCourse
	if err := repo.db.GetContext(ctx, &row, `SELECT `+courseColumns+` FROM course WHERE id = $1`, id); err != nil {
		return course.Course{}, trapNoRowsErr(err, course.ErrNotFound, "finding course")
	}
	courses := []course.Course{row.toCourse()}
	if err := repo.loadRelations(ctx, courses); err != nil {
		return course.Course{}, err
	}
	return courses[0], nil
}

// UpdateCourse saves the course fields; students and reviews have their own operations.
func (repo *courseRepository) UpdateCourse(ctx context.Context, c course.Course) (course.Course, error) {
	if !validID(c.ID) {
		return course.Course{}, course.ErrNotFound
	}
	res, err := repo.db.NamedExecContext(ctx, `
		UPDATE course SET
			title = :title, description = :description, professor_id = :professor_id, category = :category,
			is_published = :is_published, updated_at = :updated_at
		WHERE id = :id`,
		toDBCourse(c))
	if err != nil {
		return course.Course{}, errors.Wrap(err, "updating course")
	}
	if err = checkAffected(res, course.ErrNotFound, "updating course"); err != nil {
		return course.Course{}, err
	}
	return c, nil
}

func (repo *courseRepository) DeleteCourse(ctx context.Context, id string) error {
	if !validID(id) {
		return course.ErrNotFound
	}
	res, err := repo.db.ExecContext(ctx, `DELETE FROM course WHERE id = $1`, id)
	if err != nil {
		return errors.Wrap(err, "deleting course")
	}
	return checkAffected(res, course.ErrNotFound, "deleting course")
}

func (repo *courseRepository) AddReview(ctx context.Context, courseID string, r course.Review) (course.Review, error) {
	if !validID(courseID) {
		return course.Review{}, course.ErrNotFound
	}
	sentiment, err := nullJSON(r.Sentiment)
	if err != nil {
		return course.Review{}, err
	}
	r.ID = newID()
	row := dbReview{
		ID:        r.ID,
		CourseID:  courseID,
		StudentID: r.StudentID,
		Rating:    r.Rating,
		Comment:   r.Comment,
		Sentiment: sentiment,
		CreatedAt: r.CreatedAt.UTC(),
	}
	_, err = repo.db.NamedExecContext(ctx, `
		INSERT INTO course_review (`+reviewColumns+`)
		VALUES (:id, :course_id, :student_id, :rating, :comment, :sentiment, :created_at)`,
		row)
	if err != nil {
		switch {
		case isForeignKeyViolation(err):
			return course.Review{}, course.ErrNotFound
		case isUniqueViolation(err, ""):
			return course.Review{}, course.ErrAlreadyReviewed
		}
		return course.Review{}, errors.Wrap(err, "inserting review")
	}
	return r, nil
}

func (repo *courseRepository) AddStudent(ctx context.Context, courseID, studentID string) error {
	if !validID(courseID) || !validID(studentID) {
		return course.ErrNotFound
	}
	_, err := repo.db.ExecContext(ctx,
		`INSERT INTO course_student (course_id, student_id) VALUES ($1, $2) ON CONFLICT DO NOTHING`, courseID, studentID)
	if err != nil {
		if isForeignKeyViolation(err) {
			return course.ErrNotFound
		}
		return errors.Wrap(err, "adding student")
	}
	return nil
}

func (repo *courseRepository) RemoveStudent(ctx context.Context, courseID, studentID string) error {
	if !validID(courseID) {
		return course.ErrNotFound
	}
	var found bool
	if err := repo.db.GetContext(ctx, &found, `SELECT EXISTS (SELECT 1 FROM course WHERE id = $1)`, courseID); err != nil {
		return errors.Wrap(err, "finding course")
	}
	if !found {
		return course.ErrNotFound
	}
	if !validID(studentID) {
		return nil
	}
	if _, err := repo.db.ExecContext(ctx,
		`DELETE FROM course_student WHERE course_id = $1 AND student_id = $2`, courseID, studentID); err != nil {
		return errors.Wrap(err, "removing student")
	}
	return nil
}
