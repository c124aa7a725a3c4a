package inmemdb

import (
	"context"
	"strings"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/course"
)

var courseOrderingFields = map[string]comparator[course.Course]{
	"title":      func(a, b course.Course) int { return strings.Compare(a.Title, b.Title) },
	"category":   func(a, b course.Course) int { return strings.Compare(a.Category, b.Category) },
	"created_at": func(a, b course.Course) int { return compareTimes(a.CreatedAt, b.CreatedAt) },
	"updated_at": func(a, b course.Course) int { return compareTimes(a.UpdatedAt, b.UpdatedAt) },
}

type courseRepository struct {
	db *table[course.Course]
}

var _ course.Repository = (*courseRepository)(nil) // interface compliance check

func NewCourseRepository(db *DB) *courseRepository {
	return &courseRepository{db: db.course}
}

func copyCourse(c course.Course) course.Course {
	c.Students = copyStrings(c.Students)
	if c.Students == nil {
		c.Students = []string{}
	}
	reviews := make([]course.Review, 0, len(c.Reviews))
	for _, r := range c.Reviews {
		if r.Sentiment != nil {
			s := *r.Sentiment
			r.Sentiment = &s
		}
		reviews = append(reviews, r)
	}
	c.Reviews = reviews
	return c
}

func matchCourse(filter *course.QueryFilter) func(course.Course) bool {
	return func(c course.Course) bool {
		if filter == nil {
			return true
		}
		if filter.ProfessorID != "" && c.ProfessorID != filter.ProfessorID {
			return false
		}
		if filter.IsPublished != nil && c.IsPublished != *filter.IsPublished {
			return false
		}
		if filter.StudentID != "" && !c.HasStudent(filter.StudentID) {
			return false
		}
		if filter.Search != "" {
			s := strings.ToLower(filter.Search)
			return strings.Contains(strings.ToLower(c.Title), s) ||
				strings.Contains(strings.ToLower(c.Description), s) ||
				strings.Contains(strings.ToLower(c.Category), s)
		}
		return true
	}
}

func (repo *courseRepository) CreateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c.ID = newID()
	c = copyCourse(c)
	repo.db.rows[c.ID] = c
	return copyCourse(c), nil
}

func (repo *courseRepository) QueryCourses(_ context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	newestFirst := func(a, b course.Course) bool { return a.CreatedAt.After(b.CreatedAt) }
	courses := repo.db.all(matchCourse(filter), orderedLess(ordering, courseOrderingFields, newestFirst))
	for i := range courses {
		courses[i] = copyCourse(courses[i])
	}
	return courses, nil
}

func (repo *courseRepository) GetCourse(_ context.Context, id string) (course.Course, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if c, ok := repo.db.rows[id]; ok {
		return copyCourse(c), nil
	}
	return course.Course{}, course.ErrNotFound
}

// UpdateCourse saves the course fields. Students and reviews have their own methods.
func (repo *courseRepository) UpdateCourse(_ context.Context, c course.Course) (course.Course, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	orig, ok := repo.db.rows[c.ID]
	if !ok {
		return course.Course{}, course.ErrNotFound
	}
	c.Students = orig.Students
	c.Reviews = orig.Reviews
	repo.db.rows[c.ID] = copyCourse(c)
	return copyCourse(c), nil
}

func (repo *courseRepository) DeleteCourse(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return course.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}

func (repo *courseRepository) AddReview(_ context.Context, courseID string, r course.Review) (course.Review, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.rows[courseID]
	if !ok {
		return course.Review{}, course.ErrNotFound
	}
	if _, reviewed := c.ReviewBy(r.StudentID); reviewed {
		return course.Review{}, course.ErrAlreadyReviewed
	}
	r.ID = newID()
	c = copyCourse(c)
	c.Reviews = append(c.Reviews, r)
	repo.db.rows[courseID] = c
	return r, nil
}

func (repo *courseRepository) AddStudent(_ context.Context, courseID, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.rows[courseID]
	if !ok {
		return course.ErrNotFound
	}
	if !c.HasStudent(studentID) {
		c = copyCourse(c)
		c.Students = append(c.Students, studentID)
		repo.db.rows[courseID] = c
	}
	return nil
}

func (repo *courseRepository) RemoveStudent(_ context.Context, courseID, studentID string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	c, ok := repo.db.rows[courseID]
	if !ok {
		return course.ErrNotFound
	}
	students := make([]string, 0, len(c.Students))
	for _, id := range c.Students {
		if id != studentID {
			students = append(students, id)
		}
	}
	c = copyCourse(c)
	c.Students = students
	repo.db.rows[courseID] = c
	return nil
}
