package inmemdb

import (
	"context"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/enrollment"
)

type enrollmentRepository struct {
	db *table[enrollment.Enrollment]
}

var _ enrollment.Repository = (*enrollmentRepository)(nil) // interface compliance check

func NewEnrollmentRepository(db *DB) *enrollmentRepository {
	return &enrollmentRepository{db: db.enrollment}
}

func copyEnrollment(e enrollment.Enrollment) enrollment.Enrollment {
	if e.FinalGrade != nil {
		v := *e.FinalGrade
		e.FinalGrade = &v
	}
	return e
}

func (repo *enrollmentRepository) CreateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	for _, other := range repo.db.rows {
		if other.StudentID == e.StudentID && other.CourseID == e.CourseID {
			return enrollment.Enrollment{}, enrollment.ErrAlreadyEnrolled
		}
	}
	e.ID = newID()
	repo.db.rows[e.ID] = copyEnrollment(e)
	return e, nil
}

func (repo *enrollmentRepository) QueryEnrollments(_ context.Context, filter enrollment.QueryFilter) ([]enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	keep := func(e enrollment.Enrollment) bool {
		return (filter.StudentID == "" || e.StudentID == filter.StudentID) &&
			(filter.CourseID == "" || e.CourseID == filter.CourseID) &&
			(filter.Status == "" || e.Status == filter.Status)
	}
	latestFirst := func(a, b enrollment.Enrollment) bool { return a.EnrolledAt.After(b.EnrolledAt) }
	list := repo.db.all(keep, latestFirst)
	for i := range list {
		list[i] = copyEnrollment(list[i])
	}
	return list, nil
}

func (repo *enrollmentRepository) GetEnrollment(_ context.Context, id string) (enrollment.Enrollment, error) {
	repo.db.RLock()
	defer repo.db.RUnlock()

	if e, ok := repo.db.rows[id]; ok {
		return copyEnrollment(e), nil
	}
	return enrollment.Enrollment{}, enrollment.ErrNotFound
}

func (repo *enrollmentRepository) UpdateEnrollment(_ context.Context, e enrollment.Enrollment) (enrollment.Enrollment, error) {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[e.ID]; !ok {
		return enrollment.Enrollment{}, enrollment.ErrNotFound
	}
	repo.db.rows[e.ID] = copyEnrollment(e)
	return e, nil
}

func (repo *enrollmentRepository) DeleteEnrollment(_ context.Context, id string) error {
	repo.db.Lock()
	defer repo.db.Unlock()

	if _, ok := repo.db.rows[id]; !ok {
		return enrollment.ErrNotFound
	}
	delete(repo.db.rows, id)
	return nil
}
