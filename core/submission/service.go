package submission

import (
	"context"

	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/course"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/exercise"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

var ErrNotFound = core.NewNotFoundError("submission")

type (
	Repository interface {
		CreateSubmission(ctx context.Context, s Submission) (Submission, error)
		// QuerySubmissions returns the matching submissions, latest first unless ordering says otherwise.
		QuerySubmissions(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, error)
		GetSubmission(ctx context.Context, id string) (Submission, error)
		UpdateSubmission(ctx context.Context, s Submission) (Submission, error)
		DeleteSubmission(ctx context.Context, id string) error
	}

	ExerciseFinder interface {
		GetByID(ctx context.Context, id string) (exercise.Exercise, error)
		Query(ctx context.Context, filter *exercise.QueryFilter, ordering []core.DBOrdering) ([]exercise.Exercise, error)
	}

	CourseFinder interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
		Query(ctx context.Context, filter *course.QueryFilter, ordering []core.DBOrdering) ([]course.Course, error)
	}

	Service struct {
		repo      Repository
		exercises ExerciseFinder
		courses   CourseFinder
		sentiment core.SentimentAnalyzer
		logger    core.Logger
	}
)

func NewService(
	repo Repository,
	exercises ExerciseFinder,
	courses CourseFinder,
	sentiment core.SentimentAnalyzer,
	logger core.Logger,
) *Service {
	return &Service{repo: repo, exercises: exercises, courses: courses, sentiment: sentiment, logger: logger}
}

// analyze returns the sentiment of feedback, or nil when it is empty or cannot be classified.
func (svc *Service) analyze(ctx context.Context, feedback, submissionID string) *core.Sentiment {
	if feedback == "" || svc.sentiment == nil {
		return nil
	}
	s, err := svc.sentiment.Sentiment(ctx, feedback)
	if err != nil {
		svc.logger.Warn("feedback sentiment analysis failed", err, map[string]interface{}{"submission_id": submissionID})
		return nil
	}
	return &s
}

// canGrade reports whether usr may grade submissions of ex.
func (svc *Service) canGrade(ctx context.Context, usr user.User, ex exercise.Exercise) (bool, error) {
	if usr.IsAdmin() || exercise.CanManage(usr, ex) {
		return true, nil
	}
	if !usr.IsProfessor() || ex.CourseID == "" {
		return false, nil
	}
	c, err := svc.courses.GetByID(ctx, ex.CourseID)
	if err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return false, nil
		}
		return false, err
	}
	return course.CanManage(usr, c), nil
}

func (svc *Service) Create(ctx context.Context, actor user.User, ns NewSubmission) (Submission, error) {
	if _, err := svc.exercises.GetByID(ctx, ns.ExerciseID); err != nil {
		if errors.Is(err, core.ErrNotFound) {
			return Submission{}, core.NewValidationError(nil, core.FieldError{Field: "exercise_id", Error: "exercise not found"})
		}
		return Submission{}, errors.Wrap(err, "finding exercise")
	}

	now := core.Now()
	s := Submission{
		ExerciseID:      ns.ExerciseID,
		StudentID:       actor.ID,
		SubmittedAnswer: ns.SubmittedAnswer,
		IsCorrect:       ns.IsCorrect,
		Score:           ns.Score,
		Feedback:        ns.Feedback,
		Status:          StatusPending,
		SubmittedAt:     now,
		UpdatedAt:       now,
	}
	if s.IsCorrect != nil || s.Score != nil {
		s.Status = StatusGraded
	}
	s.Sentiment = svc.analyze(ctx, s.Feedback, "")
	return svc.repo.CreateSubmission(ctx, s)
}

// Query lists submissions. Students only ever see their own.
func (svc *Service) Query(ctx context.Context, actor user.User, filter *QueryFilter, ordering []core.DBOrdering) ([]Submission, error) {
	if filter == nil {
		filter = new(QueryFilter)
	}
	if !(actor.IsAdmin() || actor.IsProfessor()) {
		filter.StudentID = actor.ID
	}
	return svc.repo.QuerySubmissions(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, actor user.User, id string) (Submission, error) {
	if id == "" {
		return Submission{}, ErrNotFound
	}
	s, err := svc.repo.GetSubmission(ctx, id)
	if err != nil {
		return Submission{}, err
	}
	if s.StudentID != actor.ID && !(actor.IsAdmin() || actor.IsProfessor()) {
		return Submission{}, ErrNotFound
	}
	return s, nil
}

func (svc *Service) Update(ctx context.Context, actor user.User, id string, us UpdateSubmission) (Submission, error) {
	s, err := svc.GetByID(ctx, actor, id)
	if err != nil {
		return Submission{}, err
	}

	if us.SubmittedAnswer != nil {
		if s.StudentID != actor.ID && !actor.IsAdmin() {
			return Submission{}, core.NewPermissionError("only the author can change the answer")
		}
		s.SubmittedAnswer = us.SubmittedAnswer
	}

	if us.grades() {
		ex, err := svc.exercises.GetByID(ctx, s.ExerciseID)
		if err != nil && !errors.Is(err, core.ErrNotFound) {
			return Submission{}, errors.Wrap(err, "finding exercise")
		}
		ok, err := svc.canGrade(ctx, actor, ex)
		if err != nil {
			return Submission{}, errors.Wrap(err, "checking grading rights")
		}
		if !ok {
			return Submission{}, core.NewPermissionError("not allowed to grade this submission")
		}

		if us.IsCorrect != nil {
			s.IsCorrect = us.IsCorrect
		}
		if us.Score != nil {
			s.Score = us.Score
		}
		if us.Feedback != nil && *us.Feedback != s.Feedback {
			s.Feedback = *us.Feedback
			s.Sentiment = svc.analyze(ctx, s.Feedback, s.ID)
		}
		switch {
		case us.Status != nil:
			s.Status = *us.Status
		case s.Status == StatusPending && (us.Score != nil || us.IsCorrect != nil):
			s.Status = StatusGraded
		}
	}

	s.UpdatedAt = core.Now()
	return svc.repo.UpdateSubmission(ctx, s)
}

func (svc *Service) Delete(ctx context.Context, actor user.User, id string) error {
	s, err := svc.GetByID(ctx, actor, id)
	if err != nil {
		return err
	}
	if s.StudentID != actor.ID && !actor.IsAdmin() {
		return core.NewPermissionError("only the author can delete this submission")
	}
	return svc.repo.DeleteSubmission(ctx, id)
}

// ForProfessor lists the submissions made on the exercises of professorID's courses.
// professorID defaults to the actor; only admins may look at another professor's courses.
func (svc *Service) ForProfessor(ctx context.Context, actor user.User, professorID string) ([]ProfessorSubmission, error) {
	if professorID == "" {
		professorID = actor.ID
	}
	if professorID != actor.ID && !actor.IsAdmin() {
		return nil, core.NewPermissionError("cannot list another professor's submissions")
	}
	if !(actor.IsProfessor() || actor.IsAdmin()) {
		return nil, core.NewPermissionError("only professors can list course submissions")
	}

	courses, err := svc.courses.Query(ctx, &course.QueryFilter{ProfessorID: professorID}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying courses")
	}
	out := make([]ProfessorSubmission, 0)
	if len(courses) == 0 {
		return out, nil
	}
	courseByID := make(map[string]course.Course, len(courses))
	courseIDs := make([]string, 0, len(courses))
	for _, c := range courses {
		courseByID[c.ID] = c
		courseIDs = append(courseIDs, c.ID)
	}

	exercises, err := svc.exercises.Query(ctx, &exercise.QueryFilter{CourseIDs: courseIDs}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying exercises")
	}
	if len(exercises) == 0 {
		return out, nil
	}
	exByID := make(map[string]exercise.Exercise, len(exercises))
	exIDs := make([]string, 0, len(exercises))
	for _, ex := range exercises {
		exByID[ex.ID] = ex
		exIDs = append(exIDs, ex.ID)
	}

	subs, err := svc.repo.QuerySubmissions(ctx, &QueryFilter{ExerciseIDs: exIDs}, nil)
	if err != nil {
		return nil, errors.Wrap(err, "querying submissions")
	}
	for _, s := range subs {
		ex := exByID[s.ExerciseID]
		c := courseByID[ex.CourseID]
		out = append(out, ProfessorSubmission{
			Submission:    s,
			ExerciseTitle: ex.Title,
			CourseID:      c.ID,
			CourseTitle:   c.Title,
		})
	}
	return out, nil
}
