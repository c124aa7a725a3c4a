package enrollment

import (
	"context"
	htmltmpl "html/template"
	"net/mail"
	"strings"
	texttmpl "text/template"

	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/course"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

var (
	ErrNotFound        = core.NewNotFoundError("enrollment")
	ErrAlreadyEnrolled = core.NewValidationError(nil, core.FieldError{Field: "course_id", Error: "already enrolled in this course"})

	confirmationSubject = texttmpl.Must(texttmpl.New("subject").Parse("Enrollment confirmed: {{.Course}}"))
	confirmationText    = texttmpl.Must(texttmpl.New("enrollment.txt").Parse(
		`Hello {{.Name}},

You are now enrolled in "{{.Course}}".
Start learning: {{.URL}}
`))
	confirmationHTML = htmltmpl.Must(htmltmpl.New("enrollment.html").Parse(
		`<p>Hello {{.Name}},</p>
<p>You are now enrolled in <strong>{{.Course}}</strong>.</p>
<p><a href="{{.URL}}">Start learning</a></p>
`))
)

type (
	Repository interface {
		// CreateEnrollment fails with a *core.ValidationError when (student, course) is already enrolled.
		CreateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		// QueryEnrollments returns the matching enrollments, latest first.
		QueryEnrollments(ctx context.Context, filter QueryFilter) ([]Enrollment, error)
		GetEnrollment(ctx context.Context, id string) (Enrollment, error)
		UpdateEnrollment(ctx context.Context, e Enrollment) (Enrollment, error)
		DeleteEnrollment(ctx context.Context, id string) error
	}

	CourseStore interface {
		GetByID(ctx context.Context, id string) (course.Course, error)
		AddStudent(ctx context.Context, courseID, studentID string) error
		RemoveStudent(ctx context.Context, courseID, studentID string) error
	}

	Service struct {
		repo        Repository
		courses     CourseStore
		mailSvc     core.EmailService
		logger      core.Logger
		frontendURL string
	}
)

func NewService(repo Repository, courses CourseStore, mailSvc core.EmailService, logger core.Logger, frontendURL string) *Service {
	return &Service{repo: repo, courses: courses, mailSvc: mailSvc, logger: logger, frontendURL: frontendURL}
}

func (svc *Service) find(ctx context.Context, studentID, courseID string) (Enrollment, bool, error) {
	list, err := svc.repo.QueryEnrollments(ctx, QueryFilter{StudentID: studentID, CourseID: courseID})
	if err != nil {
		return Enrollment{}, false, errors.Wrap(err, "querying enrollments")
	}
	if len(list) == 0 {
		return Enrollment{}, false, nil
	}
	return list[0], true, nil
}

// Enroll registers actor in the course, adds them to the course students and mails them a confirmation.
func (svc *Service) Enroll(ctx context.Context, actor user.User, courseID string) (Enrollment, error) {
	c, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		return Enrollment{}, err
	}
	if _, found, err := svc.find(ctx, actor.ID, courseID); err != nil {
		return Enrollment{}, err
	} else if found {
		return Enrollment{}, ErrAlreadyEnrolled
	}

	now := core.Now()
	e, err := svc.repo.CreateEnrollment(ctx, Enrollment{
		StudentID:  actor.ID,
		CourseID:   c.ID,
		EnrolledAt: now,
		Progress:   Progress{LastAccessedAt: now},
		Status:     StatusActive,
		UpdatedAt:  now,
	})
	if err != nil {
		return Enrollment{}, err
	}
	if err = svc.courses.AddStudent(ctx, c.ID, actor.ID); err != nil {
		if dErr := svc.repo.DeleteEnrollment(ctx, e.ID); dErr != nil {
			svc.logger.Error("rolling back enrollment", dErr, map[string]interface{}{"enrollment_id": e.ID})
		}
		return Enrollment{}, errors.Wrap(err, "adding student to course")
	}

	svc.sendConfirmation(actor, c)
	return e, nil
}

func (svc *Service) sendConfirmation(usr user.User, c course.Course) {
	if usr.Email == "" || svc.mailSvc == nil {
		return
	}
	name := usr.Name
	if name == "" {
		name = usr.Username
	}
	data := map[string]string{
		"Name":   name,
		"Course": c.Title,
		"URL":    svc.frontendURL + "/courses/" + c.ID,
	}

	subject := new(strings.Builder)
	if err := confirmationSubject.Execute(subject, data); err != nil {
		svc.logger.Error("rendering enrollment subject", err)
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: usr.Name, Address: usr.Email}},
		Subject:      subject.String(),
		TextTemplate: confirmationText,
		HTMLTemplate: confirmationHTML,
		TemplateData: data,
	})
}

func (svc *Service) ForStudent(ctx context.Context, actor user.User) ([]Enrollment, error) {
	return svc.repo.QueryEnrollments(ctx, QueryFilter{StudentID: actor.ID})
}

func (svc *Service) Status(ctx context.Context, actor user.User, courseID string) (EnrollmentStatus, error) {
	e, found, err := svc.find(ctx, actor.ID, courseID)
	if err != nil || !found {
		return EnrollmentStatus{}, err
	}
	return EnrollmentStatus{Enrolled: true, Enrollment: &e}, nil
}

// Unenroll removes actor's enrollment in the course and takes them off the course students.
func (svc *Service) Unenroll(ctx context.Context, actor user.User, courseID string) error {
	e, found, err := svc.find(ctx, actor.ID, courseID)
	if err != nil {
		return err
	}
	if !found {
		return ErrNotFound
	}
	if err = svc.repo.DeleteEnrollment(ctx, e.ID); err != nil {
		return errors.Wrap(err, "deleting enrollment")
	}
	if err = svc.courses.RemoveStudent(ctx, courseID, actor.ID); err != nil && !errors.Is(err, core.ErrNotFound) {
		return errors.Wrap(err, "removing student from course")
	}
	return nil
}

func (svc *Service) UpdateProgress(ctx context.Context, actor user.User, id string, up UpdateProgress) (Enrollment, error) {
	e, err := svc.repo.GetEnrollment(ctx, id)
	if err != nil {
		return Enrollment{}, err
	}
	if e.StudentID != actor.ID {
		// do not leak other students' enrollments
		return Enrollment{}, ErrNotFound
	}
	now := core.Now()
	up.apply(&e, now)
	e.UpdatedAt = now
	return svc.repo.UpdateEnrollment(ctx, e)
}

// ForCourse lists the enrollments of a course. Only its professor (or an admin) may see them.
func (svc *Service) ForCourse(ctx context.Context, actor user.User, courseID string) ([]Enrollment, error) {
	c, err := svc.courses.GetByID(ctx, courseID)
	if err != nil {
		return nil, err
	}
	if !course.CanManage(actor, c) {
		return nil, core.NewPermissionError("only the course professor can list its enrollments")
	}
	return svc.repo.QueryEnrollments(ctx, QueryFilter{CourseID: courseID})
}
