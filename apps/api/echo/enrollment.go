package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/enrollment"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

type enrollmentApi struct {
	svc      *enrollment.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerEnrollmentAPI(g *echo.Group, auth *Auth, svc *enrollment.Service, usrSvc user.ServiceInterface, validate *validator.Validate) {
	api := enrollmentApi{svc: svc, usrSvc: usrSvc, validate: validate}

	eg := g.Group("/enrollments", auth.Middleware())
	eg.POST("", api.enroll)
	eg.GET("/my", api.mine)
	eg.GET("/status/:courseId", api.status)
	eg.DELETE("/course/:courseId", api.unenroll)
	eg.PATCH("/:id/progress", api.updateProgress)
	eg.GET("/course/:courseId", api.forCourse, staffMiddleware())
}

type EnrollRequest struct {
	CourseID string `json:"course_id" validate:"required"`
}

func (er *EnrollRequest) Validate(validate *validator.Validate) error {
	er.CourseID = core.CleanString(er.CourseID)
	return validate.Struct(er)
}

func (api *enrollmentApi) enroll(ctx echo.Context) error {
	var data EnrollRequest
	if err := bindValid(ctx, &data, api.validate, "EnrollRequest"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := api.svc.Enroll(ctx.Request().Context(), actor, data.CourseID)
	if err != nil {
		return errors.Wrap(err, "enrolling")
	}
	return ctx.JSON(http.StatusCreated, e)
}

func (api *enrollmentApi) mine(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	list, err := api.svc.ForStudent(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "listing enrollments")
	}
	if list == nil {
		list = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, list)
}

func (api *enrollmentApi) status(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	st, err := api.svc.Status(ctx.Request().Context(), actor, ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "getting enrollment status")
	}
	return ctx.JSON(http.StatusOK, st)
}

func (api *enrollmentApi) unenroll(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Unenroll(ctx.Request().Context(), actor, ctx.Param("courseId")); err != nil {
		return errors.Wrap(err, "unenrolling")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *enrollmentApi) updateProgress(ctx echo.Context) error {
	var data enrollment.UpdateProgress
	if err := bindValid(ctx, &data, api.validate, "UpdateProgress"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	e, err := api.svc.UpdateProgress(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating progress")
	}
	return ctx.JSON(http.StatusOK, e)
}

func (api *enrollmentApi) forCourse(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	list, err := api.svc.ForCourse(ctx.Request().Context(), actor, ctx.Param("courseId"))
	if err != nil {
		return errors.Wrap(err, "listing course enrollments")
	}
	if list == nil {
		list = []enrollment.Enrollment{}
	}
	return ctx.JSON(http.StatusOK, list)
}
