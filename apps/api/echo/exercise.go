package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/exercise"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

type exerciseApi struct {
	svc      *exercise.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerExerciseAPI(g *echo.Group, auth *Auth, svc *exercise.Service, usrSvc user.ServiceInterface, validate *validator.Validate) {
	api := exerciseApi{svc: svc, usrSvc: usrSvc, validate: validate}
	jwt := auth.Middleware()

	eg := g.Group("/exercises")
	eg.GET("", api.query)
	eg.GET("/:id", api.retrieve)
	eg.POST("", api.create, jwt, staffMiddleware())
	eg.PUT("/:id", api.update, jwt)
	eg.PATCH("/:id", api.update, jwt)
	eg.DELETE("/:id", api.destroy, jwt)
}

func (api *exerciseApi) query(ctx echo.Context) error {
	filter := new(exercise.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []exercise.Exercise{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	exercises, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying exercises")
	}
	if exercises == nil {
		exercises = []exercise.Exercise{}
	}
	return ctx.JSON(http.StatusOK, exercises)
}

func (api *exerciseApi) retrieve(ctx echo.Context) error {
	ex, err := api.svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding exercise")
	}
	return ctx.JSON(http.StatusOK, ex)
}

func (api *exerciseApi) create(ctx echo.Context) error {
	var data exercise.NewExercise
	if err := bindValid(ctx, &data, api.validate, "NewExercise"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ex, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating exercise")
	}
	return ctx.JSON(http.StatusCreated, ex)
}

func (api *exerciseApi) update(ctx echo.Context) error {
	var data exercise.UpdateExercise
	if err := bindValid(ctx, &data, api.validate, "UpdateExercise"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	ex, err := api.svc.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating exercise")
	}
	return ctx.JSON(http.StatusOK, ex)
}

func (api *exerciseApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting exercise")
	}
	return ctx.NoContent(http.StatusNoContent)
}
