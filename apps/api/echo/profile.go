package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/profile"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

type profileApi struct {
	svc      *profile.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerProfileAPI(g *echo.Group, auth *Auth, svc *profile.Service, usrSvc user.ServiceInterface, validate *validator.Validate) {
	api := profileApi{svc: svc, usrSvc: usrSvc, validate: validate}

	pg := g.Group("/profiles", auth.Middleware())
	pg.GET("/me", api.me)
	pg.PUT("/me", api.update)
	pg.PATCH("/me", api.update)
	pg.DELETE("/me", api.destroy)
	pg.GET("/user/:userId", api.retrieve)
}

func (api *profileApi) me(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	p, err := api.svc.Get(ctx.Request().Context(), actor.ID)
	if err != nil {
		return errors.Wrap(err, "getting profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) update(ctx echo.Context) error {
	var data profile.UpdateProfile
	if err := bindValid(ctx, &data, api.validate, "UpdateProfile"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	p, err := api.svc.Update(ctx.Request().Context(), actor.ID, data)
	if err != nil {
		return errors.Wrap(err, "updating profile")
	}
	return ctx.JSON(http.StatusOK, p)
}

func (api *profileApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor.ID); err != nil {
		return errors.Wrap(err, "deleting profile")
	}
	return ctx.NoContent(http.StatusNoContent)
}

func (api *profileApi) retrieve(ctx echo.Context) error {
	p, err := api.svc.GetExisting(ctx.Request().Context(), ctx.Param("userId"))
	if err != nil {
		return errors.Wrap(err, "finding profile")
	}
	return ctx.JSON(http.StatusOK, p)
}
