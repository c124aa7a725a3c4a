package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core/chat"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

type chatSessionApi struct {
	svc      *chat.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerChatSessionAPI(g *echo.Group, auth *Auth, svc *chat.Service, usrSvc user.ServiceInterface, validate *validator.Validate) {
	api := chatSessionApi{svc: svc, usrSvc: usrSvc, validate: validate}

	cg := g.Group("/chat-sessions", auth.Middleware())
	cg.POST("", api.create)
	cg.GET("", api.query)
	cg.GET("/:id", api.retrieve)
	cg.PUT("/:id", api.update)
	cg.PATCH("/:id", api.update)
	cg.POST("/:id/messages", api.appendMessages)
	cg.DELETE("/:id", api.destroy)
}

func (api *chatSessionApi) create(ctx echo.Context) error {
	var data chat.NewSession
	if err := bindValid(ctx, &data, api.validate, "NewSession"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "creating chat session")
	}
	return ctx.JSON(http.StatusCreated, s)
}

func (api *chatSessionApi) query(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	sessions, err := api.svc.ForUser(ctx.Request().Context(), actor)
	if err != nil {
		return errors.Wrap(err, "listing chat sessions")
	}
	if sessions == nil {
		sessions = []chat.Session{}
	}
	return ctx.JSON(http.StatusOK, sessions)
}

func (api *chatSessionApi) retrieve(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	s, err := api.svc.GetByID(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding chat session")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *chatSessionApi) update(ctx echo.Context) error {
	var data chat.UpdateSession
	if err := bindValid(ctx, &data, api.validate, "UpdateSession"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating chat session")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *chatSessionApi) appendMessages(ctx echo.Context) error {
	var data chat.AppendMessages
	if err := bindValid(ctx, &data, api.validate, "AppendMessages"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	s, err := api.svc.AppendMessages(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "appending messages")
	}
	return ctx.JSON(http.StatusOK, s)
}

func (api *chatSessionApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting chat session")
	}
	return ctx.NoContent(http.StatusNoContent)
}
