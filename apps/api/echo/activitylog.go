package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/AmelJaballah/SmartLearn-mern-project/core"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/activitylog"
	"github.com/AmelJaballah/SmartLearn-mern-project/core/user"
)

type activityLogApi struct {
	svc      *activitylog.Service
	usrSvc   user.ServiceInterface
	validate *validator.Validate
}

func registerActivityLogAPI(g *echo.Group, auth *Auth, svc *activitylog.Service, usrSvc user.ServiceInterface, validate *validator.Validate) {
	api := activityLogApi{svc: svc, usrSvc: usrSvc, validate: validate}

	lg := g.Group("/activity-logs", auth.Middleware())
	lg.POST("", api.create)
	lg.GET("", api.query)
	lg.GET("/:id", api.retrieve)
	lg.PUT("/:id", api.update)
	lg.PATCH("/:id", api.update)
	lg.DELETE("/:id", api.destroy)
}

func (api *activityLogApi) create(ctx echo.Context) error {
	var data activitylog.NewLog
	if err := bindValid(ctx, &data, api.validate, "NewLog"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	l, err := api.svc.Create(ctx.Request().Context(), actor, data)
	if err != nil {
		return errors.Wrap(err, "recording activity")
	}
	return ctx.JSON(http.StatusCreated, l)
}

// query filters with ?user=<id>&action=<action>.
func (api *activityLogApi) query(ctx echo.Context) error {
	var filter activitylog.QueryFilter
	if err := ctx.Bind(&filter); err != nil {
		return errors.Wrap(err, "binding to QueryFilter")
	}
	filter.UserID = core.CleanString(filter.UserID)
	filter.Action = core.CleanString(filter.Action)

	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	logs, err := api.svc.Query(ctx.Request().Context(), actor, filter)
	if err != nil {
		return errors.Wrap(err, "listing activity logs")
	}
	if logs == nil {
		logs = []activitylog.Log{}
	}
	return ctx.JSON(http.StatusOK, logs)
}

func (api *activityLogApi) retrieve(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	l, err := api.svc.GetByID(ctx.Request().Context(), actor, ctx.Param("id"))
	if err != nil {
		return errors.Wrap(err, "finding activity log")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *activityLogApi) update(ctx echo.Context) error {
	var data activitylog.UpdateLog
	if err := bindValid(ctx, &data, api.validate, "UpdateLog"); err != nil {
		return err
	}
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}

	l, err := api.svc.Update(ctx.Request().Context(), actor, ctx.Param("id"), data)
	if err != nil {
		return errors.Wrap(err, "updating activity log")
	}
	return ctx.JSON(http.StatusOK, l)
}

func (api *activityLogApi) destroy(ctx echo.Context) error {
	actor, err := getContextUser(ctx, api.usrSvc)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if err = api.svc.Delete(ctx.Request().Context(), actor, ctx.Param("id")); err != nil {
		return errors.Wrap(err, "deleting activity log")
	}
	return ctx.JSON(http.StatusOK, map[string]string{"message": "activity log deleted"})
}
