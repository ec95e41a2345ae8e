package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/teas/core/attendance"
)

// meApi serves the self-service routes of the authenticated user.
type meApi struct {
	auth     *Auth
	svc      *attendance.Service
	validate *validator.Validate
}

func registerMeAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *Auth, deps ServerDeps) {
	api := meApi{
		auth:     auth,
		svc:      deps.AttendanceSvc,
		validate: deps.Validate,
	}

	mg := g.Group("/me", jwt, activeUserMiddleware(auth))
	mg.POST("/check-in", api.checkIn)
	mg.POST("/check-out", api.checkOut)
	mg.GET("/attendances", api.attendances)
}

// Handlers

func (api *meApi) checkIn(ctx echo.Context) error {
	var data attendance.Location
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Location")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if _, _, err = api.svc.CheckIn(ctx.Request().Context(), usr.ID, data); err != nil {
		return errors.Wrap(err, "checking in")
	}
	return ctx.JSON(http.StatusOK, MessageResponse{Message: "Attendance marked successfully"})
}

func (api *meApi) checkOut(ctx echo.Context) error {
	usr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	att, err := api.svc.CheckOut(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "checking out")
	}
	return ctx.JSON(http.StatusOK, att)
}

func (api *meApi) attendances(ctx echo.Context) error {
	usr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	atts, err := api.svc.Summary(ctx.Request().Context(), usr.ID)
	if err != nil {
		return errors.Wrap(err, "getting attendance summary")
	}
	if atts == nil {
		atts = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, atts)
}
