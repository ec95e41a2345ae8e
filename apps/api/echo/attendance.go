package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/attendance"
	"github.com/trezcool/teas/core/employee"
)

type attendanceApi struct {
	auth     *Auth
	svc      *attendance.Service
	empSvc   *employee.Service
	validate *validator.Validate
}

func registerAttendanceAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *Auth, deps ServerDeps) {
	api := attendanceApi{
		auth:     auth,
		svc:      deps.AttendanceSvc,
		empSvc:   deps.EmployeeSvc,
		validate: deps.Validate,
	}

	ag := g.Group("", jwt, activeUserMiddleware(auth))
	ag.POST("/mark-attendance", api.mark)
	ag.GET("/get-attendances", api.query)
}

type MarkAttendanceResponse struct {
	Message      string `json:"message"`
	AttendanceID string `json:"attendance_id"`
}

// Handlers

func (api *attendanceApi) mark(ctx echo.Context) error {
	var data attendance.MarkAttendance
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to MarkAttendance")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}
	if err := api.checkCanMark(ctx, data.Employee); err != nil {
		return err
	}

	att, created, err := api.svc.Mark(ctx.Request().Context(), data)
	if err != nil {
		return errors.Wrap(err, "marking attendance")
	}

	code := http.StatusOK
	if created {
		code = http.StatusCreated
	}
	return ctx.JSON(code, MarkAttendanceResponse{Message: "Attendance marked successfully", AttendanceID: att.ID})
}

// checkCanMark allows admins to mark anyone, other users only their own employee profile.
func (api *attendanceApi) checkCanMark(ctx echo.Context, employeeID string) error {
	usr, err := api.auth.getContextUser(ctx)
	if err != nil {
		return errors.Wrap(err, "getting context user")
	}
	if usr.IsAdmin {
		return nil
	}

	emp, err := api.empSvc.GetByUserID(ctx.Request().Context(), usr.ID)
	if err != nil {
		if errors.Cause(err) == employee.ErrNotFound {
			return errHttpForbidden
		}
		return errors.Wrap(err, "getting context employee")
	}
	if emp.ID != employeeID {
		return errHttpForbidden
	}
	return nil
}

func (api *attendanceApi) query(ctx echo.Context) error {
	var (
		filter attendance.QueryFilter
		err    error
	)
	if filter.Date, err = dateParam(ctx, "date"); err != nil {
		return err
	}
	if filter.DateFrom, err = dateParam(ctx, "date_from"); err != nil {
		return err
	}
	if filter.DateTo, err = dateParam(ctx, "date_to"); err != nil {
		return err
	}
	filter.EmployeeID = core.CleanString(ctx.QueryParam("employee"))
	filter.Status = attendance.Status(core.CleanString(ctx.QueryParam("status"), true /* lower */))

	ordering := new(Ordering)
	ordering.Bind(ctx)

	atts, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying attendances")
	}
	if atts == nil {
		atts = []attendance.Attendance{}
	}
	return ctx.JSON(http.StatusOK, atts)
}
