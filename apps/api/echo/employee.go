package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/teas/core/employee"
)

var errEmpNotFoundInCtx = errors.New("employee object not found in echo.Context")

type employeeApi struct {
	svc      *employee.Service
	validate *validator.Validate
}

func registerEmployeeAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *Auth, deps ServerDeps) {
	api := employeeApi{
		svc:      deps.EmployeeSvc,
		validate: deps.Validate,
	}

	eg := g.Group("/employees", jwt, activeUserMiddleware(auth), adminMiddleware(auth))
	eg.POST("", api.create)
	eg.GET("", api.query)

	// detail endpoints
	dg := eg.Group("/:id", employeeObjectMiddleware(api.svc))
	dg.GET("", api.retrieve)
	dg.PUT("", api.update)
}

// Handlers

func (api *employeeApi) create(ctx echo.Context) error {
	var data employee.NewEmployee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewEmployee")
	}
	rctx := ctx.Request().Context()
	reg := data.Registration()
	if err := reg.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	emp, err := api.svc.Register(rctx, reg)
	if err != nil {
		return errors.Wrap(err, "creating employee")
	}
	return ctx.JSON(http.StatusCreated, emp)
}

func (api *employeeApi) query(ctx echo.Context) error {
	filter := new(employee.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []employee.Employee{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	emps, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying employees")
	}
	if emps == nil {
		emps = []employee.Employee{}
	}
	return ctx.JSON(http.StatusOK, emps)
}

func (api *employeeApi) retrieve(ctx echo.Context) error {
	emp, ok := ctx.Get("object").(employee.Employee)
	if !ok {
		return errors.Wrap(errEmpNotFoundInCtx, "retrieving object from context")
	}
	return ctx.JSON(http.StatusOK, emp)
}

func (api *employeeApi) update(ctx echo.Context) error {
	emp, ok := ctx.Get("object").(employee.Employee)
	if !ok {
		return errors.Wrap(errEmpNotFoundInCtx, "retrieving object from context")
	}

	var data employee.UpdateEmployee
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to UpdateEmployee")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, emp, api.validate, api.svc); err != nil {
		return err
	}

	emp, err := api.svc.Update(rctx, emp, data)
	if err != nil {
		return errors.Wrap(err, "updating employee")
	}
	return ctx.JSON(http.StatusOK, emp)
}

func employeeObjectMiddleware(svc *employee.Service) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(ctx echo.Context) error {
			emp, err := svc.GetByID(ctx.Request().Context(), ctx.Param("id"))
			if err != nil {
				if errors.Cause(err) == employee.ErrNotFound {
					return errHttpNotFound
				}
				return errors.Wrap(err, "finding employee by ID")
			}
			ctx.Set("object", emp)
			return next(ctx)
		}
	}
}
