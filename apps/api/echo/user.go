package echoapi

import (
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/teas/core/employee"
	"github.com/trezcool/teas/core/user"
)

type userApi struct {
	auth     *Auth
	svc      *user.Service
	empSvc   *employee.Service
	validate *validator.Validate
}

func newUserApi(auth *Auth, deps ServerDeps) *userApi {
	return &userApi{
		auth:     auth,
		svc:      deps.UserSvc,
		empSvc:   deps.EmployeeSvc,
		validate: deps.Validate,
	}
}

func registerUserAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *Auth, deps ServerDeps) {
	api := newUserApi(auth, deps)

	g.POST("/create-user", api.create)
	g.GET("/users", api.query, jwt, activeUserMiddleware(auth))
}

func registerAuthAPI(g *echo.Group, jwt echo.MiddlewareFunc, auth *Auth, deps ServerDeps) {
	api := newUserApi(auth, deps)

	ag := g.Group("/auth")
	ag.POST("/register", api.register)
	ag.POST("/login", api.login)
	ag.POST("/token-refresh", api.refreshToken, jwt)
}

type (
	CreateUserResponse struct {
		UserID   string `json:"user_id"`
		Username string `json:"username"`
		Message  string `json:"message"`
	}

	RegisterResponse struct {
		Token    string            `json:"token"`
		Employee employee.Employee `json:"employee"`
	}
)

// Handlers

func (api *userApi) create(ctx echo.Context) error {
	var data user.NewUser
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to NewUser")
	}
	rctx := ctx.Request().Context()
	if err := data.Validate(rctx, api.validate, api.svc); err != nil {
		return err
	}

	usr, err := api.svc.Create(rctx, data)
	if err != nil {
		return errors.Wrap(err, "creating user")
	}

	return ctx.JSON(http.StatusCreated, CreateUserResponse{
		UserID:   usr.ID,
		Username: usr.Username,
		Message:  "User created successfully",
	})
}

func (api *userApi) query(ctx echo.Context) error {
	filter := new(user.QueryFilter)
	if err := ctx.Bind(filter); err != nil {
		return ctx.JSON(http.StatusOK, []user.User{})
	}
	filter.Clean()
	ordering := new(Ordering)
	ordering.Bind(ctx)

	users, err := api.svc.Query(ctx.Request().Context(), filter, ordering.Orderings)
	if err != nil {
		return errors.Wrap(err, "querying users")
	}
	if users == nil {
		users = []user.User{}
	}
	return ctx.JSON(http.StatusOK, users)
}

// register creates a user and its employee profile, then logs it in.
func (api *userApi) register(ctx echo.Context) error {
	var data employee.RegisterRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to RegisterRequest")
	}
	rctx := ctx.Request().Context()
	reg := data.Registration()
	if err := reg.Validate(rctx, api.validate, api.empSvc); err != nil {
		return err
	}

	emp, err := api.empSvc.Register(rctx, reg)
	if err != nil {
		return errors.Wrap(err, "registering employee")
	}
	usr, err := api.svc.SetLastLogin(rctx, emp.User)
	if err != nil {
		return errors.Wrap(err, "setting lastLogin")
	}
	emp.User = usr

	token, err := api.auth.UserToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}
	return ctx.JSON(http.StatusCreated, RegisterResponse{Token: token, Employee: emp})
}

func (api *userApi) login(ctx echo.Context) error {
	var data LoginRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to LoginRequest")
	}
	if err := data.Validate(api.validate); err != nil {
		return err
	}

	usr, err := api.auth.authenticate(ctx.Request().Context(), data.Username, data.Password)
	if err != nil {
		return errors.Wrap(err, "authenticating")
	}
	token, err := api.auth.UserToken(usr)
	if err != nil {
		return errors.Wrap(err, "generating token")
	}

	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}

func (api *userApi) refreshToken(ctx echo.Context) error {
	token, err := api.auth.refreshToken(ctx)
	if err != nil {
		return errors.Wrap(err, "refreshing token")
	}
	return ctx.JSON(http.StatusOK, TokenResponse{Token: token})
}
