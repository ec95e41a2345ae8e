package main

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/employee"
	"github.com/trezcool/teas/core/user"
)

// addUser updates or creates a user.User
func (cli *commandLine) addUser(ctx context.Context, nu user.NewUser) (user.User, error) {
	nu.Clean()
	usr, err := cli.usrSvc.GetByUsername(ctx, nu.Username)
	if err != nil {
		if errors.Cause(err) != user.ErrNotFound {
			return user.User{}, err
		}
		if err = nu.Validate(ctx, cli.validate, cli.usrSvc); err != nil {
			return user.User{}, err
		}
		return cli.usrSvc.Create(ctx, nu)
	}

	if err = checkPassword(nu.Password, usr); err != nil {
		return user.User{}, err
	}
	active := true
	uu := user.UpdateUser{IsActive: &active}
	if nu.IsAdmin {
		uu.IsAdmin = &nu.IsAdmin
	}
	if usr, err = cli.usrSvc.Update(ctx, usr, uu); err != nil {
		return user.User{}, err
	}
	return cli.usrSvc.SetPassword(ctx, usr, nu.Password)
}

func (cli *commandLine) resetPassword(ctx context.Context, uname, pwd string) error {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return err
	}
	if err = checkPassword(pwd, usr); err != nil {
		return err
	}
	_, err = cli.usrSvc.SetPassword(ctx, usr, pwd)
	return err
}

func (cli *commandLine) addEmployee(ctx context.Context, uname string, prof employee.Profile) (employee.Employee, error) {
	usr, err := cli.usrSvc.GetByUsernameOrEmail(ctx, uname)
	if err != nil {
		return employee.Employee{}, err
	}
	prof.Clean()
	if err = cli.validate.Struct(&prof); err != nil {
		return employee.Employee{}, err
	}
	return cli.empSvc.AddProfile(ctx, usr, prof)
}

func checkPassword(pwd string, usr user.User) error {
	if msg := user.ValidatePassword(pwd, usr.Username, usr.FirstName, usr.LastName, usr.Email); msg != "" {
		return core.NewFieldError("password", errors.New(msg))
	}
	return nil
}
