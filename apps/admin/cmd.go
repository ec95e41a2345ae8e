package main

import (
	"context"
	"errors"
	"fmt"
	"syscall"

	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/spf13/cobra"
	"golang.org/x/term"

	"github.com/trezcool/teas/core/employee"
	"github.com/trezcool/teas/core/user"
	"github.com/trezcool/teas/storage/database"
)

var (
	readPasswordFunc  = term.ReadPassword      // mockable
	runMigrationsFunc = database.RunMigrations // mockable

	errHelp = errors.New("help provided")
)

type commandLine struct {
	db       *sqlx.DB
	validate *validator.Validate
	usrSvc   *user.Service
	empSvc   *employee.Service
}

func (cli *commandLine) rootCmd() *cobra.Command {
	root := &cobra.Command{
		Use:           "teas-admin",
		Short:         "Administrative tasks for the attendance service",
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, args []string) error {
			_ = cmd.Usage()
			return errHelp
		},
	}
	root.AddCommand(
		cli.migrateCmd(),
		cli.addUserCmd(),
		cli.resetPasswordCmd(),
		cli.addEmployeeCmd(),
	)
	return root
}

// run executes the command line args; args[0] is the program name.
func (cli *commandLine) run(ctx context.Context, args []string) error {
	root := cli.rootCmd()
	if len(args) > 0 {
		args = args[1:]
	}
	root.SetArgs(args)
	return root.ExecuteContext(ctx)
}

func (cli *commandLine) migrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate COMMAND [ARGS...]",
		Short: "Run a goose migration command (up, up-by-one, up-to, down, down-to, redo, reset, status, version)",
		Example: `  teas-admin migrate up
  teas-admin migrate down-to 2`,
		DisableFlagParsing: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 {
				_ = cmd.Usage()
				return errHelp
			}
			return cli.migrate(cmd.Context(), args[0], args[1:]...)
		},
	}
}

func (cli *commandLine) addUserCmd() *cobra.Command {
	var (
		uname, email, firstName, lastName string
		isAdmin                           bool
	)
	cmd := &cobra.Command{
		Use:   "adduser",
		Short: "Create a user, or activate and reset the password of an existing one",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			usr, err := cli.addUser(cmd.Context(), user.NewUser{
				Username:  uname,
				FirstName: firstName,
				LastName:  lastName,
				Email:     email,
				Password:  pwd,
				IsAdmin:   isAdmin,
			})
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "user %q saved (id: %s)\n", usr.Username, usr.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "The user's username. The password will be prompted next.")
	cmd.Flags().StringVar(&email, "email", "", "The user's email address")
	cmd.Flags().StringVar(&firstName, "first-name", "", "The user's first name")
	cmd.Flags().StringVar(&lastName, "last-name", "", "The user's last name")
	cmd.Flags().BoolVar(&isAdmin, "admin", false, "Grant admin rights")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (cli *commandLine) resetPasswordCmd() *cobra.Command {
	var uname string
	cmd := &cobra.Command{
		Use:   "resetpassword",
		Short: "Reset a user's password",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			pwd, err := promptPassword(cmd)
			if err != nil {
				return err
			}
			return cli.resetPassword(cmd.Context(), uname, pwd)
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "The user's username or email. The password will be prompted next.")
	_ = cmd.MarkFlagRequired("username")
	return cmd
}

func (cli *commandLine) addEmployeeCmd() *cobra.Command {
	var (
		uname string
		prof  employee.Profile
	)
	cmd := &cobra.Command{
		Use:   "addemployee",
		Short: "Attach an employee profile to an existing user",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			emp, err := cli.addEmployee(cmd.Context(), uname, prof)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "employee %s saved (id: %s)\n", emp, emp.ID)
			return nil
		},
	}
	cmd.Flags().StringVar(&uname, "username", "", "The user's username or email")
	cmd.Flags().StringVar(&prof.EmployeeID, "employee-id", "", "The company employee id")
	cmd.Flags().StringVar(&prof.Department, "department", "", "The employee's department")
	cmd.Flags().StringVar(&prof.Position, "position", "", "The employee's position")
	cmd.Flags().StringVar(&prof.Phone, "phone", "", "The employee's phone number")
	_ = cmd.MarkFlagRequired("username")
	_ = cmd.MarkFlagRequired("employee-id")
	return cmd
}

func promptPassword(cmd *cobra.Command) (string, error) {
	fmt.Fprint(cmd.OutOrStdout(), "Enter password:")
	pwd, err := readPasswordFunc(int(syscall.Stdin))
	fmt.Fprintln(cmd.OutOrStdout())
	if err != nil {
		return "", err
	}
	if len(pwd) == 0 {
		_ = cmd.Usage()
		return "", errHelp
	}
	return string(pwd), nil
}
