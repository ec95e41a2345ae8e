// Package testutil holds the fixtures shared by the test suites.
package testutil

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/attendance"
	"github.com/trezcool/teas/core/employee"
	"github.com/trezcool/teas/core/user"
	"github.com/trezcool/teas/storage/database"
)

// NewValidator returns a validator with every custom validation registered.
func NewValidator() (*validator.Validate, ut.Translator) {
	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)
	return validate, translator
}

// PrepareSqlite opens a migrated sqlite database in a temporary directory, closed on cleanup.
func PrepareSqlite(t *testing.T) *sqlx.DB {
	t.Helper()
	conf := core.NewTestConfig()
	conf.Database.Engine = database.EngineSqlite
	conf.Database.Path = filepath.Join(t.TempDir(), "teas.db")

	db, err := database.Open(conf)
	if err != nil {
		t.Fatalf("PrepareSqlite() failed to open: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	if err = database.Migrate(context.Background(), db); err != nil {
		t.Fatalf("PrepareSqlite() failed to migrate: %v", err)
	}
	return db
}

func CreateUser(
	t *testing.T,
	repo user.Repository,
	firstName, lastName, uname, email, pwd string,
	isAdmin, isActive bool,
	createdAt ...time.Time,
) user.User {
	t.Helper()
	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Microsecond)
	}
	usr := user.User{
		Username:  uname,
		FirstName: firstName,
		LastName:  lastName,
		Email:     email,
		IsAdmin:   isAdmin,
		IsActive:  isActive,
		CreatedAt: tstamp,
		UpdatedAt: tstamp,
	}
	if pwd != "" {
		if err := usr.SetPassword(pwd); err != nil {
			t.Fatalf("CreateUser() failed: %v", err)
		}
	}
	usr, err := repo.CreateUser(context.Background(), usr)
	if err != nil {
		t.Fatalf("CreateUser() failed: %v", err)
	}
	return usr
}

func CreateEmployee(
	t *testing.T,
	repo employee.Repository,
	usr user.User,
	empID, department string,
	createdAt ...time.Time,
) employee.Employee {
	t.Helper()
	tstamp := time.Now().UTC().Truncate(time.Microsecond)
	if len(createdAt) > 0 {
		tstamp = createdAt[0].UTC().Truncate(time.Microsecond)
	}
	emp := employee.Employee{
		UserID:     usr.ID,
		EmployeeID: empID,
		Department: department,
		CreatedAt:  tstamp,
		User:       usr,
	}
	emp, err := repo.CreateEmployee(context.Background(), emp)
	if err != nil {
		t.Fatalf("CreateEmployee() failed: %v", err)
	}
	emp.User = usr
	return emp
}

func CreateAttendance(
	t *testing.T,
	repo attendance.Repository,
	emp employee.Employee,
	date core.Date,
	status attendance.Status,
	checkIn *core.TimeOfDay,
) attendance.Attendance {
	t.Helper()
	now := time.Now().UTC().Truncate(time.Microsecond)
	att := attendance.Attendance{
		EmployeeID:   emp.ID,
		EmployeeName: emp.User.FullName(),
		Date:         date,
		Status:       status,
		CheckInTime:  checkIn,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	att, created, err := repo.Upsert(context.Background(), att, func(*attendance.Attendance) {})
	if err != nil || !created {
		t.Fatalf("CreateAttendance() failed: created=%v err=%v", created, err)
	}
	att.EmployeeName = emp.User.FullName()
	return att
}

// Clock returns a pointer to the time of day h:m:s.
func Clock(h, m, s int) *core.TimeOfDay {
	tod := core.NewTimeOfDay(h, m, s)
	return &tod
}

func Float(f float64) *float64 { return &f }

func String(s string) *string { return &s }
