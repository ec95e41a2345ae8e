package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/employee"
)

type employeeRow struct {
	ID         string      `db:"id"`
	UserID     string      `db:"user_id"`
	EmployeeID string      `db:"employee_id"`
	Phone      null.String `db:"phone"`
	Department null.String `db:"department"`
	Position   null.String `db:"position"`
	CreatedAt  dbTime      `db:"created_at"`
	User       userRow     `db:"user"`
}

func (r employeeRow) employee() employee.Employee {
	return employee.Employee{
		ID:         r.ID,
		UserID:     r.UserID,
		EmployeeID: r.EmployeeID,
		Phone:      r.Phone.String,
		Department: r.Department.String,
		Position:   r.Position.String,
		CreatedAt:  r.CreatedAt.Time,
		User:       r.User.user(),
	}
}

func employeeRecord(emp employee.Employee) goqu.Record {
	return goqu.Record{
		"id":          emp.ID,
		"user_id":     emp.UserID,
		"employee_id": emp.EmployeeID,
		"phone":       nullStringArg(emp.Phone),
		"department":  nullStringArg(emp.Department),
		"position":    nullStringArg(emp.Position),
		"created_at":  timeArg(emp.CreatedAt),
	}
}

// employeeSelection selects employees joined with their user, aliased for sqlx's nested struct scanning.
func employeeSelection(builder goqu.DialectWrapper) *goqu.SelectDataset {
	e, u := goqu.T(tableEmployees).As("e"), goqu.T(tableUsers).As("u")
	cols := []interface{}{
		e.Col("id"), e.Col("user_id"), e.Col("employee_id"), e.Col("phone"),
		e.Col("department"), e.Col("position"), e.Col("created_at"),
	}
	for _, c := range userColumns {
		name := c.(string)
		cols = append(cols, u.Col(name).As(goqu.C("user."+name)))
	}
	return builder.From(e).
		InnerJoin(u, goqu.On(e.Col("user_id").Eq(u.Col("id")))).
		Select(cols...)
}

type employeeRepository struct {
	base
}

var _ employee.Repository = (*employeeRepository)(nil) // interface compliance check

func NewEmployeeRepository(db *sqlx.DB) *employeeRepository {
	return &employeeRepository{base: newBase(db)}
}

// trapNoRowsErr maps "no rows" err to employee.ErrNotFound
func (repo employeeRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return employee.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo employeeRepository) CheckEmployeeID(ctx context.Context, empID, excludedID string, exec ...core.DBExecutor) error {
	ds := repo.builder.From(tableEmployees).Select(goqu.COUNT("*")).Where(goqu.C("employee_id").Eq(empID))
	if excludedID != "" {
		ds = ds.Where(goqu.C("id").Neq(excludedID))
	}

	var count int
	if err := repo.get(ctx, repo.getExec(exec), &count, ds.Prepared(true)); err != nil {
		return errors.Wrap(err, "checking employee id uniqueness")
	}
	if count > 0 {
		return employee.ErrEmployeeIDExists
	}
	return nil
}

func (repo employeeRepository) CreateEmployee(ctx context.Context, emp employee.Employee, exec ...core.DBExecutor) (employee.Employee, error) {
	emp.ID = uuid.New().String()
	ds := repo.builder.Insert(tableEmployees).Rows(employeeRecord(emp)).Prepared(true)
	if _, err := repo.exec(ctx, repo.getExec(exec), ds); err != nil {
		if isUniqueViolation(err) {
			return employee.Employee{}, employee.ErrEmployeeIDExists
		}
		return employee.Employee{}, errors.Wrap(err, "inserting employee")
	}
	return emp, nil
}

func (repo employeeRepository) QueryEmployees(ctx context.Context, filter *employee.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]employee.Employee, error) {
	ds := employeeSelection(repo.builder)

	if filter != nil {
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			ds = ds.Where(goqu.Or(
				goqu.I("e.employee_id").ILike(val),
				goqu.I("u.username").ILike(val),
				goqu.I("u.first_name").ILike(val),
				goqu.I("u.last_name").ILike(val),
			))
		}
		if filter.Department != "" {
			ds = ds.Where(goqu.I("e.department").Eq(filter.Department))
		}
	}
	ds = ds.Order(orderedExpressions(ordering, "e")...)

	var rows []employeeRow
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, ds.Prepared(true)); err != nil {
		return nil, errors.Wrap(err, "querying employees")
	}
	emps := make([]employee.Employee, 0, len(rows))
	for _, r := range rows {
		emps = append(emps, r.employee())
	}
	return emps, nil
}

func (repo employeeRepository) GetEmployee(ctx context.Context, filter employee.GetFilter, exec ...core.DBExecutor) (employee.Employee, error) {
	ds := employeeSelection(repo.builder)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return employee.Employee{}, employee.ErrNotFound
		}
		ds = ds.Where(goqu.I("e.id").Eq(filter.ID))
	case filter.UserID != "":
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return employee.Employee{}, employee.ErrNotFound
		}
		ds = ds.Where(goqu.I("e.user_id").Eq(filter.UserID))
	case filter.EmployeeID != "":
		ds = ds.Where(goqu.I("e.employee_id").Eq(filter.EmployeeID))
	default:
		return employee.Employee{}, employee.ErrNotFound
	}

	var row employeeRow
	if err := repo.get(ctx, repo.getExec(exec), &row, ds.Limit(1).Prepared(true)); err != nil {
		return employee.Employee{}, repo.trapNoRowsErr(err, "getting employee")
	}
	return row.employee(), nil
}

func (repo employeeRepository) UpdateEmployee(ctx context.Context, emp employee.Employee, exec ...core.DBExecutor) (employee.Employee, error) {
	rec := employeeRecord(emp)
	delete(rec, "id")
	delete(rec, "user_id")
	delete(rec, "created_at")
	ds := repo.builder.Update(tableEmployees).Set(rec).Where(goqu.C("id").Eq(emp.ID)).Prepared(true)

	res, err := repo.exec(ctx, repo.getExec(exec), ds)
	if err != nil {
		if isUniqueViolation(err) {
			return employee.Employee{}, employee.ErrEmployeeIDExists
		}
		return employee.Employee{}, errors.Wrap(err, "updating employee")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return employee.Employee{}, employee.ErrNotFound
	}
	return emp, nil
}
