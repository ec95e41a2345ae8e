package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"github.com/volatiletech/null/v8"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/attendance"
	"github.com/trezcool/teas/core/user"
)

type attendanceRow struct {
	ID           string       `db:"id"`
	EmployeeID   string       `db:"employee_id"`
	FirstName    null.String  `db:"first_name"`
	LastName     null.String  `db:"last_name"`
	Date         dbDate       `db:"date"`
	Status       string       `db:"status"`
	CheckInTime  dbClock      `db:"check_in_time"`
	CheckOutTime dbClock      `db:"check_out_time"`
	Latitude     null.Float64 `db:"latitude"`
	Longitude    null.Float64 `db:"longitude"`
	CreatedAt    dbTime       `db:"created_at"`
	UpdatedAt    dbTime       `db:"updated_at"`
}

func (r attendanceRow) attendance() attendance.Attendance {
	usr := user.User{FirstName: r.FirstName.String, LastName: r.LastName.String}
	return attendance.Attendance{
		ID:           r.ID,
		EmployeeID:   r.EmployeeID,
		EmployeeName: usr.FullName(),
		Date:         r.Date.Date,
		Status:       attendance.Status(r.Status),
		CheckInTime:  r.CheckInTime.Clock,
		CheckOutTime: r.CheckOutTime.Clock,
		Latitude:     r.Latitude.Ptr(),
		Longitude:    r.Longitude.Ptr(),
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
	}
}

func attendanceRecord(att attendance.Attendance) goqu.Record {
	return goqu.Record{
		"id":             att.ID,
		"employee_id":    att.EmployeeID,
		"date":           att.Date.String(),
		"status":         string(att.Status),
		"check_in_time":  clockArg(att.CheckInTime),
		"check_out_time": clockArg(att.CheckOutTime),
		"latitude":       floatArg(att.Latitude),
		"longitude":      floatArg(att.Longitude),
		"created_at":     timeArg(att.CreatedAt),
		"updated_at":     timeArg(att.UpdatedAt),
	}
}

// attendanceSelection selects attendances with the names of their employee.
func attendanceSelection(builder goqu.DialectWrapper) *goqu.SelectDataset {
	a, e, u := goqu.T(tableAttendances).As("a"), goqu.T(tableEmployees).As("e"), goqu.T(tableUsers).As("u")
	return builder.From(a).
		InnerJoin(e, goqu.On(a.Col("employee_id").Eq(e.Col("id")))).
		InnerJoin(u, goqu.On(e.Col("user_id").Eq(u.Col("id")))).
		Select(
			a.Col("id"), a.Col("employee_id"), u.Col("first_name"), u.Col("last_name"),
			a.Col("date"), a.Col("status"), a.Col("check_in_time"), a.Col("check_out_time"),
			a.Col("latitude"), a.Col("longitude"), a.Col("created_at"), a.Col("updated_at"),
		)
}

type attendanceRepository struct {
	base
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *sqlx.DB) *attendanceRepository {
	return &attendanceRepository{base: newBase(db)}
}

// trapNoRowsErr maps "no rows" err to attendance.ErrNotFound
func (repo attendanceRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return attendance.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo attendanceRepository) get(ctx context.Context, exec core.DBExecutor, employeeID string, date core.Date, forUpdate bool) (attendance.Attendance, error) {
	if _, err := uuid.Parse(employeeID); err != nil {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	ds := attendanceSelection(repo.builder).
		Where(goqu.I("a.employee_id").Eq(employeeID), goqu.I("a.date").Eq(date.String())).
		Limit(1)
	if forUpdate {
		ds = ds.ForUpdate(exp.Wait, goqu.T("a"))
	}

	var row attendanceRow
	if err := repo.base.get(ctx, exec, &row, ds.Prepared(true)); err != nil {
		return attendance.Attendance{}, repo.trapNoRowsErr(err, "getting attendance")
	}
	return row.attendance(), nil
}

func (repo attendanceRepository) Upsert(ctx context.Context, att attendance.Attendance, update func(*attendance.Attendance), exec ...core.DBExecutor) (attendance.Attendance, bool, error) {
	var created bool
	err := repo.withinTx(ctx, exec, func(tx core.DBExecutor) error {
		att.ID = uuid.New().String()
		ins := repo.builder.Insert(tableAttendances).
			Rows(attendanceRecord(att)).
			OnConflict(goqu.DoNothing()).
			Prepared(true)
		res, err := repo.exec(ctx, tx, ins)
		if err != nil {
			return errors.Wrap(err, "inserting attendance")
		}
		n, err := res.RowsAffected()
		if err != nil {
			return errors.Wrap(err, "inserting attendance")
		}
		if n == 1 {
			created = true
			return nil
		}

		// (employee, date) already taken
		stored, err := repo.get(ctx, tx, att.EmployeeID, att.Date, true)
		if err != nil {
			return err
		}
		update(&stored)
		att, err = repo.UpdateAttendance(ctx, stored, tx)
		return err
	})
	if err != nil {
		return attendance.Attendance{}, false, err
	}
	return att, created, nil
}

func (repo attendanceRepository) GetAttendance(ctx context.Context, employeeID string, date core.Date, exec ...core.DBExecutor) (attendance.Attendance, error) {
	return repo.get(ctx, repo.getExec(exec), employeeID, date, false)
}

func (repo attendanceRepository) UpdateAttendance(ctx context.Context, att attendance.Attendance, exec ...core.DBExecutor) (attendance.Attendance, error) {
	rec := attendanceRecord(att)
	for _, col := range []string{"id", "employee_id", "date", "created_at"} {
		delete(rec, col)
	}
	ds := repo.builder.Update(tableAttendances).Set(rec).Where(goqu.C("id").Eq(att.ID)).Prepared(true)

	res, err := repo.exec(ctx, repo.getExec(exec), ds)
	if err != nil {
		return attendance.Attendance{}, errors.Wrap(err, "updating attendance")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	return att, nil
}

func (repo attendanceRepository) QueryAttendances(ctx context.Context, filter attendance.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]attendance.Attendance, error) {
	ds := attendanceSelection(repo.builder)

	if filter.Date != nil {
		ds = ds.Where(goqu.I("a.date").Eq(filter.Date.String()))
	}
	if filter.DateFrom != nil {
		ds = ds.Where(goqu.I("a.date").Gte(filter.DateFrom.String()))
	}
	if filter.DateTo != nil {
		ds = ds.Where(goqu.I("a.date").Lte(filter.DateTo.String()))
	}
	if filter.EmployeeID != "" {
		if _, err := uuid.Parse(filter.EmployeeID); err != nil {
			return []attendance.Attendance{}, nil
		}
		ds = ds.Where(goqu.I("a.employee_id").Eq(filter.EmployeeID))
	}
	if filter.UserID != "" {
		if _, err := uuid.Parse(filter.UserID); err != nil {
			return []attendance.Attendance{}, nil
		}
		ds = ds.Where(goqu.I("e.user_id").Eq(filter.UserID))
	}
	if filter.Status != "" {
		ds = ds.Where(goqu.I("a.status").Eq(string(filter.Status)))
	}
	ds = ds.Order(orderedExpressions(ordering, "a")...)

	var rows []attendanceRow
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, ds.Prepared(true)); err != nil {
		return nil, errors.Wrap(err, "querying attendances")
	}
	atts := make([]attendance.Attendance, 0, len(rows))
	for _, r := range rows {
		atts = append(atts, r.attendance())
	}
	return atts, nil
}
