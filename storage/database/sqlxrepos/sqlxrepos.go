// Package sqlxrepos implements the domain repositories over sqlx for postgres and sqlite.
// Queries are built with goqu using the dialect of the connection.
package sqlxrepos

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/doug-martin/goqu/v9"
	_ "github.com/doug-martin/goqu/v9/dialect/postgres" // dialect import
	_ "github.com/doug-martin/goqu/v9/dialect/sqlite3"  // dialect import
	"github.com/doug-martin/goqu/v9/exp"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/pkg/errors"
	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/storage/database"
)

const (
	tableUsers       = "users"
	tableEmployees   = "employees"
	tableAttendances = "attendances"

	// fixed width, so that text columns sort chronologically
	timeLayout = "2006-01-02T15:04:05.000000Z07:00"
)

// base holds what every repository needs: a connection and its query builder.
type base struct {
	db      core.DB
	builder goqu.DialectWrapper
}

func newBase(db *sqlx.DB) base {
	dialect := db.DriverName()
	if dialect == database.EngineSqlite {
		dialect = "sqlite3"
	}
	return base{db: db, builder: goqu.Dialect(dialect)}
}

func (b base) getExec(svcExec []core.DBExecutor) core.DBExecutor {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return svcExec[0]
	}
	return b.db
}

// withinTx reuses the caller's executor when provided, otherwise runs fn in a new transaction.
func (b base) withinTx(ctx context.Context, svcExec []core.DBExecutor, fn func(exec core.DBExecutor) error) error {
	if len(svcExec) > 0 && svcExec[0] != nil {
		return fn(svcExec[0])
	}
	return database.WithinTx(ctx, b.db, fn)
}

type sqlBuilder interface {
	ToSQL() (string, []interface{}, error)
}

func (b base) get(ctx context.Context, exec core.DBExecutor, dest interface{}, ds sqlBuilder) error {
	q, args, err := ds.ToSQL()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.GetContext(ctx, exec, dest, q, args...)
}

func (b base) selectAll(ctx context.Context, exec core.DBExecutor, dest interface{}, ds sqlBuilder) error {
	q, args, err := ds.ToSQL()
	if err != nil {
		return errors.Wrap(err, "building query")
	}
	return sqlx.SelectContext(ctx, exec, dest, q, args...)
}

func (b base) exec(ctx context.Context, exec core.DBExecutor, ds sqlBuilder) (sql.Result, error) {
	q, args, err := ds.ToSQL()
	if err != nil {
		return nil, errors.Wrap(err, "building query")
	}
	return exec.ExecContext(ctx, q, args...)
}

func orderedExpressions(ordering []core.DBOrdering, table string) []exp.OrderedExpression {
	exprs := make([]exp.OrderedExpression, 0, len(ordering))
	for _, ord := range ordering {
		col := goqu.T(table).Col(ord.Field)
		if ord.Ascending {
			exprs = append(exprs, col.Asc())
		} else {
			exprs = append(exprs, col.Desc())
		}
	}
	return exprs
}

// isUniqueViolation reports whether err was caused by a unique constraint of either engine.
func isUniqueViolation(err error) bool {
	switch e := errors.Cause(err).(type) {
	case *pq.Error:
		return e.Code == "23505"
	case *sqlite.Error:
		return e.Code() == sqlite3.SQLITE_CONSTRAINT_UNIQUE || e.Code() == sqlite3.SQLITE_CONSTRAINT_PRIMARYKEY
	}
	return false
}

// args: postgres accepts the text forms of its temporal types, sqlite stores them as text.

func timeArg(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func nullTimeArg(t *time.Time) interface{} {
	if t == nil || t.IsZero() {
		return nil
	}
	return timeArg(*t)
}

func clockArg(tod *core.TimeOfDay) interface{} {
	if tod == nil {
		return nil
	}
	return tod.String()
}

func nullStringArg(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func floatArg(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

// scanners: postgres returns temporal columns as time.Time, sqlite as text.

type dbTime struct {
	Time  time.Time
	Valid bool
}

func (t *dbTime) Scan(src interface{}) error {
	*t = dbTime{}
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		t.Time, t.Valid = v.UTC(), true
		return nil
	case []byte:
		return t.parse(string(v))
	case string:
		return t.parse(v)
	}
	return fmt.Errorf("cannot scan %T into a timestamp", src)
}

func (t *dbTime) parse(s string) error {
	parsed, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return err
	}
	t.Time, t.Valid = parsed.UTC(), true
	return nil
}

func (t dbTime) Ptr() *time.Time {
	if !t.Valid {
		return nil
	}
	tm := t.Time
	return &tm
}

type dbDate struct {
	Date core.Date
}

func (d *dbDate) Scan(src interface{}) error {
	switch v := src.(type) {
	case time.Time:
		d.Date = core.DateOf(v)
		return nil
	case []byte:
		return d.parse(string(v))
	case string:
		return d.parse(v)
	}
	return fmt.Errorf("cannot scan %T into a date", src)
}

func (d *dbDate) parse(s string) (err error) {
	d.Date, err = core.ParseDate(s)
	return err
}

type dbClock struct {
	Clock *core.TimeOfDay
}

func (c *dbClock) Scan(src interface{}) error {
	c.Clock = nil
	switch v := src.(type) {
	case nil:
		return nil
	case time.Time:
		tod := core.ClockOf(v)
		c.Clock = &tod
		return nil
	case []byte:
		return c.parse(string(v))
	case string:
		return c.parse(v)
	}
	return fmt.Errorf("cannot scan %T into a time of day", src)
}

func (c *dbClock) parse(s string) error {
	tod, err := core.ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	c.Clock = &tod
	return nil
}
