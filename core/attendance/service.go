package attendance

import (
	"context"
	"fmt"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/employee"
)

var (
	// errors
	ErrNotFound  = errors.New("attendance not found")
	ErrNoCheckIn = errors.New("No check-in recorded for today")
)

type (
	Repository interface {
		// Upsert inserts att unless a record already exists for (att.EmployeeID, att.Date),
		// in which case update is applied to the stored record and saved. Both paths are atomic.
		// It returns the stored record and whether it was created.
		Upsert(ctx context.Context, att Attendance, update func(*Attendance), exec ...core.DBExecutor) (Attendance, bool, error)
		GetAttendance(ctx context.Context, employeeID string, date core.Date, exec ...core.DBExecutor) (Attendance, error)
		UpdateAttendance(ctx context.Context, att Attendance, exec ...core.DBExecutor) (Attendance, error)
		// QueryAttendances applies AND operation on available QueryFilter fields
		// and fills EmployeeName on every record.
		QueryAttendances(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Attendance, error)
	}

	Service struct {
		repo    Repository
		empSvc  *employee.Service
		loc     *time.Location
		nowFunc func() time.Time
	}
)

// NewService returns an attendance Service deciding what "today" is in loc.
func NewService(repo Repository, empSvc *employee.Service, loc *time.Location) *Service {
	if loc == nil {
		loc = time.UTC
	}
	return &Service{repo: repo, empSvc: empSvc, loc: loc, nowFunc: time.Now}
}

func (svc *Service) now() time.Time {
	return svc.nowFunc().In(svc.loc)
}

// Mark creates the record of (ma.Employee, ma.Date) or updates the provided fields of the existing one.
// ma must have been validated.
func (svc *Service) Mark(ctx context.Context, ma MarkAttendance) (Attendance, bool, error) {
	emp, err := svc.empSvc.GetByID(ctx, ma.Employee)
	if err != nil {
		if errors.Cause(err) == employee.ErrNotFound {
			return Attendance{}, false, core.NewFieldError(
				"employee", fmt.Errorf("Invalid pk %q - object does not exist.", ma.Employee))
		}
		return Attendance{}, false, errors.Wrap(err, "getting employee")
	}

	now := svc.nowFunc().UTC()
	att := Attendance{
		EmployeeID:   emp.ID,
		EmployeeName: emp.User.FullName(),
		Date:         ma.ParsedDate(),
		Status:       StatusPresent,
		CheckInTime:  ma.checkInTime,
		Latitude:     ma.Latitude,
		Longitude:    ma.Longitude,
		CreatedAt:    now,
		UpdatedAt:    now,
	}
	if ma.Status != nil {
		att.Status = Status(*ma.Status)
	}

	att, created, err := svc.repo.Upsert(ctx, att, func(stored *Attendance) {
		if ma.Status != nil {
			stored.Status = Status(*ma.Status)
		}
		if ma.Provided("check_in_time") {
			stored.CheckInTime = ma.checkInTime
		}
		if ma.Provided("latitude") {
			stored.Latitude = ma.Latitude
		}
		if ma.Provided("longitude") {
			stored.Longitude = ma.Longitude
		}
		stored.UpdatedAt = now
	})
	if err != nil {
		return Attendance{}, false, errors.Wrap(err, "upserting attendance")
	}
	att.EmployeeName = emp.User.FullName()
	return att, created, nil
}

// CheckIn marks today's attendance of the user's employee profile at the current time.
// An existing record gets its check-in time and location overwritten.
func (svc *Service) CheckIn(ctx context.Context, userID string, loc Location) (Attendance, bool, error) {
	emp, err := svc.empSvc.GetByUserID(ctx, userID)
	if err != nil {
		return Attendance{}, false, err
	}

	now := svc.now()
	clock := core.ClockOf(now)
	att := Attendance{
		EmployeeID:   emp.ID,
		EmployeeName: emp.User.FullName(),
		Date:         core.DateOf(now),
		Status:       StatusPresent,
		CheckInTime:  &clock,
		Latitude:     loc.Latitude,
		Longitude:    loc.Longitude,
		CreatedAt:    now.UTC(),
		UpdatedAt:    now.UTC(),
	}

	att, created, err := svc.repo.Upsert(ctx, att, func(stored *Attendance) {
		stored.CheckInTime = &clock
		stored.Latitude = loc.Latitude
		stored.Longitude = loc.Longitude
		stored.UpdatedAt = now.UTC()
	})
	if err != nil {
		return Attendance{}, false, errors.Wrap(err, "checking in")
	}
	att.EmployeeName = emp.User.FullName()
	return att, created, nil
}

// CheckOut sets the check-out time of today's attendance of the user's employee profile.
func (svc *Service) CheckOut(ctx context.Context, userID string) (Attendance, error) {
	emp, err := svc.empSvc.GetByUserID(ctx, userID)
	if err != nil {
		return Attendance{}, err
	}

	now := svc.now()
	att, err := svc.repo.GetAttendance(ctx, emp.ID, core.DateOf(now))
	if err != nil {
		if errors.Cause(err) == ErrNotFound {
			return Attendance{}, ErrNoCheckIn
		}
		return Attendance{}, errors.Wrap(err, "getting attendance")
	}

	clock := core.ClockOf(now)
	att.CheckOutTime = &clock
	att.UpdatedAt = now.UTC()
	if att, err = svc.repo.UpdateAttendance(ctx, att); err != nil {
		return Attendance{}, errors.Wrap(err, "checking out")
	}
	att.EmployeeName = emp.User.FullName()
	return att, nil
}

func (svc *Service) Query(ctx context.Context, filter QueryFilter, ordering []core.DBOrdering) ([]Attendance, error) {
	ordering = core.FilterOrderings(ordering, OrderingFields...)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "date", Ascending: false}, {Field: "created_at", Ascending: false}}
	}
	return svc.repo.QueryAttendances(ctx, filter, ordering)
}

// Summary returns the user's own attendances, most recent first.
func (svc *Service) Summary(ctx context.Context, userID string) ([]Attendance, error) {
	return svc.repo.QueryAttendances(ctx, QueryFilter{UserID: userID}, []core.DBOrdering{{Field: "date", Ascending: false}})
}
