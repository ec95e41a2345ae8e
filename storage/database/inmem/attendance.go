package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/attendance"
)

type attendanceRepository struct {
	db *DB
}

var _ attendance.Repository = (*attendanceRepository)(nil) // interface compliance check

func NewAttendanceRepository(db *DB) *attendanceRepository {
	return &attendanceRepository{db: db}
}

// withName returns a copy of att with the full name of its employee.
func (repo *attendanceRepository) withName(att *attendance.Attendance) attendance.Attendance {
	a := *att
	if emp, ok := repo.db.employees[a.EmployeeID]; ok {
		usr := repo.db.usersCopy(emp.UserID)
		a.EmployeeName = usr.FullName()
	}
	return a
}

func (repo *attendanceRepository) find(employeeID string, date core.Date) (*attendance.Attendance, bool) {
	for _, att := range repo.db.attendances {
		if att.EmployeeID == employeeID && att.Date.Equal(date) {
			return att, true
		}
	}
	return nil, false
}

func (repo *attendanceRepository) Upsert(_ context.Context, att attendance.Attendance, update func(*attendance.Attendance), _ ...core.DBExecutor) (attendance.Attendance, bool, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if stored, ok := repo.find(att.EmployeeID, att.Date); ok {
		updated := *stored
		update(&updated)
		repo.db.attendances[updated.ID] = &updated
		return repo.withName(&updated), false, nil
	}

	att.ID = uuid.New().String()
	repo.db.attendances[att.ID] = &att
	return repo.withName(&att), true, nil
}

func (repo *attendanceRepository) GetAttendance(_ context.Context, employeeID string, date core.Date, _ ...core.DBExecutor) (attendance.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if att, ok := repo.find(employeeID, date); ok {
		return repo.withName(att), nil
	}
	return attendance.Attendance{}, attendance.ErrNotFound
}

func (repo *attendanceRepository) UpdateAttendance(_ context.Context, att attendance.Attendance, _ ...core.DBExecutor) (attendance.Attendance, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.attendances[att.ID]
	if !ok {
		return attendance.Attendance{}, attendance.ErrNotFound
	}
	att.EmployeeID = orig.EmployeeID
	att.Date = orig.Date
	att.CreatedAt = orig.CreatedAt
	repo.db.attendances[att.ID] = &att
	return repo.withName(&att), nil
}

func compareClocks(a, b *core.TimeOfDay) int {
	switch {
	case a == nil && b == nil:
		return 0
	case a == nil:
		return -1
	case b == nil:
		return 1
	}
	return compareStrings(a.String(), b.String())
}

func compareAttendances(a, b attendance.Attendance, field string) int {
	switch field {
	case "date":
		return a.Date.Compare(b.Date)
	case "status":
		return compareStrings(string(a.Status), string(b.Status))
	case "check_in_time":
		return compareClocks(a.CheckInTime, b.CheckInTime)
	case "check_out_time":
		return compareClocks(a.CheckOutTime, b.CheckOutTime)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func (repo *attendanceRepository) QueryAttendances(_ context.Context, filter attendance.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]attendance.Attendance, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	atts := make([]attendance.Attendance, 0, len(repo.db.attendances))
	for _, att := range repo.db.attendances {
		switch {
		case filter.Date != nil && !att.Date.Equal(*filter.Date),
			filter.DateFrom != nil && att.Date.Before(*filter.DateFrom),
			filter.DateTo != nil && att.Date.After(*filter.DateTo),
			filter.EmployeeID != "" && att.EmployeeID != filter.EmployeeID,
			filter.Status != "" && att.Status != filter.Status:
			continue
		}
		if filter.UserID != "" {
			emp, ok := repo.db.employees[att.EmployeeID]
			if !ok || emp.UserID != filter.UserID {
				continue
			}
		}
		atts = append(atts, repo.withName(att))
	}
	orderBy(atts, ordering, compareAttendances)
	return atts, nil
}
