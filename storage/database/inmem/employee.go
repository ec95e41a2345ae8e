package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/employee"
)

type employeeRepository struct {
	db *DB
}

var _ employee.Repository = (*employeeRepository)(nil) // interface compliance check

func NewEmployeeRepository(db *DB) *employeeRepository {
	return &employeeRepository{db: db}
}

// withUser returns a copy of emp joined with its user.
func (repo *employeeRepository) withUser(emp *employee.Employee) employee.Employee {
	e := *emp
	if usr, ok := repo.db.users[e.UserID]; ok {
		e.User = *usr
	}
	return e
}

func (repo *employeeRepository) checkEmployeeID(empID, excludedID string) error {
	for _, emp := range repo.db.employees {
		if emp.EmployeeID == empID && emp.ID != excludedID {
			return employee.ErrEmployeeIDExists
		}
	}
	return nil
}

func (repo *employeeRepository) CheckEmployeeID(_ context.Context, empID, excludedID string, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.checkEmployeeID(empID, excludedID)
}

func (repo *employeeRepository) CreateEmployee(_ context.Context, emp employee.Employee, _ ...core.DBExecutor) (employee.Employee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkEmployeeID(emp.EmployeeID, ""); err != nil {
		return employee.Employee{}, err
	}
	for _, e := range repo.db.employees {
		if e.UserID == emp.UserID {
			return employee.Employee{}, employee.ErrProfileExists
		}
	}
	emp.ID = uuid.New().String()
	emp.User = repo.db.usersCopy(emp.UserID)
	repo.db.employees[emp.ID] = &emp
	return emp, nil
}

func compareEmployees(a, b employee.Employee, field string) int {
	switch field {
	case "employee_id":
		return compareStrings(a.EmployeeID, b.EmployeeID)
	case "department":
		return compareStrings(a.Department, b.Department)
	case "position":
		return compareStrings(a.Position, b.Position)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	}
	return 0
}

func (repo *employeeRepository) QueryEmployees(_ context.Context, filter *employee.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]employee.Employee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	emps := make([]employee.Employee, 0, len(repo.db.employees))
	for _, e := range repo.db.employees {
		emp := repo.withUser(e)
		if filter != nil {
			if filter.Search != "" && !(contains(emp.EmployeeID, filter.Search) || contains(emp.User.Username, filter.Search) ||
				contains(emp.User.FirstName, filter.Search) || contains(emp.User.LastName, filter.Search)) {
				continue
			}
			if filter.Department != "" && emp.Department != filter.Department {
				continue
			}
		}
		emps = append(emps, emp)
	}
	orderBy(emps, ordering, compareEmployees)
	return emps, nil
}

func (repo *employeeRepository) GetEmployee(_ context.Context, filter employee.GetFilter, _ ...core.DBExecutor) (employee.Employee, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if emp, ok := repo.db.employees[filter.ID]; ok {
			return repo.withUser(emp), nil
		}
		return employee.Employee{}, employee.ErrNotFound
	}
	for _, emp := range repo.db.employees {
		switch {
		case filter.UserID != "" && emp.UserID == filter.UserID,
			filter.EmployeeID != "" && emp.EmployeeID == filter.EmployeeID:
			return repo.withUser(emp), nil
		}
	}
	return employee.Employee{}, employee.ErrNotFound
}

func (repo *employeeRepository) UpdateEmployee(_ context.Context, emp employee.Employee, _ ...core.DBExecutor) (employee.Employee, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	orig, ok := repo.db.employees[emp.ID]
	if !ok {
		return employee.Employee{}, employee.ErrNotFound
	}
	if err := repo.checkEmployeeID(emp.EmployeeID, emp.ID); err != nil {
		return employee.Employee{}, err
	}
	emp.UserID = orig.UserID
	emp.CreatedAt = orig.CreatedAt
	repo.db.employees[emp.ID] = &emp
	return repo.withUser(&emp), nil
}
