package employee

import (
	"context"
	"net/mail"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/user"
)

var (
	// errors
	ErrNotFound         = errors.New("Employee profile not found")
	ErrEmployeeIDExists = errors.New("an employee with this employee id already exists")
	ErrProfileExists    = errors.New("this user already has an employee profile")
)

type (
	Repository interface {
		// CheckEmployeeID returns ErrEmployeeIDExists when empID is used by an employee other than excludedID.
		CheckEmployeeID(ctx context.Context, empID, excludedID string, exec ...core.DBExecutor) error
		CreateEmployee(ctx context.Context, emp Employee, exec ...core.DBExecutor) (Employee, error)
		// QueryEmployees applies AND operation on available QueryFilter fields.
		// QueryFilter.Search does a case-insensitive match on the employee id or the user's names.
		QueryEmployees(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]Employee, error)
		GetEmployee(ctx context.Context, filter GetFilter, exec ...core.DBExecutor) (Employee, error)
		UpdateEmployee(ctx context.Context, emp Employee, exec ...core.DBExecutor) (Employee, error)
	}

	Service struct {
		repo    Repository
		usrSvc  *user.Service
		tx      core.Transactor
		mailSvc core.EmailService
		nowFunc func() time.Time
	}
)

func NewService(repo Repository, usrSvc *user.Service, tx core.Transactor, mailSvc core.EmailService) *Service {
	return &Service{
		repo:    repo,
		usrSvc:  usrSvc,
		tx:      tx,
		mailSvc: mailSvc,
		nowFunc: time.Now,
	}
}

func (svc *Service) checkEmployeeID(ctx context.Context, empID, excludedID string, exec ...core.DBExecutor) error {
	if err := svc.repo.CheckEmployeeID(ctx, empID, excludedID, exec...); err != nil {
		if err == ErrEmployeeIDExists {
			return core.NewFieldError("employee_id", err)
		}
		return errors.Wrap(err, "checking employee id uniqueness")
	}
	return nil
}

// Register creates the user and its employee profile in a single transaction,
// then sends a welcome email to users who provided an address.
func (svc *Service) Register(ctx context.Context, reg Registration) (Employee, error) {
	var emp Employee
	err := svc.tx.WithinTx(ctx, func(exec core.DBExecutor) error {
		usr, err := svc.usrSvc.Create(ctx, reg.User, exec)
		if err != nil {
			return errors.Wrap(err, "creating user")
		}
		emp, err = svc.createProfile(ctx, usr, reg.Profile, exec)
		return err
	})
	if err != nil {
		return Employee{}, err
	}
	svc.sendWelcomeEmail(emp)
	return emp, nil
}

// AddProfile attaches an employee profile to an existing user.
func (svc *Service) AddProfile(ctx context.Context, usr user.User, prof Profile) (Employee, error) {
	if _, err := svc.repo.GetEmployee(ctx, GetFilter{UserID: usr.ID}); err == nil {
		return Employee{}, core.NewFieldError("user", ErrProfileExists)
	} else if errors.Cause(err) != ErrNotFound {
		return Employee{}, errors.Wrap(err, "getting employee")
	}
	if err := svc.checkEmployeeID(ctx, prof.EmployeeID, ""); err != nil {
		return Employee{}, err
	}
	return svc.createProfile(ctx, usr, prof)
}

func (svc *Service) createProfile(ctx context.Context, usr user.User, prof Profile, exec ...core.DBExecutor) (Employee, error) {
	emp := Employee{
		UserID:     usr.ID,
		EmployeeID: prof.EmployeeID,
		Phone:      prof.Phone,
		Department: prof.Department,
		Position:   prof.Position,
		CreatedAt:  svc.nowFunc().UTC(),
		User:       usr,
	}
	emp, err := svc.repo.CreateEmployee(ctx, emp, exec...)
	if err != nil {
		return Employee{}, errors.Wrap(err, "creating employee")
	}
	emp.User = usr
	return emp, nil
}

func (svc *Service) sendWelcomeEmail(emp Employee) {
	if emp.User.Email == "" || svc.mailSvc == nil {
		return
	}
	svc.mailSvc.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: emp.User.FullName(), Address: emp.User.Email}},
		Subject:      "Welcome",
		TemplateName: "welcome",
		TemplateData: map[string]string{
			"Name":       emp.User.DisplayName(),
			"Username":   emp.User.Username,
			"EmployeeID": emp.EmployeeID,
		},
	})
}

func (svc *Service) Query(ctx context.Context, filter *QueryFilter, ordering []core.DBOrdering) ([]Employee, error) {
	ordering = core.FilterOrderings(ordering, OrderingFields...)
	if len(ordering) == 0 {
		ordering = []core.DBOrdering{{Field: "employee_id", Ascending: true}}
	}
	return svc.repo.QueryEmployees(ctx, filter, ordering)
}

func (svc *Service) GetByID(ctx context.Context, id string, exec ...core.DBExecutor) (Employee, error) {
	return svc.repo.GetEmployee(ctx, GetFilter{ID: id}, exec...)
}

func (svc *Service) GetByUserID(ctx context.Context, userID string, exec ...core.DBExecutor) (Employee, error) {
	return svc.repo.GetEmployee(ctx, GetFilter{UserID: userID}, exec...)
}

func (svc *Service) GetByEmployeeID(ctx context.Context, empID string) (Employee, error) {
	return svc.repo.GetEmployee(ctx, GetFilter{EmployeeID: core.CleanString(empID)})
}

func (svc *Service) Update(ctx context.Context, emp Employee, ue UpdateEmployee) (Employee, error) {
	if ue.EmployeeID != nil {
		emp.EmployeeID = *ue.EmployeeID
	}
	if ue.Phone != nil {
		emp.Phone = *ue.Phone
	}
	if ue.Department != nil {
		emp.Department = *ue.Department
	}
	if ue.Position != nil {
		emp.Position = *ue.Position
	}
	usr := emp.User
	emp, err := svc.repo.UpdateEmployee(ctx, emp)
	if err != nil {
		return Employee{}, err
	}
	emp.User = usr
	return emp, nil
}
