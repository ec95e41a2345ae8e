package employee

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/user"
)

// Employee is the attendance profile of a User.
type Employee struct {
	ID         string    `json:"id"`
	UserID     string    `json:"-"`
	EmployeeID string    `json:"employee_id"`
	Phone      string    `json:"phone"`
	Department string    `json:"department"`
	Position   string    `json:"position"`
	CreatedAt  time.Time `json:"created_at"`
	User       user.User `json:"user"`
}

func (e Employee) String() string {
	return fmt.Sprintf("%s (%s)", e.User.FullName(), e.EmployeeID)
}

// Profile holds the fields of an Employee which are not part of its User.
type Profile struct {
	EmployeeID string `json:"employee_id" validate:"required,max=20"`
	Phone      string `json:"phone" validate:"max=15"`
	Department string `json:"department" validate:"max=100"`
	Position   string `json:"position" validate:"max=100"`
}

func (p *Profile) Clean() {
	p.EmployeeID = core.CleanString(p.EmployeeID)
	p.Phone = core.CleanString(p.Phone)
	p.Department = core.CleanString(p.Department)
	p.Position = core.CleanString(p.Position)
}

// Registration creates a User together with its Employee profile.
type Registration struct {
	User    user.NewUser
	Profile Profile
}

// RegisterRequest is the flat payload used for self registration.
type RegisterRequest struct {
	Username   string `json:"username"`
	FirstName  string `json:"first_name"`
	LastName   string `json:"last_name"`
	Email      string `json:"email"`
	Password   string `json:"password"`
	EmployeeID string `json:"employee_id"`
}

func (rr RegisterRequest) Registration() Registration {
	return Registration{
		User: user.NewUser{
			Username:  rr.Username,
			FirstName: rr.FirstName,
			LastName:  rr.LastName,
			Email:     rr.Email,
			Password:  rr.Password,
		},
		Profile: Profile{EmployeeID: rr.EmployeeID},
	}
}

// NewEmployee is the nested payload used by admins to create an employee.
type NewEmployee struct {
	User       user.NewUser `json:"user"`
	EmployeeID string       `json:"employee_id"`
	Phone      string       `json:"phone"`
	Department string       `json:"department"`
	Position   string       `json:"position"`
}

func (ne NewEmployee) Registration() Registration {
	return Registration{
		User: ne.User,
		Profile: Profile{
			EmployeeID: ne.EmployeeID,
			Phone:      ne.Phone,
			Department: ne.Department,
			Position:   ne.Position,
		},
	}
}

// Validate validates the user part first, then the profile, then checks uniqueness.
func (reg *Registration) Validate(ctx context.Context, validate *validator.Validate, svc *Service) error {
	reg.User.Clean()
	reg.Profile.Clean()

	if err := validate.Struct(&reg.User); err != nil {
		return err
	}
	if err := validate.Struct(&reg.Profile); err != nil {
		return err
	}
	if err := svc.usrSvc.CheckUniqueness(ctx, reg.User.Username, reg.User.Email, nil); err != nil {
		return err
	}
	return svc.checkEmployeeID(ctx, reg.Profile.EmployeeID, "")
}

// UpdateEmployee defines what information may be provided to modify an existing Employee.
type UpdateEmployee struct {
	EmployeeID *string `json:"employee_id" validate:"omitempty,max=20"`
	Phone      *string `json:"phone" validate:"omitempty,max=15"`
	Department *string `json:"department" validate:"omitempty,max=100"`
	Position   *string `json:"position" validate:"omitempty,max=100"`
}

func (ue *UpdateEmployee) Validate(ctx context.Context, orig Employee, validate *validator.Validate, svc *Service) error {
	for _, fld := range []*string{ue.EmployeeID, ue.Phone, ue.Department, ue.Position} {
		if fld != nil {
			*fld = core.CleanString(*fld)
		}
	}
	if err := validate.Struct(ue); err != nil {
		return err
	}
	if ue.EmployeeID != nil {
		if *ue.EmployeeID == "" {
			return core.NewValidationError(nil, core.FieldError{Field: "employee_id", Error: "this field cannot be blank"})
		}
		return svc.checkEmployeeID(ctx, *ue.EmployeeID, orig.ID)
	}
	return nil
}

type GetFilter struct {
	ID         string
	UserID     string
	EmployeeID string
}

type QueryFilter struct {
	Search     string `query:"search"`
	Department string `query:"department"`
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
	qf.Department = core.CleanString(qf.Department)
}

// OrderingFields are the fields employees can be ordered by.
var OrderingFields = []string{"employee_id", "department", "position", "created_at"}
