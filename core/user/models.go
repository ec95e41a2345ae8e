package user

import (
	"context"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"golang.org/x/crypto/bcrypt"

	"github.com/trezcool/teas/core"
)

type User struct {
	ID           string     `json:"id"`
	Username     string     `json:"username"`
	FirstName    string     `json:"first_name"`
	LastName     string     `json:"last_name"`
	Email        string     `json:"email"`
	IsActive     bool       `json:"is_active"`
	IsAdmin      bool       `json:"is_admin"`
	PasswordHash []byte     `json:"-"`
	CreatedAt    time.Time  `json:"created_at"`           // UTC
	UpdatedAt    time.Time  `json:"-"`                    // UTC
	LastLogin    *time.Time `json:"last_login,omitempty"` // UTC
}

func (u *User) SetPassword(pwd string) error {
	hash, err := bcrypt.GenerateFromPassword([]byte(pwd), bcrypt.DefaultCost)
	if err != nil {
		return err
	}
	u.PasswordHash = hash
	return nil
}

func (u *User) CheckPassword(pwd string) error {
	return bcrypt.CompareHashAndPassword(u.PasswordHash, []byte(pwd))
}

// FullName returns the first and last names separated by a space.
func (u User) FullName() string {
	return strings.TrimSpace(u.FirstName + " " + u.LastName)
}

// DisplayName is the full name, or the username when no name is set.
func (u User) DisplayName() string {
	if name := u.FullName(); name != "" {
		return name
	}
	return u.Username
}

func (u User) Person() core.Person {
	return core.Person{ID: u.ID, Username: u.Username, Email: u.Email}
}

// NewUser contains information needed to create a new User.
type NewUser struct {
	Username  string `json:"username" validate:"required,max=150,username"`
	FirstName string `json:"first_name" validate:"max=150"`
	LastName  string `json:"last_name" validate:"max=150"`
	Email     string `json:"email" validate:"omitempty,max=254,email"`
	Password  string `json:"password" validate:"required"`
	IsAdmin   bool   `json:"-"`
}

func (nu *NewUser) Clean() {
	nu.Username = core.CleanString(nu.Username, true /* lower */)
	nu.FirstName = core.CleanString(nu.FirstName)
	nu.LastName = core.CleanString(nu.LastName)
	nu.Email = core.CleanString(nu.Email, true /* lower */)
}

func (nu *NewUser) Validate(ctx context.Context, validate *validator.Validate, svc *Service, exec ...core.DBExecutor) error {
	nu.Clean()
	if err := validate.Struct(nu); err != nil {
		return err
	}
	return svc.CheckUniqueness(ctx, nu.Username, nu.Email, nil, exec...)
}

// UpdateUser defines what information may be provided to modify an existing User.
type UpdateUser struct {
	FirstName *string `json:"first_name" validate:"omitempty,max=150"`
	LastName  *string `json:"last_name" validate:"omitempty,max=150"`
	Email     *string `json:"email" validate:"omitempty,max=254,email"`
	IsActive  *bool   `json:"is_active"`
	IsAdmin   *bool   `json:"is_admin"`
}

func (uu *UpdateUser) Validate(ctx context.Context, origUsr User, validate *validator.Validate, svc *Service) error {
	if uu.FirstName != nil {
		*uu.FirstName = core.CleanString(*uu.FirstName)
	}
	if uu.LastName != nil {
		*uu.LastName = core.CleanString(*uu.LastName)
	}
	if uu.Email != nil {
		*uu.Email = core.CleanString(*uu.Email, true /* lower */)
	}
	if err := validate.Struct(uu); err != nil {
		return err
	}
	if uu.Email != nil && *uu.Email != "" && *uu.Email != origUsr.Email {
		return svc.CheckUniqueness(ctx, "", *uu.Email, []User{origUsr})
	}
	return nil
}

type GetFilter struct {
	ID              string
	Username        string
	Email           string
	UsernameOrEmail string
}

type QueryFilter struct {
	Search   string `query:"search"`
	IsActive *bool  `query:"is_active"`
	IsAdmin  *bool  `query:"is_admin"`
}

func (qf *QueryFilter) IsEmpty() bool {
	return qf.Search == "" && qf.IsActive == nil && qf.IsAdmin == nil
}

func (qf *QueryFilter) Clean() {
	qf.Search = core.CleanString(qf.Search)
}

// OrderingFields are the fields users can be ordered by.
var OrderingFields = []string{"username", "first_name", "last_name", "email", "created_at", "last_login"}
