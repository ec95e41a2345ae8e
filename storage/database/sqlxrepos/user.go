package sqlxrepos

import (
	"context"
	"database/sql"

	"github.com/doug-martin/goqu/v9"
	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/user"
)

var userColumns = []interface{}{
	"id", "username", "first_name", "last_name", "email", "is_active", "is_admin",
	"password_hash", "created_at", "updated_at", "last_login",
}

type userRow struct {
	ID           string `db:"id"`
	Username     string `db:"username"`
	FirstName    string `db:"first_name"`
	LastName     string `db:"last_name"`
	Email        string `db:"email"`
	IsActive     bool   `db:"is_active"`
	IsAdmin      bool   `db:"is_admin"`
	PasswordHash []byte `db:"password_hash"`
	CreatedAt    dbTime `db:"created_at"`
	UpdatedAt    dbTime `db:"updated_at"`
	LastLogin    dbTime `db:"last_login"`
}

func (r userRow) user() user.User {
	return user.User{
		ID:           r.ID,
		Username:     r.Username,
		FirstName:    r.FirstName,
		LastName:     r.LastName,
		Email:        r.Email,
		IsActive:     r.IsActive,
		IsAdmin:      r.IsAdmin,
		PasswordHash: r.PasswordHash,
		CreatedAt:    r.CreatedAt.Time,
		UpdatedAt:    r.UpdatedAt.Time,
		LastLogin:    r.LastLogin.Ptr(),
	}
}

// unusablePassword is stored for users created without a password; it never matches a bcrypt hash.
var unusablePassword = []byte("!")

func passwordHashArg(hash []byte) []byte {
	if len(hash) == 0 {
		return unusablePassword
	}
	return hash
}

func userRecord(usr user.User) goqu.Record {
	return goqu.Record{
		"id":            usr.ID,
		"username":      usr.Username,
		"first_name":    usr.FirstName,
		"last_name":     usr.LastName,
		"email":         usr.Email,
		"is_active":     usr.IsActive,
		"is_admin":      usr.IsAdmin,
		"password_hash": passwordHashArg(usr.PasswordHash),
		"created_at":    timeArg(usr.CreatedAt),
		"updated_at":    timeArg(usr.UpdatedAt),
		"last_login":    nullTimeArg(usr.LastLogin),
	}
}

type userRepository struct {
	base
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *sqlx.DB) *userRepository {
	return &userRepository{base: newBase(db)}
}

// trapNoRowsErr maps "no rows" err to user.ErrNotFound
func (repo userRepository) trapNoRowsErr(err error, msg string) error {
	if err == sql.ErrNoRows {
		return user.ErrNotFound
	}
	return errors.Wrap(err, msg)
}

func (repo userRepository) CheckUniqueness(ctx context.Context, username, email string, excludedUsers []user.User, exec ...core.DBExecutor) error {
	var conds []goqu.Expression
	if username != "" {
		conds = append(conds, goqu.C("username").Eq(username))
	}
	if email != "" {
		conds = append(conds, goqu.C("email").Eq(email))
	}
	if len(conds) == 0 {
		return nil
	}

	ds := repo.builder.From(tableUsers).Select("username", "email").Where(goqu.Or(conds...))
	if len(excludedUsers) > 0 {
		ids := make([]interface{}, 0, len(excludedUsers))
		for _, u := range excludedUsers {
			ids = append(ids, u.ID)
		}
		ds = ds.Where(goqu.C("id").NotIn(ids...))
	}

	var rows []struct {
		Username string `db:"username"`
		Email    string `db:"email"`
	}
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, ds.Prepared(true)); err != nil {
		return errors.Wrap(err, "checking user uniqueness")
	}
	for _, r := range rows {
		if username != "" && r.Username == username {
			return user.ErrUsernameExists
		}
	}
	if len(rows) > 0 {
		return user.ErrEmailExists
	}
	return nil
}

func (repo userRepository) CreateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	usr.ID = uuid.New().String()
	ds := repo.builder.Insert(tableUsers).Rows(userRecord(usr)).Prepared(true)
	if _, err := repo.exec(ctx, repo.getExec(exec), ds); err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrUsernameExists
		}
		return user.User{}, errors.Wrap(err, "inserting user")
	}
	return usr, nil
}

func (repo userRepository) QueryUsers(ctx context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, exec ...core.DBExecutor) ([]user.User, error) {
	ds := repo.builder.From(tableUsers).Select(userColumns...)

	if filter != nil {
		// users with Username, FirstName, LastName or Email matching the search keyword
		if filter.Search != "" {
			val := "%" + filter.Search + "%"
			ds = ds.Where(goqu.Or(
				goqu.C("username").ILike(val),
				goqu.C("first_name").ILike(val),
				goqu.C("last_name").ILike(val),
				goqu.C("email").ILike(val),
			))
		}
		if filter.IsActive != nil {
			ds = ds.Where(goqu.C("is_active").Eq(*filter.IsActive))
		}
		if filter.IsAdmin != nil {
			ds = ds.Where(goqu.C("is_admin").Eq(*filter.IsAdmin))
		}
	}
	ds = ds.Order(orderedExpressions(ordering, tableUsers)...)

	var rows []userRow
	if err := repo.selectAll(ctx, repo.getExec(exec), &rows, ds.Prepared(true)); err != nil {
		return nil, errors.Wrap(err, "querying users")
	}
	users := make([]user.User, 0, len(rows))
	for _, r := range rows {
		users = append(users, r.user())
	}
	return users, nil
}

func (repo userRepository) GetUser(ctx context.Context, filter user.GetFilter, exec ...core.DBExecutor) (user.User, error) {
	ds := repo.builder.From(tableUsers).Select(userColumns...)
	switch {
	case filter.ID != "":
		if _, err := uuid.Parse(filter.ID); err != nil {
			return user.User{}, user.ErrNotFound
		}
		ds = ds.Where(goqu.C("id").Eq(filter.ID))
	case filter.Username != "":
		ds = ds.Where(goqu.C("username").Eq(filter.Username))
	case filter.Email != "":
		ds = ds.Where(goqu.C("email").Eq(filter.Email))
	case filter.UsernameOrEmail != "":
		ds = ds.Where(goqu.Or(
			goqu.C("username").Eq(filter.UsernameOrEmail),
			goqu.C("email").Eq(filter.UsernameOrEmail),
		))
	default:
		return user.User{}, user.ErrNotFound
	}

	var row userRow
	if err := repo.get(ctx, repo.getExec(exec), &row, ds.Limit(1).Prepared(true)); err != nil {
		return user.User{}, repo.trapNoRowsErr(err, "getting user")
	}
	return row.user(), nil
}

func (repo userRepository) UpdateUser(ctx context.Context, usr user.User, exec ...core.DBExecutor) (user.User, error) {
	rec := userRecord(usr)
	delete(rec, "id")
	delete(rec, "created_at")
	ds := repo.builder.Update(tableUsers).Set(rec).Where(goqu.C("id").Eq(usr.ID)).Prepared(true)

	res, err := repo.exec(ctx, repo.getExec(exec), ds)
	if err != nil {
		if isUniqueViolation(err) {
			return user.User{}, user.ErrEmailExists
		}
		return user.User{}, errors.Wrap(err, "updating user")
	}
	if n, err := res.RowsAffected(); err == nil && n == 0 {
		return user.User{}, user.ErrNotFound
	}
	return usr, nil
}
