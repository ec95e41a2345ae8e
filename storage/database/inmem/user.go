package inmemdb

import (
	"context"

	"github.com/google/uuid"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/user"
)

type userRepository struct {
	db *DB
}

var _ user.Repository = (*userRepository)(nil) // interface compliance check

func NewUserRepository(db *DB) *userRepository {
	return &userRepository{db: db}
}

func isExcluded(usr *user.User, excludedUsers []user.User) bool {
	for _, u := range excludedUsers {
		if u.ID == usr.ID {
			return true
		}
	}
	return false
}

func (repo *userRepository) CheckUniqueness(_ context.Context, username, email string, excludedUsers []user.User, _ ...core.DBExecutor) error {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()
	return repo.checkUniqueness(username, email, excludedUsers)
}

func (repo *userRepository) checkUniqueness(username, email string, excludedUsers []user.User) error {
	emailTaken := false
	for _, usr := range repo.db.users {
		if isExcluded(usr, excludedUsers) {
			continue
		}
		if username != "" && usr.Username == username {
			return user.ErrUsernameExists
		}
		if email != "" && usr.Email == email {
			emailTaken = true
		}
	}
	if emailTaken {
		return user.ErrEmailExists
	}
	return nil
}

func (repo *userRepository) CreateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	if err := repo.checkUniqueness(usr.Username, usr.Email, nil); err != nil {
		return user.User{}, err
	}
	usr.ID = uuid.New().String()
	repo.db.users[usr.ID] = &usr
	return usr, nil
}

func compareUsers(a, b user.User, field string) int {
	switch field {
	case "username":
		return compareStrings(a.Username, b.Username)
	case "first_name":
		return compareStrings(a.FirstName, b.FirstName)
	case "last_name":
		return compareStrings(a.LastName, b.LastName)
	case "email":
		return compareStrings(a.Email, b.Email)
	case "created_at":
		return a.CreatedAt.Compare(b.CreatedAt)
	case "last_login":
		switch {
		case a.LastLogin == nil && b.LastLogin == nil:
			return 0
		case a.LastLogin == nil:
			return -1
		case b.LastLogin == nil:
			return 1
		}
		return a.LastLogin.Compare(*b.LastLogin)
	}
	return 0
}

func (repo *userRepository) QueryUsers(_ context.Context, filter *user.QueryFilter, ordering []core.DBOrdering, _ ...core.DBExecutor) ([]user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	users := make([]user.User, 0, len(repo.db.users))
	for _, usr := range repo.db.users {
		if filter != nil {
			if filter.Search != "" && !(contains(usr.Username, filter.Search) || contains(usr.FirstName, filter.Search) ||
				contains(usr.LastName, filter.Search) || contains(usr.Email, filter.Search)) {
				continue
			}
			if filter.IsActive != nil && usr.IsActive != *filter.IsActive {
				continue
			}
			if filter.IsAdmin != nil && usr.IsAdmin != *filter.IsAdmin {
				continue
			}
		}
		users = append(users, *usr)
	}
	orderBy(users, ordering, compareUsers)
	return users, nil
}

func (repo *userRepository) GetUser(_ context.Context, filter user.GetFilter, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.RLock()
	defer repo.db.mu.RUnlock()

	if filter.ID != "" {
		if usr, ok := repo.db.users[filter.ID]; ok {
			return *usr, nil
		}
		return user.User{}, user.ErrNotFound
	}
	for _, usr := range repo.db.users {
		switch {
		case filter.Username != "" && usr.Username == filter.Username,
			filter.Email != "" && usr.Email == filter.Email,
			filter.UsernameOrEmail != "" && (usr.Username == filter.UsernameOrEmail || usr.Email == filter.UsernameOrEmail):
			return *usr, nil
		}
	}
	return user.User{}, user.ErrNotFound
}

func (repo *userRepository) UpdateUser(_ context.Context, usr user.User, _ ...core.DBExecutor) (user.User, error) {
	repo.db.mu.Lock()
	defer repo.db.mu.Unlock()

	origUsr, ok := repo.db.users[usr.ID]
	if !ok {
		return user.User{}, user.ErrNotFound
	}
	usr.CreatedAt = origUsr.CreatedAt
	repo.db.users[usr.ID] = &usr
	return usr, nil
}
