package inmemdb

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/attendance"
	"github.com/trezcool/teas/core/employee"
	"github.com/trezcool/teas/core/user"
)

// DB keeps every table in memory behind a single lock.
type DB struct {
	mu          sync.RWMutex
	users       map[string]*user.User
	employees   map[string]*employee.Employee
	attendances map[string]*attendance.Attendance
}

var _ core.Transactor = (*DB)(nil)

func Open() *DB {
	return &DB{
		users:       make(map[string]*user.User),
		employees:   make(map[string]*employee.Employee),
		attendances: make(map[string]*attendance.Attendance),
	}
}

// WithinTx runs fn directly: every repository call is atomic on its own and nothing is rolled back.
func (db *DB) WithinTx(_ context.Context, fn func(exec core.DBExecutor) error) error {
	return fn(nil)
}

// Truncate empties all tables.
func (db *DB) Truncate() {
	db.mu.Lock()
	defer db.mu.Unlock()
	db.users = make(map[string]*user.User)
	db.employees = make(map[string]*employee.Employee)
	db.attendances = make(map[string]*attendance.Attendance)
}

// usersCopy returns a copy of the user with id, or the zero User. Callers hold the lock.
func (db *DB) usersCopy(id string) user.User {
	if usr, ok := db.users[id]; ok {
		return *usr
	}
	return user.User{}
}

func contains(s, substr string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(substr))
}

func compareStrings(a, b string) int {
	return strings.Compare(a, b)
}

// orderBy sorts items by ordering. cmp compares two items on a field, unknown fields compare equal.
func orderBy[T any](items []T, ordering []core.DBOrdering, cmp func(a, b T, field string) int) {
	sort.SliceStable(items, func(i, j int) bool {
		for _, ord := range ordering {
			c := cmp(items[i], items[j], ord.Field)
			if c == 0 {
				continue
			}
			if ord.Ascending {
				return c < 0
			}
			return c > 0
		}
		return false
	})
}
