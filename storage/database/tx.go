package database

import (
	"context"

	"github.com/pkg/errors"

	"github.com/trezcool/teas/core"
)

type transactor struct {
	db core.DB
}

var _ core.Transactor = (*transactor)(nil)

func NewTransactor(db core.DB) core.Transactor {
	return &transactor{db: db}
}

// WithinTx commits when fn succeeds and rolls back otherwise.
func (t transactor) WithinTx(ctx context.Context, fn func(exec core.DBExecutor) error) error {
	return WithinTx(ctx, t.db, fn)
}

// WithinTx runs fn in a new transaction on db.
func WithinTx(ctx context.Context, db core.DB, fn func(exec core.DBExecutor) error) (err error) {
	tx, err := db.BeginTxx(ctx, nil)
	if err != nil {
		return errors.Wrap(err, "beginning transaction")
	}
	defer func() {
		if p := recover(); p != nil {
			_ = tx.Rollback()
			panic(p)
		}
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = fn(tx); err != nil {
		return err
	}
	if err = tx.Commit(); err != nil {
		return errors.Wrap(err, "committing transaction")
	}
	return nil
}
