package main

import (
	"context"

	"github.com/pkg/errors"
)

var errNoDatabase = errors.New("migrations need a postgres or sqlite database")

func (cli *commandLine) migrate(ctx context.Context, command string, args ...string) error {
	if cli.db == nil {
		return errNoDatabase
	}
	return runMigrationsFunc(ctx, cli.db, command, args...)
}
