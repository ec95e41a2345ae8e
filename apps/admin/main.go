package main

import (
	"context"
	"fmt"
	"log"
	"os"

	"github.com/go-playground/validator/v10"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/employee"
	"github.com/trezcool/teas/core/user"
	emailsvc "github.com/trezcool/teas/services/email"
	logsvc "github.com/trezcool/teas/services/logger"
	"github.com/trezcool/teas/storage/database"
	"github.com/trezcool/teas/storage/database/sqlxrepos"
)

func main() {
	conf := core.NewConfig()

	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("admin"), conf)

	if conf.Database.Engine == database.EngineMemory {
		logger.Fatal("the admin commands need a postgres or sqlite database")
	}

	// set up DB
	if err = database.CreateIfNotExist(conf); err != nil {
		logger.Fatal(fmt.Sprintf("creating database: %v", err), err)
	}
	db, err := database.Open(conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("opening database: %v", err), err)
	}

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	mailSvc := emailsvc.NewConsoleService(conf, logger)
	usrSvc := user.NewService(sqlxrepos.NewUserRepository(db))
	empSvc := employee.NewService(sqlxrepos.NewEmployeeRepository(db), usrSvc, database.NewTransactor(db), mailSvc)

	// start CLI
	cli := commandLine{
		db:       db,
		validate: validate,
		usrSvc:   usrSvc,
		empSvc:   empSvc,
	}
	err = cli.run(context.Background(), os.Args)
	mailSvc.Wait()
	_ = db.Close()
	_ = logger.Sync()

	if err != nil {
		if err != errHelp {
			fmt.Fprintf(os.Stderr, "\nerror: %s\n", err)
		}
		os.Exit(1)
	}
}
