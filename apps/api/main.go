package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof" // register the /debug/pprof handlers

	"github.com/go-playground/validator/v10"

	echoapi "github.com/trezcool/teas/apps/api/echo"
	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/attendance"
	"github.com/trezcool/teas/core/employee"
	"github.com/trezcool/teas/core/user"
	emailsvc "github.com/trezcool/teas/services/email"
	logsvc "github.com/trezcool/teas/services/logger"
	"github.com/trezcool/teas/storage/database"
	inmemdb "github.com/trezcool/teas/storage/database/inmem"
	"github.com/trezcool/teas/storage/database/sqlxrepos"
)

// storage groups the repositories of the configured database engine.
type storage struct {
	usrRepo user.Repository
	empRepo employee.Repository
	attRepo attendance.Repository
	tx      core.Transactor
	close   func() error
}

func main() {
	// =========================================================================
	// Set up Dependencies

	conf := core.NewConfig()

	// set up loggers
	zl, err := logsvc.NewZap(conf)
	if err != nil {
		log.Fatalf("setting up zap: %v", err)
	}
	logger := logsvc.NewRollbarLogger(zl.Named("api"), conf)
	dbLogger := logsvc.NewRollbarLogger(zl.Named("db"), conf)
	defer func() { _ = logger.Sync() }()

	// set up DB
	store, err := setUpStorage(context.Background(), conf)
	if err != nil {
		logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	defer func() {
		if err = store.close(); err != nil {
			dbLogger.Error("Failed to close", err)
		}
	}()

	// set up services
	var mailSvc core.EmailService
	if conf.Debug {
		mailSvc = emailsvc.NewConsoleService(conf, logger)
	} else {
		mailSvc = emailsvc.NewSendgridService(conf, logger)
	}
	usrSvc := user.NewService(store.usrRepo)
	empSvc := employee.NewService(store.empRepo, usrSvc, store.tx, mailSvc)
	attSvc := attendance.NewService(store.attRepo, empSvc, conf.AttendanceLocation())

	// =========================================================================
	// Initialize App

	logger.Info(fmt.Sprintf("Application initializing : version %q", conf.Build))
	defer logger.Info("Application stopped")

	validate := validator.New()
	translator := core.NewTranslator()
	core.InitValidators(validate, translator)
	user.InitValidators(validate, translator)

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("build").Set(conf.Build)
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	go func() {
		if err := http.ListenAndServe(conf.Server.DebugHost, http.DefaultServeMux); err != nil {
			logger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
	}()

	// =========================================================================
	// Start API Service

	server := echoapi.NewServer(echoapi.ServerDeps{
		Conf:          conf,
		Logger:        logger,
		Validate:      validate,
		Translator:    translator,
		UserSvc:       usrSvc,
		EmployeeSvc:   empSvc,
		AttendanceSvc: attSvc,
	})

	go func() {
		server.Start()
	}()

	// =========================================================================
	// Shutdown

	select {
	case err = <-server.Errors():
		logger.Error(fmt.Sprintf("server error: %v", err), err)

	case sig := <-server.ShutdownSignal():
		logger.Info(fmt.Sprintf("%v: Start shutdown...", sig))

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		// asking listener to shutdown and shed load
		if err = server.Shutdown(ctx); err != nil {
			logger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)

			if err = server.Close(); err != nil {
				logger.Error(fmt.Sprintf("could not force stop server: %v", err), err)
			}
		}
	}

	// let pending emails go out
	if w, ok := mailSvc.(interface{ Wait() }); ok {
		w.Wait()
	}
}

func setUpStorage(ctx context.Context, conf *core.Config) (storage, error) {
	if conf.Database.Engine == database.EngineMemory {
		db := inmemdb.Open()
		return storage{
			usrRepo: inmemdb.NewUserRepository(db),
			empRepo: inmemdb.NewEmployeeRepository(db),
			attRepo: inmemdb.NewAttendanceRepository(db),
			tx:      db,
			close:   func() error { return nil },
		}, nil
	}

	if err := database.CreateIfNotExist(conf); err != nil {
		return storage{}, err
	}
	db, err := database.Open(conf)
	if err != nil {
		return storage{}, err
	}
	if err = database.Migrate(ctx, db); err != nil {
		_ = db.Close()
		return storage{}, err
	}
	return storage{
		usrRepo: sqlxrepos.NewUserRepository(db),
		empRepo: sqlxrepos.NewEmployeeRepository(db),
		attRepo: sqlxrepos.NewAttendanceRepository(db),
		tx:      database.NewTransactor(db),
		close:   db.Close,
	}, nil
}
