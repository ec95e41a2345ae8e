package logsvc

import (
	"sync"

	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/trezcool/teas/core"
	"github.com/trezcool/teas/core/user"
)

// RollbarLogger writes events to zap and reports them to Rollbar when enabled.
type RollbarLogger struct {
	zl *zap.Logger
	mu *sync.Mutex // rollbar's person is global
}

var _ core.Logger = (*RollbarLogger)(nil)

func NewRollbarLogger(zl *zap.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug)
	return &RollbarLogger{zl: zl, mu: new(sync.Mutex)}
}

// NewZap returns a development logger in debug mode and a JSON production logger otherwise.
func NewZap(conf *core.Config) (*zap.Logger, error) {
	if conf.Debug {
		zc := zap.NewDevelopmentConfig()
		zc.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		return zc.Build()
	}
	zc := zap.NewProductionConfig()
	zc.InitialFields = map[string]interface{}{"app": conf.AppName, "env": conf.Env, "build": conf.Build}
	return zc.Build()
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

func (l RollbarLogger) Sync() error {
	rollbar.Wait()
	return l.zl.Sync()
}

// expected fmt: msg | error, map[string]interface{}, core.Person or user.User
func (l RollbarLogger) prepare(msg string, args []interface{}) ([]interface{}, []zap.Field) {
	var usrSet bool
	newArgs := make([]interface{}, 0, len(args)+1)
	newArgs = append(newArgs, msg)
	fields := make([]zap.Field, 0, len(args))

	setPerson := func(p core.Person) {
		if !usrSet { // only set one person
			rollbar.SetPerson(p.ID, p.Username, p.Email)
			fields = append(fields, zap.String("user_id", p.ID), zap.String("username", p.Username))
			usrSet = true
		}
	}

	for _, arg := range args {
		switch a := arg.(type) {
		case user.User:
			setPerson(a.Person())
		case core.Person:
			setPerson(a)
		case error:
			fields = append(fields, zap.Error(a))
			newArgs = append(newArgs, a)
		case map[string]interface{}:
			for k, v := range a {
				fields = append(fields, zap.Any(k, v))
			}
			newArgs = append(newArgs, a)
		default:
			fields = append(fields, zap.Any("arg", a))
			newArgs = append(newArgs, a)
		}
	}
	if !usrSet {
		rollbar.ClearPerson()
	}
	return newArgs, fields
}

func (l RollbarLogger) log(level zapcore.Level, report func(...interface{}), msg string, args []interface{}) {
	l.mu.Lock()
	rbArgs, fields := l.prepare(msg, args)
	report(rbArgs...)
	l.mu.Unlock()

	if ce := l.zl.Check(level, msg); ce != nil {
		ce.Write(fields...)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) {
	l.log(zapcore.DebugLevel, rollbar.Debug, msg, args)
}

func (l RollbarLogger) Info(msg string, args ...interface{}) {
	l.log(zapcore.InfoLevel, rollbar.Info, msg, args)
}

func (l RollbarLogger) Warn(msg string, args ...interface{}) {
	l.log(zapcore.WarnLevel, rollbar.Warning, msg, args)
}

func (l RollbarLogger) Error(msg string, args ...interface{}) {
	l.log(zapcore.ErrorLevel, rollbar.Error, msg, args)
}

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(zapcore.ErrorLevel, rollbar.Critical, msg, args)
	rollbar.Wait()
	l.zl.Fatal(msg)
}
