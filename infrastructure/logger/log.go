package applog

import (
	"context"

	"gitlab.faza.io/order-project/storefront-service/infrastructure/utils"
	"go.uber.org/zap"
	"google.golang.org/grpc/metadata"
)

// Logger abstracts key/value structured logging
type Logger interface {
	Log(keyvals ...interface{}) error
	With(keyvals ...interface{}) Logger
	FromContext(ctx context.Context) Logger

	Debug(msg string, keyvals ...interface{})
	Info(msg string, keyvals ...interface{})
	Warn(msg string, keyvals ...interface{})
	Error(msg string, keyvals ...interface{})
	Fatal(msg string, keyvals ...interface{})
}

var GLog struct {
	ZapLogger *zap.Logger
	Logger    Logger
}

func InitZap() (zapLogger *zap.Logger) {
	conf := zap.NewProductionConfig()
	conf.Level = zap.NewAtomicLevelAt(zap.DebugLevel)
	conf.DisableCaller = true
	conf.DisableStacktrace = true
	zapLogger, e := conf.Build(zap.AddCaller(), zap.AddCallerSkip(1))
	if e != nil {
		panic(e)
	}
	return
}

// NewZapLogger returns a Logger backed by the provided zap instance
func NewZapLogger(lg *zap.Logger) Logger {
	return zpLg{lg: lg.Sugar()}
}

// NewNopLogger discards everything, used by tests and optional dependencies
func NewNopLogger() Logger {
	return zpLg{lg: zap.NewNop().Sugar()}
}

type zpLg struct {
	lg *zap.SugaredLogger
}

func (l zpLg) Log(keyvals ...interface{}) error {
	l.lg.Infow("", keyvals...)
	return nil
}

func (l zpLg) With(keyvals ...interface{}) Logger {
	return zpLg{lg: l.lg.With(keyvals...)}
}

func (l zpLg) FromContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}

	vals := extractContextValues(ctx)
	if len(vals) == 0 {
		return l
	}

	valarray := make([]interface{}, 0, len(vals)*2)
	for k, v := range vals {
		valarray = append(valarray, k, v)
	}
	return zpLg{lg: l.lg.With(valarray...)}
}

func (l zpLg) Debug(msg string, keyvals ...interface{}) {
	l.lg.Debugw(msg, keyvals...)
}

func (l zpLg) Info(msg string, keyvals ...interface{}) {
	l.lg.Infow(msg, keyvals...)
}

func (l zpLg) Warn(msg string, keyvals ...interface{}) {
	l.lg.Warnw(msg, keyvals...)
}

func (l zpLg) Error(msg string, keyvals ...interface{}) {
	l.lg.Errorw(msg, keyvals...)
}

func (l zpLg) Fatal(msg string, keyvals ...interface{}) {
	l.lg.Fatalw(msg, keyvals...)
}

// context values set by the http middleware take priority over grpc metadata
func extractContextValues(ctx context.Context) map[string]string {
	vals := make(map[string]string, 4)
	if md, ok := metadata.FromIncomingContext(ctx); ok {
		for _, key := range []string{"real-ip", "user-agent", "request-id", "user-id"} {
			if val, ok := md[key]; ok && len(val) > 0 {
				vals[key] = val[0]
			}
		}
	}

	for _, key := range []utils.ContextKey{utils.CtxRequestId, utils.CtxUserID, utils.CtxRealIp} {
		if val, ok := ctx.Value(key).(string); ok && val != "" {
			vals[string(key)] = val
		}
	}
	return vals
}
