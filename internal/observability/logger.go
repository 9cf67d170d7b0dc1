package observability

import (
	"context"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type ctxKey string

const (
	ctxKeyRequestID ctxKey = "request_id"
)

// global logger, no-op until Init is called.
var logger = zap.NewNop()

// Init builds the global logger. format "json" gives production encoding,
// anything else the development console encoder.
func Init(levelStr, format string) {
	level := zapcore.InfoLevel
	switch levelStr {
	case "debug":
		level = zapcore.DebugLevel
	case "warn":
		level = zapcore.WarnLevel
	case "error":
		level = zapcore.ErrorLevel
	}

	var cfg zap.Config
	if format == "json" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
	}
	cfg.Level = zap.NewAtomicLevelAt(level)

	l, err := cfg.Build()
	if err != nil {
		l = zap.NewNop()
	}
	logger = l
}

func Logger() *zap.Logger {
	return logger
}

// SetLogger replaces the global logger (used by tests).
func SetLogger(l *zap.Logger) {
	logger = l
}

// WithRequestID stores a request_id in the context.
func WithRequestID(ctx context.Context, requestID string) context.Context {
	return context.WithValue(ctx, ctxKeyRequestID, requestID)
}

// LoggerFromContext adds request_id if present.
func LoggerFromContext(ctx context.Context) *zap.Logger {
	reqID, _ := ctx.Value(ctxKeyRequestID).(string)
	if reqID == "" {
		return logger
	}
	return logger.With(zap.String("request_id", reqID))
}
