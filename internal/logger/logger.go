// Package logger wraps zap with the context-carrying conventions the rest of
// the engine expects: structured fields, a context key, and a handful of
// With* helpers for the identifiers that recur across a day's simulation.
package logger

import (
	"context"
	"os"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger wraps zap's SugaredLogger.
type Logger struct {
	*zap.SugaredLogger
}

type ctxKey struct{}

// New creates a logger for the given service/environment/level.
func New(serviceName, environment, level string) (*Logger, error) {
	var cfg zap.Config

	if environment == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}

	switch level {
	case "debug":
		cfg.Level.SetLevel(zapcore.DebugLevel)
	case "info":
		cfg.Level.SetLevel(zapcore.InfoLevel)
	case "warn":
		cfg.Level.SetLevel(zapcore.WarnLevel)
	case "error":
		cfg.Level.SetLevel(zapcore.ErrorLevel)
	default:
		cfg.Level.SetLevel(zapcore.InfoLevel)
	}

	cfg.OutputPaths = []string{"stdout"}
	cfg.ErrorOutputPaths = []string{"stderr"}

	zapLogger, err := cfg.Build(
		zap.AddCallerSkip(1),
		zap.Fields(
			zap.String("service", serviceName),
			zap.String("environment", environment),
		),
	)
	if err != nil {
		return nil, err
	}

	return &Logger{zapLogger.Sugar()}, nil
}

// Default returns a best-effort development logger, used when New fails or
// a caller has not threaded a logger through.
func Default() *Logger {
	log, err := New("dispatchsim", "development", "info")
	if err != nil {
		zapLogger, _ := zap.NewDevelopment()
		return &Logger{zapLogger.Sugar()}
	}
	return log
}

// WithContext returns the logger stored in ctx, or Default() if none.
func WithContext(ctx context.Context) *Logger {
	if log, ok := ctx.Value(ctxKey{}).(*Logger); ok {
		return log
	}
	return Default()
}

// ToContext attaches a logger to ctx.
func ToContext(ctx context.Context, log *Logger) context.Context {
	return context.WithValue(ctx, ctxKey{}, log)
}

// WithFields returns a derived logger carrying the given key/value pairs.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	args := make([]interface{}, 0, len(fields)*2)
	for k, v := range fields {
		args = append(args, k, v)
	}
	return &Logger{l.SugaredLogger.With(args...)}
}

// WithError attaches an error field.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{l.SugaredLogger.With("error", err.Error())}
}

// WithDay attaches the day being simulated.
func (l *Logger) WithDay(day string) *Logger {
	return &Logger{l.SugaredLogger.With("day", day)}
}

// WithCrew attaches the crew being dispatched.
func (l *Logger) WithCrew(crewID string) *Logger {
	return &Logger{l.SugaredLogger.With("crew_id", crewID)}
}

// Fatal logs and exits, matching the teacher's logger contract.
func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.SugaredLogger.Fatalw(msg, args...)
	os.Exit(1)
}

// Sync flushes buffered entries.
func (l *Logger) Sync() error {
	return l.SugaredLogger.Sync()
}
