package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Logger is a leveled printf-style logger backed by zap.
type Logger struct {
	sugar *zap.SugaredLogger
	level string
}

// New builds a JSON logger at the given level ("debug", "info", "warn", "error").
func New(level string) *Logger {
	return build(zap.NewProductionConfig(), level)
}

// NewDevelopment builds a console logger, used when ENV is not production.
func NewDevelopment(level string) *Logger {
	return build(zap.NewDevelopmentConfig(), level)
}

// NewNop returns a logger that discards everything.
func NewNop() *Logger {
	return &Logger{sugar: zap.NewNop().Sugar(), level: "info"}
}

func build(cfg zap.Config, level string) *Logger {
	lvl, err := zapcore.ParseLevel(level)
	if err != nil {
		lvl = zapcore.InfoLevel
	}
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true

	z, err := cfg.Build(zap.AddCallerSkip(1))
	if err != nil {
		z = zap.NewNop()
	}
	return &Logger{sugar: z.Sugar(), level: lvl.String()}
}

func (l *Logger) Info(msg string, args ...interface{}) {
	l.sugar.Infof(msg, args...)
}

func (l *Logger) Debug(msg string, args ...interface{}) {
	l.sugar.Debugf(msg, args...)
}

func (l *Logger) Warn(msg string, args ...interface{}) {
	l.sugar.Warnf(msg, args...)
}

func (l *Logger) Error(msg string, args ...interface{}) {
	l.sugar.Errorf(msg, args...)
}

func (l *Logger) Fatal(msg string, args ...interface{}) {
	l.sugar.Fatalf(msg, args...)
}

// With returns a child logger carrying the given key/value pairs on every entry.
func (l *Logger) With(keysAndValues ...interface{}) *Logger {
	return &Logger{sugar: l.sugar.With(keysAndValues...), level: l.level}
}

func (l *Logger) Level() string {
	return l.level
}

func (l *Logger) Sync() error {
	return l.sugar.Sync()
}
