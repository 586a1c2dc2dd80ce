package peerwire

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

var (
	logLevel  = zap.NewAtomicLevelAt(zapcore.WarnLevel)
	logger    = newDefaultLogger()
	zapLevels = map[LogLevel]zapcore.Level{
		LogLevelDebug: zapcore.DebugLevel,
		LogLevelInfo:  zapcore.InfoLevel,
		LogLevelWarn:  zapcore.WarnLevel,
		LogLevelError: zapcore.ErrorLevel,
	}
)

func newDefaultLogger() *zap.SugaredLogger {
	cfg := zap.NewProductionConfig()
	cfg.Level = logLevel
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	l, err := cfg.Build()
	if err != nil {
		return zap.NewNop().Sugar()
	}
	return l.Named("peerwire").Sugar()
}

// SetLogLevel overrides logLevel for peerwire library, default is WARN
func SetLogLevel(lv LogLevel) {
	if zl, ok := zapLevels[lv]; ok {
		logLevel.SetLevel(zl)
	}
}

// ParseLogLevel maps a config string ("debug", "info", "warn", "error") to a LogLevel.
func ParseLogLevel(s string) (LogLevel, bool) {
	var zl zapcore.Level
	if err := zl.UnmarshalText([]byte(s)); err != nil {
		return LogLevelWarn, false
	}
	for lv, candidate := range zapLevels {
		if candidate == zl {
			return lv, true
		}
	}
	return LogLevelWarn, false
}

// SetLogger replaces the underlying zap logger. The level set through SetLogLevel is
// applied on top of the core of l.
func SetLogger(l *zap.Logger) {
	if l == nil {
		logger = zap.NewNop().Sugar()
		return
	}
	logger = l.WithOptions(zap.IncreaseLevel(logLevel)).Named("peerwire").Sugar()
}

// Sync flushes buffered log entries.
func Sync() error {
	return logger.Sync()
}

func LogDebugf(format string, v ...interface{}) {
	logger.Debugf(format, v...)
}

func LogInfof(format string, v ...interface{}) {
	logger.Infof(format, v...)
}

func LogWarnf(format string, v ...interface{}) {
	logger.Warnf(format, v...)
}

func LogErrorf(format string, v ...interface{}) {
	logger.Errorf(format, v...)
}
