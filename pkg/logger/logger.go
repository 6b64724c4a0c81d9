// Package logger builds the zap loggers used by machines and observers.
package logger

import (
	"os"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// LogLevel represents the logging level
type LogLevel string

// LogFormat represents the logging format
type LogFormat string

const (
	DebugLevel LogLevel = "DEBUG"
	InfoLevel  LogLevel = "INFO"
	WarnLevel  LogLevel = "WARN"
	ErrorLevel LogLevel = "ERROR"
	// ProductionLevel is an alias for InfoLevel
	ProductionLevel LogLevel = "PRODUCTION"

	// FormatConsole is human-readable, one line per entry
	FormatConsole LogFormat = "CONSOLE"
	// FormatJSON is structured JSON
	FormatJSON LogFormat = "JSON"
)

// Environment variables read by Initialize and FromEnv
const (
	EnvLevel  = "LOGGING_LEVEL"
	EnvFormat = "LOGGING_FORMAT"
)

var (
	initOnce sync.Once
	global   *zap.Logger
)

// ParseLevel converts a level name to a zap level. Unknown names map to info.
func ParseLevel(level string) zapcore.Level {
	switch LogLevel(strings.ToUpper(strings.TrimSpace(level))) {
	case DebugLevel:
		return zapcore.DebugLevel
	case WarnLevel:
		return zapcore.WarnLevel
	case ErrorLevel:
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// ParseFormat returns the named format, or def when the name is unknown
func ParseFormat(format string, def LogFormat) LogFormat {
	switch f := LogFormat(strings.ToUpper(strings.TrimSpace(format))); f {
	case FormatConsole, FormatJSON:
		return f
	default:
		return def
	}
}

func getEnv(key, defaultValue string) string {
	if value := os.Getenv(key); value != "" {
		return value
	}
	return defaultValue
}

func timeEncoder(t time.Time, enc zapcore.PrimitiveArrayEncoder) {
	enc.AppendString(t.Format("2006-01-02 15:04:05 MST"))
}

// New creates a zap logger writing to stdout
func New(logLevel string, logFormat LogFormat) *zap.Logger {
	return NewWithSink(logLevel, logFormat, zapcore.AddSync(os.Stdout))
}

// NewWithSink creates a zap logger writing to sink
func NewWithSink(logLevel string, logFormat LogFormat, sink zapcore.WriteSyncer) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "time",
		LevelKey:       "level",
		NameKey:        "component",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	var encoder zapcore.Encoder
	if logFormat == FormatConsole {
		encoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
		encoderConfig.EncodeTime = timeEncoder
		encoderConfig.ConsoleSeparator = " | "
		encoder = zapcore.NewConsoleEncoder(encoderConfig)
	} else {
		encoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
		encoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
		encoder = zapcore.NewJSONEncoder(encoderConfig)
	}

	core := zapcore.NewCore(encoder, sink, zap.NewAtomicLevelAt(ParseLevel(logLevel)))
	return zap.New(core, zap.AddCaller())
}

// FromEnv creates a logger configured by LOGGING_LEVEL and LOGGING_FORMAT
func FromEnv() *zap.Logger {
	level := getEnv(EnvLevel, string(ProductionLevel))
	format := ParseFormat(getEnv(EnvFormat, ""), FormatConsole)
	return New(level, format)
}

// Initialize replaces zap's global loggers with one built by FromEnv. Only
// the first call has an effect.
func Initialize() {
	initOnce.Do(func() {
		global = FromEnv()
		zap.ReplaceGlobals(global)
		global.Debug("Logger initialized",
			zap.String("level", getEnv(EnvLevel, string(ProductionLevel))),
			zap.String("format", getEnv(EnvFormat, string(FormatConsole))))
	})
}

// GetSugaredLogger returns the global sugared logger, initializing it if needed
func GetSugaredLogger() *zap.SugaredLogger {
	Initialize()
	return zap.S()
}

// For creates a named logger for a component
func For(component string) *zap.SugaredLogger {
	return GetSugaredLogger().Named(component)
}

// Sync flushes any buffered log entries
func Sync() error {
	return zap.L().Sync()
}
