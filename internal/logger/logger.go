package logger

import (
	"context"
	"fmt"
	"os"
	"strings"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// ANSI color codes for development logging
const (
	Reset      = "\033[0m"
	DebugColor = "\033[36m" // Cyan
	InfoColor  = "\033[32m" // Green
	WarnColor  = "\033[33m" // Yellow
	ErrorColor = "\033[31m" // Red
	FatalColor = "\033[35m" // Magenta
)

// Logger represents the logging interface
type Logger interface {
	Debug(msg string, fields ...Field)
	Info(msg string, fields ...Field)
	Warn(msg string, fields ...Field)
	Error(msg string, fields ...Field)
	Fatal(msg string, fields ...Field)

	Debugf(template string, args ...interface{})
	Infof(template string, args ...interface{})
	Warnf(template string, args ...interface{})
	Errorf(template string, args ...interface{})

	With(fields ...Field) Logger
	WithContext(ctx context.Context) Logger
	Named(name string) Logger

	Sync() error
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level       string `mapstructure:"level" yaml:"level"`
	Format      string `mapstructure:"format" yaml:"format"`
	Environment string `mapstructure:"environment" yaml:"environment"`
	Output      string `mapstructure:"output" yaml:"output"`
}

// logger implements the Logger interface using zap
type logger struct {
	zap *zap.Logger
}

type contextKey int

const (
	loggerKey contextKey = iota
	scopeIDKey
)

// NewLogger creates a new logger with the given configuration
func NewLogger(config LoggingConfig) Logger {
	logLevel := ParseLevel(config.Level)

	if config.Environment == "production" || config.Format == "json" {
		zapConfig := zap.NewProductionConfig()
		zapConfig.Level = zap.NewAtomicLevelAt(logLevel)
		if config.Output != "" {
			zapConfig.OutputPaths = []string{config.Output}
		}
		zapLogger, err := zapConfig.Build(zap.AddCallerSkip(1))
		if err != nil {
			return NewNoopLogger()
		}
		return &logger{zap: zapLogger}
	}

	return &logger{zap: createDevelopmentLogger(logLevel)}
}

// NewDevelopmentLogger creates a development logger with colors
func NewDevelopmentLogger() Logger {
	return &logger{zap: createDevelopmentLogger(zapcore.DebugLevel)}
}

// NewNoopLogger creates a logger that discards everything.
func NewNoopLogger() Logger {
	return &logger{zap: zap.NewNop()}
}

// NewFromZap wraps an existing zap logger.
func NewFromZap(z *zap.Logger) Logger {
	if z == nil {
		return NewNoopLogger()
	}
	return &logger{zap: z}
}

// ParseLevel maps a configuration level name to a zap level. Unknown names
// fall back to info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(level) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	case "fatal":
		return zapcore.FatalLevel
	default:
		return zapcore.InfoLevel
	}
}

func createDevelopmentLogger(level zapcore.Level) *zap.Logger {
	encoderConfig := zapcore.EncoderConfig{
		TimeKey:        "ts",
		LevelKey:       "level",
		NameKey:        "logger",
		CallerKey:      "caller",
		FunctionKey:    zapcore.OmitKey,
		MessageKey:     "msg",
		StacktraceKey:  "stacktrace",
		LineEnding:     zapcore.DefaultLineEnding,
		EncodeLevel:    customColorLevelEncoder,
		EncodeTime:     zapcore.ISO8601TimeEncoder,
		EncodeDuration: zapcore.StringDurationEncoder,
		EncodeCaller:   zapcore.ShortCallerEncoder,
	}

	core := zapcore.NewCore(
		zapcore.NewConsoleEncoder(encoderConfig),
		zapcore.AddSync(os.Stderr),
		zap.NewAtomicLevelAt(level),
	)

	return zap.New(core, zap.AddCaller(), zap.AddCallerSkip(1))
}

// customColorLevelEncoder adds colors to log levels
func customColorLevelEncoder(level zapcore.Level, enc zapcore.PrimitiveArrayEncoder) {
	var color string
	switch level {
	case zapcore.DebugLevel:
		color = DebugColor
	case zapcore.InfoLevel:
		color = InfoColor
	case zapcore.WarnLevel:
		color = WarnColor
	case zapcore.ErrorLevel:
		color = ErrorColor
	case zapcore.DPanicLevel, zapcore.PanicLevel, zapcore.FatalLevel:
		color = FatalColor
	default:
		color = Reset
	}

	enc.AppendString(color + level.CapitalString() + Reset)
}

func (l *logger) Debug(msg string, fields ...Field) {
	l.zap.Debug(msg, fieldsToZap(fields)...)
}

func (l *logger) Info(msg string, fields ...Field) {
	l.zap.Info(msg, fieldsToZap(fields)...)
}

func (l *logger) Warn(msg string, fields ...Field) {
	l.zap.Warn(msg, fieldsToZap(fields)...)
}

func (l *logger) Error(msg string, fields ...Field) {
	l.zap.Error(msg, fieldsToZap(fields)...)
}

func (l *logger) Fatal(msg string, fields ...Field) {
	l.zap.Fatal(msg, fieldsToZap(fields)...)
}

func (l *logger) Debugf(template string, args ...interface{}) {
	l.zap.Debug(fmt.Sprintf(template, args...))
}

func (l *logger) Infof(template string, args ...interface{}) {
	l.zap.Info(fmt.Sprintf(template, args...))
}

func (l *logger) Warnf(template string, args ...interface{}) {
	l.zap.Warn(fmt.Sprintf(template, args...))
}

func (l *logger) Errorf(template string, args ...interface{}) {
	l.zap.Error(fmt.Sprintf(template, args...))
}

func (l *logger) With(fields ...Field) Logger {
	return &logger{zap: l.zap.With(fieldsToZap(fields)...)}
}

func (l *logger) WithContext(ctx context.Context) Logger {
	if ctx == nil {
		return l
	}
	if id := ScopeIDFromContext(ctx); id != "" {
		return &logger{zap: l.zap.With(zap.String("scope_id", id))}
	}
	return l
}

func (l *logger) Named(name string) Logger {
	return &logger{zap: l.zap.Named(name)}
}

func (l *logger) Sync() error {
	return l.zap.Sync()
}

// WithLogger adds a logger to the context
func WithLogger(ctx context.Context, l Logger) context.Context {
	return context.WithValue(ctx, loggerKey, l)
}

// FromContext extracts a logger from the context, falling back to a noop logger.
func FromContext(ctx context.Context) Logger {
	if ctx != nil {
		if l, ok := ctx.Value(loggerKey).(Logger); ok {
			return l
		}
	}
	return NewNoopLogger()
}

// WithScopeID tags the context with the identifier of a resolution scope.
func WithScopeID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, scopeIDKey, id)
}

// ScopeIDFromContext extracts the scope identifier from the context
func ScopeIDFromContext(ctx context.Context) string {
	if ctx == nil {
		return ""
	}
	if id, ok := ctx.Value(scopeIDKey).(string); ok {
		return id
	}
	return ""
}

func fieldsToZap(fields []Field) []zap.Field {
	zapFields := make([]zap.Field, len(fields))
	for i, field := range fields {
		zapFields[i] = field.ZapField()
	}
	return zapFields
}
