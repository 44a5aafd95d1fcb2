package logger

import (
	"context"
	"log/slog"
	"os"
	"time"

	"github.com/lmittmann/tint"
)

// Logger wraps slog.Logger with domain-specific helpers while staying thin
type Logger struct {
	*slog.Logger
	config LoggerConfig
}

// LogLevel represents the logging level
type LogLevel string

const (
	LevelDebug LogLevel = "debug"
	LevelInfo  LogLevel = "info"
	LevelWarn  LogLevel = "warn"
	LevelError LogLevel = "error"
)

// OutputFormat represents the log output format
type OutputFormat string

const (
	FormatJSON OutputFormat = "json"
	FormatText OutputFormat = "text"
)

// LoggerConfig holds configuration for the logger
type LoggerConfig struct {
	Level      LogLevel     `mapstructure:"level" yaml:"level" json:"level"`
	Format     OutputFormat `mapstructure:"format" yaml:"format" json:"format"`
	AddSource  bool         `mapstructure:"add_source" yaml:"add_source" json:"add_source"`
	Component  string       `mapstructure:"component" yaml:"component" json:"component"`
	Version    string       `mapstructure:"version" yaml:"version" json:"version"`
	TimeFormat string       `mapstructure:"time_format" yaml:"time_format" json:"time_format"`
}

// DefaultConfig returns a sensible default configuration
func DefaultConfig() LoggerConfig {
	return LoggerConfig{
		Level:      LevelInfo,
		Format:     FormatText,
		AddSource:  false,
		Component:  "vpn-bot",
		Version:    "unknown",
		TimeFormat: time.RFC3339,
	}
}

// New creates a new logger with the provided configuration
func New(config LoggerConfig) *Logger {
	level := parseLogLevel(config.Level)
	handler := createHandler(config, level)

	slogger := slog.New(handler).With(
		slog.String("component", config.Component),
	)

	return &Logger{
		Logger: slogger,
		config: config,
	}
}

// NewDevelopment creates a logger optimized for development
func NewDevelopment(component string) *Logger {
	return New(LoggerConfig{
		Level:      LevelDebug,
		Format:     FormatText,
		AddSource:  true,
		Component:  component,
		Version:    "dev",
		TimeFormat: time.Kitchen,
	})
}

// NewProduction creates a logger optimized for production
func NewProduction(component, version string) *Logger {
	return New(LoggerConfig{
		Level:      LevelInfo,
		Format:     FormatJSON,
		AddSource:  false,
		Component:  component,
		Version:    version,
		TimeFormat: time.RFC3339,
	})
}

// Context keys for structured logging
type contextKey string

const (
	RequestIDKey contextKey = "request_id"
	ChatIDKey    contextKey = "chat_id"
	OperationKey contextKey = "operation"
)

// With returns a new logger with additional attributes
func (l *Logger) With(args ...any) *Logger {
	return &Logger{
		Logger: l.Logger.With(args...),
		config: l.config,
	}
}

// WithComponent returns a logger scoped to a sub-component
func (l *Logger) WithComponent(name string) *Logger {
	cfg := l.config
	cfg.Component = name
	return &Logger{
		Logger: l.Logger.With(slog.String("component", name)),
		config: cfg,
	}
}

// WithContext extracts logging context and returns a scoped logger
func (l *Logger) WithContext(ctx context.Context) *Logger {
	attrs := extractContextAttrs(ctx)
	if len(attrs) == 0 {
		return l
	}

	return &Logger{
		Logger: l.Logger.With(attrsToAny(attrs)...),
		config: l.config,
	}
}

// ErrorCtx logs an error with automatic context enrichment
func (l *Logger) ErrorCtx(ctx context.Context, msg string, err error, args ...any) {
	attrs := []any{slog.String("error", err.Error())}
	attrs = append(attrs, args...)
	l.WithContext(ctx).Error(msg, attrs...)
}

// InfoContext logs at Info level with context
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Info(msg, args...)
}

// DebugContext logs at Debug level with context
func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Debug(msg, args...)
}

// WarnContext logs at Warn level with context
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any) {
	l.WithContext(ctx).Warn(msg, args...)
}

// Unwrap returns the underlying slog.Logger for direct access
func (l *Logger) Unwrap() *slog.Logger {
	return l.Logger
}

// Helper functions

func parseLogLevel(level LogLevel) slog.Level {
	switch level {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

func createHandler(config LoggerConfig, level slog.Level) slog.Handler {
	opts := &slog.HandlerOptions{
		Level:     level,
		AddSource: config.AddSource,
	}

	switch config.Format {
	case FormatText:
		return tint.NewHandler(os.Stdout, &tint.Options{
			Level:      level,
			TimeFormat: config.TimeFormat,
			AddSource:  config.AddSource,
		})
	default:
		return slog.NewJSONHandler(os.Stdout, opts)
	}
}

func extractContextAttrs(ctx context.Context) []slog.Attr {
	var attrs []slog.Attr

	if v, ok := ctx.Value(RequestIDKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String(string(RequestIDKey), v))
	}
	if v, ok := ctx.Value(ChatIDKey).(int64); ok && v != 0 {
		attrs = append(attrs, slog.Int64(string(ChatIDKey), v))
	}
	if v, ok := ctx.Value(OperationKey).(string); ok && v != "" {
		attrs = append(attrs, slog.String(string(OperationKey), v))
	}

	return attrs
}

func attrsToAny(attrs []slog.Attr) []any {
	result := make([]any, len(attrs))
	for i, attr := range attrs {
		result[i] = attr
	}
	return result
}

// Context helper functions for adding IDs to context

func WithRequestID(ctx context.Context, id string) context.Context {
	return context.WithValue(ctx, RequestIDKey, id)
}

func WithChatID(ctx context.Context, id int64) context.Context {
	return context.WithValue(ctx, ChatIDKey, id)
}

func WithOperation(ctx context.Context, operation string) context.Context {
	return context.WithValue(ctx, OperationKey, operation)
}

// Getters for context values

func GetRequestID(ctx context.Context) string {
	if v, ok := ctx.Value(RequestIDKey).(string); ok {
		return v
	}
	return ""
}

func GetChatID(ctx context.Context) int64 {
	if v, ok := ctx.Value(ChatIDKey).(int64); ok {
		return v
	}
	return 0
}
