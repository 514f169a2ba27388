// Package logging provides the structured logger used across the service,
// backed by zerolog, plus the context keys that carry request identity.
package logging

import (
	"context"
	"io"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"
)

type contextKey string

const (
	// TraceIDKey carries the request trace ID through the context.
	TraceIDKey contextKey = "trace_id"
	// UserIDKey carries the authenticated user ID through the context.
	UserIDKey contextKey = "user_id"
	// RoleKey carries the authenticated user role through the context.
	RoleKey contextKey = "role"
)

// Config controls the logger sinks. Rotation, retention and compression are
// recorded for the log shipper; the process itself only appends.
type Config struct {
	Level   string
	Console ConsoleSink
	File    FileSink
	JSON    FileSink
}

// ConsoleSink configures human-readable console output.
type ConsoleSink struct {
	Enabled  bool
	Colorize bool
}

// FileSink configures an append-only log file.
type FileSink struct {
	Enabled     bool
	Path        string
	Rotation    string
	Retention   string
	Compression string
}

// Logger is the service-wide structured logger.
type Logger struct {
	zl zerolog.Logger
}

// New creates a logger writing JSON to stderr at the given level. Used by
// tests and as the pre-config bootstrap logger.
func New(service, level string) *Logger {
	zl := zerolog.New(os.Stderr).Level(parseLevel(level)).With().
		Timestamp().
		Str("service", service).
		Logger()
	return &Logger{zl: zl}
}

// NewFromConfig builds a logger from the resolved logging configuration.
// File sinks that cannot be opened are skipped with a warning on stderr.
func NewFromConfig(service string, cfg Config) *Logger {
	var writers []io.Writer

	if cfg.Console.Enabled {
		writers = append(writers, zerolog.ConsoleWriter{
			Out:        os.Stderr,
			NoColor:    !cfg.Console.Colorize,
			TimeFormat: time.RFC3339,
		})
	}
	for _, sink := range []FileSink{cfg.File, cfg.JSON} {
		if !sink.Enabled || sink.Path == "" {
			continue
		}
		if w := openLogFile(sink.Path); w != nil {
			writers = append(writers, w)
		}
	}
	if len(writers) == 0 {
		writers = append(writers, os.Stderr)
	}

	zl := zerolog.New(zerolog.MultiLevelWriter(writers...)).
		Level(parseLevel(cfg.Level)).With().
		Timestamp().
		Str("service", service).
		Logger()
	return &Logger{zl: zl}
}

func openLogFile(path string) io.Writer {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_APPEND|os.O_WRONLY, 0o644)
	if err != nil {
		return nil
	}
	return f
}

func parseLevel(level string) zerolog.Level {
	switch strings.ToLower(level) {
	case "debug", "trace":
		return zerolog.DebugLevel
	case "warn", "warning":
		return zerolog.WarnLevel
	case "error", "critical":
		return zerolog.ErrorLevel
	default:
		return zerolog.InfoLevel
	}
}

// WithContext returns a logger annotated with the identity fields present in
// ctx (trace ID, user ID, role).
func (l *Logger) WithContext(ctx context.Context) *Logger {
	zl := l.zl
	if traceID := GetTraceID(ctx); traceID != "" {
		zl = zl.With().Str("trace_id", traceID).Logger()
	}
	if userID := GetUserID(ctx); userID != "" {
		zl = zl.With().Str("user_id", userID).Logger()
	}
	if role := GetRole(ctx); role != "" {
		zl = zl.With().Str("role", role).Logger()
	}
	return &Logger{zl: zl}
}

// WithError returns a logger annotated with err.
func (l *Logger) WithError(err error) *Logger {
	return &Logger{zl: l.zl.With().Err(err).Logger()}
}

// WithFields returns a logger annotated with the given fields.
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	return &Logger{zl: l.zl.With().Fields(fields).Logger()}
}

func (l *Logger) Debug(msg string) { l.zl.Debug().Msg(msg) }
func (l *Logger) Info(msg string)  { l.zl.Info().Msg(msg) }
func (l *Logger) Warn(msg string)  { l.zl.Warn().Msg(msg) }
func (l *Logger) Error(msg string) { l.zl.Error().Msg(msg) }

func (l *Logger) Debugf(format string, args ...interface{}) { l.zl.Debug().Msgf(format, args...) }
func (l *Logger) Infof(format string, args ...interface{})  { l.zl.Info().Msgf(format, args...) }
func (l *Logger) Warnf(format string, args ...interface{})  { l.zl.Warn().Msgf(format, args...) }
func (l *Logger) Errorf(format string, args ...interface{}) { l.zl.Error().Msgf(format, args...) }

// LogRequest emits the access-log line for a completed HTTP request.
func (l *Logger) LogRequest(ctx context.Context, method, path string, status int, duration time.Duration) {
	l.WithContext(ctx).zl.Info().
		Str("method", method).
		Str("path", path).
		Int("status", status).
		Dur("duration", duration).
		Msg("http request")
}

// LogSecurityEvent emits a warning-level record about a security-relevant
// decision (rejected token, exceeded rate limit, untrusted proxy).
func (l *Logger) LogSecurityEvent(ctx context.Context, event string, fields map[string]interface{}) {
	l.WithContext(ctx).zl.Warn().
		Str("event", event).
		Fields(fields).
		Msg("security event")
}

// NewTraceID generates a fresh trace ID.
func NewTraceID() string { return uuid.NewString() }

// WithTraceID stores a trace ID in the context.
func WithTraceID(ctx context.Context, traceID string) context.Context {
	if traceID == "" {
		return ctx
	}
	return context.WithValue(ctx, TraceIDKey, traceID)
}

// GetTraceID returns the trace ID stored in ctx, if any.
func GetTraceID(ctx context.Context) string { return stringValue(ctx, TraceIDKey) }

// GetUserID returns the authenticated user ID stored in ctx, if any.
func GetUserID(ctx context.Context) string { return stringValue(ctx, UserIDKey) }

// GetRole returns the authenticated role stored in ctx, if any.
func GetRole(ctx context.Context) string { return stringValue(ctx, RoleKey) }

func stringValue(ctx context.Context, key contextKey) string {
	if v, ok := ctx.Value(key).(string); ok {
		return v
	}
	return ""
}
