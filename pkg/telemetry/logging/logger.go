package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
)

// LogFormat is the output encoding for log lines.
type LogFormat string

const (
	FormatJSON LogFormat = "json"
	FormatText LogFormat = "text"
)

// Config configures a Logger.
type Config struct {
	// Level is the minimum log level: trace, debug, info, warn, error.
	// trace is treated as slog.LevelDebug-4 (TraceLevel), since slog has no native
	// trace level.
	Level string

	// Format selects json or text encoding. Default: json.
	Format string

	// RedactPII enables scrubbing credential-shaped values out of log
	// arguments before they reach the handler.
	RedactPII bool

	// Writer is the underlying sink. Defaults to os.Stdout.
	Writer io.Writer
}

// Logger wraps a *slog.Logger with PII redaction and request-scoped field
// extraction from context.
type Logger struct {
	slog     *slog.Logger
	redactor *Redactor
}

// New builds a Logger from cfg.
func New(cfg Config) (*Logger, error) {
	level, err := parseLevel(cfg.Level)
	if err != nil {
		return nil, fmt.Errorf("telemetry/logging: %w", err)
	}
	format, err := parseFormat(cfg.Format)
	if err != nil {
		return nil, fmt.Errorf("telemetry/logging: %w", err)
	}

	writer := cfg.Writer
	if writer == nil {
		writer = os.Stdout
	}

	opts := &slog.HandlerOptions{Level: level}
	var base slog.Handler
	switch format {
	case FormatText:
		base = slog.NewTextHandler(writer, opts)
	default:
		base = slog.NewJSONHandler(writer, opts)
	}

	var redactor *Redactor
	if cfg.RedactPII {
		redactor = NewRedactor()
	}

	// Wrapping here, rather than only in Logger's own methods, means the
	// *slog.Logger handed out by Slog() carries the same redaction and
	// context extraction even when a caller bypasses Logger entirely.
	handler := newRedactingHandler(base, redactor)

	return &Logger{slog: slog.New(handler), redactor: redactor}, nil
}

// TraceLevel sits one step below slog.LevelDebug, matching the CLI's
// five-level --log-level vocabulary against slog's four native levels.
const TraceLevel = slog.LevelDebug - 4

func parseLevel(s string) (slog.Level, error) {
	switch s {
	case "trace":
		return TraceLevel, nil
	case "debug":
		return slog.LevelDebug, nil
	case "info", "":
		return slog.LevelInfo, nil
	case "warn", "warning":
		return slog.LevelWarn, nil
	case "error":
		return slog.LevelError, nil
	default:
		return slog.LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func parseFormat(s string) (LogFormat, error) {
	switch s {
	case "json", "":
		return FormatJSON, nil
	case "text":
		return FormatText, nil
	default:
		return FormatJSON, fmt.Errorf("unknown log format %q", s)
	}
}

// log forwards straight to the underlying *slog.Logger. Context extraction
// and redaction happen once, in the redactingHandler installed by New, so
// they apply the same way here as they do to any call made directly
// against Slog() — e.g. through slog.SetDefault.
func (l *Logger) log(ctx context.Context, level slog.Level, msg string, args ...any) {
	l.slog.Log(ctx, level, msg, args...)
}

func (l *Logger) Debug(msg string, args ...any) { l.log(context.Background(), slog.LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...any)  { l.log(context.Background(), slog.LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...any)  { l.log(context.Background(), slog.LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...any) { l.log(context.Background(), slog.LevelError, msg, args...) }

func (l *Logger) DebugContext(ctx context.Context, msg string, args ...any) { l.log(ctx, slog.LevelDebug, msg, args...) }
func (l *Logger) InfoContext(ctx context.Context, msg string, args ...any)  { l.log(ctx, slog.LevelInfo, msg, args...) }
func (l *Logger) WarnContext(ctx context.Context, msg string, args ...any)  { l.log(ctx, slog.LevelWarn, msg, args...) }
func (l *Logger) ErrorContext(ctx context.Context, msg string, args ...any) { l.log(ctx, slog.LevelError, msg, args...) }

// Slog returns the underlying *slog.Logger, for code that must hand a
// plain slog.Logger to a collaborator (e.g. config.NewStore).
func (l *Logger) Slog() *slog.Logger { return l.slog }

// With returns a Logger that always includes the given fields.
func (l *Logger) With(args ...any) *Logger {
	return &Logger{slog: l.slog.With(args...), redactor: l.redactor}
}
