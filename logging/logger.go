package logging

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"runtime"
	"time"
)

// LogLevel is a thin enum for user friendly level configuration decoupled
// from slog levels.
type LogLevel int

const (
	LogLevelDebug LogLevel = iota
	LogLevelInfo
	LogLevelWarn
	LogLevelError
)

// String returns the level name in upper case.
func (l LogLevel) String() string {
	switch l {
	case LogLevelDebug:
		return "DEBUG"
	case LogLevelInfo:
		return "INFO"
	case LogLevelWarn:
		return "WARN"
	case LogLevelError:
		return "ERROR"
	default:
		return "UNKNOWN"
	}
}

func slogLevel(l LogLevel) slog.Level {
	switch l {
	case LogLevelDebug:
		return slog.LevelDebug
	case LogLevelWarn:
		return slog.LevelWarn
	case LogLevelError:
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}

// Logger is the minimal interface every component logs through. Args are
// alternating key/value pairs, slog style. Callers may plug in their own
// implementation; NoOpLogger is the default everywhere.
type Logger interface {
	Debug(msg string, args ...any)
	Info(msg string, args ...any)
	Warn(msg string, args ...any)
	Error(msg string, args ...any)
}

// SlogAdapter exposes an existing *slog.Logger as a Logger.
type SlogAdapter struct {
	*slog.Logger
}

func (s *SlogAdapter) Debug(msg string, args ...any) { s.Logger.Debug(msg, args...) }
func (s *SlogAdapter) Info(msg string, args ...any)  { s.Logger.Info(msg, args...) }
func (s *SlogAdapter) Warn(msg string, args ...any)  { s.Logger.Warn(msg, args...) }
func (s *SlogAdapter) Error(msg string, args ...any) { s.Logger.Error(msg, args...) }

// NewSlogAdapter wraps a *slog.Logger.
func NewSlogAdapter(logger *slog.Logger) Logger {
	return &SlogAdapter{Logger: logger}
}

// NewDefaultSlogLogger wraps slog.Default().
func NewDefaultSlogLogger() Logger {
	return NewSlogAdapter(slog.Default())
}

// NoOpLogger discards everything. The default when no logger is configured.
type NoOpLogger struct{}

func (NoOpLogger) Debug(string, ...any) {}
func (NoOpLogger) Info(string, ...any)  {}
func (NoOpLogger) Warn(string, ...any)  {}
func (NoOpLogger) Error(string, ...any) {}

// RoundtableLogger is the full-featured Logger: slog underneath, cheap
// contextual copies via the With helpers, and convenience methods for the
// recurring events (turns, tool calls, model calls).
type RoundtableLogger struct {
	logger    *slog.Logger
	level     LogLevel
	context   map[string]interface{}
	component string
	sessionID string
}

// LoggerConfig configures construction of a RoundtableLogger.
type LoggerConfig struct {
	Level     LogLevel
	Format    string // "json" or "text"
	Output    io.Writer
	AddSource bool
	Component string
	SessionID string
	// CustomAttrs are attached to every entry.
	CustomAttrs map[string]interface{}
}

// DefaultLoggerConfig returns JSON output at info level with source locations.
func DefaultLoggerConfig() *LoggerConfig {
	return &LoggerConfig{
		Level:       LogLevelInfo,
		Format:      "json",
		Output:      os.Stdout,
		AddSource:   true,
		CustomAttrs: map[string]interface{}{},
	}
}

// NewLogger builds a RoundtableLogger from cfg, or from defaults when cfg is
// nil.
func NewLogger(cfg *LoggerConfig) *RoundtableLogger {
	if cfg == nil {
		cfg = DefaultLoggerConfig()
	}

	opts := &slog.HandlerOptions{Level: slogLevel(cfg.Level), AddSource: cfg.AddSource}

	var handler slog.Handler
	if cfg.Format == "text" {
		handler = slog.NewTextHandler(cfg.Output, opts)
	} else {
		handler = slog.NewJSONHandler(cfg.Output, opts)
	}

	attrs := make(map[string]interface{}, len(cfg.CustomAttrs))
	for k, v := range cfg.CustomAttrs {
		attrs[k] = v
	}

	return &RoundtableLogger{
		logger:    slog.New(handler),
		level:     cfg.Level,
		context:   attrs,
		component: cfg.Component,
		sessionID: cfg.SessionID,
	}
}

// NewSlogLogger is the shorthand constructor for the common case.
func NewSlogLogger(level LogLevel, format string, addSource bool) *RoundtableLogger {
	cfg := DefaultLoggerConfig()
	cfg.Level = level
	if format != "" {
		cfg.Format = format
	}
	cfg.AddSource = addSource
	return NewLogger(cfg)
}

func (l *RoundtableLogger) clone() *RoundtableLogger {
	nl := *l
	nl.context = make(map[string]interface{}, len(l.context)+1)
	for k, v := range l.context {
		nl.context[k] = v
	}
	return &nl
}

// WithContext returns a copy that attaches key/value to every entry.
func (l *RoundtableLogger) WithContext(key string, value interface{}) *RoundtableLogger {
	nl := l.clone()
	nl.context[key] = value
	return nl
}

// WithComponent returns a copy scoped to a logical component (team, session,
// workbench, ...).
func (l *RoundtableLogger) WithComponent(c string) *RoundtableLogger {
	nl := l.clone()
	nl.component = c
	return nl
}

// WithSession returns a copy scoped to a session id.
func (l *RoundtableLogger) WithSession(sid string) *RoundtableLogger {
	nl := l.clone()
	nl.sessionID = sid
	return nl
}

func (l *RoundtableLogger) scopeAttrs() []slog.Attr {
	attrs := make([]slog.Attr, 0, len(l.context)+3)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	if l.sessionID != "" {
		attrs = append(attrs, slog.String("session_id", l.sessionID))
	}
	attrs = append(attrs, slog.Time("timestamp", time.Now()))
	for k, v := range l.context {
		attrs = append(attrs, slog.Any(k, v))
	}
	return attrs
}

// log emits one entry: scope attrs first, then the caller's key/value args.
func (l *RoundtableLogger) log(level slog.Level, msg string, args ...interface{}) {
	all := make([]any, 0, len(args)+8)
	for _, attr := range l.scopeAttrs() {
		all = append(all, attr)
	}
	all = append(all, args...)
	l.logger.Log(context.Background(), level, msg, all...)
}

// Debug implements Logger.
func (l *RoundtableLogger) Debug(msg string, args ...interface{}) {
	if l.level <= LogLevelDebug {
		l.log(slog.LevelDebug, msg, args...)
	}
}

// Info implements Logger.
func (l *RoundtableLogger) Info(msg string, args ...interface{}) {
	if l.level <= LogLevelInfo {
		l.log(slog.LevelInfo, msg, args...)
	}
}

// Warn implements Logger.
func (l *RoundtableLogger) Warn(msg string, args ...interface{}) {
	if l.level <= LogLevelWarn {
		l.log(slog.LevelWarn, msg, args...)
	}
}

// Error implements Logger.
func (l *RoundtableLogger) Error(msg string, args ...interface{}) {
	if l.level <= LogLevelError {
		l.log(slog.LevelError, msg, args...)
	}
}

// ErrorWithStack logs an error with a snapshot of the current stack. Extra
// args are key/value pairs like the other level methods.
func (l *RoundtableLogger) ErrorWithStack(err error, msg string, args ...interface{}) {
	if l.level > LogLevelError {
		return
	}

	stack := make([]byte, 4096)
	n := runtime.Stack(stack, false)

	all := append(args,
		slog.String("error", err.Error()),
		slog.String("error_type", fmt.Sprintf("%T", err)),
		slog.String("stack_trace", string(stack[:n])),
	)
	l.log(slog.LevelError, msg, all...)
}

// logOutcome emits a success/failure pair of messages with shared attrs.
func (l *RoundtableLogger) logOutcome(okMsg, failMsg string, success bool, err error, attrs []slog.Attr) {
	all := append(l.scopeAttrs(), attrs...)
	all = append(all, slog.Bool("success", success))
	if err != nil {
		all = append(all, slog.String("error", err.Error()))
	}

	level, msg := slog.LevelInfo, okMsg
	if !success {
		level, msg = slog.LevelError, failMsg
	}
	l.logger.LogAttrs(context.Background(), level, msg, all...)
}

// LogToolCall records one workbench or local tool invocation.
func (l *RoundtableLogger) LogToolCall(tool string, dur time.Duration, success bool, err error) {
	l.logOutcome("Tool execution completed", "Tool execution failed", success, err, []slog.Attr{
		slog.String("tool_name", tool),
		slog.Duration("duration", dur),
	})
}

// LogModelCall records one model call with its latency and token usage.
func (l *RoundtableLogger) LogModelCall(model string, tokens int, dur time.Duration, success bool, err error) {
	l.logOutcome("Model call completed", "Model call failed", success, err, []slog.Attr{
		slog.String("model", model),
		slog.Int("token_count", tokens),
		slog.Duration("duration", dur),
	})
}

// LogTurn records the outcome of a single participant turn.
func (l *RoundtableLogger) LogTurn(participant string, round int, dur time.Duration, success bool, err error) {
	l.logOutcome("Turn completed", "Turn failed", success, err, []slog.Attr{
		slog.String("participant", participant),
		slog.Int("round", round),
		slog.Duration("duration", dur),
	})
}

// StartTimer returns a closure that logs the elapsed duration when invoked.
func (l *RoundtableLogger) StartTimer(op string) func() {
	start := time.Now()
	return func() { l.Info("Operation completed", "operation", op, "duration", time.Since(start)) }
}

// LogPerformance logs arbitrary metrics for one operation.
func (l *RoundtableLogger) LogPerformance(op string, dur time.Duration, metrics map[string]interface{}) {
	attrs := l.scopeAttrs()
	attrs = append(attrs, slog.String("operation", op), slog.Duration("duration", dur))
	for k, v := range metrics {
		attrs = append(attrs, slog.Any("metric_"+k, v))
	}
	l.logger.LogAttrs(context.Background(), slog.LevelInfo, "Performance metrics", attrs...)
}
