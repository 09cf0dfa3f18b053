// Package logger provides the leveled, component-scoped logger used across the
// service. Output goes through log/slog so every line carries structured fields.
package logger

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"
	"time"
)

// Level controls which messages are emitted
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
	LevelSilent
)

// ParseLevel converts a textual level (debug, info, warn, error, silent)
func ParseLevel(s string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug", "verbose":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	case "silent", "off", "none":
		return LevelSilent, nil
	default:
		return LevelInfo, fmt.Errorf("unknown log level %q", s)
	}
}

func (l Level) String() string {
	switch l {
	case LevelDebug:
		return "debug"
	case LevelInfo:
		return "info"
	case LevelWarn:
		return "warn"
	case LevelError:
		return "error"
	default:
		return "silent"
	}
}

func (l Level) slogLevel() slog.Level {
	switch l {
	case LevelDebug:
		return slog.LevelDebug
	case LevelInfo:
		return slog.LevelInfo
	case LevelWarn:
		return slog.LevelWarn
	case LevelError:
		return slog.LevelError
	default:
		return slog.LevelError + 4
	}
}

var (
	mu       sync.RWMutex
	levelVar = new(slog.LevelVar)
	current  = LevelInfo
	handler  slog.Handler
	out      io.Writer = os.Stderr

	progressTask  string
	progressStart time.Time
)

func init() {
	levelVar.Set(current.slogLevel())
	handler = slog.NewTextHandler(out, &slog.HandlerOptions{Level: levelVar})
}

// SetLevel changes the global minimum level
func SetLevel(l Level) {
	mu.Lock()
	defer mu.Unlock()
	current = l
	levelVar.Set(l.slogLevel())
}

// GetLevel returns the global minimum level
func GetLevel() Level {
	mu.RLock()
	defer mu.RUnlock()
	return current
}

// SetOutput redirects log output. format is "text" or "json".
func SetOutput(w io.Writer, format string) {
	mu.Lock()
	defer mu.Unlock()
	out = w
	opts := &slog.HandlerOptions{Level: levelVar}
	if strings.EqualFold(format, "json") {
		handler = slog.NewJSONHandler(w, opts)
		return
	}
	handler = slog.NewTextHandler(w, opts)
}

// Configure applies the verbosity flags shared by every command.
// Without either flag the configured level is left untouched.
func Configure(debug, verbose bool) {
	if debug || verbose {
		SetLevel(LevelDebug)
	}
}

// Logger writes messages tagged with a component and a set of fields
type Logger struct {
	component string
	fields    map[string]interface{}
}

var std = &Logger{}

// New returns a logger for a named component
func New(component string) *Logger {
	return &Logger{component: component}
}

// WithField returns a copy of the logger carrying an extra field
func (l *Logger) WithField(key string, value interface{}) *Logger {
	return l.WithFields(map[string]interface{}{key: value})
}

// WithFields returns a copy of the logger carrying extra fields
func (l *Logger) WithFields(fields map[string]interface{}) *Logger {
	merged := make(map[string]interface{}, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &Logger{component: l.component, fields: merged}
}

func (l *Logger) Debug(msg string, args ...interface{}) { l.log(LevelDebug, msg, args...) }
func (l *Logger) Info(msg string, args ...interface{})  { l.log(LevelInfo, msg, args...) }
func (l *Logger) Warn(msg string, args ...interface{})  { l.log(LevelWarn, msg, args...) }
func (l *Logger) Error(msg string, args ...interface{}) { l.log(LevelError, msg, args...) }

func (l *Logger) log(level Level, msg string, args ...interface{}) {
	mu.RLock()
	h := handler
	min := current
	mu.RUnlock()

	if level < min || min == LevelSilent {
		return
	}

	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	attrs := make([]slog.Attr, 0, len(l.fields)+1)
	if l.component != "" {
		attrs = append(attrs, slog.String("component", l.component))
	}
	for k, v := range l.fields {
		attrs = append(attrs, slog.Any(k, v))
	}

	record := slog.NewRecord(time.Now(), level.slogLevel(), msg, 0)
	record.AddAttrs(attrs...)
	_ = h.Handle(context.Background(), record)
}

// Package-level helpers log without a component

func Debug(msg string, args ...interface{}) { std.Debug(msg, args...) }
func Info(msg string, args ...interface{})  { std.Info(msg, args...) }
func Warn(msg string, args ...interface{})  { std.Warn(msg, args...) }
func Error(msg string, args ...interface{}) { std.Error(msg, args...) }

func WithField(key string, value interface{}) *Logger { return std.WithField(key, value) }

func WithFields(fields map[string]interface{}) *Logger { return std.WithFields(fields) }

// StartProgress marks the beginning of a long running task
func StartProgress(task string) {
	mu.Lock()
	progressTask = task
	progressStart = time.Now()
	mu.Unlock()
	Info("%s...", task)
}

// UpdateProgress reports an intermediate step of the current task
func UpdateProgress(step string) {
	mu.RLock()
	task := progressTask
	mu.RUnlock()
	WithField("task", task).Debug(step)
}

// EndProgress reports completion of the current task
func EndProgress(success bool) {
	mu.Lock()
	task, started := progressTask, progressStart
	progressTask = ""
	mu.Unlock()

	l := WithFields(map[string]interface{}{"task": task, "duration": time.Since(started).Round(time.Millisecond)})
	if success {
		l.Info("done")
		return
	}
	l.Error("failed")
}
