// Package logger provides the leveled, field-aware logger used across
// diffparse. Diff content can carry credentials, so messages and string
// fields pass through secret masking before they are written.
package logger

import (
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"time"
)

// Level represents logging levels
type Level int

const (
	LevelDebug Level = iota
	LevelInfo
	LevelWarn
	LevelError
)

var levelNames = [...]string{"DEBUG", "INFO", "WARN", "ERROR"}

func (l Level) String() string {
	if l < LevelDebug || l > LevelError {
		return "UNKNOWN"
	}
	return levelNames[l]
}

// ParseLevel maps a level name such as "debug" or "WARN" to a Level. The
// empty name means info.
func ParseLevel(name string) (Level, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "debug":
		return LevelDebug, nil
	case "info", "":
		return LevelInfo, nil
	case "warn", "warning":
		return LevelWarn, nil
	case "error":
		return LevelError, nil
	}
	return LevelInfo, fmt.Errorf("unknown log level %q", name)
}

const timeFormat = "2006-01-02T15:04:05.000Z07:00"

// sink is the state shared by a logger and every logger derived from it.
type sink struct {
	mu    sync.Mutex
	w     io.Writer
	level Level
	masks []MaskFunc
}

type field struct {
	key   string
	value any
}

// Logger writes one line per entry:
//
//	<time> <LEVEL> [prefix] message key=value ...
//
// Loggers returned by WithField, WithFields and WithPrefix share level,
// output and masks with their parent.
type Logger struct {
	sink   *sink
	prefix string
	fields []field // sorted by key
}

var (
	defaultLogger *Logger
	defaultOnce   sync.Once
)

// Default returns the package logger. It writes warnings and errors to
// stderr so that command output on stdout stays machine-readable.
func Default() *Logger {
	defaultOnce.Do(func() {
		defaultLogger = New(LevelWarn, os.Stderr)
	})
	return defaultLogger
}

// New creates a logger writing entries at level or above to w.
func New(level Level, w io.Writer) *Logger {
	return &Logger{sink: &sink{w: w, level: level, masks: []MaskFunc{maskPatterns}}}
}

// SetLevel changes the minimum level.
func (l *Logger) SetLevel(level Level) {
	l.sink.mu.Lock()
	l.sink.level = level
	l.sink.mu.Unlock()
}

// Enabled reports whether messages at level are written.
func (l *Logger) Enabled(level Level) bool {
	l.sink.mu.Lock()
	defer l.sink.mu.Unlock()
	return level >= l.sink.level
}

// SetOutput redirects the logger.
func (l *Logger) SetOutput(w io.Writer) {
	l.sink.mu.Lock()
	l.sink.w = w
	l.sink.mu.Unlock()
}

// AddMaskFunc adds a masking step applied after the built-in patterns.
func (l *Logger) AddMaskFunc(fn MaskFunc) {
	l.sink.mu.Lock()
	l.sink.masks = append(l.sink.masks, fn)
	l.sink.mu.Unlock()
}

// WithField returns a logger that adds key=value to every entry.
func (l *Logger) WithField(key string, value any) *Logger {
	return l.with(l.prefix, field{key, value})
}

// WithFields is WithField for several fields.
func (l *Logger) WithFields(fields map[string]any) *Logger {
	add := make([]field, 0, len(fields))
	for k, v := range fields {
		add = append(add, field{k, v})
	}
	return l.with(l.prefix, add...)
}

// WithPrefix returns a logger that tags entries with [prefix].
func (l *Logger) WithPrefix(prefix string) *Logger {
	return l.with(prefix)
}

func (l *Logger) with(prefix string, add ...field) *Logger {
	merged := make([]field, 0, len(l.fields)+len(add))
	merged = append(merged, l.fields...)
	for _, f := range add {
		i := sort.Search(len(merged), func(i int) bool { return merged[i].key >= f.key })
		switch {
		case i < len(merged) && merged[i].key == f.key:
			merged[i] = f
		default:
			merged = append(merged, field{})
			copy(merged[i+1:], merged[i:])
			merged[i] = f
		}
	}
	return &Logger{sink: l.sink, prefix: prefix, fields: merged}
}

func (l *Logger) log(level Level, msg string, args []any) {
	s := l.sink
	s.mu.Lock()
	defer s.mu.Unlock()

	if level < s.level {
		return
	}
	if len(args) > 0 {
		msg = fmt.Sprintf(msg, args...)
	}

	var b strings.Builder
	b.WriteString(time.Now().Format(timeFormat))
	b.WriteByte(' ')
	b.WriteString(level.String())
	b.WriteByte(' ')
	if l.prefix != "" {
		b.WriteString("[" + l.prefix + "] ")
	}
	b.WriteString(s.mask(msg))
	for _, f := range l.fields {
		fmt.Fprintf(&b, " %s=%v", f.key, s.maskField(f.key, f.value))
	}
	b.WriteByte('\n')

	_, _ = io.WriteString(s.w, b.String())
}

// Debug logs a debug message
func (l *Logger) Debug(msg string, args ...any) { l.log(LevelDebug, msg, args) }

// Info logs an info message
func (l *Logger) Info(msg string, args ...any) { l.log(LevelInfo, msg, args) }

// Warn logs a warning message
func (l *Logger) Warn(msg string, args ...any) { l.log(LevelWarn, msg, args) }

// Error logs an error message
func (l *Logger) Error(msg string, args ...any) { l.log(LevelError, msg, args) }

// Debug logs a debug message using the default logger
func Debug(msg string, args ...any) { Default().log(LevelDebug, msg, args) }

// Info logs an info message using the default logger
func Info(msg string, args ...any) { Default().log(LevelInfo, msg, args) }

// Warn logs a warning message using the default logger
func Warn(msg string, args ...any) { Default().log(LevelWarn, msg, args) }

// Error logs an error message using the default logger
func Error(msg string, args ...any) { Default().log(LevelError, msg, args) }

// SetLevel sets the level of the default logger
func SetLevel(level Level) { Default().SetLevel(level) }

// SetOutput sets the output of the default logger
func SetOutput(w io.Writer) { Default().SetOutput(w) }

// WithField returns a child of the default logger.
func WithField(key string, value any) *Logger { return Default().WithField(key, value) }
