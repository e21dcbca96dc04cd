package logx

import (
	"io"
	"path/filepath"
	"runtime"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
)

// Field mutates a zerolog event.
//
// This intentionally mirrors the ergonomics of slog.Attr without depending on slog.
// Use helpers like String(), Int(), Any(), Err(), Duration(), ...
//
// Fields are applied in-order. If you set the same key multiple times, later
// fields win in Record.Fields.
type Field func(e *zerolog.Event)

func String(k, v string) Field  { return func(e *zerolog.Event) { e.Str(k, v) } }
func Int(k string, v int) Field { return func(e *zerolog.Event) { e.Int(k, v) } }
func Int64(k string, v int64) Field {
	return func(e *zerolog.Event) { e.Int64(k, v) }
}
func Uint64(k string, v uint64) Field {
	return func(e *zerolog.Event) { e.Uint64(k, v) }
}
func Bool(k string, v bool) Field { return func(e *zerolog.Event) { e.Bool(k, v) } }
func Float64(k string, v float64) Field {
	return func(e *zerolog.Event) { e.Float64(k, v) }
}
func Duration(k string, v time.Duration) Field {
	return func(e *zerolog.Event) { e.Dur(k, v) }
}
func Time(k string, v time.Time) Field { return func(e *zerolog.Event) { e.Time(k, v) } }
func Any(k string, v any) Field        { return func(e *zerolog.Event) { e.Interface(k, v) } }
func Err(err error) Field {
	return func(e *zerolog.Event) {
		if err != nil {
			e.Err(err)
		}
	}
}

func Stack(stack string) Field {
	return func(e *zerolog.Event) {
		if strings.TrimSpace(stack) != "" {
			e.Str("stack", stack)
		}
	}
}

// Logger is a lightweight structured logger.
//
//   - If created from a Context, it follows the context's root level and sinks.
//   - Named() and With() return derived loggers; the receiver is not modified.
//   - Zero value is a safe no-op logger.
type Logger struct {
	ctx     *Context
	base    zerolog.Logger
	hasBase bool

	name   string
	fields []Field
}

// Nop returns a logger that never writes anything.
func Nop() Logger {
	return Logger{base: zerolog.Nop(), hasBase: true}
}

// NewConsole creates a standalone console logger (no Context, no sinks).
// Contexts use one on stderr as their diagnostic channel.
func NewConsole(w io.Writer, level Level) Logger {
	if w == nil {
		w = Stderr()
	}
	zl := zerolog.New(newConsoleWriter(w)).Level(level.zerolog()).With().Timestamp().Logger()
	return Logger{base: zl, hasBase: true}
}

func (l Logger) IsZero() bool { return l.ctx == nil && !l.hasBase && len(l.fields) == 0 }

func (l Logger) root() zerolog.Logger {
	if l.ctx != nil {
		return l.ctx.current()
	}
	if l.hasBase {
		return l.base
	}
	return zerolog.Nop()
}

// Name returns the logger name ("" for the root logger).
func (l Logger) Name() string { return l.name }

// Enabled reports whether the given level would be logged.
func (l Logger) Enabled(level Level) bool {
	zl := l.root()
	return level.zerolog() >= zl.GetLevel()
}

// Named returns a child logger. Names nest with dots: Named("a").Named("b") is "a.b".
func (l Logger) Named(name string) Logger {
	name = strings.TrimSpace(name)
	if name == "" {
		return l
	}
	cp := l
	if l.name != "" {
		cp.name = l.name + "." + name
	} else {
		cp.name = name
	}
	return cp
}

func (l Logger) With(fields ...Field) Logger {
	if len(fields) == 0 {
		return l
	}
	cp := l
	cp.fields = append(append([]Field(nil), l.fields...), fields...)
	return cp
}

func (l Logger) Debug(msg string, fields ...Field) { l.log(LevelDebug, msg, fields...) }
func (l Logger) Info(msg string, fields ...Field)  { l.log(LevelInfo, msg, fields...) }
func (l Logger) Warn(msg string, fields ...Field)  { l.log(LevelWarn, msg, fields...) }
func (l Logger) Error(msg string, fields ...Field) { l.log(LevelError, msg, fields...) }

// Fatal records at fatal level. It does not exit the process.
func (l Logger) Fatal(msg string, fields ...Field) { l.log(LevelFatal, msg, fields...) }

// Log records at an arbitrary level.
func (l Logger) Log(level Level, msg string, fields ...Field) { l.log(level, msg, fields...) }

func (l Logger) log(level Level, msg string, fields ...Field) {
	zl := l.root()
	e := zl.WithLevel(level.zerolog())
	if e == nil {
		return
	}

	// Caller: keep it short (file:line), avoid noisy function names and full paths.
	if caller := shortCaller(3); caller != "" {
		e.Str(zerolog.CallerFieldName, caller)
	}
	if l.name != "" {
		e.Str(LoggerFieldName, l.name)
	}

	// Fixed fields from With().
	for _, f := range l.fields {
		if f != nil {
			f(e)
		}
	}
	// Call-site fields.
	for _, f := range fields {
		if f != nil {
			f(e)
		}
	}

	e.Msg(msg)
}

func shortCaller(skip int) string {
	_, file, line, ok := runtime.Caller(skip)
	if !ok || file == "" {
		return ""
	}
	return filepath.Base(file) + ":" + strconv.Itoa(line)
}
