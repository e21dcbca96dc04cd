package logx

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"sync"
	"sync/atomic"

	"github.com/rs/zerolog"
)

// Context is the logging engine state: the sink registry, the root level and
// the diagnostic logger. It replaces any process-wide logger; create one with
// New, hand out Loggers from it and Close it on shutdown.
type Context struct {
	mu    sync.Mutex // serializes registry writers
	sinks atomic.Pointer[[]Sink]

	level      atomic.Int32
	configured atomic.Bool
	closed     atomic.Bool

	zl   zerolog.Logger
	diag Logger
	done chan struct{}
}

type Option func(*Context)

// WithDiagnostics sets where the context reports its own failures.
func WithDiagnostics(l Logger) Option {
	return func(c *Context) { c.diag = l }
}

// WithLevel sets the initial root level (default Info).
func WithLevel(level Level) Option {
	return func(c *Context) { c.level.Store(int32(level)) }
}

// zerolog's field knobs are process globals read on every event; set them
// once, before any Context can log.
func init() {
	zerolog.ErrorFieldName = "err"
	zerolog.TimeFieldFormat = consoleTimeFormat
}

// New creates an unconfigured context with no sinks.
func New(opts ...Option) *Context {
	c := &Context{done: make(chan struct{})}
	c.level.Store(int32(LevelInfo))
	for _, opt := range opts {
		if opt != nil {
			opt(c)
		}
	}
	if c.diag.IsZero() {
		c.diag = NewConsole(Stderr(), LevelInfo)
	}
	c.diag = c.diag.Named("logx")
	c.zl = zerolog.New(dispatcher{c: c}).With().Timestamp().Logger()
	return c
}

func (c *Context) current() zerolog.Logger {
	if c.closed.Load() {
		return zerolog.Nop()
	}
	return c.zl.Level(c.Level().zerolog())
}

// Root returns the root logger.
func (c *Context) Root() Logger { return Logger{ctx: c} }

// Logger returns a logger carrying name as its originating logger name.
func (c *Context) Logger(name string) Logger { return c.Root().Named(name) }

// Diagnostics returns the logger the context reports its own failures on.
func (c *Context) Diagnostics() Logger { return c.diag }

func (c *Context) Level() Level { return Level(c.level.Load()) }

// SetLevel changes the root level. Records below it never reach any sink.
func (c *Context) SetLevel(level Level) { c.level.Store(int32(level)) }

// Configured reports whether the context has been activated by configuration
// or sink registration.
func (c *Context) Configured() bool { return c.configured.Load() }

func (c *Context) SetConfigured(v bool) { c.configured.Store(v) }

// Closed reports whether Close has been called.
func (c *Context) Closed() bool { return c.closed.Load() }

// Done is closed when the context is closed.
func (c *Context) Done() <-chan struct{} { return c.done }

// AddSink appends s to the registry. Names are not deduplicated: adding two
// sinks with the same name registers both.
func (c *Context) AddSink(s Sink) error {
	if s == nil {
		return ErrNilSink
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed.Load() {
		return ErrClosed
	}
	next := append(slices.Clone(c.snapshot()), s)
	c.sinks.Store(&next)
	return nil
}

// RemoveSink detaches every sink called name and returns them. Removed sinks
// are not closed.
func (c *Context) RemoveSink(name string) []Sink {
	c.mu.Lock()
	defer c.mu.Unlock()
	cur := c.snapshot()
	var removed []Sink
	next := make([]Sink, 0, len(cur))
	for _, s := range cur {
		if s.Name() == name {
			removed = append(removed, s)
			continue
		}
		next = append(next, s)
	}
	c.sinks.Store(&next)
	return removed
}

// SwapSinks atomically removes old (by identity) and appends add, then closes
// the removed sinks that implement io.Closer.
func (c *Context) SwapSinks(old, add []Sink) error {
	c.mu.Lock()
	if c.closed.Load() {
		c.mu.Unlock()
		return ErrClosed
	}
	cur := c.snapshot()
	next := make([]Sink, 0, len(cur)+len(add))
	for _, s := range cur {
		if !slices.Contains(old, s) {
			next = append(next, s)
		}
	}
	for _, s := range add {
		if s != nil {
			next = append(next, s)
		}
	}
	c.sinks.Store(&next)
	c.mu.Unlock()

	return closeSinks(old)
}

// Sink returns the first registered sink called name.
func (c *Context) Sink(name string) (Sink, bool) {
	for _, s := range c.snapshot() {
		if s.Name() == name {
			return s, true
		}
	}
	return nil, false
}

// Sinks returns the registered sinks in registration order.
func (c *Context) Sinks() []Sink { return slices.Clone(c.snapshot()) }

func (c *Context) snapshot() []Sink {
	p := c.sinks.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Close stops delivery, empties the registry and closes sinks that implement
// io.Closer. Logging through the context afterwards is a no-op.
func (c *Context) Close() error {
	c.mu.Lock()
	if c.closed.Swap(true) {
		c.mu.Unlock()
		return nil
	}
	sinks := c.snapshot()
	c.sinks.Store(nil)
	c.configured.Store(false)
	close(c.done)
	c.mu.Unlock()

	return closeSinks(sinks)
}

func closeSinks(sinks []Sink) error {
	var errs []error
	for _, s := range sinks {
		if cl, ok := s.(io.Closer); ok {
			if err := cl.Close(); err != nil {
				errs = append(errs, fmt.Errorf("close sink %q: %w", s.Name(), err))
			}
		}
	}
	return errors.Join(errs...)
}

// dispatcher is the zerolog output of a Context: it decodes each event line
// once and fans it out to the accepting sinks in registration order.
type dispatcher struct{ c *Context }

func (d dispatcher) Write(p []byte) (int, error) {
	return d.WriteLevel(zerolog.NoLevel, p)
}

func (d dispatcher) WriteLevel(level zerolog.Level, p []byte) (int, error) {
	c := d.c
	if c.closed.Load() {
		return len(p), nil
	}
	sinks := c.snapshot()
	if len(sinks) == 0 {
		return len(p), nil
	}

	rec, err := decodeRecord(p, level)
	if err != nil {
		c.diag.Warn("dropping undecodable record", Err(err))
		return len(p), nil
	}

	for _, s := range sinks {
		if !s.Accepts(rec.Level) {
			continue
		}
		if err := s.Write(rec); err != nil {
			c.diag.Error("sink write failed", String("sink", s.Name()), Err(err))
		}
	}
	return len(p), nil
}
