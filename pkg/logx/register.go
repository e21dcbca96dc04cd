package logx

import (
	"fmt"
	"sync"
)

var (
	fallbackOnce sync.Once
	fallbackDiag Logger
)

// diagnostics returns c's diagnostic logger, or a stderr logger for nil c.
func diagnostics(c *Context) Logger {
	if c != nil {
		return c.diag
	}
	fallbackOnce.Do(func() { fallbackDiag = NewConsole(Stderr(), LevelInfo).Named("logx") })
	return fallbackDiag
}

// TryAddEventSink attaches a new EventSink called name to c, then opens the
// root level to every record and marks c configured. Failures are logged on
// the diagnostic channel and returned in the Result, and leave c untouched;
// it never panics.
func TryAddEventSink(c *Context, name string) (res Result[*EventSink]) {
	defer func() {
		if p := recover(); p != nil {
			err := fmt.Errorf("add event sink %q: panic: %v", name, p)
			diagnostics(c).Error("failed to add event sink", Err(err))
			res = Fail[*EventSink](err)
		}
	}()

	if c == nil {
		diagnostics(c).Error("failed to add event sink", String("sink", name), Err(ErrNilContext))
		return Fail[*EventSink](ErrNilContext)
	}

	s, err := NewEventSink(name)
	if err != nil {
		err = fmt.Errorf("create event sink %q: %w", name, err)
		c.diag.Error("failed to create event sink", Err(err))
		return Fail[*EventSink](err)
	}
	if err := c.AddSink(s); err != nil {
		err = fmt.Errorf("attach event sink %q: %w", name, err)
		c.diag.Error("failed to add event sink", Err(err))
		return Fail[*EventSink](err)
	}

	c.SetLevel(LevelDebug)
	c.SetConfigured(true)
	return Ok(s)
}

// TrySetVerbose switches the "file" sink between verbose ([Debug, Fatal]) and
// quiet ([Error, Fatal]) output. It reports false when that sink is missing or
// is not a *FileSink.
func TrySetVerbose(c *Context, verbose bool) (ok bool) {
	defer func() {
		if p := recover(); p != nil {
			diagnostics(c).Error("failed to set file log level", Any("panic", p))
			ok = false
		}
	}()

	if c == nil {
		diagnostics(c).Warn("failed to set file log level", Err(ErrNilContext))
		return false
	}

	s, found := c.Sink(FileSinkName)
	if !found {
		c.diag.Warn("failed to set file log level", String("sink", FileSinkName), Err(ErrSinkNotFound))
		return false
	}
	fs, isFile := s.(*FileSink)
	if !isFile {
		c.diag.Warn("failed to set file log level",
			String("sink", FileSinkName),
			String("kind", fmt.Sprintf("%T", s)),
			Err(ErrSinkKind),
		)
		return false
	}

	r := QuietRange
	if verbose {
		r = VerboseRange
	}
	fs.SetFilter(r)
	c.diag.Debug("file log level changed", String("range", r.String()))
	return true
}
