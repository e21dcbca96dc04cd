package logx

import "errors"

var (
	ErrEmptyName    = errors.New("sink name is empty")
	ErrNilContext   = errors.New("logging context is nil")
	ErrClosed       = errors.New("logging context closed")
	ErrNilSink      = errors.New("sink is nil")
	ErrSinkNotFound = errors.New("sink not found")
	ErrSinkKind     = errors.New("sink has unexpected kind")
)

// Result carries the outcome of a best-effort operation: OK with a Value, or
// a failure with the Err that caused it. Try* helpers never panic; they
// report failures on the diagnostic logger and return a failed Result.
type Result[T any] struct {
	OK    bool
	Value T
	Err   error
}

func Ok[T any](v T) Result[T] { return Result[T]{OK: true, Value: v} }

func Fail[T any](err error) Result[T] { return Result[T]{Err: err} }

// Get returns the value and the success flag.
func (r Result[T]) Get() (T, bool) { return r.Value, r.OK }
