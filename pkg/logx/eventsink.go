package logx

import (
	"errors"
	"fmt"
	"strings"
	"sync"
	"sync/atomic"
)

// EventSink bridges accepted records to in-process observers instead of a
// file or console.
//
// Contract:
//   - Observers run synchronously, in attachment order, on the goroutine that
//     made the log call, before that call returns.
//   - With no observers, records are accepted and dropped.
//   - Attaching the same function twice delivers every record to it twice.
//   - Subscribe/unsubscribe may race with delivery; each delivery iterates the
//     observer list as it was when the record arrived.
//
// An observer that panics is recovered; the remaining observers still run and
// Write reports the panic as an error.
//
// The level bounds are fixed at [Debug, Fatal]; they can be read but not
// changed.
type EventSink struct {
	filter Filter

	name string

	mu        sync.Mutex // serializes writers of observers
	seq       uint64
	observers atomic.Pointer[[]observer]
}

type observer struct {
	id uint64
	fn func(Record)
}

// NewEventSink returns an event sink accepting Debug through Fatal.
func NewEventSink(name string) (*EventSink, error) {
	if strings.TrimSpace(name) == "" {
		return nil, ErrEmptyName
	}
	s := &EventSink{name: name}
	s.filter.SetThreshold(LevelDebug)
	s.filter.AddFilter(AllLevels)
	return s, nil
}

func (s *EventSink) Name() string { return s.name }

func (s *EventSink) Accepts(level Level) bool { return s.filter.Accepts(level) }

func (s *EventSink) Threshold() Level { return s.filter.Threshold() }

func (s *EventSink) Filters() []Range { return s.filter.Filters() }

// Subscribe attaches fn and returns a func that detaches this subscription.
// The detach func is idempotent.
func (s *EventSink) Subscribe(fn func(Record)) (unsubscribe func()) {
	if fn == nil {
		return func() {}
	}

	s.mu.Lock()
	s.seq++
	id := s.seq
	cur := s.snapshot()
	next := make([]observer, 0, len(cur)+1)
	next = append(next, cur...)
	next = append(next, observer{id: id, fn: fn})
	s.observers.Store(&next)
	s.mu.Unlock()

	var once sync.Once
	return func() {
		once.Do(func() { s.unsubscribe(id) })
	}
}

func (s *EventSink) unsubscribe(id uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.snapshot()
	next := make([]observer, 0, len(cur))
	for _, o := range cur {
		if o.id != id {
			next = append(next, o)
		}
	}
	s.observers.Store(&next)
}

// Observers returns the number of attached observers.
func (s *EventSink) Observers() int { return len(s.snapshot()) }

func (s *EventSink) snapshot() []observer {
	p := s.observers.Load()
	if p == nil {
		return nil
	}
	return *p
}

// Write delivers r to every observer attached at the time of the call.
func (s *EventSink) Write(r Record) error {
	obs := s.snapshot()
	if len(obs) == 0 {
		return nil
	}
	r.raw = nil

	var errs []error
	for _, o := range obs {
		if err := deliver(o.fn, r); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func deliver(fn func(Record), r Record) (err error) {
	defer func() {
		if p := recover(); p != nil {
			err = fmt.Errorf("event observer panic: %v", p)
		}
	}()
	fn(r)
	return nil
}
