package logx

import (
	"slices"
	"sync"
)

// Sink receives records accepted by its filter. Write runs synchronously on
// the logging goroutine and must be safe for concurrent use.
type Sink interface {
	Name() string
	Accepts(level Level) bool
	Write(r Record) error
}

// Filter is the threshold plus level-range chain shared by the sinks in this
// package. A record passes when it is at or above the threshold and inside
// every installed range; no ranges means no range restriction.
type Filter struct {
	mu        sync.RWMutex
	threshold Level
	ranges    []Range
}

func (f *Filter) Accepts(level Level) bool {
	f.mu.RLock()
	defer f.mu.RUnlock()
	if level < f.threshold {
		return false
	}
	for _, r := range f.ranges {
		if !r.Accepts(level) {
			return false
		}
	}
	return true
}

func (f *Filter) Threshold() Level {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.threshold
}

func (f *Filter) SetThreshold(level Level) {
	f.mu.Lock()
	f.threshold = level
	f.mu.Unlock()
}

// AddFilter appends a range to the chain.
func (f *Filter) AddFilter(r Range) {
	f.mu.Lock()
	f.ranges = append(f.ranges, r)
	f.mu.Unlock()
}

// ClearFilters drops every range; the threshold is kept.
func (f *Filter) ClearFilters() {
	f.mu.Lock()
	f.ranges = nil
	f.mu.Unlock()
}

// SetFilter replaces the chain with a single range in one step, so no record
// slips through between clear and add.
func (f *Filter) SetFilter(r Range) {
	f.mu.Lock()
	f.ranges = []Range{r}
	f.mu.Unlock()
}

// Filters returns a copy of the installed ranges.
func (f *Filter) Filters() []Range {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return slices.Clone(f.ranges)
}
