// Package schedule provides the single-threaded cooperative runtime the board
// runs on: timed continuations, per-frame callbacks and one-shot signals.
//
// Every callback runs on the scheduler's goroutine, one at a time. Code that
// runs inside a callback may touch board state without locks.
package schedule

import (
	"sync"
	"sync/atomic"
	"time"
)

// Scheduler is the host scheduling facility.
type Scheduler interface {
	// Now returns the time elapsed since the scheduler started.
	Now() time.Duration
	// After runs fn once, no earlier than d from now. There is no cancellation.
	After(d time.Duration, fn func())
	// NextFrame runs fn once on the next animation frame.
	NextFrame(fn func(now time.Duration))
}

// Signal is a one-shot completion notice.
// Fire and Then must be called from the scheduler goroutine; Done and Fired
// are safe from any goroutine.
type Signal struct {
	fired   atomic.Bool
	waiters []func()
	once    sync.Once
	ch      chan struct{}
}

// NewSignal creates an unfired signal
func NewSignal() *Signal {
	return &Signal{ch: make(chan struct{})}
}

// Resolved returns an already-fired signal
func Resolved() *Signal {
	s := NewSignal()
	s.Fire()
	return s
}

// Fire marks the signal complete and runs waiters in registration order.
// Subsequent calls are no-ops.
func (s *Signal) Fire() {
	if s.fired.Load() {
		return
	}
	s.fired.Store(true)
	s.once.Do(func() { close(s.ch) })

	waiters := s.waiters
	s.waiters = nil
	for _, fn := range waiters {
		fn()
	}
}

// Then registers fn to run when the signal fires.
// If it already fired, fn runs immediately.
func (s *Signal) Then(fn func()) {
	if s.fired.Load() {
		fn()
		return
	}
	s.waiters = append(s.waiters, fn)
}

// Fired reports whether the signal has fired
func (s *Signal) Fired() bool {
	return s.fired.Load()
}

// Done returns a channel closed when the signal fires
func (s *Signal) Done() <-chan struct{} {
	return s.ch
}
