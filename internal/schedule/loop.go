package schedule

import (
	"context"
	"errors"
	"log"
	"sync"
	"time"
)

// ErrStopped is returned by Do when the loop is not running.
var ErrStopped = errors.New("schedule: loop stopped")

// postBuffer bounds work queued from other goroutines
const postBuffer = 256

// Loop is the real-time Scheduler. A single goroutine owns the timer queue;
// a ticker at the frame rate drives animation frames and drains due timers.
type Loop struct {
	mu       sync.Mutex
	running  bool
	stopChan chan struct{}
	doneChan chan struct{}

	frameInterval time.Duration
	start         time.Time
	q             queue

	posts chan func()
}

// NewLoop creates a loop ticking at fps frames per second
func NewLoop(fps int) *Loop {
	if fps <= 0 {
		fps = 60
	}
	return &Loop{
		frameInterval: time.Second / time.Duration(fps),
		start:         time.Now(),
		posts:         make(chan func(), postBuffer),
	}
}

// Start begins the loop goroutine. Calling Start twice is a no-op.
func (l *Loop) Start() {
	l.mu.Lock()
	if l.running {
		l.mu.Unlock()
		return
	}
	l.running = true
	l.stopChan = make(chan struct{})
	l.doneChan = make(chan struct{})
	l.mu.Unlock()

	go l.run()

	log.Printf("⏱️ Scheduler loop started (frame %v)", l.frameInterval)
}

// Stop halts the loop and waits for the goroutine to exit.
// Pending timers are discarded.
func (l *Loop) Stop() {
	l.mu.Lock()
	if !l.running {
		l.mu.Unlock()
		return
	}
	l.running = false
	close(l.stopChan)
	done := l.doneChan
	l.mu.Unlock()

	<-done
	log.Println("🛑 Scheduler loop stopped")
}

// Running reports whether the loop goroutine is active
func (l *Loop) Running() bool {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.running
}

func (l *Loop) run() {
	defer close(l.doneChan)

	ticker := time.NewTicker(l.frameInterval)
	defer ticker.Stop()

	for {
		select {
		case <-l.stopChan:
			return
		case fn := <-l.posts:
			fn()
			l.drainTimers(l.Now())
		case <-ticker.C:
			now := l.Now()
			l.drainTimers(now)
			l.q.runFrames(now)
		}
	}
}

// drainTimers runs every timer due at or before now, including timers that
// become due while draining.
func (l *Loop) drainTimers(now time.Duration) {
	for {
		fn, ok := l.q.popDue(now)
		if !ok {
			return
		}
		fn()
	}
}

// Now returns time since the loop was created
func (l *Loop) Now() time.Duration {
	return time.Since(l.start)
}

// After schedules fn. Must be called from the loop goroutine (inside a callback,
// Post or Do).
func (l *Loop) After(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	l.q.addTimer(l.Now()+d, fn)
}

// NextFrame schedules fn for the next tick. Loop goroutine only.
func (l *Loop) NextFrame(fn func(now time.Duration)) {
	l.q.addFrame(fn)
}

// Post hands fn to the loop goroutine without waiting.
// Returns false if the loop is stopped or the post buffer is full (backpressure).
func (l *Loop) Post(fn func()) bool {
	l.mu.Lock()
	running := l.running
	stop := l.stopChan
	l.mu.Unlock()
	if !running {
		return false
	}

	select {
	case l.posts <- fn:
		return true
	case <-stop:
		return false
	default:
		return false
	}
}

// Do runs fn on the loop goroutine and waits for it to return.
func (l *Loop) Do(ctx context.Context, fn func()) error {
	l.mu.Lock()
	running := l.running
	stop := l.stopChan
	l.mu.Unlock()
	if !running {
		return ErrStopped
	}

	done := make(chan struct{})
	wrapped := func() {
		defer close(done)
		fn()
	}

	select {
	case l.posts <- wrapped:
	case <-stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}

	select {
	case <-done:
		return nil
	case <-stop:
		return ErrStopped
	case <-ctx.Done():
		return ctx.Err()
	}
}
