package animation

import (
	"time"

	"battle-board/internal/board"
	"battle-board/internal/schedule"
)

// Animator launches flights on a scheduler and tracks the ones still visible.
// All methods run on the scheduler goroutine.
type Animator struct {
	sched  schedule.Scheduler
	nextID uint64
	active []*Flight

	launched uint64

	// OnLaunch and OnRemove are optional observers (metrics, tests)
	OnLaunch func(f *Flight)
	OnRemove func(f *Flight)
}

// NewAnimator creates an animator bound to a scheduler
func NewAnimator(s schedule.Scheduler) *Animator {
	return &Animator{sched: s}
}

// Launch starts one flight between the centers of two rectangles.
// onArrive runs exactly once, on the frame where the flight reaches its
// destination; the flight is removed RemovalDelay later.
func (a *Animator) Launch(from, to board.Rect, onArrive func()) *Flight {
	src := centerOf(from)
	dst := centerOf(to)

	a.nextID++
	f := &Flight{
		ID:       a.nextID,
		From:     src,
		Control:  ControlPoint(src, dst),
		To:       dst,
		Duration: FlightDuration(src, dst),
		Position: src,
		started:  a.sched.Now(),
		onArrive: onArrive,
	}
	a.active = append(a.active, f)
	a.launched++
	if a.OnLaunch != nil {
		a.OnLaunch(f)
	}

	a.sched.NextFrame(a.frame(f))
	return f
}

// frame returns the per-frame callback for one flight
func (a *Animator) frame(f *Flight) func(now time.Duration) {
	var tick func(now time.Duration)
	tick = func(now time.Duration) {
		if !f.step(now) {
			a.sched.NextFrame(tick)
			return
		}

		if cb := f.onArrive; cb != nil {
			f.onArrive = nil
			cb()
		}
		a.sched.After(RemovalDelay, func() { a.remove(f) })
	}
	return tick
}

func (a *Animator) remove(f *Flight) {
	if f.Removed {
		return
	}
	f.Removed = true
	for i, other := range a.active {
		if other == f {
			a.active = append(a.active[:i], a.active[i+1:]...)
			break
		}
	}
	if a.OnRemove != nil {
		a.OnRemove(f)
	}
}

// Active returns a copy of the flights that are still visible
func (a *Animator) Active() []Flight {
	out := make([]Flight, len(a.active))
	for i, f := range a.active {
		out[i] = *f
		out[i].onArrive = nil
	}
	return out
}

// Launched returns the number of flights started since creation
func (a *Animator) Launched() uint64 {
	return a.launched
}
