package schedule

import "time"

// DefaultFrame is the frame step used by Manual when none is given (~60 FPS).
const DefaultFrame = 16 * time.Millisecond

// Manual is a deterministic Scheduler driven by Advance. Timers run at their
// exact due time; frames run on a fixed grid of frame-length steps.
// Not safe for concurrent use.
type Manual struct {
	now   time.Duration
	frame time.Duration
	q     queue
}

// NewManual creates a manual scheduler with the given frame step
func NewManual(frame time.Duration) *Manual {
	if frame <= 0 {
		frame = DefaultFrame
	}
	return &Manual{frame: frame}
}

// Now returns the virtual time
func (m *Manual) Now() time.Duration { return m.now }

// After schedules fn at now+d
func (m *Manual) After(d time.Duration, fn func()) {
	if d < 0 {
		d = 0
	}
	m.q.addTimer(m.now+d, fn)
}

// NextFrame schedules fn for the next frame boundary
func (m *Manual) NextFrame(fn func(now time.Duration)) {
	m.q.addFrame(fn)
}

// nextFrameAt returns the first frame boundary strictly after now
func (m *Manual) nextFrameAt() time.Duration {
	return (m.now/m.frame + 1) * m.frame
}

// Advance moves virtual time forward by d, running everything that comes due.
// Timers due at the same instant as a frame run before the frame.
func (m *Manual) Advance(d time.Duration) {
	end := m.now + d
	for {
		due, hasTimer := m.q.nextDue()
		hasFrame := m.q.pendingFrames() > 0
		frameAt := m.nextFrameAt()

		switch {
		case hasTimer && due <= end && (!hasFrame || due <= frameAt):
			if due > m.now {
				m.now = due
			}
			fn, _ := m.q.popDue(m.now)
			fn()
		case hasFrame && frameAt <= end:
			m.now = frameAt
			m.q.runFrames(m.now)
		default:
			m.now = end
			return
		}
	}
}

// RunUntilIdle advances until no timers or frames remain, bounded by limit.
// Returns the virtual time consumed.
func (m *Manual) RunUntilIdle(limit time.Duration) time.Duration {
	start := m.now
	for m.Pending() > 0 && m.now-start < limit {
		due, hasTimer := m.q.nextDue()
		step := m.frame
		if hasTimer && m.q.pendingFrames() == 0 && due > m.now {
			step = due - m.now
		}
		m.Advance(step)
	}
	return m.now - start
}

// Pending returns the number of queued timers and frame callbacks
func (m *Manual) Pending() int {
	return m.q.pendingTimers() + m.q.pendingFrames()
}
