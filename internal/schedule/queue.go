package schedule

import (
	"container/heap"
	"time"
)

// timer is one pending continuation.
type timer struct {
	due time.Duration
	seq uint64 // Tie-breaker: scheduling order
	fn  func()
}

// timerHeap is a min-heap ordered by (due, seq)
type timerHeap []timer

func (h timerHeap) Len() int { return len(h) }
func (h timerHeap) Less(i, j int) bool {
	if h[i].due == h[j].due {
		return h[i].seq < h[j].seq
	}
	return h[i].due < h[j].due
}
func (h timerHeap) Swap(i, j int) { h[i], h[j] = h[j], h[i] }
func (h *timerHeap) Push(x any)   { *h = append(*h, x.(timer)) }
func (h *timerHeap) Pop() any {
	old := *h
	n := len(old)
	t := old[n-1]
	old[n-1] = timer{}
	*h = old[:n-1]
	return t
}

// queue holds timers and frame callbacks shared by Loop and Manual.
// Not safe for concurrent use; the owner serializes access.
type queue struct {
	timers timerHeap
	seq    uint64
	frames []func(now time.Duration)
}

func (q *queue) addTimer(due time.Duration, fn func()) {
	q.seq++
	heap.Push(&q.timers, timer{due: due, seq: q.seq, fn: fn})
}

func (q *queue) addFrame(fn func(now time.Duration)) {
	q.frames = append(q.frames, fn)
}

// nextDue returns the earliest timer deadline.
func (q *queue) nextDue() (time.Duration, bool) {
	if len(q.timers) == 0 {
		return 0, false
	}
	return q.timers[0].due, true
}

// popDue removes and returns the earliest timer if it is due at or before now.
func (q *queue) popDue(now time.Duration) (func(), bool) {
	if len(q.timers) == 0 || q.timers[0].due > now {
		return nil, false
	}
	t := heap.Pop(&q.timers).(timer)
	return t.fn, true
}

// runFrames runs the callbacks registered before this frame began.
// Callbacks registered while running wait for the next frame.
func (q *queue) runFrames(now time.Duration) {
	if len(q.frames) == 0 {
		return
	}
	batch := q.frames
	q.frames = nil
	for _, fn := range batch {
		fn(now)
	}
}

func (q *queue) pendingFrames() int { return len(q.frames) }
func (q *queue) pendingTimers() int { return len(q.timers) }
