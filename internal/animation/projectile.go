// Package animation drives projectile flights between tokens, one frame at a time.
package animation

import (
	"math"
	"time"

	"battle-board/internal/board"
)

// Flight tuning
const (
	MaxLift       = 100.0                  // px, cap on the curve's vertical lift
	LiftFactor    = 0.3                    // lift per px of distance
	BaseDuration  = 500 * time.Millisecond // flight time at zero distance
	DurationPerPx = 300 * time.Microsecond // 0.3ms of flight per px
	RemovalDelay  = 500 * time.Millisecond // explosion stays visible this long
)

// Point is a 2D position relative to the board container
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Flight is one projectile travelling from a source to a destination.
// A flight runs exactly once and is never restarted.
type Flight struct {
	ID       uint64
	From     Point
	Control  Point
	To       Point
	Duration time.Duration

	Position  Point
	Progress  float64 // t in [0, 1]
	Exploding bool
	Removed   bool

	started  time.Duration
	onArrive func()
}

// ControlPoint returns the quadratic curve control point: the midpoint
// lifted by min(MaxLift, LiftFactor × distance).
func ControlPoint(from, to Point) Point {
	dx := to.X - from.X
	dy := to.Y - from.Y
	dist := math.Hypot(dx, dy)
	return Point{
		X: from.X + dx*0.5,
		Y: from.Y + dy*0.5 - math.Min(MaxLift, dist*LiftFactor),
	}
}

// FlightDuration returns BaseDuration + 0.3ms per px of distance
func FlightDuration(from, to Point) time.Duration {
	dist := math.Hypot(to.X-from.X, to.Y-from.Y)
	return BaseDuration + time.Duration(dist*float64(DurationPerPx))
}

// Bezier evaluates the quadratic Bézier curve at t
func Bezier(p0, p1, p2 Point, t float64) Point {
	u := 1 - t
	return Point{
		X: u*u*p0.X + 2*u*t*p1.X + t*t*p2.X,
		Y: u*u*p0.Y + 2*u*t*p1.Y + t*t*p2.Y,
	}
}

// step advances the flight to now. Returns true on the arrival frame.
func (f *Flight) step(now time.Duration) bool {
	t := 1.0
	if f.Duration > 0 {
		t = math.Min(float64(now-f.started)/float64(f.Duration), 1)
	}
	if t < 0 {
		t = 0
	}
	f.Progress = t
	f.Position = Bezier(f.From, f.Control, f.To, t)

	if t < 1 {
		return false
	}
	f.Position = f.To
	f.Exploding = true
	return true
}

func centerOf(r board.Rect) Point {
	x, y := r.Center()
	return Point{X: x, Y: y}
}
