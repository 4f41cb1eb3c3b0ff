package animation

import (
	"math"
	"testing"
	"time"

	"battle-board/internal/board"
	"battle-board/internal/schedule"
)

// TestControlPointLift verifies the lift cap
func TestControlPointLift(t *testing.T) {
	tests := []struct {
		name     string
		from, to Point
		wantLift float64
	}{
		{"short hop", Point{0, 0}, Point{100, 0}, 30},
		{"long flight capped", Point{0, 0}, Point{1000, 0}, 100},
		{"vertical", Point{0, 0}, Point{0, 200}, 60},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cp := ControlPoint(tt.from, tt.to)
			midY := (tt.from.Y + tt.to.Y) / 2
			if got := midY - cp.Y; math.Abs(got-tt.wantLift) > 1e-9 {
				t.Errorf("lift = %f, want %f", got, tt.wantLift)
			}
			if midX := (tt.from.X + tt.to.X) / 2; cp.X != midX {
				t.Errorf("control X = %f, want %f", cp.X, midX)
			}
		})
	}
}

// TestFlightDuration verifies duration grows with distance
func TestFlightDuration(t *testing.T) {
	if d := FlightDuration(Point{}, Point{}); d != 500*time.Millisecond {
		t.Errorf("zero distance = %v, want 500ms", d)
	}
	if d := FlightDuration(Point{}, Point{X: 1000}); d != 800*time.Millisecond {
		t.Errorf("1000px = %v, want 800ms", d)
	}
}

// TestBezierEndpoints verifies curve endpoints
func TestBezierEndpoints(t *testing.T) {
	p0, p1, p2 := Point{0, 0}, Point{50, -30}, Point{100, 0}
	if got := Bezier(p0, p1, p2, 0); got != p0 {
		t.Errorf("t=0 -> %+v, want %+v", got, p0)
	}
	if got := Bezier(p0, p1, p2, 1); got != p2 {
		t.Errorf("t=1 -> %+v, want %+v", got, p2)
	}
	mid := Bezier(p0, p1, p2, 0.5)
	if mid.X != 50 || mid.Y != -15 {
		t.Errorf("t=0.5 -> %+v, want {50 -15}", mid)
	}
}

// TestLaunchArrivesOnce verifies frame-driven flight, single arrival and removal
func TestLaunchArrivesOnce(t *testing.T) {
	s := schedule.NewManual(10 * time.Millisecond)
	a := NewAnimator(s)

	from := board.Rect{X: 0, Y: 0, W: 20, H: 20}
	to := board.Rect{X: 1000, Y: 0, W: 20, H: 20} // 1000px -> 800ms
	arrivals := 0
	var arrivedAt time.Duration

	f := a.Launch(from, to, func() {
		arrivals++
		arrivedAt = s.Now()
	})

	if len(a.Active()) != 1 {
		t.Fatalf("expected 1 active flight, got %d", len(a.Active()))
	}

	s.Advance(400 * time.Millisecond)
	if arrivals != 0 {
		t.Fatal("flight arrived too early")
	}
	if f.Progress <= 0 || f.Progress >= 1 {
		t.Errorf("mid-flight progress = %f", f.Progress)
	}
	if f.Position.Y >= 10 {
		t.Errorf("mid-flight should be lifted above the line, y = %f", f.Position.Y)
	}

	s.Advance(400 * time.Millisecond)
	if arrivals != 1 {
		t.Fatalf("arrivals = %d, want 1", arrivals)
	}
	if arrivedAt != 800*time.Millisecond {
		t.Errorf("arrived at %v, want 800ms", arrivedAt)
	}
	if !f.Exploding || f.Position != f.To {
		t.Errorf("arrival should snap to destination and explode: %+v", f)
	}

	s.Advance(499 * time.Millisecond)
	if len(a.Active()) != 1 {
		t.Error("explosion should stay visible for the removal delay")
	}
	s.Advance(time.Second)
	if len(a.Active()) != 0 {
		t.Error("flight should be removed after the removal delay")
	}
	if arrivals != 1 {
		t.Errorf("onArrive ran %d times, want exactly 1", arrivals)
	}
	if a.Launched() != 1 {
		t.Errorf("Launched = %d, want 1", a.Launched())
	}
}

// TestConcurrentFlightsArriveByDistance verifies arrival order follows distance
func TestConcurrentFlightsArriveByDistance(t *testing.T) {
	s := schedule.NewManual(5 * time.Millisecond)
	a := NewAnimator(s)
	var order []string

	origin := board.Rect{W: 10, H: 10}
	a.Launch(origin, board.Rect{X: 1500, W: 10, H: 10}, func() { order = append(order, "far") })
	a.Launch(origin, board.Rect{X: 100, W: 10, H: 10}, func() { order = append(order, "near") })

	s.RunUntilIdle(5 * time.Second)
	if len(order) != 2 || order[0] != "near" || order[1] != "far" {
		t.Errorf("arrival order = %v, want [near far]", order)
	}
}

// TestLaunchNilCallback verifies a flight without a callback still completes
func TestLaunchNilCallback(t *testing.T) {
	s := schedule.NewManual(0)
	a := NewAnimator(s)
	removed := 0
	a.OnRemove = func(*Flight) { removed++ }

	a.Launch(board.Rect{}, board.Rect{X: 50}, nil)
	s.RunUntilIdle(5 * time.Second)

	if removed != 1 {
		t.Errorf("OnRemove ran %d times, want 1", removed)
	}
}
