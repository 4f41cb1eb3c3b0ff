package infopanel

import (
	"errors"
	"testing"
	"time"

	"battle-board/internal/board"
	"battle-board/internal/schedule"
)

func roster() []board.Team {
	return board.NormalizeTeams([]board.Team{
		{Name: "Red", Life: 3, Affinity: "Chess"},
		{Name: "Blue", Life: 0, Affinity: "Go"},
		{Name: "Green", Life: 7, Affinity: "Tetris"},
	})
}

func newTestController() (*schedule.Manual, *Controller) {
	s := schedule.NewManual(10 * time.Millisecond)
	c := NewController(s, 2500*time.Millisecond, 8000*time.Millisecond)
	c.SetTeams(roster())
	c.Start()
	return s, c
}

// TestCycle verifies the panel walks the roster every interval
func TestCycle(t *testing.T) {
	s, c := newTestController()

	if got := c.View().Name; got != "Red" {
		t.Fatalf("initial view = %q, want Red", got)
	}

	tests := []struct {
		advance time.Duration
		want    string
	}{
		{2499 * time.Millisecond, "Red"},
		{1 * time.Millisecond, "Blue"},
		{2500 * time.Millisecond, "Green"},
		{2500 * time.Millisecond, "Red"},
	}
	for _, tt := range tests {
		s.Advance(tt.advance)
		if got := c.View().Name; got != tt.want {
			t.Errorf("at %v view = %q, want %q", s.Now(), got, tt.want)
		}
	}

	v := c.View()
	if v.Active || v.Pinned {
		t.Error("cycling view should not be active")
	}
}

// TestPinHoldsAndLapses verifies pinned views skip ticks and unpin after the timeout
func TestPinHoldsAndLapses(t *testing.T) {
	s, c := newTestController()

	if err := c.Pin("Green"); err != nil {
		t.Fatal(err)
	}
	v := c.View()
	if v.Name != "Green" || !v.Active || !v.Pinned {
		t.Fatalf("pinned view = %+v", v)
	}

	// Three ticks pass while pinned; the counter does not move
	s.Advance(7999 * time.Millisecond)
	if c.View().Name != "Green" || c.Index() != 0 {
		t.Errorf("pinned panel changed: %+v index=%d", c.View(), c.Index())
	}

	s.Advance(time.Millisecond)
	if c.Pinned() {
		t.Error("pin should lapse after 8000ms")
	}

	// Next tick at 10000ms resumes from the untouched counter
	s.Advance(2000 * time.Millisecond)
	if got := c.View().Name; got != "Blue" {
		t.Errorf("after unpin view = %q, want Blue", got)
	}
}

// TestRepinResetsTimeout verifies a newer pin supersedes the older timeout
func TestRepinResetsTimeout(t *testing.T) {
	s, c := newTestController()

	c.Pin("Red")
	s.Advance(5000 * time.Millisecond)
	c.Pin("Blue")

	s.Advance(3000 * time.Millisecond) // first pin's timeout passes
	if !c.Pinned() || c.View().Name != "Blue" {
		t.Errorf("repin should hold: pinned=%v view=%+v", c.Pinned(), c.View())
	}

	s.Advance(5000 * time.Millisecond)
	if c.Pinned() {
		t.Error("second pin should lapse 8000ms after it was made")
	}
}

// TestPinUnknownTeam verifies the sentinel error
func TestPinUnknownTeam(t *testing.T) {
	_, c := newTestController()
	if err := c.Pin("Nobody"); !errors.Is(err, ErrUnknownTeam) {
		t.Errorf("Pin(Nobody) = %v, want ErrUnknownTeam", err)
	}
	if c.Pinned() {
		t.Error("failed pin should not pin")
	}
}

// TestViewSummary verifies the summary fields
func TestViewSummary(t *testing.T) {
	_, c := newTestController()
	c.Pin("Blue")

	v := c.View()
	if !v.Eliminated || v.Life != 0 || v.Hearts != "🖤🖤🖤🖤🖤🖤🖤" {
		t.Errorf("eliminated summary = %+v", v)
	}
	if v.Logo != board.DefaultLogo {
		t.Errorf("logo = %q, want default", v.Logo)
	}
}

// TestSetTeamsClampsIndex verifies a shrinking roster keeps the index valid
func TestSetTeamsClampsIndex(t *testing.T) {
	s, c := newTestController()
	s.Advance(5000 * time.Millisecond) // index 2
	if c.Index() != 2 {
		t.Fatalf("index = %d, want 2", c.Index())
	}

	c.SetTeams(roster()[:1])
	if c.Index() != 0 || c.View().Name != "Red" {
		t.Errorf("index = %d view = %q", c.Index(), c.View().Name)
	}

	c.SetTeams(nil)
	if !c.View().Empty {
		t.Error("empty roster should give an empty view")
	}
	s.Advance(10 * time.Second) // ticks with no teams must not panic
}
