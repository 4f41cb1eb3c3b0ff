package replay

import (
	"errors"
	"testing"
	"time"

	"battle-board/internal/animation"
	"battle-board/internal/board"
	"battle-board/internal/config"
	"battle-board/internal/schedule"
)

// fakeCues records cue triggers
type fakeCues struct {
	launch, impact, heal int
}

func (c *fakeCues) PlayLaunch() { c.launch++ }
func (c *fakeCues) PlayImpact() { c.impact++ }
func (c *fakeCues) PlayHeal()   { c.heal++ }

// countingLauncher wraps a real animator and records launch targets
type countingLauncher struct {
	anim    *animation.Animator
	targets []board.Rect
}

func (l *countingLauncher) Launch(from, to board.Rect, onArrive func()) *animation.Flight {
	l.targets = append(l.targets, to)
	return l.anim.Launch(from, to, onArrive)
}

type harness struct {
	sched    *schedule.Manual
	board    *board.Board
	cues     *fakeCues
	launcher *countingLauncher
	engine   *Engine
}

func newHarness(teams []board.Team) *harness {
	s := schedule.NewManual(10 * time.Millisecond)
	b := board.New()
	b.Refresh(teams)

	// Spread tokens so flights have distinct lengths
	for i, tok := range b.Tokens() {
		tok.Geometry.Rect = board.Rect{X: float64(i) * 300, Y: 0, W: 50, H: 50}
	}

	h := &harness{
		sched:    s,
		board:    b,
		cues:     &fakeCues{},
		launcher: &countingLauncher{anim: animation.NewAnimator(s)},
	}
	h.engine = NewEngine(s, b, h.launcher, h.cues, config.DefaultTiming())
	return h
}

// flagTimeline samples a token flag every ms and returns when it was set
func flagTimeline(s *schedule.Manual, tok *board.Token, f board.Flag, span time.Duration) []time.Duration {
	var on []time.Duration
	for s.Now() < span {
		if tok.Has(f) {
			on = append(on, s.Now())
		}
		s.Advance(time.Millisecond)
	}
	return on
}

// TestResolveMissingAttacker verifies an unknown attacker is a no-op
func TestResolveMissingAttacker(t *testing.T) {
	h := newHarness([]board.Team{{Name: "A", Life: 3, Affinity: "Chess"}})

	sig := h.engine.ResolveOne(board.LogEntry{Attacker: "Ghost", Game: "Chess", Outcome: "공격"})
	if !sig.Fired() {
		t.Error("signal should resolve immediately")
	}
	h.sched.RunUntilIdle(10 * time.Second)

	if len(h.launcher.targets) != 0 || *h.cues != (fakeCues{}) {
		t.Errorf("no animator or cue expected: launches=%d cues=%+v", len(h.launcher.targets), *h.cues)
	}
	if h.board.Token("A").Has(board.FlagShaking) {
		t.Error("no token should shake")
	}
}

// TestResolveNoTargets verifies an empty match shakes only the attacker
func TestResolveNoTargets(t *testing.T) {
	h := newHarness([]board.Team{
		{Name: "A", Life: 3, Affinity: "Chess"},
		{Name: "B", Life: 3, Affinity: "Go"},
	})

	sig := h.engine.ResolveOne(board.LogEntry{Attacker: "A", Game: "Tetris", Outcome: "공격"})
	if !sig.Fired() {
		t.Error("no targets should resolve immediately")
	}
	if !h.board.Token("A").Has(board.FlagShaking) {
		t.Error("attacker should still shake")
	}
	h.sched.RunUntilIdle(10 * time.Second)
	if len(h.launcher.targets) != 0 {
		t.Error("no projectile expected")
	}
}

// TestResolveAttackLaunchesPerTarget verifies one projectile per matched target
func TestResolveAttackLaunchesPerTarget(t *testing.T) {
	h := newHarness([]board.Team{
		{Name: "A", Life: 3, Affinity: "Chess"},
		{Name: "B", Life: 3, Affinity: "Speed Chess"},
		{Name: "C", Life: 3, Affinity: "Go"},
		{Name: "D", Life: 3, Affinity: "chess"},
	})

	h.engine.ResolveOne(board.LogEntry{Attacker: "A", Game: "CHESS", Outcome: "공격"})
	h.sched.RunUntilIdle(10 * time.Second)

	if len(h.launcher.targets) != 2 {
		t.Fatalf("launches = %d, want 2 (B and D)", len(h.launcher.targets))
	}
	if h.launcher.targets[0] != h.board.Token("B").Geometry.Rect ||
		h.launcher.targets[1] != h.board.Token("D").Geometry.Rect {
		t.Error("launches should follow roster order")
	}
	if h.cues.launch != 2 || h.cues.impact != 2 || h.cues.heal != 0 {
		t.Errorf("cues = %+v, want 2 launch, 2 impact", *h.cues)
	}
}

// TestResolveHealNeverLaunches verifies heal entries spawn no projectile
func TestResolveHealNeverLaunches(t *testing.T) {
	h := newHarness([]board.Team{
		{Name: "A", Life: 3, Affinity: "Chess"},
		{Name: "B", Life: 2, Affinity: "Chess"},
	})

	h.engine.ResolveOne(board.LogEntry{Attacker: "A", Game: "Chess", Outcome: "회복"})
	h.sched.Advance(0)
	on := flagTimeline(h.sched, h.board.Token("B"), board.FlagHealing, 2*time.Second)

	if len(h.launcher.targets) != 0 {
		t.Error("heal must not launch projectiles")
	}
	if h.cues.heal != 1 || h.cues.launch != 0 {
		t.Errorf("cues = %+v, want exactly one heal", *h.cues)
	}
	if len(on) != 700 {
		t.Errorf("healing lasted %dms, want 700ms", len(on))
	}
	if len(on) > 0 && (on[0] != 0 || on[len(on)-1] != 699*time.Millisecond) {
		t.Errorf("healing window = [%v, %v], want [0, 699ms]", on[0], on[len(on)-1])
	}
}

// TestEndToEndEliminatedTarget checks the attack cycle against an eliminated team
func TestEndToEndEliminatedTarget(t *testing.T) {
	h := newHarness([]board.Team{
		{Name: "A", Life: 3, Affinity: "Chess"},
		{Name: "B", Life: 0, Affinity: "Chess"},
	})
	a, b := h.board.Token("A"), h.board.Token("B")

	var shakesA, shakesB int
	wasA, wasB := false, false
	h.engine.ResolveOne(board.LogEntry{Attacker: "A", Game: "Chess", Outcome: "attack"})

	for h.sched.Now() < 3*time.Second {
		if a.Has(board.FlagShaking) && !wasA {
			shakesA++
		}
		if b.Has(board.FlagShaking) && !wasB {
			shakesB++
		}
		wasA, wasB = a.Has(board.FlagShaking), b.Has(board.FlagShaking)
		if !b.Has(board.FlagEliminated) {
			t.Fatalf("B lost eliminated flag at %v", h.sched.Now())
		}
		h.sched.Advance(time.Millisecond)
	}

	if len(h.launcher.targets) != 1 {
		t.Errorf("projectiles to B = %d, want 1", len(h.launcher.targets))
	}
	if shakesA != 1 {
		t.Errorf("A shake pulses = %d, want 1", shakesA)
	}
	if shakesB != 1 {
		t.Errorf("B shake pulses = %d, want 1", shakesB)
	}
	if b.Team.Life != 0 {
		t.Errorf("B life = %d, want 0", b.Team.Life)
	}
	if h.cues.impact != 1 {
		t.Errorf("impact cues = %d, want 1", h.cues.impact)
	}
}

// TestResolveTiming verifies stagger, impact shake and settle offsets
func TestResolveTiming(t *testing.T) {
	h := newHarness([]board.Team{
		{Name: "A", Life: 3, Affinity: "Chess"},
		{Name: "B", Life: 3, Affinity: "Chess"},
		{Name: "C", Life: 3, Affinity: "Chess"},
		{Name: "D", Life: 3, Affinity: "Chess"},
	})

	var launches []time.Duration
	h.launcher.anim.OnLaunch = func(*animation.Flight) { launches = append(launches, h.sched.Now()) }

	sig := h.engine.ResolveOne(board.LogEntry{Attacker: "A", Game: "Chess", Outcome: "공격"})

	var firedAt time.Duration = -1
	sig.Then(func() { firedAt = h.sched.Now() })

	var dShakeStart time.Duration = -1
	d := h.board.Token("D")
	for h.sched.Now() < 3*time.Second {
		if dShakeStart < 0 && d.Has(board.FlagShaking) {
			dShakeStart = h.sched.Now()
		}
		h.sched.Advance(time.Millisecond)
	}

	want := []time.Duration{0, 180 * time.Millisecond, 360 * time.Millisecond}
	if len(launches) != len(want) {
		t.Fatalf("launches at %v, want %v", launches, want)
	}
	for i := range want {
		if launches[i] != want[i] {
			t.Errorf("launch %d at %v, want %v", i, launches[i], want[i])
		}
	}
	if dShakeStart != 360*time.Millisecond+700*time.Millisecond {
		t.Errorf("last target shake at %v, want 1060ms", dShakeStart)
	}
	if firedAt != 360*time.Millisecond+700*time.Millisecond {
		t.Errorf("resolved at %v, want 1060ms", firedAt)
	}
}

// TestPlayAllSingleFlight verifies rejection while a session is playing
func TestPlayAllSingleFlight(t *testing.T) {
	h := newHarness([]board.Team{
		{Name: "A", Life: 3, Affinity: "Chess"},
		{Name: "B", Life: 3, Affinity: "Chess"},
	})
	h.engine.SetEntries([]board.LogEntry{
		{Attacker: "A", Game: "Chess", Outcome: "공격"},
		{Attacker: "B", Game: "Chess", Outcome: "공격"},
	})

	var accepted, rejected int
	h.engine.OnPlayAll = func(ok bool) {
		if ok {
			accepted++
		} else {
			rejected++
		}
	}

	sig, ok := h.engine.PlayAll()
	if !ok || sig == nil {
		t.Fatal("first PlayAll should start")
	}
	if h.engine.State() != Playing {
		t.Fatalf("state = %v, want playing", h.engine.State())
	}

	again, ok := h.engine.PlayAll()
	if ok || again != nil {
		t.Error("second PlayAll should be rejected")
	}
	if h.engine.State() != Playing {
		t.Error("rejection must leave the session playing")
	}

	h.sched.RunUntilIdle(30 * time.Second)
	if !sig.Fired() || h.engine.State() != Idle {
		t.Errorf("session should finish idle: fired=%v state=%v", sig.Fired(), h.engine.State())
	}
	if accepted != 1 || rejected != 1 {
		t.Errorf("accepted=%d rejected=%d", accepted, rejected)
	}

	if _, ok := h.engine.PlayAll(); !ok {
		t.Error("PlayAll should be accepted again once idle")
	}
}

// TestPlayAllWalksFeedOrder verifies sequencing and the entry pause
func TestPlayAllWalksFeedOrder(t *testing.T) {
	h := newHarness([]board.Team{
		{Name: "A", Life: 3, Affinity: "Chess"},
		{Name: "B", Life: 3, Affinity: "Chess"},
		{Name: "C", Life: 3, Affinity: "Go"},
	})
	h.engine.SetEntries([]board.LogEntry{
		{Attacker: "A", Game: "Chess", Outcome: "공격"},
		{Attacker: "Nobody", Game: "Chess", Outcome: "공격"},
		{Attacker: "C", Game: "Chess", Outcome: "회복"},
	})

	type event struct {
		attacker string
		at       time.Duration
	}
	var resolved []event
	h.engine.OnResolve = func(e board.LogEntry, _ int) {
		resolved = append(resolved, event{e.Attacker, h.sched.Now()})
	}

	// A hits B and settles at 700ms, the unknown attacker is a no-op,
	// and C heals both Chess teams.
	sig, _ := h.engine.PlayAll()
	h.sched.RunUntilIdle(30 * time.Second)

	want := []event{
		{"A", 0},
		{"Nobody", 1000 * time.Millisecond},
		{"C", 1300 * time.Millisecond},
	}
	if len(resolved) != len(want) {
		t.Fatalf("resolved %v, want %v", resolved, want)
	}
	for i := range want {
		if resolved[i] != want[i] {
			t.Errorf("entry %d = %+v, want %+v", i, resolved[i], want[i])
		}
	}
	if !sig.Fired() {
		t.Error("session signal should fire")
	}
	if h.cues.heal != 2 {
		t.Errorf("heal cues = %d, want 2", h.cues.heal)
	}
}

// TestPlayAllEmpty verifies an empty log finishes immediately
func TestPlayAllEmpty(t *testing.T) {
	h := newHarness(nil)
	sig, ok := h.engine.PlayAll()
	if !ok || !sig.Fired() {
		t.Error("empty PlayAll should complete at once")
	}
	if h.engine.State() != Idle {
		t.Error("state should be idle")
	}
}

// TestEntryIndex verifies ids, lookup and display order
func TestEntryIndex(t *testing.T) {
	h := newHarness([]board.Team{{Name: "A", Life: 3, Affinity: "Chess"}})
	h.engine.SetEntries([]board.LogEntry{
		{Attacker: "A", Game: "Chess", Outcome: "first"},
		{Attacker: "A", Game: "Chess", Outcome: "second"},
	})

	e, ok := h.engine.Entry("log-1")
	if !ok || e.Outcome != "second" || e.ID != "log-1" {
		t.Errorf("Entry(log-1) = %+v, %v", e, ok)
	}

	display := h.engine.Display()
	if display[0].Outcome != "second" || display[1].Outcome != "first" {
		t.Errorf("display should be most recent first: %+v", display)
	}
	if entries := h.engine.Entries(); entries[0].Outcome != "first" {
		t.Errorf("entries should be feed order: %+v", entries)
	}

	if _, err := h.engine.ResolveID("log-9"); !errors.Is(err, ErrUnknownEntry) {
		t.Errorf("ResolveID unknown = %v, want ErrUnknownEntry", err)
	}
	if sig, err := h.engine.ResolveID("log-0"); err != nil || sig == nil {
		t.Errorf("ResolveID(log-0) = %v, %v", sig, err)
	}
}
