// Package battle hosts the board: it owns the scheduler loop and wires the
// roster, layout, projectile, cue, replay and info panel components together.
// Every mutation runs on the loop goroutine; readers get immutable snapshots.
package battle

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"sync/atomic"
	"time"

	"battle-board/internal/animation"
	"battle-board/internal/board"
	"battle-board/internal/config"
	"battle-board/internal/feed"
	"battle-board/internal/infopanel"
	"battle-board/internal/layout"
	"battle-board/internal/replay"
	"battle-board/internal/schedule"
)

// ErrInvalidViewport is returned when a resize has a non-positive dimension
var ErrInvalidViewport = errors.New("invalid viewport")

// Observer receives board activity (metrics)
type Observer interface {
	PlaybackStarted()
	PlaybackRejected()
	PlaybackFinished()
	EntryResolved(kind string, targets int)
	ProjectileLaunched()
	ProjectileRemoved()
}

// Engine is the board host
type Engine struct {
	cfg config.AppConfig

	loop  *schedule.Loop // nil when driven by an external scheduler
	sched schedule.Scheduler

	board  *board.Board
	layout *layout.Engine
	anim   *animation.Animator
	replay *replay.Engine
	panel  *infopanel.Controller

	viewport board.Rect
	logBox   board.Rect

	started  bool
	running  atomic.Bool
	sequence uint64
	snapshot atomic.Pointer[Snapshot]

	obsMu    sync.Mutex
	observer Observer
}

// NewEngine creates an engine on its own real-time loop
func NewEngine(cfg config.AppConfig, measure layout.Measurer, cues replay.Cues) *Engine {
	loop := schedule.NewLoop(cfg.Viewport.FPS)
	e := newEngine(cfg, loop, measure, cues)
	e.loop = loop
	return e
}

// NewEngineWithScheduler creates an engine driven by s. Operations run inline
// on the caller's goroutine, which must be the one driving s.
func NewEngineWithScheduler(cfg config.AppConfig, s schedule.Scheduler, measure layout.Measurer, cues replay.Cues) *Engine {
	return newEngine(cfg, s, measure, cues)
}

func newEngine(cfg config.AppConfig, s schedule.Scheduler, measure layout.Measurer, cues replay.Cues) *Engine {
	e := &Engine{
		cfg:    cfg,
		sched:  s,
		board:  board.New(),
		layout: layout.NewEngine(measure),
		anim:   animation.NewAnimator(s),
		panel:  infopanel.NewController(s, cfg.Timing.PanelCycle, cfg.Timing.PinTimeout),
	}
	e.replay = replay.NewEngine(s, e.board, e.anim, cues, cfg.Timing)
	e.viewport = board.Rect{W: cfg.Viewport.Width, H: cfg.Viewport.Height}

	e.anim.OnLaunch = func(*animation.Flight) { e.observe(func(o Observer) { o.ProjectileLaunched() }) }
	e.anim.OnRemove = func(*animation.Flight) { e.observe(func(o Observer) { o.ProjectileRemoved() }) }
	e.replay.OnResolve = func(entry board.LogEntry, targets int) {
		e.observe(func(o Observer) { o.EntryResolved(entry.Kind(), targets) })
	}
	e.replay.OnPlayAll = func(accepted bool) {
		e.observe(func(o Observer) {
			if accepted {
				o.PlaybackStarted()
			} else {
				o.PlaybackRejected()
			}
		})
	}
	e.replay.OnFinished = func() { e.observe(func(o Observer) { o.PlaybackFinished() }) }

	e.relayout()
	e.publish()
	return e
}

// SetObserver registers the activity observer
func (e *Engine) SetObserver(o Observer) {
	e.obsMu.Lock()
	e.observer = o
	e.obsMu.Unlock()
}

func (e *Engine) observe(fn func(Observer)) {
	e.obsMu.Lock()
	o := e.observer
	e.obsMu.Unlock()
	if o != nil {
		fn(o)
	}
}

// ============================================================================
// Lifecycle
// ============================================================================

// Start runs the loop, the panel cycle and per-frame snapshots.
// Calling Start twice is a no-op.
func (e *Engine) Start() {
	if e.running.Swap(true) {
		return
	}
	if e.loop != nil {
		e.loop.Start()
	}
	e.do(context.Background(), func() {
		if e.started {
			return
		}
		e.started = true
		e.panel.Start()
		e.sched.NextFrame(e.frame)
	})
	log.Printf("🎮 Battle board started (%.0fx%.0f @ %d FPS)", e.viewport.W, e.viewport.H, e.cfg.Viewport.FPS)
}

// Stop halts the loop. Pending effects are discarded.
func (e *Engine) Stop() {
	if !e.running.Swap(false) {
		return
	}
	if e.loop != nil {
		e.loop.Stop()
	}
	log.Println("🛑 Battle board stopped")
}

// Running reports whether Start has been called without a matching Stop
func (e *Engine) Running() bool {
	return e.running.Load()
}

// frame publishes a snapshot every frame
func (e *Engine) frame(time.Duration) {
	e.publish()
	e.sched.NextFrame(e.frame)
}

// do runs fn on the loop goroutine, or inline when externally driven
func (e *Engine) do(ctx context.Context, fn func()) error {
	if e.loop == nil {
		fn()
		return nil
	}
	return e.loop.Do(ctx, fn)
}

// ============================================================================
// Operations
// ============================================================================

// ApplyFeed installs a fresh roster and log. Tokens are recreated, so any
// in-progress effects on the old tokens no longer show.
func (e *Engine) ApplyFeed(ctx context.Context, snap feed.Snapshot) error {
	return e.do(ctx, func() {
		e.board.Refresh(snap.Teams)
		e.replay.SetEntries(snap.Logs)
		e.panel.SetTeams(e.board.Teams())
		e.relayout()
		e.publish()
	})
}

// Resize changes the viewport and re-runs layout. Nothing is replayed.
func (e *Engine) Resize(ctx context.Context, width, height float64) error {
	if width <= 0 || height <= 0 {
		return fmt.Errorf("%w: %.0fx%.0f", ErrInvalidViewport, width, height)
	}
	return e.do(ctx, func() {
		e.viewport = board.Rect{W: width, H: height}
		e.relayout()
		e.publish()
	})
}

// ReplayEntry resolves one log entry by id
func (e *Engine) ReplayEntry(ctx context.Context, id string) error {
	var err error
	if doErr := e.do(ctx, func() {
		_, err = e.replay.ResolveID(id)
		e.publish()
	}); doErr != nil {
		return doErr
	}
	return err
}

// PlayAll starts a full replay. Returns false if one is already playing.
func (e *Engine) PlayAll(ctx context.Context) (bool, error) {
	var ok bool
	err := e.do(ctx, func() {
		_, ok = e.replay.PlayAll()
		e.publish()
	})
	if err == nil && !ok {
		log.Println("⏳ Replay already playing, request rejected")
	}
	return ok, err
}

// Pin pins a team on the info panel
func (e *Engine) Pin(ctx context.Context, team string) error {
	var err error
	if doErr := e.do(ctx, func() {
		err = e.panel.Pin(team)
		e.publish()
	}); doErr != nil {
		return doErr
	}
	return err
}

// Session returns the replay session state
func (e *Engine) Session() replay.State {
	return e.replay.State()
}

// Snapshot returns the latest published snapshot
func (e *Engine) Snapshot() *Snapshot {
	return e.snapshot.Load()
}

// ============================================================================
// Loop-goroutine helpers
// ============================================================================

func (e *Engine) relayout() {
	e.logBox = layout.LogBox(e.viewport)
	e.layout.Layout(e.board.Tokens(), e.logBox, e.viewport)
}

// publish builds and stores a snapshot of current state
func (e *Engine) publish() {
	tokens := e.board.Tokens()
	entries := e.replay.Display()
	flights := e.anim.Active()

	e.sequence++
	snap := &Snapshot{
		Sequence: e.sequence,
		At:       e.sched.Now(),
		Viewport: e.viewport,
		LogBox:   e.logBox,
		Tokens:   make([]TokenView, len(tokens)),
		Logs:     make([]LogLine, len(entries)),
		Flights:  make([]FlightView, len(flights)),
		Panel:    e.panel.View(),
		Session:  e.replay.State().String(),
	}
	for i, t := range tokens {
		snap.Tokens[i] = tokenView(t)
	}
	for i, entry := range entries {
		snap.Logs[i] = logLine(entry)
	}
	for i, f := range flights {
		snap.Flights[i] = flightView(f)
	}
	e.snapshot.Store(snap)
}
