// Package replay resolves log entries into timed board effects: attacker
// shakes, staggered projectiles or heals on matching targets, and a
// single-flight walk over the whole log.
package replay

import (
	"errors"
	"fmt"
	"log"
	"slices"
	"sync"
	"sync/atomic"
	"time"

	"battle-board/internal/animation"
	"battle-board/internal/board"
	"battle-board/internal/config"
	"battle-board/internal/schedule"
)

// ErrUnknownEntry is returned when a log entry id is not in the current index
var ErrUnknownEntry = errors.New("unknown log entry")

// Launcher starts a projectile between two token rectangles
type Launcher interface {
	Launch(from, to board.Rect, onArrive func()) *animation.Flight
}

// Cues triggers the sound cues of an effect
type Cues interface {
	PlayLaunch()
	PlayImpact()
	PlayHeal()
}

// State is the replay session state
type State int32

const (
	Idle State = iota
	Playing
)

func (s State) String() string {
	if s == Playing {
		return "playing"
	}
	return "idle"
}

// Engine resolves entries against a board. ResolveOne and PlayAll must run
// on the scheduler goroutine; the entry index and State are safe from any.
type Engine struct {
	sched    schedule.Scheduler
	board    *board.Board
	launcher Launcher
	cues     Cues
	timing   config.TimingConfig

	state atomic.Int32

	mu      sync.RWMutex
	entries []board.LogEntry
	byID    map[string]board.LogEntry

	// Optional observers (metrics)
	OnResolve  func(e board.LogEntry, targets int)
	OnPlayAll  func(accepted bool)
	OnFinished func()
}

// NewEngine creates a replay engine
func NewEngine(s schedule.Scheduler, b *board.Board, l Launcher, c Cues, timing config.TimingConfig) *Engine {
	return &Engine{
		sched:    s,
		board:    b,
		launcher: l,
		cues:     c,
		timing:   timing,
		byID:     make(map[string]board.LogEntry),
	}
}

// State returns the current session state
func (e *Engine) State() State {
	return State(e.state.Load())
}

// ============================================================================
// Entry index
// ============================================================================

// SetEntries replaces the entry index. Entries are kept in feed order and
// each one gets the id "log-<feed index>".
func (e *Engine) SetEntries(entries []board.LogEntry) {
	indexed := make([]board.LogEntry, len(entries))
	byID := make(map[string]board.LogEntry, len(entries))
	for i, entry := range entries {
		entry.ID = fmt.Sprintf("log-%d", i)
		indexed[i] = entry
		byID[entry.ID] = entry
	}

	e.mu.Lock()
	e.entries = indexed
	e.byID = byID
	e.mu.Unlock()
}

// Entry looks up an entry by id
func (e *Engine) Entry(id string) (board.LogEntry, bool) {
	e.mu.RLock()
	defer e.mu.RUnlock()
	entry, ok := e.byID[id]
	return entry, ok
}

// Entries returns the entries in feed order (oldest first)
func (e *Engine) Entries() []board.LogEntry {
	e.mu.RLock()
	defer e.mu.RUnlock()
	return slices.Clone(e.entries)
}

// Display returns the entries most recent first, as the log box shows them
func (e *Engine) Display() []board.LogEntry {
	out := e.Entries()
	slices.Reverse(out)
	return out
}

// ============================================================================
// Resolution
// ============================================================================

// ResolveID resolves the indexed entry with the given id
func (e *Engine) ResolveID(id string) (*schedule.Signal, error) {
	entry, ok := e.Entry(id)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownEntry, id)
	}
	return e.ResolveOne(entry), nil
}

// ResolveOne plays one entry on the board. The returned signal fires once the
// last target effect has been dispatched plus the settle delay. It measures
// dispatch, not the end of every animation.
func (e *Engine) ResolveOne(entry board.LogEntry) *schedule.Signal {
	attacker := e.board.Token(entry.Attacker)
	if attacker == nil {
		e.resolved(entry, 0)
		return schedule.Resolved()
	}

	board.Pulse(e.sched, attacker, board.FlagShaking, e.timing.ShakePulse)

	targets := e.board.Targets(entry.Attacker, entry.Game)
	e.resolved(entry, len(targets))
	if len(targets) == 0 {
		return schedule.Resolved()
	}

	done := schedule.NewSignal()
	heal := entry.IsHeal()
	dispatched := 0

	for i, target := range targets {
		target := target // per-iteration copy; go.mod targets go1.21 loop semantics
		e.sched.After(e.timing.TargetStagger*time.Duration(i), func() {
			if heal {
				e.heal(target)
			} else {
				e.attack(attacker, target)
			}

			dispatched++
			if dispatched == len(targets) {
				e.sched.After(e.timing.SettleDelay, done.Fire)
			}
		})
	}
	return done
}

func (e *Engine) heal(target *board.Token) {
	e.cues.PlayHeal()
	board.Pulse(e.sched, target, board.FlagHealing, e.timing.HealPulse)
}

func (e *Engine) attack(attacker, target *board.Token) {
	e.cues.PlayLaunch()
	e.launcher.Launch(attacker.Geometry.Rect, target.Geometry.Rect, e.cues.PlayImpact)

	// Shake lands at the approximate impact time, independent of flight length
	e.sched.After(e.timing.ImpactDelay, func() {
		board.Pulse(e.sched, target, board.FlagShaking, e.timing.ShakePulse)
	})
}

func (e *Engine) resolved(entry board.LogEntry, targets int) {
	if e.OnResolve != nil {
		e.OnResolve(entry, targets)
	}
}

// ============================================================================
// Full replay
// ============================================================================

// PlayAll replays every entry in feed order, waiting for each entry to
// resolve plus the entry pause before the next. Only one session may play at
// a time: while one is Playing the call is rejected and returns false.
func (e *Engine) PlayAll() (*schedule.Signal, bool) {
	if !e.state.CompareAndSwap(int32(Idle), int32(Playing)) {
		if e.OnPlayAll != nil {
			e.OnPlayAll(false)
		}
		return nil, false
	}
	if e.OnPlayAll != nil {
		e.OnPlayAll(true)
	}

	entries := e.Entries()
	log.Printf("▶️ Replaying %d log entries", len(entries))

	done := schedule.NewSignal()
	var step func(i int)
	step = func(i int) {
		if i >= len(entries) {
			e.state.Store(int32(Idle))
			log.Printf("⏹️ Replay finished")
			if e.OnFinished != nil {
				e.OnFinished()
			}
			done.Fire()
			return
		}
		e.ResolveOne(entries[i]).Then(func() {
			e.sched.After(e.timing.EntryPause, func() { step(i + 1) })
		})
	}
	step(0)

	return done, true
}
