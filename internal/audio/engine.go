// Package audio synthesizes the short procedural cues that accompany a replay:
// a falling whistle on launch, a thump with a noise burst on impact and a
// rising chime on heal.
package audio

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gopxl/beep"

	"battle-board/internal/config"
)

// CueEngine triggers cues on a lazily opened output.
// Cues are fire-and-forget; when the output cannot be opened they are silent.
type CueEngine struct {
	handle  *handle
	volume  float64
	enabled bool

	mu     sync.Mutex
	rng    *rand.Rand
	counts [cueCount]uint64

	// OnCue is called for every triggered cue, audible or not
	OnCue func(c Cue)
}

// NewCueEngine creates a cue engine. The output is opened on the first cue.
func NewCueEngine(cfg config.AudioConfig, open Opener) *CueEngine {
	return &CueEngine{
		handle:  newHandle(open),
		volume:  cfg.Volume,
		enabled: cfg.Enabled,
		rng:     rand.New(rand.NewSource(time.Now().UnixNano())),
	}
}

// OpenerFor returns the opener for the configured backend
func OpenerFor(cfg config.AudioConfig) Opener {
	rate := beep.SampleRate(cfg.SampleRate)
	switch cfg.Backend {
	case "capture":
		return func() (Output, error) { return NewCaptureOutput(rate), nil }
	case "none":
		return nil
	default:
		return func() (Output, error) { return OpenSpeaker(rate) }
	}
}

// PlayLaunch plays the projectile launch whistle
func (e *CueEngine) PlayLaunch() { e.play(CueLaunch) }

// PlayImpact plays the explosion
func (e *CueEngine) PlayImpact() { e.play(CueImpact) }

// PlayHeal plays the heal chime
func (e *CueEngine) PlayHeal() { e.play(CueHeal) }

// Count returns how many times a cue was triggered
func (e *CueEngine) Count(c Cue) uint64 {
	e.mu.Lock()
	defer e.mu.Unlock()
	if c < 0 || c >= cueCount {
		return 0
	}
	return e.counts[c]
}

func (e *CueEngine) play(c Cue) {
	e.mu.Lock()
	e.counts[c]++
	e.mu.Unlock()

	if e.OnCue != nil {
		e.OnCue(c)
	}
	if !e.enabled {
		return
	}

	out, err := e.handle.get()
	if err != nil {
		return
	}

	e.mu.Lock()
	s := newCueStreamer(c, out.SampleRate(), e.volume, e.rng)
	e.mu.Unlock()

	out.Play(s)
}
