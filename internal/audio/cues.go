package audio

import (
	"math/rand"
	"time"

	"github.com/gopxl/beep"
)

// Cue identifies one of the procedural sound cues
type Cue int

const (
	CueLaunch Cue = iota
	CueImpact
	CueHeal
	cueCount
)

// String returns the metric label of the cue
func (c Cue) String() string {
	switch c {
	case CueLaunch:
		return "launch"
	case CueImpact:
		return "impact"
	case CueHeal:
		return "heal"
	default:
		return "unknown"
	}
}

// Cue durations; the mixer drops each cue once its duration has played
const (
	LaunchDuration = 400 * time.Millisecond
	ImpactDuration = 600 * time.Millisecond
	HealDuration   = 500 * time.Millisecond

	impactNoiseBuffer   = 600 * time.Millisecond
	impactNoiseDuration = 500 * time.Millisecond
)

// Duration returns how long a cue plays
func (c Cue) Duration() time.Duration {
	switch c {
	case CueLaunch:
		return LaunchDuration
	case CueImpact:
		return ImpactDuration
	case CueHeal:
		return HealDuration
	default:
		return 0
	}
}

// launchVoice: triangle falling 500 -> 60 Hz with a fading gain
func launchVoice(rate beep.SampleRate) beep.Streamer {
	return newSweep(WaveTriangle,
		ramp{{0, 500}, {LaunchDuration, 60}},
		ramp{{0, 0.4}, {LaunchDuration, 0.001}},
		LaunchDuration, rate)
}

// impactVoice: low sine punch layered with a band-passed noise burst
func impactVoice(rate beep.SampleRate, rng *rand.Rand) beep.Streamer {
	punch := newSweep(WaveSine,
		ramp{{0, 120}, {180 * time.Millisecond, 60}},
		ramp{{0, 0.001}, {20 * time.Millisecond, 0.6}, {ImpactDuration, 0.0001}},
		ImpactDuration, rate)

	noise := newNoiseBurst(impactNoiseBuffer, impactNoiseDuration, 1000, 0.6,
		ramp{{0, 0.8}, {impactNoiseDuration, 0.001}},
		rate, rng)

	return beep.Mix(punch, noise)
}

// healVoice: rising sine 200 -> 800 Hz with a soft swell
func healVoice(rate beep.SampleRate) beep.Streamer {
	return newSweep(WaveSine,
		ramp{{0, 200}, {400 * time.Millisecond, 800}},
		ramp{{0, 0.0001}, {50 * time.Millisecond, 0.2}, {HealDuration, 0.0001}},
		HealDuration, rate)
}

// newCueStreamer builds a fresh streamer for a cue, cut to its fixed
// duration and scaled by vol.
func newCueStreamer(c Cue, rate beep.SampleRate, vol float64, rng *rand.Rand) beep.Streamer {
	var voice beep.Streamer
	switch c {
	case CueLaunch:
		voice = launchVoice(rate)
	case CueImpact:
		voice = impactVoice(rate, rng)
	case CueHeal:
		voice = healVoice(rate)
	default:
		return nil
	}
	return newVolume(beep.Take(rate.N(c.Duration()), voice), vol)
}
