package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveTriangle
)

// rampPoint is one automation breakpoint
type rampPoint struct {
	at    time.Duration
	value float64
}

// ramp is a parameter curve made of exponential segments between breakpoints,
// held flat before the first and after the last breakpoint.
type ramp []rampPoint

// valueAt evaluates the curve at t seconds
func (r ramp) valueAt(t float64) float64 {
	if len(r) == 0 {
		return 0
	}
	if t <= r[0].at.Seconds() {
		return r[0].value
	}
	for i := 1; i < len(r); i++ {
		a, b := r[i-1], r[i]
		ta, tb := a.at.Seconds(), b.at.Seconds()
		if t > tb {
			continue
		}
		if tb <= ta || a.value <= 0 || b.value <= 0 {
			return b.value
		}
		return a.value * math.Pow(b.value/a.value, (t-ta)/(tb-ta))
	}
	return r[len(r)-1].value
}

// sweep is a tone generator whose frequency and gain follow ramps
type sweep struct {
	wave     WaveType
	freq     ramp
	gain     ramp
	rate     beep.SampleRate
	phase    float64
	position int
	duration int
}

// newSweep creates a swept tone lasting d
func newSweep(wave WaveType, freq, gain ramp, d time.Duration, rate beep.SampleRate) *sweep {
	return &sweep{
		wave:     wave,
		freq:     freq,
		gain:     gain,
		rate:     rate,
		duration: rate.N(d),
	}
}

func (s *sweep) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if s.position >= s.duration {
			return i, i > 0
		}
		t := float64(s.position) / float64(s.rate)

		var val float64
		switch s.wave {
		case WaveTriangle:
			val = 1 - 4*math.Abs(s.phase-0.5)
		default:
			val = math.Sin(2 * math.Pi * s.phase)
		}
		val *= s.gain.valueAt(t)

		samples[i][0] = val
		samples[i][1] = val

		s.phase += s.freq.valueAt(t) / float64(s.rate)
		s.phase -= math.Floor(s.phase)
		s.position++
	}
	return len(samples), true
}

func (s *sweep) Err() error { return nil }

// noiseBurst plays a decaying white-noise buffer through a band-pass filter
type noiseBurst struct {
	buffer   []float64
	gain     ramp
	filter   biquad
	rate     beep.SampleRate
	position int
	duration int
}

// newNoiseBurst fills a bufferLen buffer with linearly decaying noise, and
// plays the first d of it through a band-pass at center/q.
func newNoiseBurst(bufferLen, d time.Duration, center, q float64, gain ramp, rate beep.SampleRate, rng *rand.Rand) *noiseBurst {
	size := rate.N(bufferLen)
	buf := make([]float64, size)
	for i := range buf {
		buf[i] = (rng.Float64()*2 - 1) * (1 - float64(i)/float64(size))
	}
	return &noiseBurst{
		buffer:   buf,
		gain:     gain,
		filter:   newBandPass(center, q, float64(rate)),
		rate:     rate,
		duration: min(rate.N(d), size),
	}
}

func (nb *noiseBurst) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if nb.position >= nb.duration {
			return i, i > 0
		}
		t := float64(nb.position) / float64(nb.rate)
		val := nb.filter.process(nb.buffer[nb.position]) * nb.gain.valueAt(t)

		samples[i][0] = val
		samples[i][1] = val
		nb.position++
	}
	return len(samples), true
}

func (nb *noiseBurst) Err() error { return nil }

// biquad is a direct-form-I second-order filter
type biquad struct {
	b0, b1, b2, a1, a2 float64
	x1, x2, y1, y2     float64
}

// newBandPass builds a constant 0 dB peak gain band-pass (RBJ cookbook)
func newBandPass(center, q, sampleRate float64) biquad {
	w0 := 2 * math.Pi * center / sampleRate
	alpha := math.Sin(w0) / (2 * q)
	a0 := 1 + alpha
	return biquad{
		b0: alpha / a0,
		b1: 0,
		b2: -alpha / a0,
		a1: -2 * math.Cos(w0) / a0,
		a2: (1 - alpha) / a0,
	}
}

func (f *biquad) process(x float64) float64 {
	y := f.b0*x + f.b1*f.x1 + f.b2*f.x2 - f.a1*f.y1 - f.a2*f.y2
	f.x2, f.x1 = f.x1, x
	f.y2, f.y1 = f.y1, y
	return y
}

// Helper to create a volume effect safely
// math.Log2(0) is -Inf, so we handle 0 volume by making it silent
func newVolume(s beep.Streamer, vol float64) beep.Streamer {
	if vol <= 0 {
		return &effects.Volume{Streamer: s, Base: 2, Volume: 0, Silent: true}
	}
	return &effects.Volume{Streamer: s, Base: 2, Volume: math.Log2(vol), Silent: false}
}
