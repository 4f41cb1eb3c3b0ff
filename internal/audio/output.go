package audio

import (
	"encoding/binary"
	"errors"
	"log"
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/speaker"
)

// ErrDisabled is returned by outputs that were switched off in config
var ErrDisabled = errors.New("audio output disabled")

// Output is a sound device that cues are mixed into.
// Play must not block on the device.
type Output interface {
	Play(s beep.Streamer)
	Suspended() bool
	Resume() error
	SampleRate() beep.SampleRate
}

// Opener creates an Output on first use
type Opener func() (Output, error)

// handle lazily opens an output at most once. A failed open is remembered
// and every later call reports the same error without retrying.
type handle struct {
	mu     sync.Mutex
	open   Opener
	out    Output
	err    error
	opened bool
}

func newHandle(open Opener) *handle {
	return &handle{open: open}
}

// get returns the shared output, resuming it if the platform suspended it
func (h *handle) get() (Output, error) {
	h.mu.Lock()
	defer h.mu.Unlock()

	if !h.opened {
		h.opened = true
		if h.open == nil {
			h.err = ErrDisabled
		} else {
			h.out, h.err = h.open()
		}
		if h.err != nil {
			log.Printf("🔇 Audio output unavailable: %v", h.err)
		}
	}
	if h.err != nil {
		return nil, h.err
	}

	if h.out.Suspended() {
		if err := h.out.Resume(); err != nil {
			return nil, err
		}
	}
	return h.out, nil
}

// ============================================================================
// Speaker output
// ============================================================================

// SpeakerOutput plays cues on the system speaker through one shared mixer
type SpeakerOutput struct {
	mu        sync.Mutex
	rate      beep.SampleRate
	mixer     *beep.Mixer
	suspended bool
}

// OpenSpeaker initializes the speaker with a 100ms buffer and starts the mixer
func OpenSpeaker(rate beep.SampleRate) (*SpeakerOutput, error) {
	if err := speaker.Init(rate, rate.N(100*time.Millisecond)); err != nil {
		return nil, err
	}
	out := &SpeakerOutput{
		rate:  rate,
		mixer: &beep.Mixer{},
	}
	speaker.Play(out.mixer)
	log.Printf("🔊 Speaker initialized at %d Hz", rate)
	return out, nil
}

func (o *SpeakerOutput) Play(s beep.Streamer) {
	speaker.Lock()
	o.mixer.Add(s)
	speaker.Unlock()
}

// Suspend pauses the device until the next Resume
func (o *SpeakerOutput) Suspend() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.suspended {
		return nil
	}
	if err := speaker.Suspend(); err != nil {
		return err
	}
	o.suspended = true
	return nil
}

func (o *SpeakerOutput) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suspended
}

func (o *SpeakerOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	if !o.suspended {
		return nil
	}
	if err := speaker.Resume(); err != nil {
		return err
	}
	o.suspended = false
	return nil
}

func (o *SpeakerOutput) SampleRate() beep.SampleRate { return o.rate }

// ============================================================================
// Capture output
// ============================================================================

// CaptureOutput mixes cues in memory and hands out PCM frames on demand.
// It backs headless deployments and tests.
type CaptureOutput struct {
	mu        sync.Mutex
	rate      beep.SampleRate
	mixer     *beep.Mixer
	suspended bool
	played    int
}

// NewCaptureOutput creates an in-memory output
func NewCaptureOutput(rate beep.SampleRate) *CaptureOutput {
	return &CaptureOutput{
		rate:  rate,
		mixer: &beep.Mixer{},
	}
}

func (o *CaptureOutput) Play(s beep.Streamer) {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.mixer.Add(s)
	o.played++
}

// Suspend marks the output as suspended; frames are silent until resumed
func (o *CaptureOutput) Suspend() {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = true
}

func (o *CaptureOutput) Suspended() bool {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.suspended
}

func (o *CaptureOutput) Resume() error {
	o.mu.Lock()
	defer o.mu.Unlock()
	o.suspended = false
	return nil
}

func (o *CaptureOutput) SampleRate() beep.SampleRate { return o.rate }

// Active returns the number of cues still sounding
func (o *CaptureOutput) Active() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.mixer.Len()
}

// Played returns the number of cues handed to this output
func (o *CaptureOutput) Played() int {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.played
}

// GenerateFrame mixes d worth of audio into interleaved stereo s16le PCM.
// Applies soft limiting at ±30000 to prevent clipping when cues overlap.
func (o *CaptureOutput) GenerateFrame(d time.Duration) []byte {
	o.mu.Lock()
	defer o.mu.Unlock()

	n := o.rate.N(d)
	output := make([]byte, n*4)
	if o.suspended || n == 0 {
		return output
	}

	samples := make([][2]float64, n)
	o.mixer.Stream(samples)

	for i, frame := range samples {
		for ch := 0; ch < 2; ch++ {
			sample := int32(frame[ch] * 32767)

			// Soft limiting: gradual compression above ±30000
			if sample > 30000 {
				sample = 30000 + (sample-30000)/4
			} else if sample < -30000 {
				sample = -30000 + (sample+30000)/4
			}

			// Final hard clamp
			if sample > 32767 {
				sample = 32767
			} else if sample < -32768 {
				sample = -32768
			}

			binary.LittleEndian.PutUint16(output[(i*2+ch)*2:], uint16(int16(sample)))
		}
	}
	return output
}
