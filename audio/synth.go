package audio

import (
	"sync"
	"time"

	"github.com/gopxl/beep"
	"github.com/gopxl/beep/effects"
	"github.com/gopxl/beep/speaker"
)

const (
	sampleRate = beep.SampleRate(48000)

	// beepGain is the initial amplitude of a synthesized tone before
	// the exponential decay takes it toward zero
	beepGain = 0.3

	// beepDecayRate is the decay exponent over a tone's duration;
	// e^-7 leaves well under 0.1% of the initial gain at the tail
	beepDecayRate = 7.0

	// DefaultBeepFreq and DefaultBeepDuration are applied when Beep is
	// called with zero arguments
	DefaultBeepFreq     = 660.0
	DefaultBeepDuration = 90 * time.Millisecond
)

// BlipKind selects one of the preset UI blips
type BlipKind int

const (
	BlipHover BlipKind = iota
	BlipPress
	BlipCounter
)

// Synth is the sound subsystem: a speaker-backed mixer synthesizing
// short retro tones. All playback methods are no-ops until Initialize
// succeeds, so a host without an audio device degrades silently.
type Synth struct {
	mu          sync.Mutex
	mixer       *beep.Mixer
	volume      float64
	initialized bool
}

// NewSynth creates a synth; no audio resources are touched until
// Initialize
func NewSynth() *Synth {
	return &Synth{
		mixer:  &beep.Mixer{},
		volume: 0,
	}
}

// Initialize sets up the speaker and starts the mixer
func (s *Synth) Initialize() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.initialized {
		return nil
	}

	err := speaker.Init(sampleRate, sampleRate.N(time.Millisecond*100))
	if err != nil {
		return err
	}

	speaker.Play(s.mixer)
	s.initialized = true
	return nil
}

// Initialized reports whether the speaker is live
func (s *Synth) Initialized() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.initialized
}

// SetVolume adjusts master volume in base-2 units; 0 is unity,
// negative is quieter
func (s *Synth) SetVolume(v float64) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.volume = v
}

// Close stops all sounds and releases the mixer. The synth may be
// re-initialized afterwards. Safe to call repeatedly and before
// Initialize.
func (s *Synth) Close() {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return
	}

	// Clearing the mixer is the supported teardown; the speaker itself
	// stays open for the process lifetime
	speaker.Lock()
	s.mixer.Clear()
	speaker.Unlock()
	s.initialized = false
}

// Beep synthesizes a square-wave tone with exponential amplitude
// decay. Zero or negative arguments select the defaults. Returns
// false without side effect when the synth is not initialized.
func (s *Synth) Beep(freq float64, duration time.Duration) bool {
	if freq <= 0 {
		freq = DefaultBeepFreq
	}
	if duration <= 0 {
		duration = DefaultBeepDuration
	}
	return s.Tone(WaveSquare, freq, duration)
}

// Tone synthesizes a decaying tone of the given wave shape
func (s *Synth) Tone(wave WaveType, freq float64, duration time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.initialized {
		return false
	}

	osc := NewOscillator(freq, duration, wave, sampleRate)
	tone := NewDecayEnvelope(osc, beepGain, beepDecayRate, duration, sampleRate)
	vol := &effects.Volume{Streamer: tone, Base: 2, Volume: s.volume}

	speaker.Lock()
	s.mixer.Add(vol)
	speaker.Unlock()
	return true
}

// Blip plays one of the preset UI sounds
func (s *Synth) Blip(kind BlipKind) bool {
	switch kind {
	case BlipHover:
		return s.Tone(WaveSquare, 880, 40*time.Millisecond)
	case BlipPress:
		return s.Tone(WaveSquare, 440, 80*time.Millisecond)
	case BlipCounter:
		return s.Tone(WaveTriangle, 1320, 30*time.Millisecond)
	default:
		return false
	}
}
