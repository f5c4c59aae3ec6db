package audio

import (
	"math"
	"math/rand"
	"time"

	"github.com/gopxl/beep"
)

// WaveType defines oscillator wave shapes
type WaveType int

const (
	WaveSine WaveType = iota
	WaveSquare
	WaveSaw
	WaveTriangle
	WaveNoise
)

// oscillator generates raw audio waves for a bounded duration
type oscillator struct {
	freq     float64
	phase    float64
	duration int
	position int
	wave     WaveType
	rate     beep.SampleRate
}

// NewOscillator creates a streamer producing the wave at unity gain
// for the given duration
func NewOscillator(freq float64, duration time.Duration, wave WaveType, rate beep.SampleRate) beep.Streamer {
	return &oscillator{
		freq:     freq,
		duration: rate.N(duration),
		wave:     wave,
		rate:     rate,
	}
}

func (o *oscillator) Stream(samples [][2]float64) (n int, ok bool) {
	for i := range samples {
		if o.position >= o.duration {
			return i, i > 0
		}

		var val float64
		switch o.wave {
		case WaveSine:
			val = math.Sin(2 * math.Pi * o.phase)
		case WaveSquare:
			if o.phase < 0.5 {
				val = 1.0
			} else {
				val = -1.0
			}
		case WaveSaw:
			val = 2.0 * (o.phase - 0.5)
		case WaveTriangle:
			val = 4.0*math.Abs(o.phase-0.5) - 1.0
		case WaveNoise:
			val = rand.Float64()*2 - 1
		}

		samples[i][0] = val
		samples[i][1] = val

		// Advance phase, kept in [0, 1)
		o.phase += o.freq / float64(o.rate)
		o.phase = o.phase - math.Floor(o.phase)
		o.position++
	}
	return len(samples), true
}

func (o *oscillator) Err() error { return nil }

// decayEnvelope scales a stream by an exponential falloff from an
// initial gain toward zero over its total duration
type decayEnvelope struct {
	streamer beep.Streamer
	gain     float64
	rate     float64 // decay exponent over the full duration
	position int
	total    int
}

// NewDecayEnvelope wraps s with an exponential amplitude decay: the
// output starts at gain and falls to gain*e^-rate at duration's end
func NewDecayEnvelope(s beep.Streamer, gain, rate float64, duration time.Duration, sr beep.SampleRate) beep.Streamer {
	total := sr.N(duration)
	if total < 1 {
		total = 1
	}
	return &decayEnvelope{
		streamer: s,
		gain:     gain,
		rate:     rate,
		total:    total,
	}
}

func (d *decayEnvelope) Stream(samples [][2]float64) (n int, ok bool) {
	n, ok = d.streamer.Stream(samples)
	for i := 0; i < n; i++ {
		t := float64(d.position) / float64(d.total)
		vol := d.gain * math.Exp(-d.rate*t)
		samples[i][0] *= vol
		samples[i][1] *= vol
		d.position++
	}
	return n, ok
}

func (d *decayEnvelope) Err() error {
	return d.streamer.Err()
}
