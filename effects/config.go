package effects

import (
	"time"

	"github.com/lucasb-eyer/go-colorful"
)

// Config is the manager's full configuration: per-effect enable flags
// plus tunables. Values are plain; the manager replaces or merges the
// whole record, never mutates it in place.
type Config struct {
	Scanlines    bool
	ArcadeFrame  bool
	Particles    bool
	Glitch       bool
	Counters     bool
	SmoothScroll bool
	Sound        bool

	ParticleInterval time.Duration
	GlitchInterval   time.Duration
	ParticleColors   []string
	Debug            bool
}

// DefaultConfig returns the stock arcade setup: every visual on,
// sound on (it degrades silently without a device), neon palette
func DefaultConfig() Config {
	return Config{
		Scanlines:        true,
		ArcadeFrame:      true,
		Particles:        true,
		Glitch:           true,
		Counters:         true,
		SmoothScroll:     true,
		Sound:            true,
		ParticleInterval: DefaultParticleInterval,
		GlitchInterval:   DefaultGlitchInterval,
		ParticleColors:   []string{"#39FF14", "#00FFFF", "#FF00FF", "#FFE900"},
	}
}

// Options is a partial configuration overlay: nil fields keep the
// current value. Being typed, it cannot carry unrecognized keys.
type Options struct {
	Scanlines    *bool
	ArcadeFrame  *bool
	Particles    *bool
	Glitch       *bool
	Counters     *bool
	SmoothScroll *bool
	Sound        *bool

	ParticleInterval *time.Duration
	GlitchInterval   *time.Duration
	ParticleColors   []string
	Debug            *bool
}

// merged returns c with every set field of o applied. Palette entries
// that do not parse as hex colors are dropped at this boundary.
func (c Config) merged(o Options) Config {
	out := c.snapshot()
	if o.Scanlines != nil {
		out.Scanlines = *o.Scanlines
	}
	if o.ArcadeFrame != nil {
		out.ArcadeFrame = *o.ArcadeFrame
	}
	if o.Particles != nil {
		out.Particles = *o.Particles
	}
	if o.Glitch != nil {
		out.Glitch = *o.Glitch
	}
	if o.Counters != nil {
		out.Counters = *o.Counters
	}
	if o.SmoothScroll != nil {
		out.SmoothScroll = *o.SmoothScroll
	}
	if o.Sound != nil {
		out.Sound = *o.Sound
	}
	if o.ParticleInterval != nil && *o.ParticleInterval > 0 {
		out.ParticleInterval = *o.ParticleInterval
	}
	if o.GlitchInterval != nil && *o.GlitchInterval > 0 {
		out.GlitchInterval = *o.GlitchInterval
	}
	if o.ParticleColors != nil {
		out.ParticleColors = validColors(o.ParticleColors)
	}
	if o.Debug != nil {
		out.Debug = *o.Debug
	}
	return out
}

// snapshot returns a copy safe to hand out: mutating it never leaks
// back into the live configuration
func (c Config) snapshot() Config {
	out := c
	out.ParticleColors = append([]string(nil), c.ParticleColors...)
	return out
}

// validColors keeps only entries that parse as hex colors
func validColors(in []string) []string {
	out := make([]string, 0, len(in))
	for _, s := range in {
		if _, err := colorful.Hex(s); err == nil {
			out = append(out, s)
		}
	}
	return out
}

// palette parses the configured colors; an empty result falls back to white
func (c Config) palette() []colorful.Color {
	out := make([]colorful.Color, 0, len(c.ParticleColors))
	for _, s := range c.ParticleColors {
		if col, err := colorful.Hex(s); err == nil {
			out = append(out, col)
		}
	}
	if len(out) == 0 {
		out = append(out, colorful.Color{R: 1, G: 1, B: 1})
	}
	return out
}

// Bool returns a pointer to v, for building Options literals
func Bool(v bool) *bool { return &v }

// Duration returns a pointer to v, for building Options literals
func Duration(v time.Duration) *time.Duration { return &v }
