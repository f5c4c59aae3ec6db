package effects

import "time"

// Layer IDs inserted by the manager; their presence is the idempotence
// marker for the persistent effects
const (
	LayerScanlines = "retrofx-scanlines"
	LayerFrame     = "retrofx-frame"
	LayerParticles = "retrofx-particles"
)

// Region tags the manager targets
const (
	// TagGlitch marks regions eligible for the periodic glitch cycle
	TagGlitch = "glitch"
	// TagCounter marks regions whose numeric text counts up on first visibility
	TagCounter = "counter"
	// TagButton marks regions receiving hover/press feedback
	TagButton = "button"
)

// Particle field
const (
	// ParticleBurstStagger is the fixed delay between spawns of a burst
	ParticleBurstStagger = 50 * time.Millisecond
	// DefaultBurstCount is the spawn count of BurstDefault
	DefaultBurstCount = 10
	// MaxBurstCount caps a single burst
	MaxBurstCount = 500
	// ParticleMinSpeed is the minimum fall speed in rows per second
	ParticleMinSpeed = 3.0
	// ParticleMaxSpeed is the maximum fall speed in rows per second
	ParticleMaxSpeed = 10.0
	// ParticleFadeDepth is the fraction of the fall over which color fades to black
	ParticleFadeDepth = 0.85
)

// Glitch
const (
	// GlitchDuration is how long an applied glitch holds before the
	// prior filter is restored
	GlitchDuration = 200 * time.Millisecond
)

// Counters
const (
	// CounterTweenDuration is the full 0-to-target count-up time
	CounterTweenDuration = 1500 * time.Millisecond
	// counterTickInterval is the refresh period of a running count-up
	counterTickInterval = 33 * time.Millisecond
)

// Buttons
const (
	// PressFlashDuration is how long the press flash holds
	PressFlashDuration = 120 * time.Millisecond
)

// Default tunables
const (
	DefaultParticleInterval = 300 * time.Millisecond
	DefaultGlitchInterval   = 5 * time.Second
)

// particleGlyphs are the spawn alphabet of the particle field
var particleGlyphs = []rune("·•*+❄░▒")
