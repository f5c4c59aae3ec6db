package effects

import (
	"math/rand"
	"sync"
	"time"

	"github.com/rs/zerolog"

	"github.com/framewraith/retrofx/audio"
	"github.com/framewraith/retrofx/clock"
	"github.com/framewraith/retrofx/stage"
)

// Sound is the audio subsystem as the manager sees it. *audio.Synth
// is the production implementation; tests substitute their own.
type Sound interface {
	Initialize() error
	Close()
	Beep(freq float64, duration time.Duration) bool
	Blip(kind audio.BlipKind) bool
}

// Manager is the effect controller for one stage: it owns the
// configuration, enables each configured effect independently, and
// keeps handles to every recurring task, watcher, input handler, and
// layer it creates so Destroy can reverse all of it. Construct one
// per stage; there is no implicit shared instance.
type Manager struct {
	st  *stage.Stage
	sch *clock.Scheduler

	log zerolog.Logger
	pub Publisher
	rng *rand.Rand

	mu          sync.Mutex
	cfg         Config
	initialized bool
	gen         uint64 // bumped by Destroy; stale deferred enables check it

	tasks    []*clock.Task
	watchers []*stage.Watcher
	handlers []stage.HandlerID
	layers   []string

	sound    Sound
	newSound func() Sound
	field    *particleField

	// smooth-scroll switch bookkeeping: restore only what we changed
	smoothEnabled bool
	prevSmooth    bool
}

// Option configures a Manager at construction
type Option func(*Manager)

// WithLogger installs a structured logger; the default discards
func WithLogger(log zerolog.Logger) Option {
	return func(m *Manager) { m.log = log }
}

// WithPublisher installs a lifecycle event publisher
func WithPublisher(p Publisher) Option {
	return func(m *Manager) {
		if p != nil {
			m.pub = p
		}
	}
}

// WithSound substitutes the audio subsystem constructor
func WithSound(fn func() Sound) Option {
	return func(m *Manager) {
		if fn != nil {
			m.newSound = fn
		}
	}
}

// WithRandSeed makes the manager's randomness deterministic
func WithRandSeed(seed int64) Option {
	return func(m *Manager) { m.rng = rand.New(rand.NewSource(seed)) }
}

// New creates a manager over a stage and scheduler with default
// configuration. Nothing activates until Init.
func New(st *stage.Stage, sch *clock.Scheduler, opts ...Option) *Manager {
	m := &Manager{
		st:       st,
		sch:      sch,
		log:      zerolog.Nop(),
		pub:      NopPublisher{},
		rng:      rand.New(rand.NewSource(time.Now().UnixNano())),
		cfg:      DefaultConfig(),
		newSound: func() Sound { return audio.NewSynth() },
	}
	for _, opt := range opts {
		opt(m)
	}
	return m
}

// Ready reports that the controller exists and can accept calls.
// True for any constructed manager, false only on a nil receiver.
func (m *Manager) Ready() bool {
	return m != nil
}

// Initialized reports whether Init has run and Destroy has not
func (m *Manager) Initialized() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.initialized
}

// Init merges opts over the current configuration and enables every
// flagged effect once the stage is ready. Effects enable
// independently: one failing never blocks the rest. Calling Init on
// an initialized manager warns and changes nothing.
func (m *Manager) Init(opts Options) {
	m.mu.Lock()
	if m.initialized {
		m.mu.Unlock()
		m.log.Warn().Msg("effects manager already initialized, ignoring init")
		return
	}
	m.cfg = m.cfg.merged(opts)
	m.initialized = true
	cfg := m.cfg
	gen := m.gen
	m.mu.Unlock()

	m.pub.Publish(Event{Name: EventManagerInit})
	m.debugLog().Debug().Msg("effects manager initializing")

	m.st.OnReady(func() {
		// The stage may become ready long after Init; a Destroy in
		// between makes this callback stale
		m.mu.Lock()
		stale := !m.initialized || m.gen != gen
		m.mu.Unlock()
		if stale {
			return
		}
		m.enableAll(cfg)
	})
}

// UpdateConfig shallow-merges opts into the live configuration. The
// change applies to effects and timers created afterwards; running
// timers keep their period.
func (m *Manager) UpdateConfig(opts Options) {
	m.mu.Lock()
	m.cfg = m.cfg.merged(opts)
	palette := m.cfg.palette()
	field := m.field
	m.mu.Unlock()

	if field != nil {
		field.setPalette(palette)
	}
}

// Config returns a snapshot copy of the current configuration;
// mutating it does not affect the manager
func (m *Manager) Config() Config {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.cfg.snapshot()
}

// Burst spawns count particles staggered at a fixed per-particle
// delay, so they appear progressively. Zero or negative counts spawn
// nothing; oversized counts are capped.
func (m *Manager) Burst(count int) {
	if count <= 0 {
		return
	}
	if count > MaxBurstCount {
		count = MaxBurstCount
	}
	field := m.ensureParticleField()
	for i := 0; i < count; i++ {
		m.sch.After(time.Duration(i)*ParticleBurstStagger, field.spawn)
	}
}

// BurstDefault spawns the stock burst of particles
func (m *Manager) BurstDefault() {
	m.Burst(DefaultBurstCount)
}

// Glitch applies the glitch filter to the target for a fixed hold,
// then restores whatever filter the region had before. The target is
// a *stage.Region or a region ID; anything that resolves to nothing
// is silently ignored.
func (m *Manager) Glitch(target any) {
	var r *stage.Region
	switch t := target.(type) {
	case *stage.Region:
		r = t
	case string:
		if found, ok := m.st.Find(t); ok {
			r = found
		}
	}
	if r == nil {
		return
	}
	if r.Filter == stage.FilterGlitch {
		// Already glitching; a second snapshot would capture the
		// glitch itself and the restore would stick
		return
	}

	prior := r.Filter
	r.Filter = stage.FilterGlitch
	m.sch.After(GlitchDuration, func() {
		r.Filter = prior
	})
}

// Beep plays a square-wave tone with exponential decay. Zero
// arguments select the defaults. A no-op when the sound subsystem is
// disabled or failed to come up.
func (m *Manager) Beep(freq float64, duration time.Duration) {
	m.mu.Lock()
	sound := m.sound
	m.mu.Unlock()
	if sound == nil {
		return
	}
	sound.Beep(freq, duration)
}

// Destroy cancels every registered task, stops every watcher,
// detaches the manager's input handlers, removes the layers it
// created, closes the sound subsystem, and resets to the
// uninitialized state. Safe to call repeatedly and before Init; the
// manager may be re-initialized afterwards.
func (m *Manager) Destroy() {
	m.mu.Lock()
	wasInitialized := m.initialized
	tasks := m.tasks
	watchers := m.watchers
	handlers := m.handlers
	layers := m.layers
	sound := m.sound
	prevSmooth := m.prevSmooth
	smoothChanged := m.smoothEnabled

	m.tasks = nil
	m.watchers = nil
	m.handlers = nil
	m.layers = nil
	m.sound = nil
	m.field = nil
	m.smoothEnabled = false
	m.initialized = false
	m.gen++
	m.mu.Unlock()

	for _, t := range tasks {
		t.Cancel()
	}
	for _, w := range watchers {
		w.Stop()
	}
	for _, h := range handlers {
		m.st.RemoveHandler(h)
	}
	for _, id := range layers {
		m.st.RemoveLayer(id)
	}
	if smoothChanged {
		m.st.SetSmoothScroll(prevSmooth)
	}
	if sound != nil {
		sound.Close()
	}

	if wasInitialized {
		m.pub.Publish(Event{Name: EventManagerDestroy})
		m.debugLog().Debug().Msg("effects manager destroyed")
	}
}

// ActiveTasks returns the number of task handles the manager is tracking
func (m *Manager) ActiveTasks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.tasks)
}

// debugLog returns the logger when debug is configured, else a discard logger
func (m *Manager) debugLog() *zerolog.Logger {
	m.mu.Lock()
	debug := m.cfg.Debug
	m.mu.Unlock()
	if !debug {
		nop := zerolog.Nop()
		return &nop
	}
	return &m.log
}

// ensureParticleField creates the particle layer on first use
func (m *Manager) ensureParticleField() *particleField {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.ensureParticleFieldLocked()
}

func (m *Manager) ensureParticleFieldLocked() *particleField {
	if m.field != nil {
		return m.field
	}
	m.field = newParticleField(m.rng, m.cfg.palette(), m.st.Attached)
	if m.st.AddLayer(m.field.layer()) {
		m.layers = append(m.layers, LayerParticles)
	}
	return m.field
}

// trackTask records a recurring task handle for Destroy
func (m *Manager) trackTask(t *clock.Task) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.tasks = append(m.tasks, t)
}

// trackWatcher records a watcher handle for Destroy
func (m *Manager) trackWatcher(w *stage.Watcher) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.watchers = append(m.watchers, w)
}
