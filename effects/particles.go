package effects

import (
	"math/rand"
	"sync"
	"time"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"

	"github.com/framewraith/retrofx/stage"
)

// particle is one falling glyph. Particles are fire-and-forget: the
// field animates them and drops them below the viewport; nothing else
// ever holds a reference.
type particle struct {
	column  int
	y       float64
	speed   float64 // rows per second
	ch      rune
	color   colorful.Color
	lastRow int // last integer row, for the glyph swap
}

// particleField is the state behind the particle layer: it spawns,
// animates, and draws the falling glyphs
type particleField struct {
	mu        sync.Mutex
	rng       *rand.Rand
	palette   []colorful.Color
	particles []*particle

	// gate pauses the field while it reports false: no spawns, no
	// motion. Used to freeze the snow when the stage detaches.
	gate func() bool

	// last seen surface size, updated on draw
	width  int
	height int
}

func newParticleField(rng *rand.Rand, palette []colorful.Color, gate func() bool) *particleField {
	return &particleField{
		rng:     rng,
		palette: palette,
		gate:    gate,
		width:   80,
		height:  24,
	}
}

// active reports whether the field is currently running
func (f *particleField) active() bool {
	return f.gate == nil || f.gate()
}

// layer wraps the field as a stage overlay
func (f *particleField) layer() *stage.Layer {
	return &stage.Layer{
		ID:      LayerParticles,
		Z:       50,
		Draw:    f.draw,
		Animate: f.animate,
	}
}

// setPalette swaps the spawn colors; live particles keep theirs
func (f *particleField) setPalette(palette []colorful.Color) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if len(palette) > 0 {
		f.palette = palette
	}
}

// spawn adds one particle at a random column above the surface.
// A paused field drops the spawn.
func (f *particleField) spawn() {
	if !f.active() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	p := &particle{
		column:  f.rng.Intn(f.width),
		y:       -1,
		speed:   ParticleMinSpeed + f.rng.Float64()*(ParticleMaxSpeed-ParticleMinSpeed),
		ch:      particleGlyphs[f.rng.Intn(len(particleGlyphs))],
		color:   f.palette[f.rng.Intn(len(f.palette))],
		lastRow: -2,
	}
	f.particles = append(f.particles, p)
}

// count returns the number of live particles
func (f *particleField) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.particles)
}

// animate advances every particle and drops the ones past the bottom.
// A paused field holds every particle in place.
func (f *particleField) animate(now time.Time, dt time.Duration) {
	if dt <= 0 || !f.active() {
		return
	}
	f.mu.Lock()
	defer f.mu.Unlock()

	live := f.particles[:0]
	for _, p := range f.particles {
		p.y += p.speed * dt.Seconds()
		if row := int(p.y); row != p.lastRow {
			p.lastRow = row
			// Occasional glyph swap as the particle crosses a cell
			if f.rng.Float64() < 0.2 {
				p.ch = particleGlyphs[f.rng.Intn(len(particleGlyphs))]
			}
		}
		if int(p.y) <= f.height {
			live = append(live, p)
		}
	}
	for i := len(live); i < len(f.particles); i++ {
		f.particles[i] = nil
	}
	f.particles = live
}

// draw paints the particles, fading each toward black as it falls
func (f *particleField) draw(buf [][]stage.Cell) {
	f.mu.Lock()
	defer f.mu.Unlock()

	if len(buf) > 0 {
		f.height = len(buf)
		f.width = len(buf[0])
	}

	black := colorful.Color{}
	for _, p := range f.particles {
		row := int(p.y)
		if row < 0 || row >= len(buf) || p.column < 0 || p.column >= len(buf[row]) {
			continue
		}
		depth := p.y / float64(f.height)
		if depth > 1 {
			depth = 1
		}
		col := p.color.BlendRgb(black, depth*ParticleFadeDepth)
		r, g, b := col.Clamped().RGB255()
		buf[row][p.column] = stage.Cell{
			Ch:    p.ch,
			Style: tcell.StyleDefault.Foreground(tcell.NewRGBColor(int32(r), int32(g), int32(b))),
		}
	}
}
