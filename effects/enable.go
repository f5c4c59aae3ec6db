package effects

import (
	"time"

	"github.com/gdamore/tcell/v2"

	"github.com/framewraith/retrofx/audio"
	"github.com/framewraith/retrofx/stage"
)

// enableAll runs every enable routine in sequence. Each is
// independent: a skipped or failed effect never blocks the ones after
// it. Statuses feed logging and lifecycle events only.
func (m *Manager) enableAll(cfg Config) {
	m.enable("scanlines", cfg.Scanlines, m.enableScanlines)
	m.enable("arcade-frame", cfg.ArcadeFrame, m.enableFrame)
	m.enable("particles", cfg.Particles, func() error {
		return m.enableParticles(cfg.ParticleInterval)
	})
	m.enable("glitch", cfg.Glitch, func() error {
		return m.enableGlitchCycle(cfg.GlitchInterval)
	})
	m.enable("counters", cfg.Counters, m.enableCounters)
	m.enable("smooth-scroll", cfg.SmoothScroll, m.enableSmoothScroll)
	m.enable("buttons", true, m.enableButtons)
	m.enable("sound", cfg.Sound, m.enableSound)
}

// enable runs one routine, absorbing its status into events and
// debug-gated logs. No error crosses this boundary.
func (m *Manager) enable(name string, flag bool, fn func() error) {
	if !flag {
		m.pub.Publish(Event{Name: EventEffectSkipped, Effect: name})
		m.debugLog().Debug().Str("effect", name).Msg("effect skipped")
		return
	}
	if err := fn(); err != nil {
		m.pub.Publish(Event{Name: EventEffectFailed, Effect: name, Fields: map[string]any{"error": err.Error()}})
		m.debugLog().Debug().Str("effect", name).Err(err).Msg("effect failed")
		return
	}
	m.pub.Publish(Event{Name: EventEffectEnabled, Effect: name})
	m.debugLog().Debug().Str("effect", name).Msg("effect enabled")
}

// enableScanlines inserts the scanline overlay: every odd row dimmed
// toward black, the CRT look
func (m *Manager) enableScanlines() error {
	if m.st.HasLayer(LayerScanlines) {
		return nil
	}
	added := m.st.AddLayer(&stage.Layer{
		ID: LayerScanlines,
		Z:  90,
		Draw: func(buf [][]stage.Cell) {
			for y := 1; y < len(buf); y += 2 {
				row := buf[y]
				for x := range row {
					row[x].Style = stage.Dim(row[x].Style, 0.35)
				}
			}
		},
	})
	if added {
		m.mu.Lock()
		m.layers = append(m.layers, LayerScanlines)
		m.mu.Unlock()
	}
	return nil
}

// enableFrame inserts the cabinet bezel: a box-drawing border with
// corner decorations
func (m *Manager) enableFrame() error {
	if m.st.HasLayer(LayerFrame) {
		return nil
	}
	style := tcell.StyleDefault.Foreground(tcell.ColorPurple).Bold(true)
	added := m.st.AddLayer(&stage.Layer{
		ID: LayerFrame,
		Z:  95,
		Draw: func(buf [][]stage.Cell) {
			h := len(buf)
			if h < 2 {
				return
			}
			w := len(buf[0])
			if w < 2 {
				return
			}
			for x := 1; x < w-1; x++ {
				buf[0][x] = stage.Cell{Ch: '═', Style: style}
				buf[h-1][x] = stage.Cell{Ch: '═', Style: style}
			}
			for y := 1; y < h-1; y++ {
				buf[y][0] = stage.Cell{Ch: '║', Style: style}
				buf[y][w-1] = stage.Cell{Ch: '║', Style: style}
			}
			buf[0][0] = stage.Cell{Ch: '╔', Style: style}
			buf[0][w-1] = stage.Cell{Ch: '╗', Style: style}
			buf[h-1][0] = stage.Cell{Ch: '╚', Style: style}
			buf[h-1][w-1] = stage.Cell{Ch: '╝', Style: style}
		},
	})
	if added {
		m.mu.Lock()
		m.layers = append(m.layers, LayerFrame)
		m.mu.Unlock()
	}
	return nil
}

// enableParticles inserts the particle layer and registers the
// recurring spawner
func (m *Manager) enableParticles(interval time.Duration) error {
	field := m.ensureParticleField()
	if interval <= 0 {
		interval = DefaultParticleInterval
	}
	m.trackTask(m.sch.Every(interval, field.spawn))
	return nil
}

// enableGlitchCycle registers the recurring task glitching a random
// eligible region
func (m *Manager) enableGlitchCycle(interval time.Duration) error {
	if interval <= 0 {
		interval = DefaultGlitchInterval
	}
	m.trackTask(m.sch.Every(interval, func() {
		regions := m.st.FindTag(TagGlitch)
		if len(regions) == 0 {
			return
		}
		m.Glitch(regions[m.rng.Intn(len(regions))])
	}))
	return nil
}

// enableCounters registers a visibility watcher per counter region;
// each starts its count-up tween the first time it scrolls into view
func (m *Manager) enableCounters() error {
	for _, r := range m.st.FindTag(TagCounter) {
		m.trackWatcher(m.st.WatchVisibility(r.ID, m.startCounter))
	}
	return nil
}

// enableSmoothScroll switches the viewport to eased scrolling,
// remembering the prior mode for Destroy
func (m *Manager) enableSmoothScroll() error {
	m.mu.Lock()
	m.prevSmooth = m.st.SmoothScroll()
	m.smoothEnabled = true
	m.mu.Unlock()
	m.st.SetSmoothScroll(true)
	return nil
}

// enableButtons attaches the hover/press feedback handler for regions
// tagged as buttons
func (m *Manager) enableButtons() error {
	var hovered *stage.Region
	var prior string

	id := m.st.OnMouse(func(ev *tcell.EventMouse) {
		x, y := ev.Position()
		r, ok := m.st.RegionAt(x, y)
		if !ok || !r.HasTag(TagButton) {
			r = nil
		}

		if r != hovered {
			if hovered != nil {
				hovered.Filter = prior
			}
			if r != nil {
				prior = r.Filter
				r.Filter = stage.FilterHighlight
				if snd := m.currentSound(); snd != nil {
					snd.Blip(audio.BlipHover)
				}
			}
			hovered = r
		}

		if r != nil && ev.Buttons()&tcell.Button1 != 0 {
			target := r
			target.Filter = stage.FilterInvert
			m.sch.After(PressFlashDuration, func() {
				// Leave the flash only if nothing else touched the
				// filter in the meantime
				if target.Filter == stage.FilterInvert {
					target.Filter = stage.FilterHighlight
				}
			})
			if snd := m.currentSound(); snd != nil {
				snd.Blip(audio.BlipPress)
			}
		}
	})

	m.mu.Lock()
	m.handlers = append(m.handlers, id)
	m.mu.Unlock()
	return nil
}

// enableSound brings up the audio subsystem. Initialization failure
// is reported to the enable boundary, which absorbs it; every later
// Beep is then a no-op.
func (m *Manager) enableSound() error {
	snd := m.newSound()
	if err := snd.Initialize(); err != nil {
		return err
	}
	m.mu.Lock()
	m.sound = snd
	m.mu.Unlock()
	return nil
}

// currentSound returns the live sound subsystem or nil
func (m *Manager) currentSound() Sound {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.sound
}
