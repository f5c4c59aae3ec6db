package effects

import (
	"strconv"
	"strings"
	"time"

	"github.com/framewraith/retrofx/audio"
	"github.com/framewraith/retrofx/clock"
	"github.com/framewraith/retrofx/stage"
)

// startCounter tweens the region's numeric text from zero to its
// authored value with an ease-out curve. Regions whose text is not an
// integer are left alone.
func (m *Manager) startCounter(r *stage.Region) {
	target, err := strconv.Atoi(strings.TrimSpace(r.Text))
	if err != nil || target == 0 {
		return
	}

	r.Text = "0"
	var elapsed time.Duration
	var task *clock.Task
	task = m.sch.Every(counterTickInterval, func() {
		elapsed += counterTickInterval
		frac := float64(elapsed) / float64(CounterTweenDuration)
		if frac >= 1 {
			r.Text = strconv.Itoa(target)
			task.Cancel()
			if snd := m.currentSound(); snd != nil {
				snd.Blip(audio.BlipCounter)
			}
			return
		}
		eased := easeOutCubic(frac)
		r.Text = strconv.Itoa(int(float64(target)*eased + 0.5))
	})
	m.trackTask(task)
}

// easeOutCubic maps t in [0,1] to an eased fraction
func easeOutCubic(t float64) float64 {
	u := 1 - t
	return 1 - u*u*u
}
