package stage

import "time"

// Layer is a z-ordered overlay drawn on top of the composited content.
// Layers are the stage's persistent effect markers: each carries a
// recognizable ID which owners check before re-inserting.
type Layer struct {
	// ID identifies the layer for idempotence checks and removal
	ID string

	// Z orders layers during composite; higher draws later
	Z int

	// Draw paints or transforms the composite buffer. May be nil.
	Draw func(buf [][]Cell)

	// Animate advances per-frame state. May be nil.
	Animate func(now time.Time, dt time.Duration)
}
