package stage

import "github.com/gdamore/tcell/v2"

// Region is a rectangular content target addressed by ID and tags.
// X and Y are content coordinates; content taller than the screen is
// reached by scrolling the viewport. Filter names a composite-time
// cell transform; reading and writing it behaves like a plain
// property, so callers can snapshot and restore the prior value.
type Region struct {
	ID     string
	Tags   []string
	X, Y   int
	W, H   int
	Text   string
	Style  tcell.Style
	Filter string
}

// HasTag reports whether the region carries the given tag
func (r *Region) HasTag(tag string) bool {
	for _, t := range r.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// contains reports whether the content-space point falls inside the region
func (r *Region) contains(x, y int) bool {
	return x >= r.X && x < r.X+r.W && y >= r.Y && y < r.Y+r.H
}

// intersects reports whether the region overlaps content rows [top, bottom)
func (r *Region) intersects(top, bottom int) bool {
	return r.Y < bottom && r.Y+r.H > top
}
