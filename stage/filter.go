package stage

import (
	"math/rand"

	"github.com/gdamore/tcell/v2"
	"github.com/lucasb-eyer/go-colorful"
)

// Named cell filters applied to a region's rectangle at composite time.
// A region's Filter field selects one by name; unknown names and the
// empty string leave cells untouched.
const (
	FilterNone      = ""
	FilterInvert    = "invert"
	FilterDim       = "dim"
	FilterHighlight = "highlight"
	FilterGlitch    = "glitch"
)

// glitchGlyphs are the scramble alphabet for the glitch filter
var glitchGlyphs = []rune("▓▒░█▄▀■□#%&@$")

// applyFilter mutates the cells of rows[y0:y1][x0:x1] in place.
// rng drives the glitch scramble; filters that need no randomness
// ignore it.
func applyFilter(name string, rows [][]Cell, x0, y0, x1, y1 int, rng *rand.Rand) {
	y0, y1 = clampRange(y0, y1, len(rows))
	for y := y0; y < y1; y++ {
		row := rows[y]
		cx0, cx1 := clampRange(x0, x1, len(row))
		switch name {
		case FilterInvert:
			for x := cx0; x < cx1; x++ {
				row[x].Style = row[x].Style.Reverse(true)
			}
		case FilterHighlight:
			for x := cx0; x < cx1; x++ {
				row[x].Style = row[x].Style.Bold(true).Reverse(true)
			}
		case FilterDim:
			for x := cx0; x < cx1; x++ {
				row[x].Style = Dim(row[x].Style, 0.55)
			}
		case FilterGlitch:
			glitchRow(row, cx0, cx1, y, rng)
		}
	}
}

// glitchRow shears the row by a small random offset, scrambles a few
// runes, and splits the color channels for a chromatic fringe
func glitchRow(row []Cell, x0, x1, y int, rng *rand.Rand) {
	if x1 <= x0 {
		return
	}
	width := x1 - x0

	// Horizontal shear, alternating direction by row
	shear := rng.Intn(3) - 1
	if shear != 0 && width > 2 {
		shifted := make([]Cell, width)
		for i := 0; i < width; i++ {
			src := i - shear
			if src < 0 {
				src += width
			} else if src >= width {
				src -= width
			}
			shifted[i] = row[x0+src]
		}
		copy(row[x0:x1], shifted)
	}

	fringe := tcell.ColorRed
	if y%2 == 0 {
		fringe = tcell.ColorBlue
	}
	for x := x0; x < x1; x++ {
		if rng.Float64() < 0.08 {
			row[x].Ch = glitchGlyphs[rng.Intn(len(glitchGlyphs))]
		}
		if rng.Float64() < 0.25 {
			row[x].Style = fringeStyle(row[x].Style, fringe, 0.5)
		}
	}
}

// Dim blends the style's colors toward black by intensity. Layers
// reuse it for scanline shading.
func Dim(s tcell.Style, intensity float64) tcell.Style {
	fg, bg, attrs := s.Decompose()
	fg = blendColor(fg, tcell.ColorBlack, intensity)
	bg = blendColor(bg, tcell.ColorBlack, intensity)
	return tcell.StyleDefault.Foreground(fg).Background(bg).Attributes(attrs)
}

// fringeStyle pushes the foreground toward the fringe color
func fringeStyle(s tcell.Style, fringe tcell.Color, intensity float64) tcell.Style {
	fg, bg, attrs := s.Decompose()
	fg = blendColor(fg, fringe, intensity)
	return tcell.StyleDefault.Foreground(fg).Background(bg).Attributes(attrs)
}

// blendColor lerps between two terminal colors in RGB space.
// Default (invalid) colors are anchored at white-on-black so blending
// against an unstyled cell still produces a visible shift.
func blendColor(original, blend tcell.Color, intensity float64) tcell.Color {
	if intensity <= 0 {
		return original
	}
	if intensity > 1 {
		intensity = 1
	}
	if !original.Valid() {
		original = tcell.ColorWhite
	}
	if !blend.Valid() {
		blend = tcell.ColorBlack
	}
	a := toColorful(original)
	b := toColorful(blend)
	return fromColorful(a.BlendRgb(b, intensity))
}

func toColorful(c tcell.Color) colorful.Color {
	r, g, b := c.RGB()
	return colorful.Color{
		R: float64(r) / 255.0,
		G: float64(g) / 255.0,
		B: float64(b) / 255.0,
	}
}

func fromColorful(c colorful.Color) tcell.Color {
	r, g, b := c.Clamped().RGB255()
	return tcell.NewRGBColor(int32(r), int32(g), int32(b))
}

// clampRange clips [lo, hi) to [0, n)
func clampRange(lo, hi, n int) (int, int) {
	if lo < 0 {
		lo = 0
	}
	if hi > n {
		hi = n
	}
	if hi < lo {
		hi = lo
	}
	return lo, hi
}
