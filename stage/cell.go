package stage

import "github.com/gdamore/tcell/v2"

// Cell represents a single character cell on the stage surface,
// a rune plus its tcell style
type Cell struct {
	Ch    rune
	Style tcell.Style
}

// newBuffer allocates a cleared height x width cell buffer
func newBuffer(width, height int) [][]Cell {
	buf := make([][]Cell, height)
	for y := range buf {
		row := make([]Cell, width)
		for x := range row {
			row[x] = Cell{Ch: ' ', Style: tcell.StyleDefault}
		}
		buf[y] = row
	}
	return buf
}
