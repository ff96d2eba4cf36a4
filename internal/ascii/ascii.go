// Package ascii paints a computed layout onto a rune canvas, so a
// diagram can be previewed in a terminal without any graphics stack.
// Boxes keep their layout geometry scaled to character cells; curved
// edges become elbow connectors.
package ascii

import (
	"strings"

	"github.com/madpin/jsonlogicui/pkg/layout"
)

// Options scale pixels to character cells. The zero value is usable.
type Options struct {
	// Title is printed above the canvas when set.
	Title string

	// Orientation must match the one the layout was computed with, so
	// connectors leave boxes on the right side. Defaults to vertical.
	Orientation layout.Orientation

	// CellWidth and CellHeight are the pixels one character covers.
	CellWidth  float64
	CellHeight float64
}

// Default cell size, tuned so a default-height layout box maps to a
// three-row box with one label row.
const (
	DefaultCellWidth  = 8.0
	DefaultCellHeight = 16.0
)

func (o Options) withDefaults() Options {
	if o.Orientation == "" {
		o.Orientation = layout.OrientationVertical
	}
	if o.CellWidth <= 0 {
		o.CellWidth = DefaultCellWidth
	}
	if o.CellHeight <= 0 {
		o.CellHeight = DefaultCellHeight
	}
	return o
}

// rect is a node's box in cell coordinates, inclusive corners.
type rect struct {
	r0, c0, r1, c1 int
}

func (r rect) centerRow() int { return (r.r0 + r.r1) / 2 }
func (r rect) centerCol() int { return (r.c0 + r.c1) / 2 }

// Render draws a layout as text. Output is deterministic: same layout,
// same string.
func Render(l layout.Layout, opts Options) string {
	opts = opts.withDefaults()

	rects := make(map[string]rect, len(l.Nodes))
	maxRow, maxCol := 0, 0
	for _, n := range l.Nodes {
		r := rect{
			r0: cell(n.Y, opts.CellHeight),
			c0: cell(n.X, opts.CellWidth),
		}
		// A drawable box needs two border rows plus a label row, and
		// borders plus one cell of padding per side.
		r.r1 = max(r.r0+2, cell(n.Y+n.Height, opts.CellHeight))
		r.c1 = max(r.c0+3, cell(n.X+n.Width, opts.CellWidth))
		rects[n.ID] = r
		maxRow = max(maxRow, r.r1)
		maxCol = max(maxCol, r.c1)
	}

	cv := newCanvas(maxRow+1, maxCol+1)
	for _, n := range l.Nodes {
		drawBox(cv, rects[n.ID], n.Label)
	}
	for _, e := range l.Edges {
		from, okF := rects[e.From]
		to, okT := rects[e.To]
		if !okF || !okT {
			continue
		}
		if opts.Orientation == layout.OrientationHorizontal {
			drawAcross(cv, from, to)
		} else {
			drawDown(cv, from, to)
		}
	}

	var b strings.Builder
	if opts.Title != "" {
		b.WriteString("=== " + opts.Title + " ===\n\n")
	}
	b.WriteString(cv.String())
	return b.String()
}

func cell(px, size float64) int {
	c := int(px/size + 0.5)
	if c < 0 {
		return 0
	}
	return c
}

// --- Canvas ---

type canvas struct {
	cells [][]rune
}

func newCanvas(rows, cols int) *canvas {
	cells := make([][]rune, rows)
	for i := range cells {
		row := make([]rune, cols)
		for j := range row {
			row[j] = ' '
		}
		cells[i] = row
	}
	return &canvas{cells: cells}
}

func (c *canvas) in(row, col int) bool {
	return row >= 0 && row < len(c.cells) && col >= 0 && col < len(c.cells[row])
}

func (c *canvas) set(row, col int, r rune) {
	if c.in(row, col) {
		c.cells[row][col] = r
	}
}

// setSoft only paints empty cells, so connectors never cut into boxes
// and crossing connectors keep the first stroke.
func (c *canvas) setSoft(row, col int, r rune) {
	if c.in(row, col) && c.cells[row][col] == ' ' {
		c.cells[row][col] = r
	}
}

func (c *canvas) String() string {
	var b strings.Builder
	for _, row := range c.cells {
		b.WriteString(strings.TrimRight(string(row), " "))
		b.WriteByte('\n')
	}
	return b.String()
}

// --- Boxes ---

func drawBox(cv *canvas, r rect, label string) {
	cv.set(r.r0, r.c0, '┌')
	cv.set(r.r0, r.c1, '┐')
	cv.set(r.r1, r.c0, '└')
	cv.set(r.r1, r.c1, '┘')
	for c := r.c0 + 1; c < r.c1; c++ {
		cv.set(r.r0, c, '─')
		cv.set(r.r1, c, '─')
	}
	for row := r.r0 + 1; row < r.r1; row++ {
		cv.set(row, r.c0, '│')
		cv.set(row, r.c1, '│')
		for c := r.c0 + 1; c < r.c1; c++ {
			cv.set(row, c, ' ')
		}
	}

	inner := r.c1 - r.c0 - 3
	text := fitLabel(label, inner)
	start := r.c0 + 2 + (inner-len([]rune(text)))/2
	row := r.centerRow()
	for i, ch := range []rune(text) {
		cv.set(row, start+i, ch)
	}
}

// fitLabel truncates to the inner box width, marking the cut.
func fitLabel(label string, width int) string {
	if width <= 0 {
		return ""
	}
	runes := []rune(label)
	if len(runes) <= width {
		return label
	}
	if width == 1 {
		return "…"
	}
	return string(runes[:width-1]) + "…"
}

// --- Edges ---

// drawDown runs an elbow from the parent's bottom edge to the child's
// top edge: down, across on the middle row, down again.
func drawDown(cv *canvas, from, to rect) {
	sc, ec := from.centerCol(), to.centerCol()
	sr, er := from.r1, to.r0
	if er <= sr+1 {
		return
	}
	mid := (sr + er) / 2

	if sc == ec {
		for row := sr + 1; row < er; row++ {
			cv.setSoft(row, sc, '│')
		}
		placeArrow(cv, er-1, ec, '▼')
		return
	}

	for row := sr + 1; row < mid; row++ {
		cv.setSoft(row, sc, '│')
	}
	step := 1
	corner1, corner2 := '└', '┐'
	if ec < sc {
		step = -1
		corner1, corner2 = '┘', '┌'
	}
	cv.setSoft(mid, sc, corner1)
	for c := sc + step; c != ec; c += step {
		cv.setSoft(mid, c, '─')
	}
	cv.setSoft(mid, ec, corner2)
	for row := mid + 1; row < er; row++ {
		cv.setSoft(row, ec, '│')
	}
	placeArrow(cv, er-1, ec, '▼')
}

// drawAcross is the horizontal-orientation elbow: right, down or up on
// the middle column, right again.
func drawAcross(cv *canvas, from, to rect) {
	sr, er := from.centerRow(), to.centerRow()
	sc, ec := from.c1, to.c0
	if ec <= sc+1 {
		return
	}
	mid := (sc + ec) / 2

	if sr == er {
		for c := sc + 1; c < ec; c++ {
			cv.setSoft(sr, c, '─')
		}
		placeArrow(cv, er, ec-1, '▶')
		return
	}

	for c := sc + 1; c < mid; c++ {
		cv.setSoft(sr, c, '─')
	}
	step := 1
	corner1, corner2 := '┐', '└'
	if er < sr {
		step = -1
		corner1, corner2 = '┘', '┌'
	}
	cv.setSoft(sr, mid, corner1)
	for row := sr + step; row != er; row += step {
		cv.setSoft(row, mid, '│')
	}
	cv.setSoft(er, mid, corner2)
	for c := mid + 1; c < ec; c++ {
		cv.setSoft(er, c, '─')
	}
	placeArrow(cv, er, ec-1, '▶')
}

// placeArrow replaces the final connector stroke with an arrow head,
// leaving corners and box borders alone.
func placeArrow(cv *canvas, row, col int, arrow rune) {
	if !cv.in(row, col) {
		return
	}
	switch cv.cells[row][col] {
	case ' ', '│', '─':
		cv.cells[row][col] = arrow
	}
}
