// Package layout computes diagram geometry for a rendering tree: node
// rectangles, smooth parent-child edge curves and canvas bounds. It is a
// pure function of the tree shape, the expansion flags and the sizing
// options; the tree itself is never touched, so geometry lives in a
// placement overlay keyed by node id.
package layout

import (
	"math"
	"strconv"

	"github.com/madpin/jsonlogicui/pkg/rendertree"
)

// Orientation selects the main growth axis of the diagram.
type Orientation string

const (
	// OrientationVertical grows downward, one row per depth.
	OrientationVertical Orientation = "vertical"
	// OrientationHorizontal grows rightward, one column per depth.
	OrientationHorizontal Orientation = "horizontal"
)

// Options are the sizing constants of one layout pass. The zero value is
// usable; unset fields fall back to the defaults below.
type Options struct {
	Orientation Orientation

	// NodeHeight is the fixed box height. Widths vary by label length
	// between MinNodeWidth and MaxNodeWidth.
	NodeHeight   float64
	MinNodeWidth float64
	MaxNodeWidth float64

	// CharWidth approximates the horizontal space one label rune takes;
	// TextPadding is added once per side.
	CharWidth   float64
	TextPadding float64

	// HSpacing separates sibling subtrees, VSpacing separates depth
	// rows (both transposed in horizontal orientation). Margin pads the
	// canvas on every side.
	HSpacing float64
	VSpacing float64
	Margin   float64
}

// Default sizing constants, in pixels.
const (
	DefaultNodeHeight   = 40.0
	DefaultMinNodeWidth = 60.0
	DefaultMaxNodeWidth = 220.0
	DefaultCharWidth    = 8.0
	DefaultTextPadding  = 12.0
	DefaultHSpacing     = 24.0
	DefaultVSpacing     = 48.0
	DefaultMargin       = 24.0
)

func (o Options) withDefaults() Options {
	if o.Orientation == "" {
		o.Orientation = OrientationVertical
	}
	if o.NodeHeight <= 0 {
		o.NodeHeight = DefaultNodeHeight
	}
	if o.MinNodeWidth <= 0 {
		o.MinNodeWidth = DefaultMinNodeWidth
	}
	if o.MaxNodeWidth <= 0 {
		o.MaxNodeWidth = DefaultMaxNodeWidth
	}
	if o.MaxNodeWidth < o.MinNodeWidth {
		o.MaxNodeWidth = o.MinNodeWidth
	}
	if o.CharWidth <= 0 {
		o.CharWidth = DefaultCharWidth
	}
	if o.TextPadding <= 0 {
		o.TextPadding = DefaultTextPadding
	}
	if o.HSpacing <= 0 {
		o.HSpacing = DefaultHSpacing
	}
	if o.VSpacing <= 0 {
		o.VSpacing = DefaultVSpacing
	}
	if o.Margin <= 0 {
		o.Margin = DefaultMargin
	}
	return o
}

// Node is one placed rectangle. It references the tree node it renders;
// the rectangle is in canvas coordinates with the origin top-left.
type Node struct {
	ID   string                 `json:"id"`
	Node *rendertree.RenderNode `json:"-"`

	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`

	Kind  rendertree.NodeKind `json:"kind"`
	Label string              `json:"label"`
}

// Edge connects a parent rectangle to a visible child.
type Edge struct {
	From string    `json:"from"`
	To   string    `json:"to"`
	Path CurvePath `json:"path"`
}

// CurvePath is a single cubic segment from (X1,Y1) to (X2,Y2) with the
// control points producing a smooth S-curve between depth rows.
type CurvePath struct {
	X1  float64 `json:"x1"`
	Y1  float64 `json:"y1"`
	CX1 float64 `json:"cx1"`
	CY1 float64 `json:"cy1"`
	CX2 float64 `json:"cx2"`
	CY2 float64 `json:"cy2"`
	X2  float64 `json:"x2"`
	Y2  float64 `json:"y2"`
}

// SVG renders the curve as an SVG path command.
func (p CurvePath) SVG() string {
	return "M " + ftoa(p.X1) + " " + ftoa(p.Y1) +
		" C " + ftoa(p.CX1) + " " + ftoa(p.CY1) +
		", " + ftoa(p.CX2) + " " + ftoa(p.CY2) +
		", " + ftoa(p.X2) + " " + ftoa(p.Y2)
}

func ftoa(v float64) string {
	// One decimal keeps paths compact and byte-stable across runs.
	return strconv.FormatFloat(math.Round(v*10)/10, 'f', -1, 64)
}

// Layout is the geometry computed for one tree: every visible node
// placed, every visible parent-child edge, and the canvas bounds.
type Layout struct {
	Nodes  []Node  `json:"nodes"`
	Edges  []Edge  `json:"edges"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// FitZoom returns the zoom factor that fits the canvas inside a viewport
// without ever upscaling past 1. Degenerate canvases and viewports fit
// trivially.
func FitZoom(l Layout, viewportW, viewportH float64) float64 {
	if l.Width <= 0 || l.Height <= 0 || viewportW <= 0 || viewportH <= 0 {
		return 1
	}
	z := math.Min(viewportW/l.Width, viewportH/l.Height)
	return math.Min(z, 1)
}
