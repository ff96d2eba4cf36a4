package layout

import (
	"unicode/utf8"

	"github.com/madpin/jsonlogicui/pkg/rendertree"
)

// Compute lays out the visible part of a tree. Collapsed subtrees
// contribute nothing; the collapsed node itself is still placed so the
// renderer can draw its expansion affordance. Identical inputs always
// produce identical geometry.
func Compute(root *rendertree.RenderNode, opts Options) Layout {
	if root == nil {
		return Layout{}
	}
	o := opts.withDefaults()
	c := &computer{opts: o, spans: map[*rendertree.RenderNode]float64{}}

	c.measure(root)
	if o.Orientation == OrientationHorizontal {
		c.columnWidth(root)
		c.placeAcross(root, o.Margin, 0)
	} else {
		c.placeDown(root, o.Margin, 0)
	}
	return c.finish()
}

type computer struct {
	opts  Options
	nodes []Node
	edges []Edge

	// spans caches per-subtree extent on the breadth axis: width in
	// vertical orientation, height in horizontal.
	spans map[*rendertree.RenderNode]float64

	// maxWidth is the widest visible node, used as the column width in
	// horizontal orientation so depth columns stay aligned.
	maxWidth float64
}

func (c *computer) nodeWidth(n *rendertree.RenderNode) float64 {
	w := float64(utf8.RuneCountInString(n.Label))*c.opts.CharWidth + 2*c.opts.TextPadding
	if w < c.opts.MinNodeWidth {
		return c.opts.MinNodeWidth
	}
	if w > c.opts.MaxNodeWidth {
		return c.opts.MaxNodeWidth
	}
	return w
}

// visibleChildren returns the children the layout descends into: none
// when the node is collapsed.
func visibleChildren(n *rendertree.RenderNode) []*rendertree.RenderNode {
	if !n.Expanded {
		return nil
	}
	return n.Children
}

// measure computes breadth-axis subtree extents post-order: a leaf or
// collapsed node spans its own size, an expanded node the larger of its
// own size and its children's combined spans plus spacing. This is what
// keeps sibling subtrees from ever overlapping.
func (c *computer) measure(n *rendertree.RenderNode) float64 {
	own := c.nodeWidth(n)
	gap := c.opts.HSpacing
	if c.opts.Orientation == OrientationHorizontal {
		own = c.opts.NodeHeight
		gap = c.opts.VSpacing
	}

	span := own
	if children := visibleChildren(n); len(children) > 0 {
		total := 0.0
		for i, child := range children {
			if i > 0 {
				total += gap
			}
			total += c.measure(child)
		}
		if total > span {
			span = total
		}
	}
	c.spans[n] = span
	return span
}

func (c *computer) columnWidth(root *rendertree.RenderNode) {
	rendertree.Walk(root, func(n *rendertree.RenderNode) bool {
		if w := c.nodeWidth(n); w > c.maxWidth {
			c.maxWidth = w
		}
		return n.Expanded
	})
}

// placeDown assigns vertical-orientation positions pre-order: each node
// centered within the breadth span reserved for its subtree, children
// packed left to right inside it, one row per depth. It returns the
// index of the emitted rectangle.
func (c *computer) placeDown(n *rendertree.RenderNode, left float64, depth int) int {
	o := c.opts
	w := c.nodeWidth(n)
	x := left + (c.spans[n]-w)/2
	y := o.Margin + float64(depth)*(o.NodeHeight+o.VSpacing)
	idx := c.emit(n, x, y, w, o.NodeHeight)

	children := visibleChildren(n)
	if len(children) == 0 {
		return idx
	}
	total := -o.HSpacing
	for _, child := range children {
		total += c.spans[child] + o.HSpacing
	}
	cur := left + (c.spans[n]-total)/2
	for _, child := range children {
		childIdx := c.placeDown(child, cur, depth+1)
		c.edgeDown(idx, childIdx)
		cur += c.spans[child] + o.HSpacing
	}
	return idx
}

// placeAcross is the transpose: one column per depth, siblings stacked
// top to bottom, edges from right edge to left edge.
func (c *computer) placeAcross(n *rendertree.RenderNode, top float64, depth int) int {
	o := c.opts
	w := c.nodeWidth(n)
	x := o.Margin + float64(depth)*(c.maxWidth+o.HSpacing)
	y := top + (c.spans[n]-o.NodeHeight)/2
	idx := c.emit(n, x, y, w, o.NodeHeight)

	children := visibleChildren(n)
	if len(children) == 0 {
		return idx
	}
	total := -o.VSpacing
	for _, child := range children {
		total += c.spans[child] + o.VSpacing
	}
	cur := top + (c.spans[n]-total)/2
	for _, child := range children {
		childIdx := c.placeAcross(child, cur, depth+1)
		c.edgeAcross(idx, childIdx)
		cur += c.spans[child] + o.VSpacing
	}
	return idx
}

func (c *computer) emit(n *rendertree.RenderNode, x, y, w, h float64) int {
	c.nodes = append(c.nodes, Node{
		ID:     n.ID,
		Node:   n,
		X:      x,
		Y:      y,
		Width:  w,
		Height: h,
		Kind:   n.Kind,
		Label:  n.Label,
	})
	return len(c.nodes) - 1
}

// edgeDown draws bottom-center to top-center with both control points at
// the vertical midpoint, giving the S-curve its flat entry and exit.
func (c *computer) edgeDown(parentIdx, childIdx int) {
	p := c.nodes[parentIdx]
	q := c.nodes[childIdx]
	x1 := p.X + p.Width/2
	y1 := p.Y + p.Height
	x2 := q.X + q.Width/2
	y2 := q.Y
	mid := (y1 + y2) / 2
	c.edges = append(c.edges, Edge{
		From: p.ID,
		To:   q.ID,
		Path: CurvePath{X1: x1, Y1: y1, CX1: x1, CY1: mid, CX2: x2, CY2: mid, X2: x2, Y2: y2},
	})
}

func (c *computer) edgeAcross(parentIdx, childIdx int) {
	p := c.nodes[parentIdx]
	q := c.nodes[childIdx]
	x1 := p.X + p.Width
	y1 := p.Y + p.Height/2
	x2 := q.X
	y2 := q.Y + q.Height/2
	mid := (x1 + x2) / 2
	c.edges = append(c.edges, Edge{
		From: p.ID,
		To:   q.ID,
		Path: CurvePath{X1: x1, Y1: y1, CX1: mid, CY1: y1, CX2: mid, CY2: y2, X2: x2, Y2: y2},
	})
}

func (c *computer) finish() Layout {
	maxX, maxY := 0.0, 0.0
	for _, n := range c.nodes {
		if r := n.X + n.Width; r > maxX {
			maxX = r
		}
		if b := n.Y + n.Height; b > maxY {
			maxY = b
		}
	}
	return Layout{
		Nodes:  c.nodes,
		Edges:  c.edges,
		Width:  maxX + c.opts.Margin,
		Height: maxY + c.opts.Margin,
	}
}
