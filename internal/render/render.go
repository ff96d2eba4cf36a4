// Package render routes rules to named output formats. The CLI, the
// exporter and the MCP tools all resolve formats through one registry,
// so a new renderer shows up in every surface at once.
package render

import (
	"context"

	"github.com/madpin/jsonlogicui/pkg/flowchart"
	"github.com/madpin/jsonlogicui/pkg/layout"
	"github.com/madpin/jsonlogicui/pkg/rendertree"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// Renderer turns a rule into one named output format.
type Renderer interface {
	Name() string
	Description() string
	Render(ctx context.Context, req Request) (*Result, error)
}

// Request carries one render invocation. Rule is required; everything
// else has a working zero value.
type Request struct {
	Rule *rule.Rule

	// Orientation is "vertical" or "horizontal"; formats map it onto
	// their own vocabulary (Mermaid TD/LR). Defaults to vertical.
	Orientation string

	// ExpandAll shows the subtrees the tree builder collapses by
	// default. Array-heavy formats expand element edges too.
	ExpandAll bool

	// Title decorates formats that carry one.
	Title string

	// Data and Evaluator add value overlays where the format supports
	// them. Both must be set for overlays to appear.
	Data      map[string]any
	Evaluator rendertree.Evaluator
}

// Result is one rendered document, with the extension writers use when
// the document lands on disk.
type Result struct {
	Format  string `json:"format"`
	Ext     string `json:"ext"`
	Content []byte `json:"content"`
}

// Info is a summary of a registered renderer for listing.
type Info struct {
	Name        string `json:"name"`
	Description string `json:"description,omitempty"`
}

func (r Request) validate() error {
	if r.Rule == nil {
		return rule.NewError(rule.ErrCodeValidation, "rule is required")
	}
	switch r.Orientation {
	case "", "vertical", "horizontal":
		return nil
	}
	return rule.NewErrorf(rule.ErrCodeValidation,
		"unknown orientation %q (want vertical or horizontal)", r.Orientation)
}

func (r Request) layoutOrientation() layout.Orientation {
	if r.Orientation == "horizontal" {
		return layout.OrientationHorizontal
	}
	return layout.OrientationVertical
}

func (r Request) flowOrientation() flowchart.Orientation {
	if r.Orientation == "horizontal" {
		return flowchart.OrientationLeftRight
	}
	return flowchart.OrientationTopDown
}

// tree compiles the request's rule, honoring the expansion override.
func (r Request) tree() *rendertree.RenderNode {
	t := rendertree.Build(r.Rule)
	if r.ExpandAll {
		t = rendertree.ExpandAll(t)
	}
	return t
}
