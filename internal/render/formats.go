package render

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"

	"github.com/madpin/jsonlogicui/internal/ascii"
	"github.com/madpin/jsonlogicui/pkg/flowchart"
	"github.com/madpin/jsonlogicui/pkg/layout"
	"github.com/madpin/jsonlogicui/pkg/rendertree"
)

// --- mermaid ---

type mermaidRenderer struct{}

func (mermaidRenderer) Name() string { return "mermaid" }

func (mermaidRenderer) Description() string {
	return "Mermaid flowchart with decision diamonds and yes/no edges"
}

func (mermaidRenderer) Render(_ context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	doc := flowchart.Emit(req.Rule, flowchart.Options{
		Orientation:   req.flowOrientation(),
		IncludeValues: req.ExpandAll,
	})
	return &Result{Format: "mermaid", Ext: ".mmd", Content: []byte(doc)}, nil
}

// --- tree ---

type treeRenderer struct{}

func (treeRenderer) Name() string { return "tree" }

func (treeRenderer) Description() string {
	return "indented text tree with branch markers and optional value overlays"
}

func (treeRenderer) Render(ctx context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	t := req.tree()
	if req.Evaluator != nil && req.Data != nil {
		t = rendertree.Annotate(ctx, t, req.Evaluator, req.Data)
	}

	var b strings.Builder
	if req.Title != "" {
		b.WriteString(req.Title + "\n")
	}
	writeTreeNode(&b, t, "", true, true)
	return &Result{Format: "tree", Ext: ".txt", Content: []byte(b.String())}, nil
}

func writeTreeNode(b *strings.Builder, n *rendertree.RenderNode, prefix string, last, root bool) {
	if n == nil {
		return
	}
	if root {
		b.WriteString(treeLine(n) + "\n")
	} else {
		conn := "├─ "
		if last {
			conn = "└─ "
		}
		b.WriteString(prefix + conn + treeLine(n) + "\n")
	}
	if !n.Expanded && len(n.Children) > 0 {
		return
	}

	childPrefix := prefix
	if !root {
		if last {
			childPrefix += "   "
		} else {
			childPrefix += "│  "
		}
	}
	for i, c := range n.Children {
		writeTreeNode(b, c, childPrefix, i == len(n.Children)-1, false)
	}
}

// treeLine decorates a label with its branch marker, value overlay and
// collapse indicator.
func treeLine(n *rendertree.RenderNode) string {
	s := n.Label
	switch n.Kind {
	case rendertree.NodeKindTrueBranch:
		s = "✓ " + s
	case rendertree.NodeKindFalseBranch:
		s = "✗ " + s
	}
	if n.Result != nil && n.Result.Err == "" {
		if v, err := json.Marshal(n.Result.Value); err == nil {
			s += " = " + string(v)
		}
	}
	if !n.Expanded && len(n.Children) > 0 {
		s += fmt.Sprintf(" [+%d]", len(n.Children))
	}
	return s
}

// --- layout ---

type layoutRenderer struct{}

func (layoutRenderer) Name() string { return "layout" }

func (layoutRenderer) Description() string {
	return "computed geometry as JSON: placed nodes, edge curves, canvas size"
}

func (layoutRenderer) Render(_ context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	l := layout.Compute(req.tree(), layout.Options{Orientation: req.layoutOrientation()})
	content, err := json.MarshalIndent(l, "", "  ")
	if err != nil {
		return nil, err
	}
	return &Result{Format: "layout", Ext: ".json", Content: append(content, '\n')}, nil
}

// --- ascii ---

type asciiRenderer struct{}

func (asciiRenderer) Name() string { return "ascii" }

func (asciiRenderer) Description() string {
	return "terminal preview of the layout on a rune canvas"
}

func (asciiRenderer) Render(_ context.Context, req Request) (*Result, error) {
	if err := req.validate(); err != nil {
		return nil, err
	}
	l := layout.Compute(req.tree(), layout.Options{Orientation: req.layoutOrientation()})
	out := ascii.Render(l, ascii.Options{
		Title:       req.Title,
		Orientation: req.layoutOrientation(),
	})
	return &Result{Format: "ascii", Ext: ".txt", Content: []byte(out)}, nil
}
