package rendertree

import (
	"context"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// Evaluator is the expression-evaluation capability consumed for value
// annotation. The tree builder itself never needs one; annotation is a
// separate pass over an already-built tree. Implementations live in the
// evaluation bridges.
type Evaluator interface {
	// Evaluate computes the value of r against one data record.
	Evaluate(ctx context.Context, r *rule.Rule, data map[string]any) (any, error)
}

// Annotate returns a tree in which every node carrying a rule fragment
// has a Result overlay: the value the evaluator produced for that
// fragment against data, or the failure that kept it from producing one.
// Fragments the backend cannot translate simply keep an error overlay and
// the pass moves on; annotation never aborts.
//
// The input tree is not mutated. Nodes are rebuilt top-down, so the
// returned tree shares nothing that gained an overlay but keeps ids,
// labels, shape and expansion state identical to the input.
func Annotate(ctx context.Context, root *RenderNode, ev Evaluator, data map[string]any) *RenderNode {
	if root == nil || ev == nil {
		return root
	}
	c := root.clone()
	if root.Raw != nil {
		value, err := ev.Evaluate(ctx, root.Raw, data)
		if err != nil {
			c.Result = &EvalOverlay{Err: err.Error()}
		} else {
			c.Result = &EvalOverlay{Value: value}
		}
	}
	if len(root.Children) > 0 {
		children := make([]*RenderNode, len(root.Children))
		for i, child := range root.Children {
			children[i] = Annotate(ctx, child, ev, data)
		}
		c.Children = children
	}
	return c
}

// ClearAnnotations returns a tree with every Result overlay removed,
// sharing subtrees that carried none.
func ClearAnnotations(root *RenderNode) *RenderNode {
	if root == nil {
		return nil
	}
	var children []*RenderNode
	childChanged := false
	if len(root.Children) > 0 {
		children = make([]*RenderNode, len(root.Children))
		for i, child := range root.Children {
			children[i] = ClearAnnotations(child)
			if children[i] != child {
				childChanged = true
			}
		}
	}
	if root.Result == nil && !childChanged {
		return root
	}
	c := root.clone()
	c.Result = nil
	if childChanged {
		c.Children = children
	}
	return c
}
