// Package rendertree compiles rule expressions into the interactive
// rendering tree: a strict-ownership hierarchy of display nodes carrying
// precomputed labels, branch tags and expansion state. The tree is the
// input of the layout engine and of every renderer that walks structure
// rather than raw rules.
//
// Trees are treated as immutable after Build. The expansion toggles and
// the value annotator return new trees that share every untouched subtree
// with the original, so callers holding a reference to a prior tree keep
// seeing the prior state.
package rendertree

import "github.com/madpin/jsonlogicui/pkg/rule"

// NodeKind classifies a rendering-tree node by its visual role.
type NodeKind string

const (
	// NodeKindOperator is a generic or decision operation node.
	NodeKindOperator NodeKind = "operator"
	// NodeKindVariable is a data reference ({"var": ...}).
	NodeKindVariable NodeKind = "variable"
	// NodeKindLiteral is a primitive value or the degenerate {}.
	NodeKindLiteral NodeKind = "literal"
	// NodeKindArrayLiteral is a literal array with one child per element.
	NodeKindArrayLiteral NodeKind = "array_literal"
	// NodeKindTrueBranch is a leaf result reached when a decision holds.
	NodeKindTrueBranch NodeKind = "true_branch"
	// NodeKindFalseBranch is a leaf result reached when a decision fails.
	NodeKindFalseBranch NodeKind = "false_branch"
)

// RenderNode is one node of the rendering tree. Children are owned
// exclusively by their parent and ordered by source operand order.
// Geometry is never stored here; the layout engine produces a separate
// placement overlay so the tree itself stays shareable.
type RenderNode struct {
	ID       string        `json:"id"`
	Kind     NodeKind      `json:"kind"`
	Label    string        `json:"label"`
	Operator string        `json:"operator,omitempty"`
	Children []*RenderNode `json:"children,omitempty"`

	// Raw is the rule fragment this node was compiled from, kept for
	// inspection and value annotation. Synthetic chain nodes carry a
	// reassembled fragment covering their remaining operands.
	Raw *rule.Rule `json:"raw,omitempty"`

	// Path is the human-readable location of the node inside the rule
	// (operator names, "[i]" element indexes, "then"/"else"). It is
	// informational only and never participates in identity or layout.
	Path []string `json:"path,omitempty"`

	// Expanded controls whether children are visible to the layout
	// engine. Decision and branch nodes default to expanded; deep
	// generic operators and arrays default to collapsed.
	Expanded bool `json:"expanded"`

	// Result is set by Annotate when an evaluation backend produced a
	// value (or a failure) for this node. Nil until then.
	Result *EvalOverlay `json:"result,omitempty"`

	// UI-transient selection state, owned by rendering collaborators.
	Highlighted bool `json:"highlighted,omitempty"`
	Selected    bool `json:"selected,omitempty"`
}

// EvalOverlay carries the outcome of evaluating a node's rule fragment
// against one data record. Err is non-empty when the backend could not
// produce a value; renderers show nothing for such nodes.
type EvalOverlay struct {
	Value any    `json:"value"`
	Err   string `json:"error,omitempty"`
}

// IsBranch reports whether the node is a tagged decision outcome.
func (n *RenderNode) IsBranch() bool {
	return n != nil && (n.Kind == NodeKindTrueBranch || n.Kind == NodeKindFalseBranch)
}

// Walk visits n and every descendant in pre-order. The visitor returning
// false prunes the subtree below the current node.
func Walk(n *RenderNode, visit func(*RenderNode) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// Find returns the node with the given id, or nil when the tree has none.
func Find(root *RenderNode, id string) *RenderNode {
	var found *RenderNode
	Walk(root, func(n *RenderNode) bool {
		if found != nil {
			return false
		}
		if n.ID == id {
			found = n
			return false
		}
		return true
	})
	return found
}

// Count returns the number of nodes in the tree, collapsed ones included.
func Count(root *RenderNode) int {
	total := 0
	Walk(root, func(*RenderNode) bool {
		total++
		return true
	})
	return total
}

// clone returns a shallow copy. The children slice is shared until a
// caller replaces it, which is exactly what copy-on-write rebuilds do.
func (n *RenderNode) clone() *RenderNode {
	c := *n
	return &c
}
