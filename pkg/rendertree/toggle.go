package rendertree

// ToggleExpansion returns a tree in which the node with the given id has
// its Expanded flag flipped. Only the path from the root to that node is
// rebuilt; every untouched subtree is shared with the input, and the
// input tree itself is never mutated. An unknown id returns the input
// root unchanged.
func ToggleExpansion(root *RenderNode, id string) *RenderNode {
	toggled, ok := toggleAt(root, id)
	if !ok {
		return root
	}
	return toggled
}

func toggleAt(n *RenderNode, id string) (*RenderNode, bool) {
	if n == nil {
		return nil, false
	}
	if n.ID == id {
		c := n.clone()
		c.Expanded = !c.Expanded
		return c, true
	}
	for i, child := range n.Children {
		replaced, ok := toggleAt(child, id)
		if !ok {
			continue
		}
		c := n.clone()
		children := make([]*RenderNode, len(n.Children))
		copy(children, n.Children)
		children[i] = replaced
		c.Children = children
		return c, true
	}
	return n, false
}

// ExpandAll returns a tree with every node that has children expanded.
func ExpandAll(root *RenderNode) *RenderNode {
	return setExpanded(root, true)
}

// CollapseAll returns a tree with every node that has children collapsed.
// Leaves keep their flag; expansion state of a childless node is never
// observable.
func CollapseAll(root *RenderNode) *RenderNode {
	return setExpanded(root, false)
}

func setExpanded(n *RenderNode, expanded bool) *RenderNode {
	if n == nil {
		return nil
	}
	var children []*RenderNode
	childChanged := false
	if len(n.Children) > 0 {
		children = make([]*RenderNode, len(n.Children))
		for i, child := range n.Children {
			children[i] = setExpanded(child, expanded)
			if children[i] != child {
				childChanged = true
			}
		}
	}
	want := n.Expanded
	if len(n.Children) > 0 {
		want = expanded
	}
	if !childChanged && want == n.Expanded {
		return n
	}
	c := n.clone()
	c.Expanded = want
	if childChanged {
		c.Children = children
	}
	return c
}
