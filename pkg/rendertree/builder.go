package rendertree

import (
	"fmt"
	"strconv"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// DefaultMaxAutoDepth is the depth from which generic operator and array
// nodes start collapsed. Decision and branch nodes always start expanded.
const DefaultMaxAutoDepth = 3

// Builder compiles rules into rendering trees. The zero value is ready to
// use: each Build call then gets its own counter id source and the
// default auto-expansion depth, so concurrent builds never interfere.
type Builder struct {
	// IDs supplies node identifiers. Nil means a fresh counter source
	// per Build call ("n1", "n2", ...).
	IDs IDSource

	// MaxAutoDepth overrides DefaultMaxAutoDepth when positive.
	MaxAutoDepth int
}

// Build compiles r with a zero-value Builder.
func Build(r *rule.Rule) *RenderNode {
	return (&Builder{}).Build(r)
}

// Build compiles r into a rendering tree. It never fails: malformed
// operand shapes degrade to placeholder nodes and the walk continues over
// whatever operands are present, so one bad subtree cannot take down the
// rest of the diagram.
func (b *Builder) Build(r *rule.Rule) *RenderNode {
	ids := b.IDs
	if ids == nil {
		ids = NewCounterSource()
	}
	maxDepth := b.MaxAutoDepth
	if maxDepth <= 0 {
		maxDepth = DefaultMaxAutoDepth
	}
	s := &buildState{ids: ids, maxAutoDepth: maxDepth}
	return s.node(r, 0, nil)
}

// buildState is the per-call compilation context.
type buildState struct {
	ids          IDSource
	maxAutoDepth int
}

func (s *buildState) node(r *rule.Rule, depth int, path []string) *RenderNode {
	switch {
	case r == nil || r.IsPrimitive() || r.IsEmptyObject():
		return s.literal(r, path)
	case r.Kind == rule.KindList:
		return s.array(r, depth, path)
	case r.IsVar():
		return s.variable(r, path)
	case rule.IsDecisionOp(r.Op):
		return s.chain(r, r.Args, depth, path)
	default:
		return s.operator(r, depth, path)
	}
}

func (s *buildState) literal(r *rule.Rule, path []string) *RenderNode {
	return &RenderNode{
		ID:       s.ids.Next(),
		Kind:     NodeKindLiteral,
		Label:    rule.Format(r, false),
		Raw:      r,
		Path:     path,
		Expanded: true,
	}
}

func (s *buildState) array(r *rule.Rule, depth int, path []string) *RenderNode {
	n := &RenderNode{
		ID:       s.ids.Next(),
		Kind:     NodeKindArrayLiteral,
		Label:    fmt.Sprintf("[%d items]", len(r.Items)),
		Raw:      r,
		Path:     path,
		Expanded: depth < s.maxAutoDepth,
	}
	for i, it := range r.Items {
		n.Children = append(n.Children, s.node(it, depth+1, childPath(path, "["+strconv.Itoa(i)+"]")))
	}
	return n
}

func (s *buildState) variable(r *rule.Rule, path []string) *RenderNode {
	n := &RenderNode{
		ID:       s.ids.Next(),
		Kind:     NodeKindVariable,
		Label:    varLabel(r),
		Operator: r.Op,
		Raw:      r,
		Path:     path,
		Expanded: true,
	}
	if def := r.VarDefaultRule(); def != nil {
		n.Children = append(n.Children, &RenderNode{
			ID:       s.ids.Next(),
			Kind:     NodeKindLiteral,
			Label:    "default: " + def.JSON(),
			Raw:      def,
			Path:     childPath(path, "default"),
			Expanded: true,
		})
	}
	return n
}

// chain builds one link of an if/elseif chain from the operands still to
// consume. Each link takes a condition and a then-value; the remainder
// becomes either a flattened nested decision, a tagged default leaf, or
// the next synthetic link:
//
//	[]                       "IF ?" placeholder, no children
//	[cond]                   condition label only, branches absent
//	[cond, then]             no else leg
//	[cond, then, else]       else flattened (nested if) or wrapped
//	[cond, then, c2, v2...]  else recurses into the next link
func (s *buildState) chain(r *rule.Rule, args []*rule.Rule, depth int, path []string) *RenderNode {
	n := &RenderNode{
		ID:       s.ids.Next(),
		Kind:     NodeKindOperator,
		Operator: r.Op,
		Raw:      chainRaw(r, args),
		Path:     path,
		Expanded: true,
	}
	if len(args) == 0 {
		n.Label = "IF ?"
		return n
	}
	n.Label = rule.ConditionLabel(args[0])
	if len(args) < 2 {
		return n
	}
	n.Children = append(n.Children, s.branch(args[1], NodeKindTrueBranch, depth+1, childPath(path, "then")))

	rest := args[2:]
	elsePath := childPath(path, "else")
	switch {
	case len(rest) == 0:
		// No else leg.
	case len(rest) == 1:
		if v := rest[0]; v != nil && v.Kind == rule.KindOperation && rule.IsDecisionOp(v.Op) {
			// Nested decision in else position joins the visual chain
			// directly instead of hiding behind a branch marker.
			n.Children = append(n.Children, s.node(v, depth+1, elsePath))
		} else {
			n.Children = append(n.Children, s.branch(rest[0], NodeKindFalseBranch, depth+1, elsePath))
		}
	default:
		n.Children = append(n.Children, s.chain(r, rest, depth+1, elsePath))
	}
	return n
}

// chainRaw keeps the source fragment on the root link and reassembles a
// fragment covering the remaining operands on synthetic links, so
// inspection and annotation always see an evaluable rule.
func chainRaw(r *rule.Rule, args []*rule.Rule) *rule.Rule {
	if len(args) == len(r.Args) {
		return r
	}
	return rule.Op(r.Op, args...)
}

// branch wraps a decision outcome. Simple results (primitives, literal
// arrays, bare vars) become leaves tagged with the branch kind; any other
// operation recurses fully so nested logic stays explorable.
func (s *buildState) branch(v *rule.Rule, kind NodeKind, depth int, path []string) *RenderNode {
	if !isBranchLeaf(v) {
		return s.node(v, depth, path)
	}
	n := &RenderNode{
		ID:       s.ids.Next(),
		Kind:     kind,
		Label:    branchLabel(v),
		Raw:      v,
		Path:     path,
		Expanded: true,
	}
	if v != nil && v.Kind == rule.KindOperation {
		n.Operator = v.Op
	}
	return n
}

func isBranchLeaf(v *rule.Rule) bool {
	return v.IsPrimitive() || v.Kind == rule.KindList || v.IsVar() || v.IsEmptyObject()
}

func branchLabel(v *rule.Rule) string {
	if v.IsVar() {
		return varLabel(v)
	}
	return rule.Format(v, false)
}

func (s *buildState) operator(r *rule.Rule, depth int, path []string) *RenderNode {
	n := &RenderNode{
		ID:       s.ids.Next(),
		Kind:     NodeKindOperator,
		Label:    rule.Format(r, false),
		Operator: r.Op,
		Raw:      r,
		Path:     path,
		Expanded: depth < s.maxAutoDepth,
	}
	// Iteration operators show every operand as a child; their labels
	// never inline contents. Everything else grows children only for
	// complex operands, keeping single comparisons childless.
	iteration := rule.IsIterationOp(r.Op)
	for i, a := range r.Args {
		if !iteration && !isComplex(a) {
			continue
		}
		seg := r.Op + "[" + strconv.Itoa(i) + "]"
		n.Children = append(n.Children, s.node(a, depth+1, childPath(path, seg)))
	}
	return n
}

// isComplex reports whether an operand earns its own child node under a
// generic operator. Bare vars and primitives stay inlined in the label.
func isComplex(r *rule.Rule) bool {
	if r == nil {
		return false
	}
	switch r.Kind {
	case rule.KindList:
		return true
	case rule.KindOperation:
		return !r.IsVar() && !r.IsEmptyObject()
	}
	return false
}

// varLabel renders a variable node title. The tree sentinel for an empty
// path is "(current item)"; the inline formatter's shorter "(item)" stays
// reserved for labels that embed the reference in a larger expression.
func varLabel(r *rule.Rule) string {
	path, _ := r.VarPath()
	if path == "" {
		return "(current item)"
	}
	return "$" + path
}

// childPath copies then extends a path so sibling subtrees never share
// backing arrays.
func childPath(path []string, seg string) []string {
	p := make([]string, len(path), len(path)+1)
	copy(p, path)
	return append(p, seg)
}
