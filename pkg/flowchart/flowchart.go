// Package flowchart emits a rule as a self-contained Mermaid flowchart
// document: decisions become diamonds with ✓/✗ branch edges, variables
// become parallelograms, terminal values become rounded result nodes.
// The emitter is stateless across calls; each emission owns its id
// counter, so concurrent emissions never collide.
package flowchart

import (
	"fmt"
	"strings"
	"unicode/utf8"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// Orientation is the Mermaid growth direction declared in the header.
type Orientation string

const (
	// OrientationTopDown lays decisions out vertically.
	OrientationTopDown Orientation = "TD"
	// OrientationLeftRight lays decisions out horizontally.
	OrientationLeftRight Orientation = "LR"
)

// Options tune one emission.
type Options struct {
	// Orientation defaults to top-down.
	Orientation Orientation

	// IncludeValues adds one edge per array element. Off by default;
	// large literal arrays usually swamp the diagram.
	IncludeValues bool
}

// Style classes assigned to every node line.
const (
	classCondition = "condition"
	classResult    = "result"
	classVariable  = "variable"
	classOperator  = "operator"
	classLiteral   = "literal"
	classArray     = "array"
)

// maxLabelLen bounds label text so pathological strings cannot blow out
// the document. Runes beyond the limit are replaced with an ellipsis.
const maxLabelLen = 60

// Emit renders r as a Mermaid flowchart. It is total: malformed operand
// shapes degrade to placeholder nodes ("IF ?" diamonds) and emission
// continues. Node and edge order follows the rule's operand order, so
// identical input always produces identical output.
func Emit(r *rule.Rule, opts Options) string {
	if opts.Orientation == "" {
		opts.Orientation = OrientationTopDown
	}
	e := &emitter{opts: opts}

	e.b.WriteString("flowchart " + string(opts.Orientation) + "\n")
	e.writeClassDefs()
	e.emit(r)
	return e.b.String()
}

type emitter struct {
	b       strings.Builder
	opts    Options
	counter int
}

func (e *emitter) nextID() string {
	e.counter++
	return fmt.Sprintf("n%d", e.counter)
}

func (e *emitter) writeClassDefs() {
	e.b.WriteString("    classDef condition fill:#1a5276,stroke:#0e3a52,color:#fff\n")
	e.b.WriteString("    classDef result fill:#2d6a2d,stroke:#1a4a1a,color:#fff\n")
	e.b.WriteString("    classDef variable fill:#b7791a,stroke:#8a5c14,color:#fff\n")
	e.b.WriteString("    classDef operator fill:#6b6b6b,stroke:#4a4a4a,color:#fff\n")
	e.b.WriteString("    classDef literal fill:#4a4a4a,stroke:#333,color:#ddd\n")
	e.b.WriteString("    classDef array fill:#5b2c6f,stroke:#3f1f4e,color:#fff\n")
}

// emit writes the subgraph for r and returns its entry node id.
func (e *emitter) emit(r *rule.Rule) string {
	switch {
	case r == nil || r.IsPrimitive() || r.IsEmptyObject():
		return e.terminator(rule.Format(r, false), classLiteral)
	case r.IsVar():
		return e.parallelogram(rule.Format(r, false))
	case r.Kind == rule.KindList:
		return e.array(r)
	case rule.IsDecisionOp(r.Op):
		return e.decision(r.Args)
	case rule.IsComparisonOp(r.Op) || rule.IsLogicJoinOp(r.Op):
		return e.hexagon(r)
	default:
		return e.generic(r)
	}
}

func (e *emitter) writeNode(id, def, class string) {
	e.b.WriteString("    " + def + "\n")
	e.b.WriteString("    class " + id + " " + class + "\n")
}

func (e *emitter) writeEdge(from, to, label string) {
	if label == "" {
		e.b.WriteString("    " + from + " --> " + to + "\n")
		return
	}
	e.b.WriteString("    " + from + " -->|" + label + "| " + to + "\n")
}

func (e *emitter) terminator(label, class string) string {
	id := e.nextID()
	e.writeNode(id, fmt.Sprintf(`%s(["%s"])`, id, sanitizeLabel(label)), class)
	return id
}

func (e *emitter) parallelogram(label string) string {
	id := e.nextID()
	e.writeNode(id, fmt.Sprintf(`%s[/"%s"/]`, id, sanitizeLabel(label)), classVariable)
	return id
}

func (e *emitter) array(r *rule.Rule) string {
	id := e.nextID()
	e.writeNode(id, fmt.Sprintf(`%s[["Array"]]`, id), classArray)
	if e.opts.IncludeValues {
		for _, it := range r.Items {
			e.writeEdge(id, e.emit(it), "")
		}
	}
	return id
}

// decision writes one diamond per chain link. The diamond text is the
// fully expanded condition so it reads as a boolean expression; branch
// targets hang off ✓ Yes / ✗ No edges. Remaining chained operands
// recurse into the next diamond, keeping elseif cascades visually
// chained.
func (e *emitter) decision(args []*rule.Rule) string {
	id := e.nextID()
	label := "IF ?"
	if len(args) > 0 {
		label = rule.ConditionLabel(args[0])
	}
	e.writeNode(id, fmt.Sprintf(`%s{"%s"}`, id, sanitizeLabel(label)), classCondition)
	if len(args) < 2 {
		return id
	}

	e.writeEdge(id, e.branchTarget(args[1]), "✓ Yes")

	rest := args[2:]
	switch {
	case len(rest) == 0:
		// No else leg; the ✗ edge is simply absent.
	case len(rest) == 1:
		e.writeEdge(id, e.branchTarget(rest[0]), "✗ No")
	default:
		e.writeEdge(id, e.decision(rest), "✗ No")
	}
	return id
}

// branchTarget writes the node a ✓/✗ edge points at. Nested decisions
// stay diamonds; bare vars stay variable markers; everything else closes
// the path as a styled result.
func (e *emitter) branchTarget(v *rule.Rule) string {
	switch {
	case v != nil && v.Kind == rule.KindOperation && rule.IsDecisionOp(v.Op):
		return e.decision(v.Args)
	case v.IsVar():
		return e.parallelogram(rule.Format(v, false))
	default:
		return e.terminator(rule.Format(v, false), classResult)
	}
}

// hexagon writes comparison and and/or operators as operator hexagons
// with one edge per operand.
func (e *emitter) hexagon(r *rule.Rule) string {
	id := e.nextID()
	label := r.Op
	if rule.IsLogicJoinOp(r.Op) {
		label = strings.ToUpper(r.Op)
	}
	e.writeNode(id, fmt.Sprintf(`%s{{"%s"}}`, id, sanitizeLabel(label)), classOperator)
	for _, a := range r.Args {
		e.writeEdge(id, e.emit(a), "")
	}
	return id
}

// generic writes any other operator as a plain box labeled with the bare
// operator name and one edge per operand.
func (e *emitter) generic(r *rule.Rule) string {
	id := e.nextID()
	e.writeNode(id, fmt.Sprintf(`%s["%s"]`, id, sanitizeLabel(r.Op)), classOperator)
	for _, a := range r.Args {
		e.writeEdge(id, e.emit(a), "")
	}
	return id
}

// sanitizeLabel keeps free text from breaking a declaration line: quotes
// and angle brackets become Mermaid entities (so "$age #gt; 18" still
// renders as the comparison it is), curly braces are dropped, newlines
// collapse to spaces and pipes become slashes. The result is safe
// between double quotes on one line.
func sanitizeLabel(s string) string {
	s = labelReplacer.Replace(s)
	if utf8.RuneCountInString(s) > maxLabelLen {
		runes := []rune(s)
		s = string(runes[:maxLabelLen-1]) + "…"
	}
	return s
}

var labelReplacer = strings.NewReplacer(
	`"`, "#quot;",
	"<", "#lt;",
	">", "#gt;",
	"{", "",
	"}", "",
	"\r\n", " ",
	"\n", " ",
	"\r", " ",
	"|", "/",
)
