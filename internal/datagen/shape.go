package datagen

import (
	"strings"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// fieldSpec carries everything the generator knows about one path: the
// literal seen directly beside it in a comparison, its declared default,
// and the element shape when the path feeds an iteration.
type fieldSpec struct {
	hint       *rule.Rule
	def        *rule.Rule
	collection *shape
}

// shape is an ordered set of dotted paths with their specs. Iteration
// bodies collect into the collection's own shape with item-relative
// paths; the empty path marks scalar items.
type shape struct {
	order []string
	specs map[string]*fieldSpec
}

func newShape() *shape {
	return &shape{specs: map[string]*fieldSpec{}}
}

func (s *shape) spec(path string) *fieldSpec {
	if sp, ok := s.specs[path]; ok {
		return sp
	}
	sp := &fieldSpec{}
	s.specs[path] = sp
	s.order = append(s.order, path)
	return sp
}

// scope tells a variable path how to land in the record: directly, as a
// field of the current item, or through the reduce current/accumulator
// pair.
type scope int

const (
	dataScope scope = iota
	itemScope
	reduceScope
)

// collectShape walks a rule and gathers the record shape it implies.
func collectShape(r *rule.Rule) *shape {
	sh := newShape()
	collect(r, sh, dataScope)
	sh.prune()
	return sh
}

func collect(r *rule.Rule, sh *shape, sc scope) {
	if r == nil {
		return
	}
	switch r.Kind {
	case rule.KindList:
		for _, item := range r.Items {
			collect(item, sh, sc)
		}
	case rule.KindOperation:
		collectOperation(r, sh, sc)
	}
}

func collectOperation(r *rule.Rule, sh *shape, sc scope) {
	switch {
	case r.IsVar():
		// A computed path names no fixed slot, but its expression may
		// reference collectable variables of its own.
		if len(r.Args) > 0 && (r.Args[0].Kind == rule.KindOperation || r.Args[0].Kind == rule.KindList) {
			collect(r.Args[0], sh, sc)
		}
		sp := varSpec(r, sh, sc)
		def := r.VarDefaultRule()
		if sp != nil && sp.def == nil {
			sp.def = def
		}
		// Defaults may reference other variables.
		if def != nil {
			collect(def, sh, sc)
		}
	case rule.IsIterationOp(r.Op) && len(r.Args) >= 2:
		collectIteration(r, sh, sc)
	case rule.IsComparisonOp(r.Op) || r.Op == "in":
		collectComparison(r, sh, sc)
	default:
		for _, arg := range r.Args {
			collect(arg, sh, sc)
		}
	}
}

// varSpec returns the field spec a variable reference collects into, or
// nil when the reference has no slot in the record: the whole-record
// reference, the reduce accumulator, computed paths.
func varSpec(r *rule.Rule, sh *shape, sc scope) *fieldSpec {
	if len(r.Args) > 0 && (r.Args[0].Kind == rule.KindOperation || r.Args[0].Kind == rule.KindList) {
		return nil
	}
	path, _ := r.VarPath()
	switch sc {
	case itemScope:
		return sh.spec(path)
	case reduceScope:
		switch {
		case path == "current":
			return sh.spec("")
		case strings.HasPrefix(path, "current."):
			return sh.spec(strings.TrimPrefix(path, "current."))
		default:
			return nil
		}
	default:
		if path == "" {
			return nil
		}
		return sh.spec(path)
	}
}

func collectIteration(r *rule.Rule, sh *shape, sc scope) {
	coll, body := r.Args[0], r.Args[1]

	var inner *shape
	if coll.IsVar() {
		if sp := varSpec(coll, sh, sc); sp != nil {
			if sp.collection == nil {
				sp.collection = newShape()
			}
			inner = sp.collection
		}
	} else {
		collect(coll, sh, sc)
	}
	if inner == nil {
		// Literal collections still get their bodies walked so nested
		// references are not lost, into a shape nobody reads.
		inner = newShape()
	}

	bodyScope := itemScope
	if r.Op == "reduce" {
		bodyScope = reduceScope
	}
	collect(body, inner, bodyScope)

	// A reduce initial value evaluates in the enclosing scope.
	for _, extra := range r.Args[2:] {
		collect(extra, sh, sc)
	}
}

func collectComparison(r *rule.Rule, sh *shape, sc scope) {
	for _, arg := range r.Args {
		collect(arg, sh, sc)
	}
	for i, arg := range r.Args {
		if !arg.IsVar() {
			continue
		}
		sp := varSpec(arg, sh, sc)
		if sp == nil || sp.hint != nil {
			continue
		}
		if lit := adjacentLiteral(r.Args, i); lit != nil {
			sp.hint = lit
		}
	}
}

// adjacentLiteral picks the literal operand sitting next to position i,
// preferring the right neighbor. Lists count, for "in" haystacks.
func adjacentLiteral(args []*rule.Rule, i int) *rule.Rule {
	if i+1 < len(args) && literalOperand(args[i+1]) {
		return args[i+1]
	}
	if i > 0 && literalOperand(args[i-1]) {
		return args[i-1]
	}
	return nil
}

func literalOperand(r *rule.Rule) bool {
	return r != nil && (r.IsPrimitive() || r.Kind == rule.KindList)
}

// prune resolves collisions a record cannot hold: a scalar at "user"
// next to a field "user.age" (the deeper path wins), and a bare item
// reference next to named item fields (the fields win).
func (s *shape) prune() {
	keep := make([]string, 0, len(s.order))
	for _, p := range s.order {
		if p == "" && len(s.order) > 1 {
			delete(s.specs, p)
			continue
		}
		if p != "" && s.hasDeeper(p) {
			delete(s.specs, p)
			continue
		}
		keep = append(keep, p)
	}
	s.order = keep
	for _, p := range s.order {
		if c := s.specs[p].collection; c != nil {
			c.prune()
		}
	}
}

func (s *shape) hasDeeper(prefix string) bool {
	for _, q := range s.order {
		if strings.HasPrefix(q, prefix+".") {
			return true
		}
	}
	return false
}
