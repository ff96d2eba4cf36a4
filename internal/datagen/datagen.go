// Package datagen synthesizes random data records for exercising rules.
// A value's type is guessed only from a literal sitting directly beside
// the variable in a comparison; nothing here solves for a rule outcome,
// so a generated record may land on either side of every check.
package datagen

import (
	"context"
	"math"
	"math/rand"
	"sort"

	"github.com/madpin/jsonlogicui/internal/evalbridge"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// words feeds string synthesis when no nearby literal suggests better.
var words = []string{"amber", "cobalt", "crimson", "ivory", "jade", "onyx", "pearl", "slate"}

// Generator emits pseudo-random data records for a rule. The same seed
// and rule always produce the same record.
type Generator struct {
	rng *rand.Rand
	res *evalbridge.Resolver
}

// New returns a generator drawing from the given seed.
func New(seed int64) (*Generator, error) {
	res, err := evalbridge.NewResolver()
	if err != nil {
		return nil, err
	}
	return &Generator{rng: rand.New(rand.NewSource(seed)), res: res}, nil
}

// Generate builds a record covering every variable path the rule
// references, nested per the dotted paths. Paths that feed iterations
// become lists whose elements follow the iteration body's references.
func (g *Generator) Generate(ctx context.Context, r *rule.Rule) (map[string]any, error) {
	return g.record(ctx, collectShape(r))
}

// Merge overlays explicit values onto a record, keyed by dotted path,
// without touching the input. Callers pin the fields they care about
// and leave the rest to Generate.
func (g *Generator) Merge(ctx context.Context, record map[string]any, overrides map[string]any) (map[string]any, error) {
	paths := make([]string, 0, len(overrides))
	for p := range overrides {
		paths = append(paths, p)
	}
	sort.Strings(paths)

	out := record
	for _, p := range paths {
		updated, err := g.res.Set(ctx, out, p, overrides[p])
		if err != nil {
			return nil, err
		}
		out = updated
	}
	return out, nil
}

func (g *Generator) record(ctx context.Context, sh *shape) (map[string]any, error) {
	record := map[string]any{}
	for _, path := range sh.order {
		val, err := g.fieldValue(ctx, sh.specs[path])
		if err != nil {
			return nil, err
		}
		updated, err := g.res.Set(ctx, record, path, val)
		if err != nil {
			return nil, err
		}
		record = updated
	}
	return record, nil
}

func (g *Generator) fieldValue(ctx context.Context, sp *fieldSpec) (any, error) {
	if sp.collection != nil {
		return g.listValue(ctx, sp.collection)
	}
	return g.scalarValue(sp), nil
}

func (g *Generator) listValue(ctx context.Context, items *shape) (any, error) {
	out := make([]any, 2+g.rng.Intn(3))
	for i := range out {
		item, err := g.itemValue(ctx, items)
		if err != nil {
			return nil, err
		}
		out[i] = item
	}
	return out, nil
}

func (g *Generator) itemValue(ctx context.Context, items *shape) (any, error) {
	// A body that only names the bare item means scalar elements; a body
	// that names nothing gives no signal either way, numbers are the
	// lighter guess.
	if sp, ok := items.specs[""]; ok {
		return g.fieldValue(ctx, sp)
	}
	if len(items.order) == 0 {
		return g.scalarValue(&fieldSpec{}), nil
	}
	return g.record(ctx, items)
}

func (g *Generator) scalarValue(sp *fieldSpec) any {
	if sp.hint != nil {
		return g.hintedValue(sp.hint)
	}
	if sp.def != nil && sp.def.IsPrimitive() {
		return g.hintedValue(sp.def)
	}
	return float64(g.rng.Intn(100))
}

// hintedValue synthesizes a value of the literal's type, staying near
// numbers and sometimes reusing strings so comparisons have a chance to
// land on either side.
func (g *Generator) hintedValue(lit *rule.Rule) any {
	switch lit.Kind {
	case rule.KindBool:
		return g.rng.Intn(2) == 0
	case rule.KindNumber:
		v := lit.Num + float64(g.rng.Intn(21)-10)
		if lit.Num == math.Trunc(lit.Num) {
			return v
		}
		return math.Round(v*100) / 100
	case rule.KindString:
		if g.rng.Intn(2) == 0 {
			return lit.Str
		}
		return words[g.rng.Intn(len(words))]
	case rule.KindList:
		// An "in" haystack: draw from its own elements.
		var prims []*rule.Rule
		for _, it := range lit.Items {
			if it.IsPrimitive() && it.Kind != rule.KindNull {
				prims = append(prims, it)
			}
		}
		if len(prims) > 0 {
			return g.hintedValue(prims[g.rng.Intn(len(prims))])
		}
		return float64(g.rng.Intn(100))
	default:
		return float64(g.rng.Intn(100))
	}
}
