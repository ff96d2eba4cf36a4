// Package rule defines the JSONLogic-style expression model shared by every
// surface of jsonlogicui: the decoder, the label formatter, the render-tree
// builder, the flowchart emitter and the evaluation bridges.
//
// A rule is a tagged union mirroring the JSON value space: null, booleans,
// numbers, strings, lists, and single-key operation objects. Values are
// immutable after decoding; consumers share subtrees freely.
package rule

import (
	"encoding/json"
	"strconv"
	"strings"
)

// Kind discriminates the variants of the Rule union.
type Kind string

const (
	KindNull      Kind = "null"
	KindBool      Kind = "bool"
	KindNumber    Kind = "number"
	KindString    Kind = "string"
	KindList      Kind = "list"
	KindOperation Kind = "operation"
)

// Rule is a single node of a rule expression. Exactly one variant is
// populated, selected by Kind. Operation nodes carry the operator name and
// its operands in source order; ArgList records whether the operands were
// written as a JSON array, which matters when an operator takes a single
// array-valued operand.
type Rule struct {
	Kind Kind

	Bool bool
	Num  float64
	Str  string

	Items []*Rule

	Op      string
	Args    []*Rule
	ArgList bool
}

// Null returns the null literal.
func Null() *Rule { return &Rule{Kind: KindNull} }

// Boolean returns a boolean literal.
func Boolean(v bool) *Rule { return &Rule{Kind: KindBool, Bool: v} }

// Number returns a numeric literal.
func Number(v float64) *Rule { return &Rule{Kind: KindNumber, Num: v} }

// String returns a string literal.
func String(v string) *Rule { return &Rule{Kind: KindString, Str: v} }

// List returns an array literal with the given elements.
func List(items ...*Rule) *Rule {
	if items == nil {
		items = []*Rule{}
	}
	return &Rule{Kind: KindList, Items: items}
}

// Op returns an operation whose operands were written in array form,
// e.g. {"==": [a, b]}.
func Op(name string, operands ...*Rule) *Rule {
	if operands == nil {
		operands = []*Rule{}
	}
	return &Rule{Kind: KindOperation, Op: name, Args: operands, ArgList: true}
}

// OpUnary returns an operation with a single bare operand,
// e.g. {"!": true} as opposed to {"!": [true]}.
func OpUnary(name string, operand *Rule) *Rule {
	return &Rule{Kind: KindOperation, Op: name, Args: []*Rule{operand}}
}

// Var returns a variable reference {"var": path}.
func Var(path string) *Rule {
	return OpUnary("var", String(path))
}

// VarDefault returns a variable reference with a fallback,
// {"var": [path, def]}.
func VarDefault(path string, def *Rule) *Rule {
	return Op("var", String(path), def)
}

// EmptyObject returns the degenerate {} operation. It has no operator and
// no operands; the formatter renders it as "{}".
func EmptyObject() *Rule {
	return &Rule{Kind: KindOperation}
}

// IsEmptyObject reports whether r is the degenerate {} operation.
func (r *Rule) IsEmptyObject() bool {
	return r != nil && r.Kind == KindOperation && r.Op == "" && len(r.Args) == 0
}

// IsVar reports whether r is a variable reference.
func (r *Rule) IsVar() bool {
	return r != nil && r.Kind == KindOperation && r.Op == "var"
}

// IsPrimitive reports whether r is null, a boolean, a number or a string.
func (r *Rule) IsPrimitive() bool {
	if r == nil {
		return true
	}
	switch r.Kind {
	case KindNull, KindBool, KindNumber, KindString:
		return true
	}
	return false
}

// VarPath returns the path of a variable reference and whether one is
// present. The empty path (bare {"var": ""} or {"var": []}) returns
// ("", true). Numeric paths are rendered in canonical form, so
// {"var": 1} yields "1".
func (r *Rule) VarPath() (string, bool) {
	if !r.IsVar() {
		return "", false
	}
	if len(r.Args) == 0 {
		return "", true
	}
	switch p := r.Args[0]; p.Kind {
	case KindString:
		return p.Str, true
	case KindNumber:
		return FormatNumber(p.Num), true
	case KindNull:
		return "", true
	}
	return "", true
}

// VarDefaultRule returns the fallback operand of a variable reference,
// or nil when none was given.
func (r *Rule) VarDefaultRule() *Rule {
	if !r.IsVar() || !r.ArgList || len(r.Args) < 2 {
		return nil
	}
	return r.Args[1]
}

// FormatNumber renders a float in canonical form: no exponent for typical
// magnitudes and no trailing zeros, so 18 stays "18" and 2.5 stays "2.5".
func FormatNumber(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

// Interface converts the rule back to the plain Go value space used by
// encoding/json: nil, bool, float64, string, []any and map[string]any.
func (r *Rule) Interface() any {
	if r == nil {
		return nil
	}
	switch r.Kind {
	case KindNull:
		return nil
	case KindBool:
		return r.Bool
	case KindNumber:
		return r.Num
	case KindString:
		return r.Str
	case KindList:
		items := make([]any, len(r.Items))
		for i, it := range r.Items {
			items[i] = it.Interface()
		}
		return items
	case KindOperation:
		if r.IsEmptyObject() {
			return map[string]any{}
		}
		var operand any
		if r.ArgList {
			args := make([]any, len(r.Args))
			for i, a := range r.Args {
				args[i] = a.Interface()
			}
			operand = args
		} else if len(r.Args) > 0 {
			operand = r.Args[0].Interface()
		}
		return map[string]any{r.Op: operand}
	}
	return nil
}

// MarshalJSON renders the rule as its source JSON form.
func (r *Rule) MarshalJSON() ([]byte, error) {
	return json.Marshal(r.Interface())
}

// JSON returns the compact JSON encoding of the rule. It never fails;
// the value space is closed under encoding/json.
func (r *Rule) JSON() string {
	b, err := json.Marshal(r.Interface())
	if err != nil {
		return "null"
	}
	return string(b)
}

// Walk visits r and every descendant in depth-first source order. The
// visitor returning false prunes the subtree below the current node.
func Walk(r *Rule, visit func(*Rule) bool) {
	if r == nil {
		return
	}
	if !visit(r) {
		return
	}
	switch r.Kind {
	case KindList:
		for _, it := range r.Items {
			Walk(it, visit)
		}
	case KindOperation:
		for _, a := range r.Args {
			Walk(a, visit)
		}
	}
}

// Equal reports deep structural equality, including the single-operand
// versus array-operand distinction.
func Equal(a, b *Rule) bool {
	if a == nil || b == nil {
		return a == nil && b == nil
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case KindNull:
		return true
	case KindBool:
		return a.Bool == b.Bool
	case KindNumber:
		return a.Num == b.Num
	case KindString:
		return a.Str == b.Str
	case KindList:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case KindOperation:
		if a.Op != b.Op || a.ArgList != b.ArgList || len(a.Args) != len(b.Args) {
			return false
		}
		for i := range a.Args {
			if !Equal(a.Args[i], b.Args[i]) {
				return false
			}
		}
		return true
	}
	return false
}

// String implements fmt.Stringer with the compact display label.
func (r *Rule) String() string {
	return Format(r, true)
}

// splitPath breaks a dotted variable path into segments. Empty paths
// yield no segments.
func splitPath(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}
