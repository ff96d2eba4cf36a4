package evalbridge

import (
	"context"
	"strconv"
	"strings"
	"sync"

	"github.com/expr-lang/expr"
	"github.com/expr-lang/expr/vm"

	"github.com/madpin/jsonlogicui/pkg/rendertree"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// exprScope tracks which environment a fragment resolves variables in:
// the data record, the current item of an enclosing iteration, or the
// current/accumulator pair of a reduce body.
type exprScope int

const (
	exprData exprScope = iota
	exprItem
	exprReduce
)

// TranslateExpr renders a rule as expr-lang source. Variable references
// become environment lookups with optional chaining, iteration bodies
// use # and #acc closures, and decision chains become nested ternaries.
func TranslateExpr(r *rule.Rule) (string, error) {
	return exprSource(r, exprData)
}

func exprSource(r *rule.Rule, scope exprScope) (string, error) {
	if r == nil {
		return "nil", nil
	}
	switch r.Kind {
	case rule.KindNull:
		return "nil", nil
	case rule.KindBool:
		return strconv.FormatBool(r.Bool), nil
	case rule.KindNumber:
		return rule.FormatNumber(r.Num), nil
	case rule.KindString:
		return strconv.Quote(r.Str), nil
	case rule.KindList:
		return exprJoinList(r.Items, scope)
	case rule.KindOperation:
		return exprOperation(r, scope)
	}
	return "", untranslatable("expr", "unknown rule kind")
}

func exprJoinList(items []*rule.Rule, scope exprScope) (string, error) {
	parts := make([]string, len(items))
	for i, it := range items {
		s, err := exprSource(it, scope)
		if err != nil {
			return "", err
		}
		parts[i] = s
	}
	return "[" + strings.Join(parts, ", ") + "]", nil
}

func exprOperation(r *rule.Rule, scope exprScope) (string, error) {
	if r.IsEmptyObject() {
		return "{}", nil
	}
	if r.IsVar() {
		return exprVar(r, scope)
	}

	op, args := r.Op, r.Args
	switch {
	case rule.IsDecisionOp(op):
		return exprIf(args, scope)

	case op == "==" || op == "===":
		return exprBinary("==", args, scope)
	case op == "!=" || op == "!==":
		return exprBinary("!=", args, scope)

	case rule.IsComparisonOp(op):
		if len(args) == 3 {
			return exprBetween(op, args, scope)
		}
		return exprBinary(op, args, scope)

	case rule.IsLogicJoinOp(op):
		joiner := " && "
		if op == "or" {
			joiner = " || "
		}
		return exprJoin(joiner, args, scope)

	case op == "!":
		inner, err := exprOperand(args, scope)
		if err != nil {
			return "", err
		}
		return "!(" + inner + ")", nil
	case op == "!!":
		inner, err := exprOperand(args, scope)
		if err != nil {
			return "", err
		}
		return "!(!(" + inner + "))", nil

	case op == "-" && len(args) == 1:
		inner, err := exprSource(args[0], scope)
		if err != nil {
			return "", err
		}
		return "(-(" + inner + "))", nil

	case rule.IsArithmeticOp(op):
		return exprJoin(" "+op+" ", args, scope)

	case op == "min" || op == "max":
		parts, err := exprParts(args, scope)
		if err != nil {
			return "", err
		}
		return op + "(" + strings.Join(parts, ", ") + ")", nil

	case op == "in":
		return exprBinary("in", args, scope)

	case op == "map" || op == "filter":
		return exprIteration(op, args, scope)
	case op == "all":
		return exprIteration("all", args, scope)
	case op == "some":
		return exprIteration("any", args, scope)
	case op == "none":
		return exprIteration("none", args, scope)
	case op == "reduce":
		return exprReduceCall(args, scope)

	case op == "cat":
		if len(args) == 0 {
			return `""`, nil
		}
		parts, err := exprParts(args, scope)
		if err != nil {
			return "", err
		}
		for i, p := range parts {
			parts[i] = "string(" + p + ")"
		}
		return "(" + strings.Join(parts, " + ") + ")", nil

	case op == "log":
		return exprOperand(args, scope)
	}

	return "", untranslatable("expr", "operator "+strconv.Quote(op))
}

// exprVar renders a variable reference for the active scope. Inside
// iterations the empty path is the closure item #; inside reduce bodies
// only current and accumulator resolve, everything else is out of scope.
func exprVar(r *rule.Rule, scope exprScope) (string, error) {
	if len(r.Args) > 0 && (r.Args[0].Kind == rule.KindOperation || r.Args[0].Kind == rule.KindList) {
		return "", untranslatable("expr", "computed variable path")
	}
	path, _ := r.VarPath()
	segs := pathSegments(path)

	var access string
	switch scope {
	case exprData:
		if len(segs) == 0 {
			access = "$env"
			break
		}
		if !isIdentifier(segs[0]) {
			return "", untranslatable("expr", "variable path "+strconv.Quote(path))
		}
		access = segs[0]
		rest, err := exprChain(segs[1:], path)
		if err != nil {
			return "", err
		}
		access += rest

	case exprItem:
		access = "#"
		rest, err := exprChain(segs, path)
		if err != nil {
			return "", err
		}
		access += rest

	case exprReduce:
		if len(segs) == 0 {
			return "nil", nil
		}
		switch segs[0] {
		case "current":
			access = "#"
		case "accumulator":
			access = "#acc"
		default:
			// Reduce bodies see only the current/accumulator pair.
			return "nil", nil
		}
		rest, err := exprChain(segs[1:], path)
		if err != nil {
			return "", err
		}
		access += rest
	}

	if def := r.VarDefaultRule(); def != nil {
		fallback, err := exprSource(def, scope)
		if err != nil {
			return "", err
		}
		return "(" + access + " ?? " + fallback + ")", nil
	}
	return access, nil
}

// exprChain renders trailing path segments as optional member access and
// list indexing.
func exprChain(segs []string, path string) (string, error) {
	var b strings.Builder
	for _, seg := range segs {
		switch {
		case isIndex(seg):
			b.WriteString("[" + seg + "]")
		case isIdentifier(seg):
			b.WriteString("?." + seg)
		default:
			return "", untranslatable("expr", "variable path "+strconv.Quote(path))
		}
	}
	return b.String(), nil
}

// exprIf renders a decision chain as nested ternaries. A missing else
// yields nil, matching the null a rule engine returns when no branch
// matches.
func exprIf(args []*rule.Rule, scope exprScope) (string, error) {
	switch len(args) {
	case 0:
		return "nil", nil
	case 1:
		return exprSource(args[0], scope)
	}
	cond, err := exprSource(args[0], scope)
	if err != nil {
		return "", err
	}
	then, err := exprSource(args[1], scope)
	if err != nil {
		return "", err
	}
	rest := "nil"
	if len(args) > 2 {
		if rest, err = exprIf(args[2:], scope); err != nil {
			return "", err
		}
	}
	return "(" + cond + " ? " + then + " : " + rest + ")", nil
}

func exprBinary(op string, args []*rule.Rule, scope exprScope) (string, error) {
	if len(args) != 2 {
		return "", untranslatable("expr", "operator "+strconv.Quote(op)+" without two operands")
	}
	left, err := exprSource(args[0], scope)
	if err != nil {
		return "", err
	}
	right, err := exprSource(args[1], scope)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

// exprBetween renders the three-operand comparison form, a < b < c.
func exprBetween(op string, args []*rule.Rule, scope exprScope) (string, error) {
	parts, err := exprParts(args, scope)
	if err != nil {
		return "", err
	}
	return "((" + parts[0] + " " + op + " " + parts[1] + ") && (" + parts[1] + " " + op + " " + parts[2] + "))", nil
}

func exprJoin(joiner string, args []*rule.Rule, scope exprScope) (string, error) {
	if len(args) == 0 {
		return "", untranslatable("expr", "operator without operands")
	}
	parts, err := exprParts(args, scope)
	if err != nil {
		return "", err
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ")", nil
	}
	return "(" + strings.Join(parts, joiner) + ")", nil
}

func exprParts(args []*rule.Rule, scope exprScope) ([]string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := exprSource(a, scope)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return parts, nil
}

func exprOperand(args []*rule.Rule, scope exprScope) (string, error) {
	if len(args) == 0 {
		return "nil", nil
	}
	return exprSource(args[0], scope)
}

// exprIteration renders map/filter/all/any/none over a collection with a
// # closure body.
func exprIteration(builtin string, args []*rule.Rule, scope exprScope) (string, error) {
	if len(args) < 2 {
		return "", untranslatable("expr", "iteration without a body")
	}
	coll, err := exprSource(args[0], scope)
	if err != nil {
		return "", err
	}
	body, err := exprSource(args[1], exprItem)
	if err != nil {
		return "", err
	}
	return builtin + "(" + coll + ", " + body + ")", nil
}

func exprReduceCall(args []*rule.Rule, scope exprScope) (string, error) {
	if len(args) < 2 {
		return "", untranslatable("expr", "reduce without a body")
	}
	coll, err := exprSource(args[0], scope)
	if err != nil {
		return "", err
	}
	body, err := exprSource(args[1], exprReduce)
	if err != nil {
		return "", err
	}
	if len(args) < 3 {
		return "reduce(" + coll + ", " + body + ")", nil
	}
	initial, err := exprSource(args[2], scope)
	if err != nil {
		return "", err
	}
	return "reduce(" + coll + ", " + body + ", " + initial + ")", nil
}

// ExprEngine evaluates rules by translating them to expr-lang programs.
// Thread-safe: compiled *vm.Program objects are cached by source and
// reused across goroutines.
type ExprEngine struct {
	mu    sync.RWMutex
	cache map[string]*vm.Program
}

// NewExprEngine creates a new expr-backed engine.
func NewExprEngine() *ExprEngine {
	return &ExprEngine{
		cache: make(map[string]*vm.Program),
	}
}

// Name returns the engine identifier.
func (e *ExprEngine) Name() string {
	return "expr"
}

// Evaluate translates the rule, compiles (or retrieves from cache) the
// program, and runs it with the data record as the environment.
func (e *ExprEngine) Evaluate(ctx context.Context, r *rule.Rule, data map[string]any) (any, error) {
	source, err := TranslateExpr(r)
	if err != nil {
		return nil, err
	}

	prg, err := e.getOrCompile(source)
	if err != nil {
		return nil, err
	}

	env := data
	if env == nil {
		env = map[string]any{}
	}

	out, err := vm.Run(prg, env)
	if err != nil {
		return nil, rule.NewErrorf(rule.ErrCodeEval,
			"expr evaluation failed for %q: %s", source, err.Error()).
			WithCause(err).
			WithDetail("expression", source)
	}
	return out, nil
}

// getOrCompile returns a cached compiled program or compiles and caches a
// new one.
func (e *ExprEngine) getOrCompile(source string) (*vm.Program, error) {
	e.mu.RLock()
	if prg, ok := e.cache[source]; ok {
		e.mu.RUnlock()
		return prg, nil
	}
	e.mu.RUnlock()

	e.mu.Lock()
	defer e.mu.Unlock()

	// Double-check after acquiring write lock.
	if prg, ok := e.cache[source]; ok {
		return prg, nil
	}

	prg, err := expr.Compile(source,
		expr.Env(map[string]any{}),
		expr.AllowUndefinedVariables(),
	)
	if err != nil {
		return nil, rule.NewErrorf(rule.ErrCodeEval,
			"expr compile error in %q: %s", source, err.Error()).
			WithCause(err).
			WithDetail("expression", source)
	}

	e.cache[source] = prg
	return prg, nil
}

var (
	_ Engine               = (*ExprEngine)(nil)
	_ rendertree.Evaluator = (*ExprEngine)(nil)
)
