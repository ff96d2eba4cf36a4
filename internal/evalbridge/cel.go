package evalbridge

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"sync"

	"github.com/google/cel-go/cel"

	"github.com/madpin/jsonlogicui/pkg/rendertree"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// celScope carries variable-resolution context through translation. An
// empty item name means the data record; inside iteration bodies item
// names the comprehension variable (it0, it1, ...).
type celScope struct {
	item  string
	depth int
}

// TranslateCEL renders a rule as CEL source. The CEL dialect covers a
// narrower surface than expr: variable defaults, reduce, modulo and
// min/max have no translation and report an EVAL_ERROR instead.
func TranslateCEL(r *rule.Rule) (string, error) {
	return celSource(r, celScope{})
}

func celSource(r *rule.Rule, sc celScope) (string, error) {
	if r == nil {
		return "null", nil
	}
	switch r.Kind {
	case rule.KindNull:
		return "null", nil
	case rule.KindBool:
		return strconv.FormatBool(r.Bool), nil
	case rule.KindNumber:
		return celNumber(r.Num), nil
	case rule.KindString:
		return strconv.Quote(r.Str), nil
	case rule.KindList:
		parts, err := celParts(r.Items, sc)
		if err != nil {
			return "", err
		}
		return "[" + strings.Join(parts, ", ") + "]", nil
	case rule.KindOperation:
		return celOperation(r, sc)
	}
	return "", untranslatable("cel", "unknown rule kind")
}

func celOperation(r *rule.Rule, sc celScope) (string, error) {
	if r.IsEmptyObject() {
		return "{}", nil
	}
	if r.IsVar() {
		return celVar(r, sc)
	}

	op, args := r.Op, r.Args
	switch {
	case rule.IsDecisionOp(op):
		return celIf(args, sc)

	case op == "==" || op == "===":
		return celBinary("==", args, sc)
	case op == "!=" || op == "!==":
		return celBinary("!=", args, sc)

	case rule.IsComparisonOp(op):
		if len(args) == 3 {
			return celBetween(op, args, sc)
		}
		return celBinary(op, args, sc)

	case rule.IsLogicJoinOp(op):
		joiner := " && "
		if op == "or" {
			joiner = " || "
		}
		return celJoin(joiner, args, sc)

	case op == "!":
		inner, err := celOperand(args, sc)
		if err != nil {
			return "", err
		}
		return "!(" + inner + ")", nil
	case op == "!!":
		inner, err := celOperand(args, sc)
		if err != nil {
			return "", err
		}
		return "!(!(" + inner + "))", nil

	case op == "-" && len(args) == 1:
		inner, err := celSource(args[0], sc)
		if err != nil {
			return "", err
		}
		return "(-(" + inner + "))", nil

	case op == "%":
		// CEL defines modulo for integers only; the doubles carried by
		// JSON data would fail at runtime anyway.
		return "", untranslatable("cel", `operator "%"`)

	case rule.IsArithmeticOp(op):
		return celJoin(" "+op+" ", args, sc)

	case op == "min" || op == "max":
		return "", untranslatable("cel", "operator "+strconv.Quote(op))

	case op == "in":
		return celBinary("in", args, sc)

	case op == "map" || op == "filter" || op == "all":
		return celIteration(op, args, sc)
	case op == "some":
		return celIteration("exists", args, sc)
	case op == "none":
		inner, err := celIteration("exists", args, sc)
		if err != nil {
			return "", err
		}
		return "!(" + inner + ")", nil
	case op == "reduce":
		return "", untranslatable("cel", `operator "reduce"`)

	case op == "cat":
		if len(args) == 0 {
			return `""`, nil
		}
		parts, err := celParts(args, sc)
		if err != nil {
			return "", err
		}
		for i, p := range parts {
			parts[i] = "string(" + p + ")"
		}
		return "(" + strings.Join(parts, " + ") + ")", nil

	case op == "log":
		return celOperand(args, sc)
	}

	return "", untranslatable("cel", "operator "+strconv.Quote(op))
}

func celVar(r *rule.Rule, sc celScope) (string, error) {
	if len(r.Args) > 0 && (r.Args[0].Kind == rule.KindOperation || r.Args[0].Kind == rule.KindList) {
		return "", untranslatable("cel", "computed variable path")
	}
	if r.VarDefaultRule() != nil {
		return "", untranslatable("cel", "variable defaults")
	}
	path, _ := r.VarPath()
	segs := pathSegments(path)

	if sc.item == "" {
		if len(segs) == 0 {
			return "", untranslatable("cel", "current-item reference outside an iteration")
		}
		if !isIdentifier(segs[0]) {
			return "", untranslatable("cel", "variable path "+strconv.Quote(path))
		}
		rest, err := celChain(segs[1:], path)
		if err != nil {
			return "", err
		}
		return segs[0] + rest, nil
	}

	rest, err := celChain(segs, path)
	if err != nil {
		return "", err
	}
	return sc.item + rest, nil
}

func celChain(segs []string, path string) (string, error) {
	var b strings.Builder
	for _, seg := range segs {
		switch {
		case isIndex(seg):
			b.WriteString("[" + seg + "]")
		case isIdentifier(seg):
			b.WriteString("." + seg)
		default:
			return "", untranslatable("cel", "variable path "+strconv.Quote(path))
		}
	}
	return b.String(), nil
}

// celIf renders a decision chain as nested ternaries. Branches are
// wrapped in dyn() so the checker accepts mixed branch types.
func celIf(args []*rule.Rule, sc celScope) (string, error) {
	switch len(args) {
	case 0:
		return "null", nil
	case 1:
		return celSource(args[0], sc)
	}
	cond, err := celSource(args[0], sc)
	if err != nil {
		return "", err
	}
	then, err := celSource(args[1], sc)
	if err != nil {
		return "", err
	}
	rest := "null"
	if len(args) > 2 {
		if rest, err = celIf(args[2:], sc); err != nil {
			return "", err
		}
	}
	return "(" + cond + " ? dyn(" + then + ") : dyn(" + rest + "))", nil
}

func celBinary(op string, args []*rule.Rule, sc celScope) (string, error) {
	if len(args) != 2 {
		return "", untranslatable("cel", "operator "+strconv.Quote(op)+" without two operands")
	}
	left, err := celSource(args[0], sc)
	if err != nil {
		return "", err
	}
	right, err := celSource(args[1], sc)
	if err != nil {
		return "", err
	}
	return "(" + left + " " + op + " " + right + ")", nil
}

func celBetween(op string, args []*rule.Rule, sc celScope) (string, error) {
	parts, err := celParts(args, sc)
	if err != nil {
		return "", err
	}
	return "((" + parts[0] + " " + op + " " + parts[1] + ") && (" + parts[1] + " " + op + " " + parts[2] + "))", nil
}

func celJoin(joiner string, args []*rule.Rule, sc celScope) (string, error) {
	if len(args) == 0 {
		return "", untranslatable("cel", "operator without operands")
	}
	parts, err := celParts(args, sc)
	if err != nil {
		return "", err
	}
	if len(parts) == 1 {
		return "(" + parts[0] + ")", nil
	}
	return "(" + strings.Join(parts, joiner) + ")", nil
}

func celParts(args []*rule.Rule, sc celScope) ([]string, error) {
	parts := make([]string, len(args))
	for i, a := range args {
		s, err := celSource(a, sc)
		if err != nil {
			return nil, err
		}
		parts[i] = s
	}
	return parts, nil
}

func celOperand(args []*rule.Rule, sc celScope) (string, error) {
	if len(args) == 0 {
		return "null", nil
	}
	return celSource(args[0], sc)
}

// celIteration renders map/filter/all/exists macros with a fresh
// comprehension variable per nesting level.
func celIteration(macro string, args []*rule.Rule, sc celScope) (string, error) {
	if len(args) < 2 {
		return "", untranslatable("cel", "iteration without a body")
	}
	coll, err := celSource(args[0], sc)
	if err != nil {
		return "", err
	}
	item := fmt.Sprintf("it%d", sc.depth)
	body, err := celSource(args[1], celScope{item: item, depth: sc.depth + 1})
	if err != nil {
		return "", err
	}
	return coll + "." + macro + "(" + item + ", " + body + ")", nil
}

// CELEngine evaluates rules by translating them to CEL programs. The
// environment declares every variable root of the rule as Dyn.
// Thread-safe: compiled programs are cached by source and reused across
// goroutines.
type CELEngine struct {
	base *cel.Env

	mu    sync.RWMutex
	cache map[string]cel.Program
}

// NewCELEngine creates a new CEL-backed engine. Cross-type numeric
// comparisons are enabled so double literals compare against whatever
// numbers the data record carries.
func NewCELEngine() (*CELEngine, error) {
	base, err := cel.NewEnv(cel.CrossTypeNumericComparisons(true))
	if err != nil {
		return nil, fmt.Errorf("create CEL environment: %w", err)
	}
	return &CELEngine{
		base:  base,
		cache: make(map[string]cel.Program),
	}, nil
}

// Name returns the engine identifier.
func (e *CELEngine) Name() string {
	return "cel"
}

// Evaluate translates the rule, compiles (or retrieves from cache) the
// program, and evaluates it against an activation built from the rule's
// variable roots. Roots missing from the data record evaluate to null.
func (e *CELEngine) Evaluate(ctx context.Context, r *rule.Rule, data map[string]any) (any, error) {
	source, err := TranslateCEL(r)
	if err != nil {
		return nil, err
	}
	roots := rule.VarRoots(r)

	prg, err := e.getOrCompile(source, roots)
	if err != nil {
		return nil, err
	}

	activation := make(map[string]any, len(roots))
	for _, root := range roots {
		activation[root] = data[root]
	}

	out, _, err := prg.Eval(activation)
	if err != nil {
		return nil, rule.NewErrorf(rule.ErrCodeEval,
			"CEL evaluation failed for %q: %s", source, err.Error()).
			WithCause(err).
			WithDetail("expression", source)
	}
	return out.Value(), nil
}

// getOrCompile returns a cached compiled program or compiles and caches a
// new one. The same source always names the same roots, so the cache key
// stays the source alone.
func (e *CELEngine) getOrCompile(source string, roots []string) (cel.Program, error) {
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

	opts := make([]cel.EnvOption, 0, len(roots))
	for _, root := range roots {
		opts = append(opts, cel.Variable(root, cel.DynType))
	}
	env, err := e.base.Extend(opts...)
	if err != nil {
		return nil, rule.NewErrorf(rule.ErrCodeEval,
			"CEL environment error for %q: %s", source, err.Error()).
			WithCause(err).
			WithDetail("expression", source)
	}

	ast, issues := env.Compile(source)
	if issues != nil && issues.Err() != nil {
		return nil, rule.NewErrorf(rule.ErrCodeEval,
			"CEL compile error in %q: %s", source, issues.Err().Error()).
			WithCause(issues.Err()).
			WithDetail("expression", source)
	}

	prg, err := env.Program(ast)
	if err != nil {
		return nil, rule.NewErrorf(rule.ErrCodeEval,
			"CEL program error for %q: %s", source, err.Error()).
			WithCause(err).
			WithDetail("expression", source)
	}

	e.cache[source] = prg
	return prg, nil
}

var (
	_ Engine               = (*CELEngine)(nil)
	_ rendertree.Evaluator = (*CELEngine)(nil)
)
