package lint

import (
	"fmt"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// knownOps lists the operators the pipeline understands, whether they
// get dedicated rendering or the generic fallback. Anything outside
// this set still renders, so unknown operators are warnings.
var knownOps = map[string]bool{
	"var": true, "missing": true, "missing_some": true,
	"if": true, "?:": true,
	"==": true, "===": true, "!=": true, "!==": true,
	">": true, ">=": true, "<": true, "<=": true,
	"!": true, "!!": true, "and": true, "or": true,
	"+": true, "-": true, "*": true, "/": true, "%": true,
	"min": true, "max": true,
	"map": true, "filter": true, "reduce": true,
	"all": true, "some": true, "none": true,
	"merge": true, "in": true, "cat": true, "substr": true,
	"log": true,
}

// lintNode walks a rule depth-first, checking each operation node and
// accumulating findings on res. Paths read like "rule.if[0].and[1]".
func lintNode(r *rule.Rule, path string, res *rule.ValidationResult) {
	if r == nil {
		return
	}
	switch r.Kind {
	case rule.KindList:
		for i, item := range r.Items {
			lintNode(item, fmt.Sprintf("%s[%d]", path, i), res)
		}
	case rule.KindOperation:
		lintOperation(r, path, res)
	}
}

func lintOperation(r *rule.Rule, path string, res *rule.ValidationResult) {
	if r.IsEmptyObject() {
		res.AddWarning(path, rule.ErrCodeValidation, "empty object renders as a literal, not an operation")
		return
	}
	checkArity(r, path, res)
	for i, arg := range r.Args {
		lintNode(arg, fmt.Sprintf("%s.%s[%d]", path, r.Op, i), res)
	}
}

// checkArity enforces per-operator operand counts. Violations are
// errors because the renderer has to guess at intent; operators it has
// no opinion on pass through untouched.
func checkArity(r *rule.Rule, path string, res *rule.ValidationResult) {
	op := r.Op
	n := len(r.Args)

	switch {
	case rule.IsDecisionOp(op):
		if n < 2 {
			res.AddError(path, rule.ErrCodeValidation,
				fmt.Sprintf("%q needs a condition and at least one branch, got %d operand(s)", op, n))
		}

	case op == "var":
		if n > 2 {
			res.AddError(path, rule.ErrCodeValidation,
				fmt.Sprintf(`"var" takes a path and an optional default, got %d operands`, n))
		}

	case op == "in":
		if n != 2 {
			res.AddError(path, rule.ErrCodeValidation,
				fmt.Sprintf(`"in" needs exactly 2 operands (needle, haystack), got %d`, n))
		}

	case rule.IsComparisonOp(op):
		if n < 2 || n > 3 {
			res.AddError(path, rule.ErrCodeValidation,
				fmt.Sprintf("%q needs 2 operands, or 3 for a between check, got %d", op, n))
		}

	case rule.IsIterationOp(op):
		if n < 2 || n > 3 {
			res.AddError(path, rule.ErrCodeValidation,
				fmt.Sprintf("%q needs a collection and an expression, got %d operand(s)", op, n))
		}

	default:
		if !knownOps[op] {
			res.AddWarning(path, rule.ErrCodeValidation,
				fmt.Sprintf("unknown operator %q renders as a generic node", op))
		}
	}
}
