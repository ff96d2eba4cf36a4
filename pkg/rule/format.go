package rule

import (
	"fmt"
	"strconv"
	"strings"
)

var comparisonOps = map[string]bool{
	"==": true, "===": true, "!=": true, "!==": true,
	">": true, ">=": true, "<": true, "<=": true,
}

var arithmeticOps = map[string]bool{
	"+": true, "-": true, "*": true, "/": true, "%": true,
}

var iterationOps = map[string]bool{
	"map": true, "filter": true, "reduce": true,
	"all": true, "some": true, "none": true,
}

// IsComparisonOp reports whether op is a binary comparison operator.
func IsComparisonOp(op string) bool { return comparisonOps[op] }

// IsArithmeticOp reports whether op is an arithmetic operator.
func IsArithmeticOp(op string) bool { return arithmeticOps[op] }

// IsIterationOp reports whether op iterates over a collection operand.
func IsIterationOp(op string) bool { return iterationOps[op] }

// IsDecisionOp reports whether op is a conditional ("if" or the "?:"
// ternary alias).
func IsDecisionOp(op string) bool { return op == "if" || op == "?:" }

// IsLogicJoinOp reports whether op joins boolean operands ("and"/"or").
func IsLogicJoinOp(op string) bool { return op == "and" || op == "or" }

// Format renders a one-line display label for a rule. It is total: any
// rule value, including nil, the degenerate {} and unknown operators,
// yields a stable, never-empty string. Compact mode shortens collection
// renderings for use inside parent labels.
//
// Dispatch order matters: "var" is claimed before the generic operator
// fallback, comparisons before arithmetic, so labels stay readable as
// boolean expressions.
func Format(r *Rule, compact bool) string {
	if r == nil {
		return "null"
	}
	switch r.Kind {
	case KindNull:
		return "null"
	case KindBool:
		return strconv.FormatBool(r.Bool)
	case KindNumber:
		return FormatNumber(r.Num)
	case KindString:
		return strconv.Quote(r.Str)
	case KindList:
		return formatList(r, compact)
	case KindOperation:
		return formatOperation(r, compact)
	}
	return "null"
}

func formatList(r *Rule, compact bool) string {
	n := len(r.Items)
	if compact || n > 3 {
		return fmt.Sprintf("[%d items]", n)
	}
	parts := make([]string, n)
	for i, it := range r.Items {
		parts[i] = Format(it, true)
	}
	return "[" + strings.Join(parts, ", ") + "]"
}

func formatOperation(r *Rule, compact bool) string {
	if r.IsEmptyObject() {
		return "{}"
	}
	op := r.Op
	args := r.Args

	switch {
	case op == "var":
		return formatVar(r)

	case comparisonOps[op] && len(args) >= 2:
		return fmt.Sprintf("%s %s %s", Format(args[0], true), op, Format(args[1], true))

	case IsLogicJoinOp(op) && len(args) > 0:
		joiner := " AND "
		if op == "or" {
			joiner = " OR "
		}
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Format(a, true)
		}
		return strings.Join(parts, joiner)

	case op == "!" || op == "!!":
		inner := Format(unwrapSingleton(r), true)
		if op == "!" {
			return "NOT " + inner
		}
		return "BOOL(" + inner + ")"

	case op == "in" && len(args) >= 2:
		needle := Format(args[0], true)
		haystack := Format(args[1], true)
		if args[1] != nil && args[1].Kind == KindList {
			haystack = fmt.Sprintf("[%d items]", len(args[1].Items))
		}
		return fmt.Sprintf("%s in %s", needle, haystack)

	case op == "-" && len(args) == 1:
		return "-" + Format(args[0], true)

	case arithmeticOps[op] && len(args) > 0:
		parts := make([]string, len(args))
		for i, a := range args {
			parts[i] = Format(a, true)
		}
		return strings.Join(parts, " "+op+" ")

	case iterationOps[op]:
		return strings.ToUpper(op) + "(...)"
	}

	return op + "(...)"
}

// formatVar renders a variable reference. The empty path stands for the
// current item of an enclosing iteration.
func formatVar(r *Rule) string {
	path, _ := r.VarPath()
	if path == "" {
		return "(item)"
	}
	return "$" + path
}

// unwrapSingleton peels the array wrapper off a one-element operand list,
// so {"!": [x]} and {"!": x} format identically.
func unwrapSingleton(r *Rule) *Rule {
	if len(r.Args) == 0 {
		return nil
	}
	return r.Args[0]
}

// ConditionLabel renders the label used wherever a rule appears in
// condition position: decision-node titles in the render tree and diamond
// text in flowcharts. Conditions are always fully expanded.
func ConditionLabel(cond *Rule) string {
	return Format(cond, false)
}
