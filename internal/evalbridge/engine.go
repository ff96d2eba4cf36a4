// Package evalbridge adapts rules to real expression engines. A rule is
// translated into expression source and delegated to expr-lang or CEL;
// the package never interprets rules itself. Operators a dialect cannot
// express yield an EVAL_ERROR, which annotation treats as a per-node
// failure rather than a fatal one.
package evalbridge

import (
	"context"
	"strconv"
	"strings"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// Engine evaluates rules against data records.
// Two implementations: Expr (default) and CEL.
type Engine interface {
	Name() string
	Evaluate(ctx context.Context, r *rule.Rule, data map[string]any) (any, error)
}

// DefaultEngine is the engine used when no explicit choice is made.
const DefaultEngine = "expr"

// New returns the engine registered under name.
func New(name string) (Engine, error) {
	switch name {
	case "", "expr":
		return NewExprEngine(), nil
	case "cel":
		return NewCELEngine()
	}
	return nil, rule.NewErrorf(rule.ErrCodeEval, "unknown engine %q (want expr or cel)", name)
}

// untranslatable marks a rule fragment the target dialect cannot express.
func untranslatable(dialect, what string) *rule.Error {
	return rule.NewErrorf(rule.ErrCodeEval, "no %s translation for %s", dialect, what)
}

// isIdentifier reports whether a path segment can appear as a bare
// identifier in both dialects.
func isIdentifier(s string) bool {
	if s == "" {
		return false
	}
	for i, c := range s {
		switch {
		case c == '_', c >= 'a' && c <= 'z', c >= 'A' && c <= 'Z':
		case c >= '0' && c <= '9':
			if i == 0 {
				return false
			}
		default:
			return false
		}
	}
	return true
}

// isIndex reports whether a path segment is a numeric list index.
func isIndex(s string) bool {
	if s == "" {
		return false
	}
	for _, c := range s {
		if c < '0' || c > '9' {
			return false
		}
	}
	return true
}

func pathSegments(path string) []string {
	if path == "" {
		return nil
	}
	return strings.Split(path, ".")
}

// celNumber renders a number as CEL source. Every numeric literal becomes
// a double so arithmetic against JSON-decoded float64 data stays within
// one numeric type; CEL does not mix int and double operands.
func celNumber(v float64) string {
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return s
}
