package evalbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

func TestNew(t *testing.T) {
	t.Run("default", func(t *testing.T) {
		e, err := New("")
		require.NoError(t, err)
		assert.Equal(t, "expr", e.Name())
	})

	t.Run("expr", func(t *testing.T) {
		e, err := New("expr")
		require.NoError(t, err)
		assert.Equal(t, "expr", e.Name())
	})

	t.Run("cel", func(t *testing.T) {
		e, err := New("cel")
		require.NoError(t, err)
		assert.Equal(t, "cel", e.Name())
	})

	t.Run("unknown", func(t *testing.T) {
		_, err := New("prolog")
		require.Error(t, err)
		assert.True(t, rule.IsCode(err, rule.ErrCodeEval))
	})
}

// --- Backend parity ---

// Both backends must agree wherever both dialects cover an operator.
func TestEngineParity(t *testing.T) {
	exprEngine := NewExprEngine()
	celEngine := newCEL(t)

	data := map[string]any{
		"age":    25.0,
		"role":   "editor",
		"scores": []any{50.0, 80.0, 95.0},
		"user":   map[string]any{"name": "ada"},
	}

	cases := []struct {
		name string
		src  string
		want any
	}{
		{"comparison true", `{">": [{"var": "age"}, 18]}`, true},
		{"comparison false", `{"<": [{"var": "age"}, 18]}`, false},
		{"between", `{"<": [18, {"var": "age"}, 65]}`, true},
		{"equality", `{"==": [{"var": "role"}, "editor"]}`, true},
		{"inequality", `{"!=": [{"var": "role"}, "admin"]}`, true},
		{"decision", `{"if": [{">": [{"var": "age"}, 18]}, "adult", "minor"]}`, "adult"},
		{"chained decision", `{"if": [{"<": [{"var": "age"}, 13]}, "child", {"<": [{"var": "age"}, 20]}, "teen", "adult"]}`, "adult"},
		{"conjunction", `{"and": [{">": [{"var": "age"}, 18]}, {"==": [{"var": "role"}, "editor"]}]}`, true},
		{"disjunction", `{"or": [{">": [{"var": "age"}, 100]}, {"==": [{"var": "role"}, "editor"]}]}`, true},
		{"negation", `{"!": [{">": [{"var": "age"}, 100]}]}`, true},
		{"membership", `{"in": [{"var": "role"}, ["admin", "editor"]]}`, true},
		{"all", `{"all": [{"var": "scores"}, {">": [{"var": ""}, 40]}]}`, true},
		{"some", `{"some": [{"var": "scores"}, {">": [{"var": ""}, 90]}]}`, true},
		{"none", `{"none": [{"var": "scores"}, {"<": [{"var": ""}, 0]}]}`, true},
		{"nested member", `{"==": [{"var": "user.name"}, "ada"]}`, true},
		{"arithmetic on data", `{"*": [{"var": "age"}, 2]}`, 50.0},
		{"concat", `{"cat": ["hello ", {"var": "role"}]}`, "hello editor"},
		{"missing root equals null", `{"==": [{"var": "ghost"}, null]}`, true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			r := mustParse(t, tc.src)

			fromExpr, err := exprEngine.Evaluate(context.Background(), r, data)
			require.NoError(t, err, "expr backend")
			assert.Equal(t, tc.want, fromExpr, "expr backend")

			fromCEL, err := celEngine.Evaluate(context.Background(), r, data)
			require.NoError(t, err, "cel backend")
			assert.Equal(t, tc.want, fromCEL, "cel backend")
		})
	}
}

// Literal-only arithmetic lands in each backend's native number type, so
// parity here is numeric, not type-identical.
func TestEngineParity_LiteralArithmetic(t *testing.T) {
	exprEngine := NewExprEngine()
	celEngine := newCEL(t)
	r := mustParse(t, `{"+": [1, 2, 3]}`)

	fromExpr, err := exprEngine.Evaluate(context.Background(), r, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 6, fromExpr)

	fromCEL, err := celEngine.Evaluate(context.Background(), r, nil)
	require.NoError(t, err)
	assert.EqualValues(t, 6, fromCEL)
}
