package evalbridge

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

func newCEL(t *testing.T) *CELEngine {
	t.Helper()
	e, err := NewCELEngine()
	require.NoError(t, err)
	return e
}

func TestNewCELEngine(t *testing.T) {
	e := newCEL(t)
	assert.Equal(t, "cel", e.Name())
}

// --- Translation ---

func TestTranslateCEL(t *testing.T) {
	cases := []struct {
		name string
		src  string
		want string
	}{
		{"null", `null`, "null"},
		{"number becomes double", `42`, "42.0"},
		{"fraction stays put", `2.5`, "2.5"},
		{"string", `"hello"`, `"hello"`},
		{"list", `[1, 2]`, "[1.0, 2.0]"},

		{"bare variable", `{"var": "age"}`, "age"},
		{"nested variable", `{"var": "user.name"}`, "user.name"},
		{"indexed variable", `{"var": "items.0"}`, "items[0]"},

		{"comparison", `{">": [{"var": "age"}, 18]}`, "(age > 18.0)"},
		{"between", `{"<": [1, {"var": "x"}, 10]}`, "((1.0 < x) && (x < 10.0))"},
		{"conjunction", `{"and": [true, false]}`, "(true && false)"},
		{"negation", `{"!": [true]}`, "!(true)"},

		{"decision wraps branches in dyn", `{"if": [true, "a", "b"]}`, `(true ? dyn("a") : dyn("b"))`},
		{"decision without else", `{"if": [true, "a"]}`, `(true ? dyn("a") : dyn(null))`},

		{"arithmetic", `{"+": [1, 2]}`, "(1.0 + 2.0)"},
		{"unary minus", `{"-": [5]}`, "(-(5.0))"},

		{"membership", `{"in": [{"var": "role"}, ["admin", "editor"]]}`, `(role in ["admin", "editor"])`},

		{"map macro", `{"map": [{"var": "xs"}, {"*": [{"var": ""}, 2]}]}`, "xs.map(it0, (it0 * 2.0))"},
		{"filter on item field", `{"filter": [{"var": "xs"}, {">": [{"var": "price"}, 10]}]}`, "xs.filter(it0, (it0.price > 10.0))"},
		{"some becomes exists", `{"some": [{"var": "xs"}, {"var": ""}]}`, "xs.exists(it0, it0)"},
		{"none negates exists", `{"none": [{"var": "xs"}, {"var": ""}]}`, "!(xs.exists(it0, it0))"},
		{"nested iterations get fresh vars", `{"map": [{"var": "xss"}, {"map": [{"var": ""}, {"*": [{"var": ""}, 2]}]}]}`,
			"xss.map(it0, it0.map(it1, (it1 * 2.0)))"},

		{"concat", `{"cat": ["a", {"var": "b"}]}`, `(string("a") + string(b))`},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := TranslateCEL(mustParse(t, tc.src))
			require.NoError(t, err)
			assert.Equal(t, tc.want, got)
		})
	}
}

func TestTranslateCEL_Untranslatable(t *testing.T) {
	for _, src := range []string{
		`{"reduce": [{"var": "xs"}, {"var": "accumulator"}, 0]}`,
		`{"min": [1, 2]}`,
		`{"%": [10, 3]}`,
		`{"var": ["age", 21]}`,
		`{"var": ""}`,
		`{"var": [{"cat": ["a", "b"]}]}`,
		`{"substr": ["hello", 0, 2]}`,
		`{"frobnicate": [1]}`,
	} {
		_, err := TranslateCEL(mustParse(t, src))
		require.Error(t, err, "source: %s", src)
		assert.True(t, rule.IsCode(err, rule.ErrCodeEval), "source: %s", src)
	}
}

// --- Evaluation ---

func TestCELEvaluate_Decision(t *testing.T) {
	e := newCEL(t)
	r := mustParse(t, `{"if": [{">": [{"var": "age"}, 18]}, "adult", "minor"]}`)

	out, err := e.Evaluate(context.Background(), r, map[string]any{"age": 25.0})
	require.NoError(t, err)
	assert.Equal(t, "adult", out)

	out, err = e.Evaluate(context.Background(), r, map[string]any{"age": 10.0})
	require.NoError(t, err)
	assert.Equal(t, "minor", out)
}

func TestCELEvaluate_MissingRootIsNull(t *testing.T) {
	e := newCEL(t)
	r := mustParse(t, `{"==": [{"var": "ghost"}, null]}`)

	out, err := e.Evaluate(context.Background(), r, map[string]any{})
	require.NoError(t, err)
	assert.Equal(t, true, out)
}

func TestCELEvaluate_Quantifiers(t *testing.T) {
	e := newCEL(t)
	data := map[string]any{"scores": []any{50.0, 80.0, 95.0}}

	t.Run("all", func(t *testing.T) {
		r := mustParse(t, `{"all": [{"var": "scores"}, {">": [{"var": ""}, 40]}]}`)
		out, err := e.Evaluate(context.Background(), r, data)
		require.NoError(t, err)
		assert.Equal(t, true, out)
	})

	t.Run("some", func(t *testing.T) {
		r := mustParse(t, `{"some": [{"var": "scores"}, {">": [{"var": ""}, 90]}]}`)
		out, err := e.Evaluate(context.Background(), r, data)
		require.NoError(t, err)
		assert.Equal(t, true, out)
	})

	t.Run("none", func(t *testing.T) {
		r := mustParse(t, `{"none": [{"var": "scores"}, {"<": [{"var": ""}, 0]}]}`)
		out, err := e.Evaluate(context.Background(), r, data)
		require.NoError(t, err)
		assert.Equal(t, true, out)
	})
}

func TestCELEvaluate_RuntimeFailure(t *testing.T) {
	e := newCEL(t)
	r := mustParse(t, `{">": [{"var": "name"}, 5]}`)

	_, err := e.Evaluate(context.Background(), r, map[string]any{"name": "ada"})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeEval))
}

func TestCELEvaluate_UnsupportedOperator(t *testing.T) {
	e := newCEL(t)
	r := mustParse(t, `{"reduce": [{"var": "xs"}, {"var": "current"}, 0]}`)

	_, err := e.Evaluate(context.Background(), r, map[string]any{"xs": []any{1.0}})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeEval))
}

func TestCELEvaluate_ProgramCached(t *testing.T) {
	e := newCEL(t)
	r := mustParse(t, `{">": [{"var": "age"}, 18]}`)

	for range 3 {
		_, err := e.Evaluate(context.Background(), r, map[string]any{"age": 30.0})
		require.NoError(t, err)
	}
	assert.Len(t, e.cache, 1)
}
