package rendertree

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// evalFunc adapts a function to the Evaluator interface for tests.
type evalFunc func(ctx context.Context, r *rule.Rule, data map[string]any) (any, error)

func (f evalFunc) Evaluate(ctx context.Context, r *rule.Rule, data map[string]any) (any, error) {
	return f(ctx, r, data)
}

func TestAnnotate_AttachesValuesEverywhere(t *testing.T) {
	orig := buildStr(t, `{"if": [{">": [{"var": "age"}, 18]}, "adult", "minor"]}`)

	ev := evalFunc(func(_ context.Context, r *rule.Rule, _ map[string]any) (any, error) {
		if r.Kind == rule.KindString {
			return r.Str, nil
		}
		return true, nil
	})

	annotated := Annotate(context.Background(), orig, ev, map[string]any{"age": 30})

	require.NotNil(t, annotated.Result)
	assert.Equal(t, true, annotated.Result.Value)
	assert.Equal(t, "adult", annotated.Children[0].Result.Value)
	assert.Equal(t, "minor", annotated.Children[1].Result.Value)
}

func TestAnnotate_RecordsFailuresAndContinues(t *testing.T) {
	orig := buildStr(t, `{"if": [{"var": "ok"}, "yes", "no"]}`)

	ev := evalFunc(func(_ context.Context, r *rule.Rule, _ map[string]any) (any, error) {
		if r.IsVar() {
			return nil, rule.NewError(rule.ErrCodeEval, "no translation for var")
		}
		return "value", nil
	})

	annotated := Annotate(context.Background(), orig, ev, nil)

	// Root is a decision, not a bare var; it still gets a value.
	assert.Equal(t, "value", annotated.Result.Value)
	assert.Equal(t, "value", annotated.Children[0].Result.Value)
	assert.Equal(t, "value", annotated.Children[1].Result.Value)
}

func TestAnnotate_ErrorOverlay(t *testing.T) {
	orig := buildStr(t, `{"var": "x"}`)

	ev := evalFunc(func(_ context.Context, _ *rule.Rule, _ map[string]any) (any, error) {
		return nil, rule.NewError(rule.ErrCodeEval, "unsupported operator")
	})

	annotated := Annotate(context.Background(), orig, ev, nil)

	require.NotNil(t, annotated.Result)
	assert.Nil(t, annotated.Result.Value)
	assert.Contains(t, annotated.Result.Err, "unsupported operator")
}

func TestAnnotate_InputTreeUntouched(t *testing.T) {
	orig := buildStr(t, `{"if": [{"var": "x"}, 1, 0]}`)

	ev := evalFunc(func(_ context.Context, _ *rule.Rule, _ map[string]any) (any, error) {
		return 42, nil
	})
	annotated := Annotate(context.Background(), orig, ev, nil)

	Walk(orig, func(n *RenderNode) bool {
		assert.Nil(t, n.Result)
		return true
	})

	// Ids, labels and shape carry over unchanged.
	assert.Equal(t, orig.ID, annotated.ID)
	assert.Equal(t, orig.Label, annotated.Label)
	assert.Equal(t, Count(orig), Count(annotated))
}

func TestAnnotate_NilEvaluatorIsANoop(t *testing.T) {
	orig := buildStr(t, `{"var": "x"}`)
	assert.Same(t, orig, Annotate(context.Background(), orig, nil, nil))
}

func TestClearAnnotations(t *testing.T) {
	orig := buildStr(t, `{"if": [{"var": "x"}, 1, 0]}`)
	ev := evalFunc(func(_ context.Context, _ *rule.Rule, _ map[string]any) (any, error) {
		return 1, nil
	})
	annotated := Annotate(context.Background(), orig, ev, nil)

	cleared := ClearAnnotations(annotated)
	Walk(cleared, func(n *RenderNode) bool {
		assert.Nil(t, n.Result)
		return true
	})

	// A tree with no overlays comes back as-is.
	assert.Same(t, cleared, ClearAnnotations(cleared))
}
