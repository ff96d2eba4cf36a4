package render

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madpin/jsonlogicui/pkg/layout"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

func mustParse(t *testing.T, src string) *rule.Rule {
	t.Helper()
	r, err := rule.ParseString(src)
	require.NoError(t, err)
	return r
}

// fixedEvaluator annotates every fragment with the same value.
type fixedEvaluator struct {
	value any
}

func (f fixedEvaluator) Evaluate(_ context.Context, _ *rule.Rule, _ map[string]any) (any, error) {
	return f.value, nil
}

const ageGate = `{"if": [{">": [{"var": "age"}, 18]}, "adult", "minor"]}`

// --- Mermaid ---

func TestMermaid_Render(t *testing.T) {
	res, err := (mermaidRenderer{}).Render(context.Background(), Request{
		Rule: mustParse(t, ageGate),
	})
	require.NoError(t, err)

	assert.Equal(t, "mermaid", res.Format)
	assert.Equal(t, ".mmd", res.Ext)
	doc := string(res.Content)
	assert.True(t, strings.HasPrefix(doc, "flowchart TD\n"))
	assert.Contains(t, doc, "$age > 18")
}

func TestMermaid_HorizontalOrientation(t *testing.T) {
	res, err := (mermaidRenderer{}).Render(context.Background(), Request{
		Rule:        mustParse(t, ageGate),
		Orientation: "horizontal",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(res.Content), "flowchart LR\n"))
}

// --- Tree ---

func TestTree_Render(t *testing.T) {
	res, err := (treeRenderer{}).Render(context.Background(), Request{
		Rule: mustParse(t, ageGate),
	})
	require.NoError(t, err)

	assert.Equal(t, "tree", res.Format)
	assert.Equal(t, ".txt", res.Ext)
	want := "$age > 18\n" +
		"├─ ✓ \"adult\"\n" +
		"└─ ✗ \"minor\"\n"
	assert.Equal(t, want, string(res.Content))
}

func TestTree_Title(t *testing.T) {
	res, err := (treeRenderer{}).Render(context.Background(), Request{
		Rule:  mustParse(t, ageGate),
		Title: "age-gate",
	})
	require.NoError(t, err)
	assert.True(t, strings.HasPrefix(string(res.Content), "age-gate\n$age > 18\n"))
}

func TestTree_CollapsesDeepSubtrees(t *testing.T) {
	deep := `{"*": [{"+": [{"-": [{"map": [{"var": "xs"}, {"var": ""}]}, 1]}, 2]}, 3]}`

	res, err := (treeRenderer{}).Render(context.Background(), Request{
		Rule: mustParse(t, deep),
	})
	require.NoError(t, err)
	assert.Contains(t, string(res.Content), " [+2]")

	expanded, err := (treeRenderer{}).Render(context.Background(), Request{
		Rule:      mustParse(t, deep),
		ExpandAll: true,
	})
	require.NoError(t, err)
	assert.NotContains(t, string(expanded.Content), " [+")
	assert.Contains(t, string(expanded.Content), "(current item)")
}

func TestTree_ValueOverlays(t *testing.T) {
	res, err := (treeRenderer{}).Render(context.Background(), Request{
		Rule:      mustParse(t, ageGate),
		Data:      map[string]any{"age": 21},
		Evaluator: fixedEvaluator{value: true},
	})
	require.NoError(t, err)

	out := string(res.Content)
	assert.Contains(t, out, "$age > 18 = true")
	assert.Contains(t, out, "✓ \"adult\" = true")
}

func TestTree_NoOverlaysWithoutData(t *testing.T) {
	res, err := (treeRenderer{}).Render(context.Background(), Request{
		Rule:      mustParse(t, ageGate),
		Evaluator: fixedEvaluator{value: true},
	})
	require.NoError(t, err)
	assert.NotContains(t, string(res.Content), " = ")
}

// --- Layout ---

func TestLayout_Render(t *testing.T) {
	res, err := (layoutRenderer{}).Render(context.Background(), Request{
		Rule: mustParse(t, ageGate),
	})
	require.NoError(t, err)

	assert.Equal(t, "layout", res.Format)
	assert.Equal(t, ".json", res.Ext)

	var l layout.Layout
	require.NoError(t, json.Unmarshal(res.Content, &l))
	assert.Len(t, l.Nodes, 3)
	assert.Len(t, l.Edges, 2)
	assert.Greater(t, l.Width, 0.0)
	assert.Greater(t, l.Height, 0.0)
	assert.True(t, strings.HasSuffix(string(res.Content), "\n"))
}

// --- ASCII ---

func TestASCII_Render(t *testing.T) {
	res, err := (asciiRenderer{}).Render(context.Background(), Request{
		Rule:  mustParse(t, ageGate),
		Title: "age-gate",
	})
	require.NoError(t, err)

	assert.Equal(t, "ascii", res.Format)
	assert.Equal(t, ".txt", res.Ext)
	out := string(res.Content)
	assert.True(t, strings.HasPrefix(out, "=== age-gate ===\n"))
	assert.Contains(t, out, "┌")
	assert.Contains(t, out, "$age > 18")
}

// --- Request validation ---

func TestRender_RequiresRule(t *testing.T) {
	for _, r := range Builtin() {
		_, err := r.Render(context.Background(), Request{})
		require.Error(t, err, r.Name())
		assert.True(t, rule.IsCode(err, rule.ErrCodeValidation), r.Name())
	}
}

func TestRender_RejectsUnknownOrientation(t *testing.T) {
	_, err := (mermaidRenderer{}).Render(context.Background(), Request{
		Rule:        mustParse(t, ageGate),
		Orientation: "diagonal",
	})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeValidation))
	assert.Contains(t, err.Error(), "diagonal")
}
