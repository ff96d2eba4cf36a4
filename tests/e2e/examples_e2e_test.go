package e2e

import (
	"context"
	"encoding/json"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madpin/jsonlogicui/internal/render"
	"github.com/madpin/jsonlogicui/pkg/layout"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// Every shipped example lints clean. A finding here means the seed set
// and the linter disagree about the language.
func TestExamples_LintClean(t *testing.T) {
	h := newHarness(t)

	for _, sr := range h.seed() {
		t.Run(sr.Name, func(t *testing.T) {
			res := h.linter.Lint([]byte(sr.Source))
			assert.Empty(t, res.Errors, "errors: %+v", res.Errors)
			assert.Empty(t, res.Warnings, "warnings: %+v", res.Warnings)
		})
	}
}

// Every example renders in every registered format.
func TestExamples_RenderAllFormats(t *testing.T) {
	h := newHarness(t)

	for _, sr := range h.seed() {
		r, err := sr.Rule()
		require.NoError(t, err)
		for _, format := range formatNames(h.registry) {
			t.Run(sr.Name+"/"+format, func(t *testing.T) {
				h.render(format, render.Request{Rule: r, Title: sr.Name})
			})
		}
	}
}

// Rendering is deterministic: same rule, same document, every time.
func TestExamples_RenderingIsDeterministic(t *testing.T) {
	h := newHarness(t)

	for _, sr := range h.seed() {
		r, err := sr.Rule()
		require.NoError(t, err)
		for _, format := range formatNames(h.registry) {
			first := h.render(format, render.Request{Rule: r, Title: sr.Name})
			second := h.render(format, render.Request{Rule: r, Title: sr.Name})
			assert.Equal(t, string(first.Content), string(second.Content),
				"%s as %s drifted between runs", sr.Name, format)
		}
	}
}

// The age-gate example, end to end, down to the glyphs.
func TestExamples_AgeGateTreeVerbatim(t *testing.T) {
	h := newHarness(t)
	h.seed()

	sr, err := h.lib.GetByName(context.Background(), "age-gate")
	require.NoError(t, err)
	r, err := sr.Rule()
	require.NoError(t, err)

	res := h.render("tree", render.Request{Rule: r, Title: sr.Name})
	want := "age-gate\n" +
		"$age >= 18\n" +
		"├─ ✓ \"adult\"\n" +
		"└─ ✗ \"minor\"\n"
	assert.Equal(t, want, string(res.Content))
}

// Sample data satisfies the example's own schema where both exist.
func TestExamples_SampleDataMatchesSchema(t *testing.T) {
	h := newHarness(t)

	for _, sr := range h.seed() {
		if len(sr.DataSchema) == 0 || len(sr.SampleData) == 0 {
			continue
		}
		t.Run(sr.Name, func(t *testing.T) {
			require.NoError(t, h.linter.ValidateData(sampleRecord(t, sr), sr.DataSchema))
		})
	}
}

// Both engines agree on every example within CEL's dialect; the
// expr-only tag marks the ones CEL cannot express, and those must fail
// with an EVAL_ERROR instead of a wrong answer.
func TestExamples_EngineParity(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	for _, sr := range h.seed() {
		data := sampleRecord(t, sr)
		if data == nil {
			continue
		}
		r, err := sr.Rule()
		require.NoError(t, err)

		t.Run(sr.Name, func(t *testing.T) {
			exprVal, err := h.expr.Evaluate(ctx, r, data)
			require.NoError(t, err, "expr must cover every shipped example")

			celVal, err := h.cel.Evaluate(ctx, r, data)
			if hasTag(sr, "expr-only") {
				require.Error(t, err)
				assert.True(t, rule.IsCode(err, rule.ErrCodeEval))
				return
			}
			require.NoError(t, err)
			assert.EqualValues(t, exprVal, celVal)
		})
	}
}

// Geometry stays sane on real rules: boxes inside the canvas, no two
// boxes in the same row touching.
func TestExamples_LayoutGeometry(t *testing.T) {
	h := newHarness(t)

	for _, sr := range h.seed() {
		r, err := sr.Rule()
		require.NoError(t, err)

		t.Run(sr.Name, func(t *testing.T) {
			res := h.render("layout", render.Request{Rule: r})

			var l layout.Layout
			require.NoError(t, json.Unmarshal(res.Content, &l))
			require.NotEmpty(t, l.Nodes)

			for _, n := range l.Nodes {
				assert.GreaterOrEqual(t, n.X, 0.0)
				assert.GreaterOrEqual(t, n.Y, 0.0)
				assert.LessOrEqual(t, n.X+n.Width, l.Width)
				assert.LessOrEqual(t, n.Y+n.Height, l.Height)
			}
			for i, a := range l.Nodes {
				for _, b := range l.Nodes[i+1:] {
					if a.Y != b.Y {
						continue
					}
					overlap := a.X < b.X+b.Width && b.X < a.X+a.Width
					assert.False(t, overlap, "nodes %q and %q overlap", a.Label, b.Label)
				}
			}
		})
	}
}

// Labels with Mermaid-hostile characters survive the emitter encoded.
func TestExamples_FlowchartEscaping(t *testing.T) {
	h := newHarness(t)

	r, err := rule.ParseString(`{"==": [{"var": "note"}, "a < b | c > d"]}`)
	require.NoError(t, err)

	res := h.render("mermaid", render.Request{Rule: r})
	doc := string(res.Content)
	assert.True(t, strings.HasPrefix(doc, "flowchart TD\n"), "got %q", doc)
	assert.Contains(t, doc, "#lt;")
	assert.NotContains(t, doc, "a < b | c > d")
}
