package e2e

import (
	"context"
	"encoding/json"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madpin/jsonlogicui/internal/evalbridge"
	"github.com/madpin/jsonlogicui/internal/lint"
	"github.com/madpin/jsonlogicui/internal/library"
	"github.com/madpin/jsonlogicui/internal/render"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// --- Test harness ---

type harness struct {
	t        *testing.T
	lib      library.Library
	linter   *lint.Linter
	registry *render.Registry
	expr     evalbridge.Engine
	cel      evalbridge.Engine
}

func newHarness(t *testing.T) *harness {
	t.Helper()

	dbPath := filepath.Join(t.TempDir(), "e2e.db")
	lib, err := library.NewLibSQLLibrary("file:" + dbPath)
	require.NoError(t, err)
	require.NoError(t, lib.Migrate(context.Background()))
	t.Cleanup(func() { _ = lib.Close() })

	linter, err := lint.NewLinter()
	require.NoError(t, err)

	exprEng, err := evalbridge.New("expr")
	require.NoError(t, err)
	celEng, err := evalbridge.New("cel")
	require.NoError(t, err)

	return &harness{
		t:        t,
		lib:      lib,
		linter:   linter,
		registry: render.Default(),
		expr:     exprEng,
		cel:      celEng,
	}
}

// seed installs the built-in examples and returns the full library.
func (h *harness) seed() []*library.StoredRule {
	h.t.Helper()
	ctx := context.Background()
	_, err := h.lib.Seed(ctx)
	require.NoError(h.t, err)
	rules, err := h.lib.List(ctx, library.Filter{})
	require.NoError(h.t, err)
	require.NotEmpty(h.t, rules)
	return rules
}

func (h *harness) render(format string, req render.Request) *render.Result {
	h.t.Helper()
	rd, err := h.registry.Get(format)
	require.NoError(h.t, err)
	res, err := rd.Render(context.Background(), req)
	require.NoError(h.t, err)
	require.NotEmpty(h.t, res.Content)
	return res
}

func formatNames(reg *render.Registry) []string {
	infos := reg.List()
	names := make([]string, len(infos))
	for i, info := range infos {
		names[i] = info.Name
	}
	return names
}

func sampleRecord(t *testing.T, sr *library.StoredRule) map[string]any {
	t.Helper()
	if len(sr.SampleData) == 0 {
		return nil
	}
	var data map[string]any
	require.NoError(t, json.Unmarshal(sr.SampleData, &data))
	return data
}

func hasTag(sr *library.StoredRule, tag string) bool {
	for _, t := range sr.Tags {
		if t == tag {
			return true
		}
	}
	return false
}

// --- Pipeline tests ---

// A rule travels the whole system: saved with schema and sample data,
// fetched back, linted clean, rendered in every format and evaluated
// by both engines.
func TestPipeline_SaveLintRenderEvaluate(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sr := &library.StoredRule{
		Name:        "discount-check",
		Description: "Orders over 100 with a premium plan get the discount.",
		Source: `{
  // discount gate
  "and": [
    {">": [{"var": "order.total"}, 100]},
    {"==": [{"var": "plan"}, "premium"]}
  ]
}`,
		Tags:       []string{"e2e"},
		DataSchema: json.RawMessage(`{"type": "object", "required": ["plan"], "properties": {"plan": {"type": "string"}}}`),
		SampleData: json.RawMessage(`{"order": {"total": 120}, "plan": "premium"}`),
	}
	require.NoError(t, h.lib.Save(ctx, sr))

	got, err := h.lib.GetByName(ctx, "discount-check")
	require.NoError(t, err)
	// Stored source is verbatim, comments included.
	assert.Equal(t, sr.Source, got.Source)

	res := h.linter.Lint([]byte(got.Source))
	assert.Empty(t, res.Errors)

	data := sampleRecord(t, got)
	require.NoError(t, h.linter.ValidateData(data, got.DataSchema))

	r, err := got.Rule()
	require.NoError(t, err)

	for _, format := range formatNames(h.registry) {
		h.render(format, render.Request{Rule: r, Title: got.Name})
	}

	exprVal, err := h.expr.Evaluate(ctx, r, data)
	require.NoError(t, err)
	celVal, err := h.cel.Evaluate(ctx, r, data)
	require.NoError(t, err)
	assert.Equal(t, true, exprVal)
	assert.Equal(t, exprVal, celVal)
}

// Value overlays flow from the library's sample data through the
// evaluator into the rendered tree.
func TestPipeline_TreeOverlaysFromSampleData(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	sr := &library.StoredRule{
		Name:       "age-split",
		Source:     `{"if": [{">": [{"var": "age"}, 18]}, "adult", "minor"]}`,
		SampleData: json.RawMessage(`{"age": 30}`),
	}
	require.NoError(t, h.lib.Save(ctx, sr))

	got, err := h.lib.GetByName(ctx, "age-split")
	require.NoError(t, err)
	r, err := got.Rule()
	require.NoError(t, err)

	res := h.render("tree", render.Request{
		Rule:      r,
		Title:     got.Name,
		Data:      sampleRecord(t, got),
		Evaluator: h.expr,
	})
	assert.Contains(t, string(res.Content), "$age > 18 = true")
	assert.Contains(t, string(res.Content), `✓ "adult" = true`)
}

// Save refuses sources that do not parse; nothing lands in the
// library.
func TestPipeline_SaveRejectsUnparseableSource(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	err := h.lib.Save(ctx, &library.StoredRule{Name: "broken", Source: `{"if": [`})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeParse))

	_, err = h.lib.GetByName(ctx, "broken")
	assert.True(t, rule.IsCode(err, rule.ErrCodeNotFound))
}

// Renaming-by-save keeps one entry per name and the id stable.
func TestPipeline_SaveIsAnUpsert(t *testing.T) {
	h := newHarness(t)
	ctx := context.Background()

	first := &library.StoredRule{Name: "toggle", Source: `{"var": "on"}`}
	require.NoError(t, h.lib.Save(ctx, first))

	second := &library.StoredRule{Name: "toggle", Source: `{"!": [{"var": "on"}]}`, Description: "negated"}
	require.NoError(t, h.lib.Save(ctx, second))

	assert.Equal(t, first.ID, second.ID)

	rules, err := h.lib.List(ctx, library.Filter{Search: "toggle"})
	require.NoError(t, err)
	require.Len(t, rules, 1)
	assert.Equal(t, "negated", rules[0].Description)
	assert.Contains(t, rules[0].Source, "!")
}

// An unparseable document is a lint finding, not a crash, all the way
// at the surface where raw text enters the system.
func TestPipeline_LintCatchesRawGarbage(t *testing.T) {
	h := newHarness(t)

	res := h.linter.Lint([]byte("this is not json"))
	require.NotEmpty(t, res.Errors)
	assert.Equal(t, rule.ErrCodeParse, res.Errors[0].Code)
}
