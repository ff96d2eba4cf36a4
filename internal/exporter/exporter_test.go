package exporter

import (
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/madpin/jsonlogicui/internal/library"
	"github.com/madpin/jsonlogicui/internal/render"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// stubLibrary satisfies library.Library for export tests; only List is
// implemented.
type stubLibrary struct {
	library.Library
	rules []*library.StoredRule
	err   error
}

func (s stubLibrary) List(_ context.Context, _ library.Filter) ([]*library.StoredRule, error) {
	return s.rules, s.err
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func newTestExporter(rules ...*library.StoredRule) *Exporter {
	return New(stubLibrary{rules: rules}, render.Default(), quietLogger())
}

func storedRule(name, source string) *library.StoredRule {
	return &library.StoredRule{Name: name, Source: source}
}

// --- Export ---

func TestExport_OneFilePerRulePerFormat(t *testing.T) {
	dir := t.TempDir()
	exp := newTestExporter(
		storedRule("age-gate", `{"if": [{">": [{"var": "age"}, 18]}, "adult", "minor"]}`),
		storedRule("has-tag", `{"in": [{"var": "tag"}, ["a", "b"]]}`),
	)

	report, err := exp.Export(context.Background(), Options{Dir: dir})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Rules)
	assert.Equal(t, 8, report.Files)
	assert.Empty(t, report.Failures)

	for _, want := range []string{
		"mermaid/age-gate.mmd", "mermaid/has-tag.mmd",
		"tree/age-gate.txt", "tree/has-tag.txt",
		"layout/age-gate.json", "layout/has-tag.json",
		"ascii/age-gate.txt", "ascii/has-tag.txt",
	} {
		content, err := os.ReadFile(filepath.Join(dir, want))
		require.NoError(t, err, want)
		assert.NotEmpty(t, content, want)
	}
}

func TestExport_FormatSubset(t *testing.T) {
	dir := t.TempDir()
	exp := newTestExporter(storedRule("age-gate", `{">": [{"var": "age"}, 18]}`))

	report, err := exp.Export(context.Background(), Options{Dir: dir, Formats: []string{"mermaid"}})
	require.NoError(t, err)
	assert.Equal(t, 1, report.Files)

	_, err = os.Stat(filepath.Join(dir, "mermaid", "age-gate.mmd"))
	require.NoError(t, err)
	_, err = os.Stat(filepath.Join(dir, "tree"))
	assert.True(t, os.IsNotExist(err))
}

func TestExport_UnknownFormat(t *testing.T) {
	exp := newTestExporter(storedRule("age-gate", `true`))

	_, err := exp.Export(context.Background(), Options{Dir: t.TempDir(), Formats: []string{"svg"}})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeNotFound))
}

func TestExport_RequiresDir(t *testing.T) {
	exp := newTestExporter()

	_, err := exp.Export(context.Background(), Options{})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeValidation))
}

func TestExport_BadSourceBecomesFailure(t *testing.T) {
	dir := t.TempDir()
	exp := newTestExporter(
		storedRule("broken", `{"if": [`),
		storedRule("fine", `true`),
	)

	report, err := exp.Export(context.Background(), Options{Dir: dir, Formats: []string{"tree"}})
	require.NoError(t, err)

	assert.Equal(t, 2, report.Rules)
	assert.Equal(t, 1, report.Files)
	require.Len(t, report.Failures, 1)
	assert.Equal(t, "broken", report.Failures[0].Rule)
	assert.Empty(t, report.Failures[0].Format)
}

func TestExport_ListErrorAborts(t *testing.T) {
	exp := New(stubLibrary{err: rule.NewError(rule.ErrCodeStore, "db gone")}, render.Default(), quietLogger())

	_, err := exp.Export(context.Background(), Options{Dir: t.TempDir()})
	require.Error(t, err)
	assert.True(t, rule.IsCode(err, rule.ErrCodeStore))
}

func TestFileStem(t *testing.T) {
	cases := map[string]string{
		"age-gate":     "age-gate",
		"cart total":   "cart-total",
		"a/b\\c":       "a-b-c",
		"v1.2_final":   "v1.2_final",
		"naïve":        "na-ve",
		"UPPER.lower9": "UPPER.lower9",
	}
	for in, want := range cases {
		assert.Equal(t, want, fileStem(in), in)
	}
}
