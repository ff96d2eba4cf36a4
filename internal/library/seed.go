package library

import (
	"context"
	"encoding/json"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// builtinExamples is the rule set Seed installs on first run. Sources
// stay within the operator coverage of both expression backends except
// where the expr-only tag says otherwise (reduce and variable defaults
// have no CEL translation).
var builtinExamples = []StoredRule{
	{
		Name:        "age-gate",
		Description: "Classifies a person as adult or minor from the age field.",
		Source:      `{"if": [{">=": [{"var": "age"}, 18]}, "adult", "minor"]}`,
		Tags:        []string{"decision", "starter"},
		DataSchema:  json.RawMessage(`{"type": "object", "required": ["age"], "properties": {"age": {"type": "number"}}}`),
		SampleData:  json.RawMessage(`{"age": 25}`),
	},
	{
		Name:        "grade-bands",
		Description: "Maps a numeric score onto letter grades with a chained decision.",
		Source:      `{"if": [{">=": [{"var": "score"}, 90]}, "A", {">=": [{"var": "score"}, 75]}, "B", {">=": [{"var": "score"}, 60]}, "C", "F"]}`,
		Tags:        []string{"chained", "decision"},
		SampleData:  json.RawMessage(`{"score": 82}`),
	},
	{
		Name:        "premium-eligibility",
		Description: "Premium plan holders qualify through loyalty or a covered region.",
		Source:      `{"and": [{"==": [{"var": "plan"}, "premium"]}, {"or": [{">": [{"var": ["loyalty_years", 0]}, 2]}, {"in": [{"var": "region"}, ["eu", "us"]]}]}]}`,
		Tags:        []string{"logic", "expr-only"},
		DataSchema:  json.RawMessage(`{"type": "object", "required": ["plan", "region"], "properties": {"plan": {"type": "string"}, "region": {"type": "string"}, "loyalty_years": {"type": "number"}}}`),
		SampleData:  json.RawMessage(`{"plan": "premium", "region": "eu"}`),
	},
	{
		Name:        "shipping-tier",
		Description: "Buckets a package by weight, with a between check for the middle band.",
		Source:      `{"if": [{"<": [{"var": "weight"}, 1]}, "letter", {"<=": [1, {"var": "weight"}, 5]}, "parcel", "freight"]}`,
		Tags:        []string{"decision", "range"},
		SampleData:  json.RawMessage(`{"weight": 3.2}`),
	},
	{
		Name:        "cart-total",
		Description: "Sums item prices with a reduce over the cart.",
		Source:      `{"reduce": [{"var": "items"}, {"+": [{"var": "accumulator"}, {"var": "current.price"}]}, 0]}`,
		Tags:        []string{"iteration", "reduce", "expr-only"},
		SampleData:  json.RawMessage(`{"items": [{"price": 9.5}, {"price": 3.25}]}`),
	},
	{
		Name:        "high-scores",
		Description: "True when any score clears 90.",
		Source:      `{"some": [{"var": "scores"}, {">": [{"var": ""}, 90]}]}`,
		Tags:        []string{"iteration"},
		SampleData:  json.RawMessage(`{"scores": [55, 72, 94]}`),
	},
	{
		Name:        "greeting-label",
		Description: "Builds a greeting string, falling back when the name is missing.",
		Source:      `{"cat": ["Hello, ", {"var": ["name", "stranger"]}, "!"]}`,
		Tags:        []string{"text", "expr-only"},
		SampleData:  json.RawMessage(`{"name": "Ada"}`),
	},
}

// Examples returns fresh copies of the built-in rule set, safe for
// callers to mutate.
func Examples() []*StoredRule {
	out := make([]*StoredRule, len(builtinExamples))
	for i := range builtinExamples {
		ex := builtinExamples[i]
		ex.Tags = append([]string(nil), ex.Tags...)
		out[i] = &ex
	}
	return out
}

// Seed installs any built-in examples missing from the library and
// reports how many it added. Present names are left untouched, so user
// edits survive re-seeding.
func (l *LibSQLLibrary) Seed(ctx context.Context) (int, error) {
	installed := 0
	for _, ex := range Examples() {
		_, err := l.GetByName(ctx, ex.Name)
		if err == nil {
			continue
		}
		if !rule.IsCode(err, rule.ErrCodeNotFound) {
			return installed, err
		}
		if err := l.Save(ctx, ex); err != nil {
			return installed, err
		}
		installed++
	}
	return installed, nil
}
