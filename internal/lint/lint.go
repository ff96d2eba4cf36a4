// Package lint checks rule documents before they reach the visual
// pipeline: a structural JSON Schema pass over the raw document, then
// semantic operator-arity checks over the decoded rule. The core
// transforms never depend on it; they degrade gracefully on their own.
package lint

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	jsonschema "github.com/santhosh-tekuri/jsonschema/v6"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// ruleSchemaJSON is the recursive JSON Schema for rule documents.
// Embedded as a constant to avoid filesystem dependencies. Rules span
// almost the whole JSON value space, so the structural stage mainly
// rejects empty operator names; the semantic stage carries the arity
// contracts.
const ruleSchemaJSON = `{
  "$schema": "https://json-schema.org/draft/2020-12/schema",
  "$id": "https://jsonlogicui.dev/schemas/rule.json",
  "$ref": "#/$defs/rule",
  "$defs": {
    "rule": {
      "anyOf": [
        { "type": "null" },
        { "type": "boolean" },
        { "type": "number" },
        { "type": "string" },
        {
          "type": "array",
          "items": { "$ref": "#/$defs/rule" }
        },
        {
          "type": "object",
          "propertyNames": { "minLength": 1 },
          "additionalProperties": { "$ref": "#/$defs/rule" }
        }
      ]
    }
  }
}`

// Linter validates rule documents and data records. It is safe for
// concurrent use.
type Linter struct {
	ruleSchema *jsonschema.Schema

	// mu guards the cache for dynamically compiled data-record schemas.
	mu    sync.RWMutex
	cache map[string]*jsonschema.Schema
}

// NewLinter compiles the embedded rule schema and returns a ready
// linter.
func NewLinter() (*Linter, error) {
	c := jsonschema.NewCompiler()
	c.AssertFormat()

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(ruleSchemaJSON))
	if err != nil {
		return nil, fmt.Errorf("unmarshal rule schema: %w", err)
	}
	if err := c.AddResource("https://jsonlogicui.dev/schemas/rule.json", doc); err != nil {
		return nil, fmt.Errorf("add rule schema resource: %w", err)
	}
	compiled, err := c.Compile("https://jsonlogicui.dev/schemas/rule.json")
	if err != nil {
		return nil, fmt.Errorf("compile rule schema: %w", err)
	}

	return &Linter{
		ruleSchema: compiled,
		cache:      make(map[string]*jsonschema.Schema),
	}, nil
}

// Lint runs both stages over a raw rule document. Comments are stripped
// first, so JSONC sources lint as they parse. Findings aggregate: a
// structural violation does not hide the semantic ones, and a document
// that cannot even parse reports a single PARSE_ERROR.
func (l *Linter) Lint(raw []byte) *rule.ValidationResult {
	res := &rule.ValidationResult{}
	stripped := rule.StripComments(raw)

	doc, err := jsonschema.UnmarshalJSON(bytes.NewReader(stripped))
	if err != nil {
		res.AddError("rule", rule.ErrCodeParse, "invalid JSON: "+err.Error())
		return res
	}
	if err := l.ruleSchema.Validate(doc); err != nil {
		if verr, ok := err.(*jsonschema.ValidationError); ok {
			for _, violation := range collectViolations(verr) {
				res.AddError("rule", rule.ErrCodeValidation, violation)
			}
		} else {
			res.AddError("rule", rule.ErrCodeValidation, err.Error())
		}
	}

	r, err := rule.Parse(stripped)
	if err != nil {
		res.AddError("rule", rule.ErrCodeParse, err.Error())
		return res
	}
	lintNode(r, "rule", res)
	return res
}

// LintRule runs the semantic stage over an already-decoded rule.
func (l *Linter) LintRule(r *rule.Rule) *rule.ValidationResult {
	res := &rule.ValidationResult{}
	lintNode(r, "rule", res)
	return res
}

// ValidateData validates a data record against a JSON Schema provided as
// raw bytes. The compiled schema is cached for subsequent calls with the
// same bytes. An empty schema validates trivially.
func (l *Linter) ValidateData(data map[string]any, dataSchema []byte) error {
	if len(dataSchema) == 0 {
		return nil
	}
	if data == nil {
		data = map[string]any{}
	}

	compiled, err := l.getOrCompile(dataSchema)
	if err != nil {
		return rule.NewError(rule.ErrCodeValidation, "invalid data schema").WithCause(err)
	}

	doc, err := toJSONValue(data)
	if err != nil {
		return rule.NewError(rule.ErrCodeValidation, "failed to serialize data record").WithCause(err)
	}
	if err := compiled.Validate(doc); err != nil {
		return toRuleError(err)
	}
	return nil
}

// CompileDataSchema checks that a data-record schema compiles, caching
// the result for later ValidateData calls.
func (l *Linter) CompileDataSchema(dataSchema []byte) error {
	if len(dataSchema) == 0 {
		return nil
	}
	if _, err := l.getOrCompile(dataSchema); err != nil {
		return rule.NewError(rule.ErrCodeValidation, "invalid data schema").WithCause(err)
	}
	return nil
}

// getOrCompile returns a cached compiled schema or compiles and caches a
// new one.
func (l *Linter) getOrCompile(schemaBytes []byte) (*jsonschema.Schema, error) {
	key := string(schemaBytes)

	l.mu.RLock()
	if cached, ok := l.cache[key]; ok {
		l.mu.RUnlock()
		return cached, nil
	}
	l.mu.RUnlock()

	l.mu.Lock()
	defer l.mu.Unlock()

	// Double-check after acquiring write lock.
	if cached, ok := l.cache[key]; ok {
		return cached, nil
	}

	doc, err := jsonschema.UnmarshalJSON(strings.NewReader(key))
	if err != nil {
		return nil, fmt.Errorf("unmarshal schema: %w", err)
	}

	// Each dynamic schema gets a unique URL to avoid collisions; a
	// fresh compiler keeps resources isolated.
	url := fmt.Sprintf("jsonlogicui://data-schema/%d", len(l.cache))
	c := jsonschema.NewCompiler()
	c.AssertFormat()
	if err := c.AddResource(url, doc); err != nil {
		return nil, fmt.Errorf("add schema resource: %w", err)
	}
	compiled, err := c.Compile(url)
	if err != nil {
		return nil, fmt.Errorf("compile schema: %w", err)
	}

	l.cache[key] = compiled
	return compiled, nil
}

// toJSONValue round-trips a Go value through JSON encoding so numbers
// become json.Number, which the jsonschema library requires.
func toJSONValue(v any) (any, error) {
	b, err := json.Marshal(v)
	if err != nil {
		return nil, err
	}
	return jsonschema.UnmarshalJSON(bytes.NewReader(b))
}

// toRuleError converts a jsonschema.ValidationError into a structured
// error with one message per leaf violation.
func toRuleError(err error) *rule.Error {
	verr, ok := err.(*jsonschema.ValidationError)
	if !ok {
		return rule.NewError(rule.ErrCodeValidation, err.Error())
	}

	found := collectViolations(verr)
	if len(found) == 0 {
		return rule.NewError(rule.ErrCodeValidation, verr.Error())
	}
	if len(found) == 1 {
		return rule.NewError(rule.ErrCodeValidation, found[0]).
			WithDetail("violations", found)
	}
	return rule.NewErrorf(rule.ErrCodeValidation, "validation failed with %d errors", len(found)).
		WithDetail("violations", found)
}

// collectViolations walks a ValidationError tree and collects leaf error
// messages with their instance locations.
func collectViolations(verr *jsonschema.ValidationError) []string {
	if len(verr.Causes) == 0 {
		loc := "/"
		if len(verr.InstanceLocation) > 0 {
			loc = "/" + strings.Join(verr.InstanceLocation, "/")
		}
		return []string{fmt.Sprintf("%s: %s", loc, verr.Error())}
	}
	var found []string
	for _, cause := range verr.Causes {
		found = append(found, collectViolations(cause)...)
	}
	return found
}
