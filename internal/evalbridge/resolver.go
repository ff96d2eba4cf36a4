package evalbridge

import (
	"context"
	"fmt"
	"strconv"

	"github.com/itchyny/gojq"

	"github.com/madpin/jsonlogicui/pkg/rule"
)

// Resolver probes dotted variable paths in data records with jq's
// getpath, and writes values back with setpath. Both programs compile
// once and are safe for concurrent use.
type Resolver struct {
	get *gojq.Code
	set *gojq.Code
}

// NewResolver compiles the two fixed jq programs backing the resolver.
func NewResolver() (*Resolver, error) {
	get, err := compileJQ("getpath($p)", "$p")
	if err != nil {
		return nil, err
	}
	set, err := compileJQ("setpath($p; $v)", "$p", "$v")
	if err != nil {
		return nil, err
	}
	return &Resolver{get: get, set: set}, nil
}

func compileJQ(source string, vars ...string) (*gojq.Code, error) {
	query, err := gojq.Parse(source)
	if err != nil {
		return nil, fmt.Errorf("parse jq %q: %w", source, err)
	}
	code, err := gojq.Compile(query,
		gojq.WithVariables(vars),
		// Sandbox: return empty env to block $ENV and env access.
		gojq.WithEnvironLoader(func() []string { return nil }),
	)
	if err != nil {
		return nil, fmt.Errorf("compile jq %q: %w", source, err)
	}
	return code, nil
}

// Resolve looks a dotted path up in a data record. Missing paths yield
// nil without error; traversing through an incompatible type reports an
// EVAL_ERROR. The empty path returns the whole record.
func (r *Resolver) Resolve(ctx context.Context, path string, data map[string]any) (any, error) {
	input := normalizeJSON(data)
	if path == "" {
		return input, nil
	}

	iter := r.get.RunWithContext(ctx, input, jqPath(path))
	val, ok := iter.Next()
	if !ok {
		return nil, nil
	}
	if err, isErr := val.(error); isErr {
		return nil, rule.NewErrorf(rule.ErrCodeEval,
			"cannot resolve %q: %s", path, err.Error()).
			WithCause(err).
			WithDetail("path", path)
	}
	return val, nil
}

// Set writes a value at a dotted path, creating intermediate objects as
// needed, and returns the updated record. The input record is not
// modified.
func (r *Resolver) Set(ctx context.Context, data map[string]any, path string, value any) (map[string]any, error) {
	if path == "" {
		return nil, rule.NewError(rule.ErrCodeEval, "cannot set the empty path")
	}
	iter := r.set.RunWithContext(ctx, normalizeJSON(data), jqPath(path), normalizeJSON(value))
	val, ok := iter.Next()
	if !ok {
		return nil, rule.NewErrorf(rule.ErrCodeEval, "setting %q produced no output", path)
	}
	if err, isErr := val.(error); isErr {
		return nil, rule.NewErrorf(rule.ErrCodeEval,
			"cannot set %q: %s", path, err.Error()).
			WithCause(err).
			WithDetail("path", path)
	}
	record, ok := val.(map[string]any)
	if !ok {
		return nil, rule.NewErrorf(rule.ErrCodeEval, "setting %q did not produce an object", path)
	}
	return record, nil
}

// Probe resolves every distinct variable path of a rule against a data
// record, best-effort: paths that cannot be traversed map to nil. The
// bare current-item reference is skipped, it only means something inside
// an iteration.
func (r *Resolver) Probe(ctx context.Context, ru *rule.Rule, data map[string]any) map[string]any {
	bindings := map[string]any{}
	for _, ref := range rule.Vars(ru) {
		if ref.Path == "" {
			continue
		}
		val, err := r.Resolve(ctx, ref.Path, data)
		if err != nil {
			bindings[ref.Path] = nil
			continue
		}
		bindings[ref.Path] = val
	}
	return bindings
}

// jqPath converts a dotted path into a jq path array, with all-digit
// segments as list indices.
func jqPath(path string) []any {
	segs := pathSegments(path)
	out := make([]any, len(segs))
	for i, seg := range segs {
		if isIndex(seg) {
			n, _ := strconv.Atoi(seg)
			out[i] = n
			continue
		}
		out[i] = seg
	}
	return out
}

// normalizeJSON converts Go native values to the jq value space, which
// uses float64 for all numbers.
func normalizeJSON(v any) any {
	switch val := v.(type) {
	case map[string]any:
		out := make(map[string]any, len(val))
		for k, v := range val {
			out[k] = normalizeJSON(v)
		}
		return out
	case []any:
		out := make([]any, len(val))
		for i, v := range val {
			out[i] = normalizeJSON(v)
		}
		return out
	case int:
		return float64(val)
	case int64:
		return float64(val)
	case int32:
		return float64(val)
	case float32:
		return float64(val)
	default:
		return v
	}
}
