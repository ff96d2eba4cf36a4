package mcp

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/madpin/jsonlogicui/internal/datagen"
	"github.com/madpin/jsonlogicui/internal/evalbridge"
	"github.com/madpin/jsonlogicui/internal/library"
	"github.com/madpin/jsonlogicui/internal/logging"
	"github.com/madpin/jsonlogicui/internal/render"
	"github.com/madpin/jsonlogicui/pkg/rule"
)

// ruleInput is a resolved rule argument. Inline source wins over a
// library name; the name still rides along as the diagram title.
type ruleInput struct {
	rule   *rule.Rule
	source string
	name   string
}

// sourceInput resolves the rule argument to raw source without parsing,
// so lint can report on documents that do not decode.
func (s *Server) sourceInput(ctx context.Context, req mcp.CallToolRequest) (source, name string, err error) {
	source = req.GetString("rule", "")
	name = req.GetString("name", "")
	switch {
	case source != "":
		return source, name, nil
	case name != "":
		if s.lib == nil {
			return "", "", rule.NewError(rule.ErrCodeValidation, "no rule library configured")
		}
		sr, err := s.lib.GetByName(ctx, name)
		if err != nil {
			return "", "", err
		}
		return sr.Source, sr.Name, nil
	default:
		return "", "", rule.NewError(rule.ErrCodeValidation, "one of 'rule' or 'name' is required")
	}
}

func (s *Server) ruleInput(ctx context.Context, req mcp.CallToolRequest) (*ruleInput, error) {
	source, name, err := s.sourceInput(ctx, req)
	if err != nil {
		return nil, err
	}
	r, err := rule.ParseString(source)
	if err != nil {
		return nil, err
	}
	return &ruleInput{rule: r, source: source, name: name}, nil
}

// render routes a resolved rule through the format registry.
func (s *Server) render(ctx context.Context, format string, req render.Request) (*render.Result, error) {
	r, err := s.registry.Get(format)
	if err != nil {
		return nil, err
	}
	return r.Render(ctx, req)
}

// handleTree renders the indented text tree, annotated when a data
// record is supplied.
func (s *Server) handleTree(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.ruleInput(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rule resolution failed: %v", err)), nil
	}

	r := render.Request{
		Rule:      in.rule,
		ExpandAll: req.GetBool("expand_all", false),
		Title:     in.name,
	}
	if data := mcp.ParseStringMap(req, "data", nil); data != nil {
		r.Data = data
		r.Evaluator = s.engine
	}

	res, err := s.render(ctx, "tree", r)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("tree render failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(res.Content)), nil
}

// handleFlowchart renders the Mermaid document.
func (s *Server) handleFlowchart(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.ruleInput(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rule resolution failed: %v", err)), nil
	}

	res, err := s.render(ctx, "mermaid", render.Request{
		Rule:        in.rule,
		Orientation: req.GetString("orientation", ""),
		ExpandAll:   req.GetBool("include_values", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("flowchart render failed: %v", err)), nil
	}
	return mcp.NewToolResultText(string(res.Content)), nil
}

// handleLayout computes diagram geometry as JSON.
func (s *Server) handleLayout(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.ruleInput(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rule resolution failed: %v", err)), nil
	}

	res, err := s.render(ctx, "layout", render.Request{
		Rule:        in.rule,
		Orientation: req.GetString("orientation", ""),
		ExpandAll:   req.GetBool("expand_all", false),
	})
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("layout failed: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(res.Content))
}

// handleLint reports structural and semantic findings for a rule
// document. A document that does not parse is a finding, not a tool
// failure.
func (s *Server) handleLint(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source, _, err := s.sourceInput(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rule resolution failed: %v", err)), nil
	}
	return marshalResult(s.linter.Lint([]byte(source)))
}

// handleEval evaluates a rule against a data record.
func (s *Server) handleEval(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.ruleInput(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rule resolution failed: %v", err)), nil
	}

	engine := s.engine
	if name := req.GetString("engine", ""); name != "" && name != engine.Name() {
		e, engErr := evalbridge.New(name)
		if engErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("engine selection failed: %v", engErr)), nil
		}
		engine = e
	}

	data := mcp.ParseStringMap(req, "data", nil)
	if data == nil {
		data = map[string]any{}
	}

	value, err := engine.Evaluate(ctx, in.rule, data)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("evaluation failed: %v", err)), nil
	}
	return marshalResult(map[string]any{
		"value":  value,
		"engine": engine.Name(),
	})
}

// handleTestdata synthesizes a data record for a rule.
func (s *Server) handleTestdata(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	in, err := s.ruleInput(ctx, req)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("rule resolution failed: %v", err)), nil
	}

	seed := time.Now().UnixNano()
	if _, ok := req.GetArguments()["seed"]; ok {
		seed = int64(req.GetInt("seed", 0))
	}
	gen, err := datagen.New(seed)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generator init failed: %v", err)), nil
	}

	record, err := gen.Generate(ctx, in.rule)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("generation failed: %v", err)), nil
	}
	if overrides := mcp.ParseStringMap(req, "overrides", nil); overrides != nil {
		record, err = gen.Merge(ctx, record, overrides)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("override merge failed: %v", err)), nil
		}
	}
	return marshalResult(record)
}

// handleSave stores a named rule in the library. Lint findings are
// advisory: they ride along in the response without blocking the save.
func (s *Server) handleSave(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name, err := req.RequireString("name")
	if err != nil {
		return mcp.NewToolResultError("name is required"), nil
	}
	source, err := req.RequireString("rule")
	if err != nil {
		return mcp.NewToolResultError("rule is required"), nil
	}
	if s.lib == nil {
		return mcp.NewToolResultError("no rule library configured"), nil
	}

	sr := &library.StoredRule{
		Name:        name,
		Description: req.GetString("description", ""),
		Source:      source,
		Tags:        req.GetStringSlice("tags", nil),
	}
	if ds := mcp.ParseStringMap(req, "data_schema", nil); ds != nil {
		raw, marshalErr := json.Marshal(ds)
		if marshalErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid data_schema: %v", marshalErr)), nil
		}
		if compileErr := s.linter.CompileDataSchema(raw); compileErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid data_schema: %v", compileErr)), nil
		}
		sr.DataSchema = raw
	}
	if sd := mcp.ParseStringMap(req, "sample_data", nil); sd != nil {
		if len(sr.DataSchema) > 0 {
			if valErr := s.linter.ValidateData(sd, sr.DataSchema); valErr != nil {
				return mcp.NewToolResultError(fmt.Sprintf("sample_data does not match data_schema: %v", valErr)), nil
			}
		}
		raw, marshalErr := json.Marshal(sd)
		if marshalErr != nil {
			return mcp.NewToolResultError(fmt.Sprintf("invalid sample_data: %v", marshalErr)), nil
		}
		sr.SampleData = raw
	}

	if saveErr := s.lib.Save(ctx, sr); saveErr != nil {
		return mcp.NewToolResultError(fmt.Sprintf("save failed: %v", saveErr)), nil
	}

	logCtx := logging.WithSurface(logging.WithRuleName(ctx, name), logging.SurfaceMCP)
	s.logger.InfoContext(logCtx, "rule saved", slog.String("id", sr.ID))

	out := map[string]any{
		"id":   sr.ID,
		"name": sr.Name,
	}
	if findings := s.linter.Lint([]byte(source)); findings.IssueCount() > 0 {
		out["findings"] = findings
	}
	return marshalResult(out)
}

// handleQuery lists library rules or tags, or fetches one rule by name.
func (s *Server) handleQuery(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if s.lib == nil {
		return mcp.NewToolResultError("no rule library configured"), nil
	}

	if name := req.GetString("name", ""); name != "" {
		sr, err := s.lib.GetByName(ctx, name)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}
		return marshalResult(sr)
	}

	switch resource := req.GetString("resource", "rules"); resource {
	case "rules":
		rules, err := s.lib.List(ctx, library.Filter{
			Tag:    req.GetString("tag", ""),
			Search: req.GetString("search", ""),
			Limit:  req.GetInt("limit", 50),
		})
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}
		return marshalResult(map[string]any{"rules": rules})
	case "tags":
		tags, err := s.lib.Tags(ctx)
		if err != nil {
			return mcp.NewToolResultError(fmt.Sprintf("query failed: %v", err)), nil
		}
		return marshalResult(map[string]any{"tags": tags})
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown resource type: %s", resource)), nil
	}
}

// marshalResult converts a value to a JSON tool result.
func marshalResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.Marshal(v)
	if err != nil {
		return mcp.NewToolResultError(fmt.Sprintf("failed to marshal result: %v", err)), nil
	}
	return mcp.NewToolResultJSON(json.RawMessage(data))
}
